package cases

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisRepository stores each case as a hash under <prefix>:cases:<id> and
// keeps the ids in the set <prefix>:cases.
type RedisRepository struct {
	rdb    redis.Cmdable
	prefix string
}

type RedisOption func(*RedisRepository)

func WithKeyPrefix(prefix string) RedisOption {
	return func(r *RedisRepository) {
		if p := strings.Trim(prefix, ":"); p != "" {
			r.prefix = p
		}
	}
}

// NewRedisRepository wires a go-redis client as a case repository.
func NewRedisRepository(rdb redis.Cmdable, opts ...RedisOption) *RedisRepository {
	r := &RedisRepository{rdb: rdb, prefix: "guarulhosfacil"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RedisRepository) indexKey() string { return r.prefix + ":cases" }

func (r *RedisRepository) caseKey(id string) string { return r.prefix + ":cases:" + id }

// Append claims the id in the index set, then writes the record hash.
func (r *RedisRepository) Append(ctx context.Context, rec Record) (string, error) {
	if rec.ID == "" {
		return "", ErrMissingID
	}
	added, err := r.rdb.SAdd(ctx, r.indexKey(), rec.ID).Result()
	if err != nil {
		return "", fmt.Errorf("cases: append index: %w", err)
	}
	if added == 0 {
		return "", ErrDuplicateID
	}

	if err := r.rdb.HSet(ctx, r.caseKey(rec.ID), EncodeFields(rec)).Err(); err != nil {
		_ = r.rdb.SRem(ctx, r.indexKey(), rec.ID).Err()
		return "", fmt.Errorf("cases: append: %w", err)
	}
	return rec.ID, nil
}

// ListAll reads every indexed hash in a single pipeline. Ids whose hash has
// vanished are skipped.
func (r *RedisRepository) ListAll(ctx context.Context) (map[string]Record, error) {
	ids, err := r.rdb.SMembers(ctx, r.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("cases: list ids: %w", err)
	}
	out := make(map[string]Record, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	pipe := r.rdb.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, r.caseKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("cases: list: %w", err)
	}

	for i, cmd := range cmds {
		raw, err := cmd.Result()
		if err != nil {
			return nil, fmt.Errorf("cases: read %s: %w", ids[i], err)
		}
		if len(raw) == 0 {
			continue
		}
		out[ids[i]] = DecodeFields(ids[i], raw)
	}
	return out, nil
}

// Get reads one case hash.
func (r *RedisRepository) Get(ctx context.Context, id string) (Record, error) {
	raw, err := r.rdb.HGetAll(ctx, r.caseKey(id)).Result()
	if err != nil {
		return Record{}, fmt.Errorf("cases: get: %w", err)
	}
	if len(raw) == 0 {
		return Record{}, ErrNotFound
	}
	return DecodeFields(id, raw), nil
}

// UpdateFields overwrites the given hash fields; other fields are kept.
func (r *RedisRepository) UpdateFields(ctx context.Context, id string, fields Fields) error {
	if fields.Confirmations != nil && *fields.Confirmations < 1 {
		return ErrInvalidConfirmations
	}
	if err := r.ensureExists(ctx, id); err != nil {
		return err
	}
	if fields.empty() {
		return nil
	}

	values := make(map[string]any, 2)
	if fields.Status != nil {
		values[fieldStatus] = string(*fields.Status)
	}
	if fields.Confirmations != nil {
		values[fieldConfirmations] = *fields.Confirmations
	}
	if err := r.rdb.HSet(ctx, r.caseKey(id), values).Err(); err != nil {
		return fmt.Errorf("cases: update fields: %w", err)
	}
	return nil
}

// incrementScript adds one confirmation, reading a missing or malformed count
// as 1 the way DecodeFields does. It returns -1 when the case is absent.
var incrementScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return -1
end
local n = tonumber(redis.call('HGET', KEYS[1], ARGV[1]))
if n == nil or n < 1 or n ~= math.floor(n) then
	n = 1
end
n = n + 1
redis.call('HSET', KEYS[1], ARGV[1], n)
return n
`)

// IncrementConfirmations runs as one script, so concurrent confirmations are
// not lost.
func (r *RedisRepository) IncrementConfirmations(ctx context.Context, id string) (int, error) {
	total, err := incrementScript.Run(ctx, r.rdb, []string{r.caseKey(id)}, fieldConfirmations).Int()
	if err != nil {
		return 0, fmt.Errorf("cases: increment confirmations: %w", err)
	}
	if total < 0 {
		return 0, ErrNotFound
	}
	return total, nil
}

func (r *RedisRepository) ensureExists(ctx context.Context, id string) error {
	n, err := r.rdb.Exists(ctx, r.caseKey(id)).Result()
	if err != nil {
		return fmt.Errorf("cases: check exists: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
