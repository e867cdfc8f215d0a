// Package session keeps per-visitor state ("my submissions", confirmations
// already cast) in a signed cookie instead of process memory.
package session

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

const (
	// CookieName is the cookie holding the signed session token.
	CookieName = "gf_session"
	// MaxTracked caps each id list carried in the cookie.
	MaxTracked = 50
	// DefaultTTL is the cookie lifetime counted from its last save.
	DefaultTTL = 30 * 24 * time.Hour
)

// ErrInvalid is returned for a cookie that fails signature or expiry checks.
var ErrInvalid = errors.New("session: invalid token")

// State is the session-local view of what a visitor did.
type State struct {
	ID        string
	Submitted []string
	Confirmed []string
	Voted     []string
}

// SubmittedIDs returns the case ids submitted in this session, oldest first.
func (s *State) SubmittedIDs() []string { return slices.Clone(s.Submitted) }

func (s *State) AddSubmitted(id string) { s.Submitted = track(s.Submitted, id) }

func (s *State) HasConfirmed(id string) bool { return slices.Contains(s.Confirmed, id) }

func (s *State) AddConfirmed(id string) { s.Confirmed = track(s.Confirmed, id) }

func (s *State) HasVoted(id string) bool { return slices.Contains(s.Voted, id) }

func (s *State) AddVoted(id string) { s.Voted = track(s.Voted, id) }

// track appends id once and drops the oldest entries beyond MaxTracked.
func track(list []string, id string) []string {
	if id == "" || slices.Contains(list, id) {
		return list
	}
	list = append(list, id)
	if len(list) > MaxTracked {
		list = slices.Clone(list[len(list)-MaxTracked:])
	}
	return list
}

type claims struct {
	Submitted []string `json:"sub_ids,omitempty"`
	Confirmed []string `json:"conf_ids,omitempty"`
	Voted     []string `json:"vote_ids,omitempty"`
	jwt.RegisteredClaims
}

// Tracker reads and writes State as an HS256 JWT cookie.
type Tracker struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
	newID  func() string
}

func NewTracker(secret string, ttl time.Duration, secure bool) *Tracker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Tracker{
		secret: []byte(secret),
		ttl:    ttl,
		secure: secure,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	t.now = now
	return t
}

// Load returns the state carried by r. A missing or invalid cookie starts a
// fresh session.
func (t *Tracker) Load(r *http.Request) State {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return State{ID: t.newID()}
	}
	st, err := t.Decode(c.Value)
	if err != nil {
		return State{ID: t.newID()}
	}
	return st
}

// Save writes st back to the client.
func (t *Tracker) Save(w http.ResponseWriter, st State) error {
	token, err := t.Encode(st)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(t.ttl / time.Second),
		HttpOnly: true,
		Secure:   t.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (t *Tracker) Encode(st State) (string, error) {
	now := t.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Submitted: st.Submitted,
		Confirmed: st.Confirmed,
		Voted:     st.Voted,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        st.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	})
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("session: sign: %w", err)
	}
	return signed, nil
}

func (t *Tracker) Decode(token string) (State, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil {
		return State{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.ID == "" {
		return State{}, fmt.Errorf("%w: missing session id", ErrInvalid)
	}
	return State{ID: c.ID, Submitted: c.Submitted, Confirmed: c.Confirmed, Voted: c.Voted}, nil
}

// SubmitterHash derives the pseudonym stored with a case from a server-side
// salt and the session id, so records can be grouped without identifying the
// visitor.
func SubmitterHash(salt, sessionID string) string {
	if sessionID == "" {
		return ""
	}
	sum := blake2b.Sum256([]byte(salt + "\x00" + sessionID))
	return hex.EncodeToString(sum[:])
}
