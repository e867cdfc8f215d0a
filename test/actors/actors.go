package actors

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"guarulhosfacil/cases"
)

// Tally records what the actors attempted and what the store acknowledged,
// so oracles can bound the persisted state.
type Tally struct {
	mu        sync.Mutex
	attempted map[string]int
	acked     map[string]int
	submitted []string
	failures  int
}

func NewTally() *Tally {
	return &Tally{
		attempted: make(map[string]int),
		acked:     make(map[string]int),
	}
}

func (t *Tally) attempt(id string) {
	t.mu.Lock()
	t.attempted[id]++
	t.mu.Unlock()
}

func (t *Tally) ack(id string) {
	t.mu.Lock()
	t.acked[id]++
	t.mu.Unlock()
}

func (t *Tally) fail() {
	t.mu.Lock()
	t.failures++
	t.mu.Unlock()
}

func (t *Tally) submit(id string) {
	t.mu.Lock()
	t.submitted = append(t.submitted, id)
	t.mu.Unlock()
}

// Attempted returns a copy of the confirmation attempts per case.
func (t *Tally) Attempted() map[string]int { return t.copyOf(t.attempted) }

// Acked returns a copy of the acknowledged confirmations per case.
func (t *Tally) Acked() map[string]int { return t.copyOf(t.acked) }

// Submitted returns the ids of acknowledged appends.
func (t *Tally) Submitted() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.submitted...)
}

// Failures counts store errors seen by the actors.
func (t *Tally) Failures() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.failures
}

func (t *Tally) copyOf(m map[string]int) map[string]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Confirmer hammers the same few cases with confirmations. A lost update shows
// up as a stored count below 1 + acknowledged increments.
func Confirmer(ctx context.Context, repo cases.Repository, ids []string, tally *Tally, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		id := ids[rand.Intn(len(ids))]
		tally.attempt(id)
		if _, err := repo.IncrementConfirmations(ctx, id); err != nil {
			if errors.Is(err, cases.ErrNotFound) {
				return fmt.Errorf("confirmer: seeded case %s vanished", id)
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// backend killed by chaos
			tally.fail()
		} else {
			tally.ack(id)
		}
		time.Sleep(time.Duration(5+rand.Intn(10)) * time.Millisecond)
	}
}

// Voter flips cases to the voted status while confirmations keep landing.
func Voter(ctx context.Context, repo cases.Repository, ids []string, tally *Tally, stop <-chan struct{}) error {
	status := cases.StatusVotedResolved
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		id := ids[rand.Intn(len(ids))]
		if err := repo.UpdateFields(ctx, id, cases.Fields{Status: &status}); err != nil {
			if errors.Is(err, cases.ErrNotFound) {
				return fmt.Errorf("voter: seeded case %s vanished", id)
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			tally.fail()
		}
		time.Sleep(time.Duration(40+rand.Intn(60)) * time.Millisecond)
	}
}

// Submitter appends fresh cases next to the contended ones.
func Submitter(ctx context.Context, repo cases.Repository, tally *Tally, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		rec := NewRecord(uuid.NewString())
		id, err := repo.Append(ctx, rec)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			tally.fail()
		} else {
			tally.submit(id)
		}
		time.Sleep(time.Duration(30+rand.Intn(40)) * time.Millisecond)
	}
}

// NewRecord builds a pending case with one confirmation around the city centre.
func NewRecord(id string) cases.Record {
	photo := "stress://" + id + ".jpg"
	return cases.Record{
		ID:            id,
		Category:      cases.Categories[rand.Intn(len(cases.Categories))],
		Description:   "stress " + id,
		Latitude:      -23.456 + rand.Float64()/100,
		Longitude:     -46.543 + rand.Float64()/100,
		CreatedAt:     time.Now().UTC(),
		Confirmations: 1,
		Status:        cases.StatusPending,
		PhotoURL:      &photo,
	}
}
