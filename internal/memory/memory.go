// Package memory keeps the run history: every executed plan with its log,
// queryable by recency and by full-text search.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/taskpilot/taskpilot/internal/plan"
)

// ErrRunNotFound indicates the requested run id is absent from the store.
var ErrRunNotFound = errors.New("run not found")

// Record is one executed plan with everything needed to replay what the
// user saw.
type Record struct {
	ID        string        `json:"id"`
	Command   string        `json:"command"`
	Email     string        `json:"email,omitempty"`
	Profile   string        `json:"profile"`
	Plan      plan.Plan     `json:"plan"`
	Logs      []string      `json:"logs"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// Store persists run records.
type Store interface {
	Save(ctx context.Context, rec Record) error
	Get(ctx context.Context, id string) (Record, error)
	Recent(ctx context.Context, limit int) ([]Record, error)
}

// InMemoryStore is the fallback store used when no Redis is configured.
// Bounded so long-running demo processes do not grow without limit.
type InMemoryStore struct {
	mu   sync.RWMutex
	max  int
	recs []Record
}

// NewInMemoryStore creates a store capped at max records; max <= 0 means 1000.
func NewInMemoryStore(max int) *InMemoryStore {
	if max <= 0 {
		max = 1000
	}
	return &InMemoryStore{max: max}
}

// Save implements Store. Newest records are kept, oldest evicted.
func (s *InMemoryStore) Save(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = append(s.recs, rec)
	if len(s.recs) > s.max {
		s.recs = s.recs[len(s.recs)-s.max:]
	}
	return nil
}

// Get implements Store.
func (s *InMemoryStore) Get(_ context.Context, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.recs {
		if r.ID == id {
			return r, nil
		}
	}
	return Record{}, ErrRunNotFound
}

// Recent implements Store, newest first.
func (s *InMemoryStore) Recent(_ context.Context, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.recs) {
		limit = len(s.recs)
	}
	out := make([]Record, 0, limit)
	for i := len(s.recs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.recs[i])
	}
	return out, nil
}
