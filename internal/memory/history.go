package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve"
)

// History wraps a Store with a full-text index over commands and logs so
// past runs can be found by what they did, not just when they ran. The
// index lives in memory and is rebuilt per process; the store is the
// durable side.
type History struct {
	store Store

	mu    sync.Mutex
	index bleve.Index
}

type runDocument struct {
	Command string `json:"command"`
	Log     string `json:"log"`
}

// NewHistory builds a history over the given store.
func NewHistory(store Store) (*History, error) {
	index, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("creating history index: %w", err)
	}
	return &History{store: store, index: index}, nil
}

// Add persists a record and makes it searchable.
func (h *History) Add(ctx context.Context, rec Record) error {
	if err := h.store.Save(ctx, rec); err != nil {
		return err
	}
	doc := runDocument{Command: rec.Command, Log: strings.Join(rec.Logs, "\n")}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.index.Index(rec.ID, doc)
}

// Recent returns the newest records.
func (h *History) Recent(ctx context.Context, limit int) ([]Record, error) {
	return h.store.Recent(ctx, limit)
}

// Get returns one record by id.
func (h *History) Get(ctx context.Context, id string) (Record, error) {
	return h.store.Get(ctx, id)
}

// Search finds past runs matching the query, best first.
func (h *History) Search(ctx context.Context, query string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 10
	}
	req := bleve.NewSearchRequestOptions(bleve.NewMatchQuery(query), limit, 0, false)

	h.mu.Lock()
	res, err := h.index.Search(req)
	h.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("searching history: %w", err)
	}

	recs := make([]Record, 0, len(res.Hits))
	for _, hit := range res.Hits {
		rec, err := h.store.Get(ctx, hit.ID)
		if err != nil {
			if errors.Is(err, ErrRunNotFound) {
				continue
			}
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, nil
}
