package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/taskpilot/taskpilot/internal/plan"
)

func testRecord(command string, logs ...string) Record {
	return Record{
		ID:        uuid.NewString(),
		Command:   command,
		Profile:   "basic",
		Plan:      plan.Plan{Input: command},
		Logs:      logs,
		StartedAt: time.Now(),
	}
}

func TestInMemoryStoreRecentOrder(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore(0)

	var ids []string
	for i := 0; i < 3; i++ {
		rec := testRecord(fmt.Sprintf("command %d", i))
		ids = append(ids, rec.ID)
		if err := store.Save(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	recent, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recent))
	}
	if recent[0].ID != ids[2] || recent[1].ID != ids[1] {
		t.Errorf("recent should be newest first, got %v", []string{recent[0].ID, recent[1].ID})
	}
}

func TestInMemoryStoreGet(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore(0)
	rec := testRecord("find cats")
	if err := store.Save(ctx, rec); err != nil {
		t.Fatal(err)
	}

	got, err := store.Get(ctx, rec.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Command != "find cats" {
		t.Errorf("unexpected command: %q", got.Command)
	}

	if _, err := store.Get(ctx, "missing"); err != ErrRunNotFound {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

func TestInMemoryStoreEvicts(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore(2)
	for i := 0; i < 5; i++ {
		if err := store.Save(ctx, testRecord(fmt.Sprintf("cmd %d", i))); err != nil {
			t.Fatal(err)
		}
	}
	recent, err := store.Recent(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 {
		t.Errorf("store should cap at 2 records, got %d", len(recent))
	}
	if recent[0].Command != "cmd 4" {
		t.Errorf("newest record should survive eviction, got %q", recent[0].Command)
	}
}

func TestHistorySearch(t *testing.T) {
	ctx := context.Background()
	history, err := NewHistory(NewInMemoryStore(0))
	if err != nil {
		t.Fatal(err)
	}

	internships := testRecord("Find me top 5 internships in Bangalore", "Search: found 5 results")
	flights := testRecord("look for cheap flights", "Search: found 5 results")
	for _, rec := range []Record{internships, flights} {
		if err := history.Add(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	hits, err := history.Search(ctx, "internships", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	if hits[0].ID != internships.ID {
		t.Errorf("unexpected hit: %q", hits[0].Command)
	}

	hits, err = history.Search(ctx, "found", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 {
		t.Errorf("log lines should be searchable, got %d hits", len(hits))
	}
}

func TestHistorySearchNoMatches(t *testing.T) {
	ctx := context.Background()
	history, err := NewHistory(NewInMemoryStore(0))
	if err != nil {
		t.Fatal(err)
	}
	if err := history.Add(ctx, testRecord("find cats")); err != nil {
		t.Fatal(err)
	}
	hits, err := history.Search(ctx, "submarines", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Errorf("expected no hits, got %d", len(hits))
	}
}
