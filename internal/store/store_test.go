package store

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/taskpilot/taskpilot/internal/memory"
	"github.com/taskpilot/taskpilot/internal/plan"
)

func TestSaveRun(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	archive := &Archive{DB: db}

	rec := memory.Record{
		ID:      "6e1f5d40-0000-0000-0000-000000000001",
		Command: "find cats",
		Profile: "basic",
		Plan: plan.Plan{Input: "find cats", Steps: []plan.Step{
			{ID: 1, Tool: "search", Args: map[string]interface{}{"query": "cats"}},
		}},
		Logs:      []string{"Starting step 1 -> search"},
		StartedAt: time.Now(),
		Duration:  1500 * time.Millisecond,
	}

	mock.ExpectExec("INSERT INTO runs").
		WithArgs(rec.ID, rec.Command, rec.Email, rec.Profile, sqlmock.AnyArg(), sqlmock.AnyArg(), rec.StartedAt, int64(1500)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := archive.SaveRun(context.Background(), rec); err != nil {
		t.Fatal(err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestListRuns(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	archive := &Archive{DB: db}

	started := time.Now()
	rows := sqlmock.NewRows([]string{"id", "command", "email", "profile", "plan", "logs", "started_at", "duration_ms"}).
		AddRow("id-1", "find cats", "", "basic", []byte(`{"input":"find cats","steps":[]}`), []byte(`{"LOG: done"}`), started, int64(42))
	mock.ExpectQuery("SELECT id, command, email, profile, plan, logs, started_at, duration_ms").
		WithArgs(10).
		WillReturnRows(rows)

	recs, err := archive.ListRuns(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	got := recs[0]
	if got.Command != "find cats" || got.Plan.Input != "find cats" {
		t.Errorf("unexpected record: %+v", got)
	}
	if len(got.Logs) != 1 || got.Logs[0] != "LOG: done" {
		t.Errorf("unexpected logs: %v", got.Logs)
	}
	if got.Duration != 42*time.Millisecond {
		t.Errorf("unexpected duration: %v", got.Duration)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestGetRunNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	archive := &Archive{DB: db}

	mock.ExpectQuery("SELECT id, command, email, profile, plan, logs, started_at, duration_ms").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "command", "email", "profile", "plan", "logs", "started_at", "duration_ms"}))

	if _, err := archive.GetRun(context.Background(), "missing"); err != memory.ErrRunNotFound {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
