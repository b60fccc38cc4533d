// Package store archives executed runs in Postgres. The archive is
// optional; without a configured database the service keeps history only in
// memory or Redis.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/taskpilot/taskpilot/config"
	"github.com/taskpilot/taskpilot/internal/memory"
	"github.com/taskpilot/taskpilot/internal/plan"
)

// Archive stores finished runs durably.
type Archive struct {
	DB *sql.DB
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, cfg config.PostgresConfig) (*Archive, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	pingCtx := ctx
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &Archive{DB: db}, nil
}

// SaveRun archives one finished run.
func (a *Archive) SaveRun(ctx context.Context, rec memory.Record) error {
	planJSON, err := json.Marshal(rec.Plan)
	if err != nil {
		return fmt.Errorf("marshalling plan: %w", err)
	}
	_, err = a.DB.ExecContext(ctx,
		`INSERT INTO runs (id, command, email, profile, plan, logs, started_at, duration_ms)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, rec.Command, rec.Email, rec.Profile, planJSON, pq.Array(rec.Logs),
		rec.StartedAt, rec.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	return nil
}

// GetRun loads one archived run by id.
func (a *Archive) GetRun(ctx context.Context, id string) (memory.Record, error) {
	row := a.DB.QueryRowContext(ctx,
		`SELECT id, command, email, profile, plan, logs, started_at, duration_ms
		 FROM runs WHERE id = $1`, id)
	rec, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return memory.Record{}, memory.ErrRunNotFound
	}
	return rec, err
}

// ListRuns returns archived runs, newest first.
func (a *Archive) ListRuns(ctx context.Context, limit int) ([]memory.Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := a.DB.QueryContext(ctx,
		`SELECT id, command, email, profile, plan, logs, started_at, duration_ms
		 FROM runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var recs []memory.Record
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s scanner) (memory.Record, error) {
	var (
		rec        memory.Record
		planJSON   []byte
		logs       pq.StringArray
		durationMS int64
	)
	if err := s.Scan(&rec.ID, &rec.Command, &rec.Email, &rec.Profile, &planJSON, &logs, &rec.StartedAt, &durationMS); err != nil {
		return memory.Record{}, err
	}
	var p plan.Plan
	if len(planJSON) > 0 {
		if err := json.Unmarshal(planJSON, &p); err != nil {
			return memory.Record{}, fmt.Errorf("unmarshalling plan: %w", err)
		}
	}
	rec.Plan = p
	rec.Logs = logs
	rec.Duration = time.Duration(durationMS) * time.Millisecond
	return rec, nil
}
