package server

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/taskpilot/taskpilot/internal/agent"
	"github.com/taskpilot/taskpilot/internal/memory"
	"github.com/taskpilot/taskpilot/internal/plan"
	"github.com/taskpilot/taskpilot/internal/store"
)

// Runner ties the planner, the per-profile controllers and the history
// together: one call takes a command through planning, execution and
// recording.
type Runner struct {
	planner        agent.Planner
	controllers    map[string]*agent.Controller
	defaultProfile string
	history        *memory.History
	archive        *store.Archive
	logger         *log.Logger
}

// Run plans and executes one command. The profile selects the controller
// ("basic" or "enhanced"); empty means the configured default. The returned
// record has already been added to history.
func (r *Runner) Run(ctx context.Context, command, email, profile string) (memory.Record, error) {
	if profile == "" {
		profile = r.defaultProfile
	}
	controller, ok := r.controllers[profile]
	if !ok {
		return memory.Record{}, fmt.Errorf("unknown tools profile %q", profile)
	}

	p, err := r.planner.Plan(ctx, command, email)
	if err != nil {
		return memory.Record{}, fmt.Errorf("planning: %w", err)
	}

	started := time.Now()
	logs := controller.ExecutePlan(ctx, p)

	rec := memory.Record{
		ID:        uuid.NewString(),
		Command:   command,
		Email:     email,
		Profile:   profile,
		Plan:      p,
		Logs:      logs,
		StartedAt: started,
		Duration:  time.Since(started),
	}
	if err := r.history.Add(ctx, rec); err != nil {
		r.logger.Printf("recording run %s: %v", rec.ID, err)
	}
	if r.archive != nil {
		if err := r.archive.SaveRun(ctx, rec); err != nil {
			r.logger.Printf("archiving run %s: %v", rec.ID, err)
		}
	}
	return rec, nil
}

// PlanOnly produces the plan for a command without executing it.
func (r *Runner) PlanOnly(ctx context.Context, command, email string) (plan.Plan, error) {
	p, err := r.planner.Plan(ctx, command, email)
	if err != nil {
		return plan.Plan{}, fmt.Errorf("planning: %w", err)
	}
	return p, nil
}
