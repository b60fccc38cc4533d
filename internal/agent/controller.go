package agent

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/taskpilot/taskpilot/internal/plan"
	"github.com/taskpilot/taskpilot/internal/telemetry"
	"github.com/taskpilot/taskpilot/internal/tools"
)

// ToolResolver resolves a step's tool name to an adapter. *tools.Registry
// is the production implementation.
type ToolResolver interface {
	Get(name string) (tools.Tool, error)
}

// Controller executes plans step by step against a tool registry. Each run
// owns a fresh context seeded with the plan input; step outputs land back in
// that context under step_<id>_output so later steps can read them. A
// failing step is retried exactly once with unchanged arguments and then
// absorbed, so a plan always runs to the end.
type Controller struct {
	registry ToolResolver
	logger   *log.Logger
	metrics  *telemetry.Metrics
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger overrides the process logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithMetrics wires execution metrics.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// NewController builds a Controller over the given registry.
func NewController(registry ToolResolver, opts ...Option) *Controller {
	c := &Controller{
		registry: registry,
		logger:   log.New(log.Writer(), "[CONTROLLER] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ExecutePlan runs every step of the plan in order and returns the combined
// execution log. Step failures never escape; they are logged, retried once
// and absorbed.
func (c *Controller) ExecutePlan(ctx context.Context, p plan.Plan) []string {
	planStart := time.Now()
	execCtx := plan.NewContext(p.Input)
	var logs []string

	for _, step := range p.Steps {
		stepStart := time.Now()
		logs = append(logs, fmt.Sprintf("Starting step %d -> %s", step.ID, step.Tool))

		toolLogs, output, err := c.invoke(ctx, step, execCtx)
		logs = append(logs, toolLogs...)
		if err == nil {
			if output != nil {
				execCtx.Set(plan.OutputKey(step.ID), output)
			}
			logs = append(logs, fmt.Sprintf("Finished step %d -> %s", step.ID, step.Tool))
			c.metrics.ObserveStep(step.Tool, telemetry.OutcomeOK, time.Since(stepStart))
			continue
		}

		logs = append(logs, fmt.Sprintf("Error in step %d (%s): %v", step.ID, step.Tool, err))
		logs = append(logs, fmt.Sprintf("Retrying step %d -> %s", step.ID, step.Tool))
		c.metrics.IncRetry()

		toolLogs, output, retryErr := c.invoke(ctx, step, execCtx)
		logs = append(logs, toolLogs...)
		if retryErr == nil {
			if output != nil {
				execCtx.Set(plan.OutputKey(step.ID), output)
			}
			logs = append(logs, fmt.Sprintf("Finished retry step %d -> %s", step.ID, step.Tool))
			c.metrics.ObserveStep(step.Tool, telemetry.OutcomeRetried, time.Since(stepStart))
			continue
		}

		logs = append(logs, fmt.Sprintf("Failed retry for step %d: %v", step.ID, retryErr))
		c.metrics.ObserveStep(step.Tool, telemetry.OutcomeFailed, time.Since(stepStart))
		c.logger.Printf("step %d (%s) failed twice: %v", step.ID, step.Tool, retryErr)
	}

	c.metrics.ObservePlan(time.Since(planStart))
	return logs
}

// invoke resolves the step's tool and runs it. A registry miss is a normal
// step failure and goes through the same retry policy as any other error.
func (c *Controller) invoke(ctx context.Context, step plan.Step, state plan.State) ([]string, map[string]interface{}, error) {
	tool, err := c.registry.Get(step.Tool)
	if err != nil {
		return nil, nil, err
	}
	return tool.Run(ctx, step.Args, state)
}
