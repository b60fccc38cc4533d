// Package agent contains the planners that turn natural-language commands
// into plans and the controller that executes them against a tool registry.
package agent

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/taskpilot/taskpilot/config"
	"github.com/taskpilot/taskpilot/internal/plan"
	"github.com/taskpilot/taskpilot/provider"
)

// Planner turns a command and an optional target email address into a Plan.
type Planner interface {
	Plan(ctx context.Context, command, targetEmail string) (plan.Plan, error)
}

// NewPlanner selects the planner implementation for the configured mode.
// llm mode still degrades to rule-based planning when no model is wired.
func NewPlanner(cfg *config.Config, llm provider.LLM) Planner {
	if cfg.Planner.Mode == config.PlannerModeLLM && llm != nil {
		return NewLLMPlanner(llm)
	}
	return RulePlanner{}
}

// RulePlanner is the deterministic keyword planner. It is a pure function
// of its inputs, which keeps planning testable and demo runs reproducible.
type RulePlanner struct{}

var queryPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)find me (.+)`),
	regexp.MustCompile(`(?i)search for (.+)`),
	regexp.MustCompile(`(?i)look for (.+)`),
	regexp.MustCompile(`(?i)find (.+)`),
}

// Plan implements Planner.
func (RulePlanner) Plan(_ context.Context, command, targetEmail string) (plan.Plan, error) {
	cmd := strings.ToLower(command)
	var steps []plan.Step
	sid := 1

	if containsAny(cmd, "find", "search", "look for", "top", "list") {
		steps = append(steps, plan.Step{ID: sid, Tool: "search", Args: map[string]interface{}{
			"query": extractSearchQuery(command),
			"limit": 5,
		}})
		sid++
	}

	if containsAny(cmd, "scrape", "details", "summarize", "summary", "compare") ||
		strings.Contains(cmd, "internship") || strings.Contains(cmd, "course") {
		steps = append(steps, plan.Step{ID: sid, Tool: "scrape", Args: map[string]interface{}{
			"top_k": 3,
		}})
		sid++
	}

	if containsAny(cmd, "summarize", "summary", "bullet", "compare", "comparison") {
		steps = append(steps, plan.Step{ID: sid, Tool: "summarize", Args: map[string]interface{}{
			"mode":          "bullet",
			"max_sentences": 8,
		}})
		sid++
	}

	if targetEmail != "" || strings.Contains(cmd, "email") || strings.Contains(cmd, "send") {
		steps = append(steps, plan.Step{ID: sid, Tool: "email", Args: map[string]interface{}{
			"to":      targetEmail,
			"subject": fmt.Sprintf("Automation result for: %s", command),
		}})
		sid++
	}

	steps = append(steps, plan.Step{ID: sid, Tool: "logger", Args: map[string]interface{}{
		"message": fmt.Sprintf("Completed task: %s", command),
	}})

	return plan.New(command, steps)
}

// extractSearchQuery pulls the query phrase out of the original-case
// command, falling back to the whole command when no pattern matches.
func extractSearchQuery(command string) string {
	for _, p := range queryPatterns {
		if m := p.FindStringSubmatch(command); m != nil {
			return m[1]
		}
	}
	return command
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
