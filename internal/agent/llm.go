package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/taskpilot/taskpilot/internal/helpers"
	"github.com/taskpilot/taskpilot/internal/plan"
	"github.com/taskpilot/taskpilot/provider"
)

const plannerSystemPrompt = `You are a task planning agent. Given a user command, break it down into ordered steps using these tools:

Available tools:
- search: Search the web for information. Args: {"query": str, "limit": int}
- scrape: Scrape web pages for details. Args: {"top_k": int} or {"url": str}
- summarize: Summarize gathered information. Args: {"mode": "bullet"|"comparison", "max_sentences": int}
- email: Send email with results. Args: {"to": str, "subject": str, "body": str (optional)}
- logger: Log completion message. Args: {"message": str}

Return ONLY a valid JSON object with this structure:
{
  "input": "<original command>",
  "steps": [
    {"id": 1, "tool": "search", "args": {...}},
    {"id": 2, "tool": "scrape", "args": {...}},
    ...
  ]
}

Be specific with queries and arguments. Do not include markdown formatting or explanations.`

// LLMPlanner asks a language model to decompose the command and falls back
// to the rule planner on any failure. The fallback is silent towards the
// caller; the reason lands only on the process log.
type LLMPlanner struct {
	llm    provider.LLM
	rule   RulePlanner
	logger *log.Logger
}

// NewLLMPlanner builds an LLM-backed planner.
func NewLLMPlanner(llm provider.LLM) *LLMPlanner {
	return &LLMPlanner{
		llm:    llm,
		logger: log.New(log.Writer(), "[PLANNER] ", log.LstdFlags),
	}
}

// Plan implements Planner.
func (p *LLMPlanner) Plan(ctx context.Context, command, targetEmail string) (plan.Plan, error) {
	generated, err := p.planWithLLM(ctx, command, targetEmail)
	if err != nil {
		p.logger.Printf("LLM planning failed: %v, falling back to rule-based planner", err)
		return p.rule.Plan(ctx, command, targetEmail)
	}
	return generated, nil
}

func (p *LLMPlanner) planWithLLM(ctx context.Context, command, targetEmail string) (plan.Plan, error) {
	userPrompt := fmt.Sprintf("Command: %s", command)
	if targetEmail != "" {
		userPrompt += fmt.Sprintf("\nTarget email: %s", targetEmail)
	}

	raw, err := p.llm.Generate(ctx, []provider.Message{
		{Role: "system", Content: plannerSystemPrompt},
		{Role: "user", Content: userPrompt},
	})
	if err != nil {
		return plan.Plan{}, fmt.Errorf("generating plan: %w", err)
	}

	extracted, err := helpers.ExtractJSON(raw)
	if err != nil {
		return plan.Plan{}, fmt.Errorf("extracting plan JSON: %w", err)
	}
	return parseGeneratedPlan(extracted, command, targetEmail)
}

// parseGeneratedPlan validates the model output: steps must be present and
// well formed, a missing input is injected, and a supplied target email
// fills an email step's empty "to" argument but never overwrites one the
// model already set.
func parseGeneratedPlan(raw, command, targetEmail string) (plan.Plan, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return plan.Plan{}, fmt.Errorf("parsing plan: %w", err)
	}

	rawSteps, ok := fields["steps"]
	if !ok {
		return plan.Plan{}, fmt.Errorf("plan has no steps")
	}
	var steps []plan.Step
	if err := json.Unmarshal(rawSteps, &steps); err != nil {
		return plan.Plan{}, fmt.Errorf("malformed steps: %w", err)
	}

	input := command
	if rawInput, ok := fields["input"]; ok {
		var s string
		if err := json.Unmarshal(rawInput, &s); err == nil && s != "" {
			input = s
		}
	}

	if targetEmail != "" {
		for _, s := range steps {
			if s.Tool != "email" || s.Args == nil {
				continue
			}
			if to, ok := s.Args["to"]; ok {
				if str, _ := to.(string); str == "" {
					s.Args["to"] = targetEmail
				}
			}
		}
	}

	return plan.New(input, steps)
}
