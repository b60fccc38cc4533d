// Package tools holds the tool adapters a plan's steps can invoke and the
// registry that resolves tool names to adapters.
package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/taskpilot/taskpilot/config"
	"github.com/taskpilot/taskpilot/internal/plan"
	"github.com/taskpilot/taskpilot/provider"
)

// ErrUnknownTool is returned by Registry.Get when no adapter is registered
// under the requested name.
var ErrUnknownTool = errors.New("unknown tool")

// Tool executes one plan step. Adapters read earlier step outputs through
// state but never write to it; the controller owns all context mutation.
// The returned logs are human-readable progress lines, output is the
// step's contribution to the shared context.
type Tool interface {
	Run(ctx context.Context, args map[string]interface{}, state plan.State) (logs []string, output map[string]interface{}, err error)
}

// Registry maps tool names to adapters.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry builds a registry for the given tools profile. The enhanced
// profile wires adapters that reach external services when configured and
// degrade to offline behavior otherwise; the basic profile wires the
// offline variants directly.
func NewRegistry(cfg *config.Config, llm provider.LLM) (*Registry, error) {
	r := &Registry{tools: map[string]Tool{}}

	switch cfg.Tools.Profile {
	case config.ToolsProfileBasic:
		r.register("search", &SearchTool{MaxResults: cfg.Search.MaxResults})
		r.register("scrape", NewScrapeTool(cfg.Scraper, false))
	case "", config.ToolsProfileEnhanced:
		r.register("search", NewSearchTool(cfg.Search))
		r.register("scrape", NewScrapeTool(cfg.Scraper, true))
	default:
		return nil, fmt.Errorf("unknown tools profile %q", cfg.Tools.Profile)
	}

	summarizer := &SummarizeTool{LLM: llm}
	r.register("summarize", summarizer)
	r.register("summarise", summarizer)
	r.register("email", NewEmailTool(cfg.SMTP))
	r.register("logger", &LoggerTool{})
	r.register("resume_parser", &ResumeParserTool{})
	r.register("resume_analyzer", &ResumeAnalyzerTool{LLM: llm})
	r.register("job_matcher", &JobMatcherTool{Search: r.tools["search"]})
	return r, nil
}

func (r *Registry) register(name string, t Tool) {
	r.tools[name] = t
}

// Get resolves a tool by name.
func (r *Registry) Get(name string) (Tool, error) {
	t, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return t, nil
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
