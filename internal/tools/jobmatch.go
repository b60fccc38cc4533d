package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/taskpilot/taskpilot/internal/plan"
)

// JobMatcherTool answers "job_matcher" steps. It turns the resume analysis
// in the shared context into a search query, delegates to the search tool,
// and scores the hits for job relevance.
type JobMatcherTool struct {
	Search Tool
}

// Run implements Tool.
func (t *JobMatcherTool) Run(ctx context.Context, args map[string]interface{}, state plan.State) ([]string, map[string]interface{}, error) {
	var analysis map[string]interface{}
	if output, ok := plan.FirstMatch(state, "analysis"); ok {
		analysis, _ = output["analysis"].(map[string]interface{})
	}
	if analysis == nil {
		return []string{"Error: No resume analysis found in context"}, map[string]interface{}{"error": "No analysis available"}, nil
	}

	field, _ := analysis["field_of_study"].(string)
	skills := stringSlice(analysis["skills"])
	keywords := stringSlice(analysis["job_keywords"])

	var terms []string
	if field != "" {
		terms = append(terms, field)
	}
	terms = append(terms, head(skills, 3)...)
	terms = append(terms, head(keywords, 2)...)
	terms = head(terms, 5)

	location, _ := args["location"].(string)
	if location == "" {
		location = "remote"
	}
	query := fmt.Sprintf("%s jobs %s", strings.Join(terms, " "), location)
	logs := []string{fmt.Sprintf("Searching for: %s", query)}

	limit := intArg(args, "limit", 10)
	searchLogs, searchOutput, err := t.Search.Run(ctx, map[string]interface{}{"query": query, "limit": limit}, state)
	logs = append(logs, searchLogs...)
	if err != nil {
		return logs, nil, fmt.Errorf("job search: %w", err)
	}

	matches := make([]interface{}, 0)
	for _, r := range anySlice(searchOutput["results"]) {
		m, ok := r.(map[string]interface{})
		if !ok {
			continue
		}
		title, _ := m["title"].(string)
		snippet, _ := m["snippet"].(string)
		haystack := strings.ToLower(title + " " + snippet)

		relevance := "medium"
		for _, kw := range []string{"job", "career", "hiring", "position", "opening"} {
			if strings.Contains(haystack, kw) {
				relevance = "high"
				break
			}
		}
		var matched []interface{}
		for _, skill := range skills {
			if strings.Contains(strings.ToLower(snippet), strings.ToLower(skill)) {
				matched = append(matched, skill)
			}
		}
		matches = append(matches, map[string]interface{}{
			"title":          title,
			"url":            m["url"],
			"snippet":        snippet,
			"relevance":      relevance,
			"matched_skills": matched,
		})
	}

	logs = append(logs, fmt.Sprintf("Found %d potential job matches", len(matches)))
	out := map[string]interface{}{
		"job_matches":    matches,
		"search_query":   query,
		"matched_field":  field,
		"matched_skills": head(skills, 5),
	}
	return logs, out, nil
}

func stringSlice(v interface{}) []string {
	var out []string
	for _, item := range anySlice(v) {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func head(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
