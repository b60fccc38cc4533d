package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/taskpilot/taskpilot/internal/plan"
	"github.com/taskpilot/taskpilot/provider"
)

const summarizeInputLimit = 3000

// SummarizeTool answers "summarize" and "summarise" steps. It gathers page
// text and search snippets from the shared context, asks the LLM for a
// bullet summary when one is configured, and otherwise falls back to a
// naive extractive summary.
type SummarizeTool struct {
	LLM provider.LLM
}

// Run implements Tool.
func (t *SummarizeTool) Run(ctx context.Context, args map[string]interface{}, state plan.State) ([]string, map[string]interface{}, error) {
	maxSentences := intArg(args, "max_sentences", 5)
	if maxSentences < 1 {
		maxSentences = 5
	}

	joined := collectText(state)
	if joined == "" {
		return []string{"No content found to summarise"}, map[string]interface{}{"summary": "(no content)"}, nil
	}

	var logs []string
	if t.LLM != nil {
		input := joined
		if len(input) > summarizeInputLimit {
			input = input[:summarizeInputLimit]
		}
		prompt := fmt.Sprintf("Summarize the following text in %d bullets:\n\n%s", maxSentences, input)
		summary, err := t.LLM.Generate(ctx, []provider.Message{{Role: "user", Content: prompt}})
		if err == nil && strings.TrimSpace(summary) != "" {
			logs = append(logs, "Generated summary using LLM")
			return logs, map[string]interface{}{"summary": strings.TrimSpace(summary)}, nil
		}
		if err != nil {
			logs = append(logs, fmt.Sprintf("LLM summarization failed: %v", err))
		}
	}

	summary := extractiveSummary(joined, maxSentences)
	logs = append(logs, "Generated extractive summary (fallback)")
	return logs, map[string]interface{}{"summary": summary}, nil
}

// collectText pulls scraped page text and search snippets out of every
// step output, in context insertion order.
func collectText(state plan.State) string {
	var texts []string
	for _, v := range state.Values() {
		output, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		for _, p := range anySlice(output["pages"]) {
			if m, ok := p.(map[string]interface{}); ok {
				if text, _ := m["text"].(string); text != "" {
					texts = append(texts, text)
				}
			}
		}
		for _, r := range anySlice(output["results"]) {
			if m, ok := r.(map[string]interface{}); ok {
				if snippet, _ := m["snippet"].(string); snippet != "" {
					texts = append(texts, snippet)
				}
			}
		}
	}
	return strings.Join(texts, "\n\n")
}

// extractiveSummary takes the first maxSentences sentences and renders them
// as a bullet list.
func extractiveSummary(text string, maxSentences int) string {
	sentences := splitSentences(text)
	if len(sentences) > maxSentences {
		sentences = sentences[:maxSentences]
	}
	return "\n- " + strings.Join(sentences, "\n- ")
}

func splitSentences(text string) []string {
	var sentences []string
	var cur strings.Builder
	runes := []rune(strings.TrimSpace(text))
	for i := 0; i < len(runes); i++ {
		cur.WriteRune(runes[i])
		if runes[i] == '.' || runes[i] == '!' || runes[i] == '?' {
			if i+1 >= len(runes) || runes[i+1] == ' ' || runes[i+1] == '\n' || runes[i+1] == '\t' {
				s := strings.TrimSpace(cur.String())
				if s != "" {
					sentences = append(sentences, s)
				}
				cur.Reset()
				for i+1 < len(runes) && (runes[i+1] == ' ' || runes[i+1] == '\n' || runes[i+1] == '\t') {
					i++
				}
			}
		}
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// anySlice normalizes a step output field that may hold either []interface{}
// (after a JSON round trip) or []map[string]interface{} (set in process).
func anySlice(v interface{}) []interface{} {
	switch s := v.(type) {
	case []interface{}:
		return s
	case []map[string]interface{}:
		out := make([]interface{}, 0, len(s))
		for _, m := range s {
			out = append(out, m)
		}
		return out
	}
	return nil
}
