package agent

import (
	"context"
	"reflect"
	"testing"

	"github.com/taskpilot/taskpilot/internal/plan"
)

func toolNames(p plan.Plan) []string {
	names := make([]string, 0, len(p.Steps))
	for _, s := range p.Steps {
		names = append(names, s.Tool)
	}
	return names
}

func TestRulePlannerSearchCommand(t *testing.T) {
	p, err := RulePlanner{}.Plan(context.Background(), "Find me top 5 internships in Bangalore", "")
	if err != nil {
		t.Fatal(err)
	}
	if p.Input != "Find me top 5 internships in Bangalore" {
		t.Errorf("plan input must preserve the original casing: %q", p.Input)
	}
	if got := toolNames(p); !reflect.DeepEqual(got, []string{"search", "scrape", "logger"}) {
		t.Fatalf("unexpected steps: %v", got)
	}
	search := p.Steps[0]
	if search.Args["query"] != "top 5 internships in Bangalore" {
		t.Errorf("unexpected query: %v", search.Args["query"])
	}
	if search.Args["limit"] != 5 {
		t.Errorf("unexpected limit: %v", search.Args["limit"])
	}
	if p.Steps[1].Args["top_k"] != 3 {
		t.Errorf("unexpected top_k: %v", p.Steps[1].Args["top_k"])
	}
}

func TestRulePlannerSummarizeAndEmail(t *testing.T) {
	p, err := RulePlanner{}.Plan(context.Background(), "Summarize AI news and email me", "a@b.com")
	if err != nil {
		t.Fatal(err)
	}
	names := toolNames(p)
	if !reflect.DeepEqual(names, []string{"scrape", "summarize", "email", "logger"}) {
		t.Fatalf("unexpected steps: %v", names)
	}
	var email plan.Step
	for _, s := range p.Steps {
		if s.Tool == "email" {
			email = s
		}
		if s.Tool == "summarize" {
			if s.Args["mode"] != "bullet" || s.Args["max_sentences"] != 8 {
				t.Errorf("unexpected summarize args: %v", s.Args)
			}
		}
	}
	if email.Args["to"] != "a@b.com" {
		t.Errorf("unexpected to: %v", email.Args["to"])
	}
	if email.Args["subject"] != "Automation result for: Summarize AI news and email me" {
		t.Errorf("unexpected subject: %v", email.Args["subject"])
	}
}

func TestRulePlannerAlwaysEndsWithLogger(t *testing.T) {
	commands := []string{
		"do something vague",
		"Find me top 5 internships in Bangalore",
		"Summarize AI news and email me",
		"search for golang jobs, scrape details and send a summary",
	}
	for _, cmd := range commands {
		p, err := RulePlanner{}.Plan(context.Background(), cmd, "")
		if err != nil {
			t.Fatal(err)
		}
		if len(p.Steps) == 0 {
			t.Fatalf("%q: empty plan", cmd)
		}
		last := p.Steps[len(p.Steps)-1]
		if last.Tool != "logger" {
			t.Errorf("%q: last step is %s, want logger", cmd, last.Tool)
		}
		if last.Args["message"] != "Completed task: "+cmd {
			t.Errorf("%q: unexpected logger message %v", cmd, last.Args["message"])
		}
	}
}

func TestRulePlannerStepOrderSubsequence(t *testing.T) {
	canonical := []string{"search", "scrape", "summarize", "email", "logger"}
	commands := []string{
		"hello",
		"find cats",
		"scrape this",
		"summarize everything and send it",
		"find, scrape, summarize, email",
		"list top courses and email a comparison",
	}
	for _, cmd := range commands {
		p, err := RulePlanner{}.Plan(context.Background(), cmd, "x@y.z")
		if err != nil {
			t.Fatal(err)
		}
		pos := 0
		for _, name := range toolNames(p) {
			found := false
			for pos < len(canonical) {
				if canonical[pos] == name {
					found = true
					pos++
					break
				}
				pos++
			}
			if !found {
				t.Errorf("%q: steps %v are not a subsequence of %v", cmd, toolNames(p), canonical)
				break
			}
		}
		for i, s := range p.Steps {
			if s.ID != i+1 {
				t.Errorf("%q: step %d has id %d", cmd, i, s.ID)
			}
		}
	}
}

func TestRulePlannerDeterministic(t *testing.T) {
	first, err := RulePlanner{}.Plan(context.Background(), "Find me top 5 internships in Bangalore and email me", "a@b.com")
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := RulePlanner{}.Plan(context.Background(), "Find me top 5 internships in Bangalore and email me", "a@b.com")
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("plans differ across calls:\n%+v\n%+v", first, again)
		}
	}
}

func TestExtractSearchQuery(t *testing.T) {
	cases := []struct {
		command string
		want    string
	}{
		{"Find me top 5 internships in Bangalore", "top 5 internships in Bangalore"},
		{"search for golang jobs", "golang jobs"},
		{"Please look for cheap flights", "cheap flights"},
		{"find remote positions", "remote positions"},
		{"top python courses", "top python courses"},
	}
	for _, tc := range cases {
		if got := extractSearchQuery(tc.command); got != tc.want {
			t.Errorf("extractSearchQuery(%q) = %q, want %q", tc.command, got, tc.want)
		}
	}
}

func TestRulePlannerEmailKeywordWithoutAddress(t *testing.T) {
	p, err := RulePlanner{}.Plan(context.Background(), "send the report", "")
	if err != nil {
		t.Fatal(err)
	}
	names := toolNames(p)
	if !reflect.DeepEqual(names, []string{"email", "logger"}) {
		t.Fatalf("unexpected steps: %v", names)
	}
	if p.Steps[0].Args["to"] != "" {
		t.Errorf("email without target should have empty to, got %v", p.Steps[0].Args["to"])
	}
}
