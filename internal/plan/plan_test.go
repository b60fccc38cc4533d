package plan

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestNewRejectsDuplicateIDs(t *testing.T) {
	_, err := New("cmd", []Step{
		{ID: 1, Tool: "search"},
		{ID: 2, Tool: "scrape"},
		{ID: 1, Tool: "logger"},
	})
	if !errors.Is(err, ErrDuplicateStepID) {
		t.Fatalf("expected ErrDuplicateStepID, got %v", err)
	}

	p, err := New("cmd", []Step{
		{ID: 1, Tool: "search"},
		{ID: 7, Tool: "logger"},
	})
	if err != nil {
		t.Fatalf("non-contiguous ids should be fine: %v", err)
	}
	if len(p.Steps) != 2 {
		t.Errorf("unexpected steps: %+v", p.Steps)
	}
}

func TestOutputKey(t *testing.T) {
	if got := OutputKey(3); got != "step_3_output" {
		t.Errorf("OutputKey(3) = %q", got)
	}
}

func TestPlanJSONRepresentation(t *testing.T) {
	p, err := New("find cats", []Step{
		{ID: 1, Tool: "search", Args: map[string]interface{}{"query": "cats", "limit": 5}},
	})
	if err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	var back Plan
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.Input != "find cats" || len(back.Steps) != 1 || back.Steps[0].Tool != "search" {
		t.Errorf("round trip lost data: %+v", back)
	}
}

func TestContextInsertionOrder(t *testing.T) {
	c := NewContext("the command")
	c.Set(OutputKey(1), map[string]interface{}{"results": "a"})
	c.Set(OutputKey(2), map[string]interface{}{"pages": "b"})

	keys := c.Keys()
	want := []string{InputKey, "step_1_output", "step_2_output"}
	if len(keys) != len(want) {
		t.Fatalf("unexpected keys: %v", keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("keys[%d] = %q, want %q", i, keys[i], want[i])
		}
	}

	// overwriting keeps the original position
	c.Set(OutputKey(1), map[string]interface{}{"results": "c"})
	if got := c.Keys()[1]; got != "step_1_output" {
		t.Errorf("overwrite moved the key: %v", c.Keys())
	}
	v, ok := c.Get(OutputKey(1))
	if !ok || v.(map[string]interface{})["results"] != "c" {
		t.Errorf("overwrite lost the new value: %v", v)
	}
	if c.Len() != 3 {
		t.Errorf("unexpected length: %d", c.Len())
	}
}

func TestFirstMatchTakesEarliest(t *testing.T) {
	c := NewContext("cmd")
	c.Set(OutputKey(1), map[string]interface{}{"results": "first"})
	c.Set(OutputKey(2), map[string]interface{}{"results": "second"})
	c.Set(OutputKey(3), map[string]interface{}{"summary": "s"})

	m, ok := FirstMatch(c, "results")
	if !ok || m["results"] != "first" {
		t.Errorf("expected first results output, got %v", m)
	}
	m, ok = FirstMatch(c, "summary")
	if !ok || m["summary"] != "s" {
		t.Errorf("expected summary output, got %v", m)
	}
	if _, ok := FirstMatch(c, "pages"); ok {
		t.Error("expected no match for pages")
	}
}
