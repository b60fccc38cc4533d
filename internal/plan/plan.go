package plan

import "fmt"

// Step is a single tool invocation inside a Plan. Args are tool-specific and
// opaque to the execution engine.
type Step struct {
	ID   int                    `json:"id"`
	Tool string                 `json:"tool"`
	Args map[string]interface{} `json:"args"`
}

// Plan is an ordered sequence of steps derived from one natural-language
// command. Step order is execution order.
type Plan struct {
	Input string `json:"input"`
	Steps []Step `json:"steps"`
}

// ErrDuplicateStepID indicates two steps share an id, which would make their
// context output keys collide.
var ErrDuplicateStepID = fmt.Errorf("duplicate step id")

// New builds a Plan and rejects duplicate step ids up front.
func New(input string, steps []Step) (Plan, error) {
	p := Plan{Input: input, Steps: steps}
	if err := p.Validate(); err != nil {
		return Plan{}, err
	}
	return p, nil
}

// Validate checks that every step id is unique within the plan. Output keys
// are derived from ids, so a collision would silently overwrite an earlier
// step's output.
func (p Plan) Validate() error {
	seen := make(map[int]struct{}, len(p.Steps))
	for _, s := range p.Steps {
		if _, ok := seen[s.ID]; ok {
			return fmt.Errorf("%w: %d", ErrDuplicateStepID, s.ID)
		}
		seen[s.ID] = struct{}{}
	}
	return nil
}

// OutputKey returns the context key under which a step's output is stored.
func OutputKey(stepID int) string {
	return fmt.Sprintf("step_%d_output", stepID)
}
