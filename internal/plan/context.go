package plan

// InputKey is the context key holding the original command of a run.
const InputKey = "plan_input"

// State is the read-only view of an execution context handed to tools.
// Tools may inspect earlier outputs but never write back; the controller is
// the only writer.
type State interface {
	// Get returns the value stored under key.
	Get(key string) (interface{}, bool)
	// Values returns all stored values in insertion order.
	Values() []interface{}
}

// Context is an insertion-ordered key/value store threaded through one plan
// execution. Insertion order matters: downstream tools scan values for
// conventional fields (results, pages, summary) and take the first match, so
// iteration must follow the order steps ran in.
type Context struct {
	keys   []string
	values map[string]interface{}
}

// NewContext creates a context seeded with the plan input.
func NewContext(input string) *Context {
	c := &Context{values: make(map[string]interface{})}
	c.Set(InputKey, input)
	return c
}

// Set stores a value. A key set twice keeps its original position.
func (c *Context) Set(key string, value interface{}) {
	if _, ok := c.values[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.values[key] = value
}

// Get returns the value stored under key.
func (c *Context) Get(key string) (interface{}, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Keys returns all keys in insertion order.
func (c *Context) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Values returns all values in insertion order.
func (c *Context) Values() []interface{} {
	out := make([]interface{}, 0, len(c.keys))
	for _, k := range c.keys {
		out = append(out, c.values[k])
	}
	return out
}

// Len reports the number of stored entries.
func (c *Context) Len() int { return len(c.keys) }

// FirstMatch scans state values in insertion order and returns the first
// output mapping that contains field. First match wins; this is the contract
// tools rely on when more than one earlier step produced a candidate.
func FirstMatch(s State, field string) (map[string]interface{}, bool) {
	for _, v := range s.Values() {
		m, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		if _, ok := m[field]; ok {
			return m, true
		}
	}
	return nil, false
}
