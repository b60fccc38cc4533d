package tools

import (
	"context"
	"fmt"

	"github.com/taskpilot/taskpilot/internal/plan"
)

// LoggerTool answers "logger" steps. It echoes its message argument into
// the run log, which planners use to close every plan.
type LoggerTool struct{}

// Run implements Tool.
func (t *LoggerTool) Run(_ context.Context, args map[string]interface{}, _ plan.State) ([]string, map[string]interface{}, error) {
	message, _ := args["message"].(string)
	if message == "" {
		message, _ = args["msg"].(string)
	}
	return []string{fmt.Sprintf("LOG: %s", message)}, map[string]interface{}{"logged": message}, nil
}
