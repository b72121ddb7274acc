// Package decision defines Decision, the single output type shared by the
// two reasoning backends (spec §3, §4.6): the local BehaviorTree and the
// remote reasoner adapter, both consumed by the ToolDispatcher.
package decision

import "github.com/joeunion/pidog/internal/action"

// ToolCall is a single requested side effect with its named parameters.
type ToolCall struct {
	Name   string
	Params map[string]any
}

// Decision is the typed result of one think cycle.
type Decision struct {
	Speech  string
	Actions []action.Token
	Tools   []ToolCall
}
