package tools

import (
	"context"
	"fmt"

	"github.com/joeunion/pidog/internal/action"
	"github.com/joeunion/pidog/internal/capability"
	"github.com/joeunion/pidog/internal/decision"
	"github.com/joeunion/pidog/internal/logging"
	"github.com/joeunion/pidog/internal/personality"
	"github.com/joeunion/pidog/internal/store"
)

type handlerFunc func(ctx context.Context, params map[string]any) Result

// Dispatcher executes structured tool calls against the MemoryStore,
// PersonalityModel, and injected vision/navigation capabilities.
type Dispatcher struct {
	store    *store.Store
	pers     *personality.Model
	vision   capability.Vision
	handlers map[string]handlerFunc
}

// New builds a Dispatcher wired to its dependencies. vision may be nil.
func New(st *store.Store, pers *personality.Model, vision capability.Vision) *Dispatcher {
	if vision == nil {
		vision = capability.Vision{}
	}
	d := &Dispatcher{store: st, pers: pers, vision: vision}
	d.registerHandlers()
	return d
}

func (d *Dispatcher) registerHandlers() {
	d.handlers = map[string]handlerFunc{
		"remember":           d.handleRemember,
		"recall":             d.handleRecall,
		"learn_trick":        d.handleLearnTrick,
		"do_trick":           d.handleDoTrick,
		"list_tricks":        d.handleListTricks,
		"set_goal":           d.handleSetGoal,
		"complete_goal":      d.handleCompleteGoal,
		"list_goals":         d.handleListGoals,
		"update_personality": d.handleUpdatePersonality,
		"learn_face":         d.visionHandler("learn_face"),
		"learn_room":         d.visionHandler("learn_room"),
		"follow_person":      d.visionHandler("follow_person"),
		"find_person":        d.visionHandler("find_person"),
		"go_to_room":         d.visionHandler("go_to_room"),
		"explore":            d.visionHandler("explore"),
	}
}

// ExecuteTool dispatches a single named tool call, recovering from handler
// panics into a failed Result (spec §7: handler exceptions never propagate).
func (d *Dispatcher) ExecuteTool(ctx context.Context, name string, params map[string]any) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			logging.Get(logging.CategoryTools).Error("tool %s panicked: %v", name, r)
			result = fail(fmt.Sprintf("tool %s failed: %v", name, r))
		}
	}()

	h, ok := d.handlers[name]
	if !ok {
		return fail("Unknown tool: " + name)
	}
	return h(ctx, params)
}

func (d *Dispatcher) visionHandler(name string) handlerFunc {
	return func(ctx context.Context, params map[string]any) Result {
		res := d.vision.Call(ctx, name, params)
		return Result{Success: res.Success, Message: res.Message, Data: res.Data}
	}
}

// ParseAndExecute parses text into a Decision, then executes every tool
// call in order, returning the speech, the filtered action tokens, and the
// per-tool results. Unknown action tokens are dropped rather than rejected,
// per the tool dispatcher's filtering contract (spec §6).
func (d *Dispatcher) ParseAndExecute(ctx context.Context, text string) (string, []action.Token, []Result) {
	dec := ParseResponse(text)
	results := make([]Result, 0, len(dec.Tools))
	for _, tc := range dec.Tools {
		results = append(results, d.ExecuteTool(ctx, tc.Name, tc.Params))
	}
	return dec.Speech, action.Filter(dec.Actions), results
}

// ExecuteDecision executes every tool call already present on a Decision
// (used by the local behavior-tree backend, which builds a Decision
// directly rather than through ParseResponse).
func (d *Dispatcher) ExecuteDecision(ctx context.Context, dec decision.Decision) []Result {
	results := make([]Result, 0, len(dec.Tools))
	for _, tc := range dec.Tools {
		results = append(results, d.ExecuteTool(ctx, tc.Name, tc.Params))
	}
	return results
}
