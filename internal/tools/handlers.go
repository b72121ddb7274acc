package tools

import (
	"context"
	"fmt"

	"github.com/joeunion/pidog/internal/action"
	"github.com/joeunion/pidog/internal/personality"
	"github.com/joeunion/pidog/internal/store"
)

func paramString(params map[string]any, key string) string {
	v, ok := params[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func paramFloat(params map[string]any, key string, def float64) float64 {
	v, ok := params[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return def
	}
}

func paramInt(params map[string]any, key string, def int) int {
	return int(paramFloat(params, key, float64(def)))
}

func paramInt64(params map[string]any, key string) (int64, bool) {
	v, ok := params[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}

func paramActions(params map[string]any, key string) []action.Token {
	v, ok := params[key]
	if !ok {
		return nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]action.Token, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, action.Token(s))
		}
	}
	return out
}

func (d *Dispatcher) handleRemember(_ context.Context, params map[string]any) Result {
	category := store.Category(paramString(params, "category"))
	subject := paramString(params, "subject")
	content := paramString(params, "content")
	importance := paramFloat(params, "importance", 0.5)

	id, err := d.store.Remember(category, subject, content, importance)
	if err != nil {
		return fail(err.Error())
	}
	return ok("remembered", map[string]any{"id": id})
}

func (d *Dispatcher) handleRecall(_ context.Context, params map[string]any) Result {
	query := paramString(params, "query")
	limit := paramInt(params, "limit", 10)

	var cat *store.Category
	if c := paramString(params, "category"); c != "" {
		v := store.Category(c)
		cat = &v
	}

	memories, err := d.store.Recall(query, limit, cat)
	if err != nil {
		return fail(err.Error())
	}
	results := make([]map[string]any, 0, len(memories))
	for _, m := range memories {
		results = append(results, map[string]any{
			"id":         m.ID,
			"category":   string(m.Category),
			"subject":    m.Subject,
			"content":    m.Content,
			"importance": m.Importance,
		})
	}
	return ok(fmt.Sprintf("found %d memories", len(results)), map[string]any{"memories": results})
}

func (d *Dispatcher) handleLearnTrick(_ context.Context, params map[string]any) Result {
	name := paramString(params, "name")
	trigger := paramString(params, "trigger_phrase")
	actions := paramActions(params, "actions")

	rejection, err := d.store.LearnTrick(name, trigger, actions)
	if err != nil {
		return fail(err.Error())
	}
	if rejection != nil {
		return fail(rejection.Reason)
	}
	return ok("learned trick "+name, nil)
}

func (d *Dispatcher) handleDoTrick(_ context.Context, params map[string]any) Result {
	name := paramString(params, "name")

	t, err := d.store.GetTrick(name)
	if err != nil {
		return fail(err.Error())
	}
	if t == nil {
		t, err = d.store.FindTrickByTrigger(name)
		if err != nil {
			return fail(err.Error())
		}
	}
	if t == nil {
		return fail("no trick matches: " + name)
	}
	if err := d.store.RecordTrickPerformed(t.Name); err != nil {
		return fail(err.Error())
	}
	return ok("performing "+t.Name, map[string]any{"actions": t.Actions})
}

func (d *Dispatcher) handleListTricks(_ context.Context, _ map[string]any) Result {
	tricks, err := d.store.ListTricks()
	if err != nil {
		return fail(err.Error())
	}
	names := make([]string, 0, len(tricks))
	for _, t := range tricks {
		names = append(names, t.Name)
	}
	return ok(fmt.Sprintf("%d tricks known", len(names)), map[string]any{"tricks": names})
}

func (d *Dispatcher) handleSetGoal(_ context.Context, params map[string]any) Result {
	description := paramString(params, "description")
	priority := paramInt(params, "priority", 3)

	id, err := d.store.SetGoal(description, priority)
	if err != nil {
		return fail(err.Error())
	}
	return ok("goal set", map[string]any{"id": id})
}

func (d *Dispatcher) handleCompleteGoal(_ context.Context, params map[string]any) Result {
	id, ok2 := paramInt64(params, "id")
	if !ok2 {
		return fail("complete_goal requires an id")
	}
	if err := d.store.CompleteGoal(id); err != nil {
		return fail(err.Error())
	}
	return ok("goal completed", nil)
}

func (d *Dispatcher) handleListGoals(_ context.Context, _ map[string]any) Result {
	goals, err := d.store.ActiveGoals()
	if err != nil {
		return fail(err.Error())
	}
	out := make([]map[string]any, 0, len(goals))
	for _, g := range goals {
		out = append(out, map[string]any{"id": g.ID, "description": g.Description, "priority": g.Priority})
	}
	return ok(fmt.Sprintf("%d active goals", len(out)), map[string]any{"goals": out})
}

func (d *Dispatcher) handleUpdatePersonality(_ context.Context, params map[string]any) Result {
	trait := personality.Trait(paramString(params, "trait"))

	if _, hasDelta := params["delta"]; hasDelta {
		delta := paramFloat(params, "delta", 0)
		if err := d.pers.Adjust(trait, delta); err != nil {
			return fail(err.Error())
		}
		return ok("personality adjusted", map[string]any{"trait": string(trait)})
	}
	if _, hasValue := params["value"]; hasValue {
		value := paramFloat(params, "value", 0)
		if err := d.pers.Update(trait, value); err != nil {
			return fail(err.Error())
		}
		return ok("personality updated", map[string]any{"trait": string(trait)})
	}
	return fail("update_personality requires delta or value")
}
