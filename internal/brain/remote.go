package brain

import (
	"context"
	"fmt"
	"strings"

	"github.com/joeunion/pidog/internal/logging"
)

const systemPrompt = `You are the cognitive core of a small robot dog. Respond with a single ` +
	`JSON object: {"speech": string, "actions": [string], "tools": [{"name": string, "params": object}]}. ` +
	`Actions must come from the robot's closed action vocabulary. Keep speech short and in character.`

// runRemoteCycle executes one think cycle against the remote reasoner
// backend (spec §4.8). It reports false when the reasoner call itself
// failed, so the health monitor can surface reasoner outages.
func (b *Brain) runRemoteCycle(ctx context.Context) bool {
	timer := logging.StartTimer(logging.CategoryBrain, "remote_cycle")
	defer timer.Stop()

	prompt := b.buildPrompt()

	text, err := b.brainLLM.Think(ctx, systemPrompt, prompt)
	if err != nil {
		logging.Get(logging.CategoryBrain).Error("remote_cycle: reasoner failed: %v", err)
		return false
	}

	speech, actions, results := b.dispatch.ParseAndExecute(ctx, text)
	for _, r := range results {
		if !r.Success {
			logging.Get(logging.CategoryBrain).Warn("remote_cycle: tool failed: %s", r.Message)
		}
	}

	if len(actions) > 0 && b.effectors.Action != nil {
		strs := make([]string, len(actions))
		for i, a := range actions {
			strs[i] = string(a)
		}
		if err := b.effectors.Action(ctx, strs); err != nil {
			logging.Get(logging.CategoryBrain).Warn("remote_cycle: action effector failed: %v", err)
		}
	}
	if speech != "" && b.effectors.Speech != nil {
		if err := b.effectors.Speech(ctx, speech); err != nil {
			logging.Get(logging.CategoryBrain).Warn("remote_cycle: speech effector failed: %v", err)
		}
	}

	b.moodMu.Lock()
	b.mood.CuriosityLevel = 0.3
	b.mood.Boredom = 0
	b.moodMu.Unlock()

	return true
}

// buildPrompt composes the context sections the remote reasoner needs:
// memory, goals, personality, mood, faces, rooms, and a short observation
// summary (spec §4.8).
func (b *Brain) buildPrompt() string {
	var sb strings.Builder

	b.brainMu.Lock()
	obsSummary := b.observationSummaryLocked()
	name := b.personName
	b.brainMu.Unlock()

	if name != "" {
		if memories, err := b.store.BySubject(name); err == nil {
			sb.WriteString("memory_context:\n")
			for i, m := range memories {
				if i >= 5 {
					break
				}
				fmt.Fprintf(&sb, "- %s\n", m.Content)
			}
		}
	}

	if goals, err := b.store.ActiveGoals(); err == nil && len(goals) > 0 {
		sb.WriteString("goals_context:\n")
		for _, g := range goals {
			fmt.Fprintf(&sb, "- [%d] %s (priority %d)\n", g.ID, g.Description, g.Priority)
		}
	}

	pers := b.pers.Get()
	fmt.Fprintf(&sb, "personality_context: playfulness=%.2f curiosity=%.2f affection=%.2f energy=%.2f talkativeness=%.2f\n",
		pers.Playfulness, pers.Curiosity, pers.Affection, pers.Energy, pers.Talkativeness)

	b.moodMu.Lock()
	mood := b.mood
	b.moodMu.Unlock()
	fmt.Fprintf(&sb, "mood_context: happiness=%.2f excitement=%.2f tiredness=%.2f boredom=%.2f curiosity=%.2f\n",
		mood.Happiness, mood.Excitement, mood.Tiredness, mood.Boredom, mood.CuriosityLevel)

	if name != "" {
		if faces, err := b.store.GetFacesByName(name); err == nil && len(faces) > 0 {
			fmt.Fprintf(&sb, "faces_context: %s seen %d times\n", name, faces[0].TimesSeen)
		}
	}

	if rooms, err := b.store.ListRooms(); err == nil && len(rooms) > 0 {
		sb.WriteString("rooms_context:\n")
		for i, r := range rooms {
			if i >= 5 {
				break
			}
			fmt.Fprintf(&sb, "- %s (visited %d times)\n", r.Name, r.TimesVisited)
		}
	}

	fmt.Fprintf(&sb, "observation_summary: %s\n", obsSummary)

	return sb.String()
}

// observationSummaryLocked renders the current latched sensor state. Must be
// called with brainMu held.
func (b *Brain) observationSummaryLocked() string {
	var parts []string
	if b.personDetected {
		name := b.personName
		if name == "" {
			name = "unknown"
		}
		parts = append(parts, fmt.Sprintf("person=%s new=%t", name, b.personIsNew))
	}
	if b.hasObstacle {
		parts = append(parts, fmt.Sprintf("obstacle=%.0fcm", b.obstacleDistance))
	}
	if b.touchDetected {
		parts = append(parts, fmt.Sprintf("touch=%s", b.touchStyle))
	}
	if len(parts) == 0 {
		return "nothing notable"
	}
	return strings.Join(parts, ", ")
}
