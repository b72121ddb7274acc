package brain

import (
	"context"

	"github.com/joeunion/pidog/internal/behavior"
	"github.com/joeunion/pidog/internal/logging"
)

// runLocalCycle executes one think cycle against the local BehaviorTree
// backend (spec §4.8). It always produces a decision, so it always reports
// success.
func (b *Brain) runLocalCycle(ctx context.Context) bool {
	timer := logging.StartTimer(logging.CategoryBrain, "local_cycle")
	defer timer.Stop()

	b.brainMu.Lock()
	obs := behavior.Observations{
		PersonDetected:    b.personDetected,
		PersonName:        b.personName,
		PersonIsNew:       b.personIsNew,
		PersonIsReturning: b.isPersonReturningLocked(),
		ObstacleDistance:  b.obstacleDistance,
		HasObstacle:       b.hasObstacle,
		TouchDetected:     b.touchDetected,
		TouchStyle:        b.touchStyle,
	}
	name := b.personName
	b.touchDetected = false
	b.touchStyle = ""
	b.brainMu.Unlock()

	var memCtx behavior.MemoryContext
	if name != "" {
		if memories, err := b.store.BySubject(name); err == nil {
			for i, m := range memories {
				if i >= 3 {
					break
				}
				memCtx.PersonMemories = append(memCtx.PersonMemories, m.Content)
			}
		}
	}

	var goal *behavior.ActiveGoal
	if goals, err := b.store.ActiveGoals(); err == nil && len(goals) > 0 {
		g := goals[0]
		goal = &behavior.ActiveGoal{ID: g.ID, Description: g.Description}
	}

	b.moodMu.Lock()
	mood := b.mood
	b.moodMu.Unlock()
	pers := b.pers.Get()

	dec := b.tree.Decide(mood, pers, obs, memCtx, goal)

	b.dispatch.ExecuteDecision(ctx, dec)
	if len(dec.Actions) > 0 && b.effectors.Action != nil {
		strs := make([]string, len(dec.Actions))
		for i, a := range dec.Actions {
			strs[i] = string(a)
		}
		if err := b.effectors.Action(ctx, strs); err != nil {
			logging.Get(logging.CategoryBrain).Warn("local_cycle: action effector failed: %v", err)
		}
	}
	if dec.Speech != "" && b.effectors.Speech != nil {
		if err := b.effectors.Speech(ctx, dec.Speech); err != nil {
			logging.Get(logging.CategoryBrain).Warn("local_cycle: speech effector failed: %v", err)
		}
	}

	b.moodMu.Lock()
	b.mood.CuriosityLevel -= 0.2
	if b.mood.CuriosityLevel < 0.3 {
		b.mood.CuriosityLevel = 0.3
	}
	b.mood.Boredom -= 0.3
	if b.mood.Boredom < 0 {
		b.mood.Boredom = 0
	}
	b.moodMu.Unlock()

	return true
}
