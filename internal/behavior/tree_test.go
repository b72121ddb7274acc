package behavior

import (
	"testing"
	"time"

	"github.com/joeunion/pidog/internal/action"
	"github.com/joeunion/pidog/internal/personality"
	"github.com/joeunion/pidog/internal/templates"
	"github.com/stretchr/testify/require"
)

func newTestTree() *Tree {
	return New(templates.New())
}

func TestDecidePersonTakesPriorityOverEverything(t *testing.T) {
	tr := newTestTree()
	obs := Observations{
		PersonDetected: true,
		PersonName:     "alice",
		HasObstacle:    true, ObstacleDistance: 5,
		TouchDetected: true,
	}
	d := tr.Decide(personality.DefaultMood(), personality.Default(), obs, MemoryContext{}, nil)
	require.NotEmpty(t, d.Speech)
	require.Len(t, d.Tools, 1)
	require.Equal(t, "remember", d.Tools[0].Name)
}

func TestDecideGreetingCooldownSuppressesRepeat(t *testing.T) {
	tr := newTestTree()
	obs := Observations{PersonDetected: true, PersonName: "alice"}

	first := tr.Decide(personality.DefaultMood(), personality.Default(), obs, MemoryContext{}, nil)
	require.NotEmpty(t, first.Speech)

	second := tr.Decide(personality.DefaultMood(), personality.Default(), obs, MemoryContext{}, nil)
	require.Equal(t, []action.Token{action.Nod}, second.Actions)
	require.Empty(t, second.Speech)
}

func TestDecideObstacleBeatsTouchAndGoal(t *testing.T) {
	tr := newTestTree()
	obs := Observations{HasObstacle: true, ObstacleDistance: 5, TouchDetected: true}
	goal := &ActiveGoal{ID: 1, Description: "fetch the ball"}

	d := tr.Decide(personality.DefaultMood(), personality.Default(), obs, MemoryContext{}, goal)
	require.Contains(t, d.Actions, action.Backward)
}

func TestDecideObstacleIgnoredWhenFar(t *testing.T) {
	tr := newTestTree()
	obs := Observations{HasObstacle: true, ObstacleDistance: 50, TouchDetected: true, TouchStyle: action.Press}

	d := tr.Decide(personality.DefaultMood(), personality.Default(), obs, MemoryContext{}, nil)
	require.NotContains(t, d.Actions, action.Backward)
}

func TestDecideTouchBeatsGoalAndMood(t *testing.T) {
	tr := newTestTree()
	obs := Observations{TouchDetected: true, TouchStyle: action.RearToFront}
	goal := &ActiveGoal{ID: 1, Description: "learn to fetch"}
	mood := personality.Mood{Boredom: 0.9}

	d := tr.Decide(mood, personality.Default(), obs, MemoryContext{}, goal)
	require.Contains(t, d.Actions, action.ShakeHead)
}

func TestDecideGoalBeatsMood(t *testing.T) {
	tr := newTestTree()
	goal := &ActiveGoal{ID: 2, Description: "patrol the yard"}
	mood := personality.Mood{Boredom: 0.9}

	d := tr.Decide(mood, personality.Default(), Observations{}, MemoryContext{}, goal)
	require.NotEmpty(t, d.Speech)
}

func TestDecideMoodBoredomFallsThroughToFallback(t *testing.T) {
	tr := newTestTree()
	mood := personality.Mood{Boredom: 0.1, CuriosityLevel: 0.1, Tiredness: 0.1, Happiness: 0.1, Excitement: 0.1}
	d := tr.Decide(mood, personality.Default(), Observations{}, MemoryContext{}, nil)
	require.NotNil(t, d)
}

func TestGreetingCooldownExpiresAfterWindow(t *testing.T) {
	tr := newTestTree()
	tr.lastGreeting["alice"] = time.Now().Add(-2 * greetingCooldown)

	obs := Observations{PersonDetected: true, PersonName: "alice"}
	d := tr.Decide(personality.DefaultMood(), personality.Default(), obs, MemoryContext{}, nil)
	require.NotEqual(t, []action.Token{action.Nod}, d.Actions)
}

func TestPickAvoidingRepeatAvoidsRecentHistory(t *testing.T) {
	tr := newTestTree()
	tr.remember("a")
	choice := tr.pickAvoidingRepeat([]string{"a", "b"})
	require.Equal(t, "b", choice)
}

func TestPickAvoidingRepeatSingleOption(t *testing.T) {
	tr := newTestTree()
	require.Equal(t, "only", tr.pickAvoidingRepeat([]string{"only"}))
}
