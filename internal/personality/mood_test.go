package personality

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMoodOnInteractionClamped(t *testing.T) {
	m := Mood{Happiness: 0.95, Excitement: 0.9, Boredom: 0.1}
	m.OnInteraction()
	require.Equal(t, 1.0, m.Happiness)
	require.Equal(t, 1.0, m.Excitement)
	require.Equal(t, 0.0, m.Boredom)
}

func TestMoodOnNovelStimulusScalesWithNovelty(t *testing.T) {
	low := DefaultMood()
	low.OnNovelStimulus(0.1)
	high := DefaultMood()
	high.OnNovelStimulus(1.0)
	require.Less(t, low.CuriosityLevel, high.CuriosityLevel)
}

func TestMoodDecayFloorsExcitementAndCuriosity(t *testing.T) {
	m := Mood{Excitement: 0.31, CuriosityLevel: 0.31}
	for i := 0; i < 1000; i++ {
		m.Decay(0.1)
	}
	require.Equal(t, 0.3, m.Excitement)
	require.Equal(t, 0.3, m.CuriosityLevel)
}

func TestMoodDecayIncreasesBoredomAndTiredness(t *testing.T) {
	m := DefaultMood()
	before := m
	m.Decay(0.1)
	require.Greater(t, m.Boredom, before.Boredom)
	require.Greater(t, m.Tiredness, before.Tiredness)
}

func TestMoodClampNeverExceedsUnitInterval(t *testing.T) {
	m := Mood{Boredom: 0.9999}
	for i := 0; i < 10000; i++ {
		m.Decay(1.0)
	}
	require.LessOrEqual(t, m.Boredom, 1.0)
	require.LessOrEqual(t, m.Tiredness, 1.0)
}

func TestShouldThinkHigherCuriosityTraitLowersThreshold(t *testing.T) {
	curious := Personality{Curiosity: 1.0}
	cautious := Personality{Curiosity: 0.0}

	m := Mood{CuriosityLevel: 0.45}
	require.True(t, m.ShouldThink(curious))
	require.False(t, m.ShouldThink(cautious))
}

func TestShouldThinkTriggersOnBoredomAlone(t *testing.T) {
	m := Mood{Boredom: 0.85, CuriosityLevel: 0}
	require.True(t, m.ShouldThink(Personality{Curiosity: 0.5}))
}
