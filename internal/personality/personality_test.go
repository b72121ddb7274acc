package personality

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadFallsBackToDefaultWhenMissing(t *testing.T) {
	m, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default(), m.Get())
}

func TestUpdatePersistsAndRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "personality.yaml")
	m, err := Load(path)
	require.NoError(t, err)

	require.NoError(t, m.Update(Playfulness, 0.9))
	require.Equal(t, 0.9, m.Get().Playfulness)

	reloaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 0.9, reloaded.Get().Playfulness)
}

func TestUpdateClampsOutOfRangeValues(t *testing.T) {
	m, err := Load(filepath.Join(t.TempDir(), "p.yaml"))
	require.NoError(t, err)

	require.NoError(t, m.Update(Energy, 5.0))
	require.Equal(t, 1.0, m.Get().Energy)

	require.NoError(t, m.Update(Energy, -5.0))
	require.Equal(t, 0.0, m.Get().Energy)
}

func TestUpdateRejectsUnknownTrait(t *testing.T) {
	m, err := Load(filepath.Join(t.TempDir(), "p.yaml"))
	require.NoError(t, err)

	err = m.Update(Trait("nonsense"), 0.5)
	require.Error(t, err)
}

func TestAdjustAppliesRelativeDelta(t *testing.T) {
	m, err := Load(filepath.Join(t.TempDir(), "p.yaml"))
	require.NoError(t, err)

	before := m.Get().Affection
	require.NoError(t, m.Adjust(Affection, 0.2))
	require.InDelta(t, before+0.2, m.Get().Affection, 1e-9)
}

func TestAdjustRejectsUnknownTrait(t *testing.T) {
	m, err := Load(filepath.Join(t.TempDir(), "p.yaml"))
	require.NoError(t, err)

	err = m.Adjust(Trait("nonsense"), 0.1)
	require.Error(t, err)
}

func TestBehaviorModifiersReflectsSnapshot(t *testing.T) {
	p := Personality{Playfulness: 0.1, Curiosity: 0.2, Affection: 0.3, Energy: 0.4, Talkativeness: 0.5}
	mods := BehaviorModifiers(p)
	require.Equal(t, 0.1, mods["playful"])
	require.Equal(t, 0.5, mods["chatty"])
}
