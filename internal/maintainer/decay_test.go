package maintainer

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/joeunion/pidog/internal/store"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// openSharedTestStore opens a named shared-cache in-memory database, so the
// test can reach in with a second *sql.DB connection to set up state (like a
// backdated last_accessed) that the Store's own API has no reason to expose.
func openSharedTestStore(t *testing.T) (*store.Store, *sql.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	s, err := store.Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	raw, err := sql.Open("sqlite3", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })
	return s, raw
}

func newTestMaintainer(t *testing.T, st *store.Store) *Maintainer {
	t.Helper()
	return New(Config{Store: st})
}

func TestDecayImportanceSkipsRecentlyAccessedMemories(t *testing.T) {
	st := openTestStore(t)
	m := newTestMaintainer(t, st)

	_, err := st.Remember(store.CategoryFact, "alice", "likes tennis", 0.5)
	require.NoError(t, err)

	n := m.decayImportance()
	require.Equal(t, 0, n)
}

func TestDecayImportanceAppliesToStaleMemories(t *testing.T) {
	st, raw := openSharedTestStore(t)
	m := newTestMaintainer(t, st)

	id, err := st.Remember(store.CategoryFact, "alice", "likes tennis", 0.5)
	require.NoError(t, err)

	// Backdate last_accessed well beyond the protection period so the
	// memory becomes a decay candidate.
	_, err = raw.Exec(`UPDATE memories SET last_accessed = ? WHERE id = ?`,
		time.Now().UTC().AddDate(0, 0, -30), id)
	require.NoError(t, err)

	n := m.decayImportance()
	require.Equal(t, 1, n)

	rows, err := st.BySubject("alice")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Less(t, rows[0].Importance, 0.5)
}

func TestPruneNoOpUnderCap(t *testing.T) {
	st := openTestStore(t)
	m := newTestMaintainer(t, st)

	_, err := st.Remember(store.CategoryFact, "a", "one", 0.1)
	require.NoError(t, err)

	require.Equal(t, 0, m.prune())
}

func TestPruneDeletesOvershootOfExcess(t *testing.T) {
	st := openTestStore(t)
	m := New(Config{Store: st, MaxMemories: 500})

	for i := 0; i < 600; i++ {
		_, err := st.Remember(store.CategoryFact, "bulk", "filler", 0.05)
		require.NoError(t, err)
	}

	pruned := m.prune()
	require.Equal(t, 120, pruned)

	stats, err := st.Stats()
	require.NoError(t, err)
	require.Equal(t, int64(480), stats["memories"])
}

func TestPruneRoundsExcessUpWhenNotEvenlyDivisible(t *testing.T) {
	st := openTestStore(t)
	m := New(Config{Store: st, MaxMemories: 500})

	for i := 0; i < 507; i++ {
		_, err := st.Remember(store.CategoryFact, "bulk", "filler", 0.05)
		require.NoError(t, err)
	}

	// excess=7, 7*1.2=8.4, must round up to 9 rather than truncate to 8.
	pruned := m.prune()
	require.Equal(t, 9, pruned)
}

func TestDeduplicateFacesMergesClosestCluster(t *testing.T) {
	st := openTestStore(t)
	m := newTestMaintainer(t, st)

	id1, err := st.StoreFace("alice", []float32{0, 0, 0}, "h1")
	require.NoError(t, err)
	id2, err := st.StoreFace("alice", []float32{0.01, 0, 0}, "h2")
	require.NoError(t, err)
	require.NoError(t, st.IncrementFaceSeen(id2))

	merged := m.deduplicateFaces()
	require.Equal(t, 1, merged)

	faces, err := st.GetFacesByName("alice")
	require.NoError(t, err)
	require.Len(t, faces, 1)
	require.Equal(t, id2, faces[0].ID)
	_ = id1
}
