package maintainer

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/joeunion/pidog/internal/store"
	"github.com/stretchr/testify/require"
)

type fakeReasoner struct {
	reply string
	err   error
	calls int
}

func (f *fakeReasoner) Think(_ context.Context, _, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func TestRunCycleSafelySkipsWhenBusy(t *testing.T) {
	st := openTestStore(t)
	m := New(Config{Store: st, IsBusy: func() bool { return true }, BusyRetry: 7 * time.Second})

	wait := m.runCycleSafely(context.Background())
	require.Equal(t, 7*time.Second, wait)
	require.True(t, m.LastStats().Skipped)
}

func TestRunCycleSafelyRecoversFromPanic(t *testing.T) {
	st := openTestStore(t)
	m := New(Config{Store: nil, Interval: 9 * time.Second})
	_ = st

	// A nil store makes decayImportance panic on the method call chain; the
	// safety wrapper must still return the configured interval.
	wait := m.runCycleSafely(context.Background())
	require.Equal(t, 9*time.Second, wait)
}

func TestConsolidateOnlyTrustsIDsFromSentBatch(t *testing.T) {
	st := openTestStore(t)

	id1, err := st.Remember(store.CategoryFact, "alice", "likes tennis", 0.5)
	require.NoError(t, err)
	id2, err := st.Remember(store.CategoryFact, "alice", "also likes hiking", 0.5)
	require.NoError(t, err)
	other, err := st.Remember(store.CategoryFact, "bob", "likes chess", 0.5)
	require.NoError(t, err)

	reasoner := &fakeReasoner{reply: fmt.Sprintf(
		`{"delete_ids":[%d,%d],"updates":[{"id":%d,"importance":0.9}]}`, id1, other, id2)}
	m := New(Config{Store: st, Reasoner: reasoner})

	n := m.consolidate(context.Background())
	require.Equal(t, 2, n) // id1 deleted (valid), id2 updated (valid); "other" silently ignored

	rows, err := st.BySubject("alice")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, id2, rows[0].ID)
	require.Equal(t, 0.9, rows[0].Importance)

	bobRows, err := st.BySubject("bob")
	require.NoError(t, err)
	require.Len(t, bobRows, 1) // the out-of-batch id must never be touched
}

func TestConsolidateSkipsSingleMemorySubjects(t *testing.T) {
	st := openTestStore(t)
	_, err := st.Remember(store.CategoryFact, "solo", "only one memory", 0.5)
	require.NoError(t, err)

	reasoner := &fakeReasoner{reply: `{"delete_ids":[999]}`}
	m := New(Config{Store: st, Reasoner: reasoner})

	n := m.consolidate(context.Background())
	require.Equal(t, 0, n)
	require.Equal(t, 0, reasoner.calls)
}

func TestConsolidateHandlesMergeReply(t *testing.T) {
	st := openTestStore(t)
	id1, err := st.Remember(store.CategoryFact, "alice", "likes tennis", 0.5)
	require.NoError(t, err)
	id2, err := st.Remember(store.CategoryFact, "alice", "likes tennis a lot", 0.5)
	require.NoError(t, err)

	reasoner := &fakeReasoner{reply: fmt.Sprintf(
		`{"merged":{"content":"loves tennis","importance":0.7,"source_ids":[%d,%d]}}`, id1, id2)}
	m := New(Config{Store: st, Reasoner: reasoner})

	n := m.consolidate(context.Background())
	require.Equal(t, 2, n)

	rows, err := st.BySubject("alice")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "loves tennis", rows[0].Content)
}

func TestConsolidateMergeWithSingleValidSourceIDStillApplies(t *testing.T) {
	st := openTestStore(t)
	id1, err := st.Remember(store.CategoryFact, "alice", "likes tennis", 0.5)
	require.NoError(t, err)
	id2, err := st.Remember(store.CategoryFact, "alice", "likes hiking", 0.5)
	require.NoError(t, err)
	_ = id1

	// The reply's source_ids reference one id from the sent batch (id2) and
	// one that was never sent (77); after filtering, only one valid source
	// id remains. The merge must still apply: id2 deleted, new row inserted.
	reasoner := &fakeReasoner{reply: fmt.Sprintf(
		`{"merged":{"content":"loves hiking","importance":0.6,"source_ids":[%d,77]}}`, id2)}
	m := New(Config{Store: st, Reasoner: reasoner})

	n := m.consolidate(context.Background())
	require.Equal(t, 1, n)

	rows, err := st.BySubject("alice")
	require.NoError(t, err)
	require.Len(t, rows, 2) // original id1 plus the new merged row
	var contents []string
	for _, r := range rows {
		contents = append(contents, r.Content)
		require.NotEqual(t, id2, r.ID)
	}
	require.Contains(t, contents, "loves hiking")
	require.Contains(t, contents, "likes tennis")
}

func TestExtractJSONObjectFallsBackToEmpty(t *testing.T) {
	require.Equal(t, "{}", extractJSONObject("not json at all"))
	require.Equal(t, `{"a":1}`, extractJSONObject("preamble\n```json\n{\"a\":1}\n```"))
}
