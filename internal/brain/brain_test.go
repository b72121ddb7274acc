package brain

import (
	"context"
	"testing"
	"time"

	"github.com/joeunion/pidog/internal/action"
	"github.com/joeunion/pidog/internal/behavior"
	"github.com/joeunion/pidog/internal/novelty"
	"github.com/joeunion/pidog/internal/personality"
	"github.com/joeunion/pidog/internal/store"
	"github.com/joeunion/pidog/internal/templates"
	"github.com/joeunion/pidog/internal/tools"
	"github.com/stretchr/testify/require"
)

func newTestBrain(t *testing.T) *Brain {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	pers, err := personality.Load(t.TempDir() + "/p.yaml")
	require.NoError(t, err)

	lib := templates.New()
	tree := behavior.New(lib)
	dispatch := tools.New(st, pers, nil)

	return New(Config{
		Store:     st,
		Pers:      pers,
		Lib:       lib,
		Dispatch:  dispatch,
		LocalOnly: true,
		Tree:      tree,
	})
}

func TestNewBrainStartsIdleWithDefaultMood(t *testing.T) {
	b := newTestBrain(t)
	require.Equal(t, StateIdle, b.State())
	require.Equal(t, personality.DefaultMood(), b.mood)
}

func TestOnInteractionStartAndEndTransitionsState(t *testing.T) {
	b := newTestBrain(t)

	b.OnInteractionStart()
	require.Equal(t, StateInteracting, b.State())
	require.True(t, b.IsBusy())

	b.OnInteractionEnd("talked about the weather")
	require.Equal(t, StateIdle, b.State())
	require.False(t, b.IsBusy())

	convos, err := b.store.RecentConversations(1)
	require.NoError(t, err)
	require.Len(t, convos, 1)
	require.Equal(t, "talked about the weather", convos[0].Summary)
}

func TestOnInteractionEndSkipsEmptySummary(t *testing.T) {
	b := newTestBrain(t)
	b.OnInteractionStart()
	b.OnInteractionEnd("")

	convos, err := b.store.RecentConversations(1)
	require.NoError(t, err)
	require.Empty(t, convos)
}

func TestIsPersonReturningLockedRequiresRecentEnoughDeparture(t *testing.T) {
	b := newTestBrain(t)
	b.brainMu.Lock()
	b.personName = "alice"
	b.personIsNew = false
	b.personLastLeft["alice"] = time.Now().Add(-10 * time.Second)
	returning := b.isPersonReturningLocked()
	b.brainMu.Unlock()
	require.True(t, returning)

	b.brainMu.Lock()
	b.personLastLeft["alice"] = time.Now().Add(-400 * time.Second)
	tooLongAgo := b.isPersonReturningLocked()
	b.brainMu.Unlock()
	require.False(t, tooLongAgo)
}

func TestIsPersonReturningLockedFalseForNewFace(t *testing.T) {
	b := newTestBrain(t)
	b.brainMu.Lock()
	b.personName = "bob"
	b.personIsNew = true
	b.personLastLeft["bob"] = time.Now()
	returning := b.isPersonReturningLocked()
	b.brainMu.Unlock()
	require.False(t, returning)
}

func TestThinkCheckSkippedWhileInteracting(t *testing.T) {
	b := newTestBrain(t)
	b.OnInteractionStart()

	b.moodMu.Lock()
	b.mood.Boredom = 0.99
	b.moodMu.Unlock()

	b.thinkCheck(context.Background())
	require.False(t, b.lastThinkSeen)
}

func TestThinkCheckRunsWhenEligibleAndBored(t *testing.T) {
	b := newTestBrain(t)
	b.moodMu.Lock()
	b.mood.Boredom = 0.99
	b.moodMu.Unlock()

	b.thinkCheck(context.Background())
	require.True(t, b.lastThinkSeen)
	require.True(t, b.lastThinkOK)
	require.Equal(t, StateIdle, b.State())
}

func TestThinkCheckRespectsRateLimiter(t *testing.T) {
	b := newTestBrain(t)
	b.moodMu.Lock()
	b.mood.Boredom = 0.99
	b.moodMu.Unlock()

	b.thinkCheck(context.Background())
	require.True(t, b.lastThinkSeen)

	b.lastThinkSeen = false
	b.moodMu.Lock()
	b.mood.Boredom = 0.99
	b.moodMu.Unlock()
	b.thinkCheck(context.Background())
	// The fixed local-backend limiter enforces a 5s minimum interval, so a
	// second immediate call must be skipped.
	require.False(t, b.lastThinkSeen)
}

func TestApplyVisionEventTracksPersonState(t *testing.T) {
	b := newTestBrain(t)
	b.applyVisionEvent(VisionPayload{Event: action.FaceRecognized, Name: "alice"})

	b.brainMu.Lock()
	require.True(t, b.personDetected)
	require.Equal(t, "alice", b.personName)
	require.Equal(t, StateCurious, b.state)
	b.brainMu.Unlock()

	b.applyVisionEvent(VisionPayload{Event: action.PersonLeftView})
	b.brainMu.Lock()
	require.False(t, b.personDetected)
	_, seen := b.personLastLeft["alice"]
	require.True(t, seen)
	b.brainMu.Unlock()
}

func TestHealthStatusReportsQueueDepthAndTiming(t *testing.T) {
	b := newTestBrain(t)
	b.Observe(NewNumericObservation(novelty.Ultrasonic, 42))

	h := b.HealthStatus()
	require.Equal(t, StateIdle, h.State)
	require.Equal(t, 1, h.QueueDepth)
	require.False(t, h.LastThinkSeen)

	b.tick(context.Background())
	h = b.HealthStatus()
	require.Equal(t, 0, h.QueueDepth)
	require.False(t, h.LastTickAt.IsZero())
}
