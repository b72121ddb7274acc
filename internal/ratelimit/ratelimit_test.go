package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMayCallAllowsUpToMaxCallsPerWindow(t *testing.T) {
	l := New(3, time.Minute, 0)

	for i := 0; i < 3; i++ {
		require.True(t, l.MayCall())
		l.Record()
	}
	require.False(t, l.MayCall())
}

func TestMayCallEnforcesMinInterval(t *testing.T) {
	l := New(100, time.Minute, 50*time.Millisecond)

	require.True(t, l.MayCall())
	l.Record()
	require.False(t, l.MayCall())

	time.Sleep(60 * time.Millisecond)
	require.True(t, l.MayCall())
}

func TestWaitTimeReflectsIntervalThrottle(t *testing.T) {
	l := New(100, time.Minute, 100*time.Millisecond)
	l.Record()

	wait := l.WaitTime()
	require.Greater(t, wait, time.Duration(0))
	require.LessOrEqual(t, wait, 100*time.Millisecond)
}

func TestWaitTimeZeroWhenNothingRecorded(t *testing.T) {
	l := New(5, time.Minute, time.Second)
	require.Equal(t, time.Duration(0), l.WaitTime())
}

func TestWaitTimeReflectsWindowThrottle(t *testing.T) {
	l := New(1, time.Minute, 0)
	l.Record()
	require.False(t, l.MayCall())

	wait := l.WaitTime()
	require.Greater(t, wait, time.Duration(0))
	require.LessOrEqual(t, wait, time.Minute)
}

func TestDefaultWindowAppliedWhenZero(t *testing.T) {
	l := New(1, 0, 0)
	require.Equal(t, 60*time.Second, l.window)
}
