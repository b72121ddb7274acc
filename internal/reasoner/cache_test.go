package reasoner

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingReasoner struct {
	calls int32
	delay time.Duration
	resp  string
}

func (c *countingReasoner) Think(ctx context.Context, _, _ string) (string, error) {
	atomic.AddInt32(&c.calls, 1)
	if c.delay > 0 {
		select {
		case <-time.After(c.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return c.resp, nil
}

func TestCachingReasonerServesRepeatCallsFromCache(t *testing.T) {
	inner := &countingReasoner{resp: "woof"}
	c := NewCachingReasoner(inner)

	for i := 0; i < 5; i++ {
		resp, err := c.Think(context.Background(), "sys", "same prompt")
		require.NoError(t, err)
		require.Equal(t, "woof", resp)
	}
	require.EqualValues(t, 1, inner.calls)
}

func TestCachingReasonerDistinguishesPrompts(t *testing.T) {
	inner := &countingReasoner{resp: "woof"}
	c := NewCachingReasoner(inner)

	_, err := c.Think(context.Background(), "sys", "a")
	require.NoError(t, err)
	_, err = c.Think(context.Background(), "sys", "b")
	require.NoError(t, err)
	require.EqualValues(t, 2, inner.calls)
}

func TestCachingReasonerExpiresAfterTTL(t *testing.T) {
	inner := &countingReasoner{resp: "woof"}
	c := NewCachingReasoner(inner)
	c.ttl = 10 * time.Millisecond

	_, err := c.Think(context.Background(), "sys", "p")
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)
	_, err = c.Think(context.Background(), "sys", "p")
	require.NoError(t, err)
	require.EqualValues(t, 2, inner.calls)
}

func TestCachingReasonerDedupesConcurrentIdenticalCalls(t *testing.T) {
	inner := &countingReasoner{resp: "woof", delay: 50 * time.Millisecond}
	c := NewCachingReasoner(inner)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Think(context.Background(), "sys", "concurrent")
			require.NoError(t, err)
		}()
	}
	wg.Wait()
	require.EqualValues(t, 1, inner.calls)
}
