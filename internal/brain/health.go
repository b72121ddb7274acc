package brain

import "time"

// Health is a point-in-time snapshot of the brain loop's liveness, exposed
// to the status CLI; the memory maintainer's busy check uses IsBusy instead
// (SPEC_FULL §12, grounded on original_source/pidog_brain/health_monitor.py).
type Health struct {
	State         State
	Uptime        time.Duration
	LastTickAt    time.Time
	SinceLastTick time.Duration
	LastThinkAt   time.Time
	LastThinkOK   bool
	LastThinkSeen bool
	QueueDepth    int
}

// IsBusy reports whether the brain is mid-interaction, the one state the
// memory maintainer must not run a consolidation pass during.
func (b *Brain) IsBusy() bool {
	return b.isInteracting()
}

// HealthStatus returns a snapshot of the brain's current liveness.
func (b *Brain) HealthStatus() Health {
	b.brainMu.Lock()
	defer b.brainMu.Unlock()

	now := time.Now()
	var uptime, sinceLastTick time.Duration
	if !b.startedAt.IsZero() {
		uptime = now.Sub(b.startedAt)
	}
	if !b.lastTickAt.IsZero() {
		sinceLastTick = now.Sub(b.lastTickAt)
	}

	return Health{
		State:         b.state,
		Uptime:        uptime,
		LastTickAt:    b.lastTickAt,
		SinceLastTick: sinceLastTick,
		LastThinkAt:   b.lastThinkAt,
		LastThinkOK:   b.lastThinkOK,
		LastThinkSeen: b.lastThinkSeen,
		QueueDepth:    b.queue.Len(),
	}
}
