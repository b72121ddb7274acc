// Package maintainer implements MemoryMaintainer (spec §4.9): a periodic
// background job that decays stale memory importance, consolidates
// same-subject memories through the reasoner, prunes the store back under
// its size cap, and deduplicates recognized faces.
package maintainer

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joeunion/pidog/internal/logging"
	"github.com/joeunion/pidog/internal/reasoner"
	"github.com/joeunion/pidog/internal/store"
)

const (
	// DefaultInterval is the time between maintenance cycles.
	DefaultInterval = 6 * time.Hour
	// DefaultInitialDelay is how long the maintainer waits before its first
	// cycle, so it doesn't compete with startup.
	DefaultInitialDelay = 5 * time.Minute
	// BusyRetryInterval is how soon the maintainer retries after skipping a
	// cycle because the brain was busy.
	BusyRetryInterval = 5 * time.Minute

	// DefaultMaxMemories is the size cap pruning targets.
	DefaultMaxMemories = 500
	// protectionPeriod is how recently a memory must have been accessed to
	// be exempt from importance decay.
	protectionPeriod = 7 * 24 * time.Hour
	// decayRatePerDay is how much importance a stale memory loses per day
	// beyond the protection period.
	decayRatePerDay = 0.01
	// minDecayDelta is the smallest |delta| worth writing back.
	minDecayDelta = 0.001
	// decayMaxImportance bounds decay candidates; anything already important
	// enough is left alone.
	decayMaxImportance = 0.9

	// consolidationBatchSize bounds how many memories of one subject are
	// sent to the reasoner in a single consolidation prompt.
	consolidationBatchSize = 20
	// consolidationThrottle is the minimum gap between reasoner calls during
	// consolidation, so a maintainer pass can't hammer the backend.
	consolidationThrottle = time.Second

	// pruneMaxImportance is the importance ceiling prune_candidates uses.
	pruneMaxImportance = 0.2
	// pruneOvershoot is the fraction of the excess-over-cap actually
	// deleted, so pruning doesn't immediately re-trigger next cycle.
	pruneOvershoot = 1.2

	// faceDistanceThreshold is the Euclidean-distance cutoff for treating
	// two same-name faces as duplicates.
	faceDistanceThreshold = 0.4
)

// Stats is the output of one completed (or skipped) maintenance cycle
// (spec §4.9).
type Stats struct {
	CycleID           string
	DecayedCount      int
	ConsolidatedCount int
	PrunedCount       int
	MergedFacesCount  int
	DurationSeconds   float64
	Timestamp         time.Time
	Skipped           bool
}

// Maintainer runs MemoryMaintainer's periodic cycle against a Store, using
// reasoner for consolidation and an injected busy predicate to defer to the
// Brain during interactions.
type Maintainer struct {
	store    *store.Store
	reasoner reasoner.ExternalReasoner
	isBusy   func() bool

	interval     time.Duration
	initialDelay time.Duration
	busyRetry    time.Duration
	maxMemories  int

	statsMu  sync.Mutex
	lastStat Stats

	stopCh  chan struct{}
	stopped chan struct{}
}

// Config bundles Maintainer's dependencies and tunables. Zero-value
// durations/limits fall back to the package defaults.
type Config struct {
	Store       *store.Store
	Reasoner    reasoner.ExternalReasoner
	IsBusy      func() bool
	Interval    time.Duration
	InitialDelay time.Duration
	BusyRetry   time.Duration
	MaxMemories int
}

// New constructs a Maintainer. isBusy defaults to "never busy" if nil.
func New(cfg Config) *Maintainer {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	initialDelay := cfg.InitialDelay
	if initialDelay <= 0 {
		initialDelay = DefaultInitialDelay
	}
	busyRetry := cfg.BusyRetry
	if busyRetry <= 0 {
		busyRetry = BusyRetryInterval
	}
	maxMemories := cfg.MaxMemories
	if maxMemories <= 0 {
		maxMemories = DefaultMaxMemories
	}
	isBusy := cfg.IsBusy
	if isBusy == nil {
		isBusy = func() bool { return false }
	}

	return &Maintainer{
		store:        cfg.Store,
		reasoner:     cfg.Reasoner,
		isBusy:       isBusy,
		interval:     interval,
		initialDelay: initialDelay,
		busyRetry:    busyRetry,
		maxMemories:  maxMemories,
		stopCh:       make(chan struct{}),
		stopped:      make(chan struct{}),
	}
}

// LastStats returns the most recently completed (or skipped) cycle's stats.
func (m *Maintainer) LastStats() Stats {
	m.statsMu.Lock()
	defer m.statsMu.Unlock()
	return m.lastStat
}

// Run blocks, sleeping between cycles, until ctx is cancelled or Stop is
// called. It mirrors the Brain loop's resilience: a panicking cycle is
// caught, logged, and the loop continues (spec §7).
func (m *Maintainer) Run(ctx context.Context) {
	defer close(m.stopped)

	if !m.sleep(ctx, m.initialDelay) {
		return
	}

	for {
		wait := m.runCycleSafely(ctx)
		if !m.sleep(ctx, wait) {
			return
		}
	}
}

// Stop requests cooperative shutdown, waiting up to timeout for the loop to
// exit.
func (m *Maintainer) Stop(timeout time.Duration) {
	close(m.stopCh)
	select {
	case <-m.stopped:
	case <-time.After(timeout):
		logging.Get(logging.CategoryMaintainer).Warn("Stop: loop did not exit within %v", timeout)
	}
}

func (m *Maintainer) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-m.stopCh:
		return false
	case <-timer.C:
		return true
	}
}

func (m *Maintainer) runCycleSafely(ctx context.Context) (nextWait time.Duration) {
	nextWait = m.interval
	defer func() {
		if r := recover(); r != nil {
			logging.Get(logging.CategoryMaintainer).Error("cycle panicked: %v", r)
			nextWait = m.interval
		}
	}()

	if m.isBusy() {
		logging.Get(logging.CategoryMaintainer).Info("skipping cycle: brain busy")
		m.statsMu.Lock()
		m.lastStat = Stats{Skipped: true, Timestamp: time.Now()}
		m.statsMu.Unlock()
		return m.busyRetry
	}

	m.runCycle(ctx)
	return m.interval
}

func (m *Maintainer) runCycle(ctx context.Context) {
	cycleID := uuid.New().String()[:8]
	timer := logging.StartTimer(logging.CategoryMaintainer, "cycle")
	start := time.Now()

	stats := Stats{CycleID: cycleID, Timestamp: start}
	stats.DecayedCount = m.decayImportance()

	if ctx.Err() == nil && !m.isBusy() {
		stats.ConsolidatedCount = m.consolidate(ctx)
	}

	stats.PrunedCount = m.prune()
	stats.MergedFacesCount = m.deduplicateFaces()

	timer.Stop()
	stats.DurationSeconds = time.Since(start).Seconds()

	m.statsMu.Lock()
	m.lastStat = stats
	m.statsMu.Unlock()

	logging.Get(logging.CategoryMaintainer).Info(
		"cycle %s complete: decayed=%d consolidated=%d pruned=%d merged_faces=%d duration=%.2fs",
		cycleID, stats.DecayedCount, stats.ConsolidatedCount, stats.PrunedCount, stats.MergedFacesCount, stats.DurationSeconds)
}
