package brain

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joeunion/pidog/internal/action"
	"github.com/joeunion/pidog/internal/behavior"
	"github.com/joeunion/pidog/internal/capability"
	"github.com/joeunion/pidog/internal/logging"
	"github.com/joeunion/pidog/internal/novelty"
	"github.com/joeunion/pidog/internal/personality"
	"github.com/joeunion/pidog/internal/ratelimit"
	"github.com/joeunion/pidog/internal/reasoner"
	"github.com/joeunion/pidog/internal/store"
	"github.com/joeunion/pidog/internal/templates"
	"github.com/joeunion/pidog/internal/tools"
)

// tickInterval is the brain loop's scheduling period (spec §5: 10 Hz).
const tickInterval = 100 * time.Millisecond

// personReturningWindow bounds how recently a person must have left view to
// count as "returning" rather than a fresh greeting (spec §4.8).
const personReturningWindow = 300 * time.Second

// Effectors bundles the callback capabilities a think cycle invokes.
type Effectors struct {
	Action capability.ActionEffector
	Speech capability.SpeechEffector
}

// Brain is AutonomousBrain: the scheduler and state machine (spec §4.8).
type Brain struct {
	store   *store.Store
	pers    *personality.Model
	lib     *templates.Library
	novelty *novelty.Detector
	limiter *ratelimit.Limiter
	dispatch *tools.Dispatcher
	effectors Effectors

	localOnly bool
	tree      *behavior.Tree
	brainLLM  reasoner.ExternalReasoner

	queue *ObservationQueue

	moodMu sync.Mutex
	mood   personality.Mood

	brainMu           sync.Mutex
	state             State
	personDetected    bool
	personName        string
	personIsNew       bool
	touchDetected     bool
	touchStyle        action.TouchStyle
	obstacleDistance  float64
	hasObstacle       bool
	personLastLeft    map[string]time.Time
	interactingSince  time.Time
	idleSince         time.Time
	lastDecisionSpeech string

	stopCh  chan struct{}
	stopped chan struct{}
	running bool

	startedAt     time.Time
	lastTickAt    time.Time
	lastThinkAt   time.Time
	lastThinkOK   bool
	lastThinkSeen bool
}

// Config bundles the dependencies New needs to build a Brain.
type Config struct {
	Store     *store.Store
	Pers      *personality.Model
	Lib       *templates.Library
	Dispatch  *tools.Dispatcher
	Effectors Effectors
	LocalOnly bool
	Tree      *behavior.Tree
	Reasoner  reasoner.ExternalReasoner
	// MaxCallsPerMinute/MinThinkInterval configure the remote-backend
	// RateLimiter; the local backend always uses the fixed 30/min, 5s
	// limiter described in spec §4.8.
	MaxCallsPerMinute int
	MinThinkInterval  time.Duration
	QueueCapacity     int
}

// New constructs a Brain in state IDLE with a fresh Mood and observation
// queue.
func New(cfg Config) *Brain {
	var limiter *ratelimit.Limiter
	if cfg.LocalOnly {
		limiter = ratelimit.New(30, 60*time.Second, 5*time.Second)
	} else {
		limiter = ratelimit.New(cfg.MaxCallsPerMinute, 60*time.Second, cfg.MinThinkInterval)
	}

	b := &Brain{
		store:          cfg.Store,
		pers:           cfg.Pers,
		lib:            cfg.Lib,
		novelty:        novelty.New(novelty.DefaultHistorySize),
		limiter:        limiter,
		dispatch:       cfg.Dispatch,
		effectors:      cfg.Effectors,
		localOnly:      cfg.LocalOnly,
		tree:           cfg.Tree,
		brainLLM:       cfg.Reasoner,
		queue:          NewObservationQueue(cfg.QueueCapacity),
		mood:           personality.DefaultMood(),
		state:          StateIdle,
		personLastLeft: make(map[string]time.Time),
		stopCh:         make(chan struct{}),
		stopped:        make(chan struct{}),
	}
	return b
}

// Observe pushes a sensor reading onto the bounded observation queue. It
// never blocks (spec §5).
func (b *Brain) Observe(obs Observation) {
	b.queue.Put(obs)
}

// OnInteractionStart transitions to INTERACTING from any state and applies
// the mood effect of direct interaction.
func (b *Brain) OnInteractionStart() {
	b.moodMu.Lock()
	b.mood.OnInteraction()
	b.moodMu.Unlock()

	b.brainMu.Lock()
	b.state = StateInteracting
	b.interactingSince = time.Now()
	b.brainMu.Unlock()
}

// OnInteractionEnd transitions INTERACTING back to IDLE, resets idleSince,
// and persists summary as a Conversation record when non-empty (SPEC_FULL
// §12, grounded on original_source/pidog_brain/conversation_manager.py).
func (b *Brain) OnInteractionEnd(summary string) {
	b.brainMu.Lock()
	b.state = StateIdle
	b.idleSince = time.Now()
	b.brainMu.Unlock()

	if summary != "" {
		if _, err := b.store.SaveConversation(summary); err != nil {
			logging.Get(logging.CategoryBrain).Warn("OnInteractionEnd: save conversation failed: %v", err)
		}
	}
}

// State returns the current scheduling state.
func (b *Brain) State() State {
	b.brainMu.Lock()
	defer b.brainMu.Unlock()
	return b.state
}

// isInteracting reports whether the brain is currently INTERACTING. It reads
// no mood field, so it takes only brain_lock.
func (b *Brain) isInteracting() bool {
	b.brainMu.Lock()
	defer b.brainMu.Unlock()
	return b.state == StateInteracting
}

// Run starts the 10 Hz loop and blocks until ctx is cancelled or Stop is
// called. It never returns an error from the loop itself; tick-level panics
// and errors are caught and logged (spec §7: the brain loop must never
// crash).
func (b *Brain) Run(ctx context.Context) error {
	b.running = true
	b.startedAt = time.Now()
	defer close(b.stopped)

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-b.stopCh:
				return nil
			case <-ticker.C:
				b.tick(gctx)
			}
		}
	})
	return group.Wait()
}

// Stop requests cooperative shutdown, waiting up to timeout for the loop to
// exit. It logs a warning (but does not block further) if the loop has not
// exited by then.
func (b *Brain) Stop(timeout time.Duration) {
	if !b.running {
		return
	}
	close(b.stopCh)
	select {
	case <-b.stopped:
	case <-time.After(timeout):
		logging.Get(logging.CategoryBrain).Warn("Stop: loop did not exit within %v", timeout)
	}
}

func (b *Brain) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			logging.Get(logging.CategoryBrain).Error("tick panicked: %v", r)
			time.Sleep(time.Second)
		}
	}()

	for _, obs := range b.queue.DrainAll() {
		b.processObservation(obs)
	}

	b.moodMu.Lock()
	b.mood.Decay(tickInterval.Seconds())
	b.moodMu.Unlock()

	b.brainMu.Lock()
	b.lastTickAt = time.Now()
	b.brainMu.Unlock()

	b.thinkCheck(ctx)
}

func (b *Brain) processObservation(obs Observation) {
	var score float64
	switch obs.Sensor {
	case novelty.Ultrasonic, novelty.IMU:
		v, _ := obs.Value.(float64)
		score = b.novelty.ScoreNumeric(obs.Sensor, v)
		b.brainMu.Lock()
		b.obstacleDistance = v
		b.hasObstacle = v < 100
		b.brainMu.Unlock()

	case novelty.Touch:
		style, _ := obs.Value.(action.TouchStyle)
		score = b.novelty.ScoreCategorical(obs.Sensor, string(style))
		b.brainMu.Lock()
		b.touchDetected = true
		b.touchStyle = style
		b.brainMu.Unlock()

	case novelty.Vision:
		payload, _ := obs.Value.(VisionPayload)
		score = b.novelty.ScoreVisionEvent(obs.Sensor, string(payload.Event))
		b.applyVisionEvent(payload)

	default:
		text, _ := obs.Value.(string)
		score = b.novelty.ScoreGeneric(obs.Sensor, text)
	}

	if score > 0.5 {
		b.moodMu.Lock()
		b.mood.OnNovelStimulus(score)
		b.moodMu.Unlock()
	}
}

func (b *Brain) applyVisionEvent(payload VisionPayload) {
	b.brainMu.Lock()
	defer b.brainMu.Unlock()

	switch payload.Event {
	case action.PersonEnteredView, action.FaceRecognized, action.UnknownFaceDetected:
		b.personDetected = true
		b.personName = payload.Name
		_, seenBefore := b.personLastLeft[payload.Name]
		b.personIsNew = payload.Name == "" || (!seenBefore && payload.Event == action.UnknownFaceDetected)
		if b.state == StateIdle {
			b.state = StateCurious
		}
	case action.PersonLeftView:
		if b.personName != "" {
			b.personLastLeft[b.personName] = time.Now()
		}
		b.personDetected = false
		b.personName = ""
	}
}

// isPersonReturningLocked reports whether the current person was last seen within
// personReturningWindow and is not a brand-new face. Must be called with
// brainMu held.
func (b *Brain) isPersonReturningLocked() bool {
	if b.personName == "" || b.personIsNew {
		return false
	}
	last, ok := b.personLastLeft[b.personName]
	return ok && time.Since(last) < personReturningWindow
}

func (b *Brain) thinkCheck(ctx context.Context) {
	b.moodMu.Lock()
	mood := b.mood
	b.moodMu.Unlock()
	pers := b.pers.Get()

	shouldThink := mood.ShouldThink(pers)

	b.brainMu.Lock()
	eligibleState := b.state == StateIdle || b.state == StateCurious
	b.brainMu.Unlock()

	if !eligibleState || !shouldThink || !b.limiter.MayCall() {
		return
	}

	select {
	case <-ctx.Done():
		return
	default:
	}

	b.limiter.Record()

	b.brainMu.Lock()
	b.state = StateThinking
	b.brainMu.Unlock()

	var ok bool
	if b.localOnly {
		ok = b.runLocalCycle(ctx)
	} else {
		ok = b.runRemoteCycle(ctx)
	}

	b.brainMu.Lock()
	b.state = StateIdle
	b.idleSince = time.Now()
	b.lastThinkAt = time.Now()
	b.lastThinkOK = ok
	b.lastThinkSeen = true
	b.brainMu.Unlock()
}
