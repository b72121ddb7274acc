// Package brain implements AutonomousBrain (spec §4.8): the central
// state-machine scheduler that drains a bounded observation queue at 10 Hz,
// latches sensor state, feeds the mood model, and runs think cycles against
// one of two decision backends.
package brain

// State is the brain's scheduling state (spec §4.8).
type State string

const (
	StateIdle        State = "IDLE"
	StateCurious     State = "CURIOUS"
	StateThinking    State = "THINKING"
	StateActing      State = "ACTING"
	StateInteracting State = "INTERACTING"
)
