package personality

// Mood is the transient, never-persisted five-field emotional state owned
// by AutonomousBrain and guarded by its own lock at the call site (spec
// §4.3, §5 lock-ordering discipline: mood_lock before brain_lock).
type Mood struct {
	Happiness       float64
	Excitement      float64
	Tiredness       float64
	Boredom         float64
	CuriosityLevel  float64
}

// DefaultMood is a calm, neutral starting point.
func DefaultMood() Mood {
	return Mood{
		Happiness:      0.5,
		Excitement:     0.3,
		Tiredness:      0.2,
		Boredom:        0.3,
		CuriosityLevel: 0.3,
	}
}

func (m *Mood) clamp() {
	m.Happiness = clamp01(m.Happiness)
	m.Excitement = clamp01(m.Excitement)
	m.Tiredness = clamp01(m.Tiredness)
	m.Boredom = clamp01(m.Boredom)
	m.CuriosityLevel = clamp01(m.CuriosityLevel)
}

// OnInteraction applies the effect of a user interaction.
func (m *Mood) OnInteraction() {
	m.Boredom -= 0.3
	m.Happiness += 0.1
	m.Excitement += 0.2
	m.clamp()
}

// OnNovelStimulus applies the effect of a novel sensor observation.
func (m *Mood) OnNovelStimulus(novelty float64) {
	m.CuriosityLevel += 0.3 * novelty
	m.Boredom -= 0.2 * novelty
	m.Excitement += 0.1 * novelty
	m.clamp()
}

// Decay applies the passive drift for a dt-second tick (spec §4.3: rates
// given per 0.1s tick, scaled by dt/0.1 i.e. dt*10).
func (m *Mood) Decay(dt float64) {
	ticks := dt * 10
	if m.Excitement > 0.3 {
		m.Excitement -= 0.001 * ticks
		if m.Excitement < 0.3 {
			m.Excitement = 0.3
		}
	}
	if m.CuriosityLevel > 0.3 {
		m.CuriosityLevel -= 0.001 * ticks
		if m.CuriosityLevel < 0.3 {
			m.CuriosityLevel = 0.3
		}
	}
	m.Boredom += 0.0005 * ticks
	m.Tiredness += 0.0001 * ticks
	m.clamp()
}

// ShouldThink reports think-eligibility per spec §4.3/Glossary.
func (m *Mood) ShouldThink(p Personality) bool {
	return m.CuriosityLevel > (0.6-0.2*p.Curiosity) || m.Boredom > (0.8-0.2*p.Curiosity)
}
