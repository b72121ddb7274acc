// Package personality implements PersonalityModel (spec §4.3): a persisted
// bounded trait vector, and Mood, its transient sibling owned by the brain.
package personality

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/joeunion/pidog/internal/cogerr"
)

// Trait names the five personality dimensions.
type Trait string

const (
	Playfulness   Trait = "playfulness"
	Curiosity     Trait = "curiosity"
	Affection     Trait = "affection"
	Energy        Trait = "energy"
	Talkativeness Trait = "talkativeness"
)

// Personality is the process-lifetime, persisted trait vector.
type Personality struct {
	Playfulness   float64 `yaml:"playfulness"`
	Curiosity     float64 `yaml:"curiosity"`
	Affection     float64 `yaml:"affection"`
	Energy        float64 `yaml:"energy"`
	Talkativeness float64 `yaml:"talkativeness"`
}

// Default matches spec §6's fallback when no side-file exists.
func Default() Personality {
	return Personality{
		Playfulness:   0.7,
		Curiosity:     0.8,
		Affection:     0.6,
		Energy:        0.5,
		Talkativeness: 0.6,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func (p *Personality) get(t Trait) (float64, bool) {
	switch t {
	case Playfulness:
		return p.Playfulness, true
	case Curiosity:
		return p.Curiosity, true
	case Affection:
		return p.Affection, true
	case Energy:
		return p.Energy, true
	case Talkativeness:
		return p.Talkativeness, true
	default:
		return 0, false
	}
}

func (p *Personality) set(t Trait, v float64) bool {
	v = clamp01(v)
	switch t {
	case Playfulness:
		p.Playfulness = v
	case Curiosity:
		p.Curiosity = v
	case Affection:
		p.Affection = v
	case Energy:
		p.Energy = v
	case Talkativeness:
		p.Talkativeness = v
	default:
		return false
	}
	return true
}

// Model owns the persisted Personality and synchronizes writes to its
// side-file.
type Model struct {
	mu   sync.RWMutex
	path string
	p    Personality
}

// Load reads the side-file at path, falling back to Default() when it is
// missing.
func Load(path string) (*Model, error) {
	m := &Model{path: path, p: Default()}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, cogerr.NewStorage("personality_load", err)
	}
	var p Personality
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, cogerr.NewStorage("personality_load", err)
	}
	m.p = p
	return m, nil
}

func (m *Model) persist() error {
	data, err := yaml.Marshal(m.p)
	if err != nil {
		return cogerr.NewStorage("personality_save", err)
	}
	if err := os.WriteFile(m.path, data, 0o644); err != nil {
		return cogerr.NewStorage("personality_save", err)
	}
	return nil
}

// Get returns a snapshot of the current personality.
func (m *Model) Get() Personality {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.p
}

// Update sets an absolute trait value, clamping and persisting synchronously.
func (m *Model) Update(t Trait, value float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.p.set(t, value) {
		return cogerr.NewValidation("trait", fmt.Sprintf("unknown trait %q", t))
	}
	return m.persist()
}

// Adjust applies a relative delta to a trait, clamping and persisting.
func (m *Model) Adjust(t Trait, delta float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.p.get(t)
	if !ok {
		return cogerr.NewValidation("trait", fmt.Sprintf("unknown trait %q", t))
	}
	m.p.set(t, cur+delta)
	return m.persist()
}

// BehaviorModifiers is a pure function of the snapshot, used for UI context
// only (spec §4.3).
func BehaviorModifiers(p Personality) map[string]float64 {
	return map[string]float64{
		"playful":    p.Playfulness,
		"curious":    p.Curiosity,
		"affectionate": p.Affection,
		"energetic":  p.Energy,
		"chatty":     p.Talkativeness,
	}
}
