// Package behavior implements the local BehaviorTree decision backend
// (spec §4.5): a deterministic, priority-ordered decision procedure over
// (mood, personality, observations, memory context).
package behavior

import (
	"math/rand"
	"sync"
	"time"

	"github.com/joeunion/pidog/internal/action"
	"github.com/joeunion/pidog/internal/decision"
	"github.com/joeunion/pidog/internal/personality"
	"github.com/joeunion/pidog/internal/templates"
)

// Observations is the latched sensor snapshot the tree decides over.
type Observations struct {
	PersonDetected    bool
	PersonName        string
	PersonIsNew       bool
	PersonIsReturning bool

	// ObstacleDistance in centimeters; >= 100 means no reading / no obstacle.
	ObstacleDistance float64
	HasObstacle      bool

	TouchDetected bool
	TouchStyle    action.TouchStyle
}

// MemoryContext carries the handful of prior memories relevant to the
// current cycle, e.g. the top person memories for a recognized name.
type MemoryContext struct {
	PersonMemories []string
}

// ActiveGoal is the subset of goal state the tree needs to decide on.
type ActiveGoal struct {
	ID          int64
	Description string
}

const greetingCooldown = 60 * time.Second

// Tree is the stateful (anti-repetition bookkeeping only) behavior tree.
type Tree struct {
	mu              sync.Mutex
	lib             *templates.Library
	rng             *rand.Rand
	recentCategories []string
	lastGreeting    map[string]time.Time
}

// New constructs a Tree backed by the given template library.
func New(lib *templates.Library) *Tree {
	return &Tree{
		lib:          lib,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		lastGreeting: make(map[string]time.Time),
	}
}

func (t *Tree) remember(category string) {
	t.recentCategories = append(t.recentCategories, category)
	if len(t.recentCategories) > 5 {
		t.recentCategories = t.recentCategories[len(t.recentCategories)-5:]
	}
}

func (t *Tree) wasRecent(category string) bool {
	for _, c := range t.recentCategories {
		if c == category {
			return true
		}
	}
	return false
}

// pickAvoidingRepeat chooses uniformly among options, preferring one not in
// the last-5 history when more than one option exists.
func (t *Tree) pickAvoidingRepeat(options []string) string {
	if len(options) == 1 {
		return options[0]
	}
	fresh := make([]string, 0, len(options))
	for _, o := range options {
		if !t.wasRecent(o) {
			fresh = append(fresh, o)
		}
	}
	if len(fresh) == 0 {
		fresh = options
	}
	return fresh[t.rng.Intn(len(fresh))]
}

func moodModifier(mood personality.Mood) string {
	switch {
	case mood.Excitement > 0.7 || mood.Happiness > 0.7:
		return "excited"
	case mood.Tiredness > 0.6:
		return "tired"
	default:
		return ""
	}
}

// Decide runs the priority-ordered evaluation (spec §4.5) and returns the
// resulting Decision.
func (t *Tree) Decide(mood personality.Mood, pers personality.Personality, obs Observations, memCtx MemoryContext, goal *ActiveGoal) decision.Decision {
	t.mu.Lock()
	defer t.mu.Unlock()

	if obs.PersonDetected {
		return t.decidePerson(mood, pers, obs, memCtx)
	}

	if obs.HasObstacle && obs.ObstacleDistance < 15 {
		return t.decideObstacle(obs)
	}

	if obs.TouchDetected {
		return t.decideTouch(obs)
	}

	if goal != nil {
		return t.decideGoal(*goal)
	}

	if d, ok := t.decideMood(mood, pers); ok {
		return d
	}

	return t.decideFallback(pers)
}

func (t *Tree) decidePerson(mood personality.Mood, pers personality.Personality, obs Observations, memCtx MemoryContext) decision.Decision {
	name := obs.PersonName
	if name != "" {
		if last, ok := t.lastGreeting[name]; ok && time.Since(last) < greetingCooldown {
			t.remember("idle_sounds")
			return decision.Decision{Actions: []action.Token{action.Nod}}
		}
		t.lastGreeting[name] = time.Now()
	}

	var category string
	switch {
	case obs.PersonIsReturning:
		category = "greeting_returning_person"
	case name != "":
		category = "greeting_known_person"
	default:
		category = "greeting_unknown_person"
	}
	t.remember(category)

	speech, actions := t.lib.GetResponse(category, moodModifier(mood), map[string]string{"name": name})

	if name != "" && len(memCtx.PersonMemories) > 0 && t.rng.Float64() < 0.3 {
		mem := memCtx.PersonMemories[0]
		speech = appendMemoryPhrase(speech, mem)
	}

	d := decision.Decision{
		Speech:  speech,
		Actions: actions,
		Tools: []decision.ToolCall{{
			Name: "remember",
			Params: map[string]any{
				"category": "interaction",
				"subject":  name,
				"content":  "greeted " + category,
			},
		}},
	}
	return d
}

// appendMemoryPhrase appends a recalled memory to speech using one of two
// grammatical phrasings depending on whether the memory begins with an
// action verb (a crude heuristic: does it start with a verb-like word).
func appendMemoryPhrase(speech, memory string) string {
	if looksLikeActionVerb(memory) {
		return speech + " I remember you " + memory + "."
	}
	return speech + " I remember that " + memory + "."
}

var actionVerbPrefixes = []string{"went", "played", "walked", "ran", "gave", "showed", "took", "fed", "pet", "threw"}

func looksLikeActionVerb(memory string) bool {
	for _, v := range actionVerbPrefixes {
		if len(memory) >= len(v) && memory[:len(v)] == v {
			return true
		}
	}
	return false
}

func (t *Tree) decideObstacle(obs Observations) decision.Decision {
	category := "reaction_obstacle"
	if obs.ObstacleDistance < 10 {
		category = "reaction_too_close"
	}
	t.remember(category)
	speech, actions := t.lib.GetResponse(category, "", nil)
	if !containsAction(actions, action.Backward) {
		actions = append([]action.Token{action.Backward}, actions...)
	}
	return decision.Decision{Speech: speech, Actions: actions}
}

func containsAction(actions []action.Token, tok action.Token) bool {
	for _, a := range actions {
		if a == tok {
			return true
		}
	}
	return false
}

func (t *Tree) decideTouch(obs Observations) decision.Decision {
	switch obs.TouchStyle {
	case action.FrontToRear, action.Press:
		t.remember("affection_being_pet")
		speech, actions := t.lib.GetResponse("affection_being_pet", "", nil)
		return decision.Decision{Speech: speech, Actions: actions}
	case action.RearToFront:
		t.remember("response_bad_dog")
		speech, _ := t.lib.GetResponse("response_bad_dog", "", nil)
		return decision.Decision{Speech: speech, Actions: []action.Token{action.Backward, action.ShakeHead}}
	default:
		t.remember("reaction_surprised")
		speech, actions := t.lib.GetResponse("reaction_surprised", "", nil)
		return decision.Decision{Speech: speech, Actions: actions}
	}
}

func (t *Tree) decideGoal(goal ActiveGoal) decision.Decision {
	category := "goal_working_on"
	var tools []decision.ToolCall
	if t.rng.Float64() < 0.1 {
		category = "goal_completed"
		tools = []decision.ToolCall{{Name: "complete_goal", Params: map[string]any{"id": goal.ID}}}
	}
	t.remember(category)
	speech, actions := t.lib.GetResponse(category, "", map[string]string{"goal": goal.Description})
	return decision.Decision{Speech: speech, Actions: actions, Tools: tools}
}

func (t *Tree) decideMood(mood personality.Mood, pers personality.Personality) (decision.Decision, bool) {
	switch {
	case mood.Boredom > 0.7:
		var category string
		switch {
		case pers.Playfulness > 0.6:
			category = "bored_playful"
		case pers.Energy > 0.5:
			category = "bored_restless"
		default:
			category = "bored_idle"
		}
		t.remember(category)
		speech, actions := t.lib.GetResponse(category, "", nil)
		return decision.Decision{Speech: speech, Actions: actions}, true

	case mood.CuriosityLevel > 0.6:
		category := t.pickAvoidingRepeat([]string{"curious_investigating", "curious_sniffing", "exploring_start"})
		t.remember(category)
		speech, actions := t.lib.GetResponse(category, "", nil)
		return decision.Decision{Speech: speech, Actions: actions}, true

	case mood.Tiredness > 0.7:
		category := "tired_general"
		if mood.Tiredness > 0.9 {
			category = "tired_going_to_sleep"
		}
		t.remember(category)
		speech, actions := t.lib.GetResponse(category, "", nil)
		return decision.Decision{Speech: speech, Actions: actions}, true

	case mood.Happiness > 0.6 && mood.Excitement > 0.5:
		category := "happy_general"
		if mood.Excitement > 0.7 {
			category = "happy_excited"
		}
		t.remember(category)
		speech, actions := t.lib.GetResponse(category, "", nil)
		return decision.Decision{Speech: speech, Actions: actions}, true
	}
	return decision.Decision{}, false
}

func (t *Tree) decideFallback(pers personality.Personality) decision.Decision {
	if t.rng.Float64() < 0.3+0.4*pers.Energy {
		category := t.pickAvoidingRepeat([]string{"happy_content", "curious_sniffing"})
		t.remember(category)
		speech, actions := t.lib.GetResponse(category, "", nil)
		return decision.Decision{Speech: speech, Actions: actions}
	}

	t.remember("idle_sounds")
	speech, actions := t.lib.GetResponse("idle_sounds", "", nil)
	if t.rng.Float64() < 0.7 {
		speech = ""
	}
	return decision.Decision{Speech: speech, Actions: actions}
}
