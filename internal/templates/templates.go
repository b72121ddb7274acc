// Package templates implements the TemplateLibrary (spec §4.4): a static
// registry of categorized pre-written speech/action responses with
// placeholder substitution and mood-modifier specialization, plus an
// IntentClassifier over free-form user text.
package templates

import (
	"math/rand"
	"strings"

	"github.com/joeunion/pidog/internal/action"
)

// Variant is a single (speech, actions) response option.
type Variant struct {
	Speech  string
	Actions []action.Token
}

// Library is the category -> variants registry.
type Library struct {
	categories map[string][]Variant
}

// New builds a Library seeded with the categories used throughout the
// behavior tree (§4.5) and reasoner prompts, reproduced from
// original_source/pidog_brain/templates.py.
func New() *Library {
	l := &Library{categories: make(map[string][]Variant)}
	l.seed()
	return l
}

func (l *Library) add(category string, variants ...Variant) {
	l.categories[category] = append(l.categories[category], variants...)
}

func (l *Library) seed() {
	l.add("greeting_known_person",
		Variant{Speech: "Hi {name}! Good to see you.", Actions: []action.Token{action.WagTail}},
		Variant{Speech: "Oh, it's {name}!", Actions: []action.Token{action.WagTail, action.Sit}},
	)
	l.add("greeting_known_person_excited",
		Variant{Speech: "{name}! {name}! You're here!", Actions: []action.Token{action.WagTail, action.Bark}},
		Variant{Speech: "Yay, {name} is back!", Actions: []action.Token{action.WagTail, action.HighFive}},
	)
	l.add("greeting_known_person_tired",
		Variant{Speech: "Oh... hi {name}.", Actions: []action.Token{action.WagTail}},
	)
	l.add("greeting_returning_person",
		Variant{Speech: "Welcome back, {name}!", Actions: []action.Token{action.WagTail, action.TwistBody}},
	)
	l.add("greeting_unknown_person",
		Variant{Speech: "Oh, hello there! Who are you?", Actions: []action.Token{action.Sit, action.TurnLeft}},
		Variant{Speech: "I don't think we've met.", Actions: []action.Token{action.Waiting}},
	)

	l.add("reaction_too_close",
		Variant{Speech: "Whoa, too close!", Actions: []action.Token{action.Backward, action.Surprise}},
	)
	l.add("reaction_obstacle",
		Variant{Speech: "Something's in my way.", Actions: []action.Token{action.Backward, action.TurnLeft}},
	)

	l.add("affection_being_pet",
		Variant{Speech: "That feels nice!", Actions: []action.Token{action.WagTail, action.PushUp}},
	)
	l.add("response_bad_dog",
		Variant{Speech: "Hey, I don't like that.", Actions: []action.Token{action.Backward, action.ShakeHead}},
	)
	l.add("reaction_surprised",
		Variant{Speech: "Oh!", Actions: []action.Token{action.Surprise}},
	)

	l.add("goal_working_on",
		Variant{Speech: "Still working on it.", Actions: []action.Token{action.Think}},
	)
	l.add("goal_completed",
		Variant{Speech: "Done! I did it.", Actions: []action.Token{action.Bark, action.WagTail}},
	)

	l.add("bored_playful",
		Variant{Speech: "I'm bored, let's play!", Actions: []action.Token{action.WagTail, action.TwistBody}},
	)
	l.add("bored_restless",
		Variant{Speech: "I need to move around.", Actions: []action.Token{action.Forward, action.TurnRight}},
	)
	l.add("bored_idle",
		Variant{Speech: "So bored...", Actions: []action.Token{action.Waiting}},
	)

	l.add("curious_investigating",
		Variant{Speech: "What's that?", Actions: []action.Token{action.TurnLeft, action.Think}},
	)
	l.add("curious_sniffing",
		Variant{Speech: "Sniff sniff.", Actions: []action.Token{action.Forward}},
	)
	l.add("exploring_start",
		Variant{Speech: "Let's see what's out there.", Actions: []action.Token{action.Forward, action.TurnRight}},
	)

	l.add("tired_general",
		Variant{Speech: "Getting a little sleepy.", Actions: []action.Token{action.Stretch}},
	)
	l.add("tired_going_to_sleep",
		Variant{Speech: "Zzz... time for a nap.", Actions: []action.Token{action.DozeOff, action.Lie}},
	)

	l.add("happy_general",
		Variant{Speech: "Life is good.", Actions: []action.Token{action.WagTail}},
	)
	l.add("happy_excited",
		Variant{Speech: "This is great!", Actions: []action.Token{action.WagTail, action.Bark}},
	)
	l.add("happy_content",
		Variant{Speech: "Feeling good right now.", Actions: []action.Token{action.Sit, action.WagTail}},
	)

	l.add("idle_sounds",
		Variant{Speech: "", Actions: []action.Token{action.Pant}},
		Variant{Speech: "", Actions: []action.Token{action.Waiting}},
	)
}

func substitute(tmpl string, subs map[string]string) string {
	out := tmpl
	for k, v := range subs {
		out = strings.ReplaceAll(out, "{"+k+"}", v)
	}
	return out
}

// GetResponse selects uniformly at random from a category's variants,
// preferring a "category_{moodModifier}" specialization when one exists.
// Missing placeholders are left literal.
func (l *Library) GetResponse(category, moodModifier string, subs map[string]string) (string, []action.Token) {
	key := category
	if moodModifier != "" {
		if _, ok := l.categories[category+"_"+moodModifier]; ok {
			key = category + "_" + moodModifier
		}
	}
	variants := l.categories[key]
	if len(variants) == 0 {
		return "", nil
	}
	v := variants[rand.Intn(len(variants))]
	return substitute(v.Speech, subs), append([]action.Token(nil), v.Actions...)
}

// HasCategory reports whether a category (not a specialization) is seeded.
func (l *Library) HasCategory(category string) bool {
	_, ok := l.categories[category]
	return ok
}
