package templates

import "strings"

// IntentClassifier maps free-form user text to an intent key via keyword
// sets, and thence to a response category.
type IntentClassifier struct {
	keywords map[string][]string // intent -> keywords
	category map[string]string   // intent -> response category
}

// NewIntentClassifier builds the default keyword/category mapping.
func NewIntentClassifier() *IntentClassifier {
	c := &IntentClassifier{
		keywords: map[string][]string{
			"greet":   {"hello", "hi", "hey"},
			"play":    {"play", "fetch", "game"},
			"trick":   {"trick", "perform", "do a"},
			"sleepy":  {"sleep", "tired", "nap"},
			"praise":  {"good dog", "good boy", "good girl"},
			"scold":   {"bad dog", "no", "stop it"},
		},
		category: map[string]string{
			"greet":  "greeting_known_person",
			"play":   "bored_playful",
			"trick":  "goal_working_on",
			"sleepy": "tired_general",
			"praise": "affection_being_pet",
			"scold":  "response_bad_dog",
		},
	}
	return c
}

// Classify returns the matched intent key, or "" if none of the keyword
// sets match.
func (c *IntentClassifier) Classify(text string) string {
	lower := strings.ToLower(text)
	for intent, words := range c.keywords {
		for _, w := range words {
			if strings.Contains(lower, w) {
				return intent
			}
		}
	}
	return ""
}

// Category maps an intent key to its response category, or "" if unknown.
func (c *IntentClassifier) Category(intent string) string {
	return c.category[intent]
}
