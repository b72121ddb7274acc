package store

import (
	"time"

	"github.com/joeunion/pidog/internal/action"
)

// Category is the closed set of memory categories (spec §3).
type Category string

const (
	CategoryPerson      Category = "person"
	CategoryFact        Category = "fact"
	CategoryPreference  Category = "preference"
	CategoryExperience  Category = "experience"
	CategoryLocation    Category = "location"
	CategoryInteraction Category = "interaction"
)

var validCategories = map[Category]struct{}{
	CategoryPerson: {}, CategoryFact: {}, CategoryPreference: {},
	CategoryExperience: {}, CategoryLocation: {}, CategoryInteraction: {},
}

// ValidCategory reports whether c is a recognized memory category.
func ValidCategory(c Category) bool {
	_, ok := validCategories[c]
	return ok
}

// ClampImportance clamps v into [0, 1].
func ClampImportance(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Memory is a single content-addressed long-term memory record.
type Memory struct {
	ID           int64
	Category     Category
	Subject      string
	Content      string
	Importance   float64
	CreatedAt    time.Time
	LastAccessed time.Time
	AccessCount  int64
}

// GoalStatus is the closed set of goal lifecycle states.
type GoalStatus string

const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
	GoalAbandoned GoalStatus = "abandoned"
)

// Goal is a single pursued objective.
type Goal struct {
	ID          int64
	Description string
	Priority    int
	Status      GoalStatus
	Progress    string // opaque structured blob, stored as raw JSON text
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// ClampPriority clamps a goal priority into {1..5}.
func ClampPriority(p int) int {
	if p < 1 {
		return 1
	}
	if p > 5 {
		return 5
	}
	return p
}

// Trick is a named sequence of actions triggered by a phrase.
type Trick struct {
	Name           string
	TriggerPhrase  string
	Actions        []action.Token
	TimesPerformed int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Face is a recognized person's stored face encoding.
type Face struct {
	ID        int64
	Name      string
	Encoding  []float32
	ImageHash string
	TimesSeen int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Room is a named, previously-visited location.
type Room struct {
	Name         string
	Description  string
	Landmarks    []string
	ImageHash    string
	TimesVisited int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Conversation is an opaque recency-retained summary record.
type Conversation struct {
	ID        int64
	Summary   string
	CreatedAt time.Time
}

// ImportanceUpdate pairs a memory id with a new importance value for bulk
// updates.
type ImportanceUpdate struct {
	ID         int64
	Importance float64
}

// TrickRejection describes why learn_trick refused a trick definition.
type TrickRejection struct {
	Reason string
}

func (r *TrickRejection) Error() string { return r.Reason }
