package events

import "time"

// EventType identifies the kind of event being published.
type EventType string

const (
	// WeightRecorded fires after every accepted weight submission.
	WeightRecorded EventType = "weight_recorded"
	// OnboardingCompleted fires once, when the baseline is frozen.
	OnboardingCompleted EventType = "onboarding_completed"
	// LevelAchieved fires when the engine marks a new pending level.
	LevelAchieved EventType = "level_achieved"
	// LevelConfirmed fires when a pending level is acknowledged.
	LevelConfirmed EventType = "level_confirmed"
	// ProgressReset fires after a full record reset.
	ProgressReset EventType = "progress_reset"
)

// Event is the payload published through the bus.
type Event struct {
	Type      EventType `json:"type"`
	UserID    int64     `json:"userId"`
	Level     int       `json:"level,omitempty"`
	Weight    float64   `json:"weight,omitempty"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
