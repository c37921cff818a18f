package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

const (
	// AverageWindow is the number of most recent entries in the trend average.
	AverageWindow = 7
	// TotalLevels is the fixed number of tiers in the progression.
	TotalLevels = 5

	// MinWeight and MaxWeight bound a plausible weight in pounds.
	MinWeight = 50
	MaxWeight = 700
	// MaxGoal bounds the weight-loss goal in pounds.
	MaxGoal = 200

	// SchemaVersion is written into every persisted record.
	SchemaVersion = 1

	// DateLayout is the ISO-8601 calendar date format of WeightEntry.Date.
	DateLayout = "2006-01-02"
)

// ErrCorruptRecord is returned by DecodeProgress for data that cannot be
// turned into a valid UserProgress.
var ErrCorruptRecord = errors.New("corrupt progress record")

// WeightEntry is a single daily weight observation in pounds.
type WeightEntry struct {
	Date   string  `json:"date"`
	Weight float64 `json:"weight"`
}

// UserProgress is the persisted aggregate for one user.
type UserProgress struct {
	SchemaVersion      int           `json:"schemaVersion"`
	GoalPounds         float64       `json:"goalPounds"`
	StartingWeight     float64       `json:"startingWeight"`
	Entries            []WeightEntry `json:"entries"`
	CurrentLevel       int           `json:"currentLevel"`
	OnboardingComplete bool          `json:"onboardingComplete"`
	LevelUpPending     *int          `json:"levelUpPending"`
}

// ProgressRepository is the port for progress persistence. Records are opaque
// blobs produced by EncodeProgress.
type ProgressRepository interface {
	// LoadProgress returns nil, nil when nothing is stored for the user.
	LoadProgress(ctx context.Context, userID int64) ([]byte, error)
	SaveProgress(ctx context.Context, userID int64, blob []byte) error
}

// DefaultProgress returns the record every user starts with.
func DefaultProgress() UserProgress {
	return UserProgress{
		SchemaVersion: SchemaVersion,
		Entries:       []WeightEntry{},
		CurrentLevel:  1,
	}
}

// Clone returns a deep copy so callers can modify the result freely.
func (p UserProgress) Clone() UserProgress {
	out := p
	out.Entries = slices.Clone(p.Entries)
	if out.Entries == nil {
		out.Entries = []WeightEntry{}
	}
	if p.LevelUpPending != nil {
		lvl := *p.LevelUpPending
		out.LevelUpPending = &lvl
	}
	return out
}

// WithEntry inserts the entry for date, or overwrites the weight when an entry
// for that date already exists. Entries stay sorted by date.
func (p UserProgress) WithEntry(date string, weight float64) UserProgress {
	out := p.Clone()
	if i := slices.IndexFunc(out.Entries, func(e WeightEntry) bool { return e.Date == date }); i >= 0 {
		out.Entries[i].Weight = weight
	} else {
		out.Entries = append(out.Entries, WeightEntry{Date: date, Weight: weight})
	}
	out.Entries = SortEntries(out.Entries)
	return out
}

// Trend is the full-window running average of the record's entries.
func (p UserProgress) Trend() NullPounds {
	return RunningAverage(p.Entries, AverageWindow)
}

// Thresholds returns the level thresholds derived from the frozen baseline,
// or nil while onboarding is still in progress.
func (p UserProgress) Thresholds() []LevelThreshold {
	if !p.OnboardingComplete {
		return nil
	}
	return LevelThresholds(p.GoalPounds, p.StartingWeight, TotalLevels)
}

// CompleteOnboarding freezes the baseline the first time the record holds a
// full averaging window. It reports whether the gate fired.
func (p UserProgress) CompleteOnboarding() (UserProgress, bool) {
	if p.OnboardingComplete || len(p.Entries) < AverageWindow {
		return p, false
	}
	avg := p.Trend()
	if !avg.Valid {
		return p, false
	}
	out := p.Clone()
	out.StartingWeight = avg.Value
	out.OnboardingComplete = true
	return out, true
}

// EvaluateLevel runs the leveling engine against the current trend and marks
// the computed level pending whenever it exceeds the confirmed one, replacing
// any earlier pending level, higher or lower. It reports the pending level
// when it changed, or 0.
func (p UserProgress) EvaluateLevel() (UserProgress, int) {
	if !p.OnboardingComplete {
		return p, 0
	}
	next := DetermineLevel(p.Trend(), p.Thresholds(), p.CurrentLevel)
	if !CheckLevelUp(p.CurrentLevel, next) {
		return p, 0
	}
	if p.LevelUpPending != nil && *p.LevelUpPending == next {
		return p, 0
	}
	out := p.Clone()
	out.LevelUpPending = &next
	return out, next
}

// ConfirmLevelUp moves a pending level into CurrentLevel. It is a no-op when
// nothing is pending.
func (p UserProgress) ConfirmLevelUp() UserProgress {
	if p.LevelUpPending == nil {
		return p
	}
	out := p.Clone()
	out.CurrentLevel = *p.LevelUpPending
	out.LevelUpPending = nil
	return out
}

// EncodeProgress serializes a record for a ProgressRepository.
func EncodeProgress(p UserProgress) ([]byte, error) {
	p.SchemaVersion = SchemaVersion
	if p.Entries == nil {
		p.Entries = []WeightEntry{}
	}
	return json.Marshal(p)
}

// DecodeProgress parses a stored record. Records written before versioning
// (schemaVersion 0) are read as version 1.
func DecodeProgress(blob []byte) (UserProgress, error) {
	var p UserProgress
	if err := json.Unmarshal(blob, &p); err != nil {
		return DefaultProgress(), fmt.Errorf("%w: %w", ErrCorruptRecord, err)
	}
	if p.SchemaVersion > SchemaVersion {
		return DefaultProgress(), fmt.Errorf("%w: unsupported schema version %d", ErrCorruptRecord, p.SchemaVersion)
	}
	if p.CurrentLevel < 1 || p.CurrentLevel > TotalLevels {
		return DefaultProgress(), fmt.Errorf("%w: level %d out of range", ErrCorruptRecord, p.CurrentLevel)
	}
	if p.LevelUpPending != nil && (*p.LevelUpPending <= p.CurrentLevel || *p.LevelUpPending > TotalLevels) {
		p.LevelUpPending = nil
	}
	p.SchemaVersion = SchemaVersion
	if p.Entries == nil {
		p.Entries = []WeightEntry{}
	}
	p.Entries = SortEntries(p.Entries)
	return p, nil
}
