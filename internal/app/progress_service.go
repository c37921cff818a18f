package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"weightquest/internal/domain"
	"weightquest/internal/events"
)

var (
	// ErrInvalidWeight rejects weights outside the plausible range.
	ErrInvalidWeight = fmt.Errorf("weight must be between %d and %d lb", domain.MinWeight, domain.MaxWeight)
	// ErrInvalidGoal rejects goals outside (0, MaxGoal].
	ErrInvalidGoal = fmt.Errorf("goal must be greater than 0 and at most %d lb", domain.MaxGoal)
	// ErrInvalidUnit rejects units other than kg and lb.
	ErrInvalidUnit = errors.New(`unit must be "kg" or "lb"`)
	// ErrInvalidDate rejects dates not formatted as YYYY-MM-DD.
	ErrInvalidDate = errors.New("date must be formatted as YYYY-MM-DD")
	// ErrFutureDate rejects entries dated after today.
	ErrFutureDate = errors.New("date must not be in the future")
	// ErrGoalNotSet rejects weight entries before a goal exists.
	ErrGoalNotSet = errors.New("set a weight-loss goal before logging weight")
	// ErrGoalLocked rejects goal changes after the baseline is frozen.
	ErrGoalLocked = errors.New("goal cannot change once onboarding is complete")
)

// Dashboard is everything the presentation layer renders for one user.
type Dashboard struct {
	Progress        domain.UserProgress     `json:"progress"`
	Trend           domain.NullPounds       `json:"trend"`
	Thresholds      []domain.LevelThreshold `json:"thresholds"`
	ProgressPercent float64                 `json:"progressPercent"`
	PoundsRemaining domain.NullPounds       `json:"poundsRemaining"`
	PoundsLost      domain.NullPounds       `json:"poundsLost"`
	EntriesNeeded   int                     `json:"entriesNeeded"`
	LevelName       string                  `json:"levelName"`
	LevelMessage    string                  `json:"levelMessage"`
}

// BuildDashboard derives the presentation values from a record.
func BuildDashboard(p domain.UserProgress) Dashboard {
	trend := p.Trend()
	thresholds := p.Thresholds()
	if thresholds == nil {
		thresholds = []domain.LevelThreshold{}
	}

	d := Dashboard{
		Progress:        p,
		Trend:           trend,
		Thresholds:      thresholds,
		ProgressPercent: domain.ProgressToNextLevel(trend, thresholds, p.CurrentLevel),
		PoundsRemaining: domain.RemainingToNextLevel(trend, thresholds, p.CurrentLevel),
		EntriesNeeded:   max(0, domain.AverageWindow-len(p.Entries)),
		LevelName:       domain.LevelName(p.CurrentLevel),
		LevelMessage:    domain.LevelMessage(p.CurrentLevel),
	}
	if p.OnboardingComplete && trend.Valid {
		d.PoundsLost = domain.Pounds(p.StartingWeight - trend.Value)
	}
	return d
}

// ProgressService encapsulates the weight-progress use cases.
type ProgressService struct {
	store *ProgressStore
	bus   *events.Bus
	now   func() time.Time
}

// NewProgressService creates a ProgressService over store, publishing
// progress events on bus.
func NewProgressService(store *ProgressStore, bus *events.Bus) *ProgressService {
	return &ProgressService{store: store, bus: bus, now: time.Now}
}

// WithClock replaces the service's clock; used by tests.
func (s *ProgressService) WithClock(now func() time.Time) *ProgressService {
	s.now = now
	return s
}

// Subscribe calls fn with a fresh dashboard after every record write.
func (s *ProgressService) Subscribe(fn func(userID int64, d Dashboard)) func() {
	return s.store.Subscribe(func(userID int64, p domain.UserProgress) {
		fn(userID, BuildDashboard(p))
	})
}

// Dashboard returns the current dashboard for userID.
func (s *ProgressService) Dashboard(ctx context.Context, userID int64) Dashboard {
	return BuildDashboard(s.store.Read(ctx, userID))
}

// SetGoal stores the weight-loss goal in pounds. The goal is fixed once
// onboarding completes.
func (s *ProgressService) SetGoal(ctx context.Context, userID int64, goalPounds float64) (Dashboard, error) {
	if !(goalPounds > 0 && goalPounds <= domain.MaxGoal) {
		return Dashboard{}, ErrInvalidGoal
	}
	p, err := s.store.Update(ctx, userID, func(cur domain.UserProgress) (domain.UserProgress, error) {
		if cur.OnboardingComplete {
			return cur, ErrGoalLocked
		}
		cur.GoalPounds = goalPounds
		return cur, nil
	})
	if err != nil {
		return Dashboard{}, err
	}
	return BuildDashboard(p), nil
}

// RecordWeight validates and stores the weight for date (today when empty),
// overwriting any earlier entry for that date. It runs the onboarding gate
// and the leveling engine in the same update.
func (s *ProgressService) RecordWeight(ctx context.Context, userID int64, value float64, unit, date string) (Dashboard, error) {
	if unit == "" {
		unit = domain.UnitLB
	}
	if !domain.ValidUnit(unit) {
		return Dashboard{}, ErrInvalidUnit
	}
	pounds := domain.ToPounds(value, unit)
	if !(pounds >= domain.MinWeight && pounds <= domain.MaxWeight) {
		return Dashboard{}, ErrInvalidWeight
	}

	today := s.now().In(time.Local).Format(domain.DateLayout)
	if date == "" {
		date = today
	}
	if _, err := time.Parse(domain.DateLayout, date); err != nil {
		return Dashboard{}, ErrInvalidDate
	}
	if date > today {
		return Dashboard{}, ErrFutureDate
	}

	var (
		onboarded bool
		pending   int
	)
	p, err := s.store.Update(ctx, userID, func(cur domain.UserProgress) (domain.UserProgress, error) {
		if cur.GoalPounds <= 0 {
			return cur, ErrGoalNotSet
		}
		next := cur.WithEntry(date, pounds)
		next, onboarded = next.CompleteOnboarding()
		next, pending = next.EvaluateLevel()
		return next, nil
	})
	if err != nil {
		return Dashboard{}, err
	}

	s.publish(events.Event{Type: events.WeightRecorded, UserID: userID, Weight: pounds, Message: "weight recorded for " + date})
	if onboarded {
		s.publish(events.Event{
			Type:    events.OnboardingCompleted,
			UserID:  userID,
			Level:   p.CurrentLevel,
			Weight:  p.StartingWeight,
			Message: fmt.Sprintf("Baseline set at %.1f lb. %s", p.StartingWeight, domain.LevelMessage(1)),
		})
	}
	s.publishLevelAchieved(userID, pending)
	return BuildDashboard(p), nil
}

// ConfirmLevelUp applies a pending level-up. It is a no-op when nothing is
// pending.
func (s *ProgressService) ConfirmLevelUp(ctx context.Context, userID int64) Dashboard {
	var confirmed bool
	p, _ := s.store.Update(ctx, userID, func(cur domain.UserProgress) (domain.UserProgress, error) {
		if cur.LevelUpPending == nil {
			return cur, errUnchanged
		}
		confirmed = true
		return cur.ConfirmLevelUp(), nil
	})
	if confirmed {
		s.publish(events.Event{
			Type:    events.LevelConfirmed,
			UserID:  userID,
			Level:   p.CurrentLevel,
			Message: fmt.Sprintf("Level %d %s confirmed", p.CurrentLevel, domain.LevelName(p.CurrentLevel)),
		})
	}
	return BuildDashboard(p)
}

// Reset replaces the record with the defaults.
func (s *ProgressService) Reset(ctx context.Context, userID int64) Dashboard {
	p := domain.DefaultProgress()
	s.store.Write(ctx, userID, p)
	s.publish(events.Event{Type: events.ProgressReset, UserID: userID, Message: "progress reset"})
	return BuildDashboard(p)
}

// SeedDemo replaces the record with two weeks of synthetic data ending today:
// roughly 0.3 lb lost per day from 200 lb with daily noise, a 30 lb goal and
// onboarding already complete.
func (s *ProgressService) SeedDemo(ctx context.Context, userID int64) Dashboard {
	const (
		days        = 14
		startWeight = 200.0
		dailyLoss   = 0.3
		noise       = 1.5
	)

	today := s.now().In(time.Local)
	p := domain.DefaultProgress()
	p.GoalPounds = 30
	p.StartingWeight = startWeight
	p.OnboardingComplete = true
	for i := days - 1; i >= 0; i-- {
		date := today.AddDate(0, 0, -i).Format(domain.DateLayout)
		base := startWeight - float64(days-1-i)*dailyLoss
		p = p.WithEntry(date, roundTenth(base+(rand.Float64()-0.5)*noise))
	}

	var pending int
	p, _ = s.store.Update(ctx, userID, func(domain.UserProgress) (domain.UserProgress, error) {
		var next domain.UserProgress
		next, pending = p.EvaluateLevel()
		return next, nil
	})
	s.publishLevelAchieved(userID, pending)
	return BuildDashboard(p)
}

// AdjustWeights shifts every entry by amount pounds and re-runs the leveling
// engine, which lets the trend be moved across thresholds by hand.
func (s *ProgressService) AdjustWeights(ctx context.Context, userID int64, amount float64) Dashboard {
	var pending int
	p, _ := s.store.Update(ctx, userID, func(cur domain.UserProgress) (domain.UserProgress, error) {
		if len(cur.Entries) == 0 {
			return cur, errUnchanged
		}
		for i := range cur.Entries {
			cur.Entries[i].Weight = roundTenth(cur.Entries[i].Weight + amount)
		}
		cur, pending = cur.EvaluateLevel()
		return cur, nil
	})
	s.publishLevelAchieved(userID, pending)
	return BuildDashboard(p)
}

func (s *ProgressService) publishLevelAchieved(userID int64, level int) {
	if level == 0 {
		return
	}
	s.publish(events.Event{
		Type:    events.LevelAchieved,
		UserID:  userID,
		Level:   level,
		Message: fmt.Sprintf("Level up! Level %d %s: %s", level, domain.LevelName(level), domain.LevelMessage(level)),
	})
}

func (s *ProgressService) publish(e events.Event) {
	if s.bus != nil {
		s.bus.Publish(e)
	}
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
