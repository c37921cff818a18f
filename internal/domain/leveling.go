package domain

// LevelThreshold is the trend value at or below which Level is reached.
type LevelThreshold struct {
	Level           int     `json:"level"`
	WeightThreshold float64 `json:"weightThreshold"`
}

// Level names and messages shown for each tier.
var (
	levelNames = map[int]string{
		1: "Novice",
		2: "Apprentice",
		3: "Warrior",
		4: "Champion",
		5: "Legend",
	}
	levelMessages = map[int]string{
		1: "Your journey begins!",
		2: "You are making great progress!",
		3: "Halfway to your goal!",
		4: "Almost there, champion!",
		5: "You have achieved legendary status!",
	}
)

// LevelName returns the display name of a level, falling back to level 1.
func LevelName(level int) string {
	if n, ok := levelNames[level]; ok {
		return n
	}
	return levelNames[1]
}

// LevelMessage returns the celebration message of a level, falling back to
// level 1.
func LevelMessage(level int) string {
	if m, ok := levelMessages[level]; ok {
		return m
	}
	return levelMessages[1]
}

// LevelThresholds spaces totalLevels thresholds below startingWeight in equal
// steps of goalPounds/totalLevels, level 1 sitting at the baseline itself.
func LevelThresholds(goalPounds, startingWeight float64, totalLevels int) []LevelThreshold {
	if totalLevels < 1 {
		return nil
	}
	perLevel := goalPounds / float64(totalLevels)
	out := make([]LevelThreshold, 0, totalLevels)
	for level := 1; level <= totalLevels; level++ {
		out = append(out, LevelThreshold{
			Level:           level,
			WeightThreshold: startingWeight - perLevel*float64(level-1),
		})
	}
	return out
}

// DetermineLevel returns the highest level whose threshold the trend is at or
// below, never less than currentLevel. Without a trend or thresholds it
// returns currentLevel unchanged.
func DetermineLevel(trend NullPounds, thresholds []LevelThreshold, currentLevel int) int {
	if !trend.Valid || len(thresholds) == 0 {
		return currentLevel
	}
	achieved := 1
	for _, t := range thresholds {
		if trend.Value <= t.WeightThreshold && t.Level > achieved {
			achieved = t.Level
		}
	}
	return max(achieved, currentLevel)
}

// CheckLevelUp reports whether newLevel advances past currentLevel.
func CheckLevelUp(currentLevel, newLevel int) bool {
	return newLevel > currentLevel
}

// ProgressToNextLevel returns how far, in percent, the trend has moved from
// the current level's threshold toward the next one. The result is always
// within [0, 100]; a zero-width range counts as complete.
func ProgressToNextLevel(trend NullPounds, thresholds []LevelThreshold, currentLevel int) float64 {
	if currentLevel >= TotalLevels {
		return 100
	}
	if !trend.Valid {
		return 0
	}
	cur, ok := thresholdOf(thresholds, currentLevel)
	if !ok {
		return 0
	}
	next, ok := thresholdOf(thresholds, currentLevel+1)
	if !ok {
		return 0
	}
	totalRange := cur - next
	if totalRange <= 0 {
		return 100
	}
	progress := (cur - trend.Value) / totalRange * 100
	return min(100, max(0, progress))
}

// RemainingToNextLevel returns the pounds still to lose before the next level,
// floored at zero. It is null at the max level or without a trend.
func RemainingToNextLevel(trend NullPounds, thresholds []LevelThreshold, currentLevel int) NullPounds {
	if !trend.Valid || currentLevel >= TotalLevels {
		return NullPounds{}
	}
	next, ok := thresholdOf(thresholds, currentLevel+1)
	if !ok {
		return NullPounds{}
	}
	return Pounds(max(0, trend.Value-next))
}

func thresholdOf(thresholds []LevelThreshold, level int) (float64, bool) {
	for _, t := range thresholds {
		if t.Level == level {
			return t.WeightThreshold, true
		}
	}
	return 0, false
}
