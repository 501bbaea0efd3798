package analytics

import (
	"fmt"
	"time"

	"github.com/gamewell/collector/internal/model"
)

// RiskLevel orders burnout risk from low to high.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// BurnoutRisk describes how close current play patterns look to burnout.
type BurnoutRisk struct {
	Level       RiskLevel `json:"level"`
	Factors     []string  `json:"factors"`
	Explanation string    `json:"explanation"`
}

const (
	marathonSessionMinutes = 180
	dominanceThresholdPct  = 80
)

var burnoutExplanations = map[RiskLevel]string{
	RiskLow:    "Current gaming patterns look sustainable. Keep an eye on late-night play.",
	RiskMedium: "Some gaming patterns are trending toward overuse. Consider agreeing on session limits together.",
	RiskHigh:   "Several signals point to unhealthy gaming intensity. This is a good moment for a conversation about balance.",
}

// Burnout evaluates burnout risk over the given sessions. Risk only ever
// escalates within one evaluation: once a condition raises the level it is
// never downgraded by a later one. The daily-hours factor looks at a fixed
// seven-day window ending at now; the remaining factors consider every
// session supplied.
func Burnout(sessions []model.Session, now time.Time) BurnoutRisk {
	risk := BurnoutRisk{Level: RiskLow, Factors: []string{}}

	// Average daily hours over the trailing 7 days.
	windowStart := now.AddDate(0, 0, -7)
	windowMinutes := 0
	for _, s := range sessions {
		if !s.StartedAt.Before(windowStart) && !s.StartedAt.After(now) {
			windowMinutes += s.DurationMinutes
		}
	}
	avgDailyHours := float64(windowMinutes) / 60 / 7
	switch {
	case avgDailyHours > 6:
		risk.Level = RiskHigh
		risk.Factors = append(risk.Factors, fmt.Sprintf("Averaging %.1f hours of gaming per day this week", avgDailyHours))
	case avgDailyHours > 4:
		risk.Level = RiskMedium
		risk.Factors = append(risk.Factors, fmt.Sprintf("Averaging %.1f hours of gaming per day this week", avgDailyHours))
	}

	// Marathon sessions.
	marathons := 0
	for _, s := range sessions {
		if s.DurationMinutes > marathonSessionMinutes {
			marathons++
		}
	}
	if marathons > 3 {
		risk.Level = escalate(risk.Level)
		risk.Factors = append(risk.Factors, fmt.Sprintf("%d sessions longer than 3 hours", marathons))
	}

	// Late-night sessions.
	if lateNight := countLateNight(sessions); lateNight > 4 {
		risk.Level = escalate(risk.Level)
		risk.Factors = append(risk.Factors, fmt.Sprintf("%d late-night sessions", lateNight))
	}

	// Single-game dominance raises low to medium but never forces high on
	// its own.
	if dom := GameDominance(sessions); dom != nil && dom.Percentage > dominanceThresholdPct {
		if risk.Level == RiskLow {
			risk.Level = RiskMedium
		}
		risk.Factors = append(risk.Factors, fmt.Sprintf("%s accounts for %.0f%% of all play time", dom.GameName, dom.Percentage))
	}

	risk.Explanation = burnoutExplanations[risk.Level]
	return risk
}

// escalate bumps the level one step: low becomes medium, medium becomes
// high, high stays high.
func escalate(level RiskLevel) RiskLevel {
	switch level {
	case RiskLow:
		return RiskMedium
	case RiskMedium:
		return RiskHigh
	default:
		return RiskHigh
	}
}
