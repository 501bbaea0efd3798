package analytics

import "github.com/gamewell/collector/internal/model"

// Trend values for the late-night report.
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
)

// LateNightReport summarizes sessions flagged late-night.
type LateNightReport struct {
	SessionsAfter10PM int     `json:"sessions_after_10pm"`
	HoursAfter10PM    float64 `json:"hours_after_10pm"`
	Trend             string  `json:"trend"`
	Explanation       string  `json:"explanation"`
}

// LateNightGaming counts and sums late-night sessions. A trend needs a
// previous-period sample this function cannot compute itself: pass the
// prior period's report, or nil to accept the stable fallback.
func LateNightGaming(sessions []model.Session, previous *LateNightReport) LateNightReport {
	report := LateNightReport{Trend: TrendStable}
	for _, s := range sessions {
		if s.IsLateNight {
			report.SessionsAfter10PM++
			report.HoursAfter10PM += float64(s.DurationMinutes) / 60
		}
	}

	if previous != nil {
		switch {
		case report.SessionsAfter10PM > previous.SessionsAfter10PM:
			report.Trend = TrendIncreasing
		case report.SessionsAfter10PM < previous.SessionsAfter10PM:
			report.Trend = TrendDecreasing
		}
	}

	switch {
	case report.SessionsAfter10PM == 0:
		report.Explanation = "No late-night gaming in this period. Great sleep hygiene."
	case report.SessionsAfter10PM <= 2:
		report.Explanation = "A couple of late-night sessions. Nothing unusual, but worth keeping an eye on."
	case report.SessionsAfter10PM <= 4:
		report.Explanation = "Late-night gaming is becoming a habit. Consider moving play earlier in the evening."
	default:
		report.Explanation = "Frequent late-night gaming is likely cutting into sleep. A wind-down rule could help."
	}
	return report
}
