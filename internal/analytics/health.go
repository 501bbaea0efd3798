package analytics

import "github.com/gamewell/collector/internal/model"

// Rating buckets for the individual health dimensions.
const (
	RatingGood           = "good"
	RatingWatch          = "watch"
	RatingNeedsAttention = "needs_attention"
	RatingMinimal        = "minimal"
	RatingModerate       = "moderate"
	RatingConcerning     = "concerning"
	RatingLow            = "low"
	RatingVeryLow        = "very_low"
)

// HealthScore is the headline wellbeing signal: an overall 0-100 score plus
// a rating per dimension.
type HealthScore struct {
	Overall        int    `json:"overall"`
	SessionLength  string `json:"session_length"`
	BreakFrequency string `json:"break_frequency"`
	LateNightUsage string `json:"late_night_usage"`
	GameVariety    string `json:"game_variety"`
}

// Gaps of four hours or more are not breaks between sessions of the same
// streak; excluding them keeps multi-day gaps from inflating the average.
const maxBreakGapMinutes = 240

// When no gap qualifies there is nothing to average, so breaks are assumed
// neutral. Preserved as-is for score compatibility.
const defaultBreakMinutes = 60

// Health computes the healthy-gaming score. The score starts at 100 and each
// dimension deducts independently; the deductions are additive and the
// result is clamped to [0,100]. No sessions means no risk: the empty input
// scores a clean 100.
func Health(sessions []model.Session) HealthScore {
	score := HealthScore{
		Overall:        100,
		SessionLength:  RatingGood,
		BreakFrequency: RatingGood,
		LateNightUsage: RatingMinimal,
		GameVariety:    RatingGood,
	}
	if len(sessions) == 0 {
		return score
	}

	deduction := 0

	// Session length: average derived duration across all sessions.
	avgMinutes := float64(totalMinutes(sessions)) / float64(len(sessions))
	switch {
	case avgMinutes > 180:
		deduction += 25
		score.SessionLength = RatingNeedsAttention
	case avgMinutes > 120:
		deduction += 10
		score.SessionLength = RatingWatch
	}

	// Break frequency: average gap between adjacent sessions.
	avgBreak := averageBreakMinutes(sessions)
	switch {
	case avgBreak < 15:
		deduction += 20
		score.BreakFrequency = RatingNeedsAttention
	case avgBreak < 30:
		deduction += 10
		score.BreakFrequency = RatingWatch
	}

	// Late night: count of flagged sessions.
	lateNight := countLateNight(sessions)
	switch {
	case lateNight > 5:
		deduction += 25
		score.LateNightUsage = RatingConcerning
	case lateNight > 2:
		deduction += 10
		score.LateNightUsage = RatingModerate
	}

	// Game variety: distinct titles played.
	variety := len(minutesByGame(sessions))
	switch {
	case variety < 2:
		deduction += 20
		score.GameVariety = RatingVeryLow
	case variety < 3:
		deduction += 10
		score.GameVariety = RatingLow
	}

	score.Overall = 100 - deduction
	if score.Overall < 0 {
		score.Overall = 0
	}
	return score
}

// averageBreakMinutes averages the gap between each adjacent pair of
// sessions ordered by start time. Only gaps strictly between zero and four
// hours count; with no qualifying gap the default neutral value applies.
func averageBreakMinutes(sessions []model.Session) float64 {
	sorted := sortedByStart(sessions)

	var total float64
	qualifying := 0
	for i := 1; i < len(sorted); i++ {
		gap := sorted[i].StartedAt.Sub(endOf(sorted[i-1])).Minutes()
		if gap > 0 && gap < maxBreakGapMinutes {
			total += gap
			qualifying++
		}
	}

	if qualifying == 0 {
		return defaultBreakMinutes
	}
	return total / float64(qualifying)
}
