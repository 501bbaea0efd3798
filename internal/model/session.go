package model

import "time"

// Category classifies what kind of game a session belongs to.
type Category string

const (
	CategoryCompetitive Category = "competitive"
	CategoryCreative    Category = "creative"
	CategoryCasual      Category = "casual"
	CategorySocial      Category = "social"
	CategoryUnknown     Category = "unknown"
)

// Categories lists every known category in display order.
var Categories = []Category{
	CategoryCompetitive,
	CategoryCreative,
	CategoryCasual,
	CategorySocial,
	CategoryUnknown,
}

// ParseCategory maps a string to a Category, falling back to unknown.
func ParseCategory(s string) Category {
	switch Category(s) {
	case CategoryCompetitive, CategoryCreative, CategoryCasual, CategorySocial:
		return Category(s)
	default:
		return CategoryUnknown
	}
}

// Session is one contiguous interval of game activity. EndedAt is nil while
// the game is still running. DurationMinutes is derived when the session
// closes; the remote service recomputes it authoritatively and the value
// here is only used for local analytics.
type Session struct {
	ID              int64      `json:"id"`
	GameName        string     `json:"game_name"`
	GameExecutable  string     `json:"game_executable"`
	Category        Category   `json:"category"`
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at"`
	DurationMinutes int        `json:"duration_minutes"`
	IsLateNight     bool       `json:"is_late_night"`
	IsSynced        bool       `json:"is_synced"`
	SyncedAt        *time.Time `json:"synced_at"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Active reports whether the session is still open.
func (s *Session) Active() bool {
	return s.EndedAt == nil
}

// DefaultLateNightHour is the local hour at which gaming counts as late-night.
const DefaultLateNightHour = 22

// IsLateNight reports whether any material portion (at least one minute) of
// [start, end) falls at or after lateHour on any calendar day the interval
// touches. A session that runs past midnight is judged against the late
// window of the day it started in as well as each day it spans.
func IsLateNight(start, end time.Time, lateHour int) bool {
	if !end.After(start) {
		return start.Hour() >= lateHour
	}

	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	for !day.After(end) {
		windowStart := day.Add(time.Duration(lateHour) * time.Hour)
		windowEnd := day.Add(24 * time.Hour)

		overlapStart := maxTime(start, windowStart)
		overlapEnd := minTime(end, windowEnd)
		if overlapEnd.Sub(overlapStart) >= time.Minute {
			return true
		}
		day = day.Add(24 * time.Hour)
	}
	return false
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
