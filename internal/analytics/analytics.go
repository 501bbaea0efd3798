// Package analytics turns a set of session records into human-facing
// wellbeing signals. Every function is a pure transformation: same sessions
// (and, where a time window is involved, same now) always produce the same
// output, with no I/O and no dependence on call order.
package analytics

import (
	"sort"
	"time"

	"github.com/gamewell/collector/internal/model"
)

// endOf returns when a session stopped, falling back to start plus the
// derived duration for rows that predate the ended_at column.
func endOf(s model.Session) time.Time {
	if s.EndedAt != nil {
		return *s.EndedAt
	}
	return s.StartedAt.Add(time.Duration(s.DurationMinutes) * time.Minute)
}

// totalMinutes sums the derived durations across sessions.
func totalMinutes(sessions []model.Session) int {
	total := 0
	for _, s := range sessions {
		total += s.DurationMinutes
	}
	return total
}

// minutesByGame buckets derived duration per game name.
func minutesByGame(sessions []model.Session) map[string]int {
	byGame := make(map[string]int)
	for _, s := range sessions {
		byGame[s.GameName] += s.DurationMinutes
	}
	return byGame
}

// sortedByStart returns a copy ordered by start time so callers' slices are
// never mutated.
func sortedByStart(sessions []model.Session) []model.Session {
	sorted := make([]model.Session, len(sessions))
	copy(sorted, sessions)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].StartedAt.Before(sorted[j].StartedAt)
	})
	return sorted
}

func countLateNight(sessions []model.Session) int {
	n := 0
	for _, s := range sessions {
		if s.IsLateNight {
			n++
		}
	}
	return n
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
