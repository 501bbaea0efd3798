package analytics

import (
	"sort"

	"github.com/gamewell/collector/internal/model"
)

// CategoryShare is one slice of the category breakdown.
type CategoryShare struct {
	Category   model.Category `json:"category"`
	Hours      float64        `json:"hours"`
	Percentage float64        `json:"percentage"`
}

// CategoryBreakdown sums play time per category and converts it to hours
// and a share of the total. Categories with zero time are dropped and the
// result is sorted by hours descending. Empty input (or all-zero durations)
// returns an empty slice rather than dividing by zero.
func CategoryBreakdown(sessions []model.Session) []CategoryShare {
	minutes := make(map[model.Category]int)
	total := 0
	for _, s := range sessions {
		minutes[s.Category] += s.DurationMinutes
		total += s.DurationMinutes
	}
	if total == 0 {
		return []CategoryShare{}
	}

	shares := make([]CategoryShare, 0, len(minutes))
	for _, cat := range model.Categories {
		m := minutes[cat]
		if m == 0 {
			continue
		}
		shares = append(shares, CategoryShare{
			Category:   cat,
			Hours:      float64(m) / 60,
			Percentage: float64(m) / float64(total) * 100,
		})
	}

	sort.SliceStable(shares, func(i, j int) bool {
		return shares[i].Hours > shares[j].Hours
	})
	return shares
}

// Dominance describes the single game with the largest share of play time.
type Dominance struct {
	GameName   string  `json:"game_name"`
	Percentage float64 `json:"percentage"`
	Hours      float64 `json:"hours"`
	TotalHours float64 `json:"total_hours"`
}

// GameDominance finds the game with the most play time. Nil only for empty
// input. Ties resolve to the lexicographically smallest game name so the
// result is deterministic regardless of input order.
func GameDominance(sessions []model.Session) *Dominance {
	if len(sessions) == 0 {
		return nil
	}

	byGame := minutesByGame(sessions)
	total := totalMinutes(sessions)

	var topName string
	topMinutes := -1
	for name, m := range byGame {
		if m > topMinutes || (m == topMinutes && name < topName) {
			topName = name
			topMinutes = m
		}
	}

	dom := &Dominance{
		GameName:   topName,
		Hours:      float64(topMinutes) / 60,
		TotalHours: float64(total) / 60,
	}
	if total > 0 {
		dom.Percentage = float64(topMinutes) / float64(total) * 100
	}
	return dom
}
