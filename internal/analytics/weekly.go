package analytics

import (
	"fmt"
	"time"

	"github.com/gamewell/collector/internal/model"
)

// DayTotal aggregates one calendar day of the weekly overview.
type DayTotal struct {
	Date     string  `json:"date"`
	Weekday  string  `json:"weekday"`
	Hours    float64 `json:"hours"`
	Sessions int     `json:"sessions"`
}

// WeeklyOverview summarizes the trailing seven calendar days.
type WeeklyOverview struct {
	Days               []DayTotal `json:"days"`
	AverageHoursPerDay float64    `json:"average_hours_per_day"`
	WeekdayAvg         float64    `json:"weekday_avg"`
	WeekendAvg         float64    `json:"weekend_avg"`
	Insight            string     `json:"insight"`
}

// Weekly buckets sessions into the trailing 7 calendar days, today
// inclusive. A session is attributed to the day its start timestamp falls
// on; sessions are not split across midnight. Weekday and weekend averages
// divide by the nominal day count (5 and 2), never by the count of days
// that have data.
func Weekly(sessions []model.Session, now time.Time) WeeklyOverview {
	today := startOfDay(now)
	firstDay := today.AddDate(0, 0, -6)

	days := make([]DayTotal, 7)
	index := make(map[string]int, 7)
	for i := 0; i < 7; i++ {
		d := firstDay.AddDate(0, 0, i)
		key := d.Format("2006-01-02")
		days[i] = DayTotal{Date: key, Weekday: d.Weekday().String()}
		index[key] = i
	}

	for _, s := range sessions {
		key := s.StartedAt.In(now.Location()).Format("2006-01-02")
		i, ok := index[key]
		if !ok {
			continue
		}
		days[i].Hours += float64(s.DurationMinutes) / 60
		days[i].Sessions++
	}

	var total, weekdayHours, weekendHours float64
	for i, d := range days {
		total += d.Hours
		switch firstDay.AddDate(0, 0, i).Weekday() {
		case time.Saturday, time.Sunday:
			weekendHours += d.Hours
		default:
			weekdayHours += d.Hours
		}
	}

	overview := WeeklyOverview{
		Days:               days,
		AverageHoursPerDay: total / 7,
		WeekdayAvg:         weekdayHours / 5,
		WeekendAvg:         weekendHours / 2,
	}
	overview.Insight = weeklyInsight(overview)
	return overview
}

func weeklyInsight(o WeeklyOverview) string {
	var insight string
	switch {
	case o.AverageHoursPerDay < 2:
		insight = "Gaming time this week looks light and balanced."
	case o.AverageHoursPerDay < 4:
		insight = "Gaming time this week is moderate."
	default:
		insight = fmt.Sprintf("Gaming time is higher than usual at %.1f hours per day.", o.AverageHoursPerDay)
	}
	if o.WeekendAvg > o.WeekdayAvg*1.5 {
		insight += " Most play is concentrated on weekends."
	}
	return insight
}
