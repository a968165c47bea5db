package model

import (
	"sort"
	"time"
)

// DaySchedule is one availability entry of a Service or Tour: a weekday plus
// an advisory time window. The weekday alone gates availability; start/end
// times are informational for the UI.
type DaySchedule struct {
	Weekday   string `json:"weekday"`   // Mon | Tue | Wed | Thu | Fri | Sat | Sun
	StartTime string `json:"startTime"` // HH:MM
	EndTime   string `json:"endTime"`   // HH:MM
}

// DaySchedules is persisted as a JSONB column via GORM's json serializer.
type DaySchedules []DaySchedule

// weekdayOrder maps schedule weekday names to a Monday-first ordinal.
var weekdayOrder = map[string]int{
	"Mon": 0, "Tue": 1, "Wed": 2, "Thu": 3, "Fri": 4, "Sat": 5, "Sun": 6,
}

// weekdayName converts time.Weekday to the schedule naming.
func weekdayName(d time.Weekday) string {
	return [...]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}[d]
}

// Sort orders entries chronologically: weekday (Monday first), then start time.
// Repositories call this before persisting availability.
func (s DaySchedules) Sort() {
	sort.SliceStable(s, func(i, j int) bool {
		wi, wj := weekdayOrder[s[i].Weekday], weekdayOrder[s[j].Weekday]
		if wi != wj {
			return wi < wj
		}
		return s[i].StartTime < s[j].StartTime
	})
}

// CoversDate reports whether the item is bookable on the given date.
// An empty availability list means the item has no weekday restriction.
// An entry with an empty time window still counts for its whole weekday.
func (s DaySchedules) CoversDate(date time.Time) bool {
	if len(s) == 0 {
		return true
	}
	name := weekdayName(date.Weekday())
	for _, e := range s {
		if e.Weekday == name {
			return true
		}
	}
	return false
}
