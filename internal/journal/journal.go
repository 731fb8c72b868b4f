// Package journal implements the operations over stored memories:
// create, fetch, list, delete, calendar grouping, rewind, and export.
package journal

import (
	"time"

	"github.com/memorio/memorio/internal/memory"
)

// Pagination limits
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// CalendarDay groups the memories recorded on one calendar day.
type CalendarDay struct {
	Date     time.Time        `json:"date"`
	Memories []*memory.Memory `json:"memories"`
}

// dayBounds returns the [start, end) Unix bounds of the day containing t in loc.
func dayBounds(t time.Time, loc *time.Location) (int64, int64) {
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start.Unix(), start.AddDate(0, 0, 1).Unix()
}

// groupByDay buckets memories (assumed newest-first) into calendar days.
func groupByDay(memories []*memory.Memory, loc *time.Location) []CalendarDay {
	days := make([]CalendarDay, 0)
	for _, m := range memories {
		date := time.Unix(m.Date, 0).In(loc)
		day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)

		if n := len(days); n > 0 && days[n-1].Date.Equal(day) {
			days[n-1].Memories = append(days[n-1].Memories, m)
			continue
		}
		days = append(days, CalendarDay{Date: day, Memories: []*memory.Memory{m}})
	}
	return days
}

// clampLimit applies the default and maximum list limits.
func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
