package journal

import (
	"context"
	"database/sql"
	"time"

	"github.com/memorio/memorio/internal/db"
)

// RewindOffset describes one of the significant lookback distances.
type RewindOffset struct {
	Label  string
	Years  int
	Months int
	Days   int
}

// RewindOffsets lists the lookback distances, nearest first.
var RewindOffsets = []RewindOffset{
	{Label: "a week ago", Days: -7},
	{Label: "two weeks ago", Days: -14},
	{Label: "a month ago", Months: -1},
	{Label: "two months ago", Months: -2},
	{Label: "three months ago", Months: -3},
	{Label: "six months ago", Months: -6},
	{Label: "a year ago", Years: -1},
	{Label: "two years ago", Years: -2},
	{Label: "100 days ago", Days: -100},
	{Label: "123 days ago", Days: -123},
}

// RewindInput contains parameters for the Rewind operation.
type RewindInput struct {
	// Now anchors the lookback; defaults to time.Now().
	Now      *time.Time
	Location *time.Location
}

// RewindItem is one occupied lookback day.
type RewindItem struct {
	Label string      `json:"label"`
	Day   CalendarDay `json:"day"`
}

// RewindOutput contains the result of the Rewind operation.
type RewindOutput struct {
	Items []RewindItem `json:"items"`
}

// Rewind returns, for each significant offset, the memories recorded on that
// day. Offsets whose day holds no memories are omitted.
func Rewind(ctx context.Context, database *sql.DB, input RewindInput) (*RewindOutput, error) {
	loc := input.Location
	if loc == nil {
		loc = time.Local
	}
	now := time.Now()
	if input.Now != nil {
		now = *input.Now
	}

	items := make([]RewindItem, 0)
	for _, offset := range RewindOffsets {
		target := now.In(loc).AddDate(offset.Years, offset.Months, offset.Days)
		from, to := dayBounds(target, loc)

		memories, err := db.ListBetween(ctx, database, from, to, MaxListLimit, 0)
		if err != nil {
			return nil, err
		}
		if len(memories) == 0 {
			continue
		}

		items = append(items, RewindItem{
			Label: offset.Label,
			Day: CalendarDay{
				Date:     time.Unix(from, 0).In(loc),
				Memories: memories,
			},
		})
	}

	return &RewindOutput{Items: items}, nil
}
