package journal

import (
	"context"
	"database/sql"
	"time"

	"github.com/memorio/memorio/internal/db"
	"github.com/memorio/memorio/internal/errors"
	"github.com/memorio/memorio/internal/memory"
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	// Day restricts the listing to one calendar day (any time within it).
	Day *time.Time

	// From/To restrict the listing to [From, To). Ignored when Day is set.
	From *time.Time
	To   *time.Time

	Limit  int
	Offset int

	// Location is the timezone used for day bucketing; defaults to time.Local.
	Location *time.Location
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items      []*memory.Memory `json:"items"`
	Pagination Pagination       `json:"pagination"`
}

// List returns memories newest-first, optionally restricted to a day or range.
func List(ctx context.Context, database *sql.DB, input ListInput) (*ListOutput, error) {
	loc := input.Location
	if loc == nil {
		loc = time.Local
	}
	limit := clampLimit(input.Limit)
	offset := input.Offset
	if offset < 0 {
		return nil, errors.NewInvalidRequest("offset must be non-negative")
	}

	var items []*memory.Memory
	var total int
	var err error

	switch {
	case input.Day != nil:
		from, to := dayBounds(*input.Day, loc)
		items, err = db.ListBetween(ctx, database, from, to, limit, offset)
		if err != nil {
			return nil, err
		}
		total, err = db.CountBetween(ctx, database, from, to)
	case input.From != nil && input.To != nil:
		from, to := input.From.Unix(), input.To.Unix()
		if to <= from {
			return nil, errors.NewInvalidRequest("to must be after from")
		}
		items, err = db.ListBetween(ctx, database, from, to, limit, offset)
		if err != nil {
			return nil, err
		}
		total, err = db.CountBetween(ctx, database, from, to)
	default:
		items, err = db.ListAll(ctx, database, limit, offset)
		if err != nil {
			return nil, err
		}
		total, err = db.CountAll(ctx, database)
	}
	if err != nil {
		return nil, err
	}

	return &ListOutput{
		Items: items,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(items) < total,
			Total:   total,
		},
	}, nil
}

// CalendarInput contains parameters for the Calendar operation.
type CalendarInput struct {
	From     time.Time
	To       time.Time
	Location *time.Location
}

// CalendarOutput contains the result of the Calendar operation.
type CalendarOutput struct {
	Days []CalendarDay `json:"days"`
}

// Calendar groups memories in [From, To) by calendar day, newest day first.
func Calendar(ctx context.Context, database *sql.DB, input CalendarInput) (*CalendarOutput, error) {
	loc := input.Location
	if loc == nil {
		loc = time.Local
	}
	if !input.To.After(input.From) {
		return nil, errors.NewInvalidRequest("to must be after from")
	}

	items, err := db.ListBetween(ctx, database, input.From.Unix(), input.To.Unix(), MaxListLimit, 0)
	if err != nil {
		return nil, err
	}

	return &CalendarOutput{Days: groupByDay(items, loc)}, nil
}
