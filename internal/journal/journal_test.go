package journal

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/memorio/memorio/internal/db"
	"github.com/memorio/memorio/internal/memory"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func strPtr(s string) *string { return &s }

// createText inserts a text memory on the given day and returns its ID.
func createText(t *testing.T, database *sql.DB, date time.Time, content string) string {
	t.Helper()
	unix := date.Unix()
	out, err := Create(context.Background(), database, CreateInput{
		Kind:    memory.KindText,
		Date:    &unix,
		Content: strPtr(content),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return out.ID
}

func TestDayBounds(t *testing.T) {
	loc := time.UTC
	at := time.Date(2026, 3, 15, 17, 42, 9, 0, loc)

	from, to := dayBounds(at, loc)
	wantFrom := time.Date(2026, 3, 15, 0, 0, 0, 0, loc).Unix()
	wantTo := time.Date(2026, 3, 16, 0, 0, 0, 0, loc).Unix()

	if from != wantFrom {
		t.Errorf("from = %d, want %d", from, wantFrom)
	}
	if to != wantTo {
		t.Errorf("to = %d, want %d", to, wantTo)
	}
}

func TestGroupByDay(t *testing.T) {
	loc := time.UTC
	day1 := time.Date(2026, 3, 15, 0, 0, 0, 0, loc)
	day2 := time.Date(2026, 3, 14, 0, 0, 0, 0, loc)

	// Newest-first input: two on day1 (different times), one on day2
	memories := []*memory.Memory{
		{ID: "c", Date: day1.Add(20 * time.Hour).Unix()},
		{ID: "b", Date: day1.Add(8 * time.Hour).Unix()},
		{ID: "a", Date: day2.Add(12 * time.Hour).Unix()},
	}

	days := groupByDay(memories, loc)
	if len(days) != 2 {
		t.Fatalf("got %d days, want 2", len(days))
	}
	if !days[0].Date.Equal(day1) {
		t.Errorf("first day = %v, want %v", days[0].Date, day1)
	}
	if len(days[0].Memories) != 2 {
		t.Errorf("first day has %d memories, want 2", len(days[0].Memories))
	}
	if len(days[1].Memories) != 1 {
		t.Errorf("second day has %d memories, want 1", len(days[1].Memories))
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{0, DefaultListLimit},
		{-5, DefaultListLimit},
		{25, 25},
		{MaxListLimit, MaxListLimit},
		{MaxListLimit + 1, MaxListLimit},
	}
	for _, tt := range tests {
		if got := clampLimit(tt.in); got != tt.want {
			t.Errorf("clampLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
