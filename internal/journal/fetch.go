package journal

import (
	"context"
	"database/sql"
	"strings"

	"github.com/memorio/memorio/internal/db"
	"github.com/memorio/memorio/internal/errors"
	"github.com/memorio/memorio/internal/memory"
)

// FetchInput contains parameters for the Fetch operation.
type FetchInput struct {
	ID string
}

// FetchOutput contains the result of the Fetch operation.
type FetchOutput struct {
	memory.Memory // embedded (copy, not pointer)
}

// Fetch retrieves a memory by ID.
func Fetch(ctx context.Context, database *sql.DB, input FetchInput) (*FetchOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	m, err := db.GetByID(ctx, database, id)
	if err != nil {
		return nil, err
	}

	return &FetchOutput{Memory: *m}, nil
}
