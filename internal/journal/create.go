package journal

import (
	"context"
	"crypto/rand"
	"database/sql"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/memorio/memorio/internal/db"
	"github.com/memorio/memorio/internal/errors"
	"github.com/memorio/memorio/internal/memory"
)

// CreateInput contains parameters for the Create operation.
type CreateInput struct {
	Kind    memory.Kind
	Date    *int64  // optional, defaults to now
	Title   *string // optional
	Content *string // required for text and activity memories
	Data    []byte  // JSON payload, required for structured kinds
}

// CreateOutput contains the result of the Create operation.
type CreateOutput struct {
	ID   string `json:"id"`
	Date int64  `json:"date"`
}

// Create validates and persists a new memory.
func Create(ctx context.Context, database *sql.DB, input CreateInput) (*CreateOutput, error) {
	if !input.Kind.Valid() {
		return nil, errors.NewInvalidRequest("unknown memory kind")
	}

	if err := validatePayload(input); err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	date := now
	if input.Date != nil {
		date = *input.Date
	}

	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	m := &memory.Memory{
		ID:        id,
		Date:      date,
		Kind:      input.Kind,
		Title:     cleanOptionalString(input.Title),
		Content:   cleanOptionalString(input.Content),
		Data:      input.Data,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := db.Insert(ctx, database, m); err != nil {
		return nil, err
	}

	return &CreateOutput{ID: id, Date: date}, nil
}

// validatePayload checks the per-kind content/payload requirements.
func validatePayload(input CreateInput) error {
	switch input.Kind {
	case memory.KindText:
		if input.Content == nil || strings.TrimSpace(*input.Content) == "" {
			return errors.NewInvalidRequest("text memory requires content")
		}
	case memory.KindActivity:
		if input.Content == nil || strings.TrimSpace(*input.Content) == "" {
			return errors.NewInvalidRequest("activity memory requires content")
		}
	case memory.KindFeeling:
		if _, err := memory.DecodeFeelingPayload(input.Data); err != nil {
			return errors.NewInvalidRequest(err.Error())
		}
	case memory.KindLocation:
		if _, err := memory.DecodeLocationPayload(input.Data); err != nil {
			return errors.NewInvalidRequest(err.Error())
		}
	case memory.KindMedia:
		if _, err := memory.DecodeMediaPayload(input.Data); err != nil {
			return errors.NewInvalidRequest(err.Error())
		}
	case memory.KindWeather:
		if _, err := memory.DecodeWeatherPayload(input.Data); err != nil {
			return errors.NewInvalidRequest(err.Error())
		}
	}
	return nil
}

// generateULID generates a new ULID.
func generateULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// cleanOptionalString trims an optional string, returning nil if empty.
func cleanOptionalString(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
