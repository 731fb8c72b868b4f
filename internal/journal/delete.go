package journal

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/memorio/memorio/internal/db"
	"github.com/memorio/memorio/internal/errors"
	"github.com/memorio/memorio/internal/memory"
)

// DeleteInput contains parameters for the Delete operation.
type DeleteInput struct {
	ID string

	// MediaDir is the directory holding recorded video files. When the
	// deleted memory is a video media memory, its file is removed from here.
	MediaDir string
}

// DeleteOutput contains the result of the Delete operation.
type DeleteOutput struct {
	Deleted bool   `json:"deleted"`
	ID      string `json:"id"`
}

// Delete removes a memory. For video media memories the referenced file is
// deleted as well; file removal is best-effort and never fails the operation.
func Delete(ctx context.Context, database *sql.DB, log zerolog.Logger, input DeleteInput) (*DeleteOutput, error) {
	id := strings.TrimSpace(input.ID)
	if id == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	m, err := db.GetByID(ctx, database, id)
	if err != nil {
		return nil, err
	}

	if m.Kind == memory.KindMedia && input.MediaDir != "" {
		removeVideoFile(m, input.MediaDir, log)
	}

	if err := db.DeleteByID(ctx, database, id); err != nil {
		return nil, err
	}

	return &DeleteOutput{Deleted: true, ID: id}, nil
}

// removeVideoFile deletes the video file referenced by a media memory.
// Payload decode failures and filesystem errors are logged and swallowed.
func removeVideoFile(m *memory.Memory, mediaDir string, log zerolog.Logger) {
	payload, err := memory.DecodeMediaPayload(m.Data)
	if err != nil {
		log.Warn().Err(err).Str("id", m.ID).Msg("media payload unreadable, skipping file cleanup")
		return
	}
	if payload.Type != memory.MediaVideo || payload.VideoFileName == "" {
		return
	}

	// Payloads store bare file names; reject anything trying to escape the media dir.
	name := filepath.Base(payload.VideoFileName)
	path := filepath.Join(mediaDir, name)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("path", path).Msg("failed to remove video file")
	}
}
