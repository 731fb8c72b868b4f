package journal

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/memorio/memorio/internal/errors"
	"github.com/memorio/memorio/internal/memory"
)

func TestDelete(t *testing.T) {
	database := setupDB(t)
	ctx := context.Background()

	out, err := Create(ctx, database, CreateInput{
		Kind:    memory.KindText,
		Content: strPtr("to be removed"),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	deleted, err := Delete(ctx, database, testLogger(), DeleteInput{ID: out.ID})
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if !deleted.Deleted || deleted.ID != out.ID {
		t.Errorf("DeleteOutput = %+v", deleted)
	}

	if _, err := Fetch(ctx, database, FetchInput{ID: out.ID}); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("memory still fetchable after delete")
	}
}

func TestDeleteNotFound(t *testing.T) {
	database := setupDB(t)

	_, err := Delete(context.Background(), database, testLogger(), DeleteInput{ID: "missing"})
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestDeleteBlankID(t *testing.T) {
	database := setupDB(t)

	_, err := Delete(context.Background(), database, testLogger(), DeleteInput{ID: "  "})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected INVALID_REQUEST, got %v", err)
	}
}

func TestDeleteVideoRemovesFile(t *testing.T) {
	database := setupDB(t)
	ctx := context.Background()
	mediaDir := t.TempDir()

	videoPath := filepath.Join(mediaDir, "abc123_.mov")
	if err := os.WriteFile(videoPath, []byte("fake video"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	data, _ := memory.EncodePayload(memory.MediaPayload{
		Type:          memory.MediaVideo,
		VideoFileName: "abc123_.mov",
	})
	out, err := Create(ctx, database, CreateInput{Kind: memory.KindMedia, Data: data})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := Delete(ctx, database, testLogger(), DeleteInput{ID: out.ID, MediaDir: mediaDir}); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := os.Stat(videoPath); !os.IsNotExist(err) {
		t.Errorf("video file should be removed with the memory")
	}
}

func TestDeleteVideoMissingFileStillSucceeds(t *testing.T) {
	database := setupDB(t)
	ctx := context.Background()

	data, _ := memory.EncodePayload(memory.MediaPayload{
		Type:          memory.MediaVideo,
		VideoFileName: "gone.mov",
	})
	out, err := Create(ctx, database, CreateInput{Kind: memory.KindMedia, Data: data})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := Delete(ctx, database, testLogger(), DeleteInput{ID: out.ID, MediaDir: t.TempDir()}); err != nil {
		t.Errorf("Delete() should swallow a missing media file, got %v", err)
	}
}

func TestDeleteVideoFileNameCannotEscapeMediaDir(t *testing.T) {
	database := setupDB(t)
	ctx := context.Background()
	mediaDir := t.TempDir()

	outside := filepath.Join(t.TempDir(), "precious.mov")
	if err := os.WriteFile(outside, []byte("keep me"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	data, _ := memory.EncodePayload(memory.MediaPayload{
		Type:          memory.MediaVideo,
		VideoFileName: "../" + filepath.Base(filepath.Dir(outside)) + "/precious.mov",
	})
	out, err := Create(ctx, database, CreateInput{Kind: memory.KindMedia, Data: data})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := Delete(ctx, database, testLogger(), DeleteInput{ID: out.ID, MediaDir: mediaDir}); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := os.Stat(outside); err != nil {
		t.Errorf("file outside the media dir must not be deleted")
	}
}
