package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"

	"github.com/memorio/memorio/internal/config"
	"github.com/memorio/memorio/internal/db"
	"github.com/memorio/memorio/internal/journal"
	"github.com/memorio/memorio/internal/memory"
)

// testSetup creates a temporary database and handlers for testing.
func testSetup(t *testing.T) (*Handlers, *sql.DB, string) {
	t.Helper()

	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cfg := config.DefaultConfig()
	h := NewHandlers(database, cfg, db.MediaDir(tmpDir), zerolog.Nop())
	return h, database, tmpDir
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

// resultJSON unmarshals the first text content of a tool result.
func resultJSON(t *testing.T, res *mcp.CallToolResult, v any) {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatalf("result has no content")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", res.Content[0])
	}
	if err := json.Unmarshal([]byte(text.Text), v); err != nil {
		t.Fatalf("result is not JSON: %v\n%s", err, text.Text)
	}
}

// errorCode extracts the error code from an error result.
func errorCode(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if !res.IsError {
		t.Fatalf("expected an error result")
	}
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	resultJSON(t, res, &payload)
	return payload.Error.Code
}

func TestHandleCreateText(t *testing.T) {
	h, _, _ := testSetup(t)

	res, err := h.HandleCreate(context.Background(), makeRequest(map[string]any{
		"kind":    "text",
		"content": "hello journal",
		"title":   "first",
	}))
	if err != nil {
		t.Fatalf("HandleCreate() error = %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %+v", res)
	}

	var out journal.CreateOutput
	resultJSON(t, res, &out)
	if len(out.ID) != 26 {
		t.Errorf("ID = %q, want a ULID", out.ID)
	}
}

func TestHandleCreateFeeling(t *testing.T) {
	h, _, _ := testSetup(t)

	res, err := h.HandleCreate(context.Background(), makeRequest(map[string]any{
		"kind":    "feeling",
		"feeling": "happy",
	}))
	if err != nil {
		t.Fatalf("HandleCreate() error = %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %+v", res)
	}
}

func TestHandleCreateLocation(t *testing.T) {
	h, database, _ := testSetup(t)

	res, err := h.HandleCreate(context.Background(), makeRequest(map[string]any{
		"kind":          "location",
		"latitude":      48.8566,
		"longitude":     2.3522,
		"location_name": "Paris",
	}))
	if err != nil {
		t.Fatalf("HandleCreate() error = %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %+v", res)
	}

	var out journal.CreateOutput
	resultJSON(t, res, &out)

	fetched, err := journal.Fetch(context.Background(), database, journal.FetchInput{ID: out.ID})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	payload, err := memory.DecodeLocationPayload(fetched.Data)
	if err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload.Name != "Paris" {
		t.Errorf("Name = %q, want Paris", payload.Name)
	}
}

func TestHandleCreateValidation(t *testing.T) {
	h, _, _ := testSetup(t)
	ctx := context.Background()

	tests := []struct {
		name string
		args map[string]any
	}{
		{"unknown kind", map[string]any{"kind": "video"}},
		{"text without content", map[string]any{"kind": "text"}},
		{"feeling unknown", map[string]any{"kind": "feeling", "feeling": "meh"}},
		{"location without coords", map[string]any{"kind": "location"}},
		{"weather without coords", map[string]any{"kind": "weather"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := h.HandleCreate(ctx, makeRequest(tt.args))
			if err != nil {
				t.Fatalf("HandleCreate() error = %v", err)
			}
			if code := errorCode(t, res); code != "INVALID_REQUEST" {
				t.Errorf("code = %s, want INVALID_REQUEST", code)
			}
		})
	}
}

func TestHandleFetch(t *testing.T) {
	h, database, _ := testSetup(t)
	ctx := context.Background()

	content := "fetch me"
	created, err := journal.Create(ctx, database, journal.CreateInput{
		Kind:    memory.KindText,
		Content: &content,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	res, err := h.HandleFetch(ctx, makeRequest(map[string]any{"id": created.ID}))
	if err != nil {
		t.Fatalf("HandleFetch() error = %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result")
	}

	var out memory.Memory
	resultJSON(t, res, &out)
	if out.ID != created.ID {
		t.Errorf("ID = %q, want %q", out.ID, created.ID)
	}
}

func TestHandleFetchNotFound(t *testing.T) {
	h, _, _ := testSetup(t)

	res, err := h.HandleFetch(context.Background(), makeRequest(map[string]any{"id": "missing"}))
	if err != nil {
		t.Fatalf("HandleFetch() error = %v", err)
	}
	if code := errorCode(t, res); code != "NOT_FOUND" {
		t.Errorf("code = %s, want NOT_FOUND", code)
	}
}

func TestHandleList(t *testing.T) {
	h, database, _ := testSetup(t)
	ctx := context.Background()

	for _, s := range []string{"one", "two", "three"} {
		content := s
		if _, err := journal.Create(ctx, database, journal.CreateInput{
			Kind:    memory.KindText,
			Content: &content,
		}); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	res, err := h.HandleList(ctx, makeRequest(map[string]any{"limit": 2}))
	if err != nil {
		t.Fatalf("HandleList() error = %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result")
	}

	var out journal.ListOutput
	resultJSON(t, res, &out)
	if len(out.Items) != 2 {
		t.Errorf("got %d items, want 2", len(out.Items))
	}
	if out.Pagination.Total != 3 {
		t.Errorf("Total = %d, want 3", out.Pagination.Total)
	}
}

func TestHandleListBadDay(t *testing.T) {
	h, _, _ := testSetup(t)

	res, err := h.HandleList(context.Background(), makeRequest(map[string]any{"day": "01/02/2026"}))
	if err != nil {
		t.Fatalf("HandleList() error = %v", err)
	}
	if code := errorCode(t, res); code != "INVALID_REQUEST" {
		t.Errorf("code = %s, want INVALID_REQUEST", code)
	}
}

func TestHandleCalendarRequiresRange(t *testing.T) {
	h, _, _ := testSetup(t)

	res, err := h.HandleCalendar(context.Background(), makeRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("HandleCalendar() error = %v", err)
	}
	if code := errorCode(t, res); code != "INVALID_REQUEST" {
		t.Errorf("code = %s, want INVALID_REQUEST", code)
	}
}

func TestHandleRewind(t *testing.T) {
	h, database, _ := testSetup(t)
	ctx := context.Background()

	now := time.Now()
	weekAgo := now.AddDate(0, 0, -7).Unix()
	content := "from last week"
	if _, err := journal.Create(ctx, database, journal.CreateInput{
		Kind:    memory.KindText,
		Date:    &weekAgo,
		Content: &content,
	}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	res, err := h.HandleRewind(ctx, makeRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("HandleRewind() error = %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result")
	}

	var out journal.RewindOutput
	resultJSON(t, res, &out)
	if len(out.Items) != 1 || out.Items[0].Label != "a week ago" {
		t.Errorf("items = %+v, want the week-ago day", out.Items)
	}
}

func TestHandleDeleteRemovesVideoFile(t *testing.T) {
	h, database, baseDir := testSetup(t)
	ctx := context.Background()

	mediaDir := db.MediaDir(baseDir)
	videoPath := filepath.Join(mediaDir, "clip_.mov")
	if err := os.WriteFile(videoPath, []byte("video"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	data, _ := memory.EncodePayload(memory.MediaPayload{
		Type:          memory.MediaVideo,
		VideoFileName: "clip_.mov",
	})
	created, err := journal.Create(ctx, database, journal.CreateInput{
		Kind: memory.KindMedia,
		Data: data,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	res, err := h.HandleDelete(ctx, makeRequest(map[string]any{"id": created.ID}))
	if err != nil {
		t.Fatalf("HandleDelete() error = %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result")
	}

	if _, err := os.Stat(videoPath); !os.IsNotExist(err) {
		t.Errorf("video file not removed")
	}
}

func TestHandleExport(t *testing.T) {
	h, database, baseDir := testSetup(t)
	ctx := context.Background()

	content := "export me"
	if _, err := journal.Create(ctx, database, journal.CreateInput{
		Kind:    memory.KindText,
		Content: &content,
	}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	path := filepath.Join(baseDir, "export.jsonl")
	res, err := h.HandleExport(ctx, makeRequest(map[string]any{"path": path}))
	if err != nil {
		t.Fatalf("HandleExport() error = %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result")
	}

	var out journal.ExportOutput
	resultJSON(t, res, &out)
	if out.Count != 1 {
		t.Errorf("Count = %d, want 1", out.Count)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("export file missing: %v", err)
	}
}

func TestAllToolNames(t *testing.T) {
	names := AllToolNames()
	if len(names) != len(toolRegistry) {
		t.Errorf("got %d names, want %d", len(names), len(toolRegistry))
	}

	seen := make(map[string]bool)
	for _, name := range names {
		seen[name] = true
	}
	for _, want := range []string{"memory_create", "memory_fetch", "memory_list", "memory_calendar", "memory_rewind", "memory_delete", "memory_export"} {
		if !seen[want] {
			t.Errorf("missing tool %s", want)
		}
	}
}

func TestValidateDisabledTools(t *testing.T) {
	unknown := ValidateDisabledTools([]string{"memory_create", "memory_teleport"})
	if len(unknown) != 1 || unknown[0] != "memory_teleport" {
		t.Errorf("unknown = %v, want [memory_teleport]", unknown)
	}
}

func TestNewServerSkipsDisabledTools(t *testing.T) {
	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}
	defer database.Close()

	cfg := config.DefaultConfig()
	cfg.DisabledTools = []string{"memory_delete"}

	s := NewServer(database, cfg, db.MediaDir(tmpDir), zerolog.Nop(), "test")
	if s == nil {
		t.Fatalf("NewServer returned nil")
	}
}

func TestDecode(t *testing.T) {
	req := makeRequest(map[string]any{
		"kind":     "text",
		"content":  "body",
		"latitude": 12.5,
	})

	got, err := decode[CreateRequest](req)
	if err != nil {
		t.Fatalf("decode() error = %v", err)
	}
	if got.Kind != "text" {
		t.Errorf("Kind = %q, want text", got.Kind)
	}
	if got.Content == nil || *got.Content != "body" {
		t.Errorf("Content = %v", got.Content)
	}
	if got.Latitude == nil || *got.Latitude != 12.5 {
		t.Errorf("Latitude = %v", got.Latitude)
	}
}
