package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"

	"github.com/memorio/memorio/internal/config"
	"github.com/memorio/memorio/internal/errors"
	"github.com/memorio/memorio/internal/journal"
	"github.com/memorio/memorio/internal/memory"
	"github.com/memorio/memorio/internal/weather"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db       *sql.DB
	cfg      *config.Config
	mediaDir string
	log      zerolog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *sql.DB, cfg *config.Config, mediaDir string, log zerolog.Logger) *Handlers {
	return &Handlers{db: db, cfg: cfg, mediaDir: mediaDir, log: log}
}

// Request types for each tool

// CreateRequest represents the arguments for create.
type CreateRequest struct {
	Kind          string   `json:"kind"`
	Date          *int64   `json:"date,omitempty"`
	Title         *string  `json:"title,omitempty"`
	Content       *string  `json:"content,omitempty"`
	Feeling       string   `json:"feeling,omitempty"`
	Latitude      *float64 `json:"latitude,omitempty"`
	Longitude     *float64 `json:"longitude,omitempty"`
	LocationName  string   `json:"location_name,omitempty"`
	MediaType     string   `json:"media_type,omitempty"`
	ImagePath     string   `json:"image_path,omitempty"`
	VideoFileName string   `json:"video_file_name,omitempty"`
}

// FetchRequest represents the arguments for fetch.
type FetchRequest struct {
	ID string `json:"id"`
}

// ListRequest represents the arguments for list.
type ListRequest struct {
	Day    string `json:"day,omitempty"`
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// CalendarRequest represents the arguments for calendar.
type CalendarRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// RewindRequest represents the arguments for rewind.
type RewindRequest struct {
	Now string `json:"now,omitempty"`
}

// DeleteRequest represents the arguments for delete.
type DeleteRequest struct {
	ID string `json:"id"`
}

// ExportRequest represents the arguments for export.
type ExportRequest struct {
	Path   string `json:"path"`
	Format string `json:"format,omitempty"`
}

// parseDay parses a YYYY-MM-DD argument in the local timezone.
func parseDay(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return nil, errors.NewInvalidRequest("day must be formatted YYYY-MM-DD: " + s)
	}
	return &t, nil
}

// buildPayload assembles the per-kind Data payload from flat tool arguments.
// Weather memories are populated from the live conditions at the given
// coordinates, matching what the journal shows for that day.
func (h *Handlers) buildPayload(ctx context.Context, kind memory.Kind, req CreateRequest) ([]byte, error) {
	switch kind {
	case memory.KindFeeling:
		f, err := memory.ParseFeeling(req.Feeling)
		if err != nil {
			return nil, errors.NewInvalidRequest(err.Error())
		}
		return memory.EncodePayload(memory.FeelingPayload{Feeling: f})

	case memory.KindLocation:
		if req.Latitude == nil || req.Longitude == nil {
			return nil, errors.NewInvalidRequest("location memory requires latitude and longitude")
		}
		return memory.EncodePayload(memory.LocationPayload{
			Coordinate: memory.Coordinate{Latitude: *req.Latitude, Longitude: *req.Longitude},
			Name:       req.LocationName,
		})

	case memory.KindWeather:
		if req.Latitude == nil || req.Longitude == nil {
			return nil, errors.NewInvalidRequest("weather memory requires latitude and longitude")
		}
		if h.cfg.WeatherAPIKey == "" {
			return nil, errors.NewInvalidRequest("weather_api_key is not configured")
		}
		client := weather.NewClient(h.cfg.WeatherAPIKey)
		if h.cfg.WeatherBaseURL != "" {
			client.BaseURL = h.cfg.WeatherBaseURL
		}
		payload, err := client.Current(ctx, *req.Latitude, *req.Longitude)
		if err != nil {
			return nil, err
		}
		return memory.EncodePayload(payload)

	case memory.KindMedia:
		return memory.EncodePayload(memory.MediaPayload{
			Type:          memory.MediaType(req.MediaType),
			ImagePath:     req.ImagePath,
			VideoFileName: req.VideoFileName,
		})
	}
	return nil, nil
}

// Handler implementations

// HandleCreate handles the create tool call.
func (h *Handlers) HandleCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CreateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	kind, err := memory.ParseKind(input.Kind)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	data, err := h.buildPayload(ctx, kind, input)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := journal.Create(ctx, h.db, journal.CreateInput{
		Kind:    kind,
		Date:    input.Date,
		Title:   input.Title,
		Content: input.Content,
		Data:    data,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleFetch handles the fetch tool call.
func (h *Handlers) HandleFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FetchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := journal.Fetch(ctx, h.db, journal.FetchInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleList handles the list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	day, err := parseDay(input.Day)
	if err != nil {
		return errorResult(err), nil
	}
	from, err := parseDay(input.From)
	if err != nil {
		return errorResult(err), nil
	}
	to, err := parseDay(input.To)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := journal.List(ctx, h.db, journal.ListInput{
		Day:    day,
		From:   from,
		To:     to,
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleCalendar handles the calendar tool call.
func (h *Handlers) HandleCalendar(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CalendarRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	from, err := parseDay(input.From)
	if err != nil {
		return errorResult(err), nil
	}
	to, err := parseDay(input.To)
	if err != nil {
		return errorResult(err), nil
	}
	if from == nil || to == nil {
		return errorResult(errors.NewInvalidRequest("from and to are required")), nil
	}

	result, err := journal.Calendar(ctx, h.db, journal.CalendarInput{
		From: *from,
		To:   *to,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleRewind handles the rewind tool call.
func (h *Handlers) HandleRewind(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RewindRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	now, err := parseDay(input.Now)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := journal.Rewind(ctx, h.db, journal.RewindInput{Now: now})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleDelete handles the delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DeleteRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := journal.Delete(ctx, h.db, h.log, journal.DeleteInput{
		ID:       input.ID,
		MediaDir: h.mediaDir,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleExport handles the export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := journal.Export(ctx, h.db, journal.ExportInput{
		Path:   input.Path,
		Format: journal.ExportFormat(input.Format),
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if memErr, ok := err.(*errors.Error); ok {
		errorObj := map[string]any{
			"code":    memErr.Code,
			"message": memErr.Message,
			"status":  memErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if memErr.Code != errors.ErrInternal && memErr.Details != nil {
			errorObj["details"] = memErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
