package journal

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"github.com/yuin/goldmark"

	"github.com/memorio/memorio/internal/db"
	"github.com/memorio/memorio/internal/errors"
	"github.com/memorio/memorio/internal/memory"
)

// ExportFormat selects the export file format.
type ExportFormat string

const (
	ExportJSONL ExportFormat = "jsonl"
	ExportHTML  ExportFormat = "html"
)

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	Path     string       // required
	Format   ExportFormat // default: jsonl
	Location *time.Location
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Path       string `json:"path"`
	Count      int    `json:"count"`
	ExportedAt int64  `json:"exported_at"`
}

// ExportHeader is the header line of a JSONL export file.
type ExportHeader struct {
	MemorioExport bool   `json:"_memorio_export"`
	SchemaVersion string `json:"schema_version"`
	ExportedAt    int64  `json:"exported_at"`
}

// Export writes the whole journal to a file, either as JSONL (one memory per
// line, with a header line) or as a rendered HTML journal.
func Export(ctx context.Context, database *sql.DB, input ExportInput) (*ExportOutput, error) {
	if input.Path == "" {
		return nil, errors.NewInvalidRequest("path is required")
	}
	format := input.Format
	if format == "" {
		format = ExportJSONL
	}
	if format != ExportJSONL && format != ExportHTML {
		return nil, errors.NewInvalidRequest("format must be one of: jsonl, html")
	}

	// Page through the full journal; exports are not capped at one page.
	var memories []*memory.Memory
	for offset := 0; ; offset += MaxListLimit {
		page, err := db.ListAll(ctx, database, MaxListLimit, offset)
		if err != nil {
			return nil, err
		}
		memories = append(memories, page...)
		if len(page) < MaxListLimit {
			break
		}
	}

	if err := os.MkdirAll(filepath.Dir(input.Path), 0700); err != nil {
		return nil, errors.NewFileSystem("failed to create export directory", err)
	}

	exportedAt := time.Now().Unix()
	var data []byte
	var err error
	switch format {
	case ExportJSONL:
		data, err = renderJSONL(memories, exportedAt)
	case ExportHTML:
		loc := input.Location
		if loc == nil {
			loc = time.Local
		}
		data, err = renderHTMLJournal(memories, loc)
	}
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(input.Path, data, 0600); err != nil {
		return nil, errors.NewFileSystem("failed to write export file", err)
	}

	return &ExportOutput{
		Path:       input.Path,
		Count:      len(memories),
		ExportedAt: exportedAt,
	}, nil
}

// renderJSONL produces the JSONL export: a header line then one memory per line.
func renderJSONL(memories []*memory.Memory, exportedAt int64) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)

	header := ExportHeader{
		MemorioExport: true,
		SchemaVersion: "1.0",
		ExportedAt:    exportedAt,
	}
	if err := enc.Encode(header); err != nil {
		return nil, errors.NewInternal(err)
	}
	for _, m := range memories {
		if err := enc.Encode(m); err != nil {
			return nil, errors.NewInternal(err)
		}
	}
	return buf.Bytes(), nil
}

var journalTemplate = template.Must(template.New("journal").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Memorio journal</title></head>
<body>
<h1>Memorio journal</h1>
{{range .Days}}
<section>
<h2>{{.Date.Format "Monday, 2 January 2006"}}</h2>
{{range .Memories}}
<article>
{{with .Title}}<h3>{{.}}</h3>{{end}}
<p class="kind">{{.Kind}}</p>
{{.HTML}}
</article>
{{end}}
</section>
{{end}}
</body>
</html>
`))

type journalEntry struct {
	Title *string
	Kind  string
	HTML  template.HTML
}

type journalDay struct {
	Date     time.Time
	Memories []journalEntry
}

// renderHTMLJournal renders memories grouped by day, with markdown content
// converted to HTML.
func renderHTMLJournal(memories []*memory.Memory, loc *time.Location) ([]byte, error) {
	days := groupByDay(memories, loc)

	view := struct{ Days []journalDay }{}
	for _, day := range days {
		jd := journalDay{Date: day.Date}
		for _, m := range day.Memories {
			jd.Memories = append(jd.Memories, journalEntry{
				Title: m.Title,
				Kind:  m.Kind.String(),
				HTML:  renderMarkdown(entryText(m)),
			})
		}
		view.Days = append(view.Days, jd)
	}

	var buf bytes.Buffer
	if err := journalTemplate.Execute(&buf, view); err != nil {
		return nil, errors.NewInternal(err)
	}
	return buf.Bytes(), nil
}

// entryText produces the display text of a memory for the HTML journal.
func entryText(m *memory.Memory) string {
	switch m.Kind {
	case memory.KindFeeling:
		if p, err := memory.DecodeFeelingPayload(m.Data); err == nil {
			return fmt.Sprintf("%s %s", p.Feeling.Emoji(), p.Feeling)
		}
	case memory.KindLocation:
		if p, err := memory.DecodeLocationPayload(m.Data); err == nil {
			if p.Name != "" {
				return p.Name
			}
			return fmt.Sprintf("%.4f, %.4f", p.Coordinate.Latitude, p.Coordinate.Longitude)
		}
	case memory.KindWeather:
		if p, err := memory.DecodeWeatherPayload(m.Data); err == nil {
			return fmt.Sprintf("%s, %s°C in %s", p.Condition, p.Temp, p.LocationName)
		}
	case memory.KindMedia:
		if p, err := memory.DecodeMediaPayload(m.Data); err == nil {
			if p.Type == memory.MediaVideo {
				return fmt.Sprintf("video: %s", p.VideoFileName)
			}
			return fmt.Sprintf("photo: %s", p.ImagePath)
		}
	}
	if m.Content != nil {
		return *m.Content
	}
	return ""
}

// renderMarkdown converts markdown text to HTML using goldmark.
func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}
