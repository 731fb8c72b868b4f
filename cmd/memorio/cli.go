package main

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/memorio/memorio/internal/capture"
	"github.com/memorio/memorio/internal/config"
	"github.com/memorio/memorio/internal/db"
	"github.com/memorio/memorio/internal/errors"
	"github.com/memorio/memorio/internal/journal"
	"github.com/memorio/memorio/internal/media"
	"github.com/memorio/memorio/internal/memory"
	"github.com/memorio/memorio/internal/plus"
	"github.com/memorio/memorio/internal/weather"
)

// appEnv carries the shared dependencies of CLI commands.
type appEnv struct {
	db      *sql.DB
	cfg     *config.Config
	baseDir string
	log     zerolog.Logger
}

func (e appEnv) mediaDir() string {
	return db.MediaDir(e.baseDir)
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(env appEnv) *cli.App {
	app := &cli.App{
		Name:    "memorio",
		Usage:   "Personal journal and video diary",
		Version: Version,
		Commands: []*cli.Command{
			addCmd(env),
			fetchCmd(env),
			listCmd(env),
			calendarCmd(env),
			rewindCmd(env),
			deleteCmd(env),
			exportCmd(env),
			recordCmd(env),
			watermarkCmd(env),
			settingsCmd(env),
			plusCmd(env),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// commonAddFlags are shared by every add subcommand.
func commonAddFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "date", Aliases: []string{"d"}, Usage: "Day the memory belongs to (YYYY-MM-DD, default today)"},
		&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Optional title"},
	}
}

// addInputFromFlags builds the shared part of a CreateInput.
func addInputFromFlags(c *cli.Context, kind memory.Kind) (journal.CreateInput, error) {
	input := journal.CreateInput{Kind: kind}

	if s := c.String("date"); s != "" {
		t, err := time.ParseInLocation("2006-01-02", s, time.Local)
		if err != nil {
			return input, errors.NewInvalidRequest("date must be formatted YYYY-MM-DD")
		}
		unix := t.Unix()
		input.Date = &unix
	}
	if title := c.String("title"); title != "" {
		input.Title = &title
	}
	return input, nil
}

// contentArg returns body text from the positional args, falling back to
// piped stdin.
func contentArg(c *cli.Context) (string, error) {
	if c.NArg() > 0 {
		return strings.Join(c.Args().Slice(), " "), nil
	}
	if stdinHasData() {
		return readStdin()
	}
	return "", nil
}

// addCmd creates the add command with one subcommand per memory kind.
func addCmd(env appEnv) *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Add a memory to the journal",
		Subcommands: []*cli.Command{
			addTextCmd(env, memory.KindText, "text", "Add a text memory"),
			addFeelingCmd(env),
			addLocationCmd(env),
			addTextCmd(env, memory.KindActivity, "activity", "Add an activity memory"),
			addWeatherCmd(env),
			addMediaCmd(env),
		},
	}
}

func addTextCmd(env appEnv, kind memory.Kind, name, usage string) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage + " (content from args or stdin)",
		ArgsUsage: "[content]",
		Flags:     commonAddFlags(),
		Action: func(c *cli.Context) error {
			input, err := addInputFromFlags(c, kind)
			if err != nil {
				return outputError(err)
			}

			content, err := contentArg(c)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			if content == "" {
				return outputError(errors.NewInvalidRequest("content is required"))
			}
			input.Content = &content

			output, err := journal.Create(c.Context, env.db, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func addFeelingCmd(env appEnv) *cli.Command {
	return &cli.Command{
		Name:      "feeling",
		Usage:     "Add a feeling memory",
		ArgsUsage: "<feeling>",
		Flags:     commonAddFlags(),
		Action: func(c *cli.Context) error {
			input, err := addInputFromFlags(c, memory.KindFeeling)
			if err != nil {
				return outputError(err)
			}

			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("feeling name is required"))
			}
			f, err := memory.ParseFeeling(c.Args().First())
			if err != nil {
				return outputError(errors.NewInvalidRequest(err.Error()))
			}

			input.Data, err = memory.EncodePayload(memory.FeelingPayload{Feeling: f})
			if err != nil {
				return outputError(errors.NewInternal(err))
			}

			output, err := journal.Create(c.Context, env.db, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func addLocationCmd(env appEnv) *cli.Command {
	flags := append(commonAddFlags(),
		&cli.Float64Flag{Name: "lat", Usage: "Latitude", Required: true},
		&cli.Float64Flag{Name: "lon", Usage: "Longitude", Required: true},
		&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Place name"},
	)
	return &cli.Command{
		Name:  "location",
		Usage: "Add a location memory",
		Flags: flags,
		Action: func(c *cli.Context) error {
			input, err := addInputFromFlags(c, memory.KindLocation)
			if err != nil {
				return outputError(err)
			}

			input.Data, err = memory.EncodePayload(memory.LocationPayload{
				Coordinate: memory.Coordinate{
					Latitude:  c.Float64("lat"),
					Longitude: c.Float64("lon"),
				},
				Name: c.String("name"),
			})
			if err != nil {
				return outputError(errors.NewInternal(err))
			}

			output, err := journal.Create(c.Context, env.db, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func addWeatherCmd(env appEnv) *cli.Command {
	flags := append(commonAddFlags(),
		&cli.Float64Flag{Name: "lat", Usage: "Latitude", Required: true},
		&cli.Float64Flag{Name: "lon", Usage: "Longitude", Required: true},
	)
	return &cli.Command{
		Name:  "weather",
		Usage: "Add a weather memory from current conditions",
		Flags: flags,
		Action: func(c *cli.Context) error {
			input, err := addInputFromFlags(c, memory.KindWeather)
			if err != nil {
				return outputError(err)
			}

			if env.cfg.WeatherAPIKey == "" {
				return outputError(errors.NewInvalidRequest("weather_api_key is not configured; run 'memorio settings set --weather-api-key KEY'"))
			}
			client := weather.NewClient(env.cfg.WeatherAPIKey)
			if env.cfg.WeatherBaseURL != "" {
				client.BaseURL = env.cfg.WeatherBaseURL
			}

			payload, err := client.Current(c.Context, c.Float64("lat"), c.Float64("lon"))
			if err != nil {
				return outputError(err)
			}
			input.Data, err = memory.EncodePayload(payload)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}

			output, err := journal.Create(c.Context, env.db, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

func addMediaCmd(env appEnv) *cli.Command {
	flags := append(commonAddFlags(),
		&cli.StringFlag{Name: "photo", Usage: "Image file path (photo memory)"},
		&cli.StringFlag{Name: "video", Usage: "Video file name under the media directory (video memory)"},
	)
	return &cli.Command{
		Name:  "media",
		Usage: "Add a photo or video memory",
		Flags: flags,
		Action: func(c *cli.Context) error {
			input, err := addInputFromFlags(c, memory.KindMedia)
			if err != nil {
				return outputError(err)
			}

			photo := c.String("photo")
			video := c.String("video")
			var payload memory.MediaPayload
			switch {
			case photo != "" && video != "":
				return outputError(errors.NewInvalidRequest("pass --photo or --video, not both"))
			case photo != "":
				payload = memory.MediaPayload{Type: memory.MediaPhoto, ImagePath: photo}
			case video != "":
				payload = memory.MediaPayload{Type: memory.MediaVideo, VideoFileName: filepath.Base(video)}
			default:
				return outputError(errors.NewInvalidRequest("either --photo or --video is required"))
			}

			input.Data, err = memory.EncodePayload(payload)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}

			output, err := journal.Create(c.Context, env.db, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// fetchCmd creates the fetch command.
func fetchCmd(env appEnv) *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "Fetch a memory by ID",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("id is required"))
			}
			output, err := journal.Fetch(c.Context, env.db, journal.FetchInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// listCmd creates the list command.
func listCmd(env appEnv) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List memories newest-first",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "day", Usage: "Restrict to one day (YYYY-MM-DD)"},
			&cli.StringFlag{Name: "from", Usage: "Range start day, inclusive (YYYY-MM-DD)"},
			&cli.StringFlag{Name: "to", Usage: "Range end day, exclusive (YYYY-MM-DD)"},
			&cli.IntFlag{Name: "limit", Value: journal.DefaultListLimit, Usage: "Page size"},
			&cli.IntFlag{Name: "offset", Usage: "Pagination offset"},
		},
		Action: func(c *cli.Context) error {
			input := journal.ListInput{
				Limit:  c.Int("limit"),
				Offset: c.Int("offset"),
			}

			var err error
			if input.Day, err = parseDayFlag(c.String("day")); err != nil {
				return outputError(err)
			}
			if input.From, err = parseDayFlag(c.String("from")); err != nil {
				return outputError(err)
			}
			if input.To, err = parseDayFlag(c.String("to")); err != nil {
				return outputError(err)
			}

			output, err := journal.List(c.Context, env.db, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// calendarCmd creates the calendar command.
func calendarCmd(env appEnv) *cli.Command {
	return &cli.Command{
		Name:  "calendar",
		Usage: "Group memories by day over a date range",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "from", Usage: "Range start day, inclusive (YYYY-MM-DD)", Required: true},
			&cli.StringFlag{Name: "to", Usage: "Range end day, exclusive (YYYY-MM-DD)", Required: true},
		},
		Action: func(c *cli.Context) error {
			from, err := parseDayFlag(c.String("from"))
			if err != nil {
				return outputError(err)
			}
			to, err := parseDayFlag(c.String("to"))
			if err != nil {
				return outputError(err)
			}

			output, err := journal.Calendar(c.Context, env.db, journal.CalendarInput{
				From: *from,
				To:   *to,
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// rewindCmd creates the rewind command.
func rewindCmd(env appEnv) *cli.Command {
	return &cli.Command{
		Name:  "rewind",
		Usage: "Look back at memories from significant past dates",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "now", Usage: "Anchor day (YYYY-MM-DD, default today)"},
		},
		Action: func(c *cli.Context) error {
			now, err := parseDayFlag(c.String("now"))
			if err != nil {
				return outputError(err)
			}

			output, err := journal.Rewind(c.Context, env.db, journal.RewindInput{Now: now})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(env appEnv) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a memory by ID",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("id is required"))
			}
			output, err := journal.Delete(c.Context, env.db, env.log, journal.DeleteInput{
				ID:       c.Args().First(),
				MediaDir: env.mediaDir(),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// exportCmd creates the export command.
func exportCmd(env appEnv) *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Export the whole journal to a file",
		ArgsUsage: "<path>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "jsonl", Usage: "Export format: jsonl|html"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("destination path is required"))
			}
			output, err := journal.Export(c.Context, env.db, journal.ExportInput{
				Path:   c.Args().First(),
				Format: journal.ExportFormat(c.String("format")),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// recordCmd creates the record command: an interactive capture session that
// composes its segments into one clip and stores it as a video memory.
func recordCmd(env appEnv) *cli.Command {
	return &cli.Command{
		Name:  "record",
		Usage: "Record a video memory (interactive; commands on stdin)",
		Description: `Starts a capture session and reads commands from stdin, one per line:

   start            begin recording
   switch           switch between rear and front camera (mid-recording splits a new segment)
   flash            cycle the flash mode (auto -> on -> off)
   zoom <delta>     adjust zoom by delta (clamped to the camera's range)
   focus <x> <y>    focus at a point in the unit square
   photo <path>     capture a still to the given path
   stop             stop recording, compose segments, and export
   cancel           abort and discard all segments`,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "preset", Usage: "Export quality preset (default from settings)"},
			&cli.StringFlag{Name: "watermark", Usage: "Watermark image composited over the exported video"},
			&cli.BoolFlag{Name: "no-watermark", Usage: "Skip the watermark (requires Plus)"},
			&cli.BoolFlag{Name: "keep-segments", Usage: "Keep raw segment files after composing"},
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Title for the stored memory"},
		},
		Action: func(c *cli.Context) error {
			return runRecord(c, env)
		},
	}
}

func runRecord(c *cli.Context, env appEnv) error {
	preset, err := resolvePreset(c.String("preset"), env.cfg)
	if err != nil {
		return outputError(err)
	}

	watermark := c.String("watermark")
	if c.Bool("no-watermark") {
		ent, err := plus.Open(env.baseDir)
		if err != nil {
			return outputError(errors.NewFileSystem("failed to open entitlement store", err))
		}
		if !ent.IsPlus() {
			return outputError(errors.NewPlusRequired("watermark removal"))
		}
		watermark = ""
	}

	backend := &capture.FFmpegBackend{FFmpeg: env.cfg.FFmpegPath, Log: env.log}
	session := capture.NewSession(backend, env.mediaDir(), env.log)
	defer session.Close()

	if err := session.Prepare(c.Context); err != nil {
		return outputError(err)
	}

	segments, cancelled, err := recordLoop(c.Context, session, os.Stdin, os.Stderr)
	if err != nil {
		return outputError(err)
	}
	if cancelled {
		fmt.Fprintln(os.Stderr, "recording cancelled")
		return nil
	}
	if len(segments) == 0 {
		return outputError(errors.NewInvalidOperation("nothing was recorded"))
	}

	paths := make([]string, len(segments))
	for i, seg := range segments {
		paths[i] = seg.Path
	}

	prober := &media.FFprobe{Binary: env.cfg.FFprobePath}
	timeline, err := media.BuildTimeline(c.Context, prober, paths)
	if err != nil {
		return outputError(err)
	}

	exporter := &media.Exporter{FFmpeg: env.cfg.FFmpegPath, Log: env.log}
	mergedPath := session.MergedOutputPath()

	result := <-exporter.Export(c.Context, media.Job{
		Timeline:           timeline,
		OutputPath:         mergedPath,
		Preset:             preset,
		OptimizeForNetwork: env.cfg.OptimizeForNetwork,
	})
	if result.Err != nil {
		return outputError(result.Err)
	}
	finalPath := result.Path

	if watermark != "" {
		overlay := &media.OverlayRequest{
			VideoPath:          mergedPath,
			ImagePath:          watermark,
			RemoveOriginal:     true,
			OptimizeForNetwork: env.cfg.OptimizeForNetwork,
		}
		result = <-exporter.ExportOverlay(c.Context, overlay, preset)
		if result.Err != nil {
			return outputError(result.Err)
		}
		finalPath = result.Path
	}

	if !c.Bool("keep-segments") {
		exporter.CleanupSegments(paths)
	}

	input := journal.CreateInput{Kind: memory.KindMedia}
	if title := c.String("title"); title != "" {
		input.Title = &title
	}
	input.Data, err = memory.EncodePayload(memory.MediaPayload{
		Type:          memory.MediaVideo,
		VideoFileName: filepath.Base(finalPath),
	})
	if err != nil {
		return outputError(errors.NewInternal(err))
	}

	output, err := journal.Create(c.Context, env.db, input)
	if err != nil {
		return outputError(err)
	}

	return outputJSON(map[string]any{
		"memory":   output,
		"path":     finalPath,
		"duration": timeline.Duration.Seconds(),
		"segments": len(segments),
	})
}

// recordLoop drives the session from stdin commands until stop or cancel.
func recordLoop(ctx context.Context, session *capture.Session, in io.Reader, prompt io.Writer) ([]capture.Segment, bool, error) {
	fmt.Fprintln(prompt, "session ready; commands: start, switch, flash, zoom <delta>, focus <x> <y>, photo <path>, stop, cancel")

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "start":
			if err := session.StartRecording(ctx); err != nil {
				fmt.Fprintf(prompt, "error: %v\n", err)
				continue
			}
			fmt.Fprintln(prompt, "recording")

		case "switch":
			if err := session.SwitchCamera(ctx); err != nil {
				fmt.Fprintf(prompt, "error: %v\n", err)
				continue
			}
			pos, _ := session.ActivePosition()
			fmt.Fprintf(prompt, "camera: %s\n", pos)

		case "flash":
			fmt.Fprintf(prompt, "flash: %s\n", session.ToggleFlash())

		case "zoom":
			if len(fields) < 2 {
				fmt.Fprintln(prompt, "usage: zoom <delta>")
				continue
			}
			delta, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				fmt.Fprintf(prompt, "error: %v\n", err)
				continue
			}
			session.Zoom(delta)
			fmt.Fprintf(prompt, "zoom: %.2f\n", session.ZoomFactor())

		case "focus":
			if len(fields) < 3 {
				fmt.Fprintln(prompt, "usage: focus <x> <y>")
				continue
			}
			x, errX := strconv.ParseFloat(fields[1], 64)
			y, errY := strconv.ParseFloat(fields[2], 64)
			if errX != nil || errY != nil {
				fmt.Fprintln(prompt, "error: focus coordinates must be numbers")
				continue
			}
			session.Focus(x, y)

		case "photo":
			if len(fields) < 2 {
				fmt.Fprintln(prompt, "usage: photo <path>")
				continue
			}
			if err := session.CaptureStill(ctx, fields[1]); err != nil {
				fmt.Fprintf(prompt, "error: %v\n", err)
				continue
			}
			fmt.Fprintf(prompt, "saved %s\n", fields[1])

		case "stop":
			segments, err := session.StopRecording()
			if err != nil {
				return nil, false, err
			}
			return segments, false, nil

		case "cancel":
			session.Cancel()
			return nil, true, nil

		default:
			fmt.Fprintf(prompt, "unknown command: %s\n", fields[0])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, false, errors.NewInternal(err)
	}

	// stdin closed without stop: treat as cancel so no stray segments remain
	session.Cancel()
	return nil, true, nil
}

// watermarkCmd creates the watermark command.
func watermarkCmd(env appEnv) *cli.Command {
	return &cli.Command{
		Name:      "watermark",
		Usage:     "Composite a still image over a video",
		ArgsUsage: "<video>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "image", Aliases: []string{"i"}, Usage: "Image to composite", Required: true},
			&cli.StringFlag{Name: "output-dir", Aliases: []string{"o"}, Usage: "Output directory (default: alongside the video)"},
			&cli.StringFlag{Name: "preset", Usage: "Export quality preset (default from settings)"},
			&cli.BoolFlag{Name: "remove-original", Usage: "Delete the source video after a successful export"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("video path is required"))
			}

			preset, err := resolvePreset(c.String("preset"), env.cfg)
			if err != nil {
				return outputError(err)
			}

			req := &media.OverlayRequest{
				VideoPath:          c.Args().First(),
				ImagePath:          c.String("image"),
				OutputDir:          c.String("output-dir"),
				RemoveOriginal:     c.Bool("remove-original"),
				OptimizeForNetwork: env.cfg.OptimizeForNetwork,
			}

			exporter := &media.Exporter{FFmpeg: env.cfg.FFmpegPath, Log: env.log}
			result := <-exporter.ExportOverlay(c.Context, req, preset)
			if result.Err != nil {
				return outputError(result.Err)
			}

			return outputJSON(map[string]string{"path": result.Path})
		},
	}
}

// settingsCmd creates the settings command.
func settingsCmd(env appEnv) *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Show or change settings",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print the effective settings",
				Action: func(c *cli.Context) error {
					return outputJSON(env.cfg)
				},
			},
			{
				Name:  "set",
				Usage: "Change settings",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "preset", Usage: "Export quality preset: " + strings.Join(media.PresetNames(), "|")},
					&cli.StringFlag{Name: "optimize-for-network", Usage: "Network-optimized exports: true|false"},
					&cli.StringFlag{Name: "ffmpeg", Usage: "ffmpeg binary path"},
					&cli.StringFlag{Name: "ffprobe", Usage: "ffprobe binary path"},
					&cli.StringFlag{Name: "weather-api-key", Usage: "OpenWeather API key"},
				},
				Action: func(c *cli.Context) error {
					if s := c.String("preset"); s != "" {
						if _, err := media.ParsePreset(s); err != nil {
							return outputError(err)
						}
						env.cfg.ExportPreset = s
					}
					if s := c.String("optimize-for-network"); s != "" {
						v, err := strconv.ParseBool(s)
						if err != nil {
							return outputError(errors.NewInvalidRequest("optimize-for-network must be true or false"))
						}
						env.cfg.OptimizeForNetwork = v
					}
					if s := c.String("ffmpeg"); s != "" {
						env.cfg.FFmpegPath = s
					}
					if s := c.String("ffprobe"); s != "" {
						env.cfg.FFprobePath = s
					}
					if s := c.String("weather-api-key"); s != "" {
						env.cfg.WeatherAPIKey = s
					}

					if err := config.Save(env.baseDir, env.cfg); err != nil {
						return outputError(errors.NewFileSystem("failed to save config", err))
					}
					return outputJSON(env.cfg)
				},
			},
		},
	}
}

// plusCmd creates the plus command.
func plusCmd(env appEnv) *cli.Command {
	openStore := func() (*plus.Store, error) {
		s, err := plus.Open(env.baseDir)
		if err != nil {
			return nil, errors.NewFileSystem("failed to open entitlement store", err)
		}
		return s, nil
	}

	status := func(s *plus.Store) map[string]any {
		products := make(map[string]bool, len(plus.Products))
		for _, p := range plus.Products {
			products[p] = s.Bought(p)
		}
		return map[string]any{"plus": s.IsPlus(), "products": products}
	}

	validProduct := func(p string) bool {
		for _, known := range plus.Products {
			if p == known {
				return true
			}
		}
		return false
	}

	return &cli.Command{
		Name:  "plus",
		Usage: "Manage the Plus entitlement",
		Subcommands: []*cli.Command{
			{
				Name:  "status",
				Usage: "Show owned products",
				Action: func(c *cli.Context) error {
					s, err := openStore()
					if err != nil {
						return outputError(err)
					}
					return outputJSON(status(s))
				},
			},
			{
				Name:      "buy",
				Usage:     "Record a purchased product",
				ArgsUsage: "<" + strings.Join(plus.Products, "|") + ">",
				Action: func(c *cli.Context) error {
					if c.NArg() < 1 || !validProduct(c.Args().First()) {
						return outputError(errors.NewInvalidRequest("product must be one of: " + strings.Join(plus.Products, ", ")))
					}
					s, err := openStore()
					if err != nil {
						return outputError(err)
					}
					if err := s.SetBought(c.Args().First(), true); err != nil {
						return outputError(errors.NewFileSystem("failed to save entitlement store", err))
					}
					return outputJSON(status(s))
				},
			},
			{
				Name:      "revoke",
				Usage:     "Remove a recorded product",
				ArgsUsage: "<" + strings.Join(plus.Products, "|") + ">",
				Action: func(c *cli.Context) error {
					if c.NArg() < 1 || !validProduct(c.Args().First()) {
						return outputError(errors.NewInvalidRequest("product must be one of: " + strings.Join(plus.Products, ", ")))
					}
					s, err := openStore()
					if err != nil {
						return outputError(err)
					}
					if err := s.SetBought(c.Args().First(), false); err != nil {
						return outputError(errors.NewFileSystem("failed to save entitlement store", err))
					}
					return outputJSON(status(s))
				},
			},
		},
	}
}

// resolvePreset picks the flag preset or falls back to the configured one.
func resolvePreset(name string, cfg *config.Config) (media.Preset, error) {
	if name == "" {
		name = cfg.ExportPreset
	}
	if name == "" {
		name = config.DefaultExportPreset
	}
	return media.ParsePreset(name)
}

// parseDayFlag parses a YYYY-MM-DD flag in the local timezone.
func parseDayFlag(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return nil, errors.NewInvalidRequest("dates must be formatted YYYY-MM-DD")
	}
	return &t, nil
}

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if memErr, ok := err.(*errors.Error); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", memErr.Code, memErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from stdin.
func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
