package media

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/rs/zerolog"

	"github.com/memorio/memorio/internal/errors"
)

// Preset is one of the closed set of export quality presets.
type Preset struct {
	Name   string
	Width  int
	Height int
}

// presets is the closed preset set, keyed by name.
var presets = map[string]Preset{
	"640x480":   {Name: "640x480", Width: 640, Height: 480},
	"960x540":   {Name: "960x540", Width: 960, Height: 540},
	"1280x720":  {Name: "1280x720", Width: 1280, Height: 720},
	"1920x1080": {Name: "1920x1080", Width: 1920, Height: 1080},
	"3840x2160": {Name: "3840x2160", Width: 3840, Height: 2160},
}

// ParsePreset resolves a preset name.
func ParsePreset(name string) (Preset, error) {
	if p, ok := presets[name]; ok {
		return p, nil
	}
	return Preset{}, errors.NewInvalidRequest(fmt.Sprintf("unknown export preset: %q (known: %v)", name, PresetNames()))
}

// PresetNames lists the known preset names, sorted.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Job describes one export. Exactly one of Timeline or Source must be set.
type Job struct {
	// Timeline exports a merged session composition.
	Timeline *Timeline
	// Source exports a single asset, optionally with an overlay.
	Source  string
	Overlay *OverlayRequest

	// OutputPath is the destination. Overwrite semantics: any pre-existing
	// file there is deleted before the transcode starts.
	OutputPath string
	// Preset is the quality preset.
	Preset Preset
	// OptimizeForNetwork moves the index atom to the container front.
	OptimizeForNetwork bool
}

// Result is the terminal outcome of an export: exactly one of Path or Err.
type Result struct {
	Path string
	Err  error
}

// Exporter drives asynchronous transcodes.
type Exporter struct {
	// FFmpeg is the ffmpeg binary path; defaults to "ffmpeg" on PATH.
	FFmpeg string
	Runner Runner
	Log    zerolog.Logger
}

func (e *Exporter) binary() string {
	if e.FFmpeg != "" {
		return e.FFmpeg
	}
	return "ffmpeg"
}

func (e *Exporter) runner() Runner {
	if e.Runner != nil {
		return e.Runner
	}
	return ExecRunner{}
}

// buildArgs assembles the ffmpeg argument list for a job.
func buildArgs(job Job) ([]string, error) {
	switch {
	case job.Timeline != nil && job.Source != "":
		return nil, errors.NewInvalidRequest("job must set timeline or source, not both")
	case job.Timeline != nil:
		return concatArgs(job.Timeline, job.OutputPath, job.Preset, job.OptimizeForNetwork), nil
	case job.Source != "" && job.Overlay != nil:
		return overlayArgs(job.Overlay, job.OutputPath, job.Preset, job.OptimizeForNetwork), nil
	case job.Source != "":
		args := []string{
			"-y",
			"-i", job.Source,
			"-vf", fmt.Sprintf("scale=%d:%d", job.Preset.Width, job.Preset.Height),
			"-c:v", "libx264",
			"-c:a", "aac",
		}
		if job.OptimizeForNetwork {
			args = append(args, "-movflags", "+faststart")
		}
		return append(args, "-f", "mov", job.OutputPath), nil
	default:
		return nil, errors.NewInvalidRequest("job has nothing to export")
	}
}

// Export starts the transcode and returns a channel that delivers exactly
// one Result. Unknown terminal states from the tool surface as EXPORT_FAILED
// rather than being dropped, so callers never wait forever.
func (e *Exporter) Export(ctx context.Context, job Job) <-chan Result {
	done := make(chan Result, 1)

	args, err := buildArgs(job)
	if err != nil {
		done <- Result{Err: err}
		return done
	}
	if job.OutputPath == "" {
		done <- Result{Err: errors.NewInvalidRequest("output path is required")}
		return done
	}

	// Overwrite semantics, not append.
	if err := os.Remove(job.OutputPath); err != nil && !os.IsNotExist(err) {
		done <- Result{Err: errors.NewFileSystem("failed to clear output path", err)}
		return done
	}

	go func() {
		if _, err := e.runner().Run(ctx, e.binary(), args...); err != nil {
			done <- Result{Err: errors.NewExportFailed(err)}
			return
		}

		if job.Overlay != nil && job.Overlay.RemoveOriginal {
			if err := os.Remove(job.Overlay.VideoPath); err != nil && !os.IsNotExist(err) {
				e.Log.Warn().Err(err).Str("path", job.Overlay.VideoPath).Msg("failed to remove original video")
			}
		}

		done <- Result{Path: job.OutputPath}
	}()

	return done
}

// ExportOverlay is a convenience wrapper building the job for an overlay request.
func (e *Exporter) ExportOverlay(ctx context.Context, req *OverlayRequest, preset Preset) <-chan Result {
	return e.Export(ctx, Job{
		Source:             req.VideoPath,
		Overlay:            req,
		OutputPath:         req.OutputPath(),
		Preset:             preset,
		OptimizeForNetwork: req.OptimizeForNetwork,
	})
}

// CleanupSegments removes merged segment files. Failures are best-effort
// hygiene, logged and swallowed.
func (e *Exporter) CleanupSegments(paths []string) {
	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			e.Log.Warn().Err(err).Str("path", path).Msg("failed to remove segment file")
		}
	}
}
