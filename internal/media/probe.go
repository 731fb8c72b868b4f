package media

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Info describes a probed media file.
type Info struct {
	Duration time.Duration
	HasAudio bool
}

// Prober reads media file metadata.
type Prober interface {
	Probe(ctx context.Context, path string) (Info, error)
}

// FFprobe probes through the ffprobe binary.
type FFprobe struct {
	// Binary is the ffprobe path; defaults to "ffprobe" on PATH.
	Binary string
	Runner Runner
}

func (p *FFprobe) binary() string {
	if p.Binary != "" {
		return p.Binary
	}
	return "ffprobe"
}

func (p *FFprobe) runner() Runner {
	if p.Runner != nil {
		return p.Runner
	}
	return ExecRunner{}
}

// Probe returns the container duration and whether an audio stream exists.
func (p *FFprobe) Probe(ctx context.Context, path string) (Info, error) {
	out, err := p.runner().Run(ctx, p.binary(),
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return Info{}, err
	}

	seconds, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return Info{}, fmt.Errorf("parse duration of %s: %w", path, err)
	}

	audioOut, err := p.runner().Run(ctx, p.binary(),
		"-v", "error",
		"-select_streams", "a",
		"-show_entries", "stream=index",
		"-of", "csv=p=0",
		path,
	)
	if err != nil {
		return Info{}, err
	}

	return Info{
		Duration: time.Duration(seconds * float64(time.Second)),
		HasAudio: strings.TrimSpace(string(audioOut)) != "",
	}, nil
}
