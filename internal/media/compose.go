package media

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/memorio/memorio/internal/errors"
)

// SegmentInfo is one probed segment of a timeline.
type SegmentInfo struct {
	Index    int
	Path     string
	Duration time.Duration
	HasAudio bool
}

// Timeline is the in-memory composition of a session's segments: one video
// and one audio track in lock-step, with the fixed 90° rotation the capture
// pipeline requires to normalize portrait orientation.
type Timeline struct {
	Segments []SegmentInfo
	Duration time.Duration
	Rotate90 bool
}

// BuildTimeline probes every segment concurrently and assembles the
// composite timeline. A probe failure or non-positive duration aborts the
// whole composition with an error naming the failing segment index; a
// partial composite is never produced.
func BuildTimeline(ctx context.Context, prober Prober, paths []string) (*Timeline, error) {
	if len(paths) == 0 {
		return nil, errors.NewInvalidRequest("no segments to compose")
	}

	segments := make([]SegmentInfo, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			info, err := prober.Probe(gctx, path)
			if err != nil {
				return errors.NewInputInvalid(fmt.Sprintf("segment %d unreadable", i), err)
			}
			if info.Duration <= 0 {
				return errors.NewInputInvalid(fmt.Sprintf("segment %d has no duration", i), nil)
			}
			segments[i] = SegmentInfo{
				Index:    i,
				Path:     path,
				Duration: info.Duration,
				HasAudio: info.HasAudio,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var total time.Duration
	for _, seg := range segments {
		total += seg.Duration
	}

	return &Timeline{
		Segments: segments,
		Duration: total,
		Rotate90: true,
	}, nil
}

// concatFilter builds the filter_complex text concatenating all segments.
// Segments without an audio track get silence of exactly their duration, so
// later segments stay in sync instead of drifting onto the wrong frames.
func concatFilter(t *Timeline, preset Preset) string {
	var b strings.Builder
	pairs := make([]string, 0, len(t.Segments)*2)

	for _, seg := range t.Segments {
		videoLabel := fmt.Sprintf("[%d:v]", seg.Index)
		audioLabel := fmt.Sprintf("[%d:a]", seg.Index)

		if !seg.HasAudio {
			audioLabel = fmt.Sprintf("[sil%d]", seg.Index)
			fmt.Fprintf(&b, "anullsrc=channel_layout=stereo:sample_rate=44100,atrim=duration=%.3f%s;",
				seg.Duration.Seconds(), audioLabel)
		}

		pairs = append(pairs, videoLabel, audioLabel)
	}

	fmt.Fprintf(&b, "%sconcat=n=%d:v=1:a=1[vcat][aout];", strings.Join(pairs, ""), len(t.Segments))

	video := "[vcat]"
	b.WriteString(video)
	if t.Rotate90 {
		b.WriteString("transpose=1,")
	}
	fmt.Fprintf(&b, "scale=%d:%d[vout]", preset.Width, preset.Height)

	return b.String()
}

// concatArgs builds the full ffmpeg argument list for a timeline export.
func concatArgs(t *Timeline, outputPath string, preset Preset, optimizeForNetwork bool) []string {
	args := []string{"-y"}
	for _, seg := range t.Segments {
		args = append(args, "-i", seg.Path)
	}
	args = append(args,
		"-filter_complex", concatFilter(t, preset),
		"-map", "[vout]",
		"-map", "[aout]",
		"-c:v", "libx264",
		"-c:a", "aac",
	)
	if optimizeForNetwork {
		args = append(args, "-movflags", "+faststart")
	}
	args = append(args, "-f", "mov", outputPath)
	return args
}
