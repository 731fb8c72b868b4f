package media

import (
	"fmt"
	"path/filepath"
	"strings"
)

// OverlayRequest asks for a still image to be composited over every frame of
// a source video (watermark or date/time caption).
type OverlayRequest struct {
	// VideoPath is the source video.
	VideoPath string
	// ImagePath is the still to composite.
	ImagePath string
	// OutputDir receives the overlaid file; defaults to the video's directory.
	OutputDir string
	// RemoveOriginal deletes the source video after a successful export,
	// replacing a just-recorded clip with its watermarked version.
	RemoveOriginal bool
	// OptimizeForNetwork enables network-optimized encoding.
	OptimizeForNetwork bool
}

// OutputPath is the destination for the overlaid video: the source name with
// a double-underscore suffix, in the output directory.
func (r *OverlayRequest) OutputPath() string {
	dir := r.OutputDir
	if dir == "" {
		dir = filepath.Dir(r.VideoPath)
	}
	base := filepath.Base(r.VideoPath)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, name+"__.mov")
}

// overlayFilter builds the filter_complex compositing the still over the
// video. scale2ref stretches the image non-uniformly to exactly cover the
// frame (width and height scaled independently), then overlay blends it
// source-over on top of each frame.
func overlayFilter(preset Preset) string {
	return fmt.Sprintf(
		"[1:v][0:v]scale2ref[wm][base];[base][wm]overlay=0:0,scale=%d:%d[vout]",
		preset.Width, preset.Height,
	)
}

// overlayArgs builds the full ffmpeg argument list for an overlay export.
// Source audio is mapped through unchanged when present ("0:a?").
func overlayArgs(r *OverlayRequest, outputPath string, preset Preset, optimizeForNetwork bool) []string {
	args := []string{
		"-y",
		"-i", r.VideoPath,
		"-i", r.ImagePath,
		"-filter_complex", overlayFilter(preset),
		"-map", "[vout]",
		"-map", "0:a?",
		"-c:v", "libx264",
		"-c:a", "aac",
	}
	if optimizeForNetwork {
		args = append(args, "-movflags", "+faststart")
	}
	args = append(args, "-f", "mov", outputPath)
	return args
}
