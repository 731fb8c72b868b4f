package capture

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// FFmpegBackend records through an ffmpeg process per segment. Camera
// discovery and input formats are platform-specific; zoom and focus are not
// controllable through ffmpeg's device inputs and report an error the
// session swallows.
type FFmpegBackend struct {
	// FFmpeg is the ffmpeg binary path; defaults to "ffmpeg" on PATH.
	FFmpeg string
	// Framerate for capture; defaults to 30.
	Framerate int
	// GOOS override for tests; defaults to runtime.GOOS.
	GOOS string

	Log zerolog.Logger
}

// ffmpegCamera is a discovered device.
type ffmpegCamera struct {
	id       string
	name     string
	position Position
}

func (c *ffmpegCamera) ID() string         { return c.id }
func (c *ffmpegCamera) Position() Position { return c.position }

// MaxZoom is 1.0: ffmpeg device inputs expose no zoom control, so the
// session's clamp pins the factor at 1.
func (c *ffmpegCamera) MaxZoom() float64 { return 1.0 }

func (b *FFmpegBackend) binary() string {
	if b.FFmpeg != "" {
		return b.FFmpeg
	}
	return "ffmpeg"
}

func (b *FFmpegBackend) goos() string {
	if b.GOOS != "" {
		return b.GOOS
	}
	return runtime.GOOS
}

// inputFormat returns the ffmpeg device demuxer for the platform.
func (b *FFmpegBackend) inputFormat() (string, error) {
	switch b.goos() {
	case "darwin":
		return "avfoundation", nil
	case "linux":
		return "v4l2", nil
	case "windows":
		return "dshow", nil
	default:
		return "", fmt.Errorf("no capture input format for %s", b.goos())
	}
}

// Cameras discovers capture devices. On darwin it parses ffmpeg's
// -list_devices output; on linux it globs /dev/video*.
func (b *FFmpegBackend) Cameras(ctx context.Context) ([]Camera, error) {
	switch b.goos() {
	case "darwin":
		return b.darwinCameras(ctx)
	case "linux":
		return b.linuxCameras()
	default:
		return nil, fmt.Errorf("device discovery not supported on %s", b.goos())
	}
}

// avfDeviceRe matches lines like: [AVFoundation ...] [0] FaceTime HD Camera
var avfDeviceRe = regexp.MustCompile(`\[(\d+)\]\s+(.+)$`)

func (b *FFmpegBackend) darwinCameras(ctx context.Context) ([]Camera, error) {
	// -list_devices exits non-zero by design; the listing is on stderr.
	cmd := exec.CommandContext(ctx, b.binary(), "-f", "avfoundation", "-list_devices", "true", "-i", "")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	_ = cmd.Run()

	return parseAVFoundationDevices(&stderr), nil
}

// parseAVFoundationDevices extracts the video device entries from ffmpeg's
// -list_devices stderr listing.
func parseAVFoundationDevices(r io.Reader) []Camera {
	cameras := make([]Camera, 0)
	inVideo := false
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(line, "video devices") {
			inVideo = true
			continue
		}
		if strings.Contains(line, "audio devices") {
			inVideo = false
			continue
		}
		if !inVideo {
			continue
		}
		m := avfDeviceRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[2])
		cameras = append(cameras, &ffmpegCamera{
			id:       m[1],
			name:     name,
			position: positionFromName(name),
		})
	}
	return cameras
}

func (b *FFmpegBackend) linuxCameras() ([]Camera, error) {
	paths, err := filepath.Glob("/dev/video*")
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	// No facing metadata on v4l2: treat the first device as the rear
	// (primary) camera and the second as front, matching the usual
	// ordering of built-in webcams plus an external one.
	cameras := make([]Camera, 0, len(paths))
	for i, path := range paths {
		position := PositionRear
		if i > 0 {
			position = PositionFront
		}
		cameras = append(cameras, &ffmpegCamera{id: path, name: path, position: position})
	}
	return cameras, nil
}

// positionFromName guesses facing from the device name.
func positionFromName(name string) Position {
	lower := strings.ToLower(name)
	if strings.Contains(lower, "front") || strings.Contains(lower, "facetime") {
		return PositionFront
	}
	return PositionRear
}

// Open wires the given camera. The returned input launches one ffmpeg
// process per recorded segment.
func (b *FFmpegBackend) Open(_ context.Context, cam Camera) (Input, error) {
	format, err := b.inputFormat()
	if err != nil {
		return nil, err
	}
	framerate := b.Framerate
	if framerate <= 0 {
		framerate = 30
	}
	return &ffmpegInput{
		backend:   b,
		camera:    cam,
		format:    format,
		framerate: framerate,
	}, nil
}

type ffmpegInput struct {
	backend   *FFmpegBackend
	camera    Camera
	format    string
	framerate int
}

// deviceArg is the -i argument for the camera (device index plus default
// microphone on avfoundation, device path on v4l2).
func (in *ffmpegInput) deviceArg() string {
	if in.format == "avfoundation" {
		// "<video>:<audio>"; :default picks the default microphone.
		return in.camera.ID() + ":default"
	}
	return in.camera.ID()
}

func (in *ffmpegInput) StartRecording(ctx context.Context, path string) (Recording, error) {
	args := []string{
		"-y",
		"-f", in.format,
		"-framerate", fmt.Sprintf("%d", in.framerate),
		"-i", in.deviceArg(),
		"-c:v", "libx264",
		"-preset", "ultrafast",
		"-c:a", "aac",
		path,
	}

	cmd := exec.CommandContext(ctx, in.backend.binary(), args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}

	in.backend.Log.Debug().Str("path", path).Str("device", in.camera.ID()).Msg("segment recording started")
	return &ffmpegRecording{cmd: cmd, stdin: stdin}, nil
}

func (in *ffmpegInput) CaptureStill(ctx context.Context, path string, flash FlashMode) error {
	// Flash is a hardware concern ffmpeg cannot drive; record the intent only.
	in.backend.Log.Debug().Str("flash", flash.String()).Msg("capturing still")

	args := []string{
		"-y",
		"-f", in.format,
		"-i", in.deviceArg(),
		"-frames:v", "1",
		path,
	}
	cmd := exec.CommandContext(ctx, in.backend.binary(), args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("still capture failed: %w, output: %s", err, output)
	}
	return nil
}

func (in *ffmpegInput) SetZoom(float64) error {
	return fmt.Errorf("zoom not supported by %s input", in.format)
}

func (in *ffmpegInput) Focus(float64, float64) error {
	return fmt.Errorf("focus not supported by %s input", in.format)
}

func (in *ffmpegInput) Close() error { return nil }

type ffmpegRecording struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
}

// Stop asks ffmpeg to finish gracefully ('q' on stdin flushes the trailer),
// then waits. If ffmpeg ignores the request the process is killed.
func (r *ffmpegRecording) Stop() error {
	_, writeErr := io.WriteString(r.stdin, "q")
	r.stdin.Close()

	done := make(chan error, 1)
	go func() { done <- r.cmd.Wait() }()

	select {
	case err := <-done:
		if writeErr != nil && err == nil {
			return writeErr
		}
		return err
	case <-time.After(5 * time.Second):
		_ = r.cmd.Process.Kill()
		return fmt.Errorf("ffmpeg did not stop, killed")
	}
}
