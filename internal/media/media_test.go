package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/memorio/memorio/internal/errors"
)

// fakeRunner records invocations and returns canned output.
type fakeRunner struct {
	mu     sync.Mutex
	calls  [][]string
	output []byte
	err    error
}

func (r *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	call := append([]string{name}, args...)
	r.calls = append(r.calls, call)
	return r.output, r.err
}

func (r *fakeRunner) lastCall() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return nil
	}
	return r.calls[len(r.calls)-1]
}

// fakeProber returns per-path probe results.
type fakeProber struct {
	infos map[string]Info
	errs  map[string]error
}

func (p *fakeProber) Probe(ctx context.Context, path string) (Info, error) {
	if err, ok := p.errs[path]; ok {
		return Info{}, err
	}
	return p.infos[path], nil
}

func TestParsePreset(t *testing.T) {
	p, err := ParsePreset("1280x720")
	if err != nil {
		t.Fatalf("ParsePreset() error = %v", err)
	}
	if p.Width != 1280 || p.Height != 720 {
		t.Errorf("preset = %dx%d, want 1280x720", p.Width, p.Height)
	}

	if _, err := ParsePreset("800x600"); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("unknown preset should be INVALID_REQUEST, got %v", err)
	}
}

func TestPresetNamesSorted(t *testing.T) {
	names := PresetNames()
	if len(names) != 5 {
		t.Fatalf("got %d presets, want 5", len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("preset names not sorted: %v", names)
		}
	}
}

func TestBuildTimeline(t *testing.T) {
	prober := &fakeProber{infos: map[string]Info{
		"a0.mov": {Duration: 2 * time.Second, HasAudio: true},
		"a1.mov": {Duration: 3 * time.Second, HasAudio: false},
	}}

	timeline, err := BuildTimeline(context.Background(), prober, []string{"a0.mov", "a1.mov"})
	if err != nil {
		t.Fatalf("BuildTimeline() error = %v", err)
	}

	if len(timeline.Segments) != 2 {
		t.Fatalf("got %d segments, want 2", len(timeline.Segments))
	}
	if timeline.Duration != 5*time.Second {
		t.Errorf("Duration = %v, want 5s", timeline.Duration)
	}
	if !timeline.Rotate90 {
		t.Errorf("Rotate90 = false, want true")
	}
	if timeline.Segments[1].Index != 1 || timeline.Segments[1].HasAudio {
		t.Errorf("segment 1 = %+v", timeline.Segments[1])
	}
}

func TestBuildTimelineEmpty(t *testing.T) {
	_, err := BuildTimeline(context.Background(), &fakeProber{}, nil)
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected INVALID_REQUEST, got %v", err)
	}
}

func TestBuildTimelineProbeFailureNamesSegment(t *testing.T) {
	prober := &fakeProber{
		infos: map[string]Info{"a0.mov": {Duration: time.Second, HasAudio: true}},
		errs:  map[string]error{"a1.mov": fmt.Errorf("corrupt header")},
	}

	_, err := BuildTimeline(context.Background(), prober, []string{"a0.mov", "a1.mov"})
	if !errors.Is(err, errors.ErrInputInvalid) {
		t.Fatalf("expected INPUT_INVALID, got %v", err)
	}
	if !strings.Contains(err.Error(), "segment 1") {
		t.Errorf("error should name the failing segment: %v", err)
	}
}

func TestBuildTimelineZeroDuration(t *testing.T) {
	prober := &fakeProber{infos: map[string]Info{"a0.mov": {Duration: 0}}}

	_, err := BuildTimeline(context.Background(), prober, []string{"a0.mov"})
	if !errors.Is(err, errors.ErrInputInvalid) {
		t.Errorf("expected INPUT_INVALID for zero duration, got %v", err)
	}
}

func TestConcatFilterAllAudio(t *testing.T) {
	timeline := &Timeline{
		Segments: []SegmentInfo{
			{Index: 0, Path: "a0.mov", Duration: time.Second, HasAudio: true},
			{Index: 1, Path: "a1.mov", Duration: time.Second, HasAudio: true},
		},
		Rotate90: true,
	}
	preset := Preset{Width: 1280, Height: 720}

	got := concatFilter(timeline, preset)
	want := "[0:v][0:a][1:v][1:a]concat=n=2:v=1:a=1[vcat][aout];[vcat]transpose=1,scale=1280:720[vout]"
	if got != want {
		t.Errorf("concatFilter =\n%s\nwant\n%s", got, want)
	}
}

func TestConcatFilterSilencePadding(t *testing.T) {
	timeline := &Timeline{
		Segments: []SegmentInfo{
			{Index: 0, Path: "a0.mov", Duration: 1500 * time.Millisecond, HasAudio: false},
			{Index: 1, Path: "a1.mov", Duration: time.Second, HasAudio: true},
		},
		Rotate90: true,
	}
	preset := Preset{Width: 640, Height: 480}

	got := concatFilter(timeline, preset)

	// Audioless segment gets silence of exactly its duration
	if !strings.Contains(got, "anullsrc=channel_layout=stereo:sample_rate=44100,atrim=duration=1.500[sil0];") {
		t.Errorf("missing silence pad for segment 0:\n%s", got)
	}
	if !strings.Contains(got, "[0:v][sil0][1:v][1:a]concat=n=2:v=1:a=1[vcat][aout]") {
		t.Errorf("silence label not wired into concat:\n%s", got)
	}
}

func TestConcatFilterNoRotation(t *testing.T) {
	timeline := &Timeline{
		Segments: []SegmentInfo{{Index: 0, Path: "a0.mov", Duration: time.Second, HasAudio: true}},
	}
	got := concatFilter(timeline, Preset{Width: 640, Height: 480})
	if strings.Contains(got, "transpose") {
		t.Errorf("unrotated timeline should not transpose:\n%s", got)
	}
}

func TestConcatArgs(t *testing.T) {
	timeline := &Timeline{
		Segments: []SegmentInfo{
			{Index: 0, Path: "a0.mov", Duration: time.Second, HasAudio: true},
			{Index: 1, Path: "a1.mov", Duration: time.Second, HasAudio: true},
		},
		Rotate90: true,
	}

	args := concatArgs(timeline, "out.mov", Preset{Width: 1280, Height: 720}, true)
	joined := strings.Join(args, " ")

	if !strings.HasPrefix(joined, "-y -i a0.mov -i a1.mov -filter_complex ") {
		t.Errorf("unexpected arg head: %s", joined)
	}
	for _, want := range []string{
		"-map [vout]", "-map [aout]",
		"-c:v libx264", "-c:a aac",
		"-movflags +faststart",
		"-f mov out.mov",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q: %s", want, joined)
		}
	}

	// faststart only when asked
	plain := strings.Join(concatArgs(timeline, "out.mov", Preset{Width: 1280, Height: 720}, false), " ")
	if strings.Contains(plain, "faststart") {
		t.Errorf("faststart present without optimize: %s", plain)
	}
}

func TestOverlayOutputPath(t *testing.T) {
	req := &OverlayRequest{VideoPath: "/media/abc123_.mov"}
	if got := req.OutputPath(); got != "/media/abc123___.mov" {
		t.Errorf("OutputPath = %q, want /media/abc123___.mov", got)
	}

	req = &OverlayRequest{VideoPath: "/media/clip.mov", OutputDir: "/exports"}
	if got := req.OutputPath(); got != filepath.Join("/exports", "clip__.mov") {
		t.Errorf("OutputPath = %q", got)
	}
}

func TestOverlayFilter(t *testing.T) {
	got := overlayFilter(Preset{Width: 1920, Height: 1080})
	want := "[1:v][0:v]scale2ref[wm][base];[base][wm]overlay=0:0,scale=1920:1080[vout]"
	if got != want {
		t.Errorf("overlayFilter = %q, want %q", got, want)
	}
}

func TestOverlayArgs(t *testing.T) {
	req := &OverlayRequest{VideoPath: "in.mov", ImagePath: "mark.png"}
	args := overlayArgs(req, "out.mov", Preset{Width: 1280, Height: 720}, false)
	joined := strings.Join(args, " ")

	if !strings.HasPrefix(joined, "-y -i in.mov -i mark.png -filter_complex ") {
		t.Errorf("unexpected arg head: %s", joined)
	}
	// Source audio passes through when present
	if !strings.Contains(joined, "-map 0:a?") {
		t.Errorf("args missing optional audio map: %s", joined)
	}
	if !strings.Contains(joined, "-f mov out.mov") {
		t.Errorf("args missing output: %s", joined)
	}
}

func TestExportDeliversExactlyOneResult(t *testing.T) {
	runner := &fakeRunner{}
	exporter := &Exporter{Runner: runner, Log: zerolog.Nop()}

	out := filepath.Join(t.TempDir(), "out.mov")
	done := exporter.Export(context.Background(), Job{
		Source:     "in.mov",
		OutputPath: out,
		Preset:     Preset{Name: "1280x720", Width: 1280, Height: 720},
	})

	result, ok := <-done
	if !ok {
		t.Fatalf("channel closed without a result")
	}
	if result.Err != nil {
		t.Fatalf("Export error = %v", result.Err)
	}
	if result.Path != out {
		t.Errorf("Path = %q, want %q", result.Path, out)
	}

	select {
	case extra, open := <-done:
		if open {
			t.Errorf("received second result: %+v", extra)
		}
	default:
		// exactly one buffered result, nothing more
	}
}

func TestExportOverwritesExistingOutput(t *testing.T) {
	runner := &fakeRunner{}
	exporter := &Exporter{Runner: runner, Log: zerolog.Nop()}

	out := filepath.Join(t.TempDir(), "out.mov")
	if err := os.WriteFile(out, []byte("stale"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	result := <-exporter.Export(context.Background(), Job{
		Source:     "in.mov",
		OutputPath: out,
		Preset:     Preset{Width: 1280, Height: 720},
	})
	if result.Err != nil {
		t.Fatalf("Export error = %v", result.Err)
	}

	// The stale file was removed before the transcode ran; with a fake
	// runner nothing recreates it.
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Errorf("pre-existing output not cleared")
	}
}

func TestExportToolFailure(t *testing.T) {
	runner := &fakeRunner{err: fmt.Errorf("exit status 1")}
	exporter := &Exporter{Runner: runner, Log: zerolog.Nop()}

	result := <-exporter.Export(context.Background(), Job{
		Source:     "in.mov",
		OutputPath: filepath.Join(t.TempDir(), "out.mov"),
		Preset:     Preset{Width: 1280, Height: 720},
	})
	if !errors.Is(result.Err, errors.ErrExportFailed) {
		t.Errorf("expected EXPORT_FAILED, got %v", result.Err)
	}
}

func TestExportValidation(t *testing.T) {
	exporter := &Exporter{Runner: &fakeRunner{}, Log: zerolog.Nop()}
	ctx := context.Background()

	result := <-exporter.Export(ctx, Job{OutputPath: "out.mov"})
	if !errors.Is(result.Err, errors.ErrInvalidRequest) {
		t.Errorf("empty job should be INVALID_REQUEST, got %v", result.Err)
	}

	result = <-exporter.Export(ctx, Job{
		Timeline:   &Timeline{Segments: []SegmentInfo{{Path: "a.mov"}}},
		Source:     "b.mov",
		OutputPath: "out.mov",
	})
	if !errors.Is(result.Err, errors.ErrInvalidRequest) {
		t.Errorf("timeline+source job should be INVALID_REQUEST, got %v", result.Err)
	}

	result = <-exporter.Export(ctx, Job{Source: "in.mov"})
	if !errors.Is(result.Err, errors.ErrInvalidRequest) {
		t.Errorf("missing output path should be INVALID_REQUEST, got %v", result.Err)
	}
}

func TestExportOverlayRemovesOriginal(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "clip.mov")
	if err := os.WriteFile(source, []byte("source"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	runner := &fakeRunner{}
	exporter := &Exporter{Runner: runner, Log: zerolog.Nop()}

	req := &OverlayRequest{
		VideoPath:      source,
		ImagePath:      filepath.Join(dir, "mark.png"),
		RemoveOriginal: true,
	}
	result := <-exporter.ExportOverlay(context.Background(), req, Preset{Width: 1280, Height: 720})
	if result.Err != nil {
		t.Fatalf("ExportOverlay error = %v", result.Err)
	}
	if result.Path != req.OutputPath() {
		t.Errorf("Path = %q, want %q", result.Path, req.OutputPath())
	}
	if _, err := os.Stat(source); !os.IsNotExist(err) {
		t.Errorf("original not removed after successful overlay export")
	}
}

func TestExportOverlayKeepsOriginalOnFailure(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "clip.mov")
	if err := os.WriteFile(source, []byte("source"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	runner := &fakeRunner{err: fmt.Errorf("boom")}
	exporter := &Exporter{Runner: runner, Log: zerolog.Nop()}

	req := &OverlayRequest{VideoPath: source, ImagePath: "mark.png", RemoveOriginal: true}
	result := <-exporter.ExportOverlay(context.Background(), req, Preset{Width: 1280, Height: 720})
	if result.Err == nil {
		t.Fatalf("expected failure")
	}
	if _, err := os.Stat(source); err != nil {
		t.Errorf("original must survive a failed export")
	}
}

func TestCleanupSegments(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		filepath.Join(dir, "a0.mov"),
		filepath.Join(dir, "a1.mov"),
	}
	for _, p := range paths {
		if err := os.WriteFile(p, []byte("x"), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	exporter := &Exporter{Log: zerolog.Nop()}
	// A missing file mixed in must not abort the sweep
	exporter.CleanupSegments(append([]string{filepath.Join(dir, "gone.mov")}, paths...))

	for _, p := range paths {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("segment %s not cleaned up", p)
		}
	}
}
