package capture

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/memorio/memorio/internal/errors"
)

// Session is one capture session: it owns the device connection, the flash
// and zoom state, and the ordered segment list. It is created when the
// recording UI opens and discarded when the recording is finalized or
// cancelled. A Session is safe for concurrent use; the segment list has a
// single writer (the session itself, under its lock).
type Session struct {
	mu sync.Mutex

	backend Backend
	log     zerolog.Logger

	dir    string
	prefix string

	front Camera
	rear  Camera

	active    Camera
	input     Input
	recording Recording
	current   string // path of the in-flight segment

	running  bool
	state    State
	flash    FlashMode
	zoom     float64
	segments []Segment
}

// NewSession creates a session writing segments under dir. The file-name
// prefix is UUID-seeded so segment paths are unique per session.
func NewSession(backend Backend, dir string, log zerolog.Logger) *Session {
	return &Session{
		backend: backend,
		log:     log,
		dir:     dir,
		prefix:  strings.ReplaceAll(uuid.NewString(), "-", ""),
		flash:   FlashAuto,
		zoom:    1.0,
	}
}

// Prefix returns the session's file-name prefix.
func (s *Session) Prefix() string {
	return s.prefix
}

// State returns the current recorder state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Flash returns the current flash mode.
func (s *Session) Flash() FlashMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flash
}

// ToggleFlash cycles the flash mode auto -> on -> off -> auto. The mode is
// only applied at the next still capture, not live on the preview.
func (s *Session) ToggleFlash() FlashMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flash = s.flash.Next()
	return s.flash
}

// ActivePosition returns the facing of the active camera, and whether one is active.
func (s *Session) ActivePosition() (Position, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return PositionRear, false
	}
	return s.active.Position(), true
}

// Segments returns a copy of the finished segment list.
func (s *Session) Segments() []Segment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Segment, len(s.segments))
	copy(out, s.segments)
	return out
}

// MergedOutputPath is where the composite of this session's segments goes.
func (s *Session) MergedOutputPath() string {
	return filepath.Join(s.dir, s.prefix+"_.mov")
}

// Prepare discovers devices, selects the rear camera by preference (falling
// back to front), wires the input, and marks the session running. On failure
// the session is left unstarted.
func (s *Session) Prepare(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cameras, err := s.backend.Cameras(ctx)
	if err != nil {
		return errors.NewDeviceUnavailable("device discovery failed", err)
	}
	if len(cameras) == 0 {
		return errors.NewNoCamerasAvailable()
	}

	for _, cam := range cameras {
		switch cam.Position() {
		case PositionFront:
			if s.front == nil {
				s.front = cam
			}
		case PositionRear:
			if s.rear == nil {
				s.rear = cam
			}
		}
	}

	selected := s.rear
	if selected == nil {
		selected = s.front
	}
	if selected == nil {
		return errors.NewNoCamerasAvailable()
	}

	input, err := s.backend.Open(ctx, selected)
	if err != nil {
		return errors.NewInputInvalid("failed to wire device input", err)
	}

	s.active = selected
	s.input = input
	s.running = true
	s.state = StateNone
	return nil
}

// segmentPath returns the deterministic path of segment index i.
func (s *Session) segmentPath(i int) string {
	return filepath.Join(s.dir, s.prefix+strconv.Itoa(i)+".mov")
}

// StartRecording opens a new segment file and begins writing.
func (s *Session) StartRecording(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return errors.NewSessionMissing()
	}
	if s.state == StateCapturing {
		return errors.NewInvalidOperation("already recording")
	}

	s.state = StateStart
	if err := s.startSegmentLocked(ctx); err != nil {
		s.state = StateNone
		return err
	}
	s.state = StateCapturing
	return nil
}

// startSegmentLocked begins the next segment. Callers hold s.mu.
func (s *Session) startSegmentLocked(ctx context.Context) error {
	path := s.segmentPath(len(s.segments))

	// Overwrite semantics: any leftover file at the deterministic path goes first.
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.NewFileSystem("failed to clear segment path", err)
	}

	rec, err := s.input.StartRecording(ctx, path)
	if err != nil {
		return errors.NewDeviceUnavailable("failed to start recording", err)
	}
	s.recording = rec
	s.current = path
	return nil
}

// stopSegmentLocked finalizes the in-flight segment and appends it to the
// segment list. Callers hold s.mu.
func (s *Session) stopSegmentLocked() error {
	if s.recording == nil {
		return nil
	}
	err := s.recording.Stop()
	s.recording = nil
	if err != nil {
		return errors.NewDeviceUnavailable("failed to stop recording", err)
	}
	s.segments = append(s.segments, Segment{Index: len(s.segments), Path: s.current})
	s.current = ""
	return nil
}

// StopRecording finalizes the current segment and returns the full ordered
// segment list for merging.
func (s *Session) StopRecording() ([]Segment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil, errors.NewSessionMissing()
	}
	if s.state != StateCapturing {
		return nil, errors.NewInvalidOperation("not recording")
	}

	s.state = StateEnd
	if err := s.stopSegmentLocked(); err != nil {
		return nil, err
	}

	out := make([]Segment, len(s.segments))
	copy(out, s.segments)
	return out, nil
}

// SwitchCamera swaps the active input for the opposite facing camera without
// rebuilding the session. If a recording is in flight, the current segment is
// finalized first and a new segment starts immediately after the swap, so
// recording is continuous from the caller's perspective.
func (s *Session) SwitchCamera(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || s.input == nil {
		return errors.NewSessionMissing()
	}

	var next Camera
	switch s.active.Position() {
	case PositionRear:
		next = s.front
	case PositionFront:
		next = s.rear
	}
	if next == nil {
		return errors.NewInvalidOperation("no camera with opposite facing")
	}

	wasCapturing := s.state == StateCapturing

	// Ordering matters: the segment stop must complete and its path must be
	// appended before the new input is wired, or the file reference is lost.
	if wasCapturing {
		if err := s.stopSegmentLocked(); err != nil {
			return err
		}
	}

	if err := s.input.Close(); err != nil {
		s.log.Warn().Err(err).Msg("failed to close input during camera switch")
	}
	s.input = nil

	input, err := s.backend.Open(ctx, next)
	if err != nil {
		s.running = false
		return errors.NewInputInvalid("failed to wire switched input", err)
	}
	s.input = input
	s.active = next

	// Re-clamp zoom against the new device's bounds.
	s.zoom = clamp(s.zoom, 1.0, next.MaxZoom())

	if wasCapturing {
		if err := s.startSegmentLocked(ctx); err != nil {
			s.state = StateEnd
			return err
		}
	}
	return nil
}

// Cancel aborts the session, deleting every accumulated segment file.
// Cleanup is best-effort; failures are logged and swallowed.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = StateNone

	if s.recording != nil {
		if err := s.recording.Stop(); err != nil {
			s.log.Warn().Err(err).Msg("failed to stop recording on cancel")
		}
		s.recording = nil
	}
	if s.current != "" {
		s.removeQuiet(s.current)
		s.current = ""
	}
	for _, seg := range s.segments {
		s.removeQuiet(seg.Path)
	}
	s.segments = nil
}

// Close releases the device input. The session cannot be reused afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.input != nil {
		if err := s.input.Close(); err != nil {
			s.log.Warn().Err(err).Msg("failed to close input")
		}
		s.input = nil
	}
	s.running = false
}

// Zoom applies a zoom delta, clamping the resulting factor into
// [1.0, camera max]. Without an active camera this is a silent no-op, and
// backend errors are swallowed: transient zoom failures must not interrupt
// the capture flow.
func (s *Session) Zoom(delta float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil || s.input == nil {
		return
	}

	s.zoom = clamp(s.zoom+delta, 1.0, s.active.MaxZoom())
	if err := s.input.SetZoom(s.zoom); err != nil {
		s.log.Debug().Err(err).Float64("factor", s.zoom).Msg("zoom not applied")
	}
}

// ZoomTo maps a gesture-derived amount within [0, maxAmount] onto the
// device's zoom range and applies it, clamped like Zoom.
func (s *Session) ZoomTo(amount, maxAmount float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil || s.input == nil || maxAmount <= 0 {
		return
	}

	desired := ((maxAmount - amount) / maxAmount) * s.active.MaxZoom()
	s.zoom = clamp(desired, 1.0, s.active.MaxZoom())
	if err := s.input.SetZoom(s.zoom); err != nil {
		s.log.Debug().Err(err).Float64("factor", s.zoom).Msg("zoom not applied")
	}
}

// ZoomFactor returns the current zoom factor.
func (s *Session) ZoomFactor() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.zoom
}

// Focus sets the focus and exposure point of interest to the given
// normalized point (clamped to the unit square). Failures are swallowed.
func (s *Session) Focus(x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.input == nil {
		return
	}
	if err := s.input.Focus(clamp(x, 0, 1), clamp(y, 0, 1)); err != nil {
		s.log.Debug().Err(err).Msg("focus not applied")
	}
}

// CaptureStill captures a single frame to path using the stored flash mode.
func (s *Session) CaptureStill(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || s.input == nil {
		return errors.NewSessionMissing()
	}
	return s.input.CaptureStill(ctx, path, s.flash)
}

// removeQuiet deletes a file, logging (not returning) failures. Callers hold s.mu.
func (s *Session) removeQuiet(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.log.Warn().Err(err).Str("path", path).Msg("failed to remove segment file")
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
