// Package capture owns the video capture session: device discovery, the
// segment recorder state machine, camera switching mid-recording, and the
// zoom/flash/focus controls. The actual device I/O sits behind the Backend
// interface so the session logic is testable without hardware.
package capture

import "context"

// Position is the physical facing of a camera.
type Position int

const (
	PositionRear Position = iota
	PositionFront
)

// String returns the lowercase name of the position.
func (p Position) String() string {
	if p == PositionFront {
		return "front"
	}
	return "rear"
}

// Opposite returns the other facing.
func (p Position) Opposite() Position {
	if p == PositionFront {
		return PositionRear
	}
	return PositionFront
}

// FlashMode is the tri-state flash setting for still captures.
type FlashMode int

const (
	FlashAuto FlashMode = iota
	FlashOn
	FlashOff
)

// String returns the lowercase name of the flash mode.
func (f FlashMode) String() string {
	switch f {
	case FlashOn:
		return "on"
	case FlashOff:
		return "off"
	default:
		return "auto"
	}
}

// Next cycles auto -> on -> off -> auto.
func (f FlashMode) Next() FlashMode {
	switch f {
	case FlashAuto:
		return FlashOn
	case FlashOn:
		return FlashOff
	default:
		return FlashAuto
	}
}

// State is the segment recorder state.
type State int

const (
	StateNone State = iota
	StateStart
	StateCapturing
	StateEnd
)

// String returns the lowercase name of the state.
func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateCapturing:
		return "capturing"
	case StateEnd:
		return "end"
	default:
		return "none"
	}
}

// Camera describes one capture device.
type Camera interface {
	// ID uniquely identifies the device to the backend.
	ID() string
	// Position is the device facing.
	Position() Position
	// MaxZoom is the maximum zoom factor the device supports (>= 1.0).
	MaxZoom() float64
}

// Backend abstracts the platform capture stack.
type Backend interface {
	// Cameras discovers the available capture devices.
	Cameras(ctx context.Context) ([]Camera, error)
	// Open wires up the given camera (and the default microphone) and
	// returns an input ready to record.
	Open(ctx context.Context, cam Camera) (Input, error)
}

// Input is an opened capture device connection.
type Input interface {
	// StartRecording begins writing a segment to path.
	StartRecording(ctx context.Context, path string) (Recording, error)
	// CaptureStill captures a single frame to path with the given flash mode.
	CaptureStill(ctx context.Context, path string, flash FlashMode) error
	// SetZoom applies an absolute zoom factor. Unsupported backends may
	// return an error; the session swallows it.
	SetZoom(factor float64) error
	// Focus sets the focus and exposure point of interest (normalized
	// coordinates). Unsupported backends may return an error.
	Focus(x, y float64) error
	// Close releases the device.
	Close() error
}

// Recording is one in-flight segment.
type Recording interface {
	// Stop finishes the segment. It returns after the file is finalized.
	Stop() error
}

// Segment is one finished continuous recording span.
type Segment struct {
	Index int    `json:"index"`
	Path  string `json:"path"`
}
