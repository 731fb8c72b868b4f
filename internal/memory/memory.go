package memory

import (
	"fmt"
	"strings"
)

// Kind identifies what a memory records.
// Wire values match the persisted integer column, so the order is load-bearing.
type Kind int

const (
	KindText Kind = iota
	KindFeeling
	KindLocation
	KindActivity
	KindMedia
	KindWeather
)

var kindNames = map[Kind]string{
	KindText:     "text",
	KindFeeling:  "feeling",
	KindLocation: "location",
	KindActivity: "activity",
	KindMedia:    "media",
	KindWeather:  "weather",
}

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// ParseKind parses a kind name (case-insensitive).
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown memory kind: %q", s)
}

// Memory represents a single journal entry.
type Memory struct {
	// ID is a ULID that uniquely identifies this memory
	ID string `json:"id"`

	// Date is the Unix timestamp the memory is recorded for (not necessarily
	// when it was created; imports may backdate)
	Date int64 `json:"date"`

	// Kind identifies the entry type
	Kind Kind `json:"kind"`

	// Title is an optional human-readable title
	Title *string `json:"title,omitempty"`

	// Content is the main textual content (markdown for text memories)
	Content *string `json:"content,omitempty"`

	// Data holds the JSON-encoded payload for structured kinds
	// (feeling, location, media, weather)
	Data []byte `json:"data,omitempty"`

	// CreatedAt is the Unix timestamp when the memory was created
	CreatedAt int64 `json:"created_at"`

	// UpdatedAt is the Unix timestamp when the memory was last updated
	UpdatedAt int64 `json:"updated_at"`
}
