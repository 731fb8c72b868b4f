package memory

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Feeling is one of the closed set of moods a feeling memory can record.
type Feeling string

const (
	FeelingHappy    Feeling = "happy"
	FeelingSad      Feeling = "sad"
	FeelingStressed Feeling = "stressed"
	FeelingAnxious  Feeling = "anxious"
	FeelingFabulous Feeling = "fabulous"
	FeelingAngry    Feeling = "angry"
)

// Feelings lists all valid feelings in display order.
var Feelings = []Feeling{
	FeelingHappy, FeelingSad, FeelingStressed,
	FeelingAnxious, FeelingFabulous, FeelingAngry,
}

// Emoji returns the emoji shown for the feeling.
func (f Feeling) Emoji() string {
	switch f {
	case FeelingHappy:
		return "😊"
	case FeelingSad:
		return "😞"
	case FeelingStressed:
		return "😬"
	case FeelingAnxious:
		return "😰"
	case FeelingFabulous:
		return "🤩"
	case FeelingAngry:
		return "😡"
	default:
		return ""
	}
}

// ParseFeeling parses a feeling name (case-insensitive).
func ParseFeeling(s string) (Feeling, error) {
	f := Feeling(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Feelings {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown feeling: %q", s)
}

// Coordinate is a WGS84 point.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// FeelingPayload is the Data payload of a feeling memory.
type FeelingPayload struct {
	Feeling Feeling `json:"feeling"`
}

// LocationPayload is the Data payload of a location memory.
type LocationPayload struct {
	Coordinate Coordinate `json:"coordinate"`
	Name       string     `json:"name,omitempty"`
}

// WeatherCondition is the coarse condition bucket shown for a weather memory.
type WeatherCondition string

const (
	WeatherCloudy  WeatherCondition = "cloudy"
	WeatherFog     WeatherCondition = "fog"
	WeatherMist    WeatherCondition = "mist"
	WeatherRain    WeatherCondition = "rain"
	WeatherSnow    WeatherCondition = "snow"
	WeatherSunny   WeatherCondition = "sunny"
	WeatherThunder WeatherCondition = "thunder"
	WeatherTornado WeatherCondition = "tornado"
	WeatherNone    WeatherCondition = "none"
)

// WeatherPayload is the Data payload of a weather memory.
type WeatherPayload struct {
	Temp         string           `json:"temp"`
	Condition    WeatherCondition `json:"condition"`
	Description  string           `json:"description"`
	Humidity     string           `json:"humidity"`
	Wind         string           `json:"wind"`
	Pressure     string           `json:"pressure"`
	LocationName string           `json:"location_name"`
}

// MediaType distinguishes photo and video media memories.
type MediaType string

const (
	MediaPhoto MediaType = "photo"
	MediaVideo MediaType = "video"
)

// MediaPayload is the Data payload of a media memory.
// Videos store only the file name; the file lives under the media directory,
// so moving the base directory does not orphan entries.
type MediaPayload struct {
	Type          MediaType `json:"type"`
	ImagePath     string    `json:"image_path,omitempty"`
	VideoFileName string    `json:"video_file_name,omitempty"`
}

// EncodePayload marshals a structured payload for storage in Memory.Data.
func EncodePayload(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return data, nil
}

// DecodeMediaPayload unmarshals and validates a media payload.
func DecodeMediaPayload(data []byte) (*MediaPayload, error) {
	var p MediaPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode media payload: %w", err)
	}
	switch p.Type {
	case MediaPhoto:
		if p.ImagePath == "" {
			return nil, fmt.Errorf("photo payload missing image_path")
		}
	case MediaVideo:
		if p.VideoFileName == "" {
			return nil, fmt.Errorf("video payload missing video_file_name")
		}
	default:
		return nil, fmt.Errorf("unknown media type: %q", p.Type)
	}
	return &p, nil
}

// DecodeFeelingPayload unmarshals and validates a feeling payload.
func DecodeFeelingPayload(data []byte) (*FeelingPayload, error) {
	var p FeelingPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode feeling payload: %w", err)
	}
	if _, err := ParseFeeling(string(p.Feeling)); err != nil {
		return nil, err
	}
	return &p, nil
}

// DecodeWeatherPayload unmarshals a weather payload.
func DecodeWeatherPayload(data []byte) (*WeatherPayload, error) {
	var p WeatherPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode weather payload: %w", err)
	}
	return &p, nil
}

// DecodeLocationPayload unmarshals a location payload.
func DecodeLocationPayload(data []byte) (*LocationPayload, error) {
	var p LocationPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode location payload: %w", err)
	}
	return &p, nil
}
