package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// DefaultExportPreset is the export resolution used when nothing is configured.
// Matches the capture session preset, so merge-only exports do not upscale.
const DefaultExportPreset = "1280x720"

// Config holds application configuration.
type Config struct {
	// ExportPreset selects the export quality preset by name.
	// Must be one of the presets known to internal/media (e.g. "1280x720", "3840x2160").
	ExportPreset string `json:"export_preset,omitempty"`

	// OptimizeForNetwork enables network-optimized output (moves the index
	// atom to the front of the container). Off by default, as in the app.
	OptimizeForNetwork bool `json:"optimize_for_network,omitempty"`

	// FFmpegPath and FFprobePath override binary lookup on PATH.
	FFmpegPath  string `json:"ffmpeg_path,omitempty"`
	FFprobePath string `json:"ffprobe_path,omitempty"`

	// WeatherAPIKey is the OpenWeather API key for weather memories.
	WeatherAPIKey string `json:"weather_api_key,omitempty"`

	// WeatherBaseURL overrides the OpenWeather endpoint (used by tests).
	WeatherBaseURL string `json:"weather_base_url,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// If set to 1, all database access is serialized (reduces "database is locked" errors).
	// 0 means use sql.DB default.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	// 0 means use sql.DB default. Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ExportPreset: DefaultExportPreset,
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.memorio.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Save writes the configuration to baseDir/config.json.
// Used by the settings command when the user changes the export preset.
func Save(baseDir string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(baseDir, "config.json"), append(data, '\n'), 0600)
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.ExportPreset = overlay.ExportPreset
	if result.ExportPreset == "" {
		result.ExportPreset = base.ExportPreset
	}

	result.FFmpegPath = overlay.FFmpegPath
	if result.FFmpegPath == "" {
		result.FFmpegPath = base.FFmpegPath
	}

	result.FFprobePath = overlay.FFprobePath
	if result.FFprobePath == "" {
		result.FFprobePath = base.FFprobePath
	}

	result.WeatherAPIKey = overlay.WeatherAPIKey
	if result.WeatherAPIKey == "" {
		result.WeatherAPIKey = base.WeatherAPIKey
	}

	result.WeatherBaseURL = overlay.WeatherBaseURL
	if result.WeatherBaseURL == "" {
		result.WeatherBaseURL = base.WeatherBaseURL
	}

	result.DBMaxOpenConns = overlay.DBMaxOpenConns
	if result.DBMaxOpenConns == 0 {
		result.DBMaxOpenConns = base.DBMaxOpenConns
	}

	result.DBMaxIdleConns = overlay.DBMaxIdleConns
	if result.DBMaxIdleConns == 0 {
		result.DBMaxIdleConns = base.DBMaxIdleConns
	}

	// Booleans: overlay wins if true, else base
	result.OptimizeForNetwork = base.OptimizeForNetwork || overlay.OptimizeForNetwork

	// Arrays: merge and deduplicate
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
