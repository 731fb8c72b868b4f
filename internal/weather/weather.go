// Package weather fetches current conditions from OpenWeather for weather
// memories.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/memorio/memorio/internal/errors"
	"github.com/memorio/memorio/internal/memory"
)

// DefaultBaseURL is the OpenWeather current-conditions endpoint.
const DefaultBaseURL = "https://api.openweathermap.org/data/2.5/weather"

// Client queries OpenWeather.
type Client struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a Client with sane defaults.
func NewClient(apiKey string) *Client {
	return &Client{
		APIKey:     apiKey,
		BaseURL:    DefaultBaseURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// response mirrors the subset of the OpenWeather payload we consume.
type response struct {
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp     float64 `json:"temp"`
		Pressure float64 `json:"pressure"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Name string `json:"name"`
}

// Current fetches current conditions at the given coordinate and maps them to
// a weather memory payload.
func (c *Client) Current(ctx context.Context, lat, lon float64) (*memory.WeatherPayload, error) {
	if c.APIKey == "" {
		return nil, errors.NewInvalidRequest("weather API key is not configured")
	}
	baseURL := c.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	query := url.Values{}
	query.Set("lat", fmt.Sprintf("%f", lat))
	query.Set("lon", fmt.Sprintf("%f", lon))
	query.Set("units", "metric")
	query.Set("appid", c.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("weather request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, errors.NewInternal(fmt.Errorf("weather request: status %d: %s", resp.StatusCode, body))
	}

	var parsed response
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("weather response: %w", err))
	}

	payload := &memory.WeatherPayload{
		Temp:         fmt.Sprintf("%.1f", parsed.Main.Temp),
		Humidity:     fmt.Sprintf("%.0f", parsed.Main.Humidity),
		Wind:         fmt.Sprintf("%.1f", parsed.Wind.Speed),
		Pressure:     fmt.Sprintf("%.0f", parsed.Main.Pressure),
		LocationName: parsed.Name,
		Condition:    memory.WeatherNone,
	}
	if len(parsed.Weather) > 0 {
		payload.Condition = MapCondition(parsed.Weather[0].Main)
		payload.Description = parsed.Weather[0].Description
	}

	return payload, nil
}

// MapCondition buckets an OpenWeather "main" string into a display condition.
func MapCondition(main string) memory.WeatherCondition {
	switch main {
	case "Clouds", "Squall":
		return memory.WeatherCloudy
	case "Clear":
		return memory.WeatherSunny
	case "Mist", "Fog", "Haze":
		return memory.WeatherMist
	case "Dust", "Sand", "Smoke", "Ash":
		return memory.WeatherFog
	case "Tornado":
		return memory.WeatherTornado
	case "Snow":
		return memory.WeatherSnow
	case "Rain", "Drizzle":
		return memory.WeatherRain
	case "Thunderstorm":
		return memory.WeatherThunder
	default:
		return memory.WeatherNone
	}
}
