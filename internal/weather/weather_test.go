package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/memorio/memorio/internal/errors"
	"github.com/memorio/memorio/internal/memory"
)

func TestCurrent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("appid") != "test-key" {
			t.Errorf("appid = %q, want test-key", q.Get("appid"))
		}
		if q.Get("units") != "metric" {
			t.Errorf("units = %q, want metric", q.Get("units"))
		}
		if q.Get("lat") == "" || q.Get("lon") == "" {
			t.Errorf("lat/lon missing from query")
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"weather": [{"main": "Drizzle", "description": "light drizzle"}],
			"main": {"temp": 14.37, "pressure": 1012, "humidity": 81},
			"wind": {"speed": 3.6},
			"name": "Hamburg"
		}`))
	}))
	defer server.Close()

	client := NewClient("test-key")
	client.BaseURL = server.URL

	payload, err := client.Current(context.Background(), 53.55, 9.99)
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}

	if payload.Temp != "14.4" {
		t.Errorf("Temp = %q, want 14.4", payload.Temp)
	}
	if payload.Condition != memory.WeatherRain {
		t.Errorf("Condition = %v, want rain", payload.Condition)
	}
	if payload.Description != "light drizzle" {
		t.Errorf("Description = %q", payload.Description)
	}
	if payload.Humidity != "81" {
		t.Errorf("Humidity = %q, want 81", payload.Humidity)
	}
	if payload.Wind != "3.6" {
		t.Errorf("Wind = %q, want 3.6", payload.Wind)
	}
	if payload.Pressure != "1012" {
		t.Errorf("Pressure = %q, want 1012", payload.Pressure)
	}
	if payload.LocationName != "Hamburg" {
		t.Errorf("LocationName = %q, want Hamburg", payload.LocationName)
	}
}

func TestCurrentMissingAPIKey(t *testing.T) {
	client := NewClient("")
	_, err := client.Current(context.Background(), 0, 0)
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected INVALID_REQUEST, got %v", err)
	}
}

func TestCurrentUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"cod":401,"message":"Invalid API key"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient("bad-key")
	client.BaseURL = server.URL

	if _, err := client.Current(context.Background(), 0, 0); err == nil {
		t.Errorf("expected error on upstream 401")
	}
}

func TestCurrentEmptyWeatherArray(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"weather": [], "main": {"temp": 10}, "name": "Nowhere"}`))
	}))
	defer server.Close()

	client := NewClient("key")
	client.BaseURL = server.URL

	payload, err := client.Current(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if payload.Condition != memory.WeatherNone {
		t.Errorf("Condition = %v, want none", payload.Condition)
	}
}

func TestMapCondition(t *testing.T) {
	tests := []struct {
		main string
		want memory.WeatherCondition
	}{
		{"Clouds", memory.WeatherCloudy},
		{"Squall", memory.WeatherCloudy},
		{"Clear", memory.WeatherSunny},
		{"Mist", memory.WeatherMist},
		{"Fog", memory.WeatherMist},
		{"Haze", memory.WeatherMist},
		{"Dust", memory.WeatherFog},
		{"Sand", memory.WeatherFog},
		{"Smoke", memory.WeatherFog},
		{"Ash", memory.WeatherFog},
		{"Tornado", memory.WeatherTornado},
		{"Snow", memory.WeatherSnow},
		{"Rain", memory.WeatherRain},
		{"Drizzle", memory.WeatherRain},
		{"Thunderstorm", memory.WeatherThunder},
		{"Aurora", memory.WeatherNone},
		{"", memory.WeatherNone},
	}

	for _, tt := range tests {
		if got := MapCondition(tt.main); got != tt.want {
			t.Errorf("MapCondition(%q) = %v, want %v", tt.main, got, tt.want)
		}
	}
}
