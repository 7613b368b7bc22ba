package provider

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"weatherreport/internal/models"
	"weatherreport/internal/store"
)

const accuForecastBody = `[
	{
		"DateTime": "2025-06-01T12:00:00+03:00",
		"WeatherIcon": 1,
		"IconPhrase": "Sunny",
		"Temperature": {"Value": 25.0},
		"Wind": {"Speed": {"Value": 18.0}},
		"WindGust": {"Speed": {"Value": 36.0}},
		"RelativeHumidity": 45,
		"Visibility": {"Value": 16.0}
	},
	{
		"DateTime": "2025-06-01T13:00:00+03:00",
		"WeatherIcon": 7,
		"IconPhrase": "Cloudy",
		"Temperature": {"Value": 24.0},
		"Wind": {"Speed": {"Value": 9.0}},
		"WindGust": {"Speed": {"Value": 12.0}},
		"RelativeHumidity": 50,
		"Visibility": {"Value": 10.0}
	}
]`

func newAccuServer(t *testing.T, geoCalls *atomic.Int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/locations/v1/cities/geoposition/search"):
			geoCalls.Add(1)
			w.Write([]byte(`{"Key": "295212"}`))
		case strings.Contains(r.URL.Path, "/forecasts/v1/hourly/12hour/295212"):
			w.Write([]byte(accuForecastBody))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestAccuWeatherHourly(t *testing.T) {
	var geoCalls atomic.Int64
	srv := newAccuServer(t, &geoCalls)
	defer srv.Close()

	p := NewAccuWeather(srv.URL, "tok", time.Second, store.NewMemory())
	resp, err := p.Hourly(context.Background(), 55.75, 37.62, "en")
	if err != nil {
		t.Fatalf("Hourly: %v", err)
	}

	if resp.UTCOffset != 3*time.Hour {
		t.Errorf("UTCOffset = %v, want 3h", resp.UTCOffset)
	}
	if len(resp.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(resp.Items))
	}

	first := resp.Items[0]
	if first.Kind != models.KindClear || first.Description != "Sunny" {
		t.Errorf("first item = %v %q", first.Kind, first.Description)
	}
	// 18 km/h is exactly 5 m/s; 16 km of visibility is 16000 m.
	if got := first.WindSpeed[0]; math.Abs(got-5.0) > 1e-9 {
		t.Errorf("wind = %v, want 5.0 m/s", got)
	}
	if first.Visibility == nil || *first.Visibility != 16000 {
		t.Errorf("visibility = %v", first.Visibility)
	}
	if want := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC); !first.Time.Equal(want) {
		t.Errorf("time = %v, want %v", first.Time, want)
	}
	if resp.Items[1].Kind != models.KindOvercastClouds {
		t.Errorf("second kind = %v, want overcast", resp.Items[1].Kind)
	}
}

func TestAccuWeatherLocationKeyCached(t *testing.T) {
	var geoCalls atomic.Int64
	srv := newAccuServer(t, &geoCalls)
	defer srv.Close()

	p := NewAccuWeather(srv.URL, "tok", time.Second, store.NewMemory())
	for i := 0; i < 3; i++ {
		if _, err := p.Hourly(context.Background(), 55.75, 37.62, "en"); err != nil {
			t.Fatalf("Hourly %d: %v", i, err)
		}
	}

	if got := geoCalls.Load(); got != 1 {
		t.Errorf("geoposition lookups = %d, want 1", got)
	}
}

func TestAccuWeatherUnmappedIcon(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "geoposition") {
			w.Write([]byte(`{"Key": "1"}`))
			return
		}
		w.Write([]byte(`[{"DateTime": "2025-06-01T12:00:00Z", "WeatherIcon": 99,
			"IconPhrase": "?", "Temperature": {"Value": 1},
			"Wind": {"Speed": {"Value": 1}}, "WindGust": {"Speed": {"Value": 1}},
			"RelativeHumidity": 1, "Visibility": {"Value": 1}}]`))
	}))
	defer srv.Close()

	p := NewAccuWeather(srv.URL, "tok", time.Second, store.NewMemory())
	_, err := p.Hourly(context.Background(), 0, 0, "en")

	var unmapped *UnmappedCodeError
	if !errors.As(err, &unmapped) {
		t.Fatalf("err = %v, want UnmappedCodeError", err)
	}
	if unmapped.Code != "99" {
		t.Errorf("code = %q, want 99", unmapped.Code)
	}
}

func TestAccuWeatherNotConfigured(t *testing.T) {
	p := NewAccuWeather("http://example.invalid", "", time.Second, store.NewMemory())
	if _, err := p.Hourly(context.Background(), 0, 0, "en"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
}
