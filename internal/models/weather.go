package models

import (
	"math"
	"sort"
	"time"
)

// Kind is the canonical sky condition, decoupled from any provider's raw
// condition codes. The set is closed; adapters must map every upstream code
// onto it or fail.
type Kind int

const (
	KindUnknown Kind = iota
	KindClear
	KindFewClouds
	KindScatteredClouds
	KindBrokenClouds
	KindOvercastClouds
	KindRain
	KindThunderstorm
	KindSnow
	KindFog
)

func (k Kind) String() string {
	switch k {
	case KindClear:
		return "clear"
	case KindFewClouds:
		return "few_clouds"
	case KindScatteredClouds:
		return "scattered_clouds"
	case KindBrokenClouds:
		return "broken_clouds"
	case KindOvercastClouds:
		return "overcast_clouds"
	case KindRain:
		return "rain"
	case KindThunderstorm:
		return "thunderstorm"
	case KindSnow:
		return "snow"
	case KindFog:
		return "fog"
	default:
		return "unknown"
	}
}

// Emoji returns the icon used in text reports for the kind.
func (k Kind) Emoji() string {
	switch k {
	case KindClear:
		return "☀️"
	case KindFewClouds:
		return "\U0001f324"
	case KindScatteredClouds, KindBrokenClouds:
		return "\U0001f325"
	case KindOvercastClouds:
		return "☁️"
	case KindRain:
		return "\U0001f327"
	case KindThunderstorm:
		return "⛈"
	case KindSnow:
		return "❄️"
	case KindFog:
		return "\U0001f32b"
	default:
		return ""
	}
}

// Item is one normalized forecast instant. The measurement maps are keyed by
// integer height in meters; a single-height provider uses one conventional key
// (0, 2 or 10). Every map is non-empty for a valid item, and the minimum key
// holds the primary reading.
type Item struct {
	Time        time.Time       `json:"time"`
	Kind        Kind            `json:"kind"`
	Description string          `json:"description"` // leading '!' marks a translation key
	Humidity    *int            `json:"humidity,omitempty"`
	Visibility  *float64        `json:"visibility,omitempty"` // meters
	Temperature map[int]float64 `json:"temperature"`          // °C by height
	WindSpeed   map[int]float64 `json:"windSpeed"`            // m/s by height
	WindGust    map[int]float64 `json:"windGust"`             // m/s by height
}

// PrimaryTemperature returns the temperature at the minimum height key.
func (i *Item) PrimaryTemperature() float64 {
	return atMinKey(i.Temperature)
}

// PrimaryWind returns the wind speed at the minimum height key.
func (i *Item) PrimaryWind() float64 {
	return atMinKey(i.WindSpeed)
}

// PrimaryGust returns the wind gust speed at the minimum height key.
func (i *Item) PrimaryGust() float64 {
	return atMinKey(i.WindGust)
}

// SummaryWind is the single figure shown on one-line summaries: the stronger
// of the primary wind speed and the primary gust speed.
func (i *Item) SummaryWind() float64 {
	return math.Max(i.PrimaryWind(), i.PrimaryGust())
}

// Heights returns every height key present in any of the item's measurement
// maps, ascending.
func (i *Item) Heights() []int {
	seen := make(map[int]struct{})
	for k := range i.Temperature {
		seen[k] = struct{}{}
	}
	for k := range i.WindSpeed {
		seen[k] = struct{}{}
	}
	for k := range i.WindGust {
		seen[k] = struct{}{}
	}
	keys := make([]int, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func atMinKey(m map[int]float64) float64 {
	first := true
	min := 0
	for k := range m {
		if first || k < min {
			min = k
			first = false
		}
	}
	return m[min]
}

// Response is one location's normalized forecast: samples ordered
// non-decreasing by time plus the signed UTC offset of the location as
// reported by the provider.
type Response struct {
	Latitude  float64       `json:"latitude"`
	Longitude float64       `json:"longitude"`
	Items     []Item        `json:"items"`
	UTCOffset time.Duration `json:"utcOffset"`
}

// Zone returns a fixed-offset location for the response. The offset comes
// from the provider payload, never from a timezone database.
func (r *Response) Zone() *time.Location {
	return time.FixedZone("local", int(r.UTCOffset/time.Second))
}

// Local converts an instant to the location's wall clock.
func (r *Response) Local(t time.Time) time.Time {
	return t.In(r.Zone())
}
