package provider

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"weatherreport/internal/models"
	"weatherreport/internal/store"
)

const kmhToMS = 5.0 / 18.0

// AccuWeather serves a 12-hour hourly kind. AccuWeather addresses forecasts by
// a location key, not coordinates; resolved keys are cached in the store so
// repeat requests skip the geoposition round trip.
type AccuWeather struct {
	client    *client
	endpoint  string
	token     string
	locations store.LocationKeys
}

// NewAccuWeather creates the AccuWeather adapter.
func NewAccuWeather(endpoint, token string, timeout time.Duration, locations store.LocationKeys) *AccuWeather {
	return &AccuWeather{
		client:    newClient("accuweather", timeout),
		endpoint:  endpoint,
		token:     token,
		locations: locations,
	}
}

// Available reports whether the adapter has a token.
func (p *AccuWeather) Available() bool { return p.token != "" }

// Hourly fetches the 12-hour hourly forecast. The UTC offset comes from the
// first forecast item's own timestamp.
func (p *AccuWeather) Hourly(ctx context.Context, lat, lon float64, lang string) (*models.Response, error) {
	if !p.Available() {
		return nil, fmt.Errorf("accuweather: %w", ErrNotConfigured)
	}

	key, err := p.locationKey(ctx, lat, lon)
	if err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/forecasts/v1/hourly/12hour/%d?%s", p.endpoint, key, url.Values{
		"language": {lang},
		"details":  {"true"},
		"metric":   {"true"},
		"apikey":   {p.token},
	}.Encode())

	var payload []accuForecastItem
	if err := p.client.getJSON(ctx, u, &payload); err != nil {
		return nil, err
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("accuweather: empty forecast")
	}

	items := make([]models.Item, 0, len(payload))
	var offset time.Duration
	for i, row := range payload {
		t, err := time.Parse(time.RFC3339, row.DateTime)
		if err != nil {
			return nil, fmt.Errorf("accuweather: bad item time %q: %w", row.DateTime, err)
		}
		if i == 0 {
			_, secs := t.Zone()
			offset = time.Duration(secs) * time.Second
		}

		kind, err := accuKind(row.WeatherIcon)
		if err != nil {
			return nil, err
		}

		humidity := row.RelativeHumidity
		visibility := row.Visibility.Value * 1000 // km to meters
		items = append(items, models.Item{
			Time:        t.UTC(),
			Kind:        kind,
			Description: row.IconPhrase, // provider text, shown verbatim
			Humidity:    &humidity,
			Visibility:  &visibility,
			Temperature: map[int]float64{0: row.Temperature.Value},
			WindSpeed:   map[int]float64{0: row.Wind.Speed.Value * kmhToMS},
			WindGust:    map[int]float64{0: row.WindGust.Speed.Value * kmhToMS},
		})
	}

	return &models.Response{
		Latitude:  lat,
		Longitude: lon,
		Items:     items,
		UTCOffset: offset,
	}, nil
}

func (p *AccuWeather) locationKey(ctx context.Context, lat, lon float64) (int, error) {
	key, ok, err := p.locations.FindLocationKey(ctx, lat, lon)
	if err != nil {
		return 0, err
	}
	if ok {
		return key, nil
	}

	u := fmt.Sprintf("%s/locations/v1/cities/geoposition/search?%s", p.endpoint, url.Values{
		"q":      {fmt.Sprintf("%v,%v", lat, lon)},
		"apikey": {p.token},
	}.Encode())

	var payload struct {
		Key string `json:"Key"`
	}
	if err := p.client.getJSON(ctx, u, &payload); err != nil {
		return 0, err
	}
	key, err = strconv.Atoi(payload.Key)
	if err != nil {
		return 0, fmt.Errorf("accuweather: bad location key %q: %w", payload.Key, err)
	}
	if err := p.locations.SaveLocationKey(ctx, key, lat, lon); err != nil {
		return 0, err
	}
	return key, nil
}

// accuKind maps AccuWeather icon numbers onto the canonical kind. Night
// variants collapse onto their daytime condition.
func accuKind(icon int) (models.Kind, error) {
	switch icon {
	case 1, 2, 30, 31, 32, 33, 34:
		return models.KindClear, nil
	case 3, 4, 14, 17, 21:
		return models.KindFewClouds, nil
	case 5, 6, 13, 16, 20, 35, 36, 37, 38:
		return models.KindBrokenClouds, nil
	case 7, 8:
		return models.KindOvercastClouds, nil
	case 11:
		return models.KindFog, nil
	case 12, 18, 25, 26, 29, 39, 40:
		return models.KindRain, nil
	case 15, 41, 42:
		return models.KindThunderstorm, nil
	case 19, 22, 23, 24, 43, 44:
		return models.KindSnow, nil
	default:
		return 0, &UnmappedCodeError{Provider: "accuweather", Code: strconv.Itoa(icon)}
	}
}

type accuValue struct {
	Value float64 `json:"Value"`
}

type accuWind struct {
	Speed accuValue `json:"Speed"`
}

type accuForecastItem struct {
	DateTime         string    `json:"DateTime"`
	WeatherIcon      int       `json:"WeatherIcon"`
	IconPhrase       string    `json:"IconPhrase"`
	Temperature      accuValue `json:"Temperature"`
	Wind             accuWind  `json:"Wind"`
	WindGust         accuWind  `json:"WindGust"`
	RelativeHumidity int       `json:"RelativeHumidity"`
	Visibility       accuValue `json:"Visibility"`
}
