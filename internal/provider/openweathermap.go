package provider

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"weatherreport/internal/models"
)

// OpenWeatherMap serves the current-conditions and 3-hourly forecast kinds.
// Requires an API token; unavailable without one.
type OpenWeatherMap struct {
	client   *client
	endpoint string
	token    string
}

// NewOpenWeatherMap creates the OpenWeatherMap adapter.
func NewOpenWeatherMap(endpoint, token string, timeout time.Duration) *OpenWeatherMap {
	return &OpenWeatherMap{client: newClient("openweathermap", timeout), endpoint: endpoint, token: token}
}

// Available reports whether the adapter has a token.
func (p *OpenWeatherMap) Available() bool { return p.token != "" }

func (p *OpenWeatherMap) queryURL(path string, lat, lon float64, lang string) string {
	params := url.Values{
		"lat":   {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":   {strconv.FormatFloat(lon, 'f', -1, 64)},
		"units": {"metric"},
		"lang":  {lang},
		"appid": {p.token},
	}
	return p.endpoint + path + "?" + params.Encode()
}

// Current fetches current conditions as a single-item response.
func (p *OpenWeatherMap) Current(ctx context.Context, lat, lon float64, lang string) (*models.Response, error) {
	if !p.Available() {
		return nil, fmt.Errorf("openweathermap: %w", ErrNotConfigured)
	}

	var payload owmCurrentPayload
	if err := p.client.getJSON(ctx, p.queryURL("/weather", lat, lon, lang), &payload); err != nil {
		return nil, err
	}
	if len(payload.Weather) == 0 {
		return nil, fmt.Errorf("openweathermap: payload has no weather block")
	}

	item, err := owmItem(payload.Dt, payload.Weather[0], payload.Main, payload.Wind, payload.Visibility)
	if err != nil {
		return nil, err
	}

	return &models.Response{
		Latitude:  payload.Coord.Lat,
		Longitude: payload.Coord.Lon,
		Items:     []models.Item{item},
		UTCOffset: time.Duration(payload.Timezone) * time.Second,
	}, nil
}

// Forecast fetches the 5-day/3-hour forecast.
func (p *OpenWeatherMap) Forecast(ctx context.Context, lat, lon float64, lang string) (*models.Response, error) {
	if !p.Available() {
		return nil, fmt.Errorf("openweathermap: %w", ErrNotConfigured)
	}

	var payload owmForecastPayload
	if err := p.client.getJSON(ctx, p.queryURL("/forecast", lat, lon, lang), &payload); err != nil {
		return nil, err
	}

	items := make([]models.Item, 0, len(payload.List))
	for _, row := range payload.List {
		if len(row.Weather) == 0 {
			return nil, fmt.Errorf("openweathermap: forecast row has no weather block")
		}
		item, err := owmItem(row.Dt, row.Weather[0], row.Main, row.Wind, row.Visibility)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return &models.Response{
		Latitude:  payload.City.Coord.Lat,
		Longitude: payload.City.Coord.Lon,
		Items:     items,
		UTCOffset: time.Duration(payload.City.Timezone) * time.Second,
	}, nil
}

// owmKind maps an icon code prefix to the canonical kind. Icons are the only
// provider field that is a closed, documented set.
func owmKind(icon string) (models.Kind, error) {
	if len(icon) < 2 {
		return 0, &UnmappedCodeError{Provider: "openweathermap", Code: icon}
	}
	switch icon[:2] {
	case "01":
		return models.KindClear, nil
	case "02":
		return models.KindFewClouds, nil
	case "03":
		return models.KindScatteredClouds, nil
	case "04":
		return models.KindBrokenClouds, nil
	case "09", "10":
		return models.KindRain, nil
	case "11":
		return models.KindThunderstorm, nil
	case "13":
		return models.KindSnow, nil
	case "50":
		return models.KindFog, nil
	default:
		return 0, &UnmappedCodeError{Provider: "openweathermap", Code: icon}
	}
}

type owmWeather struct {
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type owmMain struct {
	Temp     float64 `json:"temp"`
	Humidity int     `json:"humidity"`
}

type owmWind struct {
	Speed float64 `json:"speed"`
	Gust  float64 `json:"gust"`
}

type owmCoord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type owmCurrentPayload struct {
	Dt         int64      `json:"dt"`
	Weather    []owmWeather `json:"weather"`
	Main       owmMain    `json:"main"`
	Wind       owmWind    `json:"wind"`
	Visibility *float64   `json:"visibility"`
	Timezone   int        `json:"timezone"`
	Coord      owmCoord   `json:"coord"`
}

type owmForecastPayload struct {
	List []struct {
		Dt         int64      `json:"dt"`
		Main       owmMain    `json:"main"`
		Weather    []owmWeather `json:"weather"`
		Wind       owmWind    `json:"wind"`
		Visibility *float64   `json:"visibility"`
	} `json:"list"`
	City struct {
		Timezone int      `json:"timezone"`
		Coord    owmCoord `json:"coord"`
	} `json:"city"`
}

func owmItem(dt int64, w owmWeather, main owmMain, wind owmWind, visibility *float64) (models.Item, error) {
	kind, err := owmKind(w.Icon)
	if err != nil {
		return models.Item{}, err
	}

	humidity := main.Humidity
	item := models.Item{
		Time:        time.Unix(dt, 0).UTC(),
		Kind:        kind,
		Description: w.Description, // provider text, shown verbatim
		Humidity:    &humidity,
		Visibility:  visibility,
		Temperature: map[int]float64{0: main.Temp},
		WindSpeed:   map[int]float64{0: wind.Speed},
		WindGust:    map[int]float64{0: wind.Gust},
	}
	return item, nil
}
