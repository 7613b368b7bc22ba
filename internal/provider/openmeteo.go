package provider

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"weatherreport/internal/models"
)

// OpenMeteo serves the daily, hourly and multi-height report kinds. No token
// required.
type OpenMeteo struct {
	client   *client
	endpoint string
}

// NewOpenMeteo creates the Open-Meteo adapter.
func NewOpenMeteo(endpoint string, timeout time.Duration) *OpenMeteo {
	return &OpenMeteo{client: newClient("open-meteo", timeout), endpoint: endpoint}
}

func (p *OpenMeteo) forecastURL(lat, lon float64, params url.Values) string {
	params.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("wind_speed_unit", "ms")
	params.Set("timeformat", "unixtime")
	params.Set("timezone", "auto")
	return p.endpoint + "?" + params.Encode()
}

// Daily fetches a 14-day daily forecast. The single daily temperature is the
// midpoint of the day's min and max, stored under the 2 m key.
func (p *OpenMeteo) Daily(ctx context.Context, lat, lon float64, _ string) (*models.Response, error) {
	var payload omDailyPayload
	u := p.forecastURL(lat, lon, url.Values{
		"daily":         {"weather_code,temperature_2m_max,temperature_2m_min,wind_speed_10m_max,wind_gusts_10m_max"},
		"forecast_days": {"14"},
	})
	if err := p.client.getJSON(ctx, u, &payload); err != nil {
		return nil, err
	}
	return payload.normalize()
}

// Hourly fetches a 6-day hourly forecast at 10 m.
func (p *OpenMeteo) Hourly(ctx context.Context, lat, lon float64, _ string) (*models.Response, error) {
	var payload omHourlyPayload
	u := p.forecastURL(lat, lon, url.Values{
		"hourly":        {"temperature_2m,relative_humidity_2m,weather_code,visibility,wind_speed_10m,wind_gusts_10m"},
		"forecast_days": {"6"},
	})
	if err := p.client.getJSON(ctx, u, &payload); err != nil {
		return nil, err
	}
	return payload.normalize()
}

// MultiHeight fetches a 2-day hourly forecast with temperature and wind at
// 10/80/120/180 m.
func (p *OpenMeteo) MultiHeight(ctx context.Context, lat, lon float64, _ string) (*models.Response, error) {
	var payload omHourlyPayload
	u := p.forecastURL(lat, lon, url.Values{
		"hourly": {"temperature_2m,relative_humidity_2m,weather_code,visibility," +
			"wind_speed_10m,wind_speed_80m,wind_speed_120m,wind_speed_180m,wind_gusts_10m," +
			"temperature_80m,temperature_120m,temperature_180m"},
		"forecast_days": {"2"},
	})
	if err := p.client.getJSON(ctx, u, &payload); err != nil {
		return nil, err
	}
	return payload.normalize()
}

// openMeteoCondition maps a WMO weather code onto the canonical kind and its
// description key. The table is total over the codes Open-Meteo documents.
func openMeteoCondition(code int) (models.Kind, string, error) {
	switch code {
	case 0:
		return models.KindClear, "!name.clear_sky", nil
	case 1:
		return models.KindFewClouds, "!name.partly_cloudy", nil
	case 2:
		return models.KindScatteredClouds, "!name.partly_cloudy", nil
	case 3:
		return models.KindOvercastClouds, "!name.partly_cloudy", nil
	case 45, 48:
		return models.KindFog, "!name.fog", nil
	case 51, 53, 55:
		return models.KindRain, "!name.drizzle", nil
	case 56, 57:
		return models.KindRain, "!name.freezing_drizzle", nil
	case 61, 63, 65:
		return models.KindRain, "!name.rain", nil
	case 66, 67:
		return models.KindRain, "!name.freezing_rain", nil
	case 71, 73, 75:
		return models.KindSnow, "!name.snowfall", nil
	case 77:
		return models.KindSnow, "!name.snow_grains", nil
	case 80, 81, 82:
		return models.KindRain, "!name.rain_showers", nil
	case 85, 86:
		return models.KindSnow, "!name.snow_showers", nil
	case 95:
		return models.KindThunderstorm, "!name.thunderstorm", nil
	case 96, 99:
		return models.KindThunderstorm, "!name.thunderstorm_hail", nil
	default:
		return 0, "", &UnmappedCodeError{Provider: "open-meteo", Code: strconv.Itoa(code)}
	}
}

type omHourlyPayload struct {
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	UTCOffsetSeconds int     `json:"utc_offset_seconds"`
	Hourly           struct {
		Time        []int64   `json:"time"`
		WeatherCode []int     `json:"weather_code"`
		Humidity    []int     `json:"relative_humidity_2m"`
		Visibility  []float64 `json:"visibility"`

		Temperature2M  []float64 `json:"temperature_2m"`
		Temperature80M []float64 `json:"temperature_80m"`
		Temp120M       []float64 `json:"temperature_120m"`
		Temp180M       []float64 `json:"temperature_180m"`

		WindSpeed10M  []float64 `json:"wind_speed_10m"`
		WindSpeed80M  []float64 `json:"wind_speed_80m"`
		WindSpeed120M []float64 `json:"wind_speed_120m"`
		WindSpeed180M []float64 `json:"wind_speed_180m"`

		WindGusts10M []float64 `json:"wind_gusts_10m"`
	} `json:"hourly"`
}

func (p *omHourlyPayload) normalize() (*models.Response, error) {
	h := &p.Hourly
	if len(h.Time) != len(h.WeatherCode) || len(h.Time) != len(h.Temperature2M) ||
		len(h.Time) != len(h.WindSpeed10M) || len(h.Time) != len(h.WindGusts10M) {
		return nil, fmt.Errorf("open-meteo: hourly series lengths differ")
	}

	items := make([]models.Item, 0, len(h.Time))
	for i, ts := range h.Time {
		kind, name, err := openMeteoCondition(h.WeatherCode[i])
		if err != nil {
			return nil, err
		}

		item := models.Item{
			Time:        time.Unix(ts, 0).UTC(),
			Kind:        kind,
			Description: name,
			Temperature: map[int]float64{10: h.Temperature2M[i]}, // 2m series under the 10m key for cross-series consistency
			WindSpeed:   map[int]float64{10: h.WindSpeed10M[i]},
			WindGust:    map[int]float64{10: h.WindGusts10M[i]},
		}
		if i < len(h.Humidity) {
			hum := h.Humidity[i]
			item.Humidity = &hum
		}
		if i < len(h.Visibility) {
			vis := h.Visibility[i]
			item.Visibility = &vis
		}

		if i < len(h.Temperature80M) {
			item.Temperature[80] = h.Temperature80M[i]
		}
		if i < len(h.Temp120M) {
			item.Temperature[120] = h.Temp120M[i]
		}
		if i < len(h.Temp180M) {
			item.Temperature[180] = h.Temp180M[i]
		}
		if i < len(h.WindSpeed80M) {
			item.WindSpeed[80] = h.WindSpeed80M[i]
		}
		if i < len(h.WindSpeed120M) {
			item.WindSpeed[120] = h.WindSpeed120M[i]
		}
		if i < len(h.WindSpeed180M) {
			item.WindSpeed[180] = h.WindSpeed180M[i]
		}

		items = append(items, item)
	}

	return &models.Response{
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		Items:     items,
		UTCOffset: time.Duration(p.UTCOffsetSeconds) * time.Second,
	}, nil
}

type omDailyPayload struct {
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	UTCOffsetSeconds int     `json:"utc_offset_seconds"`
	Daily            struct {
		Time           []int64   `json:"time"`
		WeatherCode    []int     `json:"weather_code"`
		TemperatureMax []float64 `json:"temperature_2m_max"`
		TemperatureMin []float64 `json:"temperature_2m_min"`
		WindSpeedMax   []float64 `json:"wind_speed_10m_max"`
		WindGustsMax   []float64 `json:"wind_gusts_10m_max"`
	} `json:"daily"`
}

func (p *omDailyPayload) normalize() (*models.Response, error) {
	d := &p.Daily
	if len(d.Time) != len(d.WeatherCode) || len(d.Time) != len(d.TemperatureMax) ||
		len(d.Time) != len(d.TemperatureMin) || len(d.Time) != len(d.WindSpeedMax) ||
		len(d.Time) != len(d.WindGustsMax) {
		return nil, fmt.Errorf("open-meteo: daily series lengths differ")
	}

	items := make([]models.Item, 0, len(d.Time))
	for i, ts := range d.Time {
		kind, name, err := openMeteoCondition(d.WeatherCode[i])
		if err != nil {
			return nil, err
		}
		items = append(items, models.Item{
			Time:        time.Unix(ts, 0).UTC(),
			Kind:        kind,
			Description: name,
			Temperature: map[int]float64{2: (d.TemperatureMin[i] + d.TemperatureMax[i]) / 2},
			WindSpeed:   map[int]float64{10: d.WindSpeedMax[i]},
			WindGust:    map[int]float64{10: d.WindGustsMax[i]},
		})
	}

	return &models.Response{
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		Items:     items,
		UTCOffset: time.Duration(p.UTCOffsetSeconds) * time.Second,
	}, nil
}
