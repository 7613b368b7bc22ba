package models

import (
	"errors"
	"fmt"
)

// ErrUnknownKind is returned when a report kind key does not parse.
var ErrUnknownKind = errors.New("unknown report kind")

// ReportKind identifies one report flavor: which provider is queried and how
// the result is formatted. The set is closed and known at build time.
type ReportKind string

const (
	OpenWeatherMapCurrent ReportKind = "owm_current"
	OpenWeatherMapHourly  ReportKind = "owm_hourly"
	OpenMeteoCurrent      ReportKind = "om_current"
	OpenMeteoDaily        ReportKind = "om_daily"
	OpenMeteoHourly       ReportKind = "om_hourly"
	OpenMeteoMultiHeight  ReportKind = "om_heights"
	AccuWeatherHourly     ReportKind = "accu_hourly"
	CombinedHourly        ReportKind = "combined_hourly"
)

// Kinds lists every report kind in a stable order.
func Kinds() []ReportKind {
	return []ReportKind{
		OpenWeatherMapCurrent,
		OpenWeatherMapHourly,
		OpenMeteoCurrent,
		OpenMeteoDaily,
		OpenMeteoHourly,
		OpenMeteoMultiHeight,
		AccuWeatherHourly,
		CombinedHourly,
	}
}

// ParseReportKind validates a report kind key.
func ParseReportKind(s string) (ReportKind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

func (k ReportKind) String() string { return string(k) }

// CombinedBases returns the single-provider hourly kinds merged into the
// combined view, in column order.
func CombinedBases() []ReportKind {
	return []ReportKind{OpenMeteoHourly, OpenWeatherMapHourly, AccuWeatherHourly}
}

// ProviderName returns the human-readable upstream name, used as a column
// header in the combined grid.
func (k ReportKind) ProviderName() string {
	switch k {
	case OpenMeteoCurrent, OpenMeteoDaily, OpenMeteoHourly, OpenMeteoMultiHeight:
		return "Open-Meteo"
	case OpenWeatherMapCurrent, OpenWeatherMapHourly:
		return "OpenWeatherMap"
	case AccuWeatherHourly:
		return "AccuWeather"
	default:
		return string(k)
	}
}
