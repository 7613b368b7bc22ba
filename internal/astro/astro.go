// Package astro computes sunrise and sunset for the sun-position commentary.
package astro

import (
	"time"

	"github.com/nathan-osman/go-sunrise"
)

// SunTimes returns sunrise and sunset (UTC instants) for the given coordinates
// on the calendar date of localDate. A zero time means the event does not
// occur that day (polar day or night).
func SunTimes(lat, lon float64, localDate time.Time) (rise, set time.Time) {
	y, m, d := localDate.Date()
	return sunrise.SunriseSunset(lat, lon, y, m, d)
}
