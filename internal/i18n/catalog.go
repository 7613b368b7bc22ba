package i18n

var english = map[string]string{
	"single.weather_name": "Weather: ",
	"single.temperature":  "Temperature: %d°C",
	"single.wind_speed":   "Wind: %.1f m/s (level %d)",
	"single.wind_gust":    "Gusts: %.1f m/s (level %d)",

	"generic.humidity":       "Humidity: %d%%",
	"generic.visibility":     "Visibility: %.1f km",
	"generic.local_time":     "Local time: %s",
	"generic.sunrise":        "Sunrise at %s (in %s)",
	"generic.sunset":         "Sunset at %s (in %s)",
	"generic.sunset_already": "The sun set at %s",

	"hourly.now":   "Now:",
	"hourly.today": "Today:",
	"hourly.day":   "%s, %d %s",
	"hourly.item":  "%s %s %d°C, %.1f m/s (%d)",

	"daily.item": "%s %s %s %d°C, %.1f m/s (%d)",

	"multiheight.time":  "%s ",
	"multiheight.meter": "%dm:",
	"multiheight.temp":  " %d°C",
	"multiheight.wind":  " %.1f m/s (%d)",

	// combined.* draw into the PNG grid, whose bitmap font only has ASCII
	// glyphs; keep these entries ASCII.
	"combined.time_header": "Time",
	"combined.time":        "%02d:00",
	"combined.temp":        "%dC",
	"combined.wind":        "%.1f m/s (%d)",

	"error.quota_exceeded": "You have made too many requests, please try again later.",
	"error.cache_expired":  "This report has expired, request a fresh one.",

	"name.clear_sky":         "Clear sky",
	"name.partly_cloudy":     "Partly cloudy",
	"name.fog":               "Fog",
	"name.drizzle":           "Drizzle",
	"name.freezing_drizzle":  "Freezing drizzle",
	"name.rain":              "Rain",
	"name.freezing_rain":     "Freezing rain",
	"name.snowfall":          "Snowfall",
	"name.snow_grains":       "Snow grains",
	"name.rain_showers":      "Rain showers",
	"name.snow_showers":      "Snow showers",
	"name.thunderstorm":      "Thunderstorm",
	"name.thunderstorm_hail": "Thunderstorm with hail",

	"weekday.sunday":    "Sunday",
	"weekday.monday":    "Monday",
	"weekday.tuesday":   "Tuesday",
	"weekday.wednesday": "Wednesday",
	"weekday.thursday":  "Thursday",
	"weekday.friday":    "Friday",
	"weekday.saturday":  "Saturday",

	"month.january":   "January",
	"month.february":  "February",
	"month.march":     "March",
	"month.april":     "April",
	"month.may":       "May",
	"month.june":      "June",
	"month.july":      "July",
	"month.august":    "August",
	"month.september": "September",
	"month.october":   "October",
	"month.november":  "November",
	"month.december":  "December",
}

// Russian is partial on purpose; missing keys fall back to English.
var russian = map[string]string{
	"single.weather_name": "Погода: ",
	"single.temperature":  "Температура: %d°C",
	"single.wind_speed":   "Ветер: %.1f м/с (%d)",
	"single.wind_gust":    "Порывы: %.1f м/с (%d)",

	"generic.humidity":       "Влажность: %d%%",
	"generic.visibility":     "Видимость: %.1f км",
	"generic.local_time":     "Местное время: %s",
	"generic.sunrise":        "Восход в %s (через %s)",
	"generic.sunset":         "Закат в %s (через %s)",
	"generic.sunset_already": "Солнце село в %s",

	"hourly.now":   "Сейчас:",
	"hourly.today": "Сегодня:",

	"error.quota_exceeded": "Слишком много запросов, попробуйте позже.",
	"error.cache_expired":  "Этот отчёт устарел, запросите новый.",

	"name.clear_sky":         "Ясно",
	"name.partly_cloudy":     "Переменная облачность",
	"name.fog":               "Туман",
	"name.drizzle":           "Морось",
	"name.freezing_drizzle":  "Замерзающая морось",
	"name.rain":              "Дождь",
	"name.freezing_rain":     "Ледяной дождь",
	"name.snowfall":          "Снегопад",
	"name.snow_grains":       "Снежная крупа",
	"name.rain_showers":      "Ливень",
	"name.snow_showers":      "Снежный ливень",
	"name.thunderstorm":      "Гроза",
	"name.thunderstorm_hail": "Гроза с градом",
}
