// Package report renders normalized forecasts into paginated text messages
// and aligns multi-provider forecasts into an hourly grid.
package report

import (
	"math"
	"strings"
	"time"

	"weatherreport/internal/i18n"
	"weatherreport/internal/models"
)

// Config carries the paging knobs. HourlyItemsPerDay controls thinning on
// hourly day pages: 24/HourlyItemsPerDay gives the hour stride.
type Config struct {
	DailyItemsPerPage       int
	HourlyDaysPerPage       int
	HourlyItemsPerDay       int
	MultiHeightItemsPerPage int
}

// SunFunc reports sunrise and sunset as UTC instants for the calendar date of
// localDate. Zero times mean the event does not occur.
type SunFunc func(lat, lon float64, localDate time.Time) (rise, set time.Time)

// Result is a rendered report page. Page is the page actually rendered, which
// may differ from the one requested when the request was out of range.
type Result struct {
	Message   string
	Page      int
	PageCount int
}

// Formatter renders forecast responses. All methods are safe for concurrent
// use.
type Formatter struct {
	cfg     Config
	catalog *i18n.Catalog
	sun     SunFunc
}

// NewFormatter creates a Formatter.
func NewFormatter(cfg Config, catalog *i18n.Catalog, sun SunFunc) *Formatter {
	return &Formatter{cfg: cfg, catalog: catalog, sun: sun}
}

// Single renders the first item of the response as a one-page detail view
// with local time and sun commentary.
func (f *Formatter) Single(resp *models.Response, lang string, now time.Time) Result {
	if len(resp.Items) == 0 {
		return Result{Page: 0, PageCount: 1}
	}

	b := f.newBuilder(lang)
	f.appendSingleDetails(b, &resp.Items[0])
	f.appendTimeDetails(b, resp, now)
	return Result{Message: b.String(), Page: 0, PageCount: 1}
}

// Daily renders one-line-per-day rows in fixed chunks of DailyItemsPerPage.
// An out-of-range page falls back to the first page.
func (f *Formatter) Daily(resp *models.Response, lang string, page int) Result {
	size := f.cfg.DailyItemsPerPage
	pageCount := ceilDiv(len(resp.Items), size)
	if pageCount == 0 {
		return Result{Page: 0, PageCount: 1}
	}
	if page < 0 || page >= pageCount {
		page = 0
	}

	b := f.newBuilder(lang)
	for _, item := range pageSlice(resp.Items, page, size) {
		local := resp.Local(item.Time)
		wind := item.SummaryWind()
		b.line("daily.item",
			local.Format("02.01"),
			f.catalog.Weekday(lang, local.Weekday()),
			item.Kind.Emoji(),
			roundTemp(item.PrimaryTemperature()),
			wind,
			models.WindLevel(wind),
		)
	}
	return Result{Message: b.String(), Page: page, PageCount: pageCount}
}

// Hourly renders hour rows grouped by local calendar day. When the forecast
// still covers the current local day, page 0 becomes a now-block: full details
// of the current hour followed by the rest of today's hours, unthinned. Later
// pages hold HourlyDaysPerPage days each and thin rows to the configured
// stride, always keeping the current hour.
func (f *Formatter) Hourly(resp *models.Response, lang string, page int, now time.Time) Result {
	start := now.UTC().Truncate(time.Hour)
	groups := groupByLocalDay(resp, start)
	if len(groups) == 0 {
		return Result{Page: 0, PageCount: 1}
	}

	offset := 0
	if sameDate(groups[0].day, resp.Local(now)) {
		offset = 1
	}

	daysPerPage := f.cfg.HourlyDaysPerPage
	pageCount := ceilDiv(len(groups)-offset, daysPerPage) + offset
	if page < 0 || page >= pageCount {
		page = 0
	}

	b := f.newBuilder(lang)

	if page == 0 && offset == 1 {
		for idx, item := range groups[0].items {
			switch idx {
			case 0:
				b.line("hourly.now")
				f.appendSingleDetails(b, &groups[0].items[idx])
			case 1:
				b.line("hourly.today")
				f.appendHour(b, resp, item)
			default:
				f.appendHour(b, resp, item)
			}
		}
		return Result{Message: b.String(), Page: page, PageCount: pageCount}
	}

	stride := 1
	if f.cfg.HourlyItemsPerDay > 0 {
		stride = 24 / f.cfg.HourlyItemsPerDay
	}

	from := daysPerPage*(page-offset) + offset
	for _, g := range pageGroups(groups, from, daysPerPage) {
		b.line("hourly.day",
			f.catalog.Weekday(lang, g.day.Weekday()),
			g.day.Day(),
			f.catalog.Month(lang, g.day.Month()),
		)
		for _, item := range g.items {
			local := resp.Local(item.Time)
			if local.Hour()%stride != 0 && !item.Time.Equal(start) {
				continue
			}
			f.appendHour(b, resp, item)
		}
		b.blank()
	}
	return Result{Message: b.String(), Page: page, PageCount: pageCount}
}

// MultiHeight renders per-height readings for each hour between now and the
// next local midnight. A window too short for a full page is replaced by a
// flat three-hour one.
func (f *Formatter) MultiHeight(resp *models.Response, lang string, page int, now time.Time) Result {
	size := f.cfg.MultiHeightItemsPerPage
	start := now.UTC().Truncate(time.Hour)

	localNow := resp.Local(now)
	y, m, d := localNow.Date()
	end := time.Date(y, m, d+1, 0, 0, 0, 0, resp.Zone())
	if end.Sub(start) < time.Duration(size)*time.Hour {
		end = start.Add(3 * time.Hour)
	}

	var filtered []models.Item
	for _, item := range resp.Items {
		if !item.Time.Before(start) && item.Time.Before(end) {
			filtered = append(filtered, item)
		}
	}

	pageCount := ceilDiv(len(filtered), size)
	if pageCount == 0 {
		pageCount = 1
	}
	if page < 0 || page >= pageCount {
		page = 0
	}

	b := f.newBuilder(lang)
	pageItems := pageSlice(filtered, page, size)
	for i := range pageItems {
		item := &pageItems[i]
		b.add("multiheight.time", resp.Local(item.Time).Format("15:04"))
		if e := item.Kind.Emoji(); e != "" {
			b.raw(e + " ")
		}
		b.rawLine(f.catalog.Resolve(lang, item.Description))

		if item.Humidity != nil {
			b.line("generic.humidity", *item.Humidity)
		}
		if item.Visibility != nil {
			b.line("generic.visibility", *item.Visibility/1000)
		}

		for _, h := range item.Heights() {
			b.add("multiheight.meter", h)
			if t, ok := item.Temperature[h]; ok {
				b.add("multiheight.temp", roundTemp(t))
			}
			if w, ok := item.WindSpeed[h]; ok {
				b.add("multiheight.wind", w, models.WindLevel(w))
			}
			if g, ok := item.WindGust[h]; ok {
				b.add("multiheight.wind", g, models.WindLevel(g))
			}
			b.blank()
		}
		b.blank()
	}
	f.appendTimeDetails(b, resp, now)
	return Result{Message: b.String(), Page: page, PageCount: pageCount}
}

func (f *Formatter) appendHour(b *builder, resp *models.Response, item models.Item) {
	wind := item.SummaryWind()
	b.line("hourly.item",
		resp.Local(item.Time).Format("15:04"),
		item.Kind.Emoji(),
		roundTemp(item.PrimaryTemperature()),
		wind,
		models.WindLevel(wind),
	)
}

func (f *Formatter) appendSingleDetails(b *builder, item *models.Item) {
	b.add("single.weather_name")
	if e := item.Kind.Emoji(); e != "" {
		b.raw(e + " ")
	}
	b.rawLine(f.catalog.Resolve(b.lang, item.Description))

	b.line("single.temperature", roundTemp(item.PrimaryTemperature()))
	if item.Humidity != nil {
		b.line("generic.humidity", *item.Humidity)
	}
	b.blank()

	if item.Visibility != nil {
		b.line("generic.visibility", *item.Visibility/1000)
	}
	wind := item.PrimaryWind()
	b.line("single.wind_speed", wind, models.WindLevel(wind))
	gust := item.PrimaryGust()
	b.line("single.wind_gust", gust, models.WindLevel(gust))
	b.blank()
}

func (f *Formatter) appendTimeDetails(b *builder, resp *models.Response, now time.Time) {
	local := resp.Local(now)
	b.line("generic.local_time", local.Format("15:04"))

	rise, set := f.sun(resp.Latitude, resp.Longitude, local)
	switch {
	case !rise.IsZero() && now.Before(rise):
		b.line("generic.sunrise",
			resp.Local(rise).Format("15:04"),
			i18n.FormatDuration(rise.Sub(now)))
	case !set.IsZero() && now.Before(set):
		b.line("generic.sunset",
			resp.Local(set).Format("15:04"),
			i18n.FormatDuration(set.Sub(now)))
	case !set.IsZero():
		b.line("generic.sunset_already", resp.Local(set).Format("15:04"))
	}
}

type dayGroup struct {
	day   time.Time // local midnight of the group's date
	items []models.Item
}

// groupByLocalDay buckets the items at or after start by their local calendar
// date, preserving order. Items arrive time-sorted, so groups come out
// contiguous.
func groupByLocalDay(resp *models.Response, start time.Time) []dayGroup {
	var groups []dayGroup
	for _, item := range resp.Items {
		if item.Time.Before(start) {
			continue
		}
		local := resp.Local(item.Time)
		if len(groups) == 0 || !sameDate(groups[len(groups)-1].day, local) {
			y, m, d := local.Date()
			groups = append(groups, dayGroup{day: time.Date(y, m, d, 0, 0, 0, 0, local.Location())})
		}
		last := len(groups) - 1
		groups[last].items = append(groups[last].items, item)
	}
	return groups
}

func pageGroups(groups []dayGroup, from, count int) []dayGroup {
	if from < 0 || from >= len(groups) {
		return nil
	}
	to := from + count
	if to > len(groups) {
		to = len(groups)
	}
	return groups[from:to]
}

func pageSlice(items []models.Item, page, size int) []models.Item {
	from := page * size
	if from >= len(items) {
		return nil
	}
	to := from + size
	if to > len(items) {
		to = len(items)
	}
	return items[from:to]
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func ceilDiv(n, d int) int {
	if d <= 0 {
		return 0
	}
	return (n + d - 1) / d
}

func roundTemp(v float64) int {
	return int(math.Round(v))
}

// builder accumulates localized lines for a single report page.
type builder struct {
	sb      strings.Builder
	catalog *i18n.Catalog
	lang    string
}

func (f *Formatter) newBuilder(lang string) *builder {
	return &builder{catalog: f.catalog, lang: lang}
}

func (b *builder) add(key string, args ...any) {
	b.sb.WriteString(b.catalog.Get(b.lang, key, args...))
}

func (b *builder) line(key string, args ...any) {
	b.add(key, args...)
	b.sb.WriteByte('\n')
}

func (b *builder) raw(s string) {
	b.sb.WriteString(s)
}

func (b *builder) rawLine(s string) {
	b.sb.WriteString(s)
	b.sb.WriteByte('\n')
}

func (b *builder) blank() {
	b.sb.WriteByte('\n')
}

func (b *builder) String() string {
	return b.sb.String()
}
