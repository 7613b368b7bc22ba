// Package service orchestrates report production: fuzzy cache lookup, quota
// enforcement, upstream fetch, persistence and formatting.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"weatherreport/internal/cache"
	"weatherreport/internal/models"
	"weatherreport/internal/observability"
	"weatherreport/internal/provider"
	"weatherreport/internal/quota"
	"weatherreport/internal/report"
)

var (
	// ErrQuotaExceeded means the user's upstream-fetch window is full. Cached
	// reports are still served.
	ErrQuotaExceeded = errors.New("request quota exceeded")

	// ErrCacheExpired means a paging request referenced an entry that no
	// longer exists.
	ErrCacheExpired = errors.New("report no longer available")

	// ErrKindUnavailable means the report kind exists but none of its
	// providers is configured.
	ErrKindUnavailable = errors.New("report kind not available")
)

// Source is one fetchable report kind: the provider call plus an optional
// availability check for providers that need credentials.
type Source struct {
	Fetch     provider.FetchFunc
	Available func() bool
}

func (s Source) available() bool {
	return s.Available == nil || s.Available()
}

// reportDef describes how one report kind is produced. basicDef fetches one
// provider and formats text; combinedDef merges several basic kinds into an
// image grid.
type reportDef interface {
	isReportDef()
}

type formatFunc func(f *report.Formatter, resp *models.Response, lang string, page int, now time.Time) report.Result

type basicDef struct {
	source Source
	format formatFunc
}

type combinedDef struct {
	bases []models.ReportKind
}

func (basicDef) isReportDef()    {}
func (combinedDef) isReportDef() {}

// Config carries the pipeline's quota and coalescing knobs.
type Config struct {
	QuotaDefault    int
	QuotaWindow     time.Duration
	QuotaOverrides  map[int64]int
	CoalesceTimeout time.Duration
}

// RenderFunc turns an aligned grid into an image. Kept as a function so tests
// can swap the PNG encoder out.
type RenderFunc func(rows []report.Row, columns []string, lang string) ([]byte, error)

// Pipeline produces weather reports. Safe for concurrent use.
type Pipeline struct {
	cfg       Config
	cache     *cache.Cache
	quota     *quota.Limiter
	formatter *report.Formatter
	render    RenderFunc
	defs      map[models.ReportKind]reportDef
	coalescer *fetchCoalescer
	now       func() time.Time
}

// Sources maps every basic report kind to its provider call. Kinds absent
// from the map are rejected as unavailable.
type Sources map[models.ReportKind]Source

// NewPipeline wires the pipeline. render may be nil when the combined kind is
// not served; combined requests then report the kind as unavailable.
func NewPipeline(cfg Config, c *cache.Cache, q *quota.Limiter, f *report.Formatter, render RenderFunc, sources Sources) *Pipeline {
	p := &Pipeline{
		cfg:       cfg,
		cache:     c,
		quota:     q,
		formatter: f,
		render:    render,
		defs:      make(map[models.ReportKind]reportDef),
		now:       time.Now,
	}
	if cfg.CoalesceTimeout > 0 {
		p.coalescer = newFetchCoalescer(cfg.CoalesceTimeout)
	}

	formats := map[models.ReportKind]formatFunc{
		models.OpenWeatherMapCurrent: func(f *report.Formatter, r *models.Response, lang string, _ int, now time.Time) report.Result {
			return f.Single(r, lang, now)
		},
		models.OpenMeteoCurrent: func(f *report.Formatter, r *models.Response, lang string, _ int, now time.Time) report.Result {
			return f.Single(r, lang, now)
		},
		models.OpenWeatherMapHourly: (*report.Formatter).Hourly,
		models.OpenMeteoHourly:      (*report.Formatter).Hourly,
		models.AccuWeatherHourly:    (*report.Formatter).Hourly,
		models.OpenMeteoDaily: func(f *report.Formatter, r *models.Response, lang string, page int, _ time.Time) report.Result {
			return f.Daily(r, lang, page)
		},
		models.OpenMeteoMultiHeight: (*report.Formatter).MultiHeight,
	}
	for kind, src := range sources {
		format, ok := formats[kind]
		if !ok {
			continue
		}
		p.defs[kind] = basicDef{source: src, format: format}
	}
	p.defs[models.CombinedHourly] = combinedDef{bases: models.CombinedBases()}
	return p
}

// ReportRequest identifies one report to produce.
type ReportRequest struct {
	UserID int64
	Lang   string
	Kind   models.ReportKind
	Lat    float64
	Lon    float64
	Page   int
	Now    time.Time // zero means wall clock
}

// ReportResult is a produced report page. Basic kinds fill Text and EntryID
// (for later paging); the combined kind fills Image.
type ReportResult struct {
	Text      string
	Image     []byte
	Page      int
	PageCount int
	EntryID   int64
	Cached    bool
}

// Report produces the requested report, fetching from the upstream provider
// only when no fresh nearby entry exists and the user's quota allows it.
func (p *Pipeline) Report(ctx context.Context, req ReportRequest) (*ReportResult, error) {
	now := req.Now
	if now.IsZero() {
		now = p.now()
	}

	def, ok := p.defs[req.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownKind, req.Kind)
	}

	switch d := def.(type) {
	case basicDef:
		return p.basicReport(ctx, req, d, now)
	case combinedDef:
		return p.combinedReport(ctx, req, d, now)
	default:
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownKind, req.Kind)
	}
}

// PageOf re-renders a page of a previously produced basic report, bypassing
// freshness checks so old pages stay browsable as long as the entry exists.
func (p *Pipeline) PageOf(ctx context.Context, entryID int64, lang string, page int, now time.Time) (*ReportResult, error) {
	if now.IsZero() {
		now = p.now()
	}

	entry, ok, err := p.cache.ByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCacheExpired
	}

	def, defOK := p.defs[entry.Kind].(basicDef)
	if !defOK {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownKind, entry.Kind)
	}

	res := def.format(p.formatter, entry.Response, lang, page, now)
	return &ReportResult{
		Text:      res.Message,
		Page:      res.Page,
		PageCount: res.PageCount,
		EntryID:   entry.ID,
		Cached:    true,
	}, nil
}

func (p *Pipeline) basicReport(ctx context.Context, req ReportRequest, def basicDef, now time.Time) (*ReportResult, error) {
	if !def.source.available() {
		return nil, fmt.Errorf("%w: %q", ErrKindUnavailable, req.Kind)
	}

	entry, cached, err := p.obtain(ctx, req, req.Kind, def.source)
	if err != nil {
		p.countOutcome(req.Kind, err)
		return nil, err
	}

	res := def.format(p.formatter, entry.Response, req.Lang, req.Page, now)
	observability.ReportsTotal.WithLabelValues(req.Kind.String(), "ok").Inc()
	return &ReportResult{
		Text:      res.Message,
		Page:      res.Page,
		PageCount: res.PageCount,
		EntryID:   entry.ID,
		Cached:    cached,
	}, nil
}

func (p *Pipeline) combinedReport(ctx context.Context, req ReportRequest, def combinedDef, now time.Time) (*ReportResult, error) {
	if p.render == nil {
		return nil, fmt.Errorf("%w: %q", ErrKindUnavailable, req.Kind)
	}

	type base struct {
		kind models.ReportKind
		src  Source
	}
	var bases []base
	for _, kind := range def.bases {
		d, ok := p.defs[kind].(basicDef)
		if !ok || !d.source.available() {
			continue
		}
		bases = append(bases, base{kind: kind, src: d.source})
	}
	if len(bases) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrKindUnavailable, req.Kind)
	}

	type result struct {
		entry *models.Entry
		err   error
	}
	results := make([]result, len(bases))

	var wg sync.WaitGroup
	for i, b := range bases {
		wg.Add(1)
		go func(i int, b base) {
			defer wg.Done()
			entry, _, err := p.obtain(ctx, req, b.kind, b.src)
			results[i] = result{entry: entry, err: err}
		}(i, b)
	}
	wg.Wait()

	responses := make([]*models.Response, 0, len(bases))
	columns := make([]string, 0, len(bases))
	for i, r := range results {
		if r.err != nil {
			p.countOutcome(req.Kind, r.err)
			return nil, fmt.Errorf("%s: %w", bases[i].kind, r.err)
		}
		responses = append(responses, r.entry.Response)
		columns = append(columns, bases[i].kind.ProviderName())
	}

	rows := report.Align(responses, now, report.MaxAlignedHours)
	image, err := p.render(rows, columns, req.Lang)
	if err != nil {
		observability.ReportsTotal.WithLabelValues(req.Kind.String(), "error").Inc()
		return nil, err
	}

	observability.ReportsTotal.WithLabelValues(req.Kind.String(), "ok").Inc()
	return &ReportResult{Image: image, Page: 0, PageCount: 1}, nil
}

// obtain returns a cache entry for the kind at the requested point, fetching
// and persisting a fresh one on miss. Fetches count against the user's quota;
// cache hits are free. Failed fetches are never persisted.
func (p *Pipeline) obtain(ctx context.Context, req ReportRequest, kind models.ReportKind, src Source) (*models.Entry, bool, error) {
	logger := LoggerFromContext(ctx)

	entry, ok, err := p.cache.Lookup(ctx, kind, req.Lat, req.Lon)
	if err != nil {
		return nil, false, err
	}
	if ok {
		observability.CacheHitsTotal.WithLabelValues(kind.String()).Inc()
		if logger != nil {
			logger.Debug("cache hit",
				zap.String("kind", kind.String()),
				zap.Int64("entryId", entry.ID))
		}
		return entry, true, nil
	}
	observability.CacheMissesTotal.WithLabelValues(kind.String()).Inc()

	allowed, err := p.quota.Allow(ctx, req.UserID, p.quotaFor(req.UserID), p.cfg.QuotaWindow)
	if err != nil {
		return nil, false, err
	}
	if !allowed {
		observability.QuotaDeniedTotal.Inc()
		return nil, false, ErrQuotaExceeded
	}

	fetch := func() (*models.Entry, error) {
		resp, err := src.Fetch(ctx, req.Lat, req.Lon, req.Lang)
		if err != nil {
			return nil, err
		}
		return p.cache.Create(ctx, req.UserID, kind, req.Lat, req.Lon, resp)
	}

	if p.coalescer != nil {
		key := fmt.Sprintf("%s|%.4f|%.4f|%s", kind, req.Lat, req.Lon, req.Lang)
		entry, err = p.coalescer.getOrDo(ctx, key, fetch)
	} else {
		entry, err = fetch()
	}
	if err != nil {
		if logger != nil {
			logger.Warn("upstream fetch failed",
				zap.String("kind", kind.String()),
				zap.Error(err))
		}
		return nil, false, err
	}
	return entry, false, nil
}

func (p *Pipeline) quotaFor(userID int64) int {
	if limit, ok := p.cfg.QuotaOverrides[userID]; ok {
		return limit
	}
	return p.cfg.QuotaDefault
}

func (p *Pipeline) countOutcome(kind models.ReportKind, err error) {
	outcome := "error"
	if errors.Is(err, ErrQuotaExceeded) {
		outcome = "quota_denied"
	}
	observability.ReportsTotal.WithLabelValues(kind.String(), outcome).Inc()
}

type loggerKey struct{}

// ContextWithLogger stores a request-scoped logger for the pipeline to use.
func ContextWithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// LoggerFromContext returns the request-scoped logger, or nil.
func LoggerFromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok {
		return l
	}
	return nil
}
