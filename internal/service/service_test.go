package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"weatherreport/internal/cache"
	"weatherreport/internal/i18n"
	"weatherreport/internal/models"
	"weatherreport/internal/quota"
	"weatherreport/internal/report"
	"weatherreport/internal/store"
)

var testNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func testResponse(lat, lon float64) *models.Response {
	items := make([]models.Item, 0, 24)
	for i := 0; i < 24; i++ {
		items = append(items, models.Item{
			Time:        testNow.Add(time.Duration(i) * time.Hour),
			Kind:        models.KindClear,
			Description: "!name.clear_sky",
			Temperature: map[int]float64{2: 20},
			WindSpeed:   map[int]float64{10: 3},
			WindGust:    map[int]float64{10: 5},
		})
	}
	return &models.Response{Latitude: lat, Longitude: lon, Items: items}
}

// countingFetch returns a Source whose fetch reports how often it ran.
func countingFetch(calls *atomic.Int64, err error) Source {
	return Source{Fetch: func(ctx context.Context, lat, lon float64, lang string) (*models.Response, error) {
		if calls != nil {
			calls.Add(1)
		}
		if err != nil {
			return nil, err
		}
		return testResponse(lat, lon), nil
	}}
}

func fakeRender(rows []report.Row, columns []string, lang string) ([]byte, error) {
	return []byte(fmt.Sprintf("png:%d:%d", len(rows), len(columns))), nil
}

func newTestPipeline(sources Sources, cfg Config) (*Pipeline, store.Store) {
	return newTestPipelineRender(sources, cfg, fakeRender)
}

func newTestPipelineRender(sources Sources, cfg Config, render RenderFunc) (*Pipeline, store.Store) {
	st := store.NewMemory()
	c := cache.New(st, cache.Config{Lifetime: 5 * time.Minute, DistanceThresholdMeters: 500})
	q := quota.New(st)
	f := report.NewFormatter(report.Config{
		DailyItemsPerPage:       5,
		HourlyDaysPerPage:       3,
		HourlyItemsPerDay:       8,
		MultiHeightItemsPerPage: 3,
	}, i18n.NewCatalog(), func(lat, lon float64, localDate time.Time) (time.Time, time.Time) {
		return time.Time{}, time.Time{}
	})
	if cfg.QuotaDefault == 0 {
		cfg.QuotaDefault = 5
	}
	if cfg.QuotaWindow == 0 {
		cfg.QuotaWindow = time.Hour
	}
	return NewPipeline(cfg, c, q, f, render, sources), st
}

func TestReportCachesFetch(t *testing.T) {
	var calls atomic.Int64
	p, _ := newTestPipeline(Sources{models.OpenMeteoHourly: countingFetch(&calls, nil)}, Config{})

	req := ReportRequest{UserID: 1, Lang: "en", Kind: models.OpenMeteoHourly, Lat: 40, Lon: -3, Now: testNow}
	first, err := p.Report(context.Background(), req)
	if err != nil {
		t.Fatalf("first report: %v", err)
	}
	if first.Cached || first.Text == "" || first.EntryID == 0 {
		t.Errorf("first report = %+v", first)
	}

	second, err := p.Report(context.Background(), req)
	if err != nil {
		t.Fatalf("second report: %v", err)
	}
	if !second.Cached {
		t.Error("second report missed the cache")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("upstream fetches = %d, want 1", got)
	}
}

func TestReportQuota(t *testing.T) {
	var calls atomic.Int64
	p, _ := newTestPipeline(
		Sources{models.OpenMeteoDaily: countingFetch(&calls, nil)},
		Config{QuotaDefault: 1, QuotaWindow: time.Hour},
	)

	base := ReportRequest{UserID: 7, Lang: "en", Kind: models.OpenMeteoDaily, Lat: 40, Lon: -3, Now: testNow}
	if _, err := p.Report(context.Background(), base); err != nil {
		t.Fatalf("first report: %v", err)
	}

	far := base
	far.Lat, far.Lon = 50, 10
	if _, err := p.Report(context.Background(), far); !errors.Is(err, ErrQuotaExceeded) {
		t.Errorf("second fetch err = %v, want ErrQuotaExceeded", err)
	}

	// Cache hits stay free even with the window full.
	res, err := p.Report(context.Background(), base)
	if err != nil {
		t.Fatalf("cached report under full quota: %v", err)
	}
	if !res.Cached {
		t.Error("expected a cache hit")
	}

	// Another user has their own window.
	other := far
	other.UserID = 8
	if _, err := p.Report(context.Background(), other); err != nil {
		t.Errorf("other user's report: %v", err)
	}
}

func TestReportQuotaOverride(t *testing.T) {
	var calls atomic.Int64
	p, _ := newTestPipeline(
		Sources{models.OpenMeteoDaily: countingFetch(&calls, nil)},
		Config{QuotaDefault: 1, QuotaWindow: time.Hour, QuotaOverrides: map[int64]int{7: 3}},
	)

	req := ReportRequest{UserID: 7, Lang: "en", Kind: models.OpenMeteoDaily, Now: testNow}
	for i := 0; i < 3; i++ {
		req.Lat = float64(10 * i) // separate coordinates, separate fetches
		if _, err := p.Report(context.Background(), req); err != nil {
			t.Fatalf("report %d: %v", i, err)
		}
	}
	req.Lat = 80
	if _, err := p.Report(context.Background(), req); !errors.Is(err, ErrQuotaExceeded) {
		t.Errorf("err = %v, want ErrQuotaExceeded after the override limit", err)
	}
}

func TestReportFailedFetchNotCached(t *testing.T) {
	var calls atomic.Int64
	boom := errors.New("upstream down")
	p, st := newTestPipeline(Sources{models.OpenMeteoDaily: countingFetch(&calls, boom)}, Config{})

	req := ReportRequest{UserID: 1, Lang: "en", Kind: models.OpenMeteoDaily, Lat: 40, Lon: -3, Now: testNow}
	if _, err := p.Report(context.Background(), req); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want upstream error", err)
	}

	entries, err := st.RecentByKind(context.Background(), models.OpenMeteoDaily, testNow.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("RecentByKind: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("failed fetch was persisted: %d entries", len(entries))
	}
}

func TestReportUnknownKind(t *testing.T) {
	p, _ := newTestPipeline(Sources{}, Config{})
	_, err := p.Report(context.Background(), ReportRequest{Kind: "nope"})
	if !errors.Is(err, models.ErrUnknownKind) {
		t.Errorf("err = %v, want ErrUnknownKind", err)
	}
}

func TestReportUnavailableKind(t *testing.T) {
	src := Source{
		Fetch:     func(ctx context.Context, lat, lon float64, lang string) (*models.Response, error) { return nil, nil },
		Available: func() bool { return false },
	}
	p, _ := newTestPipeline(Sources{models.AccuWeatherHourly: src}, Config{})
	_, err := p.Report(context.Background(), ReportRequest{Kind: models.AccuWeatherHourly})
	if !errors.Is(err, ErrKindUnavailable) {
		t.Errorf("err = %v, want ErrKindUnavailable", err)
	}
}

func TestCombinedFanOut(t *testing.T) {
	var om, owm, accu atomic.Int64
	p, _ := newTestPipeline(Sources{
		models.OpenMeteoHourly:      countingFetch(&om, nil),
		models.OpenWeatherMapHourly: countingFetch(&owm, nil),
		models.AccuWeatherHourly:    countingFetch(&accu, nil),
	}, Config{})

	res, err := p.Report(context.Background(), ReportRequest{
		UserID: 1, Lang: "en", Kind: models.CombinedHourly, Lat: 40, Lon: -3, Now: testNow,
	})
	if err != nil {
		t.Fatalf("combined report: %v", err)
	}
	if string(res.Image) != "png:12:3" {
		t.Errorf("image = %q, want a 12x3 grid", res.Image)
	}
	if om.Load() != 1 || owm.Load() != 1 || accu.Load() != 1 {
		t.Errorf("fetch counts = %d/%d/%d, want 1 each", om.Load(), owm.Load(), accu.Load())
	}
}

func TestCombinedSkipsUnconfigured(t *testing.T) {
	var om, owm atomic.Int64
	accu := countingFetch(nil, nil)
	accu.Available = func() bool { return false }
	p, _ := newTestPipeline(Sources{
		models.OpenMeteoHourly:      countingFetch(&om, nil),
		models.OpenWeatherMapHourly: countingFetch(&owm, nil),
		models.AccuWeatherHourly:    accu,
	}, Config{})

	res, err := p.Report(context.Background(), ReportRequest{
		UserID: 1, Lang: "en", Kind: models.CombinedHourly, Lat: 40, Lon: -3, Now: testNow,
	})
	if err != nil {
		t.Fatalf("combined report: %v", err)
	}
	if string(res.Image) != "png:12:2" {
		t.Errorf("image = %q, want a 12x2 grid", res.Image)
	}
}

func TestCombinedNoBases(t *testing.T) {
	p, _ := newTestPipeline(Sources{}, Config{})
	_, err := p.Report(context.Background(), ReportRequest{Kind: models.CombinedHourly})
	if !errors.Is(err, ErrKindUnavailable) {
		t.Errorf("err = %v, want ErrKindUnavailable", err)
	}
}

func TestCombinedWithoutRenderer(t *testing.T) {
	var calls atomic.Int64
	p, _ := newTestPipelineRender(Sources{
		models.OpenMeteoHourly:      countingFetch(&calls, nil),
		models.OpenWeatherMapHourly: countingFetch(&calls, nil),
	}, Config{}, nil)

	_, err := p.Report(context.Background(), ReportRequest{
		UserID: 1, Lang: "en", Kind: models.CombinedHourly, Lat: 40, Lon: -3, Now: testNow,
	})
	if !errors.Is(err, ErrKindUnavailable) {
		t.Errorf("err = %v, want ErrKindUnavailable", err)
	}
	if got := calls.Load(); got != 0 {
		t.Errorf("upstream fetches = %d, want none without a renderer", got)
	}
}

func TestCombinedFailedBase(t *testing.T) {
	var om atomic.Int64
	boom := errors.New("owm down")
	p, _ := newTestPipeline(Sources{
		models.OpenMeteoHourly:      countingFetch(&om, nil),
		models.OpenWeatherMapHourly: countingFetch(nil, boom),
	}, Config{})

	_, err := p.Report(context.Background(), ReportRequest{
		UserID: 1, Lang: "en", Kind: models.CombinedHourly, Now: testNow,
	})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want the base's upstream error", err)
	}
}

func TestConcurrentRequestsCoalesce(t *testing.T) {
	var calls atomic.Int64
	slow := Source{Fetch: func(ctx context.Context, lat, lon float64, lang string) (*models.Response, error) {
		calls.Add(1)
		time.Sleep(50 * time.Millisecond)
		return testResponse(lat, lon), nil
	}}
	p, _ := newTestPipeline(
		Sources{models.OpenMeteoDaily: slow},
		Config{QuotaDefault: 100, CoalesceTimeout: time.Second},
	)

	req := ReportRequest{UserID: 1, Lang: "en", Kind: models.OpenMeteoDaily, Lat: 40, Lon: -3, Now: testNow}
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		go func() {
			_, err := p.Report(context.Background(), req)
			errs <- err
		}()
	}
	for i := 0; i < 5; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("concurrent report: %v", err)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("upstream fetches = %d, want 1", got)
	}
}

func TestPageOf(t *testing.T) {
	var calls atomic.Int64
	p, _ := newTestPipeline(Sources{models.OpenMeteoDaily: countingFetch(&calls, nil)}, Config{})

	req := ReportRequest{UserID: 1, Lang: "en", Kind: models.OpenMeteoDaily, Lat: 40, Lon: -3, Now: testNow}
	first, err := p.Report(context.Background(), req)
	if err != nil {
		t.Fatalf("report: %v", err)
	}

	page, err := p.PageOf(context.Background(), first.EntryID, "en", 1, testNow)
	if err != nil {
		t.Fatalf("PageOf: %v", err)
	}
	if page.Page != 1 || page.Text == "" || page.EntryID != first.EntryID {
		t.Errorf("page = %+v", page)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("paging triggered %d extra fetches", got-1)
	}

	if _, err := p.PageOf(context.Background(), 9999, "en", 0, testNow); !errors.Is(err, ErrCacheExpired) {
		t.Errorf("missing entry err = %v, want ErrCacheExpired", err)
	}
}
