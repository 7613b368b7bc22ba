// Package http is the service's HTTP surface: report endpoints, health and
// metrics, with correlation-ID, metrics and rate-limit middleware.
package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"weatherreport/internal/i18n"
	"weatherreport/internal/models"
	"weatherreport/internal/observability"
	"weatherreport/internal/provider"
	"weatherreport/internal/service"
)

// Handler holds the HTTP endpoints' dependencies. User-facing error messages
// resolve through the catalog in the request's language.
type Handler struct {
	pipeline *service.Pipeline
	catalog  *i18n.Catalog
	logger   *zap.Logger
}

// NewHandler returns a new Handler.
func NewHandler(pipeline *service.Pipeline, catalog *i18n.Catalog, logger *zap.Logger) *Handler {
	return &Handler{pipeline: pipeline, catalog: catalog, logger: logger}
}

// NewRouter wires routes and middleware. limiter may be nil to disable rate
// limiting.
func NewRouter(h *Handler, logger *zap.Logger, limiter *rate.Limiter) *mux.Router {
	r := mux.NewRouter()
	r.Use(CorrelationIDMiddleware(logger))
	r.Use(MetricsMiddleware)
	r.Use(RateLimitMiddleware(limiter))

	r.HandleFunc("/health", h.GetHealth).Methods(http.MethodGet)
	r.Handle("/metrics", observability.MetricsHandler()).Methods(http.MethodGet)
	r.HandleFunc("/weather/page/{id}", h.GetReportPage).Methods(http.MethodGet)
	r.HandleFunc("/weather/{kind}", h.GetReport).Methods(http.MethodGet)
	return r
}

type reportResponse struct {
	Kind      string `json:"kind,omitempty"`
	Message   string `json:"message"`
	Page      int    `json:"page"`
	PageCount int    `json:"pageCount"`
	EntryID   int64  `json:"entryId,omitempty"`
	Cached    bool   `json:"cached"`
}

// GetReport handles GET /weather/{kind}?lat=..&lon=..&page=..&lang=.. with the
// requesting user in X-User-ID. The combined kind answers with a PNG, all
// others with JSON.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	kind, err := models.ParseReportKind(mux.Vars(r)["kind"])
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "UNKNOWN_KIND", err.Error())
		return
	}

	lat, lon, ok := parseCoordinates(w, r)
	if !ok {
		return
	}

	userID, err := strconv.ParseInt(r.Header.Get("X-User-ID"), 10, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_USER", "X-User-ID header is required")
		return
	}

	req := service.ReportRequest{
		UserID: userID,
		Lang:   language(r),
		Kind:   kind,
		Lat:    lat,
		Lon:    lon,
		Page:   queryInt(r, "page"),
	}

	result, err := h.pipeline.Report(r.Context(), req)
	if err != nil {
		h.writeReportError(w, r, err)
		return
	}

	if len(result.Image) > 0 {
		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(result.Image)
		return
	}

	writeJSON(w, http.StatusOK, reportResponse{
		Kind:      kind.String(),
		Message:   result.Text,
		Page:      result.Page,
		PageCount: result.PageCount,
		EntryID:   result.EntryID,
		Cached:    result.Cached,
	})
}

// GetReportPage handles GET /weather/page/{id}?page=..&lang=.. re-rendering a
// stored report at another page.
func (h *Handler) GetReportPage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_ID", "entry id must be an integer")
		return
	}

	result, err := h.pipeline.PageOf(r.Context(), id, language(r), queryInt(r, "page"), time.Time{})
	if err != nil {
		h.writeReportError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, reportResponse{
		Message:   result.Text,
		Page:      result.Page,
		PageCount: result.PageCount,
		EntryID:   result.EntryID,
		Cached:    true,
	})
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"service":   "weatherreport",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func parseCoordinates(w http.ResponseWriter, r *http.Request) (lat, lon float64, ok bool) {
	var err error
	lat, err = strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		writeError(w, r, http.StatusBadRequest, "INVALID_COORDINATES", "lat must be a number in [-90, 90]")
		return 0, 0, false
	}
	lon, err = strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err != nil || lon < -180 || lon > 180 {
		writeError(w, r, http.StatusBadRequest, "INVALID_COORDINATES", "lon must be a number in [-180, 180]")
		return 0, 0, false
	}
	return lat, lon, true
}

func language(r *http.Request) string {
	if lang := r.URL.Query().Get("lang"); lang != "" {
		return lang
	}
	return "en"
}

func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return n
}

// writeReportError maps pipeline errors onto HTTP statuses. Quota and expiry
// messages are user-facing and localized; the rest are operator-facing.
func (h *Handler) writeReportError(w http.ResponseWriter, r *http.Request, err error) {
	lang := language(r)
	var unmapped *provider.UnmappedCodeError
	switch {
	case errors.Is(err, service.ErrQuotaExceeded):
		writeError(w, r, http.StatusTooManyRequests, "QUOTA_EXCEEDED", h.catalog.Get(lang, "error.quota_exceeded"))
	case errors.Is(err, service.ErrCacheExpired):
		writeError(w, r, http.StatusGone, "REPORT_EXPIRED", h.catalog.Get(lang, "error.cache_expired"))
	case errors.Is(err, models.ErrUnknownKind):
		writeError(w, r, http.StatusBadRequest, "UNKNOWN_KIND", "unknown report kind")
	case errors.Is(err, service.ErrKindUnavailable), errors.Is(err, provider.ErrNotConfigured):
		writeError(w, r, http.StatusServiceUnavailable, "KIND_UNAVAILABLE", "this report kind is not configured")
	case errors.As(err, &unmapped):
		writeError(w, r, http.StatusBadGateway, "UPSTREAM_ERROR", "upstream returned an unrecognized condition code")
	default:
		writeError(w, r, http.StatusBadGateway, "UPSTREAM_ERROR", "unable to fetch weather data")
	}

	if logger := loggerFrom(r); logger != nil {
		logger.Debug("report request failed", zap.Error(err))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	corrID, _ := r.Context().Value(correlationIDKey{}).(string)
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": corrID,
		},
	})
}

func loggerFrom(r *http.Request) *zap.Logger {
	return service.LoggerFromContext(r.Context())
}
