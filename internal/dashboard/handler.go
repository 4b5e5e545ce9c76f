// Package dashboard serves the benchmark results dashboard over HTTP.
package dashboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	apperrors "github.com/lueurxax/linking-dashboard/internal/core/errors"
	"github.com/lueurxax/linking-dashboard/internal/core/results"
	"github.com/lueurxax/linking-dashboard/internal/platform/observability"
	"github.com/lueurxax/linking-dashboard/internal/viewer"
)

// Log field constants.
const logFieldExperiment = "experiment"

// HTTP header constants.
const (
	headerContentType = "Content-Type"
	contentTypeHTML   = "text/html; charset=utf-8"
	contentTypeJSON   = "application/json"
)

// Route names used as metric labels.
const (
	routeIndex      = "index"
	routeExperiment = "experiment"
	routeReload     = "reload"
	routeArticle    = "article"
	routeChart      = "chart"
)

// ResultsSource lists experiments and reads their aggregate results.
type ResultsSource interface {
	ListExperiments() ([]results.Experiment, error)
	ReadResults(exp results.Experiment) (*results.Results, error)
}

// Config holds the handler settings.
type Config struct {
	CookieName   string
	CookieSecure bool
	RateLimitRPS int
	RateBurst    int
	TypeLabels   map[string]string
}

// Handler serves the dashboard pages.
type Handler struct {
	cfg      Config
	source   ResultsSource
	store    *viewer.Store
	viewer   *viewer.Viewer
	sessions *viewer.Sessions
	families results.BenchmarkFamilies
	pages    *Pages
	logger   *zerolog.Logger
	mux      *http.ServeMux

	// IP-based rate limiting
	limiters   map[string]*rate.Limiter
	limitersMu sync.Mutex
}

// NewHandler creates the dashboard handler.
func NewHandler(
	cfg Config,
	source ResultsSource,
	store *viewer.Store,
	v *viewer.Viewer,
	sessions *viewer.Sessions,
	families results.BenchmarkFamilies,
	logger *zerolog.Logger,
) (*Handler, error) {
	pages, err := NewPages()
	if err != nil {
		return nil, err
	}

	if cfg.CookieName == "" {
		cfg.CookieName = "linking_session"
	}

	h := &Handler{
		cfg:      cfg,
		source:   source,
		store:    store,
		viewer:   v,
		sessions: sessions,
		families: families,
		pages:    pages,
		logger:   logger,
		limiters: make(map[string]*rate.Limiter),
	}

	mux := http.NewServeMux()
	mux.Handle("GET /{$}", h.instrument(routeIndex, h.serveIndex))
	mux.Handle("GET /experiment/{linker}/{benchmark}", h.instrument(routeExperiment, h.serveExperiment))
	mux.Handle("POST /experiment/{linker}/{benchmark}/reload", h.instrument(routeReload, h.serveReload))
	mux.Handle("GET /article", h.instrument(routeArticle, h.serveArticle))
	mux.Handle("GET /chart/{linker}/{benchmark}", h.instrument(routeChart, h.serveChart))
	h.mux = mux

	return h, nil
}

// ServeHTTP dispatches to the dashboard routes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Robots-Tag", "noindex, nofollow")
	w.Header().Set("Referrer-Policy", "no-referrer")

	if !h.allowRequest(getClientIP(r)) {
		observability.RateLimitedTotal.Inc()
		h.renderError(w, r, http.StatusTooManyRequests, "Too Many Requests", "Please wait before trying again.")

		return
	}

	h.mux.ServeHTTP(w, r)
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.code = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *Handler) instrument(route string, fn http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}

		defer func() {
			if p := recover(); p != nil {
				h.logger.Error().Interface("panic", p).Str("route", route).Msg("Request handler panicked")
				h.renderError(rec, r, http.StatusInternalServerError, "Error", "Something went wrong while rendering this page.")
			}

			observability.HTTPRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
			observability.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(rec.code)).Inc()
		}()

		fn(rec, r)
	})
}

func (h *Handler) serveIndex(w http.ResponseWriter, r *http.Request) {
	exps, err := h.source.ListExperiments()
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list experiments")
		h.renderError(w, r, http.StatusInternalServerError, "Error", "The results directory could not be read.")

		return
	}

	observability.ExperimentsAvailable.Set(float64(len(exps)))

	data := &IndexData{}

	for _, exp := range exps {
		res, err := h.source.ReadResults(exp)
		if err != nil {
			h.logger.Warn().Err(err).Str(logFieldExperiment, exp.Key()).Msg("Skipping unreadable results")
			data.Failed = append(data.Failed, exp.Key())

			continue
		}

		data.Rows = append(data.Rows, overviewRow(exp, res.All))
	}

	h.respond(w, r, pageIndex, data)
}

// experimentFromPath reads the experiment from the decoded path segments and
// answers 400 when a name could escape the results directory.
func (h *Handler) experimentFromPath(w http.ResponseWriter, r *http.Request) (results.Experiment, bool) {
	exp := results.Experiment{Linker: r.PathValue("linker"), Benchmark: r.PathValue("benchmark")}
	if err := exp.Validate(); err != nil {
		h.logger.Warn().Err(err).Msg("Rejected experiment path")
		h.renderError(w, r, http.StatusBadRequest, "Bad Request", "Invalid experiment name.")

		return exp, false
	}

	return exp, true
}

func (h *Handler) serveExperiment(w http.ResponseWriter, r *http.Request) {
	exp, ok := h.experimentFromPath(w, r)
	if !ok {
		return
	}

	res, err := h.source.ReadResults(exp)
	if err != nil {
		h.handleResultsError(w, r, exp, err)

		return
	}

	h.respond(w, r, pageExperiment, newExperimentData(res, h.cfg.TypeLabels))
}

func (h *Handler) serveReload(w http.ResponseWriter, r *http.Request) {
	exp, ok := h.experimentFromPath(w, r)
	if !ok {
		return
	}

	h.store.Reload(exp)
	h.logger.Info().Str(logFieldExperiment, exp.Key()).Msg("Experiment reload requested")

	http.Redirect(w, r, experimentPath("/experiment/", exp), http.StatusSeeOther)
}

func (h *Handler) serveChart(w http.ResponseWriter, r *http.Request) {
	exp, ok := h.experimentFromPath(w, r)
	if !ok {
		return
	}

	res, err := h.source.ReadResults(exp)
	if err != nil {
		h.handleResultsError(w, r, exp, err)

		return
	}

	by := r.URL.Query().Get(paramBy)
	if by == "" {
		by = "entity_types"
	}

	bar, err := BreakdownChart(res, by, h.cfg.TypeLabels)
	if err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Bad Request", "Unknown chart breakdown.")

		return
	}

	body, err := RenderChart(bar)
	if err != nil {
		h.logger.Error().Err(err).Str(logFieldExperiment, exp.Key()).Msg("Failed to render chart")
		h.renderError(w, r, http.StatusInternalServerError, "Error", "The chart could not be rendered.")

		return
	}

	w.Header().Set(headerContentType, contentTypeHTML)
	_, _ = w.Write(body)
}

func (h *Handler) serveArticle(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	update, err := parseViewUpdate(q)
	if err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Bad Request", err.Error())

		return
	}

	sess := h.session(w, r)
	view := sess.Update(h.store.Cache(), func(v *viewer.View) {
		update.apply(v, h.families)
	})

	start := time.Now()

	page, err := h.viewer.Render(r.Context(), sess, parseTimestamp(q))

	switch {
	case errors.Is(err, apperrors.ErrStale):
		// A newer request of the same session owns the response.
		w.WriteHeader(http.StatusNoContent)

		return
	case errors.Is(err, apperrors.ErrInvalidInput):
		h.renderError(w, r, http.StatusBadRequest, "Bad Request", "Select at least one experiment.")

		return
	case err != nil:
		h.logger.Debug().Err(err).Msg("Article request abandoned")
		h.renderError(w, r, http.StatusServiceUnavailable, "Unavailable", "The request was cancelled.")

		return
	}

	observability.ArticleRenderDuration.WithLabelValues(strconv.Itoa(len(page.Columns))).Observe(time.Since(start).Seconds())

	if wantsJSON(r) {
		h.writeJSON(w, http.StatusOK, page)

		return
	}

	h.respond(w, r, pageArticle, newArticleData(page, view))
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) *viewer.Session {
	var id string
	if c, err := r.Cookie(h.cfg.CookieName); err == nil {
		id = c.Value
	}

	sess, created := h.sessions.Get(id)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     h.cfg.CookieName,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			Secure:   h.cfg.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
	}

	return sess
}

func (h *Handler) handleResultsError(w http.ResponseWriter, r *http.Request, exp results.Experiment, err error) {
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput):
		h.renderError(w, r, http.StatusBadRequest, "Bad Request", "Invalid experiment name.")
	case errors.Is(err, apperrors.ErrExperimentNotFound):
		h.renderError(w, r, http.StatusNotFound, "Not Found", "No results for "+exp.String()+".")
	case errors.Is(err, apperrors.ErrMalformedResults):
		h.logger.Warn().Err(err).Str(logFieldExperiment, exp.Key()).Msg("Malformed results file")
		h.renderError(w, r, http.StatusUnprocessableEntity, "Malformed Results", "The results file of "+exp.String()+" could not be parsed.")
	default:
		h.logger.Error().Err(err).Str(logFieldExperiment, exp.Key()).Msg("Failed to read results")
		h.renderError(w, r, http.StatusInternalServerError, "Error", "Failed to load results.")
	}
}

// respond writes data as JSON or renders the named page.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, page string, data any) {
	if wantsJSON(r) {
		h.writeJSON(w, http.StatusOK, data)

		return
	}

	var buf bytes.Buffer
	if err := h.pages.execute(&buf, page, data); err != nil {
		h.logger.Error().Err(err).Str("page", page).Msg("Failed to render page")
		h.renderError(w, r, http.StatusInternalServerError, "Error", "The page could not be rendered.")

		return
	}

	w.Header().Set(headerContentType, contentTypeHTML)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, code int, title, message string) {
	data := &ErrorData{Code: code, Title: title, Message: message}

	if wantsJSON(r) {
		h.writeJSON(w, code, data)

		return
	}

	w.Header().Set(headerContentType, contentTypeHTML)
	w.WriteHeader(code)

	if err := h.pages.execute(w, pageError, data); err != nil {
		h.logger.Error().Err(err).Msg("Failed to render error page")
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set(headerContentType, contentTypeJSON)
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func wantsJSON(r *http.Request) bool {
	if f := r.URL.Query().Get(paramFormat); f != "" {
		return f == "json"
	}

	return strings.Contains(r.Header.Get("Accept"), contentTypeJSON)
}

func (h *Handler) allowRequest(ip string) bool {
	if h.cfg.RateLimitRPS <= 0 {
		return true
	}

	h.limitersMu.Lock()

	limiter, ok := h.limiters[ip]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(h.cfg.RateLimitRPS), max(h.cfg.RateBurst, 1))
		h.limiters[ip] = limiter
	}

	h.limitersMu.Unlock()

	return limiter.Allow()
}

func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header (common with reverse proxies)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	return r.RemoteAddr
}
