package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	appadvice "github.com/bryanwahyu/automaton-epub/internal/application/advice"
	appchecks "github.com/bryanwahyu/automaton-epub/internal/application/checks"
	"github.com/bryanwahyu/automaton-epub/internal/domain/ai"
	domain "github.com/bryanwahyu/automaton-epub/internal/domain/checks"
	"github.com/bryanwahyu/automaton-epub/internal/middleware"
	"github.com/bryanwahyu/automaton-epub/internal/report"
)

type Options struct {
	APIKeys     map[string]string // empty disables auth
	CORSOrigins []string
	MaxUploadMB int
	UploadDir   string
	Limiter     *middleware.RunLimiter
	Health      map[string]middleware.HealthChecker
	Log         zerolog.Logger
}

type Router struct {
	checksSvc *appchecks.Service
	adviceSvc *appadvice.Service // nil when advice is disabled
	limiter   *middleware.RunLimiter
	maxUpload int64
	uploadDir string
	log       zerolog.Logger
}

func NewRouter(checksSvc *appchecks.Service, adviceSvc *appadvice.Service, opts Options) http.Handler {
	if opts.Limiter == nil {
		opts.Limiter = middleware.NewRunLimiter(1)
	}
	if opts.MaxUploadMB <= 0 {
		opts.MaxUploadMB = 100
	}
	r := &Router{
		checksSvc: checksSvc,
		adviceSvc: adviceSvc,
		limiter:   opts.Limiter,
		maxUpload: int64(opts.MaxUploadMB) << 20,
		uploadDir: opts.UploadDir,
		log:       opts.Log,
	}

	mux := chi.NewRouter()
	mux.Use(middleware.Logging(opts.Log))
	mux.Use(middleware.CountRequests)
	if len(opts.CORSOrigins) > 0 {
		mux.Use(cors.Handler(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			MaxAge:         300,
		}))
	}
	if len(opts.APIKeys) > 0 {
		mux.Use(middleware.APIKeyAuth(opts.APIKeys))
	}

	mux.Get("/health", middleware.HealthHandler(opts.Health))
	mux.Get("/ready", middleware.ReadinessHandler(opts.Health))
	mux.Get("/live", middleware.LivenessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1/{tenant}", func(rt chi.Router) {
		rt.Use(middleware.RequireValidTenant)
		rt.Post("/checks", r.wrap(r.handleCreateCheck))
		rt.Get("/checks/latest", r.wrap(r.handleLatest))
		rt.Get("/checks/{id}", r.wrap(r.handleGet))
		rt.Get("/checks/{id}/diagnostics", r.wrap(r.handleDiagnostics))
		rt.Get("/checks/{id}/report", r.wrap(r.handleReport))
		rt.Get("/summary", r.wrap(r.handleSummary))
		rt.Post("/advice", r.wrap(r.handleAdvice))
		rt.Get("/advice", r.wrap(r.handleAdviceList))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

var errAdviceDisabled = errors.New("advice is not configured")

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, sql.ErrNoRows):
			http.Error(w, "not found", http.StatusNotFound)
		case errors.Is(err, middleware.ErrInvalidInput), errors.Is(err, report.ErrUnknownFormat):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.As(err, &maxErr):
			http.Error(w, "upload too large", http.StatusRequestEntityTooLarge)
		case errors.Is(err, middleware.ErrBusy):
			w.Header().Set("Retry-After", "30")
			http.Error(w, err.Error(), http.StatusTooManyRequests)
		case errors.Is(err, ai.ErrQuotaExceeded):
			http.Error(w, "ai quota exceeded", http.StatusTooManyRequests)
		case errors.Is(err, ai.ErrNothingToAdvise):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		case errors.Is(err, errAdviceDisabled):
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
		default:
			r.log.Error().Err(err).Str("path", req.URL.Path).Msg("request failed")
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(v)
}

// POST /v1/{tenant}/checks
// multipart form: epub=<file>, locale, usage, source; ?wait=true runs inline
func (r *Router) handleCreateCheck(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")

	req.Body = http.MaxBytesReader(w, req.Body, r.maxUpload+1<<20)
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return err
		}
		return errors.Join(middleware.ErrInvalidInput, err)
	}
	file, hdr, err := req.FormFile("epub")
	if err != nil {
		return errors.Join(middleware.ErrInvalidInput, err)
	}
	defer file.Close()

	name := filepath.Base(hdr.Filename)
	if err := middleware.ValidateUpload(name, hdr.Size, r.maxUpload); err != nil {
		return err
	}
	locale, err := middleware.ValidateLocale(req.FormValue("locale"))
	if err != nil {
		return err
	}
	usage, _ := strconv.ParseBool(req.FormValue("usage"))

	release, err := r.limiter.TryAcquire(tenant)
	if err != nil {
		return err
	}

	dir, err := os.MkdirTemp(r.uploadDir, "upload-")
	if err != nil {
		release()
		return err
	}
	cleanup := func() {
		os.RemoveAll(dir)
		release()
	}
	path := filepath.Join(dir, name)
	if err := saveUpload(file, path); err != nil {
		cleanup()
		return err
	}

	cmd := appchecks.CheckCommand{
		TenantID: tenant,
		EPUBPath: path,
		Package:  name,
		Locale:   locale,
		Usage:    usage,
		Source:   middleware.SanitizeString(req.FormValue("source")),
	}
	if meta := req.FormValue("metadata"); meta != "" {
		var m any
		if err := json.Unmarshal([]byte(meta), &m); err != nil {
			cleanup()
			return errors.Join(middleware.ErrInvalidInput, err)
		}
		cmd.Metadata = m
	}

	middleware.CheckStarted()
	if wait, _ := strconv.ParseBool(req.URL.Query().Get("wait")); wait {
		res, err := r.checksSvc.Check(req.Context(), cmd)
		cleanup()
		finished(res, err)
		if err != nil && res.ID == "" {
			return err
		}
		return writeJSON(w, http.StatusOK, res)
	}

	id, err := r.checksSvc.Enqueue(cmd, func(res appchecks.CheckResult, err error) {
		defer cleanup()
		finished(res, err)
		if err != nil {
			r.log.Warn().Err(err).Str("tenant", tenant).Str("check_id", res.ID).Msg("background check failed")
		}
	})
	if err != nil {
		cleanup()
		middleware.CheckFinished(domain.StatusFailed, domain.SeverityCounts{}, 0)
		return err
	}

	return writeJSON(w, http.StatusAccepted, map[string]any{
		"id":       id,
		"status":   domain.StatusRunning,
		"tenant":   tenant,
		"package":  name,
		"message":  "check started in background",
		"queuedAt": time.Now(),
	})
}

func finished(res appchecks.CheckResult, err error) {
	status := domain.Status(res.Status)
	if err != nil {
		status = domain.StatusFailed
	}
	middleware.CheckFinished(status, res.Counts, time.Duration(res.DurationMS)*time.Millisecond)
}

func saveUpload(src io.Reader, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// GET /v1/{tenant}/checks/latest?limit=20
func (r *Router) handleLatest(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	list, err := r.checksSvc.Latest(req.Context(), tenant, middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	if list == nil {
		list = []*domain.Check{}
	}
	return writeJSON(w, http.StatusOK, list)
}

func (r *Router) loadCheck(req *http.Request) (*domain.Check, error) {
	tenant := chi.URLParam(req, "tenant")
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateCheckID(id); err != nil {
		return nil, err
	}
	return r.checksSvc.Get(req.Context(), tenant, domain.CheckID(id))
}

// GET /v1/{tenant}/checks/{id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	c, err := r.loadCheck(req)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, c)
}

// GET /v1/{tenant}/checks/{id}/diagnostics
func (r *Router) handleDiagnostics(w http.ResponseWriter, req *http.Request) error {
	c, err := r.loadCheck(req)
	if err != nil {
		return err
	}
	diags := c.Diagnostics
	if diags == nil {
		diags = []domain.Diagnostic{}
	}
	return writeJSON(w, http.StatusOK, diags)
}

// GET /v1/{tenant}/checks/{id}/report?format=text|json|markdown|html
func (r *Router) handleReport(w http.ResponseWriter, req *http.Request) error {
	format, err := report.ParseFormat(req.URL.Query().Get("format"))
	if err != nil {
		return err
	}
	c, err := r.loadCheck(req)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", format.ContentType())
	return report.Write(w, format, c, report.Options{})
}

// GET /v1/{tenant}/summary?days=7
func (r *Router) handleSummary(w http.ResponseWriter, req *http.Request) error {
	tenant := chi.URLParam(req, "tenant")
	days, _ := strconv.Atoi(req.URL.Query().Get("days"))

	summary, err := r.checksSvc.Summary(req.Context(), tenant, middleware.ValidateDays(days))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, summary)
}

// POST /v1/{tenant}/advice
// Body: {"check_id": "<id>"}
func (r *Router) handleAdvice(w http.ResponseWriter, req *http.Request) error {
	if r.adviceSvc == nil {
		return errAdviceDisabled
	}
	tenant := chi.URLParam(req, "tenant")
	var body struct {
		CheckID string `json:"check_id"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return errors.Join(middleware.ErrInvalidInput, err)
	}
	if err := middleware.ValidateCheckID(body.CheckID); err != nil {
		return err
	}

	a, err := r.adviceSvc.AdviseAndStore(req.Context(), tenant, body.CheckID)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, a)
}

// GET /v1/{tenant}/advice?page=&page_size=
func (r *Router) handleAdviceList(w http.ResponseWriter, req *http.Request) error {
	if r.adviceSvc == nil {
		return errAdviceDisabled
	}
	tenant := chi.URLParam(req, "tenant")
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))

	list, err := r.adviceSvc.List(req.Context(), tenant, page, middleware.ValidateLimit(size))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}
