package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/TripCrew/internal/domain/trip"
	"github.com/Strob0t/TripCrew/internal/service"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
	recentOnForm     = 5
	healthTimeout    = 3 * time.Second
)

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Runs      *service.RunService
	Pages     *Pages
	BodyLimit int64
	Checks    map[string]HealthCheck
}

// ---------------------------------------------------------------------------
// Web pages
// ---------------------------------------------------------------------------

// Index draws the empty preference form.
func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	recent, err := h.Runs.List(r.Context(), recentOnForm)
	if err != nil {
		slog.WarnContext(r.Context(), "list recent runs failed", "error", err)
		recent = nil
	}
	h.Pages.RenderForm(w, trip.Defaults(), recent)
}

// SubmitForm runs the crew for the submitted form and draws the plan, or a
// single error notice.
func (h *Handlers) SubmitForm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.BodyLimit)
	if err := r.ParseForm(); err != nil {
		h.Pages.RenderError(w, http.StatusBadRequest, "The form could not be read.", trip.Defaults())
		return
	}

	prefs, err := prefsFromForm(r)
	if err != nil {
		h.Pages.RenderError(w, http.StatusBadRequest, "Trip duration must be a whole number of days.", prefs)
		return
	}

	rec, err := h.Runs.Plan(r.Context(), r.PostForm.Get("run_id"), prefs)
	if err != nil {
		status, msg := domainStatus(err, "Plan not found.")
		if status >= http.StatusInternalServerError {
			slog.ErrorContext(r.Context(), "plan request failed", "status", status, "error", err)
			msg = GenericFailure
		}
		h.Pages.RenderError(w, status, msg, prefs)
		return
	}
	h.Pages.Render(w, rec)
}

// ShowRun redraws a finished run.
func (h *Handlers) ShowRun(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Runs.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		status, msg := domainStatus(err, "Plan not found.")
		if status >= http.StatusInternalServerError {
			slog.ErrorContext(r.Context(), "load run failed", "error", err)
		}
		h.Pages.RenderError(w, status, msg, trip.Defaults())
		return
	}
	h.Pages.Render(w, rec)
}

// DownloadPlan returns a finished run as a markdown document.
func (h *Handlers) DownloadPlan(w http.ResponseWriter, r *http.Request) {
	id := urlParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		http.NotFound(w, r)
		return
	}
	rec, err := h.Runs.Get(r.Context(), id)
	if err != nil {
		status, msg := domainStatus(err, "plan not found")
		http.Error(w, msg, status)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="trip-`+rec.ID+`.md"`)
	_, _ = w.Write([]byte(rec.Document()))
}

// prefsFromForm reads the preference fields. A missing duration takes the
// default; a non-numeric one is an error.
func prefsFromForm(r *http.Request) (trip.Preferences, error) {
	prefs := trip.Preferences{
		TravelType: trip.TravelType(r.PostForm.Get("travel_type")),
		Interests:  selectedInterests(r.PostForm["interests"]),
		Season:     trip.Season(r.PostForm.Get("season")),
		Budget:     trip.Budget(r.PostForm.Get("budget")),
		Duration:   trip.DefaultDuration,
	}
	if raw := strings.TrimSpace(r.PostForm.Get("duration")); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil {
			return prefs, err
		}
		prefs.Duration = d
	}
	return prefs, nil
}

// ---------------------------------------------------------------------------
// JSON API
// ---------------------------------------------------------------------------

type planRequest struct {
	RunID string `json:"run_id,omitempty"`
	trip.Preferences
}

// CreatePlan handles POST /api/v1/plans.
func (h *Handlers) CreatePlan(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[planRequest](w, r, h.BodyLimit)
	if !ok {
		return
	}
	if req.Duration == 0 {
		req.Duration = trip.DefaultDuration
	}
	rec, err := h.Runs.Plan(r.Context(), req.RunID, req.Preferences)
	if err != nil {
		writeDomainError(w, r, err, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// GetRun handles GET /api/v1/runs/{id}.
func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Runs.Get(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// ListRuns handles GET /api/v1/runs?limit=N.
func (h *Handlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxListLimit)
	}
	recs, err := h.Runs.List(r.Context(), limit)
	if err != nil {
		writeDomainError(w, r, err, "runs not found")
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

type optionsResponse struct {
	TravelTypes     []trip.TravelType `json:"travel_types"`
	Interests       []string          `json:"interests"`
	Seasons         []trip.Season     `json:"seasons"`
	Budgets         []trip.Budget     `json:"budgets"`
	MinDuration     int               `json:"min_duration"`
	MaxDuration     int               `json:"max_duration"`
	DefaultDuration int               `json:"default_duration"`
}

// Options handles GET /api/v1/options.
func (h *Handlers) Options(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, optionsResponse{
		TravelTypes:     trip.TravelTypes,
		Interests:       trip.Interests,
		Seasons:         trip.Seasons,
		Budgets:         trip.Budgets,
		MinDuration:     trip.MinDuration,
		MaxDuration:     trip.MaxDuration,
		DefaultDuration: trip.DefaultDuration,
	})
}

// ---------------------------------------------------------------------------
// Health
// ---------------------------------------------------------------------------

type healthStatus struct {
	Status     string            `json:"status"`
	RunsActive int64             `json:"runs_active"`
	Checks     map[string]string `json:"checks,omitempty"`
}

// Health reports "ok" when every configured dependency answers and
// "degraded" (503) otherwise. Error details stay in the log.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	resp := healthStatus{Status: "ok", RunsActive: h.Runs.InFlight(), Checks: make(map[string]string, len(h.Checks))}
	for name, check := range h.Checks {
		if err := check(ctx); err != nil {
			slog.WarnContext(ctx, "health check failed", "dependency", name, "error", err)
			resp.Checks[name] = "unavailable"
			resp.Status = "degraded"
			continue
		}
		resp.Checks[name] = "ok"
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// throttled answers a rate-limited form submission with the notice.
func (h *Handlers) throttled(w http.ResponseWriter, _ *http.Request) {
	h.Pages.RenderError(w, http.StatusTooManyRequests, "Too many plans requested. Please wait a moment and try again.", trip.Defaults())
}

// Validate checks required handler dependencies and fills in the body limit.
func (h *Handlers) Validate() error {
	if h.Pages == nil {
		return errors.New("http: Handlers.Pages is nil")
	}
	if h.Runs == nil {
		return errors.New("http: Handlers.Runs is nil")
	}
	if h.BodyLimit < 1 {
		h.BodyLimit = 1 << 20
	}
	return nil
}
