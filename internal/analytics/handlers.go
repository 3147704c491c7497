package analytics

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-sellerstats/internal/common"
	"github.com/noah-isme/backend-sellerstats/internal/dataset"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 100
)

// Handler exposes seller analytics endpoints.
type Handler struct {
	Svc    *Service
	Loader *dataset.Loader
}

// Sellers analyzes the dataset posted in the request body.
func (h *Handler) Sellers(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "ANALYTICS_NOT_CONFIGURED", "analytics service not configured", nil)
		return
	}
	loader := h.Loader
	if loader == nil {
		loader = dataset.NewLoader(false)
	}
	data, err := loader.Decode(r.Body)
	if err != nil {
		writeError(w, err)
		return
	}
	q := r.URL.Query()
	result, err := h.Svc.Analyze(r.Context(), Request{
		Data:          data,
		BonusPolicy:   q.Get("bonus"),
		RevenuePolicy: q.Get("revenue"),
		Persist:       common.QueryBool(r, "persist"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	status := http.StatusOK
	if result.RunID != nil {
		status = http.StatusCreated
	}
	common.Data(w, status, result, nil)
}

// SubmitRun queues an analysis over the stored dataset.
func (h *Handler) SubmitRun(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "ANALYTICS_NOT_CONFIGURED", "analytics service not configured", nil)
		return
	}
	q := r.URL.Query()
	run, err := h.Svc.Submit(r.Context(), q.Get("bonus"), q.Get("revenue"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Location", "/api/v1/analytics/runs/"+run.ID.String())
	common.Data(w, http.StatusAccepted, run, nil)
}

// ListRuns returns recent runs without their reports.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "ANALYTICS_NOT_CONFIGURED", "analytics service not configured", nil)
		return
	}
	limit, offset := common.LimitOffset(r, defaultRunsLimit, maxRunsLimit)
	runs, err := h.Svc.ListRuns(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, runs, map[string]any{"limit": limit, "offset": offset})
}

// GetRun returns a single run with its report.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "ANALYTICS_NOT_CONFIGURED", "analytics service not configured", nil)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid run id", nil)
		return
	}
	run, err := h.Svc.GetRun(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, run, nil)
}

func writeError(w http.ResponseWriter, err error) {
	common.WriteAppError(w, toAppError(err))
}
