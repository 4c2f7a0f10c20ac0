// internal/app/features/jobs/handler.go
package jobsfeature

import (
	"context"
	"errors"
	"net/http"

	errorsfeature "github.com/dalemusser/stratareel/internal/app/features/errors"
	"github.com/dalemusser/stratareel/internal/app/system/auditlog"
	"github.com/dalemusser/stratareel/internal/app/system/authz"
	"github.com/dalemusser/stratareel/internal/app/system/integrity"
	"github.com/dalemusser/stratareel/internal/app/system/jsonutil"
	"github.com/dalemusser/stratareel/internal/app/system/tasks"
	"github.com/dalemusser/stratareel/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Sweep triggers recorded in the audit log.
const (
	TriggerAdmin  = "admin"
	TriggerAPIKey = "api_key"
)

// Handler serves the maintenance endpoints: background job control and
// on-demand integrity sweeps.
type Handler struct {
	Coord  *integrity.Coordinator
	Runner *tasks.Runner
	Audit  *auditlog.Logger
	ErrLog *errorsfeature.ErrorLogger
	Log    *zap.Logger
}

// NewHandler creates a new jobs handler.
func NewHandler(coord *integrity.Coordinator, runner *tasks.Runner, audit *auditlog.Logger, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Coord:  coord,
		Runner: runner,
		Audit:  audit,
		ErrLog: errLog,
		Log:    logger,
	}
}

// JobList is the response of ServeList.
type JobList struct {
	Jobs []string `json:"jobs"`
}

// ServeList handles GET /api/admin/jobs - the scheduled jobs.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	jsonutil.OK(w, JobList{Jobs: h.Runner.Jobs()})
}

// HandleRun handles POST /api/admin/jobs/{name}/run - run a scheduled job
// now and wait for it.
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	err := h.Runner.RunOnce(r.Context(), name)
	switch {
	case err == nil:
		jsonutil.OK(w, map[string]string{"job": name, "status": "completed"})
	case errors.Is(err, tasks.ErrUnknownJob):
		jsonutil.NotFound(w, "Job not found.")
	case errors.Is(err, tasks.ErrAlreadyRunning):
		jsonutil.Error(w, http.StatusConflict, "That job is already running.")
	default:
		h.ErrLog.Respond(w, r, "manual job run failed", err)
	}
}

// HandleSweep handles POST /api/admin/integrity/sweep.
func (h *Handler) HandleSweep(w http.ResponseWriter, r *http.Request) {
	h.sweep(w, r, authz.ActorID(r), TriggerAdmin)
}

// HandleAPISweep handles POST /api/maintenance/sweep for external
// schedulers holding the API key.
func (h *Handler) HandleAPISweep(w http.ResponseWriter, r *http.Request) {
	h.sweep(w, r, "", TriggerAPIKey)
}

func (h *Handler) sweep(w http.ResponseWriter, r *http.Request, actorID, trigger string) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Batch())
	defer cancel()

	rep, err := h.Coord.Sweep(ctx)
	if err != nil {
		h.ErrLog.Respond(w, r, "integrity sweep failed", err)
		return
	}

	h.Log.Info("integrity sweep finished",
		zap.String("trigger", trigger),
		zap.Int("scanned", rep.CollectionsScanned),
		zap.Int("repaired", rep.CollectionsRepaired),
		zap.Int("removed", rep.ReferencesRemoved),
		zap.Int("failed", len(rep.Failed)))
	h.Audit.IntegritySwept(ctx, r, actorID, trigger, rep)

	jsonutil.OK(w, rep)
}
