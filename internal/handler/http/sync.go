package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/pointrec/attendance-terminal/internal/handler/http/response"
	syncer "github.com/pointrec/attendance-terminal/internal/sync"
)

type SyncCoordinator interface {
	State() syncer.State
	LastReport() syncer.Report
	RunCycle(ctx context.Context) error
}

type OnlineStatus interface {
	Online() bool
}

type SyncHandler interface {
	Status(w http.ResponseWriter, r *http.Request)
	Trigger(w http.ResponseWriter, r *http.Request)
}

type syncHandlerImpl struct {
	coordinator SyncCoordinator
	store       OnlineStatus
}

func NewSyncHandler(coordinator SyncCoordinator, store OnlineStatus) SyncHandler {
	return &syncHandlerImpl{coordinator: coordinator, store: store}
}

type syncStatusResponse struct {
	State   string          `json:"state"`
	Online  bool            `json:"online"`
	LastRun *syncRunSummary `json:"last_run,omitempty"`
}

type syncRunSummary struct {
	At      string `json:"at"`
	Online  bool   `json:"online"`
	Pushed  int    `json:"pushed"`
	Skipped int    `json:"skipped"`
	Pulled  int    `json:"pulled"`
	Error   string `json:"error,omitempty"`
}

// Status implements SyncHandler.
func (h *syncHandlerImpl) Status(w http.ResponseWriter, r *http.Request) {
	resp := syncStatusResponse{
		State:  h.coordinator.State().String(),
		Online: h.store.Online(),
	}
	if last := h.coordinator.LastReport(); !last.At.IsZero() {
		summary := syncRunSummary{
			At:      last.At.Format(time.RFC3339),
			Online:  last.Online,
			Pushed:  last.Pushed,
			Skipped: last.Skipped,
			Pulled:  last.Pulled,
		}
		if last.Err != nil {
			summary.Error = last.Err.Error()
		}
		resp.LastRun = &summary
	}
	response.Success(w, resp)
}

// Trigger implements SyncHandler, running one cycle synchronously. The
// cycle deliberately outlives the request context: cancelling an
// upload halfway through would leave the remote transaction to roll
// back for nothing.
func (h *syncHandlerImpl) Trigger(w http.ResponseWriter, r *http.Request) {
	if err := h.coordinator.RunCycle(context.WithoutCancel(r.Context())); err != nil {
		if errors.Is(err, syncer.ErrCycleRunning) {
			response.Conflict(w, "A sync cycle is already running")
			return
		}
		response.HandleError(w, err)
		return
	}
	h.Status(w, r)
}
