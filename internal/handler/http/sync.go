package http

import (
	"net/http"

	"github.com/terrapesca/checkin-backend-go/internal/handler/http/response"
	syncsvc "github.com/terrapesca/checkin-backend-go/internal/service/sync"
)

type SyncHandler interface {
	Status(w http.ResponseWriter, r *http.Request)
	SyncNow(w http.ResponseWriter, r *http.Request)
}

type syncHandlerImpl struct {
	reconciler *syncsvc.Reconciler
}

func NewSyncHandler(reconciler *syncsvc.Reconciler) SyncHandler {
	return &syncHandlerImpl{reconciler: reconciler}
}

// Status implements SyncHandler.
func (h *syncHandlerImpl) Status(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.reconciler.Status())
}

// SyncNow implements SyncHandler. The user-initiated trigger; a racing pass
// answers 409 so the client can show "sync already running".
func (h *syncHandlerImpl) SyncNow(w http.ResponseWriter, r *http.Request) {
	if err := h.reconciler.SyncNow(r.Context()); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Sync completed", h.reconciler.Status())
}
