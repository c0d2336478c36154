package permission

import (
	"net/http"

	"github.com/kanbanhq/board-management/internal/transport"
	"github.com/kanbanhq/board-management/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Aggregate *AggregateService
}

func NewHandler(aggregate *AggregateService) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger.L()),
		Aggregate:   aggregate,
	}
}

// ListPermissions handles GET /permissions: the catalogue of atomic
// capabilities for the profile editor.
func (h *Handler) ListPermissions(w http.ResponseWriter, r *http.Request) {
	data, err := h.Aggregate.PermissionData(r.Context())
	if err != nil {
		h.Logger.Error("failed to load permissions", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.WriteJSON(w, http.StatusOK, data.Permissions)
}

// GetPermissionData handles GET /permissions/data: the consolidated
// aggregate of permissions, profiles, users and teams.
func (h *Handler) GetPermissionData(w http.ResponseWriter, r *http.Request) {
	data, err := h.Aggregate.PermissionData(r.Context())
	if err != nil {
		h.Logger.Error("failed to build permission data", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	h.WriteJSON(w, http.StatusOK, data)
}
