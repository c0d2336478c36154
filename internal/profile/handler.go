package profile

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/kanbanhq/board-management/internal/transport"
	"github.com/kanbanhq/board-management/pkg/logger"
)

type ServiceAPI interface {
	GetAll(ctx context.Context) ([]*Profile, error)
	GetByID(ctx context.Context, id int64) (*Profile, error)
	Create(ctx context.Context, dto CreateProfileDTO) (*Profile, error)
	Update(ctx context.Context, id int64, dto UpdateProfileDTO) (*Profile, error)
	Delete(ctx context.Context, id int64) error
	AssignPermission(ctx context.Context, profileID, permissionID int64) error
	RemovePermission(ctx context.Context, profileID, permissionID int64) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.L()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func (h *Handler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.Service.GetAll(r.Context())
	if err != nil {
		h.Logger.Error("ListProfiles: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"profiles": profiles})
}

func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r, "id")
	if !ok {
		return
	}

	p, err := h.Service.GetByID(r.Context(), id)
	if err != nil {
		h.Logger.Error("GetProfile: service error", "error", err, "profile_id", id)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var dto CreateProfileDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateProfile: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.Service.Create(r.Context(), dto)
	if err != nil {
		h.Logger.Error("CreateProfile: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("CreateProfile: profile created", "profile_id", p.ID, "name", p.Name)
	h.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r, "id")
	if !ok {
		return
	}

	var dto UpdateProfileDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdateProfile: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.Service.Update(r.Context(), id, dto)
	if err != nil {
		h.Logger.Error("UpdateProfile: service error", "error", err, "profile_id", id)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r, "id")
	if !ok {
		return
	}

	if err := h.Service.Delete(r.Context(), id); err != nil {
		h.Logger.Error("DeleteProfile: service error", "error", err, "profile_id", id)
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AssignPermission(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r, "id")
	if !ok {
		return
	}

	var dto AssignPermissionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("AssignPermission: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if err := h.Service.AssignPermission(r.Context(), id, dto.PermissionID); err != nil {
		h.Logger.Error("AssignPermission: service error", "error", err, "profile_id", id, "permission_id", dto.PermissionID)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"message": "permission assigned"})
}

func (h *Handler) RemovePermission(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r, "id")
	if !ok {
		return
	}
	permissionID, ok := h.parseID(w, r, "permissionID")
	if !ok {
		return
	}

	if err := h.Service.RemovePermission(r.Context(), id, permissionID); err != nil {
		h.Logger.Error("RemovePermission: service error", "error", err, "profile_id", id, "permission_id", permissionID)
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) parseID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	raw := chi.URLParam(r, param)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid "+param)
		return 0, false
	}
	return id, true
}
