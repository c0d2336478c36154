package team

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
	GetAll(ctx context.Context) ([]*Team, error)
	GetByID(ctx context.Context, id int64) (*Team, error)
	Create(ctx context.Context, dto CreateTeamDTO) (*Team, error)
	Update(ctx context.Context, id int64, dto UpdateTeamDTO) (*Team, error)
	Delete(ctx context.Context, id int64) error
	GetMembers(ctx context.Context, teamID int64) ([]*Member, error)
	AddMember(ctx context.Context, teamID int64, dto AddMemberDTO) error
	RemoveMember(ctx context.Context, teamID, userID int64) error
	AssignProfile(ctx context.Context, teamID, profileID int64) error
	UnassignProfile(ctx context.Context, teamID, profileID int64) error
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

func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.Service.GetAll(r.Context())
	if err != nil {
		h.Logger.Error("ListTeams: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"teams": teams})
}

func (h *Handler) GetTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r, "id")
	if !ok {
		return
	}

	t, err := h.Service.GetByID(r.Context(), id)
	if err != nil {
		h.Logger.Error("GetTeam: service error", "error", err, "team_id", id)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	var dto CreateTeamDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateTeam: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := h.Service.Create(r.Context(), dto)
	if err != nil {
		h.Logger.Error("CreateTeam: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("CreateTeam: team created", "team_id", t.ID, "name", t.Name)
	h.WriteJSON(w, http.StatusCreated, t)
}

func (h *Handler) UpdateTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r, "id")
	if !ok {
		return
	}

	var dto UpdateTeamDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdateTeam: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := h.Service.Update(r.Context(), id, dto)
	if err != nil {
		h.Logger.Error("UpdateTeam: service error", "error", err, "team_id", id)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r, "id")
	if !ok {
		return
	}

	if err := h.Service.Delete(r.Context(), id); err != nil {
		h.Logger.Error("DeleteTeam: service error", "error", err, "team_id", id)
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r, "id")
	if !ok {
		return
	}

	members, err := h.Service.GetMembers(r.Context(), id)
	if err != nil {
		h.Logger.Error("ListMembers: service error", "error", err, "team_id", id)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"members": members})
}

func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r, "id")
	if !ok {
		return
	}

	var dto AddMemberDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("AddMember: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Service.AddMember(r.Context(), id, dto); err != nil {
		h.Logger.Error("AddMember: service error", "error", err, "team_id", id, "user_id", dto.UserID)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"message": "member added"})
}

func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r, "id")
	if !ok {
		return
	}
	userID, ok := h.parseID(w, r, "userID")
	if !ok {
		return
	}

	if err := h.Service.RemoveMember(r.Context(), id, userID); err != nil {
		h.Logger.Error("RemoveMember: service error", "error", err, "team_id", id, "user_id", userID)
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AssignProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r, "id")
	if !ok {
		return
	}

	var dto AssignProfileDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("AssignProfile: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if err := h.Service.AssignProfile(r.Context(), id, dto.ProfileID); err != nil {
		h.Logger.Error("AssignProfile: service error", "error", err, "team_id", id, "profile_id", dto.ProfileID)
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"message": "profile assigned"})
}

func (h *Handler) UnassignProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r, "id")
	if !ok {
		return
	}
	profileID, ok := h.parseID(w, r, "profileID")
	if !ok {
		return
	}

	if err := h.Service.UnassignProfile(r.Context(), id, profileID); err != nil {
		h.Logger.Error("UnassignProfile: service error", "error", err, "team_id", id, "profile_id", profileID)
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
