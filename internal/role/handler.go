package role

import (
	"context"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/opentna/internal/transport"
	"github.com/frahmantamala/opentna/pkg/pagination"
)

type ServiceAPI interface {
	CreateRole(ctx context.Context, dto CreateRoleDTO) (*Role, error)
	LoadRoleByID(ctx context.Context, id int64) (*Role, error)
	LoadRoleByName(ctx context.Context, name string) (*Role, error)
	ListRoles(ctx context.Context, limit, offset int) ([]*Role, int64, error)
	Update(ctx context.Context, dto UpdateRoleDTO) (*Role, bool, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) CreateRole(w http.ResponseWriter, r *http.Request) {
	var dto CreateRoleDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	created, err := h.Service.CreateRole(r.Context(), dto)
	if err != nil {
		h.Logger.Error("CreateRole: service error", "error", err, "name", dto.Name)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	params := pagination.GetParams(r)

	roles, total, err := h.Service.ListRoles(r.Context(), params.Size, params.Offset)
	if err != nil {
		h.Logger.Error("ListRoles: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	meta := pagination.GetMeta(params, total)
	if meta.OutOfRange() {
		h.WriteRawJSON(w, http.StatusBadRequest, "{}")
		return
	}
	meta.WriteHeaders(w)
	h.WriteJSON(w, http.StatusOK, roles)
}

func (h *Handler) GetRole(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	found, err := h.Service.LoadRoleByID(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, found)
}

func (h *Handler) GetRoleByName(w http.ResponseWriter, r *http.Request) {
	found, err := h.Service.LoadRoleByName(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, found)
}

func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto UpdateRoleDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	dto.ID = id

	updated, changed, err := h.Service.Update(r.Context(), dto)
	if err != nil {
		h.Logger.Error("UpdateRole: service error", "error", err, "role_id", id)
		h.HandleServiceError(w, err)
		return
	}
	if !changed {
		h.WriteNoChange(w)
		return
	}

	h.WriteJSON(w, http.StatusOK, updated)
}
