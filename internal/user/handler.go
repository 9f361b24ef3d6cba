package user

import (
	"context"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/opentna/internal/transport"
	"github.com/frahmantamala/opentna/pkg/pagination"
)

type ServiceAPI interface {
	CreateUser(ctx context.Context, dto CreateUserDTO) (*User, error)
	LoadUserByID(ctx context.Context, id int64) (*User, error)
	LoadUserByUsername(ctx context.Context, username string) (*User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]*User, int64, error)
	Update(ctx context.Context, dto UpdateUserDTO) (*User, bool, error)
	Rename(ctx context.Context, id int64, username string) (*User, bool, error)
	ChangeCredential(ctx context.Context, id int64, encodedOriginal, encodedNew string) (*User, bool, error)
	UpdateProfile(ctx context.Context, id int64, req ProfileRequest) (*User, bool, error)
	ReplaceRoles(ctx context.Context, id int64, roleIDs []int64) (*User, error)
	ReplaceProximityCards(ctx context.Context, id int64, cardIDs []int64) (*User, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     svc,
	}
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var dto CreateUserDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	created, err := h.Service.CreateUser(r.Context(), dto)
	if err != nil {
		h.Logger.Error("CreateUser: service error", "error", err, "username", dto.Username)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, created)
}

// ListUsers handles GET /users?page=&size=
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	params := pagination.GetParams(r)

	users, total, err := h.Service.ListUsers(r.Context(), params.Size, params.Offset)
	if err != nil {
		h.Logger.Error("ListUsers: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	meta := pagination.GetMeta(params, total)
	if meta.OutOfRange() {
		h.Logger.Debug("ListUsers: page out of range", "page", params.Page, "total_pages", meta.TotalPages)
		h.WriteRawJSON(w, http.StatusBadRequest, "{}")
		return
	}
	meta.WriteHeaders(w)
	h.WriteJSON(w, http.StatusOK, users)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	u, err := h.Service.LoadUserByID(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, u)
}

// GetUserProfile handles GET /users/{username}/profile. The route shares its
// path segment with the id routes, so the username arrives as "id".
func (h *Handler) GetUserProfile(w http.ResponseWriter, r *http.Request) {
	u, err := h.Service.LoadUserByUsername(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto UpdateUserDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	dto.ID = id

	h.writeMutation(w, "UpdateUser", id)(h.Service.Update(r.Context(), dto))
}

func (h *Handler) ChangeUsername(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var req UsernameRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.writeMutation(w, "ChangeUsername", id)(h.Service.Rename(r.Context(), id, req.Username))
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var req PasswordRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.writeMutation(w, "ChangePassword", id)(h.Service.ChangeCredential(r.Context(), id, req.OriginalPassword, req.CurrentPassword))
}

func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var req ProfileRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.writeMutation(w, "UpdateProfile", id)(h.Service.UpdateProfile(r.Context(), id, req))
}

// ReplaceRoles handles PUT /users/{id}/roles with a JSON array of role ids.
func (h *Handler) ReplaceRoles(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var roleIDs []int64
	if err := h.DecodeJSON(r, &roleIDs); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	u, err := h.Service.ReplaceRoles(r.Context(), id, roleIDs)
	if err != nil {
		h.Logger.Error("ReplaceRoles: service error", "error", err, "user_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) ReplaceProximityCards(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var cardIDs []int64
	if err := h.DecodeJSON(r, &cardIDs); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	u, err := h.Service.ReplaceProximityCards(r.Context(), id, cardIDs)
	if err != nil {
		h.Logger.Error("ReplaceProximityCards: service error", "error", err, "user_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, u)
}

// writeMutation writes 200 with the user after a real change and 202 with
// an empty object after a no-op.
func (h *Handler) writeMutation(w http.ResponseWriter, op string, id int64) func(*User, bool, error) {
	return func(u *User, changed bool, err error) {
		if err != nil {
			h.Logger.Error(op+": service error", "error", err, "user_id", id)
			h.HandleServiceError(w, err)
			return
		}
		if !changed {
			h.Logger.Debug(op+": nothing to do", "user_id", id)
			h.WriteNoChange(w)
			return
		}
		h.WriteJSON(w, http.StatusOK, u)
	}
}
