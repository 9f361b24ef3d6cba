package attendance

import (
	"context"
	"net/http"

	"github.com/frahmantamala/opentna/internal/transport"
)

type ServiceAPI interface {
	CreateAttendance(ctx context.Context, dto CreateAttendanceDTO) (*Attendance, error)
	RecordSwipe(ctx context.Context, req SwipeRequest) (*Attendance, error)
	LoadAttendanceByID(ctx context.Context, id int64) (*Attendance, error)
	LoadAttendanceByUser(ctx context.Context, userID int64) ([]*Attendance, error)
	LoadAttendanceByProximityCard(ctx context.Context, cardID int64) ([]*Attendance, error)
	DetachUser(ctx context.Context, id int64) (*Attendance, bool, error)
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

func (h *Handler) CreateAttendance(w http.ResponseWriter, r *http.Request) {
	var dto CreateAttendanceDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	record, err := h.Service.CreateAttendance(r.Context(), dto)
	if err != nil {
		h.Logger.Error("CreateAttendance: service error", "error", err, "card_id", dto.ProximityCardID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, record)
}

// RecordSwipe handles POST /attendance/swipes from card readers.
func (h *Handler) RecordSwipe(w http.ResponseWriter, r *http.Request) {
	var req SwipeRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	record, err := h.Service.RecordSwipe(r.Context(), req)
	if err != nil {
		h.Logger.Error("RecordSwipe: service error", "error", err, "serial_no", req.SerialNo)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, record)
}

func (h *Handler) GetAttendance(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	record, err := h.Service.LoadAttendanceByID(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, record)
}

// ListByUser handles GET /users/{id}/attendance
func (h *Handler) ListByUser(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	records, err := h.Service.LoadAttendanceByUser(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, records)
}

// ListByProximityCard handles GET /cards/{id}/attendance
func (h *Handler) ListByProximityCard(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	records, err := h.Service.LoadAttendanceByProximityCard(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, records)
}

// DetachUser handles DELETE /attendance/{id}/user
func (h *Handler) DetachUser(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	record, changed, err := h.Service.DetachUser(r.Context(), id)
	if err != nil {
		h.Logger.Error("DetachUser: service error", "error", err, "attendance_id", id)
		h.HandleServiceError(w, err)
		return
	}
	if !changed {
		h.WriteNoChange(w)
		return
	}

	h.WriteJSON(w, http.StatusOK, record)
}
