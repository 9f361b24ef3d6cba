package card

import (
	"context"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/opentna/internal/transport"
	"github.com/frahmantamala/opentna/pkg/pagination"
)

type ServiceAPI interface {
	CreateProximityCard(ctx context.Context, dto CreateCardDTO) (*ProximityCard, error)
	LoadProximityCardByID(ctx context.Context, id int64) (*ProximityCard, error)
	LoadProximityCardBySerialNo(ctx context.Context, serialNo string) (*ProximityCard, error)
	ListProximityCards(ctx context.Context, limit, offset int) ([]*ProximityCard, int64, error)
	Update(ctx context.Context, dto UpdateCardDTO) (*ProximityCard, bool, error)
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

func (h *Handler) CreateCard(w http.ResponseWriter, r *http.Request) {
	var dto CreateCardDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	created, err := h.Service.CreateProximityCard(r.Context(), dto)
	if err != nil {
		h.Logger.Error("CreateCard: service error", "error", err, "serial_no", dto.SerialNo)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) ListCards(w http.ResponseWriter, r *http.Request) {
	params := pagination.GetParams(r)

	cards, total, err := h.Service.ListProximityCards(r.Context(), params.Size, params.Offset)
	if err != nil {
		h.Logger.Error("ListCards: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	meta := pagination.GetMeta(params, total)
	if meta.OutOfRange() {
		h.WriteRawJSON(w, http.StatusBadRequest, "{}")
		return
	}
	meta.WriteHeaders(w)
	h.WriteJSON(w, http.StatusOK, cards)
}

func (h *Handler) GetCard(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	found, err := h.Service.LoadProximityCardByID(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, found)
}

func (h *Handler) GetCardBySerialNo(w http.ResponseWriter, r *http.Request) {
	found, err := h.Service.LoadProximityCardBySerialNo(r.Context(), chi.URLParam(r, "serialNo"))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, found)
}

func (h *Handler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	id, err := h.PathID(r, "id")
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	var dto UpdateCardDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	dto.ID = id

	updated, changed, err := h.Service.Update(r.Context(), dto)
	if err != nil {
		h.Logger.Error("UpdateCard: service error", "error", err, "card_id", id)
		h.HandleServiceError(w, err)
		return
	}
	if !changed {
		h.WriteNoChange(w)
		return
	}

	h.WriteJSON(w, http.StatusOK, updated)
}
