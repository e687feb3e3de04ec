package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/RogerDevCode/ecommerce-floresya-sub002/internal/model"
	"github.com/RogerDevCode/ecommerce-floresya-sub002/internal/service"
)

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	service service.OrderService
	logger  zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger.With().Str("handler", "order").Logger(),
	}
}

// Create handles POST /api/orders requests.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", h.logger)
		return
	}

	var req model.CreateOrderRequest
	if err := decodeBody(r, &req); err != nil {
		writeServiceError(w, r, err, "invalid order request", h.logger)
		return
	}

	order, err := h.service.CreateOrderFromRequest(r.Context(), &req, actorFrom(r))
	if err != nil {
		writeServiceError(w, r, err, "failed to create order", h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, order)
}

// GetByID handles GET /api/orders/{id} requests.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", h.logger)
		return
	}

	orderID, ok := h.orderIDFrom(w, r, 1)
	if !ok {
		return
	}

	order, err := h.service.GetByID(r.Context(), orderID)
	if err != nil {
		writeServiceError(w, r, err, "failed to retrieve order", h.logger)
		return
	}

	if order == nil {
		writeError(w, r, http.StatusNotFound, model.ErrCodeNotFound, "order not found", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// TransitionStatus handles PATCH /api/orders/{id}/status requests.
func (h *OrderHandler) TransitionStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		writeError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", h.logger)
		return
	}

	orderID, ok := h.orderIDFrom(w, r, 2)
	if !ok {
		return
	}

	var req model.TransitionStatusRequest
	if err := decodeBody(r, &req); err != nil {
		writeServiceError(w, r, err, "invalid transition request", h.logger)
		return
	}

	order, err := h.service.TransitionStatus(r.Context(), orderID, &req, actorFrom(r))
	if err != nil {
		writeServiceError(w, r, err, "failed to transition order", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// orderIDFrom parses the order ID segment of /api/orders/{id}[/...] paths
// expecting exactly wantSegments path segments after the prefix.
func (h *OrderHandler) orderIDFrom(w http.ResponseWriter, r *http.Request, wantSegments int) (uuid.UUID, bool) {
	segments := pathSegments(r.URL.Path, "/api/orders")
	if len(segments) != wantSegments || segments[0] == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeValidation, "order ID is required", h.logger)
		return uuid.Nil, false
	}

	orderID, err := uuid.Parse(segments[0])
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeValidation, "invalid order ID format", h.logger)
		return uuid.Nil, false
	}

	return orderID, true
}
