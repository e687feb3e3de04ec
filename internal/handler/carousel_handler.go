package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/RogerDevCode/ecommerce-floresya-sub002/internal/model"
	"github.com/RogerDevCode/ecommerce-floresya-sub002/internal/service"
)

// CarouselHandler handles homepage carousel HTTP requests.
type CarouselHandler struct {
	service service.CarouselService
	logger  zerolog.Logger
}

// NewCarouselHandler creates a new carousel handler.
func NewCarouselHandler(service service.CarouselService, logger zerolog.Logger) *CarouselHandler {
	return &CarouselHandler{
		service: service,
		logger:  logger.With().Str("handler", "carousel").Logger(),
	}
}

// Get handles GET /api/carousel requests.
func (h *CarouselHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", h.logger)
		return
	}

	slots, err := h.service.GetCarousel(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "failed to retrieve carousel", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, slots)
}

// AssignSlot handles PUT /api/products/{id}/carousel requests. The body
// carries the desired position; a null position clears the slot.
func (h *CarouselHandler) AssignSlot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", h.logger)
		return
	}

	productID, ok := productIDFrom(w, r, 2, h.logger)
	if !ok {
		return
	}

	var req model.AssignSlotRequest
	if err := decodeBody(r, &req); err != nil {
		writeServiceError(w, r, err, "invalid carousel request", h.logger)
		return
	}

	slots, err := h.service.AssignSlot(r.Context(), productID, req.Position)
	if err != nil {
		writeServiceError(w, r, err, "failed to update carousel", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, slots)
}
