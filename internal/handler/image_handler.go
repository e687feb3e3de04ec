package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/RogerDevCode/ecommerce-floresya-sub002/internal/model"
	"github.com/RogerDevCode/ecommerce-floresya-sub002/internal/service"
)

// ImageHandler handles product image HTTP requests.
type ImageHandler struct {
	service        service.ImageService
	maxUploadBytes int64
	logger         zerolog.Logger
}

// NewImageHandler creates a new image handler. maxUploadBytes caps the size
// of multipart upload requests.
func NewImageHandler(service service.ImageService, maxUploadBytes int64, logger zerolog.Logger) *ImageHandler {
	return &ImageHandler{
		service:        service,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With().Str("handler", "image").Logger(),
	}
}

// Upload handles POST /api/products/{id}/images requests. The body is a
// multipart form with the original photo under the "image" field and an
// optional "markPrimary" flag.
func (h *ImageHandler) Upload(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDFrom(w, r, 2, h.logger)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, r, http.StatusRequestEntityTooLarge, model.ErrCodeValidation, "image exceeds the upload size limit", h.logger)
			return
		}
		writeError(w, r, http.StatusBadRequest, model.ErrCodeValidation, "invalid multipart form", h.logger)
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeValidation, "image file is required", h.logger)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to read upload")
		writeError(w, r, http.StatusBadRequest, model.ErrCodeValidation, "failed to read image file", h.logger)
		return
	}

	contentType := http.DetectContentType(data)
	if contentType != "image/jpeg" && contentType != "image/png" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeValidation, "only JPEG and PNG images are supported", h.logger)
		return
	}

	markPrimary, _ := strconv.ParseBool(r.FormValue("markPrimary"))

	resp, err := h.service.UploadImage(r.Context(), productID, data, markPrimary)
	if err != nil {
		writeServiceError(w, r, err, "failed to upload image", h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// RegisterDerivatives handles POST /api/products/{id}/images/derivatives
// requests for renditions that were resized and stored elsewhere.
func (h *ImageHandler) RegisterDerivatives(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDFrom(w, r, 3, h.logger)
	if !ok {
		return
	}

	var req model.RegisterDerivativesRequest
	if err := decodeBody(r, &req); err != nil {
		writeServiceError(w, r, err, "invalid derivatives request", h.logger)
		return
	}

	input := &model.RegisterDerivativesInput{
		ProductID:   productID,
		ImageIndex:  req.ImageIndex,
		MarkPrimary: req.MarkPrimary,
		Derivatives: make([]model.DerivativeInput, 0, len(req.Derivatives)),
	}
	for _, d := range req.Derivatives {
		input.Derivatives = append(input.Derivatives, model.DerivativeInput{
			Size:     d.Size,
			URL:      d.URL,
			FileHash: d.FileHash,
			MimeType: d.MimeType,
		})
	}

	images, err := h.service.RegisterDerivatives(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, err, "failed to register derivatives", h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, images)
}

// Delete handles DELETE /api/products/{id}/images requests.
func (h *ImageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDFrom(w, r, 2, h.logger)
	if !ok {
		return
	}

	deleted, err := h.service.DeleteImages(r.Context(), productID)
	if err != nil {
		writeServiceError(w, r, err, "failed to delete images", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, model.DeleteImagesResponse{Deleted: deleted})
}

// GetByProduct handles GET /api/products/{id}/images requests.
func (h *ImageHandler) GetByProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDFrom(w, r, 2, h.logger)
	if !ok {
		return
	}

	images, err := h.service.GetByProduct(r.Context(), productID)
	if err != nil {
		writeServiceError(w, r, err, "failed to retrieve images", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, images)
}
