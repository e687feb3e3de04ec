package model

import (
	"time"

	"github.com/google/uuid"
)

// ImageSize identifies one derivative resolution of an uploaded image.
type ImageSize string

const (
	ImageSizeThumbnail ImageSize = "thumbnail"
	ImageSizeSmall     ImageSize = "small"
	ImageSizeMedium    ImageSize = "medium"
	ImageSizeLarge     ImageSize = "large"
)

// PrimarySize is the size class whose row carries the primary flag. Rows of
// every other size are always stored with the flag off.
const PrimarySize = ImageSizeMedium

// ImageSizes lists every size class a complete derivative batch covers.
var ImageSizes = []ImageSize{ImageSizeThumbnail, ImageSizeSmall, ImageSizeMedium, ImageSizeLarge}

// Valid reports whether s is a known image size.
func (s ImageSize) Valid() bool {
	switch s {
	case ImageSizeThumbnail, ImageSizeSmall, ImageSizeMedium, ImageSizeLarge:
		return true
	}
	return false
}

// ProductImage is one stored rendition of a product photo. FileHash is the
// lowercase hex SHA-256 of the original upload, shared by all four
// renditions of the same source.
type ProductImage struct {
	ID         uuid.UUID `json:"id" db:"id"`
	ProductID  uuid.UUID `json:"productId" db:"product_id"`
	ImageIndex int       `json:"imageIndex" db:"image_index"`
	Size       ImageSize `json:"size" db:"size"`
	URL        string    `json:"url" db:"url"`
	FileHash   string    `json:"fileHash" db:"file_hash"`
	MimeType   string    `json:"mimeType" db:"mime_type"`
	IsPrimary  bool      `json:"isPrimary" db:"is_primary"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// DerivativeInput is one rendition of an uploaded photo to be registered in
// the catalog.
type DerivativeInput struct {
	Size     ImageSize
	URL      string
	FileHash string
	MimeType string
}

// RegisterDerivativesInput is a batch of renditions for one photo of one
// product. When MarkPrimary is set the batch's medium rendition becomes the
// product's primary image, displacing any previous holder.
type RegisterDerivativesInput struct {
	ProductID   uuid.UUID
	ImageIndex  int
	MarkPrimary bool
	Derivatives []DerivativeInput
}

// RegisterDerivativesRequest represents the request payload for registering
// already-uploaded renditions.
type RegisterDerivativesRequest struct {
	ImageIndex  int                      `json:"imageIndex" validate:"gte=0"`
	MarkPrimary bool                     `json:"markPrimary"`
	Derivatives []DerivativeInputRequest `json:"derivatives" validate:"required,min=1,dive"`
}

// DerivativeInputRequest is one rendition in a register request.
type DerivativeInputRequest struct {
	Size     ImageSize `json:"size" validate:"required"`
	URL      string    `json:"url" validate:"required,max=1000"`
	FileHash string    `json:"fileHash" validate:"required,len=64,hexadecimal,lowercase"`
	MimeType string    `json:"mimeType" validate:"required,max=100"`
}

// DeleteImagesResponse reports how many catalog rows a delete removed.
type DeleteImagesResponse struct {
	Deleted int `json:"deleted"`
}

// UploadImageResponse represents the response payload after an original
// photo has been resized, stored and registered.
type UploadImageResponse struct {
	FileHash   string         `json:"fileHash"`
	ImageIndex int            `json:"imageIndex"`
	Deduped    bool           `json:"deduped"`
	Images     []ProductImage `json:"images"`
}
