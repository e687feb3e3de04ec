// Package imaging resizes uploaded photos into the fixed set of renditions
// the storefront serves.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // register PNG decoding

	"golang.org/x/image/draw"

	"github.com/RogerDevCode/ecommerce-floresya-sub002/internal/model"
)

// Target widths per size class, in pixels. Heights follow the source aspect
// ratio.
var sizeWidths = map[model.ImageSize]int{
	model.ImageSizeThumbnail: 150,
	model.ImageSizeSmall:     300,
	model.ImageSizeMedium:    600,
	model.ImageSizeLarge:     1200,
}

const jpegQuality = 85

// MimeJPEG is the mime type of every encoded rendition.
const MimeJPEG = "image/jpeg"

// Derivative holds one encoded rendition of a source photo.
type Derivative struct {
	Size     model.ImageSize
	Width    int
	Height   int
	Data     []byte
	MimeType string
}

// Decode parses src into an image. Only JPEG and PNG sources are accepted.
func Decode(src []byte) (image.Image, error) {
	img, format, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if format != "jpeg" && format != "png" {
		return nil, fmt.Errorf("unsupported image format %q", format)
	}
	return img, nil
}

// DeriveAll resizes src into one JPEG rendition per size class. Sources
// narrower than a class's target width are re-encoded at their native width
// rather than upscaled.
func DeriveAll(src []byte) ([]Derivative, error) {
	img, err := Decode(src)
	if err != nil {
		return nil, err
	}

	derivatives := make([]Derivative, 0, len(model.ImageSizes))
	for _, size := range model.ImageSizes {
		d, err := derive(img, size)
		if err != nil {
			return nil, fmt.Errorf("failed to derive %s rendition: %w", size, err)
		}
		derivatives = append(derivatives, d)
	}
	return derivatives, nil
}

func derive(img image.Image, size model.ImageSize) (Derivative, error) {
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW < 1 || srcH < 1 {
		return Derivative{}, fmt.Errorf("source image has no pixels")
	}

	targetW := sizeWidths[size]
	if srcW < targetW {
		targetW = srcW
	}
	targetH := srcH * targetW / srcW
	if targetH < 1 {
		targetH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return Derivative{}, fmt.Errorf("failed to encode jpeg: %w", err)
	}

	return Derivative{
		Size:     size,
		Width:    targetW,
		Height:   targetH,
		Data:     buf.Bytes(),
		MimeType: MimeJPEG,
	}, nil
}
