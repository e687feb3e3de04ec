package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/RogerDevCode/ecommerce-floresya-sub002/internal/contenthash"
	"github.com/RogerDevCode/ecommerce-floresya-sub002/internal/imaging"
	"github.com/RogerDevCode/ecommerce-floresya-sub002/internal/model"
	"github.com/RogerDevCode/ecommerce-floresya-sub002/internal/repository"
	"github.com/RogerDevCode/ecommerce-floresya-sub002/internal/storage"
)

// imageService implements ImageService.
type imageService struct {
	imageRepo   repository.ImageRepository
	productRepo repository.ProductRepository
	store       storage.ObjectStore
	logger      zerolog.Logger
}

// NewImageService creates a new image service.
func NewImageService(
	imageRepo repository.ImageRepository,
	productRepo repository.ProductRepository,
	store storage.ObjectStore,
	logger zerolog.Logger,
) ImageService {
	return &imageService{
		imageRepo:   imageRepo,
		productRepo: productRepo,
		store:       store,
		logger:      logger.With().Str("service", "image").Logger(),
	}
}

// RegisterDerivatives records a complete batch of renditions for one photo.
// The batch must cover every size class exactly once and share one content
// hash. All rows land together or not at all.
func (s *imageService) RegisterDerivatives(ctx context.Context, input *model.RegisterDerivativesInput) ([]model.ProductImage, error) {
	if err := validateDerivativeBatch(input); err != nil {
		return nil, err
	}

	tx, err := s.imageRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to register derivatives: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	locked, err := s.productRepo.LockProduct(ctx, tx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if !locked {
		err = model.NewNotFoundError("product", input.ProductID)
		return nil, err
	}

	if input.MarkPrimary {
		if err = s.imageRepo.ClearPrimary(ctx, tx, input.ProductID); err != nil {
			return nil, err
		}
	}

	bySize := make(map[model.ImageSize]model.DerivativeInput, len(input.Derivatives))
	for _, d := range input.Derivatives {
		bySize[d.Size] = d
	}

	now := time.Now()
	images := make([]model.ProductImage, 0, len(model.ImageSizes))
	for _, size := range model.ImageSizes {
		d := bySize[size]
		images = append(images, model.ProductImage{
			ID:         uuid.New(),
			ProductID:  input.ProductID,
			ImageIndex: input.ImageIndex,
			Size:       size,
			URL:        d.URL,
			FileHash:   d.FileHash,
			MimeType:   d.MimeType,
			IsPrimary:  input.MarkPrimary && size == model.PrimarySize,
			CreatedAt:  now,
		})
	}

	if err = s.imageRepo.CreateImages(ctx, tx, images); err != nil {
		s.logger.Error().
			Err(err).
			Str("product_id", input.ProductID.String()).
			Int("image_index", input.ImageIndex).
			Msg("failed to create image rows")
		err = classifyConflict(err)
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("product_id", input.ProductID.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to register derivatives: %w", err)
	}

	s.logger.Info().
		Str("product_id", input.ProductID.String()).
		Int("image_index", input.ImageIndex).
		Bool("primary", input.MarkPrimary).
		Msg("derivatives registered")

	return images, nil
}

// UploadImage resizes an original photo into every size class, stores the
// renditions and registers them. A photo whose content hash is already
// registered for the product is answered from the catalog without a single
// store write.
func (s *imageService) UploadImage(ctx context.Context, productID uuid.UUID, data []byte, markPrimary bool) (*model.UploadImageResponse, error) {
	if len(data) == 0 {
		return nil, model.NewValidationError("image payload is empty")
	}

	fileHash := contenthash.Hash(data)

	derivatives, err := imaging.DeriveAll(data)
	if err != nil {
		return nil, model.NewValidationError("cannot process image: %v", err)
	}

	resp, err := s.findRegistered(ctx, productID, fileHash, markPrimary)
	if err != nil {
		return nil, err
	}
	if resp != nil {
		return resp, nil
	}

	// Renditions go to the store under content-addressed keys with no
	// transaction open and no rows locked. A failure past this point strands
	// blobs, never catalog rows pointing at missing blobs.
	urls := make(map[model.ImageSize]string, len(derivatives))
	for _, d := range derivatives {
		key := storage.ImageKey(productID, fileHash, d.Size)
		url, putErr := s.store.Put(ctx, key, d.Data, d.MimeType)
		if putErr != nil {
			s.logger.Error().Err(putErr).Str("key", key).Msg("failed to store rendition")
			return nil, fmt.Errorf("failed to store rendition: %w", putErr)
		}
		urls[d.Size] = url
	}

	tx, err := s.imageRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	locked, err := s.productRepo.LockProduct(ctx, tx, productID)
	if err != nil {
		return nil, err
	}
	if !locked {
		err = model.NewNotFoundError("product", productID)
		return nil, err
	}

	// The hash may have been registered while the renditions were uploading.
	// The re-check under lock decides; the store writes above were idempotent
	// overwrites of the same keys.
	existing, err := s.imageRepo.FindByHash(ctx, tx, productID, fileHash)
	if err != nil {
		return nil, err
	}

	var imageIndex int
	deduped := len(existing) > 0
	if deduped {
		imageIndex = existing[0].ImageIndex
		if markPrimary {
			if err = s.promoteExisting(ctx, tx, productID, existing); err != nil {
				return nil, err
			}
		}
		s.logger.Info().
			Str("product_id", productID.String()).
			Str("file_hash", fileHash).
			Int("image_index", imageIndex).
			Msg("upload deduplicated by content hash")
	} else {
		imageIndex, err = s.imageRepo.NextImageIndex(ctx, tx, productID)
		if err != nil {
			return nil, err
		}

		if markPrimary {
			if err = s.imageRepo.ClearPrimary(ctx, tx, productID); err != nil {
				return nil, err
			}
		}

		now := time.Now()
		rows := make([]model.ProductImage, 0, len(derivatives))
		for _, d := range derivatives {
			rows = append(rows, model.ProductImage{
				ID:         uuid.New(),
				ProductID:  productID,
				ImageIndex: imageIndex,
				Size:       d.Size,
				URL:        urls[d.Size],
				FileHash:   fileHash,
				MimeType:   d.MimeType,
				IsPrimary:  markPrimary && d.Size == model.PrimarySize,
				CreatedAt:  now,
			})
		}

		if err = s.imageRepo.CreateImages(ctx, tx, rows); err != nil {
			s.logger.Error().
				Err(err).
				Str("product_id", productID.String()).
				Int("image_index", imageIndex).
				Msg("failed to create image rows")
			err = classifyConflict(err)
			return nil, err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("product_id", productID.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}

	all, err := s.imageRepo.GetByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get images: %w", err)
	}

	images := make([]model.ProductImage, 0, len(model.ImageSizes))
	for _, img := range all {
		if img.FileHash == fileHash {
			images = append(images, img)
		}
	}

	return &model.UploadImageResponse{
		FileHash:   fileHash,
		ImageIndex: imageIndex,
		Deduped:    deduped,
		Images:     images,
	}, nil
}

// findRegistered answers an upload from the catalog when the photo's hash
// is already registered for the product, promoting its medium rendition
// when asked. It returns nil when the photo is new and the caller must
// store and register it.
func (s *imageService) findRegistered(ctx context.Context, productID uuid.UUID, fileHash string, markPrimary bool) (*model.UploadImageResponse, error) {
	tx, err := s.imageRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	locked, err := s.productRepo.LockProduct(ctx, tx, productID)
	if err != nil {
		return nil, err
	}
	if !locked {
		err = model.NewNotFoundError("product", productID)
		return nil, err
	}

	existing, err := s.imageRepo.FindByHash(ctx, tx, productID, fileHash)
	if err != nil {
		return nil, err
	}

	if len(existing) > 0 && markPrimary {
		if err = s.promoteExisting(ctx, tx, productID, existing); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("product_id", productID.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}

	if len(existing) == 0 {
		return nil, nil
	}

	s.logger.Info().
		Str("product_id", productID.String()).
		Str("file_hash", fileHash).
		Int("image_index", existing[0].ImageIndex).
		Msg("upload deduplicated by content hash")

	// Promotion may have moved the primary flag; reread for the response.
	all, err := s.imageRepo.GetByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to get images: %w", err)
	}

	images := make([]model.ProductImage, 0, len(model.ImageSizes))
	for _, img := range all {
		if img.FileHash == fileHash {
			images = append(images, img)
		}
	}

	return &model.UploadImageResponse{
		FileHash:   fileHash,
		ImageIndex: existing[0].ImageIndex,
		Deduped:    true,
		Images:     images,
	}, nil
}

// promoteExisting raises the primary flag on the medium rendition of an
// already-registered photo. A photo that already holds the flag is left
// alone.
func (s *imageService) promoteExisting(ctx context.Context, tx pgx.Tx, productID uuid.UUID, renditions []model.ProductImage) error {
	for _, img := range renditions {
		if img.Size != model.PrimarySize {
			continue
		}
		if img.IsPrimary {
			return nil
		}
		if err := s.imageRepo.ClearPrimary(ctx, tx, productID); err != nil {
			return err
		}
		return s.imageRepo.SetPrimary(ctx, tx, img.ID)
	}
	return nil
}

// DeleteImages removes every catalog row for the product's images. Blob
// deletes run after commit and are best effort: a blob that outlives its
// rows is an orphan, a row that outlives its blob would be a broken link.
func (s *imageService) DeleteImages(ctx context.Context, productID uuid.UUID) (int, error) {
	tx, err := s.imageRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return 0, fmt.Errorf("failed to delete images: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	locked, err := s.productRepo.LockProduct(ctx, tx, productID)
	if err != nil {
		return 0, err
	}
	if !locked {
		err = model.NewNotFoundError("product", productID)
		return 0, err
	}

	deleted, err := s.imageRepo.DeleteByProduct(ctx, tx, productID)
	if err != nil {
		return 0, err
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("product_id", productID.String()).Msg("failed to commit transaction")
		return 0, fmt.Errorf("failed to delete images: %w", err)
	}

	s.deleteBlobs(ctx, productID, deleted)

	s.logger.Info().
		Str("product_id", productID.String()).
		Int("deleted", len(deleted)).
		Msg("image rows deleted")

	return len(deleted), nil
}

// deleteBlobs removes the stored renditions the deleted rows pointed at.
// Keys are rebuilt content-addressed, deduplicated, and failures only warn:
// the rows are already gone and the operation must not report otherwise.
func (s *imageService) deleteBlobs(ctx context.Context, productID uuid.UUID, rows []model.ProductImage) {
	seen := make(map[string]bool, len(rows))
	for _, img := range rows {
		key := storage.ImageKey(productID, img.FileHash, img.Size)
		if seen[key] {
			continue
		}
		seen[key] = true

		if err := s.store.Delete(ctx, key); err != nil {
			s.logger.Warn().
				Err(err).
				Str("key", key).
				Msg("failed to delete stored rendition")
		}
	}
}

// GetByProduct lists a product's renditions.
func (s *imageService) GetByProduct(ctx context.Context, productID uuid.UUID) ([]model.ProductImage, error) {
	images, err := s.imageRepo.GetByProduct(ctx, productID)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", productID.String()).Msg("failed to get images")
		return nil, fmt.Errorf("failed to get images: %w", err)
	}
	return images, nil
}

// validateDerivativeBatch checks a register batch before any write happens.
func validateDerivativeBatch(input *model.RegisterDerivativesInput) error {
	if input == nil {
		return model.NewValidationError("derivative batch is nil")
	}
	if input.ProductID == uuid.Nil {
		return model.NewValidationError("product id is required")
	}
	if input.ImageIndex < 0 {
		return model.NewValidationError("image index must not be negative")
	}
	if len(input.Derivatives) == 0 {
		return model.ErrEmptyDerivatives
	}

	seen := make(map[model.ImageSize]bool, len(input.Derivatives))
	hash := ""
	for _, d := range input.Derivatives {
		if !d.Size.Valid() {
			return model.NewValidationError("unknown image size %q", d.Size)
		}
		if seen[d.Size] {
			return model.NewValidationError("duplicate derivative for size %q", d.Size)
		}
		seen[d.Size] = true

		if !contenthash.Valid(d.FileHash) {
			return model.NewValidationError("file hash must be %d lowercase hex characters", contenthash.DigestLength)
		}
		switch {
		case hash == "":
			hash = d.FileHash
		case d.FileHash != hash:
			return model.NewValidationError("derivatives must share one content hash")
		}

		if strings.TrimSpace(d.URL) == "" {
			return model.NewValidationError("derivative url is required")
		}
		if strings.TrimSpace(d.MimeType) == "" {
			return model.NewValidationError("derivative mime type is required")
		}
	}

	for _, size := range model.ImageSizes {
		if !seen[size] {
			return model.NewValidationError("missing derivative for size %q", size)
		}
	}

	return nil
}
