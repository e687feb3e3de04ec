package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/RogerDevCode/ecommerce-floresya-sub002/internal/contenthash"
	"github.com/RogerDevCode/ecommerce-floresya-sub002/internal/imaging"
	"github.com/RogerDevCode/ecommerce-floresya-sub002/internal/model"
	"github.com/RogerDevCode/ecommerce-floresya-sub002/internal/storage"
)

// MockImageRepository is a mock implementation of ImageRepository.
type MockImageRepository struct {
	mock.Mock
}

func (m *MockImageRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if tx, ok := args.Get(0).(pgx.Tx); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockImageRepository) CreateImages(ctx context.Context, tx pgx.Tx, images []model.ProductImage) error {
	args := m.Called(ctx, tx, images)
	return args.Error(0)
}

func (m *MockImageRepository) ClearPrimary(ctx context.Context, tx pgx.Tx, productID uuid.UUID) error {
	args := m.Called(ctx, tx, productID)
	return args.Error(0)
}

func (m *MockImageRepository) SetPrimary(ctx context.Context, tx pgx.Tx, imageID uuid.UUID) error {
	args := m.Called(ctx, tx, imageID)
	return args.Error(0)
}

func (m *MockImageRepository) DeleteByProduct(ctx context.Context, tx pgx.Tx, productID uuid.UUID) ([]model.ProductImage, error) {
	args := m.Called(ctx, tx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ProductImage), args.Error(1)
}

func (m *MockImageRepository) NextImageIndex(ctx context.Context, tx pgx.Tx, productID uuid.UUID) (int, error) {
	args := m.Called(ctx, tx, productID)
	return args.Int(0), args.Error(1)
}

func (m *MockImageRepository) FindByHash(ctx context.Context, tx pgx.Tx, productID uuid.UUID, fileHash string) ([]model.ProductImage, error) {
	args := m.Called(ctx, tx, productID, fileHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ProductImage), args.Error(1)
}

func (m *MockImageRepository) GetByProduct(ctx context.Context, productID uuid.UUID) ([]model.ProductImage, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ProductImage), args.Error(1)
}

// MockObjectStore is a mock implementation of storage.ObjectStore.
type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	args := m.Called(ctx, key, data, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockObjectStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// validDerivativeBatch covers every size class with one shared content hash.
func validDerivativeBatch(productID uuid.UUID) *model.RegisterDerivativesInput {
	hash := strings.Repeat("ab", 32)
	derivatives := make([]model.DerivativeInput, 0, len(model.ImageSizes))
	for _, size := range model.ImageSizes {
		derivatives = append(derivatives, model.DerivativeInput{
			Size:     size,
			URL:      fmt.Sprintf("https://cdn.floresya.com/products/%s_%s.jpg", hash, size),
			FileHash: hash,
			MimeType: "image/jpeg",
		})
	}
	return &model.RegisterDerivativesInput{
		ProductID:   productID,
		ImageIndex:  0,
		Derivatives: derivatives,
	}
}

// pngBytes encodes a small gradient PNG for upload tests.
func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestImageService_RegisterDerivatives_Success(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	productID := uuid.New()
	input := validDerivativeBatch(productID)

	mockImageRepo := new(MockImageRepository)
	mockProductRepo := new(MockProductRepository)
	mockStore := new(MockObjectStore)
	mockTx := new(MockTx)

	service := NewImageService(mockImageRepo, mockProductRepo, mockStore, logger)

	mockImageRepo.On("BeginTx", ctx).Return(mockTx, nil)
	mockProductRepo.On("LockProduct", ctx, mockTx, productID).Return(true, nil)
	mockImageRepo.On("CreateImages", ctx, mockTx, mock.AnythingOfType("[]model.ProductImage")).Return(nil)
	mockTx.On("Commit", ctx).Return(nil)

	images, err := service.RegisterDerivatives(ctx, input)

	require.NoError(t, err)
	require.Len(t, images, len(model.ImageSizes))
	for i, img := range images {
		assert.Equal(t, model.ImageSizes[i], img.Size)
		assert.Equal(t, productID, img.ProductID)
		assert.Equal(t, 0, img.ImageIndex)
		assert.False(t, img.IsPrimary)
		assert.NotEqual(t, uuid.Nil, img.ID)
	}

	mockImageRepo.AssertExpectations(t)
	mockImageRepo.AssertNotCalled(t, "ClearPrimary")
	mockTx.AssertExpectations(t)
	assert.True(t, mockTx.committed)
}

func TestImageService_RegisterDerivatives_MarkPrimary(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	productID := uuid.New()
	input := validDerivativeBatch(productID)
	input.ImageIndex = 2
	input.MarkPrimary = true

	mockImageRepo := new(MockImageRepository)
	mockProductRepo := new(MockProductRepository)
	mockStore := new(MockObjectStore)
	mockTx := new(MockTx)

	service := NewImageService(mockImageRepo, mockProductRepo, mockStore, logger)

	mockImageRepo.On("BeginTx", ctx).Return(mockTx, nil)
	mockProductRepo.On("LockProduct", ctx, mockTx, productID).Return(true, nil)
	mockImageRepo.On("ClearPrimary", ctx, mockTx, productID).Return(nil)
	mockImageRepo.On("CreateImages", ctx, mockTx, mock.MatchedBy(func(rows []model.ProductImage) bool {
		if len(rows) != len(model.ImageSizes) {
			return false
		}
		for _, r := range rows {
			if r.IsPrimary != (r.Size == model.PrimarySize) {
				return false
			}
		}
		return true
	})).Return(nil)
	mockTx.On("Commit", ctx).Return(nil)

	images, err := service.RegisterDerivatives(ctx, input)

	require.NoError(t, err)

	primaries := 0
	for _, img := range images {
		if img.IsPrimary {
			primaries++
			assert.Equal(t, model.PrimarySize, img.Size)
		}
	}
	assert.Equal(t, 1, primaries)

	mockImageRepo.AssertExpectations(t)
	mockTx.AssertExpectations(t)
}

func TestImageService_RegisterDerivatives_ValidationErrors(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	tests := []struct {
		name        string
		mutate      func(input *model.RegisterDerivativesInput)
		expectedErr error
	}{
		{
			name:   "Nil product ID",
			mutate: func(input *model.RegisterDerivativesInput) { input.ProductID = uuid.Nil },
		},
		{
			name:   "Negative image index",
			mutate: func(input *model.RegisterDerivativesInput) { input.ImageIndex = -1 },
		},
		{
			name:        "Empty derivatives",
			mutate:      func(input *model.RegisterDerivativesInput) { input.Derivatives = nil },
			expectedErr: model.ErrEmptyDerivatives,
		},
		{
			name:   "Unknown size",
			mutate: func(input *model.RegisterDerivativesInput) { input.Derivatives[0].Size = "huge" },
		},
		{
			name: "Duplicate size",
			mutate: func(input *model.RegisterDerivativesInput) {
				input.Derivatives[1].Size = input.Derivatives[0].Size
			},
		},
		{
			name: "Missing size",
			mutate: func(input *model.RegisterDerivativesInput) {
				input.Derivatives = input.Derivatives[:3]
			},
		},
		{
			name:   "Hash too short",
			mutate: func(input *model.RegisterDerivativesInput) { input.Derivatives[0].FileHash = "abc123" },
		},
		{
			name: "Uppercase hash",
			mutate: func(input *model.RegisterDerivativesInput) {
				input.Derivatives[0].FileHash = strings.Repeat("AB", 32)
			},
		},
		{
			name: "Mismatched hashes",
			mutate: func(input *model.RegisterDerivativesInput) {
				input.Derivatives[1].FileHash = strings.Repeat("cd", 32)
			},
		},
		{
			name:   "Empty URL",
			mutate: func(input *model.RegisterDerivativesInput) { input.Derivatives[2].URL = "  " },
		},
		{
			name:   "Empty mime type",
			mutate: func(input *model.RegisterDerivativesInput) { input.Derivatives[3].MimeType = "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockImageRepo := new(MockImageRepository)
			mockProductRepo := new(MockProductRepository)
			mockStore := new(MockObjectStore)

			service := NewImageService(mockImageRepo, mockProductRepo, mockStore, logger)

			input := validDerivativeBatch(uuid.New())
			tt.mutate(input)

			images, err := service.RegisterDerivatives(ctx, input)

			require.Error(t, err)
			assert.Nil(t, images)
			assert.True(t, model.IsValidation(err), "expected validation error, got %v", err)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			}

			mockImageRepo.AssertNotCalled(t, "BeginTx")
		})
	}
}

func TestImageService_RegisterDerivatives_ProductNotFound(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	productID := uuid.New()

	mockImageRepo := new(MockImageRepository)
	mockProductRepo := new(MockProductRepository)
	mockStore := new(MockObjectStore)
	mockTx := new(MockTx)

	service := NewImageService(mockImageRepo, mockProductRepo, mockStore, logger)

	mockImageRepo.On("BeginTx", ctx).Return(mockTx, nil)
	mockProductRepo.On("LockProduct", ctx, mockTx, productID).Return(false, nil)
	mockTx.On("Rollback", ctx).Return(nil)

	images, err := service.RegisterDerivatives(ctx, validDerivativeBatch(productID))

	require.Error(t, err)
	assert.Nil(t, images)
	assert.True(t, model.IsNotFound(err), "expected not found, got %v", err)

	mockImageRepo.AssertNotCalled(t, "CreateImages")
	assert.True(t, mockTx.rolledBack)
}

func TestImageService_RegisterDerivatives_DuplicateConflict(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	productID := uuid.New()

	mockImageRepo := new(MockImageRepository)
	mockProductRepo := new(MockProductRepository)
	mockStore := new(MockObjectStore)
	mockTx := new(MockTx)

	service := NewImageService(mockImageRepo, mockProductRepo, mockStore, logger)

	mockImageRepo.On("BeginTx", ctx).Return(mockTx, nil)
	mockProductRepo.On("LockProduct", ctx, mockTx, productID).Return(true, nil)
	mockImageRepo.On("CreateImages", ctx, mockTx, mock.AnythingOfType("[]model.ProductImage")).
		Return(&pgconn.PgError{Code: "23505", ConstraintName: "product_images_product_id_image_index_size_key"})
	mockTx.On("Rollback", ctx).Return(nil)

	images, err := service.RegisterDerivatives(ctx, validDerivativeBatch(productID))

	require.Error(t, err)
	assert.Nil(t, images)
	assert.True(t, model.IsPersistenceConflict(err), "expected persistence conflict, got %v", err)
	assert.True(t, mockTx.rolledBack)
}

func TestImageService_UploadImage_Success(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	productID := uuid.New()
	data := pngBytes(t, 64, 64)
	fileHash := contenthash.Hash(data)

	registered := make([]model.ProductImage, 0, len(model.ImageSizes))
	for _, size := range model.ImageSizes {
		registered = append(registered, model.ProductImage{
			ID:         uuid.New(),
			ProductID:  productID,
			ImageIndex: 0,
			Size:       size,
			FileHash:   fileHash,
			MimeType:   imaging.MimeJPEG,
			IsPrimary:  size == model.PrimarySize,
			CreatedAt:  time.Now(),
		})
	}
	// An older photo of the same product must not leak into the response.
	stale := model.ProductImage{
		ID:         uuid.New(),
		ProductID:  productID,
		ImageIndex: 1,
		Size:       model.ImageSizeMedium,
		FileHash:   strings.Repeat("ff", 32),
	}

	mockImageRepo := new(MockImageRepository)
	mockProductRepo := new(MockProductRepository)
	mockStore := new(MockObjectStore)
	mockTx := new(MockTx)

	service := NewImageService(mockImageRepo, mockProductRepo, mockStore, logger)

	for _, size := range model.ImageSizes {
		key := storage.ImageKey(productID, fileHash, size)
		mockStore.On("Put", ctx, key, mock.AnythingOfType("[]uint8"), imaging.MimeJPEG).
			Return("https://cdn.floresya.com/"+key, nil)
	}
	mockImageRepo.On("BeginTx", ctx).Return(mockTx, nil)
	mockProductRepo.On("LockProduct", ctx, mockTx, productID).Return(true, nil)
	mockImageRepo.On("FindByHash", ctx, mockTx, productID, fileHash).Return([]model.ProductImage{}, nil)
	mockImageRepo.On("NextImageIndex", ctx, mockTx, productID).Return(0, nil)
	mockImageRepo.On("ClearPrimary", ctx, mockTx, productID).Return(nil)
	mockImageRepo.On("CreateImages", ctx, mockTx, mock.MatchedBy(func(rows []model.ProductImage) bool {
		if len(rows) != len(model.ImageSizes) {
			return false
		}
		for _, r := range rows {
			if r.FileHash != fileHash || r.ImageIndex != 0 {
				return false
			}
			if r.IsPrimary != (r.Size == model.PrimarySize) {
				return false
			}
		}
		return true
	})).Return(nil)
	mockTx.On("Commit", ctx).Return(nil)
	mockImageRepo.On("GetByProduct", ctx, productID).Return(append(registered, stale), nil)

	resp, err := service.UploadImage(ctx, productID, data, true)

	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, fileHash, resp.FileHash)
	assert.Equal(t, 0, resp.ImageIndex)
	assert.False(t, resp.Deduped)
	assert.Len(t, resp.Images, len(model.ImageSizes))
	for _, img := range resp.Images {
		assert.Equal(t, fileHash, img.FileHash)
	}

	mockStore.AssertExpectations(t)
	mockImageRepo.AssertExpectations(t)
	mockTx.AssertExpectations(t)
}

func TestImageService_UploadImage_Dedupe(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	productID := uuid.New()
	data := pngBytes(t, 48, 48)
	fileHash := contenthash.Hash(data)

	mediumID := uuid.New()
	existing := []model.ProductImage{
		{ID: uuid.New(), ProductID: productID, ImageIndex: 2, Size: model.ImageSizeThumbnail, FileHash: fileHash},
		{ID: uuid.New(), ProductID: productID, ImageIndex: 2, Size: model.ImageSizeSmall, FileHash: fileHash},
		{ID: mediumID, ProductID: productID, ImageIndex: 2, Size: model.ImageSizeMedium, FileHash: fileHash},
		{ID: uuid.New(), ProductID: productID, ImageIndex: 2, Size: model.ImageSizeLarge, FileHash: fileHash},
	}

	t.Run("Existing photo is promoted to primary", func(t *testing.T) {
		mockImageRepo := new(MockImageRepository)
		mockProductRepo := new(MockProductRepository)
		mockStore := new(MockObjectStore)
		mockTx := new(MockTx)

		service := NewImageService(mockImageRepo, mockProductRepo, mockStore, logger)

		mockImageRepo.On("BeginTx", ctx).Return(mockTx, nil)
		mockProductRepo.On("LockProduct", ctx, mockTx, productID).Return(true, nil)
		mockImageRepo.On("FindByHash", ctx, mockTx, productID, fileHash).Return(existing, nil)
		mockImageRepo.On("ClearPrimary", ctx, mockTx, productID).Return(nil)
		mockImageRepo.On("SetPrimary", ctx, mockTx, mediumID).Return(nil)
		mockTx.On("Commit", ctx).Return(nil)
		mockImageRepo.On("GetByProduct", ctx, productID).Return(existing, nil)

		resp, err := service.UploadImage(ctx, productID, data, true)

		require.NoError(t, err)
		require.NotNil(t, resp)
		assert.True(t, resp.Deduped)
		assert.Equal(t, 2, resp.ImageIndex)

		mockStore.AssertNotCalled(t, "Put")
		mockImageRepo.AssertNotCalled(t, "NextImageIndex")
		mockImageRepo.AssertNotCalled(t, "CreateImages")
		mockImageRepo.AssertExpectations(t)
	})

	t.Run("Without mark primary nothing is written", func(t *testing.T) {
		mockImageRepo := new(MockImageRepository)
		mockProductRepo := new(MockProductRepository)
		mockStore := new(MockObjectStore)
		mockTx := new(MockTx)

		service := NewImageService(mockImageRepo, mockProductRepo, mockStore, logger)

		mockImageRepo.On("BeginTx", ctx).Return(mockTx, nil)
		mockProductRepo.On("LockProduct", ctx, mockTx, productID).Return(true, nil)
		mockImageRepo.On("FindByHash", ctx, mockTx, productID, fileHash).Return(existing, nil)
		mockTx.On("Commit", ctx).Return(nil)
		mockImageRepo.On("GetByProduct", ctx, productID).Return(existing, nil)

		resp, err := service.UploadImage(ctx, productID, data, false)

		require.NoError(t, err)
		assert.True(t, resp.Deduped)

		mockStore.AssertNotCalled(t, "Put")
		mockImageRepo.AssertNotCalled(t, "ClearPrimary")
		mockImageRepo.AssertNotCalled(t, "SetPrimary")
		mockImageRepo.AssertNotCalled(t, "CreateImages")
	})
}

func TestImageService_UploadImage_RegisteredWhileStoring(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	productID := uuid.New()
	data := pngBytes(t, 40, 40)
	fileHash := contenthash.Hash(data)

	existing := []model.ProductImage{
		{ID: uuid.New(), ProductID: productID, ImageIndex: 3, Size: model.ImageSizeThumbnail, FileHash: fileHash},
		{ID: uuid.New(), ProductID: productID, ImageIndex: 3, Size: model.ImageSizeSmall, FileHash: fileHash},
		{ID: uuid.New(), ProductID: productID, ImageIndex: 3, Size: model.ImageSizeMedium, FileHash: fileHash},
		{ID: uuid.New(), ProductID: productID, ImageIndex: 3, Size: model.ImageSizeLarge, FileHash: fileHash},
	}

	mockImageRepo := new(MockImageRepository)
	mockProductRepo := new(MockProductRepository)
	mockStore := new(MockObjectStore)
	mockTx := new(MockTx)

	service := NewImageService(mockImageRepo, mockProductRepo, mockStore, logger)

	// A concurrent upload of the same photo lands between the first hash
	// check and the registering transaction. The re-check under lock turns
	// this upload into a dedupe; the store writes overwrote identical blobs.
	mockImageRepo.On("BeginTx", ctx).Return(mockTx, nil)
	mockProductRepo.On("LockProduct", ctx, mockTx, productID).Return(true, nil)
	mockImageRepo.On("FindByHash", ctx, mockTx, productID, fileHash).Return([]model.ProductImage{}, nil).Once()
	mockStore.On("Put", ctx, mock.AnythingOfType("string"), mock.AnythingOfType("[]uint8"), imaging.MimeJPEG).
		Return("https://cdn.floresya.com/obj.jpg", nil)
	mockImageRepo.On("FindByHash", ctx, mockTx, productID, fileHash).Return(existing, nil).Once()
	mockTx.On("Commit", ctx).Return(nil)
	mockImageRepo.On("GetByProduct", ctx, productID).Return(existing, nil)

	resp, err := service.UploadImage(ctx, productID, data, false)

	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.True(t, resp.Deduped)
	assert.Equal(t, 3, resp.ImageIndex)

	mockStore.AssertNumberOfCalls(t, "Put", len(model.ImageSizes))
	mockImageRepo.AssertNotCalled(t, "NextImageIndex")
	mockImageRepo.AssertNotCalled(t, "CreateImages")
	mockImageRepo.AssertExpectations(t)
}

func TestImageService_UploadImage_InvalidPayload(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	tests := []struct {
		name string
		data []byte
	}{
		{"Empty payload", nil},
		{"Not an image", []byte("definitely not a jpeg")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockImageRepo := new(MockImageRepository)
			mockProductRepo := new(MockProductRepository)
			mockStore := new(MockObjectStore)

			service := NewImageService(mockImageRepo, mockProductRepo, mockStore, logger)

			resp, err := service.UploadImage(ctx, uuid.New(), tt.data, false)

			require.Error(t, err)
			assert.Nil(t, resp)
			assert.True(t, model.IsValidation(err), "expected validation error, got %v", err)

			mockStore.AssertNotCalled(t, "Put")
			mockImageRepo.AssertNotCalled(t, "BeginTx")
		})
	}
}

func TestImageService_UploadImage_ProductNotFound(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	productID := uuid.New()
	data := pngBytes(t, 32, 32)

	mockImageRepo := new(MockImageRepository)
	mockProductRepo := new(MockProductRepository)
	mockStore := new(MockObjectStore)
	mockTx := new(MockTx)

	service := NewImageService(mockImageRepo, mockProductRepo, mockStore, logger)

	mockImageRepo.On("BeginTx", ctx).Return(mockTx, nil)
	mockProductRepo.On("LockProduct", ctx, mockTx, productID).Return(false, nil)
	mockTx.On("Rollback", ctx).Return(nil)

	resp, err := service.UploadImage(ctx, productID, data, false)

	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, model.IsNotFound(err), "expected not found, got %v", err)
	assert.True(t, mockTx.rolledBack)

	// Nothing was stored for a product that does not exist.
	mockStore.AssertNotCalled(t, "Put")
}

func TestImageService_DeleteImages(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	// Two photos of four renditions each; blob keys collapse per photo hash
	// and size.
	deletedRows := func(productID uuid.UUID) []model.ProductImage {
		rows := make([]model.ProductImage, 0, 2*len(model.ImageSizes))
		for i, hash := range []string{strings.Repeat("ab", 32), strings.Repeat("cd", 32)} {
			for _, size := range model.ImageSizes {
				rows = append(rows, model.ProductImage{
					ID:         uuid.New(),
					ProductID:  productID,
					ImageIndex: i,
					Size:       size,
					FileHash:   hash,
				})
			}
		}
		return rows
	}

	t.Run("Removes rows then blobs", func(t *testing.T) {
		productID := uuid.New()
		rows := deletedRows(productID)

		mockImageRepo := new(MockImageRepository)
		mockProductRepo := new(MockProductRepository)
		mockStore := new(MockObjectStore)
		mockTx := new(MockTx)

		service := NewImageService(mockImageRepo, mockProductRepo, mockStore, logger)

		mockImageRepo.On("BeginTx", ctx).Return(mockTx, nil)
		mockProductRepo.On("LockProduct", ctx, mockTx, productID).Return(true, nil)
		mockImageRepo.On("DeleteByProduct", ctx, mockTx, productID).Return(rows, nil)
		mockTx.On("Commit", ctx).Return(nil)
		for _, row := range rows {
			mockStore.On("Delete", ctx, storage.ImageKey(productID, row.FileHash, row.Size)).Return(nil).Once()
		}

		deleted, err := service.DeleteImages(ctx, productID)

		require.NoError(t, err)
		assert.Equal(t, len(rows), deleted)

		mockStore.AssertExpectations(t)
		mockImageRepo.AssertExpectations(t)
		mockTx.AssertExpectations(t)
		assert.True(t, mockTx.committed)
	})

	t.Run("Blob delete failure does not undo the row delete", func(t *testing.T) {
		productID := uuid.New()
		rows := deletedRows(productID)

		mockImageRepo := new(MockImageRepository)
		mockProductRepo := new(MockProductRepository)
		mockStore := new(MockObjectStore)
		mockTx := new(MockTx)

		service := NewImageService(mockImageRepo, mockProductRepo, mockStore, logger)

		mockImageRepo.On("BeginTx", ctx).Return(mockTx, nil)
		mockProductRepo.On("LockProduct", ctx, mockTx, productID).Return(true, nil)
		mockImageRepo.On("DeleteByProduct", ctx, mockTx, productID).Return(rows, nil)
		mockTx.On("Commit", ctx).Return(nil)
		mockStore.On("Delete", ctx, mock.AnythingOfType("string")).Return(errors.New("s3 unavailable"))

		deleted, err := service.DeleteImages(ctx, productID)

		require.NoError(t, err)
		assert.Equal(t, len(rows), deleted)
		assert.True(t, mockTx.committed)
	})

	t.Run("Product without images deletes zero rows", func(t *testing.T) {
		productID := uuid.New()

		mockImageRepo := new(MockImageRepository)
		mockProductRepo := new(MockProductRepository)
		mockStore := new(MockObjectStore)
		mockTx := new(MockTx)

		service := NewImageService(mockImageRepo, mockProductRepo, mockStore, logger)

		mockImageRepo.On("BeginTx", ctx).Return(mockTx, nil)
		mockProductRepo.On("LockProduct", ctx, mockTx, productID).Return(true, nil)
		mockImageRepo.On("DeleteByProduct", ctx, mockTx, productID).Return([]model.ProductImage{}, nil)
		mockTx.On("Commit", ctx).Return(nil)

		deleted, err := service.DeleteImages(ctx, productID)

		require.NoError(t, err)
		assert.Equal(t, 0, deleted)

		mockStore.AssertNotCalled(t, "Delete")
	})

	t.Run("Product not found", func(t *testing.T) {
		productID := uuid.New()

		mockImageRepo := new(MockImageRepository)
		mockProductRepo := new(MockProductRepository)
		mockStore := new(MockObjectStore)
		mockTx := new(MockTx)

		service := NewImageService(mockImageRepo, mockProductRepo, mockStore, logger)

		mockImageRepo.On("BeginTx", ctx).Return(mockTx, nil)
		mockProductRepo.On("LockProduct", ctx, mockTx, productID).Return(false, nil)
		mockTx.On("Rollback", ctx).Return(nil)

		deleted, err := service.DeleteImages(ctx, productID)

		require.Error(t, err)
		assert.Equal(t, 0, deleted)
		assert.True(t, model.IsNotFound(err), "expected not found, got %v", err)

		mockImageRepo.AssertNotCalled(t, "DeleteByProduct")
		assert.True(t, mockTx.rolledBack)
	})
}

func TestImageService_GetByProduct(t *testing.T) {
	logger := zerolog.Nop()
	ctx := context.Background()

	productID := uuid.New()
	images := []model.ProductImage{
		{ID: uuid.New(), ProductID: productID, Size: model.ImageSizeThumbnail},
		{ID: uuid.New(), ProductID: productID, Size: model.ImageSizeMedium},
	}

	t.Run("Success", func(t *testing.T) {
		mockImageRepo := new(MockImageRepository)
		mockProductRepo := new(MockProductRepository)
		mockStore := new(MockObjectStore)

		service := NewImageService(mockImageRepo, mockProductRepo, mockStore, logger)

		mockImageRepo.On("GetByProduct", ctx, productID).Return(images, nil)

		got, err := service.GetByProduct(ctx, productID)

		require.NoError(t, err)
		assert.Equal(t, images, got)
	})

	t.Run("Repository error", func(t *testing.T) {
		mockImageRepo := new(MockImageRepository)
		mockProductRepo := new(MockProductRepository)
		mockStore := new(MockObjectStore)

		service := NewImageService(mockImageRepo, mockProductRepo, mockStore, logger)

		mockImageRepo.On("GetByProduct", ctx, productID).Return(nil, errors.New("database error"))

		got, err := service.GetByProduct(ctx, productID)

		require.Error(t, err)
		assert.Nil(t, got)
	})
}
