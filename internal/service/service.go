package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/RogerDevCode/ecommerce-floresya-sub002/internal/model"
)

// OrderService defines operations for order management. Every mutation runs
// inside a single transaction: on error nothing is persisted.
type OrderService interface {
	// CreateOrder persists a fully priced order draft atomically. The
	// order starts in the pending state and gets a creation entry in the
	// transition ledger.
	CreateOrder(ctx context.Context, input *model.CreateOrderInput) (*model.OrderResponse, error)

	// CreateOrderFromRequest resolves catalog snapshots and the current
	// exchange rate for an incoming request, then delegates to
	// CreateOrder.
	CreateOrderFromRequest(ctx context.Context, req *model.CreateOrderRequest, actor *string) (*model.OrderResponse, error)

	// TransitionStatus moves an order to a new status under the order
	// state machine, appending a ledger entry.
	TransitionStatus(ctx context.Context, orderID uuid.UUID, req *model.TransitionStatusRequest, actor *string) (*model.OrderResponse, error)

	// GetByID retrieves an order with its items and transition ledger.
	// Returns nil when the order does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.OrderResponse, error)
}

// CarouselService defines operations for the storefront carousel.
type CarouselService interface {
	// AssignSlot places a product on the carousel at the given position,
	// shifting later occupants one slot back and evicting whoever falls
	// off the end. A nil position takes the product off the carousel.
	AssignSlot(ctx context.Context, productID uuid.UUID, position *int) ([]model.CarouselSlot, error)

	// GetCarousel returns the occupied slots ordered by position.
	GetCarousel(ctx context.Context) ([]model.CarouselSlot, error)
}

// ImageService defines operations for the product image catalog.
type ImageService interface {
	// RegisterDerivatives records an already-uploaded batch of renditions
	// for one photo of a product.
	RegisterDerivatives(ctx context.Context, input *model.RegisterDerivativesInput) ([]model.ProductImage, error)

	// UploadImage resizes an original photo, stores the renditions and
	// registers them, deduplicating by content hash.
	UploadImage(ctx context.Context, productID uuid.UUID, data []byte, markPrimary bool) (*model.UploadImageResponse, error)

	// DeleteImages removes every catalog row for the product's images and
	// returns how many were removed. Stored blobs are cleaned up after the
	// rows are gone, on a best-effort basis.
	DeleteImages(ctx context.Context, productID uuid.UUID) (int, error)

	// GetByProduct lists a product's renditions.
	GetByProduct(ctx context.Context, productID uuid.UUID) ([]model.ProductImage, error)
}

// ProductService defines operations for catalogue management.
type ProductService interface {
	// Create adds a product to the catalogue, pricing the VES column from
	// the current exchange rate.
	Create(ctx context.Context, req *model.CreateProductRequest) (*model.Product, error)

	// GetAll retrieves all products with pagination.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by ID. Returns nil when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// GetOccasions retrieves the active occasions.
	GetOccasions(ctx context.Context) ([]model.Occasion, error)
}

// Postgres error codes classified as write conflicts.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// classifyConflict maps constraint violations onto PersistenceConflict and
// leaves every other error untouched. Rows referenced by a statement can
// vanish between validation and write; the constraint is the last word.
func classifyConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation, pgForeignKeyViolation:
			return model.NewPersistenceConflict(err)
		}
	}
	return err
}
