package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/RogerDevCode/ecommerce-floresya-sub002/internal/model"
)

// ProductRepository defines the interface for catalogue data access
// operations, including the carousel columns on the products table.
type ProductRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// Create inserts a new product and links it to the given occasions.
	Create(ctx context.Context, product *model.Product, occasionIDs []uuid.UUID) error

	// GetAll retrieves all products with pagination support.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by its ID. Returns nil when the
	// product does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// GetByIDs retrieves multiple products by their IDs. Absent IDs are
	// simply missing from the result.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error)

	// LockProduct locks the product row within the provided transaction
	// and reports whether it exists.
	LockProduct(ctx context.Context, tx pgx.Tx, id uuid.UUID) (bool, error)

	// LockCarouselProducts locks, in one deterministic pass, the target
	// product row plus every product currently holding a carousel slot.
	// It returns the target (nil when absent) and the occupied slots
	// ordered by position.
	LockCarouselProducts(ctx context.Context, tx pgx.Tx, targetID uuid.UUID) (*model.Product, []model.CarouselSlot, error)

	// SetCarouselOrder writes one product's carousel position within the
	// provided transaction. A nil position clears the slot.
	SetCarouselOrder(ctx context.Context, tx pgx.Tx, id uuid.UUID, position *int) error

	// ShiftCarouselOrders rewrites several products' carousel positions
	// within the provided transaction.
	ShiftCarouselOrders(ctx context.Context, tx pgx.Tx, slots []model.CarouselSlot) error

	// GetCarousel returns the occupied carousel slots ordered by position.
	GetCarousel(ctx context.Context) ([]model.CarouselSlot, error)

	// CreateOccasion inserts a new occasion.
	CreateOccasion(ctx context.Context, occasion *model.Occasion) error

	// GetOccasions retrieves all active occasions ordered for display.
	GetOccasions(ctx context.Context) ([]model.Occasion, error)
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts multiple order items within the provided
	// transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// CreateStatusHistory appends one row to the transition ledger within
	// the provided transaction.
	CreateStatusHistory(ctx context.Context, tx pgx.Tx, entry *model.OrderStatusHistory) error

	// GetStatusForUpdate reads an order's status within the provided
	// transaction, locking the row until commit. Returns nil when the
	// order does not exist.
	GetStatusForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.OrderStatus, error)

	// UpdateStatus writes an order's status within the provided
	// transaction.
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status model.OrderStatus, updatedAt time.Time) error

	// GetByID retrieves an order by its ID along with its items. Returns
	// nil when the order does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, []model.OrderItem, error)

	// GetStatusHistory retrieves an order's transition ledger, oldest
	// first.
	GetStatusHistory(ctx context.Context, orderID uuid.UUID) ([]model.OrderStatusHistory, error)
}

// ImageRepository defines the interface for product image data access
// operations.
type ImageRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateImages inserts a batch of renditions within the provided
	// transaction.
	CreateImages(ctx context.Context, tx pgx.Tx, images []model.ProductImage) error

	// ClearPrimary drops the primary flag from every image of the product
	// within the provided transaction.
	ClearPrimary(ctx context.Context, tx pgx.Tx, productID uuid.UUID) error

	// SetPrimary raises the primary flag on one rendition within the
	// provided transaction.
	SetPrimary(ctx context.Context, tx pgx.Tx, imageID uuid.UUID) error

	// DeleteByProduct removes every rendition of the product within the
	// provided transaction and returns the removed rows.
	DeleteByProduct(ctx context.Context, tx pgx.Tx, productID uuid.UUID) ([]model.ProductImage, error)

	// NextImageIndex returns the next free photo index for the product
	// within the provided transaction.
	NextImageIndex(ctx context.Context, tx pgx.Tx, productID uuid.UUID) (int, error)

	// FindByHash retrieves the renditions of the product's photo with the
	// given content hash within the provided transaction.
	FindByHash(ctx context.Context, tx pgx.Tx, productID uuid.UUID, fileHash string) ([]model.ProductImage, error)

	// GetByProduct retrieves all renditions for a product ordered by
	// photo index and size.
	GetByProduct(ctx context.Context, productID uuid.UUID) ([]model.ProductImage, error)
}
