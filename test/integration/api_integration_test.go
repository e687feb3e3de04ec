package integration

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RogerDevCode/ecommerce-floresya-sub002/internal/model"
)

func TestHealthAndAuth_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	env := SetupTestEnv(t)

	t.Run("Health check bypasses auth", func(t *testing.T) {
		resp, err := env.Server.Client().Get(env.Server.URL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("API routes require the key", func(t *testing.T) {
		resp, err := env.Server.Client().Get(env.Server.URL + "/api/products")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestProductAPI_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	env := SetupTestEnv(t)

	t.Run("Create prices the VES column from the exchange rate", func(t *testing.T) {
		product := env.CreateProduct(t, "Ramo Tropical", "25.50")

		assert.Equal(t, "Ramo Tropical", product.Name)
		assert.True(t, product.Active)
		assert.True(t, product.PriceUSD.Equal(decimal.RequireFromString("25.50")))
		assert.True(t, product.PriceVES.Equal(decimal.RequireFromString("1020.00")),
			"expected 1020.00 VES, got %s", product.PriceVES)
	})

	t.Run("GET by ID round-trips", func(t *testing.T) {
		created := env.CreateProduct(t, "Orquidea Blanca", "60.00")

		var got model.Product
		status := env.DoJSON(t, http.MethodGet, "/api/products/"+created.ID.String(), nil, &got)

		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, "Orquidea Blanca", got.Name)
	})

	t.Run("GET unknown product returns 404", func(t *testing.T) {
		status := env.DoJSON(t, http.MethodGet, "/api/products/"+uuid.NewString(), nil, nil)
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("List respects pagination", func(t *testing.T) {
		env.CreateProduct(t, "Girasoles Alegres", "28.50")

		var page []model.Product
		status := env.DoJSON(t, http.MethodGet, "/api/products?limit=2&offset=0", nil, &page)

		assert.Equal(t, http.StatusOK, status)
		assert.Len(t, page, 2)
	})

	t.Run("Create with unknown occasion is a conflict", func(t *testing.T) {
		var errResp model.ErrorResponse
		status := env.DoJSON(t, http.MethodPost, "/api/products", &model.CreateProductRequest{
			Name:      "Cesta de Lirios",
			PriceUSD:  decimal.RequireFromString("52.00"),
			Stock:     5,
			Occasions: []uuid.UUID{uuid.New()},
		}, &errResp)

		assert.Equal(t, http.StatusConflict, status)
		assert.Equal(t, model.ErrCodePersistenceConflict, errResp.Error)
	})

	t.Run("Occasion listing", func(t *testing.T) {
		seedOccasion(t, env, "Cumpleaños", "cumpleanos", 1)

		var occasions []model.Occasion
		status := env.DoJSON(t, http.MethodGet, "/api/occasions", nil, &occasions)

		assert.Equal(t, http.StatusOK, status)
		require.Len(t, occasions, 1)
		assert.Equal(t, "cumpleanos", occasions[0].Slug)
	})
}

func TestOrderAPI_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	env := SetupTestEnv(t)

	ramo := env.CreateProduct(t, "Ramo Tropical", "25.50")
	girasol := env.CreateProduct(t, "Girasoles Alegres", "10.00")

	var order model.OrderResponse

	t.Run("Create snapshots prices and opens the ledger", func(t *testing.T) {
		status := env.DoJSON(t, http.MethodPost, "/api/orders", &model.CreateOrderRequest{
			CustomerName:    "Maria Perez",
			CustomerEmail:   "maria@example.com",
			DeliveryAddress: "Av. Francisco de Miranda, Caracas",
			Items: []model.OrderItemRequest{
				{ProductID: ramo.ID, Quantity: 2},
				{ProductID: girasol.ID, Quantity: 1},
			},
		}, &order)

		require.Equal(t, http.StatusCreated, status)
		assert.Equal(t, model.OrderStatusPending, order.Order.Status)
		assert.True(t, order.Order.TotalUSD.Equal(decimal.RequireFromString("61.00")),
			"expected 61.00 USD, got %s", order.Order.TotalUSD)
		assert.True(t, order.Order.TotalVES.Equal(decimal.RequireFromString("2440.00")),
			"expected 2440.00 VES, got %s", order.Order.TotalVES)

		require.Len(t, order.Items, 2)
		require.Len(t, order.History, 1)
		assert.Nil(t, order.History[0].OldStatus)
		assert.Equal(t, model.OrderStatusPending, order.History[0].NewStatus)
	})

	t.Run("Valid transition appends to the ledger", func(t *testing.T) {
		var updated model.OrderResponse
		status := env.DoJSON(t, http.MethodPatch, "/api/orders/"+order.Order.ID.String()+"/status",
			&model.TransitionStatusRequest{Status: model.OrderStatusConfirmed}, &updated)

		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, model.OrderStatusConfirmed, updated.Order.Status)
		require.Len(t, updated.History, 2)
		require.NotNil(t, updated.History[1].OldStatus)
		assert.Equal(t, updated.History[0].NewStatus, *updated.History[1].OldStatus)
		assert.Equal(t, model.OrderStatusConfirmed, updated.History[1].NewStatus)
	})

	t.Run("Illegal transition leaves no trace", func(t *testing.T) {
		var errResp model.ErrorResponse
		status := env.DoJSON(t, http.MethodPatch, "/api/orders/"+order.Order.ID.String()+"/status",
			&model.TransitionStatusRequest{Status: model.OrderStatusDelivered}, &errResp)

		assert.Equal(t, http.StatusConflict, status)
		assert.Equal(t, model.ErrCodeInvalidTransition, errResp.Error)

		var got model.OrderResponse
		status = env.DoJSON(t, http.MethodGet, "/api/orders/"+order.Order.ID.String(), nil, &got)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, model.OrderStatusConfirmed, got.Order.Status)
		assert.Len(t, got.History, 2)
	})

	t.Run("Delivered is terminal", func(t *testing.T) {
		for _, next := range []model.OrderStatus{
			model.OrderStatusPreparing, model.OrderStatusReady, model.OrderStatusDelivered,
		} {
			status := env.DoJSON(t, http.MethodPatch, "/api/orders/"+order.Order.ID.String()+"/status",
				&model.TransitionStatusRequest{Status: next}, nil)
			require.Equal(t, http.StatusOK, status, "transition to %s", next)
		}

		status := env.DoJSON(t, http.MethodPatch, "/api/orders/"+order.Order.ID.String()+"/status",
			&model.TransitionStatusRequest{Status: model.OrderStatusCancelled}, nil)
		assert.Equal(t, http.StatusConflict, status)

		// The full ledger reads as an unbroken chain from birth to delivery.
		var got model.OrderResponse
		status = env.DoJSON(t, http.MethodGet, "/api/orders/"+order.Order.ID.String(), nil, &got)
		require.Equal(t, http.StatusOK, status)
		require.Len(t, got.History, 5)
		assert.Nil(t, got.History[0].OldStatus)
		for i := 1; i < len(got.History); i++ {
			require.NotNil(t, got.History[i].OldStatus)
			assert.Equal(t, got.History[i-1].NewStatus, *got.History[i].OldStatus)
		}
		assert.Equal(t, model.OrderStatusDelivered, got.History[4].NewStatus)
	})

	t.Run("Unknown product fails the whole order", func(t *testing.T) {
		before := countRows(t, env, "orders")

		status := env.DoJSON(t, http.MethodPost, "/api/orders", &model.CreateOrderRequest{
			CustomerName:    "Jose Rivas",
			CustomerEmail:   "jose@example.com",
			DeliveryAddress: "Calle Paris, Las Mercedes",
			Items: []model.OrderItemRequest{
				{ProductID: ramo.ID, Quantity: 1},
				{ProductID: uuid.New(), Quantity: 1},
			},
		}, nil)

		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, before, countRows(t, env, "orders"), "a rejected order must not persist rows")
	})

	t.Run("Zero quantity is rejected before the engine", func(t *testing.T) {
		status := env.DoJSON(t, http.MethodPost, "/api/orders", &model.CreateOrderRequest{
			CustomerName:    "Jose Rivas",
			CustomerEmail:   "jose@example.com",
			DeliveryAddress: "Calle Paris, Las Mercedes",
			Items: []model.OrderItemRequest{
				{ProductID: ramo.ID, Quantity: 0},
			},
		}, nil)

		assert.Equal(t, http.StatusBadRequest, status)
	})
}

func TestCarouselAPI_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	env := SetupTestEnv(t)

	products := make([]model.Product, 8)
	for i := range products {
		products[i] = env.CreateProduct(t, "Producto "+string(rune('A'+i)), "20.00")
	}

	assign := func(t *testing.T, productID uuid.UUID, position *int) (int, []model.CarouselSlot) {
		t.Helper()
		var slots []model.CarouselSlot
		status := env.DoJSON(t, http.MethodPut, "/api/products/"+productID.String()+"/carousel",
			&model.AssignSlotRequest{Position: position}, &slots)
		return status, slots
	}

	positionOf := func(slots []model.CarouselSlot, productID uuid.UUID) (int, bool) {
		for _, s := range slots {
			if s.ProductID == productID {
				return s.Position, true
			}
		}
		return 0, false
	}

	t.Run("Fill all seven slots", func(t *testing.T) {
		for i := 0; i < 7; i++ {
			pos := i
			status, slots := assign(t, products[i].ID, &pos)
			require.Equal(t, http.StatusOK, status)
			require.Len(t, slots, i+1)
		}
	})

	t.Run("Inserting at the head shifts everyone and evicts the tail", func(t *testing.T) {
		pos := 0
		status, slots := assign(t, products[7].ID, &pos)

		require.Equal(t, http.StatusOK, status)
		require.Len(t, slots, 7)

		got, ok := positionOf(slots, products[7].ID)
		require.True(t, ok)
		assert.Equal(t, 0, got)

		for i := 0; i < 6; i++ {
			got, ok := positionOf(slots, products[i].ID)
			require.True(t, ok, "product %d should remain on the carousel", i)
			assert.Equal(t, i+1, got)
		}

		_, ok = positionOf(slots, products[6].ID)
		assert.False(t, ok, "the occupant of the last slot is evicted")
	})

	t.Run("Reassigning the same position is a no-op", func(t *testing.T) {
		pos := 0
		status, slots := assign(t, products[7].ID, &pos)

		require.Equal(t, http.StatusOK, status)
		got, ok := positionOf(slots, products[7].ID)
		require.True(t, ok)
		assert.Equal(t, 0, got)
		assert.Len(t, slots, 7)
	})

	t.Run("Clearing a slot keeps the gap", func(t *testing.T) {
		status, slots := assign(t, products[2].ID, nil)

		require.Equal(t, http.StatusOK, status)
		require.Len(t, slots, 6)

		_, ok := positionOf(slots, products[2].ID)
		assert.False(t, ok)

		got, ok := positionOf(slots, products[3].ID)
		require.True(t, ok)
		assert.Equal(t, 4, got, "later occupants must not slide into the gap")
	})

	t.Run("Out of range position", func(t *testing.T) {
		pos := 7
		status, _ := assign(t, products[0].ID, &pos)
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("Unknown product", func(t *testing.T) {
		pos := 0
		var errResp model.ErrorResponse
		status := env.DoJSON(t, http.MethodPut, "/api/products/"+uuid.NewString()+"/carousel",
			&model.AssignSlotRequest{Position: &pos}, &errResp)

		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, model.ErrCodeNotFound, errResp.Error)
	})

	t.Run("GET returns slots ordered by position", func(t *testing.T) {
		var slots []model.CarouselSlot
		status := env.DoJSON(t, http.MethodGet, "/api/carousel", nil, &slots)

		require.Equal(t, http.StatusOK, status)
		require.Len(t, slots, 6)
		for i := 1; i < len(slots); i++ {
			assert.Greater(t, slots[i].Position, slots[i-1].Position)
		}
	})
}

func TestImageAPI_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	env := SetupTestEnv(t)

	product := env.CreateProduct(t, "Ramo Tropical", "25.50")
	imagesPath := "/api/products/" + product.ID.String() + "/images"

	photo := PNGBytes(t, 64, 48)

	t.Run("Upload resizes, stores and registers a batch", func(t *testing.T) {
		status, upload := env.UploadImage(t, imagesPath, photo, true)

		require.Equal(t, http.StatusCreated, status)
		require.NotNil(t, upload)
		assert.Len(t, upload.FileHash, 64)
		assert.Equal(t, 0, upload.ImageIndex)
		assert.False(t, upload.Deduped)
		require.Len(t, upload.Images, len(model.ImageSizes))

		primaries := 0
		for _, img := range upload.Images {
			assert.Equal(t, upload.FileHash, img.FileHash)
			if img.IsPrimary {
				primaries++
				assert.Equal(t, model.PrimarySize, img.Size)
			}
		}
		assert.Equal(t, 1, primaries)
	})

	t.Run("Re-uploading the same photo dedupes", func(t *testing.T) {
		status, upload := env.UploadImage(t, imagesPath, photo, false)

		require.Equal(t, http.StatusCreated, status)
		require.NotNil(t, upload)
		assert.True(t, upload.Deduped)
		assert.Equal(t, 0, upload.ImageIndex)

		var rows []model.ProductImage
		getStatus := env.DoJSON(t, http.MethodGet, imagesPath, nil, &rows)
		require.Equal(t, http.StatusOK, getStatus)
		assert.Len(t, rows, len(model.ImageSizes), "dedupe must not add rows")
	})

	t.Run("A second photo gets the next index", func(t *testing.T) {
		status, upload := env.UploadImage(t, imagesPath, PNGBytes(t, 80, 60), false)

		require.Equal(t, http.StatusCreated, status)
		require.NotNil(t, upload)
		assert.Equal(t, 1, upload.ImageIndex)
		assert.False(t, upload.Deduped)
	})

	t.Run("Registering an external batch", func(t *testing.T) {
		hash := "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
		derivatives := make([]model.DerivativeInputRequest, 0, len(model.ImageSizes))
		for _, size := range model.ImageSizes {
			derivatives = append(derivatives, model.DerivativeInputRequest{
				Size:     size,
				URL:      "https://cdn.floresya.com/products/" + hash + "_" + string(size) + ".jpg",
				FileHash: hash,
				MimeType: "image/jpeg",
			})
		}

		var rows []model.ProductImage
		status := env.DoJSON(t, http.MethodPost, imagesPath+"/derivatives",
			&model.RegisterDerivativesRequest{ImageIndex: 2, Derivatives: derivatives}, &rows)

		require.Equal(t, http.StatusCreated, status)
		assert.Len(t, rows, len(model.ImageSizes))

		status = env.DoJSON(t, http.MethodPost, imagesPath+"/derivatives",
			&model.RegisterDerivativesRequest{ImageIndex: 2, Derivatives: derivatives}, nil)
		assert.Equal(t, http.StatusConflict, status, "re-registering the same batch collides")
	})

	t.Run("Marking a later upload primary displaces the first", func(t *testing.T) {
		status, upload := env.UploadImage(t, imagesPath, PNGBytes(t, 100, 75), true)

		require.Equal(t, http.StatusCreated, status)
		require.NotNil(t, upload)

		var rows []model.ProductImage
		getStatus := env.DoJSON(t, http.MethodGet, imagesPath, nil, &rows)
		require.Equal(t, http.StatusOK, getStatus)

		primaries := 0
		for _, img := range rows {
			if img.IsPrimary {
				primaries++
				assert.Equal(t, upload.FileHash, img.FileHash)
			}
		}
		assert.Equal(t, 1, primaries, "the primary flag must have a single holder")
	})

	t.Run("Delete removes rows and reports the count", func(t *testing.T) {
		var resp model.DeleteImagesResponse
		status := env.DoJSON(t, http.MethodDelete, imagesPath, nil, &resp)

		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, 4*len(model.ImageSizes), resp.Deleted)

		var rows []model.ProductImage
		getStatus := env.DoJSON(t, http.MethodGet, imagesPath, nil, &rows)
		require.Equal(t, http.StatusOK, getStatus)
		assert.Empty(t, rows)
	})

	t.Run("Upload to an unknown product", func(t *testing.T) {
		status, _ := env.UploadImage(t, "/api/products/"+uuid.NewString()+"/images", photo, false)
		assert.Equal(t, http.StatusNotFound, status)
	})
}

// seedOccasion inserts an occasion row directly; the API has no write
// endpoint for occasions.
func seedOccasion(t *testing.T, env *TestEnv, name, slug string, displayOrder int) {
	t.Helper()

	_, err := env.Pool.Exec(context.Background(), `
		INSERT INTO occasions (id, name, slug, active, display_order)
		VALUES ($1, $2, $3, TRUE, $4)`,
		uuid.New(), name, slug, displayOrder)
	require.NoError(t, err)
}

func countRows(t *testing.T, env *TestEnv, table string) int {
	t.Helper()

	var count int
	require.NoError(t, env.Pool.QueryRow(context.Background(), "SELECT COUNT(*) FROM "+table).Scan(&count))
	return count
}
