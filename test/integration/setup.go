// Package integration exercises the whole API stack, from HTTP routing down
// to a real PostgreSQL instance, with blobs written to a throwaway directory.
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/RogerDevCode/ecommerce-floresya-sub002/internal/database"
	"github.com/RogerDevCode/ecommerce-floresya-sub002/internal/exchange"
	"github.com/RogerDevCode/ecommerce-floresya-sub002/internal/handler"
	"github.com/RogerDevCode/ecommerce-floresya-sub002/internal/model"
	"github.com/RogerDevCode/ecommerce-floresya-sub002/internal/repository"
	"github.com/RogerDevCode/ecommerce-floresya-sub002/internal/router"
	"github.com/RogerDevCode/ecommerce-floresya-sub002/internal/service"
	"github.com/RogerDevCode/ecommerce-floresya-sub002/internal/storage"
)

const (
	testAPIKey       = "integration-test-key"
	testExchangeRate = "40.00"
	maxUploadBytes   = 10 << 20
)

// TestEnv is a fully wired API over a containerised database.
type TestEnv struct {
	Pool   *pgxpool.Pool
	Server *httptest.Server
}

// SetupTestEnv starts PostgreSQL, applies migrations and serves the API with
// a file-backed object store rooted in a temporary directory.
func SetupTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	ctx := context.Background()
	logger := zerolog.Nop()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := database.NewPoolFromConnString(ctx, connStr)
	require.NoError(t, err)

	require.NoError(t, database.Migrate(ctx, pool, logger))

	store, err := storage.NewFileStore(t.TempDir(), "http://localhost/static", logger)
	require.NoError(t, err)

	rates, err := exchange.NewStaticProvider(decimal.RequireFromString(testExchangeRate))
	require.NoError(t, err)

	productRepo := repository.NewProductRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	imageRepo := repository.NewImageRepository(pool, logger)

	productService := service.NewProductService(productRepo, rates, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, rates, logger)
	carouselService := service.NewCarouselService(productRepo, logger)
	imageService := service.NewImageService(imageRepo, productRepo, store, logger)

	productHandler := handler.NewProductHandler(productService, logger)
	orderHandler := handler.NewOrderHandler(orderService, logger)
	carouselHandler := handler.NewCarouselHandler(carouselService, logger)
	imageHandler := handler.NewImageHandler(imageService, maxUploadBytes, logger)

	mux := router.New(productHandler, orderHandler, carouselHandler, imageHandler, testAPIKey, logger)
	server := httptest.NewServer(mux)

	t.Cleanup(func() {
		server.Close()
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	})

	return &TestEnv{Pool: pool, Server: server}
}

// DoJSON sends a JSON request with the test API key and decodes the response
// into out when out is not nil. It returns the response status code.
func (env *TestEnv) DoJSON(t *testing.T, method, path string, body interface{}, out interface{}) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, env.Server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", testAPIKey)

	resp, err := env.Server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}

	return resp.StatusCode
}

// UploadImage posts a multipart photo upload and decodes the response when
// the upload is accepted.
func (env *TestEnv) UploadImage(t *testing.T, path string, data []byte, markPrimary bool) (int, *model.UploadImageResponse) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("image", "photo.png")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	if markPrimary {
		require.NoError(t, mw.WriteField("markPrimary", "true"))
	}
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, env.Server.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-API-Key", testAPIKey)

	resp, err := env.Server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return resp.StatusCode, nil
	}

	var upload model.UploadImageResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&upload))
	return resp.StatusCode, &upload
}

// CreateProduct creates a catalogue product through the API.
func (env *TestEnv) CreateProduct(t *testing.T, name, priceUSD string) model.Product {
	t.Helper()

	var product model.Product
	status := env.DoJSON(t, http.MethodPost, "/api/products", &model.CreateProductRequest{
		Name:     name,
		PriceUSD: decimal.RequireFromString(priceUSD),
		Stock:    10,
	}, &product)
	require.Equal(t, http.StatusCreated, status)

	return product
}

// PNGBytes encodes a small gradient PNG suitable for uploads.
func PNGBytes(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 200, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
