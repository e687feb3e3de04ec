package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/RogerDevCode/ecommerce-floresya-sub002/internal/exchange"
	"github.com/RogerDevCode/ecommerce-floresya-sub002/internal/model"
	"github.com/RogerDevCode/ecommerce-floresya-sub002/internal/repository"
)

// productService implements ProductService.
type productService struct {
	productRepo repository.ProductRepository
	rates       exchange.RateProvider
	logger      zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(
	productRepo repository.ProductRepository,
	rates exchange.RateProvider,
	logger zerolog.Logger,
) ProductService {
	return &productService{
		productRepo: productRepo,
		rates:       rates,
		logger:      logger.With().Str("service", "product").Logger(),
	}
}

// Create adds a product to the catalogue, pricing the VES column from the
// current exchange rate.
func (s *productService) Create(ctx context.Context, req *model.CreateProductRequest) (*model.Product, error) {
	if req == nil {
		return nil, model.NewValidationError("product request is nil")
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, model.NewValidationError("product name is required")
	}
	if !req.PriceUSD.IsPositive() {
		return nil, model.NewValidationError("price must be positive")
	}
	if req.Stock < 0 {
		return nil, model.NewValidationError("stock must not be negative")
	}

	rate, err := s.rates.CurrentRate(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to fetch exchange rate")
		return nil, fmt.Errorf("failed to fetch exchange rate: %w", err)
	}

	now := time.Now()
	product := &model.Product{
		ID:          uuid.New(),
		Name:        req.Name,
		Summary:     req.Summary,
		Description: req.Description,
		PriceUSD:    req.PriceUSD,
		PriceVES:    req.PriceUSD.Mul(rate).Round(2),
		Stock:       req.Stock,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.productRepo.Create(ctx, product, req.Occasions); err != nil {
		s.logger.Error().Err(err).Str("name", req.Name).Msg("failed to create product")
		return nil, classifyConflict(err)
	}

	s.logger.Info().
		Str("product_id", product.ID.String()).
		Str("name", product.Name).
		Msg("product created")

	return product, nil
}

// GetAll retrieves all products with pagination.
func (s *productService) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	products, err := s.productRepo.GetAll(ctx, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to get all products")
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	s.logger.Debug().
		Int("count", len(products)).
		Int("limit", limit).
		Int("offset", offset).
		Msg("retrieved products")

	return products, nil
}

// GetByID retrieves a single product by ID. Returns nil when absent.
func (s *productService) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to get product by ID")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if product == nil {
		s.logger.Debug().Str("product_id", id.String()).Msg("product not found")
		return nil, nil
	}

	return product, nil
}

// GetOccasions retrieves the active occasions.
func (s *productService) GetOccasions(ctx context.Context) ([]model.Occasion, error) {
	occasions, err := s.productRepo.GetOccasions(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to get occasions")
		return nil, fmt.Errorf("failed to get occasions: %w", err)
	}
	return occasions, nil
}
