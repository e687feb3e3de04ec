package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/RogerDevCode/ecommerce-floresya-sub002/internal/exchange"
	"github.com/RogerDevCode/ecommerce-floresya-sub002/internal/model"
	"github.com/RogerDevCode/ecommerce-floresya-sub002/internal/repository"
)

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	rates       exchange.RateProvider
	logger      zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	rates exchange.RateProvider,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		rates:       rates,
		logger:      logger.With().Str("service", "order").Logger(),
	}
}

// CreateOrder persists a fully priced order draft atomically. The order,
// its items and the creation ledger entry commit together or not at all.
func (s *orderService) CreateOrder(ctx context.Context, input *model.CreateOrderInput) (*model.OrderResponse, error) {
	if err := s.validateOrderInput(input); err != nil {
		return nil, err
	}

	// Start transaction
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	now := time.Now()
	order := &model.Order{
		ID:              uuid.New(),
		CustomerName:    input.CustomerName,
		CustomerEmail:   input.CustomerEmail,
		CustomerPhone:   input.CustomerPhone,
		DeliveryAddress: input.DeliveryAddress,
		DeliveryDate:    input.DeliveryDate,
		Status:          model.OrderStatusPending,
		TotalUSD:        decimal.Zero,
		TotalVES:        decimal.Zero,
		ExchangeRate:    input.ExchangeRate,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	orderItems := make([]model.OrderItem, len(input.Items))
	for i, item := range input.Items {
		quantity := decimal.NewFromInt(int64(item.Quantity))
		subtotalUSD := item.UnitPriceUSD.Mul(quantity)
		subtotalVES := item.UnitPriceVES.Mul(quantity)

		productID := item.ProductID
		orderItems[i] = model.OrderItem{
			ID:             uuid.New(),
			OrderID:        order.ID,
			ProductID:      &productID,
			ProductName:    item.ProductName,
			ProductSummary: item.ProductSummary,
			UnitPriceUSD:   item.UnitPriceUSD,
			UnitPriceVES:   item.UnitPriceVES,
			Quantity:       item.Quantity,
			SubtotalUSD:    subtotalUSD,
			SubtotalVES:    subtotalVES,
			CreatedAt:      now,
		}

		order.TotalUSD = order.TotalUSD.Add(subtotalUSD)
		order.TotalVES = order.TotalVES.Add(subtotalVES)
	}

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to create order")
		err = classifyConflict(err)
		return nil, err
	}

	// A product referenced by an item can be deleted between snapshot
	// resolution and this insert; the foreign key turns that race into a
	// conflict instead of a silently dangling reference.
	if err = s.orderRepo.CreateOrderItems(ctx, tx, orderItems); err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Int("item_count", len(orderItems)).
			Msg("failed to create order items")
		err = classifyConflict(err)
		return nil, err
	}

	entry := &model.OrderStatusHistory{
		ID:        uuid.New(),
		OrderID:   order.ID,
		OldStatus: nil,
		NewStatus: model.OrderStatusPending,
		ChangedBy: input.ChangedBy,
		CreatedAt: now,
	}
	if err = s.orderRepo.CreateStatusHistory(ctx, tx, entry); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to record creation entry")
		return nil, err
	}

	// Commit transaction
	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Int("item_count", len(orderItems)).
		Str("total_usd", order.TotalUSD.String()).
		Msg("order created successfully")

	return &model.OrderResponse{
		Order:   *order,
		Items:   orderItems,
		History: []model.OrderStatusHistory{*entry},
	}, nil
}

// CreateOrderFromRequest resolves catalog snapshots and the current
// exchange rate for an incoming request, then delegates to CreateOrder.
func (s *orderService) CreateOrderFromRequest(ctx context.Context, req *model.CreateOrderRequest, actor *string) (*model.OrderResponse, error) {
	if req == nil {
		return nil, model.NewValidationError("order request is nil")
	}
	if len(req.Items) == 0 {
		return nil, model.ErrEmptyOrderItems
	}

	productIDs := make([]uuid.UUID, len(req.Items))
	for i, item := range req.Items {
		productIDs[i] = item.ProductID
	}

	products, err := s.productRepo.GetByIDs(ctx, productIDs)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to resolve products")
		return nil, fmt.Errorf("failed to resolve products: %w", err)
	}

	byID := make(map[uuid.UUID]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	rate, err := s.rates.CurrentRate(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to fetch exchange rate")
		return nil, fmt.Errorf("failed to fetch exchange rate: %w", err)
	}

	items := make([]model.CreateOrderItemInput, len(req.Items))
	for i, item := range req.Items {
		product, ok := byID[item.ProductID]
		if !ok {
			s.logger.Warn().Str("product_id", item.ProductID.String()).Msg("order references unknown product")
			return nil, model.NewNotFoundError("product", item.ProductID)
		}
		if !product.Active {
			return nil, model.NewValidationError("product %s is not available", item.ProductID)
		}

		items[i] = model.CreateOrderItemInput{
			ProductID:      product.ID,
			ProductName:    product.Name,
			ProductSummary: product.Summary,
			UnitPriceUSD:   product.PriceUSD,
			UnitPriceVES:   product.PriceUSD.Mul(rate).Round(2),
			Quantity:       item.Quantity,
		}
	}

	return s.CreateOrder(ctx, &model.CreateOrderInput{
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		DeliveryAddress: req.DeliveryAddress,
		DeliveryDate:    req.DeliveryDate,
		ExchangeRate:    rate,
		ChangedBy:       actor,
		Items:           items,
	})
}

// TransitionStatus moves an order to a new status under the order state
// machine. The status row is locked for the duration of the transaction, so
// concurrent transitions serialise and the loser is judged against the
// winner's committed state.
func (s *orderService) TransitionStatus(ctx context.Context, orderID uuid.UUID, req *model.TransitionStatusRequest, actor *string) (*model.OrderResponse, error) {
	if req == nil {
		return nil, model.NewValidationError("transition request is nil")
	}
	if !req.Status.Valid() {
		return nil, model.NewValidationError("unknown order status %q", req.Status)
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to transition order: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	current, err := s.orderRepo.GetStatusForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		err = model.NewNotFoundError("order", orderID)
		return nil, err
	}

	if !current.CanTransitionTo(req.Status) {
		s.logger.Warn().
			Str("order_id", orderID.String()).
			Str("from", string(*current)).
			Str("to", string(req.Status)).
			Msg("transition rejected by state machine")
		err = model.NewInvalidTransitionError(*current, req.Status)
		return nil, err
	}

	now := time.Now()
	if err = s.orderRepo.UpdateStatus(ctx, tx, orderID, req.Status, now); err != nil {
		return nil, err
	}

	entry := &model.OrderStatusHistory{
		ID:        uuid.New(),
		OrderID:   orderID,
		OldStatus: current,
		NewStatus: req.Status,
		Note:      req.Note,
		ChangedBy: actor,
		CreatedAt: now,
	}
	if err = s.orderRepo.CreateStatusHistory(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to transition order: %w", err)
	}

	s.logger.Info().
		Str("order_id", orderID.String()).
		Str("from", string(*current)).
		Str("to", string(req.Status)).
		Msg("order status transitioned")

	return s.GetByID(ctx, orderID)
}

// GetByID retrieves an order with its items and transition ledger.
func (s *orderService) GetByID(ctx context.Context, id uuid.UUID) (*model.OrderResponse, error) {
	order, items, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if order == nil {
		s.logger.Debug().Str("order_id", id.String()).Msg("order not found")
		return nil, nil
	}

	history, err := s.orderRepo.GetStatusHistory(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get status history")
		return nil, fmt.Errorf("failed to get status history: %w", err)
	}

	return &model.OrderResponse{
		Order:   *order,
		Items:   items,
		History: history,
	}, nil
}

// validateOrderInput checks an order draft before any write happens.
func (s *orderService) validateOrderInput(input *model.CreateOrderInput) error {
	if input == nil {
		return model.NewValidationError("order input is nil")
	}

	if strings.TrimSpace(input.CustomerName) == "" {
		return model.NewValidationError("customer name is required")
	}
	if strings.TrimSpace(input.CustomerEmail) == "" {
		return model.NewValidationError("customer email is required")
	}
	if strings.TrimSpace(input.DeliveryAddress) == "" {
		return model.NewValidationError("delivery address is required")
	}
	if !input.ExchangeRate.IsPositive() {
		return model.NewValidationError("exchange rate must be positive")
	}

	if len(input.Items) == 0 {
		return model.ErrEmptyOrderItems
	}

	for i, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return model.NewValidationError("item %d: product id is required", i)
		}
		if strings.TrimSpace(item.ProductName) == "" {
			return model.NewValidationError("item %d: product name is required", i)
		}
		if item.Quantity <= 0 {
			s.logger.Warn().
				Int("item_index", i).
				Str("product_id", item.ProductID.String()).
				Int("quantity", item.Quantity).
				Msg("invalid quantity")
			return model.ErrInvalidQuantity
		}
		if item.UnitPriceUSD.IsNegative() || item.UnitPriceVES.IsNegative() {
			return model.ErrNegativeUnitPrice
		}
	}

	return nil
}
