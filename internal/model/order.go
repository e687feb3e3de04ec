package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus enumerates the lifecycle states of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// statusTransitions defines the order state machine. An absent entry means
// the state is terminal.
var statusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusPreparing, OrderStatusCancelled},
	OrderStatusPreparing: {OrderStatusReady, OrderStatusCancelled},
	OrderStatusReady:     {OrderStatusDelivered},
}

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusPreparing,
		OrderStatusReady, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition leaves s.
func (s OrderStatus) Terminal() bool {
	return s.Valid() && len(statusTransitions[s]) == 0
}

// CanTransitionTo reports whether the state machine allows moving from s to
// next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Order represents a customer order. Totals and the exchange rate are
// snapshots taken at creation time and never recomputed.
type Order struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	CustomerName    string          `json:"customerName" db:"customer_name"`
	CustomerEmail   string          `json:"customerEmail" db:"customer_email"`
	CustomerPhone   *string         `json:"customerPhone,omitempty" db:"customer_phone"`
	DeliveryAddress string          `json:"deliveryAddress" db:"delivery_address"`
	DeliveryDate    *time.Time      `json:"deliveryDate,omitempty" db:"delivery_date"`
	Status          OrderStatus     `json:"status" db:"status"`
	TotalUSD        decimal.Decimal `json:"totalUsd" db:"total_usd"`
	TotalVES        decimal.Decimal `json:"totalVes" db:"total_ves"`
	ExchangeRate    decimal.Decimal `json:"exchangeRate" db:"exchange_rate"`
	CreatedAt       time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time       `json:"updatedAt" db:"updated_at"`
}

// OrderItem represents a line item in an order. Name, summary and unit
// prices are copied from the catalog at creation time so later product edits
// or deletes never alter the order.
type OrderItem struct {
	ID             uuid.UUID       `json:"-" db:"id"`
	OrderID        uuid.UUID       `json:"-" db:"order_id"`
	ProductID      *uuid.UUID      `json:"productId,omitempty" db:"product_id"`
	ProductName    string          `json:"productName" db:"product_name"`
	ProductSummary *string         `json:"productSummary,omitempty" db:"product_summary"`
	UnitPriceUSD   decimal.Decimal `json:"unitPriceUsd" db:"unit_price_usd"`
	UnitPriceVES   decimal.Decimal `json:"unitPriceVes" db:"unit_price_ves"`
	Quantity       int             `json:"quantity" db:"quantity"`
	SubtotalUSD    decimal.Decimal `json:"subtotalUsd" db:"subtotal_usd"`
	SubtotalVES    decimal.Decimal `json:"subtotalVes" db:"subtotal_ves"`
	CreatedAt      time.Time       `json:"createdAt" db:"created_at"`
}

// OrderStatusHistory is one row of the append-only transition ledger.
// OldStatus is nil only on the creation event.
type OrderStatusHistory struct {
	ID        uuid.UUID    `json:"-" db:"id"`
	OrderID   uuid.UUID    `json:"-" db:"order_id"`
	OldStatus *OrderStatus `json:"oldStatus" db:"old_status"`
	NewStatus OrderStatus  `json:"newStatus" db:"new_status"`
	Note      *string      `json:"note,omitempty" db:"note"`
	ChangedBy *string      `json:"changedBy,omitempty" db:"changed_by"`
	CreatedAt time.Time    `json:"createdAt" db:"created_at"`
}

// CreateOrderInput is the fully priced draft handed to the order engine. The
// request layer resolves catalog snapshots and the exchange rate up front;
// the engine itself never reads the catalog.
type CreateOrderInput struct {
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   *string
	DeliveryAddress string
	DeliveryDate    *time.Time
	ExchangeRate    decimal.Decimal
	ChangedBy       *string
	Items           []CreateOrderItemInput
}

// CreateOrderItemInput is one priced line of an order draft.
type CreateOrderItemInput struct {
	ProductID      uuid.UUID
	ProductName    string
	ProductSummary *string
	UnitPriceUSD   decimal.Decimal
	UnitPriceVES   decimal.Decimal
	Quantity       int
}

// CreateOrderRequest represents the request payload for creating an order.
type CreateOrderRequest struct {
	CustomerName    string             `json:"customerName" validate:"required,max=200"`
	CustomerEmail   string             `json:"customerEmail" validate:"required,email"`
	CustomerPhone   *string            `json:"customerPhone,omitempty" validate:"omitempty,max=30"`
	DeliveryAddress string             `json:"deliveryAddress" validate:"required,max=500"`
	DeliveryDate    *time.Time         `json:"deliveryDate,omitempty"`
	Items           []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// OrderItemRequest represents a single item in an order request.
type OrderItemRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

// TransitionStatusRequest represents the request payload for moving an order
// to a new status.
type TransitionStatusRequest struct {
	Status OrderStatus `json:"status" validate:"required"`
	Note   *string     `json:"note,omitempty" validate:"omitempty,max=500"`
}

// OrderResponse represents the response payload for an order.
type OrderResponse struct {
	Order   Order                `json:"order"`
	Items   []OrderItem          `json:"items"`
	History []OrderStatusHistory `json:"history,omitempty"`
}
