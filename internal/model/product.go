package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CarouselCapacity is the number of featured positions on the storefront
// carousel. Valid positions run from 0 to CarouselCapacity-1.
const CarouselCapacity = 7

// Product represents an arrangement in the catalogue. CarouselOrder is nil
// for products that hold no carousel position.
type Product struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	Name          string          `json:"name" db:"name"`
	Summary       *string         `json:"summary,omitempty" db:"summary"`
	Description   *string         `json:"description,omitempty" db:"description"`
	PriceUSD      decimal.Decimal `json:"priceUsd" db:"price_usd"`
	PriceVES      decimal.Decimal `json:"priceVes" db:"price_ves"`
	Stock         int             `json:"stock" db:"stock"`
	Active        bool            `json:"active" db:"active"`
	Featured      bool            `json:"featured" db:"featured"`
	CarouselOrder *int            `json:"carouselOrder,omitempty" db:"carousel_order"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time       `json:"updatedAt" db:"updated_at"`
}

// CarouselSlot is one occupied position on the carousel.
type CarouselSlot struct {
	ProductID uuid.UUID `json:"productId" db:"id"`
	Position  int       `json:"position" db:"carousel_order"`
}

// Occasion groups products by the event they suit, such as birthdays or
// anniversaries.
type Occasion struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Slug         string    `json:"slug" db:"slug"`
	Active       bool      `json:"active" db:"active"`
	DisplayOrder int       `json:"displayOrder" db:"display_order"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// AssignSlotRequest represents the request payload for placing a product on
// the carousel. A nil position clears the product's slot.
type AssignSlotRequest struct {
	Position *int `json:"position"`
}

// CreateProductRequest represents the request payload for adding a product
// to the catalogue.
type CreateProductRequest struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Summary     *string         `json:"summary,omitempty" validate:"omitempty,max=500"`
	Description *string         `json:"description,omitempty"`
	PriceUSD    decimal.Decimal `json:"priceUsd" validate:"required"`
	Stock       int             `json:"stock" validate:"gte=0"`
	Occasions   []uuid.UUID     `json:"occasions,omitempty"`
}
