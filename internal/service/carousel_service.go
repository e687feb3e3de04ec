package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/RogerDevCode/ecommerce-floresya-sub002/internal/model"
	"github.com/RogerDevCode/ecommerce-floresya-sub002/internal/repository"
)

// carouselService implements CarouselService.
type carouselService struct {
	productRepo repository.ProductRepository
	logger      zerolog.Logger
}

// NewCarouselService creates a new carousel service.
func NewCarouselService(productRepo repository.ProductRepository, logger zerolog.Logger) CarouselService {
	return &carouselService{
		productRepo: productRepo,
		logger:      logger.With().Str("service", "carousel").Logger(),
	}
}

// AssignSlot places a product on the carousel. Every occupant at or after
// the requested position shifts one slot back, and an occupant pushed past
// the last slot is evicted. The target row and every occupant row are
// locked in one deterministic pass, so two concurrent assignments serialise
// instead of deadlocking.
func (s *carouselService) AssignSlot(ctx context.Context, productID uuid.UUID, position *int) ([]model.CarouselSlot, error) {
	if position != nil && (*position < 0 || *position >= model.CarouselCapacity) {
		return nil, model.ErrSlotOutOfRange
	}

	tx, err := s.productRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to assign carousel slot: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	target, slots, err := s.productRepo.LockCarouselProducts(ctx, tx, productID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		err = model.NewNotFoundError("product", productID)
		return nil, err
	}

	if position == nil {
		if err = s.clearSlot(ctx, tx, target); err != nil {
			return nil, err
		}
	} else {
		if err = s.placeAt(ctx, tx, target, slots, *position); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("product_id", productID.String()).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to assign carousel slot: %w", err)
	}

	return s.productRepo.GetCarousel(ctx)
}

// clearSlot takes the target off the carousel. Clearing a product that
// holds no slot is a no-op.
func (s *carouselService) clearSlot(ctx context.Context, tx pgx.Tx, target *model.Product) error {
	if target.CarouselOrder == nil {
		return nil
	}

	if err := s.productRepo.SetCarouselOrder(ctx, tx, target.ID, nil); err != nil {
		return err
	}

	s.logger.Info().
		Str("product_id", target.ID.String()).
		Int("position", *target.CarouselOrder).
		Msg("carousel slot cleared")
	return nil
}

// placeAt moves the target to the desired position, shifting the occupants
// behind it.
func (s *carouselService) placeAt(ctx context.Context, tx pgx.Tx, target *model.Product, slots []model.CarouselSlot, desired int) error {
	if target.CarouselOrder != nil && *target.CarouselOrder == desired {
		return nil
	}

	shifted := make([]model.CarouselSlot, 0, len(slots))
	for _, slot := range slots {
		if slot.ProductID == target.ID || slot.Position < desired {
			continue
		}

		next := slot.Position + 1
		if next >= model.CarouselCapacity {
			if err := s.productRepo.SetCarouselOrder(ctx, tx, slot.ProductID, nil); err != nil {
				return err
			}
			s.logger.Info().
				Str("product_id", slot.ProductID.String()).
				Int("position", slot.Position).
				Msg("carousel occupant evicted")
			continue
		}

		shifted = append(shifted, model.CarouselSlot{ProductID: slot.ProductID, Position: next})
	}

	if len(shifted) > 0 {
		if err := s.productRepo.ShiftCarouselOrders(ctx, tx, shifted); err != nil {
			return err
		}
	}

	if err := s.productRepo.SetCarouselOrder(ctx, tx, target.ID, &desired); err != nil {
		return err
	}

	s.logger.Info().
		Str("product_id", target.ID.String()).
		Int("position", desired).
		Int("shifted", len(shifted)).
		Msg("carousel slot assigned")
	return nil
}

// GetCarousel returns the occupied slots ordered by position.
func (s *carouselService) GetCarousel(ctx context.Context) ([]model.CarouselSlot, error) {
	slots, err := s.productRepo.GetCarousel(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to get carousel")
		return nil, fmt.Errorf("failed to get carousel: %w", err)
	}
	return slots, nil
}
