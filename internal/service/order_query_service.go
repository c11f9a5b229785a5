package service

import (
	"context"
	"fmt"

	"storefront-payments/internal/core/domain"
	"storefront-payments/internal/core/ports"
	"storefront-payments/pkg/apperror"

	"github.com/google/uuid"
)

// OrderQueryServiceImpl implements ports.OrderQueryService.
type OrderQueryServiceImpl struct {
	orderRepo ports.OrderRepository
}

// NewOrderQueryService creates a new OrderQueryServiceImpl.
func NewOrderQueryService(orderRepo ports.OrderRepository) *OrderQueryServiceImpl {
	return &OrderQueryServiceImpl{orderRepo: orderRepo}
}

// GetOrder returns the order with its audit notes, oldest first.
func (s *OrderQueryServiceImpl) GetOrder(ctx context.Context, guid uuid.UUID) (*domain.Order, error) {
	order, err := s.orderRepo.GetByGUID(ctx, guid)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("load order: %w", err))
	}
	if order == nil {
		return nil, apperror.NotFound("Order")
	}

	notes, err := s.orderRepo.ListNotes(ctx, order.ID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("list order notes: %w", err))
	}
	order.Notes = notes
	return order, nil
}
