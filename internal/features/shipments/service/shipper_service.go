package service

import (
	"context"
	"fmt"

	"leopards-connector/internal/features/shipments/domain"
	"leopards-connector/internal/features/shipments/ports"
)

// ShipperService manages the shipper registry.
type ShipperService struct {
	repo ports.ShipperRepository
}

// NewShipperService creates a new ShipperService.
func NewShipperService(repo ports.ShipperRepository) *ShipperService {
	return &ShipperService{repo: repo}
}

// Create registers a shipper.
func (s *ShipperService) Create(ctx context.Context, shipper *domain.Shipper) error {
	if err := s.repo.Create(ctx, shipper); err != nil {
		return fmt.Errorf("failed to create shipper: %w", err)
	}
	return nil
}

// List returns the registered shippers.
func (s *ShipperService) List(ctx context.Context, activeOnly bool) ([]domain.Shipper, error) {
	shippers, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list shippers: %w", err)
	}
	return shippers, nil
}
