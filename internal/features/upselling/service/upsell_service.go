package service

import (
	"context"
	"fmt"

	"leopards-connector/internal/core/logger"
	"leopards-connector/internal/features/upselling/domain"
	"leopards-connector/internal/features/upselling/ports"

	"go.uber.org/zap"
)

// UpsellService resolves the products offered at POS checkout.
type UpsellService struct {
	repo   ports.RuleRepository
	logger *zap.Logger
}

// NewUpsellService creates a new UpsellService.
func NewUpsellService(repo ports.RuleRepository) *UpsellService {
	return &UpsellService{repo: repo, logger: logger.Named("upselling")}
}

// CreateRule stores an upsell rule.
func (s *UpsellService) CreateRule(ctx context.Context, rule *domain.Rule) error {
	if err := s.repo.CreateRule(ctx, rule); err != nil {
		return err
	}
	s.logger.Info("Upsell rule created",
		zap.Uint("rule_id", rule.ID),
		zap.Int("configs", len(rule.ConfigIDs)),
		zap.Int("products", len(rule.ProductIDs)),
	)
	return nil
}

// SaveProduct stores a POS product.
func (s *UpsellService) SaveProduct(ctx context.Context, product *domain.Product) error {
	return s.repo.SaveProduct(ctx, product)
}

// ProductsForConfig returns the offerable products of the active rules linked to configID,
// ordered by id. A zero configID yields no products.
func (s *UpsellService) ProductsForConfig(ctx context.Context, configID uint) ([]domain.Product, error) {
	if configID == 0 {
		return []domain.Product{}, nil
	}

	ids, err := s.repo.ProductIDsForConfig(ctx, configID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve upsell rules: %w", err)
	}
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}

	products, err := s.repo.OfferableProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve upsell products: %w", err)
	}
	return products, nil
}
