package ports

import (
	"context"

	"leopards-connector/internal/features/upselling/domain"
)

// RuleRepository persists upsell rules and the POS product catalogue.
type RuleRepository interface {
	// CreateRule stores the rule with its config and product links.
	CreateRule(ctx context.Context, rule *domain.Rule) error
	// ProductIDsForConfig returns the distinct product ids of active rules linked to configID.
	ProductIDsForConfig(ctx context.Context, configID uint) ([]uint, error)
	// SaveProduct inserts or updates a product.
	SaveProduct(ctx context.Context, product *domain.Product) error
	// OfferableProducts returns the products among ids that are active, sale_ok and available_in_pos, ordered by id.
	OfferableProducts(ctx context.Context, ids []uint) ([]domain.Product, error)
}

// UpsellService is the primary port used by the HTTP handler.
type UpsellService interface {
	CreateRule(ctx context.Context, rule *domain.Rule) error
	SaveProduct(ctx context.Context, product *domain.Product) error
	ProductsForConfig(ctx context.Context, configID uint) ([]domain.Product, error)
}
