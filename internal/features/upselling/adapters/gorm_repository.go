package adapters

import (
	"context"
	"fmt"
	"time"

	"leopards-connector/internal/features/upselling/domain"

	"gorm.io/gorm"
)

// RuleModel is the persisted form of domain.Rule without its links.
type RuleModel struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:255"`
	Active    bool   `gorm:"index;not null"`
	CreatedAt time.Time
}

func (RuleModel) TableName() string { return "upsell_rules" }

// RuleConfigModel links a rule to a POS config.
type RuleConfigModel struct {
	RuleID   uint `gorm:"primaryKey"`
	ConfigID uint `gorm:"primaryKey;index"`
}

func (RuleConfigModel) TableName() string { return "upsell_rule_configs" }

// RuleProductModel links a rule to a product.
type RuleProductModel struct {
	RuleID    uint `gorm:"primaryKey"`
	ProductID uint `gorm:"primaryKey;index"`
}

func (RuleProductModel) TableName() string { return "upsell_rule_products" }

// ProductModel is the persisted form of domain.Product.
type ProductModel struct {
	ID             uint   `gorm:"primaryKey"`
	Name           string `gorm:"size:255;not null"`
	AvailableInPOS bool   `gorm:"column:available_in_pos;not null"`
	SaleOK         bool   `gorm:"column:sale_ok;not null"`
	Active         bool   `gorm:"not null"`
}

func (ProductModel) TableName() string { return "pos_products" }

// Models returns the models to migrate for upselling.
func Models() []any {
	return []any{&RuleModel{}, &RuleConfigModel{}, &RuleProductModel{}, &ProductModel{}}
}

// GormRuleRepository implements ports.RuleRepository using GORM.
type GormRuleRepository struct {
	db *gorm.DB
}

// NewGormRuleRepository creates a new GormRuleRepository.
func NewGormRuleRepository(db *gorm.DB) *GormRuleRepository {
	return &GormRuleRepository{db: db}
}

// CreateRule stores the rule and its links in one transaction. Duplicate ids are collapsed.
func (r *GormRuleRepository) CreateRule(ctx context.Context, rule *domain.Rule) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m := RuleModel{Name: rule.Name, Active: rule.Active}
		if err := tx.Create(&m).Error; err != nil {
			return fmt.Errorf("failed to create upsell rule: %w", err)
		}

		configs := make([]RuleConfigModel, 0, len(rule.ConfigIDs))
		for _, id := range unique(rule.ConfigIDs) {
			configs = append(configs, RuleConfigModel{RuleID: m.ID, ConfigID: id})
		}
		if len(configs) > 0 {
			if err := tx.Create(&configs).Error; err != nil {
				return fmt.Errorf("failed to link upsell rule configs: %w", err)
			}
		}

		products := make([]RuleProductModel, 0, len(rule.ProductIDs))
		for _, id := range unique(rule.ProductIDs) {
			products = append(products, RuleProductModel{RuleID: m.ID, ProductID: id})
		}
		if len(products) > 0 {
			if err := tx.Create(&products).Error; err != nil {
				return fmt.Errorf("failed to link upsell rule products: %w", err)
			}
		}

		rule.ID = m.ID
		rule.CreatedAt = m.CreatedAt
		return nil
	})
}

// ProductIDsForConfig returns the distinct product ids of active rules linked to configID.
func (r *GormRuleRepository) ProductIDsForConfig(ctx context.Context, configID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&RuleProductModel{}).
		Joins("JOIN upsell_rules ON upsell_rules.id = upsell_rule_products.rule_id").
		Joins("JOIN upsell_rule_configs ON upsell_rule_configs.rule_id = upsell_rules.id").
		Where("upsell_rules.active = ? AND upsell_rule_configs.config_id = ?", true, configID).
		Distinct().
		Order("upsell_rule_products.product_id").
		Pluck("upsell_rule_products.product_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list upsell products for config %d: %w", configID, err)
	}
	return ids, nil
}

// SaveProduct inserts a new product or updates an existing one.
func (r *GormRuleRepository) SaveProduct(ctx context.Context, product *domain.Product) error {
	m := ProductModel{
		ID:             product.ID,
		Name:           product.Name,
		AvailableInPOS: product.AvailableInPOS,
		SaleOK:         product.SaleOK,
		Active:         product.Active,
	}
	if err := r.db.WithContext(ctx).Save(&m).Error; err != nil {
		return fmt.Errorf("failed to save product: %w", err)
	}
	product.ID = m.ID
	return nil
}

// OfferableProducts returns the offerable products among ids, ordered by id.
func (r *GormRuleRepository) OfferableProducts(ctx context.Context, ids []uint) ([]domain.Product, error) {
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}

	var models []ProductModel
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Where("active = ? AND sale_ok = ? AND available_in_pos = ?", true, true, true).
		Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	out := make([]domain.Product, 0, len(models))
	for _, m := range models {
		out = append(out, domain.Product{
			ID:             m.ID,
			Name:           m.Name,
			AvailableInPOS: m.AvailableInPOS,
			SaleOK:         m.SaleOK,
			Active:         m.Active,
		})
	}
	return out, nil
}

func unique(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
