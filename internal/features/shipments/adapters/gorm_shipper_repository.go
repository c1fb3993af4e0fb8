package adapters

import (
	"context"
	"errors"
	"fmt"

	"leopards-connector/internal/features/shipments/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormShipperRepository implements ports.ShipperRepository using GORM.
type GormShipperRepository struct {
	db *gorm.DB
}

// NewGormShipperRepository creates a new GormShipperRepository.
func NewGormShipperRepository(db *gorm.DB) *GormShipperRepository {
	return &GormShipperRepository{db: db}
}

// Create inserts a shipper, assigning an ID when it has none.
func (r *GormShipperRepository) Create(ctx context.Context, s *domain.Shipper) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	m := shipperFromDomain(s)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("failed to create shipper: %w", err)
	}
	s.CreatedAt = m.CreatedAt
	return nil
}

// Get returns the shipper or nil, nil when it does not exist.
func (r *GormShipperRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Shipper, error) {
	var m ShipperModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get shipper: %w", err)
	}
	s := m.toDomain()
	return &s, nil
}

// List returns shippers ordered by name.
func (r *GormShipperRepository) List(ctx context.Context, activeOnly bool) ([]domain.Shipper, error) {
	query := r.db.WithContext(ctx).Model(&ShipperModel{})
	if activeOnly {
		query = query.Where("active = ?", true)
	}

	var models []ShipperModel
	if err := query.Order("name ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list shippers: %w", err)
	}

	out := make([]domain.Shipper, 0, len(models))
	for _, m := range models {
		out = append(out, m.toDomain())
	}
	return out, nil
}
