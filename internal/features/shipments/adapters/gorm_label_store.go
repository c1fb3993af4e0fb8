package adapters

import (
	"context"
	"errors"
	"fmt"

	"leopards-connector/internal/features/shipments/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormLabelStore implements ports.LabelStore with a blob table.
type GormLabelStore struct {
	db *gorm.DB
}

// NewGormLabelStore creates a new GormLabelStore.
func NewGormLabelStore(db *gorm.DB) *GormLabelStore {
	return &GormLabelStore{db: db}
}

// Put stores the slip under key, replacing an existing one.
func (s *GormLabelStore) Put(ctx context.Context, key string, label domain.Label) error {
	m := LabelModel{StorageKey: key, Name: label.Name, ContentType: label.ContentType, Data: label.Data}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "storage_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "content_type", "data"}),
		}).
		Create(&m).Error
	if err != nil {
		return fmt.Errorf("failed to store label %s: %w", key, err)
	}
	return nil
}

// Get returns the slip or nil, nil when it does not exist.
func (s *GormLabelStore) Get(ctx context.Context, key string) (*domain.Label, error) {
	var m LabelModel
	if err := s.db.WithContext(ctx).First(&m, "storage_key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get label %s: %w", key, err)
	}
	return &domain.Label{Name: m.Name, ContentType: m.ContentType, Data: m.Data}, nil
}

// URL returns "": database labels are served as bytes.
func (s *GormLabelStore) URL(ctx context.Context, key string) (string, error) {
	return "", nil
}
