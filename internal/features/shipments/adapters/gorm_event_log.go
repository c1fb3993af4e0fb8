package adapters

import (
	"context"
	"fmt"

	"leopards-connector/internal/features/shipments/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormEventLog implements ports.EventLog using GORM.
type GormEventLog struct {
	db *gorm.DB
}

// NewGormEventLog creates a new GormEventLog.
func NewGormEventLog(db *gorm.DB) *GormEventLog {
	return &GormEventLog{db: db}
}

// Append adds an entry to the shipment's timeline.
func (l *GormEventLog) Append(ctx context.Context, shipmentID uuid.UUID, body string) error {
	m := EventModel{ID: uuid.New(), ShipmentID: shipmentID, Body: body}
	if err := l.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("failed to append shipment event: %w", err)
	}
	return nil
}

// List returns the shipment's timeline, oldest first.
func (l *GormEventLog) List(ctx context.Context, shipmentID uuid.UUID) ([]domain.Event, error) {
	var models []EventModel
	err := l.db.WithContext(ctx).
		Where("shipment_id = ?", shipmentID).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list shipment events: %w", err)
	}

	out := make([]domain.Event, 0, len(models))
	for _, m := range models {
		out = append(out, domain.Event{
			ID:         m.ID,
			ShipmentID: m.ShipmentID,
			Body:       m.Body,
			CreatedAt:  m.CreatedAt,
		})
	}
	return out, nil
}
