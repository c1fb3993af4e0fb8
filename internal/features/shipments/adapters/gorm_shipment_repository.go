package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leopards-connector/internal/features/shipments/domain"
	"leopards-connector/internal/features/shipments/ports"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormShipmentRepository implements ports.ShipmentRepository using GORM.
type GormShipmentRepository struct {
	db *gorm.DB
}

// NewGormShipmentRepository creates a new GormShipmentRepository.
func NewGormShipmentRepository(db *gorm.DB) *GormShipmentRepository {
	return &GormShipmentRepository{db: db}
}

// Create inserts a shipment, assigning an ID when it has none.
func (r *GormShipmentRepository) Create(ctx context.Context, s *domain.Shipment) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	m := shipmentFromDomain(s)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("failed to create shipment: %w", err)
	}
	s.CreatedAt = m.CreatedAt
	s.UpdatedAt = m.UpdatedAt
	return nil
}

// Get returns the shipment or nil, nil when it does not exist.
func (r *GormShipmentRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Shipment, error) {
	var m ShipmentModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get shipment: %w", err)
	}
	s := m.toDomain()
	return &s, nil
}

// UpdateStatus reads last_status under a row lock, applies mutate and writes the new label.
// sqlite has no row locks; its single connection serialises writers instead.
func (r *GormShipmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, mutate ports.StatusMutator) (domain.Resolution, error) {
	var res domain.Resolution

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m ShipmentModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "last_status").
			Where("id = ?", id).
			Take(&m).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.ErrNotFound
		}
		if err != nil {
			return err
		}

		res = mutate(m.LastStatus)
		if !res.Changed() {
			return nil
		}

		return tx.Model(&ShipmentModel{}).
			Where("id = ?", id).
			Update("last_status", res.Label).Error
	})
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return domain.Resolution{}, err
		}
		return domain.Resolution{}, fmt.Errorf("failed to update shipment status: %w", err)
	}
	return res, nil
}

// updates writes fields to one shipment and reports ports.ErrNotFound when no row matched.
func (r *GormShipmentRepository) updates(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	result := r.db.WithContext(ctx).Model(&ShipmentModel{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("failed to update shipment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// MarkCancelled clears the CN, writes the cancelled label and clears the pending flag.
func (r *GormShipmentRepository) MarkCancelled(ctx context.Context, id uuid.UUID) error {
	return r.updates(ctx, id, map[string]any{
		"tracking_ref":   "",
		"last_status":    domain.LabelCancelled,
		"pending_cancel": false,
	})
}

// ClearTracking clears the CN, the status label and the stored label key.
func (r *GormShipmentRepository) ClearTracking(ctx context.Context, id uuid.UUID) error {
	return r.updates(ctx, id, map[string]any{
		"tracking_ref":   "",
		"last_status":    "",
		"label_key":      "",
		"pending_cancel": false,
	})
}

// SetPendingCancel sets or clears the queued cancellation flag.
func (r *GormShipmentRepository) SetPendingCancel(ctx context.Context, id uuid.UUID, pending bool) error {
	return r.updates(ctx, id, map[string]any{"pending_cancel": pending})
}

// SetLabel records the storage key of the slip.
func (r *GormShipmentRepository) SetLabel(ctx context.Context, id uuid.UUID, key string) error {
	return r.updates(ctx, id, map[string]any{"label_key": key})
}

// SetPrice records the courier tariff.
func (r *GormShipmentRepository) SetPrice(ctx context.Context, id uuid.UUID, price decimal.Decimal) error {
	return r.updates(ctx, id, map[string]any{"price": price})
}

// ListByReference returns the shipments of an order, oldest first.
func (r *GormShipmentRepository) ListByReference(ctx context.Context, reference string) ([]domain.Shipment, error) {
	var models []ShipmentModel
	err := r.db.WithContext(ctx).
		Where("reference = ?", reference).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list shipments by reference: %w", err)
	}
	return toShipments(models), nil
}

// ListDueForRefresh returns shipments the poller should track, newest first.
func (r *GormShipmentRepository) ListDueForRefresh(ctx context.Context, since time.Time, limit int) ([]domain.Shipment, error) {
	var models []ShipmentModel
	err := r.db.WithContext(ctx).
		Where("tracking_ref <> ?", "").
		Where("pending_cancel = ?", false).
		Where("last_status NOT IN ?", domain.TerminalLabels).
		Where("updated_at >= ?", since).
		Order("updated_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list shipments due for refresh: %w", err)
	}
	return toShipments(models), nil
}

// ListPendingCancel returns shipments with a CN and a queued cancellation, oldest first.
func (r *GormShipmentRepository) ListPendingCancel(ctx context.Context, limit int) ([]domain.Shipment, error) {
	var models []ShipmentModel
	err := r.db.WithContext(ctx).
		Where("tracking_ref <> ?", "").
		Where("pending_cancel = ?", true).
		Order("updated_at ASC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending cancellations: %w", err)
	}
	return toShipments(models), nil
}

func toShipments(models []ShipmentModel) []domain.Shipment {
	out := make([]domain.Shipment, 0, len(models))
	for _, m := range models {
		out = append(out, m.toDomain())
	}
	return out
}
