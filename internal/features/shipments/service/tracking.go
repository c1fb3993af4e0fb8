package service

import (
	"context"
	"fmt"

	"leopards-connector/internal/features/shipments/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RefreshStats summarises one periodic refresh run.
type RefreshStats struct {
	Checked int
	Updated int
	Failed  int
}

// Refresh fetches the packet report and reconciles the stored label, posting a summary event.
func (s *ShipmentService) Refresh(ctx context.Context, id uuid.UUID) (domain.Resolution, error) {
	shipment, err := s.load(ctx, id)
	if err != nil {
		return domain.Resolution{}, err
	}
	if shipment.TrackingRef == "" {
		return domain.Resolution{}, ErrNoTrackingNumber
	}
	cn := shipment.TrackingRef

	result, trackErr := s.courier.TrackPackets(ctx, cn)

	if s.isCancelled(result, cn) {
		res, err := s.shipments.UpdateStatus(ctx, id, domain.CancelledResolution)
		if err != nil {
			return domain.Resolution{}, notFound(err)
		}
		s.note(ctx, id, fmt.Sprintf("Leopards Tracking: Shipment has been CANCELLED.\nCN: %s", cn))
		return res, nil
	}

	if trackErr != nil {
		return domain.Resolution{}, fmt.Errorf("could not fetch tracking: %w", trackErr)
	}

	if len(result.Packets) == 0 {
		s.note(ctx, id, fmt.Sprintf("No tracking details returned from Leopards for CN: %s", cn))
		return domain.Resolution{Label: shipment.LastStatus, Outcome: domain.OutcomeNoStatus}, nil
	}

	res, err := s.reconcile(ctx, id, cn, result.Packets)
	if err != nil {
		return domain.Resolution{}, err
	}

	s.note(ctx, id, domain.TrackingSummary(res.Label, result.Packets))
	return res, nil
}

// RefreshDue reconciles the shipments selected for polling. One failure does not stop the batch.
func (s *ShipmentService) RefreshDue(ctx context.Context) (RefreshStats, error) {
	since := s.clock.Now().Add(-s.settings.RefreshLookback)
	due, err := s.shipments.ListDueForRefresh(ctx, since, s.settings.RefreshBatch)
	if err != nil {
		return RefreshStats{}, fmt.Errorf("failed to list shipments due for refresh: %w", err)
	}

	s.logger.Info("Auto-refresh tracking", zap.Int("shipments", len(due)))

	var stats RefreshStats
	for _, shipment := range due {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		stats.Checked++

		changed, err := s.refreshOne(ctx, shipment)
		if err != nil {
			stats.Failed++
			s.logger.Warn("Auto-refresh tracking failed",
				zap.String("shipment_id", shipment.ID.String()),
				zap.String("cn", shipment.TrackingRef),
				zap.Error(err),
			)
			continue
		}
		if changed {
			stats.Updated++
		}
	}
	return stats, nil
}

// refreshOne reconciles a single polled shipment without posting a summary.
func (s *ShipmentService) refreshOne(ctx context.Context, shipment domain.Shipment) (bool, error) {
	result, trackErr := s.courier.TrackPackets(ctx, shipment.TrackingRef)

	if s.isCancelled(result, shipment.TrackingRef) {
		res, err := s.shipments.UpdateStatus(ctx, shipment.ID, domain.CancelledResolution)
		if err != nil {
			return false, err
		}
		if res.Changed() {
			s.logger.Info("Auto-updated status", zap.String("reference", shipment.Reference), zap.String("status", res.Label))
		}
		return res.Changed(), nil
	}

	if trackErr != nil {
		return false, trackErr
	}

	res, err := s.reconcile(ctx, shipment.ID, shipment.TrackingRef, result.Packets)
	if err != nil {
		return false, err
	}
	if res.Changed() {
		s.logger.Info("Auto-updated status", zap.String("reference", shipment.Reference), zap.String("status", res.Label))
	}
	return res.Changed(), nil
}

// reconcile applies the packet report to the stored label under the repository's row lock.
func (s *ShipmentService) reconcile(ctx context.Context, id uuid.UUID, cn string, packets []domain.PacketStatus) (domain.Resolution, error) {
	res, err := s.shipments.UpdateStatus(ctx, id, func(current string) domain.Resolution {
		return domain.Reconcile(current, packets)
	})
	if err != nil {
		return domain.Resolution{}, notFound(err)
	}

	if res.Outcome == domain.OutcomeRegressionRejected {
		s.logger.Info("Status regression rejected",
			zap.String("cn", cn),
			zap.String("current", res.Label),
			zap.String("incoming", res.Code),
		)
	}
	return res, nil
}

// isCancelled reports whether the track result means the packet is cancelled.
// The keyword hint only counts when trusted.
func (s *ShipmentService) isCancelled(result *domain.TrackResult, cn string) bool {
	if result == nil {
		return false
	}
	if result.Cancelled {
		return true
	}
	if result.CancelHint && s.settings.TrustCancelHint {
		s.logger.Warn("Treating track error as cancellation", zap.String("cn", cn), zap.String("error", result.Error))
		return true
	}
	return false
}
