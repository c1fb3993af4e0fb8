package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const msgCancelled = "Shipment cancelled successfully in Leopards Courier."

// Cancel cancels the packet immediately. The pending flag is cleared whatever the outcome.
func (s *ShipmentService) Cancel(ctx context.Context, id uuid.UUID) error {
	shipment, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if shipment.TrackingRef == "" {
		return ErrNoTrackingNumber
	}

	if err := s.courier.CancelPackets(ctx, shipment.TrackingRef); err != nil {
		if perr := s.shipments.SetPendingCancel(ctx, id, false); perr != nil {
			s.logger.Warn("Failed to clear pending cancellation", zap.String("shipment_id", id.String()), zap.Error(perr))
		}
		return fmt.Errorf("Leopards cancellation failed: %w", err)
	}

	if err := s.shipments.MarkCancelled(ctx, id); err != nil {
		return fmt.Errorf("failed to record cancellation: %w", notFound(err))
	}

	s.logger.Info("Leopards cancellation succeeded", zap.String("shipment_id", id.String()), zap.String("cn", shipment.TrackingRef))
	s.note(ctx, id, msgCancelled)
	return nil
}

// RequestCancel queues the shipment for the background cancellation job.
func (s *ShipmentService) RequestCancel(ctx context.Context, id uuid.UUID) error {
	shipment, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if shipment.TrackingRef == "" {
		return ErrNoTrackingNumber
	}

	if err := s.shipments.SetPendingCancel(ctx, id, true); err != nil {
		return fmt.Errorf("failed to queue cancellation: %w", notFound(err))
	}

	s.note(ctx, id, fmt.Sprintf("Cancellation of CN %s queued.", shipment.TrackingRef))
	return nil
}

// ProcessPending cancels up to CancelBatch queued shipments. One failure does not stop the batch.
// It returns the number of shipments cancelled.
func (s *ShipmentService) ProcessPending(ctx context.Context) (int, error) {
	pending, err := s.shipments.ListPendingCancel(ctx, s.settings.CancelBatch)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending cancellations: %w", err)
	}

	cancelled := 0
	for _, shipment := range pending {
		if ctx.Err() != nil {
			return cancelled, ctx.Err()
		}

		log := s.logger.With(zap.String("shipment_id", shipment.ID.String()), zap.String("cn", shipment.TrackingRef))

		if err := s.courier.CancelPackets(ctx, shipment.TrackingRef); err != nil {
			log.Warn("Leopards cancellation failed", zap.Error(err))
			if perr := s.shipments.SetPendingCancel(ctx, shipment.ID, false); perr != nil {
				log.Error("Failed to clear pending cancellation", zap.Error(perr))
			}
			s.note(ctx, shipment.ID, fmt.Sprintf("Leopards cancellation failed: %v", err))
			continue
		}

		if err := s.shipments.MarkCancelled(ctx, shipment.ID); err != nil {
			log.Error("Failed to record cancellation", zap.Error(err))
			continue
		}

		log.Info("Leopards cancellation succeeded")
		s.note(ctx, shipment.ID, msgCancelled)
		cancelled++
	}

	return cancelled, nil
}

// ClearLocally removes the CN and the status label without calling Leopards.
func (s *ShipmentService) ClearLocally(ctx context.Context, id uuid.UUID) error {
	shipment, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if shipment.TrackingRef == "" {
		return ErrNoTrackingNumber
	}

	if err := s.shipments.ClearTracking(ctx, id); err != nil {
		return fmt.Errorf("failed to clear tracking: %w", notFound(err))
	}

	s.note(ctx, id, fmt.Sprintf(
		"Tracking number %s cleared locally (Leopards API was not called). Cancel the shipment manually in Leopards Portal if needed.",
		shipment.TrackingRef,
	))
	return nil
}
