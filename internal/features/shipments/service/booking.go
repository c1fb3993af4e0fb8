package service

import (
	"context"
	"fmt"
	"strings"

	"leopards-connector/internal/features/shipments/domain"
	"leopards-connector/internal/features/shipments/ports"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Book books a packet with Leopards and records the shipment.
// Label download and pricing are best effort: their failures are logged and do not fail the booking.
func (s *ShipmentService) Book(ctx context.Context, req domain.BookingRequest) (*ports.ShipmentView, error) {
	sender, shipperID, err := s.resolveSender(ctx, req)
	if err != nil {
		return nil, err
	}

	booking := domain.NewPacketBooking(req, sender)

	result, err := s.courier.BookPacket(ctx, booking)
	if err != nil {
		s.logger.Error("Leopards booking failed", zap.String("reference", req.Reference), zap.Error(err))
		return nil, fmt.Errorf("failed to create shipment: %w", err)
	}

	cn := strings.TrimSpace(result.TrackingNumber)
	if cn == "" {
		return nil, fmt.Errorf("%w: Leopards returned success but no tracking number (CN)", domain.ErrUpstream)
	}

	shipment := &domain.Shipment{
		Reference:   req.Reference,
		TrackingRef: cn,
		LastStatus:  domain.LabelBooked,
		ShipperID:   shipperID,
	}
	if err := s.shipments.Create(ctx, shipment); err != nil {
		return nil, fmt.Errorf("failed to record shipment %s: %w", cn, err)
	}

	s.logger.Info("Shipment booked",
		zap.String("shipment_id", shipment.ID.String()),
		zap.String("reference", req.Reference),
		zap.String("cn", cn),
	)

	if result.SlipLink != "" {
		if key, err := s.storeLabel(ctx, cn, result.SlipLink); err != nil {
			s.logger.Warn("Failed to attach Leopards label", zap.String("cn", cn), zap.Error(err))
		} else if err := s.shipments.SetLabel(ctx, shipment.ID, key); err != nil {
			s.logger.Warn("Failed to record label key", zap.String("cn", cn), zap.Error(err))
		} else {
			shipment.LabelKey = key
		}
	}

	cod := decimal.Zero
	if s.quotes.CODEnabled() {
		cod = req.CODAmount
	}
	if price, err := s.quotes.Tariff(ctx, domain.NewTariffRequest(req.WeightKg(), req.Consignee.City, cod)); err != nil {
		s.logger.Warn("Failed to price booked shipment", zap.String("cn", cn), zap.Error(err))
	} else if err := s.shipments.SetPrice(ctx, shipment.ID, price); err != nil {
		s.logger.Warn("Failed to record shipment price", zap.String("cn", cn), zap.Error(err))
	} else {
		shipment.Price = price
	}

	s.note(ctx, shipment.ID, fmt.Sprintf("Shipment booked with Leopards Courier. CN: %s", cn))

	return s.view(shipment), nil
}

// resolveSender picks the request shipper, else the default shipper, else the company.
func (s *ShipmentService) resolveSender(ctx context.Context, req domain.BookingRequest) (domain.Sender, *uuid.UUID, error) {
	if req.ShipperID != nil {
		shipper, err := s.shippers.Get(ctx, *req.ShipperID)
		if err != nil {
			return domain.Sender{}, nil, fmt.Errorf("failed to load shipper: %w", err)
		}
		if shipper == nil {
			return domain.Sender{}, nil, ErrShipperNotFound
		}
		id := shipper.ID
		return shipper.Sender(), &id, nil
	}

	if s.settings.DefaultShipperID != nil {
		shipper, err := s.shippers.Get(ctx, *s.settings.DefaultShipperID)
		if err != nil {
			return domain.Sender{}, nil, fmt.Errorf("failed to load default shipper: %w", err)
		}
		if shipper != nil {
			id := shipper.ID
			return shipper.Sender(), &id, nil
		}
		s.logger.Warn("Default shipper not found, using company details",
			zap.String("shipper_id", s.settings.DefaultShipperID.String()))
	}

	return s.settings.Company.Sender(), nil, nil
}

// storeLabel downloads the slip, renders HTML slips to PDF when a renderer is set, and stores it.
func (s *ShipmentService) storeLabel(ctx context.Context, cn, link string) (string, error) {
	label, err := s.courier.DownloadLabel(ctx, link)
	if err != nil {
		return "", err
	}

	if strings.Contains(strings.ToLower(label.ContentType), "text/html") && s.renderer != nil {
		pdf, err := s.renderer.RenderPDF(ctx, link)
		if err != nil {
			return "", fmt.Errorf("failed to render label: %w", err)
		}
		label.Data = pdf
		label.ContentType = "application/pdf"
	}

	label.Name = domain.LabelName(cn)
	key := "shipments/" + cn + "/" + label.Name

	if err := s.labels.Put(ctx, key, *label); err != nil {
		return "", err
	}
	return key, nil
}
