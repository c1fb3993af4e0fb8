package ports

import (
	"context"

	"leopards-connector/internal/features/shipments/domain"
)

// Courier is the secondary port to the Leopards merchant API.
// Transport failures wrap domain.ErrUpstream; replies with a non-success status wrap domain.ErrRejected.
type Courier interface {
	// GetTariff returns the charge breakdown for a packet.
	GetTariff(ctx context.Context, req domain.TariffRequest) (domain.Tariff, error)
	// BookPacket books a packet and returns its CN and slip link.
	BookPacket(ctx context.Context, booking domain.PacketBooking) (*domain.BookingResult, error)
	// CancelPackets cancels a booked packet.
	CancelPackets(ctx context.Context, cn string) error
	// TrackPackets fetches the tracking report of a packet. On rejection the partial
	// result is returned together with the error so cancellation hints are not lost.
	TrackPackets(ctx context.Context, cn string) (*domain.TrackResult, error)
	// DownloadLabel fetches the slip behind a booking's slip link.
	DownloadLabel(ctx context.Context, link string) (*domain.Label, error)
}

// LabelRenderer converts an HTML slip page into a PDF.
type LabelRenderer interface {
	RenderPDF(ctx context.Context, link string) ([]byte, error)
}
