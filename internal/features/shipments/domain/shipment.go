package domain

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Shipment is a booked (or about to be booked) Leopards delivery.
type Shipment struct {
	// ID is the record identifier.
	ID uuid.UUID `json:"id"`
	// Reference is the order or picking name the shipment belongs to.
	Reference string `json:"reference"`
	// TrackingRef is the courier CN. Empty before booking or after cancellation.
	TrackingRef string `json:"tracking_ref"`
	// LastStatus is the stored label, e.g. "Out For Delivery (AC)".
	LastStatus string `json:"last_status"`
	// PendingCancel is set while a queued cancellation awaits processing.
	PendingCancel bool `json:"pending_cancel"`
	// ShipperID is the shipper used for booking, if any.
	ShipperID *uuid.UUID `json:"shipper_id,omitempty"`
	// LabelKey locates the stored label.
	LabelKey string `json:"label_key,omitempty"`
	// Price is the courier tariff for the booked packet.
	Price decimal.Decimal `json:"price"`
	// CreatedAt is when the record was created.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is when the record was last written.
	UpdatedAt time.Time `json:"updated_at"`
}

// TrackingLink returns the public tracking URL for cn, or "" without a CN.
func TrackingLink(base, cn string) string {
	cn = strings.TrimSpace(cn)
	if cn == "" {
		return ""
	}
	return fmt.Sprintf("%s?cn=%s", strings.TrimRight(base, "/"), url.QueryEscape(cn))
}

// JoinTrackingRefs returns the CNs of shipments in order, comma separated.
// Shipments without a CN are skipped.
func JoinTrackingRefs(shipments []Shipment) string {
	refs := make([]string, 0, len(shipments))
	for _, s := range shipments {
		if cn := strings.TrimSpace(s.TrackingRef); cn != "" {
			refs = append(refs, cn)
		}
	}
	return strings.Join(refs, ",")
}

// Event is one entry of a shipment's append-only timeline.
type Event struct {
	ID         uuid.UUID `json:"id"`
	ShipmentID uuid.UUID `json:"shipment_id"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

// Label is a downloaded shipping slip.
type Label struct {
	Name        string
	ContentType string
	Data        []byte
}

// LabelName returns the file name of the slip for cn.
func LabelName(cn string) string {
	return fmt.Sprintf("Leopards_Label_%s.pdf", cn)
}
