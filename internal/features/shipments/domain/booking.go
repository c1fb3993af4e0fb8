package domain

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	defaultConsigneeName  = "Consignee"
	defaultConsigneePhone = "0000000000"
	defaultInstructions   = "Shipment from leopards-connector"
)

// Address is a consignee contact and delivery address.
type Address struct {
	Name    string `json:"name"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone"`
	Street  string `json:"street"`
	Street2 string `json:"street2"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

// Joined returns the non-empty address parts separated by ", ".
func (a Address) Joined() string {
	var parts []string
	for _, p := range []string{a.Street, a.Street2, a.City, a.State, a.Zip} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "Address not provided"
	}
	return strings.TrimSpace(strings.Join(parts, ", "))
}

// BookingRequest asks to book a packet for an order.
type BookingRequest struct {
	Reference string     `json:"reference" validate:"required"`
	ShipperID *uuid.UUID `json:"shipper_id,omitempty"`
	Consignee Address    `json:"consignee"`
	Items     []Item     `json:"items" validate:"dive"`
	// CODAmount is collected from the consignee; zero for prepaid orders.
	CODAmount decimal.Decimal `json:"cod_amount"`
}

// WeightKg returns the item weight, defaulting to 1 kg.
func (r BookingRequest) WeightKg() float64 {
	if w := ItemsWeight(r.Items); w > 0 {
		return w
	}
	return 1.0
}

// PacketBooking is the courier-facing content of a bookPacket call, without credentials.
type PacketBooking struct {
	WeightGrams         int
	Pieces              int
	CollectAmount       int64
	OrderID             string
	Sender              Sender
	ConsigneeName       string
	ConsigneeEmail      string
	ConsigneePhone      string
	ConsigneeAddress    string
	SpecialInstructions string
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// NewPacketBooking fills the booking payload, substituting the placeholders the API requires.
func NewPacketBooking(req BookingRequest, sender Sender) PacketBooking {
	grams := int(ItemsWeight(req.Items) * 1000)
	if grams <= 0 {
		grams = 1000
	}

	pieces := len(req.Items)
	if pieces < 1 {
		pieces = 1
	}

	name := strings.TrimSpace(req.Consignee.Name)
	if name == "" {
		name = defaultConsigneeName
	}
	phone := strings.TrimSpace(req.Consignee.Phone)
	if phone == "" {
		phone = defaultConsigneePhone
	}

	var names []string
	for _, it := range req.Items {
		names = append(names, it.Name)
	}
	instructions := defaultInstructions
	if len(names) > 0 {
		instructions = strings.TrimSpace(truncate(strings.Join(names, ", "), 200))
	}

	return PacketBooking{
		WeightGrams:         grams,
		Pieces:              pieces,
		CollectAmount:       req.CODAmount.IntPart(),
		OrderID:             truncate(req.Reference, 50),
		Sender:              sender,
		ConsigneeName:       name,
		ConsigneeEmail:      strings.TrimSpace(req.Consignee.Email),
		ConsigneePhone:      phone,
		ConsigneeAddress:    req.Consignee.Joined(),
		SpecialInstructions: instructions,
	}
}

// BookingResult is the courier's answer to a successful booking.
type BookingResult struct {
	TrackingNumber string
	SlipLink       string
}
