package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Item is one line of an order or picking.
type Item struct {
	Name     string  `json:"name"`
	WeightKg float64 `json:"weight_kg" validate:"gte=0"`
	Quantity float64 `json:"quantity" validate:"gte=0"`
}

// QuoteRequest asks for the shipping price of an order.
type QuoteRequest struct {
	// WeightKg overrides the weight computed from items when positive.
	WeightKg float64 `json:"weight_kg" validate:"gte=0"`
	Items    []Item  `json:"items" validate:"dive"`
	City     string  `json:"city"`
	Country  string  `json:"country"`
	// OrderTotal is collected on delivery when COD is enabled.
	OrderTotal decimal.Decimal `json:"order_total"`
}

// ResolveWeight returns the explicit weight, else the item weights, else 1 kg.
func (r QuoteRequest) ResolveWeight() float64 {
	if r.WeightKg > 0 {
		return r.WeightKg
	}
	if w := ItemsWeight(r.Items); w > 0 {
		return w
	}
	return 1.0
}

// HasDestination reports whether the request names a city or country.
func (r QuoteRequest) HasDestination() bool {
	return strings.TrimSpace(r.City) != "" || strings.TrimSpace(r.Country) != ""
}

// ItemsWeight sums weight times quantity in kilograms.
func ItemsWeight(items []Item) float64 {
	var total float64
	for _, it := range items {
		total += it.WeightKg * it.Quantity
	}
	return total
}

// Quote is the answer to a QuoteRequest.
type Quote struct {
	Success bool            `json:"success"`
	Price   decimal.Decimal `json:"price"`
	Error   string          `json:"error,omitempty"`
	Warning string          `json:"warning,omitempty"`
}

// TariffRequest holds the getTariffDetails parameters.
type TariffRequest struct {
	WeightGrams     int
	DestinationCity string
	CODAmount       int64
}

// NewTariffRequest converts a kilogram weight, destination and COD amount to API parameters.
func NewTariffRequest(weightKg float64, city string, cod decimal.Decimal) TariffRequest {
	grams := 1000
	if weightKg > 0 {
		grams = int(weightKg * 1000)
	}
	dest := strings.TrimSpace(city)
	if dest == "" {
		dest = "self"
	}
	return TariffRequest{
		WeightGrams:     grams,
		DestinationCity: dest,
		CODAmount:       cod.IntPart(),
	}
}

// CacheKey identifies the request in the tariff cache.
func (t TariffRequest) CacheKey() string {
	return fmt.Sprintf("leopards:tariff:%d:%s:%d", t.WeightGrams, strings.ToLower(t.DestinationCity), t.CODAmount)
}

// Tariff is the charge breakdown returned by getTariffDetails.
type Tariff struct {
	ShipmentCharges decimal.Decimal `json:"shipment_charges"`
	CashHandling    decimal.Decimal `json:"cash_handling"`
	Insurance       decimal.Decimal `json:"insurance_charges"`
	GST             decimal.Decimal `json:"gst_amount"`
	FuelSurcharge   decimal.Decimal `json:"fuel_surcharge_amount"`
}

// Total sums every charge.
func (t Tariff) Total() decimal.Decimal {
	return t.ShipmentCharges.Add(t.CashHandling).Add(t.Insurance).Add(t.GST).Add(t.FuelSurcharge)
}
