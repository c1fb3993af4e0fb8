package domain

import "time"

// Rule attaches upsell products to POS configs.
type Rule struct {
	ID         uint      `json:"id"`
	Name       string    `json:"name"`
	Active     bool      `json:"active"`
	ConfigIDs  []uint    `json:"config_ids"`
	ProductIDs []uint    `json:"product_ids"`
	CreatedAt  time.Time `json:"created_at"`
}

// Product is a POS product offered at checkout.
type Product struct {
	ID             uint   `json:"id"`
	Name           string `json:"name" validate:"required"`
	AvailableInPOS bool   `json:"available_in_pos"`
	SaleOK         bool   `json:"sale_ok"`
	Active         bool   `json:"active"`
}

// Offerable reports whether the product may be suggested at the POS.
func (p Product) Offerable() bool {
	return p.Active && p.SaleOK && p.AvailableInPOS
}
