package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Shipper is a sender identity registered with Leopards.
type Shipper struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name" validate:"required"`
	Email          string    `json:"email" validate:"omitempty,email"`
	Phone          string    `json:"phone"`
	CNIC           string    `json:"cnic"`
	City           string    `json:"city"`
	Area           string    `json:"area"`
	Block          string    `json:"block"`
	ReturnCity     string    `json:"return_city"`
	ReturnAddress  string    `json:"return_address"`
	ShipperAddress string    `json:"shipper_address"`
	Settlement     bool      `json:"settlement"`
	IBAN           string    `json:"iban"`
	AccountNo      string    `json:"account_no"`
	Street         string    `json:"street"`
	Street2        string    `json:"street2"`
	State          string    `json:"state"`
	Zip            string    `json:"zip"`
	Country        string    `json:"country"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
}

// BuildAddress returns the free-form address, else the joined street parts, else "self".
func (s Shipper) BuildAddress() string {
	if addr := strings.TrimSpace(s.ShipperAddress); addr != "" {
		return addr
	}
	var parts []string
	for _, p := range []string{s.Street, s.Street2, s.City, s.State, s.Zip} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "self"
	}
	return strings.Join(parts, ", ")
}

// Sender is the shipper block of a booking.
type Sender struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

// orSelf substitutes the API placeholder for blank values.
func orSelf(v string) string {
	if v = strings.TrimSpace(v); v == "" {
		return "self"
	}
	return v
}

// Sender returns the booking sender block for this shipper.
func (s Shipper) Sender() Sender {
	return Sender{
		Name:    orSelf(s.Name),
		Email:   orSelf(s.Email),
		Phone:   orSelf(s.Phone),
		Address: orSelf(s.BuildAddress()),
	}
}

// Company is the fallback sender when no shipper is configured.
type Company struct {
	Name   string
	Email  string
	Phone  string
	Street string
}

// Sender returns the booking sender block for the company.
func (c Company) Sender() Sender {
	return Sender{
		Name:    orSelf(c.Name),
		Email:   orSelf(c.Email),
		Phone:   orSelf(c.Phone),
		Address: orSelf(c.Street),
	}
}
