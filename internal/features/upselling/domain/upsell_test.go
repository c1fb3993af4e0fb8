package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestProduct_Offerable verifies all three flags are required.
func TestProduct_Offerable(t *testing.T) {
	tests := []struct {
		name    string
		product Product
		want    bool
	}{
		{name: "all set", product: Product{Active: true, SaleOK: true, AvailableInPOS: true}, want: true},
		{name: "archived", product: Product{Active: false, SaleOK: true, AvailableInPOS: true}},
		{name: "not for sale", product: Product{Active: true, SaleOK: false, AvailableInPOS: true}},
		{name: "not in pos", product: Product{Active: true, SaleOK: true, AvailableInPOS: false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.product.Offerable())
		})
	}
}
