package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListingFields_Validate_Price(t *testing.T) {
	fields := ListingFields{
		Title: "Sunny room", Location: "Baner, Pune", Price: 12000,
		PropertyType: PropertyType2BHK, TenantPreference: TenantFamily, ContactNumber: "9876543210",
	}
	assert.NoError(t, fields.Validate())

	for _, price := range []float64{-1, math.NaN(), math.Inf(1)} {
		f := fields
		f.Price = price
		var verr *ValidationError
		if assert.ErrorAs(t, f.Validate(), &verr) {
			assert.Equal(t, "price", verr.Field)
		}
	}
}
