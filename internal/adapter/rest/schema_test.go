package rest

import (
	"testing"

	"github.com/Abdurahmanit/GroupProject/room-service/internal/listing/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeListingFields(t *testing.T) {
	fields, err := decodeListingFields(`{"title":"Sunny room","location":"Baner, Pune","price":12000,
		"property_type":"2bhk","tenant_preference":"family","contact_number":"9876543210"}`)
	require.NoError(t, err)
	assert.Equal(t, "Sunny room", fields.Title)
	assert.Equal(t, 12000.0, fields.Price)
	assert.Equal(t, domain.PropertyType("2bhk"), fields.PropertyType, "normalization is left to the domain")
}

func TestDecodeListingFields_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		field string
	}{
		{"Empty", "  ", "listing"},
		{"NotJSON", "{title:", "listing"},
		{"NegativePrice", `{"title":"a","location":"b","price":-1,"property_type":"1BHK","tenant_preference":"Family","contact_number":"1"}`, "price"},
		{"PriceAsText", `{"title":"a","location":"b","price":"cheap","property_type":"1BHK","tenant_preference":"Family","contact_number":"1"}`, "price"},
		{"UnknownProperty", `{"title":"a","location":"b","price":1,"property_type":"1BHK","tenant_preference":"Family","contact_number":"1","owner_id":"x"}`, "listing"},
		{"MissingTitle", `{"location":"b","price":1,"property_type":"1BHK","tenant_preference":"Family","contact_number":"1"}`, "listing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeListingFields(tt.raw)
			require.ErrorIs(t, err, domain.ErrInvalidInput)
			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}
