package rest

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"strings"

	"github.com/Abdurahmanit/GroupProject/room-service/internal/listing/domain"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/listing.json
var listingSchemaJSON []byte

const listingSchemaURL = "listing.json"

var listingSchema = mustCompileListingSchema()

func mustCompileListingSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(listingSchemaURL, bytes.NewReader(listingSchemaJSON)); err != nil {
		panic(err)
	}
	return compiler.MustCompile(listingSchemaURL)
}

// decodeListingFields validates the listing JSON part against the schema and
// decodes it. Schema violations come back as *domain.ValidationError.
func decodeListingFields(raw string) (domain.ListingFields, error) {
	var fields domain.ListingFields
	if strings.TrimSpace(raw) == "" {
		return fields, &domain.ValidationError{Field: "listing", Reason: "part is required"}
	}

	var doc interface{}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return fields, &domain.ValidationError{Field: "listing", Reason: "is not valid JSON"}
	}
	if err := listingSchema.Validate(doc); err != nil {
		return fields, schemaError(err)
	}
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return fields, &domain.ValidationError{Field: "listing", Reason: err.Error()}
	}
	return fields, nil
}

// schemaError reports the deepest cause, which names the offending property.
func schemaError(err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return &domain.ValidationError{Field: "listing", Reason: err.Error()}
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	field := strings.TrimPrefix(ve.InstanceLocation, "/")
	if field == "" {
		field = "listing"
	}
	return &domain.ValidationError{Field: field, Reason: ve.Message}
}
