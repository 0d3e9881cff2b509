package domain

import (
	"math"
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// PropertyType is the room layout category of a listing.
type PropertyType string

const (
	PropertyType1BHK PropertyType = "1BHK"
	PropertyType2BHK PropertyType = "2BHK"
	PropertyType3BHK PropertyType = "3BHK"
	PropertyType1Bed PropertyType = "1Bed"
	PropertyType2Bed PropertyType = "2Bed"
)

var PropertyTypes = []PropertyType{
	PropertyType1BHK, PropertyType2BHK, PropertyType3BHK, PropertyType1Bed, PropertyType2Bed,
}

func (p PropertyType) IsValid() bool {
	for _, v := range PropertyTypes {
		if p == v {
			return true
		}
	}
	return false
}

// ParsePropertyType matches s against the enumeration ignoring case and
// returns the canonical spelling.
func ParsePropertyType(s string) (PropertyType, bool) {
	folded := fold(s)
	for _, v := range PropertyTypes {
		if fold(string(v)) == folded {
			return v, true
		}
	}
	return "", false
}

// TenantPreference is the kind of tenant the owner is looking for.
type TenantPreference string

const (
	TenantBachelor TenantPreference = "Bachelor"
	TenantFamily   TenantPreference = "Family"
	TenantGirls    TenantPreference = "Girls"
	TenantWorking  TenantPreference = "Working"
)

var TenantPreferences = []TenantPreference{
	TenantBachelor, TenantFamily, TenantGirls, TenantWorking,
}

func (t TenantPreference) IsValid() bool {
	for _, v := range TenantPreferences {
		if t == v {
			return true
		}
	}
	return false
}

func ParseTenantPreference(s string) (TenantPreference, bool) {
	folded := fold(s)
	for _, v := range TenantPreferences {
		if fold(string(v)) == folded {
			return v, true
		}
	}
	return "", false
}

// fold builds a new Caser per call; Casers keep state and must not be shared.
func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// Listing is a single room-rental entry owned by one identity.
type Listing struct {
	ID               string
	OwnerID          string
	Title            string
	Location         string
	Price            float64
	PropertyType     PropertyType
	TenantPreference TenantPreference
	ContactNumber    string
	Description      string
	Photos           []Photo
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// PhotoCount is what the carousel wraps around.
func (l *Listing) PhotoCount() int {
	if l == nil {
		return 0
	}
	return len(l.Photos)
}

// HasPhoto reports whether photoID is attached to the listing.
func (l *Listing) HasPhoto(photoID string) bool {
	for _, p := range l.Photos {
		if p.ID == photoID {
			return true
		}
	}
	return false
}

// Photo links one stored object to its listing.
type Photo struct {
	ID        string
	ListingID string
	URL       string
	ObjectKey string
	CreatedAt time.Time
}

// ListingFields carries the owner-editable attributes of a listing, as
// submitted by the create and edit forms.
type ListingFields struct {
	Title            string           `json:"title"`
	Location         string           `json:"location"`
	Price            float64          `json:"price"`
	PropertyType     PropertyType     `json:"property_type"`
	TenantPreference TenantPreference `json:"tenant_preference"`
	ContactNumber    string           `json:"contact_number"`
	Description      string           `json:"description,omitempty"`
}

// Normalize trims free text and canonicalizes the enum spellings.
func (f ListingFields) Normalize() ListingFields {
	f.Title = strings.TrimSpace(f.Title)
	f.Location = strings.TrimSpace(f.Location)
	f.ContactNumber = strings.TrimSpace(f.ContactNumber)
	f.Description = strings.TrimSpace(f.Description)
	if pt, ok := ParsePropertyType(string(f.PropertyType)); ok {
		f.PropertyType = pt
	}
	if tp, ok := ParseTenantPreference(string(f.TenantPreference)); ok {
		f.TenantPreference = tp
	}
	return f
}

// Validate returns the first *ValidationError found, or nil.
func (f ListingFields) Validate() error {
	switch {
	case f.Title == "":
		return &ValidationError{Field: "title", Reason: "is required"}
	case f.Location == "":
		return &ValidationError{Field: "location", Reason: "is required"}
	case math.IsNaN(f.Price) || math.IsInf(f.Price, 0):
		return &ValidationError{Field: "price", Reason: "must be a finite number"}
	case f.Price < 0:
		return &ValidationError{Field: "price", Reason: "must not be negative"}
	case !f.PropertyType.IsValid():
		return &ValidationError{Field: "property_type", Reason: "must be one of 1BHK, 2BHK, 3BHK, 1Bed, 2Bed"}
	case !f.TenantPreference.IsValid():
		return &ValidationError{Field: "tenant_preference", Reason: "must be one of Bachelor, Family, Girls, Working"}
	case f.ContactNumber == "":
		return &ValidationError{Field: "contact_number", Reason: "is required"}
	}
	return nil
}

// NewListing builds an unsaved listing for ownerID. The store assigns the id.
func NewListing(ownerID string, fields ListingFields) (*Listing, error) {
	if ownerID == "" {
		return nil, &AuthRequiredError{}
	}
	fields = fields.Normalize()
	if err := fields.Validate(); err != nil {
		return nil, err
	}
	l := &Listing{OwnerID: ownerID}
	l.Apply(fields)
	return l, nil
}

// Apply overwrites every editable attribute; the edit form always submits
// the full field set.
func (l *Listing) Apply(fields ListingFields) {
	l.Title = fields.Title
	l.Location = fields.Location
	l.Price = fields.Price
	l.PropertyType = fields.PropertyType
	l.TenantPreference = fields.TenantPreference
	l.ContactNumber = fields.ContactNumber
	l.Description = fields.Description
}
