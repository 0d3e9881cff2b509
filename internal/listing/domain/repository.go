package domain

import (
	"context"
	"io"
	"time"
)

// ListingRepository is the relational store for listing rows. Reads attach
// the photos of every returned listing.
type ListingRepository interface {
	// Count returns the size of the full filtered set.
	Count(ctx context.Context, criteria FilterCriteria) (int, error)
	// Find returns the window of the filtered set ordered newest first.
	Find(ctx context.Context, criteria FilterCriteria, window PageWindow) ([]*Listing, error)
	FindByID(ctx context.Context, id string) (*Listing, error)
	// FindByOwner returns every listing of ownerID, newest first.
	FindByOwner(ctx context.Context, ownerID string) ([]*Listing, error)
	// Insert stores the row and fills in the generated id and timestamps.
	Insert(ctx context.Context, listing *Listing) error
	Update(ctx context.Context, listing *Listing) error
	// Delete removes the row together with its photo rows.
	Delete(ctx context.Context, id string) error
}

// PhotoRepository manages the rows linking stored objects to listings.
type PhotoRepository interface {
	InsertPhotos(ctx context.Context, listingID string, objects []UploadedObject) ([]Photo, error)
	// DeletePhotos removes the rows among ids that belong to listingID and
	// returns what was removed.
	DeletePhotos(ctx context.Context, listingID string, ids []string) ([]Photo, error)
	ListByListing(ctx context.Context, listingID string) ([]Photo, error)
	ExistsByURL(ctx context.Context, url string) (bool, error)
}

// ObjectStorage is the bucket holding listing photos.
type ObjectStorage interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Remove(ctx context.Context, key string) error
	PublicURL(key string) string
}

// UploadJournal records the state of every object the pipeline writes so
// orphans can be found later.
type UploadJournal interface {
	RecordPending(ctx context.Context, record UploadRecord) error
	MarkState(ctx context.Context, keys []string, state UploadState, reason string) error
	// ListSweepable returns orphaned entries plus pending entries last
	// touched before staleBefore.
	ListSweepable(ctx context.Context, staleBefore time.Time, limit int) ([]UploadRecord, error)
}

// ListingCache holds read models. Every method is best-effort.
//
// Entries live under a generation. Readers take Generation before they query
// the store and pass it back to SetListing/SetSearch; writers call Invalidate
// after they commit. A result read before a write is therefore stored under
// the retired generation and never served.
type ListingCache interface {
	Generation(ctx context.Context) (int64, error)
	GetListing(ctx context.Context, gen int64, id string) (*Listing, error)
	SetListing(ctx context.Context, gen int64, listing *Listing) error
	GetSearch(ctx context.Context, gen int64, criteria FilterCriteria, window PageWindow) (*SearchResult, error)
	SetSearch(ctx context.Context, gen int64, criteria FilterCriteria, result *SearchResult) error
	// Invalidate hides every cached listing and search page.
	Invalidate(ctx context.Context) error
}

// EventPublisher announces listing changes to other services.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}

// Notifier tells the owner that a listing went live.
type Notifier interface {
	NotifyListingPublished(ctx context.Context, ownerID string, listing *Listing) error
}

const (
	SubjectListingCreated = "listing.created"
	SubjectListingUpdated = "listing.updated"
	SubjectListingDeleted = "listing.deleted"
)

// ListingEvent is the payload published on every listing subject.
type ListingEvent struct {
	ListingID  string    `json:"listing_id"`
	OwnerID    string    `json:"owner_id"`
	Title      string    `json:"title,omitempty"`
	PhotoCount int       `json:"photo_count"`
	OccurredAt time.Time `json:"occurred_at"`
}
