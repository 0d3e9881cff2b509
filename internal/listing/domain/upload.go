package domain

import "time"

// UploadFile is one image received from the create or edit form.
type UploadFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// UploadedObject is a file that reached object storage.
type UploadedObject struct {
	FileName  string
	ObjectKey string
	PublicURL string
}

// UploadPolicy selects how the media pipeline reacts to a failed file.
type UploadPolicy int

const (
	// FailFast stops at the first failed file. Used by listing creation.
	FailFast UploadPolicy = iota
	// ContinueOnError skips failed files and records a warning for each.
	// Used by listing edits.
	ContinueOnError
)

func (p UploadPolicy) String() string {
	if p == ContinueOnError {
		return "continue_on_error"
	}
	return "fail_fast"
}

// UploadReport lists the files that were stored and, under ContinueOnError,
// one ObjectWriteError per file that was skipped.
type UploadReport struct {
	Uploaded []UploadedObject
	Failures []*ObjectWriteError
}

func (r *UploadReport) URLs() []string {
	urls := make([]string, len(r.Uploaded))
	for i, u := range r.Uploaded {
		urls[i] = u.PublicURL
	}
	return urls
}

func (r *UploadReport) Keys() []string {
	keys := make([]string, len(r.Uploaded))
	for i, u := range r.Uploaded {
		keys[i] = u.ObjectKey
	}
	return keys
}

// UploadState tracks one stored object through the two-phase write: object
// first, photo row second.
type UploadState string

const (
	UploadPending   UploadState = "pending"
	UploadCommitted UploadState = "committed"
	UploadOrphaned  UploadState = "orphaned"
	UploadPurged    UploadState = "purged"
)

func (s UploadState) IsValid() bool {
	switch s {
	case UploadPending, UploadCommitted, UploadOrphaned, UploadPurged:
		return true
	}
	return false
}

// UploadRecord is the journal entry for one object key.
type UploadRecord struct {
	ObjectKey string
	ListingID string
	FileName  string
	PublicURL string
	State     UploadState
	Reason    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SweepReport summarizes one orphan maintenance run.
type SweepReport struct {
	Scanned    int
	Reconciled int
	Purged     int
	Failed     int
}
