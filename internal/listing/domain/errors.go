package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrListingNotFound      = errors.New("listing not found")
	ErrForbidden            = errors.New("user not authorized to perform this action")
	ErrInvalidInput         = errors.New("invalid input")
	ErrAuthRequired         = errors.New("authentication required")
	ErrConfirmationRequired = errors.New("deletion must be confirmed")
)

// ValidationError reports a missing or malformed field. It is raised before
// any store is touched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrInvalidInput, e.Reason)
	}
	return fmt.Sprintf("%s: %s %s", ErrInvalidInput, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// AuthRequiredError is returned by every write operation called without an
// owner identity.
type AuthRequiredError struct{}

func (e *AuthRequiredError) Error() string { return ErrAuthRequired.Error() }

func (e *AuthRequiredError) Unwrap() error { return ErrAuthRequired }

// StoreWriteError wraps a failed relational insert, update or delete.
type StoreWriteError struct {
	Op  string
	Err error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("store write %s failed: %v", e.Op, e.Err)
}

func (e *StoreWriteError) Unwrap() error { return e.Err }

// ObjectWriteError names the single file whose upload failed. Position is
// 1-based within the batch.
type ObjectWriteError struct {
	FileName string
	Position int
	Total    int
	Err      error
}

func (e *ObjectWriteError) Error() string {
	return fmt.Sprintf("upload of file %d of %d (%q) failed: %v", e.Position, e.Total, e.FileName, e.Err)
}

func (e *ObjectWriteError) Unwrap() error { return e.Err }

// WriteStep names one step of the create or edit workflow.
type WriteStep string

const (
	StepInsertListing WriteStep = "insert_listing"
	StepUpdateListing WriteStep = "update_listing"
	StepDeletePhotos  WriteStep = "delete_photos"
	StepUploadPhotos  WriteStep = "upload_photos"
	StepInsertPhotos  WriteStep = "insert_photos"
	StepRefetch       WriteStep = "refetch_listing"
)

type StepFailure struct {
	Step WriteStep
	Err  error
}

// PartialWriteError is returned once at least one write has landed and a
// later step failed. Nothing is rolled back: Succeeded tells the caller what
// is already committed so only the failed steps need retrying.
type PartialWriteError struct {
	ListingID string
	Succeeded []WriteStep
	Failed    []StepFailure
	Warnings  []error
}

func (e *PartialWriteError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "listing %s partially written", e.ListingID)
	if len(e.Succeeded) > 0 {
		steps := make([]string, len(e.Succeeded))
		for i, s := range e.Succeeded {
			steps[i] = string(s)
		}
		fmt.Fprintf(&b, "; succeeded: %s", strings.Join(steps, ", "))
	}
	for _, f := range e.Failed {
		fmt.Fprintf(&b, "; %s failed: %v", f.Step, f.Err)
	}
	return b.String()
}

func (e *PartialWriteError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed))
	for _, f := range e.Failed {
		errs = append(errs, f.Err)
	}
	return errs
}

// FailedSteps lists the steps that did not complete, in execution order.
func (e *PartialWriteError) FailedSteps() []WriteStep {
	steps := make([]WriteStep, len(e.Failed))
	for i, f := range e.Failed {
		steps[i] = f.Step
	}
	return steps
}

// HasFailed reports whether step is among the failed ones.
func (e *PartialWriteError) HasFailed(step WriteStep) bool {
	for _, f := range e.Failed {
		if f.Step == step {
			return true
		}
	}
	return false
}
