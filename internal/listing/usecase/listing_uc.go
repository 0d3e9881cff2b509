package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/room-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/room-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/room-service/internal/platform/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// ListingUsecase runs the owner write workflows: create, edit and delete.
// None of them is transactional across the relational store and object
// storage; partial progress is reported, never rolled back.
type ListingUsecase struct {
	listings  domain.ListingRepository
	photos    domain.PhotoRepository
	media     *MediaPipeline
	cache     domain.ListingCache
	publisher domain.EventPublisher
	notifier  domain.Notifier
	metrics   *metrics.MetricsManager
	logger    *logger.Logger
	now       func() time.Time
}

type Option func(*ListingUsecase)

func WithCache(c domain.ListingCache) Option {
	return func(uc *ListingUsecase) { uc.cache = c }
}

func WithPublisher(p domain.EventPublisher) Option {
	return func(uc *ListingUsecase) { uc.publisher = p }
}

func WithNotifier(n domain.Notifier) Option {
	return func(uc *ListingUsecase) { uc.notifier = n }
}

func WithMetrics(m *metrics.MetricsManager) Option {
	return func(uc *ListingUsecase) { uc.metrics = m }
}

func NewListingUsecase(listings domain.ListingRepository, photos domain.PhotoRepository, media *MediaPipeline, log *logger.Logger, opts ...Option) *ListingUsecase {
	uc := &ListingUsecase{
		listings: listings,
		photos:   photos,
		media:    media,
		logger:   log.Named("ListingUsecase"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// CreateListing inserts the listing row, uploads files in order and links
// them. Once the row exists every later failure is a *domain.PartialWriteError
// returned together with the listing as stored so far; the row is kept.
func (uc *ListingUsecase) CreateListing(ctx context.Context, ownerID string, fields domain.ListingFields, files []domain.UploadFile) (*domain.Listing, error) {
	listing, err := domain.NewListing(ownerID, fields)
	if err != nil {
		return nil, err
	}
	if err := validateFiles(files, true); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "ListingUsecase.CreateListing")
	defer span.End()
	span.SetAttributes(attribute.String("owner.id", ownerID), attribute.Int("upload.files", len(files)))

	uc.logger.Info("Creating listing",
		zap.String("owner_id", ownerID),
		zap.String("title", listing.Title),
		zap.Int("files", len(files)))

	if err := uc.listings.Insert(ctx, listing); err != nil {
		uc.logger.Error("Failed to insert listing row", zap.String("owner_id", ownerID), zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return nil, &domain.StoreWriteError{Op: "insert listing", Err: err}
	}
	span.SetAttributes(attribute.String("listing.id", listing.ID))

	report, err := uc.media.Upload(ctx, listing.ID, files, domain.FailFast)
	if err != nil {
		uc.media.MarkOrphaned(ctx, report.Keys(), "listing creation aborted by a failed upload")
		uc.invalidate(ctx, listing.ID)
		return listing, uc.partial(ctx, "create", &domain.PartialWriteError{
			ListingID: listing.ID,
			Succeeded: []domain.WriteStep{domain.StepInsertListing},
			Failed:    []domain.StepFailure{{Step: domain.StepUploadPhotos, Err: err}},
		})
	}

	photos, err := uc.photos.InsertPhotos(ctx, listing.ID, report.Uploaded)
	if err != nil {
		uc.logger.Error("Failed to insert photo rows", zap.String("listing_id", listing.ID), zap.Error(err))
		uc.media.MarkOrphaned(ctx, report.Keys(), "photo rows insert failed")
		uc.invalidate(ctx, listing.ID)
		return listing, uc.partial(ctx, "create", &domain.PartialWriteError{
			ListingID: listing.ID,
			Succeeded: []domain.WriteStep{domain.StepInsertListing, domain.StepUploadPhotos},
			Failed: []domain.StepFailure{{
				Step: domain.StepInsertPhotos,
				Err:  &domain.StoreWriteError{Op: "insert photos", Err: err},
			}},
		})
	}
	uc.media.MarkCommitted(ctx, report.Keys())
	listing.Photos = photos

	uc.invalidate(ctx, listing.ID)
	uc.publish(ctx, domain.SubjectListingCreated, listing)
	uc.notify(ctx, listing)
	uc.metrics.IncCreated()

	uc.logger.Info("Listing created", zap.String("listing_id", listing.ID), zap.Int("photos", len(photos)))
	return listing, nil
}

// UpdateListing applies an owner's edit. After the ownership checks every
// step runs regardless of earlier failures, and the listing is always
// re-fetched last. The returned listing is that canonical copy; it is
// non-nil whenever the re-fetch succeeded, including alongside a
// *domain.PartialWriteError.
func (uc *ListingUsecase) UpdateListing(ctx context.Context, ownerID, listingID string, fields domain.ListingFields, deletedPhotoIDs []string, newFiles []domain.UploadFile) (*domain.Listing, error) {
	if ownerID == "" {
		return nil, &domain.AuthRequiredError{}
	}
	fields = fields.Normalize()
	if err := fields.Validate(); err != nil {
		return nil, err
	}
	if err := validateFiles(newFiles, false); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "ListingUsecase.UpdateListing")
	defer span.End()
	span.SetAttributes(
		attribute.String("listing.id", listingID),
		attribute.Int("photos.deleted", len(deletedPhotoIDs)),
		attribute.Int("upload.files", len(newFiles)),
	)

	existing, err := uc.ownedListing(ctx, ownerID, listingID)
	if err != nil {
		return nil, err
	}

	pw := &domain.PartialWriteError{ListingID: listingID}

	updated := *existing
	updated.Apply(fields)
	updated.UpdatedAt = uc.now()
	if err := uc.listings.Update(ctx, &updated); err != nil {
		uc.logger.Error("Failed to update listing row", zap.String("listing_id", listingID), zap.Error(err))
		pw.Failed = append(pw.Failed, domain.StepFailure{
			Step: domain.StepUpdateListing,
			Err:  &domain.StoreWriteError{Op: "update listing", Err: err},
		})
	} else {
		pw.Succeeded = append(pw.Succeeded, domain.StepUpdateListing)
	}

	if ids := uc.markedPhotos(existing, deletedPhotoIDs, pw); len(ids) > 0 {
		removed, err := uc.photos.DeletePhotos(ctx, listingID, ids)
		if err != nil {
			uc.logger.Error("Failed to delete photo rows", zap.String("listing_id", listingID), zap.Error(err))
			pw.Failed = append(pw.Failed, domain.StepFailure{
				Step: domain.StepDeletePhotos,
				Err:  &domain.StoreWriteError{Op: "delete photos", Err: err},
			})
		} else {
			pw.Succeeded = append(pw.Succeeded, domain.StepDeletePhotos)
			pw.Warnings = append(pw.Warnings, uc.media.RemoveObjects(ctx, removed)...)
		}
	}

	if len(newFiles) > 0 {
		report, _ := uc.media.Upload(ctx, listingID, newFiles, domain.ContinueOnError)
		for _, f := range report.Failures {
			pw.Warnings = append(pw.Warnings, f)
		}
		if len(report.Failures) > 0 {
			pw.Failed = append(pw.Failed, domain.StepFailure{
				Step: domain.StepUploadPhotos,
				Err:  fmt.Errorf("%d of %d files failed to upload", len(report.Failures), len(newFiles)),
			})
		} else {
			pw.Succeeded = append(pw.Succeeded, domain.StepUploadPhotos)
		}

		if len(report.Uploaded) > 0 {
			if _, err := uc.photos.InsertPhotos(ctx, listingID, report.Uploaded); err != nil {
				uc.logger.Error("Failed to insert photo rows", zap.String("listing_id", listingID), zap.Error(err))
				uc.media.MarkOrphaned(ctx, report.Keys(), "photo rows insert failed")
				pw.Failed = append(pw.Failed, domain.StepFailure{
					Step: domain.StepInsertPhotos,
					Err:  &domain.StoreWriteError{Op: "insert photos", Err: err},
				})
			} else {
				uc.media.MarkCommitted(ctx, report.Keys())
				pw.Succeeded = append(pw.Succeeded, domain.StepInsertPhotos)
			}
		}
	}

	if len(pw.Succeeded) > 0 {
		uc.invalidate(ctx, listingID)
	}

	canonical, err := uc.listings.FindByID(ctx, listingID)
	if err != nil {
		uc.logger.Error("Failed to re-fetch listing after edit", zap.String("listing_id", listingID), zap.Error(err))
		pw.Failed = append(pw.Failed, domain.StepFailure{Step: domain.StepRefetch, Err: err})
		canonical = nil
	}

	if len(pw.Succeeded) > 0 {
		uc.metrics.IncUpdated()
		if canonical != nil {
			uc.publish(ctx, domain.SubjectListingUpdated, canonical)
		}
	}
	for _, w := range pw.Warnings {
		uc.logger.Warn("Listing edit warning", zap.String("listing_id", listingID), zap.Error(w))
	}

	if len(pw.Failed) > 0 {
		span.SetStatus(codes.Error, "partial edit")
		return canonical, uc.partial(ctx, "update", pw)
	}
	uc.logger.Info("Listing updated", zap.String("listing_id", listingID), zap.Int("photos", canonical.PhotoCount()))
	return canonical, nil
}

// DeleteListing removes a confirmed listing with its photo rows, then its
// stored objects. Objects that cannot be removed are left to the orphan
// sweep and do not fail the delete.
func (uc *ListingUsecase) DeleteListing(ctx context.Context, ownerID, listingID string, confirmed bool) error {
	if ownerID == "" {
		return &domain.AuthRequiredError{}
	}
	if !confirmed {
		return domain.ErrConfirmationRequired
	}

	ctx, span := tracer.Start(ctx, "ListingUsecase.DeleteListing")
	defer span.End()
	span.SetAttributes(attribute.String("listing.id", listingID))

	existing, err := uc.ownedListing(ctx, ownerID, listingID)
	if err != nil {
		return err
	}

	if err := uc.listings.Delete(ctx, listingID); err != nil {
		uc.logger.Error("Failed to delete listing row", zap.String("listing_id", listingID), zap.Error(err))
		span.RecordError(err)
		return &domain.StoreWriteError{Op: "delete listing", Err: err}
	}

	if warnings := uc.media.RemoveObjects(ctx, existing.Photos); len(warnings) > 0 {
		uc.logger.Warn("Some photo objects were left for the orphan sweep",
			zap.String("listing_id", listingID), zap.Int("count", len(warnings)))
	}

	uc.invalidate(ctx, listingID)
	uc.publish(ctx, domain.SubjectListingDeleted, existing)
	uc.metrics.IncDeleted()

	uc.logger.Info("Listing deleted", zap.String("listing_id", listingID), zap.Int("photos", len(existing.Photos)))
	return nil
}

// ownedListing loads listingID and checks that ownerID owns it.
func (uc *ListingUsecase) ownedListing(ctx context.Context, ownerID, listingID string) (*domain.Listing, error) {
	if listingID == "" {
		return nil, &domain.ValidationError{Field: "id", Reason: "is required"}
	}
	listing, err := uc.listings.FindByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, domain.ErrListingNotFound) {
			return nil, err
		}
		uc.logger.Error("Failed to load listing", zap.String("listing_id", listingID), zap.Error(err))
		return nil, fmt.Errorf("load listing %s: %w", listingID, err)
	}
	if listing.OwnerID != ownerID {
		uc.logger.Warn("Forbidden listing write",
			zap.String("listing_id", listingID),
			zap.String("listing_owner_id", listing.OwnerID),
			zap.String("user_id", ownerID))
		return nil, domain.ErrForbidden
	}
	return listing, nil
}

// markedPhotos de-duplicates the ids marked for deletion and keeps only
// those attached to the listing; the rest become warnings.
func (uc *ListingUsecase) markedPhotos(listing *domain.Listing, marked []string, pw *domain.PartialWriteError) []string {
	seen := make(map[string]struct{}, len(marked))
	ids := make([]string, 0, len(marked))
	for _, id := range marked {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if !listing.HasPhoto(id) {
			pw.Warnings = append(pw.Warnings, fmt.Errorf("photo %s is not attached to listing %s", id, listing.ID))
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func (uc *ListingUsecase) partial(ctx context.Context, operation string, pw *domain.PartialWriteError) error {
	for _, f := range pw.Failed {
		uc.metrics.IncPartialWrite(operation, string(f.Step))
	}
	uc.logger.Warn("Listing partially written",
		zap.String("operation", operation),
		zap.String("listing_id", pw.ListingID),
		zap.Error(pw))
	return pw
}

func (uc *ListingUsecase) invalidate(ctx context.Context, listingID string) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Invalidate(ctx); err != nil {
		uc.logger.Warn("Failed to invalidate listing cache", zap.String("listing_id", listingID), zap.Error(err))
	}
}

func (uc *ListingUsecase) publish(ctx context.Context, subject string, l *domain.Listing) {
	if uc.publisher == nil {
		return
	}
	event := domain.ListingEvent{
		ListingID:  l.ID,
		OwnerID:    l.OwnerID,
		Title:      l.Title,
		PhotoCount: len(l.Photos),
		OccurredAt: uc.now().UTC(),
	}
	if err := uc.publisher.Publish(ctx, subject, event); err != nil {
		uc.logger.Warn("Failed to publish listing event", zap.String("subject", subject), zap.String("listing_id", l.ID), zap.Error(err))
	}
}

func (uc *ListingUsecase) notify(ctx context.Context, l *domain.Listing) {
	if uc.notifier == nil {
		return
	}
	if err := uc.notifier.NotifyListingPublished(ctx, l.OwnerID, l); err != nil {
		uc.logger.Warn("Failed to notify owner", zap.String("listing_id", l.ID), zap.Error(err))
	}
}

func validateFiles(files []domain.UploadFile, required bool) error {
	if required && len(files) == 0 {
		return &domain.ValidationError{Field: "images", Reason: "at least one image is required"}
	}
	for i, f := range files {
		if f.Name == "" {
			return &domain.ValidationError{Field: "images", Reason: fmt.Sprintf("file %d has no name", i+1)}
		}
		if len(f.Data) == 0 {
			return &domain.ValidationError{Field: "images", Reason: fmt.Sprintf("file %q is empty", f.Name)}
		}
	}
	return nil
}
