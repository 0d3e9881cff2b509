package usecase

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/Abdurahmanit/GroupProject/room-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/room-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/room-service/internal/platform/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// MediaPipeline stores listing photos in object storage one file at a time
// and journals every object so unlinked ones can be swept later.
type MediaPipeline struct {
	storage domain.ObjectStorage
	journal domain.UploadJournal
	metrics *metrics.MetricsManager
	logger  *logger.Logger
	now     func() time.Time

	mu        sync.Mutex
	lastStamp int64
}

// NewMediaPipeline builds a pipeline. journal and m may be nil.
func NewMediaPipeline(storage domain.ObjectStorage, journal domain.UploadJournal, m *metrics.MetricsManager, log *logger.Logger) *MediaPipeline {
	return &MediaPipeline{
		storage: storage,
		journal: journal,
		metrics: m,
		logger:  log.Named("MediaPipeline"),
		now:     time.Now,
	}
}

// ObjectKey derives <listingID>/<unix nanos>-<file name>. The stamp is
// strictly increasing across calls so two uploads never share a key.
func (p *MediaPipeline) ObjectKey(listingID, fileName string) string {
	p.mu.Lock()
	stamp := p.now().UnixNano()
	if stamp <= p.lastStamp {
		stamp = p.lastStamp + 1
	}
	p.lastStamp = stamp
	p.mu.Unlock()
	return fmt.Sprintf("%s/%d-%s", listingID, stamp, sanitizeFileName(fileName))
}

// Upload stores files in input order. Under FailFast it stops at the first
// failure and returns an *domain.ObjectWriteError alongside the report of
// what was already stored. Under ContinueOnError it never returns an error;
// skipped files are listed in report.Failures.
func (p *MediaPipeline) Upload(ctx context.Context, listingID string, files []domain.UploadFile, policy domain.UploadPolicy) (*domain.UploadReport, error) {
	ctx, span := tracer.Start(ctx, "MediaPipeline.Upload")
	defer span.End()
	span.SetAttributes(
		attribute.String("listing.id", listingID),
		attribute.Int("upload.files", len(files)),
		attribute.String("upload.policy", policy.String()),
	)

	report := &domain.UploadReport{}
	for i, f := range files {
		key := p.ObjectKey(listingID, f.Name)
		url := p.storage.PublicURL(key)
		p.recordPending(ctx, domain.UploadRecord{
			ObjectKey: key,
			ListingID: listingID,
			FileName:  f.Name,
			PublicURL: url,
		})

		err := p.storage.Put(ctx, key, bytes.NewReader(f.Data), int64(len(f.Data)), contentType(f))
		if err != nil {
			werr := &domain.ObjectWriteError{FileName: f.Name, Position: i + 1, Total: len(files), Err: err}
			p.logger.Warn("Photo upload failed",
				zap.String("listing_id", listingID),
				zap.String("file_name", f.Name),
				zap.Int("position", i+1),
				zap.Int("total", len(files)),
				zap.Error(err))
			p.metrics.ObserveUpload("failed")
			// A failed put may still leave a partial object behind.
			p.MarkOrphaned(ctx, []string{key}, "upload failed")
			if policy == domain.FailFast {
				span.RecordError(werr)
				span.SetStatus(codes.Error, "upload aborted")
				return report, werr
			}
			report.Failures = append(report.Failures, werr)
			continue
		}

		p.metrics.ObserveUpload("stored")
		report.Uploaded = append(report.Uploaded, domain.UploadedObject{
			FileName:  f.Name,
			ObjectKey: key,
			PublicURL: url,
		})
	}

	span.SetAttributes(
		attribute.Int("upload.stored", len(report.Uploaded)),
		attribute.Int("upload.failed", len(report.Failures)),
	)
	p.logger.Info("Photo batch processed",
		zap.String("listing_id", listingID),
		zap.Int("stored", len(report.Uploaded)),
		zap.Int("failed", len(report.Failures)))
	return report, nil
}

// MarkCommitted records that photo rows now reference keys.
func (p *MediaPipeline) MarkCommitted(ctx context.Context, keys []string) {
	p.markState(ctx, keys, domain.UploadCommitted, "")
}

// MarkOrphaned records that keys are stored without a photo row.
func (p *MediaPipeline) MarkOrphaned(ctx context.Context, keys []string, reason string) {
	p.markState(ctx, keys, domain.UploadOrphaned, reason)
}

// RemoveObjects deletes the stored objects behind photos whose rows are
// already gone. Failures are journaled as orphans and returned as warnings.
func (p *MediaPipeline) RemoveObjects(ctx context.Context, photos []domain.Photo) []error {
	var warnings []error
	for _, ph := range photos {
		if ph.ObjectKey == "" {
			continue
		}
		if err := p.storage.Remove(ctx, ph.ObjectKey); err != nil {
			p.logger.Warn("Failed to remove photo object, leaving it for the orphan sweep",
				zap.String("object_key", ph.ObjectKey), zap.Error(err))
			p.MarkOrphaned(ctx, []string{ph.ObjectKey}, "remove failed after row delete")
			warnings = append(warnings, fmt.Errorf("remove object %s: %w", ph.ObjectKey, err))
			continue
		}
		p.markState(ctx, []string{ph.ObjectKey}, domain.UploadPurged, "photo deleted")
	}
	return warnings
}

func (p *MediaPipeline) recordPending(ctx context.Context, rec domain.UploadRecord) {
	if p.journal == nil {
		return
	}
	rec.State = domain.UploadPending
	if err := p.journal.RecordPending(ctx, rec); err != nil {
		p.logger.Warn("Failed to journal pending upload", zap.String("object_key", rec.ObjectKey), zap.Error(err))
	}
}

func (p *MediaPipeline) markState(ctx context.Context, keys []string, state domain.UploadState, reason string) {
	if p.journal == nil || len(keys) == 0 {
		return
	}
	if err := p.journal.MarkState(ctx, keys, state, reason); err != nil {
		p.logger.Warn("Failed to update upload journal",
			zap.Strings("object_keys", keys), zap.String("state", string(state)), zap.Error(err))
	}
}

func contentType(f domain.UploadFile) string {
	if f.ContentType != "" {
		return f.ContentType
	}
	return http.DetectContentType(f.Data)
}

// sanitizeFileName keeps the base name and replaces characters that would
// change the key's structure.
func sanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		if r == '/' || unicode.IsControl(r) {
			return '_'
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." {
		return "file"
	}
	return name
}
