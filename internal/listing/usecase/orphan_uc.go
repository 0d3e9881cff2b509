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
	"go.uber.org/zap"
)

// DefaultSweepBatch bounds how many journal entries one sweep examines.
const DefaultSweepBatch = 500

var ErrJournalDisabled = errors.New("upload journal is not configured")

// OrphanSweeper finds stored objects that no photo row references and
// removes them.
type OrphanSweeper struct {
	journal     domain.UploadJournal
	photos      domain.PhotoRepository
	storage     domain.ObjectStorage
	metrics     *metrics.MetricsManager
	logger      *logger.Logger
	gracePeriod time.Duration
	batch       int
	now         func() time.Time
}

// NewOrphanSweeper builds a sweeper. Pending entries younger than
// gracePeriod belong to uploads still in flight and are skipped.
func NewOrphanSweeper(journal domain.UploadJournal, photos domain.PhotoRepository, storage domain.ObjectStorage, gracePeriod time.Duration, m *metrics.MetricsManager, log *logger.Logger) *OrphanSweeper {
	return &OrphanSweeper{
		journal:     journal,
		photos:      photos,
		storage:     storage,
		metrics:     m,
		logger:      log.Named("OrphanSweeper"),
		gracePeriod: gracePeriod,
		batch:       DefaultSweepBatch,
		now:         time.Now,
	}
}

// Detect returns the journal entries whose objects are truly unreferenced.
// Entries that turn out to have a photo row are marked committed and the
// count of such entries is returned as reconciled.
func (s *OrphanSweeper) Detect(ctx context.Context) ([]domain.UploadRecord, int, error) {
	if s.journal == nil {
		return nil, 0, ErrJournalDisabled
	}
	candidates, err := s.journal.ListSweepable(ctx, s.now().Add(-s.gracePeriod), s.batch)
	if err != nil {
		return nil, 0, fmt.Errorf("list sweepable uploads: %w", err)
	}

	var orphans []domain.UploadRecord
	var linked []string
	for _, rec := range candidates {
		if rec.PublicURL != "" {
			exists, err := s.photos.ExistsByURL(ctx, rec.PublicURL)
			if err != nil {
				return nil, 0, fmt.Errorf("check photo row for %s: %w", rec.ObjectKey, err)
			}
			if exists {
				linked = append(linked, rec.ObjectKey)
				continue
			}
		}
		orphans = append(orphans, rec)
	}

	if len(linked) > 0 {
		if err := s.journal.MarkState(ctx, linked, domain.UploadCommitted, "photo row found during sweep"); err != nil {
			s.logger.Warn("Failed to reconcile linked uploads", zap.Int("count", len(linked)), zap.Error(err))
		}
	}
	return orphans, len(linked), nil
}

// Sweep removes every orphan Detect reports. When dryRun is set nothing is
// removed and Purged stays zero.
func (s *OrphanSweeper) Sweep(ctx context.Context, dryRun bool) (domain.SweepReport, error) {
	ctx, span := tracer.Start(ctx, "OrphanSweeper.Sweep")
	defer span.End()

	orphans, reconciled, err := s.Detect(ctx)
	report := domain.SweepReport{Scanned: len(orphans) + reconciled, Reconciled: reconciled}
	if err != nil {
		span.RecordError(err)
		return report, err
	}

	for _, rec := range orphans {
		if dryRun {
			s.logger.Info("Orphan found", zap.String("object_key", rec.ObjectKey), zap.String("state", string(rec.State)))
			continue
		}
		if err := s.storage.Remove(ctx, rec.ObjectKey); err != nil {
			report.Failed++
			s.logger.Warn("Failed to purge orphan", zap.String("object_key", rec.ObjectKey), zap.Error(err))
			continue
		}
		if err := s.journal.MarkState(ctx, []string{rec.ObjectKey}, domain.UploadPurged, "purged by orphan sweep"); err != nil {
			s.logger.Warn("Failed to mark orphan purged", zap.String("object_key", rec.ObjectKey), zap.Error(err))
		}
		report.Purged++
	}
	s.metrics.AddOrphansPurged(report.Purged)

	span.SetAttributes(
		attribute.Int("sweep.scanned", report.Scanned),
		attribute.Int("sweep.purged", report.Purged),
		attribute.Int("sweep.failed", report.Failed),
	)
	s.logger.Info("Orphan sweep finished",
		zap.Bool("dry_run", dryRun),
		zap.Int("scanned", report.Scanned),
		zap.Int("reconciled", report.Reconciled),
		zap.Int("purged", report.Purged),
		zap.Int("failed", report.Failed))
	return report, nil
}
