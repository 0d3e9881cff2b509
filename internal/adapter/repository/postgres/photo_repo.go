package postgres

import (
	"context"
	"fmt"

	"github.com/Abdurahmanit/GroupProject/room-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/room-service/internal/platform/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const photoColumns = `id, room_id, image_url, object_key, created_at`

type PhotoRepository struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
}

func NewPhotoRepository(pool *pgxpool.Pool, log *logger.Logger) *PhotoRepository {
	return &PhotoRepository{pool: pool, logger: log.Named("PostgresPhotoRepository")}
}

// InsertPhotos adds one row per object in a single transaction, so either
// every photo is linked or none is. Photos keep the order of objects and
// follow any photo the listing already has.
func (r *PhotoRepository) InsertPhotos(ctx context.Context, listingID string, objects []domain.UploadedObject) ([]domain.Photo, error) {
	if len(objects) == 0 {
		return nil, nil
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// The row lock serialises concurrent uploads to one listing.
	if _, err := tx.Exec(ctx, `SELECT 1 FROM rooms WHERE id = $1 FOR UPDATE`, listingID); err != nil {
		return nil, fmt.Errorf("lock listing %s: %w", listingID, err)
	}
	var next int
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(position) + 1, 0) FROM room_images WHERE room_id = $1`, listingID).Scan(&next)
	if err != nil {
		return nil, fmt.Errorf("next photo position of listing %s: %w", listingID, err)
	}

	batch := &pgx.Batch{}
	for i, o := range objects {
		batch.Queue(`INSERT INTO room_images (room_id, image_url, object_key, position) VALUES ($1, $2, $3, $4)
			RETURNING `+photoColumns, listingID, o.PublicURL, o.ObjectKey, next+i)
	}
	results := tx.SendBatch(ctx, batch)
	photos := make([]domain.Photo, 0, len(objects))
	for range objects {
		var p domain.Photo
		if err := results.QueryRow().Scan(&p.ID, &p.ListingID, &p.URL, &p.ObjectKey, &p.CreatedAt); err != nil {
			results.Close()
			return nil, fmt.Errorf("insert photo of listing %s: %w", listingID, err)
		}
		photos = append(photos, p)
	}
	if err := results.Close(); err != nil {
		return nil, fmt.Errorf("insert photos of listing %s: %w", listingID, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit photos of listing %s: %w", listingID, err)
	}
	r.logger.Debug("Photos linked", zap.String("listing_id", listingID), zap.Int("count", len(photos)))
	return photos, nil
}

func (r *PhotoRepository) DeletePhotos(ctx context.Context, listingID string, ids []string) ([]domain.Photo, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx,
		`DELETE FROM room_images WHERE room_id = $1 AND id = ANY($2) RETURNING `+photoColumns, listingID, ids)
	if err != nil {
		return nil, fmt.Errorf("delete photos of listing %s: %w", listingID, err)
	}
	return pgx.CollectRows(rows, scanPhoto)
}

func (r *PhotoRepository) ListByListing(ctx context.Context, listingID string) ([]domain.Photo, error) {
	return r.listByListings(ctx, []string{listingID})
}

func (r *PhotoRepository) ExistsByURL(ctx context.Context, url string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM room_images WHERE image_url = $1)`, url).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("look up photo by url: %w", err)
	}
	return exists, nil
}

func (r *PhotoRepository) listByListings(ctx context.Context, listingIDs []string) ([]domain.Photo, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+photoColumns+` FROM room_images WHERE room_id = ANY($1) ORDER BY position, created_at, id`, listingIDs)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	photos, err := pgx.CollectRows(rows, scanPhoto)
	if err != nil {
		return nil, fmt.Errorf("scan photos: %w", err)
	}
	return photos, nil
}

func scanPhoto(row pgx.CollectableRow) (domain.Photo, error) {
	var p domain.Photo
	err := row.Scan(&p.ID, &p.ListingID, &p.URL, &p.ObjectKey, &p.CreatedAt)
	return p, err
}
