package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Abdurahmanit/GroupProject/room-service/internal/adapter/repository/sqlfilter"
	"github.com/Abdurahmanit/GroupProject/room-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/room-service/internal/platform/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const listingColumns = `id, owner_id, title, location, price, property_type, tenant_preference,
	contact_number, description, created_at, updated_at`

// ListingRepository stores listings in the rooms table and reads their
// photos from room_images.
type ListingRepository struct {
	pool   *pgxpool.Pool
	photos *PhotoRepository
	logger *logger.Logger
}

func NewListingRepository(pool *pgxpool.Pool, log *logger.Logger) *ListingRepository {
	return &ListingRepository{
		pool:   pool,
		photos: NewPhotoRepository(pool, log),
		logger: log.Named("PostgresListingRepository"),
	}
}

func (r *ListingRepository) Count(ctx context.Context, criteria domain.FilterCriteria) (int, error) {
	query, args := buildCountQuery(criteria)
	var total int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count listings: %w", err)
	}
	return total, nil
}

func (r *ListingRepository) Find(ctx context.Context, criteria domain.FilterCriteria, window domain.PageWindow) ([]*domain.Listing, error) {
	query, args := buildFindQuery(criteria, window)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find listings: %w", err)
	}
	listings, err := collectListings(rows)
	if err != nil {
		return nil, fmt.Errorf("scan listings: %w", err)
	}
	if err := r.attachPhotos(ctx, listings); err != nil {
		return nil, err
	}
	return listings, nil
}

func (r *ListingRepository) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+listingColumns+` FROM rooms WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("find listing %s: %w", id, err)
	}
	l, err := pgx.CollectExactlyOneRow(rows, scanListing)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrListingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan listing %s: %w", id, err)
	}
	if err := r.attachPhotos(ctx, []*domain.Listing{l}); err != nil {
		return nil, err
	}
	return l, nil
}

func (r *ListingRepository) FindByOwner(ctx context.Context, ownerID string) ([]*domain.Listing, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+listingColumns+` FROM rooms WHERE owner_id = $1 ORDER BY created_at DESC, id DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("find listings of owner %s: %w", ownerID, err)
	}
	listings, err := collectListings(rows)
	if err != nil {
		return nil, fmt.Errorf("scan listings: %w", err)
	}
	if err := r.attachPhotos(ctx, listings); err != nil {
		return nil, err
	}
	return listings, nil
}

func (r *ListingRepository) Insert(ctx context.Context, l *domain.Listing) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO rooms (owner_id, title, location, price, property_type, tenant_preference, contact_number, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		l.OwnerID, l.Title, l.Location, l.Price, string(l.PropertyType), string(l.TenantPreference),
		l.ContactNumber, l.Description,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert listing: %w", err)
	}
	r.logger.Debug("Listing inserted", zap.String("listing_id", l.ID), zap.String("owner_id", l.OwnerID))
	return nil
}

// Update rewrites the editable fields. Owner and creation time never change.
func (r *ListingRepository) Update(ctx context.Context, l *domain.Listing) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE rooms
		SET title = $2, location = $3, price = $4, property_type = $5, tenant_preference = $6,
			contact_number = $7, description = $8, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`,
		l.ID, l.Title, l.Location, l.Price, string(l.PropertyType), string(l.TenantPreference),
		l.ContactNumber, l.Description,
	).Scan(&l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrListingNotFound
	}
	if err != nil {
		return fmt.Errorf("update listing %s: %w", l.ID, err)
	}
	return nil
}

// Delete relies on ON DELETE CASCADE to drop the photo rows.
func (r *ListingRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete listing %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrListingNotFound
	}
	return nil
}

func (r *ListingRepository) attachPhotos(ctx context.Context, listings []*domain.Listing) error {
	if len(listings) == 0 {
		return nil
	}
	ids := make([]string, len(listings))
	byID := make(map[string]*domain.Listing, len(listings))
	for i, l := range listings {
		ids[i] = l.ID
		byID[l.ID] = l
		l.Photos = []domain.Photo{}
	}
	photos, err := r.photos.listByListings(ctx, ids)
	if err != nil {
		return err
	}
	for _, p := range photos {
		if l, ok := byID[p.ListingID]; ok {
			l.Photos = append(l.Photos, p)
		}
	}
	return nil
}

func scanListing(row pgx.CollectableRow) (*domain.Listing, error) {
	var l domain.Listing
	var propertyType, tenantPref string
	err := row.Scan(&l.ID, &l.OwnerID, &l.Title, &l.Location, &l.Price, &propertyType, &tenantPref,
		&l.ContactNumber, &l.Description, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	l.PropertyType = domain.PropertyType(propertyType)
	l.TenantPreference = domain.TenantPreference(tenantPref)
	return &l, nil
}

func collectListings(rows pgx.Rows) ([]*domain.Listing, error) {
	return pgx.CollectRows(rows, scanListing)
}

func buildCountQuery(criteria domain.FilterCriteria) (string, []interface{}) {
	where, args := sqlfilter.Where(sqlfilter.Postgres, criteria)
	query := `SELECT COUNT(*) FROM rooms`
	if where != "" {
		query += ` WHERE ` + where
	}
	return query, args
}

func buildFindQuery(criteria domain.FilterCriteria, window domain.PageWindow) (string, []interface{}) {
	where, args := sqlfilter.Where(sqlfilter.Postgres, criteria)
	query := `SELECT ` + listingColumns + ` FROM rooms`
	if where != "" {
		query += ` WHERE ` + where
	}
	args = append(args, window.Limit(), window.Offset())
	query += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	return query, args
}
