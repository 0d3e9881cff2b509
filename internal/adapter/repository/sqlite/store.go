// Package sqlite is the embedded relational store used with DB_DRIVER=sqlite.
// It implements the same listing and photo ports as the Postgres store.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/room-service/internal/adapter/repository/sqlfilter"
	"github.com/Abdurahmanit/GroupProject/room-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/room-service/internal/platform/logger"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Store struct {
	db     *gorm.DB
	logger *logger.Logger
}

// Open connects to the database file at path. Use ":memory:" for a private
// in-memory database.
func Open(ctx context.Context, path string, log *logger.Logger) (*Store, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	// One writer; also keeps a :memory: database alive on a single connection.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}
	log.Info("Opened SQLite store", zap.String("path", path))
	return &Store{db: db, logger: log.Named("SQLiteStore")}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&roomModel{}, &roomImageModel{})
}

func (s *Store) filtered(ctx context.Context, criteria domain.FilterCriteria) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&roomModel{})
	if where, args := sqlfilter.Where(sqlfilter.SQLite, criteria); where != "" {
		q = q.Where(where, args...)
	}
	return q
}

func newestFirst(q *gorm.DB) *gorm.DB {
	return q.Order("created_at DESC").Order("id DESC")
}

func withImages(q *gorm.DB) *gorm.DB {
	return q.Preload("Images", func(db *gorm.DB) *gorm.DB {
		return db.Order("position").Order("created_at").Order("id")
	})
}

func (s *Store) Count(ctx context.Context, criteria domain.FilterCriteria) (int, error) {
	var total int64
	if err := s.filtered(ctx, criteria).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count listings: %w", err)
	}
	return int(total), nil
}

func (s *Store) Find(ctx context.Context, criteria domain.FilterCriteria, window domain.PageWindow) ([]*domain.Listing, error) {
	var rows []roomModel
	q := withImages(newestFirst(s.filtered(ctx, criteria))).Limit(window.Limit()).Offset(window.Offset())
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find listings: %w", err)
	}
	return toListings(rows), nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	var row roomModel
	err := withImages(s.db.WithContext(ctx)).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrListingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find listing %s: %w", id, err)
	}
	return row.toDomain(), nil
}

func (s *Store) FindByOwner(ctx context.Context, ownerID string) ([]*domain.Listing, error) {
	var rows []roomModel
	err := withImages(newestFirst(s.db.WithContext(ctx))).Where("owner_id = ?", ownerID).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("find listings of owner %s: %w", ownerID, err)
	}
	return toListings(rows), nil
}

// Insert assigns a fresh id. A zero CreatedAt is stamped with the current time.
func (s *Store) Insert(ctx context.Context, l *domain.Listing) error {
	row := fromDomainListing(l)
	row.ID = uuid.NewString()
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert listing: %w", err)
	}
	l.ID, l.CreatedAt, l.UpdatedAt = row.ID, row.CreatedAt, row.UpdatedAt
	return nil
}

func (s *Store) Update(ctx context.Context, l *domain.Listing) error {
	now := time.Now().UTC()
	res := s.db.WithContext(ctx).Model(&roomModel{}).Where("id = ?", l.ID).Updates(map[string]interface{}{
		"title":             l.Title,
		"location":          l.Location,
		"price":             l.Price,
		"property_type":     string(l.PropertyType),
		"tenant_preference": string(l.TenantPreference),
		"contact_number":    l.ContactNumber,
		"description":       l.Description,
		"updated_at":        now,
	})
	if res.Error != nil {
		return fmt.Errorf("update listing %s: %w", l.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrListingNotFound
	}
	l.UpdatedAt = now
	return nil
}

// Delete removes the photo rows and the listing in one transaction; SQLite
// only enforces ON DELETE CASCADE when foreign keys are switched on.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("room_id = ?", id).Delete(&roomImageModel{}).Error; err != nil {
			return fmt.Errorf("delete photos of listing %s: %w", id, err)
		}
		res := tx.Where("id = ?", id).Delete(&roomModel{})
		if res.Error != nil {
			return fmt.Errorf("delete listing %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.ErrListingNotFound
		}
		return nil
	})
}

func (s *Store) InsertPhotos(ctx context.Context, listingID string, objects []domain.UploadedObject) ([]domain.Photo, error) {
	if len(objects) == 0 {
		return nil, nil
	}
	rows := make([]roomImageModel, len(objects))
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var next int
		err := tx.Model(&roomImageModel{}).Where("room_id = ?", listingID).
			Select("COALESCE(MAX(position) + 1, 0)").Scan(&next).Error
		if err != nil {
			return err
		}
		for i, o := range objects {
			rows[i] = roomImageModel{
				ID:        uuid.NewString(),
				RoomID:    listingID,
				ImageURL:  o.PublicURL,
				ObjectKey: o.ObjectKey,
				Position:  next + i,
			}
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("insert photos of listing %s: %w", listingID, err)
	}
	photos := make([]domain.Photo, len(rows))
	for i, r := range rows {
		photos[i] = r.toDomain()
	}
	s.logger.Debug("Photos linked", zap.String("listing_id", listingID), zap.Int("count", len(photos)))
	return photos, nil
}

func (s *Store) DeletePhotos(ctx context.Context, listingID string, ids []string) ([]domain.Photo, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var removed []roomImageModel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("room_id = ? AND id IN ?", listingID, ids).Find(&removed).Error; err != nil {
			return err
		}
		if len(removed) == 0 {
			return nil
		}
		keep := make([]string, len(removed))
		for i, r := range removed {
			keep[i] = r.ID
		}
		return tx.Where("id IN ?", keep).Delete(&roomImageModel{}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("delete photos of listing %s: %w", listingID, err)
	}
	photos := make([]domain.Photo, len(removed))
	for i, r := range removed {
		photos[i] = r.toDomain()
	}
	return photos, nil
}

func (s *Store) ListByListing(ctx context.Context, listingID string) ([]domain.Photo, error) {
	var rows []roomImageModel
	err := s.db.WithContext(ctx).Where("room_id = ?", listingID).Order("position").Order("created_at").Order("id").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list photos of listing %s: %w", listingID, err)
	}
	photos := make([]domain.Photo, len(rows))
	for i, r := range rows {
		photos[i] = r.toDomain()
	}
	return photos, nil
}

func (s *Store) ExistsByURL(ctx context.Context, url string) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&roomImageModel{}).Where("image_url = ?", url).Count(&n).Error; err != nil {
		return false, fmt.Errorf("look up photo by url: %w", err)
	}
	return n > 0, nil
}

func toListings(rows []roomModel) []*domain.Listing {
	out := make([]*domain.Listing, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out
}
