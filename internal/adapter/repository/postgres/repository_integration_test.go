//go:build integration

package postgres

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/room-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/room-service/internal/platform/logger"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("Could not construct pool: %s", err)
	}
	if err := pool.Client.Ping(); err != nil {
		log.Fatalf("Could not connect to Docker: %s", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=rooms",
			"POSTGRES_PASSWORD=secret",
			"POSTGRES_DB=rooms",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Fatalf("Could not start Postgres resource: %s", err)
	}
	_ = resource.Expire(120)

	dsn := fmt.Sprintf("postgres://rooms:secret@%s/rooms?sslmode=disable", resource.GetHostPort("5432/tcp"))
	pool.MaxWait = 90 * time.Second
	if err := pool.Retry(func() error {
		var err error
		testPool, err = NewClient(context.Background(), dsn)
		return err
	}); err != nil {
		log.Fatalf("Could not connect to Postgres: %s", err)
	}
	if _, err := Migrate(context.Background(), testPool, logger.NewNop()); err != nil {
		log.Fatalf("Could not migrate: %s", err)
	}

	code := m.Run()

	testPool.Close()
	if err := pool.Purge(resource); err != nil {
		fmt.Printf("Could not purge Postgres resource: %s\n", err)
	}
	os.Exit(code)
}

func resetTables(t *testing.T) {
	_, err := testPool.Exec(context.Background(), `TRUNCATE rooms CASCADE`)
	require.NoError(t, err)
}

func insertListing(t *testing.T, repo *ListingRepository, owner, title, location string, price float64) *domain.Listing {
	l := &domain.Listing{
		OwnerID: owner, Title: title, Location: location, Price: price,
		PropertyType: domain.PropertyType2BHK, TenantPreference: domain.TenantFamily, ContactNumber: "9876543210",
	}
	require.NoError(t, repo.Insert(context.Background(), l))
	return l
}

func TestMigrate_Idempotent(t *testing.T) {
	applied, err := Migrate(context.Background(), testPool, logger.NewNop())
	require.NoError(t, err)
	assert.Zero(t, applied)
}

func TestListingRepository_Integration(t *testing.T) {
	ctx := context.Background()
	resetTables(t)
	repo := NewListingRepository(testPool, logger.NewNop())
	photos := NewPhotoRepository(testPool, logger.NewNop())

	for i := 1; i <= 25; i++ {
		insertListing(t, repo, "owner-1", fmt.Sprintf("Room %d", i), "Kothrud, Pune", float64(1000*i))
	}
	insertListing(t, repo, "owner-2", "Sea view", "Bandra, Mumbai", 50000)

	t.Run("CountAndPages", func(t *testing.T) {
		criteria := domain.FilterCriteria{Location: "PUNE"}
		total, err := repo.Count(ctx, criteria)
		require.NoError(t, err)
		assert.Equal(t, 25, total)

		seen := map[string]bool{}
		for page := 1; page <= 3; page++ {
			items, err := repo.Find(ctx, criteria, domain.NewPageWindow(page))
			require.NoError(t, err)
			for _, l := range items {
				assert.False(t, seen[l.ID])
				seen[l.ID] = true
			}
			if page == 2 {
				assert.Len(t, items, 9)
			}
			if page == 3 {
				assert.Len(t, items, 7)
			}
		}
		assert.Len(t, seen, 25)
	})

	t.Run("Filters", func(t *testing.T) {
		maxPrice := 5000.0
		total, err := repo.Count(ctx, domain.FilterCriteria{MaxPrice: &maxPrice, PropertyType: "2bhk", TenantPreference: "FAMILY"})
		require.NoError(t, err)
		assert.Equal(t, 5, total, "price bound is inclusive")

		total, err = repo.Count(ctx, domain.FilterCriteria{Location: "100%"})
		require.NoError(t, err)
		assert.Zero(t, total, "LIKE metacharacters match literally")
	})

	t.Run("PhotosAndCascade", func(t *testing.T) {
		l := insertListing(t, repo, "owner-3", "Studio", "Aundh, Pune", 7000)
		linked, err := photos.InsertPhotos(ctx, l.ID, []domain.UploadedObject{
			{FileName: "a.jpg", ObjectKey: l.ID + "/1-a.jpg", PublicURL: "https://cdn.test/" + l.ID + "/1-a.jpg"},
			{FileName: "b.jpg", ObjectKey: l.ID + "/2-b.jpg", PublicURL: "https://cdn.test/" + l.ID + "/2-b.jpg"},
		})
		require.NoError(t, err)
		require.Len(t, linked, 2)

		got, err := repo.FindByID(ctx, l.ID)
		require.NoError(t, err)
		assert.Len(t, got.Photos, 2)

		exists, err := photos.ExistsByURL(ctx, linked[0].URL)
		require.NoError(t, err)
		assert.True(t, exists)

		removed, err := photos.DeletePhotos(ctx, l.ID, []string{linked[0].ID, "not-a-photo"})
		require.NoError(t, err)
		require.Len(t, removed, 1)
		assert.Equal(t, linked[0].ObjectKey, removed[0].ObjectKey)

		require.NoError(t, repo.Delete(ctx, l.ID))
		left, err := photos.ListByListing(ctx, l.ID)
		require.NoError(t, err)
		assert.Empty(t, left)

		_, err = repo.FindByID(ctx, l.ID)
		assert.ErrorIs(t, err, domain.ErrListingNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, l.ID), domain.ErrListingNotFound)
	})

	t.Run("PhotosKeepUploadOrder", func(t *testing.T) {
		l := insertListing(t, repo, "owner-5", "Gallery", "Baner, Pune", 9000)
		batch := func(from, n int) []domain.UploadedObject {
			out := make([]domain.UploadedObject, n)
			for i := range out {
				key := fmt.Sprintf("%s/%d-photo.jpg", l.ID, from+i)
				out[i] = domain.UploadedObject{FileName: "photo.jpg", ObjectKey: key, PublicURL: "https://cdn.test/" + key}
			}
			return out
		}
		var want []string
		for i := 0; i < 10; i++ {
			want = append(want, fmt.Sprintf("%s/%d-photo.jpg", l.ID, i))
		}

		_, err := photos.InsertPhotos(ctx, l.ID, batch(0, 8))
		require.NoError(t, err)
		_, err = photos.InsertPhotos(ctx, l.ID, batch(8, 2))
		require.NoError(t, err)

		keys := func(ps []domain.Photo) []string {
			out := make([]string, len(ps))
			for i, p := range ps {
				out[i] = p.ObjectKey
			}
			return out
		}
		listed, err := photos.ListByListing(ctx, l.ID)
		require.NoError(t, err)
		assert.Equal(t, want, keys(listed))

		got, err := repo.FindByID(ctx, l.ID)
		require.NoError(t, err)
		assert.Equal(t, want, keys(got.Photos))

		mine, err := repo.FindByOwner(ctx, "owner-5")
		require.NoError(t, err)
		require.Len(t, mine, 1)
		assert.Equal(t, want, keys(mine[0].Photos))
	})

	t.Run("Update", func(t *testing.T) {
		l := insertListing(t, repo, "owner-4", "Old title", "Wakad, Pune", 8000)
		l.Title = "New title"
		l.Price = 8500
		require.NoError(t, repo.Update(ctx, l))

		got, err := repo.FindByID(ctx, l.ID)
		require.NoError(t, err)
		assert.Equal(t, "New title", got.Title)
		assert.Equal(t, 8500.0, got.Price)
		assert.Equal(t, "owner-4", got.OwnerID)

		mine, err := repo.FindByOwner(ctx, "owner-4")
		require.NoError(t, err)
		assert.Len(t, mine, 1)
	})
}
