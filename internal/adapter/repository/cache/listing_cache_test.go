package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/room-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/room-service/internal/platform/logger"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchKey(t *testing.T) {
	price := 9000.0
	base := domain.FilterCriteria{Location: "Pune", PropertyType: "1BHK", MaxPrice: &price}
	page1 := domain.NewPageWindow(1)

	k := SearchKey(3, base, page1)
	assert.True(t, strings.HasPrefix(k, "room:search:3:"))

	upper := base
	upper.Location = "PUNE"
	assert.Equal(t, k, SearchKey(3, upper, page1), "location case does not change the key")

	assert.NotEqual(t, k, SearchKey(4, base, page1), "a new generation hides older pages")
	assert.NotEqual(t, k, SearchKey(3, base, domain.NewPageWindow(2)))

	noPrice := base
	noPrice.MaxPrice = nil
	assert.NotEqual(t, k, SearchKey(3, noPrice, page1))

	zero := 0.0
	zeroPrice := base
	zeroPrice.MaxPrice = &zero
	assert.NotEqual(t, SearchKey(3, noPrice, page1), SearchKey(3, zeroPrice, page1), "max price 0 is a real bound")
}

func TestDocRoundTripKeepsPhotos(t *testing.T) {
	l := &domain.Listing{
		ID:           "room-1",
		Title:        "Loft",
		PropertyType: domain.PropertyType2BHK,
		Photos:       []domain.Photo{{ID: "p1", URL: "u1", ObjectKey: "room-1/1-a.jpg"}},
	}
	got := toDoc(l).toDomain()
	assert.Equal(t, domain.PropertyType2BHK, got.PropertyType)
	assert.Equal(t, "room-1", got.Photos[0].ListingID)
	assert.Equal(t, 1, got.PhotoCount())
}

func newMiniredisCache(t *testing.T) *ListingCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewListingCacheFromClient(client, time.Minute, logger.NewNop())
}

func TestListingCache_WriteBackUnderRetiredGeneration(t *testing.T) {
	ctx := context.Background()
	c := newMiniredisCache(t)
	criteria := domain.FilterCriteria{Location: "Pune"}
	window := domain.NewPageWindow(1)

	readGen, err := c.Generation(ctx)
	require.NoError(t, err)
	assert.Zero(t, readGen)

	// A listing write commits while the reader is still querying the store.
	require.NoError(t, c.Invalidate(ctx))

	stale := &domain.SearchResult{TotalCount: 1, Window: window, Items: []*domain.Listing{{ID: "room-deleted"}}}
	require.NoError(t, c.SetSearch(ctx, readGen, criteria, stale))
	require.NoError(t, c.SetListing(ctx, readGen, &domain.Listing{ID: "room-deleted", Title: "Gone"}))

	current, err := c.Generation(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), current)

	page, err := c.GetSearch(ctx, current, criteria, window)
	require.NoError(t, err)
	assert.Nil(t, page, "a page read before the write must not be served after it")

	l, err := c.GetListing(ctx, current, "room-deleted")
	require.NoError(t, err)
	assert.Nil(t, l)
}

func TestListingCache_HitWithinGeneration(t *testing.T) {
	ctx := context.Background()
	c := newMiniredisCache(t)

	require.NoError(t, c.SetListing(ctx, 0, &domain.Listing{ID: "room-1", Title: "Loft"}))
	l, err := c.GetListing(ctx, 0, "room-1")
	require.NoError(t, err)
	require.NotNil(t, l)
	assert.Equal(t, "Loft", l.Title)
	assert.Equal(t, "room:listing:0:room-1", ListingKey(0, "room-1"))
}
