package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/Abdurahmanit/GroupProject/room-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/room-service/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCatalogUsecase_Search_SecondPageOfTwentyFive(t *testing.T) {
	store := newMemStore()
	store.seed(25, "owner-1")
	uc := NewCatalogUsecase(store, nil, nil, logger.NewNop())

	res, err := uc.Search(context.Background(), domain.FilterCriteria{Location: "pune"}, 2)

	require.NoError(t, err)
	assert.Equal(t, 25, res.TotalCount)
	assert.Equal(t, 3, res.TotalPages())
	require.Len(t, res.Items, 9)
	assert.Equal(t, 10, res.StartItem())
	assert.Equal(t, 18, res.EndItem())
	assert.True(t, res.HasPrev())
	assert.True(t, res.HasNext())
	// Newest first: room 25 opens page one, so page two opens with room 16.
	assert.Equal(t, "Room 16", res.Items[0].Title)
}

func TestCatalogUsecase_Search_PagesPartitionTheResult(t *testing.T) {
	store := newMemStore()
	store.seed(20, "owner-1")
	uc := NewCatalogUsecase(store, nil, nil, logger.NewNop())
	ctx := context.Background()

	seen := map[string]bool{}
	first, err := uc.Search(ctx, domain.FilterCriteria{}, 1)
	require.NoError(t, err)
	for page := 1; page <= first.TotalPages(); page++ {
		res, err := uc.Search(ctx, domain.FilterCriteria{}, page)
		require.NoError(t, err)
		for _, l := range res.Items {
			assert.False(t, seen[l.ID], "listing %s appears on two pages", l.ID)
			seen[l.ID] = true
		}
	}
	assert.Len(t, seen, first.TotalCount)
}

func TestCatalogUsecase_Search_Filters(t *testing.T) {
	store := newMemStore()
	store.seed(5, "owner-1")
	ctx := context.Background()
	cheap := &domain.Listing{
		OwnerID: "owner-2", Title: "Budget bed", Location: "Baner, PUNE", Price: 3000,
		PropertyType: domain.PropertyType1Bed, TenantPreference: domain.TenantBachelor, ContactNumber: "1",
	}
	require.NoError(t, store.Insert(ctx, cheap))
	uc := NewCatalogUsecase(store, nil, nil, logger.NewNop())

	maxPrice := 4000.0
	res, err := uc.Search(ctx, domain.FilterCriteria{Location: "baner", PropertyType: "1bed", TenantPreference: "BACHELOR", MaxPrice: &maxPrice}, 1)
	require.NoError(t, err)
	require.Equal(t, 1, res.TotalCount)
	assert.Equal(t, cheap.ID, res.Items[0].ID)

	res, err = uc.Search(ctx, domain.FilterCriteria{PropertyType: "Castle"}, 1)
	require.NoError(t, err)
	assert.Zero(t, res.TotalCount, "an unknown enum value matches nothing")
	assert.Zero(t, res.TotalPages())
	assert.Zero(t, res.StartItem())
}

func TestCatalogUsecase_Search_PageBeyondEnd(t *testing.T) {
	repo := new(MockListingRepository)
	repo.On("Count", mock.Anything, domain.FilterCriteria{}).Return(5, nil).Once()
	uc := NewCatalogUsecase(repo, nil, nil, logger.NewNop())

	res, err := uc.Search(context.Background(), domain.FilterCriteria{}, 4)

	require.NoError(t, err)
	assert.Equal(t, 5, res.TotalCount)
	assert.Empty(t, res.Items)
	assert.Zero(t, res.StartItem())
	assert.Zero(t, res.EndItem())
	repo.AssertNotCalled(t, "Find", mock.Anything, mock.Anything, mock.Anything)
}

func TestCatalogUsecase_Search_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("CountFails", func(t *testing.T) {
		repo := new(MockListingRepository)
		repo.On("Count", mock.Anything, mock.Anything).Return(0, errors.New("connection reset")).Once()
		uc := NewCatalogUsecase(repo, nil, nil, logger.NewNop())

		res, err := uc.Search(ctx, domain.FilterCriteria{}, 1)
		require.Error(t, err)
		require.NotNil(t, res)
		assert.Zero(t, res.TotalCount)
		assert.Empty(t, res.Items)
		repo.AssertNotCalled(t, "Find", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("FindFails", func(t *testing.T) {
		repo := new(MockListingRepository)
		repo.On("Count", mock.Anything, mock.Anything).Return(12, nil).Once()
		repo.On("Find", mock.Anything, mock.Anything, domain.NewPageWindow(1)).Return(nil, errors.New("statement timeout")).Once()
		uc := NewCatalogUsecase(repo, nil, nil, logger.NewNop())

		res, err := uc.Search(ctx, domain.FilterCriteria{}, 1)
		require.Error(t, err)
		assert.Zero(t, res.TotalCount, "a failed page must not report the count of the other query")
		assert.Empty(t, res.Items)
		repo.AssertExpectations(t)
	})

	t.Run("NegativeMaxPrice", func(t *testing.T) {
		repo := new(MockListingRepository)
		uc := NewCatalogUsecase(repo, nil, nil, logger.NewNop())
		price := -1.0

		_, err := uc.Search(ctx, domain.FilterCriteria{MaxPrice: &price}, 1)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		repo.AssertNotCalled(t, "Count", mock.Anything, mock.Anything)
	})
}

func TestCatalogUsecase_Search_Cache(t *testing.T) {
	ctx := context.Background()
	repo := new(MockListingRepository)
	cache := new(MockListingCache)
	uc := NewCatalogUsecase(repo, cache, nil, logger.NewNop())
	criteria := domain.FilterCriteria{Location: "Pune"}
	cached := &domain.SearchResult{TotalCount: 1, Window: domain.NewPageWindow(1), Items: []*domain.Listing{{ID: "room-1"}}}

	t.Run("Hit", func(t *testing.T) {
		cache.On("Generation", mock.Anything).Return(int64(4), nil).Once()
		cache.On("GetSearch", mock.Anything, int64(4), criteria, domain.NewPageWindow(1)).Return(cached, nil).Once()

		res, err := uc.Search(ctx, criteria, 1)
		require.NoError(t, err)
		assert.Same(t, cached, res)
		repo.AssertNotCalled(t, "Count", mock.Anything, mock.Anything)
	})

	t.Run("MissStoresResultUnderTheGenerationReadFirst", func(t *testing.T) {
		cache.On("Generation", mock.Anything).Return(int64(4), nil).Once()
		cache.On("GetSearch", mock.Anything, int64(4), criteria, domain.NewPageWindow(2)).Return(nil, nil).Once()
		repo.On("Count", mock.Anything, criteria).Return(10, nil).Once()
		repo.On("Find", mock.Anything, criteria, domain.NewPageWindow(2)).Return([]*domain.Listing{{ID: "room-9"}}, nil).Once()
		cache.On("SetSearch", mock.Anything, int64(4), criteria, mock.AnythingOfType("*domain.SearchResult")).Return(errors.New("redis down")).Once()

		res, err := uc.Search(ctx, criteria, 2)
		require.NoError(t, err)
		assert.Equal(t, 10, res.TotalCount)
		require.Len(t, res.Items, 1)
		repo.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("GenerationUnavailableBypassesCache", func(t *testing.T) {
		cache.On("Generation", mock.Anything).Return(int64(0), errors.New("redis down")).Once()
		repo.On("Count", mock.Anything, criteria).Return(0, nil).Once()

		res, err := uc.Search(ctx, criteria, 1)
		require.NoError(t, err)
		assert.Zero(t, res.TotalCount)
		cache.AssertNotCalled(t, "SetSearch", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestCatalogUsecase_GetListing(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.seed(1, "owner-1")
	cache := new(MockListingCache)
	uc := NewCatalogUsecase(store, cache, nil, logger.NewNop())

	cache.On("Generation", mock.Anything).Return(int64(1), nil)
	cache.On("GetListing", mock.Anything, int64(1), "room-001").Return(nil, nil).Once()
	cache.On("SetListing", mock.Anything, int64(1), mock.AnythingOfType("*domain.Listing")).Return(nil).Once()
	l, err := uc.GetListing(ctx, "room-001")
	require.NoError(t, err)
	assert.Len(t, l.Photos, 2)

	cache.On("GetListing", mock.Anything, int64(1), "room-404").Return(nil, nil).Once()
	_, err = uc.GetListing(ctx, "room-404")
	assert.ErrorIs(t, err, domain.ErrListingNotFound)

	_, err = uc.GetListing(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	cache.AssertExpectations(t)
}

func TestCatalogUsecase_ListOwnerListings(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.seed(3, "owner-1")
	store.seed(2, "owner-2")
	uc := NewCatalogUsecase(store, nil, nil, logger.NewNop())

	mine, err := uc.ListOwnerListings(ctx, "owner-2")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	for _, l := range mine {
		assert.Equal(t, "owner-2", l.OwnerID)
	}

	_, err = uc.ListOwnerListings(ctx, "")
	assert.ErrorIs(t, err, domain.ErrAuthRequired)
}
