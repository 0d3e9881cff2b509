package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/Abdurahmanit/GroupProject/room-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/room-service/internal/platform/logger"
	"github.com/Abdurahmanit/GroupProject/room-service/internal/platform/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("room-service/listing-usecase")

// CatalogUsecase answers read queries over the listing catalog.
type CatalogUsecase struct {
	listings domain.ListingRepository
	cache    domain.ListingCache
	metrics  *metrics.MetricsManager
	logger   *logger.Logger
}

// NewCatalogUsecase builds the read side. cache and m may be nil.
func NewCatalogUsecase(listings domain.ListingRepository, cache domain.ListingCache, m *metrics.MetricsManager, log *logger.Logger) *CatalogUsecase {
	return &CatalogUsecase{
		listings: listings,
		cache:    cache,
		metrics:  m,
		logger:   log.Named("CatalogUsecase"),
	}
}

// Search runs the paired count and page queries for criteria. On failure it
// returns an empty result together with the error, never cached or
// previously fetched data.
func (uc *CatalogUsecase) Search(ctx context.Context, criteria domain.FilterCriteria, page int) (*domain.SearchResult, error) {
	criteria = criteria.Normalize()
	window := domain.NewPageWindow(page)
	empty := &domain.SearchResult{Window: window, Items: []*domain.Listing{}}

	ctx, span := tracer.Start(ctx, "CatalogUsecase.Search")
	defer span.End()
	span.SetAttributes(
		attribute.String("filter.location", criteria.Location),
		attribute.String("filter.property_type", criteria.PropertyType),
		attribute.String("filter.tenant_preference", criteria.TenantPreference),
		attribute.Int("page", window.Page),
	)

	if err := criteria.Validate(); err != nil {
		return empty, err
	}
	uc.metrics.IncSearch()

	gen, cacheable := uc.cacheGeneration(ctx)
	if cacheable {
		if cached := uc.cachedSearch(ctx, gen, criteria, window); cached != nil {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return cached, nil
		}
	}

	total, err := uc.listings.Count(ctx, criteria)
	if err != nil {
		uc.logger.Error("Failed to count listings", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "count failed")
		return empty, fmt.Errorf("count listings: %w", err)
	}

	result := &domain.SearchResult{TotalCount: total, Window: window, Items: []*domain.Listing{}}
	if total > 0 && window.Offset() < total {
		items, err := uc.listings.Find(ctx, criteria, window)
		if err != nil {
			uc.logger.Error("Failed to fetch listing page", zap.Int("page", window.Page), zap.Error(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "find failed")
			return empty, fmt.Errorf("find listings: %w", err)
		}
		result.Items = items
	}

	span.SetAttributes(attribute.Int("result.total", total), attribute.Int("result.items", len(result.Items)))
	uc.logger.Debug("Catalog search served",
		zap.Int("page", window.Page), zap.Int("total", total), zap.Int("items", len(result.Items)))

	if cacheable {
		if err := uc.cache.SetSearch(ctx, gen, criteria, result); err != nil {
			uc.logger.Warn("Failed to cache search page", zap.Error(err))
		}
	}
	return result, nil
}

// GetListing returns a single listing with its photos.
func (uc *CatalogUsecase) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	if id == "" {
		return nil, &domain.ValidationError{Field: "id", Reason: "is required"}
	}
	gen, cacheable := uc.cacheGeneration(ctx)
	if cacheable {
		if l, err := uc.cache.GetListing(ctx, gen, id); err != nil {
			uc.logger.Warn("Listing cache read failed", zap.String("listing_id", id), zap.Error(err))
		} else if l != nil {
			return l, nil
		}
	}

	l, err := uc.listings.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrListingNotFound) {
			uc.logger.Error("Failed to load listing", zap.String("listing_id", id), zap.Error(err))
		}
		return nil, err
	}
	if cacheable {
		if err := uc.cache.SetListing(ctx, gen, l); err != nil {
			uc.logger.Warn("Failed to cache listing", zap.String("listing_id", id), zap.Error(err))
		}
	}
	return l, nil
}

// ListOwnerListings returns every listing of ownerID for the dashboard.
func (uc *CatalogUsecase) ListOwnerListings(ctx context.Context, ownerID string) ([]*domain.Listing, error) {
	if ownerID == "" {
		return nil, &domain.AuthRequiredError{}
	}
	ctx, span := tracer.Start(ctx, "CatalogUsecase.ListOwnerListings")
	defer span.End()

	listings, err := uc.listings.FindByOwner(ctx, ownerID)
	if err != nil {
		uc.logger.Error("Failed to list owner listings", zap.String("owner_id", ownerID), zap.Error(err))
		span.RecordError(err)
		return nil, fmt.Errorf("list owner listings: %w", err)
	}
	return listings, nil
}

// cacheGeneration reports the generation reads are cached under. The cache is
// bypassed for this request when the generation cannot be read.
func (uc *CatalogUsecase) cacheGeneration(ctx context.Context) (int64, bool) {
	if uc.cache == nil {
		return 0, false
	}
	gen, err := uc.cache.Generation(ctx)
	if err != nil {
		uc.logger.Warn("Cache generation read failed", zap.Error(err))
		return 0, false
	}
	return gen, true
}

func (uc *CatalogUsecase) cachedSearch(ctx context.Context, gen int64, criteria domain.FilterCriteria, window domain.PageWindow) *domain.SearchResult {
	res, err := uc.cache.GetSearch(ctx, gen, criteria, window)
	if err != nil {
		uc.logger.Warn("Search cache read failed", zap.Error(err))
		return nil
	}
	return res
}
