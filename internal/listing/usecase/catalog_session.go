package usecase

import (
	"context"
	"sync"

	"github.com/Abdurahmanit/GroupProject/room-service/internal/listing/domain"
)

// CatalogSession is the browsing state of one viewer: the active criteria,
// the page last shown and the carousel position of every card on it.
type CatalogSession struct {
	catalog  *CatalogUsecase
	listings *ListingUsecase
	carousel *CarouselState

	mu       sync.Mutex
	criteria domain.FilterCriteria
	page     int
	result   domain.SearchResult
}

func NewCatalogSession(catalog *CatalogUsecase, listings *ListingUsecase) *CatalogSession {
	return &CatalogSession{
		catalog:  catalog,
		listings: listings,
		carousel: NewCarouselState(),
		page:     1,
		result:   domain.SearchResult{Window: domain.NewPageWindow(1), Items: []*domain.Listing{}},
	}
}

// Search replaces the criteria and loads page. Carousel positions start over
// for the new result. On failure the held result is cleared.
func (s *CatalogSession) Search(ctx context.Context, criteria domain.FilterCriteria, page int) (domain.SearchResult, error) {
	res, err := s.catalog.Search(ctx, criteria, page)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.criteria = criteria
	s.page = res.Window.Page
	s.result = *res
	s.carousel.Reset()
	return s.result, err
}

// GoToPage reloads the current criteria at page.
func (s *CatalogSession) GoToPage(ctx context.Context, page int) (domain.SearchResult, error) {
	s.mu.Lock()
	criteria := s.criteria
	s.mu.Unlock()
	return s.Search(ctx, criteria, page)
}

func (s *CatalogSession) Result() domain.SearchResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

func (s *CatalogSession) Page() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// CurrentImage returns the photo currently shown for listingID, or nil when
// the listing is not on the page or has no photos.
func (s *CatalogSession) CurrentImage(listingID string) *domain.Photo {
	l := s.held(listingID)
	if l == nil || l.PhotoCount() == 0 {
		return nil
	}
	idx := s.carousel.Current(listingID)
	if idx >= len(l.Photos) {
		idx = 0
	}
	return &l.Photos[idx]
}

func (s *CatalogSession) AdvanceImage(listingID string) int {
	return s.carousel.Advance(listingID, s.held(listingID).PhotoCount())
}

func (s *CatalogSession) RetreatImage(listingID string) int {
	return s.carousel.Retreat(listingID, s.held(listingID).PhotoCount())
}

// Delete asks confirm before removing listingID. A declined confirmation
// returns domain.ErrConfirmationRequired and leaves everything untouched.
// On success the listing is dropped from the held page without refetching.
func (s *CatalogSession) Delete(ctx context.Context, ownerID, listingID string, confirm func(*domain.Listing) bool) error {
	target := s.held(listingID)
	if target == nil {
		target = &domain.Listing{ID: listingID}
	}
	if confirm == nil || !confirm(target) {
		return domain.ErrConfirmationRequired
	}

	if err := s.listings.DeleteListing(ctx, ownerID, listingID, true); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = s.result.Without(listingID)
	s.carousel.Forget(listingID)
	return nil
}

func (s *CatalogSession) held(listingID string) *domain.Listing {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.result.Items {
		if l.ID == listingID {
			return l
		}
	}
	return nil
}
