package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Abdurahmanit/GroupProject/room-service/internal/listing/domain"
	"github.com/stretchr/testify/mock"
)

type MockListingRepository struct{ mock.Mock }

func (m *MockListingRepository) Count(ctx context.Context, criteria domain.FilterCriteria) (int, error) {
	args := m.Called(ctx, criteria)
	return args.Int(0), args.Error(1)
}
func (m *MockListingRepository) Find(ctx context.Context, criteria domain.FilterCriteria, window domain.PageWindow) ([]*domain.Listing, error) {
	args := m.Called(ctx, criteria, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Listing), args.Error(1)
}
func (m *MockListingRepository) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}
func (m *MockListingRepository) FindByOwner(ctx context.Context, ownerID string) ([]*domain.Listing, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Listing), args.Error(1)
}
func (m *MockListingRepository) Insert(ctx context.Context, listing *domain.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}
func (m *MockListingRepository) Update(ctx context.Context, listing *domain.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}
func (m *MockListingRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockPhotoRepository struct{ mock.Mock }

func (m *MockPhotoRepository) InsertPhotos(ctx context.Context, listingID string, objects []domain.UploadedObject) ([]domain.Photo, error) {
	args := m.Called(ctx, listingID, objects)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Photo), args.Error(1)
}
func (m *MockPhotoRepository) DeletePhotos(ctx context.Context, listingID string, ids []string) ([]domain.Photo, error) {
	args := m.Called(ctx, listingID, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Photo), args.Error(1)
}
func (m *MockPhotoRepository) ListByListing(ctx context.Context, listingID string) ([]domain.Photo, error) {
	args := m.Called(ctx, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Photo), args.Error(1)
}
func (m *MockPhotoRepository) ExistsByURL(ctx context.Context, url string) (bool, error) {
	args := m.Called(ctx, url)
	return args.Bool(0), args.Error(1)
}

type MockListingCache struct{ mock.Mock }

func (m *MockListingCache) Generation(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockListingCache) GetListing(ctx context.Context, gen int64, id string) (*domain.Listing, error) {
	args := m.Called(ctx, gen, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}
func (m *MockListingCache) SetListing(ctx context.Context, gen int64, listing *domain.Listing) error {
	args := m.Called(ctx, gen, listing)
	return args.Error(0)
}
func (m *MockListingCache) GetSearch(ctx context.Context, gen int64, criteria domain.FilterCriteria, window domain.PageWindow) (*domain.SearchResult, error) {
	args := m.Called(ctx, gen, criteria, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SearchResult), args.Error(1)
}
func (m *MockListingCache) SetSearch(ctx context.Context, gen int64, criteria domain.FilterCriteria, result *domain.SearchResult) error {
	args := m.Called(ctx, gen, criteria, result)
	return args.Error(0)
}
func (m *MockListingCache) Invalidate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockEventPublisher struct{ mock.Mock }

func (m *MockEventPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	args := m.Called(ctx, subject, data)
	return args.Error(0)
}

type MockNotifier struct{ mock.Mock }

func (m *MockNotifier) NotifyListingPublished(ctx context.Context, ownerID string, listing *domain.Listing) error {
	args := m.Called(ctx, ownerID, listing)
	return args.Error(0)
}

// fakeStorage keeps objects in memory. Puts of a file whose name is in
// failNames and removes of keys in failRemove fail.
type fakeStorage struct {
	mu         sync.Mutex
	objects    map[string][]byte
	puts       []string
	failNames  map[string]bool
	failRemove map[string]bool
}

func newFakeStorage(failNames ...string) *fakeStorage {
	s := &fakeStorage{
		objects:    make(map[string][]byte),
		failNames:  make(map[string]bool),
		failRemove: make(map[string]bool),
	}
	for _, n := range failNames {
		s.failNames[n] = true
	}
	return s
}

func (s *fakeStorage) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts = append(s.puts, key)
	for name := range s.failNames {
		if strings.HasSuffix(key, "-"+name) {
			return errors.New("bucket unavailable")
		}
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.objects[key] = data
	return nil
}

func (s *fakeStorage) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failRemove[key] {
		return errors.New("remove denied")
	}
	delete(s.objects, key)
	return nil
}

func (s *fakeStorage) PublicURL(key string) string {
	return "https://cdn.test/room-images/" + key
}

func (s *fakeStorage) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}

func (s *fakeStorage) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

type fakeJournal struct {
	mu      sync.Mutex
	records map[string]domain.UploadRecord
}

func newFakeJournal() *fakeJournal {
	return &fakeJournal{records: make(map[string]domain.UploadRecord)}
}

func (j *fakeJournal) RecordPending(ctx context.Context, rec domain.UploadRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	rec.UpdatedAt = rec.CreatedAt
	j.records[rec.ObjectKey] = rec
	return nil
}

func (j *fakeJournal) MarkState(ctx context.Context, keys []string, state domain.UploadState, reason string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, k := range keys {
		rec, ok := j.records[k]
		if !ok {
			rec = domain.UploadRecord{ObjectKey: k, CreatedAt: time.Now()}
		}
		rec.State = state
		rec.Reason = reason
		rec.UpdatedAt = time.Now()
		j.records[k] = rec
	}
	return nil
}

func (j *fakeJournal) ListSweepable(ctx context.Context, staleBefore time.Time, limit int) ([]domain.UploadRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	var out []domain.UploadRecord
	for _, rec := range j.records {
		if rec.State == domain.UploadOrphaned || (rec.State == domain.UploadPending && rec.UpdatedAt.Before(staleBefore)) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ObjectKey < out[b].ObjectKey })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (j *fakeJournal) state(key string) domain.UploadState {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.records[key].State
}

// memStore is an in-memory listing and photo store with the same filter and
// ordering semantics as the SQL stores.
type memStore struct {
	mu       sync.Mutex
	listings map[string]*domain.Listing
	seq      int
}

func newMemStore() *memStore {
	return &memStore{listings: make(map[string]*domain.Listing)}
}

func (s *memStore) filtered(criteria domain.FilterCriteria) []*domain.Listing {
	var out []*domain.Listing
	for _, l := range s.listings {
		if criteria.Matches(l) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if !out[a].CreatedAt.Equal(out[b].CreatedAt) {
			return out[a].CreatedAt.After(out[b].CreatedAt)
		}
		return out[a].ID > out[b].ID
	})
	return out
}

func clone(l *domain.Listing) *domain.Listing {
	c := *l
	c.Photos = append([]domain.Photo(nil), l.Photos...)
	return &c
}

func (s *memStore) Count(ctx context.Context, criteria domain.FilterCriteria) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.filtered(criteria)), nil
}

func (s *memStore) Find(ctx context.Context, criteria domain.FilterCriteria, window domain.PageWindow) ([]*domain.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.filtered(criteria)
	out := []*domain.Listing{}
	for i := window.Offset(); i < len(all) && i < window.Offset()+window.Limit(); i++ {
		out = append(out, clone(all[i]))
	}
	return out, nil
}

func (s *memStore) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[id]
	if !ok {
		return nil, domain.ErrListingNotFound
	}
	return clone(l), nil
}

func (s *memStore) FindByOwner(ctx context.Context, ownerID string) ([]*domain.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Listing
	for _, l := range s.filtered(domain.FilterCriteria{OwnerID: ownerID}) {
		out = append(out, clone(l))
	}
	return out, nil
}

func (s *memStore) Insert(ctx context.Context, l *domain.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	l.ID = fmt.Sprintf("room-%03d", s.seq)
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(s.seq) * time.Minute)
	}
	l.UpdatedAt = l.CreatedAt
	s.listings[l.ID] = clone(l)
	return nil
}

func (s *memStore) Update(ctx context.Context, l *domain.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.listings[l.ID]
	if !ok {
		return domain.ErrListingNotFound
	}
	photos := cur.Photos
	cur = clone(l)
	cur.Photos = photos
	s.listings[l.ID] = cur
	return nil
}

func (s *memStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.listings[id]; !ok {
		return domain.ErrListingNotFound
	}
	delete(s.listings, id)
	return nil
}

func (s *memStore) InsertPhotos(ctx context.Context, listingID string, objects []domain.UploadedObject) ([]domain.Photo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[listingID]
	if !ok {
		return nil, domain.ErrListingNotFound
	}
	photos := make([]domain.Photo, 0, len(objects))
	for _, o := range objects {
		s.seq++
		p := domain.Photo{ID: fmt.Sprintf("photo-%03d", s.seq), ListingID: listingID, URL: o.PublicURL, ObjectKey: o.ObjectKey}
		photos = append(photos, p)
	}
	l.Photos = append(l.Photos, photos...)
	return photos, nil
}

func (s *memStore) DeletePhotos(ctx context.Context, listingID string, ids []string) ([]domain.Photo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[listingID]
	if !ok {
		return nil, nil
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	var kept, removed []domain.Photo
	for _, p := range l.Photos {
		if drop[p.ID] {
			removed = append(removed, p)
		} else {
			kept = append(kept, p)
		}
	}
	l.Photos = kept
	return removed, nil
}

func (s *memStore) ListByListing(ctx context.Context, listingID string) ([]domain.Photo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.listings[listingID]; ok {
		return append([]domain.Photo(nil), l.Photos...), nil
	}
	return nil, nil
}

func (s *memStore) ExistsByURL(ctx context.Context, url string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.listings {
		for _, p := range l.Photos {
			if p.URL == url {
				return true, nil
			}
		}
	}
	return false, nil
}

// seed inserts n listings for ownerID with two photos each.
func (s *memStore) seed(n int, ownerID string) {
	for i := 0; i < n; i++ {
		l := &domain.Listing{
			OwnerID:          ownerID,
			Title:            fmt.Sprintf("Room %d", i+1),
			Location:         "Pune",
			Price:            float64(5000 + i*100),
			PropertyType:     domain.PropertyType1BHK,
			TenantPreference: domain.TenantFamily,
			ContactNumber:    "9999999999",
		}
		_ = s.Insert(context.Background(), l)
		_, _ = s.InsertPhotos(context.Background(), l.ID, []domain.UploadedObject{
			{ObjectKey: l.ID + "/1-a.jpg", PublicURL: "https://cdn.test/room-images/" + l.ID + "/1-a.jpg"},
			{ObjectKey: l.ID + "/2-b.jpg", PublicURL: "https://cdn.test/room-images/" + l.ID + "/2-b.jpg"},
		})
	}
}

func validFields() domain.ListingFields {
	return domain.ListingFields{
		Title:            "Sunny room near campus",
		Location:         "Koregaon Park, Pune",
		Price:            12000,
		PropertyType:     "1bhk",
		TenantPreference: "family",
		ContactNumber:    "9876543210",
	}
}

func files(names ...string) []domain.UploadFile {
	out := make([]domain.UploadFile, len(names))
	for i, n := range names {
		out[i] = domain.UploadFile{Name: n, ContentType: "image/jpeg", Data: []byte("jpeg-" + n)}
	}
	return out
}
