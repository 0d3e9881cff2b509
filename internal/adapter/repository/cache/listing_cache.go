package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Abdurahmanit/GroupProject/room-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/room-service/internal/platform/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	listingKeyPrefix = "room:listing:"
	searchKeyPrefix  = "room:search:"
	generationKey    = "room:cache:gen"
)

// ListingCache keeps single listings and search pages in Redis, keyed under a
// generation counter that every listing write bumps.
type ListingCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logger.Logger
}

func NewListingCache(ctx context.Context, addr, password string, db int, ttl time.Duration, log *logger.Logger) (*ListingCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}
	log.Info("Connected to Redis", zap.String("addr", addr), zap.Int("db", db), zap.Duration("ttl", ttl))
	return NewListingCacheFromClient(client, ttl, log), nil
}

func NewListingCacheFromClient(client *redis.Client, ttl time.Duration, log *logger.Logger) *ListingCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &ListingCache{client: client, ttl: ttl, logger: log.Named("ListingCache")}
}

func (c *ListingCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *ListingCache) Close() error {
	return c.client.Close()
}

// listingDoc is the cached shape of a listing.
type listingDoc struct {
	ID               string     `json:"id"`
	OwnerID          string     `json:"owner_id"`
	Title            string     `json:"title"`
	Location         string     `json:"location"`
	Price            float64    `json:"price"`
	PropertyType     string     `json:"property_type"`
	TenantPreference string     `json:"tenant_preference"`
	ContactNumber    string     `json:"contact_number"`
	Description      string     `json:"description,omitempty"`
	Photos           []photoDoc `json:"photos"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type photoDoc struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	ObjectKey string    `json:"object_key"`
	CreatedAt time.Time `json:"created_at"`
}

type searchDoc struct {
	TotalCount int          `json:"total_count"`
	Page       int          `json:"page"`
	Size       int          `json:"size"`
	Items      []listingDoc `json:"items"`
}

func toDoc(l *domain.Listing) listingDoc {
	d := listingDoc{
		ID:               l.ID,
		OwnerID:          l.OwnerID,
		Title:            l.Title,
		Location:         l.Location,
		Price:            l.Price,
		PropertyType:     string(l.PropertyType),
		TenantPreference: string(l.TenantPreference),
		ContactNumber:    l.ContactNumber,
		Description:      l.Description,
		Photos:           make([]photoDoc, len(l.Photos)),
		CreatedAt:        l.CreatedAt,
		UpdatedAt:        l.UpdatedAt,
	}
	for i, p := range l.Photos {
		d.Photos[i] = photoDoc{ID: p.ID, URL: p.URL, ObjectKey: p.ObjectKey, CreatedAt: p.CreatedAt}
	}
	return d
}

func (d listingDoc) toDomain() *domain.Listing {
	l := &domain.Listing{
		ID:               d.ID,
		OwnerID:          d.OwnerID,
		Title:            d.Title,
		Location:         d.Location,
		Price:            d.Price,
		PropertyType:     domain.PropertyType(d.PropertyType),
		TenantPreference: domain.TenantPreference(d.TenantPreference),
		ContactNumber:    d.ContactNumber,
		Description:      d.Description,
		Photos:           make([]domain.Photo, len(d.Photos)),
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
	for i, p := range d.Photos {
		l.Photos[i] = domain.Photo{ID: p.ID, ListingID: d.ID, URL: p.URL, ObjectKey: p.ObjectKey, CreatedAt: p.CreatedAt}
	}
	return l
}

// Generation returns the current cache generation. Readers capture it before
// they query the store and write their result back under it, so an entry
// built from data older than the last write lands in a retired generation.
func (c *ListingCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// GetListing returns nil, nil on a miss.
func (c *ListingCache) GetListing(ctx context.Context, gen int64, id string) (*domain.Listing, error) {
	data, err := c.client.Get(ctx, ListingKey(gen, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var doc listingDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode cached listing %s: %w", id, err)
	}
	return doc.toDomain(), nil
}

func (c *ListingCache) SetListing(ctx context.Context, gen int64, listing *domain.Listing) error {
	data, err := json.Marshal(toDoc(listing))
	if err != nil {
		return err
	}
	return c.client.Set(ctx, ListingKey(gen, listing.ID), data, c.ttl).Err()
}

// GetSearch returns nil, nil on a miss.
func (c *ListingCache) GetSearch(ctx context.Context, gen int64, criteria domain.FilterCriteria, window domain.PageWindow) (*domain.SearchResult, error) {
	data, err := c.client.Get(ctx, SearchKey(gen, criteria, window)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var doc searchDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode cached search page: %w", err)
	}
	res := &domain.SearchResult{
		TotalCount: doc.TotalCount,
		Window:     domain.PageWindow{Page: doc.Page, Size: doc.Size},
		Items:      make([]*domain.Listing, len(doc.Items)),
	}
	for i, item := range doc.Items {
		res.Items[i] = item.toDomain()
	}
	return res, nil
}

func (c *ListingCache) SetSearch(ctx context.Context, gen int64, criteria domain.FilterCriteria, result *domain.SearchResult) error {
	doc := searchDoc{
		TotalCount: result.TotalCount,
		Page:       result.Window.Page,
		Size:       result.Window.Limit(),
		Items:      make([]listingDoc, len(result.Items)),
	}
	for i, l := range result.Items {
		doc.Items[i] = toDoc(l)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, SearchKey(gen, criteria, result.Window), data, c.ttl).Err()
}

// Invalidate retires the current generation. Every listing and search page
// cached so far becomes unreachable and expires on its own.
func (c *ListingCache) Invalidate(ctx context.Context) error {
	gen, err := c.client.Incr(ctx, generationKey).Result()
	if err != nil {
		return err
	}
	c.logger.Debug("Cache generation bumped", zap.Int64("generation", gen))
	return nil
}

// ListingKey is the cache key of one listing within generation gen.
func ListingKey(gen int64, id string) string {
	return fmt.Sprintf("%s%d:%s", listingKeyPrefix, gen, id)
}

// SearchKey derives the cache key of one search page. Criteria are hashed
// after case folding the free-text location, matching the store's
// case-insensitive filter.
func SearchKey(gen int64, criteria domain.FilterCriteria, window domain.PageWindow) string {
	maxPrice := "-"
	if criteria.MaxPrice != nil {
		maxPrice = strconv.FormatFloat(*criteria.MaxPrice, 'f', -1, 64)
	}
	raw := strings.Join([]string{
		strings.ToLower(criteria.Location),
		strings.ToLower(criteria.PropertyType),
		strings.ToLower(criteria.TenantPreference),
		maxPrice,
		criteria.OwnerID,
		strconv.Itoa(window.Page),
		strconv.Itoa(window.Limit()),
	}, "\x1f")
	sum := sha1.Sum([]byte(raw))
	return fmt.Sprintf("%s%d:%s", searchKeyPrefix, gen, hex.EncodeToString(sum[:]))
}
