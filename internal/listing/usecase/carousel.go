package usecase

import "sync"

// CarouselState tracks the displayed photo index per listing. Indices are
// never persisted; an unknown id reads as 0.
type CarouselState struct {
	mu      sync.RWMutex
	indices map[string]int
}

func NewCarouselState() *CarouselState {
	return &CarouselState{indices: make(map[string]int)}
}

// Current returns the index for listingID, 0 if none was recorded.
func (c *CarouselState) Current(listingID string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.indices[listingID]
}

// Advance moves to the next photo, wrapping to 0 after the last one.
// It is a no-op when photoCount is not positive.
func (c *CarouselState) Advance(listingID string, photoCount int) int {
	return c.step(listingID, photoCount, 1)
}

// Retreat moves to the previous photo, wrapping from 0 to photoCount-1.
func (c *CarouselState) Retreat(listingID string, photoCount int) int {
	return c.step(listingID, photoCount, -1)
}

func (c *CarouselState) step(listingID string, photoCount, delta int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if photoCount <= 0 {
		return c.indices[listingID]
	}
	// A stored index can exceed the count after photos were removed.
	next := ((c.indices[listingID]+delta)%photoCount + photoCount) % photoCount
	c.indices[listingID] = next
	return next
}

// Reset forgets every position. Called when a new page of results replaces
// the current one.
func (c *CarouselState) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.indices = make(map[string]int)
}

func (c *CarouselState) Forget(listingID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.indices, listingID)
}

// Retain drops every id not in keep.
func (c *CarouselState) Retain(keep []string) {
	set := make(map[string]struct{}, len(keep))
	for _, id := range keep {
		set[id] = struct{}{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for id := range c.indices {
		if _, ok := set[id]; !ok {
			delete(c.indices, id)
		}
	}
}

// Len reports how many listings have a recorded position.
func (c *CarouselState) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.indices)
}
