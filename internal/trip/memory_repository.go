package trip

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// It is used in tests and when no database is configured.
type InMemoryRepository struct {
	mu    sync.RWMutex
	trips map[string]*SavedItinerary
}

// NewInMemoryRepository creates a new in-memory itinerary repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		trips: make(map[string]*SavedItinerary),
	}
}

// Get retrieves an itinerary by ID.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*SavedItinerary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	it, ok := r.trips[id]
	if !ok {
		return nil, ErrTripNotFound
	}
	return it.clone(), nil
}

// GetByUserAndID retrieves an itinerary owned by userID.
func (r *InMemoryRepository) GetByUserAndID(_ context.Context, userID, id string) (*SavedItinerary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	it, ok := r.trips[id]
	if !ok || it.UserID != userID {
		return nil, ErrTripNotFound
	}
	return it.clone(), nil
}

// List retrieves a user's itineraries ordered by creation time, newest first.
func (r *InMemoryRepository) List(_ context.Context, userID string, opts ListOptions) (*ListResult, error) {
	r.mu.RLock()
	var items []*SavedItinerary
	for _, it := range r.trips {
		if it.UserID == userID {
			items = append(items, it.clone())
		}
	}
	r.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID > items[j].ID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	if opts.Cursor != "" {
		for i, it := range items {
			if it.ID == opts.Cursor {
				items = items[i+1:]
				break
			}
		}
	}

	limit := listLimit(opts)
	result := &ListResult{Items: items}
	if len(items) > limit {
		result.Items = items[:limit]
		result.NextCursor = items[limit-1].ID
	}
	return result, nil
}

// Create stores a new itinerary.
func (r *InMemoryRepository) Create(_ context.Context, it *SavedItinerary) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.trips[it.ID] = it.clone()
	return nil
}

// Update replaces an existing itinerary. OriginalDays and CreatedAt are kept.
func (r *InMemoryRepository) Update(_ context.Context, it *SavedItinerary) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.trips[it.ID]
	if !ok {
		return ErrTripNotFound
	}

	cpy := it.clone()
	cpy.UserID = existing.UserID
	cpy.OriginalDays = existing.OriginalDays
	cpy.CreatedAt = existing.CreatedAt
	r.trips[it.ID] = cpy
	return nil
}

// Delete removes an itinerary by ID.
func (r *InMemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.trips, id)
	return nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
