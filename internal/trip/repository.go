package trip

import "context"

// DefaultListLimit is used when ListOptions.Limit is not positive.
const DefaultListLimit = 50

// ListOptions contains options for listing saved itineraries.
type ListOptions struct {
	Limit int
	// Cursor is the ID of the last item of the previous page.
	Cursor string
}

// ListResult contains the results of listing saved itineraries.
type ListResult struct {
	Items      []*SavedItinerary
	NextCursor string
}

// Repository defines the interface for saved itinerary persistence.
type Repository interface {
	// Get retrieves an itinerary by ID regardless of owner.
	Get(ctx context.Context, id string) (*SavedItinerary, error)

	// GetByUserAndID retrieves an itinerary by user ID and itinerary ID.
	// Returns ErrTripNotFound if it doesn't exist or doesn't belong to the user.
	GetByUserAndID(ctx context.Context, userID, id string) (*SavedItinerary, error)

	// List retrieves a user's itineraries, newest first.
	List(ctx context.Context, userID string, opts ListOptions) (*ListResult, error)

	Create(ctx context.Context, it *SavedItinerary) error

	// Update replaces the mutable fields of an existing itinerary.
	Update(ctx context.Context, it *SavedItinerary) error

	Delete(ctx context.Context, id string) error
}

func listLimit(opts ListOptions) int {
	if opts.Limit <= 0 {
		return DefaultListLimit
	}
	return opts.Limit
}
