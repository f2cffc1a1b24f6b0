// Package imagery resolves representative image URLs for places. Lookups walk
// an ordered list of strategies and always end in a static image, so callers
// never see an error.
package imagery

import (
	"context"
	"errors"
)

// Photo search errors.
var (
	ErrNoResults = errors.New("no images found")
)

// Photo is one photo search result.
type Photo struct {
	ID  string
	URL string

	// City and Country are set when the photographer tagged a location.
	City    string
	Country string
}

// HasLocation reports whether the photo carries location data.
func (p Photo) HasLocation() bool {
	return p.City != "" || p.Country != ""
}

// PhotoSearcher searches a photo provider.
type PhotoSearcher interface {
	Name() string
	SearchPhotos(ctx context.Context, query string, perPage int) ([]Photo, error)
}

// Cache stores resolved image URLs. Implementations must be safe for
// concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, url string)
}
