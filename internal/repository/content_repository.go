package repository

import (
	"context"

	"go-content-moderator/internal/storage"
	"go-content-moderator/pkg/validation"
)

// ContentRepository defines content access for the URL-based synchronous
// analysis path.
type ContentRepository interface {
	// FetchContent retrieves content bytes from a URL.
	FetchContent(ctx context.Context, contentURL string) ([]byte, error)

	// ValidateContentURL validates if the provided URL is acceptable.
	ValidateContentURL(contentURL string) error
}

// HTTPContentRepository implements ContentRepository over an HTTP fetcher.
type HTTPContentRepository struct {
	fetcher   storage.ContentFetcher
	validator *validation.URLValidator
}

func NewHTTPContentRepository(fetcher storage.ContentFetcher) ContentRepository {
	return &HTTPContentRepository{
		fetcher:   fetcher,
		validator: validation.NewURLValidator(),
	}
}

// FetchContent retrieves the raw content bytes behind a URL.
func (r *HTTPContentRepository) FetchContent(ctx context.Context, contentURL string) ([]byte, error) {
	return r.fetcher.Fetch(ctx, contentURL)
}

// ValidateContentURL validates if the provided URL is acceptable.
func (r *HTTPContentRepository) ValidateContentURL(contentURL string) error {
	return r.validator.ValidateContentURL(contentURL)
}
