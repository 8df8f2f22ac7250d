package listing

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-catalog-ingest/internal/listing/dto"
	"github.com/fekuna/omnipos-catalog-ingest/internal/model"
	"github.com/fekuna/omnipos-catalog-ingest/internal/source"
)

type UseCase interface {
	// EnsurePage gets or creates the page a listing record describes.
	EnsurePage(ctx context.Context, rec *source.Record, data *source.ListingData, websiteID string) (*model.ProductListingPage, error)

	// Link attaches the items of a listing record to the products they point
	// at. Per-item failures are counted, not returned; the error is non-nil
	// only when the store is unavailable or ctx is done.
	Link(ctx context.Context, rec *source.Record, items []source.ListingItem, pageID string) (dto.LinkStats, error)

	// DeletePages removes pages and every embedded item pointing at them.
	DeletePages(ctx context.Context, ids []string) (*dto.DeleteResult, error)
	DeleteByURL(ctx context.Context, url string, crawledAt *time.Time) (*dto.DeleteResult, error)
}

// Quarantine receives the raw body of a page that could not be ingested.
type Quarantine interface {
	Write(kind, identity, body string) string
}
