package product

import (
	"context"

	"github.com/fekuna/omnipos-catalog-ingest/internal/model"
)

type Repository interface {
	FindOne(ctx context.Context, filter map[string]any) (*model.Product, error)
	Insert(ctx context.Context, p *model.Product) error
	FindByID(ctx context.Context, id string) (*model.Product, error)

	// FindLatestByPath returns the most recently crawled snapshot at path.
	FindLatestByPath(ctx context.Context, path string) (*model.Product, error)

	// AppendListing adds item to the product's listings unless an item for
	// the same page is already embedded. It reports whether it wrote.
	AppendListing(ctx context.Context, productID string, item *model.ProductListingItem) (bool, error)

	FindByListingIDs(ctx context.Context, pageIDs []string) ([]model.Product, error)
	ReplaceListings(ctx context.Context, p *model.Product) error
}
