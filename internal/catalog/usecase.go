package catalog

import (
	"context"

	"github.com/fekuna/omnipos-catalog-ingest/internal/catalog/dto"
	"github.com/fekuna/omnipos-catalog-ingest/internal/model"
)

// UseCase is the read side of the catalog. Website and brand arguments
// accept either an identity or a natural key.
type UseCase interface {
	ListWebsites(ctx context.Context, page dto.Page) (*dto.List[model.Website], error)
	GetWebsite(ctx context.Context, website string) (*model.Website, error)
	ListBrands(ctx context.Context, page dto.Page) (*dto.List[model.Brand], error)
	ListWebsiteProducts(ctx context.Context, website string, page dto.Page) (*dto.List[model.Product], error)
	ListBrandProducts(ctx context.Context, brand string, page dto.Page) (*dto.List[model.Product], error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	GetProductBySKU(ctx context.Context, website, sku string) (*model.Product, error)

	// InvalidateLists drops every cached listing.
	InvalidateLists(ctx context.Context) error
}
