package catalog

import (
	"context"

	"github.com/fekuna/omnipos-catalog-ingest/internal/model"
	"github.com/fekuna/omnipos-catalog-ingest/internal/product/dto"
)

type WebsiteRepository interface {
	FindByID(ctx context.Context, id string) (*model.Website, error)
	FindByUID(ctx context.Context, uid string) (*model.Website, error)
	FindAll(ctx context.Context, skip, limit int) ([]model.Website, int, error)
}

type BrandRepository interface {
	FindByID(ctx context.Context, id string) (*model.Brand, error)
	FindByUID(ctx context.Context, uid string) (*model.Brand, error)
	FindAll(ctx context.Context, skip, limit int) ([]model.Brand, int, error)
}

type ProductRepository interface {
	FindByID(ctx context.Context, id string) (*model.Product, error)
	FindBySKU(ctx context.Context, websiteID, sku string) (*model.Product, error)
	FindAll(ctx context.Context, f *dto.ProductFilters) ([]model.Product, int, error)
}
