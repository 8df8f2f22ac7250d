package listing

import (
	"context"

	"github.com/fekuna/omnipos-catalog-ingest/internal/model"
)

type Repository interface {
	FindOne(ctx context.Context, filter map[string]any) (*model.ProductListingPage, error)
	Insert(ctx context.Context, pl *model.ProductListingPage) error
	FindByID(ctx context.Context, id string) (*model.ProductListingPage, error)
	FindMany(ctx context.Context, filter map[string]any) ([]model.ProductListingPage, error)
	Delete(ctx context.Context, ids []string) (int64, error)
}
