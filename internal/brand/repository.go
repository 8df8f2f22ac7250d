package brand

import (
	"context"

	"github.com/fekuna/omnipos-catalog-ingest/internal/model"
)

type Repository interface {
	FindOne(ctx context.Context, filter map[string]any) (*model.Brand, error)
	Insert(ctx context.Context, b *model.Brand) error
	FindByID(ctx context.Context, id string) (*model.Brand, error)
	FindByUID(ctx context.Context, uid string) (*model.Brand, error)
}
