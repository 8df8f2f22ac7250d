package website

import (
	"context"

	"github.com/fekuna/omnipos-catalog-ingest/internal/model"
)

type Repository interface {
	FindOne(ctx context.Context, filter map[string]any) (*model.Website, error)
	Insert(ctx context.Context, w *model.Website) error
	FindByID(ctx context.Context, id string) (*model.Website, error)
	FindByUID(ctx context.Context, uid string) (*model.Website, error)
}
