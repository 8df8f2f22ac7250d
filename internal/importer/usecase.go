package importer

import (
	"context"

	"github.com/fekuna/omnipos-catalog-ingest/internal/importer/dto"
)

type UseCase interface {
	// Run imports datasets in order. It stops at the first dataset that hits
	// a fatal error; datasets imported before it stay in the store.
	Run(ctx context.Context, datasets []dto.Dataset) (*dto.RunStats, error)
	RunDataset(ctx context.Context, ds dto.Dataset) (*dto.DatasetStats, error)
}

// CacheInvalidator drops cached reads of the catalog after an import
// changed it.
type CacheInvalidator interface {
	InvalidateLists(ctx context.Context) error
}
