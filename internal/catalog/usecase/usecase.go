package usecase

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-catalog-ingest/internal/catalog"
	"github.com/fekuna/omnipos-catalog-ingest/internal/catalog/dto"
	"github.com/fekuna/omnipos-catalog-ingest/internal/model"
	"github.com/fekuna/omnipos-catalog-ingest/internal/pkg/cache"
	"github.com/fekuna/omnipos-catalog-ingest/internal/pkg/logger"
	"github.com/fekuna/omnipos-catalog-ingest/internal/pkg/metrics"
	productdto "github.com/fekuna/omnipos-catalog-ingest/internal/product/dto"
	"github.com/fekuna/omnipos-catalog-ingest/internal/text"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const listKeyPrefix = "catalog:list:"

type catalogUseCase struct {
	websites catalog.WebsiteRepository
	brands   catalog.BrandRepository
	products catalog.ProductRepository
	cache    *cache.RedisClient
	ttl      time.Duration
	metrics  *metrics.Metrics
	logger   logger.ZapLogger
}

// NewCatalogUseCase builds the read side. A nil cache disables list caching;
// m may be nil.
func NewCatalogUseCase(
	websites catalog.WebsiteRepository,
	brands catalog.BrandRepository,
	products catalog.ProductRepository,
	cache *cache.RedisClient,
	ttl time.Duration,
	m *metrics.Metrics,
	log logger.ZapLogger,
) catalog.UseCase {
	return &catalogUseCase{
		websites: websites,
		brands:   brands,
		products: products,
		cache:    cache,
		ttl:      ttl,
		metrics:  m,
		logger:   log,
	}
}

func (uc *catalogUseCase) ListWebsites(ctx context.Context, page dto.Page) (*dto.List[model.Website], error) {
	page = page.Normalize()
	return cachedList(ctx, uc, "websites", page, func() ([]model.Website, int, error) {
		return uc.websites.FindAll(ctx, page.Skip, page.Limit)
	})
}

func (uc *catalogUseCase) GetWebsite(ctx context.Context, website string) (*model.Website, error) {
	if isIdentity(website) {
		return uc.websites.FindByID(ctx, website)
	}
	return uc.websites.FindByUID(ctx, text.CleanUID(website))
}

func (uc *catalogUseCase) ListBrands(ctx context.Context, page dto.Page) (*dto.List[model.Brand], error) {
	page = page.Normalize()
	return cachedList(ctx, uc, "brands", page, func() ([]model.Brand, int, error) {
		return uc.brands.FindAll(ctx, page.Skip, page.Limit)
	})
}

func (uc *catalogUseCase) getBrand(ctx context.Context, brand string) (*model.Brand, error) {
	if isIdentity(brand) {
		return uc.brands.FindByID(ctx, brand)
	}
	return uc.brands.FindByUID(ctx, text.CleanUID(brand))
}

func (uc *catalogUseCase) ListWebsiteProducts(ctx context.Context, website string, page dto.Page) (*dto.List[model.Product], error) {
	w, err := uc.GetWebsite(ctx, website)
	if err != nil {
		return nil, err
	}
	return uc.listProducts(ctx, &productdto.ProductFilters{WebsiteID: w.ID}, page)
}

func (uc *catalogUseCase) ListBrandProducts(ctx context.Context, brand string, page dto.Page) (*dto.List[model.Product], error) {
	b, err := uc.getBrand(ctx, brand)
	if err != nil {
		return nil, err
	}
	return uc.listProducts(ctx, &productdto.ProductFilters{BrandID: b.ID}, page)
}

func (uc *catalogUseCase) listProducts(ctx context.Context, filters *productdto.ProductFilters, page dto.Page) (*dto.List[model.Product], error) {
	page = page.Normalize()
	filters.Skip, filters.Limit = page.Skip, page.Limit
	return cachedList(ctx, uc, "products", filters, func() ([]model.Product, int, error) {
		return uc.products.FindAll(ctx, filters)
	})
}

func (uc *catalogUseCase) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	if !isIdentity(id) {
		return nil, model.ErrNotFound
	}
	return uc.products.FindByID(ctx, id)
}

func (uc *catalogUseCase) GetProductBySKU(ctx context.Context, website, sku string) (*model.Product, error) {
	w, err := uc.GetWebsite(ctx, website)
	if err != nil {
		return nil, err
	}
	return uc.products.FindBySKU(ctx, w.ID, sku)
}

func (uc *catalogUseCase) InvalidateLists(ctx context.Context) error {
	if uc.cache == nil {
		return nil
	}
	keys, err := uc.cache.Client.Keys(ctx, listKeyPrefix+"*").Result()
	if err != nil {
		return fmt.Errorf("list cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return uc.cache.Client.Del(ctx, keys...).Err()
}

// cachedList serves a listing from the cache when present and stores the
// loaded result otherwise. Cache failures only cost a database round trip.
func cachedList[T any](
	ctx context.Context,
	uc *catalogUseCase,
	kind string,
	params any,
	load func() ([]T, int, error),
) (*dto.List[T], error) {
	key := ""
	if uc.cache != nil {
		if k, err := cacheKey(kind, params); err == nil {
			key = k
		}
	}

	if key != "" {
		val, err := uc.cache.Client.Get(ctx, key).Result()
		if err == nil {
			var hit dto.List[T]
			if err := json.Unmarshal([]byte(val), &hit); err == nil {
				uc.metrics.CacheHit(kind, true)
				return &hit, nil
			}
		}
		uc.metrics.CacheHit(kind, false)
	}

	items, total, err := load()
	if err != nil {
		return nil, err
	}
	list := &dto.List[T]{Items: items, Total: total}
	switch p := params.(type) {
	case dto.Page:
		list.Skip, list.Limit = p.Skip, p.Limit
	case *productdto.ProductFilters:
		list.Skip, list.Limit = p.Skip, p.Limit
	}

	if key != "" {
		if data, err := json.Marshal(list); err == nil {
			if err := uc.cache.Client.Set(ctx, key, data, uc.ttl).Err(); err != nil {
				uc.logger.Warn("Failed to cache listing", zap.String("key", key), zap.Error(err))
			}
		}
	}
	return list, nil
}

func cacheKey(kind string, params any) (string, error) {
	data, err := json.Marshal(params)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%s:%x", listKeyPrefix, kind, md5.Sum(data)), nil
}

func isIdentity(s string) bool {
	return uuid.Validate(s) == nil
}
