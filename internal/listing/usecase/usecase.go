package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-catalog-ingest/internal/listing"
	"github.com/fekuna/omnipos-catalog-ingest/internal/listing/dto"
	"github.com/fekuna/omnipos-catalog-ingest/internal/model"
	"github.com/fekuna/omnipos-catalog-ingest/internal/pkg/logger"
	"github.com/fekuna/omnipos-catalog-ingest/internal/product"
	"github.com/fekuna/omnipos-catalog-ingest/internal/resolver"
	"github.com/fekuna/omnipos-catalog-ingest/internal/source"
	"github.com/fekuna/omnipos-catalog-ingest/internal/text"
	"github.com/lib/pq"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type listingUseCase struct {
	pages      listing.Repository
	products   product.Repository
	refs       *resolver.References
	quarantine listing.Quarantine
	logger     logger.ZapLogger
}

func NewListingUseCase(
	pages listing.Repository,
	products product.Repository,
	refs *resolver.References,
	quarantine listing.Quarantine,
	log logger.ZapLogger,
) listing.UseCase {
	return &listingUseCase{
		pages:      pages,
		products:   products,
		refs:       refs,
		quarantine: quarantine,
		logger:     log,
	}
}

func (uc *listingUseCase) EnsurePage(ctx context.Context, rec *source.Record, data *source.ListingData, websiteID string) (*model.ProductListingPage, error) {
	crawledAt, err := rec.CrawledTime()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidDocument, err)
	}

	size := data.NumberOfItems
	if size == 0 {
		size = len(data.Items)
	}

	pl := &model.ProductListingPage{
		PageNumber:      rec.PageNumber,
		PageListingSize: size,
		Category:        pq.StringArray(rec.ProductCategory),
		SortedBy:        rec.Ordering,
		URL:             rec.PageURL,
		CrawledAt:       crawledAt,
		WebsiteID:       websiteID,
	}
	return resolver.Ensure[*model.ProductListingPage](ctx, uc.pages, uc.refs, pl)
}

func (uc *listingUseCase) Link(ctx context.Context, rec *source.Record, items []source.ListingItem, pageID string) (dto.LinkStats, error) {
	var stats dto.LinkStats

	for i, item := range items {
		if item.DetailPageURL == "" {
			continue
		}
		stats.Total++

		path := text.URLPath(item.DetailPageURL)
		p, err := uc.products.FindLatestByPath(ctx, path)
		if err != nil {
			if model.IsFatal(err) {
				return stats, err
			}
			if errors.Is(err, model.ErrNotFound) {
				uc.logger.Debug("No product matches listing item", zap.String("path", path))
				stats.NotFound++
				continue
			}
			uc.logger.Error("Failed to look up listing item product", zap.String("path", path), zap.Error(err))
			stats.Failed++
			continue
		}

		li := &model.ProductListingItem{
			Position:           i + 1,
			Price:              item.SalePrice,
			OnSale:             item.OnSale,
			DiscountPercentage: item.DiscountPercentage,
			ListingProps:       item.ListingProps,
			Listing:            pageID,
		}
		if err := li.Clean(); err != nil {
			uc.logger.Error("Insufficient listing item data",
				zap.String("page_url", rec.PageURL),
				zap.Int("position", i+1),
				zap.Error(err),
			)
			uc.quarantine.Write("listing", pageID, rec.Body)
			stats.InsufficientData++
			continue
		}

		if p.HasListing(pageID) {
			stats.Linked++
			continue
		}

		wrote, err := uc.products.AppendListing(ctx, p.ID, li)
		if err == nil && !wrote {
			err = uc.confirmLinked(ctx, p.ID, pageID)
		}
		if err != nil {
			if model.IsFatal(err) {
				return stats, err
			}
			if errors.Is(err, model.ErrNotFound) {
				uc.logger.Debug("Listing item product disappeared", zap.String("product_id", p.ID))
				stats.NotFound++
				continue
			}
			uc.logger.Error("Failed to append listing item",
				zap.String("product_id", p.ID),
				zap.String("page_url", rec.PageURL),
				zap.Error(err),
			)
			uc.quarantine.Write("listing", fmt.Sprintf("%s-%d", pageID, i), rec.Body)
			stats.Failed++
			continue
		}
		stats.Linked++
	}

	return stats, nil
}

// confirmLinked re-reads a product whose append wrote nothing. The page is
// linked when another writer embedded it first; model.ErrNotFound means the
// product is gone.
func (uc *listingUseCase) confirmLinked(ctx context.Context, productID, pageID string) error {
	p, err := uc.products.FindByID(ctx, productID)
	if err != nil {
		return err
	}
	if !p.HasListing(pageID) {
		return errors.New("append matched no product row")
	}
	return nil
}

func (uc *listingUseCase) DeletePages(ctx context.Context, ids []string) (*dto.DeleteResult, error) {
	result := &dto.DeleteResult{}
	if len(ids) == 0 {
		return result, nil
	}

	targets := make(map[string]bool, len(ids))
	for _, id := range ids {
		targets[id] = true
	}

	products, err := uc.products.FindByListingIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("find products by listing: %w", err)
	}

	var errs error
	blocked := map[string]bool{}
	for i := range products {
		p := &products[i]

		var referenced []string
		for _, l := range p.Listings {
			if targets[l.Listing] {
				referenced = append(referenced, l.Listing)
			}
		}
		if !p.RemoveListings(targets) {
			continue
		}

		if err := uc.products.ReplaceListings(ctx, p); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("product %s: %w", p.ID, err))
			for _, id := range referenced {
				blocked[id] = true
			}
			continue
		}
		result.ProductsUpdated++
	}

	deletable := make([]string, 0, len(ids))
	for _, id := range ids {
		if !blocked[id] {
			deletable = append(deletable, id)
		}
	}
	result.PagesKept = len(ids) - len(deletable)

	if len(deletable) > 0 {
		n, err := uc.pages.Delete(ctx, deletable)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("delete pages: %w", err))
		}
		result.PagesDeleted = n
	}

	uc.logger.Info("Deleted listing pages",
		zap.Int64("deleted", result.PagesDeleted),
		zap.Int("kept", result.PagesKept),
		zap.Int("products_updated", result.ProductsUpdated),
	)
	return result, errs
}

func (uc *listingUseCase) DeleteByURL(ctx context.Context, url string, crawledAt *time.Time) (*dto.DeleteResult, error) {
	filter := map[string]any{"url": url}
	if crawledAt != nil {
		filter["crawled_at"] = model.StoredTime(*crawledAt)
	}

	pages, err := uc.pages.FindMany(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find listing pages: %w", err)
	}

	ids := make([]string, 0, len(pages))
	for _, pl := range pages {
		ids = append(ids, pl.ID)
	}
	return uc.DeletePages(ctx, ids)
}
