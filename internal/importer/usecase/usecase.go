package usecase

import (
	"context"
	"fmt"

	"github.com/fekuna/omnipos-catalog-ingest/internal/brand"
	"github.com/fekuna/omnipos-catalog-ingest/internal/importer"
	"github.com/fekuna/omnipos-catalog-ingest/internal/importer/dto"
	"github.com/fekuna/omnipos-catalog-ingest/internal/listing"
	listingdto "github.com/fekuna/omnipos-catalog-ingest/internal/listing/dto"
	"github.com/fekuna/omnipos-catalog-ingest/internal/model"
	"github.com/fekuna/omnipos-catalog-ingest/internal/pkg/logger"
	"github.com/fekuna/omnipos-catalog-ingest/internal/product"
	"github.com/fekuna/omnipos-catalog-ingest/internal/resolver"
	"github.com/fekuna/omnipos-catalog-ingest/internal/source"
	"github.com/fekuna/omnipos-catalog-ingest/internal/text"
	"github.com/fekuna/omnipos-catalog-ingest/internal/website"
	"go.uber.org/zap"
)

const defaultProgressEvery = 20

// passes run in this order; listing items can only link to products that
// the detail pass has already stored.
var passes = []source.PageType{source.PageDetail, source.PageListing}

type Options struct {
	ProgressEvery int
	OnProgress    dto.ProgressFunc
	Invalidator   importer.CacheInvalidator
}

type importerUseCase struct {
	websites   website.Repository
	brands     brand.Repository
	products   product.Repository
	listings   listing.UseCase
	refs       *resolver.References
	quarantine listing.Quarantine
	opts       Options
	logger     logger.ZapLogger
}

func NewImporterUseCase(
	websites website.Repository,
	brands brand.Repository,
	products product.Repository,
	listings listing.UseCase,
	refs *resolver.References,
	quarantine listing.Quarantine,
	opts Options,
	log logger.ZapLogger,
) importer.UseCase {
	if opts.ProgressEvery <= 0 {
		opts.ProgressEvery = defaultProgressEvery
	}
	return &importerUseCase{
		websites:   websites,
		brands:     brands,
		products:   products,
		listings:   listings,
		refs:       refs,
		quarantine: quarantine,
		opts:       opts,
		logger:     log,
	}
}

func (uc *importerUseCase) Run(ctx context.Context, datasets []dto.Dataset) (*dto.RunStats, error) {
	run := &dto.RunStats{}
	for _, ds := range datasets {
		stats, err := uc.RunDataset(ctx, ds)
		if stats != nil {
			run.Datasets = append(run.Datasets, stats)
		}
		if err != nil {
			return run, fmt.Errorf("dataset %s (%s): %w", ds.Website, ds.Path, err)
		}
	}

	uc.logger.Info("Import finished",
		zap.Int("datasets", len(run.Datasets)),
		zap.Int("ok", run.Succeeded()),
		zap.Int("failed", run.Failed()),
		zap.Int("skipped", run.Skipped()),
		zap.Int("link_failed", run.LinkFailures()),
		zap.Int("total", run.Attempted()),
	)
	return run, nil
}

func (uc *importerUseCase) RunDataset(ctx context.Context, ds dto.Dataset) (*dto.DatasetStats, error) {
	log := uc.logger.With(zap.String("website", ds.Website))

	site, err := resolver.Ensure[*model.Website](ctx, uc.websites, nil, &model.Website{Website: ds.Website, URI: ds.URI})
	if err != nil {
		return nil, fmt.Errorf("ensure website: %w", err)
	}

	lines, err := source.CountLines(ds.Path)
	if err != nil {
		return nil, err
	}

	stats := &dto.DatasetStats{Website: ds.Website, WebsiteID: site.ID, Path: ds.Path}
	reader := source.NewReader(ds.Path, ds.Extractor)

	log.Info("Start importing", zap.String("path", ds.Path), zap.Int("lines", lines))
	for i, pageType := range passes {
		ps, err := uc.runPass(ctx, reader, ds.Website, site.ID, i+1, pageType, lines)
		stats.Passes = append(stats.Passes, ps)
		if err != nil {
			return stats, fmt.Errorf("%s pass: %w", pageType, err)
		}
		log.Info("Finished pass",
			zap.Int("pass", ps.Pass),
			zap.String("page_type", string(ps.PageType)),
			zap.Int("ok", ps.Succeeded),
			zap.Int("failed", ps.Failed),
			zap.Int("skipped", ps.Skipped),
			zap.Int("linked", ps.Link.Linked),
			zap.Int("not_found", ps.Link.NotFound),
			zap.Int("insufficient_data", ps.Link.InsufficientData),
			zap.Int("link_failed", ps.Link.Failed),
		)
	}

	if uc.opts.Invalidator != nil {
		if err := uc.opts.Invalidator.InvalidateLists(ctx); err != nil {
			log.Warn("Failed to invalidate catalog cache", zap.Error(err))
		}
	}

	log.Info("Finished importing",
		zap.String("path", ds.Path),
		zap.Int("ok", stats.Succeeded()),
		zap.Int("failed", stats.Failed()),
		zap.Int("skipped", stats.Skipped()),
		zap.Int("link_failed", stats.LinkFailures()),
		zap.Int("total", stats.Attempted()),
	)
	return stats, nil
}

func (uc *importerUseCase) runPass(
	ctx context.Context,
	reader *source.Reader,
	websiteName, websiteID string,
	pass int,
	pageType source.PageType,
	lines int,
) (dto.PassStats, error) {
	ps := dto.PassStats{Pass: pass, PageType: pageType, Lines: lines}
	log := uc.logger.With(zap.String("website", websiteName), zap.Int("pass", pass))
	reported := map[int]bool{}

	err := reader.Each(ctx, func(line int, rec *source.Record, decodeErr error) error {
		switch {
		case decodeErr != nil:
			// Lines that belong to no pass are charged to the first one only.
			if pass == 1 {
				ps.Attempted++
				ps.Failed++
				log.Error("Failed to decode record", zap.Int("line", line), zap.Error(decodeErr))
			}

		case rec.PageType == pageType:
			if !rec.ExtractOK {
				ps.Skipped++
				break
			}
			ps.Attempted++

			err := uc.process(ctx, rec, websiteID, &ps.Link)
			if err != nil {
				if model.IsFatal(err) {
					return err
				}
				ps.Failed++
				log.Error("Failed to import record",
					zap.Int("line", line),
					zap.String("page_url", rec.PageURL),
					zap.String("crawled_at", rec.CrawledAt),
					zap.Error(err),
				)
				break
			}
			ps.Succeeded++

		case rec.PageType != source.PageDetail && rec.PageType != source.PageListing:
			if pass == 1 {
				ps.Attempted++
				ps.Failed++
				log.Error("Failed to import record",
					zap.Int("line", line),
					zap.String("page_url", rec.PageURL),
					zap.Error(fmt.Errorf("%w: %q", source.ErrUnknownPageType, rec.PageType)),
				)
			}
		}

		uc.progress(websiteName, &ps, line, reported)
		return nil
	})
	return ps, err
}

// progress reports every ProgressEvery lines, on the first line to reach
// each even percentage, and on the last line.
func (uc *importerUseCase) progress(websiteName string, ps *dto.PassStats, line int, reported map[int]bool) {
	pct := text.Percentage(line, ps.Lines)
	due := line%uc.opts.ProgressEvery == 0 ||
		(pct%2 == 0 && !reported[pct]) ||
		line == ps.Lines
	if !due {
		return
	}
	reported[pct] = true

	p := dto.Progress{
		Website:   websiteName,
		Pass:      ps.Pass,
		PageType:  ps.PageType,
		Line:      line,
		Lines:     ps.Lines,
		Percent:   pct,
		Succeeded: ps.Succeeded,
		Failed:    ps.Failed,
	}
	uc.logger.Debug("Import progress",
		zap.String("website", p.Website),
		zap.Int("pass", p.Pass),
		zap.Int("line", p.Line),
		zap.Int("percent", p.Percent),
	)
	if uc.opts.OnProgress != nil {
		uc.opts.OnProgress(p)
	}
}

func (uc *importerUseCase) process(ctx context.Context, rec *source.Record, websiteID string, link *listingdto.LinkStats) error {
	switch rec.PageType {
	case source.PageDetail:
		return uc.importDetail(ctx, rec, websiteID)
	case source.PageListing:
		stats, err := uc.importListing(ctx, rec, websiteID)
		link.Add(stats)
		return err
	}
	return fmt.Errorf("%w: %q", source.ErrUnknownPageType, rec.PageType)
}

func (uc *importerUseCase) importDetail(ctx context.Context, rec *source.Record, websiteID string) error {
	data, err := rec.Detail()
	if err != nil {
		return err
	}
	crawledAt, err := rec.CrawledTime()
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrInvalidDocument, err)
	}
	item := data.Item

	var brandID string
	if item.BrandName != "" {
		b, err := resolver.Ensure[*model.Brand](ctx, uc.brands, nil, &model.Brand{Brand: item.BrandName})
		if err != nil {
			return fmt.Errorf("ensure brand %q: %w", item.BrandName, err)
		}
		brandID = b.ID
	}

	p := &model.Product{
		SKU:                item.SKU,
		Name:               item.ArticleName,
		ProductType:        item.ArticleType,
		URL:                rec.PageURL,
		CrawledAt:          crawledAt,
		Price:              item.SalePrice,
		OnSale:             item.OnSale,
		DiscountPercentage: item.DiscountPercentage,
		Properties:         item.ExtraProps,
		BrandID:            brandID,
		WebsiteID:          websiteID,
	}
	if _, err := resolver.Ensure[*model.Product](ctx, uc.products, uc.refs, p); err != nil {
		if !model.IsFatal(err) {
			uc.quarantine.Write("detail", websiteID, rec.Body)
		}
		return fmt.Errorf("ensure product %q: %w", item.SKU, err)
	}
	return nil
}

func (uc *importerUseCase) importListing(ctx context.Context, rec *source.Record, websiteID string) (listingdto.LinkStats, error) {
	data, err := rec.Listing()
	if err != nil {
		return listingdto.LinkStats{}, err
	}

	pl, err := uc.listings.EnsurePage(ctx, rec, data, websiteID)
	if err != nil {
		return listingdto.LinkStats{}, fmt.Errorf("ensure listing page: %w", err)
	}

	stats, err := uc.listings.Link(ctx, rec, data.Items, pl.ID)
	if err != nil {
		return stats, err
	}

	uc.logger.Debug("Linked listing page",
		zap.String("path", text.URLPath(rec.PageURL)),
		zap.Int("linked", stats.Linked),
		zap.Int("not_found", stats.NotFound),
		zap.Int("insufficient_data", stats.InsufficientData),
		zap.Int("failed", stats.Failed),
		zap.Int("total", stats.Total),
	)
	return stats, nil
}
