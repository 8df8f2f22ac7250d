package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/fekuna/omnipos-catalog-ingest/config"
	brandRepoPkg "github.com/fekuna/omnipos-catalog-ingest/internal/brand/repository"
	catalogUCPkg "github.com/fekuna/omnipos-catalog-ingest/internal/catalog/usecase"
	"github.com/fekuna/omnipos-catalog-ingest/internal/extract"
	"github.com/fekuna/omnipos-catalog-ingest/internal/importer"
	"github.com/fekuna/omnipos-catalog-ingest/internal/importer/dto"
	importerUCPkg "github.com/fekuna/omnipos-catalog-ingest/internal/importer/usecase"
	listingUCPkg "github.com/fekuna/omnipos-catalog-ingest/internal/listing/usecase"
	"github.com/fekuna/omnipos-catalog-ingest/internal/pkg/cache"
	"github.com/fekuna/omnipos-catalog-ingest/internal/pkg/logger"
	prodRepoPkg "github.com/fekuna/omnipos-catalog-ingest/internal/product/repository"
	"github.com/fekuna/omnipos-catalog-ingest/internal/quarantine"
	websiteRepoPkg "github.com/fekuna/omnipos-catalog-ingest/internal/website/repository"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type runOptions struct {
	datasetsFile  string
	quarantineDir string
	websites      []string
	progressEvery int
	dryRun        bool
	migrate       bool
	quiet         bool
}

func newRunCommand(cfg *config.Config) *cobra.Command {
	opts := runOptions{
		datasetsFile:  cfg.Import.DatasetsFile,
		quarantineDir: cfg.Import.QuarantineDir,
		websites:      cfg.Import.Websites,
		progressEvery: cfg.Import.ProgressEvery,
	}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Import every configured dataset",
		Long: `Import every configured dataset in two passes: product detail pages
first, then product listing pages linked to the products stored by the first pass.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runImport(cmd, cfg, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.datasetsFile, "datasets", opts.datasetsFile, "dataset list (YAML)")
	flags.StringVar(&opts.quarantineDir, "quarantine-dir", opts.quarantineDir, "directory for bodies of pages that failed to import")
	flags.StringSliceVar(&opts.websites, "website", opts.websites, "only import these websites (repeatable)")
	flags.IntVar(&opts.progressEvery, "progress-every", opts.progressEvery, "report progress every N lines")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "import into process memory instead of PostgreSQL")
	flags.BoolVar(&opts.migrate, "migrate", false, "apply schema migrations before importing")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "do not print progress")
	return cmd
}

func runImport(cmd *cobra.Command, cfg *config.Config, opts runOptions) error {
	appLogger := newLogger(cfg)
	defer appLogger.Sync()

	// 1. Datasets
	all, err := config.LoadDatasets(opts.datasetsFile)
	if err != nil {
		return err
	}
	selected := config.FilterDatasets(all, opts.websites)
	if len(selected) == 0 {
		return errors.New("no dataset matches the website filter")
	}
	datasets := make([]dto.Dataset, 0, len(selected))
	for _, ds := range selected {
		d := dto.Dataset{Provider: ds.Provider, Website: ds.Website, URI: ds.URI, Path: ds.Path}
		if ds.Selectors != nil {
			d.Extractor = extract.NewSelectorExtractor(*ds.Selectors)
		}
		datasets = append(datasets, d)
	}

	// 2. Stores
	var (
		s           stores
		invalidator importer.CacheInvalidator
	)
	if opts.dryRun {
		appLogger.Info("Dry run: importing into memory")
		s = memoryStores()
	} else {
		db, err := openPostgres(cfg, appLogger)
		if err != nil {
			return err
		}
		defer db.Close()
		if opts.migrate {
			if err := migrate(db, appLogger); err != nil {
				return err
			}
		}
		s = postgresStores(db)

		if rc := openCache(cfg, appLogger); rc != nil {
			defer rc.Close()
			invalidator = newCatalogInvalidator(db, rc, cfg, appLogger)
		}
	}

	// 3. Use cases
	sink := quarantine.NewSink(opts.quarantineDir, appLogger)
	listings := listingUCPkg.NewListingUseCase(s.pages, s.products, s.refs, sink, appLogger)
	importOpts := importerUCPkg.Options{
		ProgressEvery: opts.progressEvery,
		Invalidator:   invalidator,
	}
	if !opts.quiet {
		importOpts.OnProgress = progressPrinter(cmd.ErrOrStderr())
	}
	uc := importerUCPkg.NewImporterUseCase(s.websites, s.brands, s.products, listings, s.refs, sink, importOpts, appLogger)

	// 4. Run
	stats, runErr := uc.Run(cmd.Context(), datasets)
	if stats != nil {
		renderSummary(cmd.OutOrStdout(), stats)
	}
	if runErr != nil {
		appLogger.Error("Import aborted", zap.Error(runErr))
	}
	return runErr
}

// openCache connects to the query API cache. Without one the import still
// runs; the API then serves stale lists until their TTL expires.
func openCache(cfg *config.Config, log logger.ZapLogger) *cache.RedisClient {
	if cfg.Redis.Addr == "" {
		return nil
	}
	rc, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn("Could not connect to Redis, catalog cache will not be invalidated", zap.Error(err))
		return nil
	}
	return rc
}

func newCatalogInvalidator(db *sqlx.DB, rc *cache.RedisClient, cfg *config.Config, log logger.ZapLogger) importer.CacheInvalidator {
	return catalogUCPkg.NewCatalogUseCase(
		websiteRepoPkg.NewPGRepository(db),
		brandRepoPkg.NewPGRepository(db),
		prodRepoPkg.NewPGRepository(db),
		rc,
		cfg.Redis.TTL,
		nil,
		log,
	)
}

func progressPrinter(w io.Writer) dto.ProgressFunc {
	return func(p dto.Progress) {
		fmt.Fprintf(w, "\r%s pass %d (%s): %3d%% %d/%d ok=%d failed=%d",
			p.Website, p.Pass, p.PageType, p.Percent, p.Line, p.Lines, p.Succeeded, p.Failed)
		if p.Line == p.Lines {
			fmt.Fprintln(w)
		}
	}
}
