package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fekuna/omnipos-catalog-ingest/config"
	"github.com/fekuna/omnipos-catalog-ingest/internal/brand"
	brandRepoPkg "github.com/fekuna/omnipos-catalog-ingest/internal/brand/repository"
	"github.com/fekuna/omnipos-catalog-ingest/internal/listing"
	listingRepoPkg "github.com/fekuna/omnipos-catalog-ingest/internal/listing/repository"
	"github.com/fekuna/omnipos-catalog-ingest/internal/model"
	"github.com/fekuna/omnipos-catalog-ingest/internal/pkg/logger"
	"github.com/fekuna/omnipos-catalog-ingest/internal/pkg/postgres"
	"github.com/fekuna/omnipos-catalog-ingest/internal/product"
	prodRepoPkg "github.com/fekuna/omnipos-catalog-ingest/internal/product/repository"
	"github.com/fekuna/omnipos-catalog-ingest/internal/resolver"
	"github.com/fekuna/omnipos-catalog-ingest/internal/store/memory"
	"github.com/fekuna/omnipos-catalog-ingest/internal/website"
	websiteRepoPkg "github.com/fekuna/omnipos-catalog-ingest/internal/website/repository"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(config.LoadEnv()).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:          "importer",
		Short:        "Import crawl datasets into the catalog store",
		SilenceUsage: true,
	}
	root.AddCommand(
		newRunCommand(cfg),
		newMigrateCommand(cfg),
		newDeleteListingsCommand(cfg),
	)
	return root
}

func newMigrateCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			appLogger := newLogger(cfg)
			defer appLogger.Sync()

			db, err := openPostgres(cfg, appLogger)
			if err != nil {
				return err
			}
			defer db.Close()
			return migrate(db, appLogger)
		},
	}
}

func newLogger(cfg *config.Config) logger.ZapLogger {
	return logger.NewZapLogger(&logger.ZapLoggerConfig{
		IsDevelopment:     cfg.Server.AppEnv == "dev" || cfg.Server.AppEnv == "development",
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	})
}

func openPostgres(cfg *config.Config, log logger.ZapLogger) (*sqlx.DB, error) {
	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	log.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))
	return db, nil
}

func migrate(db *sqlx.DB, log logger.ZapLogger) error {
	applied, err := postgres.Migrate(db)
	if err != nil {
		return err
	}
	log.Info("Schema migrations checked", zap.Bool("applied", applied))
	return nil
}

// stores is the persistence an import runs against.
type stores struct {
	websites website.Repository
	brands   brand.Repository
	products product.Repository
	pages    listing.Repository
	refs     *resolver.References
}

func postgresStores(db *sqlx.DB) stores {
	websites := websiteRepoPkg.NewPGRepository(db)
	brands := brandRepoPkg.NewPGRepository(db)
	return stores{
		websites: websites,
		brands:   brands,
		products: prodRepoPkg.NewPGRepository(db),
		pages:    listingRepoPkg.NewPGRepository(db),
		refs: resolver.NewReferences(map[model.Kind]resolver.Lookup{
			model.KindWebsite: resolver.ByUID[*model.Website](websites),
			model.KindBrand:   resolver.ByUID[*model.Brand](brands),
		}),
	}
}

func memoryStores() stores {
	s := memory.New()
	return stores{
		websites: s.Websites(),
		brands:   s.Brands(),
		products: s.Products(),
		pages:    s.Listings(),
		refs:     memory.References(s),
	}
}
