package main

import (
	"fmt"
	"time"

	"github.com/fekuna/omnipos-catalog-ingest/config"
	listingUCPkg "github.com/fekuna/omnipos-catalog-ingest/internal/listing/usecase"
	"github.com/fekuna/omnipos-catalog-ingest/internal/quarantine"
	"github.com/spf13/cobra"
)

func newDeleteListingsCommand(cfg *config.Config) *cobra.Command {
	var (
		url       string
		crawledAt string
	)

	cmd := &cobra.Command{
		Use:   "delete-listings",
		Short: "Delete listing pages by URL and unlink them from products",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var at *time.Time
			if crawledAt != "" {
				t, err := time.Parse(time.RFC3339, crawledAt)
				if err != nil {
					return fmt.Errorf("--crawled-at: %w", err)
				}
				at = &t
			}

			appLogger := newLogger(cfg)
			defer appLogger.Sync()

			db, err := openPostgres(cfg, appLogger)
			if err != nil {
				return err
			}
			defer db.Close()

			s := postgresStores(db)
			sink := quarantine.NewSink(cfg.Import.QuarantineDir, appLogger)
			uc := listingUCPkg.NewListingUseCase(s.pages, s.products, s.refs, sink, appLogger)

			res, err := uc.DeleteByURL(cmd.Context(), url, at)
			if res != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "pages deleted: %d, pages kept: %d, products updated: %d\n",
					res.PagesDeleted, res.PagesKept, res.ProductsUpdated)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "listing page URL")
	cmd.Flags().StringVar(&crawledAt, "crawled-at", "", "only the snapshot crawled at this time (RFC 3339)")
	_ = cmd.MarkFlagRequired("url")
	return cmd
}
