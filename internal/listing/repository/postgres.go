package repository

import (
	"context"

	"github.com/fekuna/omnipos-catalog-ingest/internal/model"
	"github.com/fekuna/omnipos-catalog-ingest/internal/pkg/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var filterColumns = map[string]bool{
	"id":          true,
	"page_number": true,
	"sorted_by":   true,
	"url":         true,
	"crawled_at":  true,
	"website_id":  true,
}

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) FindOne(ctx context.Context, filter map[string]any) (*model.ProductListingPage, error) {
	var pl model.ProductListingPage
	if err := postgres.GetWhere(ctx, r.DB, &pl, "SELECT * FROM product_listing_pages", filter, filterColumns); err != nil {
		return nil, postgres.StoreError(err)
	}
	return &pl, nil
}

func (r *PGRepository) Insert(ctx context.Context, pl *model.ProductListingPage) error {
	query := `
        INSERT INTO product_listing_pages (
            id, page_number, page_listing_size, category, sorted_by, url,
            crawled_at, website_id, doc_version, created_at, updated_at
        )
        VALUES (
            :id, :page_number, :page_listing_size, :category, :sorted_by, :url,
            :crawled_at, :website_id, :doc_version, :created_at, :updated_at
        )
    `
	_, err := r.DB.NamedExecContext(ctx, query, pl)
	return postgres.StoreError(err)
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.ProductListingPage, error) {
	var pl model.ProductListingPage
	query := `SELECT * FROM product_listing_pages WHERE id = $1 LIMIT 1`
	if err := r.DB.GetContext(ctx, &pl, query, id); err != nil {
		return nil, postgres.StoreError(err)
	}
	return &pl, nil
}

func (r *PGRepository) FindMany(ctx context.Context, filter map[string]any) ([]model.ProductListingPage, error) {
	pages := []model.ProductListingPage{}
	err := postgres.SelectWhere(ctx, r.DB, &pages, "SELECT * FROM product_listing_pages", filter, filterColumns)
	if err != nil {
		return nil, postgres.StoreError(err)
	}
	return pages, nil
}

func (r *PGRepository) Delete(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.DB.ExecContext(ctx, `DELETE FROM product_listing_pages WHERE id = ANY($1::uuid[])`, pq.Array(ids))
	if err != nil {
		return 0, postgres.StoreError(err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, postgres.StoreError(err)
	}
	return rows, nil
}
