package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-catalog-ingest/internal/model"
	"github.com/fekuna/omnipos-catalog-ingest/internal/pkg/postgres"
	"github.com/fekuna/omnipos-catalog-ingest/internal/product/dto"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var filterColumns = map[string]bool{
	"id":           true,
	"sku":          true,
	"name":         true,
	"product_type": true,
	"url":          true,
	"path":         true,
	"crawled_at":   true,
	"brand_id":     true,
	"website_id":   true,
}

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) FindOne(ctx context.Context, filter map[string]any) (*model.Product, error) {
	var p model.Product
	if err := postgres.GetWhere(ctx, r.DB, &p, "SELECT * FROM products", filter, filterColumns); err != nil {
		return nil, postgres.StoreError(err)
	}
	return &p, nil
}

func (r *PGRepository) Insert(ctx context.Context, p *model.Product) error {
	query := `
        INSERT INTO products (
            id, sku, name, product_type, url, path, crawled_at, price, on_sale,
            discount_percentage, properties, brand_id, website_id, listings,
            doc_version, created_at, updated_at
        )
        VALUES (
            :id, :sku, :name, :product_type, :url, :path, :crawled_at, :price, :on_sale,
            :discount_percentage, :properties, :brand_id, :website_id, :listings,
            :doc_version, :created_at, :updated_at
        )
    `
	_, err := r.DB.NamedExecContext(ctx, query, p)
	return postgres.StoreError(err)
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	var p model.Product
	query := `SELECT * FROM products WHERE id = $1 LIMIT 1`
	if err := r.DB.GetContext(ctx, &p, query, id); err != nil {
		return nil, postgres.StoreError(err)
	}
	return &p, nil
}

func (r *PGRepository) FindLatestByPath(ctx context.Context, path string) (*model.Product, error) {
	var p model.Product
	query := `SELECT * FROM products WHERE path = $1 ORDER BY crawled_at DESC LIMIT 1`
	if err := r.DB.GetContext(ctx, &p, query, path); err != nil {
		return nil, postgres.StoreError(err)
	}
	return &p, nil
}

// AppendListing guards the append in the statement itself, so a concurrent
// linker run cannot embed the same page twice.
func (r *PGRepository) AppendListing(ctx context.Context, productID string, item *model.ProductListingItem) (bool, error) {
	payload, err := json.Marshal([]*model.ProductListingItem{item})
	if err != nil {
		return false, fmt.Errorf("marshal listing item: %w", err)
	}
	guard, err := json.Marshal([]map[string]string{{"listing": item.Listing}})
	if err != nil {
		return false, fmt.Errorf("marshal listing guard: %w", err)
	}

	query := `
        UPDATE products
        SET listings = listings || $1::jsonb, updated_at = $2
        WHERE id = $3 AND NOT listings @> $4::jsonb
    `
	res, err := r.DB.ExecContext(ctx, query, string(payload), time.Now().UTC(), productID, string(guard))
	if err != nil {
		return false, postgres.StoreError(err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, postgres.StoreError(err)
	}
	return rows > 0, nil
}

func (r *PGRepository) FindByListingIDs(ctx context.Context, pageIDs []string) ([]model.Product, error) {
	products := []model.Product{}
	if len(pageIDs) == 0 {
		return products, nil
	}

	query := `
        SELECT * FROM products p
        WHERE EXISTS (
            SELECT 1 FROM jsonb_array_elements(p.listings) AS l
            WHERE l->>'listing' = ANY($1)
        )
    `
	if err := r.DB.SelectContext(ctx, &products, query, pq.Array(pageIDs)); err != nil {
		return nil, postgres.StoreError(err)
	}
	return products, nil
}

func (r *PGRepository) ReplaceListings(ctx context.Context, p *model.Product) error {
	p.UpdatedAt = time.Now().UTC()
	query := `UPDATE products SET listings = :listings, updated_at = :updated_at WHERE id = :id`
	res, err := r.DB.NamedExecContext(ctx, query, p)
	if err != nil {
		return postgres.StoreError(err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return postgres.StoreError(err)
	}
	if rows == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.ProductFilters) ([]model.Product, int, error) {
	var count int

	conditions := []string{}
	args := map[string]any{}

	if f.WebsiteID != "" {
		conditions = append(conditions, "website_id = :website_id")
		args["website_id"] = f.WebsiteID
	}
	if f.BrandID != "" {
		conditions = append(conditions, "brand_id = :brand_id")
		args["brand_id"] = f.BrandID
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery, countArgs, err := sqlx.Named("SELECT count(*) FROM products"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	if err := r.DB.GetContext(ctx, &count, r.DB.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, postgres.StoreError(err)
	}

	query := fmt.Sprintf("SELECT * FROM products%s ORDER BY crawled_at DESC, sku LIMIT %d OFFSET %d",
		whereClause, f.Limit, f.Skip)

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, postgres.StoreError(err)
	}
	defer nstmt.Close()

	products := []model.Product{}
	if err := nstmt.SelectContext(ctx, &products, args); err != nil {
		return nil, 0, postgres.StoreError(err)
	}

	return products, count, nil
}

// FindBySKU returns the latest snapshot of sku on a website, ignoring case.
func (r *PGRepository) FindBySKU(ctx context.Context, websiteID, sku string) (*model.Product, error) {
	var p model.Product
	query := `
        SELECT * FROM products
        WHERE website_id = $1 AND lower(sku) = lower($2)
        ORDER BY crawled_at DESC
        LIMIT 1
    `
	if err := r.DB.GetContext(ctx, &p, query, websiteID, sku); err != nil {
		return nil, postgres.StoreError(err)
	}
	return &p, nil
}
