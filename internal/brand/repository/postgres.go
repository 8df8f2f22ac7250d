package repository

import (
	"context"

	"github.com/fekuna/omnipos-catalog-ingest/internal/model"
	"github.com/fekuna/omnipos-catalog-ingest/internal/pkg/postgres"
	"github.com/jmoiron/sqlx"
)

var filterColumns = map[string]bool{
	"id":        true,
	"brand_uid": true,
	"brand":     true,
}

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) FindOne(ctx context.Context, filter map[string]any) (*model.Brand, error) {
	var b model.Brand
	if err := postgres.GetWhere(ctx, r.DB, &b, "SELECT * FROM brands", filter, filterColumns); err != nil {
		return nil, postgres.StoreError(err)
	}
	return &b, nil
}

func (r *PGRepository) Insert(ctx context.Context, b *model.Brand) error {
	query := `
        INSERT INTO brands (id, brand_uid, brand, doc_version, created_at, updated_at)
        VALUES (:id, :brand_uid, :brand, :doc_version, :created_at, :updated_at)
    `
	_, err := r.DB.NamedExecContext(ctx, query, b)
	return postgres.StoreError(err)
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Brand, error) {
	var b model.Brand
	query := `SELECT * FROM brands WHERE id = $1 LIMIT 1`
	if err := r.DB.GetContext(ctx, &b, query, id); err != nil {
		return nil, postgres.StoreError(err)
	}
	return &b, nil
}

func (r *PGRepository) FindByUID(ctx context.Context, uid string) (*model.Brand, error) {
	var b model.Brand
	query := `SELECT * FROM brands WHERE brand_uid = $1 LIMIT 1`
	if err := r.DB.GetContext(ctx, &b, query, uid); err != nil {
		return nil, postgres.StoreError(err)
	}
	return &b, nil
}

func (r *PGRepository) FindAll(ctx context.Context, skip, limit int) ([]model.Brand, int, error) {
	var count int
	if err := r.DB.GetContext(ctx, &count, `SELECT count(*) FROM brands`); err != nil {
		return nil, 0, postgres.StoreError(err)
	}

	brands := []model.Brand{}
	query := `SELECT * FROM brands ORDER BY brand_uid LIMIT $1 OFFSET $2`
	if err := r.DB.SelectContext(ctx, &brands, query, limit, skip); err != nil {
		return nil, 0, postgres.StoreError(err)
	}
	return brands, count, nil
}
