package repository

import (
	"context"

	"github.com/fekuna/omnipos-catalog-ingest/internal/model"
	"github.com/fekuna/omnipos-catalog-ingest/internal/pkg/postgres"
	"github.com/jmoiron/sqlx"
)

var filterColumns = map[string]bool{
	"id":          true,
	"website_uid": true,
	"website":     true,
	"uri":         true,
}

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) FindOne(ctx context.Context, filter map[string]any) (*model.Website, error) {
	var w model.Website
	if err := postgres.GetWhere(ctx, r.DB, &w, "SELECT * FROM websites", filter, filterColumns); err != nil {
		return nil, postgres.StoreError(err)
	}
	return &w, nil
}

func (r *PGRepository) Insert(ctx context.Context, w *model.Website) error {
	query := `
        INSERT INTO websites (id, website_uid, website, uri, doc_version, created_at, updated_at)
        VALUES (:id, :website_uid, :website, :uri, :doc_version, :created_at, :updated_at)
    `
	_, err := r.DB.NamedExecContext(ctx, query, w)
	return postgres.StoreError(err)
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Website, error) {
	var w model.Website
	query := `SELECT * FROM websites WHERE id = $1 LIMIT 1`
	if err := r.DB.GetContext(ctx, &w, query, id); err != nil {
		return nil, postgres.StoreError(err)
	}
	return &w, nil
}

func (r *PGRepository) FindByUID(ctx context.Context, uid string) (*model.Website, error) {
	var w model.Website
	query := `SELECT * FROM websites WHERE website_uid = $1 LIMIT 1`
	if err := r.DB.GetContext(ctx, &w, query, uid); err != nil {
		return nil, postgres.StoreError(err)
	}
	return &w, nil
}

func (r *PGRepository) FindAll(ctx context.Context, skip, limit int) ([]model.Website, int, error) {
	var count int
	if err := r.DB.GetContext(ctx, &count, `SELECT count(*) FROM websites`); err != nil {
		return nil, 0, postgres.StoreError(err)
	}

	websites := []model.Website{}
	query := `SELECT * FROM websites ORDER BY website_uid LIMIT $1 OFFSET $2`
	if err := r.DB.SelectContext(ctx, &websites, query, limit, skip); err != nil {
		return nil, 0, postgres.StoreError(err)
	}
	return websites, count, nil
}
