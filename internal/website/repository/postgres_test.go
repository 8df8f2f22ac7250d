package repository_test

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fekuna/omnipos-catalog-ingest/internal/model"
	"github.com/fekuna/omnipos-catalog-ingest/internal/website/repository"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var websiteColumns = []string{"id", "website_uid", "website", "uri", "doc_version", "created_at", "updated_at"}

func newRepo(t *testing.T) (*repository.PGRepository, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	return repository.NewPGRepository(sqlx.NewDb(mockDB, "postgres")), mock
}

func TestPGRepository_FindOne(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT \\* FROM websites WHERE website_uid = \\$1 LIMIT 1").
		WithArgs("acme").
		WillReturnRows(sqlmock.NewRows(websiteColumns).AddRow("w-1", "acme", "Acme", "", 1.0, now, now))

	w, err := repo.FindOne(t.Context(), map[string]any{"website_uid": "acme"})
	require.NoError(t, err)
	assert.Equal(t, "w-1", w.ID)
	assert.Equal(t, "Acme", w.Website)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepository_FindByUID_NotFound(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectQuery("SELECT \\* FROM websites WHERE website_uid").
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(websiteColumns))

	_, err := repo.FindByUID(t.Context(), "nope")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestPGRepository_Insert(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Now().UTC()

	mock.ExpectExec("INSERT INTO websites").
		WithArgs("w-1", "acme", "Acme", "https://acme.example", 1.0, now, now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := &model.Website{WebsiteUID: "acme", Website: "Acme", URI: "https://acme.example"}
	w.ID = "w-1"
	w.Stamp(now)

	require.NoError(t, repo.Insert(t.Context(), w))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepository_FindAll(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM websites").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery("SELECT \\* FROM websites ORDER BY website_uid LIMIT \\$1 OFFSET \\$2").
		WithArgs(100, 0).
		WillReturnRows(sqlmock.NewRows(websiteColumns).
			AddRow("w-1", "acme", "Acme", "", 1.0, now, now).
			AddRow("w-2", "zeta", "Zeta", "", 1.0, now, now))

	websites, count, err := repo.FindAll(t.Context(), 0, 100)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Len(t, websites, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}
