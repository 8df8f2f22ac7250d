package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/fekuna/omnipos-catalog-ingest/internal/model"
)

// StoreError maps driver errors onto the model sentinels repositories
// return: no rows, unique violations and connection failures.
func StoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return model.ErrNotFound
	case IsUniqueViolation(err):
		return fmt.Errorf("%w: %v", model.ErrDuplicateKey, err)
	case IsUnavailable(err):
		return fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
	}
	return err
}
