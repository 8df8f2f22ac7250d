package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	uniqueViolation = pq.ErrorCode("23505")
	pingTimeout     = 5 * time.Second
)

type Config struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func NewPostgres(cfg *Config) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

// IsUniqueViolation reports whether err is a Postgres unique constraint failure.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// IsUnavailable reports whether err means the database cannot be reached,
// as opposed to a statement that was rejected.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// class 08: connection exception, 57P0x: server shutting down
		return pqErr.Code.Class() == "08" || strings.HasPrefix(string(pqErr.Code), "57P0")
	}
	return false
}

// WhereEquals renders an AND-ed equality clause with named parameters for the
// filter keys. Keys outside allowed are rejected so callers cannot inject
// column names.
func WhereEquals(filter map[string]any, allowed map[string]bool) (string, map[string]any, error) {
	if len(filter) == 0 {
		return "", map[string]any{}, nil
	}

	keys := make([]string, 0, len(filter))
	for k := range filter {
		if !allowed[k] {
			return "", nil, fmt.Errorf("filter on unknown column %q", k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	conditions := make([]string, 0, len(keys))
	args := make(map[string]any, len(keys))
	for _, k := range keys {
		conditions = append(conditions, fmt.Sprintf("%s = :%s", k, k))
		args[k] = filter[k]
	}

	return " WHERE " + strings.Join(conditions, " AND "), args, nil
}

// GetWhere loads the first row of query, narrowed by the equality filter,
// into dest.
func GetWhere(ctx context.Context, db *sqlx.DB, dest any, query string, filter map[string]any, allowed map[string]bool) error {
	q, args, err := bindWhere(db, query, filter, allowed, " LIMIT 1")
	if err != nil {
		return err
	}
	return db.GetContext(ctx, dest, q, args...)
}

// SelectWhere loads every row of query narrowed by the equality filter.
func SelectWhere(ctx context.Context, db *sqlx.DB, dest any, query string, filter map[string]any, allowed map[string]bool) error {
	q, args, err := bindWhere(db, query, filter, allowed, "")
	if err != nil {
		return err
	}
	return db.SelectContext(ctx, dest, q, args...)
}

func bindWhere(db *sqlx.DB, query string, filter map[string]any, allowed map[string]bool, suffix string) (string, []any, error) {
	where, named, err := WhereEquals(filter, allowed)
	if err != nil {
		return "", nil, err
	}
	q, args, err := sqlx.Named(query+where+suffix, named)
	if err != nil {
		return "", nil, err
	}
	return db.Rebind(q), args, nil
}
