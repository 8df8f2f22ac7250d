// Package resolver implements the idempotent get-or-create primitive shared by
// every catalog entity and the natural-key lookup of relationship fields.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-catalog-ingest/internal/model"
	"github.com/google/uuid"
)

// Document is an entity the resolver can get-or-create by natural key.
type Document interface {
	Clean() error
	NaturalKey() []string
	Fields() map[string]any
	Identity() string
	SetIdentity(id string)
	Stamp(now time.Time)
}

// Store is the persistence a Document kind needs for Ensure. FindOne returns
// model.ErrNotFound when nothing matches; Insert returns model.ErrDuplicateKey
// when a natural-key uniqueness constraint rejects the row.
type Store[T Document] interface {
	FindOne(ctx context.Context, filter map[string]any) (T, error)
	Insert(ctx context.Context, doc T) error
}

// Ensure returns the stored document for doc's natural key, inserting doc
// when none exists. An existing document is returned as stored; doc only
// adopts its identity. Losing an insert race to another writer is not an
// error: the winner is re-read and returned.
func Ensure[T Document](ctx context.Context, store Store[T], refs *References, doc T) (T, error) {
	var zero T

	if refs != nil {
		if err := refs.Resolve(ctx, doc); err != nil {
			return zero, err
		}
	}
	if err := doc.Clean(); err != nil {
		return zero, err
	}

	filter := LookupFilter(doc)

	existing, err := store.FindOne(ctx, filter)
	if err == nil {
		doc.SetIdentity(existing.Identity())
		return existing, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return zero, fmt.Errorf("lookup: %w", err)
	}

	if doc.Identity() == "" {
		doc.SetIdentity(uuid.NewString())
	}
	doc.Stamp(time.Now().UTC())

	if err := store.Insert(ctx, doc); err != nil {
		if !errors.Is(err, model.ErrDuplicateKey) {
			return zero, fmt.Errorf("insert: %w", err)
		}
		existing, err = store.FindOne(ctx, filter)
		if err != nil {
			return zero, fmt.Errorf("re-read after duplicate key: %w", err)
		}
		doc.SetIdentity(existing.Identity())
		return existing, nil
	}

	return doc, nil
}

// LookupFilter restricts doc's fields to its natural key, or keeps all of
// them when the kind declares none.
func LookupFilter(doc Document) map[string]any {
	fields := doc.Fields()
	keys := doc.NaturalKey()
	if len(keys) == 0 {
		return fields
	}

	filter := make(map[string]any, len(keys))
	for _, k := range keys {
		filter[k] = fields[k]
	}
	return filter
}
