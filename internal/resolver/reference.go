package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/fekuna/omnipos-catalog-ingest/internal/model"
	"github.com/fekuna/omnipos-catalog-ingest/internal/text"
	"github.com/google/uuid"
)

// Referencing is implemented by documents with relationship fields.
type Referencing interface {
	References() []model.Ref
}

// Lookup finds the identity of an entity by its lookup field.
type Lookup interface {
	LookupID(ctx context.Context, key string) (string, error)
}

type LookupFunc func(ctx context.Context, key string) (string, error)

func (f LookupFunc) LookupID(ctx context.Context, key string) (string, error) {
	return f(ctx, key)
}

// UIDFinder is satisfied by repositories with a normalized UID column.
type UIDFinder[T Document] interface {
	FindByUID(ctx context.Context, uid string) (T, error)
}

// ByUID adapts a UIDFinder into a Lookup.
func ByUID[T Document](finder UIDFinder[T]) Lookup {
	return LookupFunc(func(ctx context.Context, key string) (string, error) {
		doc, err := finder.FindByUID(ctx, key)
		if err != nil {
			return "", err
		}
		return doc.Identity(), nil
	})
}

// References rewrites relationship fields holding a natural key into the
// identity of the entity they name.
type References struct {
	lookups map[model.Kind]Lookup
}

func NewReferences(lookups map[model.Kind]Lookup) *References {
	return &References{lookups: lookups}
}

// Resolve replaces every reference value of doc that is not already an
// identity. A key with no match is left untouched, so validation of doc fails
// afterwards with model.ErrMissingReference.
func (r *References) Resolve(ctx context.Context, doc any) error {
	referencing, ok := doc.(Referencing)
	if !ok {
		return nil
	}

	for _, ref := range referencing.References() {
		if ref.Value == nil || *ref.Value == "" || isIdentity(*ref.Value) {
			continue
		}
		lookup, ok := r.lookups[ref.Kind]
		if !ok {
			continue
		}

		id, err := lookup.LookupID(ctx, text.CleanUID(*ref.Value))
		if errors.Is(err, model.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("resolve %s reference %q: %w", ref.Kind, *ref.Value, err)
		}
		*ref.Value = id
	}
	return nil
}

func isIdentity(v string) bool {
	_, err := uuid.Parse(v)
	return err == nil
}
