package model

import "time"

const currentDocVersion = 1.0

// Kind names an entity collection.
type Kind string

const (
	KindWebsite     Kind = "website"
	KindBrand       Kind = "brand"
	KindProduct     Kind = "product"
	KindListingPage Kind = "product_listing"
)

type BaseModel struct {
	ID         string    `db:"id" json:"id"`
	DocVersion float64   `db:"doc_version" json:"-"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

func (b *BaseModel) Identity() string { return b.ID }

func (b *BaseModel) SetIdentity(id string) { b.ID = id }

// StoredTime rounds t to the microsecond precision of a TIMESTAMPTZ
// column, so a natural-key lookup matches what an insert wrote.
func StoredTime(t time.Time) time.Time { return t.Round(time.Microsecond) }

// Stamp sets the creation time once and the update time always.
func (b *BaseModel) Stamp(now time.Time) {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
	if b.DocVersion == 0 {
		b.DocVersion = currentDocVersion
	}
}

// Ref declares that a field holds the identity of another entity kind. Until
// it is resolved the field may still carry that entity's natural key.
type Ref struct {
	Field string
	Kind  Kind
	Value *string
}
