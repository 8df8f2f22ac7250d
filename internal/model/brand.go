package model

import "github.com/fekuna/omnipos-catalog-ingest/internal/text"

type Brand struct {
	BaseModel
	BrandUID string `db:"brand_uid" json:"brand_uid" validate:"required"`
	Brand    string `db:"brand" json:"brand" validate:"required"`
}

func (b *Brand) Clean() error {
	if b.BrandUID == "" {
		b.BrandUID = b.Brand
	}
	b.BrandUID = text.CleanUID(b.BrandUID)
	return check(b, nil)
}

func (b *Brand) NaturalKey() []string { return []string{"brand_uid"} }

func (b *Brand) Fields() map[string]any {
	return map[string]any{
		"brand_uid": b.BrandUID,
		"brand":     b.Brand,
	}
}
