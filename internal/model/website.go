package model

import "github.com/fekuna/omnipos-catalog-ingest/internal/text"

type Website struct {
	BaseModel
	WebsiteUID string `db:"website_uid" json:"website_uid" validate:"required"`
	Website    string `db:"website" json:"website" validate:"required"`
	URI        string `db:"uri" json:"uri,omitempty" validate:"omitempty,url"`
}

// Clean derives the UID from the display name when it is absent and
// normalizes it.
func (w *Website) Clean() error {
	if w.WebsiteUID == "" {
		w.WebsiteUID = w.Website
	}
	w.WebsiteUID = text.CleanUID(w.WebsiteUID)
	return check(w, nil)
}

func (w *Website) NaturalKey() []string { return []string{"website_uid"} }

func (w *Website) Fields() map[string]any {
	return map[string]any{
		"website_uid": w.WebsiteUID,
		"website":     w.Website,
		"uri":         w.URI,
	}
}
