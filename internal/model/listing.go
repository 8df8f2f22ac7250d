package model

import (
	"fmt"
	"time"

	"github.com/lib/pq"
)

// ProductListingPage is one crawl of a catalog page. Products refer to it
// from their embedded listing items.
type ProductListingPage struct {
	BaseModel
	PageNumber      int            `db:"page_number" json:"page_number" validate:"min=1"`
	PageListingSize int            `db:"page_listing_size" json:"page_listing_size" validate:"min=0"`
	Category        pq.StringArray `db:"category" json:"category"`
	SortedBy        string         `db:"sorted_by" json:"sorted_by" validate:"required"`
	URL             string         `db:"url" json:"url" validate:"required"`
	CrawledAt       time.Time      `db:"crawled_at" json:"crawled_at"`
	WebsiteID       string         `db:"website_id" json:"website" validate:"required,uuid4"`
}

func (pl *ProductListingPage) References() []Ref {
	return []Ref{{Field: "WebsiteID", Kind: KindWebsite, Value: &pl.WebsiteID}}
}

func (pl *ProductListingPage) Clean() error {
	if pl.PageNumber == 0 {
		pl.PageNumber = 1
	}
	if pl.Category == nil {
		pl.Category = pq.StringArray{}
	}
	if pl.CrawledAt.IsZero() {
		return fmt.Errorf("%w: crawled_at is required", ErrInvalidDocument)
	}
	pl.CrawledAt = StoredTime(pl.CrawledAt)
	return check(pl, pl.References())
}

func (pl *ProductListingPage) NaturalKey() []string { return []string{"url", "crawled_at"} }

func (pl *ProductListingPage) Fields() map[string]any {
	return map[string]any{
		"page_number":       pl.PageNumber,
		"page_listing_size": pl.PageListingSize,
		"sorted_by":         pl.SortedBy,
		"url":               pl.URL,
		"crawled_at":        pl.CrawledAt,
		"website_id":        pl.WebsiteID,
	}
}
