package model

import (
	"fmt"
	"time"

	"github.com/fekuna/omnipos-catalog-ingest/internal/text"
)

// Product is one crawl snapshot of a SKU on a website. The same SKU crawled
// at another time is a separate document.
type Product struct {
	BaseModel
	SKU                string       `db:"sku" json:"sku" validate:"required"`
	Name               string       `db:"name" json:"name" validate:"required"`
	ProductType        string       `db:"product_type" json:"product_type"`
	URL                string       `db:"url" json:"url" validate:"required,url"`
	Path               string       `db:"path" json:"path"`
	CrawledAt          time.Time    `db:"crawled_at" json:"crawled_at"`
	Price              *float64     `db:"price" json:"price"`
	OnSale             bool         `db:"on_sale" json:"on_sale"`
	DiscountPercentage float64      `db:"discount_percentage" json:"discount_percentage"`
	Properties         Properties   `db:"properties" json:"properties"`
	BrandID            string       `db:"brand_id" json:"brand" validate:"required,uuid4"`
	WebsiteID          string       `db:"website_id" json:"website" validate:"required,uuid4"`
	Listings           ListingItems `db:"listings" json:"listings"`
}

func (p *Product) References() []Ref {
	return []Ref{
		{Field: "BrandID", Kind: KindBrand, Value: &p.BrandID},
		{Field: "WebsiteID", Kind: KindWebsite, Value: &p.WebsiteID},
	}
}

func (p *Product) Clean() error {
	p.OnSale, p.DiscountPercentage = normalizeDiscount(p.OnSale, p.DiscountPercentage)
	if p.Path == "" && p.URL != "" {
		p.Path = text.URLPath(p.URL)
	}
	if p.Properties == nil {
		p.Properties = Properties{}
	}
	if p.Listings == nil {
		p.Listings = ListingItems{}
	}
	if p.CrawledAt.IsZero() {
		return fmt.Errorf("%w: crawled_at is required", ErrInvalidDocument)
	}
	p.CrawledAt = StoredTime(p.CrawledAt)
	return check(p, p.References())
}

func (p *Product) NaturalKey() []string { return []string{"sku", "website_id", "crawled_at"} }

func (p *Product) Fields() map[string]any {
	return map[string]any{
		"sku":                 p.SKU,
		"name":                p.Name,
		"product_type":        p.ProductType,
		"url":                 p.URL,
		"path":                p.Path,
		"crawled_at":          p.CrawledAt,
		"price":               p.Price,
		"on_sale":             p.OnSale,
		"discount_percentage": p.DiscountPercentage,
		"brand_id":            p.BrandID,
		"website_id":          p.WebsiteID,
	}
}

// HasListing reports whether an embedded item already points at pageID.
func (p *Product) HasListing(pageID string) bool {
	for _, l := range p.Listings {
		if l.Listing == pageID {
			return true
		}
	}
	return false
}

// RemoveListings drops every embedded item pointing at one of pageIDs and
// reports whether anything was removed.
func (p *Product) RemoveListings(pageIDs map[string]bool) bool {
	kept := p.Listings[:0:0]
	for _, l := range p.Listings {
		if !pageIDs[l.Listing] {
			kept = append(kept, l)
		}
	}
	changed := len(kept) != len(p.Listings)
	p.Listings = kept
	return changed
}

// ProductListingItem records where a product appeared on a listing page.
// It lives inside Product.Listings and has no identity of its own.
type ProductListingItem struct {
	Position           int        `json:"position" validate:"min=1"`
	Price              *float64   `json:"price" validate:"required"`
	OnSale             bool       `json:"on_sale"`
	DiscountPercentage float64    `json:"discount_percentage"`
	ListingProps       Properties `json:"listing_props"`
	Listing            string     `json:"listing" validate:"required,uuid4"`
	DocVersion         float64    `json:"doc_version"`
}

func (li *ProductListingItem) Clean() error {
	li.OnSale, li.DiscountPercentage = normalizeDiscount(li.OnSale, li.DiscountPercentage)
	if li.ListingProps == nil {
		li.ListingProps = Properties{}
	}
	if li.DocVersion == 0 {
		li.DocVersion = currentDocVersion
	}
	return check(li, []Ref{{Field: "Listing", Kind: KindListingPage, Value: &li.Listing}})
}

// normalizeDiscount applies the sale rules: a positive discount implies a
// sale, and no sale means no discount.
func normalizeDiscount(onSale bool, discount float64) (bool, float64) {
	if discount > 0 {
		onSale = true
	}
	if !onSale {
		discount = 0.0
	}
	return onSale, discount
}
