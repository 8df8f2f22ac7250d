// Package source reads crawled page records from JSON-lines dataset files.
package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type PageType string

const (
	PageDetail  PageType = "product_detail"
	PageListing PageType = "product_listing"
)

var (
	ErrUnknownPageType = errors.New("unknown page type")
	ErrMissingData     = errors.New("missing extracted data")
)

// Record is one crawled page. ExtractedData is decoded lazily by Detail or
// Listing depending on PageType.
type Record struct {
	PageType        PageType        `json:"page_type"`
	PageURL         string          `json:"page_url"`
	CrawledAt       string          `json:"crawled_at"`
	ExtractOK       bool            `json:"extract_ok"`
	ExtractedData   json.RawMessage `json:"extracted_data,omitempty"`
	Body            string          `json:"body,omitempty"`
	PageNumber      int             `json:"page_number,omitempty"`
	ProductCategory StringList      `json:"product_category,omitempty"`
	Ordering        string          `json:"ordering,omitempty"`
}

type DetailData struct {
	Item DetailItem `json:"item"`
}

type DetailItem struct {
	BrandName          string         `json:"brand_name"`
	SKU                string         `json:"sku"`
	ArticleName        string         `json:"article_name"`
	ArticleType        string         `json:"article_type"`
	SalePrice          *float64       `json:"sale_price"`
	DiscountPercentage float64        `json:"discount_percentage"`
	OnSale             bool           `json:"on_sale"`
	ExtraProps         map[string]any `json:"extra_props"`
}

type ListingData struct {
	NumberOfItems int           `json:"number_of_items"`
	Items         []ListingItem `json:"items"`
}

type ListingItem struct {
	DetailPageURL      string         `json:"detail_page_url"`
	SalePrice          *float64       `json:"sale_price"`
	OnSale             bool           `json:"on_sale"`
	DiscountPercentage float64        `json:"discount_percentage"`
	ListingProps       map[string]any `json:"listing_props"`
}

func (r *Record) Detail() (*DetailData, error) {
	var d DetailData
	if err := r.decode(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *Record) Listing() (*ListingData, error) {
	var d ListingData
	if err := r.decode(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *Record) decode(dst any) error {
	if len(r.ExtractedData) == 0 || string(r.ExtractedData) == "null" {
		return ErrMissingData
	}
	if err := json.Unmarshal(r.ExtractedData, dst); err != nil {
		return fmt.Errorf("decode %s data: %w", r.PageType, err)
	}
	return nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// CrawledTime parses CrawledAt. Timestamps without a zone are taken as UTC.
func (r *Record) CrawledTime() (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, r.CrawledAt); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("parse crawled_at %q", r.CrawledAt)
}

// StringList accepts either a single string or a list of strings.
type StringList []string

func (s *StringList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		if one == "" {
			*s = StringList{}
		} else {
			*s = StringList{one}
		}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("product_category: %w", err)
	}
	*s = many
	return nil
}
