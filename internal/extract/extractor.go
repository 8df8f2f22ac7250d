// Package extract turns the raw HTML of crawled pages into the extracted
// data of a source record, driven by a per-website selector table.
package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fekuna/omnipos-catalog-ingest/internal/source"
	"github.com/fekuna/omnipos-catalog-ingest/internal/text"
)

var ErrNothingExtracted = errors.New("nothing extracted")

// SelectorExtractor implements source.Extractor with goquery.
type SelectorExtractor struct {
	table Table
}

func NewSelectorExtractor(table Table) *SelectorExtractor {
	return &SelectorExtractor{table: table}
}

func (e *SelectorExtractor) ExtractDetail(rec *source.Record) (*source.DetailData, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rec.Body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	sel := e.table.Detail
	root := doc.Selection

	item := source.DetailItem{ExtraProps: map[string]any{}}
	if sel.JSONLD {
		ld := linkedData(root)
		item.SKU = ld.SKU
		item.ArticleName = ld.Name
		item.BrandName = ld.brandName()
	}
	fill(&item.SKU, sel.SKU, root)
	fill(&item.ArticleName, sel.Name, root)
	fill(&item.BrandName, sel.Brand, root)
	fill(&item.ArticleType, sel.Type, root)

	if item.SKU == "" && item.ArticleName == "" {
		return nil, fmt.Errorf("%w: no sku or name on %s", ErrNothingExtracted, rec.PageURL)
	}

	item.SalePrice = price(sel.SalePrice, root)
	if old := price(sel.OldPrice, root); old != nil {
		item.ExtraProps["normal_price"] = *old
		item.DiscountPercentage = DiscountPercentage(item.SalePrice, *old)
	}
	item.OnSale = item.DiscountPercentage > 0

	for k, v := range properties(sel.Properties, root) {
		item.ExtraProps[k] = v
	}
	if item.ArticleType == "" {
		if v, ok := item.ExtraProps["categorie"].(string); ok {
			item.ArticleType = v
		}
	}

	return &source.DetailData{Item: item}, nil
}

func (e *SelectorExtractor) ExtractListing(rec *source.Record) (*source.ListingData, error) {
	sel := e.table.Listing
	if sel.Items == "" {
		return nil, fmt.Errorf("%w: no listing items selector", ErrNothingExtracted)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rec.Body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	data := &source.ListingData{Items: []source.ListingItem{}}
	doc.Find(sel.Items).Each(func(_ int, s *goquery.Selection) {
		item := source.ListingItem{ListingProps: map[string]any{}}

		if href, ok := sel.DetailPageURL.Find(s); ok && href != "" {
			item.DetailPageURL = text.URLPath(href)
		}
		for key, selector := range map[string]Selector{
			"sku":          sel.SKU,
			"article_name": sel.Name,
			"brand_name":   sel.Brand,
			"article_type": sel.Type,
		} {
			if v, ok := selector.Find(s); ok && v != "" {
				item.ListingProps[key] = v
			}
		}

		listed := price(sel.Price, s)
		special := price(sel.SpecialPrice, s)
		normal := price(sel.OldPrice, s)

		item.SalePrice = listed
		if special != nil && (listed == nil || *special < *listed) {
			item.SalePrice = special
		}
		if normal != nil {
			item.DiscountPercentage = DiscountPercentage(item.SalePrice, *normal)
		}
		item.OnSale = item.DiscountPercentage > 0
		item.ListingProps["price_info"] = map[string]any{
			"price_listing": listed,
			"price_special": special,
			"price_normal":  normal,
		}

		data.Items = append(data.Items, item)
	})
	data.NumberOfItems = len(data.Items)

	return data, nil
}

func fill(dst *string, sel Selector, root *goquery.Selection) {
	if *dst != "" {
		return
	}
	if v, ok := sel.Find(root); ok {
		*dst = v
	}
}

func price(sel Selector, root *goquery.Selection) *float64 {
	raw, ok := sel.Find(root)
	if !ok {
		return nil
	}
	v, ok := ParsePrice(raw)
	if !ok {
		return nil
	}
	return &v
}

func properties(sel PropertySelector, root *goquery.Selection) map[string]string {
	props := map[string]string{}
	if sel.Rows == "" {
		return props
	}

	root.Find(sel.Rows).Each(func(_ int, row *goquery.Selection) {
		var key, value string
		if sel.Key.Query == "" {
			k, v, ok := strings.Cut(strings.ReplaceAll(row.Text(), "\n", " "), ":")
			if !ok {
				return
			}
			key, value = k, v
		} else {
			key, _ = sel.Key.Find(row)
			value, _ = sel.Value.Find(row)
		}

		key = text.CleanKey(key)
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			return
		}
		props[key] = value
	})
	return props
}

type ldProduct struct {
	SKU   string          `json:"sku"`
	Name  string          `json:"name"`
	Brand json.RawMessage `json:"brand"`
}

// brandName accepts both "brand": "Nike" and "brand": {"name": "Nike"}.
func (p ldProduct) brandName() string {
	var name string
	if err := json.Unmarshal(p.Brand, &name); err == nil {
		return name
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(p.Brand, &obj); err == nil {
		return obj.Name
	}
	return ""
}

func linkedData(root *goquery.Selection) ldProduct {
	var found ldProduct
	root.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var p ldProduct
		if err := json.Unmarshal([]byte(s.Text()), &p); err != nil {
			return true
		}
		if p.SKU == "" && p.Name == "" {
			return true
		}
		found = p
		return false
	})
	return found
}
