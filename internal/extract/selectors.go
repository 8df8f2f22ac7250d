package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"gopkg.in/yaml.v3"
)

// Selector picks one value out of a page: the text of the first element
// matching Query, or its Attr attribute when set. In YAML it is either a bare
// CSS selector or a mapping with select and attr.
type Selector struct {
	Query string `yaml:"select"`
	Attr  string `yaml:"attr"`
}

func (s *Selector) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		s.Query = node.Value
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: selector must be a string or a mapping", node.Line)
	}

	type plain Selector
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*s = Selector(p)
	return nil
}

// Find returns the trimmed value under root and whether the element (and
// attribute, if any) was present.
func (s Selector) Find(root *goquery.Selection) (string, bool) {
	if s.Query == "" {
		return "", false
	}
	el := root.Find(s.Query).First()
	if el.Length() == 0 {
		return "", false
	}
	if s.Attr == "" {
		return strings.TrimSpace(el.Text()), true
	}
	v, ok := el.Attr(s.Attr)
	return strings.TrimSpace(v), ok
}

// Table is the selector configuration of one website.
type Table struct {
	Detail  DetailSelectors  `yaml:"detail"`
	Listing ListingSelectors `yaml:"listing"`
}

type DetailSelectors struct {
	// JSONLD reads sku, name and brand from the page's ld+json block before
	// falling back to the selectors below.
	JSONLD     bool             `yaml:"json_ld"`
	SKU        Selector         `yaml:"sku"`
	Name       Selector         `yaml:"article_name"`
	Brand      Selector         `yaml:"brand_name"`
	Type       Selector         `yaml:"article_type"`
	SalePrice  Selector         `yaml:"sale_price"`
	OldPrice   Selector         `yaml:"old_price"`
	Properties PropertySelector `yaml:"properties"`
}

// PropertySelector reads key/value rows. Without a Key selector the row text
// is split on the first colon.
type PropertySelector struct {
	Rows  string   `yaml:"rows"`
	Key   Selector `yaml:"key"`
	Value Selector `yaml:"value"`
}

type ListingSelectors struct {
	Items         string   `yaml:"items"`
	DetailPageURL Selector `yaml:"detail_page_url"`
	SKU           Selector `yaml:"sku"`
	Name          Selector `yaml:"article_name"`
	Brand         Selector `yaml:"brand_name"`
	Type          Selector `yaml:"article_type"`
	Price         Selector `yaml:"price"`
	SpecialPrice  Selector `yaml:"special_price"`
	OldPrice      Selector `yaml:"old_price"`
}
