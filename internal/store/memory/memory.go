// Package memory keeps the catalog in process memory. It backs dry runs of the
// importer and the pipeline tests, and enforces the same natural-key
// uniqueness the Postgres schema does.
package memory

import (
	"context"
	"reflect"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/fekuna/omnipos-catalog-ingest/internal/model"
	"github.com/fekuna/omnipos-catalog-ingest/internal/resolver"
)

type Store struct {
	websites *WebsiteRepository
	brands   *BrandRepository
	products *ProductRepository
	pages    *ListingRepository
}

func New() *Store {
	return &Store{
		websites: &WebsiteRepository{c: newCollection(cloneWebsite, "website_uid")},
		brands:   &BrandRepository{c: newCollection(cloneBrand, "brand_uid")},
		products: &ProductRepository{c: newCollection(cloneProduct, "sku", "website_id", "crawled_at")},
		pages:    &ListingRepository{c: newCollection(clonePage, "url", "crawled_at")},
	}
}

func (s *Store) Websites() *WebsiteRepository { return s.websites }
func (s *Store) Brands() *BrandRepository     { return s.brands }
func (s *Store) Products() *ProductRepository { return s.products }
func (s *Store) Listings() *ListingRepository { return s.pages }

// References wires the reference lookups to the store's UID finders.
func References(s *Store) *resolver.References {
	return resolver.NewReferences(map[model.Kind]resolver.Lookup{
		model.KindWebsite: resolver.ByUID[*model.Website](s.websites),
		model.KindBrand:   resolver.ByUID[*model.Brand](s.brands),
	})
}

// collection is an insertion-ordered table of documents. Rows are cloned on
// the way in and out so callers never share memory with the store.
type collection[T resolver.Document] struct {
	mu     sync.RWMutex
	rows   []T
	unique []string
	clone  func(T) T
}

func newCollection[T resolver.Document](clone func(T) T, unique ...string) *collection[T] {
	return &collection[T]{clone: clone, unique: unique}
}

func (c *collection[T]) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.rows)
}

func (c *collection[T]) findOne(filter map[string]any) (T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, row := range c.rows {
		if matches(row.Fields(), filter) {
			return c.clone(row), nil
		}
	}
	var zero T
	return zero, model.ErrNotFound
}

func (c *collection[T]) findMany(filter map[string]any) []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []T
	for _, row := range c.rows {
		if matches(row.Fields(), filter) {
			out = append(out, c.clone(row))
		}
	}
	return out
}

func (c *collection[T]) byID(id string) (T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if i := c.indexOf(id); i >= 0 {
		return c.clone(c.rows[i]), nil
	}
	var zero T
	return zero, model.ErrNotFound
}

func (c *collection[T]) insert(doc T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.indexOf(doc.Identity()) >= 0 {
		return model.ErrDuplicateKey
	}
	key := make(map[string]any, len(c.unique))
	fields := doc.Fields()
	for _, k := range c.unique {
		key[k] = fields[k]
	}
	for _, row := range c.rows {
		if matches(row.Fields(), key) {
			return model.ErrDuplicateKey
		}
	}

	c.rows = append(c.rows, c.clone(doc))
	return nil
}

// update applies fn to the stored row with id under the write lock.
func (c *collection[T]) update(id string, fn func(T) bool) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 {
		return false, model.ErrNotFound
	}
	return fn(c.rows[i]), nil
}

func (c *collection[T]) delete(ids []string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	before := len(c.rows)
	c.rows = slices.DeleteFunc(c.rows, func(row T) bool {
		return slices.Contains(ids, row.Identity())
	})
	return int64(before - len(c.rows))
}

func (c *collection[T]) indexOf(id string) int {
	for i, row := range c.rows {
		if row.Identity() == id {
			return i
		}
	}
	return -1
}

func matches(fields, filter map[string]any) bool {
	for k, want := range filter {
		got, ok := fields[k]
		if !ok || !equal(got, want) {
			return false
		}
	}
	return true
}

func equal(a, b any) bool {
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	return reflect.DeepEqual(a, b)
}

type WebsiteRepository struct {
	c *collection[*model.Website]
}

func (r *WebsiteRepository) FindOne(_ context.Context, filter map[string]any) (*model.Website, error) {
	return r.c.findOne(filter)
}

func (r *WebsiteRepository) Insert(_ context.Context, w *model.Website) error {
	return r.c.insert(w)
}

func (r *WebsiteRepository) FindByID(_ context.Context, id string) (*model.Website, error) {
	return r.c.byID(id)
}

func (r *WebsiteRepository) FindByUID(_ context.Context, uid string) (*model.Website, error) {
	return r.c.findOne(map[string]any{"website_uid": uid})
}

func (r *WebsiteRepository) Len() int { return r.c.len() }

type BrandRepository struct {
	c *collection[*model.Brand]
}

func (r *BrandRepository) FindOne(_ context.Context, filter map[string]any) (*model.Brand, error) {
	return r.c.findOne(filter)
}

func (r *BrandRepository) Insert(_ context.Context, b *model.Brand) error {
	return r.c.insert(b)
}

func (r *BrandRepository) FindByID(_ context.Context, id string) (*model.Brand, error) {
	return r.c.byID(id)
}

func (r *BrandRepository) FindByUID(_ context.Context, uid string) (*model.Brand, error) {
	return r.c.findOne(map[string]any{"brand_uid": uid})
}

func (r *BrandRepository) Len() int { return r.c.len() }

type ProductRepository struct {
	c *collection[*model.Product]
}

func (r *ProductRepository) FindOne(_ context.Context, filter map[string]any) (*model.Product, error) {
	return r.c.findOne(filter)
}

func (r *ProductRepository) Insert(_ context.Context, p *model.Product) error {
	return r.c.insert(p)
}

func (r *ProductRepository) FindByID(_ context.Context, id string) (*model.Product, error) {
	return r.c.byID(id)
}

func (r *ProductRepository) FindLatestByPath(_ context.Context, path string) (*model.Product, error) {
	found := r.c.findMany(map[string]any{"path": path})
	if len(found) == 0 {
		return nil, model.ErrNotFound
	}
	sort.SliceStable(found, func(i, j int) bool {
		return found[i].CrawledAt.After(found[j].CrawledAt)
	})
	return found[0], nil
}

func (r *ProductRepository) AppendListing(_ context.Context, productID string, item *model.ProductListingItem) (bool, error) {
	return r.c.update(productID, func(p *model.Product) bool {
		if p.HasListing(item.Listing) {
			return false
		}
		p.Listings = append(p.Listings, *item)
		p.UpdatedAt = time.Now().UTC()
		return true
	})
}

func (r *ProductRepository) FindByListingIDs(_ context.Context, pageIDs []string) ([]model.Product, error) {
	var out []model.Product
	for _, p := range r.c.findMany(nil) {
		for _, id := range pageIDs {
			if p.HasListing(id) {
				out = append(out, *p)
				break
			}
		}
	}
	return out, nil
}

func (r *ProductRepository) ReplaceListings(_ context.Context, p *model.Product) error {
	_, err := r.c.update(p.ID, func(stored *model.Product) bool {
		stored.Listings = slices.Clone(p.Listings)
		stored.UpdatedAt = time.Now().UTC()
		return true
	})
	return err
}

// All returns every product in insertion order.
func (r *ProductRepository) All() []model.Product {
	rows := r.c.findMany(nil)
	out := make([]model.Product, 0, len(rows))
	for _, p := range rows {
		out = append(out, *p)
	}
	return out
}

func (r *ProductRepository) Len() int { return r.c.len() }

type ListingRepository struct {
	c *collection[*model.ProductListingPage]
}

func (r *ListingRepository) FindOne(_ context.Context, filter map[string]any) (*model.ProductListingPage, error) {
	return r.c.findOne(filter)
}

func (r *ListingRepository) Insert(_ context.Context, pl *model.ProductListingPage) error {
	return r.c.insert(pl)
}

func (r *ListingRepository) FindByID(_ context.Context, id string) (*model.ProductListingPage, error) {
	return r.c.byID(id)
}

func (r *ListingRepository) FindMany(_ context.Context, filter map[string]any) ([]model.ProductListingPage, error) {
	var out []model.ProductListingPage
	for _, pl := range r.c.findMany(filter) {
		out = append(out, *pl)
	}
	return out, nil
}

func (r *ListingRepository) Delete(_ context.Context, ids []string) (int64, error) {
	return r.c.delete(ids), nil
}

func (r *ListingRepository) Len() int { return r.c.len() }

func cloneWebsite(w *model.Website) *model.Website {
	c := *w
	return &c
}

func cloneBrand(b *model.Brand) *model.Brand {
	c := *b
	return &c
}

func cloneProduct(p *model.Product) *model.Product {
	c := *p
	c.Listings = slices.Clone(p.Listings)
	if p.Price != nil {
		price := *p.Price
		c.Price = &price
	}
	if p.Properties != nil {
		c.Properties = make(model.Properties, len(p.Properties))
		for k, v := range p.Properties {
			c.Properties[k] = v
		}
	}
	return &c
}

func clonePage(pl *model.ProductListingPage) *model.ProductListingPage {
	c := *pl
	c.Category = slices.Clone(pl.Category)
	return &c
}
