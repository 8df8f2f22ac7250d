package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fekuna/omnipos-catalog-ingest/internal/listing"
	"github.com/fekuna/omnipos-catalog-ingest/internal/listing/usecase"
	"github.com/fekuna/omnipos-catalog-ingest/internal/model"
	"github.com/fekuna/omnipos-catalog-ingest/internal/pkg/logger"
	"github.com/fekuna/omnipos-catalog-ingest/internal/product"
	"github.com/fekuna/omnipos-catalog-ingest/internal/resolver"
	"github.com/fekuna/omnipos-catalog-ingest/internal/source"
	"github.com/fekuna/omnipos-catalog-ingest/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type quarantined struct{ kind, identity string }

type fakeQuarantine struct{ writes []quarantined }

func (q *fakeQuarantine) Write(kind, identity, _ string) string {
	q.writes = append(q.writes, quarantined{kind, identity})
	return "tmp/error-" + kind + "-" + identity + ".html"
}

// productRepo overrides single operations of the in-memory repository.
type productRepo struct {
	product.Repository
	appendFn  func(ctx context.Context, productID string, item *model.ProductListingItem) (bool, error)
	replaceFn func(ctx context.Context, p *model.Product) error
	findByID  func(ctx context.Context, id string) (*model.Product, error)
}

func (r *productRepo) FindByID(ctx context.Context, id string) (*model.Product, error) {
	if r.findByID != nil {
		return r.findByID(ctx, id)
	}
	return r.Repository.FindByID(ctx, id)
}

func (r *productRepo) AppendListing(ctx context.Context, productID string, item *model.ProductListingItem) (bool, error) {
	if r.appendFn != nil {
		return r.appendFn(ctx, productID, item)
	}
	return r.Repository.AppendListing(ctx, productID, item)
}

func (r *productRepo) ReplaceListings(ctx context.Context, p *model.Product) error {
	if r.replaceFn != nil {
		return r.replaceFn(ctx, p)
	}
	return r.Repository.ReplaceListings(ctx, p)
}

type fixture struct {
	store    *memory.Store
	products *productRepo
	q        *fakeQuarantine
	website  *model.Website
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()

	website, err := resolver.Ensure[*model.Website](t.Context(), store.Websites(), nil, &model.Website{Website: "acme"})
	require.NoError(t, err)
	_, err = resolver.Ensure[*model.Brand](t.Context(), store.Brands(), nil, &model.Brand{Brand: "Nike"})
	require.NoError(t, err)

	return &fixture{
		store:    store,
		products: &productRepo{Repository: store.Products()},
		q:        &fakeQuarantine{},
		website:  website,
	}
}

func (f *fixture) newUseCase() listing.UseCase {
	return usecase.NewListingUseCase(f.store.Listings(), f.products, memory.References(f.store), f.q, logger.NewNop())
}

func (f *fixture) addProduct(t *testing.T, sku, path string) *model.Product {
	t.Helper()
	p, err := resolver.Ensure[*model.Product](t.Context(), f.store.Products(), memory.References(f.store), &model.Product{
		SKU:       sku,
		Name:      "Runner " + sku,
		URL:       "https://acme.example" + path,
		CrawledAt: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		BrandID:   "nike",
		WebsiteID: f.website.ID,
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) addPage(t *testing.T, url string) *model.ProductListingPage {
	t.Helper()
	rec := &source.Record{
		PageType:  source.PageListing,
		PageURL:   url,
		CrawledAt: "2020-01-01T00:00:00Z",
		Ordering:  "popular",
	}
	pl, err := f.newUseCase().EnsurePage(t.Context(), rec, &source.ListingData{NumberOfItems: 1}, f.website.ID)
	require.NoError(t, err)
	return pl
}

func (f *fixture) product(t *testing.T, id string) *model.Product {
	t.Helper()
	p, err := f.store.Products().FindByID(t.Context(), id)
	require.NoError(t, err)
	return p
}

func price(v float64) *float64 { return &v }

func TestEnsurePage_Defaults(t *testing.T) {
	f := newFixture(t)
	uc := f.newUseCase()

	rec := &source.Record{
		PageURL:         "https://acme.example/shoes",
		CrawledAt:       "2020-01-01T00:00:00Z",
		Ordering:        "popular",
		ProductCategory: source.StringList{"shoes", "sneakers"},
	}
	data := &source.ListingData{Items: []source.ListingItem{{}, {}}}

	pl, err := uc.EnsurePage(t.Context(), rec, data, f.website.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, pl.PageNumber)
	assert.Equal(t, 2, pl.PageListingSize)
	assert.Equal(t, []string{"shoes", "sneakers"}, []string(pl.Category))

	again, err := uc.EnsurePage(t.Context(), rec, data, "acme")
	require.NoError(t, err)
	assert.Equal(t, pl.ID, again.ID)
	assert.Equal(t, 1, f.store.Listings().Len())
}

func TestEnsurePage_InvalidCrawledAt(t *testing.T) {
	f := newFixture(t)
	uc := f.newUseCase()

	_, err := uc.EnsurePage(t.Context(), &source.Record{CrawledAt: "soon"}, &source.ListingData{}, f.website.ID)
	assert.ErrorIs(t, err, model.ErrInvalidDocument)
}

func TestLink(t *testing.T) {
	f := newFixture(t)
	p := f.addProduct(t, "A1", "/shoes/a1")
	pl := f.addPage(t, "https://acme.example/shoes")
	uc := f.newUseCase()

	rec := &source.Record{PageURL: pl.URL, Body: "<html/>"}
	items := []source.ListingItem{
		{DetailPageURL: "https://acme.example/shoes/a1?color=red", SalePrice: price(80), DiscountPercentage: 20},
		{DetailPageURL: "/shoes/unknown", SalePrice: price(50)},
		{SalePrice: price(10)},
	}

	stats, err := uc.Link(t.Context(), rec, items, pl.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Linked)
	assert.Equal(t, 1, stats.NotFound)

	got := f.product(t, p.ID)
	require.Len(t, got.Listings, 1)
	li := got.Listings[0]
	assert.Equal(t, pl.ID, li.Listing)
	assert.Equal(t, 1, li.Position)
	assert.True(t, li.OnSale)
	assert.InDelta(t, 20.0, li.DiscountPercentage, 0.001)

	stats, err = uc.Link(t.Context(), rec, items, pl.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Linked)
	assert.Len(t, f.product(t, p.ID).Listings, 1, "relinking the same page is a no-op")
	assert.Empty(t, f.q.writes)
}

func TestLink_InsufficientData(t *testing.T) {
	f := newFixture(t)
	p := f.addProduct(t, "A1", "/shoes/a1")
	pl := f.addPage(t, "https://acme.example/shoes")
	uc := f.newUseCase()

	stats, err := uc.Link(t.Context(), &source.Record{}, []source.ListingItem{{DetailPageURL: "/shoes/a1"}}, pl.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.InsufficientData)
	assert.Equal(t, []quarantined{{"listing", pl.ID}}, f.q.writes)
	assert.Empty(t, f.product(t, p.ID).Listings)
}

func TestLink_AppendFailureContinues(t *testing.T) {
	f := newFixture(t)
	a1 := f.addProduct(t, "A1", "/shoes/a1")
	b2 := f.addProduct(t, "B2", "/shoes/b2")
	pl := f.addPage(t, "https://acme.example/shoes")

	f.products.appendFn = func(ctx context.Context, productID string, item *model.ProductListingItem) (bool, error) {
		if productID == a1.ID {
			return false, errors.New("document too large")
		}
		return f.store.Products().AppendListing(ctx, productID, item)
	}
	uc := f.newUseCase()

	items := []source.ListingItem{
		{DetailPageURL: "/shoes/a1", SalePrice: price(80)},
		{DetailPageURL: "/shoes/b2", SalePrice: price(60)},
	}
	stats, err := uc.Link(t.Context(), &source.Record{}, items, pl.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.Linked)
	assert.Equal(t, []quarantined{{"listing", pl.ID + "-0"}}, f.q.writes)
	assert.Empty(t, f.product(t, a1.ID).Listings)
	assert.Len(t, f.product(t, b2.ID).Listings, 1)
}

func TestLink_AppendWroteNothing(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(f *fixture)
		wantLinked  int
		wantMissing int
		wantFailed  int
	}{
		{
			name: "another writer linked first",
			setup: func(f *fixture) {
				f.products.appendFn = func(ctx context.Context, productID string, item *model.ProductListingItem) (bool, error) {
					_, err := f.store.Products().AppendListing(ctx, productID, item)
					return false, err
				}
			},
			wantLinked: 1,
		},
		{
			name: "product deleted after lookup",
			setup: func(f *fixture) {
				f.products.appendFn = func(context.Context, string, *model.ProductListingItem) (bool, error) {
					return false, nil
				}
				f.products.findByID = func(context.Context, string) (*model.Product, error) {
					return nil, model.ErrNotFound
				}
			},
			wantMissing: 1,
		},
		{
			name: "row left unchanged",
			setup: func(f *fixture) {
				f.products.appendFn = func(context.Context, string, *model.ProductListingItem) (bool, error) {
					return false, nil
				}
			},
			wantFailed: 1,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.addProduct(t, "A1", "/shoes/a1")
			pl := f.addPage(t, "https://acme.example/shoes")
			tc.setup(f)

			stats, err := f.newUseCase().Link(t.Context(), &source.Record{}, []source.ListingItem{{DetailPageURL: "/shoes/a1", SalePrice: price(80)}}, pl.ID)
			require.NoError(t, err)

			assert.Equal(t, tc.wantLinked, stats.Linked)
			assert.Equal(t, tc.wantMissing, stats.NotFound)
			assert.Equal(t, tc.wantFailed, stats.Failed)
			assert.Len(t, f.q.writes, tc.wantFailed)
		})
	}
}

func TestLink_StoreUnavailableAborts(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "A1", "/shoes/a1")
	pl := f.addPage(t, "https://acme.example/shoes")

	f.products.appendFn = func(context.Context, string, *model.ProductListingItem) (bool, error) {
		return false, model.ErrStoreUnavailable
	}
	uc := f.newUseCase()

	_, err := uc.Link(t.Context(), &source.Record{}, []source.ListingItem{{DetailPageURL: "/shoes/a1", SalePrice: price(80)}}, pl.ID)
	assert.ErrorIs(t, err, model.ErrStoreUnavailable)
}

func linkAll(t *testing.T, f *fixture, pageID string, paths ...string) {
	t.Helper()
	uc := f.newUseCase()

	items := make([]source.ListingItem, 0, len(paths))
	for _, path := range paths {
		items = append(items, source.ListingItem{DetailPageURL: path, SalePrice: price(10)})
	}
	stats, err := uc.Link(t.Context(), &source.Record{}, items, pageID)
	require.NoError(t, err)
	require.Equal(t, len(paths), stats.Linked)
}

func TestDeletePages(t *testing.T) {
	f := newFixture(t)
	a1 := f.addProduct(t, "A1", "/shoes/a1")
	b2 := f.addProduct(t, "B2", "/shoes/b2")
	shoes := f.addPage(t, "https://acme.example/shoes")
	sale := f.addPage(t, "https://acme.example/sale")
	linkAll(t, f, shoes.ID, "/shoes/a1", "/shoes/b2")
	linkAll(t, f, sale.ID, "/shoes/a1")

	uc := f.newUseCase()
	result, err := uc.DeletePages(t.Context(), []string{shoes.ID})
	require.NoError(t, err)

	assert.Equal(t, 2, result.ProductsUpdated)
	assert.EqualValues(t, 1, result.PagesDeleted)
	assert.Zero(t, result.PagesKept)

	remaining := f.product(t, a1.ID).Listings
	require.Len(t, remaining, 1)
	assert.Equal(t, sale.ID, remaining[0].Listing)
	assert.Empty(t, f.product(t, b2.ID).Listings)

	_, err = f.store.Listings().FindByID(t.Context(), shoes.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestDeletePages_PartialFailure(t *testing.T) {
	f := newFixture(t)
	a1 := f.addProduct(t, "A1", "/shoes/a1")
	b2 := f.addProduct(t, "B2", "/shoes/b2")
	shoes := f.addPage(t, "https://acme.example/shoes")
	sale := f.addPage(t, "https://acme.example/sale")
	linkAll(t, f, shoes.ID, "/shoes/a1", "/shoes/b2")
	linkAll(t, f, sale.ID, "/shoes/b2")

	boom := errors.New("write conflict")
	f.products.replaceFn = func(ctx context.Context, p *model.Product) error {
		if p.ID == a1.ID {
			return boom
		}
		return f.store.Products().ReplaceListings(ctx, p)
	}

	uc := f.newUseCase()
	result, err := uc.DeletePages(t.Context(), []string{shoes.ID, sale.ID})

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, result.ProductsUpdated)
	assert.Equal(t, 1, result.PagesKept)
	assert.EqualValues(t, 1, result.PagesDeleted)

	assert.Empty(t, f.product(t, b2.ID).Listings)
	_, err = f.store.Listings().FindByID(t.Context(), shoes.ID)
	assert.NoError(t, err, "page still embedded in a1 is kept")
	_, err = f.store.Listings().FindByID(t.Context(), sale.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestDeleteByURL(t *testing.T) {
	f := newFixture(t)
	a1 := f.addProduct(t, "A1", "/shoes/a1")
	shoes := f.addPage(t, "https://acme.example/shoes")
	linkAll(t, f, shoes.ID, "/shoes/a1")

	uc := f.newUseCase()
	at := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	result, err := uc.DeleteByURL(t.Context(), "https://acme.example/shoes", &at)
	require.NoError(t, err)
	assert.EqualValues(t, 1, result.PagesDeleted)
	assert.Empty(t, f.product(t, a1.ID).Listings)

	result, err = uc.DeleteByURL(t.Context(), "https://acme.example/none", nil)
	require.NoError(t, err)
	assert.Zero(t, result.PagesDeleted)
}
