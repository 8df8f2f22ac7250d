package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProduct() *Product {
	price := 80.0
	return &Product{
		SKU:       "A1",
		Name:      "Air Max",
		URL:       "https://www.acme.nl/nike/air-max.html?ref=listing",
		CrawledAt: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		Price:     &price,
		BrandID:   uuid.NewString(),
		WebsiteID: uuid.NewString(),
	}
}

func TestProduct_Clean_DiscountImpliesSale(t *testing.T) {
	p := newProduct()
	p.DiscountPercentage = 20

	require.NoError(t, p.Clean())
	assert.True(t, p.OnSale)
	assert.Equal(t, 20.0, p.DiscountPercentage)
}

func TestProduct_Clean_NoSaleZeroesDiscount(t *testing.T) {
	p := newProduct()
	p.DiscountPercentage = -5

	require.NoError(t, p.Clean())
	assert.False(t, p.OnSale)
	assert.Equal(t, 0.0, p.DiscountPercentage)
}

func TestProduct_Clean_SaleWithoutDiscountKept(t *testing.T) {
	p := newProduct()
	p.OnSale = true

	require.NoError(t, p.Clean())
	assert.True(t, p.OnSale)
	assert.Equal(t, 0.0, p.DiscountPercentage)
}

func TestProduct_Clean_DerivesPath(t *testing.T) {
	p := newProduct()

	require.NoError(t, p.Clean())
	assert.Equal(t, "/nike/air-max.html", p.Path)
	assert.NotNil(t, p.Properties)
	assert.NotNil(t, p.Listings)
}

func TestProduct_Clean_UnresolvedReference(t *testing.T) {
	p := newProduct()
	p.BrandID = "Nike"

	err := p.Clean()
	assert.ErrorIs(t, err, ErrMissingReference)
}

func TestProduct_Clean_MissingBrand(t *testing.T) {
	p := newProduct()
	p.BrandID = ""

	assert.ErrorIs(t, p.Clean(), ErrMissingReference)
}

func TestProduct_Clean_MissingName(t *testing.T) {
	p := newProduct()
	p.Name = ""

	err := p.Clean()
	assert.ErrorIs(t, err, ErrInvalidDocument)
	assert.NotErrorIs(t, err, ErrMissingReference)
}

func TestProduct_Clean_RequiresCrawledAt(t *testing.T) {
	p := newProduct()
	p.CrawledAt = time.Time{}

	assert.ErrorIs(t, p.Clean(), ErrInvalidDocument)
}

func TestProduct_RemoveListings(t *testing.T) {
	keep, drop := uuid.NewString(), uuid.NewString()
	p := newProduct()
	p.Listings = ListingItems{{Listing: keep}, {Listing: drop}, {Listing: drop}}

	assert.True(t, p.RemoveListings(map[string]bool{drop: true}))
	require.Len(t, p.Listings, 1)
	assert.Equal(t, keep, p.Listings[0].Listing)
	assert.True(t, p.HasListing(keep))
	assert.False(t, p.HasListing(drop))

	assert.False(t, p.RemoveListings(map[string]bool{drop: true}))
}

func TestProductListingItem_Clean(t *testing.T) {
	price := 49.95
	li := &ProductListingItem{Position: 3, Price: &price, DiscountPercentage: 10, Listing: uuid.NewString()}

	require.NoError(t, li.Clean())
	assert.True(t, li.OnSale)
	assert.Equal(t, 1.0, li.DocVersion)
}

func TestProductListingItem_Clean_MissingPrice(t *testing.T) {
	li := &ProductListingItem{Position: 1, Listing: uuid.NewString()}

	assert.ErrorIs(t, li.Clean(), ErrInvalidDocument)
}

func TestWebsite_Clean_DerivesUID(t *testing.T) {
	w := &Website{Website: " Zalando NL "}

	require.NoError(t, w.Clean())
	assert.Equal(t, "zalando nl", w.WebsiteUID)
}

func TestBrand_Clean_NormalizesUID(t *testing.T) {
	b := &Brand{Brand: "Nike", BrandUID: "NIKE "}

	require.NoError(t, b.Clean())
	assert.Equal(t, "nike", b.BrandUID)
}

func TestProductListingPage_Clean_DefaultsPageNumber(t *testing.T) {
	pl := &ProductListingPage{
		SortedBy:  "popularity",
		URL:       "https://www.acme.nl/heren/schoenen/",
		CrawledAt: time.Now(),
		WebsiteID: uuid.NewString(),
	}

	require.NoError(t, pl.Clean())
	assert.Equal(t, 1, pl.PageNumber)
	assert.NotNil(t, pl.Category)
}

func TestClean_RoundsCrawledAtToStoredPrecision(t *testing.T) {
	crawledAt := time.Date(2020, 1, 1, 10, 30, 0, 123456789, time.UTC)
	want := time.Date(2020, 1, 1, 10, 30, 0, 123457000, time.UTC)

	p := newProduct()
	p.CrawledAt = crawledAt
	require.NoError(t, p.Clean())
	assert.True(t, want.Equal(p.CrawledAt), "got %s", p.CrawledAt)
	assert.Equal(t, p.CrawledAt, p.Fields()["crawled_at"])

	pl := &ProductListingPage{
		URL:       "https://www.acme.nl/heren/schoenen/",
		CrawledAt: crawledAt,
		WebsiteID: uuid.NewString(),
	}
	require.NoError(t, pl.Clean())
	assert.True(t, want.Equal(pl.CrawledAt), "got %s", pl.CrawledAt)

	again := newProduct()
	again.CrawledAt = p.CrawledAt
	require.NoError(t, again.Clean())
	assert.Equal(t, p.CrawledAt, again.CrawledAt)
}
