package source_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fekuna/omnipos-catalog-ingest/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDataset(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dataset.jl")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o600))
	return path
}

type stubExtractor struct {
	detail *source.DetailData
	err    error
}

func (s stubExtractor) ExtractDetail(*source.Record) (*source.DetailData, error) {
	return s.detail, s.err
}

func (s stubExtractor) ExtractListing(*source.Record) (*source.ListingData, error) {
	return nil, s.err
}

func TestReader_Each(t *testing.T) {
	path := writeDataset(t,
		`{"page_type":"product_detail","page_url":"https://acme.example/a1","crawled_at":"2020-01-01T00:00:00Z","extract_ok":true,"extracted_data":{"item":{"sku":"A1","brand_name":"Nike","sale_price":80,"discount_percentage":20}}}`,
		`not json`,
		``,
		`{"page_type":"product_listing","page_url":"https://acme.example/shoes","crawled_at":"2020-01-01T00:00:00Z","extract_ok":true,"product_category":"shoes","ordering":"popular","extracted_data":{"number_of_items":1,"items":[{"detail_page_url":"/a1","sale_price":80}]}}`,
	)

	var lines []int
	var decodeErrs int
	err := source.NewReader(path, nil).Each(t.Context(), func(line int, rec *source.Record, err error) error {
		lines = append(lines, line)
		if err != nil {
			decodeErrs++
			assert.Nil(t, rec)
			return nil
		}

		switch rec.PageType {
		case source.PageDetail:
			d, err := rec.Detail()
			require.NoError(t, err)
			assert.Equal(t, "A1", d.Item.SKU)
			require.NotNil(t, d.Item.SalePrice)
			assert.InDelta(t, 80.0, *d.Item.SalePrice, 0.001)
		case source.PageListing:
			assert.Equal(t, source.StringList{"shoes"}, rec.ProductCategory)
			l, err := rec.Listing()
			require.NoError(t, err)
			require.Len(t, l.Items, 1)
			assert.Equal(t, "/a1", l.Items[0].DetailPageURL)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 4}, lines)
	assert.Equal(t, 1, decodeErrs)
}

func TestReader_EachStopsOnCallbackError(t *testing.T) {
	path := writeDataset(t, `{"page_type":"product_detail"}`, `{"page_type":"product_detail"}`)
	stop := errors.New("stop")

	calls := 0
	err := source.NewReader(path, nil).Each(t.Context(), func(int, *source.Record, error) error {
		calls++
		return stop
	})

	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestReader_MissingFile(t *testing.T) {
	err := source.NewReader(filepath.Join(t.TempDir(), "nope.jl"), nil).
		Each(t.Context(), func(int, *source.Record, error) error { return nil })
	assert.Error(t, err)
}

func TestReader_RunsExtractorOnRawBody(t *testing.T) {
	path := writeDataset(t,
		`{"page_type":"product_detail","page_url":"https://acme.example/a1","crawled_at":"2020-01-01T00:00:00Z","body":"<html></html>"}`,
	)
	ext := stubExtractor{detail: &source.DetailData{Item: source.DetailItem{SKU: "A1"}}}

	err := source.NewReader(path, ext).Each(t.Context(), func(_ int, rec *source.Record, err error) error {
		require.NoError(t, err)
		assert.True(t, rec.ExtractOK)
		d, err := rec.Detail()
		require.NoError(t, err)
		assert.Equal(t, "A1", d.Item.SKU)
		return nil
	})
	require.NoError(t, err)
}

func TestReader_ExtractorFailureMarksRecord(t *testing.T) {
	path := writeDataset(t, `{"page_type":"product_listing","body":"<html></html>"}`)
	ext := stubExtractor{err: errors.New("no items")}

	err := source.NewReader(path, ext).Each(t.Context(), func(_ int, rec *source.Record, err error) error {
		require.NoError(t, err)
		assert.False(t, rec.ExtractOK)
		return nil
	})
	require.NoError(t, err)
}

func TestRecord_MissingData(t *testing.T) {
	_, err := (&source.Record{PageType: source.PageDetail}).Detail()
	assert.ErrorIs(t, err, source.ErrMissingData)
}

func TestRecord_CrawledTime(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{in: "2020-01-01T00:00:00Z", want: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
		{in: "2020-01-01T02:00:00+02:00", want: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
		{in: "2018-03-05T13:41:09.123456", want: time.Date(2018, 3, 5, 13, 41, 9, 123456000, time.UTC)},
		{in: "2018-03-05 13:41:09", want: time.Date(2018, 3, 5, 13, 41, 9, 0, time.UTC)},
		{in: "yesterday", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := (&source.Record{CrawledAt: tc.in}).CrawledTime()
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tc.want.Equal(got), "got %s", got)
		})
	}
}

func TestCountLines(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{name: "empty", content: "", want: 0},
		{name: "trailing newline", content: "a\nb\n", want: 2},
		{name: "no trailing newline", content: "a\nb\nc", want: 3},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "d.jl")
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0o600))

			got, err := source.CountLines(path)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
