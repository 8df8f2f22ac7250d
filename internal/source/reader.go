package source

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// Extractor turns the raw body of a page into extracted data. Lines that
// arrive with extracted data already present never reach it.
type Extractor interface {
	ExtractDetail(rec *Record) (*DetailData, error)
	ExtractListing(rec *Record) (*ListingData, error)
}

// Reader streams the records of one dataset file. Every call to Each reads
// the file again from the beginning.
type Reader struct {
	path      string
	extractor Extractor
}

func NewReader(path string, extractor Extractor) *Reader {
	return &Reader{path: path, extractor: extractor}
}

func (r *Reader) Path() string { return r.path }

// RecordFunc receives each line in order. A line that could not be decoded
// arrives with a nil record and a non-nil err. Returning an error stops the
// iteration and Each returns it unchanged.
type RecordFunc func(line int, rec *Record, err error) error

// Each calls fn for every non-empty line of the file. Failing to open or
// read the file is returned wrapped; per-line decode failures go to fn.
func (r *Reader) Each(ctx context.Context, fn RecordFunc) error {
	f, err := os.Open(r.path)
	if err != nil {
		return fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	for line := 1; ; line++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		data, readErr := br.ReadBytes('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return fmt.Errorf("read dataset line %d: %w", line, readErr)
		}

		if data = bytes.TrimSpace(data); len(data) > 0 {
			rec, decodeErr := r.decode(data)
			if err := fn(line, rec, decodeErr); err != nil {
				return err
			}
		}

		if readErr != nil {
			return nil
		}
	}
}

func (r *Reader) decode(data []byte) (*Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}

	if len(rec.ExtractedData) > 0 || r.extractor == nil || rec.Body == "" {
		return &rec, nil
	}

	var (
		extracted any
		err       error
	)
	switch rec.PageType {
	case PageDetail:
		extracted, err = r.extractor.ExtractDetail(&rec)
	case PageListing:
		extracted, err = r.extractor.ExtractListing(&rec)
	default:
		return &rec, nil
	}
	if err != nil {
		rec.ExtractOK = false
		return &rec, nil
	}

	raw, err := json.Marshal(extracted)
	if err != nil {
		return nil, fmt.Errorf("encode extracted data: %w", err)
	}
	rec.ExtractedData = raw
	rec.ExtractOK = true
	return &rec, nil
}

// CountLines returns the number of lines in the file, counting a final line
// without a trailing newline.
func CountLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	buf := make([]byte, 64*1024)
	count := 0
	var last byte
	for {
		n, err := f.Read(buf)
		if n > 0 {
			count += bytes.Count(buf[:n], []byte{'\n'})
			last = buf[n-1]
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("count dataset lines: %w", err)
		}
	}
	if last != 0 && last != '\n' {
		count++
	}
	return count, nil
}
