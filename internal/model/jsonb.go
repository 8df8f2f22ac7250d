package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Properties is an open string-keyed map stored as a JSONB object.
type Properties map[string]any

func (p Properties) Value() (driver.Value, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p)
}

func (p *Properties) Scan(src any) error {
	data, err := jsonBytes(src)
	if err != nil || data == nil {
		*p = Properties{}
		return err
	}
	return json.Unmarshal(data, p)
}

// ListingItems is the embedded listing collection of a product, stored as a
// JSONB array.
type ListingItems []ProductListingItem

func (l ListingItems) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l)
}

func (l *ListingItems) Scan(src any) error {
	data, err := jsonBytes(src)
	if err != nil || data == nil {
		*l = ListingItems{}
		return err
	}
	return json.Unmarshal(data, l)
}

func jsonBytes(src any) ([]byte, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported jsonb source %T", src)
	}
}
