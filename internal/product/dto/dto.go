package dto

type ProductFilters struct {
	WebsiteID string
	BrandID   string
	Skip      int
	Limit     int
}
