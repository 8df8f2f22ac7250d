package dto

const MaxLimit = 100

// Page is a skip/limit window over a listing.
type Page struct {
	Skip  int `json:"skip" form:"skip"`
	Limit int `json:"limit" form:"limit"`
}

// Normalize clamps the window: a limit of zero or above MaxLimit becomes
// MaxLimit and a negative skip becomes zero.
func (p Page) Normalize() Page {
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Limit <= 0 || p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

type List[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Skip  int `json:"skip"`
	Limit int `json:"limit"`
}
