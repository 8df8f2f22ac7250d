package dto

// LinkStats counts the outcome of linking one listing page's items. Total
// covers items with a detail page URL; items without one are not counted.
type LinkStats struct {
	Total            int
	Linked           int
	NotFound         int
	InsufficientData int
	Failed           int
}

type DeleteResult struct {
	ProductsUpdated int
	PagesDeleted    int64
	// PagesKept are pages left in place because a product still embedding
	// them could not be updated.
	PagesKept int
}

func (s *LinkStats) Add(o LinkStats) {
	s.Total += o.Total
	s.Linked += o.Linked
	s.NotFound += o.NotFound
	s.InsufficientData += o.InsufficientData
	s.Failed += o.Failed
}

// Failures counts items that matched a product but could not be linked.
func (s LinkStats) Failures() int { return s.InsufficientData + s.Failed }
