package dto

import (
	listingdto "github.com/fekuna/omnipos-catalog-ingest/internal/listing/dto"
	"github.com/fekuna/omnipos-catalog-ingest/internal/source"
)

// Dataset is one crawl output file of one website.
type Dataset struct {
	Provider string
	Website  string
	URI      string
	Path     string
	// Extractor fills in records that carry a raw body but no extracted
	// data. Nil leaves such records unextracted, so they are skipped.
	Extractor source.Extractor
}

// PassStats counts one sweep over a dataset. Attempted is Succeeded plus
// Failed; skipped records were never attempted.
type PassStats struct {
	Pass      int
	PageType  source.PageType
	Lines     int
	Attempted int
	Succeeded int
	Failed    int
	Skipped   int
	Link      listingdto.LinkStats
}

type DatasetStats struct {
	Website   string
	WebsiteID string
	Path      string
	Passes    []PassStats
}

func (s *DatasetStats) Attempted() int { return s.sum(func(p PassStats) int { return p.Attempted }) }
func (s *DatasetStats) Succeeded() int { return s.sum(func(p PassStats) int { return p.Succeeded }) }
func (s *DatasetStats) Failed() int    { return s.sum(func(p PassStats) int { return p.Failed }) }
func (s *DatasetStats) Skipped() int   { return s.sum(func(p PassStats) int { return p.Skipped }) }

// LinkFailures counts listing items that matched a product but were left
// unlinked. Their records still count as succeeded.
func (s *DatasetStats) LinkFailures() int {
	return s.sum(func(p PassStats) int { return p.Link.Failures() })
}

func (s *DatasetStats) sum(f func(PassStats) int) int {
	n := 0
	for _, p := range s.Passes {
		n += f(p)
	}
	return n
}

type RunStats struct {
	Datasets []*DatasetStats
}

func (s *RunStats) Attempted() int { return s.sum((*DatasetStats).Attempted) }
func (s *RunStats) Succeeded() int { return s.sum((*DatasetStats).Succeeded) }
func (s *RunStats) Failed() int    { return s.sum((*DatasetStats).Failed) }
func (s *RunStats) Skipped() int   { return s.sum((*DatasetStats).Skipped) }

func (s *RunStats) LinkFailures() int { return s.sum((*DatasetStats).LinkFailures) }

func (s *RunStats) sum(f func(*DatasetStats) int) int {
	n := 0
	for _, d := range s.Datasets {
		n += f(d)
	}
	return n
}

// Progress is a snapshot reported while a pass runs.
type Progress struct {
	Website   string
	Pass      int
	PageType  source.PageType
	Line      int
	Lines     int
	Percent   int
	Succeeded int
	Failed    int
}

type ProgressFunc func(Progress)
