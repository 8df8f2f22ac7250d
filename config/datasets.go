package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/fekuna/omnipos-catalog-ingest/internal/extract"
	"github.com/fekuna/omnipos-catalog-ingest/internal/text"
	"gopkg.in/yaml.v3"
)

// Dataset is one crawl output file and the website it belongs to.
// Selectors is only needed when the file carries raw page bodies.
type Dataset struct {
	Provider  string         `yaml:"provider"`
	Website   string         `yaml:"website"`
	URI       string         `yaml:"uri"`
	Path      string         `yaml:"path"`
	Selectors *extract.Table `yaml:"selectors"`
}

type datasetsFile struct {
	Datasets []Dataset `yaml:"datasets"`
}

// LoadDatasets reads the dataset list at path. Relative dataset paths are
// resolved against the directory of the list file.
func LoadDatasets(path string) ([]Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read datasets file: %w", err)
	}

	var f datasetsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse datasets file %s: %w", path, err)
	}

	var errs []error
	base := filepath.Dir(path)
	for i := range f.Datasets {
		ds := &f.Datasets[i]
		if ds.Website == "" {
			errs = append(errs, fmt.Errorf("dataset %d: website is required", i))
		}
		if ds.Path == "" {
			errs = append(errs, fmt.Errorf("dataset %d: path is required", i))
			continue
		}
		if !filepath.IsAbs(ds.Path) {
			ds.Path = filepath.Join(base, ds.Path)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return f.Datasets, nil
}

// FilterDatasets keeps the datasets whose website is in websites, comparing
// natural keys. An empty filter keeps everything.
func FilterDatasets(datasets []Dataset, websites []string) []Dataset {
	if len(websites) == 0 {
		return datasets
	}
	keys := make([]string, 0, len(websites))
	for _, w := range websites {
		keys = append(keys, text.CleanUID(w))
	}

	var out []Dataset
	for _, ds := range datasets {
		if slices.Contains(keys, text.CleanUID(ds.Website)) {
			out = append(out, ds)
		}
	}
	return out
}
