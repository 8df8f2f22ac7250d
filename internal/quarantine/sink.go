// Package quarantine keeps the raw bodies of pages that could not be
// ingested, one file per failure, for offline inspection.
package quarantine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fekuna/omnipos-catalog-ingest/internal/pkg/logger"
	"go.uber.org/zap"
)

const maxSuffix = 1000

type Sink struct {
	dir    string
	logger logger.ZapLogger
}

func NewSink(dir string, log logger.ZapLogger) *Sink {
	return &Sink{dir: dir, logger: log}
}

// Write stores body as <dir>/error-<kind>-<identity>.html, adding a -<n>
// suffix when that name is taken. It returns the written path, or "" when
// the write failed; failures are logged and never retried.
func (s *Sink) Write(kind, identity, body string) string {
	path, err := s.write(kind, identity, body)
	if err != nil {
		s.logger.Error("Failed to write quarantine file",
			zap.String("kind", kind),
			zap.String("identity", identity),
			zap.Error(err),
		)
		return ""
	}
	s.logger.Warn("Quarantined page body", zap.String("path", path))
	return path
}

func (s *Sink) write(kind, identity, body string) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create quarantine dir: %w", err)
	}

	base := fmt.Sprintf("error-%s-%s", kind, identity)
	for n := 0; n < maxSuffix; n++ {
		name := base + ".html"
		if n > 0 {
			name = fmt.Sprintf("%s-%d.html", base, n)
		}
		path := filepath.Join(s.dir, name)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", err
		}

		_, werr := f.WriteString(body)
		cerr := f.Close()
		if werr != nil {
			return "", werr
		}
		return path, cerr
	}
	return "", fmt.Errorf("no free file name for %s", base)
}
