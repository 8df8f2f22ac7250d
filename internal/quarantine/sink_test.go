package quarantine_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fekuna/omnipos-catalog-ingest/internal/pkg/logger"
	"github.com/fekuna/omnipos-catalog-ingest/internal/quarantine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSink_Write(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "tmp")
	sink := quarantine.NewSink(dir, logger.NewNop())

	first := sink.Write("listing", "pl-1", "<html>one</html>")
	second := sink.Write("listing", "pl-1", "<html>two</html>")

	assert.Equal(t, filepath.Join(dir, "error-listing-pl-1.html"), first)
	assert.Equal(t, filepath.Join(dir, "error-listing-pl-1-1.html"), second)

	body, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, "<html>two</html>", string(body))
}

func TestSink_WriteFailureIsSwallowed(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, nil, 0o600))

	sink := quarantine.NewSink(file, logger.NewNop())
	assert.Empty(t, sink.Write("detail", "w-1", "body"))
}
