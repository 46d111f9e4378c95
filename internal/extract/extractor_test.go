package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/planwerk/stundenplan/internal/config"
	ferrors "github.com/planwerk/stundenplan/internal/foundation/errors"
	"github.com/planwerk/stundenplan/internal/timetable"
)

func newTestExtractor() *Extractor {
	return New(config.ExtractionConfig{MinRows: 2, MinCols: 2, MinConfidence: 0.5}, nil)
}

func TestTableFromFile_MissingFile(t *testing.T) {
	raw, err := newTestExtractor().TableFromFile(filepath.Join(t.TempDir(), "missing.pdf"))
	require.Nil(t, raw)
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryExtraction))
	require.NotErrorIs(t, err, timetable.ErrNoTableData)

	classified, ok := ferrors.AsClassified(err)
	require.True(t, ok)
	require.Equal(t, "Error processing the PDF file.", classified.Message())
}

func TestTableFromFile_NotAPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.pdf")
	require.NoError(t, os.WriteFile(path, []byte("this is not a pdf"), 0o600))

	raw, err := newTestExtractor().TableFromFile(path)
	require.Nil(t, raw)
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryExtraction))

	classified, ok := ferrors.AsClassified(err)
	require.True(t, ok)
	require.Equal(t, "Error processing the PDF file.", classified.Message())
}
