package storage

import (
	"os"
	"path/filepath"
	"testing"

	"mse-harvester/src/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------

func newTestWatermarkFile(t *testing.T) *WatermarkFile {
	t.Helper()
	path := filepath.Join(t.TempDir(), "last_dates.json")
	return NewWatermarkFile(path, logger.NewLogger("ERROR", "test-watermarks"))
}

// -----------------------------------------------------------------------------

func Test_WatermarkFile_MissingFile(t *testing.T) {
	w := newTestWatermarkFile(t)

	got := w.LoadAll()
	assert.NotNil(t, got)
	assert.Empty(t, got, "missing snapshot means no cached watermarks, not an error")
}

// -----------------------------------------------------------------------------

func Test_WatermarkFile_CorruptFile(t *testing.T) {
	w := newTestWatermarkFile(t)
	require.NoError(t, os.WriteFile(w.Path, []byte("{not json"), 0644))

	got := w.LoadAll()
	assert.Empty(t, got, "corrupt snapshot falls back to empty mapping")
}

// -----------------------------------------------------------------------------

func Test_WatermarkFile_RoundTrip(t *testing.T) {
	w := newTestWatermarkFile(t)

	saved := map[string]string{
		"ALK": "15.03.2024",
		"KMB": "14.03.2024",
	}
	require.NoError(t, w.SaveAll(saved))

	got := w.LoadAll()
	assert.Equal(t, saved, got)
}

// -----------------------------------------------------------------------------

func Test_WatermarkFile_WholeMappingReplace(t *testing.T) {
	w := newTestWatermarkFile(t)

	require.NoError(t, w.SaveAll(map[string]string{"ALK": "14.03.2024", "KMB": "14.03.2024"}))
	require.NoError(t, w.SaveAll(map[string]string{"ALK": "15.03.2024"}))

	got := w.LoadAll()
	assert.Equal(t, map[string]string{"ALK": "15.03.2024"}, got, "save replaces the whole mapping, not individual keys")

	// The atomic rename must not leave temp files behind.
	entries, err := os.ReadDir(filepath.Dir(w.Path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

// -----------------------------------------------------------------------------

func Test_WatermarkFile_SaveFailure(t *testing.T) {
	// Pointing the snapshot into a missing directory makes every save
	// fail while the previous (absent) snapshot stays readable.
	w := NewWatermarkFile(filepath.Join(t.TempDir(), "missing", "last_dates.json"), logger.NewLogger("ERROR", "test-watermarks"))

	err := w.SaveAll(map[string]string{"ALK": "15.03.2024"})
	assert.Error(t, err)
	assert.Empty(t, w.LoadAll())
}
