package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"mse-harvester/src/logger"
)

// -----------------------------------------------------------------------------
// WatermarkFile persists the publisher -> last-requested-date mapping
// as a JSON snapshot. The snapshot is a cache/export only: the store's
// MaxDate aggregate stays authoritative, and the file can be rebuilt
// from the store at any time.
// -----------------------------------------------------------------------------

type WatermarkFile struct {
	Path   string
	Logger *logger.Logger
	mu     sync.Mutex
}

// -----------------------------------------------------------------------------

func NewWatermarkFile(path string, log *logger.Logger) *WatermarkFile {
	return &WatermarkFile{
		Path:   path,
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

// LoadAll reads the snapshot. A missing or unreadable file yields an
// empty mapping: the sync run falls back to the authoritative store
// query instead of failing.
func (w *WatermarkFile) LoadAll() map[string]string {
	w.mu.Lock()
	defer w.mu.Unlock()

	data, err := os.ReadFile(w.Path)
	if err != nil {
		if !os.IsNotExist(err) {
			w.Logger.Warning("Watermark snapshot unreadable: %v", err)
		}
		return map[string]string{}
	}

	watermarks := map[string]string{}
	if err := json.Unmarshal(data, &watermarks); err != nil {
		w.Logger.Warning("Watermark snapshot corrupt, ignoring: %v", err)
		return map[string]string{}
	}
	return watermarks
}

// -----------------------------------------------------------------------------

// SaveAll replaces the whole snapshot in one atomic write: the mapping
// is marshalled to a temp file in the same directory and renamed over
// the target, so a crash mid-write leaves the previous snapshot intact.
// Serialized across callers.
func (w *WatermarkFile) SaveAll(watermarks map[string]string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	data, err := json.MarshalIndent(watermarks, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal watermarks: %w", err)
	}

	dir := filepath.Dir(w.Path)
	tmp, err := os.CreateTemp(dir, ".watermarks-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp snapshot: %w", err)
	}

	if err := os.Rename(tmpName, w.Path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}
