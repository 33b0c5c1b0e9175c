package usage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	log "github.com/sirupsen/logrus"
)

// FileStorage persists statistics as a single JSON document.
type FileStorage struct {
	path string
	mu   sync.RWMutex
}

// NewFileStorage creates a file-based storage at path. Parent directories
// are created as needed.
func NewFileStorage(path string) (*FileStorage, error) {
	if path == "" {
		path = "./data/usage_stats.json"
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	return &FileStorage{path: path}, nil
}

func (f *FileStorage) Load(ctx context.Context) (*Stats, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewStats(), nil
		}
		return nil, err
	}

	var stats Stats
	if err := json.Unmarshal(data, &stats); err != nil {
		log.WithError(err).Warn("Failed to unmarshal usage stats, returning empty stats")
		return NewStats(), nil
	}
	stats.normalize()
	return &stats, nil
}

func (f *FileStorage) Save(ctx context.Context, stats *Stats) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return err
	}

	// Write to temp file first, rename for atomicity
	tempFile := f.path + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tempFile, f.path); err != nil {
		_ = os.Remove(tempFile)
		return err
	}
	return nil
}

func (f *FileStorage) Close() error { return nil }
