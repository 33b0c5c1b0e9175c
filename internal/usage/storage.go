package usage

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"geminicli2api-go/internal/config"
)

// Storage persists aggregate usage statistics between restarts.
type Storage interface {
	// Load returns persisted statistics, or empty Stats when none exist.
	Load(ctx context.Context) (*Stats, error)

	// Save persists a statistics snapshot.
	Save(ctx context.Context, stats *Stats) error

	// Close releases backend resources.
	Close() error
}

// NewStorage builds the storage backend selected by configuration.
func NewStorage(cfg config.UsageConfig) (Storage, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "memory":
		return NewMemoryStorage(), nil
	case "file":
		return NewFileStorage(cfg.File)
	case "redis":
		return NewRedisStorage(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	case "postgres":
		return NewPostgresStorage(cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown usage backend %q", cfg.Backend)
	}
}

// MemoryStorage keeps statistics in process memory only. Useful for tests
// and as the zero-configuration default.
type MemoryStorage struct {
	mu    sync.Mutex
	stats *Stats
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (m *MemoryStorage) Load(ctx context.Context) (*Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stats == nil {
		return NewStats(), nil
	}
	return m.stats.Clone(), nil
}

func (m *MemoryStorage) Save(ctx context.Context, stats *Stats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats = stats.Clone()
	return nil
}

func (m *MemoryStorage) Close() error { return nil }
