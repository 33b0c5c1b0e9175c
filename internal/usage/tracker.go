package usage

import (
	"context"
	"sync"
	"time"

	"geminicli2api-go/internal/monitoring"
	log "github.com/sirupsen/logrus"
)

// Tracker 负责收集用量统计并周期性落盘。Record 只改内存，持久化由
// 后台 worker 按 persistInterval 批量执行，避免每个请求都写存储。
type Tracker struct {
	stats   *Stats
	storage Storage
	mu      sync.RWMutex
	dirty   bool

	persistInterval time.Duration
	stopCh          chan struct{}
	wg              sync.WaitGroup
}

// NewTracker creates a tracker backed by the given storage. A nil storage
// keeps statistics in memory only.
func NewTracker(storage Storage) *Tracker {
	return &Tracker{
		stats:           NewStats(),
		storage:         storage,
		persistInterval: 60 * time.Second,
		stopCh:          make(chan struct{}),
	}
}

// Start loads existing statistics and launches the persistence worker.
func (t *Tracker) Start(ctx context.Context) error {
	if err := t.loadFromStorage(ctx); err != nil {
		log.WithError(err).Warn("Failed to load usage statistics from storage, starting fresh")
	}

	t.wg.Add(1)
	go t.persistWorker(ctx)

	log.Info("Usage tracker started")
	return nil
}

// Stop halts the worker and persists final statistics.
func (t *Tracker) Stop(ctx context.Context) error {
	close(t.stopCh)
	t.wg.Wait()

	if err := t.saveToStorage(ctx); err != nil {
		log.WithError(err).Error("Failed to save final usage statistics")
		return err
	}

	log.Info("Usage tracker stopped")
	return nil
}

// Record folds one request into the statistics and updates token metrics.
func (t *Tracker) Record(rec Record) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	t.mu.Lock()
	t.stats.apply(rec)
	t.dirty = true
	t.mu.Unlock()

	if rec.Model != "" && !rec.Tokens.IsZero() {
		monitoring.TokensUsed.WithLabelValues(rec.Model, "prompt").Add(float64(rec.Tokens.Prompt))
		monitoring.TokensUsed.WithLabelValues(rec.Model, "completion").Add(float64(rec.Tokens.Completion))
		monitoring.TokensUsed.WithLabelValues(rec.Model, "total").Add(float64(rec.Tokens.Total))
	}
}

// Snapshot returns a deep copy of the current statistics.
func (t *Tracker) Snapshot() *Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.stats.Clone()
}

func (t *Tracker) persistWorker(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.persistInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.mu.RLock()
			dirty := t.dirty
			t.mu.RUnlock()
			if !dirty {
				continue
			}
			if err := t.saveToStorage(ctx); err != nil {
				log.WithError(err).Error("Failed to persist usage statistics")
			}
		case <-t.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (t *Tracker) loadFromStorage(ctx context.Context) error {
	if t.storage == nil {
		return nil
	}

	stats, err := t.storage.Load(ctx)
	if err != nil {
		return err
	}
	stats.normalize()

	t.mu.Lock()
	t.stats = stats
	t.mu.Unlock()

	log.WithFields(log.Fields{
		"total_requests": stats.TotalRequests,
		"models":         len(stats.Models),
		"daily_stats":    len(stats.DailyStats),
	}).Info("Loaded usage statistics from storage")

	return nil
}

func (t *Tracker) saveToStorage(ctx context.Context) error {
	if t.storage == nil {
		return nil
	}

	t.mu.Lock()
	snapshot := t.stats.Clone()
	t.dirty = false
	t.mu.Unlock()

	return t.storage.Save(ctx, snapshot)
}
