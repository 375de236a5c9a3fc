package history

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mikey/trie-spam-filter/internal/core"
	"go.uber.org/zap"
)

// ErrNotFound is returned when a history record is not found
var ErrNotFound = errors.New("history record not found")

// MemoryHistory keeps the most recent analyses in memory
type MemoryHistory struct {
	records     []*core.AnalysisRecord
	mu          sync.RWMutex
	logger      *zap.Logger
	maxEntries  int
	retention   time.Duration
	cleanupFreq time.Duration
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// NewMemoryHistory creates a new in-memory history holding at most
// maxEntries records. A maxEntries of zero or less means unbounded.
func NewMemoryHistory(logger *zap.Logger, maxEntries int, retention, cleanupFreq time.Duration) *MemoryHistory {
	h := &MemoryHistory{
		logger:      logger,
		maxEntries:  maxEntries,
		retention:   retention,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	// a non-positive frequency disables periodic cleanup
	if cleanupFreq > 0 {
		go h.startCleanupTask()
	}

	return h
}

// Add stores a record, evicting the oldest once full
func (h *MemoryHistory) Add(ctx context.Context, record *core.AnalysisRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.records = append(h.records, record)
	if h.maxEntries > 0 && len(h.records) > h.maxEntries {
		evicted := len(h.records) - h.maxEntries
		h.records = append([]*core.AnalysisRecord(nil), h.records[evicted:]...)
	}
	return nil
}

// Recent returns up to limit records, newest first
func (h *MemoryHistory) Recent(ctx context.Context, limit int) ([]*core.AnalysisRecord, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if limit <= 0 || limit > len(h.records) {
		limit = len(h.records)
	}
	out := make([]*core.AnalysisRecord, 0, limit)
	for i := len(h.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, h.records[i])
	}
	return out, nil
}

// Get returns the record with the given ID
func (h *MemoryHistory) Get(ctx context.Context, id string) (*core.AnalysisRecord, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, record := range h.records {
		if record.ID == id {
			return record, nil
		}
	}
	return nil, ErrNotFound
}

// Cleanup removes records older than the retention period
func (h *MemoryHistory) Cleanup(ctx context.Context) error {
	if h.retention <= 0 {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	cutoff := time.Now().Add(-h.retention)
	kept := h.records[:0]
	for _, record := range h.records {
		if record.AnalyzedAt.After(cutoff) {
			kept = append(kept, record)
		}
	}
	expiredCount := len(h.records) - len(kept)
	for i := len(kept); i < len(h.records); i++ {
		h.records[i] = nil
	}
	h.records = kept

	h.logger.Debug("Cleaned up expired history records", zap.Int("expired_count", expiredCount))
	return nil
}

// startCleanupTask starts a background task to clean up expired records
func (h *MemoryHistory) startCleanupTask() {
	ticker := time.NewTicker(h.cleanupFreq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := h.Cleanup(context.Background()); err != nil {
				h.logger.Error("Failed to clean up history", zap.Error(err))
			}
		case <-h.stopCh:
			return
		}
	}
}

// Stop stops the background cleanup task
func (h *MemoryHistory) Stop() {
	h.stopOnce.Do(func() { close(h.stopCh) })
}
