package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikey/trie-spam-filter/internal/core"
	"go.uber.org/zap"
)

// SQLiteHistory is a SQLite implementation of the HistoryRepository interface
type SQLiteHistory struct {
	db          *sql.DB
	logger      *zap.Logger
	retention   time.Duration
	cleanupFreq time.Duration
	stopCh      chan struct{}
}

// NewSQLiteHistory creates a new SQLite history
func NewSQLiteHistory(dbPath string, logger *zap.Logger, retention, cleanupFreq time.Duration) (*SQLiteHistory, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS analysis_history (
			id TEXT PRIMARY KEY,
			text TEXT NOT NULL,
			score REAL NOT NULL,
			is_spam BOOLEAN NOT NULL,
			confidence INTEGER NOT NULL,
			detected_words TEXT NOT NULL,
			explanation TEXT NOT NULL,
			analyzed_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_analyzed_at ON analysis_history(analyzed_at)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	h := &SQLiteHistory{
		db:          db,
		logger:      logger,
		retention:   retention,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
	}

	// a non-positive frequency disables periodic cleanup
	if cleanupFreq > 0 {
		go h.startCleanupTask()
	}

	return h, nil
}

// Add stores a record
func (h *SQLiteHistory) Add(ctx context.Context, record *core.AnalysisRecord) error {
	words, err := encodeWords(record.Analysis.DetectedWords)
	if err != nil {
		return err
	}

	_, err = h.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO analysis_history (`+selectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, record.ID, record.Text, record.Analysis.Score, record.Analysis.IsSpam,
		record.Analysis.Confidence, words, record.Explanation, record.AnalyzedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert history record: %w", err)
	}

	return nil
}

// Recent returns up to limit records, newest first
func (h *SQLiteHistory) Recent(ctx context.Context, limit int) ([]*core.AnalysisRecord, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := h.db.QueryContext(ctx, `
		SELECT `+selectColumns+`
		FROM analysis_history
		ORDER BY analyzed_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	records := make([]*core.AnalysisRecord, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// Get returns the record with the given ID
func (h *SQLiteHistory) Get(ctx context.Context, id string) (*core.AnalysisRecord, error) {
	row := h.db.QueryRowContext(ctx, `
		SELECT `+selectColumns+`
		FROM analysis_history
		WHERE id = ?
	`, id)

	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query history record: %w", err)
	}
	return record, nil
}

// Cleanup removes records older than the retention period
func (h *SQLiteHistory) Cleanup(ctx context.Context) error {
	if h.retention <= 0 {
		return nil
	}

	result, err := h.db.ExecContext(ctx, `
		DELETE FROM analysis_history
		WHERE analyzed_at <= ?
	`, time.Now().Add(-h.retention).UnixNano())
	if err != nil {
		return fmt.Errorf("failed to clean up expired records: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		h.logger.Warn("Failed to get rows affected during cleanup", zap.Error(err))
	} else {
		h.logger.Debug("Cleaned up expired history records", zap.Int64("expired_count", rowsAffected))
	}

	return nil
}

// startCleanupTask starts a background task to clean up expired records
func (h *SQLiteHistory) startCleanupTask() {
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

// Stop stops the background cleanup task and closes the database connection
func (h *SQLiteHistory) Stop() {
	close(h.stopCh)
	if err := h.db.Close(); err != nil {
		h.logger.Error("Failed to close SQLite database", zap.Error(err))
	}
}
