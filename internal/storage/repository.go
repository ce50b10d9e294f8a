package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"finsight/internal/analysis"

	_ "modernc.org/sqlite"
)

// Batch lifecycle states.
const (
	BatchPending   = "pending"
	BatchProcessed = "processed"
	BatchFailed    = "failed"
)

// ErrNotFound is returned when a batch or report does not exist.
var ErrNotFound = errors.New("not found")

// PendingBatch is the minimal batch data carried in queue messages.
type PendingBatch struct {
	ID        string
	Version   int64
	CreatedAt time.Time
}

// StoredReport is a persisted report with its storage metadata.
type StoredReport struct {
	Digest     string
	BatchID    string
	Report     *analysis.Report
	CreatedAt  time.Time
	ExportedAt *time.Time
}

// SQLiteRepository persists analysis batches and their reports. Request and
// report payloads are stored as JSON; the relational columns only carry what
// the worker and exporter query by.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping verifies the database connection is alive.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// SaveBatch stores an analysis request under its digest. Saving the same
// digest twice is a no-op: the payload is identical by construction.
func (r *SQLiteRepository) SaveBatch(ctx context.Context, id string, req analysis.Request) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal batch payload: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO batches (id, payload) VALUES (?, ?)`,
		id, string(payload))
	if err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

// GetBatch loads the analysis request stored under the given batch ID.
func (r *SQLiteRepository) GetBatch(ctx context.Context, id string) (analysis.Request, error) {
	var payload string
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM batches WHERE id = ?`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return analysis.Request{}, fmt.Errorf("batch %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return analysis.Request{}, fmt.Errorf("select batch: %w", err)
	}

	var req analysis.Request
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return analysis.Request{}, fmt.Errorf("unmarshal batch payload: %w", err)
	}
	return req, nil
}

// PendingBatches returns up to limit unprocessed batches, oldest first.
func (r *SQLiteRepository) PendingBatches(ctx context.Context, limit int) ([]PendingBatch, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, version, created_at FROM batches
		 WHERE status = ? ORDER BY created_at LIMIT ?`,
		BatchPending, limit)
	if err != nil {
		return nil, fmt.Errorf("select pending batches: %w", err)
	}
	defer rows.Close()

	var batches []PendingBatch
	for rows.Next() {
		var b PendingBatch
		if err := rows.Scan(&b.ID, &b.Version, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending batch: %w", err)
		}
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending batches: %w", err)
	}
	return batches, nil
}

// MarkProcessed records a batch as successfully analyzed.
func (r *SQLiteRepository) MarkProcessed(ctx context.Context, id string) error {
	return r.setBatchStatus(ctx, id, BatchProcessed)
}

// MarkFailed records a batch as failed.
func (r *SQLiteRepository) MarkFailed(ctx context.Context, id string) error {
	return r.setBatchStatus(ctx, id, BatchFailed)
}

func (r *SQLiteRepository) setBatchStatus(ctx context.Context, id, status string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE batches SET status = ?, processed_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, id)
	if err != nil {
		return fmt.Errorf("update batch status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("batch status rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("batch %s: %w", id, ErrNotFound)
	}
	return nil
}

// SaveReport stores a computed report under its request digest. Reports are
// deterministic, so a duplicate digest carries the same payload and the
// first write wins.
func (r *SQLiteRepository) SaveReport(ctx context.Context, digest, batchID string, report *analysis.Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report payload: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO reports (digest, batch_id, payload) VALUES (?, ?, ?)`,
		digest, batchID, string(payload))
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// GetReport loads a report by its request digest.
func (r *SQLiteRepository) GetReport(ctx context.Context, digest string) (*analysis.Report, error) {
	var payload string
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM reports WHERE digest = ?`, digest).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("report %s: %w", digest, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("select report: %w", err)
	}

	var report analysis.Report
	if err := json.Unmarshal([]byte(payload), &report); err != nil {
		return nil, fmt.Errorf("unmarshal report payload: %w", err)
	}
	return &report, nil
}

// UnexportedReports returns up to limit reports not yet exported, oldest
// first.
func (r *SQLiteRepository) UnexportedReports(ctx context.Context, limit int) ([]StoredReport, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT digest, batch_id, payload, created_at FROM reports
		 WHERE exported_at IS NULL ORDER BY created_at LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("select unexported reports: %w", err)
	}
	defer rows.Close()

	var reports []StoredReport
	for rows.Next() {
		var (
			stored  StoredReport
			payload string
		)
		if err := rows.Scan(&stored.Digest, &stored.BatchID, &payload, &stored.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan unexported report: %w", err)
		}
		stored.Report = new(analysis.Report)
		if err := json.Unmarshal([]byte(payload), stored.Report); err != nil {
			return nil, fmt.Errorf("unmarshal report payload: %w", err)
		}
		reports = append(reports, stored)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unexported reports: %w", err)
	}
	return reports, nil
}

// MarkExported stamps a report as exported.
func (r *SQLiteRepository) MarkExported(ctx context.Context, digest string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE reports SET exported_at = CURRENT_TIMESTAMP WHERE digest = ?`, digest)
	if err != nil {
		return fmt.Errorf("mark report exported: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("report exported rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("report %s: %w", digest, ErrNotFound)
	}
	return nil
}
