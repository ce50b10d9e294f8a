package worker

import (
	"context"
	"fmt"
	"log/slog"

	"finsight/internal/amqp"
	"finsight/internal/analysis"
	"finsight/internal/storage"
)

// ReportExporter pushes a finished report to an external sink. The returned
// reference identifies the exported row for logging.
type ReportExporter interface {
	AppendReport(ctx context.Context, digest string, report *analysis.Report) (string, error)
}

// AnalysisWorker consumes analysis jobs, runs the analyzer over stored
// batches and persists the resulting reports. When an exporter is
// configured it also drains unexported reports to Google Sheets.
type AnalysisWorker struct {
	storage   *storage.SQLiteRepository
	analyzer  *analysis.Analyzer
	exporter  ReportExporter
	batchSize int
}

func NewAnalysisWorker(store *storage.SQLiteRepository, analyzer *analysis.Analyzer, exporter ReportExporter, batchSize int) *AnalysisWorker {
	return &AnalysisWorker{
		storage:   store,
		analyzer:  analyzer,
		exporter:  exporter,
		batchSize: batchSize,
	}
}

// HandleJobMessage processes a single analysis job message from AMQP
func (w *AnalysisWorker) HandleJobMessage(ctx context.Context, msg *amqp.AnalysisJobMessage) error {
	slog.InfoContext(ctx, "Processing analysis job",
		"batch_id", msg.BatchID,
		"version", msg.Version)

	return w.processBatch(ctx, msg.BatchID)
}

func (w *AnalysisWorker) processBatch(ctx context.Context, batchID string) error {
	req, err := w.storage.GetBatch(ctx, batchID)
	if err != nil {
		return fmt.Errorf("get batch from storage: %w", err)
	}

	report, err := w.analyzer.Analyze(ctx, req)
	if err != nil {
		if markErr := w.storage.MarkFailed(ctx, batchID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark batch failed", "batch_id", batchID, "error", markErr)
		}
		return fmt.Errorf("analyze batch: %w", err)
	}

	digest, err := req.Digest()
	if err != nil {
		return fmt.Errorf("digest batch request: %w", err)
	}

	if err := w.storage.SaveReport(ctx, digest, batchID, report); err != nil {
		return fmt.Errorf("save report: %w", err)
	}

	if err := w.storage.MarkProcessed(ctx, batchID); err != nil {
		slog.ErrorContext(ctx, "Failed to mark batch processed", "batch_id", batchID, "error", err)
		// The report is already saved; reprocessing the batch is harmless.
	}

	slog.InfoContext(ctx, "Analysis batch processed",
		"batch_id", batchID,
		"digest", digest,
		"transaction_count", len(req.Transactions),
		"month_count", len(report.Months))

	return nil
}

// ProcessPendingBatches processes batches that were never picked up from the
// queue. This is a backup mechanism in case AMQP messages are lost.
func (w *AnalysisWorker) ProcessPendingBatches(ctx context.Context) error {
	pending, err := w.storage.PendingBatches(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending batches: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending batches", "count", len(pending))

	for _, batch := range pending {
		if err := w.processBatch(ctx, batch.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to process pending batch",
				"batch_id", batch.ID, "error", err)
			continue
		}
	}

	return nil
}

// StartupScan processes any backlog left over from missed messages or
// worker downtime. It scans a larger window than the periodic pass.
func (w *AnalysisWorker) StartupScan(ctx context.Context) error {
	pending, err := w.storage.PendingBatches(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending batches for startup scan: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending batches found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending batches on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0

	for _, batch := range pending {
		if err := w.processBatch(ctx, batch.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to process batch during startup",
				"batch_id", batch.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup scan completed",
		"total", len(pending),
		"processed", successCount,
		"errors", errorCount)

	return nil
}

// ExportReports pushes unexported reports to the configured exporter. A
// worker without an exporter leaves reports in place.
func (w *AnalysisWorker) ExportReports(ctx context.Context) error {
	if w.exporter == nil {
		return nil
	}

	reports, err := w.storage.UnexportedReports(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get unexported reports: %w", err)
	}

	for _, stored := range reports {
		ref, err := w.exporter.AppendReport(ctx, stored.Digest, stored.Report)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to export report",
				"digest", stored.Digest, "error", err)
			continue
		}

		if err := w.storage.MarkExported(ctx, stored.Digest); err != nil {
			slog.ErrorContext(ctx, "Failed to mark report exported",
				"digest", stored.Digest, "error", err)
			continue
		}

		slog.InfoContext(ctx, "Report exported",
			"digest", stored.Digest,
			"sheets_range", ref)
	}

	return nil
}
