package storage

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"finsight/internal/analysis"
	"finsight/internal/core"
)

func testRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "finsight.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testRequest() analysis.Request {
	return analysis.Request{
		Transactions: []core.Transaction{
			{Date: "2024-10-02", Merchant: "Pizza Palace", Amount: 28.75},
		},
		Budgets:       map[core.Category]float64{core.CategoryDining: 200},
		MonthlyIncome: 3000,
	}
}

func TestBatchRoundTrip(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	req := testRequest()

	if err := repo.SaveBatch(ctx, "batch-1", req); err != nil {
		t.Fatalf("SaveBatch: %v", err)
	}

	got, err := repo.GetBatch(ctx, "batch-1")
	if err != nil {
		t.Fatalf("GetBatch: %v", err)
	}
	if !reflect.DeepEqual(got, req) {
		t.Errorf("GetBatch = %+v, want %+v", got, req)
	}
}

func TestGetBatchNotFound(t *testing.T) {
	repo := testRepo(t)

	_, err := repo.GetBatch(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetBatch error = %v, want ErrNotFound", err)
	}
}

func TestSaveBatchIdempotent(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	if err := repo.SaveBatch(ctx, "batch-1", testRequest()); err != nil {
		t.Fatalf("SaveBatch: %v", err)
	}
	if err := repo.SaveBatch(ctx, "batch-1", testRequest()); err != nil {
		t.Fatalf("SaveBatch second time: %v", err)
	}

	pending, err := repo.PendingBatches(ctx, 10)
	if err != nil {
		t.Fatalf("PendingBatches: %v", err)
	}
	if len(pending) != 1 {
		t.Errorf("expected 1 pending batch, got %d", len(pending))
	}
}

func TestBatchStatusTransitions(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	if err := repo.SaveBatch(ctx, "batch-1", testRequest()); err != nil {
		t.Fatalf("SaveBatch: %v", err)
	}
	if err := repo.SaveBatch(ctx, "batch-2", testRequest()); err != nil {
		t.Fatalf("SaveBatch: %v", err)
	}

	if err := repo.MarkProcessed(ctx, "batch-1"); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}
	if err := repo.MarkFailed(ctx, "batch-2"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}

	pending, err := repo.PendingBatches(ctx, 10)
	if err != nil {
		t.Fatalf("PendingBatches: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("expected no pending batches, got %+v", pending)
	}

	if err := repo.MarkProcessed(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("MarkProcessed error = %v, want ErrNotFound", err)
	}
}

func TestPendingBatchesRespectsLimit(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := repo.SaveBatch(ctx, id, testRequest()); err != nil {
			t.Fatalf("SaveBatch(%s): %v", id, err)
		}
	}

	pending, err := repo.PendingBatches(ctx, 2)
	if err != nil {
		t.Fatalf("PendingBatches: %v", err)
	}
	if len(pending) != 2 {
		t.Errorf("expected 2 batches, got %d", len(pending))
	}
}

func TestReportRoundTrip(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	report := &analysis.Report{
		TotalSpending:  188.75,
		MonthlyAverage: 188.75,
		Months:         []string{"2024-10"},
		CategoryBreakdown: map[core.Category]float64{
			core.CategoryDining: 188.75,
		},
	}

	if err := repo.SaveReport(ctx, "digest-1", "batch-1", report); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}

	got, err := repo.GetReport(ctx, "digest-1")
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if got.TotalSpending != report.TotalSpending {
		t.Errorf("TotalSpending = %v, want %v", got.TotalSpending, report.TotalSpending)
	}
	if !reflect.DeepEqual(got.Months, report.Months) {
		t.Errorf("Months = %v, want %v", got.Months, report.Months)
	}

	if _, err := repo.GetReport(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetReport error = %v, want ErrNotFound", err)
	}
}

func TestReportExportFlow(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	if err := repo.SaveReport(ctx, "digest-1", "batch-1", &analysis.Report{TotalSpending: 10}); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	if err := repo.SaveReport(ctx, "digest-2", "batch-2", &analysis.Report{TotalSpending: 20}); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}

	unexported, err := repo.UnexportedReports(ctx, 10)
	if err != nil {
		t.Fatalf("UnexportedReports: %v", err)
	}
	if len(unexported) != 2 {
		t.Fatalf("expected 2 unexported reports, got %d", len(unexported))
	}

	if err := repo.MarkExported(ctx, "digest-1"); err != nil {
		t.Fatalf("MarkExported: %v", err)
	}

	unexported, err = repo.UnexportedReports(ctx, 10)
	if err != nil {
		t.Fatalf("UnexportedReports: %v", err)
	}
	if len(unexported) != 1 || unexported[0].Digest != "digest-2" {
		t.Errorf("unexported = %+v, want only digest-2", unexported)
	}

	if err := repo.MarkExported(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("MarkExported error = %v, want ErrNotFound", err)
	}
}
