package export

import (
	"testing"

	"finsight/internal/analysis"
	"finsight/internal/core"
)

func TestReportRow(t *testing.T) {
	report := &analysis.Report{
		TotalSpending:  565.00,
		MonthlyAverage: 188.33,
		Months:         []string{"2024-08", "2024-09", "2024-10"},
		OverallForecast: core.ForecastResult{
			Forecast: 196.58,
			Trend:    core.TrendIncreasing,
		},
		Plan: core.OptimizationPlan{Status: core.PlanBalanced},
	}

	row := reportRow("digest-abc", report)
	if len(row) != 8 {
		t.Fatalf("row length = %d, want 8", len(row))
	}
	if row[1] != "digest-abc" {
		t.Errorf("digest column = %v", row[1])
	}
	if row[2] != "2024-08 - 2024-10" {
		t.Errorf("month span = %v, want 2024-08 - 2024-10", row[2])
	}
	if row[3] != 565.00 || row[4] != 188.33 {
		t.Errorf("totals = %v, %v", row[3], row[4])
	}
	if row[6] != "increasing" || row[7] != "budget_balanced" {
		t.Errorf("forecast/plan columns = %v, %v", row[6], row[7])
	}
}

func TestReportRowSingleMonth(t *testing.T) {
	row := reportRow("d", &analysis.Report{Months: []string{"2024-10"}})
	if row[2] != "2024-10" {
		t.Errorf("month span = %v, want 2024-10", row[2])
	}
}

func TestReportRowNoMonths(t *testing.T) {
	row := reportRow("d", &analysis.Report{})
	if row[2] != "" {
		t.Errorf("month span = %v, want empty", row[2])
	}
}
