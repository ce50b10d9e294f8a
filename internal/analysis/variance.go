package analysis

import (
	"math"

	"finsight/internal/core"
)

// Status and significance thresholds, in percentage points.
const (
	statusThresholdPct       = 10
	significanceThresholdPct = 15
)

// Variance compares actual against budgeted spending. A zero budget is not
// an error: it yields the no_budget_set status with the full actual amount
// as variance, so division by zero never propagates.
func Variance(actual, budgeted float64) core.VarianceResult {
	if budgeted == 0 {
		return core.VarianceResult{
			VariancePercentage: 0,
			VarianceAmount:     actual,
			Status:             core.StatusNoBudgetSet,
			Significance:       core.SignificanceUnknown,
		}
	}

	amount := actual - budgeted
	pct := amount / budgeted * 100

	status := core.StatusOnTrack
	if pct > statusThresholdPct {
		status = core.StatusOverBudget
	} else if pct < -statusThresholdPct {
		status = core.StatusUnderBudget
	}

	// Significance is a separate axis from status; both are reported even
	// though |pct| > 15 implies an over/under status.
	significance := core.SignificanceMinor
	if math.Abs(pct) > significanceThresholdPct {
		significance = core.SignificanceSignificant
	}

	return core.VarianceResult{
		VariancePercentage: core.Round2(pct),
		VarianceAmount:     core.Round2(amount),
		Status:             status,
		Significance:       significance,
	}
}

// CategoryVariance computes the variance of each category's average monthly
// spending against its budget. Categories absent from the bucket are
// skipped, not zero-filled; categories without a budget entry get a zero
// budget and therefore the no_budget_set status.
func CategoryVariance(bucket core.MonthlyBucket, budgets map[core.Category]float64) map[core.Category]core.CategoryVarianceResult {
	results := make(map[core.Category]core.CategoryVarianceResult)
	for cat, avg := range AverageMonthlySpending(bucket) {
		results[cat] = core.CategoryVarianceResult{
			VarianceResult:  Variance(avg, budgets[cat]),
			AverageSpending: core.Round2(avg),
		}
	}
	return results
}
