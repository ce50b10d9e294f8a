package analysis

import "finsight/internal/core"

// MonthlyTotals groups categorized transactions by month key and category,
// summing amount magnitudes. Months without activity get no entry.
func MonthlyTotals(transactions []core.CategorizedTransaction) core.MonthlyBucket {
	bucket := make(core.MonthlyBucket)
	for _, tx := range transactions {
		month := core.MonthKey(tx.Date)
		if bucket[month] == nil {
			bucket[month] = make(map[core.Category]float64)
		}
		bucket[month][tx.Category] += tx.Amount
	}
	return bucket
}

// CategoryBreakdown sums spending per category across all months of the
// bucket.
func CategoryBreakdown(bucket core.MonthlyBucket) map[core.Category]float64 {
	breakdown := make(map[core.Category]float64)
	for _, byCat := range bucket {
		for cat, amount := range byCat {
			breakdown[cat] += amount
		}
	}
	return breakdown
}

// AverageMonthlySpending returns the per-category mean of monthly totals,
// averaged over the months in which the category appears.
func AverageMonthlySpending(bucket core.MonthlyBucket) map[core.Category]float64 {
	averages := make(map[core.Category]float64)
	for _, cat := range bucket.PresentCategories() {
		amounts := bucket.CategoryAmounts(cat)
		var sum float64
		for _, a := range amounts {
			sum += a
		}
		averages[cat] = sum / float64(len(amounts))
	}
	return averages
}
