package analysis

import (
	"fmt"

	"finsight/internal/core"
)

const (
	// categoryReductionRate caps a suggested reduction at 15% of the
	// category's current spending.
	categoryReductionRate = 0.15
	// reductionShareCap keeps any single category from carrying more than
	// 40% of the total required reduction.
	reductionShareCap = 0.4
	// feasibleReductionPct is the ceiling on overall spending reduction
	// considered realistic for goal planning.
	feasibleReductionPct = 30
)

// discretionaryCategories lists the categories reduced before essential
// spending, in reduction-priority order.
var discretionaryCategories = []core.Category{
	core.CategoryDining,
	core.CategoryEntertainment,
	core.CategoryShopping,
}

// OptimizeAllocation proposes per-category reductions to close the gap
// between spending plus savings goal and income. With both caps applied the
// plan may under-deliver on the required reduction; callers compare
// PotentialSavings against RequiredReduction to see the shortfall.
func OptimizeAllocation(currentSpending map[core.Category]float64, goals core.Goals, totalIncome float64) core.OptimizationPlan {
	var totalSpending float64
	for _, amount := range currentSpending {
		totalSpending += amount
	}

	required := totalSpending + goals.MonthlySavings - totalIncome
	if required <= 0 {
		return core.OptimizationPlan{
			Status:          core.PlanBalanced,
			Recommendations: []core.Recommendation{},
		}
	}

	var recommendations []core.Recommendation
	var potential float64
	for _, cat := range discretionaryCategories {
		spending, ok := currentSpending[cat]
		if !ok || spending <= 0 {
			continue
		}
		reduction := spending * categoryReductionRate
		if cap := required * reductionShareCap; reduction > cap {
			reduction = cap
		}
		recommendations = append(recommendations, core.Recommendation{
			Category:           cat,
			CurrentSpending:    spending,
			SuggestedReduction: core.Round2(reduction),
			NewBudget:          core.Round2(spending - reduction),
		})
		potential += reduction
	}

	return core.OptimizationPlan{
		Status:            core.PlanOptimizationNeeded,
		RequiredReduction: core.Round2(required),
		Recommendations:   recommendations,
		PotentialSavings:  core.Round2(potential),
	}
}

// GoalAdjustment computes the monthly reduction needed to reach a savings
// goal over a timeline. Zero current spending means there is nothing to
// reduce and the goal is reported infeasible rather than erroring. A
// non-positive timeline is a programming error and panics.
func GoalAdjustment(currentSpending map[core.Category]float64, savingsGoal float64, timelineMonths int) core.GoalAdjustment {
	if timelineMonths < 1 {
		panic(fmt.Sprintf("analysis: goal timeline must be positive, got %d months", timelineMonths))
	}

	var totalSpending float64
	for _, amount := range currentSpending {
		totalSpending += amount
	}
	if totalSpending == 0 {
		return core.GoalAdjustment{Feasible: false, Reason: core.ReasonNoSpendingData}
	}

	monthlyNeeded := savingsGoal / float64(timelineMonths)
	reductionPct := monthlyNeeded / totalSpending * 100

	return core.GoalAdjustment{
		Feasible:             reductionPct <= feasibleReductionPct,
		MonthlySavingsNeeded: core.Round2(monthlyNeeded),
		ReductionPercentage:  core.Round2(reductionPct),
		TimelineMonths:       timelineMonths,
		TotalGoal:            savingsGoal,
	}
}

// SavingsTimeline estimates how many months a savings target takes at the
// current monthly surplus. No surplus means the target is unreachable.
func SavingsTimeline(targetAmount, monthlyIncome, monthlyExpenses float64) core.SavingsTimeline {
	surplus := monthlyIncome - monthlyExpenses
	if surplus <= 0 {
		return core.SavingsTimeline{Feasible: false, Reason: core.ReasonNoSurplus}
	}
	return core.SavingsTimeline{
		Feasible:       true,
		Months:         core.Round2(targetAmount / surplus),
		MonthlySavings: core.Round2(surplus),
	}
}
