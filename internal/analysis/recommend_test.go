package analysis

import (
	"testing"

	"finsight/internal/core"
)

func TestOptimizeAllocationBalanced(t *testing.T) {
	spending := map[core.Category]float64{core.CategoryDining: 100, core.CategoryGroceries: 300}
	plan := OptimizeAllocation(spending, core.Goals{MonthlySavings: 50}, 500)

	if plan.Status != core.PlanBalanced {
		t.Errorf("status = %q, want %q", plan.Status, core.PlanBalanced)
	}
	if len(plan.Recommendations) != 0 {
		t.Errorf("expected no recommendations, got %v", plan.Recommendations)
	}
	if plan.RequiredReduction != 0 || plan.PotentialSavings != 0 {
		t.Errorf("balanced plan should carry zero amounts, got %+v", plan)
	}
}

func TestOptimizeAllocationExactlyBalancedBoundary(t *testing.T) {
	// spending + goal == income leaves nothing to reduce.
	spending := map[core.Category]float64{core.CategoryDining: 400}
	plan := OptimizeAllocation(spending, core.Goals{MonthlySavings: 100}, 500)
	if plan.Status != core.PlanBalanced {
		t.Errorf("status = %q, want %q", plan.Status, core.PlanBalanced)
	}
}

func TestOptimizeAllocationReductions(t *testing.T) {
	spending := map[core.Category]float64{
		core.CategoryDining:        500,
		core.CategoryEntertainment: 200,
		core.CategoryGroceries:     400, // essential, never reduced
	}
	plan := OptimizeAllocation(spending, core.Goals{MonthlySavings: 300}, 1200)

	if plan.Status != core.PlanOptimizationNeeded {
		t.Fatalf("status = %q, want %q", plan.Status, core.PlanOptimizationNeeded)
	}
	// 500 + 200 + 400 + 300 - 1200 = 200 short.
	if plan.RequiredReduction != 200 {
		t.Errorf("required reduction = %v, want 200", plan.RequiredReduction)
	}

	want := []core.Recommendation{
		{Category: core.CategoryDining, CurrentSpending: 500, SuggestedReduction: 75, NewBudget: 425},
		{Category: core.CategoryEntertainment, CurrentSpending: 200, SuggestedReduction: 30, NewBudget: 170},
	}
	if len(plan.Recommendations) != len(want) {
		t.Fatalf("recommendations = %+v, want %+v", plan.Recommendations, want)
	}
	for i, rec := range plan.Recommendations {
		if rec != want[i] {
			t.Errorf("recommendation %d = %+v, want %+v", i, rec, want[i])
		}
	}
	if plan.PotentialSavings != 105 {
		t.Errorf("potential savings = %v, want 105", plan.PotentialSavings)
	}
}

func TestOptimizeAllocationShareCap(t *testing.T) {
	// 15% of dining (1500) exceeds 40% of the required 100, so the share
	// cap binds at 40.
	spending := map[core.Category]float64{
		core.CategoryDining:    10000,
		core.CategoryUtilities: 100,
	}
	plan := OptimizeAllocation(spending, core.Goals{}, 10000)

	if plan.RequiredReduction != 100 {
		t.Fatalf("required reduction = %v, want 100", plan.RequiredReduction)
	}
	if len(plan.Recommendations) != 1 {
		t.Fatalf("expected 1 recommendation, got %+v", plan.Recommendations)
	}
	if got := plan.Recommendations[0].SuggestedReduction; got != 40 {
		t.Errorf("suggested reduction = %v, want 40", got)
	}
}

func TestOptimizeAllocationMayUnderDeliver(t *testing.T) {
	// No discretionary spending at all: the plan cannot propose anything
	// even though a reduction is required.
	spending := map[core.Category]float64{core.CategoryUtilities: 900}
	plan := OptimizeAllocation(spending, core.Goals{MonthlySavings: 200}, 1000)

	if plan.Status != core.PlanOptimizationNeeded {
		t.Errorf("status = %q, want %q", plan.Status, core.PlanOptimizationNeeded)
	}
	if len(plan.Recommendations) != 0 || plan.PotentialSavings != 0 {
		t.Errorf("expected empty recommendations, got %+v", plan)
	}
}

func TestGoalAdjustment(t *testing.T) {
	spending := map[core.Category]float64{core.CategoryDining: 600, core.CategoryGroceries: 400}

	t.Run("feasible", func(t *testing.T) {
		got := GoalAdjustment(spending, 1200, 12)
		want := core.GoalAdjustment{
			Feasible:             true,
			MonthlySavingsNeeded: 100,
			ReductionPercentage:  10,
			TimelineMonths:       12,
			TotalGoal:            1200,
		}
		if got != want {
			t.Errorf("GoalAdjustment = %+v, want %+v", got, want)
		}
	})

	t.Run("infeasible past thirty percent", func(t *testing.T) {
		got := GoalAdjustment(spending, 6000, 12)
		if got.Feasible {
			t.Errorf("expected infeasible, got %+v", got)
		}
		if got.ReductionPercentage != 50 {
			t.Errorf("reduction percentage = %v, want 50", got.ReductionPercentage)
		}
	})

	t.Run("thirty percent boundary is feasible", func(t *testing.T) {
		got := GoalAdjustment(spending, 3600, 12)
		if !got.Feasible {
			t.Errorf("expected feasible at exactly 30%%, got %+v", got)
		}
	})

	t.Run("no spending data", func(t *testing.T) {
		got := GoalAdjustment(nil, 1000, 6)
		if got.Feasible || got.Reason != core.ReasonNoSpendingData {
			t.Errorf("GoalAdjustment = %+v, want infeasible with %q", got, core.ReasonNoSpendingData)
		}
	})
}

func TestGoalAdjustmentPanicsOnBadTimeline(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for timeline 0")
		}
	}()
	GoalAdjustment(map[core.Category]float64{core.CategoryDining: 100}, 500, 0)
}

func TestSavingsTimeline(t *testing.T) {
	t.Run("surplus", func(t *testing.T) {
		got := SavingsTimeline(1000, 3000, 2500)
		want := core.SavingsTimeline{Feasible: true, Months: 2, MonthlySavings: 500}
		if got != want {
			t.Errorf("SavingsTimeline = %+v, want %+v", got, want)
		}
	})

	t.Run("no surplus", func(t *testing.T) {
		got := SavingsTimeline(1000, 2500, 2500)
		if got.Feasible || got.Reason != core.ReasonNoSurplus {
			t.Errorf("SavingsTimeline = %+v, want infeasible with %q", got, core.ReasonNoSurplus)
		}
	})

	t.Run("expenses above income", func(t *testing.T) {
		got := SavingsTimeline(1000, 2000, 2500)
		if got.Feasible || got.Reason != core.ReasonNoSurplus {
			t.Errorf("SavingsTimeline = %+v, want infeasible with %q", got, core.ReasonNoSurplus)
		}
	})
}
