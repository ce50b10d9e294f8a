package core

// Status and classification values carried by analysis results. These are
// part of the wire contract with the orchestration layer and must not change
// spelling.
const (
	StatusNoBudgetSet VarianceStatus = "no_budget_set"
	StatusOverBudget  VarianceStatus = "over_budget"
	StatusUnderBudget VarianceStatus = "under_budget"
	StatusOnTrack     VarianceStatus = "on_track"

	SignificanceUnknown     Significance = "unknown"
	SignificanceMinor       Significance = "minor"
	SignificanceSignificant Significance = "significant"

	TrendInsufficientData TrendDirection = "insufficient_data"
	TrendIncreasing       TrendDirection = "increasing"
	TrendDecreasing       TrendDirection = "decreasing"
	TrendStable           TrendDirection = "stable"

	PlanBalanced           PlanStatus = "budget_balanced"
	PlanOptimizationNeeded PlanStatus = "optimization_needed"

	ReasonNoSpendingData = "no_spending_data"
	ReasonNoSurplus      = "no_surplus"
)

type (
	VarianceStatus string
	Significance   string
	TrendDirection string
	PlanStatus     string

	// VarianceResult is the budget-vs-actual comparison for a single amount
	// pair. Status and Significance are computed on independent axes and both
	// are always reported.
	VarianceResult struct {
		VariancePercentage float64        `json:"variance_percentage"`
		VarianceAmount     float64        `json:"variance_amount"`
		Status             VarianceStatus `json:"status"`
		Significance       Significance   `json:"significance"`
	}

	// CategoryVarianceResult augments VarianceResult with the mean per-month
	// spending the variance was computed against.
	CategoryVarianceResult struct {
		VarianceResult
		AverageSpending float64 `json:"average_spending"`
	}

	// ForecastResult is a linear-regression projection with an approximate
	// 95% confidence interval. The interval's lower bound is clamped to zero.
	ForecastResult struct {
		Forecast           float64        `json:"forecast"`
		ConfidenceInterval [2]float64     `json:"confidence_interval"`
		Trend              TrendDirection `json:"trend"`
		Slope              float64        `json:"slope"`
	}

	// Recommendation proposes a spending reduction for one discretionary
	// category.
	Recommendation struct {
		Category           Category `json:"category"`
		CurrentSpending    float64  `json:"current_spending"`
		SuggestedReduction float64  `json:"suggested_reduction"`
		NewBudget          float64  `json:"new_budget"`
	}

	// OptimizationPlan is the output of budget reallocation. PotentialSavings
	// may fall short of RequiredReduction; the per-category caps are policy.
	OptimizationPlan struct {
		Status            PlanStatus       `json:"status"`
		RequiredReduction float64          `json:"required_reduction,omitempty"`
		Recommendations   []Recommendation `json:"recommendations"`
		PotentialSavings  float64          `json:"potential_savings"`
	}

	// GoalAdjustment describes what reaching a savings goal over a timeline
	// would take.
	GoalAdjustment struct {
		Feasible             bool    `json:"feasible"`
		Reason               string  `json:"reason,omitempty"`
		MonthlySavingsNeeded float64 `json:"monthly_savings_needed,omitempty"`
		ReductionPercentage  float64 `json:"reduction_percentage,omitempty"`
		TimelineMonths       int     `json:"timeline_months,omitempty"`
		TotalGoal            float64 `json:"total_goal,omitempty"`
	}

	// SavingsTimeline estimates how long a savings target takes at the
	// current income/expense surplus.
	SavingsTimeline struct {
		Feasible       bool    `json:"feasible"`
		Reason         string  `json:"reason,omitempty"`
		Months         float64 `json:"months,omitempty"`
		MonthlySavings float64 `json:"monthly_savings,omitempty"`
	}
)
