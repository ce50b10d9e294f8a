package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"finsight/internal/core"
)

// recentActivityLimit is how many of the most recent transactions a report
// echoes back.
const recentActivityLimit = 5

// Request is one full analysis job: raw transactions plus the caller's
// budgets, goals and income context. The zero value of every optional field
// is meaningful (no budgets, no goal, no income).
type Request struct {
	Transactions    []core.Transaction        `json:"transactions"`
	Budgets         map[core.Category]float64 `json:"budgets,omitempty"`
	Goals           core.Goals                `json:"goals,omitempty"`
	MonthlyIncome   float64                   `json:"monthly_income,omitempty"`
	ForecastPeriods int                       `json:"forecast_periods,omitempty"`
}

// Digest returns a stable identifier for the request contents. Analysis is
// deterministic, so two requests with equal digests produce equal reports
// and the digest doubles as a cache and storage key. Map keys are emitted in
// sorted order by encoding/json, which keeps the digest canonical.
func (r Request) Digest() (string, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("digest request: %w", err)
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

// Report is the complete analysis output for one Request. It carries no
// timestamps so that identical requests yield byte-identical reports.
type Report struct {
	TotalSpending     float64                                       `json:"total_spending"`
	MonthlyAverage    float64                                       `json:"monthly_average"`
	Months            []string                                      `json:"months"`
	MonthlyTotals     []float64                                     `json:"monthly_totals"`
	CategoryBreakdown map[core.Category]float64                     `json:"category_breakdown"`
	Variance          map[core.Category]core.CategoryVarianceResult `json:"variance"`
	OverallForecast   core.ForecastResult                           `json:"overall_forecast"`
	CategoryForecasts map[core.Category]core.ForecastResult         `json:"category_forecasts"`
	SeasonalFactors   map[string]float64                            `json:"seasonal_factors"`
	Plan              core.OptimizationPlan                         `json:"plan"`
	EstimatedDates    int                                           `json:"estimated_dates"`
	RecentActivity    []core.CategorizedTransaction                 `json:"recent_activity"`
}

// Analyzer runs the full pipeline: categorize, aggregate, variance, forecast
// and optimize. It is safe for concurrent use.
type Analyzer struct {
	categorizer     *Categorizer
	forecastPeriods int
}

// NewAnalyzer returns an Analyzer projecting forecastPeriods months ahead;
// a non-positive value selects DefaultForecastPeriods.
func NewAnalyzer(forecastPeriods int) *Analyzer {
	return NewAnalyzerAt(forecastPeriods, time.Now)
}

// NewAnalyzerAt is NewAnalyzer with a fixed clock for the unparseable-date
// fallback.
func NewAnalyzerAt(forecastPeriods int, now func() time.Time) *Analyzer {
	if forecastPeriods < 1 {
		forecastPeriods = DefaultForecastPeriods
	}
	return &Analyzer{
		categorizer:     NewCategorizerAt(now),
		forecastPeriods: forecastPeriods,
	}
}

// Analyze produces the report for one request. Per-category forecasts run
// concurrently; everything else is cheap enough to stay sequential. The
// request-level ForecastPeriods overrides the analyzer default when set.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*Report, error) {
	periods := a.forecastPeriods
	if req.ForecastPeriods > 0 {
		periods = req.ForecastPeriods
	}

	categorized := a.categorizer.Categorize(req.Transactions)
	bucket := MonthlyTotals(categorized)
	breakdown := CategoryBreakdown(bucket)
	months := bucket.Months()
	totals := bucket.MonthTotals()

	var totalSpending float64
	for _, amount := range totals {
		totalSpending += amount
	}
	var monthlyAverage float64
	if len(totals) > 0 {
		monthlyAverage = totalSpending / float64(len(totals))
	}

	var estimated int
	for _, tx := range categorized {
		if tx.DateEstimated {
			estimated++
		}
	}

	monthly := make(map[string]float64, len(months))
	for i, m := range months {
		monthly[m] = totals[i]
	}

	cats := bucket.PresentCategories()
	forecasts := make([]core.ForecastResult, len(cats))
	g, ctx := errgroup.WithContext(ctx)
	for i, cat := range cats {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			forecasts[i] = Forecast(bucket.CategoryAmounts(cat), periods)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("forecast categories: %w", err)
	}

	categoryForecasts := make(map[core.Category]core.ForecastResult, len(cats))
	for i, cat := range cats {
		categoryForecasts[cat] = forecasts[i]
	}

	return &Report{
		TotalSpending:     core.Round2(totalSpending),
		MonthlyAverage:    core.Round2(monthlyAverage),
		Months:            months,
		MonthlyTotals:     roundAll(totals),
		CategoryBreakdown: roundMap(breakdown),
		Variance:          CategoryVariance(bucket, req.Budgets),
		OverallForecast:   Forecast(totals, periods),
		CategoryForecasts: categoryForecasts,
		SeasonalFactors:   SeasonalFactors(monthly),
		Plan:              OptimizeAllocation(AverageMonthlySpending(bucket), req.Goals, req.MonthlyIncome),
		EstimatedDates:    estimated,
		RecentActivity:    recentActivity(categorized),
	}, nil
}

// recentActivity returns the most recent transactions, newest first. The
// sort is stable so equal dates keep their input order.
func recentActivity(categorized []core.CategorizedTransaction) []core.CategorizedTransaction {
	recent := make([]core.CategorizedTransaction, len(categorized))
	copy(recent, categorized)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].Date.After(recent[j].Date)
	})
	if len(recent) > recentActivityLimit {
		recent = recent[:recentActivityLimit]
	}
	return recent
}

func roundAll(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = core.Round2(v)
	}
	return out
}

func roundMap(values map[core.Category]float64) map[core.Category]float64 {
	out := make(map[core.Category]float64, len(values))
	for cat, v := range values {
		out[cat] = core.Round2(v)
	}
	return out
}
