package analysis

import (
	"reflect"
	"testing"

	"finsight/internal/core"
)

func TestMovingAverage(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		window int
		want   []float64
	}{
		{"window of two", []float64{1, 2, 3, 4}, 2, []float64{1.5, 2.5, 3.5}},
		{"window of three", []float64{3, 6, 9, 12}, 3, []float64{6, 9}},
		{"window equals length", []float64{2, 4}, 2, []float64{3}},
		{"shorter than window unchanged", []float64{5, 7}, 3, []float64{5, 7}},
		{"empty input", nil, 3, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MovingAverage(tt.values, tt.window)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("MovingAverage(%v, %d) = %v, want %v", tt.values, tt.window, got, tt.want)
			}
		})
	}
}

func TestMovingAveragePanicsOnBadWindow(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for window 0")
		}
	}()
	MovingAverage([]float64{1, 2, 3}, 0)
}

func TestTrendDirection(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   core.TrendDirection
	}{
		{"empty", nil, core.TrendInsufficientData},
		{"single point", []float64{100}, core.TrendInsufficientData},
		{"rising", []float64{100, 110, 120}, core.TrendIncreasing},
		{"falling", []float64{120, 110, 100}, core.TrendDecreasing},
		{"flat", []float64{100, 100, 100}, core.TrendStable},
		// The threshold is an absolute slope of 0.05 per period.
		{"slope at threshold is stable", []float64{100, 100.05}, core.TrendStable},
		{"slope past threshold is increasing", []float64{100, 100.06}, core.TrendIncreasing},
		{"small negative slope is stable", []float64{100.04, 100}, core.TrendStable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrendDirection(tt.values); got != tt.want {
				t.Errorf("TrendDirection(%v) = %q, want %q", tt.values, got, tt.want)
			}
		})
	}
}

func TestForecastShortSeries(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   core.ForecastResult
	}{
		{"empty", nil, core.ForecastResult{Forecast: 0, ConfidenceInterval: [2]float64{0, 0}, Trend: core.TrendInsufficientData}},
		{"one point", []float64{42.5}, core.ForecastResult{Forecast: 42.5, ConfidenceInterval: [2]float64{0, 0}, Trend: core.TrendInsufficientData}},
		{"two points", []float64{10, 20}, core.ForecastResult{Forecast: 20, ConfidenceInterval: [2]float64{0, 0}, Trend: core.TrendInsufficientData}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Forecast(tt.values, 1); got != tt.want {
				t.Errorf("Forecast(%v, 1) = %+v, want %+v", tt.values, got, tt.want)
			}
		})
	}
}

func TestForecastThreeMonths(t *testing.T) {
	got := Forecast([]float64{180.50, 195.75, 188.75}, 1)

	// Hand-computed OLS on indices 0..2: slope 4.125, intercept 184.2083,
	// projection at x=3.
	if got.Forecast != 196.58 {
		t.Errorf("forecast = %v, want 196.58", got.Forecast)
	}
	if got.Slope != 4.125 {
		t.Errorf("slope = %v, want 4.125", got.Slope)
	}
	if got.Trend != core.TrendIncreasing {
		t.Errorf("trend = %q, want %q", got.Trend, core.TrendIncreasing)
	}
	if got.ConfidenceInterval != [2]float64{178.78, 214.39} {
		t.Errorf("confidence interval = %v, want [178.78 214.39]", got.ConfidenceInterval)
	}
}

func TestForecastClampsAtZero(t *testing.T) {
	// A steep decline projects below zero; the forecast and the interval's
	// lower bound are clamped, spending cannot be negative.
	got := Forecast([]float64{100, 50, 0}, 3)
	if got.Forecast != 0 {
		t.Errorf("forecast = %v, want 0", got.Forecast)
	}
	if got.ConfidenceInterval[0] < 0 {
		t.Errorf("confidence interval lower bound = %v, want >= 0", got.ConfidenceInterval[0])
	}
	if got.Trend != core.TrendDecreasing {
		t.Errorf("trend = %q, want %q", got.Trend, core.TrendDecreasing)
	}
}

func TestForecastPerfectFitHasZeroMargin(t *testing.T) {
	got := Forecast([]float64{10, 20, 30, 40}, 1)
	if got.Forecast != 50 {
		t.Errorf("forecast = %v, want 50", got.Forecast)
	}
	if got.ConfidenceInterval != [2]float64{50, 50} {
		t.Errorf("confidence interval = %v, want [50 50]", got.ConfidenceInterval)
	}
}

func TestSeasonalFactors(t *testing.T) {
	t.Run("fewer than twelve months is neutral", func(t *testing.T) {
		monthly := map[string]float64{"2024-09": 100, "2024-10": 300}
		got := SeasonalFactors(monthly)
		for month, f := range got {
			if f != 1.0 {
				t.Errorf("factor for %s = %v, want 1.0", month, f)
			}
		}
		if len(got) != len(monthly) {
			t.Errorf("expected %d factors, got %d", len(monthly), len(got))
		}
	})

	t.Run("full year yields ratios to the mean", func(t *testing.T) {
		monthly := make(map[string]float64, 12)
		months := []string{
			"2024-01", "2024-02", "2024-03", "2024-04", "2024-05", "2024-06",
			"2024-07", "2024-08", "2024-09", "2024-10", "2024-11", "2024-12",
		}
		for _, m := range months {
			monthly[m] = 100
		}
		monthly["2024-12"] = 1300 // holiday spike; mean becomes 200

		got := SeasonalFactors(monthly)
		if got["2024-12"] != 6.5 {
			t.Errorf("december factor = %v, want 6.5", got["2024-12"])
		}
		if got["2024-01"] != 0.5 {
			t.Errorf("january factor = %v, want 0.5", got["2024-01"])
		}
	})
}
