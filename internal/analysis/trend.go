package analysis

import (
	"fmt"
	"math"

	"finsight/internal/core"
)

const (
	// slopeThreshold classifies the OLS slope into a trend direction. It is
	// an absolute slope unit on the scale of the input values, not a
	// percentage; callers depend on the exact value.
	slopeThreshold = 0.05

	// DefaultForecastPeriods is how far ahead Forecast projects when the
	// caller does not say.
	DefaultForecastPeriods = 3

	// zMultiplier95 approximates a 95% confidence interval under the
	// normal-residual assumption.
	zMultiplier95 = 1.96
)

// MovingAverage smooths a series with a sliding window of the given size,
// preserving order. A series shorter than the window is returned unchanged;
// otherwise the result has len(values)-window+1 entries. A non-positive
// window is a programming error and panics.
func MovingAverage(values []float64, window int) []float64 {
	if window < 1 {
		panic(fmt.Sprintf("analysis: moving average window must be positive, got %d", window))
	}
	if len(values) < window {
		return values
	}

	out := make([]float64, 0, len(values)-window+1)
	for i := 0; i+window <= len(values); i++ {
		var sum float64
		for _, v := range values[i : i+window] {
			sum += v
		}
		out = append(out, sum/float64(window))
	}
	return out
}

// linearFit computes the ordinary-least-squares line of values against the
// index 0..n-1. The zero-denominator guard can only trip on degenerate x
// values, which cannot happen for n >= 2 here, but it keeps the fit total.
func linearFit(values []float64) (slope, intercept float64) {
	n := float64(len(values))
	xMean := (n - 1) / 2
	var yMean float64
	for _, v := range values {
		yMean += v
	}
	yMean /= n

	var num, den float64
	for i, v := range values {
		dx := float64(i) - xMean
		num += dx * (v - yMean)
		den += dx * dx
	}
	if den == 0 {
		return 0, yMean
	}
	return num / den, yMean - num/den*xMean
}

// TrendDirection classifies the slope of a series. Fewer than two points
// cannot support a direction and yield insufficient_data.
func TrendDirection(values []float64) core.TrendDirection {
	if len(values) < 2 {
		return core.TrendInsufficientData
	}
	slope, _ := linearFit(values)
	switch {
	case slope > slopeThreshold:
		return core.TrendIncreasing
	case slope < -slopeThreshold:
		return core.TrendDecreasing
	default:
		return core.TrendStable
	}
}

// Forecast projects the series periodsAhead steps beyond its end using an
// OLS fit, with an approximate 95% confidence interval from the residual
// standard error. Fewer than three points degrade to the last observed
// value (or 0 when empty) with a (0,0) interval. The forecast and the
// interval's lower bound are clamped to zero: spending cannot be negative.
func Forecast(historical []float64, periodsAhead int) core.ForecastResult {
	if len(historical) < 3 {
		var last float64
		if len(historical) > 0 {
			last = historical[len(historical)-1]
		}
		return core.ForecastResult{
			Forecast:           last,
			ConfidenceInterval: [2]float64{0, 0},
			Trend:              core.TrendInsufficientData,
		}
	}

	n := len(historical)
	slope, intercept := linearFit(historical)

	forecastX := float64(n + periodsAhead - 1)
	forecast := slope*forecastX + intercept

	// Residual mean-square error with n-2 degrees of freedom; n <= 2 would
	// divide by zero so mse stays 0 at that boundary.
	var mse float64
	if n > 2 {
		var ss float64
		for i, v := range historical {
			r := v - (slope*float64(i) + intercept)
			ss += r * r
		}
		mse = ss / float64(n-2)
	}
	margin := zMultiplier95 * math.Sqrt(mse)

	return core.ForecastResult{
		Forecast:           core.Round2(math.Max(0, forecast)),
		ConfidenceInterval: [2]float64{core.Round2(math.Max(0, forecast-margin)), core.Round2(forecast + margin)},
		Trend:              TrendDirection(historical),
		Slope:              core.Round4(slope),
	}
}

// SeasonalFactors computes per-month seasonal multipliers. With fewer than
// twelve months of data there is not a full cycle to compare against, so
// every month gets a neutral 1.0.
func SeasonalFactors(monthly map[string]float64) map[string]float64 {
	factors := make(map[string]float64, len(monthly))
	if len(monthly) < 12 {
		for month := range monthly {
			factors[month] = 1.0
		}
		return factors
	}

	var total float64
	for _, amount := range monthly {
		total += amount
	}
	mean := total / float64(len(monthly))

	for month, amount := range monthly {
		if mean > 0 {
			factors[month] = amount / mean
		} else {
			factors[month] = 1.0
		}
	}
	return factors
}
