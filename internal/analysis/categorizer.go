// Package analysis implements the deterministic spending analytics: rule
// based categorization, monthly aggregation, budget variance, trend
// forecasting and budget optimization. Every function is pure given its
// inputs plus the injected clock, so identical inputs always produce
// identical outputs and results are safe to memoize.
package analysis

import (
	"math"
	"strings"
	"time"

	"finsight/internal/core"
)

// DateLayout is the calendar-date text format accepted for transaction dates.
const DateLayout = "2006-01-02"

type rule struct {
	category core.Category
	keywords []string
}

// categoryRules is the static keyword table, in priority order. The first
// rule with any substring match wins; order resolves overlapping keywords.
var categoryRules = []rule{
	{core.CategoryDining, []string{"restaurant", "cafe", "food", "pizza", "burger", "starbucks", "mcdonald"}},
	{core.CategoryGroceries, []string{"grocery", "supermarket", "walmart", "target", "costco", "whole foods"}},
	{core.CategoryTransportation, []string{"gas", "uber", "lyft", "taxi", "parking", "metro", "bus"}},
	{core.CategoryEntertainment, []string{"movie", "netflix", "spotify", "game", "theater", "concert"}},
	{core.CategoryShopping, []string{"amazon", "mall", "store", "shop", "retail", "clothing"}},
	{core.CategoryUtilities, []string{"electric", "water", "internet", "phone", "cable", "utility"}},
	{core.CategoryHealthcare, []string{"doctor", "pharmacy", "hospital", "medical", "dental"}},
}

// Categorizer assigns taxonomy categories to raw transaction records. The
// clock is injectable so that the unparseable-date fallback stays
// deterministic in tests.
type Categorizer struct {
	now func() time.Time
}

// NewCategorizer returns a Categorizer using the wall clock for date
// fallbacks.
func NewCategorizer() *Categorizer {
	return &Categorizer{now: time.Now}
}

// NewCategorizerAt returns a Categorizer with a fixed fallback clock.
func NewCategorizerAt(now func() time.Time) *Categorizer {
	return &Categorizer{now: now}
}

// Categorize maps raw records to categorized transactions, same length and
// order as the input. Records never fail individually: a malformed amount
// becomes 0, an unparseable date falls back to the processing date and is
// flagged via DateEstimated.
func (c *Categorizer) Categorize(records []core.Transaction) []core.CategorizedTransaction {
	out := make([]core.CategorizedTransaction, len(records))
	for i, rec := range records {
		amount := math.Abs(rec.Amount)
		if math.IsNaN(amount) || math.IsInf(amount, 0) {
			amount = 0
		}

		date, err := time.Parse(DateLayout, strings.TrimSpace(rec.Date))
		estimated := false
		if err != nil {
			date = c.now()
			estimated = true
		}

		out[i] = core.CategorizedTransaction{
			Date:          date,
			Amount:        amount,
			Merchant:      rec.Merchant,
			Description:   rec.Description,
			Category:      matchCategory(rec.Merchant, rec.Description),
			DateEstimated: estimated,
		}
	}
	return out
}

// matchCategory runs the keyword rules over the lowercased merchant and
// description text, defaulting to CategoryOther.
func matchCategory(merchant, description string) core.Category {
	text := strings.ToLower(merchant + " " + description)
	for _, r := range categoryRules {
		for _, kw := range r.keywords {
			if strings.Contains(text, kw) {
				return r.category
			}
		}
	}
	return core.CategoryOther
}
