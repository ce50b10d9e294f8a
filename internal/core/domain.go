package core

import (
	"encoding/json"
	"errors"
	"sort"
	"time"
)

const (
	CategoryDining         Category = "dining"
	CategoryGroceries      Category = "groceries"
	CategoryTransportation Category = "transportation"
	CategoryEntertainment  Category = "entertainment"
	CategoryShopping       Category = "shopping"
	CategoryUtilities      Category = "utilities"
	CategoryHealthcare     Category = "healthcare"
	CategoryOther          Category = "other"
)

type (
	// Category is one element of the fixed spending taxonomy.
	Category string

	// Transaction is a raw record as supplied by the caller. Date is the
	// calendar-date text form ("2006-01-02"); Amount may be signed, the
	// analytics only ever use its magnitude.
	Transaction struct {
		Date        string  `json:"date"`
		Amount      float64 `json:"amount"`
		Merchant    string  `json:"merchant"`
		Description string  `json:"description"`
	}

	// CategorizedTransaction is a Transaction with a resolved category and
	// parsed date. DateEstimated marks records whose date text could not be
	// parsed and was substituted with the processing date.
	CategorizedTransaction struct {
		Date          time.Time `json:"date"`
		Amount        float64   `json:"amount"`
		Merchant      string    `json:"merchant"`
		Description   string    `json:"description"`
		Category      Category  `json:"category"`
		DateEstimated bool      `json:"date_estimated,omitempty"`
	}

	// MonthlyBucket maps month key ("2006-01") to per-category spending totals.
	// Months without activity have no entry; callers must not assume a dense
	// series.
	MonthlyBucket map[string]map[Category]float64

	// Goals holds the caller's financial goal parameters.
	Goals struct {
		MonthlySavings float64 `json:"monthly_savings"`
	}
)

var ErrInvalidAmount = errors.New("invalid amount")

// Categories lists the taxonomy in rule-priority order. Overlapping keywords
// are resolved by this order, not by best match.
var Categories = []Category{
	CategoryDining,
	CategoryGroceries,
	CategoryTransportation,
	CategoryEntertainment,
	CategoryShopping,
	CategoryUtilities,
	CategoryHealthcare,
	CategoryOther,
}

// UnmarshalJSON accepts the amount as a JSON number or as a decimal string
// (dot or comma separator). Callers are automation that routinely quotes
// numbers; a malformed string amount degrades to 0 like any other malformed
// amount instead of failing the whole batch.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	type alias Transaction
	aux := struct {
		Amount json.RawMessage `json:"amount"`
		*alias
	}{alias: (*alias)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.Amount) == 0 {
		return nil
	}
	if aux.Amount[0] == '"' {
		var s string
		if err := json.Unmarshal(aux.Amount, &s); err != nil {
			return err
		}
		amount, err := ParseAmount(s)
		if err != nil {
			amount = 0
		}
		t.Amount = amount
		return nil
	}
	return json.Unmarshal(aux.Amount, &t.Amount)
}

// IsValid reports whether c is part of the fixed taxonomy.
func (c Category) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// MonthKey derives the bucket key for a date ("2006-01" truncation).
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// Months returns the bucket's month keys in ascending order.
func (b MonthlyBucket) Months() []string {
	months := make([]string, 0, len(b))
	for m := range b {
		months = append(months, m)
	}
	sort.Strings(months)
	return months
}

// MonthTotals returns per-month overall totals aligned with Months().
func (b MonthlyBucket) MonthTotals() []float64 {
	months := b.Months()
	totals := make([]float64, len(months))
	for i, m := range months {
		for _, amount := range b[m] {
			totals[i] += amount
		}
	}
	return totals
}

// CategoryAmounts returns the per-month totals for one category, ordered by
// month, including only months where the category appears.
func (b MonthlyBucket) CategoryAmounts(cat Category) []float64 {
	var amounts []float64
	for _, m := range b.Months() {
		if amount, ok := b[m][cat]; ok {
			amounts = append(amounts, amount)
		}
	}
	return amounts
}

// PresentCategories returns the categories with at least one entry in the
// bucket, in taxonomy order.
func (b MonthlyBucket) PresentCategories() []Category {
	seen := make(map[Category]bool)
	for _, byCat := range b {
		for cat := range byCat {
			seen[cat] = true
		}
	}
	var cats []Category
	for _, cat := range Categories {
		if seen[cat] {
			cats = append(cats, cat)
		}
	}
	return cats
}
