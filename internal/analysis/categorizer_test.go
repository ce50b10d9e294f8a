package analysis

import (
	"math"
	"testing"
	"time"

	"finsight/internal/core"
)

func TestMatchCategory(t *testing.T) {
	tests := []struct {
		name        string
		merchant    string
		description string
		want        core.Category
	}{
		{"restaurant keyword", "Fine Dining Restaurant", "", core.CategoryDining},
		{"pizza keyword", "Pizza Palace", "", core.CategoryDining},
		{"keyword in description", "Corner Place", "morning cafe stop", core.CategoryDining},
		{"case insensitive", "STARBUCKS #1234", "", core.CategoryDining},
		{"grocery chain", "Walmart Supercenter", "", core.CategoryGroceries},
		{"rideshare", "Uber Trip", "", core.CategoryTransportation},
		{"streaming", "Netflix.com", "monthly subscription", core.CategoryEntertainment},
		{"online retail", "Amazon Marketplace", "", core.CategoryShopping},
		{"utility bill", "City Electric", "", core.CategoryUtilities},
		{"pharmacy", "CVS Pharmacy", "", core.CategoryHealthcare},
		{"no keyword match", "Sushi Bar", "dinner", core.CategoryOther},
		{"empty record", "", "", core.CategoryOther},
		// "gas" (transportation) outranks "store" (shopping) by rule order.
		{"rule priority", "Gas Station Store", "", core.CategoryTransportation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchCategory(tt.merchant, tt.description); got != tt.want {
				t.Errorf("matchCategory(%q, %q) = %q, want %q", tt.merchant, tt.description, got, tt.want)
			}
		})
	}
}

func TestCategorizeDates(t *testing.T) {
	fixed := time.Date(2024, time.November, 5, 12, 0, 0, 0, time.UTC)
	c := NewCategorizerAt(func() time.Time { return fixed })

	out := c.Categorize([]core.Transaction{
		{Date: "2024-10-02", Merchant: "Pizza Palace", Amount: 28.75},
		{Date: "not-a-date", Merchant: "Pizza Palace", Amount: 10},
		{Date: "", Merchant: "Pizza Palace", Amount: 10},
	})
	if len(out) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(out))
	}

	want := time.Date(2024, time.October, 2, 0, 0, 0, 0, time.UTC)
	if !out[0].Date.Equal(want) || out[0].DateEstimated {
		t.Errorf("parsed date = %v (estimated=%v), want %v (estimated=false)", out[0].Date, out[0].DateEstimated, want)
	}
	for _, tx := range out[1:] {
		if !tx.Date.Equal(fixed) || !tx.DateEstimated {
			t.Errorf("fallback date = %v (estimated=%v), want %v (estimated=true)", tx.Date, tx.DateEstimated, fixed)
		}
	}
}

func TestCategorizeAmounts(t *testing.T) {
	c := NewCategorizer()
	out := c.Categorize([]core.Transaction{
		{Date: "2024-10-02", Amount: -42.50},
		{Date: "2024-10-03", Amount: math.NaN()},
		{Date: "2024-10-04", Amount: math.Inf(1)},
	})

	if out[0].Amount != 42.50 {
		t.Errorf("negative amount: got %v, want magnitude 42.50", out[0].Amount)
	}
	if out[1].Amount != 0 || out[2].Amount != 0 {
		t.Errorf("non-finite amounts: got %v and %v, want 0", out[1].Amount, out[2].Amount)
	}
}

func TestCategorizeKeepsOrder(t *testing.T) {
	c := NewCategorizer()
	in := []core.Transaction{
		{Date: "2024-10-15", Merchant: "Uber"},
		{Date: "2024-10-01", Merchant: "Netflix"},
		{Date: "2024-10-07", Merchant: "Walmart"},
	}
	out := c.Categorize(in)
	if len(out) != len(in) {
		t.Fatalf("expected %d transactions, got %d", len(in), len(out))
	}
	for i := range in {
		if out[i].Merchant != in[i].Merchant {
			t.Errorf("position %d: got %q, want %q", i, out[i].Merchant, in[i].Merchant)
		}
	}
}
