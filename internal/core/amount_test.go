package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"12.34", 12.34, true},
		{"12,34", 12.34, true},
		{"12.345", 12.34, true}, // rounds down
		{"12.346", 12.35, true}, // rounds up
		{"-12.34", -12.34, true},
		{"+5", 5, true},
		{" 7.5 ", 7.5, true},
		{".50", 0.5, true},
		{"0", 0, false},
		{"", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"12x", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseAmount(tc.in)
			if tc.ok && err != nil {
				t.Fatalf("ParseAmount(%q) error = %v", tc.in, err)
			}
			if !tc.ok && err == nil {
				t.Fatalf("ParseAmount(%q) expected error, got %v", tc.in, got)
			}
			if tc.ok && got != tc.want {
				t.Errorf("ParseAmount(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestRounding(t *testing.T) {
	if got := Round2(-5.625); got != -5.63 {
		t.Errorf("Round2(-5.625) = %v, want -5.63", got)
	}
	if got := Round2(25.004); got != 25.0 {
		t.Errorf("Round2(25.004) = %v, want 25", got)
	}
	if got := Round4(0.12345); got != 0.1235 {
		t.Errorf("Round4(0.12345) = %v, want 0.1235", got)
	}
}
