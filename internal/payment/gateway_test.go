package payment

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestToMinorUnitsRoundTrip(t *testing.T) {
	cases := []struct {
		amount string
		minor  int64
	}{
		{"19.99", 1999},
		{"0.01", 1},
		{"100.00", 10000},
		{"0.00", 0},
		{"1234.56", 123456},
	}
	for _, tc := range cases {
		amount, err := decimal.NewFromString(tc.amount)
		if err != nil {
			t.Fatalf("parse %s failed: %v", tc.amount, err)
		}
		minor := ToMinorUnits(amount)
		if minor != tc.minor {
			t.Fatalf("ToMinorUnits(%s) = %d, expected %d", tc.amount, minor, tc.minor)
		}
		back := ToDecimal(minor)
		if !back.Equal(amount) {
			t.Fatalf("ToDecimal(%d) = %s, expected %s", minor, back.String(), tc.amount)
		}
	}
}

func TestToMinorUnitsRoundsHalfUp(t *testing.T) {
	cases := []struct {
		amount string
		minor  int64
	}{
		{"10.005", 1001},
		{"10.004", 1000},
		{"10.0049", 1000},
		{"0.005", 1},
	}
	for _, tc := range cases {
		amount, err := decimal.NewFromString(tc.amount)
		if err != nil {
			t.Fatalf("parse %s failed: %v", tc.amount, err)
		}
		if got := ToMinorUnits(amount); got != tc.minor {
			t.Fatalf("ToMinorUnits(%s) = %d, expected %d", tc.amount, got, tc.minor)
		}
	}
}
