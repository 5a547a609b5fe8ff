package referrals

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestComputeQuoteStacking(t *testing.T) {
	t.Parallel()

	// Flat discount applies before the tier percentage:
	// (500 - 20) * 0.8 = 384, not 500 * 0.8 - 20 = 380.
	quote := ComputeQuote(decimal.NewFromInt(500), decimal.NewFromInt(20), 20)
	if got := quote.Total.StringFixed(2); got != "384.00" {
		t.Fatalf("total = %s, want 384.00", got)
	}
	if quote.FlatDiscount.StringFixed(2) != "20.00" || quote.TierPercent != 20 {
		t.Fatalf("unexpected quote: %+v", quote)
	}
}

func TestComputeQuoteFloorsAtZero(t *testing.T) {
	t.Parallel()

	quote := ComputeQuote(decimal.NewFromInt(10), decimal.NewFromInt(20), 0)
	if !quote.Total.IsZero() {
		t.Fatalf("total = %s, want 0", quote.Total)
	}
}

func TestComputeQuoteNoDiscounts(t *testing.T) {
	t.Parallel()

	quote := ComputeQuote(decimal.NewFromInt(120), decimal.Zero, 0)
	if got := quote.Total.StringFixed(2); got != "120.00" {
		t.Fatalf("total = %s, want 120.00", got)
	}
}

func TestTierPercent(t *testing.T) {
	t.Parallel()

	cases := []struct {
		referrals int
		want      int
	}{
		{0, 0},
		{1, 10},
		{2, 20},
		{3, 30},
		{4, 40},
		{5, 50},
		{9, 50},
	}
	for _, tc := range cases {
		if got := TierPercent(tc.referrals); got != tc.want {
			t.Fatalf("TierPercent(%d) = %d, want %d", tc.referrals, got, tc.want)
		}
	}
}
