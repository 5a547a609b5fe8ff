package referrals

import "github.com/shopspring/decimal"

// tierPercents maps a user's successful-referral count this month to a
// discount percentage. Counts above the table cap at the top tier.
var tierPercents = map[int]int{1: 10, 2: 20, 3: 30, 4: 40, 5: 50}

// TierPercent maps a monthly referral count to its discount percentage.
func TierPercent(referralCount int) int {
	if referralCount >= 5 {
		return tierPercents[5]
	}
	return tierPercents[referralCount]
}

// Quote is one discount computation, shared by the cart-summary preview and
// the checkout itself so both always show the same number.
type Quote struct {
	Subtotal     decimal.Decimal
	FlatDiscount decimal.Decimal
	TierPercent  int
	Total        decimal.Decimal
}

// ComputeQuote applies the stacking order: the flat referral discount comes
// off the subtotal first (floored at zero), then the remainder is scaled by
// the tier percentage (floored at zero). The order is load-bearing:
// (500-20)*0.8 = 384, not 500*0.8-20 = 380.
func ComputeQuote(subtotal, flatDiscount decimal.Decimal, tierPercent int) Quote {
	q := Quote{Subtotal: subtotal, FlatDiscount: flatDiscount, TierPercent: tierPercent}

	total := subtotal.Sub(flatDiscount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	if tierPercent > 0 {
		factor := decimal.NewFromInt(int64(100 - tierPercent)).Div(decimal.NewFromInt(100))
		total = total.Mul(factor)
	}
	if total.IsNegative() {
		total = decimal.Zero
	}
	q.Total = total.Round(2)
	return q
}
