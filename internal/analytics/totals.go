// Package analytics computes spend totals over the tracked subscriptions.
package analytics

import (
	"sort"
	"strings"

	"github.com/Priya8975/subscription-reminders/internal/domain"
	"github.com/shopspring/decimal"
)

// cycleFactors converts a billing cycle into months. Weekly and biweekly use
// the approximations shown in the app rather than 12/52.
var cycleFactors = map[string]decimal.Decimal{
	domain.CycleWeekly:       decimal.RequireFromString("0.23"),
	domain.CycleBiweekly:     decimal.RequireFromString("0.46"),
	domain.CycleMonthly:      decimal.NewFromInt(1),
	domain.CycleBimonthly:    decimal.NewFromInt(2),
	domain.CycleQuarterly:    decimal.NewFromInt(3),
	domain.CycleSemiannually: decimal.NewFromInt(6),
	domain.CycleYearly:       decimal.NewFromInt(12),
	domain.CycleBiennially:   decimal.NewFromInt(24),
}

var twelve = decimal.NewFromInt(12)

// CycleFactor returns the number of months in cycle. Unknown cycles count as
// monthly.
func CycleFactor(cycle string) decimal.Decimal {
	if f, ok := cycleFactors[cycle]; ok {
		return f
	}
	return decimal.NewFromInt(1)
}

// MonthlyCost is the monthly equivalent of one subscription, unrounded.
// A missing or unparseable cost counts as zero.
func MonthlyCost(sub domain.Subscription) decimal.Decimal {
	cost, err := decimal.NewFromString(strings.TrimSpace(sub.Cost))
	if err != nil {
		return decimal.Zero
	}
	return cost.Div(CycleFactor(sub.BillingCycle))
}

// CurrencyTotal is the spend in one currency, rounded to cents.
type CurrencyTotal struct {
	Currency      string `json:"currency"`
	Monthly       string `json:"monthly"`
	Yearly        string `json:"yearly"`
	Subscriptions int    `json:"subscriptions"`
}

// Totals is the spend summary across all subscriptions.
type Totals struct {
	Subscriptions int             `json:"subscriptions"`
	ByCurrency    []CurrencyTotal `json:"by_currency"`
}

// Compute groups subscriptions by currency and sums their monthly
// equivalents. Yearly is taken from the unrounded monthly sum so rounding
// happens once.
func Compute(subs []domain.Subscription) Totals {
	type acc struct {
		monthly decimal.Decimal
		count   int
	}
	groups := make(map[string]*acc)

	for _, sub := range subs {
		cur := strings.ToUpper(strings.TrimSpace(sub.Currency))
		if cur == "" {
			cur = "USD"
		}
		a, ok := groups[cur]
		if !ok {
			a = &acc{monthly: decimal.Zero}
			groups[cur] = a
		}
		a.monthly = a.monthly.Add(MonthlyCost(sub))
		a.count++
	}

	totals := Totals{Subscriptions: len(subs), ByCurrency: make([]CurrencyTotal, 0, len(groups))}
	for cur, a := range groups {
		totals.ByCurrency = append(totals.ByCurrency, CurrencyTotal{
			Currency:      cur,
			Monthly:       a.monthly.StringFixed(2),
			Yearly:        a.monthly.Mul(twelve).StringFixed(2),
			Subscriptions: a.count,
		})
	}
	sort.Slice(totals.ByCurrency, func(i, j int) bool {
		return totals.ByCurrency[i].Currency < totals.ByCurrency[j].Currency
	})

	return totals
}
