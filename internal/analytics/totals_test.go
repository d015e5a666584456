package analytics

import (
	"testing"

	"github.com/Priya8975/subscription-reminders/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sub(cost, currency, cycle string) domain.Subscription {
	return domain.Subscription{ID: cost + cycle, Name: "x", Cost: cost, Currency: currency, BillingCycle: cycle}
}

func TestMonthlyCost(t *testing.T) {
	tests := []struct {
		name string
		sub  domain.Subscription
		want string
	}{
		{"monthly", sub("15.49", "USD", domain.CycleMonthly), "15.49"},
		{"yearly", sub("120", "USD", domain.CycleYearly), "10.00"},
		{"quarterly", sub("30", "USD", domain.CycleQuarterly), "10.00"},
		{"weekly", sub("2.30", "USD", domain.CycleWeekly), "10.00"},
		{"biennially", sub("48", "USD", domain.CycleBiennially), "2.00"},
		{"unknown cycle counts as monthly", sub("9.99", "USD", "fortnightly"), "9.99"},
		{"invalid cost", sub("abc", "USD", domain.CycleMonthly), "0.00"},
		{"empty cost", sub("", "USD", domain.CycleMonthly), "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MonthlyCost(tt.sub).StringFixed(2))
		})
	}
}

func TestCompute_GroupsByCurrency(t *testing.T) {
	totals := Compute([]domain.Subscription{
		sub("10", "usd", domain.CycleMonthly),
		sub("120", "USD", domain.CycleYearly),
		sub("9", "EUR", domain.CycleQuarterly),
		sub("5", "", domain.CycleMonthly),
	})

	require.Equal(t, 4, totals.Subscriptions)
	require.Len(t, totals.ByCurrency, 2)

	eur := totals.ByCurrency[0]
	assert.Equal(t, "EUR", eur.Currency)
	assert.Equal(t, "3.00", eur.Monthly)
	assert.Equal(t, "36.00", eur.Yearly)
	assert.Equal(t, 1, eur.Subscriptions)

	usd := totals.ByCurrency[1]
	assert.Equal(t, "USD", usd.Currency)
	assert.Equal(t, "25.00", usd.Monthly)
	assert.Equal(t, "300.00", usd.Yearly)
	assert.Equal(t, 3, usd.Subscriptions)
}

func TestCompute_YearlyUsesUnroundedMonthly(t *testing.T) {
	// 10/3 = 3.333..., rounded monthly is 3.33 but yearly is 40.00, not 39.96.
	totals := Compute([]domain.Subscription{sub("10", "USD", domain.CycleQuarterly)})

	require.Len(t, totals.ByCurrency, 1)
	assert.Equal(t, "3.33", totals.ByCurrency[0].Monthly)
	assert.Equal(t, "40.00", totals.ByCurrency[0].Yearly)
}

func TestCompute_Empty(t *testing.T) {
	totals := Compute(nil)

	assert.Equal(t, 0, totals.Subscriptions)
	assert.NotNil(t, totals.ByCurrency)
	assert.Empty(t, totals.ByCurrency)
}
