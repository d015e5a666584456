package domain

import (
	"time"
)

// Billing cycles accepted for a subscription.
const (
	CycleWeekly       = "weekly"
	CycleBiweekly     = "biweekly"
	CycleMonthly      = "monthly"
	CycleBimonthly    = "bimonthly"
	CycleQuarterly    = "quarterly"
	CycleSemiannually = "semiannually"
	CycleYearly       = "yearly"
	CycleBiennially   = "biennially"
)

// BillingCycles lists every cycle in display order.
var BillingCycles = []string{
	CycleWeekly, CycleBiweekly, CycleMonthly, CycleBimonthly,
	CycleQuarterly, CycleSemiannually, CycleYearly, CycleBiennially,
}

// Subscription is a recurring charge tracked by the user. NextBillingDate is a
// calendar date (YYYY-MM-DD) and may be empty.
type Subscription struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Cost            string    `json:"cost"`
	Currency        string    `json:"currency"`
	BillingCycle    string    `json:"billing_cycle"`
	NextBillingDate string    `json:"next_billing_date,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type CreateSubscriptionRequest struct {
	ID              string `json:"id,omitempty"`
	Name            string `json:"name"`
	Cost            string `json:"cost"`
	Currency        string `json:"currency,omitempty"`
	BillingCycle    string `json:"billing_cycle,omitempty"`
	NextBillingDate string `json:"next_billing_date,omitempty"`
}

type UpdateSubscriptionRequest struct {
	Name            *string `json:"name,omitempty"`
	Cost            *string `json:"cost,omitempty"`
	Currency        *string `json:"currency,omitempty"`
	BillingCycle    *string `json:"billing_cycle,omitempty"`
	NextBillingDate *string `json:"next_billing_date,omitempty"`
}

// IsBillingCycle reports whether c is one of the known billing cycles.
func IsBillingCycle(c string) bool {
	for _, known := range BillingCycles {
		if c == known {
			return true
		}
	}
	return false
}
