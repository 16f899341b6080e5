package proposals

import "fmt"

// Proposal is a merchant-defined billing offer. Amounts are minor currency
// units; AmountNet is what the merchant must retain after processor fees.
type Proposal struct {
	ID                 string `json:"id"`
	ClientName         string `json:"client_name"`
	Title              string `json:"title"`
	Description        string `json:"description"`
	AmountNet          int64  `json:"amount_net"`
	Currency           string `json:"currency"`
	Recurring          bool   `json:"recurring"`
	Interval           string `json:"interval,omitempty"`
	TrialDays          int64  `json:"trial_days,omitempty"`
	CancellationMonths int    `json:"cancellation_months,omitempty"`
}

// BillingInterval returns the recurrence interval, defaulting to monthly.
func (p *Proposal) BillingInterval() string {
	if p.Interval == "" {
		return "month"
	}
	return p.Interval
}

// OneMonthOnly reports whether the proposal is contractually limited to a
// single billing period: a monthly plan with CancellationMonths == 1 must be
// cancelled right after its first successful charge. Only meaningful when
// the proposal is recurring.
func (p *Proposal) OneMonthOnly() bool {
	return p.Interval == "month" && p.CancellationMonths == 1
}

// BillingNote is the human-readable cadence summary shown next to the price.
func (p *Proposal) BillingNote() string {
	if !p.Recurring || p.Interval != "month" {
		return "This is a one-time payment."
	}
	if p.CancellationMonths == 1 {
		return fmt.Sprintf("First payment will be in %d days, will NOT auto-renew after first month.", p.TrialDays)
	}
	return "Monthly subscription with automatic renewals until cancelled."
}
