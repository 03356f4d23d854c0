// Package tier classifies accounts by their achieved value within a fiscal
// year.
package tier

import (
	"github.com/okian/crmpulse/internal/domain/fiscal"
	"github.com/okian/crmpulse/internal/domain/model"
	"github.com/okian/crmpulse/internal/domain/record"
	"github.com/shopspring/decimal"
)

// Tier is the derived size classification of an account.
type Tier string

// Tiers.
const (
	Tier1 Tier = "Tier1"
	Tier2 Tier = "Tier2"
)

// All returns the tiers in reporting order.
func All() []Tier { return []Tier{Tier1, Tier2} }

// DefaultThreshold is the total an account must strictly exceed to be Tier1.
var DefaultThreshold = decimal.NewFromInt(10_000_000)

// Option configures a Classifier.
type Option func(*Classifier)

// WithThreshold overrides the Tier1 cutoff. Negative values are ignored.
func WithThreshold(t decimal.Decimal) Option {
	return func(c *Classifier) {
		if !t.IsNegative() {
			c.threshold = t
		}
	}
}

// Classifier assigns tiers from per-account totals over one fiscal year.
type Classifier struct {
	threshold decimal.Decimal
}

// NewClassifier returns a Classifier using DefaultThreshold unless overridden.
func NewClassifier(opts ...Option) *Classifier {
	c := &Classifier{threshold: DefaultThreshold}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Threshold returns the configured cutoff.
func (c *Classifier) Threshold() decimal.Decimal { return c.threshold }

// Tier maps a total to its tier.
func (c *Classifier) Tier(total decimal.Decimal) Tier {
	if total.GreaterThan(c.threshold) {
		return Tier1
	}
	return Tier2
}

// Total sums achieved values of every mandate owned by accountID over the
// months of fy.
func Total(accountID string, fy fiscal.Year, mandates []model.Mandate) decimal.Decimal {
	return Totals(fy, mandates)[accountID]
}

// Totals sums achieved values per owning account over the months of fy.
// Malformed entries contribute zero.
func Totals(fy fiscal.Year, mandates []model.Mandate) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, m := range mandates {
		sum, ok := out[m.AccountID]
		if !ok {
			sum = decimal.Zero
		}
		for month, e := range m.Performance {
			if fy.ContainsMonth(month) {
				sum = sum.Add(record.Achieved(e))
			}
		}
		out[m.AccountID] = sum
	}
	return out
}

// Classify returns the tier of one account. Accounts without data are Tier2.
func (c *Classifier) Classify(accountID string, fy fiscal.Year, mandates []model.Mandate) Tier {
	return c.Tier(Total(accountID, fy, mandates))
}

// ClassifyAll returns a tier for every account in accounts plus every account
// referenced by a mandate.
func (c *Classifier) ClassifyAll(fy fiscal.Year, accounts []model.Account, mandates []model.Mandate) map[string]Tier {
	totals := Totals(fy, mandates)
	out := make(map[string]Tier, len(totals)+len(accounts))
	for _, a := range accounts {
		out[a.ID] = c.Tier(totals[a.ID])
	}
	for id, total := range totals {
		out[id] = c.Tier(total)
	}
	return out
}
