// Package types contains the query and result structures exchanged between
// the aggregation service and its callers.
package types

import (
	"time"

	"github.com/okian/crmpulse/internal/domain/conversion"
	"github.com/shopspring/decimal"
)

// Period selects the span of a summary.
type Period string

// Summary periods.
const (
	PeriodAnnual  Period = "annual"
	PeriodQuarter Period = "quarter"
	PeriodMonth   Period = "month"
)

// FunnelQuery selects the deals attributed by the funnel and conversion table.
type FunnelQuery struct {
	FiscalYear string
	KamID      string
	// CloseMonth is an optional YYYY-MM expected close month.
	CloseMonth string
}

// FunnelGroup is one bucket of the funnel.
type FunnelGroup struct {
	Count int             `json:"count"`
	Value decimal.Decimal `json:"value"`
}

// FunnelResult is the funnel snapshot.
type FunnelResult struct {
	FiscalYear       string      `json:"fiscal_year"`
	TOFU             FunnelGroup `json:"tofu"`
	MOFU             FunnelGroup `json:"mofu"`
	BOFU             FunnelGroup `json:"bofu"`
	ClosedWon        FunnelGroup `json:"closed_won"`
	Dropped          FunnelGroup `json:"dropped"`
	UnresolvedEvents int         `json:"unresolved_events"`
}

// ConversionRow is one stage of the conversion table.
type ConversionRow struct {
	Stage          string          `json:"stage"`
	Cumulative     int             `json:"cumulative"`
	MCVSum         decimal.Decimal `json:"mcv_sum"`
	ConversionRate conversion.Rate `json:"conversion_rate"`
	Remaining      int             `json:"remaining"`
	Dropped        int             `json:"dropped"`
}

// ConversionResult is the ordered conversion table.
type ConversionResult struct {
	FiscalYear string          `json:"fiscal_year"`
	Rows       []ConversionRow `json:"rows"`
}

// ReconciliationQuery selects the tiered target-versus-actual table.
type ReconciliationQuery struct {
	FiscalYear string
	StatusType string
	KamID      string
}

// ReconciliationRow is one labelled line across the fiscal months.
type ReconciliationRow struct {
	Label  string            `json:"label"`
	Values []decimal.Decimal `json:"values"`
}

// TierTable holds the four reconciliation rows of one tier.
type TierTable struct {
	Tier string              `json:"tier"`
	Rows []ReconciliationRow `json:"rows"`
}

// ReconciliationResult is the tiered reconciliation table.
type ReconciliationResult struct {
	FiscalYear string      `json:"fiscal_year"`
	StatusType string      `json:"status_type"`
	Months     []string    `json:"months"`
	Tiers      []TierTable `json:"tiers"`
}

// SummaryQuery selects a scalar roll-up.
type SummaryQuery struct {
	FiscalYear string
	Period     Period
	// Quarter is Q1..Q4 when Period is quarter.
	Quarter string
	// Month is a calendar month number (1-12) or YYYY-MM when Period is month.
	Month      string
	StatusType string
	KamID      string
}

// Summary is an achieved-versus-target roll-up.
type Summary struct {
	Achieved           decimal.Decimal `json:"achieved"`
	Planned            decimal.Decimal `json:"planned"`
	Target             decimal.Decimal `json:"target"`
	AchievementPercent decimal.Decimal `json:"achievement_percent"`
	Balance            decimal.Decimal `json:"balance"`
}

// SummaryResult is a Summary over a resolved period.
type SummaryResult struct {
	FiscalYear string   `json:"fiscal_year"`
	Period     Period   `json:"period"`
	StatusType string   `json:"status_type"`
	Months     []string `json:"months"`
	Summary
}

// KeyedSummary is one row of a breakdown.
type KeyedSummary struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Summary
}

// BreakdownResult is a Summary split by KAM, line of business or tier.
type BreakdownResult struct {
	FiscalYear string         `json:"fiscal_year"`
	Period     Period         `json:"period"`
	StatusType string         `json:"status_type"`
	By         string         `json:"by"`
	Months     []string       `json:"months"`
	Rows       []KeyedSummary `json:"rows"`
}

// WeeklyQuery selects the week-over-week activity counts.
type WeeklyQuery struct {
	FiscalYear string
	KamID      string
}

// WeekCounts are the activity counts of one week. InRange is false when the
// week lies entirely outside the fiscal year.
type WeekCounts struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	InRange   bool      `json:"in_range"`
	Meetings  int       `json:"meetings"`
	Proposals int       `json:"proposals"`
}

// WeeklyActivity compares this week to last week.
type WeeklyActivity struct {
	FiscalYear string     `json:"fiscal_year"`
	ThisWeek   WeekCounts `json:"this_week"`
	LastWeek   WeekCounts `json:"last_week"`
}

// TierAssignment is the derived tier of one account.
type TierAssignment struct {
	AccountID   string          `json:"account_id"`
	AccountName string          `json:"account_name"`
	Tier        string          `json:"tier"`
	Total       decimal.Decimal `json:"total"`
}

// TiersResult lists tier assignments for a fiscal year.
type TiersResult struct {
	FiscalYear string           `json:"fiscal_year"`
	Threshold  decimal.Decimal  `json:"threshold"`
	Accounts   []TierAssignment `json:"accounts"`
}
