// Package model contains the read-only entity snapshots the engine aggregates.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stage is a pipeline status of a deal.
type Stage string

// Pipeline stages in order. ClosedWon and Dropped are terminal.
const (
	StageListed               Stage = "Listed"
	StagePreQualified         Stage = "Pre-Qualified"
	StageMeetingScheduled     Stage = "Meeting Scheduled"
	StageMeetingDone          Stage = "Meeting Done"
	StageQualified            Stage = "Qualified"
	StageSolutionProposalMade Stage = "Solution Proposal Made"
	StageNegotiation          Stage = "Negotiation"
	StageClosedWon            Stage = "Closed Won"
	StageDropped              Stage = "Dropped"
)

// Stages returns the standard ordered stage list, terminal stages last.
func Stages() []Stage {
	return []Stage{
		StageListed,
		StagePreQualified,
		StageMeetingScheduled,
		StageMeetingDone,
		StageQualified,
		StageSolutionProposalMade,
		StageNegotiation,
		StageClosedWon,
		StageDropped,
	}
}

// ProgressStages returns the ordered stage list without Dropped.
func ProgressStages() []Stage {
	all := Stages()
	return all[:len(all)-1]
}

// Deal is a sales opportunity as currently recorded by the pipeline workflow.
type Deal struct {
	ID                string
	Status            Stage
	KamID             string
	AccountID         string
	ExpectedValue     decimal.Decimal
	CreatedAt         time.Time
	ExpectedCloseDate time.Time
}

// StatusEvent is one immutable transition in a deal's stage history.
// OldStatus is empty for the first event of a deal.
type StatusEvent struct {
	ID        string
	DealID    string
	OldStatus Stage
	NewStatus Stage
	ChangedAt time.Time
}

// Kam is a key account manager.
type Kam struct {
	ID          string
	DisplayName string
}

// Account is a customer company. Its MCV tier is derived per fiscal year and
// is not part of the snapshot.
type Account struct {
	ID          string
	Name        string
	CompanySize string
}
