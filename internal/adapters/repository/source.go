// Package repository provides read access to the CRM snapshot collections the
// engine aggregates over.
package repository

import (
	"context"
	"time"

	"github.com/okian/crmpulse/internal/domain/fiscal"
	"github.com/okian/crmpulse/internal/domain/model"
)

// Collection names, used in errors, logs and metrics.
const (
	CollectionDeals    = "deals"
	CollectionEvents   = "status_events"
	CollectionMandates = "mandates"
	CollectionAccounts = "accounts"
	CollectionTargets  = "targets"
	CollectionKams     = "kams"
)

// DealFilter constrains ListDeals. Zero fields do not constrain. Time bounds
// are inclusive.
type DealFilter struct {
	CreatedAfter  time.Time
	CreatedBefore time.Time
	KamID         string
	// ExpectedCloseMonth keeps deals expected to close in that month.
	ExpectedCloseMonth *fiscal.Month
}

// EventFilter constrains ListStatusEvents. A nil DealIDs means every deal;
// an empty non-nil slice matches nothing.
type EventFilter struct {
	DealIDs       []string
	ChangedAfter  time.Time
	ChangedBefore time.Time
}

// MandateFilter constrains ListMandates.
type MandateFilter struct {
	Type  model.MandateType
	KamID string
}

// TargetFilter constrains ListTargets.
type TargetFilter struct {
	Month      time.Month
	Year       int
	FiscalYear string
	Type       model.TargetType
}

// Source is the read-only view of the CRM collections. Implementations must
// be safe for concurrent use and must not return slices they keep mutating.
type Source interface {
	ListDeals(ctx context.Context, f DealFilter) ([]model.Deal, error)
	// ListStatusEvents returns events ordered by ChangedAt then ID.
	ListStatusEvents(ctx context.Context, f EventFilter) ([]model.StatusEvent, error)
	ListMandates(ctx context.Context, f MandateFilter) ([]model.Mandate, error)
	ListAccounts(ctx context.Context) ([]model.Account, error)
	ListTargets(ctx context.Context, f TargetFilter) ([]model.TargetRecord, error)
	ListKams(ctx context.Context) ([]model.Kam, error)
}

// Snapshot is a full set of collections, used to load stores.
type Snapshot struct {
	Deals    []model.Deal
	Events   []model.StatusEvent
	Mandates []model.Mandate
	Accounts []model.Account
	Targets  []model.TargetRecord
	Kams     []model.Kam
}

func (f DealFilter) match(d model.Deal) bool {
	if !f.CreatedAfter.IsZero() && d.CreatedAt.Before(f.CreatedAfter) {
		return false
	}
	if !f.CreatedBefore.IsZero() && d.CreatedAt.After(f.CreatedBefore) {
		return false
	}
	if f.KamID != "" && d.KamID != f.KamID {
		return false
	}
	if f.ExpectedCloseMonth != nil {
		if d.ExpectedCloseDate.IsZero() || fiscal.MonthOf(d.ExpectedCloseDate) != *f.ExpectedCloseMonth {
			return false
		}
	}
	return true
}

func (f EventFilter) match(e model.StatusEvent, ids map[string]struct{}) bool {
	if ids != nil {
		if _, ok := ids[e.DealID]; !ok {
			return false
		}
	}
	if !f.ChangedAfter.IsZero() && e.ChangedAt.Before(f.ChangedAfter) {
		return false
	}
	if !f.ChangedBefore.IsZero() && e.ChangedAt.After(f.ChangedBefore) {
		return false
	}
	return true
}

func (f MandateFilter) match(m model.Mandate) bool {
	if f.Type != "" && m.Type != f.Type {
		return false
	}
	return f.KamID == "" || m.KamID == f.KamID
}

func (f TargetFilter) match(t model.TargetRecord) bool {
	if f.Month != 0 && t.Month != f.Month {
		return false
	}
	if f.Year != 0 && t.Year != f.Year {
		return false
	}
	if f.FiscalYear != "" && t.FiscalYear != f.FiscalYear {
		return false
	}
	return f.Type == "" || t.Type == f.Type
}
