package repository

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/okian/crmpulse/internal/domain/model"
	"github.com/samber/lo"
)

// MemoryStore is an in-memory Source. It backs tests and the demo snapshot.
type MemoryStore struct {
	mu       sync.RWMutex
	deals    map[string]model.Deal
	events   []model.StatusEvent
	mandates map[string]model.Mandate
	accounts map[string]model.Account
	targets  map[string]model.TargetRecord
	kams     map[string]model.Kam
}

var _ Source = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		deals:    make(map[string]model.Deal),
		mandates: make(map[string]model.Mandate),
		accounts: make(map[string]model.Account),
		targets:  make(map[string]model.TargetRecord),
		kams:     make(map[string]model.Kam),
	}
}

// Load adds every collection of s to the store.
func (m *MemoryStore) Load(s Snapshot) {
	m.PutDeals(s.Deals...)
	m.AppendEvents(s.Events...)
	m.PutMandates(s.Mandates...)
	m.PutAccounts(s.Accounts...)
	m.PutTargets(s.Targets...)
	m.PutKams(s.Kams...)
}

// PutDeals inserts or replaces deals by id.
func (m *MemoryStore) PutDeals(deals ...model.Deal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range deals {
		m.deals[d.ID] = d
	}
}

// AppendEvents appends to the status log. Events are never replaced.
func (m *MemoryStore) AppendEvents(events ...model.StatusEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
}

// PutMandates inserts or replaces mandates by id. Performance maps are copied.
func (m *MemoryStore) PutMandates(mandates ...model.Mandate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, md := range mandates {
		md.Performance = maps.Clone(md.Performance)
		m.mandates[md.ID] = md
	}
}

// PutAccounts inserts or replaces accounts by id.
func (m *MemoryStore) PutAccounts(accounts ...model.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range accounts {
		m.accounts[a.ID] = a
	}
}

// PutTargets inserts or replaces targets by id.
func (m *MemoryStore) PutTargets(targets ...model.TargetRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range targets {
		m.targets[t.ID] = t
	}
}

// PutKams inserts or replaces KAMs by id.
func (m *MemoryStore) PutKams(kams ...model.Kam) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range kams {
		m.kams[k.ID] = k
	}
}

// ListDeals implements Source.
func (m *MemoryStore) ListDeals(ctx context.Context, f DealFilter) ([]model.Deal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := lo.Filter(lo.Values(m.deals), func(d model.Deal, _ int) bool { return f.match(d) })
	slices.SortFunc(out, func(a, b model.Deal) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

// ListStatusEvents implements Source.
func (m *MemoryStore) ListStatusEvents(ctx context.Context, f EventFilter) ([]model.StatusEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var ids map[string]struct{}
	if f.DealIDs != nil {
		ids = lo.SliceToMap(f.DealIDs, func(id string) (string, struct{}) { return id, struct{}{} })
	}
	m.mu.RLock()
	out := lo.Filter(m.events, func(e model.StatusEvent, _ int) bool { return f.match(e, ids) })
	m.mu.RUnlock()
	sortEvents(out)
	return out, nil
}

// ListMandates implements Source. Each mandate carries its own copy of the
// performance map.
func (m *MemoryStore) ListMandates(ctx context.Context, f MandateFilter) ([]model.Mandate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Mandate, 0, len(m.mandates))
	for _, md := range m.mandates {
		if !f.match(md) {
			continue
		}
		md.Performance = maps.Clone(md.Performance)
		out = append(out, md)
	}
	slices.SortFunc(out, func(a, b model.Mandate) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

// ListAccounts implements Source.
func (m *MemoryStore) ListAccounts(ctx context.Context) ([]model.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := lo.Values(m.accounts)
	slices.SortFunc(out, func(a, b model.Account) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

// ListTargets implements Source.
func (m *MemoryStore) ListTargets(ctx context.Context, f TargetFilter) ([]model.TargetRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := lo.Filter(lo.Values(m.targets), func(t model.TargetRecord, _ int) bool { return f.match(t) })
	slices.SortFunc(out, func(a, b model.TargetRecord) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

// ListKams implements Source.
func (m *MemoryStore) ListKams(ctx context.Context) ([]model.Kam, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := lo.Values(m.kams)
	slices.SortFunc(out, func(a, b model.Kam) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func sortEvents(events []model.StatusEvent) {
	slices.SortStableFunc(events, func(a, b model.StatusEvent) int {
		if c := a.ChangedAt.Compare(b.ChangedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
