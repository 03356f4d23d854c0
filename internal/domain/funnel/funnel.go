// Package funnel attributes deals to pipeline stage groups using their full
// status history.
//
// A deal belongs to every group it has ever occupied, not only the one it is
// currently at. Counts are unique per deal and grow monotonically as the
// status log grows.
package funnel

import (
	"github.com/okian/crmpulse/internal/domain/model"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Group names a stage group of the standard funnel.
type Group string

// Standard funnel groups.
const (
	TOFU      Group = "tofu"
	MOFU      Group = "mofu"
	BOFU      Group = "bofu"
	ClosedWon Group = "closed_won"
	Dropped   Group = "dropped"
)

// GroupDef maps a group to its ordered member stages. The first stage is the
// entry stage: deals currently at it belong to the group while no event has
// been logged for them.
type GroupDef struct {
	Name   Group
	Stages []model.Stage
}

// StandardGroups returns TOFU (first three stages), MOFU (next three), BOFU
// (the stage before Closed Won) and the two terminal singletons.
func StandardGroups() []GroupDef {
	s := model.Stages()
	return []GroupDef{
		{Name: TOFU, Stages: s[0:3]},
		{Name: MOFU, Stages: s[3:6]},
		{Name: BOFU, Stages: s[6:7]},
		{Name: ClosedWon, Stages: []model.Stage{model.StageClosedWon}},
		{Name: Dropped, Stages: []model.Stage{model.StageDropped}},
	}
}

// Bucket is the unique deal count and summed expected value of a group.
type Bucket struct {
	Count int
	Value decimal.Decimal
}

// Snapshot is the attribution result.
type Snapshot struct {
	Buckets map[Group]Bucket
	// UnresolvedEvents counts events whose deal is not in the snapshot.
	UnresolvedEvents int
}

// Bucket returns the bucket for g, zero when absent.
func (s Snapshot) Bucket(g Group) Bucket {
	if b, ok := s.Buckets[g]; ok {
		return b
	}
	return Bucket{Value: decimal.Zero}
}

// DealSet is a set of deal ids.
type DealSet map[string]struct{}

// Attribute computes per-group unique deal counts and values. Inputs are not
// modified.
func Attribute(events []model.StatusEvent, deals []model.Deal, groups []GroupDef) Snapshot {
	h := newHistory(events, deals)
	out := Snapshot{
		Buckets:          make(map[Group]Bucket, len(groups)),
		UnresolvedEvents: h.unresolved,
	}
	for _, g := range groups {
		set := h.members(g.Stages)
		out.Buckets[g.Name] = Bucket{Count: len(set), Value: h.value(set)}
	}
	return out
}

// StageSets returns, for each individual stage, the set of deals that ever
// reached it. Each stage is treated as its own single-stage group.
func StageSets(events []model.StatusEvent, deals []model.Deal, stages []model.Stage) (map[model.Stage]DealSet, Index) {
	h := newHistory(events, deals)
	out := make(map[model.Stage]DealSet, len(stages))
	for _, s := range stages {
		out[s] = h.members([]model.Stage{s})
	}
	return out, h.index
}

// Index keys a deal snapshot by id.
type Index map[string]model.Deal

// IndexDeals builds an Index. Later duplicates overwrite earlier ones.
func IndexDeals(deals []model.Deal) Index {
	return lo.SliceToMap(deals, func(d model.Deal) (string, model.Deal) { return d.ID, d })
}

// KnownEvents drops events whose deal is not in idx and returns how many
// were dropped.
func KnownEvents(events []model.StatusEvent, idx Index) ([]model.StatusEvent, int) {
	known := lo.Filter(events, func(e model.StatusEvent, _ int) bool {
		_, ok := idx[e.DealID]
		return ok
	})
	return known, len(events) - len(known)
}

// Sum adds the expected values of the deals in set.
func (idx Index) Sum(set DealSet) decimal.Decimal {
	total := decimal.Zero
	for id := range set {
		total = total.Add(idx[id].ExpectedValue)
	}
	return total
}

// history is the per-deal set of stages seen in the status log.
type history struct {
	index      Index
	occupied   map[string]map[model.Stage]struct{}
	unresolved int
}

func newHistory(events []model.StatusEvent, deals []model.Deal) history {
	idx := IndexDeals(deals)
	known, unresolved := KnownEvents(events, idx)
	occupied := make(map[string]map[model.Stage]struct{}, len(idx))
	for _, e := range known {
		seen, ok := occupied[e.DealID]
		if !ok {
			seen = make(map[model.Stage]struct{}, 2)
			occupied[e.DealID] = seen
		}
		if e.OldStatus != "" {
			seen[e.OldStatus] = struct{}{}
		}
		if e.NewStatus != "" {
			seen[e.NewStatus] = struct{}{}
		}
	}
	return history{index: idx, occupied: occupied, unresolved: unresolved}
}

// members returns deals that ever occupied any of stages, plus deals with no
// logged events whose current status is the first of stages. A deal with a
// history is placed by that history alone.
func (h history) members(stages []model.Stage) DealSet {
	set := make(DealSet)
	if len(stages) == 0 {
		return set
	}
	for id, seen := range h.occupied {
		for _, s := range stages {
			if _, ok := seen[s]; ok {
				set[id] = struct{}{}
				break
			}
		}
	}
	entry := stages[0]
	for id, d := range h.index {
		if _, logged := h.occupied[id]; !logged && d.Status == entry {
			set[id] = struct{}{}
		}
	}
	return set
}

func (h history) value(set DealSet) decimal.Decimal {
	return h.index.Sum(set)
}
