package service

import (
	"context"
	"time"

	"github.com/okian/crmpulse/internal/adapters/repository"
	"github.com/okian/crmpulse/internal/domain/conversion"
	"github.com/okian/crmpulse/internal/domain/funnel"
	"github.com/okian/crmpulse/internal/domain/model"
	"github.com/okian/crmpulse/internal/domain/types"
	"github.com/samber/lo"
)

// Funnel attributes the deals created in the fiscal year to the standard
// stage groups using their full status history.
func (s *Service) Funnel(ctx context.Context, q types.FunnelQuery) (_ types.FunnelResult, err error) {
	defer s.observe(ctx, kindFunnel, time.Now(), &err)

	label, deals, events, err := s.pipeline(ctx, q)
	if err != nil {
		return types.FunnelResult{}, err
	}
	snap := funnel.Attribute(events, deals, funnel.StandardGroups())
	group := func(g funnel.Group) types.FunnelGroup {
		b := snap.Bucket(g)
		return types.FunnelGroup{Count: b.Count, Value: b.Value}
	}
	return types.FunnelResult{
		FiscalYear:       label,
		TOFU:             group(funnel.TOFU),
		MOFU:             group(funnel.MOFU),
		BOFU:             group(funnel.BOFU),
		ClosedWon:        group(funnel.ClosedWon),
		Dropped:          group(funnel.Dropped),
		UnresolvedEvents: snap.UnresolvedEvents,
	}, nil
}

// ConversionTable builds the per-stage conversion table over the same deal
// selection as Funnel.
func (s *Service) ConversionTable(ctx context.Context, q types.FunnelQuery) (_ types.ConversionResult, err error) {
	defer s.observe(ctx, kindConversion, time.Now(), &err)

	label, deals, events, err := s.pipeline(ctx, q)
	if err != nil {
		return types.ConversionResult{}, err
	}
	rows := conversion.Build(model.ProgressStages(), events, deals)
	return types.ConversionResult{
		FiscalYear: label,
		Rows: lo.Map(rows, func(r conversion.Row, _ int) types.ConversionRow {
			return types.ConversionRow{
				Stage:          string(r.Stage),
				Cumulative:     r.Cumulative,
				MCVSum:         r.MCVSum,
				ConversionRate: r.ConversionRate,
				Remaining:      r.Remaining,
				Dropped:        r.Dropped,
			}
		}),
	}, nil
}

// pipeline loads the deals created within the fiscal year that match q, then
// their status events up to the end of the year.
func (s *Service) pipeline(ctx context.Context, q types.FunnelQuery) (string, []model.Deal, []model.StatusEvent, error) {
	fy, err := parseYear(q.FiscalYear, s.now())
	if err != nil {
		return "", nil, nil, err
	}
	closeMonth, err := parseCloseMonth(q.CloseMonth)
	if err != nil {
		return "", nil, nil, err
	}
	start, end := fy.Range()

	snap, err := s.load(ctx, request{deals: &repository.DealFilter{
		CreatedAfter:       start,
		CreatedBefore:      end,
		KamID:              q.KamID,
		ExpectedCloseMonth: closeMonth,
	}})
	if err != nil {
		return "", nil, nil, err
	}
	ids := lo.Map(snap.Deals, func(d model.Deal, _ int) string { return d.ID })
	evSnap, err := s.load(ctx, request{events: &repository.EventFilter{
		DealIDs:       ids,
		ChangedBefore: end,
	}})
	if err != nil {
		return "", nil, nil, err
	}

	idx := funnel.IndexDeals(snap.Deals)
	orphans := lo.FilterMap(evSnap.Events, func(e model.StatusEvent, _ int) (string, bool) {
		_, ok := idx[e.DealID]
		return e.ID, !ok
	})
	s.skipped(ctx, recordEvent, reasonUnresolved, orphans)
	return fy.Label(), snap.Deals, evSnap.Events, nil
}
