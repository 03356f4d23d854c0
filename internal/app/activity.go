package service

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/okian/crmpulse/internal/adapters/repository"
	"github.com/okian/crmpulse/internal/domain/fiscal"
	"github.com/okian/crmpulse/internal/domain/funnel"
	"github.com/okian/crmpulse/internal/domain/model"
	"github.com/okian/crmpulse/internal/domain/tier"
	"github.com/okian/crmpulse/internal/domain/types"
	"github.com/okian/crmpulse/pkg/logger"
	"github.com/okian/crmpulse/pkg/metrics"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// WeeklyActivity counts meetings held and proposals made this week and last
// week. Both weeks are clipped to the fiscal year; a week outside it reports
// zero counts.
func (s *Service) WeeklyActivity(ctx context.Context, q types.WeeklyQuery) (_ types.WeeklyActivity, err error) {
	defer s.observe(ctx, kindWeekly, time.Now(), &err)

	now := s.now()
	fy, err := parseYear(q.FiscalYear, now)
	if err != nil {
		return types.WeeklyActivity{}, err
	}
	this, thisOK := fy.ThisWeek(now)
	last, lastOK := fy.LastWeek(now)
	out := types.WeeklyActivity{
		FiscalYear: fy.Label(),
		ThisWeek:   types.WeekCounts{Start: this.Start, End: this.End, InRange: thisOK},
		LastWeek:   types.WeekCounts{Start: last.Start, End: last.End, InRange: lastOK},
	}
	if !thisOK && !lastOK {
		return out, nil
	}

	span := fiscal.Window{Start: this.Start, End: this.End}
	if lastOK {
		span.Start = last.Start
		if !thisOK {
			span.End = last.End
		}
	}
	snap, err := s.load(ctx, request{
		deals:  &repository.DealFilter{KamID: q.KamID},
		events: &repository.EventFilter{ChangedAfter: span.Start, ChangedBefore: span.End},
	})
	if err != nil {
		return types.WeeklyActivity{}, err
	}
	events, unknown := funnel.KnownEvents(snap.Events, funnel.IndexDeals(snap.Deals))
	if q.KamID == "" && unknown > 0 {
		s.logger.Info(ctx, "events without deal", logger.Int("count", unknown))
		metrics.RecordUnresolved(recordEvent, unknown)
	}

	if thisOK {
		out.ThisWeek.Meetings, out.ThisWeek.Proposals = countActivity(events, this)
	}
	if lastOK {
		out.LastWeek.Meetings, out.LastWeek.Proposals = countActivity(events, last)
	}
	return out, nil
}

func countActivity(events []model.StatusEvent, w fiscal.Window) (meetings, proposals int) {
	for _, e := range events {
		if !w.Contains(e.ChangedAt) {
			continue
		}
		switch e.NewStatus {
		case model.StageMeetingDone:
			meetings++
		case model.StageSolutionProposalMade:
			proposals++
		}
	}
	return meetings, proposals
}

// Tiers derives the tier of every account for the fiscal year, largest total
// first.
func (s *Service) Tiers(ctx context.Context, label string) (_ types.TiersResult, err error) {
	defer s.observe(ctx, kindTiers, time.Now(), &err)

	fy, err := parseYear(label, s.now())
	if err != nil {
		return types.TiersResult{}, err
	}
	snap, err := s.load(ctx, request{mandates: &repository.MandateFilter{}, accounts: true})
	if err != nil {
		return types.TiersResult{}, err
	}
	names := lo.SliceToMap(snap.Accounts, func(a model.Account) (string, string) { return a.ID, a.Name })
	totals := tier.Totals(fy, snap.Mandates)
	assigned := s.classifier.ClassifyAll(fy, snap.Accounts, snap.Mandates)

	out := types.TiersResult{
		FiscalYear: fy.Label(),
		Threshold:  s.classifier.Threshold(),
		Accounts:   make([]types.TierAssignment, 0, len(assigned)),
	}
	for id, t := range assigned {
		total, ok := totals[id]
		if !ok {
			total = decimal.Zero
		}
		out.Accounts = append(out.Accounts, types.TierAssignment{
			AccountID:   id,
			AccountName: names[id],
			Tier:        string(t),
			Total:       total,
		})
	}
	slices.SortFunc(out.Accounts, func(a, b types.TierAssignment) int {
		if c := b.Total.Cmp(a.Total); c != 0 {
			return c
		}
		return cmp.Compare(a.AccountID, b.AccountID)
	})
	return out, nil
}
