package service

import (
	"context"
	"slices"
	"time"

	"github.com/okian/crmpulse/internal/adapters/repository"
	"github.com/okian/crmpulse/internal/domain/fiscal"
	"github.com/okian/crmpulse/internal/domain/model"
	"github.com/okian/crmpulse/internal/domain/reconcile"
	"github.com/okian/crmpulse/internal/domain/record"
	"github.com/okian/crmpulse/internal/domain/target"
	"github.com/okian/crmpulse/internal/domain/tier"
	"github.com/okian/crmpulse/internal/domain/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Breakdown dimensions.
const (
	byKAM  = "kam"
	byLOB  = "lob"
	byTier = "tier"
)

// ledger is the snapshot a roll-up aggregates over.
type ledger struct {
	fy       fiscal.Year
	status   target.StatusType
	mandates []model.Mandate
	targets  []model.TargetRecord
	accounts []model.Account
	kams     []model.Kam
	resolver *target.Resolver
}

// slice narrows a roll-up. Empty fields do not constrain.
type slice struct {
	kamID    string
	lob      string
	accounts map[string]struct{}
}

func (sl slice) mandate(m model.Mandate) bool {
	if sl.kamID != "" && m.KamID != sl.kamID {
		return false
	}
	if sl.lob != "" && m.LOB != sl.lob {
		return false
	}
	if sl.accounts != nil {
		if _, ok := sl.accounts[m.AccountID]; !ok {
			return false
		}
	}
	return true
}

func (sl slice) query(st target.StatusType, months []fiscal.Month) target.Query {
	return target.Query{Months: months, StatusType: st, KamID: sl.kamID, Accounts: sl.accounts, LOB: sl.lob}
}

// loadLedger fetches mandates and the fiscal year's targets, plus accounts
// and KAMs when asked.
func (s *Service) loadLedger(ctx context.Context, fy fiscal.Year, st target.StatusType, accounts, kams bool) (ledger, error) {
	snap, err := s.load(ctx, request{
		mandates: &repository.MandateFilter{},
		targets:  &repository.TargetFilter{FiscalYear: fy.Label()},
		accounts: accounts,
		kams:     kams,
	})
	if err != nil {
		return ledger{}, err
	}
	return ledger{
		fy:       fy,
		status:   st,
		mandates: snap.Mandates,
		targets:  snap.Targets,
		accounts: snap.Accounts,
		kams:     snap.Kams,
		resolver: target.NewResolver(snap.Mandates),
	}, nil
}

// report logs and counts the malformed and unresolved records that fall
// inside months. Each record is reported once per query.
func (s *Service) report(ctx context.Context, l ledger, months []fiscal.Month) {
	var bad []string
	for _, m := range l.mandates {
		for _, month := range months {
			if m.Entry(month).IsMalformed() {
				bad = append(bad, m.ID+"/"+month.Key())
			}
		}
	}
	s.skipped(ctx, recordPerformance, reasonMalformed, bad)

	res := l.resolver.Resolve(l.targets, target.Query{Months: months, StatusType: l.status})
	s.skipped(ctx, recordTarget, reasonMalformed, res.MalformedIDs)
	s.skipped(ctx, recordTarget, reasonUnresolved, res.UnresolvedIDs)
}

// achieved sums achieved and planned values over months for the mandates in
// sl whose type counts under the ledger's status type.
func (l ledger) achieved(sl slice, months []fiscal.Month) (decimal.Decimal, decimal.Decimal) {
	kinds := l.status.MandateTypes()
	achieved, planned := decimal.Zero, decimal.Zero
	for _, m := range l.mandates {
		if !lo.Contains(kinds, m.Type) || !sl.mandate(m) {
			continue
		}
		for _, month := range months {
			e := m.Entry(month)
			achieved = achieved.Add(record.Achieved(e))
			planned = planned.Add(record.Planned(e))
		}
	}
	return achieved, planned
}

func (l ledger) summarize(sl slice, months []fiscal.Month) types.Summary {
	achieved, planned := l.achieved(sl, months)
	tgt := l.resolver.Resolve(l.targets, sl.query(l.status, months)).Sum
	pct := decimal.Zero
	if !tgt.IsZero() {
		pct = achieved.Mul(hundred).Div(tgt).Round(2)
	}
	return types.Summary{
		Achieved:           achieved,
		Planned:            planned,
		Target:             tgt,
		AchievementPercent: pct,
		Balance:            tgt.Sub(achieved),
	}
}

// tierAccounts groups every known account by its tier for the ledger's year.
func (s *Service) tierAccounts(l ledger) map[tier.Tier]map[string]struct{} {
	out := make(map[tier.Tier]map[string]struct{}, len(tier.All()))
	for _, t := range tier.All() {
		out[t] = make(map[string]struct{})
	}
	for id, t := range s.classifier.ClassifyAll(l.fy, l.accounts, l.mandates) {
		out[t][id] = struct{}{}
	}
	return out
}

// TierReconciliation builds the cumulative target-versus-actual table for each
// tier across the twelve fiscal months.
func (s *Service) TierReconciliation(ctx context.Context, q types.ReconciliationQuery) (_ types.ReconciliationResult, err error) {
	defer s.observe(ctx, kindReconciliation, time.Now(), &err)

	fy, err := parseYear(q.FiscalYear, s.now())
	if err != nil {
		return types.ReconciliationResult{}, err
	}
	st, err := parseStatus(q.StatusType)
	if err != nil {
		return types.ReconciliationResult{}, err
	}
	l, err := s.loadLedger(ctx, fy, st, true, false)
	if err != nil {
		return types.ReconciliationResult{}, err
	}
	months := l.fy.Months()
	s.report(ctx, l, months)
	current := fiscal.MonthOf(s.now())
	groups := s.tierAccounts(l)

	out := types.ReconciliationResult{
		FiscalYear: l.fy.Label(),
		StatusType: string(l.status),
		Months:     monthKeys(months),
	}
	for _, t := range tier.All() {
		sl := slice{kamID: q.KamID, accounts: groups[t]}
		points := reconcile.Points(months)
		for i, m := range months {
			one := []fiscal.Month{m}
			points[i].AchievedDelta, _ = l.achieved(sl, one)
			points[i].TargetDelta = l.resolver.Resolve(l.targets, sl.query(l.status, one)).Sum
		}
		rows := reconcile.Cumulate(points, current).Table()
		out.Tiers = append(out.Tiers, types.TierTable{
			Tier: string(t),
			Rows: lo.Map(rows, func(r reconcile.Row, _ int) types.ReconciliationRow {
				return types.ReconciliationRow{Label: r.Label, Values: r.Values}
			}),
		})
	}
	return out, nil
}

// Summary rolls achieved, planned and target values up over a period.
func (s *Service) Summary(ctx context.Context, q types.SummaryQuery) (_ types.SummaryResult, err error) {
	defer s.observe(ctx, kindSummary, time.Now(), &err)

	l, period, months, err := s.summaryLedger(ctx, q, false, false)
	if err != nil {
		return types.SummaryResult{}, err
	}
	return types.SummaryResult{
		FiscalYear: l.fy.Label(),
		Period:     period,
		StatusType: string(l.status),
		Months:     monthKeys(months),
		Summary:    l.summarize(slice{kamID: q.KamID}, months),
	}, nil
}

// SummaryByKAM splits a summary by key account manager. A KAM filter keeps
// only that manager's row.
func (s *Service) SummaryByKAM(ctx context.Context, q types.SummaryQuery) (_ types.BreakdownResult, err error) {
	defer s.observe(ctx, kindSummaryKAM, time.Now(), &err)

	l, period, months, err := s.summaryLedger(ctx, q, false, true)
	if err != nil {
		return types.BreakdownResult{}, err
	}
	out := breakdown(l, period, byKAM, months)
	for _, k := range l.kams {
		if q.KamID != "" && k.ID != q.KamID {
			continue
		}
		out.Rows = append(out.Rows, types.KeyedSummary{
			Key:     k.ID,
			Label:   k.DisplayName,
			Summary: l.summarize(slice{kamID: k.ID}, months),
		})
	}
	return out, nil
}

// SummaryByLOB splits a summary by line of business. Cross-sell targets carry
// no line of business and are not attributed to any row.
func (s *Service) SummaryByLOB(ctx context.Context, q types.SummaryQuery) (_ types.BreakdownResult, err error) {
	defer s.observe(ctx, kindSummaryLOB, time.Now(), &err)

	l, period, months, err := s.summaryLedger(ctx, q, false, false)
	if err != nil {
		return types.BreakdownResult{}, err
	}
	lobs := lo.Uniq(lo.FilterMap(l.mandates, func(m model.Mandate, _ int) (string, bool) {
		return m.LOB, m.LOB != ""
	}))
	slices.Sort(lobs)

	out := breakdown(l, period, byLOB, months)
	for _, lob := range lobs {
		out.Rows = append(out.Rows, types.KeyedSummary{
			Key:     lob,
			Label:   lob,
			Summary: l.summarize(slice{kamID: q.KamID, lob: lob}, months),
		})
	}
	return out, nil
}

// SummaryByTier splits a summary by derived account tier.
func (s *Service) SummaryByTier(ctx context.Context, q types.SummaryQuery) (_ types.BreakdownResult, err error) {
	defer s.observe(ctx, kindSummaryTier, time.Now(), &err)

	l, period, months, err := s.summaryLedger(ctx, q, true, false)
	if err != nil {
		return types.BreakdownResult{}, err
	}
	groups := s.tierAccounts(l)
	out := breakdown(l, period, byTier, months)
	for _, t := range tier.All() {
		out.Rows = append(out.Rows, types.KeyedSummary{
			Key:     string(t),
			Label:   string(t),
			Summary: l.summarize(slice{kamID: q.KamID, accounts: groups[t]}, months),
		})
	}
	return out, nil
}

func (s *Service) summaryLedger(ctx context.Context, q types.SummaryQuery, accounts, kams bool) (ledger, types.Period, []fiscal.Month, error) {
	fy, err := parseYear(q.FiscalYear, s.now())
	if err != nil {
		return ledger{}, "", nil, err
	}
	st, err := parseStatus(q.StatusType)
	if err != nil {
		return ledger{}, "", nil, err
	}
	period, months, err := periodMonths(fy, q)
	if err != nil {
		return ledger{}, "", nil, err
	}
	l, err := s.loadLedger(ctx, fy, st, accounts, kams)
	if err != nil {
		return ledger{}, "", nil, err
	}
	s.report(ctx, l, months)
	return l, period, months, nil
}

func breakdown(l ledger, period types.Period, by string, months []fiscal.Month) types.BreakdownResult {
	return types.BreakdownResult{
		FiscalYear: l.fy.Label(),
		Period:     period,
		StatusType: string(l.status),
		By:         by,
		Months:     monthKeys(months),
		Rows:       []types.KeyedSummary{},
	}
}
