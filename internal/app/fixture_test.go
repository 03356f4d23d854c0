package service_test

import (
	"time"

	"github.com/okian/crmpulse/internal/adapters/repository"
	service "github.com/okian/crmpulse/internal/app"
	"github.com/okian/crmpulse/internal/domain/fiscal"
	"github.com/okian/crmpulse/internal/domain/model"
	"github.com/okian/crmpulse/internal/domain/record"
	"github.com/okian/crmpulse/pkg/logger"
	"github.com/shopspring/decimal"
)

// Wednesday of the third month of FY25.
var now = time.Date(2025, time.June, 4, 12, 0, 0, 0, time.UTC)

func day(m time.Month, d int) time.Time {
	return time.Date(2025, m, d, 10, 0, 0, 0, time.UTC)
}

func month(m time.Month) fiscal.Month { return fiscal.Month{Year: 2025, Month: m} }

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func fixture() repository.Snapshot {
	return repository.Snapshot{
		Kams:     []model.Kam{{ID: "kam-1", DisplayName: "Asha"}, {ID: "kam-2", DisplayName: "Ravi"}},
		Accounts: []model.Account{{ID: "acc-big", Name: "Acme"}, {ID: "acc-small", Name: "Globex"}},
		Deals: []model.Deal{
			{ID: "A", Status: model.StageDropped, KamID: "kam-1", ExpectedValue: dec(100), CreatedAt: day(time.May, 1)},
			{ID: "B", Status: model.StageListed, KamID: "kam-1", ExpectedValue: dec(200), CreatedAt: day(time.May, 5)},
			{ID: "C", Status: model.StageClosedWon, KamID: "kam-2", ExpectedValue: dec(400), CreatedAt: day(time.May, 10), ExpectedCloseDate: day(time.May, 31)},
			{ID: "D", Status: model.StageListed, KamID: "kam-1", ExpectedValue: dec(800), CreatedAt: time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC)},
			{ID: "E", Status: model.StageSolutionProposalMade, KamID: "kam-1", ExpectedValue: dec(50), CreatedAt: time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)},
		},
		Events: []model.StatusEvent{
			{ID: "a1", DealID: "A", NewStatus: model.StageSolutionProposalMade, ChangedAt: day(time.May, 2)},
			{ID: "a2", DealID: "A", OldStatus: model.StageSolutionProposalMade, NewStatus: model.StageDropped, ChangedAt: day(time.May, 20)},
			{ID: "c1", DealID: "C", NewStatus: model.StageClosedWon, ChangedAt: day(time.May, 10)},
			{ID: "e1", DealID: "E", OldStatus: model.StageMeetingScheduled, NewStatus: model.StageMeetingDone, ChangedAt: day(time.May, 27)},
			{ID: "e2", DealID: "E", OldStatus: model.StageQualified, NewStatus: model.StageSolutionProposalMade, ChangedAt: day(time.May, 28)},
			{ID: "e3", DealID: "E", OldStatus: model.StageSolutionProposalMade, NewStatus: model.StageMeetingDone, ChangedAt: day(time.June, 3)},
		},
		Mandates: []model.Mandate{
			{ID: "m-big", AccountID: "acc-big", KamID: "kam-1", Type: model.MandateNewCrossSell, LOB: "payments", Performance: map[fiscal.Month]record.Entry{
				month(time.April): record.Scalar(dec(8_000_000)),
				month(time.May):   record.Scalar(dec(4_000_000)),
			}},
			{ID: "m-small", AccountID: "acc-small", KamID: "kam-2", Type: model.MandateExisting, LOB: "lending", Performance: map[fiscal.Month]record.Entry{
				month(time.April): record.Pair(dec(150), dec(100)),
				month(time.June):  record.Scalar(dec(50)),
				month(time.July):  record.Malformed(),
			}},
			{ID: "m-na", AccountID: "acc-small", KamID: "kam-2", Type: model.MandateNewAcquisition, LOB: "lending", Performance: map[fiscal.Month]record.Entry{
				month(time.April): record.Scalar(dec(999)),
			}},
		},
		Targets: []model.TargetRecord{
			{ID: "t1", Type: model.TargetNewCrossSell, Month: time.April, Year: 2025, FiscalYear: "FY25", Value: dec(10_000_000), Scope: model.CrossSellScope{KamID: "kam-1", AccountID: "acc-big"}},
			{ID: "t2", Type: model.TargetExisting, Month: time.May, Year: 2025, FiscalYear: "FY25", Value: dec(200), Scope: model.ExistingScope{MandateID: "m-small"}},
			{ID: "t3", Type: model.TargetExisting, Month: time.April, Year: 2025, FiscalYear: "FY25", Value: dec(70), Scope: model.ExistingScope{MandateID: "m-ghost"}},
			{ID: "t4", Type: model.TargetExisting, Month: time.April, Year: 2025, FiscalYear: "FY25", Value: dec(30), Scope: model.CrossSellScope{KamID: "kam-2", AccountID: "acc-small"}},
		},
	}
}

func newService(src repository.Source, at time.Time) *service.Service {
	return service.New(
		service.WithSource(src),
		service.WithLogger(logger.NewNop()),
		service.WithClock(func() time.Time { return at }),
	)
}

func seeded(at time.Time) *service.Service {
	store := repository.NewMemoryStore()
	store.Load(fixture())
	return newService(store, at)
}
