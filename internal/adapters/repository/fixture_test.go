package repository

import (
	"time"

	"github.com/okian/crmpulse/internal/domain/fiscal"
	"github.com/okian/crmpulse/internal/domain/model"
	"github.com/okian/crmpulse/internal/domain/record"
	"github.com/shopspring/decimal"
)

var base = time.Date(2025, time.May, 10, 9, 0, 0, 0, time.UTC)

func fixture() Snapshot {
	apr := fiscal.Month{Year: 2025, Month: time.April}
	return Snapshot{
		Kams:     []model.Kam{{ID: "kam-1", DisplayName: "Asha"}, {ID: "kam-2", DisplayName: "Ravi"}},
		Accounts: []model.Account{{ID: "acc-1", Name: "Acme", CompanySize: "Enterprise"}, {ID: "acc-2", Name: "Globex"}},
		Deals: []model.Deal{
			{ID: "d1", Status: model.StageListed, KamID: "kam-1", AccountID: "acc-1", ExpectedValue: decimal.RequireFromString("1200.50"), CreatedAt: base, ExpectedCloseDate: time.Date(2025, time.July, 15, 0, 0, 0, 0, time.UTC)},
			{ID: "d2", Status: model.StageClosedWon, KamID: "kam-2", AccountID: "acc-2", ExpectedValue: decimal.NewFromInt(900), CreatedAt: base.Add(48 * time.Hour)},
			{ID: "d3", Status: model.StageDropped, KamID: "kam-1", AccountID: "acc-2", ExpectedValue: decimal.NewFromInt(50), CreatedAt: base.AddDate(1, 0, 0)},
		},
		Events: []model.StatusEvent{
			{ID: "e2", DealID: "d2", NewStatus: model.StageNegotiation, ChangedAt: base.Add(time.Hour)},
			{ID: "e1", DealID: "d1", NewStatus: model.StageListed, ChangedAt: base},
			{ID: "e3", DealID: "d2", OldStatus: model.StageNegotiation, NewStatus: model.StageClosedWon, ChangedAt: base.Add(2 * time.Hour)},
		},
		Mandates: []model.Mandate{
			{ID: "m1", AccountID: "acc-1", KamID: "kam-1", Type: model.MandateNewCrossSell, LOB: "payments", Performance: map[fiscal.Month]record.Entry{
				apr:        record.Pair(decimal.NewFromInt(300), decimal.NewFromInt(500)),
				apr.Next(): record.Scalar(decimal.NewFromInt(700)),
			}},
			{ID: "m2", AccountID: "acc-2", KamID: "kam-2", Type: model.MandateExisting, LOB: "lending"},
		},
		Targets: []model.TargetRecord{
			{ID: "t1", Type: model.TargetNewCrossSell, Month: time.April, Year: 2025, FiscalYear: "FY25", Value: decimal.NewFromInt(1000), Scope: model.CrossSellScope{KamID: "kam-1", AccountID: "acc-1"}},
			{ID: "t2", Type: model.TargetExisting, Month: time.May, Year: 2025, FiscalYear: "FY25", Value: decimal.NewFromInt(2000), Scope: model.ExistingScope{MandateID: "m2"}},
		},
	}
}
