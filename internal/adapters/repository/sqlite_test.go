package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/crmpulse/internal/domain/fiscal"
	"github.com/okian/crmpulse/internal/domain/model"
	"github.com/okian/crmpulse/internal/domain/record"
	. "github.com/smartystreets/goconvey/convey"
)

func openTestStore(t *testing.T, opts ...Option) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "crm.db"), opts...)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore(t *testing.T) {
	Convey("Given a sqlite store loaded with the fixture", t, func() {
		ctx := context.Background()
		s := openTestStore(t, WithBatchSize(1))
		So(s.Load(ctx, fixture()), ShouldBeNil)

		Convey("When listing deals", func() {
			deals, err := s.ListDeals(ctx, DealFilter{})

			Convey("Then values and timestamps round trip", func() {
				So(err, ShouldBeNil)
				So(len(deals), ShouldEqual, 3)
				So(deals[0].ID, ShouldEqual, "d1")
				So(deals[0].ExpectedValue.String(), ShouldEqual, "1200.5")
				So(deals[0].CreatedAt.Equal(base), ShouldBeTrue)
				So(deals[1].ExpectedCloseDate.IsZero(), ShouldBeTrue)
			})

			Convey("Then the close month filter applies", func() {
				jul := fiscal.Month{Year: 2025, Month: time.July}
				closing, err := s.ListDeals(ctx, DealFilter{ExpectedCloseMonth: &jul, KamID: "kam-1"})
				So(err, ShouldBeNil)
				So(len(closing), ShouldEqual, 1)
			})
		})

		Convey("When listing events across several id batches", func() {
			events, err := s.ListStatusEvents(ctx, EventFilter{DealIDs: []string{"d1", "d2", "d2"}})

			Convey("Then every batch is merged in time order", func() {
				So(err, ShouldBeNil)
				So(len(events), ShouldEqual, 3)
				So(events[0].ID, ShouldEqual, "e1")
				So(events[0].OldStatus, ShouldEqual, model.Stage(""))
				So(events[2].OldStatus, ShouldEqual, model.StageNegotiation)
			})
		})

		Convey("When listing mandates", func() {
			ms, err := s.ListMandates(ctx, MandateFilter{})

			Convey("Then both performance shapes decode", func() {
				So(err, ShouldBeNil)
				So(len(ms), ShouldEqual, 2)
				apr := fiscal.Month{Year: 2025, Month: time.April}
				So(ms[0].Entry(apr).Kind(), ShouldEqual, record.KindPair)
				So(record.Achieved(ms[0].Entry(apr)).String(), ShouldEqual, "500")
				So(record.Planned(ms[0].Entry(apr)).String(), ShouldEqual, "300")
				So(ms[0].Entry(apr.Next()).Kind(), ShouldEqual, record.KindScalar)
				So(len(ms[1].Performance), ShouldEqual, 0)
			})
		})

		Convey("When a performance value is not a known shape", func() {
			_, err := s.db.ExecContext(ctx, `INSERT INTO performance_records (mandate_id, year, month, value) VALUES ('m2', 2025, 6, '{"x":1}')`)
			So(err, ShouldBeNil)
			ms, err := s.ListMandates(ctx, MandateFilter{KamID: "kam-2"})

			Convey("Then it is kept as a malformed entry", func() {
				So(err, ShouldBeNil)
				So(ms[0].Entry(fiscal.Month{Year: 2025, Month: time.June}).IsMalformed(), ShouldBeTrue)
			})
		})

		Convey("When a malformed entry is loaded", func() {
			jun := fiscal.Month{Year: 2025, Month: time.June}
			snap := fixture()
			snap.Mandates[0].Performance[jun] = record.Malformed()
			So(s.Load(ctx, snap), ShouldBeNil)
			ms, err := s.ListMandates(ctx, MandateFilter{KamID: "kam-1"})

			Convey("Then it reads back as malformed", func() {
				So(err, ShouldBeNil)
				So(ms[0].Entry(jun).IsMalformed(), ShouldBeTrue)
			})
		})

		Convey("When a target row carries both scope shapes", func() {
			_, err := s.db.ExecContext(ctx, `INSERT INTO targets (id, target_type, month, year, fiscal_year, value, kam_id, account_id, mandate_id)
				VALUES ('t-bad', 'existing', 4, 2025, 'FY25', '10', 'kam-1', 'acc-1', 'm1')`)
			So(err, ShouldBeNil)
			ts, err := s.ListTargets(ctx, TargetFilter{FiscalYear: "FY25"})

			Convey("Then it is returned without a scope", func() {
				So(err, ShouldBeNil)
				So(len(ts), ShouldEqual, 3)
				byID := map[string]model.TargetRecord{}
				for _, tr := range ts {
					byID[tr.ID] = tr
				}
				So(byID["t1"].Scope, ShouldResemble, model.CrossSellScope{KamID: "kam-1", AccountID: "acc-1"})
				So(byID["t2"].Value.String(), ShouldEqual, "2000")
				So(byID["t-bad"].Scope, ShouldBeNil)
			})
		})

		Convey("When listing accounts and kams", func() {
			accounts, err := s.ListAccounts(ctx)
			So(err, ShouldBeNil)
			So(accounts[0].CompanySize, ShouldEqual, "Enterprise")
			kams, err := s.ListKams(ctx)
			So(err, ShouldBeNil)
			So(len(kams), ShouldEqual, 2)
		})

		Convey("When the store is closed", func() {
			So(s.Close(), ShouldBeNil)
			_, err := s.ListKams(ctx)
			So(errors.Is(err, ErrClosed), ShouldBeTrue)
			So(s.Close(), ShouldBeNil)
		})
	})
}
