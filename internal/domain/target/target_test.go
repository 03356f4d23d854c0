package target_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/crmpulse/internal/domain/fiscal"
	"github.com/okian/crmpulse/internal/domain/model"
	"github.com/okian/crmpulse/internal/domain/target"
	"github.com/shopspring/decimal"
	"github.com/smartystreets/goconvey/convey"
)

var (
	apr = fiscal.Month{Year: 2025, Month: time.April}
	may = apr.Next()
)

func mandates() []model.Mandate {
	return []model.Mandate{
		{ID: "m-ncs", AccountID: "acc-1", KamID: "kam-1", Type: model.MandateNewCrossSell, LOB: "payments"},
		{ID: "m-ex", AccountID: "acc-2", KamID: "kam-2", Type: model.MandateExisting, LOB: "lending"},
		{ID: "m-na", AccountID: "acc-3", KamID: "kam-1", Type: model.MandateNewAcquisition, LOB: "payments"},
	}
}

func existing(id, mandateID string, m fiscal.Month, v int64) model.TargetRecord {
	return model.TargetRecord{
		ID: id, Type: model.TargetExisting, Month: m.Month, Year: m.Year, FiscalYear: "FY25",
		Value: decimal.NewFromInt(v), Scope: model.ExistingScope{MandateID: mandateID},
	}
}

func crossSell(id, kamID, accountID string, m fiscal.Month, v int64) model.TargetRecord {
	return model.TargetRecord{
		ID: id, Type: model.TargetNewCrossSell, Month: m.Month, Year: m.Year, FiscalYear: "FY25",
		Value: decimal.NewFromInt(v), Scope: model.CrossSellScope{KamID: kamID, AccountID: accountID},
	}
}

func TestParseStatusType(t *testing.T) {
	convey.Convey("Given status type strings", t, func() {
		st, err := target.ParseStatusType("")
		convey.So(err, convey.ShouldBeNil)
		convey.So(st, convey.ShouldEqual, target.StatusCrossSellExisting)

		st, err = target.ParseStatusType(" All Cross Sell ")
		convey.So(err, convey.ShouldBeNil)
		convey.So(st, convey.ShouldEqual, target.StatusAllCrossSell)

		_, err = target.ParseStatusType("all cross sell")
		convey.So(errors.Is(err, target.ErrUnknownStatusType), convey.ShouldBeTrue)
	})

	convey.Convey("Given each status type", t, func() {
		convey.So(target.StatusExisting.MandateTypes(), convey.ShouldResemble, []model.MandateType{model.MandateExisting})
		convey.So(target.StatusAllCrossSell.MandateTypes(), convey.ShouldResemble, []model.MandateType{model.MandateNewCrossSell})
		convey.So(len(target.StatusCrossSellExisting.MandateTypes()), convey.ShouldEqual, 2)
		convey.So(target.StatusNewAcquisitions.MandateTypes(), convey.ShouldResemble, []model.MandateType{model.MandateNewAcquisition})
	})
}

func TestResolve(t *testing.T) {
	convey.Convey("Given an existing-type target on a New Cross Sell mandate", t, func() {
		r := target.NewResolver(mandates())
		targets := []model.TargetRecord{existing("t1", "m-ncs", apr, 100)}

		convey.Convey("When resolved under All Cross Sell", func() {
			res := r.Resolve(targets, target.Query{StatusType: target.StatusAllCrossSell})

			convey.Convey("Then it is included", func() {
				convey.So(res.Matched, convey.ShouldEqual, 1)
				convey.So(res.Sum.String(), convey.ShouldEqual, "100")
			})
		})

		convey.Convey("When resolved under Existing", func() {
			res := r.Resolve(targets, target.Query{StatusType: target.StatusExisting})

			convey.Convey("Then it is excluded", func() {
				convey.So(res.Matched, convey.ShouldEqual, 0)
				convey.So(res.Sum.IsZero(), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given a mix of targets", t, func() {
		r := target.NewResolver(mandates())
		targets := []model.TargetRecord{
			existing("t-ncs", "m-ncs", apr, 100),
			existing("t-ex", "m-ex", apr, 200),
			existing("t-na", "m-na", apr, 400),
			crossSell("t-cs", "kam-1", "acc-9", may, 800),
			existing("t-gone", "m-deleted", apr, 1600),
			{ID: "t-bad", Type: model.TargetNewCrossSell, Month: apr.Month, Year: apr.Year, Value: decimal.NewFromInt(3200), Scope: model.ExistingScope{MandateID: "m-ex"}},
			{ID: "t-none", Type: model.TargetExisting, Month: apr.Month, Year: apr.Year, Value: decimal.NewFromInt(6400)},
		}

		convey.Convey("When every filter is open", func() {
			res := r.Resolve(targets, target.Query{})

			convey.Convey("Then cross sell and existing are unioned", func() {
				convey.So(res.Sum.String(), convey.ShouldEqual, "1100")
				convey.So(res.Matched, convey.ShouldEqual, 3)
			})

			convey.Convey("Then dangling and malformed targets are counted", func() {
				convey.So(res.Unresolved, convey.ShouldEqual, 1)
				convey.So(res.UnresolvedIDs, convey.ShouldResemble, []string{"t-gone"})
				convey.So(res.Malformed, convey.ShouldEqual, 2)
				convey.So(res.MalformedIDs, convey.ShouldResemble, []string{"t-bad", "t-none"})
			})
		})

		convey.Convey("When filtered to New Acquisitions", func() {
			res := r.Resolve(targets, target.Query{StatusType: target.StatusNewAcquisitions})
			convey.So(res.Sum.String(), convey.ShouldEqual, "400")
		})

		convey.Convey("When filtered by KAM", func() {
			res := r.Resolve(targets, target.Query{StatusType: target.StatusAllCrossSell, KamID: "kam-1"})

			convey.Convey("Then cross sell matches directly and existing through the mandate", func() {
				convey.So(res.Sum.String(), convey.ShouldEqual, "900")
			})
		})

		convey.Convey("When filtered by month", func() {
			res := r.Resolve(targets, target.Query{Months: []fiscal.Month{may}})

			convey.Convey("Then only that month counts and skipped rows outside it are ignored", func() {
				convey.So(res.Sum.String(), convey.ShouldEqual, "800")
				convey.So(res.Malformed, convey.ShouldEqual, 0)
			})
		})

		convey.Convey("When filtered by line of business", func() {
			res := r.Resolve(targets, target.Query{LOB: "payments"})

			convey.Convey("Then cross-sell targets drop out", func() {
				convey.So(res.Sum.String(), convey.ShouldEqual, "100")
			})
		})

		convey.Convey("When filtered by an account set", func() {
			res := r.Resolve(targets, target.Query{Accounts: map[string]struct{}{"acc-2": {}, "acc-9": {}}})
			convey.So(res.Sum.String(), convey.ShouldEqual, "1000")
		})
	})
}
