package reconcile_test

import (
	"testing"
	"time"

	"github.com/okian/crmpulse/internal/domain/fiscal"
	"github.com/okian/crmpulse/internal/domain/reconcile"
	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"
)

var (
	apr = fiscal.Month{Year: 2025, Month: time.April}
	may = apr.Next()
	jun = may.Next()
	jul = jun.Next()
)

func point(m fiscal.Month, achieved, target int64) reconcile.Point {
	return reconcile.Point{Month: m, AchievedDelta: decimal.NewFromInt(achieved), TargetDelta: decimal.NewFromInt(target)}
}

func strings(ds []decimal.Decimal) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.String()
	}
	return out
}

func TestCumulate(t *testing.T) {
	Convey("Given achieved deltas of 100, 0 and 50", t, func() {
		points := []reconcile.Point{point(apr, 100, 0), point(may, 0, 0), point(jun, 50, 0)}

		Convey("When evaluated as of June", func() {
			s := reconcile.Cumulate(points, jun)

			Convey("Then the zero past month carries forward", func() {
				So(strings(s.Achieved()), ShouldResemble, []string{"100", "100", "150"})
			})
		})

		Convey("When evaluated as of May", func() {
			s := reconcile.Cumulate(points[:2], may)

			Convey("Then the unreported current month shows zero", func() {
				So(strings(s.Achieved()), ShouldResemble, []string{"100", "0"})
				So(s[1].Reported, ShouldBeFalse)
			})
		})

		Convey("When a later month reports after an empty current month", func() {
			s := reconcile.Cumulate(append(points, point(jul, 25, 0)), may)

			Convey("Then it adds to the last reported cumulative", func() {
				So(strings(s.Achieved()), ShouldResemble, []string{"100", "0", "150", "175"})
			})
		})
	})

	Convey("Given targets on some months", t, func() {
		points := []reconcile.Point{point(apr, 0, 100), point(may, 0, 0), point(jun, 0, 200)}
		s := reconcile.Cumulate(points, apr)

		Convey("Then targets always accumulate", func() {
			So(s[0].Target.String(), ShouldEqual, "100")
			So(s[1].Target.String(), ShouldEqual, "100")
			So(s[2].Target.String(), ShouldEqual, "300")
		})
	})
}

func TestTable(t *testing.T) {
	Convey("Given a series where achievement overtakes the target", t, func() {
		points := []reconcile.Point{point(apr, 50, 200), point(may, 250, 0), point(jun, 0, 0)}
		rows := reconcile.Cumulate(points, jul).Table()

		Convey("Then it has the four standard rows", func() {
			So(len(rows), ShouldEqual, 4)
			So(rows[0].Label, ShouldEqual, reconcile.RowTarget)
			So(rows[1].Label, ShouldEqual, reconcile.RowActual)
			So(rows[2].Label, ShouldEqual, reconcile.RowAchievement)
			So(rows[3].Label, ShouldEqual, reconcile.RowBalance)
		})

		Convey("Then achievement and balance follow the cumulative values", func() {
			So(strings(rows[2].Values), ShouldResemble, []string{"25", "150", "150"})
			So(strings(rows[3].Values), ShouldResemble, []string{"150", "-100", "-100"})
		})
	})

	Convey("Given a month with no target", t, func() {
		rows := reconcile.Cumulate([]reconcile.Point{point(apr, 10, 0)}, may).Table()

		Convey("Then achievement is zero rather than a division error", func() {
			So(rows[2].Values[0].IsZero(), ShouldBeTrue)
		})
	})

	Convey("Given month slots", t, func() {
		ps := reconcile.Points([]fiscal.Month{apr, may})
		So(len(ps), ShouldEqual, 2)
		So(ps[1].Month, ShouldResemble, may)
		So(ps[1].AchievedDelta.IsZero(), ShouldBeTrue)
	})
}
