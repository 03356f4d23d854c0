package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/crmpulse/internal/domain/fiscal"
	model "github.com/okian/crmpulse/internal/domain/model"
	"github.com/okian/crmpulse/internal/domain/record"
	"github.com/shopspring/decimal"
	"github.com/smartystreets/goconvey/convey"
)

func TestNewTargetScope(t *testing.T) {
	convey.Convey("Given target scope references", t, func() {
		convey.Convey("When only kam and account are set", func() {
			scope, err := model.NewTargetScope("kam-1", "acc-1", "")

			convey.Convey("Then it is a cross-sell scope", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(scope, convey.ShouldResemble, model.CrossSellScope{KamID: "kam-1", AccountID: "acc-1"})
			})
		})

		convey.Convey("When only the mandate is set", func() {
			scope, err := model.NewTargetScope("", " ", "man-1")

			convey.Convey("Then it is an existing scope", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(scope, convey.ShouldResemble, model.ExistingScope{MandateID: "man-1"})
			})
		})

		convey.Convey("When both shapes are set", func() {
			_, err := model.NewTargetScope("kam-1", "acc-1", "man-1")

			convey.Convey("Then it is rejected", func() {
				convey.So(errors.Is(err, model.ErrInvalidScope), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When nothing is set", func() {
			_, err := model.NewTargetScope("", "", "")
			convey.So(errors.Is(err, model.ErrInvalidScope), convey.ShouldBeTrue)
		})

		convey.Convey("When a cross-sell scope is missing its account", func() {
			_, err := model.NewTargetScope("kam-1", "", "")
			convey.So(errors.Is(err, model.ErrInvalidScope), convey.ShouldBeTrue)
		})
	})
}

func TestStagesAndMandates(t *testing.T) {
	convey.Convey("Given the standard stage list", t, func() {
		stages := model.Stages()

		convey.Convey("Then it ends with the terminal stages", func() {
			convey.So(stages[len(stages)-2], convey.ShouldEqual, model.StageClosedWon)
			convey.So(stages[len(stages)-1], convey.ShouldEqual, model.StageDropped)
		})

		convey.Convey("Then the progress stages exclude Dropped", func() {
			progress := model.ProgressStages()
			convey.So(len(progress), convey.ShouldEqual, len(stages)-1)
			convey.So(progress[len(progress)-1], convey.ShouldEqual, model.StageClosedWon)
		})
	})

	convey.Convey("Given a mandate with one performance entry", t, func() {
		apr := fiscal.Month{Year: 2025, Month: time.April}
		m := model.Mandate{
			ID:          "man-1",
			Performance: map[fiscal.Month]record.Entry{apr: record.Scalar(decimal.NewFromInt(10))},
		}

		convey.Convey("Then missing months read as empty", func() {
			convey.So(m.Entry(apr).Kind(), convey.ShouldEqual, record.KindScalar)
			convey.So(m.Entry(apr.Next()).Kind(), convey.ShouldEqual, record.KindEmpty)
		})
	})
}
