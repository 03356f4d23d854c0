package types_test

import (
	"encoding/json"
	"testing"

	"github.com/okian/crmpulse/internal/domain/conversion"
	types "github.com/okian/crmpulse/internal/domain/types"
	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"
)

func TestJSONShapes(t *testing.T) {
	Convey("Given a summary result", t, func() {
		r := types.SummaryResult{
			FiscalYear: "FY25",
			Period:     types.PeriodQuarter,
			Months:     []string{"2025-04"},
			Summary: types.Summary{
				Achieved:           decimal.NewFromInt(150),
				Planned:            decimal.Zero,
				Target:             decimal.NewFromInt(100),
				AchievementPercent: decimal.NewFromInt(150),
				Balance:            decimal.NewFromInt(-50),
			},
		}
		b, err := json.Marshal(r)

		Convey("Then the summary fields are inlined and money is a string", func() {
			So(err, ShouldBeNil)
			So(string(b), ShouldContainSubstring, `"period":"quarter"`)
			So(string(b), ShouldContainSubstring, `"achieved":"150"`)
			So(string(b), ShouldContainSubstring, `"balance":"-50"`)
		})
	})

	Convey("Given conversion rows", t, func() {
		rows := []types.ConversionRow{
			{Stage: "Listed", ConversionRate: conversion.ComputeRate(10, 4), MCVSum: decimal.Zero},
			{Stage: "Closed Won", MCVSum: decimal.Zero},
		}
		b, err := json.Marshal(rows)

		Convey("Then rates render formatted and the last one is null", func() {
			So(err, ShouldBeNil)
			So(string(b), ShouldContainSubstring, `"conversion_rate":"40.0%"`)
			So(string(b), ShouldContainSubstring, `"conversion_rate":null`)
		})
	})
}
