// Package conversion builds the stage-by-stage conversion table.
package conversion

import (
	"encoding/json"

	"github.com/okian/crmpulse/internal/domain/funnel"
	"github.com/okian/crmpulse/internal/domain/model"
	"github.com/shopspring/decimal"
)

// Rate sentinels.
const (
	notApplicable = "N/A"
	noData        = "-"
)

var hundred = decimal.NewFromInt(100)

type rateKind uint8

const (
	rateNone rateKind = iota
	rateValue
	rateNotApplicable
	rateNoData
)

// Rate is a stage-to-stage conversion rate or one of its sentinels.
type Rate struct {
	kind  rateKind
	value decimal.Decimal
}

// ComputeRate returns next/cur as a percentage. A zero base with growth is
// "N/A"; a zero base without growth is "-".
func ComputeRate(cur, next int) Rate {
	switch {
	case cur == 0 && next > 0:
		return Rate{kind: rateNotApplicable}
	case cur == 0:
		return Rate{kind: rateNoData}
	default:
		v := decimal.NewFromInt(int64(next)).Mul(hundred).Div(decimal.NewFromInt(int64(cur)))
		return Rate{kind: rateValue, value: v}
	}
}

// Percent returns the numeric rate and whether it is defined.
func (r Rate) Percent() (decimal.Decimal, bool) {
	return r.value, r.kind == rateValue
}

// Defined reports whether the row has a next stage at all.
func (r Rate) Defined() bool { return r.kind != rateNone }

// String formats the rate as "40.0%", "N/A", "-" or "" for the final stage.
func (r Rate) String() string {
	switch r.kind {
	case rateValue:
		return r.value.StringFixed(1) + "%"
	case rateNotApplicable:
		return notApplicable
	case rateNoData:
		return noData
	default:
		return ""
	}
}

// MarshalJSON encodes the formatted rate, or null for the final stage.
func (r Rate) MarshalJSON() ([]byte, error) {
	if r.kind == rateNone {
		return []byte("null"), nil
	}
	return json.Marshal(r.String())
}

// Row is one stage of the conversion table.
type Row struct {
	Stage          model.Stage
	Cumulative     int
	MCVSum         decimal.Decimal
	ConversionRate Rate
	Remaining      int
	Dropped        int
}

// Build computes the table over stages, which must be ordered and exclude
// Dropped. Cumulative counts use ever-reached semantics per stage; Remaining
// uses the current status; Dropped counts transitions from the stage into
// Dropped.
func Build(stages []model.Stage, events []model.StatusEvent, deals []model.Deal) []Row {
	sets, idx := funnel.StageSets(events, deals, stages)
	known, _ := funnel.KnownEvents(events, idx)

	remaining := make(map[model.Stage]int, len(stages))
	for _, d := range idx {
		remaining[d.Status]++
	}
	dropped := make(map[model.Stage]int, len(stages))
	for _, e := range known {
		if e.NewStatus == model.StageDropped && e.OldStatus != "" {
			dropped[e.OldStatus]++
		}
	}

	rows := make([]Row, len(stages))
	for i, s := range stages {
		rows[i] = Row{
			Stage:      s,
			Cumulative: len(sets[s]),
			MCVSum:     idx.Sum(sets[s]),
			Remaining:  remaining[s],
			Dropped:    dropped[s],
		}
	}
	for i := 0; i+1 < len(rows); i++ {
		rows[i].ConversionRate = ComputeRate(rows[i].Cumulative, rows[i+1].Cumulative)
	}
	return rows
}
