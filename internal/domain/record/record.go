// Package record normalizes per-month performance entries.
//
// Historical entries were stored as a [planned, achieved] pair; newer ones as
// a bare achieved scalar. Both are decoded once into Entry and never branched
// on again downstream.
package record

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Kind tags the shape an Entry was decoded from.
type Kind uint8

// Entry shapes.
const (
	KindEmpty Kind = iota
	KindPair
	KindScalar
	KindMalformed
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindPair:
		return "pair"
	case KindScalar:
		return "scalar"
	default:
		return "malformed"
	}
}

// Entry is a single month's performance value.
type Entry struct {
	kind     Kind
	planned  decimal.Decimal
	achieved decimal.Decimal
}

// Pair builds a legacy (planned, achieved) entry.
func Pair(planned, achieved decimal.Decimal) Entry {
	return Entry{kind: KindPair, planned: planned, achieved: achieved}
}

// Scalar builds an achieved-only entry.
func Scalar(achieved decimal.Decimal) Entry {
	return Entry{kind: KindScalar, achieved: achieved}
}

// Empty is the entry for a missing or null record.
func Empty() Entry { return Entry{kind: KindEmpty} }

// Malformed marks a record that was neither a pair nor a scalar.
func Malformed() Entry { return Entry{kind: KindMalformed} }

// Kind returns the decoded shape.
func (e Entry) Kind() Kind { return e.kind }

// IsMalformed reports whether the entry could not be decoded.
func (e Entry) IsMalformed() bool { return e.kind == KindMalformed }

// Achieved returns the achieved value: the second element of a pair, the
// scalar itself, or zero for empty and malformed entries.
func Achieved(e Entry) decimal.Decimal {
	switch e.kind {
	case KindPair, KindScalar:
		return e.achieved
	default:
		return decimal.Zero
	}
}

// Planned returns the planned value of a legacy pair. Scalars, empty and
// malformed entries have no planned value and yield zero.
func Planned(e Entry) decimal.Decimal {
	if e.kind == KindPair {
		return e.planned
	}
	return decimal.Zero
}

// Decode parses a raw JSON value into an Entry. null or absent input yields
// an empty entry. Anything other than a number or a two-element numeric
// array yields a malformed entry together with ErrMalformedRecord.
func Decode(raw json.RawMessage) (Entry, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Empty(), nil
	}
	if raw[0] == '[' {
		var parts []json.RawMessage
		if err := json.Unmarshal(raw, &parts); err != nil {
			return Malformed(), fmt.Errorf("%w: %v", ErrMalformedRecord, err)
		}
		if len(parts) != 2 {
			return Malformed(), fmt.Errorf("%w: pair has %d elements", ErrMalformedRecord, len(parts))
		}
		planned, err := decodeNumber(parts[0])
		if err != nil {
			return Malformed(), err
		}
		achieved, err := decodeNumber(parts[1])
		if err != nil {
			return Malformed(), err
		}
		return Pair(planned, achieved), nil
	}
	v, err := decodeNumber(raw)
	if err != nil {
		return Malformed(), err
	}
	return Scalar(v), nil
}

// malformedJSON is how a malformed entry is written. Decode reads it back as
// malformed.
var malformedJSON = []byte(`"malformed"`)

// MarshalJSON writes the entry back in the shape it was decoded from.
func (e Entry) MarshalJSON() ([]byte, error) {
	switch e.kind {
	case KindPair:
		return json.Marshal([]json.Number{json.Number(e.planned.String()), json.Number(e.achieved.String())})
	case KindScalar:
		return []byte(e.achieved.String()), nil
	case KindMalformed:
		return malformedJSON, nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes in place. Malformed input is kept as a malformed entry
// rather than failing the enclosing document.
func (e *Entry) UnmarshalJSON(b []byte) error {
	decoded, _ := Decode(b)
	*e = decoded
	return nil
}

func decodeNumber(raw json.RawMessage) (decimal.Decimal, error) {
	raw = bytes.TrimSpace(raw)
	if bytes.Equal(raw, []byte("null")) {
		return decimal.Zero, nil
	}
	if len(raw) > 0 && (raw[0] == '"' || raw[0] == '[' || raw[0] == '{' || raw[0] == 't' || raw[0] == 'f') {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrMalformedRecord, raw)
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(raw); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	return d, nil
}
