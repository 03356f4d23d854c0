// Package target resolves target records to scopes and sums them under the
// status type, KAM, account, line-of-business and month filters.
package target

import (
	"fmt"
	"strings"

	"github.com/okian/crmpulse/internal/domain/fiscal"
	"github.com/okian/crmpulse/internal/domain/model"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// StatusType selects which mandate classifications a roll-up covers.
type StatusType string

// Status type filters.
const (
	StatusExisting          StatusType = "Existing"
	StatusAllCrossSell      StatusType = "All Cross Sell"
	StatusCrossSellExisting StatusType = "All Cross Sell + Existing"
	StatusNewAcquisitions   StatusType = "New Acquisitions"
)

// DefaultStatusType is used when no filter is given.
const DefaultStatusType = StatusCrossSellExisting

// StatusTypes returns every filter value.
func StatusTypes() []StatusType {
	return []StatusType{StatusExisting, StatusAllCrossSell, StatusCrossSellExisting, StatusNewAcquisitions}
}

// ParseStatusType matches s exactly after trimming. Empty input yields the
// default.
func ParseStatusType(s string) (StatusType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultStatusType, nil
	}
	for _, st := range StatusTypes() {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatusType, s)
}

// MandateTypes returns the mandate classifications whose performance counts
// as achieved under st.
func (st StatusType) MandateTypes() []model.MandateType {
	switch st {
	case StatusExisting:
		return []model.MandateType{model.MandateExisting}
	case StatusAllCrossSell:
		return []model.MandateType{model.MandateNewCrossSell}
	case StatusCrossSellExisting:
		return []model.MandateType{model.MandateNewCrossSell, model.MandateExisting}
	case StatusNewAcquisitions:
		return []model.MandateType{model.MandateNewAcquisition}
	default:
		return nil
	}
}

// IncludesCrossSellTargets reports whether new_cross_sell targets count
// under st.
func (st StatusType) IncludesCrossSellTargets() bool {
	return st == StatusAllCrossSell || st == StatusCrossSellExisting
}

// Query filters target resolution. Empty fields do not constrain.
type Query struct {
	// Months restricts to these calendar months. Nil means every month.
	Months     []fiscal.Month
	StatusType StatusType
	KamID      string
	// Accounts restricts to targets whose account is in the set.
	Accounts map[string]struct{}
	// LOB restricts to existing-type targets whose mandate carries it.
	// Cross-sell targets have no line of business and are excluded.
	LOB string
}

// Result is the outcome of a resolution.
type Result struct {
	Sum     decimal.Decimal
	Matched int
	// Unresolved counts existing-type targets whose mandate is unknown.
	Unresolved int
	// Malformed counts targets with a missing scope or a scope that does not
	// match their type.
	Malformed int
	// UnresolvedIDs and MalformedIDs list the skipped target ids.
	UnresolvedIDs []string
	MalformedIDs  []string
}

// Resolver resolves targets against a mandate snapshot.
type Resolver struct {
	mandates map[string]model.Mandate
}

// NewResolver indexes mandates by id.
func NewResolver(mandates []model.Mandate) *Resolver {
	return &Resolver{
		mandates: lo.SliceToMap(mandates, func(m model.Mandate) (string, model.Mandate) { return m.ID, m }),
	}
}

// scope is a target's resolved ownership.
type scope struct {
	kamID       string
	accountID   string
	lob         string
	mandateType model.MandateType
	crossSell   bool
}

type outcome uint8

const (
	resolved outcome = iota
	unresolvable
	malformed
)

func (r *Resolver) resolve(t model.TargetRecord) (scope, outcome) {
	switch s := t.Scope.(type) {
	case model.CrossSellScope:
		if t.Type != model.TargetNewCrossSell {
			return scope{}, malformed
		}
		return scope{kamID: s.KamID, accountID: s.AccountID, crossSell: true}, resolved
	case model.ExistingScope:
		if t.Type != model.TargetExisting {
			return scope{}, malformed
		}
		m, ok := r.mandates[s.MandateID]
		if !ok {
			return scope{}, unresolvable
		}
		return scope{kamID: m.KamID, accountID: m.AccountID, lob: m.LOB, mandateType: m.Type}, resolved
	default:
		return scope{}, malformed
	}
}

// Resolve sums the targets matching q.
func (r *Resolver) Resolve(targets []model.TargetRecord, q Query) Result {
	st := q.StatusType
	if st == "" {
		st = DefaultStatusType
	}
	months := lo.SliceToMap(q.Months, func(m fiscal.Month) (fiscal.Month, struct{}) { return m, struct{}{} })
	mandateTypes := st.MandateTypes()

	res := Result{Sum: decimal.Zero}
	for _, t := range targets {
		if q.Months != nil {
			if _, ok := months[fiscal.Month{Year: t.Year, Month: t.Month}]; !ok {
				continue
			}
		}
		sc, out := r.resolve(t)
		switch out {
		case malformed:
			res.Malformed++
			res.MalformedIDs = append(res.MalformedIDs, t.ID)
			continue
		case unresolvable:
			res.Unresolved++
			res.UnresolvedIDs = append(res.UnresolvedIDs, t.ID)
			continue
		}
		if !matchesStatus(sc, st, mandateTypes) {
			continue
		}
		if q.KamID != "" && sc.kamID != q.KamID {
			continue
		}
		if q.Accounts != nil {
			if _, ok := q.Accounts[sc.accountID]; !ok {
				continue
			}
		}
		if q.LOB != "" && (sc.crossSell || sc.lob != q.LOB) {
			continue
		}
		res.Sum = res.Sum.Add(t.Value)
		res.Matched++
	}
	return res
}

func matchesStatus(sc scope, st StatusType, mandateTypes []model.MandateType) bool {
	if sc.crossSell {
		return st.IncludesCrossSellTargets()
	}
	return lo.Contains(mandateTypes, sc.mandateType)
}
