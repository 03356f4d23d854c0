package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TargetType distinguishes the two ways targets are recorded.
type TargetType string

// Target types.
const (
	TargetNewCrossSell TargetType = "new_cross_sell"
	TargetExisting     TargetType = "existing"
)

// TargetScope is the single scope a target applies to: CrossSellScope or
// ExistingScope.
type TargetScope interface {
	isTargetScope()
}

// CrossSellScope scopes a target to a KAM and account directly.
type CrossSellScope struct {
	KamID     string
	AccountID string
}

// ExistingScope scopes a target to a mandate; the KAM is the mandate's.
type ExistingScope struct {
	MandateID string
}

func (CrossSellScope) isTargetScope() {}
func (ExistingScope) isTargetScope()  {}

// NewTargetScope builds the scope variant from the three nullable reference
// columns. Exactly one shape must be populated.
func NewTargetScope(kamID, accountID, mandateID string) (TargetScope, error) {
	kamID, accountID, mandateID = strings.TrimSpace(kamID), strings.TrimSpace(accountID), strings.TrimSpace(mandateID)
	crossSell := kamID != "" || accountID != ""
	existing := mandateID != ""
	switch {
	case crossSell && existing:
		return nil, fmt.Errorf("%w: both kam/account and mandate set", ErrInvalidScope)
	case existing:
		return ExistingScope{MandateID: mandateID}, nil
	case kamID != "" && accountID != "":
		return CrossSellScope{KamID: kamID, AccountID: accountID}, nil
	case crossSell:
		return nil, fmt.Errorf("%w: cross-sell scope needs both kam and account", ErrInvalidScope)
	default:
		return nil, fmt.Errorf("%w: no scope reference", ErrInvalidScope)
	}
}

// TargetRecord is a planned value for one month and scope.
type TargetRecord struct {
	ID         string
	Type       TargetType
	Month      time.Month
	Year       int
	FiscalYear string
	Value      decimal.Decimal
	Scope      TargetScope
}
