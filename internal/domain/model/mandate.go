package model

import (
	"github.com/okian/crmpulse/internal/domain/fiscal"
	"github.com/okian/crmpulse/internal/domain/record"
)

// MandateType classifies how a mandate was won.
type MandateType string

// Mandate types.
const (
	MandateNewAcquisition MandateType = "New Acquisition"
	MandateNewCrossSell   MandateType = "New Cross Sell"
	MandateExisting       MandateType = "Existing"
)

// Mandate is a line of business held with an account, with its monthly
// performance entries keyed by calendar month.
type Mandate struct {
	ID          string
	AccountID   string
	KamID       string
	Type        MandateType
	LOB         string
	Performance map[fiscal.Month]record.Entry
}

// Entry returns the performance entry for a month, empty when absent.
func (m Mandate) Entry(month fiscal.Month) record.Entry {
	if e, ok := m.Performance[month]; ok {
		return e
	}
	return record.Empty()
}
