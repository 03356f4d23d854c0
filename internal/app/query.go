package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/okian/crmpulse/internal/domain/fiscal"
	"github.com/okian/crmpulse/internal/domain/target"
	"github.com/okian/crmpulse/internal/domain/types"
)

// Record kinds used when counting skipped records.
const (
	recordPerformance = "performance"
	recordTarget      = "target"
	recordEvent       = "status_event"
)

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidQuery, err)
}

// parseYear resolves a label, defaulting to the fiscal year containing now.
func parseYear(label string, now time.Time) (fiscal.Year, error) {
	if strings.TrimSpace(label) == "" {
		return fiscal.YearOf(now), nil
	}
	fy, err := fiscal.ParseLabel(label)
	if err != nil {
		return fiscal.Year{}, invalid(err)
	}
	return fy, nil
}

func parseStatus(s string) (target.StatusType, error) {
	st, err := target.ParseStatusType(s)
	if err != nil {
		return "", invalid(err)
	}
	return st, nil
}

func parseCloseMonth(s string) (*fiscal.Month, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	m, err := fiscal.ParseMonthKey(s)
	if err != nil {
		return nil, invalid(err)
	}
	return &m, nil
}

// periodMonths resolves the months a summary covers. An empty period is
// annual. A month is either a calendar month number or a YYYY-MM key that
// must fall inside fy.
func periodMonths(fy fiscal.Year, q types.SummaryQuery) (types.Period, []fiscal.Month, error) {
	period := types.Period(strings.ToLower(strings.TrimSpace(string(q.Period))))
	switch period {
	case "", types.PeriodAnnual:
		return types.PeriodAnnual, fy.Months(), nil
	case types.PeriodQuarter:
		qtr, err := fiscal.ParseQuarter(q.Quarter)
		if err != nil {
			return "", nil, invalid(err)
		}
		return period, fy.QuarterMonths(qtr), nil
	case types.PeriodMonth:
		m, err := parseMonth(fy, q.Month)
		if err != nil {
			return "", nil, err
		}
		return period, []fiscal.Month{m}, nil
	default:
		return "", nil, fmt.Errorf("%w: unknown period %q", ErrInvalidQuery, q.Period)
	}
}

func parseMonth(fy fiscal.Year, s string) (fiscal.Month, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n < 1 || n > 12 {
			return fiscal.Month{}, fmt.Errorf("%w: month %d out of range", ErrInvalidQuery, n)
		}
		return fy.MonthOfYear(time.Month(n)), nil
	}
	m, err := fiscal.ParseMonthKey(s)
	if err != nil {
		return fiscal.Month{}, invalid(err)
	}
	if !fy.ContainsMonth(m) {
		return fiscal.Month{}, fmt.Errorf("%w: month %s is outside %s", ErrInvalidQuery, m, fy)
	}
	return m, nil
}

func monthKeys(months []fiscal.Month) []string {
	out := make([]string, len(months))
	for i, m := range months {
		out[i] = m.Key()
	}
	return out
}
