// Package fiscal maps fiscal-year labels, quarters and months onto concrete
// calendar ranges.
//
// A fiscal year runs from 1 April to 31 March. The label FYnn names the year
// that starts on 1 April of 2000+nn.
package fiscal

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Calendar constants.
const (
	labelPrefix     = "FY"
	centuryBase     = 2000
	firstMonth      = time.April
	monthsPerYear   = 12
	monthsPerQtr    = 3
	quartersPerYear = 4
)

// Quarter identifies one of the four fiscal quarters.
type Quarter int

// Fiscal quarters. Q1 = Apr-Jun, Q2 = Jul-Sep, Q3 = Oct-Dec, Q4 = Jan-Mar.
const (
	Q1 Quarter = iota + 1
	Q2
	Q3
	Q4
)

// String returns the quarter label, e.g. "Q3".
func (q Quarter) String() string {
	if q < Q1 || q > Q4 {
		return "Q?"
	}
	return "Q" + strconv.Itoa(int(q))
}

// ParseQuarter accepts "Q1".."Q4" (case-insensitive) or "1".."4".
func ParseQuarter(s string) (Quarter, error) {
	s = strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "Q")
	n, err := strconv.Atoi(s)
	if err != nil || n < int(Q1) || n > int(Q4) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidQuarter, s)
	}
	return Quarter(n), nil
}

// Months returns the three calendar months of the quarter in order.
func (q Quarter) Months() [monthsPerQtr]time.Month {
	start := firstMonth + time.Month((int(q)-1)*monthsPerQtr)
	var out [monthsPerQtr]time.Month
	for i := range out {
		out[i] = wrapMonth(start + time.Month(i))
	}
	return out
}

// QuarterOf returns the fiscal quarter a calendar month belongs to.
func QuarterOf(month time.Month) Quarter {
	offset := (int(month) - int(firstMonth) + monthsPerYear) % monthsPerYear
	return Quarter(offset/monthsPerQtr + 1)
}

// NextQuarter returns the three calendar months of the quarter following the
// one that contains (month, year). The year is incremented only when moving
// from Q3 into Q4, which is where the calendar crosses 31 December while the
// fiscal year stays the same. Q4 -> Q1 keeps the calendar year.
func NextQuarter(month time.Month, year int) [monthsPerQtr]Month {
	cur := QuarterOf(month)
	next := cur%quartersPerYear + 1
	if cur == Q3 {
		year++
	}
	var out [monthsPerQtr]Month
	for i, m := range next.Months() {
		out[i] = Month{Year: year, Month: m}
	}
	return out
}

// Month is a calendar (year, month) pair.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the calendar month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// MonthKey formats a calendar month as "YYYY-MM".
func MonthKey(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}

// ParseMonthKey parses "YYYY-MM".
func ParseMonthKey(s string) (Month, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(s))
	if err != nil {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonthKey, s)
	}
	return MonthOf(t), nil
}

// Key returns the "YYYY-MM" form of m.
func (m Month) Key() string { return MonthKey(m.Year, m.Month) }

// String implements fmt.Stringer.
func (m Month) String() string { return m.Key() }

// Before reports whether m is strictly earlier than o.
func (m Month) Before(o Month) bool {
	if m.Year != o.Year {
		return m.Year < o.Year
	}
	return m.Month < o.Month
}

// Next returns the calendar month after m.
func (m Month) Next() Month {
	if m.Month == time.December {
		return Month{Year: m.Year + 1, Month: time.January}
	}
	return Month{Year: m.Year, Month: m.Month + 1}
}

// Start returns the first instant of the month in loc.
func (m Month) Start(loc *time.Location) time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, loc)
}

// Year is a parsed fiscal year.
type Year struct {
	// StartYear is the calendar year in which the fiscal year begins.
	StartYear int
}

// ParseLabel parses a label of the form FYnn.
func ParseLabel(label string) (Year, error) {
	l := strings.ToUpper(strings.TrimSpace(label))
	if len(l) != len(labelPrefix)+2 || !strings.HasPrefix(l, labelPrefix) {
		return Year{}, fmt.Errorf("%w: %q", ErrInvalidFiscalYear, label)
	}
	nn, err := strconv.Atoi(l[len(labelPrefix):])
	if err != nil || nn < 0 {
		return Year{}, fmt.Errorf("%w: %q", ErrInvalidFiscalYear, label)
	}
	return Year{StartYear: centuryBase + nn}, nil
}

// YearOf returns the fiscal year containing t.
func YearOf(t time.Time) Year {
	if t.Month() >= firstMonth {
		return Year{StartYear: t.Year()}
	}
	return Year{StartYear: t.Year() - 1}
}

// Label returns the FYnn label.
func (y Year) Label() string {
	return fmt.Sprintf("%s%02d", labelPrefix, y.StartYear%100)
}

// String implements fmt.Stringer.
func (y Year) String() string { return y.Label() }

// Range returns the inclusive UTC bounds of the fiscal year: 1 April 00:00
// through 31 March 23:59:59.999 of the following calendar year.
func (y Year) Range() (time.Time, time.Time) {
	return y.RangeIn(time.UTC)
}

// RangeIn returns the inclusive bounds of the fiscal year in loc.
func (y Year) RangeIn(loc *time.Location) (time.Time, time.Time) {
	start := time.Date(y.StartYear, firstMonth, 1, 0, 0, 0, 0, loc)
	end := start.AddDate(1, 0, 0).Add(-time.Millisecond)
	return start, end
}

// Contains reports whether t falls inside the fiscal year (in t's location).
func (y Year) Contains(t time.Time) bool {
	start, end := y.RangeIn(t.Location())
	return !t.Before(start) && !t.After(end)
}

// ContainsMonth reports whether the calendar month belongs to the fiscal year.
func (y Year) ContainsMonth(m Month) bool {
	return YearOf(m.Start(time.UTC)) == y
}

// Months returns the twelve months of the fiscal year in fiscal order.
func (y Year) Months() []Month {
	out := make([]Month, 0, monthsPerYear)
	m := Month{Year: y.StartYear, Month: firstMonth}
	for i := 0; i < monthsPerYear; i++ {
		out = append(out, m)
		m = m.Next()
	}
	return out
}

// QuarterMonths returns the three months of q within the fiscal year, with
// Q4 placed in the following calendar year.
func (y Year) QuarterMonths(q Quarter) []Month {
	all := y.Months()
	start := (int(q) - 1) * monthsPerQtr
	if start < 0 || start+monthsPerQtr > len(all) {
		return nil
	}
	return all[start : start+monthsPerQtr]
}

// MonthOfYear resolves a calendar month number to its (year, month) inside
// the fiscal year: Jan-Mar belong to StartYear+1.
func (y Year) MonthOfYear(month time.Month) Month {
	if month >= firstMonth {
		return Month{Year: y.StartYear, Month: month}
	}
	return Month{Year: y.StartYear + 1, Month: month}
}

// FiscalYearRange is a convenience wrapper around ParseLabel and Range.
func FiscalYearRange(label string) (time.Time, time.Time, error) {
	y, err := ParseLabel(label)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start, end := y.Range()
	return start, end, nil
}

// Months parses label and returns its twelve months in fiscal order.
func Months(label string) ([]Month, error) {
	y, err := ParseLabel(label)
	if err != nil {
		return nil, err
	}
	return y.Months(), nil
}

// CurrentLabel returns the label of the fiscal year containing now.
func CurrentLabel(now time.Time) string {
	return YearOf(now).Label()
}

// QuarterStart returns 00:00 UTC on the first day of q within the fiscal year.
func (y Year) QuarterStart(q Quarter) time.Time {
	months := y.QuarterMonths(q)
	if len(months) == 0 {
		return time.Time{}
	}
	return months[0].Start(time.UTC)
}

func wrapMonth(m time.Month) time.Month {
	return time.Month((int(m)-1)%monthsPerYear + 1)
}
