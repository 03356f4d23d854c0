package fiscal

import "time"

const daysPerWeek = 7

// Window is an inclusive time range.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t lies inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Empty reports whether the window holds no instant.
func (w Window) Empty() bool { return w.End.Before(w.Start) }

// WeekOf returns the ISO week (Monday 00:00 through Sunday 23:59:59.999)
// containing t, in t's location.
func WeekOf(t time.Time) Window {
	// time.Weekday is Sunday=0; shift so Monday=0.
	offset := (int(t.Weekday()) + daysPerWeek - 1) % daysPerWeek
	y, m, d := t.Date()
	start := time.Date(y, m, d-offset, 0, 0, 0, 0, t.Location())
	end := start.AddDate(0, 0, daysPerWeek).Add(-time.Millisecond)
	return Window{Start: start, End: end}
}

// Clip truncates w to the fiscal year's range. The returned flag is false
// when the two do not overlap.
func (y Year) Clip(w Window) (Window, bool) {
	start, end := y.RangeIn(w.Start.Location())
	if w.Start.Before(start) {
		w.Start = start
	}
	if w.End.After(end) {
		w.End = end
	}
	if w.Empty() {
		return Window{}, false
	}
	return w, true
}

// ThisWeek returns the week containing now, clipped to the fiscal year.
func (y Year) ThisWeek(now time.Time) (Window, bool) {
	return y.Clip(WeekOf(now))
}

// LastWeek returns the week before the one containing now, clipped to the
// fiscal year.
func (y Year) LastWeek(now time.Time) (Window, bool) {
	return y.Clip(WeekOf(now.AddDate(0, 0, -daysPerWeek)))
}
