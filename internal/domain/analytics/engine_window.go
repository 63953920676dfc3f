// Package analytics computes the clinic's read-only reports. The engine_*
// files are pure reducers over record snapshots; service.go fetches the
// snapshots and shapes the results.
package analytics

import "time"

// Range names accepted by ResolveWindow.
const (
	RangeToday     = "today"
	RangeYesterday = "yesterday"
	RangeTomorrow  = "tomorrow"
	RangeWeek      = "week"
	RangeMonth     = "month"
	RangeQuarter   = "quarter"
	RangeYear      = "year"
)

var rangeNames = map[string]bool{
	RangeToday: true, RangeYesterday: true, RangeTomorrow: true,
	RangeWeek: true, RangeMonth: true, RangeQuarter: true, RangeYear: true,
}

// IsRange reports whether name is a known range name.
func IsRange(name string) bool {
	return rangeNames[name]
}

// Window is the half-open interval [Start, End).
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// ContainsPtr is Contains for optional dates. A nil date is never inside.
func (w Window) ContainsPtr(t *time.Time) bool {
	return t != nil && w.Contains(*t)
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func firstOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

// ResolveWindow maps a range name onto calendar boundaries in now's
// location. Unknown names resolve to the current month.
func ResolveWindow(name string, now time.Time) Window {
	day := midnight(now)
	y, m, _ := now.Date()
	loc := now.Location()

	switch name {
	case RangeToday:
		return Window{day, day.AddDate(0, 0, 1)}
	case RangeYesterday:
		return Window{day.AddDate(0, 0, -1), day}
	case RangeTomorrow:
		return Window{day.AddDate(0, 0, 1), day.AddDate(0, 0, 2)}
	case RangeWeek:
		return Window{day.AddDate(0, 0, -6), day.AddDate(0, 0, 1)}
	case RangeQuarter:
		start := time.Date(y, m-(m-1)%3, 1, 0, 0, 0, 0, loc)
		return Window{start, start.AddDate(0, 3, 0)}
	case RangeYear:
		start := time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
		return Window{start, start.AddDate(1, 0, 0)}
	default:
		start := firstOfMonth(now)
		return Window{start, start.AddDate(0, 1, 0)}
	}
}

// DaysSince counts whole days from ts to now, rounding down.
func DaysSince(ts, now time.Time) int {
	d := now.Sub(ts)
	days := int(d / (24 * time.Hour))
	if d < 0 && d%(24*time.Hour) != 0 {
		days--
	}
	return days
}
