package analytics

import (
	"math"
	"sort"
	"time"
)

// CountBy counts the records satisfying keep.
func CountBy[T any](records []T, keep func(T) bool) int {
	n := 0
	for _, r := range records {
		if keep(r) {
			n++
		}
	}
	return n
}

// SumField adds up value over records. Non-finite values are skipped.
func SumField[T any](records []T, value func(T) float64) float64 {
	var sum float64
	for _, r := range records {
		v := value(r)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		sum += v
	}
	return sum
}

// Groups partitions records by key, remembering the order in which keys
// first appeared.
type Groups[T any] struct {
	keys    []string
	members map[string][]T
}

func GroupBy[T any](records []T, key func(T) string) *Groups[T] {
	g := &Groups[T]{members: make(map[string][]T)}
	for _, r := range records {
		k := key(r)
		if _, ok := g.members[k]; !ok {
			g.keys = append(g.keys, k)
		}
		g.members[k] = append(g.members[k], r)
	}
	return g
}

// Keys returns keys in first-occurrence order.
func (g *Groups[T]) Keys() []string {
	return append([]string(nil), g.keys...)
}

// SortedKeys returns keys in alphabetical order.
func (g *Groups[T]) SortedKeys() []string {
	keys := g.Keys()
	sort.Strings(keys)
	return keys
}

func (g *Groups[T]) Get(key string) []T {
	return g.members[key]
}

func (g *Groups[T]) Len() int {
	return len(g.keys)
}

// CompletionRate is the rounded completed share as a whole percentage.
// Halves round away from zero. Zero total gives 0.
func CompletionRate(total, completed int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}

// percentage is the unrounded form used by the per-entity rollups.
func percentage(total, completed int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(completed) / float64(total) * 100
}

// TrendPoint is one calendar month of a MonthlyTrend.
type TrendPoint struct {
	Month string    `json:"month"`
	Start time.Time `json:"start"`
	Value float64   `json:"value"`
}

// MonthLabel formats a month the way the reports show it, e.g. "Mar 2024".
func MonthLabel(t time.Time) string {
	return t.Format("Jan 2006")
}

// MonthlyTrend buckets records into the monthCount calendar months ending
// with now's month, oldest first. Each bucket sums value over the records
// whose date falls in [first of month, first of next month). Records with
// no date are left out and empty months stay at zero.
func MonthlyTrend[T any](records []T, date func(T) *time.Time, value func(T) float64, monthCount int, now time.Time) []TrendPoint {
	if monthCount <= 0 {
		return []TrendPoint{}
	}
	first := firstOfMonth(now).AddDate(0, -(monthCount - 1), 0)
	points := make([]TrendPoint, monthCount)
	for i := range points {
		start := first.AddDate(0, i, 0)
		points[i] = TrendPoint{Month: MonthLabel(start), Start: start}
	}
	end := first.AddDate(0, monthCount, 0)

	for _, r := range records {
		d := date(r)
		if d == nil || d.Before(first) || !d.Before(end) {
			continue
		}
		in := d.In(now.Location())
		idx := (in.Year()-first.Year())*12 + int(in.Month()-first.Month())
		if idx < 0 || idx >= monthCount {
			continue
		}
		v := value(r)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		points[idx].Value += v
	}
	return points
}

// One counts a record once. Pass it as the value of MonthlyTrend to count.
func One[T any](T) float64 { return 1 }
