package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/frontdesk/internal/domain/visit"
)

var fixedNow = time.Date(2024, time.May, 15, 14, 30, 0, 0, time.UTC)

func TestResolveWindow(t *testing.T) {
	day := 24 * time.Hour
	tests := []struct {
		name  string
		start time.Time
		span  time.Duration
	}{
		{RangeToday, time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC), day},
		{RangeYesterday, time.Date(2024, 5, 14, 0, 0, 0, 0, time.UTC), day},
		{RangeTomorrow, time.Date(2024, 5, 16, 0, 0, 0, 0, time.UTC), day},
		{RangeWeek, time.Date(2024, 5, 9, 0, 0, 0, 0, time.UTC), 7 * day},
		{RangeMonth, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), 31 * day},
		{RangeQuarter, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), 91 * day},
		{RangeYear, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 366 * day},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ResolveWindow(tt.name, fixedNow)
			assert.True(t, w.End.After(w.Start))
			assert.Equal(t, tt.start, w.Start)
			assert.Equal(t, tt.span, w.End.Sub(w.Start))
			if tt.name != RangeYesterday && tt.name != RangeTomorrow {
				assert.True(t, w.Contains(fixedNow))
			}
		})
	}
}

func TestResolveWindow_UnknownFallsBackToMonth(t *testing.T) {
	assert.Equal(t, ResolveWindow(RangeMonth, fixedNow), ResolveWindow("fortnight", fixedNow))
	assert.False(t, IsRange("fortnight"))
}

func TestResolveWindow_QuarterBoundaries(t *testing.T) {
	for month, want := range map[time.Month]time.Month{
		time.January: time.January, time.March: time.January,
		time.April: time.April, time.September: time.July, time.December: time.October,
	} {
		now := time.Date(2023, month, 10, 8, 0, 0, 0, time.UTC)
		w := ResolveWindow(RangeQuarter, now)
		assert.Equal(t, want, w.Start.Month(), "month %s", month)
		assert.Equal(t, w.Start.AddDate(0, 3, 0), w.End)
	}
}

func TestResolveWindow_DecemberRollsYear(t *testing.T) {
	now := time.Date(2023, time.December, 31, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), ResolveWindow(RangeMonth, now).End)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), ResolveWindow(RangeTomorrow, now).End)
}

func TestResolveWindow_UsesNowLocation(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	now := time.Date(2024, 5, 15, 1, 0, 0, 0, loc)
	w := ResolveWindow(RangeToday, now)
	assert.Equal(t, time.Date(2024, 5, 15, 0, 0, 0, 0, loc), w.Start)
}

func TestWindow_ContainsIsHalfOpen(t *testing.T) {
	w := ResolveWindow(RangeToday, fixedNow)
	assert.True(t, w.Contains(w.Start))
	assert.False(t, w.Contains(w.End))
	assert.False(t, w.ContainsPtr(nil))
}

func TestEmptyInputs(t *testing.T) {
	assert.Equal(t, 0.0, SumField([]*visit.Visit{}, totalAmount))
	assert.Equal(t, 0.0, SumField[*visit.Visit](nil, totalAmount))
	assert.Equal(t, 0, CountBy([]int{}, func(int) bool { return true }))
	assert.Equal(t, 0, CountBy[int](nil, func(int) bool { return false }))
}

func TestSumField_SkipsNonFinite(t *testing.T) {
	sum := SumField([]float64{1, math.NaN(), 2, math.Inf(1)}, func(v float64) float64 { return v })
	assert.Equal(t, 3.0, sum)
}

func TestCompletionRate(t *testing.T) {
	assert.Equal(t, 0, CompletionRate(0, 0))
	assert.Equal(t, 50, CompletionRate(10, 5))
	assert.Equal(t, 33, CompletionRate(3, 1))
	assert.Equal(t, 67, CompletionRate(3, 2))
	assert.Equal(t, 13, CompletionRate(8, 1), "12.5 rounds away from zero")
	assert.Equal(t, 100, CompletionRate(4, 4))
}

func TestGroupBy_Order(t *testing.T) {
	g := GroupBy([]string{"cardio", "ortho", "cardio", "derm"}, func(s string) string { return s })
	assert.Equal(t, []string{"cardio", "ortho", "derm"}, g.Keys())
	assert.Equal(t, []string{"cardio", "derm", "ortho"}, g.SortedKeys())
	assert.Len(t, g.Get("cardio"), 2)
	assert.Equal(t, 3, g.Len())
	assert.Empty(t, g.Get("neuro"))
}

func ptr(t time.Time) *time.Time { return &t }

func TestMonthlyTrend(t *testing.T) {
	dates := []*time.Time{
		ptr(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)),
		ptr(time.Date(2024, 5, 31, 23, 59, 0, 0, time.UTC)),
		ptr(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)),
		ptr(time.Date(2023, 11, 30, 0, 0, 0, 0, time.UTC)),
		ptr(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)),
		nil,
	}
	trend := MonthlyTrend(dates, func(d *time.Time) *time.Time { return d }, One[*time.Time], 6, fixedNow)

	require.Len(t, trend, 6)
	labels := make([]string, len(trend))
	values := make([]float64, len(trend))
	for i, p := range trend {
		labels[i], values[i] = p.Month, p.Value
		if i > 0 {
			assert.True(t, p.Start.After(trend[i-1].Start))
		}
	}
	assert.Equal(t, []string{"Dec 2023", "Jan 2024", "Feb 2024", "Mar 2024", "Apr 2024", "May 2024"}, labels)
	assert.Equal(t, []float64{0, 0, 0, 1, 0, 2}, values)
}

func TestMonthlyTrend_AlwaysFull(t *testing.T) {
	for _, n := range []int{1, 6, 12, 24} {
		trend := MonthlyTrend([]*time.Time{}, func(d *time.Time) *time.Time { return d }, One[*time.Time], n, fixedNow)
		assert.Len(t, trend, n)
	}
	assert.Empty(t, MonthlyTrend([]*time.Time{}, func(d *time.Time) *time.Time { return d }, One[*time.Time], 0, fixedNow))
}

func TestMonthlyTrend_SumsValues(t *testing.T) {
	visits := []*visit.Visit{
		{VisitDate: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), TotalAmount: 120},
		{VisitDate: time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC), TotalAmount: 30},
		{VisitDate: time.Date(2024, 4, 3, 0, 0, 0, 0, time.UTC), TotalAmount: 200},
	}
	trend := MonthlyTrend(visits, visitDate, totalAmount, 2, fixedNow)
	require.Len(t, trend, 2)
	assert.Equal(t, 200.0, trend[0].Value)
	assert.Equal(t, 150.0, trend[1].Value)
}

func TestRevenueRollup(t *testing.T) {
	visits := []*visit.Visit{
		{ConsultationFee: 100, TestFees: 50, PaymentStatus: visit.PaymentPending},
		{ConsultationFee: 80, TestFees: 0, PaymentStatus: visit.PaymentPaid},
		{ConsultationFee: 40, TestFees: 10, PaymentStatus: visit.PaymentPending},
	}
	for _, v := range visits {
		v.Normalize()
	}
	r := RevenueRollup(visits)

	assert.Equal(t, 280.0, r.TotalRevenue)
	assert.Equal(t, SumField(visits, func(v *visit.Visit) float64 { return v.ConsultationFee + v.TestFees }), r.TotalRevenue)
	assert.Equal(t, 220.0, r.ConsultationFees)
	assert.Equal(t, 60.0, r.TestFees)
	assert.Equal(t, 200.0, r.PendingAmount)
	assert.Equal(t, map[string]int{"paid": 1, "pending": 2, "partial": 0}, r.PaymentStatusBreakdown)
}

func TestRevenueRollup_SingleVisit(t *testing.T) {
	v := &visit.Visit{ConsultationFee: 100, TestFees: 50}
	v.Normalize()
	assert.Equal(t, 150.0, RevenueRollup([]*visit.Visit{v}).TotalRevenue)
}

func TestRevenueRollup_Empty(t *testing.T) {
	r := RevenueRollup(nil)
	assert.Zero(t, r.TotalRevenue)
	assert.Zero(t, r.PendingAmount)
	assert.Len(t, r.PaymentStatusBreakdown, 3)
}

type rec struct {
	group string
	done  bool
	fee   float64
}

func TestPerEntityRollup(t *testing.T) {
	records := []rec{
		{"b", true, 10}, {"b", false, 20}, {"c", true, 5},
		{"a", true, 1}, {"b", true, 30}, {"a", false, 2}, {"zz", true, 99},
	}
	out := PerEntityRollup(records, []string{"a", "b", "c", "d"},
		func(r rec) string { return r.group },
		func(r rec) bool { return r.done },
		func(r rec) float64 { return r.fee })

	require.Len(t, out, 4)
	assert.Equal(t, []string{"b", "a", "c", "d"}, []string{out[0].Key, out[1].Key, out[2].Key, out[3].Key})
	assert.Equal(t, 3, out[0].Total)
	assert.Equal(t, 2, out[0].Completed)
	assert.Equal(t, 60.0, out[0].Revenue)
	assert.InDelta(t, 66.6667, out[0].CompletionRate, 0.001, "not rounded")
	assert.Equal(t, 50.0, out[1].CompletionRate)
	assert.Equal(t, Rollup{Key: "d"}, out[3])
}

func TestPerEntityRollup_TiesKeepGroupOrder(t *testing.T) {
	records := []rec{{"y", true, 1}, {"x", true, 1}}
	out := PerEntityRollup(records, []string{"x", "y"},
		func(r rec) string { return r.group },
		func(r rec) bool { return r.done },
		func(r rec) float64 { return r.fee })
	assert.Equal(t, "x", out[0].Key)
	assert.Equal(t, "y", out[1].Key)
}

func TestDaysSince(t *testing.T) {
	assert.Equal(t, 0, DaysSince(fixedNow, fixedNow))
	assert.Equal(t, 0, DaysSince(fixedNow.Add(-23*time.Hour), fixedNow))
	assert.Equal(t, 1, DaysSince(fixedNow.Add(-25*time.Hour), fixedNow))
	assert.Equal(t, 31, DaysSince(fixedNow.AddDate(0, 0, -31), fixedNow))
	assert.Equal(t, -1, DaysSince(fixedNow.Add(time.Hour), fixedNow))
}
