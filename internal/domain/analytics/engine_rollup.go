package analytics

import (
	"sort"

	"github.com/clinicdesk/frontdesk/internal/domain/visit"
)

// Revenue is the money side of a set of visits.
type Revenue struct {
	TotalRevenue           float64        `json:"totalRevenue"`
	ConsultationFees       float64        `json:"consultationFees"`
	TestFees               float64        `json:"testFees"`
	PaymentStatusBreakdown map[string]int `json:"paymentStatusBreakdown"`
	PendingAmount          float64        `json:"pendingAmount"`
}

func totalAmount(v *visit.Visit) float64 { return v.TotalAmount }
func consultationFee(v *visit.Visit) float64 { return v.ConsultationFee }
func testFees(v *visit.Visit) float64 { return v.TestFees }
func visitCompleted(v *visit.Visit) bool { return v.Status == visit.StatusCompleted }
func paymentPending(v *visit.Visit) bool { return v.PaymentStatus == visit.PaymentPending }

// RevenueRollup sums the fees of visits. Every payment status appears in the
// breakdown, with zero when no visit has it.
func RevenueRollup(visits []*visit.Visit) Revenue {
	breakdown := make(map[string]int, len(visit.PaymentStatuses))
	for _, s := range visit.PaymentStatuses {
		status := s
		breakdown[status] = CountBy(visits, func(v *visit.Visit) bool { return v.PaymentStatus == status })
	}
	pending := make([]*visit.Visit, 0)
	for _, v := range visits {
		if paymentPending(v) {
			pending = append(pending, v)
		}
	}
	return Revenue{
		TotalRevenue:           SumField(visits, totalAmount),
		ConsultationFees:       SumField(visits, consultationFee),
		TestFees:               SumField(visits, testFees),
		PaymentStatusBreakdown: breakdown,
		PendingAmount:          SumField(pending, totalAmount),
	}
}

// Rollup summarises the records of one group.
type Rollup struct {
	Key            string  `json:"key"`
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	Revenue        float64 `json:"revenue"`
	CompletionRate float64 `json:"completionRate"`
}

// PerEntityRollup rolls records up per group. Groups with no records are
// kept with zeros, records whose key names no group are ignored. The result
// is ordered by Total descending; equal totals keep the order of groups.
// CompletionRate here is not rounded.
func PerEntityRollup[T any](records []T, groups []string, key func(T) string, completed func(T) bool, amount func(T) float64) []Rollup {
	byKey := GroupBy(records, key)
	out := make([]Rollup, 0, len(groups))
	for _, g := range groups {
		members := byKey.Get(g)
		done := CountBy(members, completed)
		out = append(out, Rollup{
			Key:            g,
			Total:          len(members),
			Completed:      done,
			Revenue:        SumField(members, amount),
			CompletionRate: percentage(len(members), done),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	return out
}
