package reporting

import (
	"time"

	"github.com/clinicdesk/frontdesk/internal/domain/analytics"
	"github.com/clinicdesk/frontdesk/internal/domain/visit"
)

// Table is a report laid out as rows under a header.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]interface{}
}

func (t *Table) add(cells ...interface{}) {
	t.Rows = append(t.Rows, cells)
}

func metricTable() *Table {
	return &Table{Headers: []string{"Metric", "Value"}}
}

func date(t *time.Time) interface{} {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func overviewTable(o *analytics.Overview) *Table {
	t := metricTable()
	t.add("Total patients", o.TotalPatients)
	t.add("Active patients", o.ActivePatients)
	t.add("Active doctors", o.TotalDoctors)
	t.add("Total visits", o.TotalVisits)
	t.add("Total appointments", o.TotalAppointments)
	t.add("Today's visits", o.TodaysVisits)
	t.add("Today's appointments", o.TodaysAppointments)
	t.add("Total revenue", o.TotalRevenue)
	t.add("Pending payments", o.PendingPayments)
	return t
}

func patientFrequencyTable(pf *analytics.PatientFrequency) *Table {
	t := &Table{Headers: []string{"Patient", "Visits", "First Visit", "Last Visit", "Days Since Last Visit", "Inactive"}}
	inactive := make(map[string]bool, len(pf.InactivePatients))
	for _, p := range pf.InactivePatients {
		inactive[p.PatientID.String()] = true
	}
	for _, p := range pf.TopPatients {
		t.add(p.Name, p.VisitCount, date(p.FirstVisit), date(p.LastVisit), p.DaysSinceLastVisit, yesNo(inactive[p.PatientID.String()]))
	}
	for _, p := range pf.InactivePatients {
		if !containsPatient(pf.TopPatients, p) {
			t.add(p.Name, p.VisitCount, date(p.FirstVisit), date(p.LastVisit), p.DaysSinceLastVisit, yesNo(true))
		}
	}
	return t
}

func containsPatient(list []analytics.PatientVisits, p analytics.PatientVisits) bool {
	for _, q := range list {
		if q.PatientID == p.PatientID {
			return true
		}
	}
	return false
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func doctorPerformanceTable(perf []analytics.DoctorPerformance) *Table {
	t := &Table{Headers: []string{"Doctor", "Specialty", "Department", "Visits", "Completed", "Appointments", "Revenue", "Completion %"}}
	for _, d := range perf {
		t.add(d.Name, d.Specialty, d.Department, d.TotalVisits, d.CompletedVisits, d.TotalAppointments, d.TotalRevenue, d.CompletionRate)
	}
	return t
}

func monthlyTrendsTable(trends []analytics.TrendMonth) *Table {
	t := &Table{Headers: []string{"Month", "Visits", "Appointments", "Revenue"}}
	for _, m := range trends {
		t.add(m.Month, m.Visits, m.Appointments, m.Revenue)
	}
	return t
}

func departmentStatsTable(stats []analytics.DepartmentStats) *Table {
	t := &Table{Headers: []string{"Department", "Doctors", "Visits", "Appointments", "Revenue", "Avg Revenue / Visit"}}
	for _, d := range stats {
		t.add(d.Department, d.DoctorCount, d.TotalVisits, d.TotalAppointments, d.TotalRevenue, d.AverageRevenuePerVisit)
	}
	return t
}

func financialTable(fr *analytics.FinancialReport) *Table {
	t := metricTable()
	if fr.Window != nil {
		t.add("From", fr.Window.Start.Format("2006-01-02"))
		t.add("To", fr.Window.End.AddDate(0, 0, -1).Format("2006-01-02"))
	}
	t.add("Total visits", fr.TotalVisits)
	t.add("Total revenue", fr.TotalRevenue)
	t.add("Consultation fees", fr.ConsultationFees)
	t.add("Test fees", fr.TestFees)
	t.add("Pending amount", fr.PendingAmount)
	for _, s := range visit.PaymentStatuses {
		t.add("Payments "+s, fr.PaymentStatusBreakdown[s])
	}
	return t
}

func visitStatsTable(vs *analytics.VisitStats) *Table {
	t := metricTable()
	t.add("Total visits", vs.TotalVisits)
	t.add("Completed", vs.CompletedVisits)
	t.add("In progress", vs.InProgressVisits)
	t.add("Cancelled", vs.CancelledVisits)
	t.add("Today", vs.TodaysVisits)
	for _, m := range vs.MonthlyStats {
		t.add("Visits "+m.Month, m.Visits)
	}
	return t
}
