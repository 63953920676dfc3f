package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/frontdesk/internal/domain/identity"
	"github.com/clinicdesk/frontdesk/internal/domain/scheduling"
	"github.com/clinicdesk/frontdesk/internal/domain/visit"
	"github.com/clinicdesk/frontdesk/internal/platform/cache"
	"github.com/clinicdesk/frontdesk/pkg/dateparse"
)

const (
	DefaultInactiveDays = 30
	DefaultTrendMonths  = 12
	topPatientsLimit    = 10
	statsTrendMonths    = 6
)

type Options struct {
	// Location is where report windows are computed. Defaults to time.Local.
	Location *time.Location

	// InactiveDays flags patients whose last visit is older than this.
	InactiveDays int

	Cache    cache.Cache
	CacheTTL time.Duration
}

type Service struct {
	src          Source
	loc          *time.Location
	inactiveDays int
	cache        cache.Cache
	cacheTTL     time.Duration
	logger       zerolog.Logger
	now          func() time.Time
}

func NewService(src Source, opts Options, logger zerolog.Logger) *Service {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.InactiveDays <= 0 {
		opts.InactiveDays = DefaultInactiveDays
	}
	return &Service{
		src:          src,
		loc:          opts.Location,
		inactiveDays: opts.InactiveDays,
		cache:        opts.Cache,
		cacheTTL:     opts.CacheTTL,
		logger:       logger.With().Str("component", "analytics").Logger(),
		now:          time.Now,
	}
}

func (s *Service) clock() time.Time {
	return s.now().In(s.loc)
}

// dayKey scopes a cache key to the current local day, for reports whose
// numbers depend on today.
func (s *Service) dayKey(name string) string {
	return name + ":" + s.clock().Format("2006-01-02")
}

func remember[T any](ctx context.Context, s *Service, key string, fn func(context.Context) (T, error)) (T, error) {
	return cache.Remember(ctx, s.cache, s.logger, key, s.cacheTTL, fn)
}

// -- Overview --

type Overview struct {
	TotalPatients      int     `json:"totalPatients"`
	ActivePatients     int     `json:"activePatients"`
	TotalDoctors       int     `json:"totalDoctors"`
	TotalVisits        int     `json:"totalVisits"`
	TotalAppointments  int     `json:"totalAppointments"`
	TodaysVisits       int     `json:"todaysVisits"`
	TodaysAppointments int     `json:"todaysAppointments"`
	TotalRevenue       float64 `json:"totalRevenue"`
	PendingPayments    int     `json:"pendingPayments"`
}

// Overview counts the whole clinic. TotalDoctors counts active doctors only.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	return remember(ctx, s, s.dayKey("overview"), s.overview)
}

func (s *Service) overview(ctx context.Context) (*Overview, error) {
	today := ResolveWindow(RangeToday, s.clock())
	var (
		o   Overview
		err error
	)
	if o.TotalPatients, err = s.src.CountPatients(ctx, identity.PatientFilter{}); err != nil {
		return nil, fmt.Errorf("count patients: %w", err)
	}
	if o.ActivePatients, err = s.src.CountPatients(ctx, identity.PatientFilter{Status: identity.PatientActive}); err != nil {
		return nil, fmt.Errorf("count active patients: %w", err)
	}
	if o.TotalDoctors, err = s.src.CountDoctors(ctx, identity.DoctorFilter{Status: identity.DoctorActive}); err != nil {
		return nil, fmt.Errorf("count doctors: %w", err)
	}
	if o.TotalAppointments, err = s.src.CountAppointments(ctx, scheduling.Filter{}); err != nil {
		return nil, fmt.Errorf("count appointments: %w", err)
	}
	if o.TodaysAppointments, err = s.src.CountAppointments(ctx, scheduling.Filter{From: &today.Start, To: &today.End}); err != nil {
		return nil, fmt.Errorf("count today's appointments: %w", err)
	}

	visits, err := s.src.Visits(ctx, visit.Filter{})
	if err != nil {
		return nil, fmt.Errorf("load visits: %w", err)
	}
	o.TotalVisits = len(visits)
	o.TodaysVisits = CountBy(visits, func(v *visit.Visit) bool { return today.Contains(v.VisitDate) })
	o.TotalRevenue = SumField(visits, totalAmount)
	o.PendingPayments = CountBy(visits, paymentPending)
	return &o, nil
}

// -- Patient frequency --

type PatientVisits struct {
	PatientID          uuid.UUID  `json:"patientId"`
	Name               string     `json:"name"`
	VisitCount         int        `json:"visitCount"`
	FirstVisit         *time.Time `json:"firstVisit"`
	LastVisit          *time.Time `json:"lastVisit"`
	DaysSinceLastVisit int        `json:"daysSinceLastVisit"`
}

type PatientFrequency struct {
	TopPatients      []PatientVisits `json:"topPatients"`
	InactivePatients []PatientVisits `json:"inactivePatients"`
	TotalPatients    int             `json:"totalPatients"`
}

// PatientFrequency ranks patients by visit count. Patients who never
// visited have zero days since their last visit and are never inactive.
func (s *Service) PatientFrequency(ctx context.Context) (*PatientFrequency, error) {
	return remember(ctx, s, s.dayKey("patient-frequency"), s.patientFrequency)
}

func (s *Service) patientFrequency(ctx context.Context) (*PatientFrequency, error) {
	patients, err := s.src.Patients(ctx, identity.PatientFilter{})
	if err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}
	now := s.clock()

	rows := make([]PatientVisits, 0, len(patients))
	for _, p := range patients {
		row := PatientVisits{
			PatientID:  p.ID,
			Name:       p.Name,
			VisitCount: p.VisitCount,
			FirstVisit: p.FirstVisit,
			LastVisit:  p.LastVisit,
		}
		if p.LastVisit != nil {
			row.DaysSinceLastVisit = DaysSince(*p.LastVisit, now)
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].VisitCount > rows[j].VisitCount })

	top := rows
	if len(top) > topPatientsLimit {
		top = top[:topPatientsLimit]
	}
	inactive := make([]PatientVisits, 0)
	for _, r := range rows {
		if r.DaysSinceLastVisit > s.inactiveDays {
			inactive = append(inactive, r)
		}
	}
	return &PatientFrequency{
		TopPatients:      append([]PatientVisits{}, top...),
		InactivePatients: inactive,
		TotalPatients:    len(patients),
	}, nil
}

// -- Doctor performance --

type DoctorPerformance struct {
	DoctorID          uuid.UUID `json:"doctorId"`
	Name              string    `json:"name"`
	Specialty         string    `json:"specialty"`
	Department        string    `json:"department"`
	TotalVisits       int       `json:"totalVisits"`
	CompletedVisits   int       `json:"completedVisits"`
	TotalAppointments int       `json:"totalAppointments"`
	TotalRevenue      float64   `json:"totalRevenue"`
	CompletionRate    float64   `json:"completionRate"`
}

// DoctorPerformance rolls visits up per active doctor, busiest first. The
// completion rate is not rounded.
func (s *Service) DoctorPerformance(ctx context.Context) ([]DoctorPerformance, error) {
	return remember(ctx, s, "doctor-performance", s.doctorPerformance)
}

func (s *Service) doctorPerformance(ctx context.Context) ([]DoctorPerformance, error) {
	doctors, visits, appts, err := s.activeDoctorsWithActivity(ctx)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*identity.Doctor, len(doctors))
	keys := make([]string, 0, len(doctors))
	for _, d := range doctors {
		byID[d.ID.String()] = d
		keys = append(keys, d.ID.String())
	}
	apptsByDoctor := GroupBy(appts, func(a *scheduling.Appointment) string { return a.DoctorID.String() })

	rollups := PerEntityRollup(visits, keys,
		func(v *visit.Visit) string { return v.DoctorID.String() },
		visitCompleted, totalAmount)

	out := make([]DoctorPerformance, 0, len(rollups))
	for _, r := range rollups {
		d := byID[r.Key]
		out = append(out, DoctorPerformance{
			DoctorID:          d.ID,
			Name:              d.Name,
			Specialty:         d.Specialty,
			Department:        d.Department,
			TotalVisits:       r.Total,
			CompletedVisits:   r.Completed,
			TotalAppointments: len(apptsByDoctor.Get(r.Key)),
			TotalRevenue:      r.Revenue,
			CompletionRate:    r.CompletionRate,
		})
	}
	return out, nil
}

func (s *Service) activeDoctorsWithActivity(ctx context.Context) ([]*identity.Doctor, []*visit.Visit, []*scheduling.Appointment, error) {
	doctors, err := s.src.Doctors(ctx, identity.DoctorFilter{Status: identity.DoctorActive})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load doctors: %w", err)
	}
	visits, err := s.src.Visits(ctx, visit.Filter{})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load visits: %w", err)
	}
	appts, err := s.src.Appointments(ctx, scheduling.Filter{})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load appointments: %w", err)
	}
	// Oldest doctor first so ties in the rollups follow registration order.
	sort.SliceStable(doctors, func(i, j int) bool { return doctors[i].CreatedAt.Before(doctors[j].CreatedAt) })
	return doctors, visits, appts, nil
}

// -- Monthly trends --

type TrendMonth struct {
	Month        string  `json:"month"`
	Visits       int     `json:"visits"`
	Appointments int     `json:"appointments"`
	Revenue      float64 `json:"revenue"`
}

// MonthlyTrends covers the given number of calendar months ending with the
// current one, oldest first. Non-positive months means DefaultTrendMonths.
func (s *Service) MonthlyTrends(ctx context.Context, months int) ([]TrendMonth, error) {
	if months <= 0 {
		months = DefaultTrendMonths
	}
	return remember(ctx, s, s.dayKey(fmt.Sprintf("monthly-trends:%d", months)), func(ctx context.Context) ([]TrendMonth, error) {
		return s.monthlyTrends(ctx, months)
	})
}

func (s *Service) monthlyTrends(ctx context.Context, months int) ([]TrendMonth, error) {
	now := s.clock()
	from := firstOfMonth(now).AddDate(0, -(months - 1), 0)
	to := firstOfMonth(now).AddDate(0, 1, 0)

	visits, err := s.src.Visits(ctx, visit.Filter{From: &from, To: &to})
	if err != nil {
		return nil, fmt.Errorf("load visits: %w", err)
	}
	appts, err := s.src.Appointments(ctx, scheduling.Filter{From: &from, To: &to})
	if err != nil {
		return nil, fmt.Errorf("load appointments: %w", err)
	}

	visitCounts := MonthlyTrend(visits, visitDate, One[*visit.Visit], months, now)
	revenue := MonthlyTrend(visits, visitDate, totalAmount, months, now)
	apptCounts := MonthlyTrend(appts, appointmentDate, One[*scheduling.Appointment], months, now)

	out := make([]TrendMonth, months)
	for i := range out {
		out[i] = TrendMonth{
			Month:        visitCounts[i].Month,
			Visits:       int(visitCounts[i].Value),
			Appointments: int(apptCounts[i].Value),
			Revenue:      revenue[i].Value,
		}
	}
	return out, nil
}

func visitDate(v *visit.Visit) *time.Time { return &v.VisitDate }

func appointmentDate(a *scheduling.Appointment) *time.Time {
	if a.Date.IsZero() {
		return nil
	}
	return &a.Date
}

// -- Department stats --

type DepartmentStats struct {
	Department             string  `json:"department"`
	DoctorCount            int     `json:"doctorCount"`
	TotalVisits            int     `json:"totalVisits"`
	TotalAppointments      int     `json:"totalAppointments"`
	TotalRevenue           float64 `json:"totalRevenue"`
	AverageRevenuePerVisit float64 `json:"averageRevenuePerVisit"`
}

// DepartmentStats groups active doctors by department, alphabetically.
func (s *Service) DepartmentStats(ctx context.Context) ([]DepartmentStats, error) {
	return remember(ctx, s, "department-stats", s.departmentStats)
}

func (s *Service) departmentStats(ctx context.Context) ([]DepartmentStats, error) {
	doctors, visits, appts, err := s.activeDoctorsWithActivity(ctx)
	if err != nil {
		return nil, err
	}

	departments := GroupBy(doctors, func(d *identity.Doctor) string { return d.Department })
	deptOf := make(map[uuid.UUID]string, len(doctors))
	for _, d := range doctors {
		deptOf[d.ID] = d.Department
	}
	keys := departments.SortedKeys()

	visitRollups := PerEntityRollup(visits, keys,
		func(v *visit.Visit) string { return departmentOf(deptOf, v.DoctorID) },
		visitCompleted, totalAmount)
	byDept := make(map[string]Rollup, len(visitRollups))
	for _, r := range visitRollups {
		byDept[r.Key] = r
	}
	apptsByDept := GroupBy(appts, func(a *scheduling.Appointment) string { return departmentOf(deptOf, a.DoctorID) })

	out := make([]DepartmentStats, 0, len(keys))
	for _, dept := range keys {
		r := byDept[dept]
		stats := DepartmentStats{
			Department:        dept,
			DoctorCount:       len(departments.Get(dept)),
			TotalVisits:       r.Total,
			TotalAppointments: len(apptsByDept.Get(dept)),
			TotalRevenue:      r.Revenue,
		}
		if r.Total > 0 {
			stats.AverageRevenuePerVisit = r.Revenue / float64(r.Total)
		}
		out = append(out, stats)
	}
	return out, nil
}

// departmentOf returns "" for doctors outside the active set.
func departmentOf(deptOf map[uuid.UUID]string, doctorID uuid.UUID) string {
	return deptOf[doctorID]
}

// -- Financial report --

type FinancialReport struct {
	Revenue
	TotalVisits int     `json:"totalVisits"`
	Window      *Window `json:"window,omitempty"`
}

// FinancialReport rolls up revenue for visits inside w, or for every visit
// when w is nil.
func (s *Service) FinancialReport(ctx context.Context, w *Window) (*FinancialReport, error) {
	key := "financial:all"
	if w != nil {
		key = fmt.Sprintf("financial:%d:%d", w.Start.Unix(), w.End.Unix())
	}
	return remember(ctx, s, key, func(ctx context.Context) (*FinancialReport, error) {
		var f visit.Filter
		if w != nil {
			f.From, f.To = &w.Start, &w.End
		}
		visits, err := s.src.Visits(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("load visits: %w", err)
		}
		return &FinancialReport{Revenue: RevenueRollup(visits), TotalVisits: len(visits), Window: w}, nil
	})
}

// ReportWindow turns optional inclusive day bounds into a window. Missing
// bounds give nil. Unparseable bounds are logged and give the current month.
func (s *Service) ReportWindow(startDate, endDate string) *Window {
	if startDate == "" || endDate == "" {
		return nil
	}
	start, errStart := dateparse.Parse(startDate, s.loc)
	end, errEnd := dateparse.Parse(endDate, s.loc)
	if errStart != nil || errEnd != nil || end.Before(start) {
		s.logger.Warn().
			Str("start_date", startDate).
			Str("end_date", endDate).
			Msg("invalid report dates, using current month")
		w := ResolveWindow(RangeMonth, s.clock())
		return &w
	}
	w := Window{Start: midnight(start), End: midnight(end).AddDate(0, 0, 1)}
	return &w
}

// -- Unified analytics --

type Demographics struct {
	Male   int `json:"male"`
	Female int `json:"female"`
	Other  int `json:"other"`
}

type AppointmentStats struct {
	Scheduled int `json:"scheduled"`
	Confirmed int `json:"confirmed"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
	NoShow    int `json:"noShow"`
}

type UnifiedAnalytics struct {
	TimeRange             string           `json:"timeRange"`
	Window                Window           `json:"window"`
	TotalPatients         int              `json:"totalPatients"`
	PatientGrowth         int              `json:"patientGrowth"`
	PatientDemographics   Demographics     `json:"patientDemographics"`
	ActiveDoctors         int              `json:"activeDoctors"`
	TotalAppointments     int              `json:"totalAppointments"`
	AppointmentsToday     int              `json:"appointmentsToday"`
	CompletedAppointments int              `json:"completedAppointments"`
	AppointmentStats      AppointmentStats `json:"appointmentStats"`
	CompletionRate        int              `json:"completionRate"`
	CompletionRateGrowth  int              `json:"completionRateGrowth"`
}

// UnifiedAnalytics is the dashboard summary. Only AppointmentsToday is
// bounded by the range window; the other counts cover all records. An
// unknown range name is logged and treated as the current month.
func (s *Service) UnifiedAnalytics(ctx context.Context, timeRange string) (*UnifiedAnalytics, error) {
	if timeRange == "" {
		timeRange = RangeMonth
	}
	if !IsRange(timeRange) {
		s.logger.Warn().Str("time_range", timeRange).Msg("unknown time range, using month")
		timeRange = RangeMonth
	}
	return remember(ctx, s, s.dayKey("unified:"+timeRange), func(ctx context.Context) (*UnifiedAnalytics, error) {
		return s.unifiedAnalytics(ctx, timeRange)
	})
}

func (s *Service) unifiedAnalytics(ctx context.Context, timeRange string) (*UnifiedAnalytics, error) {
	w := ResolveWindow(timeRange, s.clock())

	patients, err := s.src.Patients(ctx, identity.PatientFilter{})
	if err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}
	activeDoctors, err := s.src.CountDoctors(ctx, identity.DoctorFilter{Status: identity.DoctorActive})
	if err != nil {
		return nil, fmt.Errorf("count doctors: %w", err)
	}
	appts, err := s.src.Appointments(ctx, scheduling.Filter{})
	if err != nil {
		return nil, fmt.Errorf("load appointments: %w", err)
	}

	gender := func(g string) func(*identity.Patient) bool {
		return func(p *identity.Patient) bool { return p.Gender != nil && *p.Gender == g }
	}
	status := func(st string) func(*scheduling.Appointment) bool {
		return func(a *scheduling.Appointment) bool { return a.Status == st }
	}
	stats := AppointmentStats{
		Scheduled: CountBy(appts, status(scheduling.StatusScheduled)),
		Confirmed: CountBy(appts, status(scheduling.StatusConfirmed)),
		Completed: CountBy(appts, status(scheduling.StatusCompleted)),
		Cancelled: CountBy(appts, status(scheduling.StatusCancelled)),
		NoShow:    CountBy(appts, status(scheduling.StatusNoShow)),
	}
	rate := CompletionRate(len(appts), stats.Completed)

	return &UnifiedAnalytics{
		TimeRange:     timeRange,
		Window:        w,
		TotalPatients: len(patients),
		PatientGrowth: len(patients),
		PatientDemographics: Demographics{
			Male:   CountBy(patients, gender("male")),
			Female: CountBy(patients, gender("female")),
			Other:  CountBy(patients, gender("other")),
		},
		ActiveDoctors:         activeDoctors,
		TotalAppointments:     len(appts),
		AppointmentsToday:     CountBy(appts, func(a *scheduling.Appointment) bool { return w.ContainsPtr(appointmentDate(a)) }),
		CompletedAppointments: stats.Completed,
		AppointmentStats:      stats,
		CompletionRate:        rate,
		CompletionRateGrowth:  rate,
	}, nil
}

// -- Visit stats --

type MonthlyVisits struct {
	Month  string `json:"month"`
	Visits int    `json:"visits"`
}

type VisitStats struct {
	TotalVisits      int             `json:"totalVisits"`
	CompletedVisits  int             `json:"completedVisits"`
	InProgressVisits int             `json:"inProgressVisits"`
	CancelledVisits  int             `json:"cancelledVisits"`
	TodaysVisits     int             `json:"todaysVisits"`
	MonthlyStats     []MonthlyVisits `json:"monthlyStats"`
}

func (s *Service) VisitStats(ctx context.Context) (*VisitStats, error) {
	return remember(ctx, s, s.dayKey("visit-stats"), s.visitStats)
}

func (s *Service) visitStats(ctx context.Context) (*VisitStats, error) {
	visits, err := s.src.Visits(ctx, visit.Filter{})
	if err != nil {
		return nil, fmt.Errorf("load visits: %w", err)
	}
	now := s.clock()
	today := ResolveWindow(RangeToday, now)
	status := func(st string) func(*visit.Visit) bool {
		return func(v *visit.Visit) bool { return v.Status == st }
	}

	trend := MonthlyTrend(visits, visitDate, One[*visit.Visit], statsTrendMonths, now)
	monthly := make([]MonthlyVisits, len(trend))
	for i, p := range trend {
		monthly[i] = MonthlyVisits{Month: p.Month, Visits: int(p.Value)}
	}
	return &VisitStats{
		TotalVisits:      len(visits),
		CompletedVisits:  CountBy(visits, status(visit.StatusCompleted)),
		InProgressVisits: CountBy(visits, status(visit.StatusInProgress)),
		CancelledVisits:  CountBy(visits, status(visit.StatusCancelled)),
		TodaysVisits:     CountBy(visits, func(v *visit.Visit) bool { return today.Contains(v.VisitDate) }),
		MonthlyStats:     monthly,
	}, nil
}

// -- Doctor stats --

type MonthlyTreatments struct {
	Month      string `json:"month"`
	Treatments int    `json:"treatments"`
}

type DoctorStats struct {
	DoctorID          uuid.UUID           `json:"doctorId"`
	TotalPatients     int                 `json:"totalPatients"`
	TotalAppointments int                 `json:"totalAppointments"`
	TotalTreatments   int                 `json:"totalTreatments"`
	MonthlyStats      []MonthlyTreatments `json:"monthlyStats"`
}

// DoctorStats counts the patients a doctor treated and the treatments they
// recorded. A missing doctor is reported as not found.
func (s *Service) DoctorStats(ctx context.Context, doctorID uuid.UUID) (*DoctorStats, error) {
	if _, err := s.src.Doctor(ctx, doctorID); err != nil {
		return nil, fmt.Errorf("load doctor: %w", err)
	}
	patients, err := s.src.Patients(ctx, identity.PatientFilter{TreatedBy: &doctorID})
	if err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}
	appts, err := s.src.CountAppointments(ctx, scheduling.Filter{DoctorID: &doctorID})
	if err != nil {
		return nil, fmt.Errorf("count appointments: %w", err)
	}

	var treatments []identity.Treatment
	for _, p := range patients {
		for _, t := range p.TreatedBy {
			if t.DoctorID == doctorID {
				treatments = append(treatments, t)
			}
		}
	}
	trend := MonthlyTrend(treatments,
		func(t identity.Treatment) *time.Time {
			if t.TreatmentDate.IsZero() {
				return nil
			}
			return &t.TreatmentDate
		},
		One[identity.Treatment], statsTrendMonths, s.clock())
	monthly := make([]MonthlyTreatments, len(trend))
	for i, p := range trend {
		monthly[i] = MonthlyTreatments{Month: p.Month, Treatments: int(p.Value)}
	}
	return &DoctorStats{
		DoctorID:          doctorID,
		TotalPatients:     len(patients),
		TotalAppointments: appts,
		TotalTreatments:   len(treatments),
		MonthlyStats:      monthly,
	}, nil
}
