// Package reporting exposes the analytics reports as a catalogue that can be
// fetched as JSON or exported as XLSX workbooks.
package reporting

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/frontdesk/internal/domain/analytics"
	"github.com/clinicdesk/frontdesk/internal/platform/apperr"
	"github.com/clinicdesk/frontdesk/internal/platform/auth"
)

// ReportDefinition describes one entry of the catalogue.
type ReportDefinition struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Parameters  []string `json:"parameters"`
}

// Report is the JSON form of an evaluated report.
type Report struct {
	ReportID    string            `json:"reportId"`
	ReportName  string            `json:"reportName"`
	GeneratedAt time.Time         `json:"generatedAt"`
	Parameters  map[string]string `json:"parameters,omitempty"`
	Data        interface{}       `json:"data"`
}

// Catalogue lists the available reports.
var Catalogue = []ReportDefinition{
	{
		ID:          "overview",
		Name:        "Clinic Overview",
		Description: "Patient, doctor, visit and appointment totals with today's activity and revenue",
		Parameters:  []string{},
	},
	{
		ID:          "patient-frequency",
		Name:        "Patient Visit Frequency",
		Description: "Most frequent patients and patients with no recent visit",
		Parameters:  []string{},
	},
	{
		ID:          "doctor-performance",
		Name:        "Doctor Performance",
		Description: "Visits, appointments, revenue and completion rate per active doctor",
		Parameters:  []string{},
	},
	{
		ID:          "monthly-trends",
		Name:        "Monthly Trends",
		Description: "Visits, appointments and revenue per calendar month",
		Parameters:  []string{"months"},
	},
	{
		ID:          "department-stats",
		Name:        "Department Statistics",
		Description: "Doctors, visits, appointments and revenue per department",
		Parameters:  []string{},
	},
	{
		ID:          "financial-report",
		Name:        "Financial Report",
		Description: "Revenue, fees and payment status breakdown, optionally between two dates",
		Parameters:  []string{"startDate", "endDate"},
	},
	{
		ID:          "visit-stats",
		Name:        "Visit Statistics",
		Description: "Visits by status, today's visits and the last six months",
		Parameters:  []string{},
	},
}

// FindReport looks up a catalogue entry by ID.
func FindReport(id string) *ReportDefinition {
	for i := range Catalogue {
		if Catalogue[i].ID == id {
			return &Catalogue[i]
		}
	}
	return nil
}

// Handler provides HTTP handlers for the reporting API.
type Handler struct {
	svc *analytics.Service
	now func() time.Time
}

func NewHandler(svc *analytics.Service) *Handler {
	return &Handler{svc: svc, now: time.Now}
}

// RegisterRoutes registers the reporting API routes.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/reports", auth.RequireRole(auth.RoleDoctor, auth.RoleReceptionist))
	g.GET("", h.ListReports)
	g.GET("/:id", h.EvaluateReport)
	g.GET("/:id/export", h.ExportReport)
}

func (h *Handler) ListReports(c echo.Context) error {
	return c.JSON(http.StatusOK, Catalogue)
}

// EvaluateReport returns the report's data as JSON.
func (h *Handler) EvaluateReport(c echo.Context) error {
	def, params, err := h.lookup(c)
	if err != nil {
		return err
	}
	data, _, err := h.build(c.Request().Context(), def.ID, params)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, Report{
		ReportID:    def.ID,
		ReportName:  def.Name,
		GeneratedAt: h.now(),
		Parameters:  params,
		Data:        data,
	})
}

// ExportReport streams the report as an XLSX workbook.
func (h *Handler) ExportReport(c echo.Context) error {
	def, params, err := h.lookup(c)
	if err != nil {
		return err
	}
	_, table, err := h.build(c.Request().Context(), def.ID, params)
	if err != nil {
		return apperr.HTTP(err)
	}
	table.Title = def.Name
	raw, err := WriteXLSX(table)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("export failed: %v", err))
	}
	filename := fmt.Sprintf("%s-%s.xlsx", def.ID, h.now().Format("20060102"))
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename="+filename)
	return c.Blob(http.StatusOK, MIMEXLSX, raw)
}

func (h *Handler) lookup(c echo.Context) (*ReportDefinition, map[string]string, error) {
	def := FindReport(c.Param("id"))
	if def == nil {
		return nil, nil, echo.NewHTTPError(http.StatusNotFound, "report not found")
	}
	params := map[string]string{}
	for _, p := range def.Parameters {
		if v := c.QueryParam(p); v != "" {
			params[p] = v
		}
	}
	return def, params, nil
}

// build evaluates a report and lays it out as a table.
func (h *Handler) build(ctx context.Context, id string, params map[string]string) (interface{}, *Table, error) {
	switch id {
	case "overview":
		o, err := h.svc.Overview(ctx)
		if err != nil {
			return nil, nil, err
		}
		return o, overviewTable(o), nil
	case "patient-frequency":
		pf, err := h.svc.PatientFrequency(ctx)
		if err != nil {
			return nil, nil, err
		}
		return pf, patientFrequencyTable(pf), nil
	case "doctor-performance":
		perf, err := h.svc.DoctorPerformance(ctx)
		if err != nil {
			return nil, nil, err
		}
		return perf, doctorPerformanceTable(perf), nil
	case "monthly-trends":
		months := analytics.DefaultTrendMonths
		if raw, ok := params["months"]; ok {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 || n > 60 {
				return nil, nil, apperr.Validation("months must be between 1 and 60")
			}
			months = n
		}
		trends, err := h.svc.MonthlyTrends(ctx, months)
		if err != nil {
			return nil, nil, err
		}
		return trends, monthlyTrendsTable(trends), nil
	case "department-stats":
		stats, err := h.svc.DepartmentStats(ctx)
		if err != nil {
			return nil, nil, err
		}
		return stats, departmentStatsTable(stats), nil
	case "financial-report":
		w := h.svc.ReportWindow(params["startDate"], params["endDate"])
		fr, err := h.svc.FinancialReport(ctx, w)
		if err != nil {
			return nil, nil, err
		}
		return fr, financialTable(fr), nil
	case "visit-stats":
		vs, err := h.svc.VisitStats(ctx)
		if err != nil {
			return nil, nil, err
		}
		return vs, visitStatsTable(vs), nil
	}
	return nil, nil, apperr.NotFound("report")
}
