package analytics

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/frontdesk/internal/platform/apperr"
	"github.com/clinicdesk/frontdesk/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/analytics", auth.RequireRole(auth.RoleDoctor, auth.RoleReceptionist))
	g.GET("", h.Unified)
	g.GET("/overview", h.Overview)
	g.GET("/patient-frequency", h.PatientFrequency)
	g.GET("/doctor-performance", h.DoctorPerformance)
	g.GET("/monthly-trends", h.MonthlyTrends)
	g.GET("/department-stats", h.DepartmentStats)
	g.GET("/financial-report", h.FinancialReport)
	g.GET("/visit-stats", h.VisitStats)
	g.GET("/doctors/:id/stats", h.DoctorStats)
}

func respond(c echo.Context, v interface{}, err error) error {
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) Unified(c echo.Context) error {
	out, err := h.svc.UnifiedAnalytics(c.Request().Context(), c.QueryParam("timeRange"))
	return respond(c, out, err)
}

func (h *Handler) Overview(c echo.Context) error {
	out, err := h.svc.Overview(c.Request().Context())
	return respond(c, out, err)
}

func (h *Handler) PatientFrequency(c echo.Context) error {
	out, err := h.svc.PatientFrequency(c.Request().Context())
	return respond(c, out, err)
}

func (h *Handler) DoctorPerformance(c echo.Context) error {
	out, err := h.svc.DoctorPerformance(c.Request().Context())
	return respond(c, out, err)
}

// MonthlyTrends reads ?months= (1-60, default 12).
func (h *Handler) MonthlyTrends(c echo.Context) error {
	months := DefaultTrendMonths
	if raw := c.QueryParam("months"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 60 {
			return echo.NewHTTPError(http.StatusBadRequest, "months must be between 1 and 60")
		}
		months = n
	}
	out, err := h.svc.MonthlyTrends(c.Request().Context(), months)
	return respond(c, out, err)
}

func (h *Handler) DepartmentStats(c echo.Context) error {
	out, err := h.svc.DepartmentStats(c.Request().Context())
	return respond(c, out, err)
}

// FinancialReport reads ?startDate=&endDate= as inclusive calendar days.
// Without both bounds every visit is included.
func (h *Handler) FinancialReport(c echo.Context) error {
	w := h.svc.ReportWindow(c.QueryParam("startDate"), c.QueryParam("endDate"))
	out, err := h.svc.FinancialReport(c.Request().Context(), w)
	return respond(c, out, err)
}

func (h *Handler) VisitStats(c echo.Context) error {
	out, err := h.svc.VisitStats(c.Request().Context())
	return respond(c, out, err)
}

func (h *Handler) DoctorStats(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	out, err := h.svc.DoctorStats(c.Request().Context(), id)
	return respond(c, out, err)
}
