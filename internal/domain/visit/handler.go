package visit

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/frontdesk/internal/platform/apperr"
	"github.com/clinicdesk/frontdesk/internal/platform/auth"
	"github.com/clinicdesk/frontdesk/pkg/dateparse"
	"github.com/clinicdesk/frontdesk/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RoleDoctor, auth.RoleReceptionist))
	g.GET("/visits", h.SearchVisits)
	g.GET("/visits/today", h.TodaysVisits)
	g.GET("/visits/:id", h.GetVisit)
	g.POST("/visits", h.CreateVisit)
	g.PUT("/visits/:id", h.UpdateVisit)
	g.PUT("/visits/:id/status", h.UpdateStatus)
	g.POST("/visits/:id/prescription", h.AddPrescription)
	g.POST("/visits/:id/test", h.AddTestOrder)

	admin := api.Group("", auth.RequireRole(auth.RoleAdmin))
	admin.DELETE("/visits/:id", h.DeleteVisit)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func (h *Handler) CreateVisit(c echo.Context) error {
	var v Visit
	if err := c.Bind(&v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateVisit(c.Request().Context(), &v); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *Handler) GetVisit(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	v, err := h.svc.GetVisit(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) UpdateVisit(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	v, err := h.svc.GetVisit(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	if err := c.Bind(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.UpdateVisit(c.Request().Context(), id, v); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) DeleteVisit(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteVisit(c.Request().Context(), id); err != nil {
		return apperr.HTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	v, err := h.svc.UpdateStatus(c.Request().Context(), id, body.Status)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) AddPrescription(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var p Prescription
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	v, err := h.svc.AddPrescription(c.Request().Context(), id, p)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) AddTestOrder(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var t TestOrder
	if err := c.Bind(&t); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	v, err := h.svc.AddTestOrder(c.Request().Context(), id, t)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) TodaysVisits(c echo.Context) error {
	visits, err := h.svc.TodaysVisits(c.Request().Context())
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, visits)
}

// SearchVisits filters on patientId, doctorId, status and ?date= (one day).
func (h *Handler) SearchVisits(c echo.Context) error {
	f := Filter{Status: c.QueryParam("status")}
	for name, dst := range map[string]**uuid.UUID{"patientId": &f.PatientID, "doctorId": &f.DoctorID} {
		raw := c.QueryParam(name)
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
		}
		*dst = &id
	}
	if raw := c.QueryParam("date"); raw != "" {
		t, err := dateparse.Parse(raw, time.Local)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid date")
		}
		start := dateparse.StartOfDay(t)
		end := start.AddDate(0, 0, 1)
		f.From, f.To = &start, &end
	}

	pg := pagination.FromContext(c)
	visits, total, err := h.svc.SearchVisits(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(visits, total, pg))
}
