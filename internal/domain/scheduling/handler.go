package scheduling

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
	g.GET("/appointments", h.SearchAppointments)
	g.GET("/appointments/:id", h.GetAppointment)
	g.POST("/appointments", h.CreateAppointment)
	g.PUT("/appointments/:id", h.UpdateAppointment)
	g.DELETE("/appointments/:id", h.DeleteAppointment)
}

func (h *Handler) CreateAppointment(c echo.Context) error {
	var a Appointment
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateAppointment(c.Request().Context(), &a); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) GetAppointment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.GetAppointment(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) UpdateAppointment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	// Fields missing from the body keep their stored values.
	a, err := h.svc.GetAppointment(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	if err := c.Bind(a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.UpdateAppointment(c.Request().Context(), id, a); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) DeleteAppointment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteAppointment(c.Request().Context(), id); err != nil {
		return apperr.HTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// SearchAppointments filters on patientId, doctorId and status, and on the
// appointment date either by ?date= (one day) or ?startDate=&endDate=
// (inclusive days).
func (h *Handler) SearchAppointments(c echo.Context) error {
	f, err := filterFromQuery(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	appts, total, err := h.svc.SearchAppointments(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(appts, total, pg))
}

func filterFromQuery(c echo.Context) (Filter, error) {
	f := Filter{Status: c.QueryParam("status")}
	for name, dst := range map[string]**uuid.UUID{"patientId": &f.PatientID, "doctorId": &f.DoctorID} {
		raw := c.QueryParam(name)
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return f, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
		}
		*dst = &id
	}

	day := func(name string) (*time.Time, error) {
		raw := c.QueryParam(name)
		if raw == "" {
			return nil, nil
		}
		t, err := dateparse.Parse(raw, time.Local)
		if err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
		}
		start := dateparse.StartOfDay(t)
		return &start, nil
	}

	if d, err := day("date"); err != nil {
		return f, err
	} else if d != nil {
		end := d.AddDate(0, 0, 1)
		f.From, f.To = d, &end
		return f, nil
	}
	from, err := day("startDate")
	if err != nil {
		return f, err
	}
	to, err := day("endDate")
	if err != nil {
		return f, err
	}
	f.From = from
	if to != nil {
		end := to.AddDate(0, 0, 1)
		f.To = &end
	}
	return f, nil
}
