package identity

import (
	"net/http"

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
	// Read endpoints – every clinic role
	readGroup := api.Group("", auth.RequireRole(auth.RoleDoctor, auth.RoleReceptionist))
	readGroup.GET("/patients", h.SearchPatients)
	readGroup.GET("/patients/doctor/:doctorId", h.PatientsByDoctor)
	readGroup.GET("/patients/:id", h.GetPatient)
	readGroup.GET("/patients/:id/treatments", h.TreatmentHistory)
	readGroup.GET("/doctors", h.SearchDoctors)
	readGroup.GET("/doctors/:id", h.GetDoctor)

	// Front-desk writes – receptionist, doctor
	deskGroup := api.Group("", auth.RequireRole(auth.RoleReceptionist, auth.RoleDoctor))
	deskGroup.POST("/patients", h.CreatePatient)
	deskGroup.PUT("/patients/:id", h.UpdatePatient)
	deskGroup.POST("/patients/:id/visit", h.RecordVisit)
	deskGroup.POST("/patients/:id/treatments", h.AddTreatment)

	// Administrative writes – admin only
	adminGroup := api.Group("", auth.RequireRole(auth.RoleAdmin))
	adminGroup.DELETE("/patients/:id", h.DeletePatient)
	adminGroup.POST("/doctors", h.CreateDoctor)
	adminGroup.PUT("/doctors/:id", h.UpdateDoctor)
	adminGroup.DELETE("/doctors/:id", h.DeleteDoctor)
	adminGroup.PUT("/doctors/:id/password", h.SetDoctorPassword)
}

func parseID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// -- Patient Handlers --

func (h *Handler) CreatePatient(c echo.Context) error {
	var p Patient
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreatePatient(c.Request().Context(), &p); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	p, err := h.svc.GetPatient(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) SearchPatients(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := PatientFilter{
		Query:  c.QueryParam("search"),
		Status: c.QueryParam("status"),
		Gender: c.QueryParam("gender"),
	}
	patients, total, err := h.svc.SearchPatients(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(patients, total, pg))
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	// Fields missing from the body keep their stored values.
	p, err := h.svc.GetPatient(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	if err := c.Bind(p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.UpdatePatient(c.Request().Context(), id, p); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) DeletePatient(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeletePatient(c.Request().Context(), id); err != nil {
		return apperr.HTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

type visitRequest struct {
	Date dateparse.Time `json:"date"`
}

func (h *Handler) RecordVisit(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req visitRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	p, err := h.svc.RecordVisit(c.Request().Context(), id, req.Date.Time)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, p)
}

type treatmentRequest struct {
	DoctorID      *uuid.UUID     `json:"doctorId"`
	TreatmentDate dateparse.Time `json:"treatmentDate"`
	Diagnosis     *string        `json:"diagnosis"`
	Treatment     *string        `json:"treatment"`
	Notes         *string        `json:"notes"`
}

func (h *Handler) AddTreatment(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req treatmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	t := Treatment{
		TreatmentDate: req.TreatmentDate.Time,
		Diagnosis:     req.Diagnosis,
		Treatment:     req.Treatment,
		Notes:         req.Notes,
	}
	p, err := h.svc.AddTreatment(c.Request().Context(), id, req.DoctorID, t)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) TreatmentHistory(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	treatments, err := h.svc.TreatmentHistory(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, treatments)
}

func (h *Handler) PatientsByDoctor(c echo.Context) error {
	doctorID, err := parseID(c, "doctorId")
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	patients, total, err := h.svc.PatientsByDoctor(c.Request().Context(), doctorID, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(patients, total, pg))
}

// -- Doctor Handlers --

type doctorRequest struct {
	Doctor
	Password string `json:"password"`
}

func (h *Handler) CreateDoctor(c echo.Context) error {
	var req doctorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d := req.Doctor
	if err := h.svc.CreateDoctor(c.Request().Context(), &d, req.Password); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) GetDoctor(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	d, err := h.svc.GetDoctor(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) SearchDoctors(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := DoctorFilter{
		Query:      c.QueryParam("search"),
		Status:     c.QueryParam("status"),
		Specialty:  c.QueryParam("specialty"),
		Department: c.QueryParam("department"),
	}
	doctors, total, err := h.svc.SearchDoctors(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(doctors, total, pg))
}

func (h *Handler) UpdateDoctor(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	d, err := h.svc.GetDoctor(c.Request().Context(), id)
	if err != nil {
		return apperr.HTTP(err)
	}
	if err := c.Bind(d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.UpdateDoctor(c.Request().Context(), id, d); err != nil {
		return apperr.HTTP(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) DeleteDoctor(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteDoctor(c.Request().Context(), id); err != nil {
		return apperr.HTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}

type passwordRequest struct {
	Password string `json:"password"`
}

func (h *Handler) SetDoctorPassword(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req passwordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.SetDoctorPassword(c.Request().Context(), id, req.Password); err != nil {
		return apperr.HTTP(err)
	}
	return c.NoContent(http.StatusNoContent)
}
