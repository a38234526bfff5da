package agenda

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/alignwork/agenda/internal/platform/httperr"
	"github.com/alignwork/agenda/internal/platform/middleware"
	"github.com/alignwork/agenda/internal/platform/tz"
	"github.com/alignwork/agenda/pkg/pagination"
)

type Handler struct {
	views *Views
	coord *Coordinator
}

func NewHandler(views *Views, coord *Coordinator) *Handler {
	return &Handler{views: views, coord: coord}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/agenda")

	g.GET("/calendar/:year/:month", h.GetMonth)
	g.GET("/days/:date", h.GetDay)
	g.GET("/days/:date/slots", h.GetSlots)
	g.GET("/upcoming", h.GetUpcoming)
	g.GET("/stats/summary", h.GetSummary)
	g.GET("/stats/periods", h.GetPeriodStats)

	g.POST("/appointments", h.CreateAppointment)
	g.PATCH("/appointments/:id", h.UpdateStatus)
	g.PUT("/appointments/:id/consultation", h.SaveConsultation)

	g.GET("/patients", h.ListPatients)
	g.POST("/patients", h.CreatePatient)
	g.GET("/patients/:id/history", h.GetHistory)
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotOptimistic) {
		return echo.NewHTTPError(http.StatusConflict, httperr.Body{Message: "Agendamento ainda está sendo criado"}).SetInternal(err)
	}
	return httperr.From(err, ErrAppointmentNotFound, ErrPatientNotFound)
}

// -- Reads --

func (h *Handler) GetMonth(c echo.Context) error {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year < 1900 || year > 9999 {
		return httperr.BadRequest("ano inválido")
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil || month < 1 || month > 12 {
		return httperr.BadRequest("mês inválido")
	}
	view, err := h.views.Month(c.Request().Context(), middleware.TenantFromEcho(c), year, time.Month(month))
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *Handler) GetDay(c echo.Context) error {
	date := c.Param("date")
	if !tz.ValidDateKey(date) {
		return httperr.BadRequest("data inválida, use AAAA-MM-DD")
	}
	view, err := h.views.Day(c.Request().Context(), middleware.TenantFromEcho(c), date)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *Handler) GetSlots(c echo.Context) error {
	date := c.Param("date")
	if !tz.ValidDateKey(date) {
		return httperr.BadRequest("data inválida, use AAAA-MM-DD")
	}
	slots, err := h.views.Slots(c.Request().Context(), middleware.TenantFromEcho(c), date)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"date":   date,
		"policy": h.views.Policy().Name(),
		"slots":  slots,
	})
}

func (h *Handler) GetUpcoming(c echo.Context) error {
	list, err := h.views.Upcoming(c.Request().Context(), middleware.TenantFromEcho(c))
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *Handler) GetSummary(c echo.Context) error {
	s, err := h.views.Summary(c.Request().Context(), middleware.TenantFromEcho(c))
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *Handler) GetPeriodStats(c echo.Context) error {
	s, err := h.views.PeriodStats(c.Request().Context(), middleware.TenantFromEcho(c))
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, s)
}

// -- Writes --

func (h *Handler) CreateAppointment(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return httperr.BadRequest("corpo da requisição inválido")
	}
	appt, err := h.coord.CreateAppointment(c.Request().Context(), middleware.TenantFromEcho(c), req)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusCreated, appt)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return httperr.BadRequest("corpo da requisição inválido")
	}
	status, err := ParseStatus(req.Status)
	if err != nil {
		status = Status(req.Status)
	}
	appt, err := h.coord.UpdateStatus(c.Request().Context(), middleware.TenantFromEcho(c), c.Param("id"), status)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, appt)
}

type consultationRequest struct {
	Notes         string         `json:"notes"`
	Prescriptions []Prescription `json:"prescriptions"`
	Complete      bool           `json:"complete"`
}

func (h *Handler) SaveConsultation(c echo.Context) error {
	var req consultationRequest
	if err := c.Bind(&req); err != nil {
		return httperr.BadRequest("corpo da requisição inválido")
	}
	ctx := c.Request().Context()
	tenant := middleware.TenantFromEcho(c)

	var (
		appt *Appointment
		err  error
	)
	if req.Complete {
		appt, err = h.coord.CompleteConsultation(ctx, tenant, c.Param("id"), req.Notes, req.Prescriptions)
	} else {
		appt, err = h.coord.SaveConsultation(ctx, tenant, c.Param("id"), req.Notes, req.Prescriptions)
	}
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, appt)
}

// -- Patients --

func (h *Handler) ListPatients(c echo.Context) error {
	list, err := h.views.Patients(c.Request().Context(), middleware.TenantFromEcho(c), c.QueryParam("search"))
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, pagination.Slice(list, pagination.FromContext(c)))
}

func (h *Handler) CreatePatient(c echo.Context) error {
	var in PatientInput
	if err := c.Bind(&in); err != nil {
		return httperr.BadRequest("corpo da requisição inválido")
	}
	p, err := h.coord.CreatePatient(c.Request().Context(), middleware.TenantFromEcho(c), in)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetHistory(c echo.Context) error {
	hist, err := h.views.History(c.Request().Context(), middleware.TenantFromEcho(c), c.Param("id"))
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, hist)
}
