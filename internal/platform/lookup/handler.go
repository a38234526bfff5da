package lookup

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/alignwork/agenda/internal/platform/httperr"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/lookup")
	g.GET("/cep/:cep", h.GetAddress)
	g.GET("/states", h.ListStates)
	g.GET("/states/:uf/cities", h.ListCities)
}

func mapErr(err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrInvalidCEP), errors.Is(err, ErrInvalidUF):
		status = http.StatusBadRequest
	case errors.Is(err, ErrCEPNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrTimeout):
		status = http.StatusGatewayTimeout
	case errors.Is(err, ErrUnavailable):
		status = http.StatusBadGateway
	default:
		return httperr.From(err)
	}
	return echo.NewHTTPError(status, httperr.Body{Message: rootMessage(err)}).SetInternal(err)
}

// rootMessage returns the sentinel text without transport detail.
func rootMessage(err error) string {
	for _, s := range []error{ErrInvalidCEP, ErrInvalidUF, ErrCEPNotFound, ErrTimeout, ErrUnavailable} {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return err.Error()
}

func (h *Handler) GetAddress(c echo.Context) error {
	addr, err := h.svc.Address(c.Request().Context(), c.Param("cep"))
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, addr)
}

func (h *Handler) ListStates(c echo.Context) error {
	states, err := h.svc.States(c.Request().Context())
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, states)
}

func (h *Handler) ListCities(c echo.Context) error {
	cities, err := h.svc.Cities(c.Request().Context(), c.Param("uf"))
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, cities)
}
