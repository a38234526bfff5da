package consultorio

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/alignwork/agenda/internal/platform/httperr"
	"github.com/alignwork/agenda/internal/platform/middleware"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/consultorios", h.List)
	api.POST("/consultorios", h.Create)
	api.GET("/consultorios/:id", h.Get)
	api.PUT("/consultorios/:id", h.Update)
	api.DELETE("/consultorios/:id", h.Delete)
}

func (h *Handler) List(c echo.Context) error {
	items, err := h.svc.List(c.Request().Context(), middleware.TenantFromEcho(c))
	if err != nil {
		return httperr.From(err, ErrNotFound)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Get(c echo.Context) error {
	item, err := h.svc.Get(c.Request().Context(), middleware.TenantFromEcho(c), c.Param("id"))
	if err != nil {
		return httperr.From(err, ErrNotFound)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *Handler) Create(c echo.Context) error {
	var in Input
	if err := c.Bind(&in); err != nil {
		return httperr.BadRequest("corpo da requisição inválido")
	}
	item, err := h.svc.Create(c.Request().Context(), middleware.TenantFromEcho(c), in)
	if err != nil {
		return httperr.From(err, ErrNotFound)
	}
	return c.JSON(http.StatusCreated, item)
}

func (h *Handler) Update(c echo.Context) error {
	var in Input
	if err := c.Bind(&in); err != nil {
		return httperr.BadRequest("corpo da requisição inválido")
	}
	item, err := h.svc.Update(c.Request().Context(), middleware.TenantFromEcho(c), c.Param("id"), in)
	if err != nil {
		return httperr.From(err, ErrNotFound)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *Handler) Delete(c echo.Context) error {
	if err := h.svc.Delete(c.Request().Context(), middleware.TenantFromEcho(c), c.Param("id")); err != nil {
		return httperr.From(err, ErrNotFound)
	}
	return c.NoContent(http.StatusNoContent)
}
