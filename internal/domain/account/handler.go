package account

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/alignwork/agenda/internal/platform/apiclient"
	"github.com/alignwork/agenda/internal/platform/httperr"
	"github.com/alignwork/agenda/internal/platform/settings"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the session routes on public and the rest on api.
// Session routes work without a tenant.
func (h *Handler) RegisterRoutes(public, api *echo.Group) {
	public.POST("/session/login", h.Login)
	public.POST("/session/register", h.Register)
	public.POST("/session/logout", h.Logout)
	public.GET("/session/me", h.Me)

	api.GET("/profile", h.GetProfile)
	api.PATCH("/profile", h.UpdateProfile)
	api.POST("/profile/photo", h.UploadPhoto)
	api.DELETE("/profile/photo", h.DeletePhoto)

	public.GET("/settings", h.GetSettings)
	public.PUT("/settings", h.PutSettings)
	public.GET("/tenant", h.GetTenant)
	public.PUT("/tenant", h.PutTenant)
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, ErrPhotoType), errors.Is(err, ErrInvalidTenant):
		return echo.NewHTTPError(http.StatusBadRequest, httperr.Body{Message: err.Error()})
	case errors.Is(err, ErrPhotoTooLarge):
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, httperr.Body{Message: err.Error()})
	}
	return httperr.From(err)
}

func (h *Handler) Login(c echo.Context) error {
	var creds apiclient.Credentials
	if err := c.Bind(&creds); err != nil {
		return httperr.BadRequest("corpo da requisição inválido")
	}
	u, err := h.svc.Login(c.Request().Context(), creds)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) Register(c echo.Context) error {
	var reg apiclient.Registration
	if err := c.Bind(&reg); err != nil {
		return httperr.BadRequest("corpo da requisição inválido")
	}
	u, err := h.svc.Register(c.Request().Context(), reg)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusCreated, u)
}

func (h *Handler) Logout(c echo.Context) error {
	if err := h.svc.Logout(c.Request().Context()); err != nil && !apiclient.IsStatus(err, http.StatusUnauthorized) {
		return mapErr(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Me(c echo.Context) error {
	u, session, err := h.svc.Me(c.Request().Context())
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"user": u, "session": session})
}

func (h *Handler) GetProfile(c echo.Context) error {
	u, err := h.svc.Profile(c.Request().Context())
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) UpdateProfile(c echo.Context) error {
	var in apiclient.ProfileUpdate
	if err := c.Bind(&in); err != nil {
		return httperr.BadRequest("corpo da requisição inválido")
	}
	u, err := h.svc.UpdateProfile(c.Request().Context(), in)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) UploadPhoto(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return httperr.BadRequest("arquivo ausente no campo \"file\"")
	}
	if err := CheckPhoto(fh.Filename, fh.Size); err != nil {
		return mapErr(err)
	}
	f, err := fh.Open()
	if err != nil {
		return httperr.BadRequest("arquivo ilegível")
	}
	defer f.Close()

	u, err := h.svc.UploadPhoto(c.Request().Context(), fh.Filename, fh.Size, f)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) DeletePhoto(c echo.Context) error {
	u, err := h.svc.DeletePhoto(c.Request().Context())
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *Handler) GetSettings(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Settings())
}

func (h *Handler) PutSettings(c echo.Context) error {
	var in settings.Settings
	if err := c.Bind(&in); err != nil {
		return httperr.BadRequest("corpo da requisição inválido")
	}
	out, err := h.svc.SaveSettings(in)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, out)
}

type tenantBody struct {
	TenantID string `json:"tenantId"`
}

func (h *Handler) GetTenant(c echo.Context) error {
	return c.JSON(http.StatusOK, tenantBody{TenantID: h.svc.Tenant()})
}

func (h *Handler) PutTenant(c echo.Context) error {
	var in tenantBody
	if err := c.Bind(&in); err != nil {
		return httperr.BadRequest("corpo da requisição inválido")
	}
	tenant, err := h.svc.SetTenant(in.TenantID)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, tenantBody{TenantID: tenant})
}
