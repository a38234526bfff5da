// Package app wires the service together. One App is built in main and
// handed to the HTTP server and the CLI commands.
package app

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/alignwork/agenda/internal/config"
	"github.com/alignwork/agenda/internal/domain/account"
	"github.com/alignwork/agenda/internal/domain/agenda"
	"github.com/alignwork/agenda/internal/domain/consultorio"
	"github.com/alignwork/agenda/internal/platform/apiclient"
	"github.com/alignwork/agenda/internal/platform/httperr"
	"github.com/alignwork/agenda/internal/platform/lookup"
	"github.com/alignwork/agenda/internal/platform/middleware"
	"github.com/alignwork/agenda/internal/platform/querycache"
	"github.com/alignwork/agenda/internal/platform/settings"
	"github.com/alignwork/agenda/internal/platform/tz"
)

const (
	Version    = "0.1.0"
	photoLimit = "6M"
)

type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Zone   *tz.Zone

	Client *apiclient.Client
	Cache  *querycache.Cache
	State  *settings.Store

	Views       *agenda.Views
	Coordinator *agenda.Coordinator
	Lookup      *lookup.Service
	Account     *account.Service
	Consultorio *consultorio.Service
}

// New builds every component from cfg. Nothing is contacted yet.
func New(cfg *config.Config, logger zerolog.Logger) (*App, error) {
	zone, err := tz.Load(cfg.DisplayTimezone)
	if err != nil {
		return nil, err
	}
	client, err := apiclient.New(cfg.APIURL, cfg.APITimeout, apiclient.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("backend client: %w", err)
	}

	cache := querycache.New(cfg.CacheStaleTime, logger)
	state := settings.Open(cfg.StateFile, cfg.DefaultTenant, logger)
	stores := agenda.NewStores(zone, cfg.UpcomingLimit)
	backend := agenda.NewRemoteBackend(client, zone)

	a := &App{
		Config: cfg,
		Logger: logger,
		Zone:   zone,
		Client: client,
		Cache:  cache,
		State:  state,
		Views: agenda.NewViews(backend, stores, cache, agenda.Options{
			Zone:   zone,
			Policy: agenda.PolicyByName(cfg.SlotPolicy),
			Logger: logger,
		}),
		Coordinator: agenda.NewCoordinator(backend, stores, cache, zone, logger),
		Lookup: lookup.NewService(
			lookup.NewViaCEP(cfg.ViaCEPURL, cfg.LookupTimeout, logger),
			lookup.NewIBGE(cfg.IBGEURL, cfg.LookupTimeout, logger),
			cache,
		),
		Account:     account.NewService(client, state, cache, logger),
		Consultorio: consultorio.NewService(consultorio.NewRemoteRepo(client), cache, logger),
	}
	return a, nil
}

// Echo returns a configured server with every route mounted.
func (a *App) Echo() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = a.errorHandler

	e.Use(middleware.Recovery(a.Logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(a.Logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     a.Config.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders:     []string{"Content-Type", middleware.RequestIDHeader, middleware.TenantHeader},
		AllowCredentials: true,
	}))
	e.Use(middleware.BodyLimit(a.Config.BodyLimit, map[string]string{"/api/v1/profile/photo": photoLimit}))
	e.Use(middleware.RequestTimeout(a.Config.RequestTimeout))

	e.GET("/health", a.health)

	a.RegisterRoutes(e)
	return e
}

// RegisterRoutes mounts the API under /api/v1. Tenant-scoped routes get the
// tenant middleware; session and preference routes do not.
func (a *App) RegisterRoutes(e *echo.Echo) {
	public := e.Group("/api/v1")
	if limiter := a.rateLimiter(); limiter != nil {
		public.Use(limiter)
	}
	scoped := public.Group("",
		middleware.SessionTenant(func() string { return a.Client.Session().TenantID }),
		middleware.Tenant(a.State.Tenant),
	)

	agenda.NewHandler(a.Views, a.Coordinator).RegisterRoutes(scoped)
	consultorio.NewHandler(a.Consultorio).RegisterRoutes(scoped)
	lookup.NewHandler(a.Lookup).RegisterRoutes(public)
	account.NewHandler(a.Account).RegisterRoutes(public, scoped)
}

func (a *App) rateLimiter() echo.MiddlewareFunc {
	if a.Config.RateLimitRPS <= 0 {
		return nil
	}
	store := echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(a.Config.RateLimitRPS),
		Burst:     a.Config.RateLimitBurst,
		ExpiresIn: 3 * time.Minute,
	})
	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: store,
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			return c.JSON(http.StatusTooManyRequests, httperr.Body{Message: "Muitas requisições, tente novamente em instantes"})
		},
	})
}

func (a *App) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":   "ok",
		"version":  Version,
		"timezone": a.Zone.Name(),
		"backend":  a.Client.BaseURL(),
		"session":  a.Client.Session().Authenticated,
	})
}

// errorHandler renders every error as {"message": ...}.
func (a *App) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if !ok {
		he, _ = httperr.From(err).(*echo.HTTPError)
	}

	body := he.Message
	switch m := he.Message.(type) {
	case string:
		body = httperr.Body{Message: m}
	case httperr.Body:
	default:
		body = httperr.Body{Message: http.StatusText(he.Code)}
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(he.Code)
	} else {
		err = c.JSON(he.Code, body)
	}
	if err != nil {
		a.Logger.Error().Err(err).Msg("writing error response")
	}
}
