package middleware

import (
	"fmt"
	"net/http"
	"runtime"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// FallbackMessage is shown when a handler panics.
const FallbackMessage = "Algo deu errado. Recarregue a página para continuar."

// Recovery turns a panic into a generic 500 with a reload hint. There is no
// partial recovery; the client is expected to start over.
func Recovery(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					var stack [4096]byte
					n := runtime.Stack(stack[:], false)

					logger.Error().
						Str("request_id", fmt.Sprintf("%v", c.Get("request_id"))).
						Str("path", c.Request().URL.Path).
						Str("panic", fmt.Sprintf("%v", r)).
						Str("stack", string(stack[:n])).
						Msg("panic recovered")

					if c.Response().Committed {
						err = nil
						return
					}
					err = c.JSON(http.StatusInternalServerError, map[string]any{
						"message": FallbackMessage,
						"reload":  true,
					})
				}
			}()
			return next(c)
		}
	}
}
