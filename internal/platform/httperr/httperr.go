// Package httperr translates domain and upstream errors into echo HTTP
// errors with a JSON body the frontend can render as-is.
package httperr

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/alignwork/agenda/internal/platform/apiclient"
)

// FieldErrors is implemented by local validation errors.
type FieldErrors interface {
	error
	FieldErrors() map[string]string
}

// Body is the error document returned to clients.
type Body struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// From maps err onto an *echo.HTTPError:
//
//	validation        422 with field messages
//	upstream APIError upstream status and its message
//	network failure   502
//	notFound sentinel 404
//	anything else     500
func From(err error, notFound ...error) error {
	if err == nil {
		return nil
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}

	var fe FieldErrors
	if errors.As(err, &fe) {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, Body{
			Message: "Verifique os campos destacados",
			Fields:  fe.FieldErrors(),
		})
	}

	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		status := apiErr.Status
		if apiErr.Network() {
			status = http.StatusBadGateway
		}
		return echo.NewHTTPError(status, Body{Message: apiErr.Message, Fields: apiErr.Fields}).SetInternal(err)
	}

	for _, target := range notFound {
		if errors.Is(err, target) {
			return echo.NewHTTPError(http.StatusNotFound, Body{Message: "Registro não encontrado"}).SetInternal(err)
		}
	}
	return echo.NewHTTPError(http.StatusInternalServerError, Body{Message: "Erro interno"}).SetInternal(err)
}

// BadRequest builds a 400 with a plain message.
func BadRequest(msg string) error {
	return echo.NewHTTPError(http.StatusBadRequest, Body{Message: msg})
}
