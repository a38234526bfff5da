package httperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/alignwork/agenda/internal/platform/apiclient"
)

type fieldErr map[string]string

func (f fieldErr) Error() string                   { return "invalid" }
func (f fieldErr) FieldErrors() map[string]string { return f }

var errMissing = errors.New("missing")

func TestFrom(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", fmt.Errorf("wrap: %w", fieldErr{"name": "obrigatório"}), http.StatusUnprocessableEntity},
		{"upstream", &apiclient.APIError{Status: 409, Message: "conflict"}, http.StatusConflict},
		{"network", &apiclient.APIError{Message: apiclient.ConnectionMessage, Err: errors.New("dial")}, http.StatusBadGateway},
		{"not found", fmt.Errorf("appointment 9: %w", errMissing), http.StatusNotFound},
		{"echo passthrough", echo.NewHTTPError(http.StatusTeapot), http.StatusTeapot},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			he, ok := From(tt.err, errMissing).(*echo.HTTPError)
			if !ok {
				t.Fatalf("expected *echo.HTTPError")
			}
			if he.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, he.Code)
			}
		})
	}
	if From(nil) != nil {
		t.Error("nil should stay nil")
	}
}

func TestFrom_ValidationBody(t *testing.T) {
	he := From(fieldErr{"cpf": "CPF inválido"}).(*echo.HTTPError)
	body, ok := he.Message.(Body)
	if !ok || body.Fields["cpf"] != "CPF inválido" {
		t.Errorf("unexpected body %#v", he.Message)
	}
}
