// Package lookup wraps the public address services: ViaCEP for postal
// codes and IBGE for states and municipalities.
package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultViaCEPURL = "https://viacep.com.br/ws"
	DefaultIBGEURL   = "https://servicodados.ibge.gov.br/api/v1/localidades"
	DefaultTimeout   = 10 * time.Second
)

var (
	ErrInvalidCEP  = errors.New("CEP deve conter 8 dígitos")
	ErrCEPNotFound = errors.New("CEP não encontrado")
	ErrInvalidUF   = errors.New("UF inválida")
	ErrTimeout     = errors.New("tempo esgotado ao consultar serviço de endereço")
	ErrUnavailable = errors.New("erro de conexão com o serviço de endereço")
)

// statusError is a non-2xx answer from an address service.
type statusError struct {
	status int
}

func (e *statusError) Error() string { return fmt.Sprintf("unexpected status %d", e.status) }

// getJSON fetches url into out. Transport failures become ErrTimeout or
// ErrUnavailable; HTTP failures become *statusError.
func getJSON(ctx context.Context, hc *http.Client, logger zerolog.Logger, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		logger.Warn().Err(err).Str("url", url).Msg("address service unreachable")
		var ne net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
			return ErrTimeout
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		io.Copy(io.Discard, resp.Body)
		return &statusError{status: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s: %w", url, err)
	}
	return nil
}

func trimBase(u string) string { return strings.TrimRight(u, "/") }

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
