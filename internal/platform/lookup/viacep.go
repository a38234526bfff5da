package lookup

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Address is a ViaCEP result.
type Address struct {
	CEP         string `json:"cep"`
	Logradouro  string `json:"logradouro"`
	Complemento string `json:"complemento"`
	Bairro      string `json:"bairro"`
	Localidade  string `json:"localidade"`
	UF          string `json:"uf"`
	IBGE        string `json:"ibge"`
	DDD         string `json:"ddd"`
}

type viaCEPResponse struct {
	Address
	Erro flexBool `json:"erro"`
}

// flexBool accepts true or "true"; ViaCEP has sent both.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	s := string(data)
	*b = flexBool(s == "true" || s == `"true"`)
	return nil
}

type ViaCEP struct {
	base   string
	http   *http.Client
	logger zerolog.Logger
}

func NewViaCEP(baseURL string, timeout time.Duration, logger zerolog.Logger) *ViaCEP {
	if baseURL == "" {
		baseURL = DefaultViaCEPURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ViaCEP{
		base:   trimBase(baseURL),
		http:   &http.Client{Timeout: timeout},
		logger: logger.With().Str("component", "lookup.viacep").Logger(),
	}
}

// NormalizeCEP strips formatting and checks for exactly 8 digits.
func NormalizeCEP(cep string) (string, error) {
	d := onlyDigits(cep)
	if len(d) != 8 {
		return "", ErrInvalidCEP
	}
	return d, nil
}

// Lookup resolves a CEP. Unknown codes return ErrCEPNotFound and a nil
// address.
func (v *ViaCEP) Lookup(ctx context.Context, cep string) (*Address, error) {
	digits, err := NormalizeCEP(cep)
	if err != nil {
		return nil, err
	}
	var resp viaCEPResponse
	if err := getJSON(ctx, v.http, v.logger, v.base+"/"+digits+"/json/", &resp); err != nil {
		var se *statusError
		if errors.As(err, &se) && se.status == http.StatusBadRequest {
			return nil, ErrInvalidCEP
		}
		return nil, err
	}
	if resp.Erro {
		return nil, ErrCEPNotFound
	}
	return &resp.Address, nil
}
