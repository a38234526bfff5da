package lookup

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type State struct {
	ID    int    `json:"id"`
	Sigla string `json:"sigla"`
	Nome  string `json:"nome"`
}

type City struct {
	ID   int    `json:"id"`
	Nome string `json:"nome"`
}

type IBGE struct {
	base   string
	http   *http.Client
	logger zerolog.Logger
}

func NewIBGE(baseURL string, timeout time.Duration, logger zerolog.Logger) *IBGE {
	if baseURL == "" {
		baseURL = DefaultIBGEURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &IBGE{
		base:   trimBase(baseURL),
		http:   &http.Client{Timeout: timeout},
		logger: logger.With().Str("component", "lookup.ibge").Logger(),
	}
}

// States lists the federative units ordered by name.
func (g *IBGE) States(ctx context.Context) ([]State, error) {
	var out []State
	if err := getJSON(ctx, g.http, g.logger, g.base+"/estados?orderBy=nome", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Cities lists the municipalities of uf ordered by name.
func (g *IBGE) Cities(ctx context.Context, uf string) ([]City, error) {
	uf = strings.ToUpper(strings.TrimSpace(uf))
	if len(uf) != 2 {
		return nil, ErrInvalidUF
	}
	var out []City
	if err := getJSON(ctx, g.http, g.logger, g.base+"/estados/"+uf+"/municipios?orderBy=nome", &out); err != nil {
		return nil, err
	}
	return out, nil
}
