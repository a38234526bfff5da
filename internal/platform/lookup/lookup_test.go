package lookup

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/alignwork/agenda/internal/platform/querycache"
)

func newViaCEPServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		switch r.URL.Path {
		case "/01310100/json/":
			w.Write([]byte(`{"cep":"01310-100","logradouro":"Avenida Paulista","bairro":"Bela Vista","localidade":"São Paulo","uf":"SP","ibge":"3550308","ddd":"11"}`))
		case "/99999999/json/":
			w.Write([]byte(`{"erro":true}`))
		case "/88888888/json/":
			w.Write([]byte(`{"erro":"true"}`))
		case "/00000000/json/":
			w.WriteHeader(http.StatusBadRequest)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newIBGEServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("orderBy") != "nome" {
			t.Errorf("expected orderBy=nome, got %q", r.URL.RawQuery)
		}
		switch r.URL.Path {
		case "/estados":
			w.Write([]byte(`[{"id":12,"sigla":"AC","nome":"Acre"},{"id":26,"sigla":"PE","nome":"Pernambuco"}]`))
		case "/estados/PE/municipios":
			w.Write([]byte(`[{"id":2600054,"nome":"Abreu e Lima"},{"id":2611606,"nome":"Recife"}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestViaCEP_Lookup(t *testing.T) {
	srv := newViaCEPServer(t, nil)
	v := NewViaCEP(srv.URL, time.Second, zerolog.Nop())

	addr, err := v.Lookup(context.Background(), "01310-100")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if addr.Logradouro != "Avenida Paulista" || addr.UF != "SP" {
		t.Errorf("unexpected address %+v", addr)
	}
}

func TestViaCEP_Errors(t *testing.T) {
	srv := newViaCEPServer(t, nil)
	v := NewViaCEP(srv.URL, time.Second, zerolog.Nop())

	tests := []struct {
		cep  string
		want error
	}{
		{"99999-999", ErrCEPNotFound},
		{"88888888", ErrCEPNotFound},
		{"1234", ErrInvalidCEP},
		{"00000-000", ErrInvalidCEP},
	}
	for _, tt := range tests {
		addr, err := v.Lookup(context.Background(), tt.cep)
		if !errors.Is(err, tt.want) {
			t.Errorf("Lookup(%q) error = %v, want %v", tt.cep, err, tt.want)
		}
		if addr != nil {
			t.Errorf("Lookup(%q) returned address fields %+v", tt.cep, addr)
		}
	}
}

func TestViaCEP_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()
	v := NewViaCEP(srv.URL, 20*time.Millisecond, zerolog.Nop())
	if _, err := v.Lookup(context.Background(), "01310100"); !errors.Is(err, ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}
}

func TestViaCEP_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	v := NewViaCEP(url, time.Second, zerolog.Nop())
	if _, err := v.Lookup(context.Background(), "01310100"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestIBGE(t *testing.T) {
	srv := newIBGEServer(t)
	g := NewIBGE(srv.URL, time.Second, zerolog.Nop())

	states, err := g.States(context.Background())
	if err != nil || len(states) != 2 || states[1].Sigla != "PE" {
		t.Fatalf("States = %+v, %v", states, err)
	}
	cities, err := g.Cities(context.Background(), "pe")
	if err != nil || len(cities) != 2 || cities[1].Nome != "Recife" {
		t.Fatalf("Cities = %+v, %v", cities, err)
	}
	if _, err := g.Cities(context.Background(), "PER"); !errors.Is(err, ErrInvalidUF) {
		t.Errorf("expected ErrInvalidUF, got %v", err)
	}
}

func newTestService(t *testing.T, hits *int32) *Service {
	viacep := NewViaCEP(newViaCEPServer(t, hits).URL, time.Second, zerolog.Nop())
	ibge := NewIBGE(newIBGEServer(t).URL, time.Second, zerolog.Nop())
	return NewService(viacep, ibge, querycache.New(0, zerolog.Nop()))
}

func TestService_CachesForever(t *testing.T) {
	var hits int32
	svc := newTestService(t, &hits)
	ctx := context.Background()

	svc.Address(ctx, "01310-100")
	svc.Address(ctx, "01310100")
	if atomic.LoadInt32(&hits) != 1 {
		t.Errorf("expected one upstream call, got %d", hits)
	}

	svc.Address(ctx, "99999999")
	svc.Address(ctx, "99999999")
	if atomic.LoadInt32(&hits) != 3 {
		t.Errorf("not-found should not be cached, got %d calls", hits)
	}
}

func TestHandler(t *testing.T) {
	h := NewHandler(newTestService(t, nil))
	e := echo.New()

	tests := []struct {
		name    string
		handler echo.HandlerFunc
		param   string
		value   string
		code    int
		body    string
	}{
		{"address", h.GetAddress, "cep", "01310-100", http.StatusOK, "Avenida Paulista"},
		{"not found", h.GetAddress, "cep", "99999-999", http.StatusNotFound, ""},
		{"invalid", h.GetAddress, "cep", "12", http.StatusBadRequest, ""},
		{"states", h.ListStates, "", "", http.StatusOK, "Pernambuco"},
		{"cities", h.ListCities, "uf", "PE", http.StatusOK, "Recife"},
		{"bad uf", h.ListCities, "uf", "P", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
			if tt.param != "" {
				c.SetParamNames(tt.param)
				c.SetParamValues(tt.value)
			}
			err := tt.handler(c)
			code := rec.Code
			if err != nil {
				he, ok := err.(*echo.HTTPError)
				if !ok {
					t.Fatalf("unexpected error %v", err)
				}
				code = he.Code
			}
			if code != tt.code {
				t.Errorf("expected %d, got %d", tt.code, code)
			}
			if tt.body != "" && !strings.Contains(rec.Body.String(), tt.body) {
				t.Errorf("body missing %q: %s", tt.body, rec.Body.String())
			}
		})
	}
}
