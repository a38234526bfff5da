package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alignwork/agenda/internal/domain/agenda"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	err := cmd.Execute()
	return out.String(), err
}

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("ENV", "test")
	t.Setenv("STATE_FILE", filepath.Join(t.TempDir(), "state.json"))
	t.Setenv("DEFAULT_TENANT", "default-tenant")
}

func TestParseMonth(t *testing.T) {
	tests := []struct {
		in    string
		year  int
		month time.Month
		ok    bool
	}{
		{"2024-06", 2024, time.June, true},
		{" 2025-12 ", 2025, time.December, true},
		{"2024-13", 0, 0, false},
		{"2024-6", 0, 0, false},
		{"06/2024", 0, 0, false},
		{"", 0, 0, false},
	}
	for _, tt := range tests {
		y, m, err := parseMonth(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("parseMonth(%q) error = %v, want ok=%v", tt.in, err, tt.ok)
			continue
		}
		if tt.ok && (y != tt.year || m != tt.month) {
			t.Errorf("parseMonth(%q) = %d-%d", tt.in, y, m)
		}
	}
}

func TestPrintMonth_SortedByDay(t *testing.T) {
	var buf bytes.Buffer
	err := printMonth(&buf, map[string]agenda.Counts{
		"2024-06-11": {Total: 1, Pending: 1},
		"2024-06-10": {Total: 2, Confirmed: 1, Pending: 1},
	})
	if err != nil {
		t.Fatalf("printMonth: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %q", buf.String())
	}
	if !strings.HasPrefix(lines[1], "2024-06-10") || !strings.HasPrefix(lines[2], "2024-06-11") {
		t.Errorf("rows not sorted: %q", lines)
	}
}

func TestTenantCommands(t *testing.T) {
	isolate(t)

	out, err := run(t, "tenant", "show")
	if err != nil || strings.TrimSpace(out) != "default-tenant" {
		t.Fatalf("tenant show = %q, %v", out, err)
	}

	out, err = run(t, "tenant", "set", "clinica-recife")
	if err != nil || strings.TrimSpace(out) != "clinica-recife" {
		t.Fatalf("tenant set = %q, %v", out, err)
	}
	out, _ = run(t, "tenant", "show")
	if strings.TrimSpace(out) != "clinica-recife" {
		t.Errorf("tenant not persisted, got %q", out)
	}

	if _, err := run(t, "tenant", "set", "bad tenant!"); err == nil {
		t.Error("expected error for invalid tenant")
	}

	out, err = run(t, "tenant", "set")
	if err != nil || strings.TrimSpace(out) != "default-tenant" {
		t.Errorf("empty set should restore default, got %q, %v", out, err)
	}
}

func TestCepCommand(t *testing.T) {
	isolate(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/50030230/json/" {
			w.Write([]byte(`{"erro": "true"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"cep":"50030-230","logradouro":"Rua da Aurora","bairro":"Boa Vista","localidade":"Recife","uf":"PE"}`))
	}))
	defer srv.Close()
	t.Setenv("VIACEP_URL", srv.URL)

	out, err := run(t, "cep", "50030-230")
	if err != nil {
		t.Fatalf("cep: %v", err)
	}
	for _, want := range []string{"50030-230", "Rua da Aurora, Boa Vista", "Recife/PE"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}

	if _, err := run(t, "cep", "00000-000"); err == nil {
		t.Error("expected not-found error")
	}
}

func TestSlotsCommand_BackendDown(t *testing.T) {
	isolate(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	t.Setenv("API_URL", srv.URL)

	if _, err := run(t, "slots", "--date", "2024-06-10"); err == nil {
		t.Error("expected error when the backend is down")
	}
}
