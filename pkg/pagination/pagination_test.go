package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramsFor(query string) Params {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	return FromContext(e.NewContext(req, httptest.NewRecorder()))
}

func TestFromContext(t *testing.T) {
	tests := []struct {
		query string
		want  Params
	}{
		{"", Params{Page: 1, PageSize: DefaultPageSize}},
		{"page=3&page_size=10", Params{Page: 3, PageSize: 10}},
		{"page=0&page_size=500", Params{Page: 1, PageSize: MaxPageSize}},
		{"page=-2&page_size=abc", Params{Page: 1, PageSize: DefaultPageSize}},
	}
	for _, tt := range tests {
		if got := paramsFor(tt.query); got != tt.want {
			t.Errorf("FromContext(%q) = %+v, want %+v", tt.query, got, tt.want)
		}
	}
}

func TestSlice(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	r := Slice(items, Params{Page: 2, PageSize: 2})
	if got := r.Data.([]int); len(got) != 2 || got[0] != 3 {
		t.Errorf("unexpected page %v", got)
	}
	if r.Total != 5 || r.TotalPages != 3 {
		t.Errorf("unexpected totals %+v", r)
	}

	r = Slice(items, Params{Page: 9, PageSize: 2})
	if got := r.Data.([]int); len(got) != 0 {
		t.Errorf("expected empty page past the end, got %v", got)
	}
}

func TestHasNext(t *testing.T) {
	p := Params{Page: 1, PageSize: 20}
	if !p.HasNext(50) {
		t.Error("expected more results")
	}
	p.Page = 3
	if p.HasNext(50) {
		t.Error("expected last page")
	}
}
