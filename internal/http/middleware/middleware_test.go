package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/gestaozabele/zeladoria/internal/access"
	"github.com/gestaozabele/zeladoria/internal/auth"
)

const secret = "0123456789abcdef0123456789abcdef"

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestAuthInjectsViewer(t *testing.T) {
	jwt := auth.NewJWTManager(secret, time.Hour)
	viewer := access.Viewer{Role: access.RoleEmpresa, Subrole: access.SubroleSupervisor, CompanyID: "c1"}
	token, _, err := jwt.GenerateAccessToken("sup-1", viewer)
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	var got access.Viewer
	var subject string
	h := Auth(jwt)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = GetViewer(r.Context())
		subject = GetSubject(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || got != viewer || subject != "sup-1" {
		t.Fatalf("unexpected result %d %+v %s", rec.Code, got, subject)
	}

	for _, header := range []string{"", "Basic abc", "Bearer invalido"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401 got %d", header, rec.Code)
		}
	}
}

func TestRequireAction(t *testing.T) {
	h := RequireAction(access.ActionExportCSV)(http.HandlerFunc(okHandler))

	tests := []struct {
		name   string
		viewer *access.Viewer
		status int
	}{
		{"sem-usuario", nil, http.StatusUnauthorized},
		{"gestor-cegor", &access.Viewer{Role: access.RoleCegor, Subrole: access.SubroleGestor}, http.StatusOK},
		{"fiscal", &access.Viewer{Role: access.RoleCegor, Subrole: access.SubroleFiscal}, http.StatusForbidden},
		{"papel-desconhecido", &access.Viewer{Role: "visitante"}, http.StatusForbidden},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.viewer != nil {
				req = req.WithContext(SetViewer(req.Context(), "u", *tc.viewer))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("expected %d got %d", tc.status, rec.Code)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	h := CORS(CORSPolicy{
		Origins: []string{"https://painel.test", "*.prefeitura.test"},
		Methods: []string{http.MethodGet, http.MethodPost},
		Headers: []string{"Authorization", "Content-Type"},
		Expose:  []string{"X-Total-Count"},
		MaxAge:  time.Minute,
	})(http.HandlerFunc(okHandler))

	tests := []struct {
		origin  string
		allowed bool
	}{
		{"https://painel.test", true},
		{"https://zeladoria.prefeitura.test", true},
		{"https://prefeitura.test", false},
		{"https://outro.test", false},
	}
	for _, tc := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", tc.origin)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if got := rec.Header().Get("Access-Control-Allow-Origin") == tc.origin; got != tc.allowed {
			t.Fatalf("origin %s: allowed=%v", tc.origin, got)
		}
		if tc.allowed && rec.Header().Get("Access-Control-Expose-Headers") != "X-Total-Count" {
			t.Fatalf("origin %s: missing expose headers", tc.origin)
		}
	}

	preflight := func(method string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/occurrences", nil)
		req.Header.Set("Origin", "https://painel.test")
		req.Header.Set("Access-Control-Request-Method", method)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := preflight(http.MethodPost)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight expected 204 got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Methods") != "GET, POST" || rec.Header().Get("Access-Control-Max-Age") != "60" {
		t.Fatalf("unexpected preflight headers %v", rec.Header())
	}

	rec = preflight(http.MethodDelete)
	if rec.Code != http.StatusNoContent || rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("method outside policy must not be allowed: %v", rec.Header())
	}
}

func TestThrottleByIP(t *testing.T) {
	h := Throttle(NewLimiter(1, 2), ByIP)(http.HandlerFunc(okHandler))

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		last = httptest.NewRecorder()
		h.ServeHTTP(last, req)
		codes = append(codes, last.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected codes %v", codes)
	}
	if last.Header().Get("Retry-After") != "1" {
		t.Fatalf("expected Retry-After 1, got %q", last.Header().Get("Retry-After"))
	}

	other := httptest.NewRequest(http.MethodGet, "/", nil)
	other.RemoteAddr = "10.0.0.2:5000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, other)
	if rec.Code != http.StatusOK {
		t.Fatalf("other client should have its own bucket, got %d", rec.Code)
	}
}

func TestByViewerSeparatesScopes(t *testing.T) {
	req := func(v *access.Viewer) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = "10.0.0.9:4000"
		if v != nil {
			r = r.WithContext(SetViewer(r.Context(), "u1", *v))
		}
		return r
	}

	norte := ByViewer(req(&access.Viewer{Role: access.RoleRegional, Subrole: access.SubroleGestor, RegionalID: "1"}))
	sul := ByViewer(req(&access.Viewer{Role: access.RoleRegional, Subrole: access.SubroleGestor, RegionalID: "2"}))
	empresa := ByViewer(req(&access.Viewer{Role: access.RoleEmpresa, Subrole: access.SubroleSupervisor, CompanyID: "c1"}))

	if norte == sul || norte == empresa {
		t.Fatalf("scopes must not share buckets: %q %q %q", norte, sul, empresa)
	}
	if norte != "regional:1:u1" || empresa != "empresa:c1:u1" {
		t.Fatalf("unexpected keys %q %q", norte, empresa)
	}
	if got := ByViewer(req(nil)); got != "ip:10.0.0.9" {
		t.Fatalf("anonymous should fall back to ip, got %q", got)
	}
}

func TestRecover(t *testing.T) {
	h := Recover(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("falha")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}
}
