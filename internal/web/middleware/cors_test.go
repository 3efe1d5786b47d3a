package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOrigins_Allowed(t *testing.T) {
	o := ParseOrigins([]string{" https://kiosk.example.com ", ""})

	tests := []struct {
		origin string
		want   bool
	}{
		{"", false},
		{"http://localhost", true},
		{"http://localhost:5173", true},
		{"https://localhost:8443", true},
		{"http://localhost.evil.com", false},
		{"https://kiosk.example.com", true},
		{"https://other.example.com", false},
	}
	for _, tt := range tests {
		if got := o.Allowed(tt.origin); got != tt.want {
			t.Errorf("Allowed(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}
}

func TestOrigins_CheckOrigin(t *testing.T) {
	o := ParseOrigins(nil)

	req := httptest.NewRequest(http.MethodGet, "http://capture.lan:8080/api/v1/sessions/x/surface", nil)
	if !o.CheckOrigin(req) {
		t.Error("request without Origin should be accepted")
	}

	req.Header.Set("Origin", "http://capture.lan:8080")
	if !o.CheckOrigin(req) {
		t.Error("same-host origin should be accepted")
	}

	req.Header.Set("Origin", "https://attacker.example")
	if o.CheckOrigin(req) {
		t.Error("foreign origin should be rejected")
	}
}

func TestCORS(t *testing.T) {
	handler := CORS(ParseOrigins([]string{"https://kiosk.example.com"}))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
		req.Header.Set("Origin", "https://kiosk.example.com")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://kiosk.example.com" {
			t.Errorf("Access-Control-Allow-Origin = %q", got)
		}
		if rec.Code != http.StatusTeapot {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusTeapot)
		}
	})

	t.Run("unknown origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
		req.Header.Set("Origin", "https://other.example.com")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("Access-Control-Allow-Origin = %q, want empty", got)
		}
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/sessions", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})
}
