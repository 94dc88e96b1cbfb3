package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestApiKey(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		configured string
		provided   string
		wantStatus int
	}{
		{"no key configured allows all", "", "", http.StatusOK},
		{"matching key allowed", "secret", "secret", http.StatusOK},
		{"missing key rejected", "secret", "", http.StatusUnauthorized},
		{"wrong key rejected", "secret", "wrong", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.provided != "" {
				req.Header.Set("X-API-KEY", tt.provided)
			}
			rec := httptest.NewRecorder()

			ApiKey(tt.configured)(next).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
