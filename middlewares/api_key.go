package middlewares

import (
	"crypto/subtle"
	"net/http"

	"github.com/sodiqardianto/edlink-scrap/common/utils"
)

// ApiKey guards routes with a static X-API-KEY header check. An empty
// configured key disables the check, which is the local development default.
func ApiKey(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			provided := r.Header.Get("X-API-KEY")
			if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
				utils.WriteError(w, http.StatusUnauthorized, "Invalid or missing API key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
