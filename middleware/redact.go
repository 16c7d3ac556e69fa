package middleware

import (
	"net/http"
	"strings"
)

const redactedValue = "REDACTED"

// RedactTokenQuery hides the ?token= value of websocket requests from RequestURI,
// which request loggers print. r.URL is left intact so Authenticate still reads it.
// Must run before the request logger.
func RedactTokenQuery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/ws/") || r.URL.RawQuery == "" {
			next.ServeHTTP(w, r)
			return
		}
		q := r.URL.Query()
		if q.Get("token") == "" {
			next.ServeHTTP(w, r)
			return
		}
		q.Set("token", redactedValue)

		r2 := new(http.Request)
		*r2 = *r
		r2.RequestURI = r.URL.EscapedPath() + "?" + q.Encode()
		next.ServeHTTP(w, r2)
	})
}
