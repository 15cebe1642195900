// internal/app/system/limits/limits.go

// Package limits caps request body sizes so oversized payloads fail fast
// instead of exhausting memory.
package limits

import "net/http"

// MaxJSONBody bounds every JSON request body. Region geometries are the
// largest legitimate payload and stay far under this.
const MaxJSONBody = 1 << 20 // 1 MB

// MaxBody wraps each request body in a MaxBytesReader; reads past the cap
// make the handler's JSON decode fail with a request-too-large error.
func MaxBody(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, n)
			next.ServeHTTP(w, r)
		})
	}
}
