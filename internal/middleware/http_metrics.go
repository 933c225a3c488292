package middleware

import (
	"net/http"
	"strconv"
	"time"
)

// staticRoutes are the exact paths the route table serves. Anything
// else is collapsed to "other" so unbounded request paths cannot blow
// up metric cardinality.
var staticRoutes = map[string]bool{
	"/":                     true,
	"/eventos":              true,
	"/eventos/filtrar":      true,
	"/eventos/cercanos":     true,
	"/eventos/recomendados": true,
	"/favoritos":            true,
	"/login":                true,
	"/auth/register":        true,
	"/temas":                true,
	"/ubicaciones":          true,
	"/uploads/sign":         true,
	"/health":               true,
	"/ready":                true,
	"/metrics":              true,
}

// normalizePath maps a request path to its route pattern for metric
// labels.
func normalizePath(path string) string {
	if staticRoutes[path] {
		return path
	}
	return "other"
}

// HTTPMetrics is a middleware that records request duration, count,
// and response size per (method, route, status).
func HTTPMetrics(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := newResponseWriter(w)
			next.ServeHTTP(rw, r)

			metrics.ObserveRequest(
				r.Method,
				normalizePath(r.URL.Path),
				strconv.Itoa(rw.statusCode),
				time.Since(start).Seconds(),
				rw.size,
			)
		})
	}
}
