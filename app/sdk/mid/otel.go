package mid

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Otel starts a server span for every request that is not excluded.
func Otel(operation string, excluded map[string]struct{}) MidFunc {
	m := func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, operation,
			otelhttp.WithFilter(func(r *http.Request) bool {
				_, skip := excluded[r.URL.Path]
				return !skip
			}),
		)
	}

	return m
}
