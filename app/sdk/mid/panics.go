package mid

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/jcpaschoal/leasekeeper/foundation/logger"
)

// Panics recovers from a panicking handler, logs the stack and answers 500.
func Panics(log *logger.Logger) MidFunc {
	m := func(next http.Handler) http.Handler {
		h := func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					trace := debug.Stack()
					log.Error(r.Context(), "panic", "path", r.URL.Path, "err", fmt.Sprintf("PANIC [%v] TRACE[%s]", rec, string(trace)))

					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(w, r)
		}

		return http.HandlerFunc(h)
	}

	return m
}
