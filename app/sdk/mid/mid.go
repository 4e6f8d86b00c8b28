// Package mid contains the middleware wrapped around the ops handlers.
package mid

import "net/http"

// MidFunc wraps a handler with extra behavior.
type MidFunc func(http.Handler) http.Handler

// Wrap applies the middleware so the first one listed runs first.
func Wrap(h http.Handler, mw ...MidFunc) http.Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		if mw[i] != nil {
			h = mw[i](h)
		}
	}

	return h
}
