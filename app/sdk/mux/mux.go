// Package mux binds the operational routes of the scheduler service:
// health checks, the last pass of each trigger, expvar and pprof.
package mux

import (
	"context"
	"encoding/json"
	"expvar"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/jcpaschoal/leasekeeper/app/sdk/mid"
	"github.com/jcpaschoal/leasekeeper/app/workflow"
	"github.com/jcpaschoal/leasekeeper/foundation/logger"
)

// Reporter exposes the last pass of a trigger.
type Reporter interface {
	LastReport(trigger string) (workflow.Report, bool)
}

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Build     string
	Log       *logger.Logger
	Reporter  Reporter
	Readiness func(ctx context.Context) error
}

// DebugMux constructs the http.Handler for the debug host.
func DebugMux(cfg Config) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/debug/vars", expvar.Handler())

	mux.HandleFunc("GET /v1/liveness", liveness(cfg))
	mux.HandleFunc("GET /v1/readiness", readiness(cfg))
	mux.HandleFunc("GET /v1/workflow/{trigger}", lastReport(cfg))

	excluded := map[string]struct{}{
		"/v1/liveness":  {},
		"/v1/readiness": {},
	}

	return mid.Wrap(mux, mid.Otel("debug", excluded), mid.Panics(cfg.Log))
}

// =============================================================================

func liveness(cfg Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := struct {
			Status string `json:"status"`
			Build  string `json:"build"`
		}{
			Status: "up",
			Build:  cfg.Build,
		}

		respond(r.Context(), cfg.Log, w, http.StatusOK, data)
	}
}

func readiness(cfg Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), time.Second)
		defer cancel()

		status, code := "ok", http.StatusOK

		if cfg.Readiness != nil {
			if err := cfg.Readiness(ctx); err != nil {
				cfg.Log.Info(ctx, "readiness failure", "err", err)
				status, code = "db not ready", http.StatusInternalServerError
			}
		}

		respond(ctx, cfg.Log, w, code, struct {
			Status string `json:"status"`
		}{Status: status})
	}
}

func lastReport(cfg Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		trigger := r.PathValue("trigger")

		if cfg.Reporter == nil {
			http.NotFound(w, r)
			return
		}

		rpt, ok := cfg.Reporter.LastReport(trigger)
		if !ok {
			http.NotFound(w, r)
			return
		}

		respond(r.Context(), cfg.Log, w, http.StatusOK, rpt)
	}
}

func respond(ctx context.Context, log *logger.Logger, w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error(ctx, "respond", "err", err)
	}
}
