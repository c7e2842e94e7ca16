// Package http serves the dispatcher's operational endpoints.
package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/wolfeidau/orgpay/internal/dispatcher"
)

// PassReporter reports the most recent completed dispatcher pass.
// *dispatcher.Dispatcher satisfies it.
type PassReporter interface {
	LastPass() (dispatcher.PassResult, time.Time, bool)
}

type healthResponse struct {
	Status     string                 `json:"status"`
	LastPassAt *time.Time             `json:"last_pass_at,omitempty"`
	LastPass   *dispatcher.PassResult `json:"last_pass,omitempty"`
}

// HealthHandler returns 200 while passes keep completing. It returns 503
// before the first pass finishes and once the last pass is older than maxAge.
func HealthHandler(reporter PassReporter, maxAge time.Duration, now func() time.Time) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok"}
		code := http.StatusOK

		result, at, ok := reporter.LastPass()
		switch {
		case !ok:
			resp.Status = "starting"
			code = http.StatusServiceUnavailable
		case now().Sub(at) > maxAge:
			resp.Status = "stale"
			code = http.StatusServiceUnavailable
		}
		if ok {
			resp.LastPassAt = &at
			resp.LastPass = &result
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(resp)
	})
}

// NewServeMux wires the operational endpoints.
func NewServeMux(reporter PassReporter, maxAge time.Duration) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /healthz", HealthHandler(reporter, maxAge, time.Now))
	mux.HandleFunc("GET /livez", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}
