// Package health exposes liveness/readiness as plain HTTP handlers.
package health

import (
	"encoding/json"
	"net/http"
)

// ReadinessReporter reports whether the process can currently serve
// queries: the bus is connected and a scan session handle exists.
type ReadinessReporter interface {
	Readiness() (ready bool, reason string)
}

// Liveness answers a bare liveness probe: the process is up and serving.
func Liveness() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	}
}

// Readiness returns an http.HandlerFunc answering /readyz.
func Readiness(rr ReadinessReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		type resp struct {
			Status string `json:"status"`
			Reason string `json:"reason,omitempty"`
		}
		ready, reason := rr.Readiness()
		out := resp{Status: "not_ready", Reason: reason}
		if ready {
			out.Status = "ready"
			out.Reason = ""
		}
		w.Header().Set("Content-Type", "application/json")
		if !ready {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}
