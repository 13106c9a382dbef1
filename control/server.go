// Package control exposes the operator control plane over HTTP: scheduler
// status, bandwidth mode toggles, the link-health metrics feed and the
// Prometheus scrape endpoint.
package control

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/citymesh/meshsched/sched"
)

// NewHandler builds the control-plane router around a traffic manager.
// gatherer serves GET /metrics; pass the registry the manager's metrics were
// created on.
func NewHandler(mgr *sched.TrafficManager, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/status", handleStatus(mgr))
	r.Put("/mode/overnight", handleOvernight(mgr))
	r.Post("/mode/emergency/activate", handleEmergency(mgr, true))
	r.Post("/mode/emergency/deactivate", handleEmergency(mgr, false))
	r.Post("/metrics/congestion", handleCongestionFeed(mgr))
	r.Get("/congestion/response", handleCongestionResponse(mgr))
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return r
}

func handleStatus(mgr *sched.TrafficManager) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, mgr.Snapshot())
	}
}

type overnightRequest struct {
	Enabled bool `json:"enabled"`
}

func handleOvernight(mgr *sched.TrafficManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req overnightRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid overnight mode body")
			return
		}
		mgr.SetOvernightMode(req.Enabled)
		writeJSON(w, http.StatusOK, map[string]bool{"overnight_mode": req.Enabled})
	}
}

func handleEmergency(mgr *sched.TrafficManager, activate bool) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if activate {
			mgr.ActivateEmergency()
		} else {
			mgr.DeactivateEmergency()
		}
		writeJSON(w, http.StatusOK, map[string]bool{"emergency_override": activate})
	}
}

type congestionFeed struct {
	QueueDepthPercent         float64 `json:"queue_depth_percent"`
	AverageLatencyMs          float64 `json:"average_latency_ms"`
	RetransmitRatePercent     float64 `json:"retransmit_rate_percent"`
	ChannelUtilizationPercent float64 `json:"channel_utilization_percent"`
}

func handleCongestionFeed(mgr *sched.TrafficManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var feed congestionFeed
		if err := json.NewDecoder(r.Body).Decode(&feed); err != nil {
			writeError(w, http.StatusBadRequest, "invalid congestion metrics body")
			return
		}
		mgr.UpdateMetrics(sched.CongestionMetrics{
			QueueDepthPercent:         feed.QueueDepthPercent,
			AverageLatencyMs:          feed.AverageLatencyMs,
			RetransmitRatePercent:     feed.RetransmitRatePercent,
			ChannelUtilizationPercent: feed.ChannelUtilizationPercent,
		})
		writeJSON(w, http.StatusAccepted, map[string]string{
			"congestion_response": mgr.GetCongestionResponse().String(),
		})
	}
}

func handleCongestionResponse(mgr *sched.TrafficManager) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"congested":           mgr.IsCongested(),
			"congestion_response": mgr.GetCongestionResponse().String(),
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.Warnf("control: writing response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
