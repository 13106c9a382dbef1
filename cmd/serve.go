package cmd

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"github.com/citymesh/meshsched/control"
	"github.com/citymesh/meshsched/sched"
)

// serve runs the real-time slot ticker and the HTTP control plane. The
// ticker stands in for the external transmit driver: it calls Tick once per
// slot and hands any selected payload to the (stub) transmitter.
func serve(cfg sched.Config) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	mgr, err := sched.NewTrafficManager(cfg,
		sched.WithMetrics(sched.NewMetrics(sched.WithRegistry(registry))))
	if err != nil {
		logrus.Fatalf("building traffic manager: %v", err)
	}

	go tickLoop(mgr, cfg.Slots.SlotDuration)

	handler := control.NewHandler(mgr, registry)
	logrus.Infof("control plane listening on %s", listenAddr)
	if err := http.ListenAndServe(listenAddr, handler); err != nil {
		logrus.Fatalf("control plane: %v", err)
	}
}

func tickLoop(mgr *sched.TrafficManager, slotDuration time.Duration) {
	ticker := time.NewTicker(slotDuration)
	defer ticker.Stop()
	for range ticker.C {
		if payload, ok := mgr.Tick(); ok {
			transmit(payload)
		}
	}
}

// transmit is a stand-in for the radio transmit driver.
func transmit(payload []byte) {
	logrus.Debugf("transmit: %d bytes", len(payload))
}
