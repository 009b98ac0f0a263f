// Copyright (C) MongoDB, Inc. 2017-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package metrics exports cluster descriptions and heartbeats as Prometheus
// metrics.
package metrics

import (
	"net/http"
	"sync"

	"github.com/ikmak/mongo-topology/event"
	"github.com/ikmak/mongo-topology/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector is a cluster change listener that keeps gauges for the latest
// description it received. Register it with a prometheus.Registerer and add
// it to a cluster with AddChangeListener.
type Collector struct {
	mu sync.Mutex

	changes    prometheus.Counter
	servers    *prometheus.GaugeVec
	averageRTT *prometheus.GaugeVec
	heartbeats *prometheus.HistogramVec
}

var (
	_ event.ChangeListener[model.Cluster] = (*Collector)(nil)
	_ prometheus.Collector                = (*Collector)(nil)
)

// NewCollector creates a Collector whose metrics are prefixed with namespace.
func NewCollector(namespace string) *Collector {
	return &Collector{
		changes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "description_changes_total",
			Help:      "Total number of cluster description changes.",
		}),
		servers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "servers",
			Help:      "Number of servers in the current description, by state.",
		}, []string{"state"}),
		averageRTT: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "server_average_rtt_seconds",
			Help:      "Average heartbeat round trip time of each server.",
		}, []string{"addr"}),
		heartbeats: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "heartbeat_duration_seconds",
			Help:      "Duration of server heartbeats, by outcome.",
			// 1ms .. ~4s
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 13),
		}, []string{"outcome"}),
	}
}

// StateChanged implements event.ChangeListener.
func (c *Collector) StateChanged(e event.ChangeEvent[model.Cluster]) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.changes.Inc()

	c.servers.Reset()
	for _, state := range []model.ServerState{model.Connecting, model.Connected, model.Unavailable} {
		c.servers.WithLabelValues(state.String()).Set(0)
	}
	c.averageRTT.Reset()
	for _, s := range e.New.Servers {
		c.servers.WithLabelValues(s.State.String()).Inc()
		if s.AverageRTTSet {
			c.averageRTT.WithLabelValues(s.Addr.String()).Set(s.AverageRTT.Seconds())
		}
	}
}

// ServerMonitor returns a monitor that records heartbeat durations. It can
// be passed to server.WithServerMonitor.
func (c *Collector) ServerMonitor() *event.ServerMonitor {
	return &event.ServerMonitor{
		ServerHeartbeatSucceeded: func(e *event.ServerHeartbeatSucceededEvent) {
			c.heartbeats.WithLabelValues("succeeded").Observe(e.Duration.Seconds())
		},
		ServerHeartbeatFailed: func(e *event.ServerHeartbeatFailedEvent) {
			c.heartbeats.WithLabelValues("failed").Observe(e.Duration.Seconds())
		},
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.changes.Describe(ch)
	c.servers.Describe(ch)
	c.averageRTT.Describe(ch)
	c.heartbeats.Describe(ch)
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.changes.Collect(ch)
	c.servers.Collect(ch)
	c.averageRTT.Collect(ch)
	c.heartbeats.Collect(ch)
}

// Handler exposes the metrics gathered by g. Mount it with
// mux.Handle("/metrics", metrics.Handler(registry)).
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
