// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exports relay activity to Prometheus. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	lines     *prometheus.CounterVec
	bytes     *prometheus.CounterVec
	sinkDrops prometheus.Counter
	state     prometheus.Gauge
}

// NewMetrics creates the relay collectors and registers them with
// registerer. A nil registerer leaves them unregistered.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		lines: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fiforelay_lines_total",
			Help: "Lines forwarded, by direction",
		}, []string{"direction"}),
		bytes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fiforelay_bytes_total",
			Help: "Bytes forwarded including delimiters, by direction",
		}, []string{"direction"}),
		sinkDrops: factory.NewCounter(prometheus.CounterOpts{
			Name: "fiforelay_sink_errors_total",
			Help: "Inbound lines at least one sink failed to accept",
		}),
		state: factory.NewGauge(prometheus.GaugeOpts{
			Name: "fiforelay_session_state",
			Help: "Session state: 0 idle, 1 connected, 2 relaying, 3 terminated, 4 failed",
		}),
	}
}

func (m *Metrics) observeLine(direction Direction, size int) {
	if m == nil {
		return
	}
	m.lines.WithLabelValues(string(direction)).Inc()
	m.bytes.WithLabelValues(string(direction)).Add(float64(size))
}

func (m *Metrics) observeSinkError() {
	if m == nil {
		return
	}
	m.sinkDrops.Inc()
}

func (m *Metrics) observeState(state State) {
	if m == nil {
		return
	}
	m.state.Set(float64(state))
}
