// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package metrics exposes MacTalk traffic and motor status as Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nosseb/macstat/pkg/mac50"
	"github.com/nosseb/macstat/pkg/mactalk"
)

// NewRegistry creates a registry with the Go and process collectors
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler returns the HTTP handler serving reg
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// MotorMetrics holds frame and status metrics for one motor.
// It implements mac50.Observer.
type MotorMetrics struct {
	Frames         *prometheus.CounterVec   // labels: op, result
	Latency        *prometheus.HistogramVec // labels: op
	Mode           prometheus.Gauge
	ActualPosition prometheus.Gauge
	TargetPosition prometheus.Gauge
	ActualVelocity prometheus.Gauge
	LoadFactor     prometheus.Gauge
	SupplyVoltage  prometheus.Gauge
	ErrorFlags     prometheus.Gauge
	LastRefresh    prometheus.Gauge
}

// NewMotorMetrics registers motor metrics labelled with the motor address
func NewMotorMetrics(reg prometheus.Registerer, address uint8) *MotorMetrics {
	labels := prometheus.Labels{"motor": strconv.Itoa(int(address))}
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "macstat",
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		})
	}

	m := &MotorMetrics{
		Frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "macstat",
			Name:        "frames_total",
			Help:        "MacTalk round trips by operation and result.",
			ConstLabels: labels,
		}, []string{"op", "result"}),
		Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   "macstat",
			Name:        "frame_latency_seconds",
			Help:        "MacTalk round trip latency.",
			ConstLabels: labels,
			Buckets:     []float64{.001, .0025, .005, .01, .025, .05, .1, .25},
		}, []string{"op"}),
		Mode:           gauge("mode", "Operating mode number."),
		ActualPosition: gauge("actual_position", "Actual position in counts."),
		TargetPosition: gauge("target_position", "Target position in counts."),
		ActualVelocity: gauge("actual_velocity", "Actual velocity."),
		LoadFactor:     gauge("load_factor", "Load factor."),
		SupplyVoltage:  gauge("supply_voltage", "Supply voltage register value."),
		ErrorFlags:     gauge("error_flags", "ERR_STAT bit field."),
		LastRefresh:    gauge("last_refresh_timestamp_seconds", "Unix time of the last status refresh."),
	}
	reg.MustRegister(m.Frames, m.Latency, m.Mode, m.ActualPosition, m.TargetPosition,
		m.ActualVelocity, m.LoadFactor, m.SupplyVoltage, m.ErrorFlags, m.LastRefresh)
	return m
}

// ObserveFrame records one round trip. The result label is "ok", the
// protocol error kind, or "transport".
func (m *MotorMetrics) ObserveFrame(op mactalk.Op, register uint8, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		if kind := mactalk.KindOf(err); kind != mactalk.KindUnknown {
			result = kind.String()
		} else {
			result = "transport"
		}
	}
	m.Frames.WithLabelValues(string(op), result).Inc()
	m.Latency.WithLabelValues(string(op)).Observe(elapsed.Seconds())
}

// ObserveStatus copies a status snapshot into the gauges
func (m *MotorMetrics) ObserveStatus(s mac50.Status) {
	m.Mode.Set(float64(s.Mode))
	m.ActualPosition.Set(float64(s.ActualPosition))
	m.TargetPosition.Set(float64(s.TargetPosition))
	m.ActualVelocity.Set(float64(s.ActualVelocity))
	m.LoadFactor.Set(float64(s.LoadFactor))
	m.SupplyVoltage.Set(float64(s.SupplyVoltage))
	m.ErrorFlags.Set(float64(s.ErrorFlags))
	if !s.UpdatedAt.IsZero() {
		m.LastRefresh.Set(float64(s.UpdatedAt.Unix()))
	}
}
