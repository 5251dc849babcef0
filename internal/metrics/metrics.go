// Package metrics provides optional Prometheus instrumentation for
// discovery and update progress (spec.md's Non-goals exclude an
// observability layer from the protocol itself, but the teacher always
// ships metrics alongside its domain packages, so this is carried as
// ambient infrastructure rather than dropped).
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Label constants, grounded on pkg/metadata/lock's Label* convention.
const (
	LabelTransport = "transport" // "hid" or "can"
	LabelBus       = "bus"       // CAN interface name, empty for HID
	LabelResult    = "result"    // "success", "failure", "timeout", "error"
	LabelState     = "state"     // UpdateState name
)

// Metrics holds every counter/gauge/histogram this package registers.
// Constructed once at process start via New and handed down to the
// discovery and session layers; a nil *Metrics is valid everywhere it's
// used and every method is a safe no-op, so callers that don't want
// metrics (cfg.Metrics.Enabled == false) simply never construct one.
type Metrics struct {
	busesScanned   *prometheus.CounterVec
	devicesFound   *prometheus.CounterVec
	scanErrors     *prometheus.CounterVec
	scanDuration   *prometheus.HistogramVec
	updateProgress *prometheus.GaugeVec
	updateDuration *prometheus.HistogramVec
	updatesTotal   *prometheus.CounterVec
}

// New creates and registers metrics against registry. If registry is nil,
// the collectors are created but never registered, the same
// testing-friendly contract as pkg/metadata/lock.NewMetrics in the teacher.
func New(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		busesScanned: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "touchencoder",
				Subsystem: "discovery",
				Name:      "can_buses_scanned_total",
				Help:      "Total number of CAN bus scan attempts, by outcome",
			},
			[]string{LabelBus, LabelResult},
		),
		devicesFound: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "touchencoder",
				Subsystem: "discovery",
				Name:      "devices_found_total",
				Help:      "Total number of touch encoders discovered, by transport",
			},
			[]string{LabelTransport, LabelBus},
		),
		scanErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "touchencoder",
				Subsystem: "discovery",
				Name:      "scan_errors_total",
				Help:      "Total number of discovery errors, by transport",
			},
			[]string{LabelTransport, LabelBus},
		),
		scanDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "touchencoder",
				Subsystem: "discovery",
				Name:      "scan_duration_seconds",
				Help:      "Time spent scanning a single CAN bus or sweeping HID",
				Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{LabelTransport},
		),
		updateProgress: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "touchencoder",
				Subsystem: "update",
				Name:      "progress_percent",
				Help:      "Most recent firmware/project update progress, by device interface id",
			},
			[]string{"interface_id", LabelState},
		),
		updateDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "touchencoder",
				Subsystem: "update",
				Name:      "duration_seconds",
				Help:      "Total wall-clock duration of a completed update call",
				Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{LabelTransport, LabelResult},
		),
		updatesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "touchencoder",
				Subsystem: "update",
				Name:      "total",
				Help:      "Total number of completed update calls, by outcome",
			},
			[]string{LabelTransport, LabelResult},
		),
	}

	if registry != nil {
		registry.MustRegister(
			m.busesScanned,
			m.devicesFound,
			m.scanErrors,
			m.scanDuration,
			m.updateProgress,
			m.updateDuration,
			m.updatesTotal,
		)
	}
	return m
}

// RecordBusScan records the outcome of scanning a single CAN bus.
func (m *Metrics) RecordBusScan(bus string, found int, duration time.Duration, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
		m.scanErrors.WithLabelValues("can", bus).Inc()
	}
	m.busesScanned.WithLabelValues(bus, result).Inc()
	m.devicesFound.WithLabelValues("can", bus).Add(float64(found))
	m.scanDuration.WithLabelValues("can").Observe(duration.Seconds())
}

// RecordHIDSweep records the outcome of one HID enumeration pass.
func (m *Metrics) RecordHIDSweep(found int, duration time.Duration, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
		m.scanErrors.WithLabelValues("hid", "").Inc()
	}
	m.busesScanned.WithLabelValues("", result).Inc()
	m.devicesFound.WithLabelValues("hid", "").Add(float64(found))
	m.scanDuration.WithLabelValues("hid").Observe(duration.Seconds())
}

// RecordUpdateProgress mirrors one progress_cb invocation into a gauge,
// exercising the te.ProgressFunc callback SPEC_FULL.md's update section
// names as the Prometheus consumer.
func (m *Metrics) RecordUpdateProgress(interfaceID, state string, completed, total int) {
	if m == nil || total <= 0 {
		return
	}
	pct := float64(completed) / float64(total) * 100
	m.updateProgress.WithLabelValues(interfaceID, state).Set(pct)
}

// RecordUpdateResult records a completed Update call's outcome and duration.
func (m *Metrics) RecordUpdateResult(transport, result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.updatesTotal.WithLabelValues(transport, result).Inc()
	m.updateDuration.WithLabelValues(transport, result).Observe(duration.Seconds())
}
