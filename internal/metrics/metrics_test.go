package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNew_CreatesAllMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	if m == nil {
		t.Fatal("New returned nil")
	}
	if m.busesScanned == nil {
		t.Error("busesScanned not initialized")
	}
	if m.devicesFound == nil {
		t.Error("devicesFound not initialized")
	}
	if m.scanErrors == nil {
		t.Error("scanErrors not initialized")
	}
	if m.scanDuration == nil {
		t.Error("scanDuration not initialized")
	}
	if m.updateProgress == nil {
		t.Error("updateProgress not initialized")
	}
	if m.updateDuration == nil {
		t.Error("updateDuration not initialized")
	}
	if m.updatesTotal == nil {
		t.Error("updatesTotal not initialized")
	}
}

func TestNew_NilRegistrySkipsRegistration(t *testing.T) {
	m := New(nil)
	if m == nil {
		t.Fatal("New returned nil")
	}
	// Must not panic recording against unregistered collectors.
	m.RecordBusScan("can0", 1, time.Millisecond, nil)
}

func TestNilMetrics_RecordingIsNoOp(t *testing.T) {
	var m *Metrics
	m.RecordBusScan("can0", 1, time.Millisecond, nil)
	m.RecordHIDSweep(1, time.Millisecond, nil)
	m.RecordUpdateProgress("usb:1234", "UPDATING", 1, 2)
	m.RecordUpdateResult("hid", "success", time.Second)
}

func TestRecordBusScan_IncrementsCounters(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.RecordBusScan("can0", 2, 10*time.Millisecond, nil)
	m.RecordBusScan("can1", 0, 5*time.Millisecond, errors.New("scan failed"))

	mfs, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	want := map[string]bool{
		"touchencoder_discovery_can_buses_scanned_total": false,
		"touchencoder_discovery_devices_found_total":     false,
		"touchencoder_discovery_scan_errors_total":       false,
	}
	for _, mf := range mfs {
		if _, ok := want[mf.GetName()]; ok {
			want[mf.GetName()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("expected metric %s", name)
		}
	}
}

func TestRecordUpdateProgress_SkipsZeroTotal(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.RecordUpdateProgress("usb:1234", "UPDATING", 0, 0)

	mfs, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() == "touchencoder_update_progress_percent" && len(mf.GetMetric()) != 0 {
			t.Errorf("expected no samples for zero-total progress, got %d", len(mf.GetMetric()))
		}
	}
}
