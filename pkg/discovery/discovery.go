// Package discovery enumerates reachable touch encoders over both
// transports: one worker per CAN bus, bounded to the host's CPU count, and a
// single-threaded HID serial-number sweep, ported from
// te/utils/discovery_tool.py's discover_touch_encoders.
package discovery

import (
	"context"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/grayhill/touchencoder/internal/logger"
	"github.com/grayhill/touchencoder/internal/metrics"
	"github.com/grayhill/touchencoder/pkg/config"
	"github.com/grayhill/touchencoder/pkg/hid"
	"github.com/grayhill/touchencoder/pkg/te"
)

// Discover scans every CAN bus in cfg.CAN.BusNames (or every host interface
// whose name contains "can", when the list is empty) and every enumerable
// HID touch encoder, returning one te.Session per discovered device.
//
// CAN buses are scanned concurrently, one worker per bus, through a pool
// bounded by runtime.NumCPU() — the same fixed-fan-out shape the teacher
// uses in pkg/payload/offloader rather than spawning a goroutine per bus
// unbounded. A single bus failing (interface down, scan timeout) is logged
// and excluded; it never aborts the other workers', matching
// discover_tes's ThreadPool.starmap, which collects whatever scan_bus_for_tes
// manages to return from each interface. HID enumeration runs single
// threaded, since hidapi.Enumerate itself already walks every attached
// device in one call.
// m is optional: a nil *metrics.Metrics records nothing.
func Discover(ctx context.Context, cfg *config.Config, m *metrics.Metrics) []te.Session {
	var (
		mu       sync.Mutex
		sessions []te.Session
	)

	busNames := cfg.CAN.BusNames
	if len(busNames) == 0 {
		var err error
		busNames, err = listCANInterfaces()
		if err != nil {
			logger.ErrorCtx(ctx, "discovery: list CAN interfaces failed", "error", err)
		}
	}

	if len(busNames) > 0 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(max(1, runtime.NumCPU()))
		for _, bus := range busNames {
			bus := bus
			g.Go(func() error {
				start := time.Now()
				found, err := scanBus(bus, cfg.CAN.Universal, cfg.Timeouts.ScanForDevices)
				m.RecordBusScan(bus, len(found), time.Since(start), err)
				if err != nil {
					logger.ErrorCtx(gctx, "discovery: CAN bus scan failed", "bus", bus, "error", err)
					return nil
				}
				mu.Lock()
				for _, s := range found {
					sessions = append(sessions, s)
				}
				mu.Unlock()
				logger.InfoCtx(gctx, "discovery: CAN bus scanned", "bus", bus, "found", len(found))
				return nil
			})
		}
		// g.Wait's error is always nil: per-bus failures are logged and
		// swallowed above so one bad interface never cancels its siblings.
		_ = g.Wait()
	}

	start := time.Now()
	hidSessions, err := discoverHID()
	m.RecordHIDSweep(len(hidSessions), time.Since(start), err)
	if err != nil {
		logger.ErrorCtx(ctx, "discovery: HID enumeration failed", "error", err)
	}
	sessions = append(sessions, hidSessions...)

	return sessions
}

// discoverHID opens every distinct serial number hidapi.Enumerate reports,
// ported from hid_utility.py's discover_tes: a device busy or mid-unplug
// just drops out of the result set with a logged warning, instead of
// failing the whole sweep.
func discoverHID() ([]te.Session, error) {
	serials, err := hid.ListSerials()
	if err != nil {
		return nil, err
	}
	var sessions []te.Session
	for _, sn := range serials {
		backend, err := hid.Open(sn)
		if err != nil {
			logger.Errorf("discovery: open HID device %s: %v", sn, err)
			continue
		}
		sessions = append(sessions, hid.NewSession(backend))
	}
	return sessions, nil
}
