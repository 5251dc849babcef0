package logger

import (
	"fmt"
	"log/slog"
)

// Standard field keys for structured logging.
// These keys are designed to be transport-agnostic, supporting both the HID
// and CAN/J1939 transports. Use these keys consistently across all log
// statements so logs from either transport line up under log aggregation.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // correlation ID for a single caller-initiated operation
	KeySpanID  = "span_id"  // sub-operation ID within a traced operation

	// ========================================================================
	// Transport & Session
	// ========================================================================
	KeyTransport   = "transport"   // transport kind: hid, can
	KeyInterfaceID = "interface"   // Session.InterfaceID(): "usb:<serial>" or "<iface>:<hex_addr>"
	KeyBus         = "bus"         // CAN bus device name (can0, can1, ...)
	KeyAddress     = "address"     // J1939 source address
	KeyOpcode      = "opcode"      // command opcode byte
	KeyPGN         = "pgn"         // J1939 Parameter Group Number
	KeyReportID    = "report_id"   // HID report ID
	KeyContextID   = "context_id"  // HID context-sensitive frame context ID
	KeyEndpoint    = "endpoint"    // logical HID endpoint: cmd, widget, sw_ver, rie, update

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyOperation  = "operation"   // high level operation name: authenticate, restart, update, get_var...
	KeyStatus     = "status"      // outward Status value
	KeyDurationMs = "duration_ms" // operation duration in milliseconds
	KeyError      = "error"       // error message
	KeyAttempt    = "attempt"     // retry/poll attempt number

	// ========================================================================
	// Update state machine
	// ========================================================================
	KeyUpdateState = "update_state" // current Update state machine state
	KeyBytesSent   = "bytes_sent"   // cumulative bytes uploaded
	KeyBytesTotal  = "bytes_total"  // total bytes in the update file
	KeyComponent   = "component"    // update component type: bootloader, firmware, project

	// ========================================================================
	// Screen / Variable
	// ========================================================================
	KeyScreenID   = "screen_id"
	KeyVariableID = "variable_id"
)

// TraceID returns a slog.Attr for the correlation ID of an operation.
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for a sub-operation ID.
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// Transport returns a slog.Attr for the transport kind.
func Transport(kind string) slog.Attr {
	return slog.String(KeyTransport, kind)
}

// InterfaceID returns a slog.Attr for a session's interface identifier.
func InterfaceID(id string) slog.Attr {
	return slog.String(KeyInterfaceID, id)
}

// Opcode returns a slog.Attr for a command opcode, formatted as hex.
func Opcode(op byte) slog.Attr {
	return slog.String(KeyOpcode, fmt.Sprintf("0x%02x", op))
}

// PGN returns a slog.Attr for a J1939 Parameter Group Number, formatted as hex.
func PGN(pgn uint32) slog.Attr {
	return slog.String(KeyPGN, fmt.Sprintf("0x%05x", pgn))
}

// Status returns a slog.Attr for an outward Status value.
func Status(s fmt.Stringer) slog.Attr {
	return slog.String(KeyStatus, s.String())
}

// DurationAttr returns a slog.Attr for an operation duration in milliseconds.
func DurationAttr(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error value, or a no-op attr if err is nil.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
