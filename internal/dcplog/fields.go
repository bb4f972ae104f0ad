package dcplog

import (
	"fmt"
	"log/slog"
)

// Standard field keys for structured logging across the dcpclient
// package. Use these keys consistently across all log statements.
const (
	// ========================================================================
	// Tracing & correlation
	// ========================================================================
	KeyTraceID      = "trace_id"
	KeyConnectionID = "connection_id"

	// ========================================================================
	// Protocol & connection identity
	// ========================================================================
	KeyDeviceName = "device_name" // this client's registered 16-byte device name
	KeyServerAddr = "server_addr" // hub host:port
	KeyState      = "state"       // connection state (Unconnected, Connecting, ...)
	KeySnr        = "snr"         // message serial number

	// ========================================================================
	// Message metadata
	// ========================================================================
	KeySource      = "source"      // message source device name
	KeyDestination = "destination" // message destination device name
	KeyDataLen     = "data_len"    // message payload length in bytes
	KeyFlags       = "flags"       // message flags word (hex)

	// ========================================================================
	// Operation metadata
	// ========================================================================
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeyErrorCode  = "error_code"
)

// Trace returns a trace_id attribute.
func Trace(traceID string) slog.Attr {
	return slog.String(KeyTraceID, traceID)
}

// ConnID returns a connection_id attribute.
func ConnID(id string) slog.Attr {
	return slog.String(KeyConnectionID, id)
}

// Device returns a device_name attribute.
func Device(name string) slog.Attr {
	return slog.String(KeyDeviceName, name)
}

// ServerAddr returns a server_addr attribute.
func ServerAddr(addr string) slog.Attr {
	return slog.String(KeyServerAddr, addr)
}

// State returns a state attribute.
func State(state fmt.Stringer) slog.Attr {
	return slog.String(KeyState, state.String())
}

// Snr returns a snr attribute.
func Snr(snr uint32) slog.Attr {
	return slog.Uint64(KeySnr, uint64(snr))
}

// Err returns an error attribute, or a zero-value attribute if err is nil.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// DurationMs returns a duration_ms attribute.
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}
