//go:build linux

package j1939

import (
	"reflect"

	"github.com/brutella/can"
	"golang.org/x/sys/unix"
)

// setSendBufferLinux reaches into brutella/can.Bus's unexported raw socket
// file descriptor to raise SO_SNDBUF, the same setsockopt
// j1939_ca_universal.py's CustomECU.connect() performs on the python-can
// socketcan bus. The field isn't part of the package's public API, so this
// is a best-effort tuning hook: a failure to locate or set it is silently
// ignored rather than surfaced, since the bus is perfectly usable at the
// kernel's default buffer size.
func setSendBufferLinux(bus *can.Bus, bytes int) {
	v := reflect.ValueOf(bus).Elem()
	fdField := v.FieldByName("fd")
	if !fdField.IsValid() {
		return
	}
	fd := int(fdField.Int())
	_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_SNDBUF, bytes)
}
