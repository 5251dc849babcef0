package hid

import "runtime"

// Open picks the collection-splitting backend on Windows and the
// multi-interface backend everywhere else, mirroring hid_te.py's
// HIDTouchEncoder constructor, which branches on platform.system() to decide
// how interface 0's endpoints are laid out on the wire.
func Open(serialNumber string) (Backend, error) {
	if runtime.GOOS == "windows" {
		return OpenCollection(serialNumber)
	}
	return OpenMulti(serialNumber)
}
