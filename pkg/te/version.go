package te

import (
	"fmt"
	"strings"
)

const versionNotFound = "Not Found"

// Version holds the four independently-versioned components a device
// reports: firmware, bootloader, project, and an optional custom module.
// Each string defaults to "Not Found" until populated by a refresh.
type Version struct {
	Firmware     string
	Bootloader   string
	Project      string
	CustomModule string
}

// NewVersion constructs a Version with every component defaulted to
// "Not Found", matching a freshly discovered device that hasn't yet had its
// version info refreshed.
func NewVersion() Version {
	return Version{
		Firmware:     versionNotFound,
		Bootloader:   versionNotFound,
		Project:      versionNotFound,
		CustomModule: versionNotFound,
	}
}

// String renders the version info in the protocol's textual wire form:
// one "FW:x.y.z"-style line per component, newline separated.
func (v Version) String() string {
	lines := []string{
		"FW:" + v.Firmware,
		"BL:" + v.Bootloader,
		"PJ:" + v.Project,
	}
	if v.CustomModule != "" && v.CustomModule != versionNotFound {
		lines = append(lines, "CM:"+v.CustomModule)
	}
	return strings.Join(lines, "\n")
}

// DecodeVersionTriplet parses a 6-byte payload of three little-endian u16s
// (major, minor, patch) into a "major.minor.patch" string, per spec.md §4.4.
func DecodeVersionTriplet(b []byte) (string, error) {
	if len(b) < 6 {
		return "", fmt.Errorf("version triplet requires 6 bytes, got %d", len(b))
	}
	major := leUint16(b[0:2])
	minor := leUint16(b[2:4])
	patch := leUint16(b[4:6])
	return fmt.Sprintf("%d.%d.%d", major, minor, patch), nil
}
