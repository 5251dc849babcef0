// Package te holds the transport-agnostic core of the touch encoder control
// library: wire-level identifiers and value types (C1), the Session
// capability-set contract shared by both transports (C4), the restart and
// update state machines (C6), and the GUIDE protocol's notification report
// types (C5). The HID and CAN/J1939 transports in pkg/hid and pkg/j1939
// implement the interfaces declared here.
package te

import "fmt"

// ScreenID identifies a GUIDE screen. Construction rejects negative values.
type ScreenID int

// NewScreenID validates and constructs a ScreenID.
func NewScreenID(v int) (ScreenID, error) {
	if v < 0 {
		return 0, fmt.Errorf("screen id must be non-negative, got %d", v)
	}
	return ScreenID(v), nil
}

// VariableID identifies a GUIDE variable within a screen. Construction
// rejects negative values.
type VariableID int

// NewVariableID validates and constructs a VariableID.
func NewVariableID(v int) (VariableID, error) {
	if v < 0 {
		return 0, fmt.Errorf("variable id must be non-negative, got %d", v)
	}
	return VariableID(v), nil
}

// HardwareID enumerates the known TE hardware/transport combinations.
type HardwareID int32

const (
	HardwareTERFUSB HardwareID = 0x00
	HardwareTERFCAN HardwareID = 0x01
	HardwareTEFXUSB HardwareID = 0x10
	HardwareTEFXCAN HardwareID = 0x11
	HardwareTEMX    HardwareID = 0x100
	HardwareBad     HardwareID = -1
)

func (h HardwareID) String() string {
	switch h {
	case HardwareTERFUSB:
		return "TE_RF_USB"
	case HardwareTERFCAN:
		return "TE_RF_CAN"
	case HardwareTEFXUSB:
		return "TE_FX_USB"
	case HardwareTEFXCAN:
		return "TE_FX_CAN"
	case HardwareTEMX:
		return "TE_MX"
	default:
		return "BAD"
	}
}

// ProjectInfoType enumerates the project format carried by a device.
type ProjectInfoType int8

const (
	ProjectInfoUnknown ProjectInfoType = -1
	ProjectInfoGUIDE   ProjectInfoType = 0
	ProjectInfoGIIB    ProjectInfoType = 1
)

// ProjectInfo describes the project format and checksum reported by a
// device. Wire form: 1 byte type, 4 bytes little-endian checksum.
type ProjectInfo struct {
	Type     ProjectInfoType
	Checksum uint32
}

// ProjectInfoFromBytes decodes a 5-byte ProjectInfo wire frame.
func ProjectInfoFromBytes(b []byte) (ProjectInfo, error) {
	if len(b) < 5 {
		return ProjectInfo{}, fmt.Errorf("project info requires 5 bytes, got %d", len(b))
	}
	return ProjectInfo{
		Type:     ProjectInfoType(int8(b[0])),
		Checksum: leUint32(b[1:5]),
	}, nil
}

// Bytes encodes a ProjectInfo to its 5-byte wire form.
func (p ProjectInfo) Bytes() []byte {
	out := make([]byte, 5)
	out[0] = byte(p.Type)
	putLEUint32(out[1:5], p.Checksum)
	return out
}
