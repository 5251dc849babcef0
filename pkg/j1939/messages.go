package j1939

import (
	"encoding/binary"
	"fmt"
	"regexp"

	"github.com/grayhill/touchencoder/pkg/te"
)

// Frame is the minimal decoded CAN frame this package's parsers consume: a
// source address, a PGN, and the payload bytes (already reassembled from
// Transport Protocol if the frame was segmented).
type Frame struct {
	SourceAddress byte
	PGN           PGN
	Data          []byte
}

func requirePGN(f Frame, want PGN) error {
	if f.PGN != want {
		return fmt.Errorf("j1939: frame carries pgn 0x%05X, want 0x%05X", uint32(f.PGN), uint32(want))
	}
	return nil
}

func requireSourceAddress(f Frame, want byte) error {
	if f.SourceAddress != want {
		return fmt.Errorf("j1939: frame source address %d, want %d", f.SourceAddress, want)
	}
	return nil
}

// AddressClaim is a decoded ADDRESS_CLAIMED frame, grounded on
// j1939_messages.py's AddressClaimMsg.
type AddressClaim struct {
	SourceAddress byte
	Name          Name
}

// ParseAddressClaim decodes an ADDRESS_CLAIMED frame.
func ParseAddressClaim(f Frame) (AddressClaim, error) {
	if err := requirePGN(f, PGNAddressClaimed); err != nil {
		return AddressClaim{}, err
	}
	if len(f.Data) < 8 {
		return AddressClaim{}, fmt.Errorf("j1939: address claim frame too short")
	}
	return AddressClaim{SourceAddress: f.SourceAddress, Name: NameFromBytes(f.Data[:8])}, nil
}

// RequestMsg is a decoded PGN_REQUEST frame: another node asking this CA to
// (re-)transmit the 3-byte-LE-encoded requestedPGN, grounded on
// j1939_ca_universal.py's RequestMsg. spec.md's scan_for_devices only
// describes the sending side of this exchange; answering inbound requests
// for ADDRESS_CLAIMED is the other half of standard J1939 address-claim
// etiquette, supplemented from the original implementation.
type RequestMsg struct {
	SourceAddress byte
	RequestedPGN  PGN
}

// ParseRequestMsg decodes a PGN_REQUEST frame.
func ParseRequestMsg(f Frame) (RequestMsg, error) {
	if err := requirePGN(f, PGNRequest); err != nil {
		return RequestMsg{}, err
	}
	if len(f.Data) < 3 {
		return RequestMsg{}, fmt.Errorf("j1939: request frame too short")
	}
	requested := uint32(f.Data[0]) | uint32(f.Data[1])<<8 | uint32(f.Data[2])<<16
	return RequestMsg{SourceAddress: f.SourceAddress, RequestedPGN: PGN(requested)}, nil
}

// AckCode is the byte carried in an ACKNOWLEDGEMENT frame's first byte,
// grounded on j1939_te_statics.py.
type AckCode int

const (
	AckCodeOK           AckCode = 0
	AckCodeNack         AckCode = 1
	AckCodeAccessDenied AckCode = 2
	AckCodeCantRespond  AckCode = 3
)

// Ack is a decoded ACKNOWLEDGEMENT frame: byte 0 = ack code, byte 1 = echoed
// group function (command opcode), bytes 2..4 = echoed PGN.
type Ack struct {
	Code         AckCode
	GroupFunc    byte
	EchoedPGN    PGN
}

// ParseAck decodes an ACKNOWLEDGEMENT frame from a known source address.
func ParseAck(f Frame, sourceAddress byte) (Ack, error) {
	if err := requireSourceAddress(f, sourceAddress); err != nil {
		return Ack{}, err
	}
	if err := requirePGN(f, PGNAcknowledgement); err != nil {
		return Ack{}, err
	}
	if len(f.Data) != 8 {
		return Ack{}, fmt.Errorf("j1939: ack frame must be 8 bytes, got %d", len(f.Data))
	}
	return Ack{
		Code:      AckCode(f.Data[0]),
		GroupFunc: f.Data[1],
		EchoedPGN: PGNFromBytes(f.Data[2:5]) & 0x3FFFF,
	}, nil
}

// ParseUpdateConfirmation decodes the LIVE_UPDATE acknowledgement into the
// shared te.UpdateConfirmation, translating CAN's polarity (0=accept,
// 2=rejected, 3=device busy — inverted from HID's 1=accept) per spec.md §9.
func ParseUpdateConfirmation(f Frame, sourceAddress byte) (te.UpdateConfirmation, error) {
	ack, err := ParseAck(f, sourceAddress)
	if err != nil {
		return 0, err
	}
	if ack.GroupFunc != cmdLiveUpdate {
		return 0, fmt.Errorf("j1939: ack echoes command 0x%02X, want LIVE_UPDATE", ack.GroupFunc)
	}
	switch ack.Code {
	case AckCodeOK:
		return te.UpdateConfirmAccepted, nil
	case AckCodeAccessDenied:
		return te.UpdateConfirmRejected, nil
	case AckCodeCantRespond:
		return te.UpdateConfirmDeviceBusy, nil
	default:
		return te.UpdateConfirmOther, nil
	}
}

// cmdRestart / cmdRestartUtil mirror touch_encoder.py's Commands class.
const (
	cmdRestart     = 0x44
	cmdRestartUtil = 0x45
)

// ParseRestartAck decodes a RESTART/RESTART_UTILITY_APP acknowledgement,
// grounded on j1939_messages.py's RestartAckMsg: an Ack whose echoed group
// function is one of the two restart opcodes.
func ParseRestartAck(f Frame, sourceAddress byte) (Ack, error) {
	ack, err := ParseAck(f, sourceAddress)
	if err != nil {
		return Ack{}, err
	}
	if ack.GroupFunc != cmdRestart && ack.GroupFunc != cmdRestartUtil {
		return Ack{}, fmt.Errorf("j1939: ack echoes command 0x%02X, want RESTART", ack.GroupFunc)
	}
	return ack, nil
}

// softwareIDPattern decodes the ASCII SOFTWARE_ID payload's
// "F:x.y.z*B:x.y.z*P:x.y.z*" text form, grounded on j1939_messages.py's
// SoftwareIDMsg.version.
var softwareIDPattern = regexp.MustCompile(`F:(\d+\.\d+\.\d+)\*B:(\d+\.\d+\.\d+)\*(P:(\d+\.\d+\.\d+)\*)?`)

// ParseSoftwareID decodes a SOFTWARE_ID response into the shared te.Version.
func ParseSoftwareID(f Frame, sourceAddress byte) (te.Version, error) {
	if err := requireSourceAddress(f, sourceAddress); err != nil {
		return te.Version{}, err
	}
	if err := requirePGN(f, PGNSoftwareID); err != nil {
		return te.Version{}, err
	}
	m := softwareIDPattern.FindSubmatch(f.Data)
	if m == nil {
		return te.Version{}, fmt.Errorf("j1939: software id payload %q doesn't match expected form", f.Data)
	}
	v := te.NewVersion()
	v.Firmware = string(m[1])
	v.Bootloader = string(m[2])
	if len(m[4]) > 0 {
		v.Project = string(m[4])
	}
	return v, nil
}

// ParseHardwareID decodes a GET_HARDWARE_ID response carried on
// COMMAND_DATA: [command][hardware_id:4 LE].
func ParseHardwareID(f Frame, sourceAddress byte) (te.HardwareID, error) {
	if err := requireSourceAddress(f, sourceAddress); err != nil {
		return 0, err
	}
	if err := requirePGN(f, PGNCommandData); err != nil {
		return 0, err
	}
	if len(f.Data) < 5 || f.Data[0] != cmdGetHardwareID {
		return 0, fmt.Errorf("j1939: invalid hardware id response")
	}
	return te.HardwareID(binary.LittleEndian.Uint32(f.Data[1:5])), nil
}

// ParseProjectInfo decodes a GET_PROJECT_INFO response carried on
// COMMAND_DATA: [command][project_info: 5 bytes].
func ParseProjectInfo(f Frame, sourceAddress byte) (te.ProjectInfo, error) {
	if err := requireSourceAddress(f, sourceAddress); err != nil {
		return te.ProjectInfo{}, err
	}
	if err := requirePGN(f, PGNCommandData); err != nil {
		return te.ProjectInfo{}, err
	}
	if len(f.Data) < 6 || f.Data[0] != cmdGetProjectInfo {
		return te.ProjectInfo{}, fmt.Errorf("j1939: invalid project info response")
	}
	return te.ProjectInfoFromBytes(f.Data[1:6])
}

// Auth is a decoded AUTHENTICATION-PGN frame: [auth_state][challenge:4 LE].
type Auth struct {
	State     te.AuthState
	Challenge uint32
}

// ParseAuth decodes an authentication frame.
func ParseAuth(f Frame, sourceAddress byte) (Auth, error) {
	if err := requireSourceAddress(f, sourceAddress); err != nil {
		return Auth{}, err
	}
	if err := requirePGN(f, PGNAuth); err != nil {
		return Auth{}, err
	}
	if len(f.Data) < 5 {
		return Auth{}, fmt.Errorf("j1939: auth frame too short")
	}
	return Auth{State: te.AuthState(f.Data[0]), Challenge: binary.LittleEndian.Uint32(f.Data[1:5])}, nil
}

// ParseUpdateStatus decodes an UPDATE_STATUS frame on the session PGN into
// the shared te.UpdateStatusFrame. Unlike HID's single fixed report, the
// CAN payload's status-type-dependent length is validated per
// j1939_messages.py's UpdateStatusMsg before the shared byte offsets are read.
func ParseUpdateStatus(f Frame, sourceAddress byte, sessionPGN PGN) (te.UpdateStatusFrame, error) {
	if err := requireSourceAddress(f, sourceAddress); err != nil {
		return te.UpdateStatusFrame{}, err
	}
	if err := requirePGN(f, sessionPGN); err != nil {
		return te.UpdateStatusFrame{}, err
	}
	if len(f.Data) < 1 {
		return te.UpdateStatusFrame{}, fmt.Errorf("j1939: update status frame empty")
	}
	statusType := te.UpdateStatusType(f.Data[0])
	switch statusType {
	case te.UpdateStatusTypeUpload:
		if len(f.Data) != 2 {
			return te.UpdateStatusFrame{}, fmt.Errorf("j1939: upload status frame must be 2 bytes")
		}
	case te.UpdateStatusTypeUpdate:
		if len(f.Data) < 2 {
			return te.UpdateStatusFrame{}, fmt.Errorf("j1939: update status frame too short")
		}
	case te.UpdateStatusTypeComponent:
		if len(f.Data) < 7 {
			return te.UpdateStatusFrame{}, fmt.Errorf("j1939: component status frame too short")
		}
	default:
		return te.UpdateStatusFrame{}, fmt.Errorf("j1939: unknown update status type %d", f.Data[0])
	}

	frame := te.UpdateStatusFrame{
		Type:      statusType,
		UploadErr: te.UploadError(f.Data[1]),
		Status:    te.UpdateStatus(int8(f.Data[1])),
	}
	if statusType == te.UpdateStatusTypeComponent {
		frame.ComponentType = te.ComponentType(f.Data[1])
		frame.ComponentStatus = te.ComponentStatus(f.Data[2])
		frame.ComponentProgress = int(binary.LittleEndian.Uint32(f.Data[3:7]))
	}
	return frame, nil
}

// cmdGetHardwareID / cmdGetProjectInfo / cmdLiveUpdate mirror
// touch_encoder.py's Commands class (shared opcodes across both transports).
const (
	cmdGetHardwareID  = 0xC2
	cmdGetProjectInfo = 0xC3
	cmdLiveUpdate     = 0x55
)

// Calibration is a decoded CALIBRATION-PGN frame (spec.md §6): either raw
// form ([raw_angle:2 LE, 0xFF, 0xFF, position, ...]) or calibrated form
// ([position, raw_angle:2 LE, 0,0,0xFF,0xFF,0xFF]), disambiguated by
// whether bytes 2 and 3 both read 0xFF.
type Calibration struct {
	Raw      bool
	Position int
	Angle    float64
}

// ParseCalibration decodes a CALIBRATION frame.
func ParseCalibration(f Frame, sourceAddress byte) (Calibration, error) {
	if err := requireSourceAddress(f, sourceAddress); err != nil {
		return Calibration{}, err
	}
	if err := requirePGN(f, PGNCalibration); err != nil {
		return Calibration{}, err
	}
	if len(f.Data) < 5 {
		return Calibration{}, fmt.Errorf("j1939: calibration frame too short")
	}

	var rawAngle uint16
	var c Calibration
	if f.Data[2] == 0xFF && f.Data[3] == 0xFF {
		c.Raw = true
		c.Position = int(f.Data[4])
		rawAngle = binary.LittleEndian.Uint16(f.Data[0:2])
	} else {
		c.Raw = false
		c.Position = int(f.Data[0])
		rawAngle = binary.LittleEndian.Uint16(f.Data[1:3])
	}
	c.Angle = float64(rawAngle) * 360 / 65536
	return c, nil
}

// GUIDE notification frames share the GUIDE PGN; dispatch on Data[0] exactly
// as the HID widget channel does, producing the same transport-agnostic
// types declared in pkg/te/guide_reports.go. Byte offsets mirror
// j1939_messages.py's Guide*Msg classes, which diverge slightly from the
// HID report layouts (the CAN payload omits HID's reserved byte before a
// TAP gesture's x/y) — kept as-is per spec.md §9's anti-normalization note
// rather than forced to match the HID offsets.

// ParseGuideIntVar decodes a GUIDE INT_VAR notification.
func ParseGuideIntVar(f Frame) (te.IntVarReport, error) {
	if err := requirePGN(f, PGNGuide); err != nil {
		return te.IntVarReport{}, err
	}
	if len(f.Data) < 7 {
		return te.IntVarReport{}, fmt.Errorf("j1939: guide int var frame too short")
	}
	return te.IntVarReport{
		ScreenID:   te.ScreenID(f.Data[1]),
		VariableID: te.VariableID(f.Data[2]),
		Value:      int32(binary.LittleEndian.Uint32(f.Data[3:7])),
	}, nil
}

// ParseGuideStringVar decodes a GUIDE STRING_VAR notification.
func ParseGuideStringVar(f Frame) (te.StringVarReport, error) {
	if err := requirePGN(f, PGNGuide); err != nil {
		return te.StringVarReport{}, err
	}
	if len(f.Data) < 3 {
		return te.StringVarReport{}, fmt.Errorf("j1939: guide string var frame too short")
	}
	return te.StringVarReport{
		ScreenID:   te.ScreenID(f.Data[1]),
		VariableID: te.VariableID(f.Data[2]),
		Value:      string(f.Data[3:]),
	}, nil
}

// ParseGuideKnobEvent decodes a GUIDE KNOB_EVENT notification.
func ParseGuideKnobEvent(f Frame) (te.KnobEventReport, error) {
	if err := requirePGN(f, PGNGuide); err != nil {
		return te.KnobEventReport{}, err
	}
	if len(f.Data) < 5 {
		return te.KnobEventReport{}, fmt.Errorf("j1939: guide knob event frame too short")
	}
	return te.KnobEventReport{
		ElementID: int(f.Data[1]),
		Delta:     int16(binary.LittleEndian.Uint16(f.Data[3:5])),
	}, nil
}

// ParseGuideTouchEvent decodes a GUIDE TOUCH_EVENT notification.
func ParseGuideTouchEvent(f Frame) (te.TouchEventReport, error) {
	if err := requirePGN(f, PGNGuide); err != nil {
		return te.TouchEventReport{}, err
	}
	if len(f.Data) < 8 {
		return te.TouchEventReport{}, fmt.Errorf("j1939: guide touch event frame too short")
	}
	return te.TouchEventReport{
		ElementID: int(f.Data[1]),
		Type:      te.TouchType(f.Data[2]),
		X:         int16(binary.LittleEndian.Uint16(f.Data[4:6])),
		Y:         int16(binary.LittleEndian.Uint16(f.Data[6:8])),
	}, nil
}

// ParseGuideGestureEvent decodes a GUIDE GESTURE_EVENT notification. Per
// j1939_messages.py's GuideGestureEventMsg, the CAN payload's TAP x/y sit
// one byte earlier than the HID layout (offsets 3 and 5, not 4 and 6).
func ParseGuideGestureEvent(f Frame) (te.GestureEventReport, error) {
	if err := requirePGN(f, PGNGuide); err != nil {
		return te.GestureEventReport{}, err
	}
	if len(f.Data) < 4 {
		return te.GestureEventReport{}, fmt.Errorf("j1939: guide gesture event frame too short")
	}
	r := te.GestureEventReport{
		ElementID: int(f.Data[1]),
		Type:      te.GestureType(f.Data[2]),
	}
	switch r.Type {
	case te.GestureTap:
		if len(f.Data) < 7 {
			return te.GestureEventReport{}, fmt.Errorf("j1939: tap gesture frame too short")
		}
		r.X = int16(binary.LittleEndian.Uint16(f.Data[3:5]))
		r.Y = int16(binary.LittleEndian.Uint16(f.Data[5:7]))
	default:
		r.Direction = te.SwipeDirection(f.Data[3])
	}
	return r, nil
}
