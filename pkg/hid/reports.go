// Package hid implements the HID transport (C2): device enumeration,
// hot-plug watching, and the typed report parsers and session built on top
// of the shared pkg/te state machines.
package hid

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/grayhill/touchencoder/pkg/te"
)

// ReportID identifies the logical report a raw HID input/feature report
// carries in its first byte, grounded on
// original_source/te/interface/hid/hid_reports.py's ReportIDs class. Report
// IDs are scoped per HID collection/endpoint, so the same numeric ID (3, 4)
// means something different on the cmd channel (context-sensitive data
// framing) than it does on the widget channel (GUIDE INT_VAR/STRING_VAR
// notifications, pkg/te/guide_reports.go) — the two are never read as the
// same byte stream.
type ReportID byte

const (
	ReportGIIBEvent   ReportID = 1
	ReportCSDataLong  ReportID = 3
	ReportCSDataShort ReportID = 4
	ReportCommandAck  ReportID = 5
	ReportUpdateData  ReportID = 8
	ReportUpdateStat  ReportID = 9
	ReportBLVersion   ReportID = 16
	ReportFWVersion   ReportID = 17
	ReportProjVersion ReportID = 18
	ReportCModVersion ReportID = 19
)

// ContextID discriminates the payload carried by a context-sensitive data
// frame on the cmd/widget channel. SCREEN/VARIABLE/INT_VARIABLE/
// STRING_VARIABLE are GUIDE sub-commands; Auth is this module's context ID
// for the ST_AUTH challenge/response exchange — the original source's
// hid_te_statics module (which defines it) was not present in the retrieval
// pack, so the numeric value is chosen to not collide with the GUIDE
// sub-commands rather than grounded on a specific byte.
type ContextID byte

const (
	ContextScreen         ContextID = 0x01
	ContextVariable       ContextID = 0x02
	ContextIntVariable    ContextID = 0x03
	ContextStringVariable ContextID = 0x04
	ContextAuth           ContextID = 0x05
)

// AckCode is the single-byte status carried by a COMMAND_ACK report.
type AckCode int8

const (
	AckOK          AckCode = 1
	AckUnknown     AckCode = 0
	AckErr         AckCode = -1
	AckAccessDenied AckCode = -2
)

// BaseReport is the minimal parse shared by every report: its ID and raw bytes.
type BaseReport struct {
	ReportID ReportID
	Raw      []byte
}

// ParseBaseReport validates that raw is non-empty and extracts its report ID.
func ParseBaseReport(raw []byte) (BaseReport, error) {
	if len(raw) == 0 {
		return BaseReport{}, fmt.Errorf("hid: empty report")
	}
	return BaseReport{ReportID: ReportID(raw[0]), Raw: raw}, nil
}

// ContextSensitiveReport is the cmd/widget channel's variable-length framing,
// used for anything too big for a fixed report (GUIDE get/set, auth).
// Short form (report ID 4): [4][context_id][size][data...], size <= 61.
// Long form (report ID 3): [3][context_id][size:2 LE][data...], size <= 1020.
type ContextSensitiveReport struct {
	ReportID  ReportID
	ContextID ContextID
	Data      []byte
}

// ParseContextSensitiveReport decodes either CS framing by report ID.
func ParseContextSensitiveReport(raw []byte) (ContextSensitiveReport, error) {
	base, err := ParseBaseReport(raw)
	if err != nil {
		return ContextSensitiveReport{}, err
	}
	if len(raw) < 2 {
		return ContextSensitiveReport{}, fmt.Errorf("hid: context-sensitive report too short")
	}
	ctxID := ContextID(raw[1])

	switch base.ReportID {
	case ReportCSDataShort:
		if len(raw) < 3 {
			return ContextSensitiveReport{}, fmt.Errorf("hid: short CS report too short")
		}
		size := int(raw[2])
		if len(raw) < 3+size {
			return ContextSensitiveReport{}, fmt.Errorf("hid: short CS report truncated: want %d have %d", size, len(raw)-3)
		}
		return ContextSensitiveReport{ReportID: base.ReportID, ContextID: ctxID, Data: raw[3 : 3+size]}, nil
	case ReportCSDataLong:
		if len(raw) < 4 {
			return ContextSensitiveReport{}, fmt.Errorf("hid: long CS report too short")
		}
		size := int(binary.LittleEndian.Uint16(raw[2:4]))
		if len(raw) < 4+size {
			return ContextSensitiveReport{}, fmt.Errorf("hid: long CS report truncated: want %d have %d", size, len(raw)-4)
		}
		return ContextSensitiveReport{ReportID: base.ReportID, ContextID: ctxID, Data: raw[4 : 4+size]}, nil
	default:
		return ContextSensitiveReport{}, fmt.Errorf("hid: report id %d is not context-sensitive", base.ReportID)
	}
}

// BuildContextSensitiveReport frames contextID and the concatenation of
// fragments as an outgoing CS data report, choosing short framing when the
// payload fits in 61 bytes and long framing up to 1020, mirroring
// ContextSensitiveReport.from_fragments.
func BuildContextSensitiveReport(contextID ContextID, fragments ...[]byte) ([]byte, error) {
	var payload []byte
	for _, f := range fragments {
		payload = append(payload, f...)
	}
	sz := len(payload)

	switch {
	case sz <= 61:
		out := make([]byte, 3+sz)
		out[0] = byte(ReportCSDataShort)
		out[1] = byte(contextID)
		out[2] = byte(sz)
		copy(out[3:], payload)
		return out, nil
	case sz <= 1020:
		out := make([]byte, 4+sz)
		out[0] = byte(ReportCSDataLong)
		out[1] = byte(contextID)
		binary.LittleEndian.PutUint16(out[2:4], uint16(sz))
		copy(out[4:], payload)
		return out, nil
	default:
		return nil, fmt.Errorf("hid: data too big for cs data report: %d bytes", sz)
	}
}

// AckReport is the fixed 11-byte COMMAND_ACK response: [5][command][code:1
// signed][data...8 bytes].
type AckReport struct {
	Command byte
	Code    AckCode
	Data    []byte
}

const ackReportLength = 11

// ParseAckReport decodes a COMMAND_ACK report.
func ParseAckReport(raw []byte) (AckReport, error) {
	if len(raw) < ackReportLength {
		return AckReport{}, fmt.Errorf("hid: ack report too short: %d bytes", len(raw))
	}
	if ReportID(raw[0]) != ReportCommandAck {
		return AckReport{}, fmt.Errorf("hid: report id %d is not COMMAND_ACK", raw[0])
	}
	return AckReport{
		Command: raw[1],
		Code:    AckCode(int8(raw[2])),
		Data:    raw[3:],
	}, nil
}

// cmdGetHardwareID / cmdGetProjectInfo / cmdLiveUpdate mirror
// touch_encoder.py's Commands class, needed only to validate an ack's
// echoed command byte. START_CALIB's numeric opcode does not appear
// anywhere in the retrieval pack, so ParseCalibrationReport below does not
// validate the echoed command byte — only the ack code.
const (
	cmdGetHardwareID  = 0xC2
	cmdGetProjectInfo = 0xC3
	cmdLiveUpdate     = 0x55
)

// ParseHardwareIDReport decodes the GET_HARDWARE_ID response.
func ParseHardwareIDReport(raw []byte) (te.HardwareID, error) {
	ack, err := ParseAckReport(raw)
	if err != nil {
		return 0, err
	}
	if ack.Command != cmdGetHardwareID {
		return 0, fmt.Errorf("hid: ack echoes command 0x%02X, want GET_HARDWARE_ID", ack.Command)
	}
	if len(ack.Data) < 4 {
		return 0, fmt.Errorf("hid: hardware id ack too short")
	}
	return te.HardwareID(binary.LittleEndian.Uint32(ack.Data[:4])), nil
}

// ParseProjectInfoReport decodes the GET_PROJECT_INFO response.
func ParseProjectInfoReport(raw []byte) (te.ProjectInfo, error) {
	ack, err := ParseAckReport(raw)
	if err != nil {
		return te.ProjectInfo{}, err
	}
	if ack.Command != cmdGetProjectInfo {
		return te.ProjectInfo{}, fmt.Errorf("hid: ack echoes command 0x%02X, want GET_PROJECT_INFO", ack.Command)
	}
	if len(ack.Data) < 5 {
		return te.ProjectInfo{}, fmt.Errorf("hid: project info ack too short")
	}
	return te.ProjectInfoFromBytes(ack.Data[:5])
}

// AuthReport is the ST_AUTH challenge/response context-sensitive frame:
// [4 or 3][AUTH][size...][auth_state][challenge:4 LE].
type AuthReport struct {
	State     te.AuthState
	Challenge uint32
}

// ParseAuthReport decodes an auth context-sensitive report.
func ParseAuthReport(raw []byte) (AuthReport, error) {
	cs, err := ParseContextSensitiveReport(raw)
	if err != nil {
		return AuthReport{}, err
	}
	if cs.ContextID != ContextAuth {
		return AuthReport{}, fmt.Errorf("hid: context id %d is not AUTH", cs.ContextID)
	}
	if len(cs.Data) < 5 {
		return AuthReport{}, fmt.Errorf("hid: auth report too short")
	}
	return AuthReport{
		State:     te.AuthState(cs.Data[0]),
		Challenge: binary.LittleEndian.Uint32(cs.Data[1:5]),
	}, nil
}

// ParseUpdateAck decodes the LIVE_UPDATE acknowledgement into the
// transport-agnostic te.UpdateConfirmation, translating HID's polarity
// (1=accept, 2=rejected, 3=device busy) per spec.md §9's anti-normalization
// note — this translation happens here, once, rather than inside pkg/te.
func ParseUpdateAck(raw []byte) (te.UpdateConfirmation, error) {
	if len(raw) < 3 {
		return 0, fmt.Errorf("hid: update ack report too short")
	}
	if ReportID(raw[0]) != ReportCommandAck {
		return 0, fmt.Errorf("hid: report id %d is not COMMAND_ACK", raw[0])
	}
	if raw[1] != cmdLiveUpdate {
		return 0, fmt.Errorf("hid: ack echoes command 0x%02X, want LIVE_UPDATE", raw[1])
	}
	switch raw[2] {
	case 1:
		return te.UpdateConfirmAccepted, nil
	case 2:
		return te.UpdateConfirmRejected, nil
	case 3:
		return te.UpdateConfirmDeviceBusy, nil
	default:
		return te.UpdateConfirmOther, nil
	}
}

// ParseUpdateStatus decodes an UPDATE_STATUS report into the shared
// te.UpdateStatusFrame, grounded on hid_reports.py's UpdateStatusMsg: byte 1
// is the status type; byte 2 is reinterpreted as either an upload error or a
// signed update status depending on that type; COMPONENT frames additionally
// carry component type/status/progress at bytes 2..8.
func ParseUpdateStatus(raw []byte) (te.UpdateStatusFrame, error) {
	if len(raw) < 2 {
		return te.UpdateStatusFrame{}, fmt.Errorf("hid: update status report too short")
	}
	if ReportID(raw[0]) != ReportUpdateStat {
		return te.UpdateStatusFrame{}, fmt.Errorf("hid: report id %d is not UPDATE_STATUS", raw[0])
	}
	statusType := te.UpdateStatusType(raw[1])

	switch statusType {
	case te.UpdateStatusTypeUpload, te.UpdateStatusTypeUpdate:
		if len(raw) < 3 {
			return te.UpdateStatusFrame{}, fmt.Errorf("hid: update status report too short for type %d", statusType)
		}
		return te.UpdateStatusFrame{
			Type:      statusType,
			UploadErr: te.UploadError(raw[2]),
			Status:    te.UpdateStatus(int8(raw[2])),
		}, nil
	case te.UpdateStatusTypeComponent:
		if len(raw) < 4 {
			return te.UpdateStatusFrame{}, fmt.Errorf("hid: component status report too short")
		}
		progress := 0
		if len(raw) >= 8 {
			progress = int(binary.LittleEndian.Uint32(raw[4:8]))
		}
		return te.UpdateStatusFrame{
			Type:              statusType,
			ComponentType:     te.ComponentType(raw[2]),
			ComponentStatus:   te.ComponentStatus(raw[3]),
			ComponentProgress: progress,
		}, nil
	default:
		return te.UpdateStatusFrame{}, fmt.Errorf("hid: unknown update status type %d", raw[1])
	}
}

// CalibrationReport decodes the knob calibration acknowledgement. The device
// reports either a raw or a calibrated form, distinguished by a 0xFF sentinel
// at data[0]; angle is derived from the raw 16-bit reading as
// round(raw*360/65536, 2) per spec.md §6.
type CalibrationReport struct {
	Raw      bool
	Position int
	Angle    float64
}

// ParseCalibrationReport decodes a START_CALIB acknowledgement: data[0]==0xFF
// selects the raw form (position at data[5]), anything else the calibrated
// form (position at data[0]); the 16-bit angle reading at data[1:3] is
// present in both forms.
func ParseCalibrationReport(raw []byte) (CalibrationReport, error) {
	ack, err := ParseAckReport(raw)
	if err != nil {
		return CalibrationReport{}, err
	}
	if ack.Code != AckOK {
		return CalibrationReport{}, fmt.Errorf("hid: calibration ack rejected (code=%d)", ack.Code)
	}
	data := ack.Data
	if len(data) < 3 {
		return CalibrationReport{}, fmt.Errorf("hid: calibration ack too short")
	}
	rawAngle := binary.LittleEndian.Uint16(data[1:3])
	angle := math.Round(float64(rawAngle)*360/65536*100) / 100

	if data[0] == 0xFF {
		if len(data) < 6 {
			return CalibrationReport{}, fmt.Errorf("hid: raw calibration ack too short")
		}
		return CalibrationReport{Raw: true, Position: int(data[5]), Angle: angle}, nil
	}
	return CalibrationReport{Raw: false, Position: int(data[0]), Angle: angle}, nil
}
