package hid

import (
	"testing"

	"github.com/grayhill/touchencoder/pkg/te"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseContextSensitiveReportShort(t *testing.T) {
	raw := []byte{byte(ReportCSDataShort), byte(ContextAuth), 3, 0xAA, 0xBB, 0xCC}
	got, err := ParseContextSensitiveReport(raw)
	require.NoError(t, err)
	assert.Equal(t, ContextAuth, got.ContextID)
	assert.Equal(t, []byte{0xAA, 0xBB, 0xCC}, got.Data)
}

func TestParseContextSensitiveReportLong(t *testing.T) {
	raw := []byte{byte(ReportCSDataLong), byte(ContextVariable), 2, 0, 0x01, 0x02}
	got, err := ParseContextSensitiveReport(raw)
	require.NoError(t, err)
	assert.Equal(t, ContextVariable, got.ContextID)
	assert.Equal(t, []byte{0x01, 0x02}, got.Data)
}

func TestBuildContextSensitiveReportChoosesShortFraming(t *testing.T) {
	raw, err := BuildContextSensitiveReport(ContextAuth, []byte{1}, []byte{2, 3, 4, 5})
	require.NoError(t, err)
	assert.Equal(t, []byte{byte(ReportCSDataShort), byte(ContextAuth), 5, 1, 2, 3, 4, 5}, raw)
}

func TestBuildContextSensitiveReportChoosesLongFraming(t *testing.T) {
	payload := make([]byte, 100)
	raw, err := BuildContextSensitiveReport(ContextVariable, payload)
	require.NoError(t, err)
	assert.Equal(t, byte(ReportCSDataLong), raw[0])
	assert.Equal(t, byte(ContextVariable), raw[1])
	assert.Len(t, raw, 4+100)
}

func TestBuildContextSensitiveReportRejectsOversizedPayload(t *testing.T) {
	_, err := BuildContextSensitiveReport(ContextVariable, make([]byte, 1021))
	assert.Error(t, err)
}

func TestParseAckReport(t *testing.T) {
	raw := make([]byte, 11)
	raw[0] = byte(ReportCommandAck)
	raw[1] = cmdGetHardwareID
	raw[2] = byte(AckOK)
	got, err := ParseAckReport(raw)
	require.NoError(t, err)
	assert.Equal(t, byte(cmdGetHardwareID), got.Command)
	assert.Equal(t, AckOK, got.Code)
}

func TestParseHardwareIDReport(t *testing.T) {
	raw := make([]byte, 11)
	raw[0] = byte(ReportCommandAck)
	raw[1] = cmdGetHardwareID
	raw[2] = byte(AckOK)
	raw[3], raw[4], raw[5], raw[6] = 0x01, 0x00, 0x00, 0x00
	got, err := ParseHardwareIDReport(raw)
	require.NoError(t, err)
	assert.Equal(t, te.HardwareTERFCAN, got)
}

func TestParseAuthReport(t *testing.T) {
	raw := []byte{byte(ReportCSDataShort), byte(ContextAuth), 5, byte(te.AuthStateChallenge), 0x44, 0x33, 0x22, 0x11}
	got, err := ParseAuthReport(raw)
	require.NoError(t, err)
	assert.Equal(t, te.AuthStateChallenge, got.State)
	assert.Equal(t, uint32(0x11223344), got.Challenge)
}

func TestParseUpdateAckPolarity(t *testing.T) {
	cases := []struct {
		byte byte
		want te.UpdateConfirmation
	}{
		{1, te.UpdateConfirmAccepted},
		{2, te.UpdateConfirmRejected},
		{3, te.UpdateConfirmDeviceBusy},
		{9, te.UpdateConfirmOther},
	}
	for _, c := range cases {
		raw := []byte{byte(ReportCommandAck), cmdLiveUpdate, c.byte}
		got, err := ParseUpdateAck(raw)
		require.NoError(t, err)
		assert.Equal(t, c.want, got)
	}
}

func TestParseUpdateStatusUpload(t *testing.T) {
	raw := []byte{byte(ReportUpdateStat), byte(te.UpdateStatusTypeUpload), byte(te.UploadErrorOK)}
	got, err := ParseUpdateStatus(raw)
	require.NoError(t, err)
	assert.Equal(t, te.UploadErrorOK, got.UploadErr)
}

func TestParseUpdateStatusComponent(t *testing.T) {
	raw := []byte{byte(ReportUpdateStat), byte(te.UpdateStatusTypeComponent), byte(te.ComponentProject), byte(te.ComponentStatusProgress), 42, 0, 0, 0}
	got, err := ParseUpdateStatus(raw)
	require.NoError(t, err)
	assert.Equal(t, te.ComponentProject, got.ComponentType)
	assert.Equal(t, te.ComponentStatusProgress, got.ComponentStatus)
	assert.Equal(t, 42, got.ComponentProgress)
}

func TestParseCalibrationReportRawForm(t *testing.T) {
	raw := make([]byte, 11)
	raw[0] = byte(ReportCommandAck)
	raw[2] = byte(AckOK)
	data := []byte{0xFF, 0x00, 0x80, 0, 0, 7}
	copy(raw[3:], data)
	got, err := ParseCalibrationReport(raw)
	require.NoError(t, err)
	assert.True(t, got.Raw)
	assert.Equal(t, 7, got.Position)
	assert.Equal(t, 180.0, got.Angle)
}

func TestParseCalibrationReportAngleRounding(t *testing.T) {
	raw := make([]byte, 11)
	raw[0] = byte(ReportCommandAck)
	raw[2] = byte(AckOK)
	// rawAngle=4660 (0x1234): 4660*360/65536 = 25.59814453125, rounds to 25.6.
	data := []byte{3, 0x34, 0x12}
	copy(raw[3:], data)
	got, err := ParseCalibrationReport(raw)
	require.NoError(t, err)
	assert.False(t, got.Raw)
	assert.Equal(t, 3, got.Position)
	assert.Equal(t, 25.6, got.Angle)
}
