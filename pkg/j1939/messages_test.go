package j1939

import (
	"testing"

	"github.com/grayhill/touchencoder/pkg/te"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddressClaim(t *testing.T) {
	name := NameFromComponents(NameComponents{IdentityNumber: 99, Function: 2})
	f := Frame{SourceAddress: 0x80, PGN: PGNAddressClaimed, Data: name.Bytes()}
	got, err := ParseAddressClaim(f)
	require.NoError(t, err)
	assert.Equal(t, byte(0x80), got.SourceAddress)
	assert.Equal(t, name, got.Name)
}

func TestParseUpdateConfirmationPolarity(t *testing.T) {
	cases := []struct {
		code AckCode
		want te.UpdateConfirmation
	}{
		{AckCodeOK, te.UpdateConfirmAccepted},
		{AckCodeAccessDenied, te.UpdateConfirmRejected},
		{AckCodeCantRespond, te.UpdateConfirmDeviceBusy},
		{AckCodeNack, te.UpdateConfirmOther},
	}
	for _, c := range cases {
		f := Frame{SourceAddress: 0x80, PGN: PGNAcknowledgement, Data: []byte{byte(c.code), cmdLiveUpdate, 0, 0, 0, 0, 0, 0}}
		got, err := ParseUpdateConfirmation(f, 0x80)
		require.NoError(t, err)
		assert.Equal(t, c.want, got)
	}
}

func TestParseUpdateStatusComponent(t *testing.T) {
	f := Frame{
		SourceAddress: 0x80,
		PGN:           PGNLiveUpdate,
		Data:          []byte{byte(te.UpdateStatusTypeComponent), byte(te.ComponentProject), byte(te.ComponentStatusProgress), 10, 0, 0, 0},
	}
	got, err := ParseUpdateStatus(f, 0x80, PGNLiveUpdate)
	require.NoError(t, err)
	assert.Equal(t, te.ComponentProject, got.ComponentType)
	assert.Equal(t, 10, got.ComponentProgress)
}

func TestParseGuideIntVar(t *testing.T) {
	f := Frame{PGN: PGNGuide, Data: []byte{3, 2, 5, 42, 0, 0, 0}}
	got, err := ParseGuideIntVar(f)
	require.NoError(t, err)
	assert.Equal(t, te.IntVarReport{ScreenID: 2, VariableID: 5, Value: 42}, got)
}

func TestParseGuideGestureEventTap(t *testing.T) {
	f := Frame{PGN: PGNGuide, Data: []byte{18, 1, byte(te.GestureTap), 5, 0, 10, 0}}
	got, err := ParseGuideGestureEvent(f)
	require.NoError(t, err)
	assert.Equal(t, int16(5), got.X)
	assert.Equal(t, int16(10), got.Y)
}

func TestParseCalibrationRawForm(t *testing.T) {
	f := Frame{SourceAddress: 0x80, PGN: PGNCalibration, Data: []byte{0x4C, 0x7B, 0xFF, 0xFF, 0x19}}
	got, err := ParseCalibration(f, 0x80)
	require.NoError(t, err)
	assert.True(t, got.Raw)
	assert.Equal(t, 0x19, got.Position)
}
