package te

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIntVarReport(t *testing.T) {
	b := []byte{3, 7, 2, 0x2A, 0x00, 0x00, 0x00}
	got, err := ParseIntVarReport(b)
	require.NoError(t, err)
	assert.Equal(t, IntVarReport{ScreenID: 7, VariableID: 2, Value: 42}, got)
}

func TestParseIntVarReportTooShort(t *testing.T) {
	_, err := ParseIntVarReport([]byte{3, 7, 2})
	assert.Error(t, err)
}

func TestParseStringVarReport(t *testing.T) {
	b := append([]byte{4, 1, 9}, []byte("hi\x00")...)
	got, err := ParseStringVarReport(b)
	require.NoError(t, err)
	assert.Equal(t, ScreenID(1), got.ScreenID)
	assert.Equal(t, VariableID(9), got.VariableID)
	assert.Equal(t, "hi", got.Value)
}

func TestParseKnobEventReport(t *testing.T) {
	b := []byte{16, 3, 0, 0xFE, 0xFF} // delta = -2
	got, err := ParseKnobEventReport(b)
	require.NoError(t, err)
	assert.Equal(t, KnobEventReport{ElementID: 3, Delta: -2}, got)
}

func TestParseTouchEventReport(t *testing.T) {
	b := []byte{17, 5, byte(TouchDown), 0, 0x10, 0x00, 0x20, 0x00}
	got, err := ParseTouchEventReport(b)
	require.NoError(t, err)
	assert.Equal(t, TouchEventReport{ElementID: 5, Type: TouchDown, X: 16, Y: 32}, got)
}

func TestParseGestureEventReportTap(t *testing.T) {
	b := []byte{18, 1, byte(GestureTap), 0, 0x05, 0x00, 0x0A, 0x00}
	got, err := ParseGestureEventReport(b)
	require.NoError(t, err)
	assert.Equal(t, GestureEventReport{ElementID: 1, Type: GestureTap, X: 5, Y: 10}, got)
}

func TestParseGestureEventReportSwipe(t *testing.T) {
	b := []byte{18, 1, byte(GestureAxisSwipe), 0, byte(SwipeLeft)}
	got, err := ParseGestureEventReport(b)
	require.NoError(t, err)
	assert.Equal(t, GestureEventReport{ElementID: 1, Type: GestureAxisSwipe, Direction: SwipeLeft}, got)
}
