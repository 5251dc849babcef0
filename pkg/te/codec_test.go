package te

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectInfoRoundTrip(t *testing.T) {
	cases := []ProjectInfo{
		{Type: ProjectInfoGUIDE, Checksum: 0},
		{Type: ProjectInfoGIIB, Checksum: 0xDEADBEEF},
		{Type: ProjectInfoUnknown, Checksum: 0x00010203},
	}

	for _, want := range cases {
		got, err := ProjectInfoFromBytes(want.Bytes())
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestProjectInfoFromBytesRejectsShortInput(t *testing.T) {
	_, err := ProjectInfoFromBytes([]byte{0x00, 0x01, 0x02})
	assert.Error(t, err)
}

func TestVariableDataIntRoundTrip(t *testing.T) {
	values := []int32{0, 1, -1, 2147483647, -2147483648, 42}
	for _, v := range values {
		vd := NewIntVariable(v)
		got, err := vd.ToInt()
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestVariableDataStringRoundTrip(t *testing.T) {
	strs := []string{"", "hello", "touch encoder", "utf-8: 日本語"}
	for _, s := range strs {
		vd := NewStringVariable(s)
		assert.Equal(t, s, vd.ToString())
	}
}

func TestVariableDataToIntRejectsOversizedData(t *testing.T) {
	vd := NewRawVariable([]byte{1, 2, 3, 4, 5})
	_, err := vd.ToInt()
	assert.Error(t, err)
}

func TestDecodeVersionTriplet(t *testing.T) {
	b := []byte{0x01, 0x00, 0x02, 0x00, 0x2A, 0x00}
	got, err := DecodeVersionTriplet(b)
	require.NoError(t, err)
	assert.Equal(t, "1.2.42", got)
}

func TestComponentTypeFromFilename(t *testing.T) {
	assert.Equal(t, ComponentProject, ComponentTypeFromFilename("firmware.zip"))
	assert.Equal(t, ComponentPackage, ComponentTypeFromFilename("firmware.tepkg"))
	assert.Equal(t, ComponentUnknown, ComponentTypeFromFilename("firmware.bin"))
	assert.Equal(t, ComponentProject, ComponentTypeFromFilename("FIRMWARE.ZIP"))
}
