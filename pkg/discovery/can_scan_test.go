package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIfaceNumber(t *testing.T) {
	n, err := ifaceNumber("can2")
	assert.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = ifaceNumber("vcan10")
	assert.NoError(t, err)
	assert.Equal(t, 10, n)
}

func TestIfaceNumber_NoDigits(t *testing.T) {
	_, err := ifaceNumber("can")
	assert.Error(t, err)
}

func TestContainsCAN(t *testing.T) {
	assert.True(t, containsCAN("can0"))
	assert.True(t, containsCAN("vcan1"))
	assert.False(t, containsCAN("eth0"))
	assert.False(t, containsCAN("ca"))
}
