package j1939

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPGNComponentsRoundTrip(t *testing.T) {
	p := PGNFromComponents(0, 1, 0xFF, 0x11)
	assert.Equal(t, 0, p.EDP())
	assert.Equal(t, 1, p.DP())
	assert.Equal(t, 0xFF, p.PF())
	assert.Equal(t, 0x11, p.PS())
	assert.True(t, p.IsValid())
}

func TestPGNIsPDU1(t *testing.T) {
	assert.True(t, PGN(0x0EF11).IsPDU1())  // PF=0xEF < 0xF0
	assert.False(t, PGN(0x0FF11).IsPDU1()) // PF=0xFF >= 0xF0
}

// TestPGNBytesRoundTrip sweeps every value a PGN's 18 valid bits can hold
// (0 through 0x3FFFF) and checks from_bytes(to_bytes(v)) == v for each.
func TestPGNBytesRoundTrip(t *testing.T) {
	for v := 0; v <= pgnMask; v++ {
		p := PGN(v)
		got := PGNFromBytes(p.Bytes())
		if got != p {
			t.Fatalf("round trip broke at PGN 0x%X: got 0x%X", v, uint32(got))
		}
	}
}

func TestNameComponentsRoundTrip(t *testing.T) {
	c := NameComponents{
		IdentityNumber:          0x123456,
		ManufacturerCode:        0x3FF,
		ECUInstance:             3,
		FunctionInstance:        7,
		Function:                0x80,
		VehicleSystem:           0x20,
		VehicleSystemInstance:   5,
		IndustryGroup:           2,
		ArbitraryAddressCapable: true,
	}
	n := NameFromComponents(c)
	assert.Equal(t, c.IdentityNumber, n.IdentityNumber())
	assert.Equal(t, c.ManufacturerCode, n.ManufacturerCode())
	assert.Equal(t, c.ECUInstance, n.ECUInstance())
	assert.Equal(t, c.FunctionInstance, n.FunctionInstance())
	assert.Equal(t, c.Function, n.Function())
	assert.Equal(t, c.VehicleSystem, n.VehicleSystem())
	assert.Equal(t, c.VehicleSystemInstance, n.VehicleSystemInstance())
	assert.Equal(t, c.IndustryGroup, n.IndustryGroup())
	assert.True(t, n.ArbitraryAddressCapable())
}

// TestNameBytesRoundTrip sweeps NAME's full 64-bit space representatively:
// zero, all-ones, every single bit set in isolation, and a large
// deterministically-seeded random sample, checking
// from_bytes(to_bytes(v)) == v for each. An exhaustive 2^64 sweep isn't
// feasible, so this substitutes the boundary values most likely to expose a
// byte-order or masking bug plus broad random coverage.
func TestNameBytesRoundTrip(t *testing.T) {
	check := func(v Name) {
		got := NameFromBytes(v.Bytes())
		if got != v {
			t.Fatalf("round trip broke at NAME 0x%X: got 0x%X", uint64(v), uint64(got))
		}
	}

	check(Name(0))
	check(^Name(0))
	for bit := 0; bit < 64; bit++ {
		check(Name(1) << uint(bit))
	}

	rnd := rand.New(rand.NewSource(1939))
	for i := 0; i < 100000; i++ {
		check(Name(rnd.Uint64()))
	}
}
