package te

import "encoding/binary"

// ============================================================================
// Little-endian wire helpers
//
// Every multi-byte field in the touch encoder protocol is packed
// little-endian with no padding — unlike XDR's big-endian, 4-byte-aligned
// encoding, there is no length-prefix-plus-padding convention here, because
// every field has a protocol-fixed width. Each helper below documents its
// offset width and a worked example, in the same spirit as a hand-rolled
// binary codec layer, but against this protocol's own byte layout instead
// of an RFC.
// ============================================================================

// leUint16 decodes a 2-byte little-endian unsigned integer.
//
// Example: []byte{0x34, 0x12} → 0x1234
func leUint16(b []byte) uint16 {
	return binary.LittleEndian.Uint16(b)
}

// putLEUint16 encodes v as 2 little-endian bytes into b.
func putLEUint16(b []byte, v uint16) {
	binary.LittleEndian.PutUint16(b, v)
}

// leUint32 decodes a 4-byte little-endian unsigned integer.
//
// Example: []byte{0x44, 0x33, 0x22, 0x11} → 0x11223344
func leUint32(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b)
}

// putLEUint32 encodes v as 4 little-endian bytes into b.
func putLEUint32(b []byte, v uint32) {
	binary.LittleEndian.PutUint32(b, v)
}

// leInt32 decodes a 4-byte little-endian signed integer (two's complement).
func leInt32(b []byte) int32 {
	return int32(leUint32(b))
}

// putLEInt32 encodes v as 4 little-endian bytes into b.
func putLEInt32(b []byte, v int32) {
	putLEUint32(b, uint32(v))
}

// leUint24 decodes a 3-byte little-endian unsigned integer, as used for
// PGNs and update file sizes on the wire.
//
// Example: []byte{0x00, 0xE8, 0x00} → 0x00E800
func leUint24(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
}

// putLEUint24 encodes the low 24 bits of v as 3 little-endian bytes into b.
func putLEUint24(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
}

// leUint64 decodes an 8-byte little-endian unsigned integer, used for the
// J1939 NAME field.
func leUint64(b []byte) uint64 {
	return binary.LittleEndian.Uint64(b)
}

// putLEUint64 encodes v as 8 little-endian bytes into b.
func putLEUint64(b []byte, v uint64) {
	binary.LittleEndian.PutUint64(b, v)
}
