package te

import (
	"fmt"
	"strings"
)

// VariableKind discriminates the three shapes a GUIDE variable's value can
// take on the wire.
type VariableKind int

const (
	VariableKindInt VariableKind = iota
	VariableKindString
	VariableKindRaw
)

// VariableData is a GUIDE variable's value. Exactly one of the constructors
// below should be used; the zero value is an empty raw blob.
//
// Encoding rule: integers encode as 4 bytes little-endian signed; strings
// encode as their UTF-8 bytes followed by a single NUL byte; raw bytes pass
// through unchanged.
type VariableData struct {
	kind VariableKind
	raw  []byte
}

// NewIntVariable constructs a VariableData holding a signed 32-bit integer.
func NewIntVariable(v int32) VariableData {
	b := make([]byte, 4)
	putLEInt32(b, v)
	return VariableData{kind: VariableKindInt, raw: b}
}

// NewStringVariable constructs a VariableData holding a UTF-8 string.
func NewStringVariable(s string) VariableData {
	b := append([]byte(s), 0)
	return VariableData{kind: VariableKindString, raw: b}
}

// NewRawVariable constructs a VariableData holding an opaque byte sequence.
func NewRawVariable(b []byte) VariableData {
	raw := make([]byte, len(b))
	copy(raw, b)
	return VariableData{kind: VariableKindRaw, raw: raw}
}

// Bytes returns the wire-encoded value.
func (v VariableData) Bytes() []byte {
	out := make([]byte, len(v.raw))
	copy(out, v.raw)
	return out
}

// ToInt decodes the value as a signed 32-bit little-endian integer.
// Decoding is caller-directed per spec.md §3: it requires length ≤ 4
// regardless of how the value was constructed.
func (v VariableData) ToInt() (int32, error) {
	if len(v.raw) > 4 {
		return 0, fmt.Errorf("variable data of length %d cannot decode as int (max 4)", len(v.raw))
	}
	padded := make([]byte, 4)
	copy(padded, v.raw)
	return leInt32(padded), nil
}

// ToString decodes the value as a UTF-8 string, stripping a single trailing
// NUL if present.
func (v VariableData) ToString() string {
	return strings.TrimSuffix(string(v.raw), "\x00")
}
