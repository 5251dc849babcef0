// Package j1939 implements the CAN/J1939 transport (C3): PGN/NAME wire
// types, address claim, the two CA (controller application) backends, and
// the typed message parsers and session built on the shared pkg/te state
// machines.
package j1939

import "encoding/binary"

// PGN is a J1939 Parameter Group Number, packed as EDP:1 DP:1 PF:8 PS:8 in
// its low 18 bits, grounded on
// original_source/te/interface/j1939/comm_interface/j1939_pgn.py.
type PGN uint32

const (
	pgnPSMask  = 0xFF
	pgnPSShift = 0
	pgnPFMask  = 0xFF
	pgnPFShift = 8
	pgnDPMask  = 0x1
	pgnDPShift = 16
	pgnEDPMask = 0x1
	pgnEDPShift = 17
	pgnMask    = 0x3FFFF

	// pduMin is the PDU1/PDU2 boundary for the PF field.
	pduMin = 0xF0
)

// PGNFromComponents packs edp/dp/pf/ps into a PGN.
func PGNFromComponents(edp, dp, pf, ps int) PGN {
	return PGN(
		uint32(edp&pgnEDPMask)<<pgnEDPShift |
			uint32(dp&pgnDPMask)<<pgnDPShift |
			uint32(pf&pgnPFMask)<<pgnPFShift |
			uint32(ps&pgnPSMask)<<pgnPSShift,
	)
}

// PGNFromBytes decodes a 3-byte little-endian PGN, masked to its valid 18 bits.
func PGNFromBytes(b []byte) PGN {
	buf := [4]byte{b[0], b[1], b[2], 0}
	return PGN(binary.LittleEndian.Uint32(buf[:])) & pgnMask
}

// Bytes encodes the PGN as 3 little-endian bytes.
func (p PGN) Bytes() []byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(p))
	return buf[:3]
}

func (p PGN) PS() int  { return int((uint32(p) >> pgnPSShift) & pgnPSMask) }
func (p PGN) PF() int  { return int((uint32(p) >> pgnPFShift) & pgnPFMask) }
func (p PGN) DP() int  { return int((uint32(p) >> pgnDPShift) & pgnDPMask) }
func (p PGN) EDP() int { return int((uint32(p) >> pgnEDPShift) & pgnEDPMask) }

// IsPDU1 reports whether this PGN addresses a specific destination (PF <
// 0xF0) rather than broadcasting (PDU2).
func (p PGN) IsPDU1() bool { return p.PF() < pduMin }

// IsValid reports whether any bit outside the 18-bit PGN field is set.
func (p PGN) IsValid() bool { return uint32(p)&^uint32(pgnMask) == 0 }

// TE-specific and standard PGNs used by this protocol (spec.md §4.1/§6),
// grounded on original_source/te/interface/j1939/j1939_te_statics.py and
// comm_interface/j1939_pgn.py's J1939StandardPGN.
const (
	PGNAcknowledgement PGN = 0x0E800
	PGNAddressClaimed  PGN = 0x0EE00
	PGNRequest         PGN = 0x0EA00
	PGNSoftwareID      PGN = 0x0FEDA
	PGNProprietaryA    PGN = 0x0EF00
	PGNProprietaryB    PGN = 0x0FF11
	PGNTPConnMgmt      PGN = 0xEC00
	PGNTPDataTransfer  PGN = 0xEB00

	PGNCommandData  PGN = 0x0FFEF
	PGNAuth         PGN = 0x13200
	PGNLiveUpdate   PGN = 0x13300
	PGNAux          PGN = 0x13100
	PGNGuide        PGN = 0x0FF11
	PGNRIE          PGN = 0x18FF0E
	PGNCalibration  PGN = 0x0FF0F
)
