package j1939

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Transport Protocol control-byte values (SAE J1939-21), used only by the
// universal backend: brutella/can speaks raw SocketCAN frames with no J1939
// awareness, so this package has to fragment/reassemble >8-byte payloads
// itself the way the native Linux CAN_J1939 socket does inside the kernel.
const (
	tpCMRTS   = 16
	tpCMCTS   = 17
	tpCMEndAck = 19
	tpCMAbort = 255
	tpCMBAM   = 32
)

const tpMaxPacketsPerFrame = 0xFF

// tpSegments splits data into 7-byte Transport Protocol data segments,
// 1-indexed and padded with 0xFF in the final segment, per the J1939-21 Data
// Transfer PDU format.
func tpSegments(data []byte) [][]byte {
	var segs [][]byte
	for i := 0; i < len(data); i += 7 {
		end := i + 7
		if end > len(data) {
			end = len(data)
		}
		seg := make([]byte, 7)
		for j := range seg {
			seg[j] = 0xFF
		}
		copy(seg, data[i:end])
		segs = append(segs, seg)
	}
	return segs
}

// tpRTSFrame builds the Request-To-Send control frame announcing a
// point-to-point multi-packet transfer.
func tpRTSFrame(totalSize int, numPackets int, pgn PGN) []byte {
	frame := make([]byte, 8)
	frame[0] = tpCMRTS
	binary.LittleEndian.PutUint16(frame[1:3], uint16(totalSize))
	frame[3] = byte(numPackets)
	frame[4] = tpMaxPacketsPerFrame
	pgnBytes := pgn.Bytes()
	copy(frame[5:8], pgnBytes)
	return frame
}

// tpBAMFrame builds the Broadcast Announce Message control frame.
func tpBAMFrame(totalSize int, numPackets int, pgn PGN) []byte {
	frame := tpRTSFrame(totalSize, numPackets, pgn)
	frame[0] = tpCMBAM
	frame[4] = 0xFF
	return frame
}

// tpDataFrame builds one 8-byte Data Transfer frame: [seq_num][7 bytes payload].
func tpDataFrame(seqNum int, segment []byte) []byte {
	frame := make([]byte, 8)
	frame[0] = byte(seqNum)
	copy(frame[1:], segment)
	return frame
}

// tpReassembler accumulates Data Transfer segments for one in-flight
// transfer, keyed by source address, until every announced segment has
// arrived.
type tpReassembler struct {
	pgn        PGN
	totalSize  int
	numPackets int
	segments   map[int][]byte
}

func newTPReassembler(totalSize, numPackets int, pgn PGN) *tpReassembler {
	return &tpReassembler{pgn: pgn, totalSize: totalSize, numPackets: numPackets, segments: map[int][]byte{}}
}

func (r *tpReassembler) addSegment(frame []byte) (complete bool, err error) {
	if len(frame) != 8 {
		return false, fmt.Errorf("j1939: tp data frame must be 8 bytes")
	}
	seqNum := int(frame[0])
	if seqNum < 1 || seqNum > r.numPackets {
		return false, fmt.Errorf("j1939: tp sequence number %d out of range", seqNum)
	}
	r.segments[seqNum] = frame[1:]
	return len(r.segments) == r.numPackets, nil
}

func (r *tpReassembler) data() []byte {
	out := make([]byte, 0, r.totalSize)
	for i := 1; i <= r.numPackets; i++ {
		out = append(out, r.segments[i]...)
	}
	if len(out) > r.totalSize {
		out = out[:r.totalSize]
	}
	return out
}

// tpSendTimeout bounds how long a directed multi-packet send waits for its
// End-of-Message acknowledgement before giving up.
const tpSendTimeout = 10 * time.Second
