package j1939

import "time"

// NoName and NoPGN are the J1939 sockaddr sentinel values used when binding
// or sending without a NAME/specific PGN, ported from socket.J1939_NO_NAME/
// J1939_NO_PGN.
const (
	NoName uint64 = 0xFFFFFFFFFFFFFFFF
	NoPGN  uint32 = 0x40000000
	NoAddr byte   = 0xFF
)

// MaxDataSize is J1939's maximum single-message payload (spec.md §4.3's MTU).
const MaxDataSize = 1785

// Message is a received CAN/J1939 frame, ported from j1939_ca.py's Message:
// a source address, the carrying PGN, and its (already TP-reassembled)
// payload.
type Message struct {
	SourceAddress byte
	PGN           PGN
	Data          []byte
	Timestamp     time.Time
}

// CA is the controller-application contract both the native Linux backend
// and the cross-platform SocketCAN backend implement, grounded on
// j1939_ca.py's J1939CA base class.
type CA interface {
	// Address returns this CA's own claimed source address.
	Address() byte

	// SendTo transmits data to dest on pgn, fragmenting via Transport
	// Protocol if data exceeds 8 bytes, and blocks until the transmission
	// completes or times out. Returns the number of bytes sent.
	SendTo(pgn PGN, dest byte, data []byte) (int, error)

	// SendGlobally is SendTo(pgn, 0xFF, data).
	SendGlobally(pgn PGN, data []byte) (int, error)

	// RecvMsg blocks up to timeout for the next message.
	RecvMsg(timeout time.Duration) (Message, bool, error)

	// ScanForDevices broadcasts a PGN Request for ADDRESS_CLAIMED and
	// collects distinct replies until timeout elapses.
	ScanForDevices(timeout time.Duration) ([]AddressClaim, error)

	Disconnect() error
}
