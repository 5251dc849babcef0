package j1939

import (
	"fmt"
	"sync"
	"time"

	"github.com/brutella/can"
)

// universalCA wraps a raw SocketCAN bus (brutella/can has no J1939 framing
// of its own) and hand-rolls J1939's addressing and Transport Protocol on
// top, grounded on j1939_ca_universal.py's J1939CAUniversal — which instead
// wraps a third-party Python J1939 stack that does the same job internally.
// universalCA subscribes to the four unfiltered PGNs spec.md §4.3 calls out
// (ADDRESSCLAIM, REQUEST, TP_CM, DATATRANSFER) in addition to whatever PGN a
// caller is waiting on, since TP reassembly has to see every control frame
// regardless of destination address.
type universalCA struct {
	bus     *can.Bus
	address byte
	name    Name

	mu           sync.Mutex
	recv         chan Message
	reassemblers map[byte]*tpReassembler
	pendingAcks  map[byte]chan struct{}
}

// OpenUniversal opens ifaceName via SocketCAN and claims address as this
// CA's own source address. Address claim arbitration itself is left to the
// caller (discovery assigns addresses deterministically, per spec.md §4.3),
// mirroring the source's CustomECU/ControllerApplication setup without its
// NAME-based arbitration, which this library's device-control scope doesn't
// need.
func OpenUniversal(ifaceName string, address byte) (CA, error) {
	bus, err := can.NewBusForInterfaceWithName(ifaceName)
	if err != nil {
		return nil, fmt.Errorf("j1939: open %s: %w", ifaceName, err)
	}
	// Linux-only: matches j1939_ca_universal.py's connect() override that
	// widens the socket's send buffer so multi-frame bursts don't block.
	setSendBuffer(bus, 1785)

	ca := &universalCA{
		bus:          bus,
		address:      address,
		recv:         make(chan Message, 256),
		reassemblers: map[byte]*tpReassembler{},
		pendingAcks:  map[byte]chan struct{}{},
	}
	bus.Subscribe(can.HandlerFunc(ca.onFrame))
	go bus.ConnectAndPublish()
	return ca, nil
}

// setSendBuffer widens the bus's outgoing socket buffer so a multi-frame TP
// burst doesn't block, mirroring j1939_ca_universal.py's CustomECU.connect()
// override. brutella/can doesn't expose the underlying socket fd across
// platforms, so this degrades to a no-op anywhere the Linux-specific hook
// below isn't wired in; buffering just falls back to however fast the
// kernel drains the interface queue.
func setSendBuffer(bus *can.Bus, bytes int) {
	setSendBufferLinux(bus, bytes)
}

func (c *universalCA) Address() byte { return c.address }

func (c *universalCA) onFrame(frame can.Frame) {
	pgn, sa, data := decodeCANID(frame)
	switch pgn {
	case PGNTPConnMgmt:
		c.handleTPControl(sa, data)
		return
	case PGNTPDataTransfer:
		c.handleTPData(sa, data)
		return
	case PGNRequest:
		c.handleRequest(sa, data)
	}
	c.recv <- Message{SourceAddress: sa, PGN: pgn, Data: data, Timestamp: time.Now()}
}

// handleRequest answers an inbound PGN_REQUEST for ADDRESS_CLAIMED with this
// CA's own claim, the responder half of the address-claim exchange
// scan_for_devices only issues the initiating side of; supplemented from
// j1939_ca_universal.py's RequestMsg handling.
func (c *universalCA) handleRequest(sa byte, data []byte) {
	req, err := ParseRequestMsg(Frame{SourceAddress: sa, PGN: PGNRequest, Data: data})
	if err != nil || req.RequestedPGN != PGNAddressClaimed {
		return
	}
	c.sendRaw(PGNAddressClaimed, sa, c.name.Bytes())
}

func (c *universalCA) handleTPControl(sa byte, data []byte) {
	if len(data) < 8 {
		return
	}
	switch data[0] {
	case tpCMRTS, tpCMBAM:
		totalSize := int(data[1]) | int(data[2])<<8
		numPackets := int(data[3])
		pgn := PGNFromBytes(data[5:8])
		c.mu.Lock()
		c.reassemblers[sa] = newTPReassembler(totalSize, numPackets, pgn)
		c.mu.Unlock()
		if data[0] == tpCMRTS {
			c.sendCTS(sa, numPackets)
		}
	case tpCMEndAck:
		c.mu.Lock()
		if ch, ok := c.pendingAcks[sa]; ok {
			close(ch)
			delete(c.pendingAcks, sa)
		}
		c.mu.Unlock()
	}
}

func (c *universalCA) handleTPData(sa byte, data []byte) {
	c.mu.Lock()
	r, ok := c.reassemblers[sa]
	c.mu.Unlock()
	if !ok {
		return
	}
	complete, err := r.addSegment(data)
	if err != nil || !complete {
		return
	}
	c.mu.Lock()
	delete(c.reassemblers, sa)
	c.mu.Unlock()
	c.recv <- Message{SourceAddress: sa, PGN: r.pgn, Data: r.data(), Timestamp: time.Now()}
}

func (c *universalCA) sendCTS(sa byte, numPackets int) {
	frame := []byte{tpCMCTS, byte(numPackets), 1, 0xFF, 0xFF, 0, 0, 0}
	c.sendRaw(PGNTPConnMgmt, sa, frame)
}

func (c *universalCA) SendTo(pgn PGN, dest byte, data []byte) (int, error) {
	if len(data) <= 8 {
		padded := make([]byte, 8)
		for i := range padded {
			padded[i] = 0xFF
		}
		copy(padded, data)
		if err := c.sendRaw(pgn, dest, padded); err != nil {
			return 0, err
		}
		return len(data), nil
	}
	return c.sendMultiPacket(pgn, dest, data)
}

func (c *universalCA) sendMultiPacket(pgn PGN, dest byte, data []byte) (int, error) {
	segs := tpSegments(data)
	ack := make(chan struct{})
	c.mu.Lock()
	c.pendingAcks[dest] = ack
	c.mu.Unlock()

	if err := c.sendRaw(PGNTPConnMgmt, dest, tpRTSFrame(len(data), len(segs), pgn)); err != nil {
		return 0, err
	}
	for i, seg := range segs {
		if err := c.sendRaw(PGNTPDataTransfer, dest, tpDataFrame(i+1, seg)); err != nil {
			return 0, err
		}
	}
	select {
	case <-ack:
		return len(data), nil
	case <-time.After(tpSendTimeout):
		return 0, fmt.Errorf("j1939: multi-packet send to %d timed out waiting for End-of-Message Ack", dest)
	}
}

func (c *universalCA) SendGlobally(pgn PGN, data []byte) (int, error) {
	return c.SendTo(pgn, NoAddr, data)
}

func (c *universalCA) sendRaw(pgn PGN, dest byte, data []byte) error {
	id := encodeCANID(pgn, dest, c.address)
	var arr [8]byte
	n := copy(arr[:], data)
	frame := can.Frame{ID: id, Length: uint8(n), Data: arr}
	return c.bus.Publish(frame)
}

func (c *universalCA) RecvMsg(timeout time.Duration) (Message, bool, error) {
	select {
	case m := <-c.recv:
		return m, true, nil
	case <-time.After(timeout):
		return Message{}, false, nil
	}
}

func (c *universalCA) ScanForDevices(timeout time.Duration) ([]AddressClaim, error) {
	if _, err := c.SendGlobally(PGNRequest, PGNAddressClaimed.Bytes()); err != nil {
		return nil, err
	}
	seen := map[byte]bool{}
	var out []AddressClaim
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		m, ok, err := c.RecvMsg(time.Until(deadline))
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if m.PGN != PGNAddressClaimed || seen[m.SourceAddress] {
			continue
		}
		claim, err := ParseAddressClaim(Frame{SourceAddress: m.SourceAddress, PGN: m.PGN, Data: m.Data})
		if err != nil {
			continue
		}
		seen[m.SourceAddress] = true
		out = append(out, claim)
	}
	return out, nil
}

func (c *universalCA) Disconnect() error {
	return c.bus.Disconnect()
}

// encodeCANID/decodeCANID pack/unpack the 29-bit extended CAN identifier's
// priority/PGN/source-address fields, mirroring Message.can_id in
// j1939_ca.py.
const defaultPriority = 6

func encodeCANID(pgn PGN, dest, source byte) uint32 {
	p := uint32(pgn)
	if PGN(p).IsPDU1() {
		p = (p &^ 0xFF) | uint32(dest)
	}
	return uint32(defaultPriority)<<26 | p<<8 | uint32(source)
}

func decodeCANID(frame can.Frame) (PGN, byte, []byte) {
	id := frame.ID & 0x1FFFFFFF
	sa := byte(id & 0xFF)
	p := (id >> 8) & 0x3FFFF
	pgn := PGN(p)
	if pgn.IsPDU1() {
		pgn = PGN(p &^ 0xFF)
	}
	return pgn, sa, frame.Data[:frame.Length]
}
