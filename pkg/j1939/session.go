package j1939

import (
	"context"
	"encoding/binary"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/grayhill/touchencoder/pkg/te"
)

// Command opcodes, ported from touch_encoder.py's Commands class (shared
// with pkg/hid's session.go).
const (
	cmdSTAuth        = 0x01
	cmdRIE           = 0x08
	cmdBrightness    = 0x80
	cmdConfigureName = 0xE1
)

// confirmationTimeout/componentTimeout/uploadEOFTimeout mirror HID's tuning
// values (spec.md §4.6); restartAckTimeout and postUploadOKTimeout are the
// CAN-specific figures j1939_te.py uses in place of HID's.
const (
	restartAckTimeout   = 1 * time.Second
	updateTimeout       = 720 * time.Second
	confirmationTimeout = 1 * time.Second
	uploadEOFTimeout    = 60 * time.Second
	postUploadOKTimeout = 10 * time.Second
	componentTimeout    = 60 * time.Second
)

// updateChunkSize is the CAN transport's per-send payload size, grounded on
// J1939TouchEncoder.MTU — unlike HID's report-bounded chunk, CAN relies on
// the Transport Protocol (native or hand-rolled) to fragment it further.
const updateChunkSize = 1785

// NameSelector identifies which NAME field configure_j1939_name rewrites,
// ported from j1939_te.py's ConfigureJ1939NameSelector.
type NameSelector int

const (
	NameSelectorIndustryGroup         NameSelector = 1
	NameSelectorVehicleSystemInstance NameSelector = 2
	NameSelectorVehicleSystem         NameSelector = 3
	NameSelectorFunction              NameSelector = 5
	NameSelectorFunctionInstance      NameSelector = 6
	NameSelectorECUInstance           NameSelector = 7
)

// Session is the CAN transport's implementation of te.Session, grounded on
// j1939_te.py's J1939TouchEncoder. A background goroutine drains the CA's
// RecvMsg loop into a FIFO; AwaitResponse implements spec.md §4.4's
// response-correlation algorithm on top of it, exactly as hid.Session does
// for its own backend.
type Session struct {
	ca       CA
	canIface string

	mu      sync.Mutex
	address byte
	name    Name
	info    te.DeviceInfo

	queue  *te.FIFO[Message]
	guide  *Guide
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSession starts the background receive loop over ca and returns a
// ready-to-use Session talking to the device at address on canIface.
func NewSession(canIface string, ca CA, address byte, name Name) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ca:       ca,
		canIface: canIface,
		address:  address,
		name:     name,
		queue:    te.NewFIFO[Message](256),
		cancel:   cancel,
		info:     te.DeviceInfo{Version: te.NewVersion()},
	}
	s.info.InterfaceID = s.InterfaceID()
	s.guide = newGuide(s)

	s.wg.Add(1)
	go s.recvLoop(ctx)
	return s
}

func (s *Session) recvLoop(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		msg, ok, err := s.ca.RecvMsg(200 * time.Millisecond)
		if err != nil || !ok {
			runtime.Gosched()
			continue
		}
		s.queue.Push(msg)
	}
}

func (s *Session) frame(m Message) Frame {
	return Frame{SourceAddress: m.SourceAddress, PGN: m.PGN, Data: m.Data}
}

func (s *Session) currentAddress() byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.address
}

// responseParser attempts to decode m into a typed response, returning an
// error if m doesn't structurally match (treated as "keep waiting").
type responseParser func(m Message) (any, error)

// AwaitResponse implements spec.md §4.4's await_response over this
// transport's Message queue: pulls frames, drops anything older than since
// (when non-zero) or that no parser accepts, returns the first successfully
// parsed value.
func (s *Session) AwaitResponse(timeout time.Duration, since time.Time, parsers ...responseParser) (any, error) {
	ctx := context.Background()
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, fmt.Errorf("j1939: timed out waiting for response")
		}
		msg, ok := s.queue.Pop(ctx, remaining)
		if !ok {
			return nil, fmt.Errorf("j1939: timed out waiting for response")
		}
		if !since.IsZero() && msg.Timestamp.Before(since) {
			continue
		}
		for _, p := range parsers {
			if v, err := p(msg); err == nil {
				return v, nil
			}
		}
	}
}

// awaitGuideResponse waits for a single GUIDE command-response frame,
// mirroring guide_response()'s single-candidate calls in j1939_guide.py.
func (s *Session) awaitGuideResponse(timeout time.Duration, responsePGN PGN, command, wantScreen, wantVariable int) (guideResponse, error) {
	v, err := s.AwaitResponse(timeout, time.Time{}, func(m Message) (any, error) {
		return parseGuideResponse(s.frame(m), responsePGN, command, wantScreen, wantVariable)
	})
	if err != nil {
		return guideResponse{}, err
	}
	return v.(guideResponse), nil
}

// awaitGuideResponseOrAck waits for either the GUIDE command-response frame
// or an AckMsg (a NACK rejection), mirroring set_screen's
// await_res(expected_res=[screen_msg, AckMsg]).
func (s *Session) awaitGuideResponseOrAck(timeout time.Duration, responsePGN PGN, command, wantScreen, wantVariable int) (*Ack, *guideResponse, error) {
	addr := s.currentAddress()
	v, err := s.AwaitResponse(timeout, time.Time{},
		func(m Message) (any, error) {
			return parseGuideResponse(s.frame(m), responsePGN, command, wantScreen, wantVariable)
		},
		func(m Message) (any, error) {
			return ParseAck(s.frame(m), addr)
		},
	)
	if err != nil {
		return nil, nil, err
	}
	if ack, ok := v.(Ack); ok {
		return &ack, nil, nil
	}
	msg := v.(guideResponse)
	return nil, &msg, nil
}

func (s *Session) InterfaceID() string {
	return fmt.Sprintf("%s:%#x", s.canIface, s.currentAddress())
}

func (s *Session) sendCommand(opcode byte, args ...byte) error {
	payload := append([]byte{opcode}, args...)
	_, err := s.ca.SendTo(PGNProprietaryA, s.currentAddress(), payload)
	return err
}

// InUtilityApp reports whether the device is in its utility app by probing
// SetRawInputEvent, per j1939_te.py's in_utility_app property: the utility
// app NACKs the RIE command.
func (s *Session) InUtilityApp() (bool, error) {
	status, err := s.SetRawInputEvent(true)
	if err != nil {
		return false, err
	}
	return status == te.StatusNack, nil
}

func (s *Session) Authenticate(clearance te.Clearance) (te.Status, error) {
	addr := s.currentAddress()
	pgnBytes := PGNAuth.Bytes()
	if err := s.sendCommand(cmdSTAuth, byte(clearance), pgnBytes[0], pgnBytes[1], pgnBytes[2]); err != nil {
		return te.StatusError, err
	}

	v, err := s.AwaitResponse(confirmationTimeout, time.Time{}, func(m Message) (any, error) {
		return ParseAuth(s.frame(m), addr)
	})
	if err != nil {
		return te.StatusError, nil
	}
	auth := v.(Auth)
	if auth.State == te.AuthStateComplete {
		return te.StatusSuccess, nil
	}
	if auth.State != te.AuthStateChallenge {
		return te.StatusAuthRequestFailed, nil
	}

	// The CAN transport's secret is this CA's own claimed address, unlike
	// HID's fixed 0x1337 — per Authentication.secret(clearance, ca.address,
	// challenge) in j1939_te.py.
	response := te.ComputeAuthResponse(clearance, uint32(s.ca.Address()), auth.Challenge)
	respBytes := make([]byte, 4)
	binary.LittleEndian.PutUint32(respBytes, response)
	payload := append([]byte{byte(te.AuthStateResponse)}, respBytes...)
	if _, err := s.ca.SendTo(PGNAuth, addr, payload); err != nil {
		return te.StatusError, err
	}

	v, err = s.AwaitResponse(confirmationTimeout, time.Time{}, func(m Message) (any, error) {
		return ParseAuth(s.frame(m), addr)
	})
	if err != nil {
		return te.StatusAuthChallengeFailed, nil
	}
	auth = v.(Auth)
	if auth.State != te.AuthStateComplete {
		return te.StatusAuthChallengeFailed, nil
	}
	return te.StatusSuccess, nil
}

func (s *Session) RefreshVersionInfo() (te.Status, error) {
	addr := s.currentAddress()
	if _, err := s.ca.SendTo(PGNRequest, addr, PGNSoftwareID.Bytes()); err != nil {
		return te.StatusError, err
	}
	v, err := s.AwaitResponse(confirmationTimeout, time.Time{}, func(m Message) (any, error) {
		return ParseSoftwareID(s.frame(m), addr)
	})
	if err != nil {
		return te.StatusError, nil
	}
	s.mu.Lock()
	s.info.Version = v.(te.Version)
	s.mu.Unlock()
	return te.StatusSuccess, nil
}

func (s *Session) RefreshHardwareInfo() (te.Status, error) {
	addr := s.currentAddress()
	if err := s.sendCommand(cmdGetHardwareID); err != nil {
		return te.StatusError, err
	}
	v, err := s.AwaitResponse(confirmationTimeout, time.Time{}, func(m Message) (any, error) {
		return ParseHardwareID(s.frame(m), addr)
	})
	if err != nil {
		return te.StatusError, nil
	}
	s.mu.Lock()
	s.info.Hardware = v.(te.HardwareID)
	s.mu.Unlock()
	return te.StatusSuccess, nil
}

func (s *Session) RefreshProjectInfo() (te.Status, error) {
	addr := s.currentAddress()
	if err := s.sendCommand(cmdGetProjectInfo); err != nil {
		return te.StatusError, err
	}
	v, err := s.AwaitResponse(confirmationTimeout, time.Time{}, func(m Message) (any, error) {
		return ParseProjectInfo(s.frame(m), addr)
	})
	if err != nil {
		return te.StatusError, nil
	}
	s.mu.Lock()
	s.info.Project = v.(te.ProjectInfo)
	s.mu.Unlock()
	return te.StatusSuccess, nil
}

func (s *Session) RefreshInfo() (te.Status, error) {
	if status, err := s.RefreshVersionInfo(); err != nil || status != te.StatusSuccess {
		return status, err
	}
	if status, err := s.RefreshHardwareInfo(); err != nil || status != te.StatusSuccess {
		return status, err
	}
	return s.RefreshProjectInfo()
}

func (s *Session) ackParser(addr byte) responseParser {
	return func(m Message) (any, error) { return ParseAck(s.frame(m), addr) }
}

func (s *Session) SetBrightness(level int, store bool) (te.Status, error) {
	var storeBit byte
	if store {
		storeBit = 0x80
	}
	arg := byte(level&0x7F) | storeBit
	addr := s.currentAddress()
	if err := s.sendCommand(cmdBrightness, arg); err != nil {
		return te.StatusError, err
	}
	v, err := s.AwaitResponse(confirmationTimeout, time.Time{}, s.ackParser(addr))
	if err != nil {
		return te.StatusError, nil
	}
	if v.(Ack).Code == AckCodeOK {
		return te.StatusSuccess, nil
	}
	return te.StatusError, nil
}

func (s *Session) SetRawInputEvent(enable bool) (te.Status, error) {
	var enableByte byte
	if enable {
		enableByte = 1
	}
	addr := s.currentAddress()
	if err := s.sendCommand(cmdRIE, enableByte, 0, 0, 0); err != nil {
		return te.StatusError, err
	}
	v, err := s.AwaitResponse(confirmationTimeout, time.Time{}, s.ackParser(addr))
	if err != nil {
		return te.StatusError, nil
	}
	switch v.(Ack).Code {
	case AckCodeOK:
		return te.StatusSuccess, nil
	case AckCodeNack:
		return te.StatusNack, nil
	default:
		return te.StatusError, nil
	}
}

func (s *Session) Restart(opts te.RestartOptions) (te.Status, error) {
	hooks := te.RestartHooks{
		Authenticate: s.Authenticate,
		SendRestart: func(toUtility bool) error {
			opcode := byte(cmdRestart)
			if toUtility {
				opcode = cmdRestartUtil
			}
			return s.sendCommand(opcode)
		},
		AwaitAck: func(timeout time.Duration) (te.RestartAck, error) {
			addr := s.currentAddress()
			v, err := s.AwaitResponse(timeout, time.Now(), func(m Message) (any, error) {
				return ParseRestartAck(s.frame(m), addr)
			})
			if err != nil {
				return te.RestartAckOther, nil
			}
			switch v.(Ack).Code {
			case AckCodeOK:
				return te.RestartAckOK, nil
			case AckCodeAccessDenied:
				return te.RestartAckAccessDenied, nil
			default:
				return te.RestartAckOther, nil
			}
		},
		AckTimeout:  restartAckTimeout,
		AwaitReboot: s.awaitReboot,
	}
	return te.RunRestart(opts, hooks)
}

// awaitReboot waits for the device's address claim to reappear on the bus,
// updating this session's address/name on success, per j1939_te.py's
// restart()'s post-ack wait.
func (s *Session) awaitReboot(deadline time.Time) (te.Status, error) {
	v, err := s.AwaitResponse(time.Until(deadline), time.Time{}, func(m Message) (any, error) {
		return ParseAddressClaim(s.frame(m))
	})
	if err != nil {
		return te.StatusRestartTimeout, nil
	}
	claim := v.(AddressClaim)
	s.mu.Lock()
	s.address = claim.SourceAddress
	s.name = claim.Name
	s.mu.Unlock()
	return te.StatusSuccess, nil
}

// ConfigureName rewrites one field of the device's advertised J1939 NAME,
// per j1939_te.py's configure_j1939_name. It is CAN-specific and has no HID
// counterpart, so it is exposed only on this concrete type rather than on
// te.Session.
func (s *Session) ConfigureName(selector NameSelector, value uint32, authenticate bool) (te.Status, error) {
	if authenticate {
		status, err := s.Authenticate(te.ClearanceServiceTool)
		if err != nil {
			return te.StatusError, err
		}
		if status != te.StatusSuccess {
			return status, nil
		}
	}

	addr := s.currentAddress()
	valBytes := make([]byte, 4)
	binary.LittleEndian.PutUint32(valBytes, value)
	if err := s.sendCommand(cmdConfigureName, byte(selector), valBytes[0], valBytes[1], valBytes[2]); err != nil {
		return te.StatusError, err
	}
	v, err := s.AwaitResponse(confirmationTimeout, time.Time{}, s.ackParser(addr))
	if err != nil {
		return te.StatusError, nil
	}
	switch v.(Ack).Code {
	case AckCodeCantRespond:
		return te.StatusError, nil
	case AckCodeNack:
		return te.StatusNack, nil
	case AckCodeAccessDenied:
		return te.StatusAccessDenied, nil
	}
	return s.Restart(te.RestartOptions{})
}

func (s *Session) Update(filePath string, progress te.ProgressFunc) (te.UpdateStatus, error) {
	sessionPGN := PGNLiveUpdate
	hooks := te.UpdateHooks{
		ChunkSize: updateChunkSize,
		SendRequest: func(component te.ComponentType, fileSize int64) error {
			szBytes := []byte{byte(fileSize), byte(fileSize >> 8), byte(fileSize >> 16)}
			pgnBytes := sessionPGN.Bytes()
			return s.sendCommand(cmdLiveUpdate, append([]byte{component.wireByte(), szBytes[0], szBytes[1], szBytes[2]}, pgnBytes...)...)
		},
		ReadFrame: func(timeout time.Duration) (*te.UpdateFrame, error) {
			addr := s.currentAddress()
			v, err := s.AwaitResponse(timeout, time.Time{},
				func(m Message) (any, error) {
					c, err := ParseUpdateConfirmation(s.frame(m), addr)
					if err != nil {
						return nil, err
					}
					return te.UpdateFrame{Ack: &te.UpdateAckFrame{Confirmation: c}}, nil
				},
				func(m Message) (any, error) {
					st, err := ParseUpdateStatus(s.frame(m), addr, sessionPGN)
					if err != nil {
						return nil, err
					}
					return te.UpdateFrame{Status: &st}, nil
				},
			)
			if err != nil {
				return nil, err
			}
			frame := v.(te.UpdateFrame)
			return &frame, nil
		},
		SendChunk: func(payload []byte) (int, error) {
			return s.ca.SendTo(sessionPGN, s.currentAddress(), payload)
		},
		Restart:             s.Restart,
		OverallTimeout:      updateTimeout,
		ConfirmationTimeout: confirmationTimeout,
		UploadEOFTimeout:    uploadEOFTimeout,
		PostUploadOKTimeout: postUploadOKTimeout,
		ComponentTimeout:    componentTimeout,
	}
	return te.RunUpdate(filePath, progress, hooks)
}

func (s *Session) Guide() te.GuideInterface {
	return s.guide
}

func (s *Session) Info() *te.DeviceInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	info := s.info
	return &info
}

func (s *Session) Disconnect() error {
	s.cancel()
	s.wg.Wait()
	s.queue.Close()
	return s.ca.Disconnect()
}
