package hid

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/grayhill/touchencoder/pkg/te"
)

// Command opcodes, ported from touch_encoder.py's Commands class.
const (
	cmdSTAuth      = 0x01
	cmdRIE         = 0x08
	cmdRestart     = 0x44
	cmdRestartUtil = 0x45
	cmdBrightness  = 0x80
)

// restartAckTimeout and updateTimeout are spec.md §4.5/§4.6's HID-specific
// tuning values.
const (
	restartAckTimeout   = 5 * time.Second
	updateTimeout       = 720 * time.Second
	confirmationTimeout = 1 * time.Second
	uploadEOFTimeout    = 60 * time.Second
	componentTimeout    = 60 * time.Second
)

// Session is the HID transport's implementation of te.Session, grounded on
// hid_te.py's HIDTouchEncoder. A background goroutine drains the backend's
// Recv loop into a single FIFO; AwaitResponse implements spec.md §4.4's
// response-correlation algorithm (first accepting parser wins, frames older
// than a since-timestamp are dropped) on top of it.
type Session struct {
	backend Backend

	mu   sync.Mutex
	info te.DeviceInfo

	queue  *te.FIFO[RawReport]
	guide  *Guide
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSession starts the background receive loop over backend and returns a
// ready-to-use Session.
func NewSession(backend Backend) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		backend: backend,
		queue:   te.NewFIFO[RawReport](256),
		cancel:  cancel,
		info: te.DeviceInfo{
			Version: te.NewVersion(),
		},
	}
	s.info.InterfaceID = s.InterfaceID()
	s.guide = &Guide{session: s}

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
		report, ok, err := s.backend.Recv(200 * time.Millisecond)
		if err != nil || !ok {
			runtime.Gosched()
			continue
		}
		s.queue.Push(report)
	}
}

// responseParser attempts to decode raw into a typed response, returning an
// error if raw doesn't structurally match (which is treated as "keep
// waiting", per spec.md §4.4, not as a fatal error).
type responseParser func(raw []byte) (any, error)

// AwaitResponse implements spec.md §4.4's await_response: it pulls frames
// from the queue, drops anything older than since (when non-zero) or that no
// parser accepts, and returns the first successfully parsed value.
func (s *Session) AwaitResponse(timeout time.Duration, since time.Time, parsers ...responseParser) (any, error) {
	ctx := context.Background()
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, fmt.Errorf("hid: timed out waiting for response")
		}
		report, ok := s.queue.Pop(ctx, remaining)
		if !ok {
			return nil, fmt.Errorf("hid: timed out waiting for response")
		}
		if !since.IsZero() && report.Timestamp.Before(since) {
			continue
		}
		for _, p := range parsers {
			if v, err := p(report.Data); err == nil {
				return v, nil
			}
		}
	}
}

func (s *Session) InterfaceID() string {
	return fmt.Sprintf("usb:%s", s.backend.SerialNumber())
}

func (s *Session) InUtilityApp() (bool, error) {
	for _, ep := range s.backend.Endpoints() {
		if ep == EndpointWidget {
			return false, nil
		}
	}
	return true, nil
}

func (s *Session) sendCommand(opcode byte, args ...byte) error {
	payload := append([]byte{0x02, opcode}, args...)
	for len(payload) < 2+8 {
		payload = append(payload, 0)
	}
	_, err := s.backend.Send(EndpointCmd, payload)
	return err
}

func (s *Session) Authenticate(clearance te.Clearance) (te.Status, error) {
	if err := s.sendCommand(cmdSTAuth, byte(clearance), byte(ContextAuth), 0, 0, 0, 0, 0); err != nil {
		return te.StatusError, err
	}

	v, err := s.AwaitResponse(confirmationTimeout, time.Time{}, authReportParser)
	if err != nil {
		return te.StatusError, nil
	}
	ar := v.(AuthReport)
	if ar.State == te.AuthStateComplete {
		return te.StatusSuccess, nil
	}
	if ar.State != te.AuthStateChallenge {
		return te.StatusAuthRequestFailed, nil
	}

	response := te.ComputeAuthResponse(clearance, te.HIDAuthSecret(), ar.Challenge)
	respBytes := make([]byte, 4)
	respBytes[0] = byte(response)
	respBytes[1] = byte(response >> 8)
	respBytes[2] = byte(response >> 16)
	respBytes[3] = byte(response >> 24)
	frame, err := BuildContextSensitiveReport(ContextAuth, []byte{byte(te.AuthStateResponse)}, respBytes)
	if err != nil {
		return te.StatusError, err
	}
	if _, err := s.backend.Send(EndpointCmd, frame); err != nil {
		return te.StatusError, err
	}

	v, err = s.AwaitResponse(confirmationTimeout, time.Time{}, authReportParser)
	if err != nil {
		return te.StatusAuthChallengeFailed, nil
	}
	ar = v.(AuthReport)
	if ar.State != te.AuthStateComplete {
		return te.StatusAuthChallengeFailed, nil
	}
	return te.StatusSuccess, nil
}

func authReportParser(raw []byte) (any, error) { return ParseAuthReport(raw) }
func ackReportParser(raw []byte) (any, error)  { return ParseAckReport(raw) }

func (s *Session) RefreshVersionInfo() (te.Status, error) {
	readOne := func(reportID ReportID, length int) string {
		raw, err := s.backend.ReadFeatureReport(byte(reportID), length)
		if err != nil {
			return "Not Found"
		}
		v, err := te.DecodeVersionTriplet(raw[1:7])
		if err != nil {
			return "Not Found"
		}
		return v
	}

	s.mu.Lock()
	s.info.Version = te.Version{
		Firmware:   readOne(ReportFWVersion, 7),
		Bootloader: readOne(ReportBLVersion, 7),
		Project:    readOne(ReportProjVersion, 7),
	}
	s.mu.Unlock()
	return te.StatusSuccess, nil
}

func (s *Session) RefreshHardwareInfo() (te.Status, error) {
	if err := s.sendCommand(cmdGetHardwareID); err != nil {
		return te.StatusError, err
	}
	v, err := s.AwaitResponse(confirmationTimeout, time.Time{}, func(raw []byte) (any, error) {
		return ParseHardwareIDReport(raw)
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
	if err := s.sendCommand(cmdGetProjectInfo); err != nil {
		return te.StatusError, err
	}
	v, err := s.AwaitResponse(confirmationTimeout, time.Time{}, func(raw []byte) (any, error) {
		return ParseProjectInfoReport(raw)
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

func (s *Session) SetBrightness(level int, store bool) (te.Status, error) {
	var storeBit byte
	if store {
		storeBit = 0x80
	}
	arg := byte(level&0x7F) | storeBit
	if err := s.sendCommand(cmdBrightness, arg); err != nil {
		return te.StatusError, err
	}
	v, err := s.AwaitResponse(confirmationTimeout, time.Time{}, ackReportParser)
	if err != nil {
		return te.StatusError, nil
	}
	if v.(AckReport).Code == AckOK {
		return te.StatusSuccess, nil
	}
	return te.StatusError, nil
}

func (s *Session) SetRawInputEvent(enable bool) (te.Status, error) {
	var arg byte
	if enable {
		arg = 1
	}
	if err := s.sendCommand(cmdRIE, arg); err != nil {
		return te.StatusError, err
	}
	v, err := s.AwaitResponse(confirmationTimeout, time.Time{}, ackReportParser)
	if err != nil {
		return te.StatusError, nil
	}
	if v.(AckReport).Code == AckOK {
		return te.StatusSuccess, nil
	}
	return te.StatusError, nil
}

func (s *Session) Restart(opts te.RestartOptions) (te.Status, error) {
	hooks := te.RestartHooks{
		Authenticate: s.Authenticate,
		SendRestart: func(toUtility bool) error {
			opcode := byte(cmdRestart)
			if toUtility {
				opcode = cmdRestartUtil
			}
			return s.sendCommand(opcode, 0, 0, 0, 0, 0, 0, 0)
		},
		AwaitAck: func(timeout time.Duration) (te.RestartAck, error) {
			v, err := s.AwaitResponse(timeout, time.Time{}, ackReportParser)
			if err != nil {
				return te.RestartAckOther, nil
			}
			switch v.(AckReport).Code {
			case AckOK:
				return te.RestartAckOK, nil
			case AckAccessDenied:
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

// awaitReboot polls Backend.Reconnect every 500ms, on every platform, until it
// succeeds or deadline passes. Reconnect closes the current handles and
// re-opens the device by its serial number. No hot-plug event is awaited:
// WaitHotplugEvent is not used here.
func (s *Session) awaitReboot(deadline time.Time) (te.Status, error) {
	for time.Now().Before(deadline) {
		if err := s.backend.Reconnect(); err == nil {
			return te.StatusSuccess, nil
		}
		time.Sleep(500 * time.Millisecond)
	}
	return te.StatusRestartTimeout, nil
}

func (s *Session) Update(filePath string, progress te.ProgressFunc) (te.UpdateStatus, error) {
	hooks := te.UpdateHooks{
		ChunkSize: MaxUpdateChunk,
		SendRequest: func(component te.ComponentType, fileSize int64) error {
			szBytes := []byte{
				byte(fileSize), byte(fileSize >> 8), byte(fileSize >> 16), byte(fileSize >> 24),
			}
			return s.sendCommand(cmdLiveUpdate, component.wireByte(), szBytes[0], szBytes[1], szBytes[2], szBytes[3], 0, 0)
		},
		ReadFrame: func(timeout time.Duration) (*te.UpdateFrame, error) {
			v, err := s.AwaitResponse(timeout, time.Time{},
				func(raw []byte) (any, error) {
					c, err := ParseUpdateAck(raw)
					if err != nil {
						return nil, err
					}
					return te.UpdateFrame{Ack: &te.UpdateAckFrame{Confirmation: c}}, nil
				},
				func(raw []byte) (any, error) {
					st, err := ParseUpdateStatus(raw)
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
			frame := make([]byte, 3+len(payload))
			frame[0] = byte(ReportUpdateData)
			frame[1] = byte(len(payload))
			frame[2] = byte(len(payload) >> 8)
			copy(frame[3:], payload)
			return s.backend.Send(EndpointUpdate, frame)
		},
		Restart:             s.Restart,
		OverallTimeout:      updateTimeout,
		ConfirmationTimeout: confirmationTimeout,
		UploadEOFTimeout:    uploadEOFTimeout,
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
	return s.backend.Close()
}
