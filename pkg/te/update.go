package te

import (
	"fmt"
	"io"
	"os"
	"time"
)

// UpdateConfirmation classifies the LIVE_UPDATE acknowledgement received in
// the UPDATE_CONFIRMATION state. HID and CAN carry this on the wire with
// inverted polarity (HID: 1=accept, CAN: 0=accept) — spec.md §9 is explicit
// that this inversion must not be normalized away, so each transport's own
// parser (hid.ParseUpdateAck, j1939.ParseUpdateConfirmation) maps its raw
// byte into this transport-agnostic enum before a frame reaches RunUpdate.
type UpdateConfirmation int

const (
	UpdateConfirmAccepted UpdateConfirmation = iota
	UpdateConfirmRejected
	UpdateConfirmDeviceBusy
	UpdateConfirmOther
)

// UpdateFrame is a decoded incoming frame relevant to the update state
// machine. Exactly one of Ack or Status is set.
type UpdateFrame struct {
	Ack    *UpdateAckFrame
	Status *UpdateStatusFrame
}

// UpdateAckFrame is the LIVE_UPDATE command acknowledgement.
type UpdateAckFrame struct {
	Confirmation UpdateConfirmation
}

// UpdateStatusFrame is an UPDATE_STATUS frame, shared by upload, update, and
// component progress reporting (spec.md §6). ComponentType/ComponentStatus/
// ComponentProgress are only meaningful when Type == UpdateStatusTypeComponent.
type UpdateStatusFrame struct {
	Type              UpdateStatusType
	UploadErr         UploadError
	Status            UpdateStatus
	ComponentType     ComponentType
	ComponentStatus   ComponentStatus
	ComponentProgress int
}

// UpdateHooks supplies the transport-specific behavior the shared update
// state machine drives, mirroring RestartHooks/RunRestart. The file-reading
// and state-transition logic lives here once; hid.Session and j1939.Session
// each provide only how a LIVE_UPDATE request is sent, how a chunk is
// physically transmitted, how frames are received, and their own transport
// timeouts, which spec.md §9 says must be allowed to diverge rather than be
// forced into a shared constant.
type UpdateHooks struct {
	// ChunkSize bounds how much of the file is read and handed to SendChunk
	// per call (HID: MAX_UPLOAD_SIZE report payload; CAN: the CA's MTU).
	ChunkSize int

	SendRequest func(component ComponentType, fileSize int64) error
	ReadFrame   func(timeout time.Duration) (*UpdateFrame, error)
	SendChunk   func(payload []byte) (sent int, err error)
	Restart     func(opts RestartOptions) (Status, error)

	// OverallTimeout is spec.md's UPDATE_TIMEOUT (720s default).
	OverallTimeout time.Duration
	// ConfirmationTimeout bounds the wait for the LIVE_UPDATE ack (1s).
	ConfirmationTimeout time.Duration
	// UploadEOFTimeout bounds the wait for the first status frame after the
	// last chunk is sent (60s).
	UploadEOFTimeout time.Duration
	// PostUploadOKTimeout, when non-zero, overrides the task deadline when
	// an upload-OK status frame is seen mid-upload (CAN only: 10s; HID
	// leaves the deadline alone here, per hid_te.py).
	PostUploadOKTimeout time.Duration
	// ComponentTimeout bounds the wait between component progress frames
	// while updating (60s).
	ComponentTimeout time.Duration
}

// RunUpdate drives the firmware/project update state machine described in
// spec.md §4.6, grounded on hid_te.py's and j1939_te.py's update() methods.
func RunUpdate(filePath string, progress ProgressFunc, hooks UpdateHooks) (UpdateStatus, error) {
	component := ComponentTypeFromFilename(filePath)
	if component == ComponentUnknown {
		progress(UpdateStateRejected, -1, -1)
		return UpdateError, fmt.Errorf("te: %q has no recognized update component extension", filePath)
	}

	info, err := os.Stat(filePath)
	if err != nil {
		return UpdateError, err
	}
	fileSize := info.Size()

	state := UpdateStateRequest
	status := UpdateError

	now := time.Now()
	overallDeadline := now.Add(hooks.OverallTimeout)
	taskDeadline := overallDeadline

	var file *os.File
	var uploaded int64
	defer func() {
		if file != nil {
			file.Close()
		}
	}()

	for {
		now = time.Now()
		if !now.Before(taskDeadline) || !now.Before(overallDeadline) {
			return UpdateTimeout, nil
		}

		frame, err := hooks.ReadFrame(0)
		if err != nil {
			return UpdateError, err
		}

		switch state {
		case UpdateStateRequest:
			progress(state, -1, -1)
			if err := hooks.SendRequest(component, fileSize); err != nil {
				return UpdateError, err
			}
			state = UpdateStateConfirmation
			taskDeadline = now.Add(hooks.ConfirmationTimeout)

		case UpdateStateConfirmation:
			progress(state, -1, -1)
			if frame == nil || frame.Ack == nil {
				continue
			}
			taskDeadline = overallDeadline

			switch frame.Ack.Confirmation {
			case UpdateConfirmAccepted:
				file, err = os.Open(filePath)
				if err != nil {
					return UpdateError, err
				}
				uploaded = 0
				state = UpdateStateFileUpload
				progress(state, int(uploaded), int(fileSize))
			case UpdateConfirmRejected:
				state = UpdateStateRejected
				progress(state, -1, -1)
				return UpdateError, nil
			case UpdateConfirmDeviceBusy:
				state = UpdateStateDeviceBusy
				progress(state, -1, -1)
				return UpdateError, nil
			default:
				state = UpdateStateError
				progress(state, -1, -1)
				return UpdateError, nil
			}

		case UpdateStateFileUpload:
			if frame != nil && frame.Status != nil {
				if frame.Status.UploadErr != UploadErrorOK {
					progress(UpdateStateUploadError, -1, -1)
					return UpdateError, nil
				}
				state = UpdateStateUpdating
				if hooks.PostUploadOKTimeout > 0 {
					taskDeadline = now.Add(hooks.PostUploadOKTimeout)
				}
				continue
			}
			if file == nil {
				continue
			}

			chunk := make([]byte, hooks.ChunkSize)
			n, err := file.Read(chunk)
			if n > 0 {
				sent, err := hooks.SendChunk(chunk[:n])
				if err != nil {
					return UpdateError, err
				}
				if sent != n {
					progress(UpdateStateUploadError, -1, -1)
					return UpdateError, nil
				}
				uploaded += int64(n)
				progress(state, int(uploaded), int(fileSize))
			}
			if err == io.EOF || n == 0 {
				file.Close()
				file = nil
				taskDeadline = now.Add(hooks.UploadEOFTimeout)
			} else if err != nil {
				return UpdateError, err
			}

		case UpdateStateUpdating:
			if frame == nil || frame.Status == nil {
				continue
			}
			switch frame.Status.Type {
			case UpdateStatusTypeComponent:
				taskDeadline = now.Add(hooks.ComponentTimeout)
				if frame.Status.ComponentStatus == ComponentStatusProgress {
					progress(componentState(frame.Status.ComponentType), frame.Status.ComponentProgress, 100)
				}
			case UpdateStatusTypeUpdate:
				status = frame.Status.Status
				if status != UpdateOngoing {
					if status >= UpdateSuccess {
						state = UpdateStateSuccess
					} else {
						state = UpdateStateError
					}
					goto done
				}
			}

		default:
			goto done
		}
	}

done:
	if state == UpdateStateSuccess && status != UpdateSuccessUpToDate {
		progress(UpdateStateRebooting, -1, -1)
		if _, err := hooks.Restart(RestartOptions{Wait: true}); err != nil {
			return status, err
		}
	}
	return status, nil
}

// componentState maps the component currently being flashed (as reported by
// a COMPONENT-typed UPDATE_STATUS frame) to its progress state.
func componentState(c ComponentType) UpdateState {
	switch c {
	case ComponentBootloader:
		return UpdateStateUpdatingBootloader
	case ComponentFirmware:
		return UpdateStateUpdatingFirmware
	case ComponentProject:
		return UpdateStateUpdatingProject
	default:
		return UpdateStateUpdating
	}
}
