package j1939

import (
	"fmt"
	"time"

	"github.com/grayhill/touchencoder/pkg/te"
)

// GUIDE_GET / GUIDE_SET opcodes, the GUIDE response-PGN reconfiguration
// opcode, and the Commands sub-codes, ported from j1939_guide.py's
// J1939GUIDEInterface.
const (
	guideGet  = 0x0A
	guideSet  = 0x0B
	pgnConfig = 0xD9

	guideCmdScreen         = 0x01
	guideCmdVariable       = 0x02
	guideCmdIntVariable    = 0x03
	guideCmdStringVariable = 0x04
)

// guideResponse is a decoded GUIDE command-response frame, grounded on
// j1939_guide.py's dynamically-constructed GUIDEMsg: the PGN, echoed command
// byte, and screen/variable identifiers have already been validated by
// parseGuideResponse by the time one of these is produced.
type guideResponse struct {
	ScreenID   te.ScreenID
	VariableID te.VariableID
	Data       []byte
}

// parseGuideResponse validates f against the response PGN the GUIDE
// interface is currently configured to use, the expected command byte
// (guideCmdScreen/guideCmdVariable/...), and, when non-negative, the
// expected screen/variable identifiers — mirroring guide_response()'s
// per-call factory in j1939_guide.py without needing a dynamically
// generated type per call.
func parseGuideResponse(f Frame, responsePGN PGN, command, wantScreen, wantVariable int) (guideResponse, error) {
	if err := requirePGN(f, responsePGN); err != nil {
		return guideResponse{}, err
	}
	if len(f.Data) < 2 {
		return guideResponse{}, fmt.Errorf("j1939: guide response too short")
	}
	if int(f.Data[0]) != command {
		return guideResponse{}, fmt.Errorf("j1939: guide response carries command 0x%02X, want 0x%02X", f.Data[0], command)
	}
	screenID := te.ScreenID(f.Data[1])
	if wantScreen >= 0 && int(screenID) != wantScreen {
		return guideResponse{}, fmt.Errorf("j1939: guide response screen %d, want %d", screenID, wantScreen)
	}
	r := guideResponse{ScreenID: screenID, Data: f.Data}
	if len(f.Data) > 2 {
		r.VariableID = te.VariableID(f.Data[2])
		if wantVariable >= 0 && int(r.VariableID) != wantVariable {
			return guideResponse{}, fmt.Errorf("j1939: guide response variable %d, want %d", r.VariableID, wantVariable)
		}
	} else if wantVariable >= 0 {
		return guideResponse{}, fmt.Errorf("j1939: guide response carries no variable id")
	}
	return r, nil
}

// Guide is the CAN transport's GUIDEInterface, responding on whatever PGN
// the device was last configured to use (PGN_CONFIG), defaulting to the
// shared GUIDE PGN.
type Guide struct {
	session     *Session
	responsePGN PGN
}

func newGuide(s *Session) *Guide {
	return &Guide{session: s, responsePGN: PGNGuide}
}

// SetResponsePGN reconfigures the PGN the device replies on for subsequent
// GUIDE requests, per j1939_guide.py's set_response_pgn.
func (g *Guide) SetResponsePGN(pgn PGN) (te.Status, error) {
	pgnBytes := pgn.Bytes()
	if err := g.session.sendCommand(pgnConfig, pgnBytes[0], pgnBytes[1], pgnBytes[2], 0, 0, 0, 0); err != nil {
		return te.StatusError, err
	}
	addr := g.session.currentAddress()
	v, err := g.session.AwaitResponse(confirmationTimeout, time.Time{}, func(m Message) (any, error) {
		return ParseAck(g.session.frame(m), addr)
	})
	if err != nil {
		return te.StatusError, nil
	}
	ack := v.(Ack)
	switch {
	case ack.Code == AckCodeNack:
		return te.StatusNack, nil
	case ack.Code == AckCodeOK && ack.GroupFunc == pgnConfig:
		g.responsePGN = pgn
		return te.StatusSuccess, nil
	default:
		return te.StatusError, nil
	}
}

func (g *Guide) GetScreen() (te.ScreenID, te.Status, error) {
	if err := g.session.sendCommand(guideGet, guideCmdScreen, 0, 0, 0, 0, 0, 0); err != nil {
		return 0, te.StatusError, err
	}
	v, err := g.session.awaitGuideResponse(confirmationTimeout, g.responsePGN, guideCmdScreen, -1, -1)
	if err != nil {
		return 0, te.StatusError, nil
	}
	return v.ScreenID, te.StatusSuccess, nil
}

func (g *Guide) SetScreen(id te.ScreenID) (te.Status, error) {
	if err := g.session.sendCommand(guideSet, guideCmdScreen, byte(id), 0, 0, 0, 0, 0); err != nil {
		return te.StatusError, err
	}
	ack, msg, err := g.session.awaitGuideResponseOrAck(confirmationTimeout, g.responsePGN, guideCmdScreen, int(id), -1)
	if err != nil {
		return te.StatusError, nil
	}
	if ack != nil {
		if ack.Code == AckCodeNack {
			return te.StatusNack, nil
		}
		return te.StatusError, nil
	}
	if msg != nil && msg.ScreenID == id {
		return te.StatusSuccess, nil
	}
	return te.StatusError, nil
}

func (g *Guide) GetVariable(screen te.ScreenID, variable te.VariableID) (te.VariableData, te.Status, error) {
	if err := g.session.sendCommand(guideGet, guideCmdVariable, byte(screen), byte(variable), 0, 0, 0, 0); err != nil {
		return te.VariableData{}, te.StatusError, err
	}
	v, err := g.session.awaitGuideResponse(confirmationTimeout, g.responsePGN, guideCmdVariable, int(screen), int(variable))
	if err != nil {
		return te.VariableData{}, te.StatusError, nil
	}
	if len(v.Data) < 4 {
		return te.VariableData{}, te.StatusError, fmt.Errorf("j1939: variable response too short")
	}
	return te.NewRawVariable(v.Data[3:]), te.StatusSuccess, nil
}

// SetVariable sends the write and awaits either an INT_VARIABLE/
// STRING_VARIABLE echo (success) or an AckMsg (rejection), per
// j1939_guide.py's set_var.
func (g *Guide) SetVariable(screen te.ScreenID, variable te.VariableID, data te.VariableData) (te.Status, error) {
	payload := append([]byte{guideSet, guideCmdVariable, byte(screen), byte(variable)}, data.Bytes()...)
	addr := g.session.currentAddress()
	if _, err := g.session.ca.SendTo(PGNProprietaryA, addr, payload); err != nil {
		return te.StatusError, err
	}

	v, err := g.session.AwaitResponse(confirmationTimeout, time.Time{},
		func(m Message) (any, error) {
			return parseGuideResponse(g.session.frame(m), g.responsePGN, guideCmdIntVariable, int(screen), int(variable))
		},
		func(m Message) (any, error) {
			return parseGuideResponse(g.session.frame(m), g.responsePGN, guideCmdStringVariable, int(screen), int(variable))
		},
		func(m Message) (any, error) {
			return ParseAck(g.session.frame(m), addr)
		},
	)
	if err != nil {
		return te.StatusError, nil
	}
	if ack, ok := v.(Ack); ok {
		if ack.Code == AckCodeNack {
			return te.StatusNack, nil
		}
		return te.StatusError, nil
	}
	return te.StatusSuccess, nil
}
