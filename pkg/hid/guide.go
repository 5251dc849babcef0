package hid

import (
	"fmt"
	"time"

	"github.com/grayhill/touchencoder/pkg/te"
)

// guideErrorReportID is the NACK report a SCREEN/VARIABLE set fails with,
// echoing the failed sub-command opcode at byte 1 (hid_guide.py's
// GuideErrorReport).
const guideErrorReportID = 0x20

// Guide is the HID transport's GUIDEInterface, grounded on hid_guide.py's
// HIDGUIDEInterface. get_screen reads a feature report; get_var, set_screen
// and set_var write to the widget endpoint and correlate the reply the same
// way session command calls do.
type Guide struct {
	session *Session
}

func (g *Guide) sendWidget(opcode byte, args ...byte) error {
	payload := append([]byte{opcode}, args...)
	_, err := g.session.backend.Send(EndpointWidget, payload)
	return err
}

func (g *Guide) GetScreen() (te.ScreenID, te.Status, error) {
	raw, err := g.session.backend.ReadFeatureReport(byte(ContextScreen), 2)
	if err != nil {
		return 0, te.StatusError, nil
	}
	if len(raw) < 2 {
		return 0, te.StatusError, fmt.Errorf("hid: screen report too short")
	}
	id, err := te.NewScreenID(int(raw[1]))
	if err != nil {
		return 0, te.StatusError, err
	}
	return id, te.StatusSuccess, nil
}

func (g *Guide) SetScreen(id te.ScreenID) (te.Status, error) {
	if err := g.sendWidget(byte(ContextScreen), byte(id)); err != nil {
		return te.StatusError, err
	}
	v, err := g.session.AwaitResponse(confirmationTimeout, time.Time{}, func(raw []byte) (any, error) {
		return parseGuideErrorOrScreen(raw, byte(ContextScreen))
	})
	if err != nil {
		return te.StatusError, nil
	}
	switch r := v.(type) {
	case guideError:
		return te.StatusNack, nil
	case te.ScreenID:
		if r == id {
			return te.StatusSuccess, nil
		}
	}
	return te.StatusError, nil
}

func (g *Guide) GetVariable(screen te.ScreenID, variable te.VariableID) (te.VariableData, te.Status, error) {
	if err := g.sendWidget(byte(ContextVariable), byte(screen), byte(variable), 0, 0); err != nil {
		return te.VariableData{}, te.StatusError, err
	}
	v, err := g.session.AwaitResponse(confirmationTimeout, time.Time{}, func(raw []byte) (any, error) {
		return parseVariableReport(raw)
	})
	if err != nil {
		return te.VariableData{}, te.StatusError, nil
	}
	vr := v.(variableReport)
	return vr.data, te.StatusSuccess, nil
}

func (g *Guide) SetVariable(screen te.ScreenID, variable te.VariableID, data te.VariableData) (te.Status, error) {
	raw := data.Bytes()
	sizeLE := []byte{byte(len(raw)), byte(len(raw) >> 8)}
	payload := append([]byte{byte(ContextVariable), byte(screen), byte(variable)}, sizeLE...)
	payload = append(payload, raw...)
	if _, err := g.session.backend.Send(EndpointWidget, payload); err != nil {
		return te.StatusError, err
	}

	v, err := g.session.AwaitResponse(confirmationTimeout, time.Time{}, func(raw []byte) (any, error) {
		if ge, err := parseGuideError(raw); err == nil {
			return ge, nil
		}
		return parseVariableReport(raw)
	})
	if err != nil {
		return te.StatusError, nil
	}
	switch r := v.(type) {
	case guideError:
		if r.failedReportID == byte(ContextVariable) {
			return te.StatusNack, nil
		}
	case variableReport:
		if r.screen == screen && r.variable == variable {
			return te.StatusSuccess, nil
		}
	}
	return te.StatusError, nil
}

type guideError struct {
	failedReportID byte
}

func parseGuideError(raw []byte) (guideError, error) {
	if len(raw) < 2 {
		return guideError{}, fmt.Errorf("hid: short report")
	}
	if raw[0] != guideErrorReportID {
		return guideError{}, fmt.Errorf("hid: report id %d is not GUIDE_ERROR", raw[0])
	}
	return guideError{failedReportID: raw[1]}, nil
}

func parseGuideErrorOrScreen(raw []byte, screenOpcode byte) (any, error) {
	if ge, err := parseGuideError(raw); err == nil {
		return ge, nil
	}
	if len(raw) < 2 || raw[0] != screenOpcode {
		return nil, fmt.Errorf("hid: not a screen report")
	}
	return te.ScreenID(raw[1]), nil
}

type variableReport struct {
	screen   te.ScreenID
	variable te.VariableID
	data     te.VariableData
}

func parseVariableReport(raw []byte) (variableReport, error) {
	if len(raw) < 5 {
		return variableReport{}, fmt.Errorf("hid: variable report too short")
	}
	if raw[0] != byte(ContextVariable) {
		return variableReport{}, fmt.Errorf("hid: report id %d is not VARIABLE", raw[0])
	}
	return variableReport{
		screen:   te.ScreenID(raw[1]),
		variable: te.VariableID(raw[2]),
		data:     te.NewRawVariable(raw[5:]),
	}, nil
}
