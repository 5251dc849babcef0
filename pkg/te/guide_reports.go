package te

import "fmt"

// TouchType classifies a TOUCH_EVENT notification.
type TouchType int

const (
	TouchDown TouchType = iota
	TouchMove
	TouchUp
	TouchEnter
	TouchLeave
)

// GestureType classifies a GESTURE_EVENT notification.
type GestureType int

const (
	GestureTap       GestureType = 0
	GestureAxisSwipe GestureType = 1
)

// SwipeDirection is the direction byte carried by an AXIS_SWIPE gesture.
type SwipeDirection int

const (
	SwipeUp SwipeDirection = iota
	SwipeDown
	SwipeLeft
	SwipeRight
	SwipeUnknown
)

// IntVarReport is the unsolicited INT_VAR notification: [3][screen][var][value:4 LE].
// screen_id and variable_id are kept as distinct fields — the original source
// reuses the name screen_id for both; spec.md §9 calls this out as a bug not
// to replicate.
type IntVarReport struct {
	ScreenID   ScreenID
	VariableID VariableID
	Value      int32
}

// ParseIntVarReport decodes an INT_VAR notification.
func ParseIntVarReport(b []byte) (IntVarReport, error) {
	if len(b) < 7 {
		return IntVarReport{}, fmt.Errorf("te: INT_VAR report too short: %d bytes", len(b))
	}
	return IntVarReport{
		ScreenID:   ScreenID(b[1]),
		VariableID: VariableID(b[2]),
		Value:      leInt32(b[3:7]),
	}, nil
}

// StringVarReport is the unsolicited STRING_VAR notification: [4][screen][var][utf8...].
type StringVarReport struct {
	ScreenID   ScreenID
	VariableID VariableID
	Value      string
}

// ParseStringVarReport decodes a STRING_VAR notification.
func ParseStringVarReport(b []byte) (StringVarReport, error) {
	if len(b) < 3 {
		return StringVarReport{}, fmt.Errorf("te: STRING_VAR report too short: %d bytes", len(b))
	}
	return StringVarReport{
		ScreenID:   ScreenID(b[1]),
		VariableID: VariableID(b[2]),
		Value:      NewRawVariable(b[3:]).ToString(),
	}, nil
}

// KnobEventReport is the unsolicited KNOB_EVENT notification:
// [16][elem_id][_][delta:2 LE signed].
type KnobEventReport struct {
	ElementID int
	Delta     int16
}

// ParseKnobEventReport decodes a KNOB_EVENT notification.
func ParseKnobEventReport(b []byte) (KnobEventReport, error) {
	if len(b) < 5 {
		return KnobEventReport{}, fmt.Errorf("te: KNOB_EVENT report too short: %d bytes", len(b))
	}
	return KnobEventReport{
		ElementID: int(b[1]),
		Delta:     int16(leUint16(b[3:5])),
	}, nil
}

// TouchEventReport is the unsolicited TOUCH_EVENT notification:
// [17][elem_id][type][_][x:2 LE signed][y:2 LE signed].
type TouchEventReport struct {
	ElementID int
	Type      TouchType
	X, Y      int16
}

// ParseTouchEventReport decodes a TOUCH_EVENT notification.
func ParseTouchEventReport(b []byte) (TouchEventReport, error) {
	if len(b) < 8 {
		return TouchEventReport{}, fmt.Errorf("te: TOUCH_EVENT report too short: %d bytes", len(b))
	}
	return TouchEventReport{
		ElementID: int(b[1]),
		Type:      TouchType(b[2]),
		X:         int16(leUint16(b[4:6])),
		Y:         int16(leUint16(b[6:8])),
	}, nil
}

// GestureEventReport is the unsolicited GESTURE_EVENT notification:
// [18][elem_id][type][_][payload]. Only the fields relevant to Type are
// populated: TAP sets X/Y; AXIS_SWIPE sets Direction.
type GestureEventReport struct {
	ElementID int
	Type      GestureType
	X, Y      int16
	Direction SwipeDirection
}

// ParseGestureEventReport decodes a GESTURE_EVENT notification.
func ParseGestureEventReport(b []byte) (GestureEventReport, error) {
	if len(b) < 5 {
		return GestureEventReport{}, fmt.Errorf("te: GESTURE_EVENT report too short: %d bytes", len(b))
	}
	r := GestureEventReport{
		ElementID: int(b[1]),
		Type:      GestureType(b[2]),
	}
	switch r.Type {
	case GestureTap:
		if len(b) < 8 {
			return GestureEventReport{}, fmt.Errorf("te: TAP gesture report too short: %d bytes", len(b))
		}
		r.X = int16(leUint16(b[4:6]))
		r.Y = int16(leUint16(b[6:8]))
	case GestureAxisSwipe:
		r.Direction = SwipeDirection(b[4])
	}
	return r, nil
}
