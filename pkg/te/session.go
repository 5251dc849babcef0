package te

// Session is the capability set shared by both transport-specific session
// implementations (hid.Session, j1939.Session). spec.md §9 calls out the
// source's TouchEncoder/GUIDEInterface as deep, transport-specialized
// interfaces and asks for them to be modeled as a capability set over a
// closed enum of transports rather than an open class hierarchy — this
// interface, and the fact that exactly two concrete types implement it, is
// that closed enum.
type Session interface {
	// InterfaceID returns "usb:<serial>" (HID) or "<can_iface>:<hex_addr>" (CAN).
	InterfaceID() string

	// InUtilityApp reports whether the device is currently running its
	// utility (servicing) firmware image rather than its normal project.
	InUtilityApp() (bool, error)

	Authenticate(clearance Clearance) (Status, error)

	RefreshVersionInfo() (Status, error)
	RefreshHardwareInfo() (Status, error)
	RefreshProjectInfo() (Status, error)
	RefreshInfo() (Status, error)

	SetBrightness(level int, store bool) (Status, error)
	SetRawInputEvent(enable bool) (Status, error)

	Restart(opts RestartOptions) (Status, error)
	Update(filePath string, progress ProgressFunc) (UpdateStatus, error)

	Guide() GuideInterface

	// Info returns the most recently refreshed device metadata snapshot.
	Info() *DeviceInfo

	// Disconnect stops the background receiver, joins it, and releases all
	// OS handles. Safe to call more than once.
	Disconnect() error
}

// GuideInterface is the transport-specific screen/variable contract
// (spec.md §4.7), implemented separately by hid.Guide and j1939.Guide.
type GuideInterface interface {
	GetScreen() (ScreenID, Status, error)
	SetScreen(id ScreenID) (Status, error)
	GetVariable(screen ScreenID, variable VariableID) (VariableData, Status, error)
	SetVariable(screen ScreenID, variable VariableID, data VariableData) (Status, error)
}

// ProgressFunc is the update progress callback: progress_cb(state[,
// completed, total]) in spec.md §4.6. completed/total are -1 when the
// transition being reported carries no progress fraction.
type ProgressFunc func(state UpdateState, completed, total int)

// DeviceInfo is the metadata snapshot populated by RefreshInfo and its
// narrower RefreshVersionInfo/RefreshHardwareInfo/RefreshProjectInfo
// siblings.
type DeviceInfo struct {
	InterfaceID string
	Hardware    HardwareID
	Version     Version
	Project     ProjectInfo
}

// RestartOptions parameterizes Restart (spec.md §4.5).
type RestartOptions struct {
	ToUtility    bool
	Wait         bool
	Authenticate bool
}
