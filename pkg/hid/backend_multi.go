package hid

import (
	"fmt"
	"strings"
	"time"

	hidapi "github.com/sstallion/go-hid"
)

// VendorID/ProductID are the USB identifiers every TE enumerates under,
// ported from hid_te.py's HIDTouchEncoder.VENDOR_ID/PRODUCT_ID.
const (
	VendorID  = 0x1658
	ProductID = 0x0060
)

// multiBackend is the Linux/macOS HID backend: each logical endpoint is a
// genuine separate USB interface (interface_number 0 = cmd, 1 = widget),
// ported from comm_interface/hid_interface.py's HIDInterface.
type multiBackend struct {
	devices map[Endpoint]*hidapi.Device
	paths   map[Endpoint]string
	serial  string
	recv    chan RawReport
	stop    chan struct{}
}

// OpenMulti enumerates and opens a TE's cmd (and widget, if present)
// interfaces by interface number.
func OpenMulti(serialNumber string) (Backend, error) {
	paths := map[Endpoint]string{}
	err := hidapi.Enumerate(VendorID, ProductID, func(info *hidapi.DeviceInfo) error {
		if serialNumber != "" && info.SerialNbr != serialNumber {
			return nil
		}
		switch info.InterfaceNbr {
		case 0:
			paths[EndpointCmd] = info.Path
			if serialNumber == "" {
				serialNumber = info.SerialNbr
			}
		case 1:
			paths[EndpointWidget] = info.Path
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("hid: enumerate: %w", err)
	}
	if _, ok := paths[EndpointCmd]; !ok {
		return nil, fmt.Errorf("hid: no cmd interface found for serial %q", serialNumber)
	}

	b := &multiBackend{
		devices: map[Endpoint]*hidapi.Device{},
		paths:   paths,
		serial:  serialNumber,
		recv:    make(chan RawReport, 64),
		stop:    make(chan struct{}),
	}
	if err := b.connect(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *multiBackend) connect() error {
	for ep, path := range b.paths {
		dev, err := hidapi.OpenPath(path)
		if err != nil {
			b.closeDevices()
			return fmt.Errorf("hid: open %s: %w", ep, err)
		}
		b.devices[ep] = dev
	}
	go b.recvLoop()
	return nil
}

func (b *multiBackend) recvLoop() {
	buf := make([]byte, MaxReportSize)
	for {
		select {
		case <-b.stop:
			return
		default:
		}
		for ep, dev := range b.devices {
			n, err := dev.ReadWithTimeout(buf, 100*time.Millisecond)
			if err != nil || n <= 0 {
				continue
			}
			data := make([]byte, n)
			copy(data, buf[:n])
			select {
			case b.recv <- RawReport{Endpoint: ep, Data: data, Timestamp: time.Now()}:
			default:
			}
		}
	}
}

func (b *multiBackend) closeDevices() {
	for _, dev := range b.devices {
		dev.Close()
	}
	b.devices = map[Endpoint]*hidapi.Device{}
}

func (b *multiBackend) SerialNumber() string { return b.serial }

func (b *multiBackend) Endpoints() []Endpoint {
	eps := make([]Endpoint, 0, len(b.devices))
	for ep := range b.devices {
		eps = append(eps, ep)
	}
	return eps
}

func (b *multiBackend) Send(ep Endpoint, data []byte) (int, error) {
	dev, ok := b.devices[ep]
	if !ok {
		return 0, fmt.Errorf("hid: endpoint %s not open", ep)
	}
	return dev.Write(data)
}

func (b *multiBackend) Recv(timeout time.Duration) (RawReport, bool, error) {
	select {
	case r := <-b.recv:
		return r, true, nil
	case <-time.After(timeout):
		return RawReport{}, false, nil
	}
}

func (b *multiBackend) ReadFeatureReport(reportID byte, length int) ([]byte, error) {
	dev, ok := b.devices[EndpointCmd]
	if !ok {
		return nil, fmt.Errorf("hid: cmd endpoint not open")
	}
	buf := make([]byte, length)
	buf[0] = reportID
	n, err := dev.GetFeatureReport(buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

func (b *multiBackend) Reconnect() error {
	close(b.stop)
	b.closeDevices()
	b.stop = make(chan struct{})

	matched := map[Endpoint]string{}
	err := hidapi.Enumerate(VendorID, ProductID, func(info *hidapi.DeviceInfo) error {
		if info.SerialNbr != "" && info.SerialNbr != b.serial {
			return nil
		}
		switch info.InterfaceNbr {
		case 0:
			matched[EndpointCmd] = info.Path
		case 1:
			matched[EndpointWidget] = info.Path
		}
		return nil
	})
	if err != nil {
		return err
	}
	if _, ok := matched[EndpointCmd]; !ok {
		return fmt.Errorf("hid: device %q not found", b.serial)
	}
	b.paths = matched
	return b.connect()
}

func (b *multiBackend) Close() error {
	close(b.stop)
	b.closeDevices()
	return nil
}

func endpointLabel(ep Endpoint) string { return strings.ToUpper(string(ep)) }
