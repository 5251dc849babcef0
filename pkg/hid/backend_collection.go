package hid

import (
	"fmt"
	"strings"
	"time"

	hidapi "github.com/sstallion/go-hid"
)

// colSuffix maps a TE endpoint to the ColNN path suffix Windows assigns each
// top-level collection within USB interface 0, ported from
// comm_interface/hid_interface_win.py's connect().
var colSuffix = map[string]Endpoint{
	"Col01": EndpointCmd,
	"Col02": EndpointSwVer,
	"Col03": EndpointRIE0,
	"Col04": EndpointRIE1,
	"Col05": EndpointUpdate,
}

// collectionBackend is the Windows HID backend: interface 0 is a single
// physical USB interface split into five top-level HID collections
// distinguished only by a ColNN suffix on the device path; interface 1
// remains the separate widget interface, same as the multi backend.
type collectionBackend struct {
	devices map[Endpoint]*hidapi.Device
	serial  string
	recv    chan RawReport
	stop    chan struct{}
}

// OpenCollection enumerates and opens a TE's Col01-05 collections plus its
// widget interface by serial number.
func OpenCollection(serialNumber string) (Backend, error) {
	paths := map[Endpoint]string{}
	err := hidapi.Enumerate(VendorID, ProductID, func(info *hidapi.DeviceInfo) error {
		if serialNumber != "" && info.SerialNbr != serialNumber {
			return nil
		}
		if info.InterfaceNbr == 1 {
			paths[EndpointWidget] = info.Path
			return nil
		}
		for suffix, ep := range colSuffix {
			if strings.Contains(info.Path, suffix) {
				paths[ep] = info.Path
				if serialNumber == "" {
					serialNumber = info.SerialNbr
				}
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("hid: enumerate: %w", err)
	}
	if _, ok := paths[EndpointCmd]; !ok {
		return nil, fmt.Errorf("hid: no Col01 (cmd) collection found for serial %q", serialNumber)
	}

	b := &collectionBackend{
		devices: map[Endpoint]*hidapi.Device{},
		serial:  serialNumber,
		recv:    make(chan RawReport, 64),
		stop:    make(chan struct{}),
	}
	for ep, path := range paths {
		dev, err := hidapi.OpenPath(path)
		if err != nil {
			b.closeDevices()
			return nil, fmt.Errorf("hid: open %s: %w", ep, err)
		}
		b.devices[ep] = dev
	}
	go b.recvLoop()
	return b, nil
}

func (b *collectionBackend) recvLoop() {
	buf := make([]byte, MaxReportSize)
	// Only cmd and widget feed the correlated-response queue; sw_ver/rie/
	// update are read directly by their dedicated accessors, mirroring
	// hid_interface_win.py's _recv_rpt filtering.
	for {
		select {
		case <-b.stop:
			return
		default:
		}
		for _, ep := range []Endpoint{EndpointCmd, EndpointWidget} {
			dev, ok := b.devices[ep]
			if !ok {
				continue
			}
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

func (b *collectionBackend) closeDevices() {
	for _, dev := range b.devices {
		dev.Close()
	}
	b.devices = map[Endpoint]*hidapi.Device{}
}

func (b *collectionBackend) SerialNumber() string { return b.serial }

func (b *collectionBackend) Endpoints() []Endpoint {
	eps := make([]Endpoint, 0, len(b.devices))
	for ep := range b.devices {
		eps = append(eps, ep)
	}
	return eps
}

func (b *collectionBackend) Send(ep Endpoint, data []byte) (int, error) {
	dev, ok := b.devices[ep]
	if !ok {
		return 0, fmt.Errorf("hid: endpoint %s not open", ep)
	}
	return dev.Write(data)
}

func (b *collectionBackend) Recv(timeout time.Duration) (RawReport, bool, error) {
	select {
	case r := <-b.recv:
		return r, true, nil
	case <-time.After(timeout):
		return RawReport{}, false, nil
	}
}

func (b *collectionBackend) ReadFeatureReport(reportID byte, length int) ([]byte, error) {
	dev, ok := b.devices[EndpointSwVer]
	if !ok {
		return nil, fmt.Errorf("hid: sw_ver endpoint not open")
	}
	buf := make([]byte, length)
	buf[0] = reportID
	n, err := dev.GetFeatureReport(buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

func (b *collectionBackend) Reconnect() error {
	close(b.stop)
	b.closeDevices()
	b.stop = make(chan struct{})

	next, err := OpenCollection(b.serial)
	if err != nil {
		return err
	}
	nb := next.(*collectionBackend)
	b.devices = nb.devices
	b.recv = nb.recv
	b.stop = nb.stop
	return nil
}

func (b *collectionBackend) Close() error {
	close(b.stop)
	b.closeDevices()
	return nil
}
