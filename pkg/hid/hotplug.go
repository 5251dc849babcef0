package hid

import (
	"time"

	"github.com/google/gousb"
)

// DeviceDescriptor identifies a vendor/product pair to watch for, mirroring
// hot_plug_utility.py's DevDsc.
type DeviceDescriptor struct {
	VendorID  gousb.ID
	ProductID gousb.ID
}

// WaitHotplugEvent blocks up to timeout for a USB device matching one of
// descs to arrive, returning its serial number, using gousb's native hotplug
// callback (libusb underneath, same mechanism hot_plug_utility.py drives
// directly via ctypes). Nothing in this module calls it: Session's restart
// wait polls Backend.Reconnect every 500ms on every platform instead.
func WaitHotplugEvent(ctx *gousb.Context, descs []DeviceDescriptor, timeout time.Duration) (string, bool) {
	found := make(chan string, 1)

	done := ctx.RegisterHotplug(func(event gousb.HotplugEvent) {
		if event.Type() != gousb.HotplugEventDeviceArrived {
			return
		}
		desc, err := event.DeviceDesc()
		if err != nil {
			return
		}
		for _, d := range descs {
			if desc.Vendor == d.VendorID && desc.Product == d.ProductID {
				dev, err := event.Open()
				if err != nil {
					continue
				}
				sn, _ := dev.SerialNumber()
				dev.Close()
				select {
				case found <- sn:
				default:
				}
				return
			}
		}
	})
	defer done()

	select {
	case sn := <-found:
		return sn, true
	case <-time.After(timeout):
		return "", false
	}
}
