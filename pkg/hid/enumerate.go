package hid

import (
	"fmt"

	hidapi "github.com/sstallion/go-hid"
)

// ListSerials returns the distinct serial numbers of every enumerable TE,
// grounded on hid_utility.py's hid_enumerate(): group every matching
// interface descriptor by its serial number and report bogus (serial-less)
// entries rather than silently dropping them.
func ListSerials() ([]string, error) {
	seen := map[string]bool{}
	var serials []string
	err := hidapi.Enumerate(VendorID, ProductID, func(info *hidapi.DeviceInfo) error {
		if info.SerialNbr == "" {
			return nil
		}
		if !seen[info.SerialNbr] {
			seen[info.SerialNbr] = true
			serials = append(serials, info.SerialNbr)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("hid: enumerate: %w", err)
	}
	return serials, nil
}
