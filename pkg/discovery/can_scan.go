package discovery

import (
	"fmt"
	"net"
	"regexp"
	"strconv"
	"time"

	"github.com/grayhill/touchencoder/pkg/j1939"
)

// maxTEsPerBus bounds how many discovered addresses a single scan window
// claims, ported from j1939_utility.py's MAX_NUM_TE_PER_BUS.
const maxTEsPerBus = 5

// ifaceNumber extracts the trailing digits of a CAN interface name ("can2"
// -> 2), mirroring j1939_utility.py's scan_bus_for_tes: `re.search(r'.*(\d+)',
// i_face).group(1)`.
var ifaceNumberPattern = regexp.MustCompile(`(\d+)$`)

func ifaceNumber(name string) (int, error) {
	m := ifaceNumberPattern.FindStringSubmatch(name)
	if m == nil {
		return 0, fmt.Errorf("discovery: %q carries no trailing interface number", name)
	}
	return strconv.Atoi(m[1])
}

// listCANInterfaces enumerates host network interfaces whose name contains
// "can", mirroring j1939_utility.py's get_all_can_interfaces() (which walks
// socket.if_nameindex() on Linux). Kept on net.Interfaces rather than a
// third-party dependency: no pack library offers CAN-aware interface
// enumeration, and the original itself only ever inspects generic interface
// names, never anything J1939-specific, to build this list.
func listCANInterfaces() ([]string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("discovery: list interfaces: %w", err)
	}
	var names []string
	for _, ifi := range ifaces {
		if containsCAN(ifi.Name) {
			names = append(names, ifi.Name)
		}
	}
	return names, nil
}

func containsCAN(name string) bool {
	for i := 0; i+3 <= len(name); i++ {
		if name[i:i+3] == "can" {
			return true
		}
	}
	return false
}

func openCA(iface string, address byte, universal bool) (j1939.CA, error) {
	if universal {
		return j1939.OpenUniversal(iface, address)
	}
	return j1939.OpenLinuxJ1939(iface, address)
}

// scanBus assigns the scanning CA the base address K*5+1 (K the interface's
// trailing number), broadcasts a scan, and opens one dedicated CA/Session
// pair per discovered device at base+1, base+2, ... up to maxTEsPerBus,
// ported verbatim from j1939_utility.py's scan_bus_for_tes: the scanning CA
// is disconnected once the scan window closes and each discovered TE gets
// its own freshly opened CA bound to its assigned address, never the
// scanning CA itself.
func scanBus(iface string, universal bool, timeout time.Duration) ([]*j1939.Session, error) {
	num, err := ifaceNumber(iface)
	if err != nil {
		return nil, err
	}
	baseAddr := num*maxTEsPerBus + 1

	scanCA, err := openCA(iface, byte(baseAddr), universal)
	if err != nil {
		return nil, fmt.Errorf("discovery: open scanning CA on %s: %w", iface, err)
	}
	claims, err := scanCA.ScanForDevices(timeout)
	scanCA.Disconnect()
	if err != nil {
		return nil, fmt.Errorf("discovery: scan %s: %w", iface, err)
	}

	var sessions []*j1939.Session
	for i, claim := range claims {
		if i >= maxTEsPerBus {
			break
		}
		baseAddr++
		// teCA claims a fresh host-side address (baseAddr) so each discovered
		// TE gets its own dedicated CA connection; the Session talks to the
		// TE at claim.SourceAddress, the address the TE itself claimed on the
		// bus — the two are distinct, matching scan_bus_for_tes's own `b_addr`
		// (the new CA's address) versus `addr[-1]` (the claim's source
		// address) split.
		teCA, err := openCA(iface, byte(baseAddr), universal)
		if err != nil {
			return sessions, fmt.Errorf("discovery: open CA for %s addr %d: %w", iface, baseAddr, err)
		}
		sessions = append(sessions, j1939.NewSession(iface, teCA, claim.SourceAddress, claim.Name))
	}
	return sessions, nil
}
