// Package config parses the operator-supplied instance configuration: IS
// type, area address, system ID, priority, and the interface list (with its
// ":p2p" suffix convention), mirroring pyisis's instance.py/main.py.
package config

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// CircuitType is the IS-IS level(s) an instance or circuit runs, encoded as
// the low two bits of the PDU circuit-type field (ISO 10589 §9.5).
type CircuitType uint8

const (
	L1   CircuitType = 1
	L2   CircuitType = 2
	L1L2 CircuitType = 3
)

func (c CircuitType) String() string {
	switch c {
	case L1:
		return "l1"
	case L2:
		return "l2"
	case L1L2:
		return "l12"
	default:
		return fmt.Sprintf("CircuitType(%d)", uint8(c))
	}
}

// ParseCircuitType parses the --is-type flag value.
func ParseCircuitType(s string) (CircuitType, error) {
	switch s {
	case "l1":
		return L1, nil
	case "l2":
		return L2, nil
	case "l12":
		return L1L2, nil
	default:
		return 0, fmt.Errorf("config: is-type must be one of l1, l2, l12, got %q", s)
	}
}

// ParseISOAddress decodes a dotted-hex ISO address (an area ID or system
// ID) into raw bytes, e.g. "49.0001" or "0000.0000.0001". The dots are
// purely a readability grouping and carry no length information beyond the
// total hex digit count, matching pyisis.clns.iso_encode.
func ParseISOAddress(desc string) ([]byte, error) {
	digits := strings.ReplaceAll(desc, ".", "")
	if len(digits)%2 != 0 {
		return nil, fmt.Errorf("config: ISO address %q has an odd number of hex digits", desc)
	}
	raw, err := hex.DecodeString(digits)
	if err != nil {
		return nil, fmt.Errorf("config: ISO address %q: %w", desc, err)
	}
	return raw, nil
}

// ParseSysID parses a dotted-hex system ID, requiring exactly 6 bytes.
func ParseSysID(desc string) ([6]byte, error) {
	var out [6]byte
	raw, err := ParseISOAddress(desc)
	if err != nil {
		return out, err
	}
	if len(raw) != 6 {
		return out, fmt.Errorf("config: sysid must be 6 bytes, %q decoded to %d", desc, len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

// Instance is this router's process-wide configuration, mirroring
// pyisis.instance.Instance's constructor arguments.
type Instance struct {
	IsType   CircuitType
	AreaID   []byte
	SysID    [6]byte
	Priority uint8
	Hostname string
}

// InterfaceSpec is one operator-supplied interface argument. Interfaces are
// LAN (broadcast, DIS-electing) circuits by default; appending ":p2p"
// (e.g. "eth1:p2p") marks one as point-to-point, per pyisis.link.LinkDB.add_link.
type InterfaceSpec struct {
	IfName string
	P2P    bool
}

const p2pSuffix = ":p2p"

// ParseInterfaceSpec splits the optional ":p2p" suffix off one interface
// argument.
func ParseInterfaceSpec(arg string) InterfaceSpec {
	if strings.HasSuffix(arg, p2pSuffix) {
		return InterfaceSpec{IfName: strings.TrimSuffix(arg, p2pSuffix), P2P: true}
	}
	return InterfaceSpec{IfName: arg}
}

// ParseInterfaceSpecs splits every argument in args.
func ParseInterfaceSpecs(args []string) []InterfaceSpec {
	specs := make([]InterfaceSpec, len(args))
	for i, a := range args {
		specs[i] = ParseInterfaceSpec(a)
	}
	return specs
}
