package linklayer

import (
	"fmt"

	"github.com/vishvananda/netlink"
)

// interfaceInfo is what a circuit needs to know about its underlying NIC.
type interfaceInfo struct {
	Index int
	MAC   [6]byte
	IPv4  [4]byte
}

// getInterfaceInfo discovers ifname's index, MAC, and primary IPv4 address,
// the same role as pyisis.lib.bpf.BPFInterface.get_if_addrs (which parses
// ifconfig(8) output); here it's a netlink query instead.
func getInterfaceInfo(ifname string) (interfaceInfo, error) {
	var info interfaceInfo

	l, err := netlink.LinkByName(ifname)
	if err != nil {
		return info, fmt.Errorf("linklayer: %s: %w", ifname, err)
	}
	info.Index = l.Attrs().Index

	hw := l.Attrs().HardwareAddr
	if len(hw) != 6 {
		return info, fmt.Errorf("linklayer: %s: expected a 6-byte MAC, got %d bytes", ifname, len(hw))
	}
	copy(info.MAC[:], hw)

	addrs, err := netlink.AddrList(l, netlink.FAMILY_V4)
	if err != nil {
		return info, fmt.Errorf("linklayer: %s: listing IPv4 addresses: %w", ifname, err)
	}
	if len(addrs) == 0 {
		return info, fmt.Errorf("linklayer: %s: no IPv4 address configured", ifname)
	}
	ip4 := addrs[0].IP.To4()
	if ip4 == nil {
		return info, fmt.Errorf("linklayer: %s: address %s is not IPv4", ifname, addrs[0].IP)
	}
	copy(info.IPv4[:], ip4)

	return info, nil
}
