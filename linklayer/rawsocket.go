// Package linklayer is the default link.Transport implementation: a raw
// AF_PACKET socket per circuit, filtered in-kernel to IS-IS traffic with a
// classic BPF program, joined to the All-L1-IS/All-L2-IS multicast groups,
// with interface identity discovered via netlink. Grounded on
// pyisis.lib.bpf.BPFInterface (the same role, BSD BPF instead of Linux
// AF_PACKET) and on the teacher's direct-syscall style in netlink/collector.
package linklayer

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/go-isis/isisd/codec"
)

func htons(v uint16) uint16 {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return binary.LittleEndian.Uint16(b[:])
}

var ethPAll = htons(unix.ETH_P_ALL)

// rawSocket is one AF_PACKET/SOCK_RAW socket bound to a single interface.
type rawSocket struct {
	fd      int
	ifIndex int
}

func newRawSocket(ifIndex int) (*rawSocket, error) {
	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW, int(ethPAll))
	if err != nil {
		return nil, fmt.Errorf("linklayer: socket: %w", err)
	}

	sa := &unix.SockaddrLinklayer{Protocol: ethPAll, Ifindex: ifIndex}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("linklayer: bind to ifindex %d: %w", ifIndex, err)
	}

	if err := attachFilter(fd); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("linklayer: attach BPF filter: %w", err)
	}

	s := &rawSocket{fd: fd, ifIndex: ifIndex}
	for _, group := range [][6]byte{codec.AllL1ISMulticast, codec.AllL2ISMulticast} {
		if err := s.joinMulticast(group); err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("linklayer: join multicast group %x: %w", group, err)
		}
	}
	return s, nil
}

func (s *rawSocket) joinMulticast(mac [6]byte) error {
	mreq := unix.PacketMreq{
		Ifindex: int32(s.ifIndex),
		Type:    unix.PACKET_MR_MULTICAST,
		Alen:    6,
	}
	copy(mreq.Address[:], mac[:])
	return unix.SetsockoptPacketMreq(s.fd, unix.SOL_PACKET, unix.PACKET_ADD_MEMBERSHIP, &mreq)
}

func (s *rawSocket) send(payload []byte) error {
	sa := &unix.SockaddrLinklayer{Protocol: ethPAll, Ifindex: s.ifIndex, Halen: 6}
	return unix.Sendto(s.fd, payload, 0, sa)
}

func (s *rawSocket) recv(buf []byte) (int, [6]byte, error) {
	n, from, err := unix.Recvfrom(s.fd, buf, 0)
	if err != nil {
		return 0, [6]byte{}, err
	}
	var srcMAC [6]byte
	if ll, ok := from.(*unix.SockaddrLinklayer); ok {
		copy(srcMAC[:], ll.Addr[:6])
	}
	return n, srcMAC, nil
}

func (s *rawSocket) Fd() int { return s.fd }

func (s *rawSocket) Close() error { return unix.Close(s.fd) }
