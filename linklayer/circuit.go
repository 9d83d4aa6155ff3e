package linklayer

import (
	"fmt"
	"log"

	"golang.org/x/sys/unix"

	muuid "github.com/m-lab/uuid"

	"github.com/go-isis/isisd/codec"
	"github.com/go-isis/isisd/internal/xlog"
	"github.com/go-isis/isisd/link"
)

// soCookie is SO_COOKIE, a generic per-socket identifier the kernel assigns
// on creation; golang.org/x/sys/unix has no named constant for it, the same
// gap the teacher's own uuid package (SO_COOKIE = 57) works around.
const soCookie = 57

// circuitTag derives a short, stable per-circuit identifier from the raw
// socket's kernel cookie, reusing m-lab/uuid's cookie-to-string derivation
// (originally applied to TCP sockets' SO_COOKIE) for log lines and metrics
// labels instead of a TCP flow identity.
func circuitTag(fd int) string {
	cookie, err := unix.GetsockoptUint64(fd, unix.SOL_SOCKET, soCookie)
	if err != nil {
		return fmt.Sprintf("fd%d", fd)
	}
	tag, err := muuid.FromCookie(cookie)
	if err != nil {
		return fmt.Sprintf("cookie%d", cookie)
	}
	return tag
}

const maxFrameSize = 9000

// Circuit is one interface's raw-socket transport, implementing
// link.Transport.
type Circuit struct {
	ifname string
	sock   *rawSocket
	mac    [6]byte
	ipv4   [4]byte
	tag    string

	lk *link.Link
}

// NewCircuit opens a raw socket on ifname and discovers its MAC/IPv4
// identity. The returned Circuit has no Link yet; call Attach once the
// Link has been constructed with this Circuit as its Transport (NewLink
// needs the Transport before the Link object exists).
func NewCircuit(ifname string) (*Circuit, error) {
	info, err := getInterfaceInfo(ifname)
	if err != nil {
		return nil, err
	}
	sock, err := newRawSocket(info.Index)
	if err != nil {
		return nil, err
	}
	c := &Circuit{ifname: ifname, sock: sock, mac: info.MAC, ipv4: info.IPv4}
	c.tag = circuitTag(sock.Fd())
	log.Printf("linklayer: %s up, mac=%x ipv4=%v cookie=%s", ifname, c.mac, c.ipv4, c.tag)
	return c, nil
}

func (c *Circuit) MAC() [6]byte      { return c.mac }
func (c *Circuit) IPv4Addr() [4]byte { return c.ipv4 }

func (c *Circuit) WriteFrame(dst [6]byte, payload []byte) error {
	frame := codec.EncodeEthernetFrame(dst, c.mac, payload)
	return c.sock.send(frame)
}

// Attach records which Link this circuit's received frames and drain
// requests go to.
func (c *Circuit) Attach(lk *link.Link) { c.lk = lk }

// Fd is the underlying raw socket, for a Poller to multiplex.
func (c *Circuit) Fd() int { return c.sock.Fd() }

// HasPending reports whether this circuit's Link has flooding work queued.
func (c *Circuit) HasPending() bool { return c.lk != nil && c.lk.HasPending() }

// Drain flushes this circuit's Link's queued LSPs/SNP entries.
func (c *Circuit) Drain() {
	if c.lk != nil {
		c.lk.Drain()
	}
}

// ReadOne reads and dispatches one pending frame. Called by a Poller (or
// directly, in tests) once poll(2) reports the socket readable.
func (c *Circuit) ReadOne() {
	buf := make([]byte, maxFrameSize)
	n, srcMAC, err := c.sock.recv(buf)
	if err != nil {
		if err == unix.EAGAIN {
			return
		}
		log.Printf("linklayer: %s: recv: %v", c.ifname, err)
		return
	}
	frame, err := codec.DecodeEthernetFrame(buf[:n])
	if err != nil {
		xlog.Debugf("rx", "%s: %v", c.ifname, err)
		return
	}
	if c.lk == nil {
		return
	}
	if err := c.lk.ReceiveFrame(srcMAC, frame.Payload); err != nil {
		xlog.Debugf("rx", "%s: %v", c.ifname, err)
	}
}

func (c *Circuit) Close() error { return c.sock.Close() }
