package linklayer

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Poller multiplexes the receive-and-send event loop across every
// registered circuit's raw socket with a single poll(2) call per
// iteration, the equivalent of the Python original's select() loop over
// each link's BPFInterface.fileno().
type Poller struct {
	circuits []*Circuit
}

// NewPoller builds a Poller over circuits. The slice is read-only to the
// Poller after construction; circuits must not be added or removed once
// Run starts.
func NewPoller(circuits []*Circuit) *Poller {
	return &Poller{circuits: circuits}
}

// Run polls forever, reading inbound frames and draining queued outbound
// ones as each circuit's socket becomes ready. It returns only on a poll(2)
// error other than EINTR.
func (p *Poller) Run() error {
	fds := make([]unix.PollFd, len(p.circuits))
	for {
		for i, c := range p.circuits {
			events := int16(unix.POLLIN)
			if c.HasPending() {
				events |= unix.POLLOUT
			}
			fds[i] = unix.PollFd{Fd: int32(c.Fd()), Events: events}
		}

		n, err := unix.Poll(fds, -1)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return fmt.Errorf("linklayer: poll: %w", err)
		}
		if n == 0 {
			continue
		}

		for i, pfd := range fds {
			if pfd.Revents&unix.POLLIN != 0 {
				p.circuits[i].ReadOne()
			}
			if pfd.Revents&unix.POLLOUT != 0 {
				p.circuits[i].Drain()
			}
		}
	}
}
