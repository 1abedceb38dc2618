//go:build linux

package regmem

import (
	"errors"
	"fmt"
	"net"

	"golang.org/x/sys/unix"

	"github.com/lightap/lap-com/pkg/regerr"
	"github.com/lightap/lap-com/pkg/regtable"
)

// Client is a Table Client handle (spec §4.4): it owns a received memory
// descriptor and its mapping for exactly one Fixed-Slot Table.
//
// A Client must be constructed via Attach; the zero value is not usable.
type Client struct {
	fd   int
	data []byte
}

// Attach connects to socketPath, receives the sealed memory file
// descriptor, and maps it (spec §4.4 "attach").
func Attach(socketPath string) (*Client, error) {
	addr, err := net.ResolveUnixAddr("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("regmem: resolve socket path: %w: %w", err, regerr.ErrSocketConnectFailed)
	}

	conn, err := net.DialUnix("unix", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("regmem: connect: %w: %w", err, regerr.ErrSocketConnectFailed)
	}

	defer func() { _ = conn.Close() }()

	fd, err := receiveFd(conn)
	if err != nil {
		return nil, err
	}

	data, err := unix.Mmap(fd, 0, regtable.Size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Close(fd)

		return nil, fmt.Errorf("regmem: mmap: %w: %w", err, regerr.ErrMemoryMapFailed)
	}

	return &Client{fd: fd, data: data}, nil
}

// receiveFd reads the single spec §6.2 message off conn and extracts its
// ancillary file descriptor.
func receiveFd(conn *net.UnixConn) (int, error) {
	payload := make([]byte, 1)
	oob := make([]byte, unix.CmsgSpace(4))

	n, oobn, _, _, err := conn.ReadMsgUnix(payload, oob)
	if err != nil {
		return -1, fmt.Errorf("regmem: receive message: %w: %w", err, regerr.ErrFdReceiveFailed)
	}

	if n != 1 || oobn == 0 {
		return -1, fmt.Errorf("regmem: message carried no ancillary data: %w", regerr.ErrFdReceiveFailed)
	}

	cmsgs, err := unix.ParseSocketControlMessage(oob[:oobn])
	if err != nil {
		return -1, fmt.Errorf("regmem: parse control message: %w: %w", err, regerr.ErrFdReceiveFailed)
	}

	for _, cmsg := range cmsgs {
		fds, err := unix.ParseUnixRights(&cmsg)
		if err != nil {
			continue
		}

		if len(fds) != 1 {
			continue
		}

		return fds[0], nil
	}

	return -1, fmt.Errorf("regmem: no file descriptor in ancillary data: %w", regerr.ErrFdReceiveFailed)
}

// Table returns a Fixed-Slot Table view over the Client's mapping.
func (c *Client) Table() (*regtable.Table, error) {
	return regtable.New(c.data)
}

// Fd returns the raw memory file descriptor the Client holds, primarily
// for diagnostics (e.g. verifying physical isolation between the QM and
// ASIL mappings, spec §8 property 7).
func (c *Client) Fd() int { return c.fd }

// Detach closes the descriptor and unmaps the region (spec §4.4
// "Detach"). Detach is not safe to call more than once.
func (c *Client) Detach() error {
	var errs []error

	if err := unix.Munmap(c.data); err != nil {
		errs = append(errs, fmt.Errorf("munmap: %w", err))
	}

	if err := unix.Close(c.fd); err != nil {
		errs = append(errs, fmt.Errorf("close fd: %w", err))
	}

	return errors.Join(errs...)
}
