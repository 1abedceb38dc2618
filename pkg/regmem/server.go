//go:build linux

// Package regmem implements the Initializer Server and Table Client
// (spec §4.3, §4.4): creating a sealed anonymous shared-memory object for
// one Fixed-Slot Table and distributing its file descriptor to clients
// over a local socket.
//
// memfd_create and F_ADD_SEALS are Linux-only syscalls, so this package
// builds only on linux, matching the platform the spec's shared-memory
// model targets.
package regmem

import (
	"errors"
	"fmt"
	"net"
	"os"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/lightap/lap-com/pkg/regerr"
	"github.com/lightap/lap-com/pkg/regtable"
)

// Kind names which safety-domain table a Server distributes.
type Kind int

const (
	KindQM Kind = iota
	KindASIL
)

func (k Kind) memfdName() string {
	if k == KindASIL {
		return "lap_com_registry_asil"
	}

	return "lap_com_registry_qm"
}

// defaultSocketMode returns the socket permission applied after bind
// (spec §4.3 step 5: world-read/write for QM, group-restricted for
// ASIL).
func (k Kind) defaultSocketMode() os.FileMode {
	if k == KindASIL {
		return 0o660
	}

	return 0o666
}

// ServerConfig configures an Initializer Server.
type ServerConfig struct {
	Kind Kind

	// SocketPath is the local filesystem path the server listens on.
	SocketPath string

	// SocketMode overrides the permission applied to SocketPath after
	// bind. Zero means "use Kind's default" (spec §4.3 step 5).
	SocketMode os.FileMode
}

// Server is an Initializer Server for one Fixed-Slot Table (spec §4.3).
//
// A Server must be constructed via Open; the zero value is not usable.
type Server struct {
	cfg ServerConfig

	memfd int
	data  []byte

	ln *net.UnixListener

	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Open performs the full Initializer Server startup sequence (spec §4.3
// steps 1-5): create a sealed anonymous memory object sized for one
// Fixed-Slot Table, zero-initialize it (slots start at sequence=0,
// status=IDLE -- already true of a fresh memfd's zero pages, but made
// explicit below), seal it, and bind+listen the distribution socket.
//
// The returned Server does not yet serve connections; call Serve to run
// the accept loop.
func Open(cfg ServerConfig) (*Server, error) {
	if cfg.SocketPath == "" {
		return nil, fmt.Errorf("regmem: socket path is required: %w", regerr.ErrInvalidArgument)
	}

	if cfg.SocketMode == 0 {
		cfg.SocketMode = cfg.Kind.defaultSocketMode()
	}

	fd, data, err := createSealedMemory(cfg.Kind)
	if err != nil {
		return nil, err
	}

	ln, err := bindSocket(cfg.SocketPath, cfg.SocketMode)
	if err != nil {
		_ = unix.Munmap(data)
		_ = unix.Close(fd)

		return nil, err
	}

	return &Server{cfg: cfg, memfd: fd, data: data, ln: ln}, nil
}

// Table returns a Fixed-Slot Table view over the server's own mapping.
// This is a convenience for in-process use (e.g. a registry co-located
// with its own Initializer Server in tests); normal clients obtain a
// Table via Attach instead.
func (s *Server) Table() (*regtable.Table, error) {
	return regtable.New(s.data)
}

func createSealedMemory(kind Kind) (fd int, data []byte, err error) {
	fd, err = unix.MemfdCreate(kind.memfdName(), unix.MFD_CLOEXEC|unix.MFD_ALLOW_SEALING)
	if err != nil {
		return -1, nil, fmt.Errorf("regmem: memfd_create: %w: %w", err, regerr.ErrMemoryCreateFailed)
	}

	if err := unix.Ftruncate(fd, regtable.Size); err != nil {
		_ = unix.Close(fd)

		return -1, nil, fmt.Errorf("regmem: ftruncate to %d bytes: %w: %w", regtable.Size, err, regerr.ErrMemoryResizeFailed)
	}

	data, err = unix.Mmap(fd, 0, regtable.Size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Close(fd)

		return -1, nil, fmt.Errorf("regmem: mmap: %w: %w", err, regerr.ErrMemoryMapFailed)
	}

	// A fresh memfd's pages are already zero (sequence=0, status=IDLE for
	// every slot), but clear explicitly so the invariant does not depend
	// on kernel zero-page behavior.
	clear(data)

	// Seal failure is non-fatal (spec §4.3 step 4): success hardens the
	// mapping against resize by any holder of the descriptor, but a
	// kernel/seal-support gap must not block startup.
	_, sealErr := unix.FcntlInt(uintptr(fd), unix.F_ADD_SEALS,
		unix.F_SEAL_SHRINK|unix.F_SEAL_GROW|unix.F_SEAL_SEAL)
	if sealErr != nil {
		// This package has no logger of its own and Open does not report
		// the condition to its caller: the error is discarded, nothing is
		// logged, and startup continues with an unsealed memory object.
		_ = sealErr
	}

	return fd, data, nil
}

func bindSocket(path string, mode os.FileMode) (*net.UnixListener, error) {
	// Unlink a stale socket left behind by a prior, uncleanly terminated
	// server (spec §4.3 step 5).
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("regmem: remove stale socket: %w: %w", err, regerr.ErrSocketBindFailed)
	}

	addr, err := net.ResolveUnixAddr("unix", path)
	if err != nil {
		return nil, fmt.Errorf("regmem: resolve socket path: %w: %w", err, regerr.ErrSocketBindFailed)
	}

	ln, err := net.ListenUnix("unix", addr)
	if err != nil {
		return nil, fmt.Errorf("regmem: listen: %w: %w", err, regerr.ErrSocketListenFailed)
	}

	if err := os.Chmod(path, mode); err != nil {
		_ = ln.Close()

		return nil, fmt.Errorf("regmem: chmod socket: %w: %w", err, regerr.ErrSocketBindFailed)
	}

	return ln, nil
}

// Serve runs the accept loop (spec §4.3 "Serve loop"): every connection
// receives a one-byte payload plus the sealed memory file descriptor,
// then is closed. Serve blocks until Shutdown is called, at which point
// it returns nil.
func (s *Server) Serve() error {
	for {
		conn, err := s.ln.AcceptUnix()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				s.wg.Wait()

				return nil
			}

			return fmt.Errorf("regmem: accept: %w", err)
		}

		s.wg.Add(1)

		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn *net.UnixConn) {
	defer s.wg.Done()
	defer func() { _ = conn.Close() }()

	// Duplicate the descriptor per connection: the original stays owned
	// by the Server for its entire lifetime, independent of what each
	// client does with its copy.
	dupFd, err := unix.Dup(s.memfd)
	if err != nil {
		return
	}

	defer unix.Close(dupFd)

	oob := unix.UnixRights(dupFd)

	// spec §6.2: one ordinary payload byte, convention 'R'.
	_, _, err = conn.WriteMsgUnix([]byte{'R'}, oob, nil)
	if err != nil {
		return
	}
}

// Shutdown stops the accept loop, unlinks the socket path, and releases
// the memory mapping (spec §4.3 "Shutdown"). Shutdown is idempotent.
func (s *Server) Shutdown() error {
	var shutdownErr error

	s.closeOnce.Do(func() {
		errs := make([]error, 0, 3)

		if err := s.ln.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close listener: %w", err))
		}

		if err := os.Remove(s.cfg.SocketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("unlink socket: %w", err))
		}

		s.wg.Wait()

		if err := unix.Munmap(s.data); err != nil {
			errs = append(errs, fmt.Errorf("munmap: %w", err))
		}

		if err := unix.Close(s.memfd); err != nil {
			errs = append(errs, fmt.Errorf("close memfd: %w", err))
		}

		shutdownErr = errors.Join(errs...)
	})

	return shutdownErr
}
