// Package runtime provides the Runtime facade (spec §4.8): the single
// owning object a process uses to attach to both Fixed-Slot Tables,
// register/find/unregister services, and run the owner-side heartbeat
// loop (spec §4.7).
package runtime

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lightap/lap-com/pkg/fs"
	"github.com/lightap/lap-com/pkg/regerr"
	"github.com/lightap/lap-com/pkg/regmem"
	"github.com/lightap/lap-com/pkg/registry"
	"github.com/lightap/lap-com/pkg/regslot"
)

// Default socket paths and cadence (spec §6.4).
const (
	DefaultQMSocketPath   = "/run/lap/registry_qm.sock"
	DefaultASILSocketPath = "/run/lap/registry_asil.sock"
	DefaultHeartbeatMs    = 100
	DefaultReaperMult     = 3
)

// Options configures a Runtime (spec §6.4). The zero value is not
// usable; construct one with DefaultOptions and override fields.
type Options struct {
	QMSocketPath          string
	ASILSocketPath        string
	HeartbeatIntervalMs   uint32
	EnableReaper          bool
	ReaperStaleMultiplier uint64
}

// DefaultOptions returns the spec-mandated defaults (spec §6.4).
func DefaultOptions() Options {
	return Options{
		QMSocketPath:          DefaultQMSocketPath,
		ASILSocketPath:        DefaultASILSocketPath,
		HeartbeatIntervalMs:   DefaultHeartbeatMs,
		EnableReaper:          false,
		ReaperStaleMultiplier: DefaultReaperMult,
	}
}

// Runtime is the process-wide facade over the Dual Registry. All
// mutation of its internal state happens on the goroutine that calls
// Initialize/Deinitialize/RegisterService/UnregisterService; the
// heartbeat monitor only ever reads the set of owned service ids
// through its own mutex, never the Runtime's.
//
// A Runtime must be constructed with New; the zero value is not usable.
type Runtime struct {
	opts Options

	// initialized is read without holding mu so RegisterService/FindService
	// can reject calls cheaply before an Initialize has ever happened.
	initialized atomic.Bool

	mu         sync.Mutex
	qmClient   *regmem.Client
	asilClient *regmem.Client
	reg        *registry.Registry
	hb         *heartbeatMonitor
	reaper     *reaperLoop
}

// New constructs a Runtime. Call Initialize before using it.
func New(opts Options) *Runtime {
	return &Runtime{opts: opts}
}

// Initialize attaches to both Fixed-Slot Tables and starts the
// heartbeat monitor (and, if enabled, the reaper). It is an error
// (regerr.ErrInvalidState) to call Initialize twice without an
// intervening Deinitialize.
func (rt *Runtime) Initialize() error {
	if rt.initialized.Load() {
		return fmt.Errorf("runtime: already initialized: %w", regerr.ErrInvalidState)
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.initialized.Load() {
		return fmt.Errorf("runtime: already initialized: %w", regerr.ErrInvalidState)
	}

	qmClient, err := regmem.Attach(rt.opts.QMSocketPath)
	if err != nil {
		return fmt.Errorf("runtime: attach qm table: %w", err)
	}

	asilClient, err := regmem.Attach(rt.opts.ASILSocketPath)
	if err != nil {
		_ = qmClient.Detach()

		return fmt.Errorf("runtime: attach asil table: %w", err)
	}

	qmTable, err := qmClient.Table()
	if err != nil {
		_ = qmClient.Detach()
		_ = asilClient.Detach()

		return fmt.Errorf("runtime: view qm table: %w", err)
	}

	asilTable, err := asilClient.Table()
	if err != nil {
		_ = qmClient.Detach()
		_ = asilClient.Detach()

		return fmt.Errorf("runtime: view asil table: %w", err)
	}

	rt.qmClient = qmClient
	rt.asilClient = asilClient
	rt.reg = registry.New(qmTable, asilTable)

	// The reaper (when enabled) is the one writer that may run as a
	// separate process from a slot's owner, so it needs a cross-process
	// lock on top of regtable.Table's in-process mutex (spec §5; see
	// pkg/registry.Registry.SetReaperLockPaths). Keyed off the same
	// socket paths the ready marker uses, so every process attached to a
	// given table locks the same path.
	rt.reg.SetReaperLockPaths(fs.NewReal(), rt.opts.QMSocketPath, rt.opts.ASILSocketPath)

	interval := time.Duration(rt.opts.HeartbeatIntervalMs) * time.Millisecond
	if interval <= 0 {
		interval = DefaultHeartbeatMs * time.Millisecond
	}

	rt.hb = newHeartbeatMonitor(rt.reg, interval)
	rt.hb.start()

	if rt.opts.EnableReaper {
		mult := rt.opts.ReaperStaleMultiplier
		if mult == 0 {
			mult = DefaultReaperMult
		}

		rt.reaper = newReaperLoop(rt.reg, interval, mult)
		rt.reaper.start()
	}

	rt.initialized.Store(true)

	return nil
}

// Deinitialize stops the heartbeat monitor and reaper and detaches both
// table mappings. It is an error (regerr.ErrNotInitialized) to call it
// before a successful Initialize.
func (rt *Runtime) Deinitialize() error {
	if !rt.initialized.Load() {
		return fmt.Errorf("runtime: deinitialize: %w", regerr.ErrNotInitialized)
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	rt.hb.stop()

	if rt.reaper != nil {
		rt.reaper.stop()
		rt.reaper = nil
	}

	qmErr := rt.qmClient.Detach()
	asilErr := rt.asilClient.Detach()

	rt.qmClient = nil
	rt.asilClient = nil
	rt.reg = nil
	rt.hb = nil

	rt.initialized.Store(false)

	if qmErr != nil {
		return fmt.Errorf("runtime: detach qm table: %w", qmErr)
	}

	if asilErr != nil {
		return fmt.Errorf("runtime: detach asil table: %w", asilErr)
	}

	return nil
}

// RegisterService publishes a service and enrolls it in the owner-side
// heartbeat loop (spec §4.5, §4.7). The heartbeat loop picks it up on
// its next tick; RegisterService itself never blocks on the monitor.
func (rt *Runtime) RegisterService(serviceID uint16, opts registry.RegisterOptions) error {
	if !rt.initialized.Load() {
		return fmt.Errorf("runtime: register service: %w", regerr.ErrNotInitialized)
	}

	rt.mu.Lock()
	reg, hb := rt.reg, rt.hb
	rt.mu.Unlock()

	if opts.HeartbeatIntervalMs == 0 {
		opts.HeartbeatIntervalMs = rt.opts.HeartbeatIntervalMs
	}

	if err := reg.RegisterService(serviceID, opts); err != nil {
		return err
	}

	hb.track(serviceID)

	return nil
}

// FindService looks up serviceID (spec §4.5).
func (rt *Runtime) FindService(serviceID uint16) (regslot.Slot, bool, error) {
	if !rt.initialized.Load() {
		return regslot.Slot{}, false, fmt.Errorf("runtime: find service: %w", regerr.ErrNotInitialized)
	}

	rt.mu.Lock()
	reg := rt.reg
	rt.mu.Unlock()

	return reg.FindService(serviceID)
}

// UnregisterService releases serviceID and drops it from the heartbeat
// loop (spec §4.5).
func (rt *Runtime) UnregisterService(serviceID uint16) error {
	if !rt.initialized.Load() {
		return fmt.Errorf("runtime: unregister service: %w", regerr.ErrNotInitialized)
	}

	rt.mu.Lock()
	reg, hb := rt.reg, rt.hb
	rt.mu.Unlock()

	hb.untrack(serviceID)

	return reg.UnregisterService(serviceID)
}
