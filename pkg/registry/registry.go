// Package registry implements the Dual Registry (spec §4.5, §4.6): it
// composes a QM Fixed-Slot Table and an ASIL Fixed-Slot Table, routes
// operations between them by service-ID range, and exposes the public
// register/find/unregister/heartbeat API in terms of service IDs rather
// than slot indices.
package registry

import (
	"errors"
	"fmt"

	"github.com/lightap/lap-com/pkg/fs"
	"github.com/lightap/lap-com/pkg/regerr"
	"github.com/lightap/lap-com/pkg/regslot"
	"github.com/lightap/lap-com/pkg/regtable"
)

// Service-ID ranges (spec §3.4). The ASIL upper bound is fixed at
// 0xF3FE, not 0xF3FF -- see DESIGN.md's Open Question decision 1.
const (
	qmRangeStart   = 0x0001
	qmRangeEnd     = 0x03FF
	asilRangeStart = 0xF001
	asilRangeEnd   = 0xF3FE
	broadcastID    = 0xFFFF
)

// domain names which table (or both) a service ID routes to.
type domain int

const (
	domainInvalid domain = iota
	domainQM
	domainASIL
	domainBroadcast
)

func classify(serviceID uint16) domain {
	switch {
	case serviceID == broadcastID:
		return domainBroadcast
	case serviceID >= qmRangeStart && serviceID <= qmRangeEnd:
		return domainQM
	case serviceID >= asilRangeStart && serviceID <= asilRangeEnd:
		return domainASIL
	default:
		return domainInvalid
	}
}

// slotIndex computes slot(sid) = sid & 1023 (spec §3.4). Never 0 for a
// classified (non-invalid) service ID, since 0x0000 and 0xF000 are
// excluded from the valid ranges above.
func slotIndex(serviceID uint16) int {
	return int(serviceID) & (regtable.SlotCount - 1)
}

// Registry is a Dual Registry over a QM and an ASIL Fixed-Slot Table.
//
// A Registry must be constructed via New; the zero value is not usable.
// All methods are safe for concurrent use.
type Registry struct {
	qm   *regtable.Table
	asil *regtable.Table

	// fsys/*LockPath optionally guard Reap's write pass with a cross-process
	// advisory file lock, set via SetReaperLockPaths. regtable.Table's own
	// mutex only ever excludes writers within the process that holds that
	// particular *Table value (spec §5); the reaper is the one documented
	// writer that may run as a separate process from the slot's owner (or
	// from another reaper instance), so it additionally needs exclusion
	// that crosses process boundaries.
	fsys         fs.FS
	qmLockPath   string
	asilLockPath string
}

// New composes qm and asil into a Registry.
func New(qm, asil *regtable.Table) *Registry {
	return &Registry{qm: qm, asil: asil}
}

// SetReaperLockPaths configures the advisory file locks Reap takes before
// writing a slot back to idle (spec §5: "hold a per-table write mutex,
// advisory file lock on the memory file is acceptable"). fsys.Lock(path)
// is called once per reaped slot, with the lock path of that slot's
// table (pkg/fs.Real.Lock in production).
//
// Calling this is optional: a Registry with no configured lock paths
// falls back to regtable.Table's in-process mutex alone, which is only
// correct if the reaper always runs in the same process as the slot's
// owner and any other writer.
func (r *Registry) SetReaperLockPaths(fsys fs.FS, qmLockPath, asilLockPath string) {
	r.fsys = fsys
	r.qmLockPath = qmLockPath
	r.asilLockPath = asilLockPath
}

// RegisterOptions carries the fields of a registration (spec §4.5
// register_service).
type RegisterOptions struct {
	InstanceID          uint64
	MajorVersion        uint32
	MinorVersion        uint32
	BindingType         string
	Endpoint            string
	OwnerPID            int32
	HeartbeatIntervalMs uint32
	Metadata            string

	// NowNs is the current monotonic time in nanoseconds, stamped into
	// LastHeartbeatNs at registration.
	NowNs uint64
}

// RegisterService publishes a service into its routed table(s) (spec
// §4.5). The target slot must currently be IDLE; otherwise
// regerr.ErrSlotOccupied is returned. For the broadcast ID, the call
// succeeds if at least one of the two tables accepted the write; the
// caller's only signal for a partial failure is the returned error being
// non-nil despite partial success, covered by ErrPartialBroadcast.
func (r *Registry) RegisterService(serviceID uint16, opts RegisterOptions) error {
	d := classify(serviceID)
	idx := slotIndex(serviceID)

	slot := regslot.Slot{
		ServiceID:           uint64(serviceID),
		InstanceID:          opts.InstanceID,
		MajorVersion:        opts.MajorVersion,
		MinorVersion:        opts.MinorVersion,
		BindingType:         opts.BindingType,
		Endpoint:            opts.Endpoint,
		LastHeartbeatNs:     opts.NowNs,
		HeartbeatIntervalMs: opts.HeartbeatIntervalMs,
		Status:              regslot.StatusActive,
		OwnerPID:            opts.OwnerPID,
		Metadata:            opts.Metadata,
	}

	switch d {
	case domainQM:
		return registerOne(r.qm, idx, slot)
	case domainASIL:
		return registerOne(r.asil, idx, slot)
	case domainBroadcast:
		qmErr := registerOne(r.qm, regtable.BroadcastIndex, slot)
		asilErr := registerOne(r.asil, regtable.BroadcastIndex, slot)

		if qmErr != nil && asilErr != nil {
			return fmt.Errorf("regtable: broadcast registration failed on both tables: %w", errors.Join(qmErr, asilErr))
		}

		if qmErr != nil || asilErr != nil {
			// Partial success: spec §4.5 treats this as an overall success
			// with a warning hook for the caller, not a distinct error code.
			return fmt.Errorf("%w: %w", ErrPartialBroadcast, errors.Join(qmErr, asilErr))
		}

		return nil
	default:
		return fmt.Errorf("registry: service id %#04x out of range: %w", serviceID, regerr.ErrInvalidArgument)
	}
}

func registerOne(tbl *regtable.Table, idx int, slot regslot.Slot) error {
	return tbl.CompareAndWriteSlot(idx, func(current regslot.Slot) (regslot.Slot, error) {
		if current.IsActive() {
			return regslot.Slot{}, fmt.Errorf("regtable: slot %d already active: %w", idx, regerr.ErrSlotOccupied)
		}

		return slot, nil
	})
}

// FindService looks up serviceID (spec §4.5 find_service). It returns
// (Slot{}, false, nil) if the service is absent, unstable, or the
// routed slot holds a different service ID -- all three are "not
// findable" from the caller's perspective.
func (r *Registry) FindService(serviceID uint16) (regslot.Slot, bool, error) {
	d := classify(serviceID)
	idx := slotIndex(serviceID)

	switch d {
	case domainQM:
		return findOne(r.qm, idx, serviceID)
	case domainASIL:
		return findOne(r.asil, idx, serviceID)
	case domainBroadcast:
		// Prefer ASIL if both are populated (spec §4.6); otherwise fall
		// back to the QM convention slot.
		if s, ok, err := findOne(r.asil, regtable.BroadcastIndex, serviceID); err == nil && ok {
			return s, true, nil
		}

		return findOne(r.qm, regtable.BroadcastIndex, serviceID)
	default:
		return regslot.Slot{}, false, fmt.Errorf("registry: service id %#04x out of range: %w", serviceID, regerr.ErrInvalidArgument)
	}
}

func findOne(tbl *regtable.Table, idx int, serviceID uint16) (regslot.Slot, bool, error) {
	s, err := tbl.ReadSlot(idx)
	if err != nil {
		if errors.Is(err, regerr.ErrUnstable) {
			return regslot.Slot{}, false, nil
		}

		return regslot.Slot{}, false, err
	}

	if !s.IsActive() || s.ServiceID != uint64(serviceID) {
		return regslot.Slot{}, false, nil
	}

	return s, true, nil
}

// UnregisterService resets the routed slot(s) to IDLE (spec §4.5
// unregister_service). Calling it on an already-idle slot, or as a
// non-owner, is not an error -- the caller is assumed to be acting
// cooperatively or on stale knowledge either way.
func (r *Registry) UnregisterService(serviceID uint16) error {
	d := classify(serviceID)
	idx := slotIndex(serviceID)

	switch d {
	case domainQM:
		return r.qm.ResetSlot(idx)
	case domainASIL:
		return r.asil.ResetSlot(idx)
	case domainBroadcast:
		qmErr := r.qm.ResetSlot(regtable.BroadcastIndex)
		asilErr := r.asil.ResetSlot(regtable.BroadcastIndex)

		return errors.Join(qmErr, asilErr)
	default:
		return fmt.Errorf("registry: service id %#04x out of range: %w", serviceID, regerr.ErrInvalidArgument)
	}
}

// UpdateHeartbeat performs a Seqlock write of only LastHeartbeatNs on
// serviceID's routed slot (spec §4.7 owner-side). It is a no-op error if
// the slot is not currently an ACTIVE registration of serviceID.
func (r *Registry) UpdateHeartbeat(serviceID uint16, nowNs uint64) error {
	d := classify(serviceID)
	idx := slotIndex(serviceID)

	var tbl *regtable.Table

	switch d {
	case domainQM:
		tbl = r.qm
	case domainASIL:
		tbl = r.asil
	case domainBroadcast:
		qmErr := updateHeartbeatOne(r.qm, regtable.BroadcastIndex, serviceID, nowNs)
		asilErr := updateHeartbeatOne(r.asil, regtable.BroadcastIndex, serviceID, nowNs)

		return errors.Join(qmErr, asilErr)
	default:
		return fmt.Errorf("registry: service id %#04x out of range: %w", serviceID, regerr.ErrInvalidArgument)
	}

	return updateHeartbeatOne(tbl, idx, serviceID, nowNs)
}

func updateHeartbeatOne(tbl *regtable.Table, idx int, serviceID uint16, nowNs uint64) error {
	return tbl.CompareAndWriteSlot(idx, func(current regslot.Slot) (regslot.Slot, error) {
		if !current.IsActive() || current.ServiceID != uint64(serviceID) {
			return regslot.Slot{}, fmt.Errorf("registry: no active registration for %#04x at slot %d: %w", serviceID, idx, regerr.ErrInvalidArgument)
		}

		current.LastHeartbeatNs = nowNs

		return current, nil
	})
}

// ErrPartialBroadcast is returned by RegisterService for 0xFFFF when
// exactly one of the two tables accepted the write. Spec §4.5 treats
// this as an overall success ("successful if at least one succeeds");
// it is surfaced as a wrapped warning rather than swallowed so the
// caller can log it, not as a failure the caller must retry.
var ErrPartialBroadcast = errors.New("registry: broadcast registration partially failed")
