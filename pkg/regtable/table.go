// Package regtable implements the Fixed-Slot Table (spec §3.2, §4.2): a
// fixed-size, direct-indexed array of regslot.Slot records over a single
// contiguous memory region, with no hashing and no dynamic resizing.
package regtable

import (
	"fmt"
	"sync"

	"github.com/lightap/lap-com/pkg/regerr"
	"github.com/lightap/lap-com/pkg/regslot"
)

// SlotCount is the fixed number of slots in every table (spec §3.2).
const SlotCount = 1024

// Size is the total byte size of the memory region a Table maps
// (spec §3.2: SlotCount * regslot.Size).
const Size = SlotCount * regslot.Size

// BroadcastIndex is the slot reserved for service ID 0xFFFF in both the
// QM and ASIL tables (spec §4.6).
const BroadcastIndex = SlotCount - 1

// Table is a view over a SlotCount*regslot.Size memory region, divided
// into SlotCount fixed-width regslot.Slot records addressed by direct
// index.
//
// A Table must be constructed via New; the zero value is not usable.
// All methods are safe for concurrent use within the process that holds
// this *Table value: writes are serialized by an internal mutex (spec
// §5, "a simple per-table write mutex suffices"); reads go through
// regslot's seqlock protocol and need no external locking.
//
// mu only ever excludes writers inside one process. A process normally
// holds exactly one Table per mapped region (one Attach call), so that
// is enough for the owner/heartbeat path. The one documented exception
// is the reaper (spec §5), which may run as a separate process from the
// slot's owner and writes to slots it does not own; callers that need
// cross-process exclusion for that case take an additional advisory
// file lock above this package -- see pkg/registry.Registry's
// SetReaperLockPaths.
type Table struct {
	data []byte // backing region, exactly Size bytes

	// mu serializes WriteSlot/ResetSlot against other writers in this
	// same process only.
	mu sync.Mutex
}

// New wraps data, which must be exactly Size bytes, as a Table. data is
// used in place, not copied -- callers typically pass a slice backed by
// an mmap'd region (see pkg/regmem).
func New(data []byte) (*Table, error) {
	if len(data) != Size {
		return nil, fmt.Errorf("regtable: region must be %d bytes, got %d", Size, len(data))
	}

	return &Table{data: data}, nil
}

// slotBytes returns the byte range backing slot idx. Callers must
// validate idx first.
func (t *Table) slotBytes(idx int) []byte {
	off := idx * regslot.Size

	return t.data[off : off+regslot.Size]
}

func validIndex(idx int) bool {
	return idx >= 0 && idx < SlotCount
}

// ReadSlot returns a consistent snapshot of the slot at idx. idx 0 is a
// valid read target (it simply reads whatever the reserved slot 0
// currently holds, normally idle) -- only WriteSlot/ResetSlot refuse
// index 0, since service ID 0 can never be registered (spec §3.4).
func (t *Table) ReadSlot(idx int) (regslot.Slot, error) {
	if !validIndex(idx) {
		return regslot.Slot{}, fmt.Errorf("regtable: read index %d: %w", idx, regerr.ErrInvalidSlotIndex)
	}

	return regslot.Read(t.slotBytes(idx))
}

// WriteSlot encodes s into the slot at idx. idx must be in (0, SlotCount)
// -- slot 0 is reserved (service ID 0 is never valid, spec §3.4) and is
// never a write target.
func (t *Table) WriteSlot(idx int, s regslot.Slot) error {
	if idx <= 0 || idx >= SlotCount {
		return fmt.Errorf("regtable: write index %d: %w", idx, regerr.ErrInvalidSlotIndex)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	return regslot.Write(t.slotBytes(idx), s)
}

// ResetSlot returns the slot at idx to StatusIdle, clearing all other
// fields (spec §4.6, UnregisterService).
func (t *Table) ResetSlot(idx int) error {
	return t.WriteSlot(idx, regslot.Slot{Status: regslot.StatusIdle})
}

// CompareAndWriteSlot holds the table's write mutex for the duration of
// mutate, giving callers an atomic check-then-set over the slot at idx.
// A bare ReadSlot followed by WriteSlot would race against a concurrent
// writer between the two calls; CompareAndWriteSlot closes that window,
// which is what spec §4.5's "exactly one observes IDLE -> ACTIVE success"
// registration arbitration requires.
//
// mutate receives the slot's current value (read while already holding
// the write mutex, so it is never "unstable") and returns the value to
// write, or an error to abort without writing.
func (t *Table) CompareAndWriteSlot(idx int, mutate func(current regslot.Slot) (regslot.Slot, error)) error {
	if idx <= 0 || idx >= SlotCount {
		return fmt.Errorf("regtable: compare-and-write index %d: %w", idx, regerr.ErrInvalidSlotIndex)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	buf := t.slotBytes(idx)

	current, err := regslot.Read(buf)
	if err != nil {
		return fmt.Errorf("regtable: read current slot %d under write lock: %w", idx, err)
	}

	next, err := mutate(current)
	if err != nil {
		return err
	}

	return regslot.Write(buf, next)
}

// PeekIdle reports whether the slot at idx currently looks idle, without
// the cost of a full seqlock Read. It is a best-effort hint for routing
// decisions (spec §4.6 "first check the target slot"); the authoritative
// view is always ReadSlot.
func (t *Table) PeekIdle(idx int) (bool, error) {
	if !validIndex(idx) {
		return false, fmt.Errorf("regtable: peek index %d: %w", idx, regerr.ErrInvalidSlotIndex)
	}

	return regslot.IsIdle(t.slotBytes(idx)), nil
}
