// Package regerr defines the sentinel error kinds shared across the
// registry core (see spec §7, "Error Handling Design").
//
// The core never uses exceptions for control flow. Every fallible
// operation returns a plain error; callers classify it with errors.Is
// against the sentinels below. Implementations may wrap a sentinel with
// fmt.Errorf("...: %w", ...) for additional context.
package regerr

import "errors"

var (
	// ErrInvalidArgument means a service ID or slot index is outside its
	// legal range.
	ErrInvalidArgument = errors.New("lap-com: invalid argument")

	// ErrNotInitialized means an API was called before Runtime.Initialize.
	ErrNotInitialized = errors.New("lap-com: not initialized")

	// ErrInvalidState means Initialize was called twice, or a similar
	// lifecycle misuse occurred.
	ErrInvalidState = errors.New("lap-com: invalid state")

	// ErrSlotOccupied means a registration collided with a live slot.
	ErrSlotOccupied = errors.New("lap-com: slot occupied")

	// ErrUnstable means a seqlock read exhausted its retry budget.
	// Callers in the public API treat this the same as "absent".
	ErrUnstable = errors.New("lap-com: unstable read")

	// ErrInvalidSlotIndex means a slot index was 0 or >= table size.
	ErrInvalidSlotIndex = errors.New("lap-com: invalid slot index")

	ErrMemoryCreateFailed = errors.New("lap-com: memory object create failed")
	ErrMemoryResizeFailed = errors.New("lap-com: memory object resize failed")
	ErrMemoryMapFailed    = errors.New("lap-com: memory map failed")

	ErrSocketCreateFailed  = errors.New("lap-com: socket create failed")
	ErrSocketBindFailed    = errors.New("lap-com: socket bind failed")
	ErrSocketListenFailed  = errors.New("lap-com: socket listen failed")
	ErrSocketConnectFailed = errors.New("lap-com: socket connect failed")

	ErrFdPassingFailed = errors.New("lap-com: fd passing failed")
	ErrFdReceiveFailed = errors.New("lap-com: fd receive failed")

	// ErrPermissionDenied means the ASIL table was refused by the kernel.
	ErrPermissionDenied = errors.New("lap-com: permission denied")

	// ErrNotImplemented means a capability descriptor has no real
	// transport behind it (e.g. a pkg/binding static variant stub).
	ErrNotImplemented = errors.New("lap-com: not implemented")
)
