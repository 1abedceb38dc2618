package regslot

import (
	"runtime"
	"sync/atomic"
	"unsafe"

	"github.com/lightap/lap-com/pkg/regerr"
)

// MaxReadRetries bounds how many times Read re-samples a slot before
// giving up and reporting regerr.ErrUnstable (spec §4.1).
const MaxReadRetries = 1000

// seq returns the atomic view over the sequence counter at the head of
// buf. buf must be at least Size bytes and 8-byte aligned, which holds
// for any offset handed out by regtable.Table (slots are cache-line
// aligned).
func seq(buf []byte) *atomic.Uint64 {
	return (*atomic.Uint64)(unsafe.Pointer(&buf[offSequence]))
}

// BeginWrite marks buf as being mutated: the sequence counter is bumped
// to an odd value so concurrent readers recognize the slot is in flux.
// Every BeginWrite must be paired with exactly one EndWrite. Callers
// must serialize writers themselves (spec §5: one writer per table,
// enforced by a mutex above this package) -- BeginWrite/EndWrite alone
// do not arbitrate between multiple concurrent writers.
func BeginWrite(buf []byte) {
	seq(buf).Add(1)
}

// EndWrite closes out a BeginWrite, bumping the sequence counter to an
// even value again and publishing the writes made in between to
// readers.
func EndWrite(buf []byte) {
	seq(buf).Add(1)
}

// Write is a convenience helper that performs a full
// BeginWrite/encode/EndWrite cycle, encoding s into buf. buf must be
// exactly Size bytes.
func Write(buf []byte, s Slot) error {
	BeginWrite(buf)
	defer EndWrite(buf)

	return encode(buf, s)
}

// Read performs a seqlock-protected read of buf, returning a consistent
// Slot snapshot. If the slot is being concurrently mutated for the
// entire retry budget, Read returns regerr.ErrUnstable; callers treat
// this the same as "absent" (spec §9).
func Read(buf []byte) (Slot, error) {
	var scratch [Size]byte

	for i := 0; i < MaxReadRetries; i++ {
		seq1 := seq(buf).Load()
		if seq1&1 == 1 {
			runtime.Gosched()

			continue
		}

		copy(scratch[:], buf[:Size])

		seq2 := seq(buf).Load()
		if seq1 == seq2 {
			return decode(scratch[:]), nil
		}

		runtime.Gosched()
	}

	return Slot{}, regerr.ErrUnstable
}

// IsIdle reports whether buf currently holds an idle slot, using a
// single unsynchronized peek at the status field. It is meant for
// coarse routing decisions (e.g. "is this slot worth a full seqlock
// Read?"); callers that need a consistent snapshot must use Read.
func IsIdle(buf []byte) bool {
	return Status(leUint32(buf[offStatus:])) == StatusIdle
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
