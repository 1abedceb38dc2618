package registry

import (
	"fmt"
	"os"
	"syscall"

	"github.com/lightap/lap-com/pkg/fs"
	"github.com/lightap/lap-com/pkg/regslot"
	"github.com/lightap/lap-com/pkg/regtable"
)

// ReapStats summarizes one Reap pass, for callers that want to log it.
type ReapStats struct {
	Scanned     int
	ReapedDead  int
	ReapedStale int
}

// Reap walks every ACTIVE slot in both tables and resets any whose owner
// is gone or whose heartbeat has gone stale (spec §4.7, reaper-side).
//
// An owner is considered gone if sending it signal 0 fails (the standard
// Unix liveness probe: os.FindProcess always succeeds on Unix, so the
// process must actually be signaled to learn whether it still exists).
// A heartbeat is stale if nowNs - LastHeartbeatNs exceeds
// staleMultiplier * HeartbeatIntervalMs (in nanoseconds).
//
// Reap is not started automatically; it is meant to be driven by a
// caller-owned ticker gated behind Options.EnableReaper (see
// DESIGN.md's Open Question decision 2 -- the reaper is off by default).
func (r *Registry) Reap(nowNs uint64, staleMultiplier uint64) ReapStats {
	var stats ReapStats

	reapTable(r.qm, r.fsys, r.qmLockPath, nowNs, staleMultiplier, &stats)
	reapTable(r.asil, r.fsys, r.asilLockPath, nowNs, staleMultiplier, &stats)

	return stats
}

func reapTable(tbl *regtable.Table, fsys fs.FS, lockPath string, nowNs, staleMultiplier uint64, stats *ReapStats) {
	for idx := 1; idx < regtable.SlotCount; idx++ {
		s, err := tbl.ReadSlot(idx)
		if err != nil || !s.IsActive() {
			continue
		}

		stats.Scanned++

		dead := !ownerAlive(s.OwnerPID)
		stale := isStale(s, nowNs, staleMultiplier)

		if !dead && !stale {
			continue
		}

		unlock, err := acquireReaperLock(fsys, lockPath)
		if err != nil {
			// Could not take the cross-process lock (e.g. another reaper
			// instance is already writing this table): skip this slot,
			// the next tick will re-evaluate it.
			continue
		}

		writeErr := tbl.CompareAndWriteSlot(idx, func(current regslot.Slot) (regslot.Slot, error) {
			// Re-check under the write lock: the owner may have re-registered
			// or sent a heartbeat between ReadSlot above and taking the lock.
			if !current.IsActive() || current.OwnerPID != s.OwnerPID || current.LastHeartbeatNs != s.LastHeartbeatNs {
				return regslot.Slot{}, errNoLongerStale
			}

			return regslot.Slot{Status: regslot.StatusIdle}, nil
		})

		unlock()

		if writeErr != nil {
			continue
		}

		switch {
		case dead:
			stats.ReapedDead++
		case stale:
			stats.ReapedStale++
		}
	}
}

// acquireReaperLock takes the cross-process advisory lock configured via
// Registry.SetReaperLockPaths, if any. With no fsys/lockPath configured
// (the default), it returns a no-op unlock and relies on regtable.Table's
// in-process mutex alone.
func acquireReaperLock(fsys fs.FS, lockPath string) (unlock func(), err error) {
	if fsys == nil || lockPath == "" {
		return func() {}, nil
	}

	locker, err := fsys.Lock(lockPath)
	if err != nil {
		return nil, err
	}

	return func() { _ = locker.Close() }, nil
}

// errNoLongerStale aborts a reap write when the slot changed between the
// scan and the write-locked re-check; it is never returned to Reap's
// caller.
var errNoLongerStale = fmt.Errorf("registry: slot no longer stale")

func isStale(s regslot.Slot, nowNs, staleMultiplier uint64) bool {
	if s.HeartbeatIntervalMs == 0 {
		return false
	}

	staleAfterNs := uint64(s.HeartbeatIntervalMs) * 1_000_000 * staleMultiplier

	return nowNs-s.LastHeartbeatNs > staleAfterNs
}

func ownerAlive(pid int32) bool {
	if pid <= 0 {
		return false
	}

	proc, err := os.FindProcess(int(pid))
	if err != nil {
		return false
	}

	// On Unix, os.FindProcess always succeeds; signal 0 is the standard
	// liveness probe (no signal is actually delivered).
	return proc.Signal(syscall.Signal(0)) == nil
}
