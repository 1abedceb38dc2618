package runtime

import (
	"sync"
	"time"

	"github.com/lightap/lap-com/pkg/registry"
)

// heartbeatMonitor runs the owner-side task of spec §4.7: at a fixed
// cadence, it refreshes LastHeartbeatNs on every slot this process owns.
// It runs on a single background goroutine per Runtime and never blocks
// a RegisterService/UnregisterService caller -- track/untrack only ever
// touch a map guarded by their own mutex.
type heartbeatMonitor struct {
	reg      *registry.Registry
	interval time.Duration

	mu    sync.Mutex
	owned map[uint16]struct{}

	stopCh chan struct{}
	doneCh chan struct{}
}

func newHeartbeatMonitor(reg *registry.Registry, interval time.Duration) *heartbeatMonitor {
	return &heartbeatMonitor{
		reg:      reg,
		interval: interval,
		owned:    make(map[uint16]struct{}),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

func (h *heartbeatMonitor) track(serviceID uint16) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.owned[serviceID] = struct{}{}
}

func (h *heartbeatMonitor) untrack(serviceID uint16) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.owned, serviceID)
}

func (h *heartbeatMonitor) start() {
	go h.run()
}

func (h *heartbeatMonitor) run() {
	defer close(h.doneCh)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-h.stopCh:
			return
		case <-ticker.C:
			h.tick()
		}
	}
}

func (h *heartbeatMonitor) tick() {
	h.mu.Lock()
	ids := make([]uint16, 0, len(h.owned))

	for id := range h.owned {
		ids = append(ids, id)
	}

	h.mu.Unlock()

	now := uint64(time.Now().UnixNano())

	for _, id := range ids {
		// Errors here mean the slot was unregistered or reaped out from
		// under us between track() and this tick; there is no caller to
		// report it to, so it is silently ignored. The id stays tracked
		// and the update is tried again on every later tick.
		_ = h.reg.UpdateHeartbeat(id, now)
	}
}

func (h *heartbeatMonitor) stop() {
	close(h.stopCh)
	<-h.doneCh
}

// reaperLoop drives registry.Registry.Reap on its own cadence (spec
// §4.7, reaper-side). It is only started when Options.EnableReaper is
// set (DESIGN.md's Open Question decision 2).
type reaperLoop struct {
	reg             *registry.Registry
	interval        time.Duration
	staleMultiplier uint64

	stopCh chan struct{}
	doneCh chan struct{}
}

func newReaperLoop(reg *registry.Registry, interval time.Duration, staleMultiplier uint64) *reaperLoop {
	return &reaperLoop{
		reg:             reg,
		interval:        interval,
		staleMultiplier: staleMultiplier,
		stopCh:          make(chan struct{}),
		doneCh:          make(chan struct{}),
	}
}

func (r *reaperLoop) start() {
	go r.run()
}

func (r *reaperLoop) run() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.reg.Reap(uint64(time.Now().UnixNano()), r.staleMultiplier)
		}
	}
}

func (r *reaperLoop) stop() {
	close(r.stopCh)
	<-r.doneCh
}
