package binding

import (
	"context"
	"fmt"

	"github.com/lightap/lap-com/pkg/regerr"
)

// staticBinding is a thin capability descriptor (spec §6.7): it carries
// only the name, priority, and zero-copy flag a Selector ranks on. It
// implements the full Binding interface so a Selector can hold it
// alongside a real transport binding, but every transport-facing method
// returns regerr.ErrNotImplemented -- this package ships no real wire
// protocol of its own (package doc, spec §1 Non-goals). A deployment
// that wants a working iceoryx2/DDS/SOME-IP/socket/D-Bus transport
// supplies its own Binding implementation under the same Name/Priority.
type staticBinding struct {
	name     string
	priority int
	zeroCopy bool
}

func (b *staticBinding) Name() string           { return b.name }
func (b *staticBinding) Priority() int          { return b.priority }
func (b *staticBinding) SupportsZeroCopy() bool { return b.zeroCopy }

// SupportsService is unrestricted: these descriptors carry no
// service-ID allowlist of their own, so priority and static overrides
// (spec §4.9) are the only things that route a service away from one.
func (b *staticBinding) SupportsService(serviceID uint64) bool { return true }

func (b *staticBinding) Metrics() map[string]int64 { return nil }

// Initialize and Shutdown are no-ops: a descriptor with no transport
// behind it has nothing to set up or tear down, and both must be
// idempotent per the Binding contract.
func (b *staticBinding) Initialize(ctx context.Context) error { return nil }
func (b *staticBinding) Shutdown(ctx context.Context) error   { return nil }

func (b *staticBinding) OfferService(ctx context.Context, serviceID, instanceID uint64) error {
	return b.notImplemented("offer service")
}

func (b *staticBinding) StopOfferService(ctx context.Context, serviceID, instanceID uint64) error {
	return b.notImplemented("stop offer service")
}

func (b *staticBinding) Find(ctx context.Context, serviceID uint64) ([]uint64, error) {
	return nil, b.notImplemented("find")
}

func (b *staticBinding) SendEvent(ctx context.Context, serviceID, instanceID uint64, eventID uint32, payload []byte) error {
	return b.notImplemented("send event")
}

func (b *staticBinding) Subscribe(ctx context.Context, serviceID, instanceID uint64, eventID uint32, handler EventHandler) error {
	return b.notImplemented("subscribe")
}

func (b *staticBinding) Unsubscribe(ctx context.Context, serviceID, instanceID uint64, eventID uint32) error {
	return b.notImplemented("unsubscribe")
}

func (b *staticBinding) Call(ctx context.Context, serviceID, instanceID uint64, methodID uint32, request []byte) ([]byte, error) {
	return nil, b.notImplemented("call")
}

func (b *staticBinding) RegisterMethod(ctx context.Context, serviceID, instanceID uint64, methodID uint32, handler MethodHandler) error {
	return b.notImplemented("register method")
}

func (b *staticBinding) GetField(ctx context.Context, serviceID, instanceID uint64, fieldID uint32) ([]byte, error) {
	return nil, b.notImplemented("get field")
}

func (b *staticBinding) SetField(ctx context.Context, serviceID, instanceID uint64, fieldID uint32, value []byte) error {
	return b.notImplemented("set field")
}

func (b *staticBinding) notImplemented(op string) error {
	return fmt.Errorf("binding %s: %s: %w", b.name, op, regerr.ErrNotImplemented)
}

// NewIceoryx2Binding returns the iceoryx2 zero-copy shared-memory
// descriptor (spec §6.7): highest default priority, the only variant
// with SupportsZeroCopy true.
func NewIceoryx2Binding() Binding {
	return &staticBinding{name: "iceoryx2", priority: PriorityZeroCopyShm, zeroCopy: true}
}

// NewDDSBinding returns the DDS descriptor (spec §6.7).
func NewDDSBinding() Binding {
	return &staticBinding{name: "dds", priority: PriorityDDS}
}

// NewSomeIPBinding returns the SOME/IP descriptor (spec §6.7).
func NewSomeIPBinding() Binding {
	return &staticBinding{name: "someip", priority: PrioritySomeIP}
}

// NewSocketBinding returns the plain-socket fallback descriptor (spec §6.7).
func NewSocketBinding() Binding {
	return &staticBinding{name: "socket", priority: PrioritySocket}
}

// NewDBusBinding returns the D-Bus descriptor (spec §6.7).
func NewDBusBinding() Binding {
	return &staticBinding{name: "dbus", priority: PriorityDBus}
}

// DefaultBindings returns the five static descriptors spec §6.7
// enumerates, in no particular order -- pass them to NewSelector
// together with any site-specific overrides.
func DefaultBindings() []Binding {
	return []Binding{
		NewIceoryx2Binding(),
		NewDDSBinding(),
		NewSomeIPBinding(),
		NewSocketBinding(),
		NewDBusBinding(),
	}
}

var _ Binding = (*staticBinding)(nil)
