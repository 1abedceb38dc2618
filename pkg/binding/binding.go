// Package binding defines the transport Binding contract (spec §6.3) and
// a static-priority Selector (spec §4.9) over a fixed set of binding
// descriptors. This package is interface-only: it names the contract a
// real transport (iceoryx2, DDS, SOME/IP, a plain socket, D-Bus) would
// implement and picks which one applies to a given service, but carries
// no wire protocol or transport code of its own (spec §1 Non-goals).
package binding

import "context"

// EventHandler receives a published event (spec §6.3 send_event/
// subscribe).
type EventHandler func(ctx context.Context, serviceID, instanceID uint64, eventID uint32, payload []byte)

// MethodHandler serves a method call (spec §6.3 call/register_method)
// and returns the serialized response.
type MethodHandler func(ctx context.Context, serviceID, instanceID uint64, methodID uint32, request []byte) ([]byte, error)

// Binding is the capability contract a transport implementation
// satisfies (spec §6.3). Implementations must be safe for concurrent
// use across OfferService/FindService/event and method calls.
type Binding interface {
	// Initialize prepares the binding for use. It must be idempotent.
	Initialize(ctx context.Context) error

	// Shutdown releases all resources and must stop serving every
	// offered/subscribed service before returning.
	Shutdown(ctx context.Context) error

	// OfferService makes (serviceID, instanceID) discoverable to
	// consumers over this binding.
	OfferService(ctx context.Context, serviceID, instanceID uint64) error

	// StopOfferService withdraws a prior OfferService.
	StopOfferService(ctx context.Context, serviceID, instanceID uint64) error

	// Find returns the instance IDs currently offered for serviceID.
	Find(ctx context.Context, serviceID uint64) ([]uint64, error)

	// SendEvent publishes eventID's payload to current subscribers.
	SendEvent(ctx context.Context, serviceID, instanceID uint64, eventID uint32, payload []byte) error

	// Subscribe registers handler for eventID. Only one handler may be
	// active per (serviceID, instanceID, eventID); a second Subscribe
	// replaces the first.
	Subscribe(ctx context.Context, serviceID, instanceID uint64, eventID uint32, handler EventHandler) error

	// Unsubscribe removes a prior Subscribe. It is not an error to
	// unsubscribe from an event with no active subscription.
	Unsubscribe(ctx context.Context, serviceID, instanceID uint64, eventID uint32) error

	// Call invokes methodID synchronously and returns its response.
	Call(ctx context.Context, serviceID, instanceID uint64, methodID uint32, request []byte) ([]byte, error)

	// RegisterMethod installs handler as methodID's provider-side
	// implementation.
	RegisterMethod(ctx context.Context, serviceID, instanceID uint64, methodID uint32, handler MethodHandler) error

	// GetField reads fieldID's current serialized value.
	GetField(ctx context.Context, serviceID, instanceID uint64, fieldID uint32) ([]byte, error)

	// SetField writes fieldID's value.
	SetField(ctx context.Context, serviceID, instanceID uint64, fieldID uint32, value []byte) error

	// Name identifies the binding ("iceoryx2", "dds", "someip", "socket",
	// "dbus", ...). It must match the name used in static override
	// mappings (spec §4.9) and regslot.Slot.BindingType.
	Name() string

	// Priority is this binding's default selection rank (spec §4.9):
	// higher is preferred. Ties are broken by descending Priority then
	// by Name order, for deterministic Selector output.
	Priority() int

	// SupportsZeroCopy reports whether payloads can be delivered without
	// an intermediate copy (true for shared-memory transports like
	// iceoryx2, false for everything serialized over a socket or bus).
	SupportsZeroCopy() bool

	// SupportsService reports whether this binding can carry serviceID
	// at all (some transports are scoped to a service-ID range or a
	// configured allowlist).
	SupportsService(serviceID uint64) bool

	// Metrics returns a snapshot of this binding's own counters. The
	// key set is binding-specific; the Selector and callers outside the
	// binding never interpret it, only forward it for diagnostics.
	Metrics() map[string]int64
}
