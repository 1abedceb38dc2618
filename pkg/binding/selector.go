package binding

import "sort"

// Static binding priorities (spec §4.9, §6.7), highest first.
// iceoryx2-style zero-copy shared memory wins by default; a
// plain socket and D-Bus sit at the bottom as fallbacks, and the custom
// tier exists for a site-specific binding with no built-in descriptor.
const (
	PriorityZeroCopyShm = 100
	PriorityDDS         = 80
	PrioritySomeIP      = 60
	PrioritySocket      = 40
	PriorityDBus        = 20
	PriorityCustom      = 10
)

// Override is a static service-to-binding mapping entry (spec §4.9):
// it forces serviceID (optionally scoped to instanceID) onto a named
// binding, bypassing priority-ordered selection entirely.
type Override struct {
	ServiceID uint64

	// InstanceID of 0 matches every instance of ServiceID, matching the
	// "instance 0 = all instances" convention carried over from the
	// original binding manager's static mapping table.
	InstanceID uint64

	BindingName string
}

// Selector chooses a Binding for a (service, instance) pair (spec §4.9):
// a static override first, then descending Priority order among the
// registered bindings that SupportsService.
//
// A Selector must be constructed with NewSelector; the zero value has
// no registered bindings and Select always returns ok=false.
type Selector struct {
	bindings  []Binding
	overrides []Override
}

// NewSelector builds a Selector over bindings, sorted once by
// descending priority (ties broken by Name) so Select never needs to
// re-sort.
func NewSelector(bindings []Binding, overrides []Override) *Selector {
	sorted := make([]Binding, len(bindings))
	copy(sorted, bindings)

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority() != sorted[j].Priority() {
			return sorted[i].Priority() > sorted[j].Priority()
		}

		return sorted[i].Name() < sorted[j].Name()
	})

	return &Selector{bindings: sorted, overrides: overrides}
}

// Select returns the Binding that should carry (serviceID, instanceID).
// ok is false if no override applies and no registered binding's
// SupportsService(serviceID) returns true.
func (s *Selector) Select(serviceID, instanceID uint64) (b Binding, ok bool) {
	if name, found := s.overrideFor(serviceID, instanceID); found {
		for _, candidate := range s.bindings {
			if candidate.Name() == name {
				return candidate, true
			}
		}

		// A configured override naming a binding that isn't registered is
		// not silently ignored back into priority selection -- the
		// operator asked for a specific transport and it isn't available.
		return nil, false
	}

	for _, candidate := range s.bindings {
		if candidate.SupportsService(serviceID) {
			return candidate, true
		}
	}

	return nil, false
}

func (s *Selector) overrideFor(serviceID, instanceID uint64) (bindingName string, found bool) {
	for _, o := range s.overrides {
		if o.ServiceID != serviceID {
			continue
		}

		if o.InstanceID != 0 && o.InstanceID != instanceID {
			continue
		}

		return o.BindingName, true
	}

	return "", false
}
