package binding

import (
	"context"
	"errors"
	"testing"

	"github.com/lightap/lap-com/pkg/regerr"
)

func Test_DefaultBindings_Match_The_Documented_Name_Priority_ZeroCopy_Table(t *testing.T) {
	t.Parallel()

	want := map[string]struct {
		priority int
		zeroCopy bool
	}{
		"iceoryx2": {PriorityZeroCopyShm, true},
		"dds":      {PriorityDDS, false},
		"someip":   {PrioritySomeIP, false},
		"socket":   {PrioritySocket, false},
		"dbus":     {PriorityDBus, false},
	}

	got := DefaultBindings()
	if len(got) != len(want) {
		t.Fatalf("DefaultBindings() returned %d bindings, want %d", len(got), len(want))
	}

	seen := make(map[string]bool)

	for _, b := range got {
		w, ok := want[b.Name()]
		if !ok {
			t.Fatalf("unexpected binding name %q", b.Name())
		}

		if b.Priority() != w.priority {
			t.Errorf("%s: Priority() = %d, want %d", b.Name(), b.Priority(), w.priority)
		}

		if b.SupportsZeroCopy() != w.zeroCopy {
			t.Errorf("%s: SupportsZeroCopy() = %v, want %v", b.Name(), b.SupportsZeroCopy(), w.zeroCopy)
		}

		if !b.SupportsService(0x0010) {
			t.Errorf("%s: SupportsService(0x0010) = false, want true (unrestricted by default)", b.Name())
		}

		seen[b.Name()] = true
	}

	for name := range want {
		if !seen[name] {
			t.Errorf("DefaultBindings() missing %q", name)
		}
	}
}

func Test_DefaultBindings_Selectable_By_Priority(t *testing.T) {
	t.Parallel()

	sel := NewSelector(DefaultBindings(), nil)

	got, ok := sel.Select(0x0010, 1)
	if !ok || got.Name() != "iceoryx2" {
		t.Fatalf("Select() = (%v, %v), want iceoryx2 (highest default priority)", got, ok)
	}
}

func Test_StaticBinding_Transport_Methods_Report_Not_Implemented(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	b := NewSocketBinding()

	if err := b.Initialize(ctx); err != nil {
		t.Fatalf("Initialize() = %v, want nil (no-op)", err)
	}

	if err := b.OfferService(ctx, 0x0010, 1); !errors.Is(err, regerr.ErrNotImplemented) {
		t.Fatalf("OfferService() error = %v, want regerr.ErrNotImplemented", err)
	}

	if _, err := b.Call(ctx, 0x0010, 1, 7, nil); !errors.Is(err, regerr.ErrNotImplemented) {
		t.Fatalf("Call() error = %v, want regerr.ErrNotImplemented", err)
	}

	if err := b.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() = %v, want nil (no-op)", err)
	}
}
