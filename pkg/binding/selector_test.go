package binding

import "testing"

func Test_Select_Picks_Highest_Priority_Binding_By_Default(t *testing.T) {
	t.Parallel()

	shm := &fakeBinding{name: "iceoryx2", priority: PriorityZeroCopyShm, zeroCopy: true}
	socket := &fakeBinding{name: "socket", priority: PrioritySocket}

	sel := NewSelector([]Binding{socket, shm}, nil)

	got, ok := sel.Select(0x0010, 1)
	if !ok {
		t.Fatal("Select() ok = false, want true")
	}

	if got.Name() != "iceoryx2" {
		t.Fatalf("Select().Name() = %q, want iceoryx2", got.Name())
	}
}

func Test_Select_Honors_Static_Override(t *testing.T) {
	t.Parallel()

	shm := &fakeBinding{name: "iceoryx2", priority: PriorityZeroCopyShm}
	someip := &fakeBinding{name: "someip", priority: PrioritySomeIP}

	overrides := []Override{{ServiceID: 0x0010, BindingName: "someip"}}
	sel := NewSelector([]Binding{shm, someip}, overrides)

	got, ok := sel.Select(0x0010, 1)
	if !ok {
		t.Fatal("Select() ok = false, want true")
	}

	if got.Name() != "someip" {
		t.Fatalf("Select().Name() = %q, want someip (override)", got.Name())
	}

	// A different service id is unaffected by the override.
	got, ok = sel.Select(0x0011, 1)
	if !ok || got.Name() != "iceoryx2" {
		t.Fatalf("Select(0x0011) = (%v, %v), want iceoryx2", got, ok)
	}
}

func Test_Select_Override_Scoped_To_Instance_Does_Not_Match_Other_Instances(t *testing.T) {
	t.Parallel()

	shm := &fakeBinding{name: "iceoryx2", priority: PriorityZeroCopyShm}
	dbus := &fakeBinding{name: "dbus", priority: PriorityDBus}

	overrides := []Override{{ServiceID: 0x0010, InstanceID: 5, BindingName: "dbus"}}
	sel := NewSelector([]Binding{shm, dbus}, overrides)

	got, ok := sel.Select(0x0010, 5)
	if !ok || got.Name() != "dbus" {
		t.Fatalf("Select(instance 5) = (%v, %v), want dbus", got, ok)
	}

	got, ok = sel.Select(0x0010, 6)
	if !ok || got.Name() != "iceoryx2" {
		t.Fatalf("Select(instance 6) = (%v, %v), want iceoryx2 (override does not apply)", got, ok)
	}
}

func Test_Select_Returns_Not_Ok_When_Override_Names_An_Unregistered_Binding(t *testing.T) {
	t.Parallel()

	shm := &fakeBinding{name: "iceoryx2", priority: PriorityZeroCopyShm}

	overrides := []Override{{ServiceID: 0x0010, BindingName: "dds"}}
	sel := NewSelector([]Binding{shm}, overrides)

	_, ok := sel.Select(0x0010, 1)
	if ok {
		t.Fatal("Select() ok = true, want false for an override naming an unregistered binding")
	}
}

func Test_Select_Skips_Bindings_That_Do_Not_Support_The_Service(t *testing.T) {
	t.Parallel()

	shm := &fakeBinding{name: "iceoryx2", priority: PriorityZeroCopyShm, unsupportedAbove: 0x0010}
	socket := &fakeBinding{name: "socket", priority: PrioritySocket}

	sel := NewSelector([]Binding{shm, socket}, nil)

	got, ok := sel.Select(0x0020, 1)
	if !ok || got.Name() != "socket" {
		t.Fatalf("Select(unsupported by shm) = (%v, %v), want socket", got, ok)
	}
}

func Test_Select_Returns_Not_Ok_When_No_Binding_Supports_The_Service(t *testing.T) {
	t.Parallel()

	sel := NewSelector(nil, nil)

	_, ok := sel.Select(0x0010, 1)
	if ok {
		t.Fatal("Select() ok = true, want false with no registered bindings")
	}
}
