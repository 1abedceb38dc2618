package regtable

import (
	"errors"
	"sync"
	"testing"

	"github.com/lightap/lap-com/pkg/regerr"
	"github.com/lightap/lap-com/pkg/regslot"
)

func Test_New_Rejects_Wrong_Sized_Region(t *testing.T) {
	t.Parallel()

	_, err := New(make([]byte, Size-1))
	if err == nil {
		t.Fatal("New() with undersized region must fail")
	}
}

func Test_WriteSlot_Then_ReadSlot_Round_Trips(t *testing.T) {
	t.Parallel()

	tbl, err := New(make([]byte, Size))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	want := regslot.Slot{ServiceID: 0x0042, Status: regslot.StatusActive, Endpoint: "shm://qm/0042"}

	if err := tbl.WriteSlot(0x0042, want); err != nil {
		t.Fatalf("WriteSlot failed: %v", err)
	}

	got, err := tbl.ReadSlot(0x0042)
	if err != nil {
		t.Fatalf("ReadSlot failed: %v", err)
	}

	if got.ServiceID != want.ServiceID || got.Endpoint != want.Endpoint {
		t.Fatalf("ReadSlot() = %+v, want %+v", got, want)
	}
}

func Test_WriteSlot_Rejects_Reserved_Slot_Zero(t *testing.T) {
	t.Parallel()

	tbl, _ := New(make([]byte, Size))

	err := tbl.WriteSlot(0, regslot.Slot{})
	if !errors.Is(err, regerr.ErrInvalidSlotIndex) {
		t.Fatalf("WriteSlot(0) = %v, want ErrInvalidSlotIndex", err)
	}
}

func Test_WriteSlot_Rejects_Out_Of_Range_Index(t *testing.T) {
	t.Parallel()

	tbl, _ := New(make([]byte, Size))

	if err := tbl.WriteSlot(SlotCount, regslot.Slot{}); !errors.Is(err, regerr.ErrInvalidSlotIndex) {
		t.Fatalf("WriteSlot(SlotCount) = %v, want ErrInvalidSlotIndex", err)
	}

	if err := tbl.WriteSlot(-1, regslot.Slot{}); !errors.Is(err, regerr.ErrInvalidSlotIndex) {
		t.Fatalf("WriteSlot(-1) = %v, want ErrInvalidSlotIndex", err)
	}
}

func Test_ReadSlot_Allows_Index_Zero(t *testing.T) {
	t.Parallel()

	tbl, _ := New(make([]byte, Size))

	s, err := tbl.ReadSlot(0)
	if err != nil {
		t.Fatalf("ReadSlot(0) failed: %v", err)
	}

	if !s.IsIdle() {
		t.Fatal("slot 0 of a fresh table must read as idle")
	}
}

func Test_ResetSlot_Returns_Slot_To_Idle(t *testing.T) {
	t.Parallel()

	tbl, _ := New(make([]byte, Size))

	if err := tbl.WriteSlot(5, regslot.Slot{ServiceID: 5, Status: regslot.StatusActive}); err != nil {
		t.Fatalf("WriteSlot failed: %v", err)
	}

	if err := tbl.ResetSlot(5); err != nil {
		t.Fatalf("ResetSlot failed: %v", err)
	}

	got, err := tbl.ReadSlot(5)
	if err != nil {
		t.Fatalf("ReadSlot failed: %v", err)
	}

	if !got.IsIdle() {
		t.Fatalf("ReadSlot after ResetSlot = %+v, want idle", got)
	}
}

func Test_WriteSlot_Serializes_Concurrent_Writers_Without_Corruption(t *testing.T) {
	t.Parallel()

	tbl, _ := New(make([]byte, Size))

	const n = 64

	var wg sync.WaitGroup
	wg.Add(n)

	for i := range n {
		go func(i int) {
			defer wg.Done()

			_ = tbl.WriteSlot(10, regslot.Slot{ServiceID: uint64(i), Status: regslot.StatusActive})
		}(i)
	}

	wg.Wait()

	got, err := tbl.ReadSlot(10)
	if err != nil {
		t.Fatalf("ReadSlot failed: %v", err)
	}

	if got.ServiceID >= n {
		t.Fatalf("ReadSlot observed impossible ServiceID %d, table corrupted by concurrent writes", got.ServiceID)
	}
}

func Test_BroadcastIndex_Is_Last_Slot(t *testing.T) {
	t.Parallel()

	if BroadcastIndex != SlotCount-1 {
		t.Fatalf("BroadcastIndex = %d, want %d", BroadcastIndex, SlotCount-1)
	}
}
