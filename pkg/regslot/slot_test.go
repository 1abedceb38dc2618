package regslot

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func Test_Size_Is_Exactly_256_Bytes(t *testing.T) {
	t.Parallel()

	if Size != 256 {
		t.Fatalf("Size = %d, want 256", Size)
	}
}

func Test_Encode_Then_Decode_Round_Trips_All_Fields(t *testing.T) {
	t.Parallel()

	want := Slot{
		ServiceID:           0x00AB,
		InstanceID:          0x0102030400AB,
		MajorVersion:        3,
		MinorVersion:        7,
		BindingType:         "iceoryx2",
		Endpoint:            "shm://qm/00ab",
		LastHeartbeatNs:     123456789,
		HeartbeatIntervalMs: 100,
		Status:              StatusActive,
		OwnerPID:            4242,
		Metadata:            `{"zero_copy":true}`,
	}

	buf := make([]byte, Size)

	if err := encode(buf, want); err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	got := decode(buf)

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("decode(encode(s)) mismatch (-want +got):\n%s", diff)
	}
}

func Test_Encode_Rejects_Buffer_Of_Wrong_Size(t *testing.T) {
	t.Parallel()

	buf := make([]byte, Size-1)

	if err := encode(buf, Slot{}); err == nil {
		t.Fatal("encode() with undersized buffer must fail")
	}
}

func Test_Encode_Rejects_Oversized_Fixed_Width_Strings(t *testing.T) {
	t.Parallel()

	buf := make([]byte, Size)

	tooLong := make([]byte, endpointSize)
	for i := range tooLong {
		tooLong[i] = 'x'
	}

	err := encode(buf, Slot{Endpoint: string(tooLong)})
	if err == nil {
		t.Fatal("encode() must reject an endpoint that does not fit its fixed-width field")
	}
}

func Test_Encode_Never_Touches_The_Sequence_Field(t *testing.T) {
	t.Parallel()

	buf := make([]byte, Size)
	buf[offSequence] = 0xAA
	buf[offSequence+1] = 0xBB

	if err := encode(buf, Slot{ServiceID: 1}); err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	if buf[offSequence] != 0xAA || buf[offSequence+1] != 0xBB {
		t.Fatal("encode() must not modify the sequence counter bytes")
	}
}

func Test_Decode_Stops_Fixed_Width_Strings_At_First_NUL(t *testing.T) {
	t.Parallel()

	buf := make([]byte, Size)
	copy(buf[offBindingType:], "dds\x00garbage")

	got := decode(buf)

	if got.BindingType != "dds" {
		t.Fatalf("BindingType = %q, want %q", got.BindingType, "dds")
	}
}

func Test_IsIdle_And_IsActive_Reflect_Status(t *testing.T) {
	t.Parallel()

	idle := Slot{Status: StatusIdle}
	if !idle.IsIdle() || idle.IsActive() {
		t.Fatal("idle slot must report IsIdle() and not IsActive()")
	}

	active := Slot{Status: StatusActive}
	if active.IsIdle() || !active.IsActive() {
		t.Fatal("active slot must report IsActive() and not IsIdle()")
	}
}
