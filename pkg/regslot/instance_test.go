package regslot

import "testing"

func Test_Instance_Subfields_Decode_As_Packed(t *testing.T) {
	t.Parallel()

	var id InstanceID

	id |= uint64(0x00AB)       // service_id echo
	id |= uint64(0x05) << 16   // instance_no
	id |= uint64(0x2) << 24    // domain (low nibble of the byte)
	id |= uint64(0x3) << 28    // asil_level
	id |= uint64(1) << 31      // redundancy (backup)

	if got := ServiceIDEcho(id); got != 0x00AB {
		t.Fatalf("ServiceIDEcho = %#x, want %#x", got, 0x00AB)
	}

	if got := InstanceNo(id); got != 0x05 {
		t.Fatalf("InstanceNo = %d, want %d", got, 0x05)
	}

	if got := Domain(id); got != 0x2 {
		t.Fatalf("Domain = %d, want %d", got, 0x2)
	}

	if got := ASILLevel(id); got != 0x3 {
		t.Fatalf("ASILLevel = %d, want %d", got, 0x3)
	}

	if !IsBackup(id) {
		t.Fatal("IsBackup = false, want true")
	}
}

func Test_IsBackup_False_For_Primary(t *testing.T) {
	t.Parallel()

	if IsBackup(0x00AB) {
		t.Fatal("IsBackup = true, want false for a primary instance id")
	}
}
