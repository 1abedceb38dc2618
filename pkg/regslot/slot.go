// Package regslot defines the 256-byte cache-aligned slot record and the
// seqlock protocol (spec §3.1, §4.1) that guards concurrent access to it.
//
// A slot lives inside a shared-memory region mapped by more than one OS
// process (see pkg/regmem). Field layout is little-endian and fixed; see
// encode/decode. The sequence counter is mutated only through BeginWrite/
// EndWrite and observed only through Read.
package regslot

import (
	"encoding/binary"
	"fmt"
)

// Size is the fixed size of a slot record in bytes (spec §3.1).
const Size = 256

// Byte offsets of each field within a slot, in spec §3.1 order.
//
// The field table in spec §3.1 lists 212 bytes of named fields and a 32
// byte padding tail, which would total 244 bytes -- inconsistent with the
// spec's own hard invariant that a slot is exactly 256 bytes (§3.1,
// tested by §8 property 1). That invariant is authoritative here: padding
// is sized to fill whatever remains after the named fields (44 bytes),
// not fixed at 32. See DESIGN.md's Open Question log.
const (
	offSequence            = 0  // 8 bytes
	offServiceID           = 8  // 8 bytes
	offInstanceID          = 16 // 8 bytes
	offMajorVersion        = 24 // 4 bytes
	offMinorVersion        = 28 // 4 bytes
	offBindingType         = 32 // 16 bytes
	offEndpoint            = 48 // 80 bytes
	offLastHeartbeatNs     = 128 // 8 bytes
	offHeartbeatIntervalMs = 136 // 4 bytes
	offStatus              = 140 // 4 bytes
	offOwnerPID            = 144 // 4 bytes
	offMetadata            = 148 // 64 bytes
	offPaddingStart        = 212
)

const (
	bindingTypeSize = 16
	endpointSize    = 80
	metadataSize    = 64
)

// Status is a slot's lifecycle state (spec §3.3).
type Status uint32

const (
	// StatusIdle means the slot is available; all other content is
	// ignored.
	StatusIdle Status = 0
	// StatusActive means the slot is published by a live owner.
	StatusActive Status = 1
	// StatusUnregistering is a transient state set briefly by the owner
	// or a cleanup task before the slot returns to StatusIdle.
	StatusUnregistering Status = 2
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusActive:
		return "active"
	case StatusUnregistering:
		return "unregistering"
	default:
		return fmt.Sprintf("status(%d)", uint32(s))
	}
}

// Slot is a value-level copy of a slot record (spec §3.1). Readers never
// see the live shared-memory bytes directly -- Read returns a Slot copy
// produced under the seqlock protocol.
type Slot struct {
	ServiceID           uint64
	InstanceID          uint64
	MajorVersion        uint32
	MinorVersion        uint32
	BindingType         string
	Endpoint            string
	LastHeartbeatNs     uint64
	HeartbeatIntervalMs uint32
	Status              Status
	OwnerPID            int32
	Metadata            string
}

// IsIdle reports whether the slot is currently unoccupied.
func (s Slot) IsIdle() bool { return s.Status == StatusIdle }

// IsActive reports whether the slot holds a live registration.
func (s Slot) IsActive() bool { return s.Status == StatusActive }

// encode writes all fields of s except the sequence counter into buf,
// which must be exactly Size bytes. The sequence counter is owned
// exclusively by the seqlock protocol (BeginWrite/EndWrite) and is never
// touched here.
func encode(buf []byte, s Slot) error {
	if len(buf) != Size {
		return fmt.Errorf("regslot: encode buffer must be %d bytes, got %d", Size, len(buf))
	}

	binary.LittleEndian.PutUint64(buf[offServiceID:], s.ServiceID)
	binary.LittleEndian.PutUint64(buf[offInstanceID:], s.InstanceID)
	binary.LittleEndian.PutUint32(buf[offMajorVersion:], s.MajorVersion)
	binary.LittleEndian.PutUint32(buf[offMinorVersion:], s.MinorVersion)

	if err := putFixedString(buf[offBindingType:offBindingType+bindingTypeSize], s.BindingType); err != nil {
		return fmt.Errorf("regslot: binding_type: %w", err)
	}

	if err := putFixedString(buf[offEndpoint:offEndpoint+endpointSize], s.Endpoint); err != nil {
		return fmt.Errorf("regslot: endpoint: %w", err)
	}

	binary.LittleEndian.PutUint64(buf[offLastHeartbeatNs:], s.LastHeartbeatNs)
	binary.LittleEndian.PutUint32(buf[offHeartbeatIntervalMs:], s.HeartbeatIntervalMs)
	binary.LittleEndian.PutUint32(buf[offStatus:], uint32(s.Status))
	binary.LittleEndian.PutUint32(buf[offOwnerPID:], uint32(s.OwnerPID))

	if err := putFixedString(buf[offMetadata:offMetadata+metadataSize], s.Metadata); err != nil {
		return fmt.Errorf("regslot: metadata: %w", err)
	}

	clear(buf[offPaddingStart:Size])

	return nil
}

// decode reads every field of buf except the sequence counter into a
// Slot value. buf must be exactly Size bytes.
func decode(buf []byte) Slot {
	return Slot{
		ServiceID:           binary.LittleEndian.Uint64(buf[offServiceID:]),
		InstanceID:          binary.LittleEndian.Uint64(buf[offInstanceID:]),
		MajorVersion:        binary.LittleEndian.Uint32(buf[offMajorVersion:]),
		MinorVersion:        binary.LittleEndian.Uint32(buf[offMinorVersion:]),
		BindingType:         getFixedString(buf[offBindingType : offBindingType+bindingTypeSize]),
		Endpoint:            getFixedString(buf[offEndpoint : offEndpoint+endpointSize]),
		LastHeartbeatNs:     binary.LittleEndian.Uint64(buf[offLastHeartbeatNs:]),
		HeartbeatIntervalMs: binary.LittleEndian.Uint32(buf[offHeartbeatIntervalMs:]),
		Status:              Status(binary.LittleEndian.Uint32(buf[offStatus:])),
		OwnerPID:            int32(binary.LittleEndian.Uint32(buf[offOwnerPID:])),
		Metadata:            getFixedString(buf[offMetadata : offMetadata+metadataSize]),
	}
}

// putFixedString NUL-pads s into a fixed-width field. s must fit,
// including the implicit NUL terminator expected by binding_type/
// endpoint/metadata consumers.
func putFixedString(dst []byte, s string) error {
	if len(s) >= len(dst) {
		return fmt.Errorf("value %q too long for %d-byte field", s, len(dst))
	}

	clear(dst)
	copy(dst, s)

	return nil
}

// getFixedString reads a NUL-padded fixed-width field back into a string,
// stopping at the first NUL byte.
func getFixedString(src []byte) string {
	if i := indexByte(src, 0); i >= 0 {
		return string(src[:i])
	}

	return string(src)
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}

	return -1
}
