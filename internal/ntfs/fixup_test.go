package ntfs

import "testing"

func buildFixedUpBuffer(sectors int, signature [2]byte, originalTails [][2]byte) []byte {
	buf := make([]byte, sectors*FixupSectorSize)
	usaOffset := uint16(0x30)
	usaCount := uint16(sectors + 1)

	buf[4] = byte(usaOffset)
	buf[5] = byte(usaOffset >> 8)
	buf[6] = byte(usaCount)
	buf[7] = byte(usaCount >> 8)

	buf[usaOffset] = signature[0]
	buf[usaOffset+1] = signature[1]

	for i := 0; i < sectors; i++ {
		orig := originalTails[i]
		off := int(usaOffset) + 2 + i*2
		buf[off] = orig[0]
		buf[off+1] = orig[1]

		tailOff := (i+1)*FixupSectorSize - 2
		buf[tailOff] = signature[0]
		buf[tailOff+1] = signature[1]
	}
	return buf
}

func TestApplyFixupRestoresOriginalBytes(t *testing.T) {
	sig := [2]byte{0xAB, 0xCD}
	tails := [][2]byte{{0x01, 0x02}, {0x03, 0x04}}
	buf := buildFixedUpBuffer(2, sig, tails)

	usaOffset, usaCount := readUSAHeader(buf, 4)
	if err := ApplyFixup(buf, usaOffset, usaCount); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if buf[FixupSectorSize-2] != 0x01 || buf[FixupSectorSize-1] != 0x02 {
		t.Errorf("sector 0 tail not restored: %x %x", buf[FixupSectorSize-2], buf[FixupSectorSize-1])
	}
	if buf[2*FixupSectorSize-2] != 0x03 || buf[2*FixupSectorSize-1] != 0x04 {
		t.Errorf("sector 1 tail not restored: %x %x", buf[2*FixupSectorSize-2], buf[2*FixupSectorSize-1])
	}
}

func TestApplyFixupDetectsTornWrite(t *testing.T) {
	sig := [2]byte{0xAB, 0xCD}
	tails := [][2]byte{{0x01, 0x02}}
	buf := buildFixedUpBuffer(1, sig, tails)

	// Corrupt the sector tail so it no longer matches the signature.
	buf[FixupSectorSize-1] = 0xFF

	usaOffset, usaCount := readUSAHeader(buf, 4)
	err := ApplyFixup(buf, usaOffset, usaCount)
	if err == nil {
		t.Fatal("expected torn-write error")
	}
	if kind, ok := KindOf(err); !ok || kind != KindInvalidRecord {
		t.Errorf("expected KindInvalidRecord, got %v", err)
	}
}

func TestApplyFixupZeroCountIsNoOp(t *testing.T) {
	buf := make([]byte, FixupSectorSize)
	if err := ApplyFixup(buf, 0, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
