package ntfs

import "encoding/binary"

// FixupSectorSize is the sector size over which the update-sequence
// array protects data: every 512-byte sector of a multi-sector record
// has its last two bytes replaced by a shared signature word at write
// time, with the true bytes parked in the USA so torn writes can be
// detected.
const FixupSectorSize = 512

// ApplyFixup verifies and reverses the update-sequence-array
// substitution on buf in place. usaOffset/usaCount come from the
// record/index-block header. The first USA entry is the signature;
// each subsequent entry is the original last-two-bytes of one 512-byte
// sector. A mismatch between a sector's current tail and the signature
// indicates a torn write and is reported as InvalidRecord.
func ApplyFixup(buf []byte, usaOffset, usaCount uint16) error {
	if usaCount == 0 {
		return nil
	}
	entries := int(usaCount) - 1

	usaStart := int(usaOffset)
	usaEnd := usaStart + int(usaCount)*2
	if usaStart < 0 || usaEnd > len(buf) {
		return newErr(KindInvalidRecord, "update-sequence array out of bounds")
	}

	signature := buf[usaStart : usaStart+2]

	for i := 0; i < entries; i++ {
		sectorTailOff := (i+1)*FixupSectorSize - 2
		if sectorTailOff+2 > len(buf) {
			return newErr(KindInvalidRecord, "fixup sector %d exceeds buffer", i)
		}

		tail := buf[sectorTailOff : sectorTailOff+2]
		if tail[0] != signature[0] || tail[1] != signature[1] {
			return newErr(KindInvalidRecord, "fixup signature mismatch in sector %d (torn write)", i)
		}

		origOff := usaStart + 2 + i*2
		tail[0] = buf[origOff]
		tail[1] = buf[origOff+1]
	}
	return nil
}

// readUSAHeader reads the common usa_offset/usa_count pair found at a
// fixed position in both MFT record headers and index block headers.
func readUSAHeader(buf []byte, offsetOfUSAOffset int) (usaOffset, usaCount uint16) {
	usaOffset = binary.LittleEndian.Uint16(buf[offsetOfUSAOffset:])
	usaCount = binary.LittleEndian.Uint16(buf[offsetOfUSAOffset+2:])
	return
}
