package ntfs

import "encoding/binary"

// recordMagic values found at the start of an MFT record or index
// block. "BAAD" marks a record the filesystem itself flagged corrupt.
var (
	recordMagicFILE = [4]byte{'F', 'I', 'L', 'E'}
	recordMagicBAAD = [4]byte{'B', 'A', 'A', 'D'}
)

// Record flag bits.
const (
	RecordFlagInUse     uint16 = 1 << 0
	RecordFlagDirectory uint16 = 1 << 1
)

// rawRecordHeader mirrors the fixed portion of an MFT record header,
// from the magic through next_attr_id; recordHeaderSize is its size.
// parseRecord reads the fields it needs directly from the buffer at
// these offsets rather than decoding through this struct.
type rawRecordHeader struct {
	Magic            [4]byte
	USAOffset        uint16
	USACount         uint16
	LSN              uint64
	SequenceNumber   uint16
	LinkCount        uint16
	FirstAttrOffset  uint16
	Flags            uint16
	UsedSize         uint32
	AllocatedSize    uint32
	BaseRecord       uint64
	NextAttrID       uint16
}

const recordHeaderSize = 4 + 2 + 2 + 8 + 2 + 2 + 2 + 2 + 4 + 4 + 8 + 2

// Record is a fully decoded and fixed-up MFT record.
type Record struct {
	Number         int64
	SequenceNumber uint16
	Flags          uint16
	BaseRecord     MFTReference
	Attributes     []*Attribute
}

// InUse reports whether the record's in-use flag is set.
func (r *Record) InUse() bool { return r.Flags&RecordFlagInUse != 0 }

// IsDirectory reports whether the record's directory flag is set.
func (r *Record) IsDirectory() bool { return r.Flags&RecordFlagDirectory != 0 }

// FindAttribute returns the first attribute of the given type, or an
// AttributeNotFound error.
//
// This only searches attributes stored directly in the record. A
// record whose attribute list overflows into $ATTRIBUTE_LIST extension
// records will not have those extension attributes found here;
// $ATTRIBUTE_LIST traversal is not implemented.
func (r *Record) FindAttribute(t AttrType) (*Attribute, error) {
	for _, a := range r.Attributes {
		if a.Type == t {
			return a, nil
		}
	}
	return nil, newErr(KindAttributeNotFound, "record %d has no attribute of type 0x%X", r.Number, uint32(t))
}

// FindAttributes returns every attribute of the given type (e.g. every
// $FILE_NAME, one per hard link namespace).
func (r *Record) FindAttributes(t AttrType) []*Attribute {
	var out []*Attribute
	for _, a := range r.Attributes {
		if a.Type == t {
			out = append(out, a)
		}
	}
	return out
}

// parseRecord decodes and fixes up a raw MFT record buffer (exactly
// one record_size bytes, as produced by NonResidentView.Slice over the
// $MFT's $DATA attribute). recordNumber is the caller-known index into
// the MFT, since the record itself carries no authoritative self index
// on all NTFS versions.
func parseRecord(buf []byte, recordNumber int64) (*Record, error) {
	if len(buf) < recordHeaderSize {
		return nil, newErr(KindCorruptFilesystem, "record %d shorter than header", recordNumber)
	}

	var magic [4]byte
	copy(magic[:], buf[0:4])
	if magic == recordMagicBAAD {
		return nil, newErr(KindInvalidRecord, "record %d marked BAAD by filesystem", recordNumber)
	}
	if magic != recordMagicFILE {
		return nil, newErr(KindInvalidRecord, "record %d has bad magic %q", recordNumber, magic[:])
	}

	usaOffset := binary.LittleEndian.Uint16(buf[4:])
	usaCount := binary.LittleEndian.Uint16(buf[6:])
	if err := ApplyFixup(buf, usaOffset, usaCount); err != nil {
		return nil, wrapErr(KindInvalidRecord, err, "record %d", recordNumber)
	}

	sequenceNumber := binary.LittleEndian.Uint16(buf[16:])
	firstAttrOffset := binary.LittleEndian.Uint16(buf[20:])
	flags := binary.LittleEndian.Uint16(buf[22:])
	usedSize := binary.LittleEndian.Uint32(buf[24:])
	baseRecordRaw := binary.LittleEndian.Uint64(buf[32:])

	rec := &Record{
		Number:         recordNumber,
		SequenceNumber: sequenceNumber,
		Flags:          flags,
		BaseRecord:     DecodeMFTReference(baseRecordRaw),
	}

	if int(usedSize) > len(buf) {
		return nil, newErr(KindCorruptFilesystem, "record %d used_size %d exceeds buffer %d", recordNumber, usedSize, len(buf))
	}

	pos := int(firstAttrOffset)
	for pos < int(usedSize) {
		attr, consumed, err := parseAttribute(buf[pos:usedSize])
		if err != nil {
			return nil, wrapErr(KindCorruptFilesystem, err, "record %d attribute at offset %d", recordNumber, pos)
		}
		if attr == nil {
			break // 0xFFFFFFFF terminator
		}
		rec.Attributes = append(rec.Attributes, attr)
		pos += consumed
	}

	return rec, nil
}
