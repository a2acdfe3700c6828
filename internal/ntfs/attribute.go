package ntfs

import (
	"encoding/binary"
	"unicode/utf16"
)

// AttrType identifies the kind of an MFT attribute.
type AttrType uint32

const (
	AttrStandardInformation AttrType = 0x10
	AttrAttributeList       AttrType = 0x20
	AttrFileName            AttrType = 0x30
	AttrObjectID            AttrType = 0x40
	AttrSecurityDescriptor  AttrType = 0x50
	AttrVolumeName          AttrType = 0x60
	AttrVolumeInformation   AttrType = 0x70
	AttrData                AttrType = 0x80
	AttrIndexRoot           AttrType = 0x90
	AttrIndexAllocation     AttrType = 0xA0
	AttrBitmap              AttrType = 0xB0
	AttrReparsePoint        AttrType = 0xC0
	AttrEAInformation       AttrType = 0xD0
	AttrEA                  AttrType = 0xE0
	AttrLoggedUtilityStream AttrType = 0x100

	attrListTerminator AttrType = 0xFFFFFFFF
)

const attrCommonHeaderSize = 16

// commonAttrHeader is the 16-byte header shared by every attribute,
// resident or not.
type commonAttrHeader struct {
	TypeCode        uint32
	RecordLength    uint32
	NonResidentFlag uint8
	NameLength      uint8
	NameOffset      uint16
	Flags           uint16
	Instance        uint16
}

// ByteView is the uniform polymorphic accessor for an attribute's
// payload, without a class hierarchy: a resident attribute's bytes are
// available directly; a non-resident attribute's bytes are available
// through its NonResidentView.
type ByteView struct {
	inline []byte
	runs   *NonResidentView
}

// IsResident reports whether the data lives inline in the MFT record.
func (b ByteView) IsResident() bool { return b.runs == nil }

// Len returns the logical length of the view.
func (b ByteView) Len() uint64 {
	if b.runs != nil {
		return b.runs.Len()
	}
	return uint64(len(b.inline))
}

// ReadByte returns the byte at logical index i.
func (b ByteView) ReadByte(i uint64) (byte, error) {
	if b.runs != nil {
		return b.runs.ReadByte(i)
	}
	if i >= uint64(len(b.inline)) {
		return 0, newErr(KindOverrun, "byte index %d out of range (length %d)", i, len(b.inline))
	}
	return b.inline[i], nil
}

// Slice returns the half-open logical range [start, stop).
func (b ByteView) Slice(start, stop uint64) ([]byte, error) {
	if b.runs != nil {
		return b.runs.Slice(start, stop)
	}
	if start > stop || stop > uint64(len(b.inline)) {
		return nil, newErr(KindOverrun, "slice [%d,%d) out of range (length %d)", start, stop, len(b.inline))
	}
	return b.inline[start:stop], nil
}

// Attribute is a decoded MFT attribute: common metadata plus either a
// resident value or a non-resident runlist/sizes.
type Attribute struct {
	Type AttrType
	Name string
	Flags uint16

	NonResident bool

	// Resident fields.
	Value []byte

	// Non-resident fields.
	Runlist         Runlist
	DataSize        uint64
	AllocatedSize   uint64
	InitializedSize uint64
	VCNStart        uint64
	VCNEnd          uint64
}

// Data returns the attribute's payload as a ByteView, building a
// NonResidentView lazily for non-resident attributes. clusters may be
// nil for resident-only callers (e.g. decoding within a single MFT
// record buffer where no cluster accessor is in scope); it must be
// provided for any non-resident attribute.
func (a *Attribute) Data(clusters *ClusterAccessor) (ByteView, error) {
	if !a.NonResident {
		return ByteView{inline: a.Value}, nil
	}
	if clusters == nil {
		return ByteView{}, newErr(KindCorruptFilesystem, "non-resident attribute %d requires a cluster accessor", a.Type)
	}
	return ByteView{runs: NewNonResidentView(clusters, a.Runlist)}, nil
}

// parseAttribute decodes one attribute starting at data[0] within an
// MFT record or attribute-list context. It returns the attribute and
// the byte length consumed (RecordLength), or (nil, 0, nil) at the
// 0xFFFFFFFF terminator.
func parseAttribute(data []byte) (*Attribute, int, error) {
	if len(data) < 4 {
		return nil, 0, newErr(KindCorruptFilesystem, "attribute header truncated")
	}
	typeCode := binary.LittleEndian.Uint32(data)
	if AttrType(typeCode) == attrListTerminator {
		return nil, 0, nil
	}

	if len(data) < attrCommonHeaderSize {
		return nil, 0, newErr(KindCorruptFilesystem, "attribute header truncated")
	}

	var hdr commonAttrHeader
	hdr.TypeCode = typeCode
	hdr.RecordLength = binary.LittleEndian.Uint32(data[4:])
	hdr.NonResidentFlag = data[8]
	hdr.NameLength = data[9]
	hdr.NameOffset = binary.LittleEndian.Uint16(data[10:])
	hdr.Flags = binary.LittleEndian.Uint16(data[12:])
	hdr.Instance = binary.LittleEndian.Uint16(data[14:])

	if hdr.RecordLength < attrCommonHeaderSize || int(hdr.RecordLength) > len(data) {
		return nil, 0, newErr(KindCorruptFilesystem, "attribute record length %d invalid (have %d bytes)", hdr.RecordLength, len(data))
	}

	attr := &Attribute{
		Type:        AttrType(hdr.TypeCode),
		Flags:       hdr.Flags,
		NonResident: hdr.NonResidentFlag != 0,
	}

	if hdr.NameLength > 0 {
		nameStart := int(hdr.NameOffset)
		nameEnd := nameStart + int(hdr.NameLength)*2
		if nameEnd > int(hdr.RecordLength) {
			return nil, 0, newErr(KindCorruptFilesystem, "attribute name out of bounds")
		}
		attr.Name = decodeUTF16(data[nameStart:nameEnd])
	}

	if !attr.NonResident {
		if len(data) < attrCommonHeaderSize+8 {
			return nil, 0, newErr(KindCorruptFilesystem, "resident attribute header truncated")
		}
		valueLength := binary.LittleEndian.Uint32(data[16:])
		valueOffset := binary.LittleEndian.Uint16(data[20:])

		valueEnd := int(valueOffset) + int(valueLength)
		if valueEnd > int(hdr.RecordLength) {
			return nil, 0, newErr(KindCorruptFilesystem, "resident value out of bounds")
		}
		attr.Value = append([]byte(nil), data[valueOffset:valueEnd]...)
	} else {
		if len(data) < attrCommonHeaderSize+48 {
			return nil, 0, newErr(KindCorruptFilesystem, "non-resident attribute header truncated")
		}
		attr.VCNStart = binary.LittleEndian.Uint64(data[16:])
		attr.VCNEnd = binary.LittleEndian.Uint64(data[24:])
		mappingPairsOffset := binary.LittleEndian.Uint16(data[32:])
		attr.AllocatedSize = binary.LittleEndian.Uint64(data[40:])
		attr.DataSize = binary.LittleEndian.Uint64(data[48:])
		attr.InitializedSize = binary.LittleEndian.Uint64(data[56:])

		if int(mappingPairsOffset) > int(hdr.RecordLength) {
			return nil, 0, newErr(KindCorruptFilesystem, "mapping pairs offset out of bounds")
		}
		runlist, err := DecodeRunlist(data[mappingPairsOffset:hdr.RecordLength])
		if err != nil {
			return nil, 0, err
		}
		attr.Runlist = runlist
	}

	return attr, int(hdr.RecordLength), nil
}

// decodeUTF16 decodes a little-endian UTF-16 byte slice to a Go string.
func decodeUTF16(b []byte) string {
	u16 := make([]uint16, len(b)/2)
	for i := range u16 {
		u16[i] = binary.LittleEndian.Uint16(b[i*2:])
	}
	return string(utf16.Decode(u16))
}
