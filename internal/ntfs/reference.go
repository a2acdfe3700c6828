package ntfs

import (
	"encoding/binary"
	"time"
)

// MFTReference is the packed (record_number, sequence_number) pair
// NTFS uses to address an MFT record while detecting stale references
// to a reused slot.
type MFTReference struct {
	RecordNumber   int64
	SequenceNumber uint16
}

// DecodeMFTReference unpacks a raw 8-byte little-endian reference: the
// low 48 bits are the record number, the high 16 bits are the
// sequence number.
func DecodeMFTReference(raw uint64) MFTReference {
	return MFTReference{
		RecordNumber:   int64(raw & 0x0000FFFFFFFFFFFF),
		SequenceNumber: uint16(raw >> 48),
	}
}

// filenameNamespace identifies which of the (up to four) $FILE_NAME
// attributes a record carries.
type filenameNamespace uint8

const (
	namespacePOSIX    filenameNamespace = 0
	namespaceWin32    filenameNamespace = 1
	namespaceDOS      filenameNamespace = 2
	namespaceWin32DOS filenameNamespace = 3
)

// fileTimeEpochDelta is the number of 100ns ticks between the FILETIME
// epoch (1601-01-01) and the Unix epoch (1970-01-01).
const fileTimeEpochDelta = 116444736000000000

// filetimeToTime converts an NTFS/Windows FILETIME (100ns ticks since
// 1601-01-01) to a Go time.Time in UTC.
func filetimeToTime(ft uint64) time.Time {
	unixTicks := int64(ft) - fileTimeEpochDelta
	seconds := unixTicks / 10_000_000
	nanos := (unixTicks % 10_000_000) * 100
	return time.Unix(seconds, nanos).UTC()
}

// FileNameAttribute is the decoded value of a $FILE_NAME attribute.
type FileNameAttribute struct {
	ParentDirectory MFTReference
	Created         time.Time
	Modified        time.Time
	MFTModified     time.Time
	Accessed        time.Time
	AllocatedSize   uint64
	LogicalSize     uint64
	FileFlags       uint32
	Namespace       filenameNamespace
	Name            string
}

const fileNameFixedSize = 8 + 8 + 8 + 8 + 8 + 8 + 8 + 4 + 4 + 1 + 1

// parseFileName decodes a resident $FILE_NAME attribute value.
func parseFileName(value []byte) (*FileNameAttribute, error) {
	if len(value) < fileNameFixedSize {
		return nil, newErr(KindCorruptFilesystem, "$FILE_NAME value truncated")
	}

	fn := &FileNameAttribute{
		ParentDirectory: DecodeMFTReference(binary.LittleEndian.Uint64(value[0:])),
		Created:         filetimeToTime(binary.LittleEndian.Uint64(value[8:])),
		Modified:        filetimeToTime(binary.LittleEndian.Uint64(value[16:])),
		MFTModified:     filetimeToTime(binary.LittleEndian.Uint64(value[24:])),
		Accessed:        filetimeToTime(binary.LittleEndian.Uint64(value[32:])),
		AllocatedSize:   binary.LittleEndian.Uint64(value[40:]),
		LogicalSize:     binary.LittleEndian.Uint64(value[48:]),
		FileFlags:       binary.LittleEndian.Uint32(value[56:]),
	}

	nameLengthChars := int(value[64])
	fn.Namespace = filenameNamespace(value[65])

	nameStart := fileNameFixedSize
	nameEnd := nameStart + nameLengthChars*2
	if nameEnd > len(value) {
		return nil, newErr(KindCorruptFilesystem, "$FILE_NAME name out of bounds")
	}
	fn.Name = decodeUTF16(value[nameStart:nameEnd])

	return fn, nil
}

// parseStandardInformationTimes decodes the four FILETIME fields
// common to every $STANDARD_INFORMATION value, regardless of which of
// its several on-disk versions (basic vs. extended with quota/usn
// fields) is present — this package never reads past byte 32.
func parseStandardInformationTimes(value []byte) (created, modified, changed, accessed time.Time) {
	created = filetimeToTime(binary.LittleEndian.Uint64(value[0:]))
	modified = filetimeToTime(binary.LittleEndian.Uint64(value[8:]))
	changed = filetimeToTime(binary.LittleEndian.Uint64(value[16:]))
	accessed = filetimeToTime(binary.LittleEndian.Uint64(value[24:]))
	return
}

// namespacePriority ranks namespaces for display-name selection: Win32
// is preferred over POSIX, which is preferred over the combined
// Win32&DOS form, which is preferred over bare DOS (an 8.3 alias carries the
// least information).
func namespacePriority(ns filenameNamespace) int {
	switch ns {
	case namespaceWin32:
		return 0
	case namespacePOSIX:
		return 1
	case namespaceWin32DOS:
		return 2
	case namespaceDOS:
		return 3
	default:
		return 4
	}
}

// bestFileName picks the preferred $FILE_NAME among a record's
// (possibly several) namespace variants.
func bestFileName(names []*FileNameAttribute) *FileNameAttribute {
	if len(names) == 0 {
		return nil
	}
	best := names[0]
	for _, n := range names[1:] {
		if namespacePriority(n.Namespace) < namespacePriority(best.Namespace) {
			best = n
		}
	}
	return best
}
