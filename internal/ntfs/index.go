package ntfs

import "encoding/binary"

const (
	indexEntryNode uint16 = 0x01 // entry carries a child VCN (internal node)
	indexEntryEnd  uint16 = 0x02 // entry has no key data; last in this node
)

const indexEntryHeaderSize = 16

// indexRootHeaderSize is the fixed portion preceding the common
// INDEX_HEADER in a resident $INDEX_ROOT value.
const indexRootHeaderSize = 16

// indexHeaderSize is the common header shared by $INDEX_ROOT (after
// its type-specific prefix) and each $INDEX_ALLOCATION block (after
// its INDX prefix).
const indexHeaderSize = 16

// indexEntry is one decoded directory-index entry: an MFT reference
// paired with the $FILE_NAME it was filed under.
type indexEntry struct {
	ref  MFTReference
	name string
}

// parseIndexEntries walks index entries from buf[entriesStart:entriesEnd],
// stopping at the END-flagged terminator entry. Entries whose key
// fails to decode as a $FILE_NAME are skipped rather than failing the
// whole node, since only the MFT reference and name are needed for
// children().
func parseIndexEntries(buf []byte, entriesStart, entriesEnd int) ([]indexEntry, error) {
	var entries []indexEntry
	pos := entriesStart

	for pos < entriesEnd {
		if pos+indexEntryHeaderSize > entriesEnd || pos+indexEntryHeaderSize > len(buf) {
			return nil, newErr(KindCorruptFilesystem, "index entry header truncated at offset %d", pos)
		}

		fileRef := binary.LittleEndian.Uint64(buf[pos:])
		length := binary.LittleEndian.Uint16(buf[pos+8:])
		keyLength := binary.LittleEndian.Uint16(buf[pos+10:])
		flags := binary.LittleEndian.Uint16(buf[pos+12:])

		if length < indexEntryHeaderSize || pos+int(length) > entriesEnd {
			return nil, newErr(KindCorruptFilesystem, "index entry length %d invalid at offset %d", length, pos)
		}

		if flags&indexEntryEnd != 0 {
			break
		}

		keyStart := pos + indexEntryHeaderSize
		keyEnd := keyStart + int(keyLength)
		if keyEnd > pos+int(length) {
			return nil, newErr(KindCorruptFilesystem, "index entry key out of bounds at offset %d", pos)
		}

		if fn, err := parseFileName(buf[keyStart:keyEnd]); err == nil {
			entries = append(entries, indexEntry{ref: DecodeMFTReference(fileRef), name: fn.Name})
		}

		pos += int(length)
	}

	return entries, nil
}

// parseIndexNode reads the common INDEX_HEADER at headerOffset within
// buf and decodes the entries it bounds.
func parseIndexNode(buf []byte, headerOffset int) ([]indexEntry, error) {
	if headerOffset+indexHeaderSize > len(buf) {
		return nil, newErr(KindCorruptFilesystem, "index header truncated")
	}
	entriesOffset := binary.LittleEndian.Uint32(buf[headerOffset:])
	indexLength := binary.LittleEndian.Uint32(buf[headerOffset+4:])

	entriesStart := headerOffset + int(entriesOffset)
	entriesEnd := headerOffset + int(indexLength)
	if entriesStart < 0 || entriesEnd > len(buf) || entriesStart > entriesEnd {
		return nil, newErr(KindCorruptFilesystem, "index entries range out of bounds")
	}
	return parseIndexEntries(buf, entriesStart, entriesEnd)
}

// parseIndexRoot decodes a resident $INDEX_ROOT value.
func parseIndexRoot(value []byte) ([]indexEntry, error) {
	if len(value) < indexRootHeaderSize {
		return nil, newErr(KindCorruptFilesystem, "$INDEX_ROOT value truncated")
	}
	return parseIndexNode(value, indexRootHeaderSize)
}

// indexBlockHeaderSize precedes the common INDEX_HEADER within each
// $INDEX_ALLOCATION block: magic(4) + usa_offset(2) + usa_count(2) +
// lsn(8) + vcn(8).
const indexBlockHeaderSize = 24

var indexBlockMagic = [4]byte{'I', 'N', 'D', 'X'}

// parseIndexBlock applies fixup to one $INDEX_ALLOCATION block and
// decodes its entries.
func parseIndexBlock(buf []byte) ([]indexEntry, error) {
	if len(buf) < indexBlockHeaderSize {
		return nil, newErr(KindCorruptFilesystem, "index block shorter than header")
	}
	var magic [4]byte
	copy(magic[:], buf[0:4])
	if magic != indexBlockMagic {
		return nil, newErr(KindInvalidRecord, "index block has bad magic %q", magic[:])
	}

	usaOffset, usaCount := readUSAHeader(buf, 4)
	if err := ApplyFixup(buf, usaOffset, usaCount); err != nil {
		return nil, err
	}

	return parseIndexNode(buf, indexBlockHeaderSize)
}

// ChildRecordNumbers resolves a directory record's children to an
// ordered, de-duplicated list of MFT record numbers.
// $INDEX_ROOT is always consulted; $INDEX_ALLOCATION, when present, is
// split into indexBufferSize blocks and each is fixed up and decoded
// in turn (leaf enumeration, without descending the B+-tree from
// internal nodes — every entry, leaf or internal, carries the MFT
// reference needed here). Entries are merged by record number: the
// first namespace seen for a record wins the stored name, but this
// function only returns numbers — name-based lookup happens in
// children that hold every namespace via their own $FILE_NAME list.
func ChildRecordNumbers(record *Record, clusters *ClusterAccessor, indexBufferSize int) ([]int64, error) {
	var order []int64
	seen := make(map[int64]bool)

	add := func(e indexEntry) {
		if e.ref.RecordNumber == InodeRoot && e.name == "." {
			return
		}
		if seen[e.ref.RecordNumber] {
			return
		}
		seen[e.ref.RecordNumber] = true
		order = append(order, e.ref.RecordNumber)
	}

	rootAttr, err := record.FindAttribute(AttrIndexRoot)
	if err != nil {
		return nil, err
	}
	rootEntries, err := parseIndexRoot(rootAttr.Value)
	if err != nil {
		return nil, wrapErr(KindCorruptFilesystem, err, "record %d $INDEX_ROOT", record.Number)
	}
	for _, e := range rootEntries {
		add(e)
	}

	allocAttr, err := record.FindAttribute(AttrIndexAllocation)
	if err != nil {
		// No $INDEX_ALLOCATION: the directory fits entirely in $INDEX_ROOT.
		return order, nil
	}

	view, err := allocAttr.Data(clusters)
	if err != nil {
		return nil, err
	}

	total := view.Len()
	for offset := uint64(0); offset < total; offset += uint64(indexBufferSize) {
		end := offset + uint64(indexBufferSize)
		if end > total {
			end = total
		}
		block, err := view.Slice(offset, end)
		if err != nil {
			return nil, wrapErr(KindCorruptFilesystem, err, "record %d $INDEX_ALLOCATION block at %d", record.Number, offset)
		}
		entries, err := parseIndexBlock(block)
		if err != nil {
			return nil, wrapErr(KindCorruptFilesystem, err, "record %d $INDEX_ALLOCATION block at %d", record.Number, offset)
		}
		for _, e := range entries {
			add(e)
		}
	}

	return order, nil
}
