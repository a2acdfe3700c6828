package ntfs

import (
	"encoding/binary"
	"testing"
	"unicode/utf16"
)

// This file assembles a small, fully synthetic NTFS volume image in
// memory and exercises the whole decode pipeline (VBR -> cluster
// accessor -> MFT bootstrap -> enumerator -> index reader -> directory
// and file handles) the way a real volume would drive it.

const (
	testClusterSize = 512
	testRecordSize  = 1024
	testMFTLcn      = 1
	testNumRecords  = 19 // records 0..18
	testFixupSig0   = 0x55
	testFixupSig1   = 0xAA
)

func rawMFTRef(ref MFTReference) uint64 {
	return uint64(ref.RecordNumber&0x0000FFFFFFFFFFFF) | uint64(ref.SequenceNumber)<<48
}

func encodeUTF16(s string) []byte {
	units := utf16.Encode([]rune(s))
	buf := make([]byte, len(units)*2)
	for i, u := range units {
		binary.LittleEndian.PutUint16(buf[i*2:], u)
	}
	return buf
}

func buildFileNameValue(parent MFTReference, name string, logicalSize uint64, namespace filenameNamespace) []byte {
	nameBytes := encodeUTF16(name)
	buf := make([]byte, fileNameFixedSize+len(nameBytes))
	binary.LittleEndian.PutUint64(buf[0:], rawMFTRef(parent))
	binary.LittleEndian.PutUint64(buf[48:], logicalSize)
	buf[64] = byte(len([]rune(name)))
	buf[65] = byte(namespace)
	copy(buf[fileNameFixedSize:], nameBytes)
	return buf
}

func buildIndexEntryEnd() []byte {
	buf := make([]byte, indexEntryHeaderSize)
	binary.LittleEndian.PutUint16(buf[8:], indexEntryHeaderSize)
	binary.LittleEndian.PutUint16(buf[12:], indexEntryEnd)
	return buf
}

func buildIndexEntry(ref MFTReference, fileNameValue []byte) []byte {
	length := indexEntryHeaderSize + len(fileNameValue)
	buf := make([]byte, length)
	binary.LittleEndian.PutUint64(buf[0:], rawMFTRef(ref))
	binary.LittleEndian.PutUint16(buf[8:], uint16(length))
	binary.LittleEndian.PutUint16(buf[10:], uint16(len(fileNameValue)))
	copy(buf[indexEntryHeaderSize:], fileNameValue)
	return buf
}

func buildIndexRootValue(entries ...[]byte) []byte {
	var entriesBuf []byte
	for _, e := range entries {
		entriesBuf = append(entriesBuf, e...)
	}
	entriesBuf = append(entriesBuf, buildIndexEntryEnd()...)

	rootPrefix := make([]byte, indexRootHeaderSize)
	header := make([]byte, indexHeaderSize)
	binary.LittleEndian.PutUint32(header[0:], indexHeaderSize) // entries offset, relative to header start
	binary.LittleEndian.PutUint32(header[4:], uint32(indexHeaderSize+len(entriesBuf)))

	value := append(rootPrefix, header...)
	value = append(value, entriesBuf...)
	return value
}

// buildMFTRecord assembles one 1024-byte, 2-sector MFT record with a
// working fixup (matching what ApplyFixup expects to reverse).
func buildMFTRecord(sequenceNumber uint16, flags uint16, attrs ...[]byte) []byte {
	const usaOffset = 0x30
	const usaCount = 3 // 2 sectors + 1 signature entry

	buf := make([]byte, testRecordSize)
	copy(buf[0:4], recordMagicFILE[:])
	binary.LittleEndian.PutUint16(buf[4:], usaOffset)
	binary.LittleEndian.PutUint16(buf[6:], usaCount)
	binary.LittleEndian.PutUint16(buf[16:], sequenceNumber)
	binary.LittleEndian.PutUint16(buf[22:], flags)
	binary.LittleEndian.PutUint32(buf[28:], testRecordSize)

	firstAttrOffset := (usaOffset + usaCount*2 + 7) &^ 7
	binary.LittleEndian.PutUint16(buf[20:], uint16(firstAttrOffset))

	pos := firstAttrOffset
	for _, a := range attrs {
		copy(buf[pos:], a)
		pos += len(a)
	}
	binary.LittleEndian.PutUint32(buf[pos:], uint32(attrListTerminator))
	pos += 4

	binary.LittleEndian.PutUint32(buf[24:], uint32(pos))

	// Encode the fixup: stash each sector's real tail in the USA, then
	// stamp the shared signature over both tails.
	sig := [2]byte{testFixupSig0, testFixupSig1}
	buf[usaOffset] = sig[0]
	buf[usaOffset+1] = sig[1]
	for i := 0; i < usaCount-1; i++ {
		tailOff := (i+1)*FixupSectorSize - 2
		origOff := usaOffset + 2 + i*2
		buf[origOff] = buf[tailOff]
		buf[origOff+1] = buf[tailOff+1]
		buf[tailOff] = sig[0]
		buf[tailOff+1] = sig[1]
	}

	return buf
}

// buildTestVolume assembles a VBR sector, then a contiguous MFT $DATA
// extent covering testNumRecords record slots, and returns the raw
// volume bytes.
func buildTestVolume(t *testing.T, records map[int64][]byte) []byte {
	t.Helper()

	totalClusters := int64(1 + testNumRecords*(testRecordSize/testClusterSize))
	vol := make([]byte, totalClusters*testClusterSize)

	// --- VBR at cluster 0 ---
	vbr := make([]byte, VBRSize)
	copy(vbr[3:11], "NTFS    ")
	binary.LittleEndian.PutUint16(vbr[11:], testClusterSize) // bytes per sector
	vbr[13] = 1                                              // sectors per cluster
	binary.LittleEndian.PutUint64(vbr[48:], testMFTLcn)       // mft lcn
	binary.LittleEndian.PutUint64(vbr[56:], testMFTLcn)       // mftmirr lcn (unused by this test)
	vbr[64] = 0xF6                                            // clusters_per_file_record_segment = -10 -> 1024 bytes
	vbr[68] = 0xF6                                            // clusters_per_index_buffer, unused (no INDEX_ALLOCATION in this test)
	copy(vol[0:VBRSize], vbr)

	// --- $MFT record slots ---
	mftByteStart := int64(testMFTLcn) * testClusterSize
	for n := int64(0); n < testNumRecords; n++ {
		rec, ok := records[n]
		if !ok {
			continue // left zero-filled; never parsed by this test
		}
		off := mftByteStart + n*testRecordSize
		copy(vol[off:off+testRecordSize], rec)
	}

	return vol
}

func mustOpenTestFilesystem(t *testing.T, records map[int64][]byte) *Filesystem {
	t.Helper()
	vol := buildTestVolume(t, records)
	fs, err := Open(NewSliceVolume(vol), 0, nil)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return fs
}

// buildSyntheticRecords constructs the minimal record set: record 0
// ($MFT, pointing its own $DATA at the MFT extent itself), record 5
// (root, a directory containing "hello.txt" and "Docs"), record 16
// ("hello.txt", a resident file), record 17 ("Docs", a subdirectory),
// and record 18 ("note.txt" within Docs).
func buildSyntheticRecords() map[int64][]byte {
	rootRef := MFTReference{RecordNumber: InodeRoot, SequenceNumber: 1}
	docsRef := MFTReference{RecordNumber: 17, SequenceNumber: 1}

	helloFN := buildFileNameValue(rootRef, "hello.txt", 12, namespaceWin32)
	docsFN := buildFileNameValue(rootRef, "Docs", 0, namespaceWin32)
	noteFN := buildFileNameValue(docsRef, "note.txt", 4, namespaceWin32)

	helloData := buildResidentAttribute(AttrData, []byte("Hello, NTFS!"))
	noteData := buildResidentAttribute(AttrData, []byte("note"))

	helloRecord := buildMFTRecord(1, RecordFlagInUse,
		buildResidentAttribute(AttrFileName, helloFN),
		helloData,
	)

	noteRecord := buildMFTRecord(1, RecordFlagInUse,
		buildResidentAttribute(AttrFileName, noteFN),
		noteData,
	)

	docsIndexRoot := buildIndexRootValue(
		buildIndexEntry(MFTReference{RecordNumber: 18, SequenceNumber: 1}, noteFN),
	)
	docsRecord := buildMFTRecord(1, RecordFlagInUse|RecordFlagDirectory,
		buildResidentAttribute(AttrFileName, docsFN),
		buildResidentAttribute(AttrIndexRoot, docsIndexRoot),
	)

	rootIndexRoot := buildIndexRootValue(
		buildIndexEntry(MFTReference{RecordNumber: 16, SequenceNumber: 1}, helloFN),
		buildIndexEntry(docsRef, docsFN),
	)
	rootRecord := buildMFTRecord(1, RecordFlagInUse|RecordFlagDirectory,
		buildResidentAttribute(AttrIndexRoot, rootIndexRoot),
	)

	// $MFT's own record: a single non-resident run covering the whole
	// MFT extent (testNumRecords*2 clusters starting at testMFTLcn).
	mftRunlist := []byte{0x21, byte(testNumRecords * (testRecordSize / testClusterSize)), byte(testMFTLcn), 0x00, 0x00}
	mftDataSize := uint64(testNumRecords * testRecordSize)
	mftRecord := buildMFTRecord(1, RecordFlagInUse,
		buildNonResidentAttribute(AttrData, mftRunlist, mftDataSize),
	)

	return map[int64][]byte{
		0:  mftRecord,
		5:  rootRecord,
		16: helloRecord,
		17: docsRecord,
		18: noteRecord,
	}
}

func TestFilesystemOpenAndRoot(t *testing.T) {
	fs := mustOpenTestFilesystem(t, buildSyntheticRecords())

	root, err := fs.Root()
	if err != nil {
		t.Fatalf("Root failed: %v", err)
	}
	if !root.IsDirectory() {
		t.Error("expected root to be a directory")
	}
}

func TestFilesystemChildrenAndChildLookup(t *testing.T) {
	fs := mustOpenTestFilesystem(t, buildSyntheticRecords())
	root, err := fs.Root()
	if err != nil {
		t.Fatalf("Root failed: %v", err)
	}

	children, err := root.Children()
	if err != nil {
		t.Fatalf("Children failed: %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("expected 2 children, got %d: %+v", len(children), children)
	}

	// Case-insensitive lookup.
	entry, err := root.Child("HELLO.TXT")
	if err != nil {
		t.Fatalf("Child failed: %v", err)
	}
	if entry.IsDirectory() {
		t.Error("hello.txt should not be a directory")
	}

	file, ok := entry.(*File)
	if !ok {
		t.Fatalf("expected *File, got %T", entry)
	}
	data, err := file.Read(0, 64)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(data) != "Hello, NTFS!" {
		t.Errorf("unexpected file contents: %q", data)
	}

	if _, err := root.Child("missing.txt"); err == nil {
		t.Fatal("expected ChildNotFound")
	} else if kind, ok := KindOf(err); !ok || kind != KindChildNotFound {
		t.Errorf("expected KindChildNotFound, got %v", err)
	}
}

func TestFilesystemStat(t *testing.T) {
	fs := mustOpenTestFilesystem(t, buildSyntheticRecords())
	root, err := fs.Root()
	if err != nil {
		t.Fatalf("Root failed: %v", err)
	}

	hello, err := root.Child("hello.txt")
	if err != nil {
		t.Fatalf("Child failed: %v", err)
	}
	fileInfo, err := hello.Stat()
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if fileInfo.Name != "hello.txt" || fileInfo.IsDirectory {
		t.Errorf("unexpected file EntryInfo: %+v", fileInfo)
	}
	if fileInfo.Size != 12 {
		t.Errorf("expected size 12, got %d", fileInfo.Size)
	}
	if fileInfo.RecordNumber != 16 {
		t.Errorf("expected record number 16, got %d", fileInfo.RecordNumber)
	}

	docs, err := root.Child("Docs")
	if err != nil {
		t.Fatalf("Child failed: %v", err)
	}
	dirInfo, err := docs.Stat()
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if !dirInfo.IsDirectory || dirInfo.Size != 0 {
		t.Errorf("unexpected directory EntryInfo: %+v", dirInfo)
	}
}

func TestFilesystemEntryAtNestedPath(t *testing.T) {
	fs := mustOpenTestFilesystem(t, buildSyntheticRecords())
	root, err := fs.Root()
	if err != nil {
		t.Fatalf("Root failed: %v", err)
	}

	entry, err := root.EntryAt("docs/note.txt")
	if err != nil {
		t.Fatalf("EntryAt failed: %v", err)
	}
	if entry.Name() != "note.txt" {
		t.Errorf("expected note.txt, got %q", entry.Name())
	}

	if _, err := root.EntryAt(`docs/note.txt\oops`); err == nil {
		t.Fatal("expected UnsupportedPath on mixed separators")
	}

	if _, err := root.EntryAt("docs/missing/child"); err == nil {
		t.Fatal("expected an error resolving a missing path")
	}
}

func TestFilesystemPathRoundTrip(t *testing.T) {
	fs := mustOpenTestFilesystem(t, buildSyntheticRecords())
	root, err := fs.Root()
	if err != nil {
		t.Fatalf("Root failed: %v", err)
	}

	entry, err := root.EntryAt("docs/note.txt")
	if err != nil {
		t.Fatalf("EntryAt failed: %v", err)
	}

	path, err := entry.FullPath()
	if err != nil {
		t.Fatalf("FullPath failed: %v", err)
	}
	if path != `\Docs\note.txt` {
		t.Errorf("expected \\Docs\\note.txt, got %q", path)
	}
}

func TestFilesystemRecordCacheCoherence(t *testing.T) {
	fs := mustOpenTestFilesystem(t, buildSyntheticRecords())

	r1, err := fs.Record(16)
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	r2, err := fs.Record(16)
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if r1 != r2 {
		t.Error("expected cached record to be the same pointer across calls")
	}
}
