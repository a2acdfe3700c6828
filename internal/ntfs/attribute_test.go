package ntfs

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func buildResidentAttribute(attrType AttrType, value []byte) []byte {
	valueOffset := uint16(attrCommonHeaderSize + 8)
	recordLength := int(valueOffset) + len(value)
	recordLength = (recordLength + 7) &^ 7 // 8-byte align, as NTFS does

	buf := make([]byte, recordLength)
	binary.LittleEndian.PutUint32(buf[0:], uint32(attrType))
	binary.LittleEndian.PutUint32(buf[4:], uint32(recordLength))
	buf[8] = 0 // resident
	buf[9] = 0 // name length
	binary.LittleEndian.PutUint16(buf[10:], attrCommonHeaderSize)
	binary.LittleEndian.PutUint32(buf[16:], uint32(len(value)))
	binary.LittleEndian.PutUint16(buf[20:], valueOffset)
	copy(buf[valueOffset:], value)
	return buf
}

func buildNonResidentAttribute(attrType AttrType, runlist []byte, dataSize uint64) []byte {
	mappingPairsOffset := uint16(attrCommonHeaderSize + 48)
	recordLength := int(mappingPairsOffset) + len(runlist)
	recordLength = (recordLength + 7) &^ 7

	buf := make([]byte, recordLength)
	binary.LittleEndian.PutUint32(buf[0:], uint32(attrType))
	binary.LittleEndian.PutUint32(buf[4:], uint32(recordLength))
	buf[8] = 1 // non-resident
	binary.LittleEndian.PutUint16(buf[32:], mappingPairsOffset)
	binary.LittleEndian.PutUint64(buf[48:], dataSize)
	copy(buf[mappingPairsOffset:], runlist)
	return buf
}

func TestParseAttributeResident(t *testing.T) {
	value := []byte("hello, ntfs")
	buf := buildResidentAttribute(AttrData, value)

	attr, consumed, err := parseAttribute(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if consumed != len(buf) {
		t.Errorf("expected consumed %d, got %d", len(buf), consumed)
	}
	if attr.NonResident {
		t.Error("expected resident attribute")
	}
	if !bytes.Equal(attr.Value, value) {
		t.Errorf("value mismatch: got %q, want %q", attr.Value, value)
	}
}

func TestParseAttributeNonResident(t *testing.T) {
	runlist := []byte{0x21, 0x05, 0x64, 0x00, 0x00} // L=1,O=2; length=5; lcn=100
	buf := buildNonResidentAttribute(AttrData, runlist, 5*4096)

	attr, consumed, err := parseAttribute(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if consumed != len(buf) {
		t.Errorf("expected consumed %d, got %d", len(buf), consumed)
	}
	if !attr.NonResident {
		t.Fatal("expected non-resident attribute")
	}
	if len(attr.Runlist) != 1 || attr.Runlist[0].LCN != 100 || attr.Runlist[0].Length != 5 {
		t.Errorf("unexpected runlist: %+v", attr.Runlist)
	}
	if attr.DataSize != 5*4096 {
		t.Errorf("expected data size %d, got %d", 5*4096, attr.DataSize)
	}
}

func TestParseAttributeTerminator(t *testing.T) {
	buf := []byte{0xFF, 0xFF, 0xFF, 0xFF}
	attr, consumed, err := parseAttribute(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attr != nil || consumed != 0 {
		t.Errorf("expected terminator sentinel, got attr=%+v consumed=%d", attr, consumed)
	}
}

func TestByteViewResidentSliceAndOverrun(t *testing.T) {
	bv := ByteView{inline: []byte{1, 2, 3, 4, 5}}
	if !bv.IsResident() {
		t.Error("expected resident ByteView")
	}
	got, err := bv.Slice(1, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, []byte{2, 3, 4}) {
		t.Errorf("unexpected slice: %v", got)
	}
	if _, err := bv.Slice(0, 6); err == nil {
		t.Error("expected overrun error")
	}
}
