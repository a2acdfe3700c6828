package ntfs

import (
	"bytes"
	"testing"
)

func TestClusterAccessorReadRange(t *testing.T) {
	const clusterSize = 16
	data := make([]byte, clusterSize*4)
	for i := range data {
		data[i] = byte(i)
	}

	ca, err := NewClusterAccessor(NewSliceVolume(data), clusterSize)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ca.Len() != 4 {
		t.Fatalf("expected 4 clusters, got %d", ca.Len())
	}

	got, err := ca.ReadRange(1, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := data[clusterSize : clusterSize*3]
	if !bytes.Equal(got, want) {
		t.Errorf("mismatch: got %v, want %v", got, want)
	}

	if _, err := ca.ReadRange(3, 5); err == nil {
		t.Error("expected out-of-bounds error")
	}
}

func TestNewClusterAccessorRejectsNonMultipleLength(t *testing.T) {
	data := make([]byte, 17)
	if _, err := NewClusterAccessor(NewSliceVolume(data), 16); err == nil {
		t.Fatal("expected error for volume length not a multiple of cluster size")
	}
}

func TestClusterAccessorByteOffset(t *testing.T) {
	ca, err := NewClusterAccessor(NewSliceVolume(make([]byte, 4096)), 4096)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ca.ByteOffset(2); got != 8192 {
		t.Errorf("expected 8192, got %d", got)
	}
}
