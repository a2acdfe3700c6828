package ntfs

import "testing"

func TestDecodeMFTReference(t *testing.T) {
	// record number 12345 (0x3039), sequence number 7.
	raw := uint64(12345) | (uint64(7) << 48)
	ref := DecodeMFTReference(raw)
	if ref.RecordNumber != 12345 {
		t.Errorf("expected record number 12345, got %d", ref.RecordNumber)
	}
	if ref.SequenceNumber != 7 {
		t.Errorf("expected sequence number 7, got %d", ref.SequenceNumber)
	}
}

func TestFiletimeToTimeUnixEpoch(t *testing.T) {
	// 116444736000000000 ticks since 1601-01-01 lands exactly on the
	// Unix epoch.
	tm := filetimeToTime(fileTimeEpochDelta)
	if tm.Unix() != 0 {
		t.Errorf("expected unix time 0, got %d", tm.Unix())
	}
}

func TestNamespacePriorityOrder(t *testing.T) {
	names := []*FileNameAttribute{
		{Namespace: namespaceDOS, Name: "DOSNAME~1"},
		{Namespace: namespaceWin32DOS, Name: "win32dos"},
		{Namespace: namespacePOSIX, Name: "posix-name"},
		{Namespace: namespaceWin32, Name: "Win32Name"},
	}
	best := bestFileName(names)
	if best == nil || best.Name != "Win32Name" {
		t.Fatalf("expected Win32Name to win, got %+v", best)
	}
}

func TestNamespacePriorityFallsBackToPOSIX(t *testing.T) {
	names := []*FileNameAttribute{
		{Namespace: namespaceDOS, Name: "DOSNAME~1"},
		{Namespace: namespacePOSIX, Name: "posix-name"},
	}
	best := bestFileName(names)
	if best == nil || best.Name != "posix-name" {
		t.Fatalf("expected posix-name to win, got %+v", best)
	}
}
