package ntfs_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ntfsgo/ntfsgo/internal/ntfs"
)

// Black-box tests against the exported surface only: assert on
// behavior an external caller can observe, not on internal layout.

func TestOpenRejectsUndersizedVolume(t *testing.T) {
	vol := ntfs.NewSliceVolume(make([]byte, 100))

	_, err := ntfs.Open(vol, 0, nil)
	require.Error(t, err)

	kind, ok := ntfs.KindOf(err)
	require.True(t, ok)
	require.Equal(t, ntfs.KindCorruptFilesystem, kind)
}

func TestOpenRejectsBadOEMSignature(t *testing.T) {
	buf := make([]byte, ntfs.VBRSize*2) // large enough, but OEM id is all zero
	vol := ntfs.NewSliceVolume(buf)

	_, err := ntfs.Open(vol, 0, nil)
	require.Error(t, err)

	kind, ok := ntfs.KindOf(err)
	require.True(t, ok)
	require.Equal(t, ntfs.KindCorruptFilesystem, kind)
}

func TestOpenRejectsNonMultipleClusterSize(t *testing.T) {
	buf := make([]byte, ntfs.VBRSize+100) // 612 bytes: not a multiple of 512
	copy(buf[3:11], "NTFS    ")
	buf[11], buf[12] = 0, 2  // bytes per sector = 512
	buf[13] = 1              // sectors per cluster = 1
	buf[64] = 0xF6           // clusters_per_file_record_segment = -10 (1024 bytes)
	buf[68] = 0xF6           // clusters_per_index_buffer = -10
	vol := ntfs.NewSliceVolume(buf)

	_, err := ntfs.Open(vol, 0, nil)
	require.Error(t, err)

	kind, ok := ntfs.KindOf(err)
	require.True(t, ok)
	require.Equal(t, ntfs.KindCorruptFilesystem, kind)
}
