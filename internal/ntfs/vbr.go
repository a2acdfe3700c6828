package ntfs

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// VBRSize is the fixed size of the NTFS Volume Boot Record: sector 0.
const VBRSize = 512

// oemID is the "NTFS    " signature at offset 3; ParseVBR requires its
// first four bytes ("NTFS") and ignores the trailing padding.
var oemID = [8]byte{'N', 'T', 'F', 'S', ' ', ' ', ' ', ' '}

// rawVBR mirrors the on-disk layout of the NTFS BIOS Parameter Block
// byte-for-byte as fixed-size fields with no padding, decoded with
// binary.Read in little-endian order so the result never depends on
// the host's byte order.
type rawVBR struct {
	Jump                        [3]byte
	OEMID                       [8]byte
	BytesPerSector              uint16
	SectorsPerCluster           uint8
	ReservedSectors             uint16
	Zero0                       [3]byte
	Unused0                     uint16
	MediaDescriptor             uint8
	Zero1                       uint16
	SectorsPerTrack             uint16
	NumberOfHeads               uint16
	HiddenSectors               uint32
	Unused1                     uint32
	Unused2                     uint32
	TotalSectors                uint64
	MFTLCN                      uint64
	MFTMirrLCN                  uint64
	ClustersPerFileRecordSegment int8
	Unused3                     [3]byte
	ClustersPerIndexBuffer      int8
	Unused4                     [3]byte
	VolumeSerialNumber          uint64
	Checksum                    uint32
	BootstrapCode               [426]byte
	EndOfSector                 uint16
}

// VBR is the decoded, validated Volume Boot Record.
type VBR struct {
	BytesPerSector                int
	SectorsPerCluster             int
	TotalSectors                  uint64
	MFTLCN                        uint64
	MFTMirrLCN                    uint64
	ClustersPerFileRecordSegment  int8
	ClustersPerIndexBuffer        int8
	VolumeSerialNumber            uint64

	ClusterSize      int
	MFTRecordSize    int
	IndexBufferSize  int
}

// ParseVBR decodes the first 512 bytes of a volume. It fails with
// KindCorruptFilesystem if the OEM signature isn't "NTFS". If
// clusterSizeOverride is positive, it's used instead of
// BytesPerSector*SectorsPerCluster (construction accepts an optional
// override, used only if the VBR's own geometry looks suspect).
func ParseVBR(sector [VBRSize]byte, clusterSizeOverride int) (*VBR, error) {
	if !bytes.Equal(sector[3:7], oemID[:4]) {
		return nil, newErr(KindCorruptFilesystem, "bad OEM id: %q", sector[3:7])
	}

	var raw rawVBR
	if err := binary.Read(bytes.NewReader(sector[:]), binary.LittleEndian, &raw); err != nil {
		return nil, wrapErr(KindCorruptFilesystem, err, "failed to decode VBR")
	}

	v := &VBR{
		BytesPerSector:               int(raw.BytesPerSector),
		SectorsPerCluster:            int(raw.SectorsPerCluster),
		TotalSectors:                 raw.TotalSectors,
		MFTLCN:                       raw.MFTLCN,
		MFTMirrLCN:                   raw.MFTMirrLCN,
		ClustersPerFileRecordSegment: raw.ClustersPerFileRecordSegment,
		ClustersPerIndexBuffer:       raw.ClustersPerIndexBuffer,
		VolumeSerialNumber:           raw.VolumeSerialNumber,
	}

	v.ClusterSize = v.BytesPerSector * v.SectorsPerCluster
	if clusterSizeOverride > 0 {
		v.ClusterSize = clusterSizeOverride
	}
	if v.ClusterSize <= 0 {
		return nil, newErr(KindCorruptFilesystem, "invalid cluster size %d", v.ClusterSize)
	}

	size, err := recordSizeFromField(raw.ClustersPerFileRecordSegment, v.ClusterSize)
	if err != nil {
		return nil, err
	}
	v.MFTRecordSize = size

	ibSize, err := recordSizeFromField(raw.ClustersPerIndexBuffer, v.ClusterSize)
	if err != nil {
		return nil, err
	}
	v.IndexBufferSize = ibSize

	return v, nil
}

// recordSizeFromField implements the signed-byte convention shared by
// clusters_per_file_record_segment and clusters_per_index_buffer: a
// positive value counts clusters, a negative value encodes size = 2^|v|
// bytes directly.
func recordSizeFromField(v int8, clusterSize int) (int, error) {
	if v > 0 {
		return int(v) * clusterSize, nil
	}
	if v == 0 {
		return 0, newErr(KindCorruptFilesystem, "zero record-size field")
	}
	shift := -int(v)
	if shift > 32 {
		return 0, newErr(KindCorruptFilesystem, "implausible record-size shift %d", shift)
	}
	return 1 << uint(shift), nil
}

func (v *VBR) String() string {
	return fmt.Sprintf("VBR{cluster=%d mftRecord=%d indexBuffer=%d mftLcn=%d mftMirrLcn=%d}",
		v.ClusterSize, v.MFTRecordSize, v.IndexBufferSize, v.MFTLCN, v.MFTMirrLCN)
}
