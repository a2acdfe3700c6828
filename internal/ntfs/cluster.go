package ntfs

// ClusterAccessor translates cluster-indexed reads into byte reads over a
// Volume. It holds no mutable state — a pure view.
type ClusterAccessor struct {
	volume      Volume
	clusterSize int
	numClusters int64
}

// NewClusterAccessor builds an accessor over volume using the given
// cluster size. The volume length must be an exact multiple of
// clusterSize; a non-zero remainder is rejected rather than silently
// floor-divided away.
func NewClusterAccessor(volume Volume, clusterSize int) (*ClusterAccessor, error) {
	if clusterSize <= 0 {
		return nil, newErr(KindCorruptFilesystem, "non-positive cluster size %d", clusterSize)
	}
	length := volume.Len()
	if length%int64(clusterSize) != 0 {
		return nil, newErr(KindCorruptFilesystem,
			"volume length %d is not a multiple of cluster size %d", length, clusterSize)
	}
	return &ClusterAccessor{
		volume:      volume,
		clusterSize: clusterSize,
		numClusters: length / int64(clusterSize),
	}, nil
}

// ClusterSize returns the configured cluster size in bytes.
func (c *ClusterAccessor) ClusterSize() int { return c.clusterSize }

// Len returns the number of whole clusters in the volume.
func (c *ClusterAccessor) Len() int64 { return c.numClusters }

// Read returns the bytes of a single cluster.
func (c *ClusterAccessor) Read(index int64) ([]byte, error) {
	return c.ReadRange(index, index+1)
}

// ReadRange returns the bytes spanning clusters [start, end).
func (c *ClusterAccessor) ReadRange(start, end int64) ([]byte, error) {
	if start < 0 || end < start || end > c.numClusters {
		return nil, newErr(KindOverrun, "cluster range [%d,%d) out of bounds (have %d clusters)", start, end, c.numClusters)
	}
	buf := make([]byte, (end-start)*int64(c.clusterSize))
	n, err := c.volume.ReadAt(buf, start*int64(c.clusterSize))
	if err != nil {
		return nil, wrapErr(KindOverrun, err, "reading clusters [%d,%d)", start, end)
	}
	return buf[:n], nil
}

// ReadAt implements io.ReaderAt semantics over absolute volume byte
// offsets — used to adapt a cluster run to an io.SectionReader
// without materializing the whole run up front (see NonResidentView.Reader).
func (c *ClusterAccessor) ReadAt(p []byte, off int64) (int, error) {
	return c.volume.ReadAt(p, off)
}

// ByteOffset converts a logical cluster number to its absolute byte
// offset within the volume.
func (c *ClusterAccessor) ByteOffset(lcn int64) int64 {
	return lcn * int64(c.clusterSize)
}
