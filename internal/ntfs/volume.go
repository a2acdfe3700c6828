package ntfs

// Volume is the abstract byte-addressable buffer spec'd as the sole
// external collaborator of this package: a memory-mapped file, a raw
// partition, or a carved slice. Offset arithmetic into the underlying
// device is the caller's responsibility; this package only ever asks
// for absolute byte ranges within [0, Len()).
type Volume interface {
	// ReadAt copies len(p) bytes starting at off into p. It behaves like
	// io.ReaderAt: a short read is only acceptable at EOF, and off+len(p)
	// must not exceed Len() for a full read to succeed.
	ReadAt(p []byte, off int64) (int, error)
	// Len returns the total size of the volume in bytes.
	Len() int64
}

// sliceVolume adapts a plain byte slice to Volume, used by tests that
// synthesize an NTFS image in memory.
type sliceVolume []byte

// NewSliceVolume wraps an in-memory byte slice as a Volume.
func NewSliceVolume(b []byte) Volume { return sliceVolume(b) }

func (s sliceVolume) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(s)) {
		return 0, newErr(KindOverrun, "read at %d exceeds volume length %d", off, len(s))
	}
	n := copy(p, s[off:])
	if n < len(p) {
		return n, newErr(KindOverrun, "short read at %d: wanted %d, got %d", off, len(p), n)
	}
	return n, nil
}

func (s sliceVolume) Len() int64 { return int64(len(s)) }
