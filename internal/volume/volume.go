// Package volume adapts the host's raw byte sources — a memory-mapped
// disk image or a raw volume handle — to the ntfs.Volume interface the
// decode core consumes.
package volume

import (
	"fmt"

	"github.com/ntfsgo/ntfsgo/internal/fs"
	"github.com/ntfsgo/ntfsgo/internal/mmap"
	"github.com/ntfsgo/ntfsgo/internal/ntfs"
)

// MmapVolume presents a memory-mapped file or device as an ntfs.Volume.
// Its mapping must outlive every record, attribute, and data view
// derived from it — callers should defer Close only after the
// Filesystem built from it is done.
type MmapVolume struct {
	mm *mmap.MmapFile
}

// Open memory-maps the file or device at path (normalized through
// NormalizeVolumePath for a bare Windows drive letter) and returns it
// as an ntfs.Volume.
func Open(path string) (*MmapVolume, error) {
	mm, err := mmap.NewMmapFile(NormalizeVolumePath(path))
	if err != nil {
		return nil, fmt.Errorf("opening volume %q: %w", path, err)
	}
	return &MmapVolume{mm: mm}, nil
}

// ReadAt implements ntfs.Volume.
func (v *MmapVolume) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(v.mm.Data)) {
		return 0, fmt.Errorf("read at %d exceeds volume length %d", off, len(v.mm.Data))
	}
	n := copy(p, v.mm.Data[off:])
	if n < len(p) {
		return n, fmt.Errorf("short read at %d: wanted %d, got %d", off, len(p), n)
	}
	return n, nil
}

// Len implements ntfs.Volume.
func (v *MmapVolume) Len() int64 { return int64(len(v.mm.Data)) }

// Close releases the mapping. Must not be called while any Filesystem
// built over this volume is still in use.
func (v *MmapVolume) Close() error { return v.mm.Close() }

var _ ntfs.Volume = (*MmapVolume)(nil)

// rawVolume adapts an internal/fs.File (used on Windows for devices
// mmap can't map, e.g. physical drives opened without FILE_FLAG_OVERLAPPED)
// to ntfs.Volume by way of its Stat()-reported size and ReadAt.
type rawVolume struct {
	f    fs.File
	size int64
}

// OpenRaw opens path through internal/fs (platform raw-device access)
// instead of mmap, for volumes where memory-mapping the backing handle
// isn't available.
func OpenRaw(path string) (*rawVolume, error) {
	f, err := fs.Open(NormalizeVolumePath(path))
	if err != nil {
		return nil, fmt.Errorf("opening volume %q: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat volume %q: %w", path, err)
	}
	return &rawVolume{f: f, size: info.Size()}, nil
}

func (v *rawVolume) ReadAt(p []byte, off int64) (int, error) {
	return v.f.ReadAt(p, off)
}

func (v *rawVolume) Len() int64 { return v.size }

func (v *rawVolume) Close() error { return v.f.Close() }

var _ ntfs.Volume = (*rawVolume)(nil)
