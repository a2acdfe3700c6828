//go:build linux
// +build linux

package fuseview

import (
	"context"
	"os"
	"sort"
	"time"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"

	"github.com/ntfsgo/ntfsgo/internal/ntfs"
)

// FS exposes a decoded NTFS volume as a read-only FUSE filesystem,
// adapting each directory and file node to the hierarchical tree
// ntfs.Filesystem provides.
type FS struct {
	root *ntfs.Directory
}

// New wraps root as the filesystem's mount root.
func New(root *ntfs.Directory) *FS {
	return &FS{root: root}
}

func (f *FS) Root() (fusefs.Node, error) {
	return &Dir{dir: f.root}, nil
}

// Dir implements fs.Node, fs.HandleReadDirAller and fs.NodeStringLookuper
// over an ntfs.Directory.
type Dir struct {
	dir *ntfs.Directory
}

func (d *Dir) Attr(ctx context.Context, a *fuse.Attr) error {
	a.Mode = os.ModeDir | 0555
	a.Mtime = d.dir.Modified()
	a.Ctime = d.dir.Changed()
	a.Atime = d.dir.Accessed()
	return nil
}

func (d *Dir) Lookup(ctx context.Context, name string) (fusefs.Node, error) {
	entry, err := d.dir.Child(name)
	if err != nil {
		return nil, fuse.ENOENT
	}
	return wrapEntry(entry), nil
}

func (d *Dir) ReadDirAll(ctx context.Context) ([]fuse.Dirent, error) {
	children, err := d.dir.Children()
	if err != nil {
		return nil, err
	}

	dirEntries := make([]fuse.Dirent, 0, len(children))
	for i, c := range children {
		typ := fuse.DT_File
		if c.IsDirectory() {
			typ = fuse.DT_Dir
		}
		dirEntries = append(dirEntries, fuse.Dirent{
			Inode: uint64(i) + 1,
			Name:  c.Name(),
			Type:  typ,
		})
	}
	sort.Slice(dirEntries, func(i, j int) bool {
		return dirEntries[i].Name < dirEntries[j].Name
	})
	return dirEntries, nil
}

// File implements fs.Node and fs.HandleReader over an ntfs.File.
type File struct {
	file *ntfs.File
}

func (f *File) Attr(ctx context.Context, a *fuse.Attr) error {
	size, err := f.file.Size()
	if err != nil {
		return err
	}
	a.Mode = 0444
	a.Size = size
	a.Mtime = f.file.Modified()
	a.Ctime = f.file.Changed()
	a.Atime = f.file.Accessed()
	if f.file.Modified().IsZero() {
		a.Mtime = time.Now()
	}
	return nil
}

func (f *File) Read(ctx context.Context, req *fuse.ReadRequest, resp *fuse.ReadResponse) error {
	data, err := f.file.Read(uint64(req.Offset), uint64(req.Size))
	if err != nil {
		return err
	}
	resp.Data = data
	return nil
}

func wrapEntry(e ntfs.Entry) fusefs.Node {
	switch v := e.(type) {
	case *ntfs.Directory:
		return &Dir{dir: v}
	case *ntfs.File:
		return &File{file: v}
	default:
		return nil
	}
}

var (
	_ fusefs.FS                = (*FS)(nil)
	_ fusefs.Node              = (*Dir)(nil)
	_ fusefs.HandleReadDirAller = (*Dir)(nil)
	_ fusefs.NodeStringLookuper = (*Dir)(nil)
	_ fusefs.Node               = (*File)(nil)
	_ fusefs.HandleReader        = (*File)(nil)
)
