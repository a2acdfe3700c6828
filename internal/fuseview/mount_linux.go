//go:build linux
// +build linux

package fuseview

import (
	"fmt"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"

	"github.com/ntfsgo/ntfsgo/internal/ntfs"
)

// Mount serves root as a read-only FUSE filesystem at mountpoint,
// blocking until the filesystem is unmounted.
func Mount(mountpoint string, root *ntfs.Directory) error {
	c, err := fuse.Mount(
		mountpoint,
		fuse.ReadOnly(),
		fuse.FSName("ntfsgo"),
		fuse.Subtype("ntfsgo"),
	)
	if err != nil {
		return fmt.Errorf("mounting %q: %w", mountpoint, err)
	}
	defer c.Close()

	if err := fusefs.Serve(c, New(root)); err != nil {
		return fmt.Errorf("serving fuse at %q: %w", mountpoint, err)
	}

	<-c.Ready
	return c.MountError
}
