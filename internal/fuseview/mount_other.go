//go:build !linux
// +build !linux

package fuseview

import (
	"fmt"
	"runtime"

	"github.com/ntfsgo/ntfsgo/internal/ntfs"
)

// Mount is unavailable outside Linux; bazil.org/fuse only talks to the
// Linux and macOS FUSE kernel drivers, and this build only wires the
// Linux one.
func Mount(mountpoint string, root *ntfs.Directory) error {
	return fmt.Errorf("mount: unsupported on %s", runtime.GOOS)
}
