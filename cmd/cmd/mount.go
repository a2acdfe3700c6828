package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ntfsgo/ntfsgo/internal/fuseview"
	utilos "github.com/ntfsgo/ntfsgo/pkg/util/os"
)

func DefineMountCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "mount <image> <mountpoint>",
		Short: "Mount the volume read-only via FUSE (Linux only)",
		Args:  cobra.ExactArgs(2),
		RunE:  RunMount,
	}
}

func RunMount(cmd *cobra.Command, args []string) error {
	imagePath, mountpoint := args[0], args[1]

	if _, err := utilos.EnsureDir(mountpoint, true); err != nil {
		return err
	}

	fs, vol, err := openFilesystem(imagePath)
	if err != nil {
		return err
	}
	defer vol.Close()

	root, err := fs.Root()
	if err != nil {
		return fmt.Errorf("reading root directory: %w", err)
	}

	log.Infof("mounting %s at %s", imagePath, mountpoint)
	return fuseview.Mount(mountpoint, root)
}
