package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ntfsgo/ntfsgo/internal/logger"
	"github.com/ntfsgo/ntfsgo/internal/ntfs"
	"github.com/ntfsgo/ntfsgo/internal/volume"
)

// AppName is the CLI binary name.
const AppName = "ntfsgo"

var (
	flagClusterSizeOverride int
	flagLogLevel            string

	log *logger.Logger
)

func Execute() error {
	rootCmd := &cobra.Command{
		Use:   AppName,
		Short: AppName + " - read-only NTFS filesystem interpreter",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log = logger.New(os.Stderr, logger.ParseLevel(flagLogLevel))
		},
	}

	rootCmd.PersistentFlags().IntVar(&flagClusterSizeOverride, "cluster-size", 0,
		"override the cluster size read from the volume boot record")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "INFO",
		"log level: DEBUG, INFO, WARN, ERROR")

	rootCmd.AddCommand(DefineLsCommand())
	rootCmd.AddCommand(DefineStatCommand())
	rootCmd.AddCommand(DefineCatCommand())
	rootCmd.AddCommand(DefineExportCommand())
	rootCmd.AddCommand(DefineExtractCommand())
	rootCmd.AddCommand(DefineMountCommand())

	return rootCmd.Execute()
}

// openFilesystem memory-maps the image at path and bootstraps the NTFS
// facade over it. Callers must arrange to close the returned volume
// once they're done with everything derived from the filesystem.
func openFilesystem(path string) (*ntfs.Filesystem, *volume.MmapVolume, error) {
	vol, err := volume.Open(path)
	if err != nil {
		return nil, nil, err
	}

	fs, err := ntfs.Open(vol, flagClusterSizeOverride, log)
	if err != nil {
		vol.Close()
		return nil, nil, fmt.Errorf("opening ntfs volume %q: %w", path, err)
	}
	return fs, vol, nil
}

// resolveEntry opens the image and resolves path within it, relative
// to the root directory.
func resolveEntry(imagePath, entryPath string) (*ntfs.Filesystem, *volume.MmapVolume, ntfs.Entry, error) {
	fs, vol, err := openFilesystem(imagePath)
	if err != nil {
		return nil, nil, nil, err
	}

	root, err := fs.Root()
	if err != nil {
		vol.Close()
		return nil, nil, nil, fmt.Errorf("reading root directory: %w", err)
	}

	entry, err := root.EntryAt(trimLeadingSeparator(entryPath))
	if err != nil {
		vol.Close()
		return nil, nil, nil, fmt.Errorf("resolving %q: %w", entryPath, err)
	}

	return fs, vol, entry, nil
}

// trimLeadingSeparator strips a single leading / or \ so that both
// "/windows/system32" and "windows/system32" resolve identically from
// the root directory.
func trimLeadingSeparator(path string) string {
	if path == "/" || path == `\` {
		return ""
	}
	if len(path) > 0 && (path[0] == '/' || path[0] == '\\') {
		return path[1:]
	}
	return path
}
