package cmd

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ntfsgo/ntfsgo/internal/ntfs"
	"github.com/ntfsgo/ntfsgo/pkg/pbar"
	utilio "github.com/ntfsgo/ntfsgo/pkg/util/io"
	utilos "github.com/ntfsgo/ntfsgo/pkg/util/os"
)

func DefineExtractCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <image> <path> <destination>",
		Short: "Recursively copy a directory (or a single file) out to the host filesystem",
		Args:  cobra.ExactArgs(3),
		RunE:  RunExtract,
	}
}

func RunExtract(cmd *cobra.Command, args []string) error {
	imagePath, srcPath, destPath := args[0], args[1], args[2]

	_, vol, entry, err := resolveEntry(imagePath, srcPath)
	if err != nil {
		return err
	}
	defer vol.Close()

	if _, err := utilos.EnsureDir(destPath, false); err != nil {
		return err
	}

	var totalSize uint64
	if err := walkSizes(entry, &totalSize); err != nil {
		return err
	}

	// destPath is a directory: a directory's contents land directly in
	// it, a single file is written inside it under its own name.
	target := destPath
	if _, isDir := entry.(*ntfs.Directory); !isDir {
		target = filepath.Join(destPath, entry.Name())
	}

	bar := pbar.NewProgressBarState(int64(totalSize))
	if err := extractEntry(entry, target, bar); err != nil {
		return err
	}
	bar.Finish()

	return nil
}

func walkSizes(entry ntfs.Entry, total *uint64) error {
	size, err := entry.Size()
	if err != nil {
		return err
	}
	*total += size

	dir, ok := entry.(*ntfs.Directory)
	if !ok {
		return nil
	}
	children, err := dir.Children()
	if err != nil {
		return err
	}
	for _, c := range children {
		if err := walkSizes(c, total); err != nil {
			return err
		}
	}
	return nil
}

func extractEntry(entry ntfs.Entry, destPath string, bar *pbar.ProgressBarState) error {
	if dir, ok := entry.(*ntfs.Directory); ok {
		if _, err := utilos.EnsureDir(destPath, false); err != nil {
			return err
		}
		children, err := dir.Children()
		if err != nil {
			return err
		}
		for _, c := range children {
			if err := extractEntry(c, filepath.Join(destPath, c.Name()), bar); err != nil {
				return err
			}
		}
		return nil
	}

	file := entry.(*ntfs.File)
	size, err := file.Size()
	if err != nil {
		return err
	}

	r, err := file.Reader()
	if err != nil {
		data, readErr := file.Read(0, size)
		if readErr != nil {
			return fmt.Errorf("reading %q: %w", entry.Name(), readErr)
		}
		r = bytes.NewReader(data)
	}
	if err := utilio.CopyFile(destPath, io.LimitReader(r, int64(size))); err != nil {
		return fmt.Errorf("extracting %q: %w", entry.Name(), err)
	}

	bar.FilesFound++
	bar.ProcessedBytes += int64(size)
	bar.Render(false)
	return nil
}
