package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ntfsgo/ntfsgo/internal/ntfs"
)

func DefineCatCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cat <image> <path>",
		Short: "Stream a file's $DATA to stdout",
		Args:  cobra.ExactArgs(2),
		RunE:  RunCat,
	}
}

func RunCat(cmd *cobra.Command, args []string) error {
	_, vol, entry, err := resolveEntry(args[0], args[1])
	if err != nil {
		return err
	}
	defer vol.Close()

	file, ok := entry.(*ntfs.File)
	if !ok {
		return fmt.Errorf("%q is a directory", args[1])
	}

	size, err := file.Size()
	if err != nil {
		return err
	}

	r, err := file.Reader()
	if err != nil {
		data, readErr := file.Read(0, size)
		if readErr != nil {
			return readErr
		}
		_, writeErr := os.Stdout.Write(data)
		return writeErr
	}

	_, err = io.Copy(os.Stdout, io.LimitReader(r, int64(size)))
	return err
}
