package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ntfsgo/ntfsgo/internal/ntfs"
)

var flagLsLong bool

func DefineLsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls <image> [path]",
		Short: "List the children of a directory",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  RunLs,
	}
	cmd.Flags().BoolVarP(&flagLsLong, "long", "l", false, "show size and timestamps")
	return cmd
}

func RunLs(cmd *cobra.Command, args []string) error {
	path := "/"
	if len(args) == 2 {
		path = args[1]
	}

	_, vol, entry, err := resolveEntry(args[0], path)
	if err != nil {
		return err
	}
	defer vol.Close()

	dir, ok := entry.(*ntfs.Directory)
	if !ok {
		fmt.Println(entry.Name())
		return nil
	}

	children, err := dir.Children()
	if err != nil {
		return fmt.Errorf("listing %q: %w", path, err)
	}

	for _, c := range children {
		if flagLsLong {
			info, err := c.Stat()
			if err != nil {
				return fmt.Errorf("stat %q: %w", c.Name(), err)
			}
			marker := ""
			if info.IsDirectory {
				marker = "/"
			}
			fmt.Printf("%8d  %s  %s%s\n", info.Size, info.Modified.Format("2006-01-02 15:04:05"), info.Name, marker)
			continue
		}

		marker := ""
		if c.IsDirectory() {
			marker = "/"
		}
		size, _ := c.Size()
		fmt.Printf("%8d  %s%s\n", size, c.Name(), marker)
	}

	return nil
}
