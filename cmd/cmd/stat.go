package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ntfsgo/ntfsgo/pkg/util/format"
)

func DefineStatCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stat <image> <path>",
		Short: "Print metadata for a file or directory entry",
		Args:  cobra.ExactArgs(2),
		RunE:  RunStat,
	}
}

func RunStat(cmd *cobra.Command, args []string) error {
	_, vol, entry, err := resolveEntry(args[0], args[1])
	if err != nil {
		return err
	}
	defer vol.Close()

	size, err := entry.Size()
	if err != nil {
		return fmt.Errorf("sizing %q: %w", args[1], err)
	}

	fullPath, err := entry.FullPath()
	if err != nil {
		fullPath = "<unresolved: " + err.Error() + ">"
	}

	kind := "file"
	if entry.IsDirectory() {
		kind = "directory"
	}

	fmt.Printf("Name:      %s\n", entry.Name())
	fmt.Printf("Path:      %s\n", fullPath)
	fmt.Printf("Type:      %s\n", kind)
	fmt.Printf("Size:      %d (%s)\n", size, format.FormatBytes(int64(size)))
	fmt.Printf("Record:    %d\n", entry.Record().Number)
	fmt.Printf("Created:   %s\n", formatTime(entry.Created()))
	fmt.Printf("Modified:  %s\n", formatTime(entry.Modified()))
	fmt.Printf("Changed:   %s\n", formatTime(entry.Changed()))
	fmt.Printf("Accessed:  %s\n", formatTime(entry.Accessed()))

	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.Format(time.RFC3339)
}
