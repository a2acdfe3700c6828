package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ntfsgo/ntfsgo/internal/export"
)

func DefineExportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "export <image> <output.dfxml>",
		Short: "Export the volume's directory tree as a DFXML report",
		Args:  cobra.ExactArgs(2),
		RunE:  RunExport,
	}
}

func RunExport(cmd *cobra.Command, args []string) error {
	imagePath, outPath := args[0], args[1]

	fs, vol, err := openFilesystem(imagePath)
	if err != nil {
		return err
	}
	defer vol.Close()

	root, err := fs.Root()
	if err != nil {
		return fmt.Errorf("reading root directory: %w", err)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating %q: %w", outPath, err)
	}
	defer out.Close()

	if err := export.Report(out, root, imagePath, uint64(vol.Len()), fs.VBR().BytesPerSector); err != nil {
		return fmt.Errorf("writing dfxml report: %w", err)
	}

	log.Infof("wrote dfxml report to %s", outPath)
	return nil
}
