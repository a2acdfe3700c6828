// Package export walks a decoded NTFS directory tree and renders it as
// a DFXML report, using pkg/dfxml's writer and execution-environment
// metadata to describe every file's name, size, and physical byte
// runs.
package export

import (
	"fmt"
	"io"

	"github.com/ntfsgo/ntfsgo/internal/ntfs"
	"github.com/ntfsgo/ntfsgo/pkg/dfxml"
)

// Report writes a DFXML document describing every entry reachable from
// root to w. imageFilename and imageSize populate the <source> element.
func Report(w io.Writer, root *ntfs.Directory, imageFilename string, imageSize uint64, sectorSize int) error {
	writer := dfxml.NewDFXMLWriter(w)

	header := dfxml.DFXMLHeader{
		XmlOutput: dfxml.XmlOutputVersion,
		Metadata:  dfxml.DefaultMetadata,
		Creator: dfxml.Creator{
			Package:              "ntfsgo",
			Version:              "dev",
			ExecutionEnvironment: dfxml.GetExecEnv(),
		},
		Source: dfxml.Source{
			ImageFilename: imageFilename,
			SectorSize:    sectorSize,
			ImageSize:     imageSize,
		},
	}
	if err := writer.WriteHeader(header); err != nil {
		return fmt.Errorf("writing dfxml header: %w", err)
	}

	if err := walk(writer, root); err != nil {
		return err
	}

	return writer.Close()
}

func walk(writer *dfxml.DFXMLWriter, dir *ntfs.Directory) error {
	children, err := dir.Children()
	if err != nil {
		return fmt.Errorf("listing children of %s: %w", dir.Name(), err)
	}

	for _, child := range children {
		switch c := child.(type) {
		case *ntfs.File:
			if err := writeFile(writer, c); err != nil {
				return err
			}
		case *ntfs.Directory:
			if err := writeDirectory(writer, c); err != nil {
				return err
			}
			if err := walk(writer, c); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeDirectory(writer *dfxml.DFXMLWriter, dir *ntfs.Directory) error {
	info, err := dir.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", dir.Name(), err)
	}
	path, err := dir.FullPath()
	if err != nil {
		path = info.Name
	}
	return writer.WriteFileObject(dfxml.FileObject{
		Filename: path,
		FileSize: info.Size,
	})
}

func writeFile(writer *dfxml.DFXMLWriter, f *ntfs.File) error {
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", f.Name(), err)
	}
	path, err := f.FullPath()
	if err != nil {
		path = info.Name
	}

	obj := dfxml.FileObject{
		Filename: path,
		FileSize: info.Size,
	}

	attr, err := f.Record().FindAttribute(ntfs.AttrData)
	if err == nil {
		obj.ByteRuns = byteRuns(f, attr)
	}

	return writer.WriteFileObject(obj)
}

// byteRuns reports the unnamed $DATA attribute's physical extents: one
// byte_run per non-sparse runlist entry for a non-resident attribute,
// or a single logical-offset-only run for a resident one (resident
// data lives inside the MFT record, not in a standalone cluster run).
func byteRuns(f *ntfs.File, attr *ntfs.Attribute) dfxml.ByteRuns {
	if !attr.NonResident {
		return dfxml.ByteRuns{Runs: []dfxml.ByteRun{{
			Offset: 0,
			Length: uint64(len(attr.Value)),
		}}}
	}

	var logicalOffset uint64
	var runs []dfxml.ByteRun
	for _, run := range attr.Runlist {
		length := run.Length * uint64(f.FS().ClusterSize())
		if !run.Sparse {
			runs = append(runs, dfxml.ByteRun{
				Offset:    logicalOffset,
				ImgOffset: uint64(f.FS().ClusterByteOffset(run.LCN)),
				Length:    length,
			})
		}
		logicalOffset += length
	}
	return dfxml.ByteRuns{Runs: runs}
}
