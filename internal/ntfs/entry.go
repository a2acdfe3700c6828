package ntfs

import (
	"io"
	"strings"
	"time"
)

// Entry is the common surface every directory and file handle exposes.
type Entry interface {
	Name() string
	Size() (uint64, error)
	Created() time.Time
	Modified() time.Time
	Changed() time.Time
	Accessed() time.Time
	IsFile() bool
	IsDirectory() bool
	FullPath() (string, error)
	Parent() (*Directory, error)
	Record() *Record
	Stat() (EntryInfo, error)
}

// EntryInfo is a flattened, display-ready summary of an Entry, used by
// ls -l and the DFXML exporter so neither has to re-derive size and
// timestamps from the underlying record by hand.
type EntryInfo struct {
	Name           string
	Size           uint64
	Created        time.Time
	Modified       time.Time
	Changed        time.Time
	Accessed       time.Time
	IsDirectory    bool
	RecordNumber   int64
	SequenceNumber uint16
}

// baseEntry carries the metadata every handle (Directory or File)
// shares: a back-reference to the owning facade and the decoded
// record it wraps.
type baseEntry struct {
	fs     *Filesystem
	record *Record
	names  []*FileNameAttribute
}

func newBaseEntry(fs *Filesystem, record *Record) baseEntry {
	return baseEntry{fs: fs, record: record, names: decodeFileNames(record)}
}

// Record returns the decoded MFT record backing this handle.
func (e baseEntry) Record() *Record { return e.record }

// FS returns the owning filesystem facade.
func (e baseEntry) FS() *Filesystem { return e.fs }

// Name returns the preferred (namespace-ranked) filename.
func (e baseEntry) Name() string {
	if fn := bestFileName(e.names); fn != nil {
		return fn.Name
	}
	return ""
}

// filenames returns every filename this record is known by, across
// all namespaces, used for case-insensitive multi-namespace lookup.
func (e baseEntry) filenames() []string {
	out := make([]string, 0, len(e.names))
	for _, fn := range e.names {
		out = append(out, fn.Name)
	}
	return out
}

func (e baseEntry) standardInfo() (created, modified, changed, accessed time.Time) {
	attr, err := e.record.FindAttribute(AttrStandardInformation)
	if err != nil || len(attr.Value) < 32 {
		return
	}
	return parseStandardInformationTimes(attr.Value)
}

func (e baseEntry) Created() time.Time  { t, _, _, _ := e.standardInfo(); return t }
func (e baseEntry) Modified() time.Time { _, t, _, _ := e.standardInfo(); return t }
func (e baseEntry) Changed() time.Time  { _, _, t, _ := e.standardInfo(); return t }
func (e baseEntry) Accessed() time.Time { _, _, _, t := e.standardInfo(); return t }

func (e baseEntry) IsFile() bool      { return !e.record.IsDirectory() }
func (e baseEntry) IsDirectory() bool { return e.record.IsDirectory() }

// FullPath walks parent references through the enumerator.
func (e baseEntry) FullPath() (string, error) {
	return e.fs.Path(e.record)
}

// Parent resolves the entry's parent directory.
func (e baseEntry) Parent() (*Directory, error) {
	return e.fs.Parent(e.record)
}

// stat builds the common fields of an EntryInfo; callers fill in Size
// and IsDirectory, which differ between Directory and File.
func (e baseEntry) stat() EntryInfo {
	created, modified, changed, accessed := e.standardInfo()
	return EntryInfo{
		Name:           e.Name(),
		Created:        created,
		Modified:       modified,
		Changed:        changed,
		Accessed:       accessed,
		RecordNumber:   e.record.Number,
		SequenceNumber: e.record.SequenceNumber,
	}
}

// Directory is a handle onto a directory MFT record.
type Directory struct {
	baseEntry
}

func (fs *Filesystem) newDirectory(record *Record) (*Directory, error) {
	return &Directory{baseEntry: newBaseEntry(fs, record)}, nil
}

// Size is always 0 for a directory.
func (d *Directory) Size() (uint64, error) { return 0, nil }

// Stat returns a display-ready summary of this directory.
func (d *Directory) Stat() (EntryInfo, error) {
	info := d.stat()
	info.IsDirectory = true
	return info, nil
}

// Children returns every child entry, directories and files alike.
func (d *Directory) Children() ([]Entry, error) {
	records, err := d.fs.Children(d.record)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(records))
	for _, rec := range records {
		out = append(out, d.fs.wrapEntry(rec))
	}
	return out, nil
}

// Child looks up a direct child by name, case-insensitively, matching
// against every namespace variant the child's record carries.
func (d *Directory) Child(name string) (Entry, error) {
	children, err := d.Children()
	if err != nil {
		return nil, err
	}
	lower := strings.ToLower(name)
	for _, c := range children {
		for _, n := range entryFilenames(c) {
			if strings.ToLower(n) == lower {
				return c, nil
			}
		}
	}
	return nil, newErr(KindChildNotFound, "no child named %q", name)
}

// EntryAt resolves a slash- or backslash-separated relative path
// beneath this directory. An empty path resolves to the directory
// itself. Mixing separators within one path fails UnsupportedPath.
func (d *Directory) EntryAt(path string) (Entry, error) {
	if path == "" {
		return d, nil
	}

	imm, rest, hasMore, err := splitPathComponent(path)
	if err != nil {
		return nil, err
	}
	if !hasMore {
		return d.Child(imm)
	}
	if rest == "" {
		return d, nil
	}

	child, err := d.Child(imm)
	if err != nil {
		return nil, err
	}
	childDir, ok := child.(*Directory)
	if !ok {
		return nil, newErr(KindDirectoryDoesNotExist, "%q is not a directory", imm)
	}
	return childDir.EntryAt(rest)
}

// splitPathComponent partitions path on the first forward slash or
// backslash it contains; a path using both separators is rejected.
func splitPathComponent(path string) (head, tail string, hasSeparator bool, err error) {
	hasFwd := strings.Contains(path, "/")
	hasBack := strings.Contains(path, "\\")
	if hasFwd && hasBack {
		return "", "", false, newErr(KindUnsupportedPath, "path %q mixes / and \\ separators", path)
	}

	sep := ""
	switch {
	case hasFwd:
		sep = "/"
	case hasBack:
		sep = "\\"
	default:
		return path, "", false, nil
	}

	idx := strings.Index(path, sep)
	return path[:idx], path[idx+1:], true, nil
}

// wrapEntry produces the concrete Directory or File handle for a
// decoded record.
func (fs *Filesystem) wrapEntry(record *Record) Entry {
	if record.IsDirectory() {
		d, _ := fs.newDirectory(record)
		return d
	}
	return fs.newFile(record)
}

// entryFilenames extracts every namespace variant's name from an Entry,
// regardless of concrete type.
func entryFilenames(e Entry) []string {
	switch v := e.(type) {
	case *Directory:
		return v.filenames()
	case *File:
		return v.filenames()
	default:
		return []string{e.Name()}
	}
}

// File is a handle onto a non-directory MFT record.
type File struct {
	baseEntry
}

func (fs *Filesystem) newFile(record *Record) *File {
	return &File{baseEntry: newBaseEntry(fs, record)}
}

// Size resolves the unnamed $DATA attribute's logical length, falling
// back to the preferred $FILE_NAME's logical size if there is no
// $DATA attribute at all.
func (f *File) Size() (uint64, error) {
	attr, err := f.record.FindAttribute(AttrData)
	if err != nil {
		if fn := bestFileName(f.names); fn != nil {
			return fn.LogicalSize, nil
		}
		return 0, nil
	}
	if !attr.NonResident {
		return uint64(len(attr.Value)), nil
	}
	return attr.DataSize, nil
}

// Stat returns a display-ready summary of this file.
func (f *File) Stat() (EntryInfo, error) {
	size, err := f.Size()
	if err != nil {
		return EntryInfo{}, err
	}
	info := f.stat()
	info.Size = size
	return info, nil
}

// Read returns up to length bytes of the unnamed $DATA attribute
// starting at offset, truncated by the attribute's logical size.
func (f *File) Read(offset, length uint64) ([]byte, error) {
	attr, err := f.record.FindAttribute(AttrData)
	if err != nil {
		return nil, err
	}

	view, err := f.fs.AttributeData(attr)
	if err != nil {
		return nil, err
	}

	total := view.Len()
	if attr.NonResident && attr.DataSize < total {
		total = attr.DataSize
	}
	if offset >= total {
		return []byte{}, nil
	}
	stop := offset + length
	if stop > total {
		stop = total
	}
	return view.Slice(offset, stop)
}

// Reader exposes a streaming io.ReadSeeker over the file's non-resident
// $DATA, backed by NonResidentView.Reader, for CLI/export use where
// whole-file buffering is undesirable. The stream spans every cluster
// of the runlist, so it can run past the logical size reported by
// Size; a resident $DATA yields an error instead of a stream.
func (f *File) Reader() (io.ReadSeeker, error) {
	attr, err := f.record.FindAttribute(AttrData)
	if err != nil {
		return nil, err
	}
	if !attr.NonResident {
		return nil, newErr(KindCorruptFilesystem, "resident $DATA has no stream reader")
	}
	view := NewNonResidentView(f.fs.clusters, attr.Runlist)
	return view.Reader(), nil
}
