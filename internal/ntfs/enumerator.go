package ntfs

import (
	"fmt"
	"sync"
)

// Fixed MFT record numbers reserved for metadata files.
const (
	InodeMFT       int64 = 0
	InodeMFTMirr   int64 = 1
	InodeLogFile   int64 = 2
	InodeVolume    int64 = 3
	InodeAttrDef   int64 = 4
	InodeRoot      int64 = 5
	InodeBitmap    int64 = 6
	InodeBoot      int64 = 7
	InodeBadClus   int64 = 8
	InodeSecure    int64 = 9
	InodeUpcase    int64 = 10
	InodeExtend    int64 = 11
	InodeFirstUser int64 = 16
)

// orphanMarker prefixes a path that could not be fully resolved back
// to the root: a record on the way has no $FILE_NAME, its parent
// record is unreadable, or the parent reference's sequence number no
// longer matches the live record occupying that slot.
const orphanMarker = `\$ORPHAN`

// maxPathDepth bounds the parent walk in Enumerator.Path against
// cyclic references in corrupt volumes.
const maxPathDepth = 64

// Enumerator presents the MFT as an indexable, cached sequence of
// records and resolves absolute paths by walking parent references.
type Enumerator struct {
	mftData    *NonResidentView
	recordSize int64
	log        Logger

	mu    sync.RWMutex
	cache map[int64]*Record
}

// NewEnumerator wraps the $MFT's own $DATA view. log receives
// warnings when Path has to give up on an orphaned parent chain; it
// may be nil.
func NewEnumerator(mftData *NonResidentView, recordSize int, log Logger) *Enumerator {
	return &Enumerator{
		mftData:    mftData,
		recordSize: int64(recordSize),
		log:        log,
		cache:      make(map[int64]*Record),
	}
}

// NumRecords returns the number of record-sized slots the MFT view
// holds, i.e. ⌊view_length / record_size⌋.
func (e *Enumerator) NumRecords() int64 {
	return int64(e.mftData.Len()) / e.recordSize
}

// GetRecord fetches and decodes the record at the given number,
// caching the result. Concurrent calls for the same number may
// duplicate work but never corrupt the cache (the write is idempotent).
func (e *Enumerator) GetRecord(number int64) (*Record, error) {
	e.mu.RLock()
	if r, ok := e.cache[number]; ok {
		e.mu.RUnlock()
		return r, nil
	}
	e.mu.RUnlock()

	if number < 0 || number >= e.NumRecords() {
		return nil, newErr(KindOverrun, "record number %d out of range (have %d records)", number, e.NumRecords())
	}

	start := uint64(number) * uint64(e.recordSize)
	buf, err := e.mftData.Slice(start, start+uint64(e.recordSize))
	if err != nil {
		return nil, wrapErr(KindOverrun, err, "reading record %d", number)
	}

	rec, err := parseRecord(buf, number)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.cache[number] = rec
	e.mu.Unlock()

	return rec, nil
}

// Enumerate lazily walks in-use records from InodeFirstUser through
// the end of the MFT, invoking fn for each. A record that fails to
// parse (corrupt, not in use reported via an error rather than the
// flag) stops the walk and returns the error; fn returning an error
// likewise stops the walk.
func (e *Enumerator) Enumerate(fn func(*Record) error) error {
	for n := InodeFirstUser; n < e.NumRecords(); n++ {
		rec, err := e.GetRecord(n)
		if err != nil {
			return err
		}
		if !rec.InUse() {
			continue
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}

// Path walks parent references from record up to the root, building
// an absolute backslash-separated path. If a record on the way has no
// $FILE_NAME, its parent record can't be read, or the parent
// reference's sequence number is stale (the slot has been reused), the
// walk stops and the partial path is prefixed with orphanMarker. A cycle in the
// parent chain is reported as CorruptFilesystem.
func (e *Enumerator) Path(record *Record) (string, error) {
	if record.Number == InodeRoot {
		return `\`, nil
	}

	var parts []string
	visited := make(map[int64]bool)
	cur := record

	for depth := 0; ; depth++ {
		if depth >= maxPathDepth {
			return "", newErr(KindCorruptFilesystem, "path depth exceeded %d walking from record %d", maxPathDepth, record.Number)
		}
		if visited[cur.Number] {
			return "", newErr(KindCorruptFilesystem, "cycle in parent chain at record %d", cur.Number)
		}
		visited[cur.Number] = true

		if cur.Number == InodeRoot {
			break
		}

		names := decodeFileNames(cur)
		fn := bestFileName(names)
		if fn == nil {
			e.warnOrphan(record.Number, cur.Number, "no filename attribute")
			return orphanMarker + `\` + joinPath(parts), nil
		}
		parts = append([]string{fn.Name}, parts...)

		parentNum := fn.ParentDirectory.RecordNumber
		if parentNum == cur.Number {
			return "", newErr(KindCorruptFilesystem, "record %d is its own parent", cur.Number)
		}

		parent, err := e.GetRecord(parentNum)
		if err != nil {
			e.warnOrphan(record.Number, cur.Number, fmt.Sprintf("parent record %d unreadable: %v", parentNum, err))
			return orphanMarker + `\` + joinPath(parts), nil
		}
		if parent.SequenceNumber != fn.ParentDirectory.SequenceNumber {
			e.warnOrphan(record.Number, cur.Number, fmt.Sprintf("stale parent reference to record %d", parentNum))
			return orphanMarker + `\` + joinPath(parts), nil
		}

		cur = parent
	}

	return `\` + joinPath(parts), nil
}

// warnOrphan logs that the walk from record couldn't be resolved past
// stopAt, and why; it's a no-op when no Logger was configured.
func (e *Enumerator) warnOrphan(record, stopAt int64, reason string) {
	if e.log != nil {
		e.log.Warnf("record %d: path resolution stopped at record %d: %s", record, stopAt, reason)
	}
}

func joinPath(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += `\`
		}
		out += p
	}
	return out
}

// decodeFileNames decodes every $FILE_NAME attribute on a record,
// skipping individually malformed ones rather than failing the whole
// record (a single bad namespace variant shouldn't hide the others).
func decodeFileNames(record *Record) []*FileNameAttribute {
	var out []*FileNameAttribute
	for _, attr := range record.FindAttributes(AttrFileName) {
		fn, err := parseFileName(attr.Value)
		if err != nil {
			continue
		}
		out = append(out, fn)
	}
	return out
}

// String renders an MFTReference for debugging/log output.
func (r MFTReference) String() string {
	return fmt.Sprintf("%d#%d", r.RecordNumber, r.SequenceNumber)
}
