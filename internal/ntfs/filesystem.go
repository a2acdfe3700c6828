package ntfs

// Volume is the abstract byte-addressable backing store a Filesystem
// is built over — a memory-mapped image, a raw device, or an
// in-memory buffer in tests; it is out of scope for this package to
// provide, only to consume.
//
// (Declared in volume.go; referenced here for documentation.)

// Logger is the minimal logging surface the decode path needs for
// non-fatal warnings (a dropped child, an orphaned path, a fallback to
// $MFTMirr). internal/logger.Logger satisfies it; a nil Logger is
// valid and simply discards these warnings.
type Logger interface {
	Warnf(format string, args ...any)
}

// Filesystem is the read-only NTFS interpreter facade.
// It owns the volume and the bootstrapped $MFT data view; every other
// entity is derived lazily and cached by record number through its
// Enumerator.
type Filesystem struct {
	volume   Volume
	vbr      *VBR
	clusters *ClusterAccessor
	enum     *Enumerator
	log      Logger
}

// Open validates the VBR, bootstraps the MFT, and returns a ready
// Filesystem. clusterSizeOverride is forwarded to ParseVBR for the
// rare volume whose BPB geometry can't be trusted; pass 0 to use the
// VBR's own BytesPerSector*SectorsPerCluster. log receives warnings for
// recoverable anomalies encountered while decoding; pass nil to
// discard them.
func Open(volume Volume, clusterSizeOverride int, log Logger) (*Filesystem, error) {
	if volume.Len() < VBRSize {
		return nil, newErr(KindCorruptFilesystem, "volume too small to hold a VBR (%d bytes)", volume.Len())
	}

	var sector [VBRSize]byte
	if _, err := volume.ReadAt(sector[:], 0); err != nil {
		return nil, wrapErr(KindCorruptFilesystem, err, "reading VBR")
	}
	vbr, err := ParseVBR(sector, clusterSizeOverride)
	if err != nil {
		return nil, err
	}

	clusters, err := NewClusterAccessor(volume, vbr.ClusterSize)
	if err != nil {
		return nil, err
	}

	mftView, err := bootstrapMFT(clusters, vbr, vbr.MFTLCN)
	if err != nil {
		mftView, err = bootstrapMFTMirr(clusters, vbr)
		if err != nil {
			return nil, newErr(KindCorruptFilesystem, "both $MFT and $MFTMirr are unreadable")
		}
		if log != nil {
			log.Warnf("$MFT is unreadable, falling back to $MFTMirr")
		}
	}

	fs := &Filesystem{
		volume:   volume,
		vbr:      vbr,
		clusters: clusters,
		enum:     NewEnumerator(mftView, vbr.MFTRecordSize, log),
		log:      log,
	}

	if _, err := fs.enum.GetRecord(InodeFirstUser); err != nil {
		return nil, wrapErr(KindCorruptFilesystem, err, "failed to read first user record (MFT not large enough)")
	}

	return fs, nil
}

// bootstrapMFT reads the first $MFT record directly from its known
// cluster (mftLcn), decodes its $DATA runlist, and wraps it in a
// NonResidentView, validated by forcing a read of the view's last byte
// (which walks the full runlist).
func bootstrapMFT(clusters *ClusterAccessor, vbr *VBR, mftLcn uint64) (*NonResidentView, error) {
	recordSize := vbr.MFTRecordSize
	clusterSize := clusters.ClusterSize()

	clustersPerRecord := (recordSize + clusterSize - 1) / clusterSize
	if clustersPerRecord < 1 {
		clustersPerRecord = 1
	}
	buf, err := clusters.ReadRange(int64(mftLcn), int64(mftLcn)+int64(clustersPerRecord))
	if err != nil {
		return nil, err
	}
	buf = buf[:recordSize]

	rec, err := parseRecord(buf, InodeMFT)
	if err != nil {
		return nil, err
	}

	dataAttr, err := rec.FindAttribute(AttrData)
	if err != nil {
		return nil, err
	}
	if !dataAttr.NonResident {
		return nil, newErr(KindCorruptFilesystem, "$MFT's $DATA attribute is unexpectedly resident")
	}

	view := NewNonResidentView(clusters, dataAttr.Runlist)
	if view.Len() > 0 {
		if _, err := view.ReadByte(view.Len() - 1); err != nil {
			return nil, wrapErr(KindOverrun, err, "validating $MFT data view")
		}
	}
	return view, nil
}

// bootstrapMFTMirr falls back to $MFTMirr, which only guarantees the
// first four MFT records ($MFT, $MFTMirr, $LogFile, $Volume).
func bootstrapMFTMirr(clusters *ClusterAccessor, vbr *VBR) (*NonResidentView, error) {
	return bootstrapMFT(clusters, vbr, vbr.MFTMirrLCN)
}

// VBR exposes the decoded volume boot record.
func (fs *Filesystem) VBR() *VBR { return fs.vbr }

// Record returns the MFT record at the given number.
func (fs *Filesystem) Record(number int64) (*Record, error) {
	return fs.enum.GetRecord(number)
}

// Root returns the root directory handle (inode 5).
func (fs *Filesystem) Root() (*Directory, error) {
	rec, err := fs.enum.GetRecord(InodeRoot)
	if err != nil {
		return nil, err
	}
	return fs.newDirectory(rec)
}

// Parent returns the directory handle for record's parent, per its
// preferred $FILE_NAME's parent reference.
func (fs *Filesystem) Parent(record *Record) (*Directory, error) {
	if record.Number == InodeRoot {
		return nil, newErr(KindNoParent, "root directory has no parent")
	}

	fn := bestFileName(decodeFileNames(record))
	if fn == nil {
		return nil, newErr(KindNoParent, "record %d has no filename attribute", record.Number)
	}

	parent, err := fs.enum.GetRecord(fn.ParentDirectory.RecordNumber)
	if err != nil {
		return nil, wrapErr(KindNoParent, err, "invalid parent MFT record for %d", record.Number)
	}
	if parent.SequenceNumber != fn.ParentDirectory.SequenceNumber {
		return nil, newErr(KindNoParent, "stale parent reference for record %d", record.Number)
	}

	return fs.newDirectory(parent)
}

// Children resolves record's children to decoded Record handles.
func (fs *Filesystem) Children(record *Record) ([]*Record, error) {
	if !record.IsDirectory() {
		return nil, nil
	}

	numbers, err := ChildRecordNumbers(record, fs.clusters, fs.vbr.IndexBufferSize)
	if err != nil {
		return nil, err
	}

	children := make([]*Record, 0, len(numbers))
	for _, n := range numbers {
		child, err := fs.enum.GetRecord(n)
		if err != nil {
			if fs.log != nil {
				fs.log.Warnf("dropping child record %d of %d: %v", n, record.Number, err)
			}
			continue // a single unreadable child doesn't fail the whole listing
		}
		children = append(children, child)
	}
	return children, nil
}

// Path returns record's absolute path, walking parent references.
func (fs *Filesystem) Path(record *Record) (string, error) {
	return fs.enum.Path(record)
}

// AttributeData returns attr's payload as a ByteView, building a
// NonResidentView over the filesystem's cluster accessor when needed.
func (fs *Filesystem) AttributeData(attr *Attribute) (ByteView, error) {
	return attr.Data(fs.clusters)
}

// ClusterSize returns the volume's cluster size in bytes.
func (fs *Filesystem) ClusterSize() int { return fs.clusters.ClusterSize() }

// ClusterByteOffset converts an LCN to its absolute byte offset within
// the volume, for callers (e.g. DFXML export) that need to report
// physical extents alongside an attribute's runlist.
func (fs *Filesystem) ClusterByteOffset(lcn int64) int64 { return fs.clusters.ByteOffset(lcn) }
