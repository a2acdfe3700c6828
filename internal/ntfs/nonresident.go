package ntfs

import (
	"io"

	"github.com/ntfsgo/ntfsgo/pkg/reader"
)

// runSpan is a Run translated into absolute byte offsets within the
// view's logical address space, precomputed once so lookups are a
// binary-search-free linear scan over a short slice (MFT runlists are
// rarely more than a handful of runs).
type runSpan struct {
	run        Run
	startByte  uint64
	lengthByte uint64
}

// NonResidentView presents a runlist + cluster accessor as a single
// logical, indexable/sliceable byte sequence. It never allocates the
// full attribute on construction — large MFTs run into the hundreds
// of megabytes.
type NonResidentView struct {
	clusters *ClusterAccessor
	runlist  Runlist
	spans    []runSpan
	length   uint64
}

// NewNonResidentView wraps a runlist over the given cluster accessor.
func NewNonResidentView(clusters *ClusterAccessor, runlist Runlist) *NonResidentView {
	cs := uint64(clusters.ClusterSize())
	spans := make([]runSpan, len(runlist))
	var offset uint64
	for i, r := range runlist {
		spans[i] = runSpan{run: r, startByte: offset, lengthByte: r.Length * cs}
		offset += r.Length * cs
	}
	return &NonResidentView{
		clusters: clusters,
		runlist:  runlist,
		spans:    spans,
		length:   offset,
	}
}

// Len returns the cached logical length: sum(length_i * cluster_size).
func (v *NonResidentView) Len() uint64 { return v.length }

// findSpan locates the run covering byte index b, returning its index
// into v.spans, or -1 if b is out of range.
func (v *NonResidentView) findSpan(b uint64) int {
	for i, s := range v.spans {
		if b >= s.startByte && b < s.startByte+s.lengthByte {
			return i
		}
	}
	return -1
}

// ReadByte returns the single byte at logical index b.
func (v *NonResidentView) ReadByte(b uint64) (byte, error) {
	if b >= v.length {
		return 0, newErr(KindOverrun, "byte index %d out of range (length %d)", b, v.length)
	}
	i := v.findSpan(b)
	if i < 0 {
		return 0, newErr(KindOverrun, "byte index %d not covered by any run", b)
	}
	span := v.spans[i]
	if span.run.Sparse {
		return 0, nil
	}

	cs := uint64(v.clusters.ClusterSize())
	withinRun := b - span.startByte
	clusterOffsetInRun := withinRun / cs
	byteOffsetInCluster := withinRun - clusterOffsetInRun*cs

	lcn := span.run.LCN + int64(clusterOffsetInRun)
	data, err := v.clusters.Read(lcn)
	if err != nil {
		return 0, err
	}
	return data[byteOffsetInCluster], nil
}

// Slice returns the half-open byte range [start, stop). Sparse runs
// materialize as zero bytes for the span they cover. When the whole
// range lies in a single run, the result is built from one cluster
// read; otherwise the runs it spans are concatenated into one buffer.
func (v *NonResidentView) Slice(start, stop uint64) ([]byte, error) {
	if start > stop || stop > v.length {
		return nil, newErr(KindOverrun, "slice [%d,%d) out of range (length %d)", start, stop, v.length)
	}
	if start == stop {
		return []byte{}, nil
	}

	out := make([]byte, 0, stop-start)
	cs := uint64(v.clusters.ClusterSize())

	for _, span := range v.spans {
		spanEnd := span.startByte + span.lengthByte
		if spanEnd <= start || span.startByte >= stop {
			continue
		}

		// Intersection of [start,stop) with this run's byte range, in
		// run-relative coordinates.
		loByte := uint64(0)
		if start > span.startByte {
			loByte = start - span.startByte
		}
		hiByte := span.lengthByte
		if stop < spanEnd {
			hiByte = stop - span.startByte
		}

		if span.run.Sparse {
			out = append(out, make([]byte, hiByte-loByte)...)
			continue
		}

		// Expand to whole-cluster boundaries, read, then trim.
		firstCluster := loByte / cs
		lastCluster := (hiByte + cs - 1) / cs

		data, err := v.clusters.ReadRange(span.run.LCN+int64(firstCluster), span.run.LCN+int64(lastCluster))
		if err != nil {
			return nil, err
		}

		trimStart := loByte - firstCluster*cs
		trimEnd := trimStart + (hiByte - loByte)
		out = append(out, data[trimStart:trimEnd]...)
	}

	return out, nil
}

// Reader builds an io.ReadSeeker over the view by stitching one
// io.SectionReader per run through reader.MultiReadSeeker. Sparse runs
// are backed by a zero-filled in-memory section so the stream still
// reads zeroes rather than erroring. Used for streaming access (the
// cat and extract commands) where the point-read/slice API above would be
// awkward to drive byte-by-byte.
func (v *NonResidentView) Reader() io.ReadSeeker {
	cs := int64(v.clusters.ClusterSize())

	readers := make([]io.ReadSeeker, len(v.spans))
	sizes := make([]int64, len(v.spans))
	for i, span := range v.spans {
		sizes[i] = int64(span.lengthByte)
		if span.run.Sparse {
			readers[i] = io.NewSectionReader(zeroReaderAt{}, 0, sizes[i])
			continue
		}
		readers[i] = io.NewSectionReader(v.clusters, v.clusters.ByteOffset(span.run.LCN), cs*int64(span.run.Length))
	}
	return reader.NewMultiReadSeeker(readers, sizes)
}

// zeroReaderAt is an io.ReaderAt that always yields zero bytes, used to
// back sparse runs in NonResidentView.Reader.
type zeroReaderAt struct{}

func (zeroReaderAt) ReadAt(p []byte, off int64) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}
