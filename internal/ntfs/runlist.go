package ntfs

// Run is a single (lcn, length) pair decoded from a mapping-pairs array.
// A sparse run (representing a hole) has LCN == 0 and Sparse == true;
// its length still counts toward the attribute's logical extent.
type Run struct {
	LCN    int64
	Length uint64
	Sparse bool
}

// Runlist is the ordered sequence of runs describing a non-resident
// attribute's physical layout.
type Runlist []Run

// TotalClusters sums the run lengths.
func (rl Runlist) TotalClusters() uint64 {
	var total uint64
	for _, r := range rl {
		total += r.Length
	}
	return total
}

// DecodeRunlist parses the compact variable-length mapping-pairs array
// beginning at data[0] (the caller slices to mapping_pairs_offset first).
// Each run begins with a header byte: low nibble = length-field byte
// count L (1-8), high nibble = offset-field byte count O (0-8). A
// header of 0x00 terminates the list. The length field is an unsigned
// little-endian integer of L bytes; the offset field is a *signed*
// little-endian integer of O bytes, sign-extended from its top bit.
// O == 0 denotes a sparse run: its LCN is 0, Sparse is set, and the
// running lcn is left unchanged. Running lcn = prev_lcn + delta, where the first run's
// delta is the absolute lcn (i.e. prev_lcn starts at 0). A length of 0
// is invalid.
func DecodeRunlist(data []byte) (Runlist, error) {
	var runs Runlist
	var prevLCN int64
	pos := 0

	for {
		if pos >= len(data) {
			return nil, newErr(KindCorruptFilesystem, "runlist truncated: missing terminator")
		}
		header := data[pos]
		pos++
		if header == 0x00 {
			return runs, nil
		}

		lengthBytes := int(header & 0x0F)
		offsetBytes := int(header >> 4)

		if pos+lengthBytes > len(data) {
			return nil, newErr(KindCorruptFilesystem, "runlist truncated: length field")
		}
		length := readUintLE(data[pos : pos+lengthBytes])
		pos += lengthBytes

		if length == 0 {
			return nil, newErr(KindCorruptFilesystem, "runlist: zero-length run")
		}

		var run Run
		run.Length = length

		if offsetBytes == 0 {
			run.Sparse = true
			run.LCN = 0
		} else {
			if pos+offsetBytes > len(data) {
				return nil, newErr(KindCorruptFilesystem, "runlist truncated: offset field")
			}
			delta := readIntLE(data[pos : pos+offsetBytes])
			pos += offsetBytes

			lcn := prevLCN + delta
			run.LCN = lcn
			prevLCN = lcn
		}

		runs = append(runs, run)
	}
}

// readUintLE decodes an unsigned little-endian integer of arbitrary
// byte length (1-8).
func readUintLE(b []byte) uint64 {
	var v uint64
	for i, x := range b {
		v |= uint64(x) << (8 * uint(i))
	}
	return v
}

// readIntLE decodes a signed little-endian integer of arbitrary byte
// length (1-8), sign-extended from the top bit of the most significant
// byte, matching the mapping-pairs offset-field convention.
func readIntLE(b []byte) int64 {
	v := readUintLE(b)
	bits := uint(len(b) * 8)
	if bits < 64 && v&(1<<(bits-1)) != 0 {
		v |= ^uint64(0) << bits
	}
	return int64(v)
}
