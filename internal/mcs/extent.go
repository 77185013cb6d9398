package mcs

import (
	"bufio"
	"io"

	"github.com/gentam/qflash/internal/qerr"
)

// Extent describes one contiguous run of bytes parsed out of an MCS stream:
// the contiguous type-0x00 data records that follow one type-0x04
// extended-address record. The next type-0x04 record closes the extent.
type Extent struct {
	StartAddress uint32
	EndAddress   uint32
	DataCount    uint32
	// DataPos is the byte offset in the original stream at which this
	// extent's first data line begins, a restartable cursor for the
	// streamed/driver path.
	DataPos int64
}

// ParseExtents reads every line of r and groups contiguous data records into
// extents, in order of appearance. r is rewound to the start on return.
func ParseExtents(r io.ReadSeeker) ([]Extent, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, qerr.Wrap(qerr.IoError, "seek to start of mcs stream", err)
	}
	defer r.Seek(0, io.SeekStart)

	var extents []Extent
	var cur Extent
	haveExtent := false
	eofSeen := false

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 256), 4096)

	var bytesRead int64
	for scanner.Scan() && !eofSeen {
		raw := scanner.Text()
		bytesRead += int64(len(raw)) + 1
		if len(raw) == 0 {
			continue
		}
		l, err := splitLine(raw)
		if err != nil {
			return nil, err
		}

		switch l.recordType {
		case RecordData:
			if !haveExtent {
				return nil, qerr.New(qerr.InvalidInput, "mcs data record before any extended address record")
			}
			expected := cur.DataCount + (cur.StartAddress & 0xFFFF)
			if l.address != expected {
				if cur.DataCount == 0 {
					cur.StartAddress += l.address
					cur.EndAddress += l.address
				} else {
					return nil, qerr.New(qerr.InvalidInput, "mcs extent is not contiguous")
				}
			}
			cur.DataCount += uint32(len(l.data))
			cur.EndAddress += uint32(len(l.data))

		case RecordEOF:
			if haveExtent {
				extents = append(extents, cur)
			}
			eofSeen = true

		case RecordExtendedLinearAddress:
			if haveExtent {
				extents = append(extents, cur)
			}
			cur = Extent{
				StartAddress: l.address << 16,
				DataPos:      bytesRead,
			}
			cur.EndAddress = cur.StartAddress
			haveExtent = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, qerr.Wrap(qerr.IoError, "reading mcs stream", err)
	}

	return extents, nil
}
