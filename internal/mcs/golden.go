package mcs

import (
	"bufio"
	"io"

	"github.com/gentam/qflash/internal/qerr"
)

// IsGolden reports whether r's first extended-address record targets address
// 0. A golden image is flashed without installing the
// bitstream guard. r is rewound to the start on return.
func IsGolden(r io.ReadSeeker) (bool, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return false, qerr.Wrap(qerr.IoError, "seek to start of mcs stream", err)
	}
	defer r.Seek(0, io.SeekStart)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 256), 4096)

	var addr uint32
	for scanner.Scan() {
		raw := scanner.Text()
		if len(raw) == 0 {
			continue
		}
		l, err := splitLine(raw)
		if err != nil {
			return false, err
		}
		if l.recordType == RecordExtendedLinearAddress {
			addr = l.address << 16
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return false, qerr.Wrap(qerr.IoError, "reading mcs stream", err)
	}

	return addr == 0, nil
}
