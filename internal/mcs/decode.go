package mcs

import (
	"bufio"
	"io"

	"github.com/gentam/qflash/internal/qerr"
)

// DecodeExtent seeks r to e.DataPos and replays e.DataCount bytes of data
// records, calling yield once per line's payload in stream order. This lets
// a programmer accumulate bytes into page-sized write buffers without
// holding the whole extent in memory at once.
func DecodeExtent(r io.ReadSeeker, e Extent, yield func(data []byte) error) error {
	if _, err := r.Seek(e.DataPos, io.SeekStart); err != nil {
		return qerr.Wrap(qerr.IoError, "seek to extent data", err)
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 256), 4096)

	remaining := e.DataCount
	for remaining > 0 && scanner.Scan() {
		raw := scanner.Text()
		if len(raw) == 0 {
			continue
		}
		l, err := splitLine(raw)
		if err != nil {
			return err
		}
		if l.recordType != RecordData {
			continue
		}
		remaining -= uint32(len(l.data))
		if err := yield(l.data); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return qerr.Wrap(qerr.IoError, "reading extent data", err)
	}
	return nil
}
