package mcs

import (
	"bufio"
	"io"
	"math"

	"github.com/gentam/qflash/internal/qerr"
)

// pageSize is the target flash's physical page size. StreamChunks does not
// split chunks at it; chunks end only at an address discontinuity or EOF.
const pageSize = 256

// noAddress marks "no address established yet".
const noAddress = math.MaxUint32

// Chunk is one contiguous run of bytes destined for a single write through
// the character-device endpoint.
type Chunk struct {
	Addr uint32
	Data []byte
}

// StreamChunks parses r in streamed mode for the driver path: chunks are
// split on address discontinuities or EOF, rather than accumulated into a
// full extent list up front. yield is called once per chunk in stream order;
// returning an error from yield aborts the scan.
func StreamChunks(r io.Reader, yield func(Chunk) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 256), 4096)

	currentAddr := uint32(noAddress)
	var buf []byte

	flush := func() error {
		if len(buf) == 0 {
			return nil
		}
		if err := yield(Chunk{Addr: currentAddr, Data: buf}); err != nil {
			return err
		}
		buf = nil
		return nil
	}

	for scanner.Scan() {
		raw := scanner.Text()
		if len(raw) == 0 {
			continue
		}
		l, err := splitLine(raw)
		if err != nil {
			return err
		}

		switch l.recordType {
		case RecordData:
			if currentAddr == noAddress {
				return qerr.New(qerr.InvalidInput, "mcs stream missing page starting address")
			}
			if len(buf) == 0 {
				currentAddr |= l.address
			} else if (currentAddr+uint32(len(buf)))&0xFFFF != l.address {
				return qerr.New(qerr.InvalidInput, "mcs stream page offset is not contiguous")
			}
			buf = append(buf, l.data...)

		case RecordEOF:
			if err := flush(); err != nil {
				return err
			}
			return nil

		case RecordExtendedLinearAddress:
			addr := l.address << 16
			if currentAddr == noAddress {
				currentAddr = addr
			} else if currentAddr+uint32(len(buf)) != addr {
				if err := flush(); err != nil {
					return err
				}
				currentAddr = addr
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return qerr.Wrap(qerr.IoError, "reading mcs stream", err)
	}
	return flush()
}
