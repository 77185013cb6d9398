// Package mcs parses Intel-HEX (MCS) firmware images into either a list of
// contiguous extents or a streamed sequence of page-oriented chunks.
package mcs

import (
	"strconv"
	"strings"

	"github.com/gentam/qflash/internal/qerr"
)

// Record types appearing in a Xilinx MCS file. Type 0x02 (extended segment
// address) is never emitted by the tooling that produces these images and is
// rejected here rather than interpreted.
const (
	RecordData                  = 0x00
	RecordEOF                   = 0x01
	RecordExtendedSegmentAddr   = 0x02
	RecordExtendedLinearAddress = 0x04
)

// line is one parsed ":LLAAAATTDD...CC" record. The checksum byte is not
// verified.
type line struct {
	recordType int
	address    uint32
	data       []byte
}

// splitLine parses a single Intel-HEX record. address carries the 16-bit
// offset for data records or the 16-bit high-address value for type 0x04
// records (already shifted into its final form is the caller's job, not
// this function's).
func splitLine(raw string) (line, error) {
	if len(raw) == 0 || raw[0] != ':' {
		return line{}, qerr.New(qerr.InvalidInput, "mcs line does not start with ':'")
	}
	if len(raw) < 9 {
		return line{}, qerr.New(qerr.InvalidInput, "mcs line too short")
	}

	dataLen, err := strconv.ParseUint(raw[1:3], 16, 8)
	if err != nil {
		return line{}, qerr.Wrap(qerr.InvalidInput, "mcs line length field", err)
	}
	addr, err := strconv.ParseUint(raw[3:7], 16, 16)
	if err != nil {
		return line{}, qerr.Wrap(qerr.InvalidInput, "mcs line address field", err)
	}
	recType, err := strconv.ParseUint(raw[7:9], 16, 8)
	if err != nil {
		return line{}, qerr.Wrap(qerr.InvalidInput, "mcs line type field", err)
	}

	l := line{recordType: int(recType), address: uint32(addr)}

	switch l.recordType {
	case RecordData:
		if dataLen > 16 {
			return line{}, qerr.New(qerr.InvalidInput, "mcs data record longer than 16 bytes")
		}
		if uint64(len(raw)) < 9+dataLen*2 {
			return line{}, qerr.New(qerr.InvalidInput, "mcs data record shorter than its length field declares")
		}
		hexData := raw[9 : 9+dataLen*2]
		data := make([]byte, dataLen)
		for i := range data {
			b, err := strconv.ParseUint(hexData[i*2:i*2+2], 16, 8)
			if err != nil {
				return line{}, qerr.Wrap(qerr.InvalidInput, "mcs data byte", err)
			}
			data[i] = byte(b)
		}
		l.data = data
	case RecordEOF:
	case RecordExtendedLinearAddress:
		if dataLen != 2 {
			return line{}, qerr.New(qerr.InvalidInput, "extended linear address record must carry 2 bytes")
		}
		if len(raw) < 13 {
			return line{}, qerr.New(qerr.InvalidInput, "extended linear address record shorter than its length field declares")
		}
		hi, err := strconv.ParseUint(raw[9:13], 16, 16)
		if err != nil {
			return line{}, qerr.Wrap(qerr.InvalidInput, "extended linear address value", err)
		}
		l.address = uint32(hi)
	default:
		return line{}, qerr.New(qerr.InvalidInput, "unsupported mcs record type "+strings.TrimSpace(raw[7:9]))
	}

	return l, nil
}
