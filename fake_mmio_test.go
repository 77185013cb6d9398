package qflash

import (
	"encoding/binary"

	"github.com/gentam/qflash/internal/regbus"
)

// fakeMMIO is a software model of the AXI-QSPI register window, shared by
// this package's tests: enough of the wire protocol to round-trip ID-code,
// register, erase, and page program/read opcodes against a two-chip,
// slave-select-addressed in-memory model.
type fakeMMIO struct {
	ctrl, ssr uint32
	tx, rx    []byte
	mem       [2]map[uint32]byte
	extAddr   [2]byte
	idBytes   [2][4]byte
}

func newFakeMMIO(idA, idB [4]byte) *fakeMMIO {
	f := &fakeMMIO{idBytes: [2][4]byte{idA, idB}}
	f.mem[0] = make(map[uint32]byte)
	f.mem[1] = make(map[uint32]byte)
	return f
}

// activeSlave returns the slave index selected by ssr's manual select mask
// (bit cleared == selected), defaulting to 0 when nothing is selected.
func (f *fakeMMIO) activeSlave() int {
	if f.ssr&(1<<0) == 0 {
		return 0
	}
	if f.ssr&(1<<1) == 0 {
		return 1
	}
	return 0
}

func (f *fakeMMIO) status() uint32 {
	var s uint32
	if len(f.tx) == 0 {
		s |= regbus.StatusTxEmpty
	}
	if len(f.rx) == 0 {
		s |= regbus.StatusRxEmpty
	}
	return s
}

func (f *fakeMMIO) Read(offset uint64, buf []byte, n int) error {
	var v uint32
	switch uint32(offset - regbus.DefaultBaseAddress) {
	case regbus.OffsetControl:
		v = f.ctrl
	case regbus.OffsetStatus:
		v = f.status()
	case regbus.OffsetSlaveSelect:
		v = f.ssr
	case regbus.OffsetDataReceive:
		if len(f.rx) > 0 {
			v = uint32(f.rx[0])
			f.rx = f.rx[1:]
		}
	}
	binary.LittleEndian.PutUint32(buf[:n], v)
	return nil
}

func (f *fakeMMIO) Write(offset uint64, buf []byte, n int) error {
	v := binary.LittleEndian.Uint32(buf[:n])
	switch uint32(offset - regbus.DefaultBaseAddress) {
	case regbus.OffsetControl:
		wasInhibited := f.ctrl&regbus.CtrlTransInhibit != 0
		f.ctrl = v
		nowInhibited := f.ctrl&regbus.CtrlTransInhibit != 0
		if wasInhibited && !nowInhibited && len(f.tx) > 0 {
			f.rx = append(f.rx, f.respondFrame(f.tx)...)
			f.tx = f.tx[:0]
		}
		if f.ctrl&regbus.CtrlRxFIFOReset != 0 {
			f.rx = nil
		}
		if f.ctrl&regbus.CtrlTxFIFOReset != 0 {
			f.tx = nil
		}
		// The FIFO reset bits are self-clearing, as on the real IP core.
		f.ctrl &^= regbus.CtrlRxFIFOReset | regbus.CtrlTxFIFOReset
	case regbus.OffsetDataTransmit:
		f.tx = append(f.tx, byte(v))
	case regbus.OffsetSlaveSelect:
		f.ssr = v
	case regbus.OffsetSoftReset:
		f.ctrl = 0
		f.tx, f.rx = nil, nil
	}
	return nil
}

const (
	cmdReadID      = 0x9F
	cmdStatusRead  = 0x05
	cmdEARRead     = 0xC8
	cmdEARWrite    = 0xC5
	cmdQuadWrite   = 0x32
	cmdQuadRead    = 0x6B
	dummyReadBytes = 4
)

func (f *fakeMMIO) respondFrame(frame []byte) []byte {
	slave := f.activeSlave()
	resp := make([]byte, len(frame))
	switch frame[0] {
	case cmdReadID:
		copy(resp[1:], f.idBytes[slave][:])
	case cmdStatusRead:
		resp[1] = 0
	case cmdEARRead:
		resp[1] = f.extAddr[slave]
	case cmdEARWrite:
		if len(frame) > 1 {
			f.extAddr[slave] = frame[1]
		}
	case cmdQuadRead:
		addr := uint32(frame[1])<<16 | uint32(frame[2])<<8 | uint32(frame[3])
		dataStart := 4 + dummyReadBytes
		for i := dataStart; i < len(frame); i++ {
			resp[i] = f.mem[slave][addr+uint32(i-dataStart)]
		}
	case cmdQuadWrite:
		addr := uint32(frame[1])<<16 | uint32(frame[2])<<8 | uint32(frame[3])
		for i, b := range frame[4:] {
			f.mem[slave][addr+uint32(i)] = b
		}
	}
	return resp
}

var micronIDBytes = [4]byte{0x20, 0xBA, 0x20, 0x18} // manufacturer 0x20 (Micron), capacity byte 0x20 -> 4 sectors
