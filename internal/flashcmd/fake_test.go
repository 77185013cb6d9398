package flashcmd

import (
	"encoding/binary"

	"github.com/gentam/qflash/internal/regbus"
	"github.com/gentam/qflash/internal/spiengine"
)

// fakeFlash is a software model of a NOR flash attached through the
// AXI-QSPI register window: enough of the wire protocol to round-trip
// ID-code, sector-register, and page program/read opcodes against an
// in-memory byte map, without any real hardware.
type fakeFlash struct {
	ctrl, ssr  uint32
	tx, rx     []byte
	mem        map[uint32]byte
	extAddrReg byte
	idBytes    [4]byte // JEDEC manufacturer byte + 3 capacity bytes
}

func newFakeFlash(idBytes [4]byte) *fakeFlash {
	return &fakeFlash{mem: make(map[uint32]byte), idBytes: idBytes}
}

func (f *fakeFlash) status() uint32 {
	var s uint32
	if len(f.tx) == 0 {
		s |= regbus.StatusTxEmpty
	}
	if len(f.rx) == 0 {
		s |= regbus.StatusRxEmpty
	}
	return s
}

func (f *fakeFlash) Read(offset uint64, buf []byte, n int) error {
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

func (f *fakeFlash) Write(offset uint64, buf []byte, n int) error {
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

// respondFrame decodes the opcode in frame[0] and returns the full-duplex
// response, applying any write side effect (page program, register write)
// to the in-memory model as it goes.
func (f *fakeFlash) respondFrame(frame []byte) []byte {
	resp := make([]byte, len(frame))
	switch frame[0] {
	case cmdReadID:
		copy(resp[1:], f.idBytes[:])
	case cmdStatusRead:
		resp[1] = 0 // always ready
	case cmdExtendedAddressRegRead:
		resp[1] = f.extAddrReg
	case cmdExtendedAddressRegWrite:
		if len(frame) > 1 {
			f.extAddrReg = frame[1]
		}
	case cmdQuadRead:
		addr := uint32(frame[1])<<16 | uint32(frame[2])<<8 | uint32(frame[3])
		dataStart := 4 + QuadReadDummyBytes
		for i := dataStart; i < len(frame); i++ {
			resp[i] = f.mem[addr+uint32(i-dataStart)]
		}
	case cmdPageProgram, cmdQuadWrite:
		addr := uint32(frame[1])<<16 | uint32(frame[2])<<8 | uint32(frame[3])
		for i, b := range frame[4:] {
			f.mem[addr+uint32(i)] = b
		}
	}
	return resp
}

func newTestCommands(idBytes [4]byte) (*Commands, *fakeFlash) {
	fake := newFakeFlash(idBytes)
	bus := regbus.New(fake, 0)
	bus.SoftReset()
	eng := spiengine.New(bus)
	return New(eng), fake
}
