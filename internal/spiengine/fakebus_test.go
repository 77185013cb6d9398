package spiengine

import (
	"encoding/binary"

	"github.com/gentam/qflash/internal/regbus"
)

// fakeController is a software model of the AXI-QSPI register window good
// enough to drive Transfer: it shifts whatever sits in the simulated TX FIFO
// out to respond the moment the caller clears trans-inhibit, exactly the
// instant real silicon would start toggling SCK.
type fakeController struct {
	ctrl, ssr uint32
	tx, rx    []byte
	respond   func(sent byte, index int) byte
}

func newFakeController(respond func(sent byte, index int) byte) *fakeController {
	return &fakeController{respond: respond}
}

func (f *fakeController) status() uint32 {
	var s uint32
	if len(f.tx) == 0 {
		s |= regbus.StatusTxEmpty
	}
	if len(f.rx) == 0 {
		s |= regbus.StatusRxEmpty
	}
	return s
}

func (f *fakeController) Read(offset uint64, buf []byte, n int) error {
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

func (f *fakeController) Write(offset uint64, buf []byte, n int) error {
	v := binary.LittleEndian.Uint32(buf[:n])
	switch uint32(offset - regbus.DefaultBaseAddress) {
	case regbus.OffsetControl:
		wasInhibited := f.ctrl&regbus.CtrlTransInhibit != 0
		f.ctrl = v
		nowInhibited := f.ctrl&regbus.CtrlTransInhibit != 0
		if wasInhibited && !nowInhibited {
			for i, b := range f.tx {
				f.rx = append(f.rx, f.respond(b, i))
			}
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
