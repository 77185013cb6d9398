// Package regbus implements single-cycle 32-bit register access to the
// AXI-QSPI controller's MMIO window, as exposed by the host device
// collaborator (a PCIe BAR or an equivalent mapped window).
package regbus

import (
	"encoding/binary"
	"fmt"
)

// MMIO is the external collaborator that performs the actual memory-mapped
// I/O against the controller's PCIe BAR. It is intentionally as small as the
// register bus needs: callers own discovery, mapping and teardown.
type MMIO interface {
	Read(offset uint64, buf []byte, n int) error
	Write(offset uint64, buf []byte, n int) error
}

// Register offsets within the AXI-QSPI controller, relative to Bus.base.
const (
	OffsetSoftReset     = 0x40 // SRR, software reset register
	OffsetControl       = 0x60 // CR
	OffsetStatus        = 0x64 // SR
	OffsetDataTransmit  = 0x68 // DTR
	OffsetDataReceive   = 0x6C // DRR
	OffsetSlaveSelect   = 0x70 // SSR
	OffsetTxFIFOOccupy  = 0x74 // TFO
	OffsetRxFIFOOccupy  = 0x78 // RFO
	SoftResetMagic      = 0x0000000A
	DefaultBaseAddress  = 0x040000
)

// Control register bits.
const (
	CtrlLoopback     uint32 = 1 << 0
	CtrlEnable       uint32 = 1 << 1
	CtrlMasterMode   uint32 = 1 << 2
	CtrlCPOL         uint32 = 1 << 3
	CtrlCPHA         uint32 = 1 << 4
	CtrlTxFIFOReset  uint32 = 1 << 5
	CtrlRxFIFOReset  uint32 = 1 << 6
	CtrlManualSS     uint32 = 1 << 7
	CtrlTransInhibit uint32 = 1 << 8
	CtrlLSBFirst     uint32 = 1 << 9
)

// Status register bits.
const (
	StatusRxEmpty      uint32 = 1 << 0
	StatusRxFull       uint32 = 1 << 1
	StatusTxEmpty      uint32 = 1 << 2
	StatusTxFull       uint32 = 1 << 3
	StatusModeFault    uint32 = 1 << 4
	StatusSlaveMode    uint32 = 1 << 5
	StatusCPOLCPHAErr  uint32 = 1 << 6
	StatusSlaveModeErr uint32 = 1 << 7
	StatusMSBErr       uint32 = 1 << 8
	StatusLoopbackErr  uint32 = 1 << 9
	StatusCmdErr       uint32 = 1 << 10
)

// StartState is the control register value the controller must be put in
// before any command sequence: transaction inhibited, slave select held
// manual, both FIFOs reset, system and master mode enabled.
const StartState = CtrlTransInhibit | CtrlManualSS | CtrlRxFIFOReset | CtrlTxFIFOReset | CtrlEnable | CtrlMasterMode

// Bus performs 32-bit register reads and writes at base+offset against the
// MMIO collaborator.
type Bus struct {
	mmio MMIO
	base uint64
}

// New builds a Bus rooted at base. A base of 0 falls back to
// DefaultBaseAddress, for when the device cannot report its own BAR offset.
func New(mmio MMIO, base uint64) *Bus {
	if base == 0 {
		base = DefaultBaseAddress
	}
	return &Bus{mmio: mmio, base: base}
}

func (b *Bus) Read32(offset uint32) (uint32, error) {
	var buf [4]byte
	if err := b.mmio.Read(b.base+uint64(offset), buf[:], 4); err != nil {
		return 0, fmt.Errorf("regbus: read offset 0x%x: %w", offset, err)
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func (b *Bus) Write32(offset uint32, value uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], value)
	if err := b.mmio.Write(b.base+uint64(offset), buf[:], 4); err != nil {
		return fmt.Errorf("regbus: write offset 0x%x: %w", offset, err)
	}
	return nil
}

// Control reads the control register.
func (b *Bus) Control() (uint32, error) { return b.Read32(OffsetControl) }

// SetControl writes the control register.
func (b *Bus) SetControl(v uint32) error { return b.Write32(OffsetControl, v) }

// Status reads the status register.
func (b *Bus) Status() (uint32, error) { return b.Read32(OffsetStatus) }

// SoftReset resets the AXI-QSPI IP core and re-applies StartState.
func (b *Bus) SoftReset() error {
	if err := b.Write32(OffsetSoftReset, SoftResetMagic); err != nil {
		return err
	}
	return b.SetControl(StartState)
}
