// Package flashcmd implements typed wrappers for the NOR flash's opcode set:
// write-enable, status polling, ID-code read, sector erase, page program,
// page read, register I/O, and extended-address-register (sector) select.
package flashcmd

import (
	"fmt"
	"time"

	"github.com/gentam/qflash/internal/qerr"
	"github.com/gentam/qflash/internal/spiengine"
	"github.com/gentam/qflash/internal/timing"
	"periph.io/x/conn/v3/physic"
)

// UnsetSector is the sentinel selectedSector value after a controller reset,
// guaranteeing the next SetSector call always writes the EAR.
const UnsetSector = -1

// WriteDataSize is the page-program payload size used in the hot path: half
// of the flash's 256-byte physical page. The caller issues two of these per
// physical page.
const WriteDataSize = 128

// addrPrefixBytes is the 24-bit command address width this system targets
// (4-byte addressing is out of scope).
const addrPrefixBytes = 3

// Commands wraps the transfer primitive with flash-opcode semantics and the
// small amount of controller state (selected sector, detected vendor,
// sector count) that a programming session owns exclusively.
type Commands struct {
	eng            *spiengine.Engine
	selectedSector int
	vendor         Vendor
	maxSectorCount int
}

// New builds a Commands driver over eng with no sector selected and no
// vendor detected yet.
func New(eng *spiengine.Engine) *Commands {
	return &Commands{eng: eng, selectedSector: UnsetSector}
}

// InvalidateSector forces the next SetSector call to (re)write the EAR,
// matching the controller's own reset invalidation.
//
// Bulk erase does not invalidate the cache:
// callers should not rely on the cache surviving a bulk erase across
// sessions, but Commands itself never clears it on BulkErase.
func (c *Commands) InvalidateSector() { c.selectedSector = UnsetSector }

// Vendor returns the vendor detected by the last successful ReadIDCode.
func (c *Commands) Vendor() Vendor { return c.vendor }

// MaxSectorCount returns the 128-Mbit sector count decoded by the last
// successful ReadIDCode.
func (c *Commands) MaxSectorCount() int { return c.maxSectorCount }

func addressBytes(addr uint32) [addrPrefixBytes]byte {
	return [addrPrefixBytes]byte{byte(addr >> 16), byte(addr >> 8), byte(addr)}
}

// WriteEnable sends the write-enable opcode and waits for tx-empty. Fails if
// the TX FIFO was already full before the send.
func (c *Commands) WriteEnable() error {
	status, err := c.eng.Status()
	if err != nil {
		return err
	}
	const statusTxFull = 1 << 3
	if status&statusTxFull != 0 {
		return qerr.New(qerr.ControllerError, "tx fifo full during write-enable")
	}
	if err := c.eng.ApplyStartState(); err != nil {
		return err
	}
	if err := c.eng.Transfer([]byte{cmdWriteEnable}, nil, 1); err != nil {
		return err
	}
	return c.eng.WaitTxEmpty()
}

// IsFlashReady polls the status register (byte[1] bit 0) for up to 3 seconds,
// returning nil once the flash reports not-busy and qerr.Timeout otherwise.
func (c *Commands) IsFlashReady() error {
	deadline := time.Now().Add(timing.AsDuration(timing.PollTimeout))
	for {
		resp := make([]byte, 2)
		if err := c.eng.Transfer([]byte{cmdStatusRead, 0}, resp, 2); err != nil {
			return err
		}
		if resp[1]&0x01 == 0 {
			return nil
		}
		if time.Now().After(deadline) {
			return qerr.New(qerr.Timeout, "flash did not become ready")
		}
		time.Sleep(timing.AsDuration(timing.PollInterval))
	}
}

// completionWait pre-sleeps the vendor's datasheet-estimated completion time
// for the operation just issued, then falls back to the same status-register
// poll IsFlashReady always does — cutting the number of wasted polls on a
// part that is known to be slow (bulk erase) without weakening the 3-second
// ceiling IsFlashReady enforces regardless of vendor.
func (c *Commands) completionWait(estimate physic.Duration) error {
	if estimate > 0 {
		pre := timing.AsDuration(estimate)
		if cap := 2 * time.Second; pre > cap {
			pre = cap
		}
		time.Sleep(pre)
	}
	return c.IsFlashReady()
}

// ReadIDCode reads the JEDEC ID (throwaway read, then the real read, to work
// around a hardware quirk where the first frame after a reset echoes stale
// FIFO contents), classifies the vendor and decodes the maximum sector
// count. The all-0xFF check runs once, on the freshly read bytes.
func (c *Commands) ReadIDCode() error {
	resp := make([]byte, 5)
	if err := c.eng.Transfer([]byte{cmdReadID, 0, 0, 0, 0}, resp, 5); err != nil {
		return err
	}
	if err := c.eng.Transfer([]byte{cmdReadID, 0, 0, 0, 0}, resp, 5); err != nil {
		return err
	}

	allFF := true
	for _, b := range resp[1:] {
		if b != 0xFF {
			allFF = false
			break
		}
	}
	if allFF || resp[3] == 0xFF {
		return qerr.New(qerr.DeviceUnsupported, "id-code read returned all-0xFF response")
	}

	switch resp[1] {
	case jedecMicron:
		c.vendor = VendorMicron
	case jedecMacronix:
		c.vendor = VendorMacronix
	default:
		c.vendor = VendorUnknown
	}

	count, ok := sectorCountByCapacityByte[resp[3]]
	if !ok {
		return qerr.New(qerr.DeviceUnsupported, fmt.Sprintf("unrecognized capacity byte 0x%02x", resp[3]))
	}
	c.maxSectorCount = count
	return nil
}

func getSector(addr uint32) int { return int((addr >> 24) & 0xF) }

// SetSector writes the Extended Address Register iff the address's sector
// differs from the cached selection.
func (c *Commands) SetSector(addr uint32) error {
	sector := getSector(addr)
	if sector >= c.maxSectorCount {
		return qerr.New(qerr.InvalidInput, fmt.Sprintf("sector %d exceeds max sector count %d (addr 0x%x)", sector, c.maxSectorCount, addr))
	}
	if sector == c.selectedSector {
		return nil
	}
	if err := c.WriteRegister(cmdExtendedAddressRegWrite, uint32(sector), 1); err != nil {
		return err
	}
	c.selectedSector = sector
	return nil
}

// SectorErase erases the sector (4KiB/32KiB/64KiB, per eraseCmd) containing
// addr.
func (c *Commands) SectorErase(addr uint32, eraseCmd EraseCmd) error {
	if err := c.IsFlashReady(); err != nil {
		return err
	}
	if err := c.SetSector(addr); err != nil {
		return err
	}
	if err := c.WriteEnable(); err != nil {
		return err
	}
	if err := c.eng.ResetFIFOs(); err != nil {
		return err
	}

	ab := addressBytes(addr)
	send := []byte{byte(eraseCmd), ab[0], ab[1], ab[2]}
	if err := c.eng.Transfer(send, nil, len(send)); err != nil {
		return err
	}
	if err := c.eng.WaitTxEmpty(); err != nil {
		return err
	}

	p := timing.ForVendor(c.vendor.String())
	var estimate physic.Duration
	switch eraseCmd {
	case Erase4KiB:
		estimate = p.Erase4KB
	case Erase32KiB:
		estimate = p.Erase32KB
	case Erase64KiB:
		estimate = p.Erase64KB
	}
	return c.completionWait(estimate)
}

// BulkErase erases the entire flash chip.
func (c *Commands) BulkErase() error {
	if err := c.IsFlashReady(); err != nil {
		return err
	}
	if err := c.WriteEnable(); err != nil {
		return err
	}
	if err := c.eng.Transfer([]byte{cmdBulkErase}, nil, 1); err != nil {
		return err
	}
	if err := c.eng.WaitTxEmpty(); err != nil {
		return err
	}
	return c.completionWait(timing.ForVendor(c.vendor.String()).BulkErase)
}

// WritePage programs up to WriteDataSize bytes at addr. data longer than
// WriteDataSize is an invalid-input error; shorter data is the caller's
// responsibility to pad (the programmer pads the final short page with
// 0xFF).
func (c *Commands) WritePage(addr uint32, data []byte) error {
	if len(data) > WriteDataSize {
		return qerr.New(qerr.InvalidInput, fmt.Sprintf("write data length %d exceeds page size %d", len(data), WriteDataSize))
	}
	if err := c.IsFlashReady(); err != nil {
		return err
	}
	if err := c.SetSector(addr); err != nil {
		return err
	}
	if err := c.WriteEnable(); err != nil {
		return err
	}
	if err := c.eng.ApplyStartState(); err != nil {
		return err
	}

	ab := addressBytes(addr)
	send := make([]byte, 0, addrPrefixBytes+1+len(data))
	send = append(send, c.vendor.WriteCmd(), ab[0], ab[1], ab[2])
	send = append(send, data...)

	recv := make([]byte, len(send))
	if err := c.eng.Transfer(send, recv, len(send)); err != nil {
		return err
	}
	if err := c.eng.WaitTxEmpty(); err != nil {
		return err
	}
	return c.completionWait(timing.ForVendor(c.vendor.String()).PageProgram)
}

// ReadPage reads WriteDataSize bytes plus the read command's dummy bytes
// starting at addr, using the quad-output fast read opcode.
func (c *Commands) ReadPage(addr uint32) ([]byte, error) {
	if err := c.IsFlashReady(); err != nil {
		return nil, err
	}
	if err := c.SetSector(addr); err != nil {
		return nil, err
	}
	if err := c.eng.ApplyStartState(); err != nil {
		return nil, err
	}

	ab := addressBytes(addr)
	prefix := []byte{cmdQuadRead, ab[0], ab[1], ab[2]}
	total := len(prefix) + WriteDataSize + QuadReadDummyBytes
	send := make([]byte, total) // trailing bytes are don't-care clock fill
	copy(send, prefix)
	recv := make([]byte, total)
	if err := c.eng.Transfer(send, recv, total); err != nil {
		return nil, err
	}
	if err := c.eng.WaitTxEmpty(); err != nil {
		return nil, err
	}
	if err := c.eng.ResetFIFOs(); err != nil {
		return nil, err
	}
	return recv[len(prefix)+QuadReadDummyBytes:], nil
}

// ReadRegister sends commandCode and reads back n bytes.
func (c *Commands) ReadRegister(commandCode byte, n int) ([]byte, error) {
	if err := c.IsFlashReady(); err != nil {
		return nil, err
	}
	send := make([]byte, n)
	send[0] = commandCode
	recv := make([]byte, n)
	if err := c.eng.Transfer(send, recv, n); err != nil {
		return nil, err
	}
	if err := c.eng.ResetFIFOs(); err != nil {
		return nil, err
	}
	return recv, nil
}

// WriteRegister sends commandCode followed by extraBytes bytes of value
// (0, 1, or 2 extra bytes; more is a programming error in this driver).
func (c *Commands) WriteRegister(commandCode byte, value uint32, extraBytes int) error {
	if err := c.IsFlashReady(); err != nil {
		return err
	}
	if err := c.WriteEnable(); err != nil {
		return err
	}
	if err := c.eng.ResetFIFOs(); err != nil {
		return err
	}

	send := make([]byte, 1+extraBytes)
	send[0] = commandCode
	switch extraBytes {
	case 0:
	case 1:
		send[1] = byte(value)
	case 2:
		send[1] = byte(value >> 8)
		send[2] = byte(value)
	default:
		return qerr.New(qerr.InvalidInput, fmt.Sprintf("writeRegister: unsupported extraBytes %d", extraBytes))
	}

	if err := c.eng.Transfer(send, nil, len(send)); err != nil {
		return err
	}
	return c.eng.WaitTxEmpty()
}

// ReadExtendedAddressRegister reads back the EAR value the device currently
// has latched, used by the hardware self-test to confirm a SetSector write
// landed.
func (c *Commands) ReadExtendedAddressRegister() (byte, error) {
	resp, err := c.ReadRegister(cmdExtendedAddressRegRead, 2)
	if err != nil {
		return 0, err
	}
	return resp[1], nil
}

// FlagStatusRegister, NonVolatileConfigRegister, VolatileConfigRegister, and
// EnhancedVolatileConfigRegister are the extra register reads the hardware
// self-test exercises (spec_full supplemented feature 6).
func (c *Commands) FlagStatusRegister() ([]byte, error) {
	return c.ReadRegister(cmdFlagStatusRead, 2)
}

func (c *Commands) NonVolatileConfigRegister() ([]byte, error) {
	return c.ReadRegister(cmdNonVolatileCfgRead, 4)
}

func (c *Commands) VolatileConfigRegister() ([]byte, error) {
	return c.ReadRegister(cmdVolatileCfgRead, 2)
}

func (c *Commands) EnhancedVolatileConfigRegister() ([]byte, error) {
	return c.ReadRegister(cmdEnhVolatileCfgRead, 2)
}
