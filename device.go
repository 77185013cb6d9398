package qflash

import (
	"fmt"
	"io"
	"os"

	"github.com/gentam/qflash/internal/flashcmd"
	"github.com/gentam/qflash/internal/pcie"
	"github.com/gentam/qflash/internal/regbus"
	"github.com/gentam/qflash/internal/spiengine"
)

// flashDevicePath is the character-device endpoint the kernel driver exposes
// for the driver path.
const flashDevicePath = "flash"

// envDirectOverride forces the direct MMIO path even when the driver
// endpoint exists, via the FLASH_VIA_USER escape hatch.
const envDirectOverride = "FLASH_VIA_USER"

// Device wires a single card's register window and, optionally, its kernel
// driver endpoint, to the flash command and transfer layers. It owns no
// hardware state beyond what those layers already track.
type Device struct {
	Identity pcie.Identity

	bus       *regbus.Bus
	eng       [2]*spiengine.Engine
	cmds      [2]*flashcmd.Commands
	driverDir string
	driver    [2]*os.File
	dual      bool
}

// NewDevice builds a Device over mmio, detecting the dual-QSPI topology from
// identity and deriving base from regbus.DefaultBaseAddress when base == 0.
// driverDir, if non-empty, is the directory the kernel's "flash" character
// device lives under; an empty driverDir forces the direct MMIO path.
func NewDevice(mmio regbus.MMIO, base uint64, identity pcie.Identity, driverDir string) *Device {
	bus := regbus.New(mmio, base)
	d := &Device{
		Identity:  identity,
		bus:       bus,
		driverDir: driverDir,
		dual:      pcie.IsDualQSPI(identity),
	}
	for i := range d.eng {
		d.eng[i] = spiengine.New(bus)
		d.eng[i].SetSlave(i)
		d.cmds[i] = flashcmd.New(d.eng[i])
	}
	return d
}

// Dual reports whether this device is a dual-QSPI (stacked) topology.
func (d *Device) Dual() bool { return d.dual }

// UsesDriverPath reports whether programming should go through the kernel
// character device rather than direct register I/O, honoring the
// FLASH_VIA_USER override.
func (d *Device) UsesDriverPath() bool {
	if d.driverDir == "" {
		return false
	}
	return os.Getenv(envDirectOverride) == ""
}

// Commands returns the FlashCommands driver for slave (0 or 1).
func (d *Device) Commands(slave int) *flashcmd.Commands {
	return d.cmds[slave]
}

// Prepare soft-resets the controller, re-applies the start-state control
// word, invalidates the cached EAR selection, and detects the attached
// flash's vendor/sector count on slave.
func (d *Device) Prepare(slave int) error {
	if err := d.bus.SoftReset(); err != nil {
		return err
	}
	d.cmds[slave].InvalidateSector()
	if err := d.cmds[slave].ReadIDCode(); err != nil {
		return fmt.Errorf("prepare slave %d: %w", slave, err)
	}
	return nil
}

// openDriver opens the character-device endpoint for slave, reusing the
// handle on later calls.
func (d *Device) openDriver(slave int) (*os.File, error) {
	if d.driver[slave] != nil {
		return d.driver[slave], nil
	}
	path := d.driverDir + string(os.PathSeparator) + flashDevicePath
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open driver flash endpoint: %w", err)
	}
	d.driver[slave] = f
	return f, nil
}

// driverSeekAddr constructs the 64-bit seek address as (slave<<56)|offset,
// the scheme the kernel driver uses to route a single character device
// across two physical chips.
func driverSeekAddr(slave int, offset uint32) int64 {
	return (int64(slave) << 56) | int64(offset)
}

// writeAtDriver seeks to (slave, offset) on the driver endpoint and writes
// data in full.
func (d *Device) writeAtDriver(slave int, offset uint32, data []byte) error {
	f, err := d.openDriver(slave)
	if err != nil {
		return err
	}
	if _, err := f.Seek(driverSeekAddr(slave, offset), io.SeekStart); err != nil {
		return fmt.Errorf("seek driver flash endpoint: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write driver flash endpoint: %w", err)
	}
	return nil
}

// Close releases any open driver endpoints.
func (d *Device) Close() error {
	var firstErr error
	for i, f := range d.driver {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		d.driver[i] = nil
	}
	return firstErr
}
