package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gentam/qflash"
	"github.com/gentam/qflash/internal/pcie"
)

// commonFlags are the device-location flags every subcommand but "device"
// accepts identically: which card to talk to and how to reach it.
type commonFlags struct {
	bar       string
	vendorID  uint
	driverDir string
	progress  bool
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.bar, "bar", "", "path to the PCIe BAR resource file (e.g. /sys/bus/pci/devices/0000:01:00.0/resource2)")
	fs.UintVar(&c.vendorID, "vendor", 0x10EE, "PCIe vendor ID to match when locating the card")
	fs.StringVar(&c.driverDir, "driver-dir", "", "directory containing the kernel driver's flash character device; empty forces the direct MMIO path")
	fs.BoolVar(&c.progress, "v", false, "print progress lines")
}

func (c *commonFlags) open() (*qflash.Device, error) {
	if c.bar == "" {
		return nil, fmt.Errorf("-bar is required")
	}
	identity, err := pcie.FindAccelerator(pcie.SysfsLister{}, uint16(c.vendorID))
	if err != nil {
		identity = pcie.Identity{VendorID: uint16(c.vendorID)}
	}

	mmio, err := qflash.OpenBAR(c.bar)
	if err != nil {
		return nil, err
	}

	return qflash.NewDevice(mmio, 0, identity, c.driverDir), nil
}

func (c *commonFlags) progressFunc() qflash.ProgressFunc {
	if !c.progress {
		return nil
	}
	return func(line string) { fmt.Fprintln(os.Stderr, line) }
}

// qflashProgrammer builds a Programmer over dev, wiring common's progress
// flag into it.
func qflashProgrammer(dev *qflash.Device, common *commonFlags) *qflash.Programmer {
	return qflash.NewProgrammer(dev, common.progressFunc())
}

func deviceCommand(args []string) {
	fs := flag.NewFlagSet("device", flag.ExitOnError)
	var vendorID uint
	fs.UintVar(&vendorID, "vendor", 0x10EE, "PCIe vendor ID to match when locating the card")
	fs.Parse(args)

	identity, err := pcie.FindAccelerator(pcie.SysfsLister{}, uint16(vendorID))
	if err != nil {
		fatalf("%v", err)
	}

	fmt.Printf("Name:      %s\n", identity.Name)
	fmt.Printf("Vendor ID: %#04x\n", identity.VendorID)
	fmt.Printf("Device ID: %#04x\n", identity.DeviceID)
	fmt.Printf("Dual QSPI: %v\n", pcie.IsDualQSPI(identity))
}
