package pcie

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// SysfsLister enumerates PCIe devices from Linux's /sys/bus/pci/devices tree,
// the same discovery surface lspci reads.
type SysfsLister struct {
	Root string // defaults to /sys/bus/pci/devices when empty
}

func (s SysfsLister) root() string {
	if s.Root != "" {
		return s.Root
	}
	return "/sys/bus/pci/devices"
}

// All implements Lister by reading each device directory's vendor/device
// attribute files.
func (s SysfsLister) All() []Identity {
	entries, err := os.ReadDir(s.root())
	if err != nil {
		return nil
	}
	var out []Identity
	for _, e := range entries {
		dir := filepath.Join(s.root(), e.Name())
		vendor, ok := readHexAttr(filepath.Join(dir, "vendor"))
		if !ok {
			continue
		}
		device, ok := readHexAttr(filepath.Join(dir, "device"))
		if !ok {
			continue
		}
		out = append(out, Identity{
			VendorID: vendor,
			DeviceID: device,
			Name:     e.Name(),
		})
	}
	return out
}

func readHexAttr(path string) (uint16, bool) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	s := strings.TrimSpace(string(raw))
	s = strings.TrimPrefix(s, "0x")
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, false
	}
	return uint16(v), true
}
