package qflash

import (
	"fmt"
	"os"

	"github.com/gentam/qflash/internal/regbus"
)

// barFile implements regbus.MMIO over a PCIe BAR resource file, the sysfs
// mechanism Linux exposes at /sys/bus/pci/devices/<bdf>/resource<N> for
// userspace register access without a kernel driver.
type barFile struct {
	f *os.File
}

// OpenBAR opens path (typically a sysfs resourceN file) for MMIO access.
func OpenBAR(path string) (*barFile, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open bar file %s: %w", path, err)
	}
	return &barFile{f: f}, nil
}

func (b *barFile) Read(offset uint64, buf []byte, n int) error {
	_, err := b.f.ReadAt(buf[:n], int64(offset))
	return err
}

func (b *barFile) Write(offset uint64, buf []byte, n int) error {
	_, err := b.f.WriteAt(buf[:n], int64(offset))
	return err
}

func (b *barFile) Close() error { return b.f.Close() }

var _ regbus.MMIO = (*barFile)(nil)
