// Package selftest implements the hardware bring-up exercise from the
// original tool's TEST_MODE: ID-code read, every register read, erase +
// readback and write + readback on two scratch sectors. It never runs as
// part of normal programming; callers opt in explicitly.
package selftest

import (
	"fmt"

	"github.com/gentam/qflash/internal/flashcmd"
	"github.com/gentam/qflash/internal/qerr"
)

// scratchSectors are the 128-Mbit sectors the self-test erases and
// reprograms; sectors 0 and 1 are left untouched so the test can run
// against a card that already has firmware on it.
var scratchSectors = []uint32{2, 3}

const sectorStride = 1 << 24

// Report carries a human-readable line per step performed, for the caller to
// print or log as it sees fit (the core itself does not print).
type Report struct {
	Lines []string
}

func (r *Report) logf(format string, args ...any) {
	r.Lines = append(r.Lines, fmt.Sprintf(format, args...))
}

// Run exercises cmds against the attached flash: ID read, the six register
// reads, then per scratch sector an erase+readback and four page
// write+readback cycles.
func Run(cmds *flashcmd.Commands) (*Report, error) {
	report := &Report{}

	if err := cmds.ReadIDCode(); err != nil {
		return report, qerr.Wrap(qerr.DeviceUnsupported, "self-test id-code read", err)
	}
	report.logf("id code ok: vendor=%s maxSectorCount=%d", cmds.Vendor(), cmds.MaxSectorCount())

	if _, err := cmds.ReadRegister(0x05, 2); err != nil {
		return report, err
	}
	report.logf("status register read ok")
	if _, err := cmds.FlagStatusRegister(); err != nil {
		return report, err
	}
	report.logf("flag status register read ok")
	if _, err := cmds.NonVolatileConfigRegister(); err != nil {
		return report, err
	}
	report.logf("non-volatile config register read ok")
	if _, err := cmds.VolatileConfigRegister(); err != nil {
		return report, err
	}
	report.logf("volatile config register read ok")
	if _, err := cmds.EnhancedVolatileConfigRegister(); err != nil {
		return report, err
	}
	report.logf("enhanced volatile config register read ok")
	if _, err := cmds.ReadExtendedAddressRegister(); err != nil {
		return report, err
	}
	report.logf("extended address register read ok")

	for _, sector := range scratchSectors {
		base := sector * sectorStride
		if err := cmds.SectorErase(base, flashcmd.Erase4KiB); err != nil {
			return report, err
		}
		if _, err := cmds.ReadPage(base); err != nil {
			return report, err
		}
		report.logf("sector %d erase+readback ok", sector)
	}

	for _, sector := range scratchSectors {
		base := sector * sectorStride
		for page := 0; page < 4; page++ {
			data := make([]byte, flashcmd.WriteDataSize)
			for i := range data {
				data[i] = byte(int(sector) + page + i)
			}
			addr := base + uint32(page*flashcmd.WriteDataSize)
			if err := cmds.WritePage(addr, data); err != nil {
				return report, err
			}
		}
		report.logf("sector %d write 4 pages ok", sector)
	}

	for _, sector := range scratchSectors {
		base := sector * sectorStride
		for page := 0; page < 4; page++ {
			addr := base + uint32(page*flashcmd.WriteDataSize)
			if _, err := cmds.ReadPage(addr); err != nil {
				return report, err
			}
		}
		report.logf("sector %d readback 4 pages ok", sector)
	}

	return report, nil
}
