package qflash

import (
	"fmt"
	"io"
	"time"

	"github.com/gentam/qflash/internal/flashcmd"
	"github.com/gentam/qflash/internal/guard"
	"github.com/gentam/qflash/internal/mcs"
	"github.com/gentam/qflash/internal/qerr"
	"github.com/gentam/qflash/internal/timing"
	"golang.org/x/sync/errgroup"
)

// ProgressFunc receives a human-readable progress line. A nil ProgressFunc
// discards progress (the core does not print directly).
type ProgressFunc func(string)

// Programmer orchestrates a full flashing session: guard install, erase,
// program, guard removal.
type Programmer struct {
	dev      *Device
	progress ProgressFunc
}

// NewProgrammer builds a Programmer over dev. progress may be nil.
func NewProgrammer(dev *Device, progress ProgressFunc) *Programmer {
	return &Programmer{dev: dev, progress: progress}
}

func (p *Programmer) logf(format string, args ...any) {
	if p.progress != nil {
		p.progress(fmt.Sprintf(format, args...))
	}
}

// Program flashes one MCS stream (single-flash) or two (dual-flash,
// stacked), choosing the direct MMIO or kernel-driver path according to
// dev.UsesDriverPath. streams must have length 1 for single-flash devices
// and exactly 2 for dual-flash devices.
func (p *Programmer) Program(streams ...io.ReadSeeker) error {
	if p.dev.Dual() && len(streams) != 2 {
		return qerr.New(qerr.InvalidInput, "dual-flash device requires exactly 2 mcs streams")
	}
	if !p.dev.Dual() && len(streams) != 1 {
		return qerr.New(qerr.InvalidInput, "single-flash device requires exactly 1 mcs stream")
	}

	if p.dev.UsesDriverPath() {
		return p.programDriver(streams)
	}
	return p.programDirect(streams)
}

// programDirect programs one or two flash chips addressed
// directly over the MMIO register window.
func (p *Programmer) programDirect(streams []io.ReadSeeker) error {
	extentsByStream, err := parseExtentsConcurrently(streams)
	if err != nil {
		return err
	}

	bitstreamStart := extentsByStream[0][0].StartAddress
	golden := bitstreamStart == 0

	for slave := range streams {
		if err := p.dev.Prepare(slave); err != nil {
			return err
		}
		p.logf("preparing flash chip %d", slave)
	}

	var addrShift uint32
	if !golden {
		addrShift = guard.AddrShift
		guardAddr := guard.Address(p.dev.Dual())
		chips := make([]*flashcmd.Commands, len(streams))
		for i := range streams {
			chips[i] = p.dev.Commands(i)
		}
		if err := guard.Install(chips, guardAddr); err != nil {
			return err
		}
		p.logf("enabled bitstream guard; bitstream will not load until flashing finishes")
	}

	for slave, s := range streams {
		extents := shiftExtents(extentsByStream[slave], addrShift)
		if err := p.eraseExtents(slave, extents); err != nil {
			return err
		}
		if err := p.programExtents(slave, s, extents); err != nil {
			return err
		}
	}

	if !golden {
		guardAddr := guard.Address(p.dev.Dual())
		chips := make([]*flashcmd.Commands, len(streams))
		for i := range streams {
			chips[i] = p.dev.Commands(i)
		}
		if err := guard.Remove(chips, guardAddr); err != nil {
			return err
		}
		p.logf("cleared bitstream guard; bitstream now active")
	}

	return nil
}

// parseExtentsConcurrently runs mcs.ParseExtents on every stream at once:
// extent discovery is pure validation over each stream's own bytes, so the
// two chips of a dual-flash card have nothing to share until programming
// itself begins, which stays strictly sequential per chip.
func parseExtentsConcurrently(streams []io.ReadSeeker) ([][]mcs.Extent, error) {
	extentsByStream := make([][]mcs.Extent, len(streams))
	var g errgroup.Group
	for i, s := range streams {
		i, s := i, s
		g.Go(func() error {
			extents, err := mcs.ParseExtents(s)
			if err != nil {
				return err
			}
			if len(extents) == 0 {
				return qerr.New(qerr.InvalidInput, "mcs stream has no extents")
			}
			extentsByStream[i] = extents
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return extentsByStream, nil
}

func shiftExtents(extents []mcs.Extent, shift uint32) []mcs.Extent {
	shifted := make([]mcs.Extent, len(extents))
	for i, e := range extents {
		e.StartAddress += shift
		e.EndAddress += shift
		shifted[i] = e
	}
	return shifted
}

// eraseExtents erases every 4 KiB subsector covering [StartAddress,
// EndAddress) for each extent.
func (p *Programmer) eraseExtents(slave int, extents []mcs.Extent) error {
	cmds := p.dev.Commands(slave)
	for _, e := range extents {
		for addr := e.StartAddress &^ (guard.BlockSize - 1); addr < e.EndAddress; addr += guard.BlockSize {
			if err := cmds.SectorErase(addr, flashcmd.Erase4KiB); err != nil {
				return err
			}
			time.Sleep(timing.AsDuration(timing.InterPageDelay))
		}
	}
	return nil
}

// programExtents streams each extent's data from r into 128-byte write
// buffers and issues a WritePage per buffer, padding the final short page
// with 0xFF.
func (p *Programmer) programExtents(slave int, r io.ReadSeeker, extents []mcs.Extent) error {
	cmds := p.dev.Commands(slave)
	for _, e := range extents {
		if e.DataCount == 0 {
			continue
		}
		if err := cmds.IsFlashReady(); err != nil {
			return err
		}

		pageIndex := 0
		buf := make([]byte, 0, flashcmd.WriteDataSize)
		flush := func(pad bool) error {
			if len(buf) == 0 {
				return nil
			}
			if pad {
				for len(buf) < flashcmd.WriteDataSize {
					buf = append(buf, 0xFF)
				}
			}
			addr := e.StartAddress + uint32(pageIndex*flashcmd.WriteDataSize)
			if err := cmds.WritePage(addr, buf); err != nil {
				return err
			}
			time.Sleep(timing.AsDuration(timing.InterPageDelay))
			pageIndex++
			buf = buf[:0]
			return nil
		}

		err := mcs.DecodeExtent(r, e, func(data []byte) error {
			buf = append(buf, data...)
			if len(buf) == flashcmd.WriteDataSize {
				return flush(false)
			}
			if len(buf) > flashcmd.WriteDataSize {
				return qerr.New(qerr.InvalidInput, "mcs data record overruns page buffer")
			}
			return nil
		})
		if err != nil {
			return err
		}
		if err := flush(true); err != nil {
			return err
		}
	}
	return nil
}
