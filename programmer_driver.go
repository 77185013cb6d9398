package qflash

import (
	"io"

	"github.com/gentam/qflash/internal/guard"
	"github.com/gentam/qflash/internal/mcs"
	"github.com/gentam/qflash/internal/qerr"
	"github.com/gentam/qflash/internal/striper"
)

// programDriver orchestrates programming through the kernel
// character-device endpoint instead of direct register I/O.
func (p *Programmer) programDriver(streams []io.ReadSeeker) error {
	golden, err := mcs.IsGolden(streams[0])
	if err != nil {
		return err
	}

	var addrShift uint32
	if !golden {
		addrShift = guard.AddrShift
		if err := p.installGuardDriver(); err != nil {
			return err
		}
		p.logf("enabled bitstream guard; bitstream will not load until flashing finishes")
	}

	for slave, s := range streams {
		p.logf("writing bitstream to flash %d", slave)
		if err := p.streamChunksToDriver(slave, s, addrShift); err != nil {
			return err
		}
	}

	if !golden {
		if err := p.removeGuardDriver(); err != nil {
			return err
		}
		p.logf("cleared bitstream guard; bitstream now active")
	}

	return nil
}

// streamChunksToDriver parses s in streamed mode and writes each contiguous
// chunk directly through the driver endpoint, page by page.
func (p *Programmer) streamChunksToDriver(slave int, s io.ReadSeeker, addrShift uint32) error {
	if _, err := s.Seek(0, io.SeekStart); err != nil {
		return qerr.Wrap(qerr.IoError, "seek mcs stream", err)
	}
	return mcs.StreamChunks(s, func(chunk mcs.Chunk) error {
		addr := chunk.Addr + addrShift
		for i := 0; i < len(chunk.Data); {
			pageOff := int((addr + uint32(i)) % driverPageSize)
			n := int(driverPageSize) - pageOff
			if n > len(chunk.Data)-i {
				n = len(chunk.Data) - i
			}
			if err := p.dev.writeAtDriver(slave, addr+uint32(i), chunk.Data[i:i+n]); err != nil {
				return qerr.Wrap(qerr.IoError, "write bitstream chunk to driver", err)
			}
			i += n
		}
		return nil
	})
}

// driverPageSize is the granularity the driver path writes its data in: each
// chunk is split into writes that do not cross a driverPageSize boundary.
const driverPageSize = 256

func (p *Programmer) installGuardDriver() error {
	guardAddr := guard.Address(p.dev.Dual())
	if !p.dev.Dual() {
		return p.dev.writeAtDriver(0, guardAddr, guard.Block())
	}

	halfA, halfB, err := striper.Stripe(guard.Block())
	if err != nil {
		return qerr.Wrap(qerr.GuardFailure, "stripe driver guard block", err)
	}
	if err := p.dev.writeAtDriver(0, guardAddr, halfA); err != nil {
		return qerr.Wrap(qerr.GuardFailure, "install guard on flash 0", err)
	}
	if err := p.dev.writeAtDriver(1, guardAddr, halfB); err != nil {
		return qerr.Wrap(qerr.GuardFailure, "install guard on flash 1", err)
	}
	return nil
}

func (p *Programmer) removeGuardDriver() error {
	guardAddr := guard.Address(p.dev.Dual())
	if !p.dev.Dual() {
		return p.dev.writeAtDriver(0, guardAddr, guard.EraseFill(guard.BlockSize))
	}

	fill := guard.EraseFill(guard.BlockSize / 2)
	if err := p.dev.writeAtDriver(0, guardAddr, fill); err != nil {
		return qerr.Wrap(qerr.GuardFailure, "remove guard on flash 0", err)
	}
	if err := p.dev.writeAtDriver(1, guardAddr, fill); err != nil {
		return qerr.Wrap(qerr.GuardFailure, "remove guard on flash 1", err)
	}
	return nil
}
