// Package guard implements the bitstream-guard protocol: a sentinel
// configuration-engine program installed ahead of a firmware image so that a
// power loss or cancellation mid-flash leaves the card in a safe, non-booting
// state instead of loading a half-written bitstream.
package guard

import (
	"encoding/binary"

	"github.com/gentam/qflash/internal/flashcmd"
	"github.com/gentam/qflash/internal/qerr"
	"github.com/gentam/qflash/internal/striper"
)

// BlockSize is the 4 KiB subsector the guard occupies.
const BlockSize = 0x1000

// DefaultAddress is the single-flash guard placement. Dual-flash topologies
// halve it, since each physical chip only sees half the nibble-striped
// address space.
const DefaultAddress = 0x01002000

// AddrShift is how far real programming data is pushed down once a guard is
// installed, so the guard sits strictly before the bitstream it protects.
const AddrShift = 0x1000

// Guard sentinel words, little-endian as written to flash.
const (
	wordDummy     = 0xFFFFFFFF
	wordBuswidth1 = 0xBB000000
	wordBuswidth2 = 0x44002211
	wordSync      = 0x665599AA
	wordNoop      = 0x00000020
	wordTimer     = 0x01200230
	wordWdtEnable = 0x02000040
)

var sequence = []uint32{
	wordDummy, wordBuswidth1, wordBuswidth2, wordDummy, wordDummy,
	wordSync, wordNoop, wordTimer, wordWdtEnable, wordNoop, wordNoop,
}

// Address returns the guard's flash address for the given topology.
func Address(dual bool) uint32 {
	if dual {
		return DefaultAddress >> 1
	}
	return DefaultAddress
}

// page builds the flashcmd.WriteDataSize-byte guard page: the sentinel word
// sequence at the front, 0xFF padding for the rest.
func page() []byte {
	buf := make([]byte, flashcmd.WriteDataSize)
	for i := range buf {
		buf[i] = 0xFF
	}
	for i, w := range sequence {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], w)
	}
	return buf
}

// Install erases the guard's 4 KiB subsector on every chip in chips and
// writes the guard page at addr+WriteDataSize, striping it across chips when
// len(chips) == 2. chips must have length 1 (single-flash) or 2 (dual-flash,
// stacked).
func Install(chips []*flashcmd.Commands, addr uint32) error {
	switch len(chips) {
	case 1:
		if err := chips[0].SectorErase(addr, flashcmd.Erase4KiB); err != nil {
			return qerr.Wrap(qerr.GuardFailure, "erase guard subsector", err)
		}
		if err := chips[0].WritePage(addr+flashcmd.WriteDataSize, page()); err != nil {
			return qerr.Wrap(qerr.GuardFailure, "write guard page", err)
		}
		return nil

	case 2:
		halfA, halfB, err := striper.Stripe(page())
		if err != nil {
			return qerr.Wrap(qerr.GuardFailure, "stripe guard page", err)
		}
		halves := [2][]byte{halfA, halfB}
		for i, chip := range chips {
			if err := chip.SectorErase(addr, flashcmd.Erase4KiB); err != nil {
				return qerr.Wrap(qerr.GuardFailure, "erase guard subsector", err)
			}
			if err := chip.WritePage(addr+flashcmd.WriteDataSize, halves[i]); err != nil {
				return qerr.Wrap(qerr.GuardFailure, "write guard half-page", err)
			}
		}
		return nil

	default:
		return qerr.New(qerr.InvalidInput, "guard install requires 1 or 2 flash chips")
	}
}

// Remove erases the guard's 4 KiB subsector on every chip in chips, making
// the previously installed sentinel harmless so the real bitstream loads.
func Remove(chips []*flashcmd.Commands, addr uint32) error {
	for _, chip := range chips {
		if err := chip.SectorErase(addr, flashcmd.Erase4KiB); err != nil {
			return qerr.Wrap(qerr.GuardFailure, "erase guard subsector on removal", err)
		}
	}
	return nil
}
