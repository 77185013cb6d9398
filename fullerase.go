package qflash

import "github.com/gentam/qflash/internal/flashcmd"

// fullEraseStep is the 32 KiB subsector granularity FullErase walks the
// address space at.
const fullEraseStep = 0x8000

// fullEraseBeat is how many erases occur between progress marks (every 128
// erases is 4 MiB at the 32 KiB step).
const fullEraseBeat = 128

// FullErase erases every sector of the flash attached to slave, from address
// 0 up to maxSectorCount<<24, failing fast on the first erase error. For a
// dual-flash device, call it once per slave (0 and 1).
func (p *Programmer) FullErase(slave int) error {
	if err := p.dev.Prepare(slave); err != nil {
		return err
	}
	cmds := p.dev.Commands(slave)

	p.logf("erasing flash %d", slave)
	limit := uint64(cmds.MaxSectorCount()) << 24
	beat := 0
	for addr := uint64(0); addr < limit; addr += fullEraseStep {
		if err := cmds.SectorErase(uint32(addr), flashcmd.Erase32KiB); err != nil {
			return err
		}
		beat++
		if beat%fullEraseBeat == 0 {
			p.logf("erased %d MiB on flash %d", (beat*fullEraseStep)>>20, slave)
		}
	}
	return nil
}
