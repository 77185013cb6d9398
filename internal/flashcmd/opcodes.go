package flashcmd

// Flash command opcodes, bit-exact with the AXI-QSPI controller's wire
// protocol.
const (
	cmdWriteEnable  = 0x06
	cmdPageProgram  = 0x02 // Macronix page program
	cmdQuadWrite    = 0x32 // Micron quad input fast program
	cmdErase4KB     = 0x20
	cmdErase32KB    = 0x52
	cmdErase64KB    = 0xD8
	cmdBulkErase    = 0xC7
	cmdReadID       = 0x9F
	cmdStatusRead   = 0x05
	cmdQuadRead     = 0x6B

	cmdFlagStatusRead          = 0x70
	cmdNonVolatileCfgRead      = 0xB5
	cmdVolatileCfgRead         = 0x85
	cmdEnhVolatileCfgRead      = 0x65
	cmdExtendedAddressRegRead  = 0xC8
	cmdExtendedAddressRegWrite = 0xC5
)

// QuadReadDummyBytes is the number of dummy bytes the quad-output fast read
// command inserts between the address phase and the data phase.
const QuadReadDummyBytes = 4

// EraseCmd names a sector-erase opcode by its granularity.
type EraseCmd byte

const (
	Erase4KiB  EraseCmd = cmdErase4KB
	Erase32KiB EraseCmd = cmdErase32KB
	Erase64KiB EraseCmd = cmdErase64KB
)
