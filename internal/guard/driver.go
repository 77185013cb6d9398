package guard

import "github.com/gentam/qflash/internal/flashcmd"

// Block builds the full BlockSize-byte guard block the driver path writes in
// one shot (the kernel driver performs its own erase-before-program, so
// there is no separate sector-erase step here, unlike the direct MMIO path).
// The sentinel sequence sits at the same offset the direct path uses
// (flashcmd.WriteDataSize), so a page of dummy words precedes the guard.
func Block() []byte {
	buf := make([]byte, BlockSize)
	for i := range buf {
		buf[i] = 0xFF
	}
	copy(buf[flashcmd.WriteDataSize:], page())
	return buf
}

// EraseFill returns a size-byte all-0xFF buffer used to blank the guard
// region on removal. size is BlockSize for single-flash, BlockSize/2 per
// chip for dual-flash (each physical chip only holds half the nibble-striped
// byte width).
func EraseFill(size int) []byte {
	buf := make([]byte, size)
	for i := range buf {
		buf[i] = 0xFF
	}
	return buf
}
