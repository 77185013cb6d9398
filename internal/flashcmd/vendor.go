package flashcmd

// Vendor identifies the JEDEC manufacturer of the attached flash, decoded
// from the ID-code response's manufacturer byte.
type Vendor int

const (
	VendorUnknown Vendor = iota
	VendorMicron
	VendorMacronix
)

const (
	jedecMicron   = 0x20
	jedecMacronix = 0xC2
)

func (v Vendor) String() string {
	switch v {
	case VendorMicron:
		return "micron"
	case VendorMacronix:
		return "macronix"
	default:
		return "unknown"
	}
}

// WriteCmd returns the page-program opcode for this vendor: plain page
// program for Macronix, quad input fast program for Micron.
func (v Vendor) WriteCmd() byte {
	if v == VendorMacronix {
		return cmdPageProgram
	}
	return cmdQuadWrite
}

// sectorCountByCapacityByte maps the ID-code response's capacity byte
// (byte[3]) to the number of 128-Mbit sectors the part exposes.
var sectorCountByCapacityByte = map[byte]int{
	0x38: 1, 0x17: 1, 0x18: 1,
	0x39: 2, 0x19: 2,
	0x3A: 4, 0x20: 4,
	0x3B: 8, 0x21: 8,
	0x3C: 16, 0x22: 16,
}
