// Package pcie exposes the PCIe identity query surface the core consumes to
// infer a dual-QSPI topology by filtering a PCIe device list.
package pcie

import "github.com/gentam/qflash/internal/qerr"

// Identity is the PCIe vendor/device ID pair a card collaborator reports.
// Revert-to-manufacturing policy selection by vendor ID stays a caller
// concern; this package only exposes the values that decision needs.
type Identity struct {
	VendorID uint16
	DeviceID uint16
	Name     string
}

// dualQSPIDeviceIDs are the accelerator card device IDs known to wire two
// physical QSPI flash chips in a nibble-striped stacked topology.
var dualQSPIDeviceIDs = map[uint16]bool{
	0xE987: true,
	0x6987: true,
	0xD030: true,
	0xF987: true,
}

// IsDualQSPI reports whether id's device ID identifies a dual-QSPI card.
func IsDualQSPI(id Identity) bool {
	return dualQSPIDeviceIDs[id.DeviceID]
}

// Lister supplies the set of PCIe identities a collaborator can see (e.g.
// every accelerator card enumerated on the host).
type Lister interface {
	All() []Identity
}

// FindAccelerator filters lister's identities down to the one matching
// vendorID, returning the first match. Errors with DeviceUnsupported if none
// match.
func FindAccelerator(lister Lister, vendorID uint16) (Identity, error) {
	for _, id := range lister.All() {
		if id.VendorID == vendorID {
			return id, nil
		}
	}
	return Identity{}, qerr.New(qerr.DeviceUnsupported, "no matching accelerator card found")
}
