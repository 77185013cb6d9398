// Package timing holds the empirical AC-characteristic delays the flash
// datasheets call for, keyed per vendor since this system classifies flash
// by JEDEC vendor byte rather than by full JEDEC ID (see flashcmd.Vendor).
// Durations are expressed as physic.Duration and converted to time.Duration
// only at the point of use (time.Sleep, poll deadlines).
package timing

import (
	"time"

	"periph.io/x/conn/v3/physic"
)

// Params holds one set of AC timing constants per known vendor.
type Params struct {
	Name string

	PageProgram physic.Duration // tPP: page program cycle time
	Erase4KB    physic.Duration // tSSE: subsector erase cycle time
	Erase32KB   physic.Duration
	Erase64KB   physic.Duration // tSE: sector erase cycle time
	BulkErase   physic.Duration // tBE: bulk erase cycle time
}

const (
	// PollInterval is the busy-wait tick used while polling tx-empty or
	// flash-ready; the 3s ceiling is enforced by the caller's deadline, not
	// by this interval.
	PollInterval = 5 * physic.Microsecond

	// PollTimeout is the 3 second ceiling on both waitTxEmpty and
	// isFlashReady.
	PollTimeout = 3 * physic.Second

	// InterPageDelay is the empirical delay inserted between page writes.
	// Preserve as-is; the value is not derived from any datasheet constant.
	InterPageDelay = 20 * physic.Microsecond
)

var byVendor = map[string]Params{
	"micron": {
		Name:        "Micron",
		PageProgram: 5 * physic.Millisecond,
		Erase4KB:    800 * physic.Millisecond,
		Erase32KB:   800 * physic.Millisecond,
		Erase64KB:   3 * physic.Second,
		BulkErase:   60 * physic.Second,
	},
	"macronix": {
		Name:        "Macronix",
		PageProgram: 3 * physic.Millisecond,
		Erase4KB:    400 * physic.Millisecond,
		Erase32KB:   700 * physic.Millisecond,
		Erase64KB:   2 * physic.Second,
		BulkErase:   200 * physic.Second,
	},
}

// ForVendor returns the AC timing table for a known vendor key
// ("micron"/"macronix"), or the maximum across all known vendors when the
// vendor is unrecognized, so callers never block on an under-estimated
// deadline.
func ForVendor(vendor string) Params {
	if p, ok := byVendor[vendor]; ok {
		return p
	}
	var max Params
	max.Name = "unknown (max of known)"
	for _, p := range byVendor {
		max.PageProgram = maxDur(max.PageProgram, p.PageProgram)
		max.Erase4KB = maxDur(max.Erase4KB, p.Erase4KB)
		max.Erase32KB = maxDur(max.Erase32KB, p.Erase32KB)
		max.Erase64KB = maxDur(max.Erase64KB, p.Erase64KB)
		max.BulkErase = maxDur(max.BulkErase, p.BulkErase)
	}
	return max
}

func maxDur(a, b physic.Duration) physic.Duration {
	if a > b {
		return a
	}
	return b
}

// AsDuration converts a physic.Duration to the stdlib time.Duration the
// runtime's timers and deadlines need; both count nanoseconds.
func AsDuration(d physic.Duration) time.Duration {
	return time.Duration(d)
}
