// Package spiengine implements the low-level FIFO transfer primitive that
// drives the AXI-QSPI controller: load the TX FIFO, assert slave select,
// poll tx-empty/rx-empty, drain the RX FIFO, and deassert.
package spiengine

import (
	"time"

	"github.com/gentam/qflash/internal/qerr"
	"github.com/gentam/qflash/internal/regbus"
	"github.com/gentam/qflash/internal/timing"
)

const numSlaves = 2

// allSlavesMask is the slave-select register value with every slave
// deasserted (active-low, all ones).
const allSlavesMask = uint32(1<<numSlaves) - 1

// Engine is the transfer primitive. It is not safe for concurrent use: the
// controller state (slave index) is owned exclusively by the current
// programming session.
type Engine struct {
	bus        *regbus.Bus
	slaveIndex int
}

// New builds an Engine against bus, initially targeting slave 0.
func New(bus *regbus.Bus) *Engine {
	return &Engine{bus: bus}
}

// SetSlave selects which physical flash chip participates in subsequent
// transfers.
func (e *Engine) SetSlave(index int) { e.slaveIndex = index }

// Slave returns the currently selected slave index.
func (e *Engine) Slave() int { return e.slaveIndex }

func (e *Engine) slaveSelectMask() uint32 {
	return allSlavesMask &^ (1 << uint(e.slaveIndex))
}

// Transfer exchanges sendBuf with the flash, writing byteCount response
// bytes into recvBuf (which may be nil if the caller does not care about the
// response). On return the controller is back in the inhibited, no-slave
// state.
func (e *Engine) Transfer(sendBuf []byte, recvBuf []byte, byteCount int) error {
	mask := e.slaveSelectMask()

	ctrl, err := e.bus.Control()
	if err != nil {
		return err
	}
	status, err := e.bus.Status()
	if err != nil {
		return err
	}

	if ctrl&regbus.CtrlMasterMode != 0 && ctrl&regbus.CtrlLoopback == 0 {
		if mask == allSlavesMask {
			return qerr.New(qerr.ProtocolError, "no slave selected")
		}
	}

	if status&regbus.StatusCmdErr != 0 {
		return qerr.New(qerr.ControllerError, "status register in error state")
	}

	sendPos := 0
	remaining := len(sendBuf)

	fill := func() error {
		for remaining > 0 {
			status, err := e.bus.Status()
			if err != nil {
				return err
			}
			if status&regbus.StatusTxFull != 0 {
				break
			}
			if err := e.bus.Write32(regbus.OffsetDataTransmit, uint32(sendBuf[sendPos])); err != nil {
				return err
			}
			sendPos++
			remaining--
			status, err = e.bus.Status()
			if err != nil {
				return err
			}
			if status&regbus.StatusCmdErr != 0 {
				return qerr.New(qerr.ControllerError, "write caused command error")
			}
		}
		return nil
	}

	if err := fill(); err != nil {
		return err
	}

	if err := e.bus.Write32(regbus.OffsetSlaveSelect, mask); err != nil {
		return err
	}

	status, err = e.bus.Status()
	if err != nil {
		return err
	}
	if status&regbus.StatusCmdErr != 0 {
		return qerr.New(qerr.ControllerError, "status register in error state")
	}

	ctrl, err = e.bus.Control()
	if err != nil {
		return err
	}
	if err := e.bus.SetControl(ctrl &^ regbus.CtrlTransInhibit); err != nil {
		return err
	}

	recvPos := 0
	for byteCount > 0 {
		if err := e.WaitTxEmpty(); err != nil {
			return err
		}

		ctrl, err := e.bus.Control()
		if err != nil {
			return err
		}
		if err := e.bus.SetControl(ctrl | regbus.CtrlTransInhibit); err != nil {
			return err
		}

		status, err := e.bus.Status()
		if err != nil {
			return err
		}
		for status&regbus.StatusRxEmpty == 0 {
			v, err := e.bus.Read32(regbus.OffsetDataReceive)
			if err != nil {
				return err
			}
			if recvBuf != nil && recvPos < len(recvBuf) {
				recvBuf[recvPos] = byte(v)
			}
			recvPos++
			byteCount--
			status, err = e.bus.Status()
			if err != nil {
				return err
			}
			if status&regbus.StatusCmdErr != 0 {
				return qerr.New(qerr.ControllerError, "status register in error state during drain")
			}
			if byteCount <= 0 {
				break
			}
		}

		if remaining > 0 {
			if err := fill(); err != nil {
				return err
			}
			ctrl, err := e.bus.Control()
			if err != nil {
				return err
			}
			if err := e.bus.SetControl(ctrl &^ regbus.CtrlTransInhibit); err != nil {
				return err
			}
		}
	}

	ctrl, err = e.bus.Control()
	if err != nil {
		return err
	}
	if err := e.bus.SetControl(ctrl | regbus.CtrlTransInhibit); err != nil {
		return err
	}
	return e.bus.Write32(regbus.OffsetSlaveSelect, allSlavesMask)
}

// ResetFIFOs pulses the TX and RX FIFO reset bits in the control register,
// as flash commands do before building a fresh command+address+data frame.
func (e *Engine) ResetFIFOs() error {
	ctrl, err := e.bus.Control()
	if err != nil {
		return err
	}
	return e.bus.SetControl(ctrl | regbus.CtrlRxFIFOReset | regbus.CtrlTxFIFOReset)
}

// ApplyStartState restores the controller's start-state control word
// (transaction inhibited, manual slave select, both FIFOs reset, system and
// master mode enabled).
func (e *Engine) ApplyStartState() error {
	return e.bus.SetControl(regbus.StartState)
}

// Status exposes the raw status register for callers (e.g. write-enable's
// tx-full precheck) that need to inspect it directly.
func (e *Engine) Status() (uint32, error) { return e.bus.Status() }

// WaitTxEmpty polls the status register's tx-empty bit with a 3 second
// deadline.
func (e *Engine) WaitTxEmpty() error {
	deadline := time.Now().Add(timing.AsDuration(timing.PollTimeout))
	for {
		status, err := e.bus.Status()
		if err != nil {
			return err
		}
		if status&regbus.StatusTxEmpty != 0 {
			return nil
		}
		if time.Now().After(deadline) {
			return qerr.New(qerr.Timeout, "timed out waiting for tx-empty")
		}
		time.Sleep(timing.AsDuration(timing.PollInterval))
	}
}
