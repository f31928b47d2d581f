// Package primitive defines the contract every stateful or combinational
// cell implementation must satisfy, plus a small concrete library grounded
// on the reference interpreter's update_cell_state match arms.
package primitive

import (
	"github.com/sarchlab/hdlflat/ir"
	"github.com/sarchlab/hdlflat/value"
)

// UpdateStatus reports whether a combinational update changed any port
// since the primitive's last ExecComb call.
type UpdateStatus int

const (
	Unchanged UpdateStatus = iota
	Changed
)

// Or merges two update statuses: Changed wins.
func (u UpdateStatus) Or(other UpdateStatus) UpdateStatus {
	if u == Changed || other == Changed {
		return Changed
	}
	return Unchanged
}

// PortMap is the environment's global port map as a primitive sees it.
// Every primitive is handed the whole map and by contract reads and
// writes only the ports in its own base-indexed range; the interface
// itself does not restrict access to that range.
type PortMap interface {
	Get(ir.GlobalPortIdx) value.PortValue
	Set(ir.GlobalPortIdx, value.PortValue)
}

// Primitive is the contract every cell ledger's non-component entry must
// satisfy (spec §4.4). Every primitive reads and writes only ports in the
// base-indexed slice it was constructed with.
type Primitive interface {
	// ExecComb performs an idempotent combinational update and reports
	// whether it changed any port since its last call this cycle.
	ExecComb(ports PortMap) (UpdateStatus, error)

	// ExecCycle performs the clocked state update: it may change output
	// ports and internal state. Called once per cycle, after convergence.
	ExecCycle(ports PortMap) error

	// IsCombinational reports whether this primitive is classed as
	// combinational (stateless primitives like adders are; std_reg is
	// not). The flatten convergence loop does not consult it: it calls
	// ExecComb on every primitive, std_reg included, whose ExecComb
	// re-drives out and done during convergence.
	IsCombinational() bool

	// HasSerializableState reports whether Dump/LoadState are meaningful
	// for this primitive (memories and registers; not pure combinational
	// logic).
	HasSerializableState() bool

	// Dump returns this primitive's current state for the data-dump
	// format (§6), or nil if HasSerializableState is false.
	Dump() *State

	// LoadState seeds this primitive's internal state from an initial
	// memory image. Build calls it for top-level cells during root layout;
	// simulator.LoadInitialState calls it for any cell matched by name.
	LoadState(s State) error
}

// State is the serializable snapshot of one primitive's internal state,
// independent of the wire format used to persist it (see package
// datadump for the on-disk encoding).
type State struct {
	Name      string
	WidthBits uint32
	CellCount uint64
	Dims      []uint64
	Bytes     []byte
}
