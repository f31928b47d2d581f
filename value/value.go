// Package value defines the tri-state port value the simulation engine
// reads and writes every cycle.
package value

import (
	"strconv"

	"github.com/sarchlab/hdlflat/ir"
)

// State discriminates the three states a port can be in during one cycle.
type State int

const (
	// Undefined marks an unassigned wire — the hardware-simulator notion
	// of a value that has not been driven this cycle.
	Undefined State = iota
	// Implicit marks a value the engine itself asserted (the root's go,
	// or a completed component's done), not written by any assignment.
	Implicit
	// Assigned marks a value written by a guarded assignment this cycle,
	// carrying the assignment that wrote it for conflict diagnostics.
	Assigned
)

// PortValue is the value held by one port for the duration of a cycle.
type PortValue struct {
	state  State
	bits   uint64
	source ir.AssignmentIdx
}

// Undef returns the Undefined value.
func Undef() PortValue {
	return PortValue{state: Undefined}
}

// NewImplicit returns an engine-asserted value.
func NewImplicit(bits uint64) PortValue {
	return PortValue{state: Implicit, bits: bits}
}

// NewAssigned returns a value written by the given assignment.
func NewAssigned(bits uint64, source ir.AssignmentIdx) PortValue {
	return PortValue{state: Assigned, bits: bits, source: source}
}

// IsDef reports whether the port carries a value (Implicit or Assigned).
func (v PortValue) IsDef() bool {
	return v.state != Undefined
}

// IsUndef reports whether the port is Undefined.
func (v PortValue) IsUndef() bool {
	return v.state == Undefined
}

// Val returns the bit pattern and true if the port is defined.
func (v PortValue) Val() (uint64, bool) {
	if v.state == Undefined {
		return 0, false
	}
	return v.bits, true
}

// AsBool interprets the value as a single bit. Returns (false, false) if
// undefined; callers needing width validation do that at a higher layer
// where port widths are known.
func (v PortValue) AsBool() (bool, bool) {
	bits, ok := v.Val()
	if !ok {
		return false, false
	}
	return bits != 0, true
}

// Source returns the assignment that produced an Assigned value, and
// whether the value actually is Assigned (as opposed to Undefined or
// Implicit, neither of which carries provenance).
func (v PortValue) Source() (ir.AssignmentIdx, bool) {
	return v.source, v.state == Assigned
}

// State exposes the underlying tri-state tag, mainly for printing.
func (v PortValue) State() State {
	return v.state
}

// HasConflictWith reports whether two Assigned values disagree on their
// bit pattern. Provenance is not compared: two Assigned values with the
// same bits are never a conflict, and two Assigned values with differing
// bits always are, regardless of source. Values that are not both
// Assigned never conflict.
func (v PortValue) HasConflictWith(other PortValue) bool {
	if v.state != Assigned || other.state != Assigned {
		return false
	}
	return v.bits != other.bits
}

// Equal reports whether two values carry the same defined-ness and bits,
// ignoring provenance — the check primitives' ExecComb and
// PortMap.InsertVal use to decide whether a write actually changed
// anything.
func (v PortValue) Equal(other PortValue) bool {
	if v.state == Undefined && other.state == Undefined {
		return true
	}
	vBits, vOK := v.Val()
	oBits, oOK := other.Val()
	return vOK && oOK && vBits == oBits
}

// String renders the value for diagnostics.
func (v PortValue) String() string {
	switch v.state {
	case Undefined:
		return "undefined"
	case Implicit:
		return "implicit(" + strconv.FormatUint(v.bits, 10) + ")"
	case Assigned:
		return "assigned(" + strconv.FormatUint(v.bits, 10) + ")"
	default:
		return "invalid"
	}
}
