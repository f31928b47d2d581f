package flatten

import (
	"github.com/sarchlab/hdlflat/ir"
	"github.com/sarchlab/hdlflat/primitive"
	"github.com/sarchlab/hdlflat/value"
)

// PortMap is the dense, append-only map from global port handles to their
// current tri-state value. It also satisfies primitive.PortMap, so
// primitives read and write directly into the same backing array the
// convergence loop uses — there is exactly one port map per Environment.
type PortMap struct {
	values []value.PortValue
}

var _ primitive.PortMap = (*PortMap)(nil)

// NewPortMap creates an empty, pre-sizable port map.
func NewPortMap(capacity int) *PortMap {
	return &PortMap{values: make([]value.PortValue, 0, capacity)}
}

// Push appends a new port holding v and returns its handle.
func (m *PortMap) Push(v value.PortValue) ir.GlobalPortIdx {
	idx := ir.GlobalPortIdx(len(m.values))
	m.values = append(m.values, v)
	return idx
}

// PeekNextIdx returns the handle the next Push will return.
func (m *PortMap) PeekNextIdx() ir.GlobalPortIdx {
	return ir.GlobalPortIdx(len(m.values))
}

// Len reports how many ports have been allocated.
func (m *PortMap) Len() int {
	return len(m.values)
}

// Get returns the current value at idx.
func (m *PortMap) Get(idx ir.GlobalPortIdx) value.PortValue {
	return m.values[idx]
}

// Set overwrites the value at idx unconditionally — used by primitives,
// which are trusted to only ever write ports in their own slice and are
// not subject to the conflict-detection InsertVal enforces for
// assignments.
func (m *PortMap) Set(idx ir.GlobalPortIdx, v value.PortValue) {
	m.values[idx] = v
}

// WriteUndef asserts that target is undefined; it is a programming error
// (and panics) to call it on a defined port, mirroring the reference
// implementation's todo!() on that path — the engine never calls this
// except right after a full reset, where the invariant always holds.
func (m *PortMap) WriteUndef(target ir.GlobalPortIdx) {
	if m.values[target].IsDef() {
		panic("flatten: WriteUndef called on a defined port")
	}
}

// WriteUndefUnchecked clears target to Undefined without checking whether
// it was already defined — used by the per-cycle reset.
func (m *PortMap) WriteUndefUnchecked(target ir.GlobalPortIdx) {
	m.values[target] = value.Undef()
}

// InsertVal attempts to write an Assigned value, detecting conflicts per
// spec §4.5: writing into an empty slot always succeeds; writing the same
// value from any source is a no-op; the same assignment re-firing with a
// changed value (because a primitive it reads from settled later in the
// same convergence pass) simply updates the port, since it is the same
// logical driver, not a second one; only two distinct assignments
// disagreeing on a port's value is a real conflict.
func (m *PortMap) InsertVal(target ir.GlobalPortIdx, newVal value.PortValue) (primitive.UpdateStatus, *ErrConflictingAssignments) {
	current := m.values[target]
	currentSource, currentIsAssigned := current.Source()
	newSource, _ := newVal.Source()

	if currentIsAssigned {
		if current.Equal(newVal) {
			return primitive.Unchanged, nil
		}
		if currentSource == newSource {
			m.values[target] = newVal
			return primitive.Changed, nil
		}
		return primitive.Unchanged, &ErrConflictingAssignments{
			Port: target, First: currentSource, Second: newSource,
		}
	}

	m.values[target] = newVal
	return primitive.Changed, nil
}
