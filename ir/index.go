// Package ir defines the flat, immutable intermediate representation that
// the simulation engine interprets: index handles, the read-only Context,
// guard trees, and control nodes. Nothing in this package is mutated once
// elaboration has produced a Context; all cycle-to-cycle state lives in
// package flatten.
package ir

import (
	"encoding/json"
	"fmt"
)

// GlobalPortIdx addresses a port in the whole instantiated program's port
// space. It is always obtained as BaseIndices.PortBase + a local offset,
// never synthesized by hand outside of tests.
type GlobalPortIdx int

// GlobalCellIdx addresses a cell (primitive or nested component frame) in
// the global cell space.
type GlobalCellIdx int

// GlobalRefCellIdx addresses a ref-cell indirection slot.
type GlobalRefCellIdx int

// GlobalRefPortIdx addresses a ref-port indirection slot.
type GlobalRefPortIdx int

// AssignmentIdx addresses an assignment record, shared by every component
// definition that was flattened into the Context.
type AssignmentIdx int

// GuardIdx addresses a node in the guard-tree arena.
type GuardIdx int

// GroupIdx addresses a group record.
type GroupIdx int

// ComponentIdx addresses a component definition.
type ComponentIdx int

// ControlNodeIdx addresses a node in a component's control tree.
type ControlNodeIdx int

// LocalPortOffset is a port offset relative to the start of one component
// definition's port range.
type LocalPortOffset int

// LocalCellOffset is a cell offset relative to one component definition.
type LocalCellOffset int

// LocalRefCellOffset is a ref-cell offset relative to one component
// definition.
type LocalRefCellOffset int

// LocalRefPortOffset is a ref-port offset relative to one component
// definition.
type LocalRefPortOffset int

// BaseIndices locates one instantiated component's slice inside each of the
// four global index spaces. It is the sole mechanism used to translate a
// definition-local offset into a global handle: Base + local == global.
type BaseIndices struct {
	PortBase    GlobalPortIdx
	CellBase    GlobalCellIdx
	RefCellBase GlobalRefCellIdx
	RefPortBase GlobalRefPortIdx
}

// Port resolves a local port offset to a global port handle.
func (b BaseIndices) Port(l LocalPortOffset) GlobalPortIdx {
	return b.PortBase + GlobalPortIdx(l)
}

// Cell resolves a local cell offset to a global cell handle.
func (b BaseIndices) Cell(l LocalCellOffset) GlobalCellIdx {
	return b.CellBase + GlobalCellIdx(l)
}

// RefCell resolves a local ref-cell offset to a global ref-cell handle.
func (b BaseIndices) RefCell(l LocalRefCellOffset) GlobalRefCellIdx {
	return b.RefCellBase + GlobalRefCellIdx(l)
}

// RefPort resolves a local ref-port offset to a global ref-port handle.
func (b BaseIndices) RefPort(l LocalRefPortOffset) GlobalRefPortIdx {
	return b.RefPortBase + GlobalRefPortIdx(l)
}

// PortRefKind distinguishes a port reference that is local to a component
// definition from one that must be chased through the ref-port indirection.
type PortRefKind int

const (
	// PortRefLocal is an ordinary, definition-local port (including a
	// directly-owned primitive cell's ports, which share this component's
	// flat local numbering).
	PortRefLocal PortRefKind = iota
	// PortRefRef is a ref-port hole, bound only after an Invoke runs.
	PortRefRef
	// PortRefCell addresses a port belonging to a nested sub-component
	// cell's own signature (that cell's go/done/args), which lives in a
	// disjoint port space the parent cannot name with a flat local
	// offset. Resolving it requires dereferencing Cell's ledger, so it
	// is handled by flatten's environment rather than by Resolve below.
	PortRefCell
)

// PortRef is a definition-relative reference to a local port, a ref-port
// hole, or a port on a nested sub-component cell.
type PortRef struct {
	Kind   PortRefKind
	Offset int

	// PortRefCell only: which cell, and the port offset within that
	// cell's own signature (0 is its first signature port).
	Cell     CellRef
	CellPort int
}

// LocalPort builds a PortRef to a definition-local port.
func LocalPort(off LocalPortOffset) PortRef {
	return PortRef{Kind: PortRefLocal, Offset: int(off)}
}

// RefPortRef builds a PortRef to a ref-port hole.
func RefPortRef(off LocalRefPortOffset) PortRef {
	return PortRef{Kind: PortRefRef, Offset: int(off)}
}

// CellPortRef builds a PortRef to a port on a nested sub-component cell's
// own signature.
func CellPortRef(cell CellRef, portInCell int) PortRef {
	return PortRef{Kind: PortRefCell, Cell: cell, CellPort: portInCell}
}

// Resolve translates the PortRef into the global index space it denotes.
// For PortRefRef it returns the ref-port *slot* index, not the port it
// might eventually point to — the caller must dereference that slot via
// the environment's ref-port map. PortRefCell cannot be resolved here
// (it needs a live cell ledger lookup); callers must use flatten's
// resolvePort instead, which handles all three kinds.
func (p PortRef) Resolve(base BaseIndices) GlobalPortRef {
	switch p.Kind {
	case PortRefLocal:
		return GlobalPortRef{Port: base.Port(LocalPortOffset(p.Offset)), IsRef: false}
	case PortRefRef:
		return GlobalPortRef{RefPort: base.RefPort(LocalRefPortOffset(p.Offset)), IsRef: true}
	default:
		panic(fmt.Sprintf("ir: PortRef kind %d cannot be resolved without a live environment", p.Kind))
	}
}

// GlobalPortRef is the result of resolving a PortRef against a component's
// BaseIndices: either a concrete port, or a ref-port slot that must still
// be chased through the environment's ref-port map.
type GlobalPortRef struct {
	Port    GlobalPortIdx
	RefPort GlobalRefPortIdx
	IsRef   bool
}

// CellRefKind distinguishes a cell reference that is local to a component
// definition from a ref-cell hole.
type CellRefKind int

const (
	// CellRefLocal is an ordinary, definition-local cell.
	CellRefLocal CellRefKind = iota
	// CellRefRef is a ref-cell hole, bound only after an Invoke runs.
	CellRefRef
)

// CellRef is a definition-relative reference to either a local cell or a
// ref-cell hole.
type CellRef struct {
	Kind   CellRefKind
	Offset int
}

// LocalCell builds a CellRef to a definition-local cell.
func LocalCell(off LocalCellOffset) CellRef {
	return CellRef{Kind: CellRefLocal, Offset: int(off)}
}

// RefCellRef builds a CellRef to a ref-cell hole.
func RefCellRef(off LocalRefCellOffset) CellRef {
	return CellRef{Kind: CellRefRef, Offset: int(off)}
}

// GlobalCellRef is the result of resolving a CellRef: either a concrete
// cell, or a ref-cell slot that must be chased through the ref-cell map.
type GlobalCellRef struct {
	Cell    GlobalCellIdx
	RefCell GlobalRefCellIdx
	IsRef   bool
}

// Resolve translates the CellRef into the global index space it denotes.
func (c CellRef) Resolve(base BaseIndices) GlobalCellRef {
	switch c.Kind {
	case CellRefLocal:
		return GlobalCellRef{Cell: base.Cell(LocalCellOffset(c.Offset)), IsRef: false}
	case CellRefRef:
		return GlobalCellRef{RefCell: base.RefCell(LocalRefCellOffset(c.Offset)), IsRef: true}
	default:
		panic(fmt.Sprintf("ir: unknown CellRefKind %d", c.Kind))
	}
}

// IndexRange is a half-open [Start, End) range into a dense,
// globally-shared vector, used for both assignment ranges and continuous
// assignment ranges.
type IndexRange[T ~int] struct {
	Start T
	End   T
}

// Len reports how many elements the range spans.
func (r IndexRange[T]) Len() int {
	return int(r.End - r.Start)
}

// Empty reports whether the range spans no elements.
func (r IndexRange[T]) Empty() bool {
	return r.Start >= r.End
}

// AssignmentRange is a range of AssignmentIdx.
type AssignmentRange = IndexRange[AssignmentIdx]

// IndexedMap is an append-only, densely-indexed vector keyed by one of the
// handle newtypes above. It backs the cell, ref-cell, ref-port,
// assignment, guard and group index spaces. Ports live in flatten's own
// PortMap, and component definitions and control nodes are plain slices
// (Context.Components, ComponentDef.ControlNodes).
type IndexedMap[K ~int, V any] struct {
	items []V
}

// NewIndexedMap creates an empty map, optionally pre-sized.
func NewIndexedMap[K ~int, V any](capacity int) *IndexedMap[K, V] {
	return &IndexedMap[K, V]{items: make([]V, 0, capacity)}
}

// Push appends a value and returns the handle it was stored at.
func (m *IndexedMap[K, V]) Push(v V) K {
	idx := K(len(m.items))
	m.items = append(m.items, v)
	return idx
}

// PeekNextIdx returns the handle that the next Push will return, without
// mutating the map. Used by layout to compute a cell's port base before
// any of its ports have been pushed.
func (m *IndexedMap[K, V]) PeekNextIdx() K {
	return K(len(m.items))
}

// Get returns the value stored at idx.
func (m *IndexedMap[K, V]) Get(idx K) V {
	return m.items[idx]
}

// Set overwrites the value stored at idx.
func (m *IndexedMap[K, V]) Set(idx K, v V) {
	m.items[idx] = v
}

// Len reports how many elements have been pushed.
func (m *IndexedMap[K, V]) Len() int {
	return len(m.items)
}

// Each calls fn for every (index, value) pair in push order.
func (m *IndexedMap[K, V]) Each(fn func(K, V)) {
	for i, v := range m.items {
		fn(K(i), v)
	}
}

// MarshalJSON encodes the map as a plain JSON array in push order, used by
// the Context codec a pre-elaborated program is loaded from.
func (m *IndexedMap[K, V]) MarshalJSON() ([]byte, error) {
	if m.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(m.items)
}

// UnmarshalJSON decodes a plain JSON array back into push order, restoring
// the handles the original Push calls assigned (index 0 first).
func (m *IndexedMap[K, V]) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &m.items)
}
