package flatten

import (
	"github.com/sarchlab/hdlflat/ir"
	"github.com/sarchlab/hdlflat/primitive"
)

// ComponentLedger is the stack frame for one nested component instance:
// where its slice of each index space begins, and which definition it
// instantiates.
type ComponentLedger struct {
	Base   ir.BaseIndices
	CompID ir.ComponentIdx
}

// ConvertPort translates a definition-relative PortRef into the global
// index space, using this frame's base.
func (c ComponentLedger) ConvertPort(p ir.PortRef) ir.GlobalPortRef {
	return p.Resolve(c.Base)
}

// ConvertCell translates a definition-relative CellRef into the global
// index space, using this frame's base.
func (c ComponentLedger) ConvertCell(cr ir.CellRef) ir.GlobalCellRef {
	return cr.Resolve(c.Base)
}

// CellLedger is either a live primitive or a nested component's stack
// frame (spec §3 "Cell ledger"). PortBase is where this cell's own ports
// begin in the global port space — for a component frame this duplicates
// Component.Base.PortBase, kept alongside it so ref-cell binding can read
// a cell's port base without caring which kind it is.
type CellLedger struct {
	Primitive primitive.Primitive // nil if this is a component frame
	Component *ComponentLedger    // nil if this is a primitive
	PortBase  ir.GlobalPortIdx
	NumPorts  int
}

// IsComponent reports whether this ledger entry is a nested component.
func (c CellLedger) IsComponent() bool {
	return c.Component != nil
}

// AsComponent returns the component frame, panicking if this ledger entry
// is a primitive — mirrors the reference implementation's unwrap_comp,
// used only where the caller has already dispatched on IsComponent.
func (c CellLedger) AsComponent() *ComponentLedger {
	if c.Component == nil {
		panic("flatten: cell ledger is a primitive, not a component")
	}
	return c.Component
}

// AsPrimitive returns the primitive, panicking if this ledger entry is a
// component.
func (c CellLedger) AsPrimitive() primitive.Primitive {
	if c.Primitive == nil {
		panic("flatten: cell ledger is a component, not a primitive")
	}
	return c.Primitive
}
