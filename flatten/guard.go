package flatten

import (
	"github.com/sarchlab/hdlflat/ir"
)

// resolveCell dereferences a CellRef against base, chasing a ref-cell
// slot through env.RefCells when necessary.
func (env *Environment) resolveCell(base ir.BaseIndices, c ir.CellRef) (ir.GlobalCellIdx, bool) {
	resolved := c.Resolve(base)
	if !resolved.IsRef {
		return resolved.Cell, true
	}
	bound := env.RefCells.Get(resolved.RefCell)
	if bound == nil {
		return 0, false
	}
	return *bound, true
}

// resolvePort dereferences a PortRef against base: a local port resolves
// directly, a ref-port chases env.RefPorts, and a cell-relative port
// first resolves the owning cell (chasing a ref-cell if necessary) and
// then reads off that cell's own port base. It returns ok=false if any
// link in the chain is not yet bound.
func (env *Environment) resolvePort(base ir.BaseIndices, p ir.PortRef) (ir.GlobalPortIdx, bool) {
	switch p.Kind {
	case ir.PortRefCell:
		cell, ok := env.resolveCell(base, p.Cell)
		if !ok {
			return 0, false
		}
		ledger := env.Cells.Get(cell)
		return ledger.PortBase + ir.GlobalPortIdx(p.CellPort), true
	default:
		resolved := p.Resolve(base)
		if !resolved.IsRef {
			return resolved.Port, true
		}
		bound := env.RefPorts.Get(resolved.RefPort)
		if bound == nil {
			return 0, false
		}
		return *bound, true
	}
}

// EvalGuard evaluates the guard tree rooted at guardIdx against base's
// port space, two-valued per spec §4.3: Undefined operands propagate
// Undefined through every combinator, with no short-circuiting — both
// operands of an Or/And are always evaluated, even if the first already
// settles the result, so that a still-unconverged sibling is correctly
// detected.
func (env *Environment) EvalGuard(base ir.BaseIndices, guardIdx ir.GuardIdx) (*bool, error) {
	g := env.Ctx.Guards.Get(guardIdx)

	switch g.Kind {
	case ir.GuardTrue:
		t := true
		return &t, nil

	case ir.GuardPort:
		port, ok := env.resolvePort(base, g.Port)
		if !ok {
			return nil, nil
		}
		b, defined := env.Ports.Get(port).AsBool()
		if !defined {
			return nil, nil
		}
		return &b, nil

	case ir.GuardNot:
		inner, err := env.EvalGuard(base, g.Left)
		if err != nil {
			return nil, err
		}
		if inner == nil {
			return nil, nil
		}
		v := !*inner
		return &v, nil

	case ir.GuardOr:
		l, err := env.EvalGuard(base, g.Left)
		if err != nil {
			return nil, err
		}
		r, err := env.EvalGuard(base, g.Right)
		if err != nil {
			return nil, err
		}
		if l == nil || r == nil {
			return nil, nil
		}
		v := *l || *r
		return &v, nil

	case ir.GuardAnd:
		l, err := env.EvalGuard(base, g.Left)
		if err != nil {
			return nil, err
		}
		r, err := env.EvalGuard(base, g.Right)
		if err != nil {
			return nil, err
		}
		if l == nil || r == nil {
			return nil, nil
		}
		v := *l && *r
		return &v, nil

	case ir.GuardComp:
		lPort, lok := env.resolvePort(base, g.CompL)
		rPort, rok := env.resolvePort(base, g.CompR)
		if !lok || !rok {
			return nil, nil
		}
		lv, ldef := env.Ports.Get(lPort).Val()
		rv, rdef := env.Ports.Get(rPort).Val()
		if !ldef || !rdef {
			return nil, nil
		}
		var result bool
		switch g.Op {
		case ir.Eq:
			result = lv == rv
		case ir.Neq:
			result = lv != rv
		case ir.Gt:
			result = lv > rv
		case ir.Lt:
			result = lv < rv
		case ir.Geq:
			result = lv >= rv
		case ir.Leq:
			result = lv <= rv
		}
		return &result, nil

	default:
		panic("flatten: unknown guard kind")
	}
}
