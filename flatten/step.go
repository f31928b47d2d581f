package flatten

import (
	"github.com/sarchlab/hdlflat/ir"
)

func (env *Environment) componentBase(comp ir.GlobalCellIdx) ir.BaseIndices {
	return env.Cells.Get(comp).AsComponent().Base
}

// descend enters node fresh: Seq is transparent (immediately descended
// through its first statement); Par installs its fan-in counter and
// descends into every child; If/While either stay as a pending point
// (while their with-group has not yet converged) or read their condition
// and descend into the chosen branch or body (a false While bubbles on
// via advanceFrom); Enable/Invoke become live leaf points; and Empty
// defers straight to the completion-bubbling logic (spec §4.6 sub-step a).
func (env *Environment) descend(comp ir.GlobalCellIdx, node ir.ControlNodeIdx) ([]ControlPoint, bool, error) {
	def := env.Ctx.Component(env.Cells.Get(comp).AsComponent().CompID)
	n := def.Node(node)

	switch n.Kind {
	case ir.CtrlEmpty:
		return env.advanceFrom(comp, node)

	case ir.CtrlSeq:
		if len(n.Stmts) == 0 {
			return env.advanceFrom(comp, node)
		}
		return env.descend(comp, n.Stmts[0])

	case ir.CtrlIf:
		cond, pending, err := env.ifWhileStep(comp, node, n)
		if err != nil {
			return nil, false, err
		}
		if pending {
			return []ControlPoint{{Comp: comp, Node: node}}, false, nil
		}
		if *cond {
			return env.descend(comp, n.TrueBranch)
		}
		return env.descend(comp, n.FalseBranch)

	case ir.CtrlWhile:
		cond, pending, err := env.ifWhileStep(comp, node, n)
		if err != nil {
			return nil, false, err
		}
		if pending {
			return []ControlPoint{{Comp: comp, Node: node}}, false, nil
		}
		if *cond {
			return env.descend(comp, n.Body)
		}
		return env.advanceFrom(comp, node)

	case ir.CtrlPar:
		if len(n.Stmts) > 65535 {
			return nil, false, &ErrParOverflow{Node: node, NumChild: len(n.Stmts), Path: def.Name}
		}
		env.PC.SetParCount(ControlPoint{Comp: comp, Node: node}, uint16(len(n.Stmts)))
		var all []ControlPoint
		for _, stmt := range n.Stmts {
			pts, done, err := env.descend(comp, stmt)
			if err != nil {
				return nil, false, err
			}
			if done {
				// An empty branch finishes instantly; absorb it as one
				// completed fan-in slot immediately.
				pts2, done2, err := env.absorbPar(comp, node)
				if err != nil {
					return nil, false, err
				}
				all = append(all, pts2...)
				_ = done2
				continue
			}
			all = append(all, pts...)
		}
		return all, false, nil

	case ir.CtrlEnable, ir.CtrlInvoke:
		return []ControlPoint{{Comp: comp, Node: node}}, false, nil

	default:
		panic("flatten: unknown control node kind")
	}
}

// ifWhileStep implements one visit to an If/While node per spec §4.6: on
// the first visit, a node carrying a combinational group is registered
// into the program counter's with-map — so the group participates in
// this cycle's *normal* convergence pass (run.go wires PC.WithGroups()
// into the per-cycle schedule) — and the control point is returned
// pending, unresolved, for this cycle. Only once that group has actually
// converged (on a later cycle's revisit, "already carrying") is the
// condition port read and the with-map entry dropped. A node with no
// attached group always falls straight through to reading the condition.
// This deliberately avoids ever converging the group against a stale,
// not-freshly-undefined port map (spec §9's resolved open question).
func (env *Environment) ifWhileStep(comp ir.GlobalCellIdx, node ir.ControlNodeIdx, n ir.ControlNode) (cond *bool, pending bool, err error) {
	cp := ControlPoint{Comp: comp, Node: node}
	if n.HasGroup {
		if _, tracked := env.PC.WithGroup(cp); !tracked {
			env.PC.SetWithGroup(cp, n.CondGroup)
			return nil, true, nil
		}
	}

	base := env.componentBase(comp)
	path := env.Ctx.Component(env.Cells.Get(comp).AsComponent().CompID).Name
	port, ok := env.resolvePort(base, n.Cond)
	if !ok {
		return nil, false, &ErrUndefinedCondition{Node: node, Path: path}
	}
	b, ok := env.Ports.Get(port).AsBool()
	if !ok {
		return nil, false, &ErrUndefinedCondition{Node: node, Path: path}
	}

	if n.HasGroup {
		env.PC.RemoveWithGroup(cp)
	}
	return &b, false, nil
}

// absorbPar decrements a Par node's fan-in counter for one finished
// branch. When the counter reaches zero the Par itself has finished, and
// this bubbles further via advanceFrom; otherwise it contributes nothing
// to the new frontier.
func (env *Environment) absorbPar(comp ir.GlobalCellIdx, parNode ir.ControlNodeIdx) ([]ControlPoint, bool, error) {
	cp := ControlPoint{Comp: comp, Node: parNode}
	cnt, _ := env.PC.ParCount(cp)
	cnt--
	if cnt > 0 {
		env.PC.SetParCount(cp, cnt)
		return nil, false, nil
	}
	env.PC.RemovePar(cp)
	return env.advanceFrom(comp, parNode)
}

// advanceFrom computes what follows the completion of node (a leaf that
// just finished, an Empty node entered fresh, or a Par/While node whose
// fan-in/condition resolved), cascading through any enclosing Par/While
// bubbling per spec §4.6, and descends into the resulting entry point.
// done reports that the component instance's whole control program has
// been exhausted.
func (env *Environment) advanceFrom(comp ir.GlobalCellIdx, node ir.ControlNodeIdx) ([]ControlPoint, bool, error) {
	compID := env.Cells.Get(comp).AsComponent().CompID

	next, ok := env.Ctx.NextNode(compID, node)
	if !ok {
		return nil, true, nil
	}

	def := env.Ctx.Component(compID)
	nextNode := def.Node(next)

	switch nextNode.Kind {
	case ir.CtrlPar:
		return env.absorbPar(comp, next)
	case ir.CtrlWhile:
		cond, pending, err := env.ifWhileStep(comp, next, nextNode)
		if err != nil {
			return nil, false, err
		}
		if pending {
			return []ControlPoint{{Comp: comp, Node: next}}, false, nil
		}
		if *cond {
			return env.descend(comp, nextNode.Body)
		}
		return env.advanceFrom(comp, next)
	default:
		return env.descend(comp, next)
	}
}
