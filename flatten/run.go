package flatten

import (
	"github.com/sarchlab/hdlflat/ir"
	"github.com/sarchlab/hdlflat/value"
)

// componentLive reports whether comp's own control is eligible to make
// progress this cycle: its go port must be high and its done port must
// not be (spec §4.6 sub-step a) — "the containing component has not been
// invoked or has already finished."
func (env *Environment) componentLive(comp ir.GlobalCellIdx) bool {
	goHigh, _ := env.Ports.Get(env.GetComponentGo(comp)).AsBool()
	doneHigh, _ := env.Ports.Get(env.GetComponentDone(comp)).AsBool()
	return goHigh && !doneHigh
}

// advancePoint processes one live control point for this cycle's
// sub-step (a): a point whose owning component isn't currently live is
// left unchanged; an Enable/Invoke leaf is kept until its done port is
// observed high, then bubbled via advanceFrom; any other node (a fresh
// component control root, or an If/While still pending its with-group)
// is resolved with descend, which itself re-applies the same pending/
// leaf logic recursively.
func (env *Environment) advancePoint(cp ControlPoint) ([]ControlPoint, bool, error) {
	if !env.componentLive(cp.Comp) {
		return []ControlPoint{cp}, false, nil
	}

	def := env.Ctx.Component(env.Cells.Get(cp.Comp).AsComponent().CompID)
	n := def.Node(cp.Node)

	switch n.Kind {
	case ir.CtrlEnable, ir.CtrlInvoke:
		if !env.isLeafDone(cp.Comp, cp.Node) {
			return []ControlPoint{cp}, false, nil
		}
		if n.Kind == ir.CtrlInvoke {
			env.cleanupInvoke(cp.Comp, cp.Node, env.componentBase(cp.Comp), n)
		}
		return env.advanceFrom(cp.Comp, cp.Node)
	default:
		return env.descend(cp.Comp, cp.Node)
	}
}

// Step advances the whole program by one clock cycle, implementing spec
// §4.6's five sub-steps: (a) advance every live control point, cascading
// completions through Par/While and descending into fresh entry points,
// re-seeding any component instance whose control program just exhausted
// at its own control root, prepared for the next invocation; (b) reset
// every port to Undefined, then re-assert the root's go and any
// just-finished component instance's done; (c) raise the go port of
// every control point newly or still live, gathering this cycle's
// scheduled assignment blocks (leaves, continuous assignments, and
// active with-groups); (d) run those blocks to a combinational fixed
// point; (e) tick every primitive's clocked state.
func (env *Environment) Step() error {
	current := env.PC.Points()
	var next []ControlPoint
	var justFinished []ir.GlobalCellIdx
	for _, cp := range current {
		pts, done, err := env.advancePoint(cp)
		if err != nil {
			return err
		}
		if done {
			justFinished = append(justFinished, cp.Comp)
			def := env.Ctx.Component(env.Cells.Get(cp.Comp).AsComponent().CompID)
			next = append(next, ControlPoint{Comp: cp.Comp, Node: def.ControlRoot})
			continue
		}
		next = append(next, pts...)
	}
	env.PC.SetPoints(next)

	for i := 0; i < env.Ports.Len(); i++ {
		env.Ports.WriteUndefUnchecked(ir.GlobalPortIdx(i))
	}
	finishedNow := make(map[ir.GlobalCellIdx]bool, len(justFinished))
	for _, c := range justFinished {
		finishedNow[c] = true
	}
	env.Cells.Each(func(idx ir.GlobalCellIdx, ledger CellLedger) {
		if !ledger.IsComponent() {
			return
		}
		def := env.Ctx.Component(ledger.AsComponent().CompID)
		if idx == 0 {
			env.Ports.Set(ledger.AsComponent().Base.Port(def.Go), value.NewImplicit(1))
		}
		if finishedNow[idx] {
			env.Ports.Set(ledger.AsComponent().Base.Port(def.Done), value.NewImplicit(1))
		}
	})

	var scheduled []ScheduledAssignment
	for _, c := range env.PC.Continuous() {
		scheduled = append(scheduled, ScheduledAssignment{
			Comp: c.Comp, Base: env.componentBase(c.Comp), Assignments: c.Assignments,
		})
	}
	for cp, g := range env.PC.WithGroups() {
		grp := env.Ctx.Groups.Get(g)
		scheduled = append(scheduled, ScheduledAssignment{
			Comp: cp.Comp, Base: env.componentBase(cp.Comp), Assignments: grp.Assignments,
		})
	}
	for _, cp := range env.PC.Points() {
		def := env.Ctx.Component(env.Cells.Get(cp.Comp).AsComponent().CompID)
		n := def.Node(cp.Node)
		if n.Kind != ir.CtrlEnable && n.Kind != ir.CtrlInvoke {
			continue
		}
		if !env.componentLive(cp.Comp) {
			continue
		}
		block, err := env.raiseLeaf(cp.Comp, cp.Node)
		if err != nil {
			return err
		}
		scheduled = append(scheduled, block)
	}

	if err := env.Converge(scheduled); err != nil {
		return err
	}

	for i := 0; i < env.Cells.Len(); i++ {
		cell := env.Cells.Get(ir.GlobalCellIdx(i))
		if cell.IsComponent() {
			continue
		}
		if err := cell.AsPrimitive().ExecCycle(env.Ports); err != nil {
			return &ErrPrimitive{Cell: ir.GlobalCellIdx(i), Path: env.componentPath(ir.GlobalCellIdx(i)), Err: err}
		}
	}

	return nil
}

// RunProgram steps the program until the root component instance's done
// port goes high.
func (env *Environment) RunProgram() error {
	for {
		done, ok := env.Ports.Get(env.GetRootDone()).AsBool()
		if ok && done {
			return nil
		}
		if err := env.Step(); err != nil {
			return err
		}
	}
}
