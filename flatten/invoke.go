package flatten

import (
	"github.com/sarchlab/hdlflat/ir"
	"github.com/sarchlab/hdlflat/value"
)

// refPortLocalBase returns the local ref-port offset at which ref-cell
// refCellOffset's own ref-port slots begin, computed as the prefix sum
// of the port arities of the ref-cells declared before it — the same
// order NewEnvironment pushed them in.
func refPortLocalBase(def *ir.ComponentDef, refCellOffset int) int {
	base := 0
	for i := 0; i < refCellOffset; i++ {
		base += def.RefCells[i].NumPorts
	}
	return base
}

// bindRefCell installs one Invoke ref-cell binding: the callee's ref-cell
// slot (and every one of its ref-port slots) is pointed at the concrete
// cell the caller supplied, per spec §4.7.
func (env *Environment) bindRefCell(callerComp ir.GlobalCellIdx, callerBase ir.BaseIndices, callee ir.GlobalCellIdx, binding ir.RefCellBinding) error {
	calleeLedger := env.Cells.Get(callee).AsComponent()
	calleeDef := env.Ctx.Component(calleeLedger.CompID)
	refDef := calleeDef.RefCells[binding.Callee]

	supplied, ok := env.resolveCell(callerBase, binding.Caller)
	if !ok {
		return &ErrUndefinedRefCell{Path: env.componentPath(callerComp)}
	}
	suppliedLedger := env.Cells.Get(supplied)

	if suppliedLedger.NumPorts != refDef.NumPorts {
		return &ErrMissingRefBinding{
			RefCellName: refDef.Name,
			CalleeArity: refDef.NumPorts,
			SuppliedAri: suppliedLedger.NumPorts,
			Path:        env.componentPath(callerComp),
		}
	}

	cellSlot := calleeLedger.Base.RefCell(ir.LocalRefCellOffset(binding.Callee))
	suppliedCell := supplied
	env.RefCells.Set(cellSlot, &suppliedCell)

	portLocalBase := refPortLocalBase(calleeDef, int(binding.Callee))
	for p := 0; p < refDef.NumPorts; p++ {
		slot := calleeLedger.Base.RefPort(ir.LocalRefPortOffset(portLocalBase + p))
		port := suppliedLedger.PortBase + ir.GlobalPortIdx(p)
		env.RefPorts.Set(slot, &port)
	}

	return nil
}

// invokeInterface resolves an Invoke control node's callee and returns
// the callee's own go/done ports, binding every ref-cell the invoke
// supplies along the way.
func (env *Environment) invokeInterface(comp ir.GlobalCellIdx, base ir.BaseIndices, n ir.ControlNode) (InterfacePorts, error) {
	callee, ok := env.resolveCell(base, n.InvokeCell)
	if !ok {
		return InterfacePorts{}, &ErrUndefinedRefCell{Path: env.componentPath(comp)}
	}
	calleeLedger := env.Cells.Get(callee).AsComponent()
	calleeDef := env.Ctx.Component(calleeLedger.CompID)

	for _, binding := range n.InvokeRefCells {
		if err := env.bindRefCell(comp, base, callee, binding); err != nil {
			return InterfacePorts{}, err
		}
	}

	return InterfacePorts{
		Go:   calleeLedger.Base.Port(calleeDef.Go),
		Done: calleeLedger.Base.Port(calleeDef.Done),
	}, nil
}

// raiseLeaf asserts the go signal for a freshly-installed Enable or
// Invoke control point, per spec §4.6 sub-step c, and returns the
// ScheduledAssignment block that should participate in this cycle's
// convergence.
func (env *Environment) raiseLeaf(comp ir.GlobalCellIdx, node ir.ControlNodeIdx) (ScheduledAssignment, error) {
	def := env.Ctx.Component(env.Cells.Get(comp).AsComponent().CompID)
	n := def.Node(node)
	base := env.componentBase(comp)

	switch n.Kind {
	case ir.CtrlEnable:
		g := env.Ctx.Groups.Get(n.Group)
		goPort := base.Port(g.Go)
		donePort := base.Port(g.Done)
		env.Ports.Set(goPort, value.NewImplicit(1))
		return ScheduledAssignment{
			Comp: comp, Base: base, Assignments: g.Assignments,
			Interface: &InterfacePorts{Go: goPort, Done: donePort},
		}, nil

	case ir.CtrlInvoke:
		iface, err := env.invokeInterface(comp, base, n)
		if err != nil {
			return ScheduledAssignment{}, err
		}
		env.Ports.Set(iface.Go, value.NewImplicit(1))
		if n.HasGroup {
			cp := ControlPoint{Comp: comp, Node: node}
			if _, tracked := env.PC.WithGroup(cp); !tracked {
				env.PC.SetWithGroup(cp, n.CondGroup)
			}
		}
		return ScheduledAssignment{
			Comp: comp, Base: base, Assignments: n.InvokeAssignments,
			Interface: &iface,
		}, nil

	default:
		panic("flatten: raiseLeaf called on a non-leaf control node")
	}
}

// cleanupInvoke drops every ref-cell/ref-port slot an Invoke bound at
// activation back to unbound, and stops tracking its with-group if any,
// per spec §4.7: "At invocation end, clear all written ref-cell and
// ref-port slots to None."
func (env *Environment) cleanupInvoke(comp ir.GlobalCellIdx, node ir.ControlNodeIdx, base ir.BaseIndices, n ir.ControlNode) {
	if n.HasGroup {
		env.PC.RemoveWithGroup(ControlPoint{Comp: comp, Node: node})
	}

	callee, ok := env.resolveCell(base, n.InvokeCell)
	if !ok {
		return
	}
	calleeLedger := env.Cells.Get(callee).AsComponent()
	calleeDef := env.Ctx.Component(calleeLedger.CompID)

	for _, binding := range n.InvokeRefCells {
		cellSlot := calleeLedger.Base.RefCell(ir.LocalRefCellOffset(binding.Callee))
		env.RefCells.Set(cellSlot, nil)

		refDef := calleeDef.RefCells[binding.Callee]
		portLocalBase := refPortLocalBase(calleeDef, int(binding.Callee))
		for p := 0; p < refDef.NumPorts; p++ {
			slot := calleeLedger.Base.RefPort(ir.LocalRefPortOffset(portLocalBase + p))
			env.RefPorts.Set(slot, nil)
		}
	}
}

// isLeafDone reports whether a live Enable/Invoke control point's
// underlying group/callee has raised its done port this cycle.
func (env *Environment) isLeafDone(comp ir.GlobalCellIdx, node ir.ControlNodeIdx) bool {
	def := env.Ctx.Component(env.Cells.Get(comp).AsComponent().CompID)
	n := def.Node(node)
	base := env.componentBase(comp)

	var donePort ir.GlobalPortIdx
	switch n.Kind {
	case ir.CtrlEnable:
		g := env.Ctx.Groups.Get(n.Group)
		donePort = base.Port(g.Done)
	case ir.CtrlInvoke:
		callee, ok := env.resolveCell(base, n.InvokeCell)
		if !ok {
			return false
		}
		calleeLedger := env.Cells.Get(callee).AsComponent()
		calleeDef := env.Ctx.Component(calleeLedger.CompID)
		donePort = calleeLedger.Base.Port(calleeDef.Done)
	default:
		panic("flatten: isLeafDone called on a non-leaf control node")
	}

	b, ok := env.Ports.Get(donePort).AsBool()
	return ok && b
}
