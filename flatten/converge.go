package flatten

import (
	"github.com/sarchlab/hdlflat/ir"
	"github.com/sarchlab/hdlflat/primitive"
	"github.com/sarchlab/hdlflat/value"
)

// InterfacePorts pairs a component instance's go/done ports when a
// scheduled block is an enable or invoke (as opposed to a bare continuous
// or with-group block, which has none).
type InterfacePorts struct {
	Go, Done ir.GlobalPortIdx
}

// ScheduledAssignment is one block of assignments active for the current
// cycle's convergence pass: a component instance's base (to resolve the
// block's definition-relative PortRefs), the assignment range itself, and
// optionally the enable/invoke interface ports that gate it.
type ScheduledAssignment struct {
	Comp        ir.GlobalCellIdx
	Base        ir.BaseIndices
	Assignments ir.AssignmentRange
	Interface   *InterfacePorts
}

func (env *Environment) componentPath(comp ir.GlobalCellIdx) string {
	ledger := env.Cells.Get(comp)
	if !ledger.IsComponent() {
		return ""
	}
	return env.Ctx.Component(ledger.AsComponent().CompID).Name
}

// Converge runs the combinational fixed-point loop of spec §4.5 once for
// the given scheduled blocks: it repeatedly evaluates every guard and
// every primitive's ExecComb until a full pass produces no further
// change, and then resolves any dangling done ports (tracked enables or
// invokes whose go never went high, or whose underlying primitive never
// raised its own done) by driving them Implicit(0).
func (env *Environment) Converge(scheduled []ScheduledAssignment) error {
	dangling := make(map[ir.GlobalPortIdx]bool)
	for _, block := range scheduled {
		if block.Interface != nil {
			dangling[block.Interface.Done] = true
		}
	}

	for {
		status := primitive.Unchanged

		for _, block := range scheduled {
			path := env.componentPath(block.Comp)

			if block.Interface != nil {
				goVal, ok := env.Ports.Get(block.Interface.Go).AsBool()
				if !ok || !goVal {
					continue
				}
				// Spec §4.5: an entry go also requires the active
				// component's own go to be high — a schedule entry
				// belonging to a component that hasn't itself been
				// invoked never actually fires, even if its hole port
				// was raised.
				compGoVal, ok := env.Ports.Get(env.GetComponentGo(block.Comp)).AsBool()
				if !ok || !compGoVal {
					continue
				}
			}

			for i := block.Assignments.Start; i < block.Assignments.End; i++ {
				asg := env.Ctx.Assignments.Get(i)

				guardVal, err := env.EvalGuard(block.Base, asg.Guard)
				if err != nil {
					return err
				}
				if guardVal == nil || !*guardVal {
					continue
				}

				dstPort, ok := env.resolvePort(block.Base, asg.Dst)
				if !ok {
					continue
				}

				if block.Interface != nil && dstPort != block.Interface.Done {
					doneVal := env.Ports.Get(block.Interface.Done)
					if doneVal.IsUndef() {
						continue
					}
					if b, _ := doneVal.AsBool(); b {
						continue
					}
				}

				srcPort, ok := env.resolvePort(block.Base, asg.Src)
				if !ok {
					continue
				}
				srcVal := env.Ports.Get(srcPort)
				if srcVal.IsUndef() {
					if env.Ports.Get(dstPort).IsDef() {
						return &ErrAssignmentUndefinesValue{Port: dstPort, Assignment: i, Path: path}
					}
					continue
				}
				bits, _ := srcVal.Val()

				st, conflictErr := env.Ports.InsertVal(dstPort, value.NewAssigned(bits, i))
				if conflictErr != nil {
					conflictErr.Path = path
					return conflictErr
				}
				if st == primitive.Changed {
					status = primitive.Changed
					delete(dangling, dstPort)
				}
			}
		}

		for idx := 0; idx < env.Cells.Len(); idx++ {
			cell := env.Cells.Get(ir.GlobalCellIdx(idx))
			if cell.IsComponent() {
				continue
			}
			prim := cell.AsPrimitive()
			st, err := prim.ExecComb(env.Ports)
			if err != nil {
				return &ErrPrimitive{Cell: ir.GlobalCellIdx(idx), Path: env.componentPath(ir.GlobalCellIdx(idx)), Err: err}
			}
			if st == primitive.Changed {
				status = primitive.Changed
			}
		}

		if status == primitive.Unchanged {
			// Spec §4.5 step 4: a pass that converged with no changes but
			// still has a tracked done port sitting Undefined breaks the
			// stall by driving it Implicit(0) and resuming convergence —
			// that port may itself be a guard or source another
			// assignment needs before it too can settle.
			resolvedAny := false
			for port := range dangling {
				if env.Ports.Get(port).IsUndef() {
					env.Ports.Set(port, value.NewImplicit(0))
					delete(dangling, port)
					resolvedAny = true
				}
			}
			if !resolvedAny {
				break
			}
			continue
		}
	}

	return nil
}
