package flatten

import (
	"fmt"

	"github.com/sarchlab/hdlflat/ir"
	"github.com/sarchlab/hdlflat/primitive"
	"github.com/sarchlab/hdlflat/value"
)

// Environment aggregates every dense index space the engine operates over
// — the port map, the cell map, the ref-cell and ref-port maps, the
// program counter — plus the read-only Context they were laid out from
// (spec §3 "Environment" / C5).
type Environment struct {
	Ports    *PortMap
	Cells    *ir.IndexedMap[ir.GlobalCellIdx, CellLedger]
	RefCells *ir.IndexedMap[ir.GlobalRefCellIdx, *ir.GlobalCellIdx]
	RefPorts *ir.IndexedMap[ir.GlobalRefPortIdx, *ir.GlobalPortIdx]

	PC *ProgramCounter

	Ctx *ir.Context

	footprint map[ir.ComponentIdx]int
}

// NewEnvironment lays out ctx.EntryPoint recursively into dense index
// spaces, per spec §4.2, seeding the program counter with one control
// point per component instance that has a control program. dataMap
// supplies initial memory images for top-level cells only; sub-components
// never receive it.
func NewEnvironment(ctx *ir.Context, dataMap primitive.DataMap) (*Environment, error) {
	env := &Environment{
		Ports:     NewPortMap(0),
		Cells:     ir.NewIndexedMap[ir.GlobalCellIdx, CellLedger](0),
		RefCells:  ir.NewIndexedMap[ir.GlobalRefCellIdx, *ir.GlobalCellIdx](0),
		RefPorts:  ir.NewIndexedMap[ir.GlobalRefPortIdx, *ir.GlobalPortIdx](0),
		PC:        NewProgramCounter(),
		Ctx:       ctx,
		footprint: make(map[ir.ComponentIdx]int),
	}

	rootLedger := env.newComponentLedger(ctx.EntryPoint)
	rootDef := ctx.Component(ctx.EntryPoint)
	root := env.Cells.Push(CellLedger{
		Component: &rootLedger,
		PortBase:  rootLedger.Base.PortBase,
		NumPorts:  rootDef.NumSignaturePorts,
	})

	if err := env.layoutComponent(root, dataMap); err != nil {
		return nil, err
	}

	// Seed the PC with the raw (un-descended) control root of every
	// component instance that has one, per spec §4.2 — resolution past
	// Seq/Par/If/While nodes happens lazily, on that instance's first
	// live Step, once its own go/done gating is known (spec §4.6 sub-step
	// a). Root's go is asserted here so cycle 1's walk already observes
	// the "root go always high" invariant (spec §3) that otherwise only
	// Step's own sub-step (b) would establish.
	env.Cells.Each(func(idx ir.GlobalCellIdx, ledger CellLedger) {
		if !ledger.IsComponent() {
			return
		}
		def := ctx.Component(ledger.AsComponent().CompID)
		if def.HasControl {
			env.PC.PushPoint(ControlPoint{Comp: idx, Node: def.ControlRoot})
		}
	})
	env.Ports.Set(rootLedger.Base.Port(rootDef.Go), value.NewImplicit(1))

	return env, nil
}

// newComponentLedger computes a fresh component frame's base indices from
// the environment's current push counters. Must be called immediately
// before the frame's own cell slot is pushed, matching the reference
// implementation's CellLedger::new_comp.
func (env *Environment) newComponentLedger(compID ir.ComponentIdx) ComponentLedger {
	return ComponentLedger{
		Base: ir.BaseIndices{
			PortBase:    env.Ports.PeekNextIdx(),
			CellBase:    env.Cells.PeekNextIdx() + 1,
			RefCellBase: env.RefCells.PeekNextIdx(),
			RefPortBase: env.RefPorts.PeekNextIdx(),
		},
		CompID: compID,
	}
}

// cellFootprint is how many global cell slots a direct cell definition
// consumes: one for a primitive, or one (for the component's own frame)
// plus the recursive footprint of everything nested inside it. This lets
// layoutComponent assign each of its direct cells the correct local
// offset even though a sibling's nested sub-components interleave
// additional entries into the shared global cell array between them.
func (env *Environment) cellFootprint(def ir.CellDef) int {
	if !def.IsComponent() {
		return 1
	}
	return 1 + env.componentFootprint(def.Prototype.Component)
}

func (env *Environment) componentFootprint(compID ir.ComponentIdx) int {
	if n, ok := env.footprint[compID]; ok {
		return n
	}
	def := env.Ctx.Component(compID)
	total := 0
	for _, cell := range def.Cells {
		total += env.cellFootprint(cell)
	}
	env.footprint[compID] = total
	return total
}

func mustEqual[T comparable](got, want T, what string) error {
	if got != want {
		return fmt.Errorf("flatten: layout invariant violated for %s: pushed at %v, base+local expects %v", what, got, want)
	}
	return nil
}

// layoutComponent lays out one component instance's slice of every index
// space, in the order spec §4.2 mandates: (1) signature ports, (2) group
// go/done holes, (3) each direct cell's ports+primitive or recursive
// sub-component layout, (4) ref-cell and ref-port slots initialized to
// unbound.
func (env *Environment) layoutComponent(comp ir.GlobalCellIdx, dataMap primitive.DataMap) error {
	ledger := *env.Cells.Get(comp).AsComponent()
	def := env.Ctx.Component(ledger.CompID)
	base := ledger.Base

	if !def.ContinuousAssignments.Empty() {
		env.PC.PushContinuous(ContinuousAssigns{Comp: comp, Assignments: def.ContinuousAssignments})
	}

	for i := 0; i < def.NumSignaturePorts; i++ {
		idx := env.Ports.Push(value.Undef())
		if err := mustEqual(idx, base.Port(ir.LocalPortOffset(i)), "signature port"); err != nil {
			return err
		}
	}

	for _, groupIdx := range def.Groups {
		g := env.Ctx.Groups.Get(groupIdx)
		first := env.Ports.Push(value.Undef())
		second := env.Ports.Push(value.Undef())

		goActual := base.Port(g.Go)
		doneActual := base.Port(g.Done)
		if g.Go < g.Done {
			if err := mustEqual(first, goActual, "group go"); err != nil {
				return err
			}
			if err := mustEqual(second, doneActual, "group done"); err != nil {
				return err
			}
		} else {
			if err := mustEqual(first, doneActual, "group done"); err != nil {
				return err
			}
			if err := mustEqual(second, goActual, "group go"); err != nil {
				return err
			}
		}
	}

	localCellOffset := 0
	for _, cellDef := range def.Cells {
		expected := base.Cell(ir.LocalCellOffset(localCellOffset))

		if !cellDef.IsComponent() {
			portBase := env.Ports.PeekNextIdx()
			for p := 0; p < cellDef.NumPorts; p++ {
				idx := env.Ports.Push(value.Undef())
				if err := mustEqual(idx, base.Port(ir.LocalPortOffset(int(portBase-base.PortBase)+p)), "cell port"); err != nil {
					return err
				}
			}

			var cellDataMap primitive.DataMap
			if dataMap != nil {
				cellDataMap = dataMap
			}
			prim, err := primitive.Build(cellDef, portBase, cellDataMap)
			if err != nil {
				return fmt.Errorf("flatten: building primitive %q: %w", cellDef.Name, err)
			}

			cell := env.Cells.Push(CellLedger{Primitive: prim, PortBase: portBase, NumPorts: cellDef.NumPorts})
			if err := mustEqual(cell, expected, "primitive cell"); err != nil {
				return err
			}
			localCellOffset++
			continue
		}

		childLedger := env.newComponentLedger(cellDef.Prototype.Component)
		childDef := env.Ctx.Component(cellDef.Prototype.Component)
		cell := env.Cells.Push(CellLedger{
			Component: &childLedger,
			PortBase:  childLedger.Base.PortBase,
			NumPorts:  childDef.NumSignaturePorts,
		})
		if err := mustEqual(cell, expected, "component cell"); err != nil {
			return err
		}
		if err := env.layoutComponent(cell, nil); err != nil {
			return err
		}
		localCellOffset += env.cellFootprint(cellDef)
	}

	for i, refCell := range def.RefCells {
		portLocalBase := refPortLocalBase(def, i)
		for p := 0; p < refCell.NumPorts; p++ {
			portActual := env.RefPorts.Push(nil)
			if err := mustEqual(portActual, base.RefPort(ir.LocalRefPortOffset(portLocalBase+p)), "ref port"); err != nil {
				return err
			}
		}
		cellActual := env.RefCells.Push(nil)
		if err := mustEqual(cellActual, base.RefCell(ir.LocalRefCellOffset(i)), "ref cell"); err != nil {
			return err
		}
	}

	return nil
}

// GetComponentGo returns the go port for a component instance.
func (env *Environment) GetComponentGo(comp ir.GlobalCellIdx) ir.GlobalPortIdx {
	ledger := env.Cells.Get(comp).AsComponent()
	def := env.Ctx.Component(ledger.CompID)
	return ledger.Base.Port(def.Go)
}

// GetComponentDone returns the done port for a component instance.
func (env *Environment) GetComponentDone(comp ir.GlobalCellIdx) ir.GlobalPortIdx {
	ledger := env.Cells.Get(comp).AsComponent()
	def := env.Ctx.Component(ledger.CompID)
	return ledger.Base.Port(def.Done)
}

// GetRootDone returns the done port of the whole program's root instance.
func (env *Environment) GetRootDone() ir.GlobalPortIdx {
	return env.GetComponentDone(0)
}

// GetRootGo returns the go port of the whole program's root instance.
func (env *Environment) GetRootGo() ir.GlobalPortIdx {
	return env.GetComponentGo(0)
}
