package flatten_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/hdlflat/flatten"
	"github.com/sarchlab/hdlflat/ir"
)

// constDef builds a std_const cell definition.
func constDef(name string, value uint64, width int) ir.CellDef {
	return ir.CellDef{
		Name:     name,
		NumPorts: 1,
		Prototype: ir.CellPrototype{
			Kind:          ir.CellIsPrimitive,
			PrimitiveName: "std_const",
			Params:        map[string]int{"value": int(value), "width": width},
		},
	}
}

// regDef builds a std_reg cell definition (ports: in, write_en, out, done).
func regDef(name string, width int) ir.CellDef {
	return ir.CellDef{
		Name:     name,
		NumPorts: 4,
		Prototype: ir.CellPrototype{
			Kind:          ir.CellIsPrimitive,
			PrimitiveName: "std_reg",
			Params:        map[string]int{"width": width},
		},
	}
}

// buildSingleRegister builds "do_write: r.in = c.out; r.write_en = one.out"
// as a single Enable, matching spec §8's simplest write scenario.
func buildSingleRegister() *ir.Context {
	ctx := ir.NewContext()

	trueGuard := ctx.Guards.Push(ir.True())

	// Ports: go=0, done=1, group.go=2, group.done=3,
	// c.out=4, one.out=5, r.in=6, r.write_en=7, r.out=8, r.done=9.
	a0 := ctx.Assignments.Push(ir.Assignment{Dst: ir.LocalPort(6), Src: ir.LocalPort(4), Guard: trueGuard})
	a1 := ctx.Assignments.Push(ir.Assignment{Dst: ir.LocalPort(7), Src: ir.LocalPort(5), Guard: trueGuard})
	_ = a0
	_ = a1
	ctx.Assignments.Push(ir.Assignment{Dst: ir.LocalPort(3), Src: ir.LocalPort(9), Guard: trueGuard})

	group := ctx.Groups.Push(ir.Group{Name: "do_write", Go: 2, Done: 3, Assignments: ir.AssignmentRange{Start: 0, End: 3}})

	def := ir.ComponentDef{
		Name:              "main",
		NumSignaturePorts: 2,
		Go:                0,
		Done:              1,
		Cells:             []ir.CellDef{constDef("c", 42, 8), constDef("one", 1, 1), regDef("r", 8)},
		Groups:            []ir.GroupIdx{group},
		HasControl:        true,
	}
	root := def.PushControlNode(ir.Enable(group), ir.NoParent)
	def.ControlRoot = root

	compID := ctx.AddComponent(def)
	ctx.EntryPoint = compID
	return ctx
}

// binDef builds a two-input combinational primitive cell definition
// (ports: left, right, out).
func binDef(name, primName string) ir.CellDef {
	return ir.CellDef{
		Name:     name,
		NumPorts: 3,
		Prototype: ir.CellPrototype{
			Kind:          ir.CellIsPrimitive,
			PrimitiveName: primName,
		},
	}
}

// buildSequentialPipeline builds "load: r1 := 7" then "shift: r2 := r1.out",
// exercising Seq control advancement.
func buildSequentialPipeline() *ir.Context {
	ctx := ir.NewContext()
	trueGuard := ctx.Guards.Push(ir.True())

	// Ports: go=0, done=1, g1.go=2, g1.done=3, g2.go=4, g2.done=5,
	// cVal.out=6, cOne.out=7, r1.in=8, r1.wen=9, r1.out=10, r1.done=11,
	// r2.in=12, r2.wen=13, r2.out=14, r2.done=15.
	ctx.Assignments.Push(ir.Assignment{Dst: ir.LocalPort(8), Src: ir.LocalPort(6), Guard: trueGuard})
	ctx.Assignments.Push(ir.Assignment{Dst: ir.LocalPort(9), Src: ir.LocalPort(7), Guard: trueGuard})
	ctx.Assignments.Push(ir.Assignment{Dst: ir.LocalPort(3), Src: ir.LocalPort(11), Guard: trueGuard})
	ctx.Assignments.Push(ir.Assignment{Dst: ir.LocalPort(12), Src: ir.LocalPort(10), Guard: trueGuard})
	ctx.Assignments.Push(ir.Assignment{Dst: ir.LocalPort(13), Src: ir.LocalPort(7), Guard: trueGuard})
	ctx.Assignments.Push(ir.Assignment{Dst: ir.LocalPort(5), Src: ir.LocalPort(15), Guard: trueGuard})

	g1 := ctx.Groups.Push(ir.Group{Name: "load", Go: 2, Done: 3, Assignments: ir.AssignmentRange{Start: 0, End: 3}})
	g2 := ctx.Groups.Push(ir.Group{Name: "shift", Go: 4, Done: 5, Assignments: ir.AssignmentRange{Start: 3, End: 6}})

	def := ir.ComponentDef{
		Name:              "pipe",
		NumSignaturePorts: 2,
		Go:                0,
		Done:              1,
		Cells:             []ir.CellDef{constDef("cVal", 7, 8), constDef("cOne", 1, 1), regDef("r1", 8), regDef("r2", 8)},
		Groups:            []ir.GroupIdx{g1, g2},
		HasControl:        true,
	}

	seqIdx := def.PushControlNode(ir.ControlNode{Kind: ir.CtrlSeq}, ir.NoParent)
	e1 := def.PushControlNode(ir.Enable(g1), seqIdx)
	e2 := def.PushControlNode(ir.Enable(g2), seqIdx)
	def.ControlNodes[seqIdx].Stmts = []ir.ControlNodeIdx{e1, e2}
	def.ControlRoot = seqIdx

	compID := ctx.AddComponent(def)
	ctx.EntryPoint = compID
	return ctx
}

// buildParallelWrites builds two independent registers written concurrently
// under a Par node, exercising the fan-in counter.
func buildParallelWrites() *ir.Context {
	ctx := ir.NewContext()
	trueGuard := ctx.Guards.Push(ir.True())

	// Ports: go=0, done=1, g1.go=2, g1.done=3, g2.go=4, g2.done=5,
	// cOne.out=6, cA.out=7, cB.out=8,
	// rA.in=9, rA.wen=10, rA.out=11, rA.done=12,
	// rB.in=13, rB.wen=14, rB.out=15, rB.done=16.
	ctx.Assignments.Push(ir.Assignment{Dst: ir.LocalPort(9), Src: ir.LocalPort(7), Guard: trueGuard})
	ctx.Assignments.Push(ir.Assignment{Dst: ir.LocalPort(10), Src: ir.LocalPort(6), Guard: trueGuard})
	ctx.Assignments.Push(ir.Assignment{Dst: ir.LocalPort(3), Src: ir.LocalPort(12), Guard: trueGuard})
	ctx.Assignments.Push(ir.Assignment{Dst: ir.LocalPort(13), Src: ir.LocalPort(8), Guard: trueGuard})
	ctx.Assignments.Push(ir.Assignment{Dst: ir.LocalPort(14), Src: ir.LocalPort(6), Guard: trueGuard})
	ctx.Assignments.Push(ir.Assignment{Dst: ir.LocalPort(5), Src: ir.LocalPort(16), Guard: trueGuard})

	g1 := ctx.Groups.Push(ir.Group{Name: "writeA", Go: 2, Done: 3, Assignments: ir.AssignmentRange{Start: 0, End: 3}})
	g2 := ctx.Groups.Push(ir.Group{Name: "writeB", Go: 4, Done: 5, Assignments: ir.AssignmentRange{Start: 3, End: 6}})

	def := ir.ComponentDef{
		Name:              "fanout",
		NumSignaturePorts: 2,
		Go:                0,
		Done:              1,
		Cells: []ir.CellDef{
			constDef("cOne", 1, 1), constDef("cA", 11, 8), constDef("cB", 22, 8),
			regDef("rA", 8), regDef("rB", 8),
		},
		Groups:     []ir.GroupIdx{g1, g2},
		HasControl: true,
	}

	parIdx := def.PushControlNode(ir.ControlNode{Kind: ir.CtrlPar}, ir.NoParent)
	e1 := def.PushControlNode(ir.Enable(g1), parIdx)
	e2 := def.PushControlNode(ir.Enable(g2), parIdx)
	def.ControlNodes[parIdx].Stmts = []ir.ControlNodeIdx{e1, e2}
	def.ControlRoot = parIdx

	compID := ctx.AddComponent(def)
	ctx.EntryPoint = compID
	return ctx
}

// buildIfWithGroup builds an If node whose condition is computed by an
// attached combinational group, taking the true branch to commit a value
// into a register.
func buildIfWithGroup() *ir.Context {
	ctx := ir.NewContext()
	trueGuard := ctx.Guards.Push(ir.True())

	// Ports: go=0, done=1, flagcheck.go=2, flagcheck.done=3,
	// commit.go=4, commit.done=5,
	// flag.out=6, val.out=7, one.out=8, r.in=9, r.wen=10, r.out=11, r.done=12.
	ctx.Assignments.Push(ir.Assignment{Dst: ir.LocalPort(9), Src: ir.LocalPort(7), Guard: trueGuard})
	ctx.Assignments.Push(ir.Assignment{Dst: ir.LocalPort(10), Src: ir.LocalPort(8), Guard: trueGuard})
	ctx.Assignments.Push(ir.Assignment{Dst: ir.LocalPort(5), Src: ir.LocalPort(12), Guard: trueGuard})

	condGroup := ctx.Groups.Push(ir.Group{Name: "flagcheck", Go: 2, Done: 3, Assignments: ir.AssignmentRange{Start: 0, End: 0}})
	commitGroup := ctx.Groups.Push(ir.Group{Name: "commit", Go: 4, Done: 5, Assignments: ir.AssignmentRange{Start: 0, End: 3}})

	def := ir.ComponentDef{
		Name:              "cond",
		NumSignaturePorts: 2,
		Go:                0,
		Done:              1,
		Cells:             []ir.CellDef{constDef("flag", 1, 1), constDef("val", 99, 8), constDef("one", 1, 1), regDef("r", 8)},
		Groups:            []ir.GroupIdx{condGroup, commitGroup},
		HasControl:        true,
	}

	ifIdx := def.PushControlNode(ir.ControlNode{Kind: ir.CtrlIf}, ir.NoParent)
	trueBranch := def.PushControlNode(ir.Enable(commitGroup), ifIdx)
	falseBranch := def.PushControlNode(ir.EmptyNode(), ifIdx)
	def.ControlNodes[ifIdx] = ir.IfWithGroup(ir.LocalPort(6), condGroup, trueBranch, falseBranch)
	def.ControlRoot = ifIdx

	compID := ctx.AddComponent(def)
	ctx.EntryPoint = compID
	return ctx
}

// buildWhileCounter builds "while lt.out { incr: r.in = r.out + one.out;
// r.write_en = one.out }", with the condition computed by a combinational
// group attached to the While node, exercising CtrlWhile's with-group
// deferred convergence (flatten.ifWhileStep) across repeated cycles.
func buildWhileCounter() *ir.Context {
	ctx := ir.NewContext()
	trueGuard := ctx.Guards.Push(ir.True())

	// Ports: go=0, done=1, cond.go=2, cond.done=3, incr.go=4, incr.done=5,
	// cLimit.out=6, cOne.out=7, lt.left=8, lt.right=9, lt.out=10,
	// add.left=11, add.right=12, add.out=13,
	// r.in=14, r.wen=15, r.out=16, r.done=17.
	ctx.Assignments.Push(ir.Assignment{Dst: ir.LocalPort(8), Src: ir.LocalPort(16), Guard: trueGuard})
	ctx.Assignments.Push(ir.Assignment{Dst: ir.LocalPort(9), Src: ir.LocalPort(6), Guard: trueGuard})

	ctx.Assignments.Push(ir.Assignment{Dst: ir.LocalPort(11), Src: ir.LocalPort(16), Guard: trueGuard})
	ctx.Assignments.Push(ir.Assignment{Dst: ir.LocalPort(12), Src: ir.LocalPort(7), Guard: trueGuard})
	ctx.Assignments.Push(ir.Assignment{Dst: ir.LocalPort(14), Src: ir.LocalPort(13), Guard: trueGuard})
	ctx.Assignments.Push(ir.Assignment{Dst: ir.LocalPort(15), Src: ir.LocalPort(7), Guard: trueGuard})
	ctx.Assignments.Push(ir.Assignment{Dst: ir.LocalPort(5), Src: ir.LocalPort(17), Guard: trueGuard})

	condGroup := ctx.Groups.Push(ir.Group{Name: "cond", Go: 2, Done: 3, Assignments: ir.AssignmentRange{Start: 0, End: 2}})
	incrGroup := ctx.Groups.Push(ir.Group{Name: "incr", Go: 4, Done: 5, Assignments: ir.AssignmentRange{Start: 2, End: 7}})

	def := ir.ComponentDef{
		Name:              "counter",
		NumSignaturePorts: 2,
		Go:                0,
		Done:              1,
		Cells: []ir.CellDef{
			constDef("cLimit", 3, 8), constDef("cOne", 1, 8),
			binDef("lt", "std_lt"), binDef("add", "std_add"),
			regDef("r", 8),
		},
		Groups:     []ir.GroupIdx{condGroup, incrGroup},
		HasControl: true,
	}

	whileIdx := def.PushControlNode(ir.ControlNode{Kind: ir.CtrlWhile}, ir.NoParent)
	body := def.PushControlNode(ir.Enable(incrGroup), whileIdx)
	def.ControlNodes[whileIdx] = ir.WhileWithGroup(ir.LocalPort(10), condGroup, body)
	def.ControlRoot = whileIdx

	compID := ctx.AddComponent(def)
	ctx.EntryPoint = compID
	return ctx
}

// buildInvokeDoubler builds a "doubler" sub-component with its own
// go/done-gated control program (load a constant into a register, forward
// it to its signature output), and a root component that Invokes it with
// no ref-cell bindings, exercising invoke.go's callee resolution and the
// go/done handshake across a component boundary.
func buildInvokeDoubler() *ir.Context {
	ctx := ir.NewContext()
	trueGuard := ctx.Guards.Push(ir.True())

	// doubler's own ports: sig go=0, done=1, out=2, compute.go=3,
	// compute.done=4, cVal.out=5, cOne.out=6, r.in=7, r.wen=8, r.out=9,
	// r.done=10.
	ctx.Assignments.Push(ir.Assignment{Dst: ir.LocalPort(7), Src: ir.LocalPort(5), Guard: trueGuard})
	ctx.Assignments.Push(ir.Assignment{Dst: ir.LocalPort(8), Src: ir.LocalPort(6), Guard: trueGuard})
	ctx.Assignments.Push(ir.Assignment{Dst: ir.LocalPort(4), Src: ir.LocalPort(10), Guard: trueGuard})
	ctx.Assignments.Push(ir.Assignment{Dst: ir.LocalPort(2), Src: ir.LocalPort(9), Guard: trueGuard})

	computeGroup := ctx.Groups.Push(ir.Group{Name: "compute", Go: 3, Done: 4, Assignments: ir.AssignmentRange{Start: 0, End: 3}})

	doublerDef := ir.ComponentDef{
		Name:                  "doubler",
		NumSignaturePorts:     3,
		Go:                    0,
		Done:                  1,
		Cells:                 []ir.CellDef{constDef("cVal", 42, 8), constDef("cOne", 1, 1), regDef("r", 8)},
		Groups:                []ir.GroupIdx{computeGroup},
		ContinuousAssignments: ir.AssignmentRange{Start: 3, End: 4},
		HasControl:            true,
	}
	doublerRoot := doublerDef.PushControlNode(ir.Enable(computeGroup), ir.NoParent)
	doublerDef.ControlRoot = doublerRoot
	doublerID := ctx.AddComponent(doublerDef)

	// main's own ports: sig go=0, done=1.
	mainDef := ir.ComponentDef{
		Name:              "main",
		NumSignaturePorts: 2,
		Go:                0,
		Done:              1,
		Cells: []ir.CellDef{
			{Name: "d", NumPorts: 3, Prototype: ir.CellPrototype{Kind: ir.CellIsComponent, Component: doublerID}},
		},
		HasControl: true,
	}
	invokeIdx := mainDef.PushControlNode(
		ir.Invoke(ir.LocalCell(0), ir.PortRef{}, ir.PortRef{}, nil, ir.AssignmentRange{Start: 4, End: 4}),
		ir.NoParent,
	)
	mainDef.ControlRoot = invokeIdx

	mainID := ctx.AddComponent(mainDef)
	ctx.EntryPoint = mainID
	return ctx
}

// buildConflict builds two continuous assignments that unconditionally
// disagree on the value they drive into the same destination port, with no
// control program at all.
func buildConflict() *ir.Context {
	ctx := ir.NewContext()
	trueGuard := ctx.Guards.Push(ir.True())

	// Ports: go=0, done=1, x=2 (extra signature port, the contested
	// destination), a.out=3, b.out=4.
	ctx.Assignments.Push(ir.Assignment{Dst: ir.LocalPort(2), Src: ir.LocalPort(3), Guard: trueGuard})
	ctx.Assignments.Push(ir.Assignment{Dst: ir.LocalPort(2), Src: ir.LocalPort(4), Guard: trueGuard})

	def := ir.ComponentDef{
		Name:                  "conflict",
		NumSignaturePorts:     3,
		Go:                    0,
		Done:                  1,
		Cells:                 []ir.CellDef{constDef("a", 5, 8), constDef("b", 9, 8)},
		ContinuousAssignments: ir.AssignmentRange{Start: 0, End: 2},
		HasControl:            false,
	}

	compID := ctx.AddComponent(def)
	ctx.EntryPoint = compID
	return ctx
}

func runToCompletion(env *flatten.Environment) error {
	for i := 0; i < 64; i++ {
		done, ok := env.Ports.Get(env.GetRootDone()).AsBool()
		if ok && done {
			return nil
		}
		if err := env.Step(); err != nil {
			return err
		}
	}
	return nil
}

var _ = Describe("Environment", func() {
	It("drives a register write through a single enable", func() {
		ctx := buildSingleRegister()
		env, err := flatten.NewEnvironment(ctx, nil)
		Expect(err).NotTo(HaveOccurred())

		Expect(runToCompletion(env)).To(Succeed())

		out, ok := env.Ports.Get(ir.GlobalPortIdx(8)).Val()
		Expect(ok).To(BeTrue())
		Expect(out).To(Equal(uint64(42)))

		done, ok := env.Ports.Get(env.GetRootDone()).AsBool()
		Expect(ok).To(BeTrue())
		Expect(done).To(BeTrue())
	})

	It("advances a Seq of two enables in order", func() {
		ctx := buildSequentialPipeline()
		env, err := flatten.NewEnvironment(ctx, nil)
		Expect(err).NotTo(HaveOccurred())

		Expect(runToCompletion(env)).To(Succeed())

		out, ok := env.Ports.Get(ir.GlobalPortIdx(14)).Val()
		Expect(ok).To(BeTrue())
		Expect(out).To(Equal(uint64(7)))
	})

	It("runs both branches of a Par to completion", func() {
		ctx := buildParallelWrites()
		env, err := flatten.NewEnvironment(ctx, nil)
		Expect(err).NotTo(HaveOccurred())

		Expect(runToCompletion(env)).To(Succeed())

		outA, ok := env.Ports.Get(ir.GlobalPortIdx(11)).Val()
		Expect(ok).To(BeTrue())
		Expect(outA).To(Equal(uint64(11)))

		outB, ok := env.Ports.Get(ir.GlobalPortIdx(15)).Val()
		Expect(ok).To(BeTrue())
		Expect(outB).To(Equal(uint64(22)))
	})

	It("takes the true branch of an If gated by a combinational group", func() {
		ctx := buildIfWithGroup()
		env, err := flatten.NewEnvironment(ctx, nil)
		Expect(err).NotTo(HaveOccurred())

		Expect(runToCompletion(env)).To(Succeed())

		out, ok := env.Ports.Get(ir.GlobalPortIdx(11)).Val()
		Expect(ok).To(BeTrue())
		Expect(out).To(Equal(uint64(99)))
	})

	It("runs a While loop, gated by a combinational condition group, until the condition goes false", func() {
		ctx := buildWhileCounter()
		env, err := flatten.NewEnvironment(ctx, nil)
		Expect(err).NotTo(HaveOccurred())

		Expect(runToCompletion(env)).To(Succeed())

		out, ok := env.Ports.Get(ir.GlobalPortIdx(16)).Val()
		Expect(ok).To(BeTrue())
		Expect(out).To(Equal(uint64(3)))

		done, ok := env.Ports.Get(env.GetRootDone()).AsBool()
		Expect(ok).To(BeTrue())
		Expect(done).To(BeTrue())
	})

	It("invokes a nested component and observes its go/done handshake", func() {
		ctx := buildInvokeDoubler()
		env, err := flatten.NewEnvironment(ctx, nil)
		Expect(err).NotTo(HaveOccurred())

		Expect(runToCompletion(env)).To(Succeed())

		out, ok := env.Ports.Get(ir.GlobalPortIdx(4)).Val()
		Expect(ok).To(BeTrue())
		Expect(out).To(Equal(uint64(42)))

		done, ok := env.Ports.Get(env.GetRootDone()).AsBool()
		Expect(ok).To(BeTrue())
		Expect(done).To(BeTrue())
	})

	It("leaves every port unchanged when convergence is replayed on an already-converged cycle", func() {
		ctx := buildSingleRegister()
		env, err := flatten.NewEnvironment(ctx, nil)
		Expect(err).NotTo(HaveOccurred())

		Expect(runToCompletion(env)).To(Succeed())

		ok, err := env.ConvergeIdempotent(nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
	})

	It("reports a conflict when two assignments disagree on a port", func() {
		ctx := buildConflict()
		env, err := flatten.NewEnvironment(ctx, nil)
		Expect(err).NotTo(HaveOccurred())

		err = env.Step()
		Expect(err).To(HaveOccurred())

		var conflict *flatten.ErrConflictingAssignments
		Expect(err).To(BeAssignableToTypeOf(conflict))
	})
})
