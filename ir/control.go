package ir

// ControlKind discriminates the variants of a control-tree node.
type ControlKind int

const (
	CtrlSeq ControlKind = iota
	CtrlPar
	CtrlIf
	CtrlWhile
	CtrlEnable
	CtrlInvoke
	CtrlEmpty
)

// RefCellBinding pairs a callee ref-cell slot with the caller-side cell it
// is bound to for the duration of one Invoke.
type RefCellBinding struct {
	Callee LocalRefCellOffset
	Caller CellRef
}

// ControlNode is one node of a component's structured control program.
// Only the fields relevant to Kind are populated; this mirrors the flat
// enum-with-payload shape of the source IR without needing a Go sum type.
type ControlNode struct {
	Kind ControlKind

	// Seq, Par: child statements, in order.
	Stmts []ControlNodeIdx

	// If, While: the condition port, and an optional attached
	// combinational group that must converge before Cond can be read.
	Cond      PortRef
	CondGroup GroupIdx
	HasGroup  bool

	// If: branch taken when Cond is true / false.
	TrueBranch  ControlNodeIdx
	FalseBranch ControlNodeIdx

	// While: loop body.
	Body ControlNodeIdx

	// Enable: the group this leaf activates.
	Group GroupIdx

	// Invoke: the callee cell, its go/done hole ports, ref-cell bindings,
	// the invoke-local assignment range (argument wiring), and an
	// optional attached combinational group.
	InvokeCell        CellRef
	InvokeGo          PortRef
	InvokeDone        PortRef
	InvokeRefCells    []RefCellBinding
	InvokeAssignments AssignmentRange
}

// Seq builds a CtrlSeq node value.
func Seq(stmts ...ControlNodeIdx) ControlNode {
	return ControlNode{Kind: CtrlSeq, Stmts: stmts}
}

// Par builds a CtrlPar node value.
func Par(stmts ...ControlNodeIdx) ControlNode {
	return ControlNode{Kind: CtrlPar, Stmts: stmts}
}

// If builds a CtrlIf node value.
func If(cond PortRef, tBranch, fBranch ControlNodeIdx) ControlNode {
	return ControlNode{Kind: CtrlIf, Cond: cond, TrueBranch: tBranch, FalseBranch: fBranch}
}

// IfWithGroup builds a CtrlIf node value carrying a combinational
// condition group.
func IfWithGroup(cond PortRef, group GroupIdx, tBranch, fBranch ControlNodeIdx) ControlNode {
	return ControlNode{
		Kind: CtrlIf, Cond: cond, CondGroup: group, HasGroup: true,
		TrueBranch: tBranch, FalseBranch: fBranch,
	}
}

// While builds a CtrlWhile node value.
func While(cond PortRef, body ControlNodeIdx) ControlNode {
	return ControlNode{Kind: CtrlWhile, Cond: cond, Body: body}
}

// WhileWithGroup builds a CtrlWhile node value carrying a combinational
// condition group.
func WhileWithGroup(cond PortRef, group GroupIdx, body ControlNodeIdx) ControlNode {
	return ControlNode{Kind: CtrlWhile, Cond: cond, CondGroup: group, HasGroup: true, Body: body}
}

// Enable builds a CtrlEnable node value.
func Enable(group GroupIdx) ControlNode {
	return ControlNode{Kind: CtrlEnable, Group: group}
}

// Invoke builds a CtrlInvoke node value.
func Invoke(cell CellRef, goPort, donePort PortRef, refCells []RefCellBinding, assigns AssignmentRange) ControlNode {
	return ControlNode{
		Kind: CtrlInvoke, InvokeCell: cell, InvokeGo: goPort, InvokeDone: donePort,
		InvokeRefCells: refCells, InvokeAssignments: assigns,
	}
}

// InvokeWithGroup builds a CtrlInvoke node value carrying a combinational
// group.
func InvokeWithGroup(cell CellRef, goPort, donePort PortRef, refCells []RefCellBinding, assigns AssignmentRange, group GroupIdx) ControlNode {
	n := Invoke(cell, goPort, donePort, refCells, assigns)
	n.CondGroup = group
	n.HasGroup = true
	return n
}

// EmptyNode builds a CtrlEmpty node value.
func EmptyNode() ControlNode { return ControlNode{Kind: CtrlEmpty} }
