package flatten

import (
	"fmt"

	"github.com/sarchlab/hdlflat/ir"
)

// ErrConflictingAssignments is returned when two assignments fire in the
// same convergence pass and disagree on the value they write to a port.
type ErrConflictingAssignments struct {
	Port   ir.GlobalPortIdx
	First  ir.AssignmentIdx
	Second ir.AssignmentIdx
	Path   string
}

func (e *ErrConflictingAssignments) Error() string {
	return fmt.Sprintf(
		"%s: conflicting assignments to port %d: assignment %d and assignment %d disagree",
		e.Path, e.Port, e.First, e.Second,
	)
}

// ErrUndefinedCondition is returned when an If or While reads a condition
// port that is still Undefined — always fatal, per spec §7.
type ErrUndefinedCondition struct {
	Node ir.ControlNodeIdx
	Path string
}

func (e *ErrUndefinedCondition) Error() string {
	return fmt.Sprintf("%s: condition port for control node %d is undefined", e.Path, e.Node)
}

// ErrUndefinedRefCell is returned when a ref-cell slot is read before it
// has been bound by an enclosing Invoke.
type ErrUndefinedRefCell struct {
	RefCell ir.GlobalRefCellIdx
	Path    string
}

func (e *ErrUndefinedRefCell) Error() string {
	return fmt.Sprintf("%s: ref-cell %d has not been bound", e.Path, e.RefCell)
}

// ErrUndefinedRefPort is returned when a ref-port slot is read before it
// has been bound by an enclosing Invoke.
type ErrUndefinedRefPort struct {
	RefPort ir.GlobalRefPortIdx
	Path    string
}

func (e *ErrUndefinedRefPort) Error() string {
	return fmt.Sprintf("%s: ref-port %d has not been bound", e.Path, e.RefPort)
}

// ErrMissingRefBinding is returned when an Invoke's callee declares a
// ref-cell whose port arity does not match the caller-supplied cell.
type ErrMissingRefBinding struct {
	RefCellName  string
	CalleeArity  int
	SuppliedName string
	SuppliedAri  int
	Path         string
}

func (e *ErrMissingRefBinding) Error() string {
	return fmt.Sprintf(
		"%s: invoke binds ref-cell %q (arity %d) to %q (arity %d): arity mismatch",
		e.Path, e.RefCellName, e.CalleeArity, e.SuppliedName, e.SuppliedAri,
	)
}

// ErrParOverflow is returned when a Par node would fan out to more than
// 65535 children, the documented u16 counter limit (spec §7, §9).
type ErrParOverflow struct {
	Node     ir.ControlNodeIdx
	NumChild int
	Path     string
}

func (e *ErrParOverflow) Error() string {
	return fmt.Sprintf(
		"%s: par node %d has %d children, exceeding the 65535 limit",
		e.Path, e.Node, e.NumChild,
	)
}

// ErrPrimitive wraps an error surfaced by a primitive's ExecComb or
// ExecCycle, unchanged, with the active component path attached.
type ErrPrimitive struct {
	Cell ir.GlobalCellIdx
	Path string
	Err  error
}

func (e *ErrPrimitive) Error() string {
	return fmt.Sprintf("%s: primitive error in cell %d: %v", e.Path, e.Cell, e.Err)
}

func (e *ErrPrimitive) Unwrap() error {
	return e.Err
}

// ErrAssignmentUndefinesValue is returned when an assignment's source goes
// undefined while its destination is currently defined — the convergence
// loop never lets a port un-define itself mid-pass (spec §4.5).
type ErrAssignmentUndefinesValue struct {
	Port       ir.GlobalPortIdx
	Assignment ir.AssignmentIdx
	Path       string
}

func (e *ErrAssignmentUndefinesValue) Error() string {
	return fmt.Sprintf(
		"%s: assignment %d would undefine already-defined port %d",
		e.Path, e.Assignment, e.Port,
	)
}
