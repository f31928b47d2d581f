package flatten

import "github.com/sarchlab/hdlflat/ir"

// ControlPoint is a live cursor into the control tree of one component
// instance (spec §3 "Control point").
type ControlPoint struct {
	Comp ir.GlobalCellIdx
	Node ir.ControlNodeIdx
}

// ContinuousAssigns records one component instance's always-active
// assignment range, scheduled into every convergence pass.
type ContinuousAssigns struct {
	Comp        ir.GlobalCellIdx
	Assignments ir.AssignmentRange
}

// ProgramCounter is the distributed frontier of the whole in-flight
// control program: an unordered multiset of control points, the par
// fan-in counters, the active with-groups, and the continuous-assignment
// list (spec §3).
type ProgramCounter struct {
	points     []ControlPoint
	parMap     map[ControlPoint]uint16
	withMap    map[ControlPoint]ir.GroupIdx
	continuous []ContinuousAssigns
}

// NewProgramCounter creates an empty program counter.
func NewProgramCounter() *ProgramCounter {
	return &ProgramCounter{
		parMap:  make(map[ControlPoint]uint16),
		withMap: make(map[ControlPoint]ir.GroupIdx),
	}
}

// Points returns the live control points. Callers that mutate the PC
// while iterating must copy this slice first; Step never mutates it in
// place, building the next frontier separately and installing it with
// SetPoints.
func (pc *ProgramCounter) Points() []ControlPoint {
	return pc.points
}

// SetPoints replaces the live control points wholesale — used at the end
// of control advancement to install the next cycle's frontier.
func (pc *ProgramCounter) SetPoints(points []ControlPoint) {
	pc.points = points
}

// PushPoint adds a control point to the frontier (used during layout, to
// seed each component's control root).
func (pc *ProgramCounter) PushPoint(p ControlPoint) {
	pc.points = append(pc.points, p)
}

// PushContinuous registers a component instance's continuous assignments.
func (pc *ProgramCounter) PushContinuous(c ContinuousAssigns) {
	pc.continuous = append(pc.continuous, c)
}

// Continuous returns every instance's continuous assignment range.
func (pc *ProgramCounter) Continuous() []ContinuousAssigns {
	return pc.continuous
}

// ParCount returns the outstanding-child counter for a par control point
// and whether it is currently tracked.
func (pc *ProgramCounter) ParCount(p ControlPoint) (uint16, bool) {
	n, ok := pc.parMap[p]
	return n, ok
}

// SetParCount installs or updates a par control point's counter.
func (pc *ProgramCounter) SetParCount(p ControlPoint, n uint16) {
	pc.parMap[p] = n
}

// RemovePar drops a par control point's counter once it reaches zero.
func (pc *ProgramCounter) RemovePar(p ControlPoint) {
	delete(pc.parMap, p)
}

// WithGroup returns the combinational group attached to a with-tracked
// control point, and whether one is currently tracked.
func (pc *ProgramCounter) WithGroup(p ControlPoint) (ir.GroupIdx, bool) {
	g, ok := pc.withMap[p]
	return g, ok
}

// SetWithGroup records that p's attached combinational group should
// participate in convergence.
func (pc *ProgramCounter) SetWithGroup(p ControlPoint, g ir.GroupIdx) {
	pc.withMap[p] = g
}

// RemoveWithGroup stops tracking p's combinational group.
func (pc *ProgramCounter) RemoveWithGroup(p ControlPoint) {
	delete(pc.withMap, p)
}

// WithGroups returns every currently-tracked with-group, paired with the
// control point that installed it.
func (pc *ProgramCounter) WithGroups() map[ControlPoint]ir.GroupIdx {
	return pc.withMap
}
