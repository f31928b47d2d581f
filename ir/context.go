package ir

// NoParent is the sentinel stored for a control tree's root node, which has
// no syntactic parent to bubble back to.
const NoParent ControlNodeIdx = -1

// Group is a named bundle of assignments gated by dedicated go/done hole
// ports.
type Group struct {
	Name        string
	Go, Done    LocalPortOffset
	Assignments AssignmentRange
}

// Assignment is a single guarded connection dst := src, active for one
// convergence pass whenever Guard evaluates true.
type Assignment struct {
	Dst   PortRef
	Src   PortRef
	Guard GuardIdx
}

// CellPrototypeKind discriminates what a cell definition instantiates.
type CellPrototypeKind int

const (
	// CellIsPrimitive means the cell is built by the primitive factory.
	CellIsPrimitive CellPrototypeKind = iota
	// CellIsComponent means the cell is a nested component instance.
	CellIsComponent
)

// CellPrototype describes what one cell definition instantiates.
type CellPrototype struct {
	Kind CellPrototypeKind

	// CellIsPrimitive.
	PrimitiveName string
	Params        map[string]int

	// CellIsComponent.
	Component ComponentIdx
}

// CellDef is one cell definition within a component: its name, how many
// ports it has (for non-component cells; component cells derive their
// port count from the child's signature), and what it instantiates.
type CellDef struct {
	Name      string
	NumPorts  int
	Prototype CellPrototype
}

// IsComponent reports whether this cell definition is a nested component
// instance rather than a primitive.
func (c CellDef) IsComponent() bool {
	return c.Prototype.Kind == CellIsComponent
}

// RefCellDef is a ref-cell declaration: a late-bound slot with a fixed
// port arity that an Invoke's caller must match exactly.
type RefCellDef struct {
	Name     string
	NumPorts int
}

// ComponentDef is the immutable, elaborated definition of one component:
// its signature, its cells, its groups, and its control tree (absent for
// primitive-only leaf wrappers, which have no control program).
type ComponentDef struct {
	Name string

	// NumSignaturePorts is how many of the component's ports are part of
	// its external interface (laid out first, per spec §4.2).
	NumSignaturePorts int
	Go, Done          LocalPortOffset

	ContinuousAssignments AssignmentRange

	Cells    []CellDef
	RefCells []RefCellDef
	Groups   []GroupIdx

	HasControl  bool
	ControlRoot ControlNodeIdx

	// ControlNodes is this component definition's own control-tree arena;
	// ControlNodeIdx values are relative to it, never global.
	ControlNodes []ControlNode
	// Parent holds, for every control node, the node that contains it
	// (NoParent for the root). Used by NextNode to compute syntactic
	// successors without requiring each node to store a back-pointer.
	Parent []ControlNodeIdx
}

// PushControlNode appends a control node to this definition's arena under
// the given parent (NoParent for the root) and returns its index.
func (c *ComponentDef) PushControlNode(n ControlNode, parent ControlNodeIdx) ControlNodeIdx {
	idx := ControlNodeIdx(len(c.ControlNodes))
	c.ControlNodes = append(c.ControlNodes, n)
	c.Parent = append(c.Parent, parent)
	return idx
}

// Node returns the control node at idx.
func (c *ComponentDef) Node(idx ControlNodeIdx) ControlNode {
	return c.ControlNodes[idx]
}

// Context is the fully elaborated, immutable intermediate representation
// produced by the (external) front end and elaborator. Nothing in this
// package mutates a Context after construction.
type Context struct {
	Components  []ComponentDef
	Groups      *IndexedMap[GroupIdx, Group]
	Assignments *IndexedMap[AssignmentIdx, Assignment]
	Guards      *IndexedMap[GuardIdx, Guard]

	EntryPoint ComponentIdx
}

// NewContext creates an empty, writable-during-elaboration Context. The
// caller (the front end) populates it via the exported push helpers and
// then hands it, by convention, to flatten.NewEnvironment as read-only.
func NewContext() *Context {
	return &Context{
		Groups:      NewIndexedMap[GroupIdx, Group](0),
		Assignments: NewIndexedMap[AssignmentIdx, Assignment](0),
		Guards:      NewIndexedMap[GuardIdx, Guard](0),
	}
}

// AddComponent appends a component definition and returns its index.
func (ctx *Context) AddComponent(def ComponentDef) ComponentIdx {
	idx := ComponentIdx(len(ctx.Components))
	ctx.Components = append(ctx.Components, def)
	return idx
}

// Component returns the definition for idx.
func (ctx *Context) Component(idx ComponentIdx) *ComponentDef {
	return &ctx.Components[idx]
}

// NextNode computes the structural successor of a control node within one
// component definition, per spec §4.6: walking Seq to its next statement
// (recursing outward at the end), bubbling a Par child back to its Par
// node, looping a While's body back to the While node itself to recheck
// its condition, and otherwise recursing to the parent's own successor.
// ok is false when node has no successor (the control tree is exhausted).
func (ctx *Context) NextNode(comp ComponentIdx, node ControlNodeIdx) (ControlNodeIdx, bool) {
	def := ctx.Component(comp)
	parent := def.Parent[node]
	if parent == NoParent {
		return 0, false
	}

	parentNode := def.Node(parent)
	switch parentNode.Kind {
	case CtrlSeq:
		for i, stmt := range parentNode.Stmts {
			if stmt == node {
				if i+1 < len(parentNode.Stmts) {
					return parentNode.Stmts[i+1], true
				}
				return ctx.NextNode(comp, parent)
			}
		}
		panic("ir: control node not found among its Seq parent's statements")
	case CtrlPar:
		// Children bubble back to the Par node itself so Step's control
		// advancement can decrement the fan-in counter on re-entry.
		return parent, true
	case CtrlWhile:
		if parentNode.Body == node {
			return parent, true
		}
		return ctx.NextNode(comp, parent)
	case CtrlIf:
		return ctx.NextNode(comp, parent)
	default:
		panic("ir: control node has a non-branching parent")
	}
}
