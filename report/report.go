// Package report renders the engine's state and failures for a human
// reader, grounded on core/emu.go's toTitleCase helper and the debug
// print spec §6 asks collaborators to supply, upgraded to the teacher's
// ecosystem choices instead of hand-rolled formatting.
package report

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sarchlab/hdlflat/flatten"
	"github.com/sarchlab/hdlflat/ir"
	"github.com/sarchlab/hdlflat/value"
)

var titleCaser = cases.Title(language.English)

// OperatorName title-cases a guard comparison operator for display, e.g.
// "eq" -> "Eq".
func OperatorName(op ir.CompOp) string {
	return titleCaser.String(op.String())
}

// ErrorKindName title-cases the bare type name of an error for display,
// e.g. "ErrConflictingAssignments" -> "Conflicting Assignments".
func ErrorKindName(err error) string {
	name := fmt.Sprintf("%T", err)
	name = strings.TrimPrefix(name, "*flatten.Err")
	var spaced strings.Builder
	for i, r := range name {
		if i > 0 && r >= 'A' && r <= 'Z' {
			spaced.WriteRune(' ')
		}
		spaced.WriteRune(r)
	}
	return titleCaser.String(spaced.String())
}

// ComponentPath reconstructs a cell's dotted instance path (the name it
// was given in its enclosing component's cell list, not its component
// definition's type name) by walking upward through nearest-enclosing
// component ledgers — the engine itself keeps no parent pointers, so the
// path is always recomputed on demand, per spec §7. The root component
// itself contributes no segment, matching a top-level cell's dump key
// being its bare name.
func ComponentPath(env *flatten.Environment, cell ir.GlobalCellIdx) string {
	var segments []string
	current := cell
	for {
		owner, base, ok := enclosingComponent(env, current)
		if !ok {
			break
		}
		ledger := env.Cells.Get(owner).AsComponent()
		def := env.Ctx.Component(ledger.CompID)
		local := int(current - base)
		if local >= 0 && local < len(def.Cells) {
			segments = append([]string{def.Cells[local].Name}, segments...)
		}
		if owner == 0 {
			break
		}
		current = owner
	}
	return strings.Join(segments, ".")
}

// enclosingComponent finds the component cell whose local cell range
// contains target, by scanning every component ledger in the dense cell
// map, and returns that component's own CellBase alongside it.
func enclosingComponent(env *flatten.Environment, target ir.GlobalCellIdx) (ir.GlobalCellIdx, ir.GlobalCellIdx, bool) {
	best := ir.GlobalCellIdx(-1)
	var bestBase ir.GlobalCellIdx
	for i := 0; i < env.Cells.Len(); i++ {
		idx := ir.GlobalCellIdx(i)
		cell := env.Cells.Get(idx)
		if !cell.IsComponent() || idx == target {
			continue
		}
		base := cell.AsComponent().Base.CellBase
		if base <= target && (best == -1 || base > bestBase) {
			best = idx
			bestBase = base
		}
	}
	if best == -1 {
		return 0, 0, false
	}
	return best, bestBase, true
}

// PortTable renders every port's handle and current value as a table,
// the debug print of environment state spec §6 calls for.
func PortTable(env *flatten.Environment) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Port", "State", "Value"})
	for i := 0; i < env.Ports.Len(); i++ {
		v := env.Ports.Get(ir.GlobalPortIdx(i))
		bits, ok := v.Val()
		val := "-"
		if ok {
			val = fmt.Sprintf("%d", bits)
		}
		t.AppendRow(table.Row{i, stateName(v), val})
	}
	return t.Render()
}

func stateName(v value.PortValue) string {
	switch v.State() {
	case value.Undefined:
		return "undefined"
	case value.Implicit:
		return "implicit"
	case value.Assigned:
		return "assigned"
	default:
		return "unknown"
	}
}

// ConflictTable renders a conflicting-assignments error as a small table
// naming the two disagreeing assignments and the port they share.
func ConflictTable(env *flatten.Environment, err *flatten.ErrConflictingAssignments) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Port", "First Assignment", "Second Assignment", "Component"})
	t.AppendRow(table.Row{err.Port, err.First, err.Second, err.Path})
	return t.Render()
}
