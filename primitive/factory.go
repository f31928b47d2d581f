package primitive

import (
	"fmt"

	"github.com/sarchlab/hdlflat/ir"
)

// DataMap holds initial memory images for top-level cells, keyed by cell
// name, as produced by loading a datadump.DataDump. It is only consulted
// while laying out the root component (spec §4.2).
type DataMap map[string]State

// Build constructs the primitive named by def.Prototype.PrimitiveName,
// consuming def.Params for sizing and, for top-level cells only, dataMap
// for an initial memory image. This is the factory referenced by spec §6.
func Build(def ir.CellDef, portBase ir.GlobalPortIdx, dataMap DataMap) (Primitive, error) {
	params := def.Prototype.Params
	width := uint32(params["width"])

	var p Primitive
	switch def.Prototype.PrimitiveName {
	case "std_reg":
		p = NewReg(portBase, width)
	case "std_const":
		p = NewConst(portBase, uint64(params["value"]))
	case "std_add":
		p = NewBinary(portBase, OpAdd)
	case "std_sub":
		p = NewBinary(portBase, OpSub)
	case "std_mult":
		p = NewBinary(portBase, OpMult)
	case "std_div":
		p = NewBinary(portBase, OpDiv)
	case "std_lt":
		p = NewBinary(portBase, OpLt)
	case "std_gt":
		p = NewBinary(portBase, OpGt)
	case "std_eq":
		p = NewBinary(portBase, OpEq)
	case "std_neq":
		p = NewBinary(portBase, OpNeq)
	case "std_geq":
		p = NewBinary(portBase, OpGeq)
	case "std_leq":
		p = NewBinary(portBase, OpLeq)
	case "std_and":
		p = NewBinary(portBase, OpAnd)
	case "std_or":
		p = NewBinary(portBase, OpOr)
	case "std_xor":
		p = NewBinary(portBase, OpXor)
	case "std_not":
		p = NewNot(portBase)
	case "std_mem_d1":
		p = NewMemD1(portBase, width, uint64(params["size"]))
	default:
		return nil, fmt.Errorf("primitive: unknown primitive %q", def.Prototype.PrimitiveName)
	}

	if p.HasSerializableState() && dataMap != nil {
		if s, ok := dataMap[def.Name]; ok {
			if err := p.LoadState(s); err != nil {
				return nil, fmt.Errorf("primitive: loading state for %q: %w", def.Name, err)
			}
		}
	}

	return p, nil
}
