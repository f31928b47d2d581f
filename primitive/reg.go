package primitive

import (
	"github.com/sarchlab/hdlflat/ir"
	"github.com/sarchlab/hdlflat/value"
)

// Register port layout, in the order the front end lays them out:
// in, write_en, out, done.
const (
	regIn = iota
	regWriteEn
	regOut
	regDone
)

// Reg implements std_reg: a clocked, write_en-gated register. Grounded on
// interp/src/interpreter.rs's std_reg arm of update_cell_state — the held
// value only changes on ExecCycle; during convergence ExecComb re-drives
// out from that held value and done from write_en.
type Reg struct {
	base      ir.GlobalPortIdx
	widthBits uint32
	value     uint64
}

// NewReg constructs a register occupying four consecutive ports starting
// at base.
func NewReg(base ir.GlobalPortIdx, widthBits uint32) *Reg {
	return &Reg{base: base, widthBits: widthBits}
}

func (r *Reg) port(local int) ir.GlobalPortIdx { return r.base + ir.GlobalPortIdx(local) }

// ExecComb continually re-asserts out from the register's stored state
// (every port was just reset to Undefined for the cycle, but out is not
// a wire — it is the register's held value) and drives done
// combinationally from write_en, readable by group-done wiring in the
// same convergence pass rather than one cycle later.
func (r *Reg) ExecComb(ports PortMap) (UpdateStatus, error) {
	status := Unchanged

	outVal := value.NewImplicit(r.value)
	if !ports.Get(r.port(regOut)).Equal(outVal) {
		ports.Set(r.port(regOut), outVal)
		status = Changed
	}

	writeEn, _ := ports.Get(r.port(regWriteEn)).AsBool()
	doneVal := value.NewImplicit(boolBit(writeEn))
	if !ports.Get(r.port(regDone)).Equal(doneVal) {
		ports.Set(r.port(regDone), doneVal)
		status = Changed
	}

	return status, nil
}

// ExecCycle commits in into the register's state whenever write_en was
// high this cycle.
func (r *Reg) ExecCycle(ports PortMap) error {
	writeEn, ok := ports.Get(r.port(regWriteEn)).AsBool()
	if !ok || !writeEn {
		return nil
	}

	in, ok := ports.Get(r.port(regIn)).Val()
	if !ok {
		return nil
	}

	r.value = in
	ports.Set(r.port(regOut), value.NewImplicit(r.value))
	return nil
}

func (r *Reg) IsCombinational() bool      { return false }
func (r *Reg) HasSerializableState() bool { return true }

// Dump reports the register's state, dumped as D1(1) per spec §6.
func (r *Reg) Dump() *State {
	bytes := make([]byte, byteWidth(r.widthBits))
	putLE(bytes, r.value)
	return &State{WidthBits: r.widthBits, CellCount: 1, Dims: []uint64{1}, Bytes: bytes}
}

// LoadState seeds the register's value from an initial memory image.
func (r *Reg) LoadState(s State) error {
	r.value = getLE(s.Bytes, byteWidth(r.widthBits))
	return nil
}
