package primitive

import (
	"github.com/sarchlab/hdlflat/ir"
	"github.com/sarchlab/hdlflat/value"
)

// MemD1 port layout: addr, write_en, write_data, read_data, done.
const (
	memAddr = iota
	memWriteEn
	memWriteData
	memReadData
	memDone
)

// MemD1 implements a one-dimensional memory: an asynchronous read (its
// read_data port is a combinational function of addr, like a register
// file) and a clocked write (write_en-gated, raising done for one cycle).
// Supplies the serialization hooks the data-dump format needs for memory
// cells with more than one addressable entry.
type MemD1 struct {
	base      ir.GlobalPortIdx
	widthBits uint32
	cells     []uint64
}

// NewMemD1 constructs a memory of the given size and element width,
// occupying five consecutive ports starting at base.
func NewMemD1(base ir.GlobalPortIdx, widthBits uint32, size uint64) *MemD1 {
	return &MemD1{base: base, widthBits: widthBits, cells: make([]uint64, size)}
}

func (m *MemD1) port(local int) ir.GlobalPortIdx { return m.base + ir.GlobalPortIdx(local) }

// ExecComb drives read_data combinationally from the current addr, and
// done combinationally from write_en — readable by group-done wiring in
// the same convergence pass the write itself is scheduled in.
func (m *MemD1) ExecComb(ports PortMap) (UpdateStatus, error) {
	status := Unchanged

	addr, ok := ports.Get(m.port(memAddr)).Val()
	if ok && addr < uint64(len(m.cells)) {
		out := m.port(memReadData)
		newVal := value.NewImplicit(m.cells[addr])
		if !ports.Get(out).Equal(newVal) {
			ports.Set(out, newVal)
			status = Changed
		}
	}

	writeEn, _ := ports.Get(m.port(memWriteEn)).AsBool()
	doneVal := value.NewImplicit(boolBit(writeEn))
	if !ports.Get(m.port(memDone)).Equal(doneVal) {
		ports.Set(m.port(memDone), doneVal)
		status = Changed
	}

	return status, nil
}

// ExecCycle performs the write, gated on write_en.
func (m *MemD1) ExecCycle(ports PortMap) error {
	writeEn, ok := ports.Get(m.port(memWriteEn)).AsBool()
	if !ok || !writeEn {
		return nil
	}

	addr, ok := ports.Get(m.port(memAddr)).Val()
	if !ok || addr >= uint64(len(m.cells)) {
		return nil
	}

	data, ok := ports.Get(m.port(memWriteData)).Val()
	if !ok {
		return nil
	}

	m.cells[addr] = data
	return nil
}

func (m *MemD1) IsCombinational() bool      { return true }
func (m *MemD1) HasSerializableState() bool { return true }

// Dump packs every cell little-endian, ceil(width/8) bytes each.
func (m *MemD1) Dump() *State {
	stride := int(byteWidth(m.widthBits))
	bytes := make([]byte, stride*len(m.cells))
	for i, v := range m.cells {
		putLE(bytes[i*stride:(i+1)*stride], v)
	}
	return &State{
		WidthBits: m.widthBits,
		CellCount: uint64(len(m.cells)),
		Dims:      []uint64{uint64(len(m.cells))},
		Bytes:     bytes,
	}
}

// LoadState seeds every cell from an initial memory image.
func (m *MemD1) LoadState(s State) error {
	stride := int(byteWidth(m.widthBits))
	for i := range m.cells {
		lo, hi := i*stride, (i+1)*stride
		if hi > len(s.Bytes) {
			break
		}
		m.cells[i] = getLE(s.Bytes[lo:hi], byteWidth(m.widthBits))
	}
	return nil
}
