// Package datadump implements the JSON-encoded data dump format of
// spec §6: initial memory images fed into top-level cells, and final
// memory/register state captured after a run, keyed by cell name.
package datadump

import (
	"encoding/base64"
	"encoding/json"
	"os"

	"github.com/sarchlab/hdlflat/primitive"
)

// MemoryState is one cell's serializable snapshot, mirroring
// primitive.State but independent of the in-memory engine representation
// so the on-disk format can evolve without touching package primitive.
type MemoryState struct {
	WidthBits uint32   `json:"width_bits"`
	CellCount uint64   `json:"cell_count"`
	Dims      []uint64 `json:"dims"`
	Bytes     []byte   `json:"bytes"`
}

// DataDump maps a top-level cell's name to its memory state. Registers are
// dumped with Dims == []uint64{1} ("D1(1)" per spec §6).
type DataDump map[string]MemoryState

// MarshalJSON base64-encodes Bytes the way encoding/json already would for
// a []byte field; it is spelled out here only so a nil Bytes marshals to
// an empty base64 string rather than null.
func (m MemoryState) MarshalJSON() ([]byte, error) {
	type alias MemoryState
	a := alias(m)
	if a.Bytes == nil {
		a.Bytes = []byte{}
	}
	return json.Marshal(a)
}

// Load reads a DataDump from a JSON file, used for both initial memory
// images and previously-saved final dumps.
func Load(path string) (DataDump, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var d DataDump
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	return d, nil
}

// Save writes a DataDump to a JSON file, pretty-printed for readability.
func Save(path string, d DataDump) error {
	raw, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

// byteString renders Bytes the way a human reading a dump would want to
// see it — base64 rather than a raw byte-value array — used by String for
// diagnostics rather than by JSON encoding itself.
func byteString(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// String renders one cell's state compactly for diagnostics.
func (m MemoryState) String() string {
	return byteString(m.Bytes)
}

// ToPrimitiveMap converts a loaded DataDump into the primitive.DataMap the
// factory consumes when seeding initial memory images.
func (d DataDump) ToPrimitiveMap() primitive.DataMap {
	m := make(primitive.DataMap, len(d))
	for name, s := range d {
		m[name] = primitive.State{
			Name:      name,
			WidthBits: s.WidthBits,
			CellCount: s.CellCount,
			Dims:      s.Dims,
			Bytes:     s.Bytes,
		}
	}
	return m
}

// FromState converts one primitive's Dump() snapshot into the on-disk
// MemoryState shape.
func FromState(s *primitive.State) MemoryState {
	return MemoryState{
		WidthBits: s.WidthBits,
		CellCount: s.CellCount,
		Dims:      s.Dims,
		Bytes:     s.Bytes,
	}
}
