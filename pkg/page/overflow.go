package page

import (
	"treestore/pkg/encoding"
)

// OverflowPage holds the serialized body of a single record that was
// too large to store inline. It carries no metadata of its own; its
// identity is the persistent key of the reference pointing at it.
type OverflowPage struct {
	data []byte
}

// NewOverflowPage creates an overflow page holding data. The slice is
// not copied; the caller hands over ownership.
func NewOverflowPage(data []byte) *OverflowPage {
	return &OverflowPage{data: data}
}

// Data returns the record body. The returned slice must not be
// mutated.
func (p *OverflowPage) Data() []byte {
	return p.data
}

// Serialize writes the varlong-length-prefixed body.
func (p *OverflowPage) Serialize(w *encoding.Writer, typ SerializationType) error {
	if err := w.WriteVarLong(uint64(len(p.data))); err != nil {
		return err
	}
	_, err := w.Write(p.data)
	return err
}

// ReadOverflowPage reads an overflow page written by Serialize.
func ReadOverflowPage(r *encoding.Reader) (*OverflowPage, error) {
	length, err := r.ReadVarLong()
	if err != nil {
		return nil, err
	}
	data, err := r.ReadFull(int(length))
	if err != nil {
		return nil, err
	}
	return &OverflowPage{data: data}, nil
}
