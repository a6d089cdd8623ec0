package node

import (
	"fmt"

	"treestore/pkg/encoding"
	"treestore/pkg/primitives"
)

// ReadContext is the view of the page-read machinery a codec may
// consult while (de)serializing, e.g. for name dictionary lookups.
// Codecs must tolerate a nil context; overflow records are decoded
// without one.
type ReadContext interface {
	// GetName resolves a dictionary name key for the given kind.
	GetName(nameKey int32, kind Kind) string
}

// ResourceConfig is the slice of resource configuration dewey ID
// serialization depends on.
type ResourceConfig interface {
	// StoreDeweyIDs reports whether the resource stores dewey IDs.
	StoreDeweyIDs() bool
}

// Codec serializes and deserializes records of a resource. A codec
// whose SupportsDeweyIDs reports false is treated by the page layer
// exactly like a dewey-disabled resource; its dewey methods are never
// called.
type Codec interface {
	// Serialize writes the record body to w.
	Serialize(w *encoding.Writer, rec Record, rtx ReadContext) error

	// Deserialize reads a record body previously written by Serialize.
	// nodeKey and deweyID come from the page frame and are
	// authoritative; the body does not repeat them.
	Deserialize(r *encoding.Reader, nodeKey primitives.NodeKey, deweyID *DeweyID, rtx ReadContext) (Record, error)

	// SupportsDeweyIDs reports whether this codec can serialize dewey
	// ID chains.
	SupportsDeweyIDs() bool

	// SerializeDeweyID writes current delta-encoded against previous.
	// previous is nil for the first element of a chain.
	SerializeDeweyID(w *encoding.Writer, kind Kind, current, previous *DeweyID, cfg ResourceConfig) error

	// DeserializeDeweyID reads a dewey ID delta-encoded against
	// previous (nil for the first element of a chain).
	DeserializeDeweyID(r *encoding.Reader, previous *DeweyID, cfg ResourceConfig) (*DeweyID, error)
}

// DataNodeCodec is the codec for DataNode records. The body layout is
// the kind byte followed by the varlong-length-prefixed value. Dewey
// chains are prefix-compressed: the count of divisions shared with the
// previous ID, the count of remaining divisions, then the remaining
// divisions, all as varlongs.
type DataNodeCodec struct{}

var _ Codec = DataNodeCodec{}

func (DataNodeCodec) Serialize(w *encoding.Writer, rec Record, rtx ReadContext) error {
	dataNode, ok := rec.(*DataNode)
	if !ok {
		return fmt.Errorf("unexpected record type %T", rec)
	}
	if err := w.WriteByte(byte(dataNode.Kind())); err != nil {
		return err
	}
	if err := w.WriteVarLong(uint64(len(dataNode.Value()))); err != nil {
		return err
	}
	_, err := w.Write(dataNode.Value())
	return err
}

func (DataNodeCodec) Deserialize(r *encoding.Reader, nodeKey primitives.NodeKey, deweyID *DeweyID, rtx ReadContext) (Record, error) {
	kindID, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	kind, err := KindFromID(kindID)
	if err != nil {
		return nil, err
	}
	length, err := r.ReadVarLong()
	if err != nil {
		return nil, err
	}
	value, err := r.ReadFull(int(length))
	if err != nil {
		return nil, err
	}
	return NewDataNode(nodeKey, kind, deweyID, value), nil
}

func (DataNodeCodec) SupportsDeweyIDs() bool {
	return true
}

func (DataNodeCodec) SerializeDeweyID(w *encoding.Writer, kind Kind, current, previous *DeweyID, cfg ResourceConfig) error {
	shared := current.SharedPrefixLen(previous)
	divisions := current.Divisions()
	if err := w.WriteVarLong(uint64(shared)); err != nil {
		return err
	}
	if err := w.WriteVarLong(uint64(len(divisions) - shared)); err != nil {
		return err
	}
	for _, division := range divisions[shared:] {
		if err := w.WriteVarLong(uint64(division)); err != nil {
			return err
		}
	}
	return nil
}

func (DataNodeCodec) DeserializeDeweyID(r *encoding.Reader, previous *DeweyID, cfg ResourceConfig) (*DeweyID, error) {
	shared, err := r.ReadVarLong()
	if err != nil {
		return nil, err
	}
	rest, err := r.ReadVarLong()
	if err != nil {
		return nil, err
	}
	if previous == nil && shared > 0 {
		return nil, fmt.Errorf("dewey delta shares %d divisions but chain has no previous ID", shared)
	}
	if previous != nil && int(shared) > previous.Level() {
		return nil, fmt.Errorf("dewey delta shares %d divisions but previous ID has %d", shared, previous.Level())
	}
	divisions := make([]uint32, 0, shared+rest)
	if previous != nil {
		divisions = append(divisions, previous.Divisions()[:shared]...)
	}
	for i := uint64(0); i < rest; i++ {
		division, err := r.ReadVarLong()
		if err != nil {
			return nil, err
		}
		divisions = append(divisions, uint32(division))
	}
	return NewDeweyID(divisions...), nil
}
