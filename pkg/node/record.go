package node

import (
	"treestore/pkg/primitives"
)

// Record is the unit of user data a record page stores. Records are
// opaque to the page layer: all it relies on is a stable node key, the
// kind discriminator, and an optional dewey ID.
type Record interface {
	// NodeKey returns the globally unique key of this record within
	// its resource.
	NodeKey() primitives.NodeKey

	// Kind returns the record's kind discriminator.
	Kind() Kind

	// DeweyID returns the hierarchical label of this record, or nil if
	// the record carries none. The page layer ignores the ID of the
	// document root (node key 0).
	DeweyID() *DeweyID
}

// DataNode is a record holding an opaque value. It stands in for the
// full node model of the engine: anything with a key, a kind and bytes
// round-trips through the page layer the same way.
type DataNode struct {
	nodeKey primitives.NodeKey
	kind    Kind
	deweyID *DeweyID
	value   []byte
}

// NewDataNode creates a DataNode. deweyID may be nil.
func NewDataNode(nodeKey primitives.NodeKey, kind Kind, deweyID *DeweyID, value []byte) *DataNode {
	return &DataNode{
		nodeKey: nodeKey,
		kind:    kind,
		deweyID: deweyID,
		value:   value,
	}
}

func (n *DataNode) NodeKey() primitives.NodeKey {
	return n.nodeKey
}

func (n *DataNode) Kind() Kind {
	return n.kind
}

func (n *DataNode) DeweyID() *DeweyID {
	return n.deweyID
}

// Value returns the record body. The returned slice must not be
// mutated.
func (n *DataNode) Value() []byte {
	return n.value
}

// Equals compares key, kind, dewey ID and value.
func (n *DataNode) Equals(other *DataNode) bool {
	if other == nil {
		return false
	}
	if n.nodeKey != other.nodeKey || n.kind != other.kind {
		return false
	}
	if (n.deweyID == nil) != (other.deweyID == nil) {
		return false
	}
	if n.deweyID != nil && !n.deweyID.Equals(other.deweyID) {
		return false
	}
	if len(n.value) != len(other.value) {
		return false
	}
	for i := range n.value {
		if n.value[i] != other.value[i] {
			return false
		}
	}
	return true
}
