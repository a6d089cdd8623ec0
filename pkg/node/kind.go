package node

import "fmt"

// Kind discriminates the record variants a resource can store. The
// numeric values are part of the storage format and must not change.
type Kind byte

const (
	// ElementKind is a structural element node. It is also the kind
	// tag used when serializing dewey ID chains.
	ElementKind Kind = 1

	// AttributeKind is an attribute node.
	AttributeKind Kind = 2

	// TextKind is a text node.
	TextKind Kind = 3

	// ObjectKind is a JSON object node.
	ObjectKind Kind = 4

	// ArrayKind is a JSON array node.
	ArrayKind Kind = 5

	// ValueKind is an opaque value node.
	ValueKind Kind = 6
)

var kindNames = map[Kind]string{
	ElementKind:   "ELEMENT",
	AttributeKind: "ATTRIBUTE",
	TextKind:      "TEXT",
	ObjectKind:    "OBJECT",
	ArrayKind:     "ARRAY",
	ValueKind:     "VALUE",
}

// KindFromID maps a stored discriminator byte back to its Kind.
func KindFromID(id byte) (Kind, error) {
	k := Kind(id)
	if _, ok := kindNames[k]; !ok {
		return 0, fmt.Errorf("unknown node kind %d", id)
	}
	return k, nil
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", byte(k))
}
