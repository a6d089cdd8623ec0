package page

import "fmt"

// Kind names the subtree a key-value leaf page belongs to. The numeric
// values are part of the storage format.
type Kind byte

const (
	// NodeKind marks pages of the main document tree.
	NodeKind Kind = 1

	// PathSummaryKind marks pages of the path summary.
	PathSummaryKind Kind = 2

	// TextValueKind marks pages of the text value index.
	TextValueKind Kind = 3

	// AttributeValueKind marks pages of the attribute value index.
	AttributeValueKind Kind = 4
)

var kindNames = map[Kind]string{
	NodeKind:           "NODE",
	PathSummaryKind:    "PATH_SUMMARY",
	TextValueKind:      "TEXT_VALUE",
	AttributeValueKind: "ATTRIBUTE_VALUE",
}

// KindFromID maps a stored discriminator byte back to its Kind.
func KindFromID(id byte) (Kind, error) {
	k := Kind(id)
	if _, ok := kindNames[k]; !ok {
		return 0, fmt.Errorf("unknown page kind %d", id)
	}
	return k, nil
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", byte(k))
}
