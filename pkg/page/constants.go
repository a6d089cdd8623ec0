package page

import "treestore/pkg/primitives"

const (
	// SlotsPerPage is the number of record slots a key-value leaf page
	// carries. A record with node key k lives on the page with key
	// k / SlotsPerPage at slot offset k % SlotsPerPage. Part of the
	// storage format.
	SlotsPerPage = 512

	// MaxRecordSize is the largest serialized record body stored
	// inline. Anything larger is moved to an overflow page. Part of
	// the storage format.
	MaxRecordSize = 4096
)

// PageKeyFor returns the key of the page holding the given node key.
func PageKeyFor(key primitives.NodeKey) primitives.PageKey {
	return primitives.PageKey(key / SlotsPerPage)
}

// SlotOffsetFor returns the slot offset of the given node key within
// its page.
func SlotOffsetFor(key primitives.NodeKey) int {
	return int(key % SlotsPerPage)
}
