package page

import (
	"fmt"

	"treestore/pkg/primitives"
)

// Reference points at another page, either in memory (Page set), in the
// transaction intent log (LogKey set), or in persistent storage (Key
// set). A freshly allocated reference points nowhere.
type Reference struct {
	key    int64
	logKey int64
	page   Page
}

// NewReference creates an empty reference.
func NewReference() *Reference {
	return &Reference{
		key:    primitives.NullIDLong,
		logKey: primitives.NullIDLong,
	}
}

// Key returns the persistent key, or primitives.NullIDLong if the
// referenced page has not been persisted.
func (r *Reference) Key() int64 {
	return r.key
}

// SetKey records the persistent key. The in-memory page is released;
// from now on the reference resolves through storage.
func (r *Reference) SetKey(key int64) {
	r.key = key
	r.page = nil
}

// LogKey returns the transaction intent log key, or
// primitives.NullIDLong.
func (r *Reference) LogKey() int64 {
	return r.logKey
}

// SetLogKey records the transaction intent log key.
func (r *Reference) SetLogKey(key int64) {
	r.logKey = key
}

// Page returns the in-memory page this reference holds, or nil.
func (r *Reference) Page() Page {
	return r.page
}

// SetPage attaches an in-memory page to this reference.
func (r *Reference) SetPage(p Page) {
	r.page = p
}

// IsEmpty reports whether the reference points nowhere at all: no
// in-memory page, no persistent key, no log key. Empty references are
// skipped during commit.
func (r *Reference) IsEmpty() bool {
	return r.page == nil && r.key == primitives.NullIDLong && r.logKey == primitives.NullIDLong
}

func (r *Reference) String() string {
	return fmt.Sprintf("Reference(key=%d, logKey=%d, hasPage=%t)", r.key, r.logKey, r.page != nil)
}
