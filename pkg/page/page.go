// Package page implements the record-page layer of the storage engine:
// the key-value leaf page grouping up to SlotsPerPage records, overflow
// pages for oversized records, and the read/write transaction contracts
// a page participates in during copy-on-write commit.
package page

import (
	"fmt"

	"treestore/pkg/encoding"
	"treestore/pkg/node"
	"treestore/pkg/primitives"
	"treestore/pkg/resource"
)

// Page is the common contract of every page variant.
type Page interface {
	// Serialize writes the canonical byte layout of the page.
	Serialize(w *encoding.Writer, typ SerializationType) error
}

// IndexedPage is the contract of pages whose children are addressed by
// position (indirect pages and revision roots). Key-value leaf pages
// address their children by record key instead and deliberately do not
// implement this interface.
type IndexedPage interface {
	Page

	// References returns all child references.
	References() []*Reference

	// Reference returns the child reference at the given offset.
	Reference(offset int) *Reference

	// SetReference replaces the child reference at the given offset.
	SetReference(offset int, ref *Reference)
}

// ReadTransaction is the page-read context a key-value leaf page
// consumes: it resolves overflow references, supplies resource
// configuration and computes slot offsets. Implemented by the storage
// layer.
type ReadTransaction interface {
	node.ReadContext

	// ResourceManager returns the resource handle this transaction
	// reads from.
	ResourceManager() resource.Manager

	// Read resolves a reference to the page it points at.
	Read(ref *Reference, rtx ReadTransaction) (Page, error)

	// RecordPageOffset returns the slot offset of the given node key
	// within its page, in [0, SlotsPerPage).
	RecordPageOffset(key primitives.NodeKey) int

	// GetRecord resolves a record through the page layer above. The
	// page itself never calls this; it exists for the node layer.
	GetRecord(key primitives.NodeKey, kind Kind, index int) (node.Record, error)
}

// WriteTransaction extends ReadTransaction with the commit hook a page
// uses to persist its overflow pages.
type WriteTransaction interface {
	ReadTransaction

	// Commit durably persists the page the reference points at and
	// records its persistent key on the reference.
	Commit(ref *Reference) error
}

// Type discriminates page variants in a serialized stream.
type Type byte

const (
	// KeyValueLeafPageType frames a KeyValueLeafPage.
	KeyValueLeafPageType Type = 1

	// OverflowPageType frames an OverflowPage.
	OverflowPageType Type = 2
)

// WritePage frames and serializes a page: the page type byte followed
// by the page payload.
func WritePage(w *encoding.Writer, typ SerializationType, p Page) error {
	var pageType Type
	switch p.(type) {
	case *KeyValueLeafPage:
		pageType = KeyValueLeafPageType
	case *OverflowPage:
		pageType = OverflowPageType
	default:
		return fmt.Errorf("unknown page variant %T", p)
	}
	if err := w.WriteByte(byte(pageType)); err != nil {
		return err
	}
	return p.Serialize(w, typ)
}

// ReadPage reads a page framed by WritePage.
func ReadPage(r *encoding.Reader, typ SerializationType, rtx ReadTransaction) (Page, error) {
	pageType, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	switch Type(pageType) {
	case KeyValueLeafPageType:
		return ReadKeyValueLeafPage(r, typ, rtx)
	case OverflowPageType:
		return ReadOverflowPage(r)
	default:
		return nil, fmt.Errorf("unknown page type %d", pageType)
	}
}
