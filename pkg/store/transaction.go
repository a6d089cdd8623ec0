package store

import (
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"treestore/pkg/logging"
	"treestore/pkg/node"
	"treestore/pkg/page"
	"treestore/pkg/primitives"
	"treestore/pkg/resource"
)

// Snapshot is a read-only view of a resource. It implements
// page.ReadTransaction: pages reconstructed through it resolve their
// overflow references against the resource's page file.
type Snapshot struct {
	res *Resource
}

// NewSnapshot creates a read-only view of res.
func NewSnapshot(res *Resource) *Snapshot {
	return &Snapshot{res: res}
}

// ResourceManager returns the resource handle.
func (s *Snapshot) ResourceManager() resource.Manager {
	return s.res
}

// GetName resolves a dictionary name key. The store keeps no name
// dictionary; codecs that need one run above this layer.
func (s *Snapshot) GetName(nameKey int32, kind node.Kind) string {
	return ""
}

// Read resolves a reference: an in-memory page is returned as-is, a
// persisted one is decoded from the page file.
func (s *Snapshot) Read(ref *page.Reference, rtx page.ReadTransaction) (page.Page, error) {
	if p := ref.Page(); p != nil {
		return p, nil
	}
	if ref.Key() == primitives.NullIDLong {
		return nil, errors.New("reference points at no persisted page")
	}
	return s.res.file.Read(ref.Key(), page.Data, rtx)
}

// RecordPageOffset returns the slot offset of key within its page.
func (s *Snapshot) RecordPageOffset(key primitives.NodeKey) int {
	return page.SlotOffsetFor(key)
}

// GetRecord resolves a record through the leaf directory. Index number
// 0 addresses the primary document index; this layer maintains no
// secondary indexes.
func (s *Snapshot) GetRecord(key primitives.NodeKey, kind page.Kind, index int) (node.Record, error) {
	if index != 0 {
		return nil, errors.Errorf("no secondary index %d", index)
	}
	persistentKey := s.res.lookupLeaf(kind, page.PageKeyFor(key))
	if persistentKey == primitives.NullIDLong {
		return nil, nil
	}
	p, err := s.res.file.Read(persistentKey, page.Data, s)
	if err != nil {
		return nil, err
	}
	leaf, ok := p.(*page.KeyValueLeafPage)
	if !ok {
		return nil, errors.Errorf("page %d is not a key-value leaf", persistentKey)
	}
	return leaf.Value(key), nil
}

// Transaction is a writing view of a resource. It implements
// page.WriteTransaction on top of Snapshot.
type Transaction struct {
	Snapshot
	id *primitives.TransactionID
}

// NewTransaction creates a writing view of res.
func NewTransaction(res *Resource) *Transaction {
	return &Transaction{
		Snapshot: Snapshot{res: res},
		id:       primitives.NewTransactionID(),
	}
}

// ID returns the transaction identifier.
func (t *Transaction) ID() *primitives.TransactionID {
	return t.id
}

// Commit persists the page a reference owns and records the assigned
// persistent key on the reference. A reference without an in-memory
// page has nothing left to persist and is left untouched.
func (t *Transaction) Commit(ref *page.Reference) error {
	p := ref.Page()
	if p == nil {
		return nil
	}
	key, err := t.res.file.Write(page.Data, p)
	if err != nil {
		return err
	}
	ref.SetKey(key)
	return nil
}

// CommitLeaf commits a key-value leaf page: first its overflow pages,
// through the page's own commit hook, then the leaf itself. The
// returned reference carries the leaf's persistent key, and the leaf
// is registered in the resource directory.
func (t *Transaction) CommitLeaf(leaf *page.KeyValueLeafPage) (*page.Reference, error) {
	if err := leaf.Commit(t); err != nil {
		return nil, err
	}

	ref := page.NewReference()
	ref.SetPage(leaf)
	if err := t.Commit(ref); err != nil {
		return nil, err
	}
	t.res.registerLeaf(leaf.Kind(), leaf.PageKey(), ref.Key())

	logging.WithPage(leaf.PageKey()).Debug("leaf committed",
		"resource", t.res.config.Name(),
		"kind", leaf.Kind().String(),
		"key", ref.Key(),
		"overflow", len(leaf.OverflowKeys()))
	return ref, nil
}

// CommitLeaves commits independent leaf pages concurrently. Each leaf
// still flushes its own overflow pages before itself; only distinct
// leaves are fanned out.
func (t *Transaction) CommitLeaves(leaves []*page.KeyValueLeafPage) ([]*page.Reference, error) {
	refs := make([]*page.Reference, len(leaves))

	var g errgroup.Group
	for i, leaf := range leaves {
		i, leaf := i, leaf
		g.Go(func() error {
			ref, err := t.CommitLeaf(leaf)
			if err != nil {
				return errors.Wrapf(err, "committing leaf %d", leaf.PageKey())
			}
			refs[i] = ref
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return refs, nil
}
