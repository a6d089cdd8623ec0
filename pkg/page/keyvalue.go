package page

import (
	"bytes"
	"fmt"
	"sort"

	"treestore/pkg/encoding"
	"treestore/pkg/node"
	"treestore/pkg/primitives"
	"treestore/pkg/resource"
	"treestore/pkg/utils/functools"
)

// Entry is one live (key, record) pair of a key-value leaf page.
type Entry struct {
	Key    primitives.NodeKey
	Record node.Record
}

// recordMap is an insertion-order-preserving map from node key to
// record. A clone shares its origin's recordMap until either side
// mutates, at which point ensureExclusive gives that side its own copy.
type recordMap struct {
	entries map[primitives.NodeKey]node.Record
	order   []primitives.NodeKey
}

func newRecordMap() *recordMap {
	return &recordMap{entries: make(map[primitives.NodeKey]node.Record)}
}

func (m *recordMap) get(key primitives.NodeKey) (node.Record, bool) {
	rec, ok := m.entries[key]
	return rec, ok
}

func (m *recordMap) put(key primitives.NodeKey, rec node.Record) {
	if _, ok := m.entries[key]; !ok {
		m.order = append(m.order, key)
	}
	m.entries[key] = rec
}

func (m *recordMap) len() int {
	return len(m.entries)
}

// deweyEntry binds a dewey ID to the node key it labels. The map key
// is the ID's byte form, which is a stable identity.
type deweyEntry struct {
	id  *node.DeweyID
	key primitives.NodeKey
}

// KeyValueLeafPage stores up to SlotsPerPage records sharing a common
// page key. Records live in an in-memory map; the prepare step also
// partitions them into inline slots (canonical serialized bytes) and
// overflow references (for records whose body exceeds MaxRecordSize),
// leaving the map itself intact.
//
// Byte layout, in write order:
//
//	[PageKey varlong][DeweySection?][InlineBitmap][OverflowBitmap]
//	[InlineCount int32][len int32 + body]...[OverflowCount int32][refKey int64]...
//	[HasPrev bool][PrevKey int64?][PageKind byte]
//
// The two bitmaps carry the slot offsets of the length-prefixed
// payloads that follow, so keys are never repeated on disk. The dewey
// section precedes the inline bitmap; slots it consumes are excluded
// from the inline pass.
//
// The page is not thread safe. The node transaction layer serializes
// writers per resource; read-only sharing across goroutines requires
// external synchronization because Value memoizes faulted overflow
// records into the shared record map.
type KeyValueLeafPage struct {
	pageKey            primitives.PageKey
	kind               Kind
	records            *recordMap
	slots              map[primitives.NodeKey][]byte
	references         map[primitives.NodeKey]*Reference
	deweyIDs           map[string]deweyEntry
	previousPageRefKey int64
	rtx                ReadTransaction
	config             *resource.Configuration
	codec              node.Codec
	prepared           bool

	// sharedMaps is set on both sides of a clone. The first operation
	// that would restructure the maps copies them, so clone and origin
	// diverge without ever observing each other's mutations.
	sharedMaps bool
}

// NewKeyValueLeafPage creates a fresh, empty page. previousPageRefKey
// is the persistent key of the preceding version of this page in the
// revision chain, or primitives.NullIDLong for a first version.
func NewKeyValueLeafPage(pageKey primitives.PageKey, kind Kind, previousPageRefKey int64, rtx ReadTransaction) *KeyValueLeafPage {
	if pageKey < 0 {
		panic(fmt.Sprintf("page key must not be negative, got %d", pageKey))
	}
	config := rtx.ResourceManager().Config()

	p := &KeyValueLeafPage{
		pageKey:            pageKey,
		kind:               kind,
		records:            newRecordMap(),
		slots:              make(map[primitives.NodeKey][]byte),
		references:         make(map[primitives.NodeKey]*Reference),
		previousPageRefKey: previousPageRefKey,
		rtx:                rtx,
		config:             config,
		codec:              config.Codec(),
	}
	if p.deweyActive() {
		p.deweyIDs = make(map[string]deweyEntry)
	}
	return p
}

// ReadKeyValueLeafPage reconstructs a page from its serialized form.
// Malformed input fails the load; the resulting error renders the
// surrounding transaction unusable.
func ReadKeyValueLeafPage(r *encoding.Reader, typ SerializationType, rtx ReadTransaction) (*KeyValueLeafPage, error) {
	config := rtx.ResourceManager().Config()

	pageKey, err := r.ReadVarLong()
	if err != nil {
		return nil, err
	}
	p := &KeyValueLeafPage{
		pageKey:    primitives.PageKey(pageKey),
		records:    newRecordMap(),
		slots:      make(map[primitives.NodeKey][]byte),
		references: make(map[primitives.NodeKey]*Reference),
		rtx:        rtx,
		config:     config,
		codec:      config.Codec(),
	}

	if p.deweyActive() {
		p.deweyIDs = make(map[string]deweyEntry)
		if err := p.readDeweySection(r); err != nil {
			return nil, err
		}
	}

	inlineBitmap, err := typ.DeserializeBitSet(r)
	if err != nil {
		return nil, err
	}
	overflowBitmap, err := typ.DeserializeBitSet(r)
	if err != nil {
		return nil, err
	}

	if err := p.readInlineEntries(r, inlineBitmap); err != nil {
		return nil, err
	}
	if err := p.readOverflowEntries(r, overflowBitmap); err != nil {
		return nil, err
	}

	hasPrevious, err := r.ReadBool()
	if err != nil {
		return nil, err
	}
	if hasPrevious {
		if p.previousPageRefKey, err = r.ReadInt64(); err != nil {
			return nil, err
		}
	} else {
		p.previousPageRefKey = primitives.NullIDLong
	}

	kindID, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	if p.kind, err = KindFromID(kindID); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *KeyValueLeafPage) readDeweySection(r *encoding.Reader) error {
	count, err := r.ReadInt32()
	if err != nil {
		return err
	}
	var previous *node.DeweyID
	for i := int32(0); i < count; i++ {
		id, err := p.codec.DeserializeDeweyID(r, previous, p.config)
		if err != nil {
			return fmt.Errorf("dewey section entry %d: %w", i, err)
		}
		key, err := r.ReadVarLong()
		if err != nil {
			return err
		}
		body, err := p.readLengthPrefixed(r)
		if err != nil {
			return err
		}
		rec, err := p.codec.Deserialize(encoding.NewReader(bytes.NewReader(body)), primitives.NodeKey(key), id, p.rtx)
		if err != nil {
			return fmt.Errorf("dewey section entry %d: %w", i, err)
		}
		p.records.put(primitives.NodeKey(key), rec)
		previous = id
	}
	return nil
}

func (p *KeyValueLeafPage) readInlineEntries(r *encoding.Reader, bitmap *encoding.BitSet) error {
	count, err := r.ReadInt32()
	if err != nil {
		return err
	}
	setBit := -1
	for i := int32(0); i < count; i++ {
		if setBit = bitmap.NextSetBit(setBit + 1); setBit < 0 {
			return fmt.Errorf("inline bitmap carries fewer than %d slots", count)
		}
		key := primitives.NodeKey(int64(p.pageKey)*SlotsPerPage + int64(setBit))
		body, err := p.readLengthPrefixed(r)
		if err != nil {
			return err
		}
		rec, err := p.codec.Deserialize(encoding.NewReader(bytes.NewReader(body)), key, nil, p.rtx)
		if err != nil {
			return fmt.Errorf("inline slot %d: %w", setBit, err)
		}
		p.records.put(key, rec)
	}
	return nil
}

func (p *KeyValueLeafPage) readOverflowEntries(r *encoding.Reader, bitmap *encoding.BitSet) error {
	count, err := r.ReadInt32()
	if err != nil {
		return err
	}
	setBit := -1
	for i := int32(0); i < count; i++ {
		if setBit = bitmap.NextSetBit(setBit + 1); setBit < 0 {
			return fmt.Errorf("overflow bitmap carries fewer than %d slots", count)
		}
		key := primitives.NodeKey(int64(p.pageKey)*SlotsPerPage + int64(setBit))
		refKey, err := r.ReadInt64()
		if err != nil {
			return err
		}
		ref := NewReference()
		ref.SetKey(refKey)
		p.references[key] = ref
	}
	return nil
}

func (p *KeyValueLeafPage) readLengthPrefixed(r *encoding.Reader) ([]byte, error) {
	length, err := r.ReadInt32()
	if err != nil {
		return nil, err
	}
	if length < 0 {
		return nil, fmt.Errorf("negative record length %d", length)
	}
	return r.ReadFull(int(length))
}

// Clone produces a shallow copy for copy-on-write: all maps are shared
// with the origin until either side mutates, and the clone adopts rtx
// so it sees a possibly newer view.
func (p *KeyValueLeafPage) Clone(rtx ReadTransaction) *KeyValueLeafPage {
	p.sharedMaps = true
	return &KeyValueLeafPage{
		pageKey:            p.pageKey,
		kind:               p.kind,
		records:            p.records,
		slots:              p.slots,
		references:         p.references,
		deweyIDs:           p.deweyIDs,
		previousPageRefKey: p.previousPageRefKey,
		rtx:                rtx,
		config:             p.config,
		codec:              p.codec,
		prepared:           p.prepared,
		sharedMaps:         true,
	}
}

// ensureExclusive copies the maps if they are still shared with a
// clone or origin, making this page the sole owner.
func (p *KeyValueLeafPage) ensureExclusive() {
	if !p.sharedMaps {
		return
	}
	records := newRecordMap()
	records.order = append(records.order, p.records.order...)
	for key, rec := range p.records.entries {
		records.entries[key] = rec
	}
	p.records = records

	slots := make(map[primitives.NodeKey][]byte, len(p.slots))
	for key, data := range p.slots {
		slots[key] = data
	}
	p.slots = slots

	references := make(map[primitives.NodeKey]*Reference, len(p.references))
	for key, ref := range p.references {
		references[key] = ref
	}
	p.references = references

	if p.deweyIDs != nil {
		deweyIDs := make(map[string]deweyEntry, len(p.deweyIDs))
		for byteForm, entry := range p.deweyIDs {
			deweyIDs[byteForm] = entry
		}
		p.deweyIDs = deweyIDs
	}
	p.sharedMaps = false
}

// PageKey returns the base key of all records on this page.
func (p *KeyValueLeafPage) PageKey() primitives.PageKey {
	return p.pageKey
}

// Kind returns the subtree this page belongs to.
func (p *KeyValueLeafPage) Kind() Kind {
	return p.kind
}

// PreviousReferenceKey returns the persistent key of the preceding
// version of this page, or primitives.NullIDLong.
func (p *KeyValueLeafPage) PreviousReferenceKey() int64 {
	return p.previousPageRefKey
}

// Value returns the record stored at key. Records held inline are
// returned immediately; an overflow record is resolved through the
// page-read context, memoized, and returned. A missing key, an
// unreadable overflow page and an undecodable overflow body all report
// nil: the caller treats the record as absent.
func (p *KeyValueLeafPage) Value(key primitives.NodeKey) node.Record {
	if rec, ok := p.records.get(key); ok {
		return rec
	}
	ref := p.references[key]
	if ref == nil || ref.Key() == primitives.NullIDLong {
		return nil
	}
	resolved, err := p.rtx.Read(ref, p.rtx)
	if err != nil {
		return nil
	}
	overflow, ok := resolved.(*OverflowPage)
	if !ok {
		return nil
	}
	rec, err := p.codec.Deserialize(encoding.NewReader(bytes.NewReader(overflow.Data())), key, nil, nil)
	if err != nil {
		return nil
	}
	p.records.put(key, rec)
	return rec
}

// SetEntry writes rec at key, replacing any prior entry, and clears
// the prepared state so the next serialize or commit re-derives the
// slot partitioning for this key. Legal only on pages held by a
// writing transaction.
func (p *KeyValueLeafPage) SetEntry(key primitives.NodeKey, rec node.Record) {
	p.mustOwn(key)
	p.ensureExclusive()
	delete(p.slots, key)
	delete(p.references, key)
	for byteForm, entry := range p.deweyIDs {
		if entry.key == key {
			delete(p.deweyIDs, byteForm)
			break
		}
	}
	p.records.put(key, rec)
	p.prepared = false
}

// Size returns the number of live records plus overflow references.
// Until an overflow record has been faulted in by Value, it is counted
// through its reference only.
func (p *KeyValueLeafPage) Size() int {
	return p.records.len() + len(p.references)
}

// Entries returns the live in-memory records in insertion order.
// Overflow records not yet faulted in are not included.
func (p *KeyValueLeafPage) Entries() []Entry {
	entries := make([]Entry, 0, p.records.len())
	for _, key := range p.records.order {
		entries = append(entries, Entry{Key: key, Record: p.records.entries[key]})
	}
	return entries
}

// PageReference returns the overflow reference stored at key, or nil.
func (p *KeyValueLeafPage) PageReference(key primitives.NodeKey) *Reference {
	return p.references[key]
}

// SetPageReference stores an overflow reference at key.
func (p *KeyValueLeafPage) SetPageReference(key primitives.NodeKey, ref *Reference) {
	p.mustOwn(key)
	p.ensureExclusive()
	p.references[key] = ref
}

// OverflowKeys returns the keys of all overflow references in
// ascending order.
func (p *KeyValueLeafPage) OverflowKeys() []primitives.NodeKey {
	return sortedKeys(p.references)
}

// Serialize writes the canonical byte layout. The prepare step runs
// first if a mutation invalidated the current partitioning. The output
// is identical across calls as long as the page is not mutated in
// between.
func (p *KeyValueLeafPage) Serialize(w *encoding.Writer, typ SerializationType) error {
	p.ensureExclusive()
	if !p.prepared {
		if err := p.prepare(); err != nil {
			return err
		}
	}
	if err := w.WriteVarLong(uint64(p.pageKey)); err != nil {
		return err
	}
	if p.deweyActive() {
		if err := p.writeDeweySection(w); err != nil {
			return err
		}
	}

	inlineBitmap := encoding.NewBitSet(SlotsPerPage)
	slotKeys := sortedKeys(p.slots)
	for _, key := range slotKeys {
		inlineBitmap.Set(p.rtx.RecordPageOffset(key))
	}
	if err := typ.SerializeBitSet(w, inlineBitmap); err != nil {
		return err
	}

	overflowBitmap := encoding.NewBitSet(SlotsPerPage)
	referenceKeys := sortedKeys(p.references)
	for _, key := range referenceKeys {
		overflowBitmap.Set(p.rtx.RecordPageOffset(key))
	}
	if err := typ.SerializeBitSet(w, overflowBitmap); err != nil {
		return err
	}

	if err := w.WriteInt32(int32(len(slotKeys))); err != nil {
		return err
	}
	for _, key := range slotKeys {
		data := p.slots[key]
		if err := w.WriteInt32(int32(len(data))); err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
	}

	if err := w.WriteInt32(int32(len(referenceKeys))); err != nil {
		return err
	}
	for _, key := range referenceKeys {
		if err := w.WriteInt64(p.references[key].Key()); err != nil {
			return err
		}
	}

	hasPrevious := p.previousPageRefKey != primitives.NullIDLong
	if err := w.WriteBool(hasPrevious); err != nil {
		return err
	}
	if hasPrevious {
		if err := w.WriteInt64(p.previousPageRefKey); err != nil {
			return err
		}
	}
	return w.WriteByte(byte(p.kind))
}

// writeDeweySection emits the dewey index ordered by increasing byte
// length of the IDs, each delta-encoded against its predecessor,
// followed by the record's key and inline slot. Consumed slots are
// removed so the inline pass does not re-emit them; the prepared flag
// is cleared so a later serialize re-derives them first.
func (p *KeyValueLeafPage) writeDeweySection(w *encoding.Writer) error {
	if err := w.WriteInt32(int32(len(p.deweyIDs))); err != nil {
		return err
	}
	entries := make([]deweyEntry, 0, len(p.deweyIDs))
	for _, entry := range p.deweyIDs {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i].id.ToBytes(), entries[j].id.ToBytes()
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		return bytes.Compare(a, b) < 0
	})

	var previous *node.DeweyID
	for _, entry := range entries {
		if err := p.codec.SerializeDeweyID(w, node.ElementKind, entry.id, previous, p.config); err != nil {
			return err
		}
		if err := w.WriteVarLong(uint64(entry.key)); err != nil {
			return err
		}
		data := p.slots[entry.key]
		if err := w.WriteInt32(int32(len(data))); err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
		delete(p.slots, entry.key)
		previous = entry.id
	}
	if len(entries) > 0 {
		p.prepared = false
	}
	return nil
}

// Commit prepares the page if needed and asks the page-write context
// to persist every overflow page still owned by a reference. Overflow
// pages are durable before the leaf itself is considered durable.
func (p *KeyValueLeafPage) Commit(wtx WriteTransaction) error {
	p.ensureExclusive()
	if !p.prepared {
		if err := p.prepare(); err != nil {
			return err
		}
	}
	for _, key := range sortedKeys(p.references) {
		ref := p.references[key]
		if ref.IsEmpty() {
			continue
		}
		if err := wtx.Commit(ref); err != nil {
			return err
		}
	}
	return nil
}

// prepare moves every live record into exactly one of the inline slots
// or the overflow references and fills the dewey index. Records whose
// key already owns a slot or a reference are skipped, which makes the
// step idempotent per key.
func (p *KeyValueLeafPage) prepare() error {
	for _, entry := range p.sortedForPrepare() {
		if _, ok := p.slots[entry.Key]; ok {
			continue
		}
		if _, ok := p.references[entry.Key]; ok {
			continue
		}

		var buf bytes.Buffer
		if err := p.codec.Serialize(encoding.NewWriter(&buf), entry.Record, p.rtx); err != nil {
			return fmt.Errorf("record %d: %w", entry.Key, err)
		}
		data := buf.Bytes()

		if len(data) > MaxRecordSize {
			ref := NewReference()
			ref.SetPage(NewOverflowPage(data))
			p.references[entry.Key] = ref
			continue
		}
		if p.deweyActive() && entry.Record.DeweyID() != nil && entry.Key != 0 {
			id := entry.Record.DeweyID()
			p.deweyIDs[string(id.ToBytes())] = deweyEntry{id: id, key: entry.Key}
		}
		p.slots[entry.Key] = data
	}
	p.prepared = true
	return nil
}

// sortedForPrepare returns the live records, with dewey-carrying
// records first in dewey order when the index is active. The document
// root (node key 0) counts as carrying none. Records without an ID
// keep their insertion order.
func (p *KeyValueLeafPage) sortedForPrepare() []Entry {
	entries := p.Entries()
	if !p.deweyActive() {
		return entries
	}
	sortID := func(e Entry) *node.DeweyID {
		if e.Key == 0 {
			return nil
		}
		return e.Record.DeweyID()
	}
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := sortID(entries[i]), sortID(entries[j])
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Compare(b) < 0
		}
	})
	return entries
}

func (p *KeyValueLeafPage) deweyActive() bool {
	return p.config.StoreDeweyIDs() && p.codec.SupportsDeweyIDs()
}

func (p *KeyValueLeafPage) mustOwn(key primitives.NodeKey) {
	if PageKeyFor(key) != p.pageKey {
		panic(fmt.Sprintf("node key %d does not belong to page %d", key, p.pageKey))
	}
}

func (p *KeyValueLeafPage) String() string {
	return fmt.Sprintf("KeyValueLeafPage(key=%d, kind=%s, records=%d, overflow=%d)",
		p.pageKey, p.kind, p.records.len(), len(p.references))
}

func sortedKeys[V any](m map[primitives.NodeKey]V) []primitives.NodeKey {
	keys := functools.Keys(m)
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
