package node

import (
	"bytes"
	"testing"

	"treestore/pkg/encoding"
)

func TestDataNodeCodec_RoundTrip(t *testing.T) {
	codec := DataNodeCodec{}
	rec := NewDataNode(42, TextKind, nil, []byte("some text value"))

	var buf bytes.Buffer
	if err := codec.Serialize(encoding.NewWriter(&buf), rec, nil); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	got, err := codec.Deserialize(encoding.NewReader(&buf), 42, nil, nil)
	if err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}

	dataNode, ok := got.(*DataNode)
	if !ok {
		t.Fatalf("expected *DataNode, got %T", got)
	}
	if !dataNode.Equals(rec) {
		t.Errorf("round trip mismatch: got %v, want %v", dataNode, rec)
	}
}

func TestDataNodeCodec_DeweyIDFromFrame(t *testing.T) {
	codec := DataNodeCodec{}
	id := NewDeweyID(1, 5)
	rec := NewDataNode(7, ElementKind, id, []byte("elem"))

	var buf bytes.Buffer
	if err := codec.Serialize(encoding.NewWriter(&buf), rec, nil); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	// The body does not carry the dewey ID; the page frame supplies it.
	got, err := codec.Deserialize(encoding.NewReader(&buf), 7, id, nil)
	if err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}
	if !got.DeweyID().Equals(id) {
		t.Errorf("dewey ID not taken from frame: got %v, want %v", got.DeweyID(), id)
	}
}

func TestDataNodeCodec_DeweyChainRoundTrip(t *testing.T) {
	codec := DataNodeCodec{}
	chain := []*DeweyID{
		NewDeweyID(1),
		NewDeweyID(1, 2),
		NewDeweyID(1, 2, 3),
		NewDeweyID(1, 4),
	}

	var buf bytes.Buffer
	w := encoding.NewWriter(&buf)
	var prev *DeweyID
	for _, id := range chain {
		if err := codec.SerializeDeweyID(w, ElementKind, id, prev, nil); err != nil {
			t.Fatalf("SerializeDeweyID(%s) failed: %v", id, err)
		}
		prev = id
	}

	r := encoding.NewReader(&buf)
	prev = nil
	for _, want := range chain {
		got, err := codec.DeserializeDeweyID(r, prev, nil)
		if err != nil {
			t.Fatalf("DeserializeDeweyID failed: %v", err)
		}
		if !got.Equals(want) {
			t.Errorf("chain element mismatch: got %s, want %s", got, want)
		}
		prev = got
	}
}

func TestDataNodeCodec_CorruptDeweyDelta(t *testing.T) {
	codec := DataNodeCodec{}

	var buf bytes.Buffer
	w := encoding.NewWriter(&buf)
	// Claims 3 shared divisions against an empty chain.
	if err := w.WriteVarLong(3); err != nil {
		t.Fatalf("WriteVarLong failed: %v", err)
	}
	if err := w.WriteVarLong(0); err != nil {
		t.Fatalf("WriteVarLong failed: %v", err)
	}

	if _, err := codec.DeserializeDeweyID(encoding.NewReader(&buf), nil, nil); err == nil {
		t.Errorf("expected error for delta with no previous ID")
	}
}

func TestDataNodeCodec_UnknownKind(t *testing.T) {
	codec := DataNodeCodec{}
	buf := bytes.NewBuffer([]byte{0xEE, 0x00})

	if _, err := codec.Deserialize(encoding.NewReader(buf), 1, nil, nil); err == nil {
		t.Errorf("expected error for unknown kind byte")
	}
}
