package encoding

import (
	"bytes"
	"io"
	"testing"
)

func TestWriterReader_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	if err := w.WriteByte(0x7F); err != nil {
		t.Fatalf("WriteByte failed: %v", err)
	}
	if err := w.WriteBool(true); err != nil {
		t.Fatalf("WriteBool failed: %v", err)
	}
	if err := w.WriteInt32(-42); err != nil {
		t.Fatalf("WriteInt32 failed: %v", err)
	}
	if err := w.WriteInt64(1 << 40); err != nil {
		t.Fatalf("WriteInt64 failed: %v", err)
	}
	if err := w.WriteVarLong(300); err != nil {
		t.Fatalf("WriteVarLong failed: %v", err)
	}
	if _, err := w.Write([]byte("payload")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	r := NewReader(&buf)
	if b, err := r.ReadByte(); err != nil || b != 0x7F {
		t.Errorf("ReadByte = %v, %v; want 0x7F", b, err)
	}
	if v, err := r.ReadBool(); err != nil || !v {
		t.Errorf("ReadBool = %v, %v; want true", v, err)
	}
	if v, err := r.ReadInt32(); err != nil || v != -42 {
		t.Errorf("ReadInt32 = %v, %v; want -42", v, err)
	}
	if v, err := r.ReadInt64(); err != nil || v != 1<<40 {
		t.Errorf("ReadInt64 = %v, %v; want %d", v, err, int64(1)<<40)
	}
	if v, err := r.ReadVarLong(); err != nil || v != 300 {
		t.Errorf("ReadVarLong = %v, %v; want 300", v, err)
	}
	data, err := r.ReadFull(7)
	if err != nil || string(data) != "payload" {
		t.Errorf("ReadFull = %q, %v; want \"payload\"", data, err)
	}
}

func TestReader_TruncatedInput(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.WriteInt32(7); err != nil {
		t.Fatalf("WriteInt32 failed: %v", err)
	}

	r := NewReader(bytes.NewReader(buf.Bytes()[:2]))
	if _, err := r.ReadInt32(); err != io.ErrUnexpectedEOF {
		t.Errorf("expected io.ErrUnexpectedEOF, got %v", err)
	}
}

func TestVarLong_Boundaries(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 1<<32 - 1, 1 << 62}

	for _, v := range values {
		var buf bytes.Buffer
		if err := NewWriter(&buf).WriteVarLong(v); err != nil {
			t.Fatalf("WriteVarLong(%d) failed: %v", v, err)
		}
		got, err := NewReader(&buf).ReadVarLong()
		if err != nil {
			t.Fatalf("ReadVarLong(%d) failed: %v", v, err)
		}
		if got != v {
			t.Errorf("varlong round trip: got %d, want %d", got, v)
		}
	}
}

func TestBitSet_SetAndTest(t *testing.T) {
	b := NewBitSet(512)
	for _, i := range []int{0, 1, 63, 64, 511} {
		b.Set(i)
	}

	for _, i := range []int{0, 1, 63, 64, 511} {
		if !b.Test(i) {
			t.Errorf("bit %d should be set", i)
		}
	}
	if b.Test(2) || b.Test(100) {
		t.Errorf("unset bits reported as set")
	}
	if b.Cardinality() != 5 {
		t.Errorf("Cardinality = %d, want 5", b.Cardinality())
	}
}

func TestBitSet_NextSetBit(t *testing.T) {
	b := NewBitSet(512)
	b.Set(3)
	b.Set(64)
	b.Set(200)

	want := []int{3, 64, 200}
	got := []int{}
	for i := b.NextSetBit(0); i >= 0; i = b.NextSetBit(i + 1) {
		got = append(got, i)
	}

	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
			break
		}
	}
}

func TestBitSet_WordsTrimmed(t *testing.T) {
	b := NewBitSet(512)
	b.Set(5)

	if n := len(b.Words()); n != 1 {
		t.Errorf("expected 1 wire word, got %d", n)
	}

	rebuilt := BitSetFromWords(b.Words())
	if !rebuilt.Test(5) || rebuilt.Cardinality() != 1 {
		t.Errorf("round trip through Words lost bits")
	}
}
