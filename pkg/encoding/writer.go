package encoding

import (
	"encoding/binary"
	"io"
)

// Writer wraps an io.Writer with the big-endian fixed-width and
// variable-length integer codecs the storage format is built from.
// All multi-byte integers are written big-endian.
type Writer struct {
	w   io.Writer
	buf [binary.MaxVarintLen64]byte
}

// NewWriter creates a Writer emitting to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write implements io.Writer so record codecs can emit raw bytes
// through the same sink.
func (w *Writer) Write(p []byte) (int, error) {
	return w.w.Write(p)
}

// WriteByte writes a single byte.
func (w *Writer) WriteByte(b byte) error {
	w.buf[0] = b
	_, err := w.w.Write(w.buf[:1])
	return err
}

// WriteBool writes a boolean as a single byte (1 = true, 0 = false).
func (w *Writer) WriteBool(v bool) error {
	if v {
		return w.WriteByte(1)
	}
	return w.WriteByte(0)
}

// WriteUint16 writes a big-endian 16-bit unsigned integer.
func (w *Writer) WriteUint16(v uint16) error {
	binary.BigEndian.PutUint16(w.buf[:2], v)
	_, err := w.w.Write(w.buf[:2])
	return err
}

// WriteInt32 writes a big-endian 32-bit signed integer.
func (w *Writer) WriteInt32(v int32) error {
	binary.BigEndian.PutUint32(w.buf[:4], uint32(v))
	_, err := w.w.Write(w.buf[:4])
	return err
}

// WriteInt64 writes a big-endian 64-bit signed integer.
func (w *Writer) WriteInt64(v int64) error {
	binary.BigEndian.PutUint64(w.buf[:8], uint64(v))
	_, err := w.w.Write(w.buf[:8])
	return err
}

// WriteVarLong writes an unsigned integer in LEB128 form: seven value
// bits per byte, high bit set on every byte except the last.
func (w *Writer) WriteVarLong(v uint64) error {
	n := binary.PutUvarint(w.buf[:], v)
	_, err := w.w.Write(w.buf[:n])
	return err
}
