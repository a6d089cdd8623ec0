package encoding

import (
	"bufio"
	"encoding/binary"
	"io"
)

// Reader wraps an io.Reader with the inverse codecs of Writer. Reads
// that run off the end of the input surface io.ErrUnexpectedEOF so a
// truncated page is always distinguishable from a clean end of stream.
type Reader struct {
	r   *bufio.Reader
	buf [8]byte
}

// NewReader creates a Reader consuming from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Read implements io.Reader.
func (r *Reader) Read(p []byte) (int, error) {
	return r.r.Read(p)
}

// ReadByte reads a single byte.
func (r *Reader) ReadByte() (byte, error) {
	b, err := r.r.ReadByte()
	if err == io.EOF {
		return 0, io.ErrUnexpectedEOF
	}
	return b, err
}

// ReadBool reads a boolean written by Writer.WriteBool.
func (r *Reader) ReadBool() (bool, error) {
	b, err := r.ReadByte()
	return b != 0, err
}

// ReadUint16 reads a big-endian 16-bit unsigned integer.
func (r *Reader) ReadUint16() (uint16, error) {
	if err := r.fill(2); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(r.buf[:2]), nil
}

// ReadInt32 reads a big-endian 32-bit signed integer.
func (r *Reader) ReadInt32() (int32, error) {
	if err := r.fill(4); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(r.buf[:4])), nil
}

// ReadInt64 reads a big-endian 64-bit signed integer.
func (r *Reader) ReadInt64() (int64, error) {
	if err := r.fill(8); err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(r.buf[:8])), nil
}

// ReadVarLong reads an unsigned LEB128 integer written by
// Writer.WriteVarLong.
func (r *Reader) ReadVarLong() (uint64, error) {
	v, err := binary.ReadUvarint(r)
	if err == io.EOF {
		return 0, io.ErrUnexpectedEOF
	}
	return v, err
}

// ReadFull reads exactly n bytes into a fresh slice.
func (r *Reader) ReadFull(n int) ([]byte, error) {
	data := make([]byte, n)
	if _, err := io.ReadFull(r.r, data); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return data, nil
}

func (r *Reader) fill(n int) error {
	if _, err := io.ReadFull(r.r, r.buf[:n]); err != nil {
		if err == io.EOF {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	return nil
}
