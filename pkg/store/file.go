// Package store persists pages in a log-structured page file and
// implements the read and write transaction contracts of the page
// layer on top of it. A page's persistent key is the offset of its
// frame in the file, so references resolve with a single positioned
// read.
package store

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"

	"treestore/pkg/encoding"
	"treestore/pkg/page"
	"treestore/pkg/primitives"
)

// frameHeaderSize is the fixed length prefix of every page frame.
const frameHeaderSize = 4

// PageFile is an append-only file of page frames. Each frame is a
// big-endian uint32 payload length followed by the framed page bytes.
// All methods are safe for concurrent use.
type PageFile struct {
	file     *os.File
	fileID   primitives.FileID
	filePath primitives.Filepath
	mutex    sync.RWMutex
	size     int64
}

// OpenPageFile opens (or creates) the page file at path.
func OpenPageFile(path primitives.Filepath) (*PageFile, error) {
	file, err := os.OpenFile(path.String(), os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, errors.Wrapf(err, "opening page file %s", path)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, errors.Wrapf(err, "stating page file %s", path)
	}
	return &PageFile{
		file:     file,
		fileID:   path.Hash(),
		filePath: path,
		size:     info.Size(),
	}, nil
}

// ID returns the unique identifier of this file, derived from its
// path.
func (f *PageFile) ID() primitives.FileID {
	return f.fileID
}

// Path returns the path this file was opened from.
func (f *PageFile) Path() primitives.Filepath {
	return f.filePath
}

// Write appends a page frame and returns its persistent key.
func (f *PageFile) Write(typ page.SerializationType, p page.Page) (int64, error) {
	var payload bytes.Buffer
	if err := page.WritePage(encoding.NewWriter(&payload), typ, p); err != nil {
		return primitives.NullIDLong, errors.Wrap(err, "serializing page")
	}

	var header [frameHeaderSize]byte
	binary.BigEndian.PutUint32(header[:], uint32(payload.Len()))

	f.mutex.Lock()
	defer f.mutex.Unlock()

	key := f.size
	if _, err := f.file.WriteAt(header[:], key); err != nil {
		return primitives.NullIDLong, errors.Wrapf(err, "writing frame header at %d", key)
	}
	if _, err := f.file.WriteAt(payload.Bytes(), key+frameHeaderSize); err != nil {
		return primitives.NullIDLong, errors.Wrapf(err, "writing frame payload at %d", key)
	}
	f.size = key + frameHeaderSize + int64(payload.Len())
	return key, nil
}

// Read decodes the page frame stored at key.
func (f *PageFile) Read(key int64, typ page.SerializationType, rtx page.ReadTransaction) (page.Page, error) {
	payload, err := f.readFrame(key)
	if err != nil {
		return nil, err
	}
	p, err := page.ReadPage(encoding.NewReader(bytes.NewReader(payload)), typ, rtx)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding page at %d", key)
	}
	return p, nil
}

// Keys walks the file and returns the persistent keys of all frames in
// write order.
func (f *PageFile) Keys() ([]int64, error) {
	f.mutex.RLock()
	defer f.mutex.RUnlock()

	var keys []int64
	var header [frameHeaderSize]byte
	for offset := int64(0); offset < f.size; {
		if _, err := f.file.ReadAt(header[:], offset); err != nil {
			return nil, errors.Wrapf(err, "reading frame header at %d", offset)
		}
		keys = append(keys, offset)
		offset += frameHeaderSize + int64(binary.BigEndian.Uint32(header[:]))
	}
	return keys, nil
}

// Sync flushes written frames to stable storage.
func (f *PageFile) Sync() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return errors.Wrap(f.file.Sync(), "syncing page file")
}

// Close releases the underlying file handle.
func (f *PageFile) Close() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.file.Close()
}

func (f *PageFile) readFrame(key int64) ([]byte, error) {
	f.mutex.RLock()
	defer f.mutex.RUnlock()

	if key < 0 || key >= f.size {
		return nil, errors.Errorf("page key %d outside file of size %d", key, f.size)
	}
	var header [frameHeaderSize]byte
	if _, err := f.file.ReadAt(header[:], key); err != nil {
		return nil, errors.Wrapf(err, "reading frame header at %d", key)
	}
	length := int64(binary.BigEndian.Uint32(header[:]))
	if key+frameHeaderSize+length > f.size {
		return nil, errors.Errorf("frame at %d overruns file", key)
	}
	payload := make([]byte, length)
	if _, err := f.file.ReadAt(payload, key+frameHeaderSize); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, errors.Wrapf(err, "reading frame payload at %d", key)
	}
	return payload, nil
}
