package primitives

import (
	"hash/fnv"
	"os"
	"path/filepath"
)

// Filepath is a type-safe wrapper around file paths used throughout the
// storage engine. It provides convenient methods for path manipulation
// and file operations while reducing the need for string conversions.
//
// The Filepath type is used for:
//   - Resource data files (record pages, overflow pages)
//   - Log file paths
//
// Example usage:
//
//	dataDir := primitives.Filepath("/data")
//	pageFile := dataDir.Join("nodes.dat")
//	if pageFile.Exists() {
//	    pageFile.Remove()
//	}
type Filepath string

// Hash generates a unique FileID from the file path using FNV-1a
// hashing. The same path always produces the same ID.
func (f Filepath) Hash() FileID {
	h := fnv.New64a()
	h.Write([]byte(f))
	return FileID(h.Sum64())
}

// Join appends path elements to this path.
func (f Filepath) Join(elem ...string) Filepath {
	parts := append([]string{string(f)}, elem...)
	return Filepath(filepath.Join(parts...))
}

// Exists reports whether the path exists on disk.
func (f Filepath) Exists() bool {
	_, err := os.Stat(string(f))
	return err == nil
}

// Remove deletes the file at this path.
func (f Filepath) Remove() error {
	return os.Remove(string(f))
}

// Dir returns the directory portion of this path.
func (f Filepath) Dir() Filepath {
	return Filepath(filepath.Dir(string(f)))
}

func (f Filepath) String() string {
	return string(f)
}
