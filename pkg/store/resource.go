package store

import (
	"sync"

	"treestore/pkg/page"
	"treestore/pkg/primitives"
	"treestore/pkg/resource"
)

// Resource binds a resource configuration to its page file and tracks
// the committed location of every leaf page. It implements
// resource.Manager.
type Resource struct {
	config *resource.Configuration
	file   *PageFile

	mu        sync.RWMutex
	directory map[page.Kind]map[primitives.PageKey]int64
}

// OpenResource opens the page file at path for the given
// configuration.
func OpenResource(config *resource.Configuration, path primitives.Filepath) (*Resource, error) {
	file, err := OpenPageFile(path)
	if err != nil {
		return nil, err
	}
	return &Resource{
		config:    config,
		file:      file,
		directory: make(map[page.Kind]map[primitives.PageKey]int64),
	}, nil
}

// Config returns the immutable configuration of this resource.
func (r *Resource) Config() *resource.Configuration {
	return r.config
}

// File returns the page file backing this resource.
func (r *Resource) File() *PageFile {
	return r.file
}

// Close releases the page file.
func (r *Resource) Close() error {
	return r.file.Close()
}

// registerLeaf records where the current version of a leaf page lives.
func (r *Resource) registerLeaf(kind page.Kind, pageKey primitives.PageKey, persistentKey int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	leaves, ok := r.directory[kind]
	if !ok {
		leaves = make(map[primitives.PageKey]int64)
		r.directory[kind] = leaves
	}
	leaves[pageKey] = persistentKey
}

// lookupLeaf returns the persistent key of the current version of the
// leaf holding pageKey, or primitives.NullIDLong.
func (r *Resource) lookupLeaf(kind page.Kind, pageKey primitives.PageKey) int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if leaves, ok := r.directory[kind]; ok {
		if key, ok := leaves[pageKey]; ok {
			return key
		}
	}
	return primitives.NullIDLong
}
