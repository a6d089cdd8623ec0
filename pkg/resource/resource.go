// Package resource holds the immutable per-resource configuration the
// storage layer is parameterized with. A resource is one stored
// document tree with its full revision history.
package resource

import (
	"github.com/google/uuid"

	"treestore/pkg/node"
)

// Configuration is the immutable configuration of a resource. It is
// bound to every page at construction time and shared freely across
// transactions; nothing in it may change after creation.
type Configuration struct {
	id            uuid.UUID
	name          string
	storeDeweyIDs bool
	codec         node.Codec
}

// NewConfiguration creates a resource configuration with a fresh
// identity.
func NewConfiguration(name string, codec node.Codec, storeDeweyIDs bool) *Configuration {
	return &Configuration{
		id:            uuid.New(),
		name:          name,
		storeDeweyIDs: storeDeweyIDs,
		codec:         codec,
	}
}

// ID returns the unique identity of this resource.
func (c *Configuration) ID() uuid.UUID {
	return c.id
}

// Name returns the resource name.
func (c *Configuration) Name() string {
	return c.name
}

// StoreDeweyIDs reports whether this resource stores dewey IDs.
func (c *Configuration) StoreDeweyIDs() bool {
	return c.storeDeweyIDs
}

// Codec returns the record codec bound to this resource.
func (c *Configuration) Codec() node.Codec {
	return c.codec
}

// Manager gives the page layer access to resource-level state. It is
// implemented by the storage layer; pages only ever read configuration
// through it.
type Manager interface {
	// Config returns the immutable configuration of the resource.
	Config() *Configuration
}
