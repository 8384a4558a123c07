// Package entity is the host-side store the editor writes into: entities
// carrying named, FlatBuffers-serialized component payloads.
package entity

import (
	"slices"
	"sync/atomic"
)

var nextUID atomic.Uint64

// Entity owns one serialized buffer per component table name.
type Entity struct {
	UID       uint64
	Name      string
	Prototype string
	Tags      []string
	Scene     *Scene
	Parent    *Entity
	Children  []*Entity

	// Changes reports every component set or removed on this entity.
	Changes ChangeFeed

	components map[string][]byte
}

func New(name string) *Entity {
	return &Entity{
		UID:        nextUID.Add(1),
		Name:       name,
		components: make(map[string][]byte),
	}
}

// reserveUID keeps generated uids above ones loaded from disk.
func reserveUID(uid uint64) {
	for {
		cur := nextUID.Load()
		if cur >= uid || nextUID.CompareAndSwap(cur, uid) {
			return
		}
	}
}

// SetComponent stores a copy of data under name.
func (e *Entity) SetComponent(name string, data []byte) {
	if e.components == nil {
		e.components = make(map[string][]byte)
	}
	e.components[name] = slices.Clone(data)
	e.Changes.publish(ComponentChange{Entity: e, Component: name})
}

// Component returns the stored payload, or nil when the entity has no such
// component. The slice is owned by the entity.
func (e *Entity) Component(name string) []byte {
	return e.components[name]
}

func (e *Entity) HasComponent(name string) bool {
	_, ok := e.components[name]
	return ok
}

func (e *Entity) RemoveComponent(name string) {
	if _, ok := e.components[name]; !ok {
		return
	}
	delete(e.components, name)
	e.Changes.publish(ComponentChange{Entity: e, Component: name, Removed: true})
}

// ComponentNames returns the component names in sorted order.
func (e *Entity) ComponentNames() []string {
	names := make([]string, 0, len(e.components))
	for name := range e.components {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (e *Entity) HasTag(tag string) bool {
	return slices.Contains(e.Tags, tag)
}

func (e *Entity) AddChild(child *Entity) {
	if child.Parent != nil {
		child.Parent.RemoveChild(child)
	}
	child.Parent = e
	e.Children = append(e.Children, child)
}

func (e *Entity) RemoveChild(child *Entity) {
	for i, c := range e.Children {
		if c == child {
			e.Children = append(e.Children[:i], e.Children[i+1:]...)
			child.Parent = nil
			return
		}
	}
}
