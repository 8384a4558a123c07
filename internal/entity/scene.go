package entity

import "fmt"

type Scene struct {
	Name     string
	Entities []*Entity
	uidMap   map[uint64]*Entity
}

func NewScene(name string) *Scene {
	return &Scene{
		Name:     name,
		Entities: make([]*Entity, 0),
		uidMap:   make(map[uint64]*Entity),
	}
}

func (s *Scene) Add(e *Entity) {
	if s.uidMap == nil {
		s.uidMap = make(map[uint64]*Entity)
	}
	if e.UID == 0 {
		e.UID = nextUID.Add(1)
	} else {
		reserveUID(e.UID)
	}
	e.Scene = s
	s.Entities = append(s.Entities, e)
	s.uidMap[e.UID] = e
}

// Remove drops e and all of its descendants from the scene.
func (s *Scene) Remove(e *Entity) {
	for _, c := range e.Children {
		s.Remove(c)
	}
	for i, obj := range s.Entities {
		if obj == e {
			s.Entities = append(s.Entities[:i], s.Entities[i+1:]...)
			break
		}
	}
	delete(s.uidMap, e.UID)
	e.Scene = nil
}

func (s *Scene) FindByUID(uid uint64) *Entity {
	return s.uidMap[uid]
}

func (s *Scene) FindByName(name string) *Entity {
	for _, e := range s.Entities {
		if e.Name == name {
			return e
		}
	}
	return nil
}

func (s *Scene) FindByTag(tag string) []*Entity {
	var result []*Entity
	for _, e := range s.Entities {
		if e.HasTag(tag) {
			result = append(result, e)
		}
	}
	return result
}

// UniqueName returns base, or "base (n)" with the smallest n not taken.
func (s *Scene) UniqueName(base string) string {
	if s.FindByName(base) == nil {
		return base
	}
	for n := 1; ; n++ {
		name := fmt.Sprintf("%s (%d)", base, n)
		if s.FindByName(name) == nil {
			return name
		}
	}
}
