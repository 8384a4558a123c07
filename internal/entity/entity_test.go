package entity

import (
	"bytes"
	"testing"
)

func TestComponents(t *testing.T) {
	e := New("Crate")
	var changed []ComponentChange
	e.Changes.Watch(func(c ComponentChange) { changed = append(changed, c) })

	data := []byte{1, 2, 3}
	e.SetComponent("Transform", data)
	data[0] = 9
	if !bytes.Equal(e.Component("Transform"), []byte{1, 2, 3}) {
		t.Error("SetComponent should store a copy")
	}
	e.SetComponent("Health", []byte{4})

	names := e.ComponentNames()
	if len(names) != 2 || names[0] != "Health" || names[1] != "Transform" {
		t.Errorf("Expected sorted component names, got %v", names)
	}
	if e.Component("Missing") != nil || e.HasComponent("Missing") {
		t.Error("Missing component should be nil")
	}

	e.RemoveComponent("Health")
	e.RemoveComponent("Health")
	if e.HasComponent("Health") {
		t.Error("Health should be removed")
	}
	if len(changed) != 3 {
		t.Fatalf("Expected 3 change events, got %v", changed)
	}
	last := changed[2]
	if last.Entity != e || last.Component != "Health" || !last.Removed {
		t.Errorf("Expected removal of Health, got %+v", last)
	}
	if changed[0].Removed || changed[0].Component != "Transform" {
		t.Errorf("Expected Transform set first, got %+v", changed[0])
	}
}

func TestChildren(t *testing.T) {
	a := New("A")
	b := New("B")
	child := New("Child")

	a.AddChild(child)
	b.AddChild(child)
	if child.Parent != b || len(a.Children) != 0 || len(b.Children) != 1 {
		t.Error("Reparenting should detach the child from its old parent")
	}
	b.RemoveChild(child)
	if child.Parent != nil || len(b.Children) != 0 {
		t.Error("RemoveChild failed")
	}
}

func TestChangeFeedOrder(t *testing.T) {
	e := New("Lamp")
	var order []string
	e.Changes.Watch(func(c ComponentChange) { order = append(order, "first:"+c.Component) })
	e.Changes.Watch(nil)
	e.Changes.Watch(func(c ComponentChange) { order = append(order, "second:"+c.Component) })

	if e.Changes.Watchers() != 2 {
		t.Errorf("Expected 2 watchers, got %d", e.Changes.Watchers())
	}
	e.SetComponent("Light", nil)
	e.RemoveComponent("Missing")
	if len(order) != 2 || order[0] != "first:Light" || order[1] != "second:Light" {
		t.Errorf("Expected watchers in subscription order, got %v", order)
	}
}
