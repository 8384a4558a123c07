package entity

import "testing"

func TestSceneAdd(t *testing.T) {
	scene := NewScene("Test")
	e := New("Player")

	scene.Add(e)

	if len(scene.Entities) != 1 {
		t.Errorf("Expected 1 entity, got %d", len(scene.Entities))
	}
	if e.Scene != scene {
		t.Error("Entity.Scene not set")
	}
	if scene.FindByUID(e.UID) != e {
		t.Error("FindByUID failed")
	}
	if scene.FindByUID(99999999) != nil {
		t.Error("FindByUID should return nil for non-existent UID")
	}
}

func TestSceneAddKeepsLoadedUIDs(t *testing.T) {
	scene := NewScene("Test")
	loaded := &Entity{UID: 1 << 40, Name: "Loaded"}
	scene.Add(loaded)

	fresh := New("Fresh")
	if fresh.UID <= loaded.UID {
		t.Errorf("New UID %d should be above loaded UID %d", fresh.UID, loaded.UID)
	}

	zero := &Entity{Name: "Zero"}
	scene.Add(zero)
	if zero.UID == 0 {
		t.Error("Add should assign a UID to an entity without one")
	}
}

func TestSceneRemoveWithChildren(t *testing.T) {
	scene := NewScene("Test")
	parent := New("Parent")
	child := New("Child")
	other := New("Other")

	scene.Add(parent)
	scene.Add(child)
	scene.Add(other)
	parent.AddChild(child)

	scene.Remove(parent)

	if len(scene.Entities) != 1 || scene.Entities[0] != other {
		t.Errorf("Expected only Other to remain, got %d entities", len(scene.Entities))
	}
	if scene.FindByUID(parent.UID) != nil {
		t.Error("Parent still in UID map after removal")
	}
	if scene.FindByUID(child.UID) != nil {
		t.Error("Child still in UID map after removal")
	}
}

func TestSceneFind(t *testing.T) {
	scene := NewScene("Test")
	a := New("Enemy")
	b := New("Enemy2")
	c := New("Player")
	a.Tags = []string{"enemy", "ai"}
	b.Tags = []string{"enemy"}
	c.Tags = []string{"player"}
	scene.Add(a)
	scene.Add(b)
	scene.Add(c)

	if scene.FindByName("Player") != c {
		t.Error("FindByName failed")
	}
	if scene.FindByName("Nobody") != nil {
		t.Error("FindByName should return nil for non-existent name")
	}
	if n := len(scene.FindByTag("enemy")); n != 2 {
		t.Errorf("Expected 2 enemies, got %d", n)
	}
	if n := len(scene.FindByTag("nonexistent")); n != 0 {
		t.Errorf("Expected no matches, got %d", n)
	}
}

func TestSceneUniqueName(t *testing.T) {
	scene := NewScene("Test")
	if got := scene.UniqueName("Crate"); got != "Crate" {
		t.Errorf("Expected Crate, got %s", got)
	}
	scene.Add(New("Crate"))
	scene.Add(New("Crate (1)"))
	if got := scene.UniqueName("Crate"); got != "Crate (2)" {
		t.Errorf("Expected Crate (2), got %s", got)
	}
}

func TestRef(t *testing.T) {
	scene := NewScene("Test")
	e := New("Target")
	scene.Add(e)

	var r Ref
	if r.IsValid() || r.Get(scene) != nil {
		t.Error("Empty ref should resolve to nil")
	}
	r.Set(e)
	if r.Get(scene) != e {
		t.Error("Ref did not resolve to its entity")
	}
	scene.Remove(e)
	if r.Get(scene) != nil {
		t.Error("Ref to a removed entity should resolve to nil")
	}
	scene.Add(e)
	if r.Get(scene) != e {
		t.Error("Ref should resolve again after the entity is restored")
	}
	r.Clear()
	if r.IsValid() {
		t.Error("Cleared ref should be invalid")
	}
}
