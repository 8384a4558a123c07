package entity

// Ref refers to an entity by UID so it survives the entity being removed
// and restored.
type Ref struct {
	UID uint64 // 0 = none
}

// Get resolves the reference. It returns nil for an empty reference or an
// entity no longer in the scene.
func (r Ref) Get(scene *Scene) *Entity {
	if r.UID == 0 || scene == nil {
		return nil
	}
	return scene.FindByUID(r.UID)
}

func (r Ref) IsValid() bool {
	return r.UID != 0
}

// Set points the reference at e. Pass nil to clear it.
func (r *Ref) Set(e *Entity) {
	if e == nil {
		r.UID = 0
	} else {
		r.UID = e.UID
	}
}

func (r *Ref) Clear() {
	r.UID = 0
}
