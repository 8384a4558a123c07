package scenelab

const DefaultUndoLimit = 50

// Change records the payload a component had before a commit replaced it.
// A nil Previous means the entity did not have the component.
type Change struct {
	UID       uint64
	Component string
	Previous  []byte
}

// UndoStack keeps the most recent changes, dropping the oldest past its
// limit.
type UndoStack struct {
	limit   int
	changes []Change
}

func NewUndoStack(limit int) *UndoStack {
	if limit <= 0 {
		limit = DefaultUndoLimit
	}
	return &UndoStack{limit: limit}
}

func (u *UndoStack) Push(c Change) {
	if len(u.changes) >= u.limit {
		u.changes = u.changes[1:]
	}
	u.changes = append(u.changes, c)
}

// Pop removes and returns the most recent change.
func (u *UndoStack) Pop() (Change, bool) {
	if len(u.changes) == 0 {
		return Change{}, false
	}
	c := u.changes[len(u.changes)-1]
	u.changes = u.changes[:len(u.changes)-1]
	return c, true
}

func (u *UndoStack) Len() int { return len(u.changes) }
