package entity

// ComponentChange describes one write to an entity's component set.
type ComponentChange struct {
	Entity    *Entity
	Component string
	Removed   bool
}

// ChangeFeed fans component changes out to watchers in the order they
// subscribed.
type ChangeFeed struct {
	watchers []func(ComponentChange)
}

// Watch subscribes fn. A nil fn is ignored.
func (f *ChangeFeed) Watch(fn func(ComponentChange)) {
	if fn != nil {
		f.watchers = append(f.watchers, fn)
	}
}

func (f *ChangeFeed) Watchers() int { return len(f.watchers) }

func (f *ChangeFeed) publish(c ComponentChange) {
	for _, fn := range f.watchers {
		fn(c)
	}
}
