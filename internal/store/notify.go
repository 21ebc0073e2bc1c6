package store

import (
	"sync"

	"github.com/google/uuid"
)

// ListenerID identifies a registered change listener.
type ListenerID string

type listener struct {
	id ListenerID
	fn func()
}

// changeBus holds change listeners in registration order.
type changeBus struct {
	mu        sync.Mutex
	listeners []listener
}

func (b *changeBus) add(fn func()) ListenerID {
	id := ListenerID(uuid.NewString())
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, listener{id: id, fn: fn})
	return id
}

func (b *changeBus) remove(id ListenerID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, l := range b.listeners {
		if l.id == id {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			return
		}
	}
}

// notify calls every listener. The set is copied first so a listener may
// register or remove listeners without deadlocking.
func (b *changeBus) notify() {
	b.mu.Lock()
	ls := make([]listener, len(b.listeners))
	copy(ls, b.listeners)
	b.mu.Unlock()

	for _, l := range ls {
		l.fn()
	}
}

// OnChange registers fn to run after every successful persist.
// fn receives no arguments; it should re-read whatever it displays.
func (s *Store) OnChange(fn func()) ListenerID {
	return s.bus.add(fn)
}

// RemoveListener unregisters a listener. Unknown ids are ignored.
func (s *Store) RemoveListener(id ListenerID) {
	s.bus.remove(id)
}
