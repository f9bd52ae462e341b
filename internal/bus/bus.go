// Package bus is the cross-component coordination channel: independently
// mounted boards subscribe here so any of them can be told to refetch. It
// replaces ambient global events with an explicit observer registry whose
// subscriptions and teardown are visible and testable.
package bus

import "sync"

// Signal is the payload carried by board coordination signals. An empty
// ListID addresses every board.
type Signal struct {
	ListID string
}

// Bus fans out two kinds of signals: a soft "updated, refetch when
// convenient" notice and a hard "force immediate reload" command (used
// right after a drag-induced cross-list move so the destination board
// reflects the change without waiting for the realtime round trip).
type Bus struct {
	mu     sync.Mutex
	nextID int
	soft   map[int]func(Signal)
	force  map[int]func(Signal)
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{
		soft:  make(map[int]func(Signal)),
		force: make(map[int]func(Signal)),
	}
}

// SubscribeSoft registers fn for soft update signals and returns a cancel
// handle.
func (b *Bus) SubscribeSoft(fn func(Signal)) (cancel func()) {
	return b.subscribe(b.soft, fn)
}

// SubscribeForce registers fn for force-reload signals and returns a
// cancel handle.
func (b *Bus) SubscribeForce(fn func(Signal)) (cancel func()) {
	return b.subscribe(b.force, fn)
}

// PublishSoft delivers a soft update signal to all soft subscribers.
func (b *Bus) PublishSoft(sig Signal) {
	b.publish(b.soft, sig)
}

// PublishForce delivers a force-reload signal to all force subscribers.
func (b *Bus) PublishForce(sig Signal) {
	b.publish(b.force, sig)
}

func (b *Bus) subscribe(reg map[int]func(Signal), fn func(Signal)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	reg[id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(reg, id)
	}
}

// publish snapshots the handler set under the lock and delivers outside
// it, so a handler may subscribe or cancel without deadlocking.
func (b *Bus) publish(reg map[int]func(Signal), sig Signal) {
	b.mu.Lock()
	fns := make([]func(Signal), 0, len(reg))
	for _, fn := range reg {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(sig)
	}
}
