package store

import "sync"

// observerList is the change-signal subscriber registry. Subscribing and
// unsubscribing are safe from any goroutine, including from inside an
// observer callback.
type observerList struct {
	mu   sync.Mutex
	next int
	subs map[int]func()
}

func newObserverList() *observerList {
	return &observerList{subs: map[int]func(){}}
}

func (o *observerList) add(fn func()) (remove func()) {
	o.mu.Lock()
	id := o.next
	o.next++
	o.subs[id] = fn
	o.mu.Unlock()

	return func() {
		o.mu.Lock()
		delete(o.subs, id)
		o.mu.Unlock()
	}
}

// fanout invokes every subscriber once. Callbacks run outside the lock so
// they can subscribe or unsubscribe without deadlocking.
func (o *observerList) fanout() {
	o.mu.Lock()
	fns := make([]func(), 0, len(o.subs))
	for _, fn := range o.subs {
		fns = append(fns, fn)
	}
	o.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
