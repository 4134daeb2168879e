package cart

import "sync"

// IdentityFeed delivers identity changes to subscribers in the order they
// occur. The first delivery after Subscribe reflects the locally cached
// session and involves no network wait; a nil identity means anonymous.
type IdentityFeed interface {
	Subscribe(fn func(id *Identity)) (cancel func())
}

// ManualFeed is an IdentityFeed driven by explicit Announce calls. The
// auth handlers announce sign-ins and sign-outs through it; tests drive
// it directly.
type ManualFeed struct {
	mu        sync.Mutex
	subs      map[int]func(*Identity)
	next      int
	announced bool
	last      *Identity
}

func NewManualFeed() *ManualFeed {
	return &ManualFeed{subs: make(map[int]func(*Identity))}
}

// Subscribe registers fn. If an identity was already announced, fn is
// called immediately with the latest one, satisfying the first-event
// contract for late subscribers.
func (f *ManualFeed) Subscribe(fn func(id *Identity)) func() {
	f.mu.Lock()
	id := f.next
	f.next++
	f.subs[id] = fn
	replay := f.announced
	last := f.last
	f.mu.Unlock()

	if replay {
		fn(last)
	}

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
	}
}

// Announce delivers the identity to every subscriber before returning, so
// announcements observed by one caller are ordered for all.
func (f *ManualFeed) Announce(id *Identity) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.announced = true
	f.last = id
	for _, fn := range f.subs {
		fn(id)
	}
}
