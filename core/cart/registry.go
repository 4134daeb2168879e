package cart

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Registry hands out one Store per browser session. Stores for sessions
// that have gone quiet are closed by a janitor sweep.
type Registry struct {
	log     logrus.FieldLogger
	durable Persister
	expiry  time.Duration

	mu      sync.Mutex
	entries map[string]*registryEntry
	stop    chan struct{}
	once    sync.Once
}

type registryEntry struct {
	store      *Store
	feed       *ManualFeed
	lastAccess time.Time
}

func NewRegistry(log logrus.FieldLogger, durable Persister, expiry time.Duration) *Registry {
	r := &Registry{
		log:     log,
		durable: durable,
		expiry:  expiry,
		entries: make(map[string]*registryEntry),
		stop:    make(chan struct{}),
	}
	go r.sweep()
	return r
}

// Acquire returns the session's store, creating it on first touch. For a
// new store, id seeds the feed's first emission: the identity already
// known from the session itself.
func (r *Registry) Acquire(sessionKey string, id *Identity) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[sessionKey]
	if !ok {
		feed := NewManualFeed()
		e = &registryEntry{
			store: NewStore(StoreConfig{
				Log:        r.log,
				Durable:    r.durable,
				Volatile:   NewMemoryPersister(),
				SessionKey: sessionKey,
				Feed:       feed,
			}),
			feed: feed,
		}
		r.entries[sessionKey] = e
		feed.Announce(id)
	}

	e.lastAccess = time.Now()
	return e.store
}

// Announce forwards an identity change to the session's store. The auth
// handlers call this on login and logout.
func (r *Registry) Announce(sessionKey string, id *Identity) {
	r.mu.Lock()
	e, ok := r.entries[sessionKey]
	if ok {
		e.lastAccess = time.Now()
	}
	r.mu.Unlock()

	if !ok {
		r.Acquire(sessionKey, id)
		return
	}
	e.feed.Announce(id)
}

func (r *Registry) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
		}

		var idle []*registryEntry
		r.mu.Lock()
		for key, e := range r.entries {
			if time.Since(e.lastAccess) > r.expiry {
				idle = append(idle, e)
				delete(r.entries, key)
			}
		}
		r.mu.Unlock()

		for _, e := range idle {
			e.store.Close()
		}
	}
}

func (r *Registry) Close() {
	r.once.Do(func() { close(r.stop) })

	r.mu.Lock()
	entries := r.entries
	r.entries = make(map[string]*registryEntry)
	r.mu.Unlock()

	for _, e := range entries {
		e.store.Close()
	}
}
