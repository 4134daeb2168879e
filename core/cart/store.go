package cart

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	// ErrNotReady is returned while the initial session check has not
	// resolved yet. Callers should retry once the feed has emitted.
	ErrNotReady = errors.New("cart: session not resolved yet")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("cart: store is closed")
)

// Identity is the signed-in user a cart can be scoped to.
type Identity struct {
	UserID string
	Email  string
}

// StoreConfig carries the collaborators of a Store.
type StoreConfig struct {
	Log logrus.FieldLogger

	// Durable backs carts of signed-in users, keyed "cart:<userID>".
	Durable Persister

	// Volatile backs the anonymous cart under SessionKey. Its contents
	// are meant to die with the session.
	Volatile Persister

	SessionKey string

	// Feed delivers identity changes. The first emission reflects the
	// locally cached session; until it arrives every operation reports
	// ErrNotReady.
	Feed IdentityFeed
}

// Store holds the cart of exactly one scope at a time: the signed-in
// user, or the anonymous session. Identity events and mutations are
// serialized through a single queue, so a mutation can never land on the
// wrong scope while a swap is in flight.
//
// On sign-in the user's saved cart replaces the anonymous one; contents
// are never merged. On sign-out the cart is discarded and the anonymous
// snapshot cleared. A user-to-user switch behaves as sign-out, sign-in.
type Store struct {
	log        logrus.FieldLogger
	durable    Persister
	volatile   Persister
	sessionKey string

	mu     sync.Mutex
	closed bool
	cmds   chan func()
	cancel func()

	// Owned by the run loop.
	resolved bool
	user     *Identity
	items    lines
}

func NewStore(cfg StoreConfig) *Store {
	s := &Store{
		log:        cfg.Log,
		durable:    cfg.Durable,
		volatile:   cfg.Volatile,
		sessionKey: cfg.SessionKey,
		cmds:       make(chan func()),
	}

	go s.run()

	if cfg.Feed != nil {
		s.cancel = cfg.Feed.Subscribe(func(id *Identity) {
			// Ignored after Close; the feed may still be draining.
			_ = s.do(func() { s.onIdentity(id) })
		})
	}

	return s
}

func (s *Store) run() {
	for fn := range s.cmds {
		fn()
	}
}

// Close cancels the feed subscription and stops the queue. Pending
// operations complete first.
func (s *Store) Close() {
	if s.cancel != nil {
		s.cancel()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.cmds)
}

// do runs fn on the store's queue and waits for it to complete.
func (s *Store) do(fn func()) error {
	done := make(chan struct{})

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.cmds <- func() {
		fn()
		close(done)
	}
	s.mu.Unlock()

	<-done
	return nil
}

func (s *Store) onIdentity(id *Identity) {
	first := !s.resolved
	s.resolved = true

	switch {
	case first:
		s.user = id
		key, p := s.scope()
		s.items = s.load(p, key)

	case id == nil && s.user == nil:
		// Still anonymous; nothing to do.

	case id != nil && s.user != nil && id.UserID == s.user.UserID:
		// Token refresh for the same user; keep the cart as-is.

	case id == nil:
		// Sign-out: drop the cart, clear the anonymous snapshot, keep
		// the user's saved cart for their next sign-in.
		s.user = nil
		s.items = nil
		s.erase(s.volatile, s.sessionKey)

	default:
		// Sign-in, possibly directly from another user. The anonymous
		// cart is discarded, never merged.
		s.erase(s.volatile, s.sessionKey)
		s.user = id
		s.items = s.load(s.durable, durableKey(id.UserID))
	}
}

func (s *Store) scope() (string, Persister) {
	if s.user != nil {
		return durableKey(s.user.UserID), s.durable
	}
	return s.sessionKey, s.volatile
}

func durableKey(userID string) string {
	return "cart:" + userID
}

// load degrades an unreadable snapshot to an empty cart.
func (s *Store) load(p Persister, key string) lines {
	ls, err := p.Load(context.Background(), key)
	if err != nil {
		s.log.Warnf("cart: unreadable snapshot for %q, starting empty: %v", key, err)
		return nil
	}
	return ls
}

func (s *Store) erase(p Persister, key string) {
	if err := p.Delete(context.Background(), key); err != nil {
		s.log.Warnf("cart: erasing snapshot %q: %v", key, err)
	}
}

// persist rewrites the current scope's snapshot. Best-effort: a failed
// write is logged and the in-memory cart stays authoritative.
func (s *Store) persist(ctx context.Context) {
	key, p := s.scope()
	if err := p.Save(ctx, key, s.items); err != nil {
		s.log.Warnf("cart: persisting snapshot %q: %v", key, err)
	}
}

// AddItem puts one unit of the product in the cart, incrementing the
// existing line if the product is already present.
func (s *Store) AddItem(ctx context.Context, p Product) error {
	var err error
	if doErr := s.do(func() {
		if !s.resolved {
			err = ErrNotReady
			return
		}
		s.items = s.items.add(p)
		s.persist(ctx)
	}); doErr != nil {
		return doErr
	}
	return err
}

// RemoveItem deletes the product's line. Absent ids are a no-op.
func (s *Store) RemoveItem(ctx context.Context, productID int64) error {
	var err error
	if doErr := s.do(func() {
		if !s.resolved {
			err = ErrNotReady
			return
		}
		s.items = s.items.remove(productID)
		s.persist(ctx)
	}); doErr != nil {
		return doErr
	}
	return err
}

// SetQuantity updates an existing line; a quantity of zero or less
// removes it.
func (s *Store) SetQuantity(ctx context.Context, productID int64, quantity int) error {
	var err error
	if doErr := s.do(func() {
		if !s.resolved {
			err = ErrNotReady
			return
		}
		s.items = s.items.setQuantity(productID, quantity)
		s.persist(ctx)
	}); doErr != nil {
		return doErr
	}
	return err
}

// Clear empties the cart and erases its persisted snapshot.
func (s *Store) Clear(ctx context.Context) error {
	var err error
	if doErr := s.do(func() {
		if !s.resolved {
			err = ErrNotReady
			return
		}
		s.items = nil
		key, p := s.scope()
		s.erase(p, key)
	}); doErr != nil {
		return doErr
	}
	return err
}

// Snapshot returns the current lines with totals recomputed.
func (s *Store) Snapshot() (Cart, error) {
	var (
		c   Cart
		err error
	)
	if doErr := s.do(func() {
		if !s.resolved {
			err = ErrNotReady
			return
		}
		c = view(s.items)
	}); doErr != nil {
		return Cart{}, doErr
	}
	return c, err
}

func (s *Store) TotalItems() (int, error) {
	c, err := s.Snapshot()
	return c.TotalItems, err
}

func (s *Store) TotalPrice() (decimal.Decimal, error) {
	c, err := s.Snapshot()
	return c.TotalPrice, err
}

// Resolving reports whether the initial session check is still pending.
func (s *Store) Resolving() bool {
	resolving := true
	_ = s.do(func() { resolving = !s.resolved })
	return resolving
}

// CurrentUser returns the identity the cart is scoped to, or nil while
// anonymous.
func (s *Store) CurrentUser() *Identity {
	var id *Identity
	_ = s.do(func() {
		if s.user != nil {
			cp := *s.user
			id = &cp
		}
	})
	return id
}
