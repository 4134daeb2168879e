package cart

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	r := NewRegistry(log, NewMemoryPersister(), time.Hour)
	t.Cleanup(r.Close)
	return r
}

func TestRegistryOneStorePerSession(t *testing.T) {
	r := newTestRegistry(t)

	s1 := r.Acquire("sess-1", nil)
	s2 := r.Acquire("sess-1", nil)
	if s1 != s2 {
		t.Fatal("expected the same store for the same session")
	}

	if other := r.Acquire("sess-2", nil); other == s1 {
		t.Fatal("expected distinct stores for distinct sessions")
	}
}

func TestRegistrySeedsIdentity(t *testing.T) {
	r := newTestRegistry(t)

	// A session that is already signed in seeds its store resolved.
	s := r.Acquire("sess-1", &Identity{UserID: "alice"})
	if s.Resolving() {
		t.Fatal("expected the store resolved from the seed identity")
	}
	if u := s.CurrentUser(); u == nil || u.UserID != "alice" {
		t.Fatalf("expected alice, got %+v", u)
	}
}

func TestRegistryAnnounceReachesStore(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	s := r.Acquire("sess-1", nil)
	if err := s.AddItem(ctx, burger); err != nil {
		t.Fatal(err)
	}

	r.Announce("sess-1", &Identity{UserID: "alice"})

	// Sign-in switched the scope to alice's empty saved cart.
	c, err := s.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Lines) != 0 {
		t.Fatalf("expected alice's empty cart, got %+v", c.Lines)
	}

	// Announcing an untouched session just creates its store.
	r.Announce("sess-2", &Identity{UserID: "bob"})
	if u := r.Acquire("sess-2", nil).CurrentUser(); u == nil || u.UserID != "bob" {
		t.Fatalf("expected bob, got %+v", u)
	}
}

func TestRegistryCloseStopsStores(t *testing.T) {
	r := newTestRegistry(t)

	s := r.Acquire("sess-1", nil)
	r.Close()

	if _, err := s.Snapshot(); err == nil {
		t.Fatal("expected the store closed with the registry")
	}
}
