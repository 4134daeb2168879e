package cart

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	burger = Product{ID: 1, Name: "Classic Burger", UnitPrice: decimal.RequireFromString("25.50")}
	fries  = Product{ID: 3, Name: "Fries", UnitPrice: decimal.RequireFromString("10.00")}
)

func line(p Product, qty int) Line {
	return Line{ProductID: p.ID, Name: p.Name, UnitPrice: p.UnitPrice, Quantity: qty}
}

func newTestStore(t *testing.T, durable, volatile Persister, feed IdentityFeed) *Store {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	s := NewStore(StoreConfig{
		Log:        log,
		Durable:    durable,
		Volatile:   volatile,
		SessionKey: "sess-1",
		Feed:       feed,
	})
	t.Cleanup(s.Close)
	return s
}

func snapshotOK(t *testing.T, s *Store) Cart {
	t.Helper()

	c, err := s.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	return c
}

func TestStoreNotReadyUntilFirstEvent(t *testing.T) {
	feed := NewManualFeed()
	s := newTestStore(t, NewMemoryPersister(), NewMemoryPersister(), feed)

	if !s.Resolving() {
		t.Fatal("expected the store to be resolving before the first event")
	}
	if err := s.AddItem(context.Background(), burger); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	if _, err := s.Snapshot(); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}

	feed.Announce(nil)

	if s.Resolving() {
		t.Fatal("expected the store to be resolved")
	}
	if err := s.AddItem(context.Background(), burger); err != nil {
		t.Fatalf("adding after resolve: %v", err)
	}
}

func TestAddIncrementsExistingLine(t *testing.T) {
	feed := NewManualFeed()
	feed.Announce(nil)
	s := newTestStore(t, NewMemoryPersister(), NewMemoryPersister(), feed)

	ctx := context.Background()
	for _, p := range []Product{burger, burger, fries} {
		if err := s.AddItem(ctx, p); err != nil {
			t.Fatalf("adding %s: %v", p.Name, err)
		}
	}

	c := snapshotOK(t, s)
	want := []Line{line(burger, 2), line(fries, 1)}
	if diff := cmp.Diff(want, c.Lines); diff != "" {
		t.Fatalf("unexpected lines (-want +got):\n%s", diff)
	}
	if c.TotalItems != 3 {
		t.Fatalf("expected 3 total items, got %d", c.TotalItems)
	}
	if !c.TotalPrice.Equal(decimal.RequireFromString("61.00")) {
		t.Fatalf("expected total 61.00, got %s", c.TotalPrice)
	}
}

func TestSetQuantity(t *testing.T) {
	feed := NewManualFeed()
	feed.Announce(nil)
	s := newTestStore(t, NewMemoryPersister(), NewMemoryPersister(), feed)

	ctx := context.Background()
	if err := s.AddItem(ctx, burger); err != nil {
		t.Fatal(err)
	}

	if err := s.SetQuantity(ctx, burger.ID, 4); err != nil {
		t.Fatal(err)
	}
	if c := snapshotOK(t, s); c.TotalItems != 4 {
		t.Fatalf("expected quantity 4, got %d", c.TotalItems)
	}

	// Unknown product ids are ignored.
	if err := s.SetQuantity(ctx, 999, 7); err != nil {
		t.Fatal(err)
	}
	if c := snapshotOK(t, s); len(c.Lines) != 1 {
		t.Fatalf("expected the burger line only, got %+v", c.Lines)
	}

	// Zero and below remove the line.
	if err := s.SetQuantity(ctx, burger.ID, 0); err != nil {
		t.Fatal(err)
	}
	if c := snapshotOK(t, s); len(c.Lines) != 0 {
		t.Fatalf("expected an empty cart, got %+v", c.Lines)
	}

	if err := s.AddItem(ctx, burger); err != nil {
		t.Fatal(err)
	}
	if err := s.SetQuantity(ctx, burger.ID, -1); err != nil {
		t.Fatal(err)
	}
	if c := snapshotOK(t, s); len(c.Lines) != 0 {
		t.Fatalf("expected an empty cart, got %+v", c.Lines)
	}
}

func TestSignInSwapsToSavedCart(t *testing.T) {
	durable := NewMemoryPersister()
	volatile := NewMemoryPersister()
	ctx := context.Background()

	saved := []Line{line(fries, 1)}
	if err := durable.Save(ctx, "cart:alice", saved); err != nil {
		t.Fatal(err)
	}

	feed := NewManualFeed()
	feed.Announce(nil)
	s := newTestStore(t, durable, volatile, feed)

	if err := s.AddItem(ctx, burger); err != nil {
		t.Fatal(err)
	}
	if err := s.AddItem(ctx, burger); err != nil {
		t.Fatal(err)
	}

	feed.Announce(&Identity{UserID: "alice", Email: "alice@test.local"})

	// The saved cart replaces the anonymous one, never merged.
	c := snapshotOK(t, s)
	if diff := cmp.Diff(saved, c.Lines); diff != "" {
		t.Fatalf("unexpected lines after sign-in (-want +got):\n%s", diff)
	}

	// The anonymous snapshot is gone.
	if ls, err := volatile.Load(ctx, "sess-1"); err != nil || len(ls) != 0 {
		t.Fatalf("expected the anonymous snapshot erased, got %v, %v", ls, err)
	}

	// Mutations land on the durable scope now.
	if err := s.AddItem(ctx, burger); err != nil {
		t.Fatal(err)
	}
	ls, err := durable.Load(ctx, "cart:alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(ls) != 2 {
		t.Fatalf("expected 2 saved lines, got %+v", ls)
	}
}

func TestSignOutClearsCart(t *testing.T) {
	durable := NewMemoryPersister()
	ctx := context.Background()

	feed := NewManualFeed()
	feed.Announce(&Identity{UserID: "alice"})
	s := newTestStore(t, durable, NewMemoryPersister(), feed)

	if err := s.AddItem(ctx, burger); err != nil {
		t.Fatal(err)
	}

	feed.Announce(nil)

	if c := snapshotOK(t, s); len(c.Lines) != 0 {
		t.Fatalf("expected an empty cart after sign-out, got %+v", c.Lines)
	}
	if s.CurrentUser() != nil {
		t.Fatal("expected an anonymous store after sign-out")
	}

	// The saved cart stays for the next sign-in.
	ls, err := durable.Load(ctx, "cart:alice")
	if err != nil || len(ls) != 1 {
		t.Fatalf("expected the saved cart to survive sign-out, got %v, %v", ls, err)
	}

	feed.Announce(&Identity{UserID: "alice"})
	if c := snapshotOK(t, s); len(c.Lines) != 1 {
		t.Fatalf("expected the saved cart back, got %+v", c.Lines)
	}
}

func TestSameUserRefreshKeepsCart(t *testing.T) {
	feed := NewManualFeed()
	feed.Announce(&Identity{UserID: "alice"})
	s := newTestStore(t, NewMemoryPersister(), NewMemoryPersister(), feed)

	if err := s.AddItem(context.Background(), burger); err != nil {
		t.Fatal(err)
	}

	// A token refresh announces the same user again.
	feed.Announce(&Identity{UserID: "alice"})

	if c := snapshotOK(t, s); c.TotalItems != 1 {
		t.Fatalf("expected the cart untouched by a refresh, got %+v", c.Lines)
	}
}

func TestUserSwitchNeverMerges(t *testing.T) {
	durable := NewMemoryPersister()
	ctx := context.Background()

	feed := NewManualFeed()
	feed.Announce(&Identity{UserID: "alice"})
	s := newTestStore(t, durable, NewMemoryPersister(), feed)

	if err := s.AddItem(ctx, burger); err != nil {
		t.Fatal(err)
	}

	feed.Announce(&Identity{UserID: "bob"})

	if c := snapshotOK(t, s); len(c.Lines) != 0 {
		t.Fatalf("expected bob's empty cart, got %+v", c.Lines)
	}

	if err := s.AddItem(ctx, fries); err != nil {
		t.Fatal(err)
	}

	// Alice's cart is untouched by bob's session.
	ls, err := durable.Load(ctx, "cart:alice")
	if err != nil {
		t.Fatal(err)
	}
	want := []Line{line(burger, 1)}
	if diff := cmp.Diff(want, ls); diff != "" {
		t.Fatalf("alice's saved cart changed (-want +got):\n%s", diff)
	}
}

type failingPersister struct{}

func (failingPersister) Save(ctx context.Context, key string, ls []Line) error {
	return errors.New("disk on fire")
}

func (failingPersister) Load(ctx context.Context, key string) ([]Line, error) {
	return nil, errors.New("disk on fire")
}

func (failingPersister) Delete(ctx context.Context, key string) error {
	return errors.New("disk on fire")
}

func TestUnreadableSnapshotStartsEmpty(t *testing.T) {
	feed := NewManualFeed()
	s := newTestStore(t, NewMemoryPersister(), failingPersister{}, feed)

	feed.Announce(nil)

	c := snapshotOK(t, s)
	if len(c.Lines) != 0 {
		t.Fatalf("expected an empty cart, got %+v", c.Lines)
	}

	// Persistence failures never surface to mutations either.
	if err := s.AddItem(context.Background(), burger); err != nil {
		t.Fatalf("adding with broken persistence: %v", err)
	}
	if c := snapshotOK(t, s); c.TotalItems != 1 {
		t.Fatalf("expected the in-memory cart authoritative, got %+v", c.Lines)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	volatile := NewMemoryPersister()
	ctx := context.Background()

	feed := NewManualFeed()
	feed.Announce(nil)
	s := newTestStore(t, NewMemoryPersister(), volatile, feed)

	if err := s.AddItem(ctx, burger); err != nil {
		t.Fatal(err)
	}
	if err := s.AddItem(ctx, fries); err != nil {
		t.Fatal(err)
	}
	want := snapshotOK(t, s).Lines
	s.Close()

	// A new store over the same session key picks the snapshot up.
	feed2 := NewManualFeed()
	feed2.Announce(nil)
	s2 := newTestStore(t, NewMemoryPersister(), volatile, feed2)

	if diff := cmp.Diff(want, snapshotOK(t, s2).Lines); diff != "" {
		t.Fatalf("snapshot did not round-trip (-want +got):\n%s", diff)
	}
}

func TestClosedStore(t *testing.T) {
	feed := NewManualFeed()
	feed.Announce(nil)
	s := newTestStore(t, NewMemoryPersister(), NewMemoryPersister(), feed)

	s.Close()
	s.Close() // idempotent

	if err := s.AddItem(context.Background(), burger); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if _, err := s.Snapshot(); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
