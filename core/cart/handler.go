package cart

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/alexedwards/scs/v2"
	"github.com/dgavriliu/lataverna/api/web"
	"github.com/dgavriliu/lataverna/api/weberr"
	"github.com/dgavriliu/lataverna/core/menu"
	"github.com/jmoiron/sqlx"
)

// Scoper resolves the request's cart scope and cached identity from the
// session. The auth package provides the production implementation.
type Scoper interface {
	Scope(ctx context.Context) (key string, id *Identity)
}

// SessionScoper adapts two session-reading funcs into a Scoper.
type SessionScoper struct {
	Session  *scs.SessionManager
	ScopeFn  func(ctx context.Context, s *scs.SessionManager) string
	Identity func(ctx context.Context, s *scs.SessionManager) *Identity
}

func (s SessionScoper) Scope(ctx context.Context) (string, *Identity) {
	return s.ScopeFn(ctx, s.Session), s.Identity(ctx, s.Session)
}

func storeFor(ctx context.Context, carts *Registry, scoper Scoper) *Store {
	key, id := scoper.Scope(ctx)
	return carts.Acquire(key, id)
}

func respondErr(err error) error {
	switch {
	case errors.Is(err, ErrNotReady):
		return weberr.NewError(err, "session still resolving, retry", http.StatusServiceUnavailable)
	case errors.Is(err, ErrClosed):
		return weberr.NewError(err, "session expired", http.StatusGone)
	}
	return err
}

func HandleShow(carts *Registry, scoper Scoper) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		c, err := storeFor(ctx, carts, scoper).Snapshot()
		if err != nil {
			return respondErr(err)
		}
		return web.Respond(ctx, w, c, http.StatusOK)
	}
}

func HandleAddItem(db *sqlx.DB, carts *Registry, scoper Scoper) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in struct {
			ProductID int64 `json:"productId"`
		}
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(err)
		}

		p, err := menu.Fetch(ctx, db, in.ProductID)
		if err != nil {
			if errors.Is(err, menu.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}
		if !p.Active {
			err := errors.New("product is not available")
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		store := storeFor(ctx, carts, scoper)
		if err := store.AddItem(ctx, Product{
			ID:        p.ID,
			Name:      p.Name,
			UnitPrice: p.Price,
			ImageURL:  p.ImageURL,
		}); err != nil {
			return respondErr(err)
		}

		c, err := store.Snapshot()
		if err != nil {
			return respondErr(err)
		}
		return web.Respond(ctx, w, c, http.StatusOK)
	}
}

func HandleSetQuantity(carts *Registry, scoper Scoper) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id, err := strconv.ParseInt(web.Param(r, "product_id"), 10, 64)
		if err != nil {
			return weberr.BadRequest(errors.New("invalid product id"))
		}

		var in struct {
			Quantity int `json:"quantity"`
		}
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(err)
		}

		store := storeFor(ctx, carts, scoper)
		if err := store.SetQuantity(ctx, id, in.Quantity); err != nil {
			return respondErr(err)
		}

		c, err := store.Snapshot()
		if err != nil {
			return respondErr(err)
		}
		return web.Respond(ctx, w, c, http.StatusOK)
	}
}

func HandleRemoveItem(carts *Registry, scoper Scoper) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id, err := strconv.ParseInt(web.Param(r, "product_id"), 10, 64)
		if err != nil {
			return weberr.BadRequest(errors.New("invalid product id"))
		}

		store := storeFor(ctx, carts, scoper)
		if err := store.RemoveItem(ctx, id); err != nil {
			return respondErr(err)
		}

		c, err := store.Snapshot()
		if err != nil {
			return respondErr(err)
		}
		return web.Respond(ctx, w, c, http.StatusOK)
	}
}

func HandleClear(carts *Registry, scoper Scoper) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if err := storeFor(ctx, carts, scoper).Clear(ctx); err != nil {
			return respondErr(err)
		}
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
