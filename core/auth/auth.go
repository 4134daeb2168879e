package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/dgavriliu/lataverna/api/web"
	"github.com/dgavriliu/lataverna/api/weberr"
	"github.com/dgavriliu/lataverna/core/cart"
	"github.com/dgavriliu/lataverna/core/claims"
	"github.com/dgavriliu/lataverna/validate"
)

// Session keys. The cart scope key survives token renewal, so a browser
// keeps its cart identity across login and logout.
const (
	userIDKey    = "user_id"
	userEmailKey = "user_email"
	roleKey      = "role"
	cartScopeKey = "cart_scope"
)

// LoadAndSave adapts the scs middleware to the web.Handler signature.
func LoadAndSave(session *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			var err error

			sh := session.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				err = handler(r.Context(), w, r)
			}))
			sh.ServeHTTP(w, r)

			return err
		}
		return h
	}
	return m
}

// Authenticate rejects requests without a signed-in session and loads
// the session's claims into the context.
func Authenticate(session *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			userID := session.GetString(ctx, userIDKey)
			if userID == "" {
				return weberr.NotAuthorized(errors.New("user not authenticated"))
			}

			clm := claims.Claims{
				UserID: userID,
				Role:   session.GetString(ctx, roleKey),
			}

			return handler(claims.Set(ctx, clm), w, r)
		}
		return h
	}
	return m
}

// Admin allows only sessions carrying the admin role.
func Admin(session *scs.SessionManager) web.Middleware {
	authen := Authenticate(session)

	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			if !claims.IsAdmin(ctx) {
				return weberr.NotAuthorized(errors.New("user is not an admin"))
			}
			return handler(ctx, w, r)
		}
		return authen(h)
	}
	return m
}

// CartScope returns the session's stable cart scope key, minting one on
// first use.
func CartScope(ctx context.Context, session *scs.SessionManager) string {
	scope := session.GetString(ctx, cartScopeKey)
	if scope == "" {
		scope = validate.GenerateID()
		session.Put(ctx, cartScopeKey, scope)
	}
	return scope
}

// SessionIdentity reports who the session belongs to, or nil while
// anonymous. This is the locally cached state a new cart store is
// seeded with.
func SessionIdentity(ctx context.Context, session *scs.SessionManager) *cart.Identity {
	userID := session.GetString(ctx, userIDKey)
	if userID == "" {
		return nil
	}
	return &cart.Identity{
		UserID: userID,
		Email:  session.GetString(ctx, userEmailKey),
	}
}
