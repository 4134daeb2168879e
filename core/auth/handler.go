package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/dgavriliu/lataverna/api/web"
	"github.com/dgavriliu/lataverna/api/weberr"
	"github.com/dgavriliu/lataverna/core/cart"
	"github.com/dgavriliu/lataverna/core/claims"
	"github.com/dgavriliu/lataverna/core/user"
	"github.com/dgavriliu/lataverna/validate"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

type credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// signIn binds the session to the user and tells the cart registry the
// scope changed. Renewing the token keeps the session data, including
// the cart scope key.
func signIn(ctx context.Context, session *scs.SessionManager, carts *cart.Registry, u user.User) error {
	scope := CartScope(ctx, session)

	if err := session.RenewToken(ctx); err != nil {
		return weberr.InternalError(err)
	}

	session.Put(ctx, userIDKey, u.ID)
	session.Put(ctx, userEmailKey, u.Email)
	session.Put(ctx, roleKey, u.Role)

	carts.Announce(scope, &cart.Identity{UserID: u.ID, Email: u.Email})
	return nil
}

func HandleSignup(db *sqlx.DB, session *scs.SessionManager, carts *cart.Registry) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var un user.UserNew
		if err := web.Decode(w, r, &un); err != nil {
			return weberr.BadRequest(err)
		}

		if err := validate.Check(un); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(un.Password), bcrypt.DefaultCost)
		if err != nil {
			return weberr.InternalError(err)
		}

		now := time.Now().UTC()
		u := user.User{
			ID:           validate.GenerateID(),
			Email:        un.Email,
			PasswordHash: hash,
			Role:         claims.RoleUser,
			Name:         un.Name,
			Phone:        un.Phone,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := user.Create(ctx, db, u); err != nil {
			return weberr.NewError(err, "email already registered", http.StatusConflict)
		}

		if err := signIn(ctx, session, carts, u); err != nil {
			return err
		}

		return web.Respond(ctx, w, u, http.StatusCreated)
	}
}

func HandleLogin(db *sqlx.DB, session *scs.SessionManager, carts *cart.Registry) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var creds credentials
		if err := web.Decode(w, r, &creds); err != nil {
			return weberr.BadRequest(err)
		}

		if err := validate.Check(creds); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		u, err := user.FetchByEmail(ctx, db, creds.Email)
		if err != nil {
			return weberr.NotAuthorized(errors.New("wrong email or password"))
		}

		if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(creds.Password)); err != nil {
			return weberr.NotAuthorized(errors.New("wrong email or password"))
		}

		if err := signIn(ctx, session, carts, u); err != nil {
			return err
		}

		return web.Respond(ctx, w, u, http.StatusOK)
	}
}

func HandleLogout(session *scs.SessionManager, carts *cart.Registry) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		scope := CartScope(ctx, session)

		// Sign-out first so the store discards the signed-in cart and
		// clears the anonymous snapshot before the session dies.
		carts.Announce(scope, nil)

		if err := session.Destroy(ctx); err != nil {
			return weberr.InternalError(err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
