package user

import (
	"context"
	"net/http"
	"time"

	"github.com/dgavriliu/lataverna/api/web"
	"github.com/dgavriliu/lataverna/api/weberr"
	"github.com/dgavriliu/lataverna/core/claims"
	"github.com/dgavriliu/lataverna/validate"
	"github.com/jmoiron/sqlx"
)

func HandleShowCurrent(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(err)
		}

		u, err := Fetch(ctx, db, clm.UserID)
		if err != nil {
			return weberr.NotFound(err)
		}

		return web.Respond(ctx, w, u, http.StatusOK)
	}
}

func HandleUpdateCurrent(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(err)
		}

		var up ProfileUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(err)
		}

		if err := validate.Check(up); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		u, err := Fetch(ctx, db, clm.UserID)
		if err != nil {
			return weberr.NotFound(err)
		}

		if up.Name != nil {
			u.Name = *up.Name
		}
		if up.Phone != nil {
			u.Phone = *up.Phone
		}
		u.UpdatedAt = time.Now().UTC()

		if err := UpdateProfile(ctx, db, u); err != nil {
			return err
		}

		return web.Respond(ctx, w, u, http.StatusOK)
	}
}
