package menu

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dgavriliu/lataverna/api/web"
	"github.com/dgavriliu/lataverna/api/weberr"
	"github.com/dgavriliu/lataverna/validate"
	"github.com/jmoiron/sqlx"
)

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		category := r.URL.Query().Get("category")
		if category != "" && category != "food" && category != "drinks" {
			return weberr.BadRequest(errors.New("unknown category filter"))
		}

		sections, err := FetchSections(ctx, db, category)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, sections, http.StatusOK)
	}
}

func HandlePopular(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		limit := 6
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 || n > 50 {
				return weberr.BadRequest(errors.New("limit must be between 1 and 50"))
			}
			limit = n
		}

		prods, err := FetchPopular(ctx, db, limit)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, prods, http.StatusOK)
	}
}

func HandleListSubcategories(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		subs, err := FetchSubcategories(ctx, db, r.URL.Query().Get("category"))
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, subs, http.StatusOK)
	}
}

func HandleCreate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var pn ProductNew
		if err := web.Decode(w, r, &pn); err != nil {
			return weberr.BadRequest(err)
		}

		if err := validate.Check(pn); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		if pn.Price.IsNegative() {
			err := errors.New("price must not be negative")
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		now := time.Now().UTC()
		p := Product{
			SubcategoryID: pn.SubcategoryID,
			Name:          pn.Name,
			Description:   pn.Description,
			Price:         pn.Price,
			ImageURL:      pn.ImageURL,
			Active:        true,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		p, err := Create(ctx, db, p)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, p, http.StatusCreated)
	}
}

func HandleUpdate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id, err := strconv.ParseInt(web.Param(r, "id"), 10, 64)
		if err != nil {
			return weberr.BadRequest(errors.New("invalid product id"))
		}

		var up ProductUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(err)
		}

		p, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		if up.SubcategoryID != nil {
			p.SubcategoryID = *up.SubcategoryID
		}
		if up.Name != nil {
			p.Name = *up.Name
		}
		if up.Description != nil {
			p.Description = *up.Description
		}
		if up.Price != nil {
			if up.Price.IsNegative() {
				err := errors.New("price must not be negative")
				return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
			}
			p.Price = *up.Price
		}
		if up.ImageURL != nil {
			p.ImageURL = *up.ImageURL
		}
		if up.Active != nil {
			p.Active = *up.Active
		}
		p.UpdatedAt = time.Now().UTC()

		if err := Update(ctx, db, p); err != nil {
			return err
		}

		return web.Respond(ctx, w, p, http.StatusOK)
	}
}

func HandleDelete(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id, err := strconv.ParseInt(web.Param(r, "id"), 10, 64)
		if err != nil {
			return weberr.BadRequest(errors.New("invalid product id"))
		}

		if err := Delete(ctx, db, id); err != nil {
			// Products already ordered keep their rows for history.
			return weberr.NewError(err, "product is referenced by orders; deactivate it instead", http.StatusConflict)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
