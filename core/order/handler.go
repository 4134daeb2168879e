package order

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dgavriliu/lataverna/api/background"
	"github.com/dgavriliu/lataverna/api/web"
	"github.com/dgavriliu/lataverna/api/weberr"
	"github.com/dgavriliu/lataverna/core/cart"
	"github.com/dgavriliu/lataverna/core/claims"
	"github.com/dgavriliu/lataverna/database"
	"github.com/dgavriliu/lataverna/email"
	"github.com/dgavriliu/lataverna/random"
	"github.com/dgavriliu/lataverna/validate"
	"github.com/jmoiron/sqlx"
)

// Pickup happens during opening hours, 10:00 to 22:59.
func checkPickupTime(raw string) error {
	t, err := time.Parse("15:04", raw)
	if err != nil {
		return errors.New("pickup time must look like 14:30")
	}
	if t.Hour() < 10 || t.Hour() > 22 {
		return errors.New("pickup is available between 10:00 and 22:59")
	}
	return nil
}

// HandlePlace turns the scope's cart into a pending pickup order, emails
// the confirmation in the background and clears the cart. A failed
// submission leaves the cart untouched so the client can retry.
func HandlePlace(db *sqlx.DB, carts *cart.Registry, scoper cart.Scoper, mailer *email.Mailer, bg *background.Background) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var on OrderNew
		if err := web.Decode(w, r, &on); err != nil {
			return weberr.BadRequest(err)
		}

		if err := validate.Check(on); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}
		if err := checkPickupTime(on.PickupTime); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		key, id := scoper.Scope(ctx)
		store := carts.Acquire(key, id)

		c, err := store.Snapshot()
		if err != nil {
			return fmt.Errorf("reading cart: %w", err)
		}
		if len(c.Lines) == 0 {
			err := errors.New("no items to order")
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		var userID *string
		if id != nil {
			userID = &id.UserID
		}

		now := time.Now().UTC()
		ord := Order{
			Code:          "CMD-" + random.String(6),
			UserID:        userID,
			CustomerName:  on.CustomerName,
			CustomerEmail: on.CustomerEmail,
			CustomerPhone: on.CustomerPhone,
			PickupTime:    on.PickupTime,
			Status:        Pending,
			Total:         c.TotalPrice,
			Note:          on.Note,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		err = database.Transaction(db, func(tx sqlx.ExtContext) error {
			created, err := Create(ctx, tx, ord)
			if err != nil {
				return err
			}
			ord = created

			for _, l := range c.Lines {
				it := Item{
					OrderID:   ord.ID,
					ProductID: l.ProductID,
					Quantity:  l.Quantity,
					UnitPrice: l.UnitPrice,
					CreatedAt: now,
				}
				if err := CreateItem(ctx, tx, it); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("creating order: %w", err)
		}

		emailLines := make([]email.OrderLine, 0, len(c.Lines))
		for _, l := range c.Lines {
			emailLines = append(emailLines, email.OrderLine{
				Name:      l.Name,
				Quantity:  l.Quantity,
				UnitPrice: l.UnitPrice,
			})
		}
		bg.Go(func() error {
			return mailer.OrderConfirmation(ord.CustomerEmail, ord.CustomerName, ord.Code, ord.PickupTime, emailLines, ord.Total)
		})

		if err := store.Clear(ctx); err != nil {
			return fmt.Errorf("clearing cart after order[%s]: %w", ord.Code, err)
		}

		return web.Respond(ctx, w, ord, http.StatusCreated)
	}
}

func HandleListOwn(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(err)
		}

		views, err := FetchByUser(ctx, db, clm.UserID)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, views, http.StatusOK)
	}
}

func HandleAdminList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		status := Status(r.URL.Query().Get("status"))
		if status != "" && !ValidStatus(status) {
			return weberr.BadRequest(errors.New("unknown status filter"))
		}

		views, err := FetchAll(ctx, db, status)
		if err != nil {
			return err
		}

		stats, err := FetchStats(ctx, db)
		if err != nil {
			return err
		}

		out := struct {
			Orders []OrderView `json:"orders"`
			Stats  Stats       `json:"stats"`
		}{views, stats}

		return web.Respond(ctx, w, out, http.StatusOK)
	}
}

func HandleUpdateStatus(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id, err := strconv.ParseInt(web.Param(r, "id"), 10, 64)
		if err != nil {
			return weberr.BadRequest(errors.New("invalid order id"))
		}

		var up StatusUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(err)
		}
		if !ValidStatus(up.Status) {
			err := fmt.Errorf("unknown status %q", up.Status)
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		if err := UpdateStatus(ctx, db, id, up.Status); err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
