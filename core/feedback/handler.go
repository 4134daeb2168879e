package feedback

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dgavriliu/lataverna/api/background"
	"github.com/dgavriliu/lataverna/api/web"
	"github.com/dgavriliu/lataverna/api/weberr"
	"github.com/dgavriliu/lataverna/core/menu"
	"github.com/dgavriliu/lataverna/core/order"
	"github.com/dgavriliu/lataverna/core/reservation"
	"github.com/dgavriliu/lataverna/email"
	"github.com/dgavriliu/lataverna/validate"
	"github.com/jmoiron/sqlx"
)

func HandleCreateFeedback(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var fn FeedbackNew
		if err := web.Decode(w, r, &fn); err != nil {
			return weberr.BadRequest(err)
		}

		if err := validate.Check(fn); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		f := Feedback{
			Name:      fn.Name,
			Email:     fn.Email,
			Rating:    fn.Rating,
			Message:   fn.Message,
			CreatedAt: time.Now().UTC(),
		}

		f, err := CreateFeedback(ctx, db, f)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, f, http.StatusCreated)
	}
}

func HandleAdminListFeedback(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		out, err := FetchFeedback(ctx, db)
		if err != nil {
			return err
		}
		return web.Respond(ctx, w, out, http.StatusOK)
	}
}

// verifyCode checks that the code exists, belongs to the given email and
// has not produced reviews yet. For order codes it also returns the
// products the guest may rate.
func verifyCode(ctx context.Context, db *sqlx.DB, in VerifyIn) (VerifyOut, error) {
	if n, err := CountByCode(ctx, db, in.Kind, in.Code); err != nil {
		return VerifyOut{}, err
	} else if n > 0 {
		return VerifyOut{Message: "this code was already used for a review"}, nil
	}

	switch in.Kind {
	case KindOrder:
		ord, err := order.FetchByCode(ctx, db, in.Code)
		if err != nil {
			if errors.Is(err, order.ErrNotFound) {
				return VerifyOut{Message: "unknown order code"}, nil
			}
			return VerifyOut{}, err
		}
		if !strings.EqualFold(ord.CustomerEmail, in.Email) {
			return VerifyOut{Message: "email does not match this order"}, nil
		}

		items, err := order.FetchItems(ctx, db, ord.ID)
		if err != nil {
			return VerifyOut{}, err
		}

		products := make([]ReviewableProduct, 0, len(items))
		for _, it := range items {
			products = append(products, ReviewableProduct{ProductID: it.ProductID, Name: it.Name})
		}
		return VerifyOut{Valid: true, Message: "code verified", Products: products}, nil

	case KindReservation:
		res, err := reservation.FetchByCode(ctx, db, in.Code)
		if err != nil {
			if errors.Is(err, reservation.ErrNotFound) {
				return VerifyOut{Message: "unknown reservation code"}, nil
			}
			return VerifyOut{}, err
		}
		if !strings.EqualFold(res.Email, in.Email) {
			return VerifyOut{Message: "email does not match this reservation"}, nil
		}
		if res.Status != reservation.Accepted {
			return VerifyOut{Message: "only confirmed reservations can be reviewed"}, nil
		}
		return VerifyOut{Valid: true, Message: "code verified"}, nil
	}

	return VerifyOut{Message: "unknown code kind"}, nil
}

func HandleVerify(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in VerifyIn
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(err)
		}

		if err := validate.Check(in); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		out, err := verifyCode(ctx, db, in)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, out, http.StatusOK)
	}
}

// HandleCreateReviews stores the ratings a guest left under a verified
// code. Order codes rate the ordered products; reservation codes leave a
// single overall rating.
func HandleCreateReviews(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var rn ReviewsNew
		if err := web.Decode(w, r, &rn); err != nil {
			return weberr.BadRequest(err)
		}

		if err := validate.Check(rn); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		out, err := verifyCode(ctx, db, VerifyIn{Kind: rn.Kind, Code: rn.Code, Email: rn.Email})
		if err != nil {
			return err
		}
		if !out.Valid {
			return weberr.NewError(errors.New(out.Message), out.Message, http.StatusUnprocessableEntity)
		}

		reviewable := make(map[int64]bool, len(out.Products))
		for _, p := range out.Products {
			reviewable[p.ProductID] = true
		}

		now := time.Now().UTC()
		created := make([]Review, 0, len(rn.Entries))

		for _, e := range rn.Entries {
			switch rn.Kind {
			case KindOrder:
				if e.ProductID == nil || !reviewable[*e.ProductID] {
					err := errors.New("review references a product outside the order")
					return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
				}
			case KindReservation:
				if e.ProductID != nil {
					err := errors.New("reservation reviews rate the visit, not a product")
					return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
				}
			}

			rv := Review{
				Kind:           rn.Kind,
				RefCode:        rn.Code,
				ProductID:      e.ProductID,
				Rating:         e.Rating,
				Comment:        e.Comment,
				CustomerName:   rn.Name,
				Email:          rn.Email,
				EmailConfirmed: true,
				CreatedAt:      now,
			}

			rv, err := CreateReview(ctx, db, rv)
			if err != nil {
				return err
			}
			created = append(created, rv)
		}

		return web.Respond(ctx, w, created, http.StatusCreated)
	}
}

// HandleCreateDirectReview takes a review straight from the menu page.
// It stays hidden until the guest clicks the emailed confirmation link.
func HandleCreateDirectReview(db *sqlx.DB, mailer *email.Mailer, bg *background.Background) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		productID, err := strconv.ParseInt(web.Param(r, "id"), 10, 64)
		if err != nil {
			return weberr.BadRequest(errors.New("invalid product id"))
		}

		var rn DirectReviewNew
		if err := web.Decode(w, r, &rn); err != nil {
			return weberr.BadRequest(err)
		}

		if err := validate.Check(rn); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		if _, err := menu.Fetch(ctx, db, productID); err != nil {
			if errors.Is(err, menu.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		token := validate.GenerateID()
		rv := Review{
			Kind:         KindDirect,
			RefCode:      token,
			ProductID:    &productID,
			Rating:       rn.Rating,
			Comment:      rn.Comment,
			CustomerName: rn.Name,
			Email:        rn.Email,
			ConfirmToken: &token,
			CreatedAt:    time.Now().UTC(),
		}

		rv, err = CreateReview(ctx, db, rv)
		if err != nil {
			return err
		}

		bg.Go(func() error {
			return mailer.ReviewConfirmation(rn.Email, rn.Name, token)
		})

		return web.Respond(ctx, w, rv, http.StatusCreated)
	}
}

func HandleConfirmReview(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		token := r.URL.Query().Get("token")
		if token == "" {
			return weberr.BadRequest(errors.New("missing confirmation token"))
		}

		rv, err := ConfirmByToken(ctx, db, token)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		return web.Respond(ctx, w, rv, http.StatusOK)
	}
}

func HandleListByProduct(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		productID, err := strconv.ParseInt(web.Param(r, "id"), 10, 64)
		if err != nil {
			return weberr.BadRequest(errors.New("invalid product id"))
		}

		out, err := FetchConfirmedByProduct(ctx, db, productID)
		if err != nil {
			return err
		}
		return web.Respond(ctx, w, out, http.StatusOK)
	}
}

func HandleAdminDashboard(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		stats, err := FetchProductStats(ctx, db)
		if err != nil {
			return err
		}
		return web.Respond(ctx, w, stats, http.StatusOK)
	}
}
