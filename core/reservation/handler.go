package reservation

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dgavriliu/lataverna/api/background"
	"github.com/dgavriliu/lataverna/api/web"
	"github.com/dgavriliu/lataverna/api/weberr"
	"github.com/dgavriliu/lataverna/email"
	"github.com/dgavriliu/lataverna/random"
	"github.com/dgavriliu/lataverna/validate"
	"github.com/dgavriliu/lataverna/ws"
	"github.com/jmoiron/sqlx"
)

func paramID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(web.Param(r, "id"), 10, 64)
	if err != nil {
		return 0, errors.New("invalid reservation id")
	}
	return id, nil
}

// HandleCreate files a pending reservation request and notifies the back
// office over the realtime hub.
func HandleCreate(db *sqlx.DB, hub *ws.Hub) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var rn ReservationNew
		if err := web.Decode(w, r, &rn); err != nil {
			return weberr.BadRequest(err)
		}

		if err := validate.Check(rn); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		day, err := checkSchedule(rn.Date, rn.Time)
		if err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		now := time.Now().UTC()
		res := Reservation{
			Code:      "REZ-" + random.String(6),
			Name:      rn.Name,
			Email:     rn.Email,
			Phone:     rn.Phone,
			Date:      day,
			Time:      rn.Time,
			Persons:   rn.Persons,
			Notes:     rn.Notes,
			Status:    Pending,
			CreatedAt: now,
			UpdatedAt: now,
		}

		res, err = Create(ctx, db, res)
		if err != nil {
			return err
		}

		hub.Broadcast(struct {
			Type        string      `json:"type"`
			Reservation Reservation `json:"reservation"`
		}{"reservation.created", res})

		return web.Respond(ctx, w, res, http.StatusCreated)
	}
}

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id, err := paramID(r)
		if err != nil {
			return weberr.BadRequest(err)
		}

		code := r.URL.Query().Get("code")
		if code == "" {
			return weberr.BadRequest(errors.New("missing reservation code"))
		}

		res, err := FetchByIDCode(ctx, db, id, code)
		if err != nil {
			return weberr.NotFound(err)
		}

		return web.Respond(ctx, w, res, http.StatusOK)
	}
}

// HandleReschedule moves the reservation and sends it back through
// approval; a new confirmation email follows on acceptance.
func HandleReschedule(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id, err := paramID(r)
		if err != nil {
			return weberr.BadRequest(err)
		}

		var up ScheduleUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(err)
		}

		if err := validate.Check(up); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		day, err := checkSchedule(up.Date, up.Time)
		if err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		if err := UpdateSchedule(ctx, db, id, up.Code, day, up.Time); err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		res, err := FetchByIDCode(ctx, db, id, up.Code)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, res, http.StatusOK)
	}
}

func HandleCancel(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id, err := paramID(r)
		if err != nil {
			return weberr.BadRequest(err)
		}

		code := r.URL.Query().Get("code")
		if code == "" {
			return weberr.BadRequest(errors.New("missing reservation code"))
		}

		if err := Cancel(ctx, db, id, code); err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func HandleAdminList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		out, err := FetchPending(ctx, db)
		if err != nil {
			return err
		}
		return web.Respond(ctx, w, out, http.StatusOK)
	}
}

// HandleAccept assigns a table and emails the guest their reservation
// code and manage link.
func HandleAccept(db *sqlx.DB, mailer *email.Mailer, bg *background.Background) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id, err := paramID(r)
		if err != nil {
			return weberr.BadRequest(err)
		}

		var up AcceptUp
		if err := web.Decode(w, r, &up); err != nil {
			return weberr.BadRequest(err)
		}
		if err := validate.Check(up); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		res, err := Accept(ctx, db, id, up.Table)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		table := 0
		if res.TableNo != nil {
			table = *res.TableNo
		}
		bg.Go(func() error {
			return mailer.ReservationAccepted(
				res.Email, res.Name, res.Date.Format("2006-01-02"), res.Time,
				res.Persons, table, res.ID, res.Code,
			)
		})

		return web.Respond(ctx, w, res, http.StatusOK)
	}
}

func HandleReject(db *sqlx.DB, mailer *email.Mailer, bg *background.Background) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id, err := paramID(r)
		if err != nil {
			return weberr.BadRequest(err)
		}

		res, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		if err := UpdateStatus(ctx, db, id, Rejected); err != nil {
			return err
		}

		bg.Go(func() error {
			return mailer.ReservationRejected(res.Email, res.Name, res.Date.Format("2006-01-02"), res.Time)
		})

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
