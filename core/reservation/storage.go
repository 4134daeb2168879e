package reservation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("reservation not found")

func Create(ctx context.Context, db sqlx.ExtContext, res Reservation) (Reservation, error) {
	const q = `
	INSERT INTO reservations (code, name, email, phone, res_date, res_time, persons, notes, status, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	RETURNING reservation_id`

	var id int64
	err := db.QueryRowxContext(ctx, q,
		res.Code, res.Name, res.Email, res.Phone, res.Date, res.Time,
		res.Persons, res.Notes, res.Status, res.CreatedAt, res.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return Reservation{}, fmt.Errorf("inserting reservation: %w", err)
	}

	res.ID = id
	return res, nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id int64) (Reservation, error) {
	const q = `SELECT * FROM reservations WHERE reservation_id = $1`

	var res Reservation
	if err := sqlx.GetContext(ctx, db, &res, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Reservation{}, ErrNotFound
		}
		return Reservation{}, fmt.Errorf("fetching reservation[%d]: %w", id, err)
	}
	return res, nil
}

// FetchByIDCode authorizes guest access: the id alone is guessable, the
// emailed code is not.
func FetchByIDCode(ctx context.Context, db sqlx.ExtContext, id int64, code string) (Reservation, error) {
	const q = `SELECT * FROM reservations WHERE reservation_id = $1 AND code = $2`

	var res Reservation
	if err := sqlx.GetContext(ctx, db, &res, q, id, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Reservation{}, ErrNotFound
		}
		return Reservation{}, fmt.Errorf("fetching reservation[%d]: %w", id, err)
	}
	return res, nil
}

func FetchByCode(ctx context.Context, db sqlx.ExtContext, code string) (Reservation, error) {
	const q = `SELECT * FROM reservations WHERE code = $1`

	var res Reservation
	if err := sqlx.GetContext(ctx, db, &res, q, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Reservation{}, ErrNotFound
		}
		return Reservation{}, fmt.Errorf("fetching reservation by code: %w", err)
	}
	return res, nil
}

func FetchPending(ctx context.Context, db sqlx.ExtContext) ([]Reservation, error) {
	const q = `SELECT * FROM reservations WHERE status = 'pending' ORDER BY created_at`

	out := []Reservation{}
	if err := sqlx.SelectContext(ctx, db, &out, q); err != nil {
		return nil, fmt.Errorf("fetching pending reservations: %w", err)
	}
	return out, nil
}

// UpdateSchedule reschedules and resets the reservation to pending for a
// fresh approval round.
func UpdateSchedule(ctx context.Context, db sqlx.ExtContext, id int64, code string, day time.Time, tm string) error {
	const q = `
	UPDATE reservations
	SET res_date = $3, res_time = $4, status = 'pending', table_no = NULL, updated_at = $5
	WHERE reservation_id = $1 AND code = $2`

	res, err := db.ExecContext(ctx, q, id, code, day, tm, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("rescheduling reservation[%d]: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func UpdateStatus(ctx context.Context, db sqlx.ExtContext, id int64, status Status) error {
	const q = `UPDATE reservations SET status = $2, updated_at = $3 WHERE reservation_id = $1`

	res, err := db.ExecContext(ctx, q, id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("updating status of reservation[%d]: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func Cancel(ctx context.Context, db sqlx.ExtContext, id int64, code string) error {
	const q = `
	UPDATE reservations SET status = 'cancelled', updated_at = $3
	WHERE reservation_id = $1 AND code = $2`

	res, err := db.ExecContext(ctx, q, id, code, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("cancelling reservation[%d]: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Accept assigns the table and returns the updated row for the
// confirmation email.
func Accept(ctx context.Context, db sqlx.ExtContext, id int64, table int) (Reservation, error) {
	const q = `
	UPDATE reservations SET status = 'accepted', table_no = $2, updated_at = $3
	WHERE reservation_id = $1
	RETURNING *`

	var res Reservation
	if err := sqlx.GetContext(ctx, db, &res, q, id, table, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Reservation{}, ErrNotFound
		}
		return Reservation{}, fmt.Errorf("accepting reservation[%d]: %w", id, err)
	}
	return res, nil
}
