package contact

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dgavriliu/lataverna/api/web"
	"github.com/dgavriliu/lataverna/api/weberr"
	"github.com/dgavriliu/lataverna/validate"
	"github.com/jmoiron/sqlx"
)

func create(ctx context.Context, db sqlx.ExtContext, m Message) (Message, error) {
	const q = `
	INSERT INTO contact_messages (name, email, message, created_at)
	VALUES ($1, $2, $3, $4)
	RETURNING message_id`

	var id int64
	err := db.QueryRowxContext(ctx, q, m.Name, m.Email, m.Message, m.CreatedAt).Scan(&id)
	if err != nil {
		return Message{}, fmt.Errorf("inserting contact message: %w", err)
	}

	m.ID = id
	return m, nil
}

func fetchAll(ctx context.Context, db sqlx.ExtContext) ([]Message, error) {
	const q = `SELECT * FROM contact_messages ORDER BY created_at DESC`

	out := []Message{}
	if err := sqlx.SelectContext(ctx, db, &out, q); err != nil {
		return nil, fmt.Errorf("fetching contact messages: %w", err)
	}
	return out, nil
}

func HandleCreate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var mn MessageNew
		if err := web.Decode(w, r, &mn); err != nil {
			return weberr.BadRequest(err)
		}

		if err := validate.Check(mn); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		m := Message{
			Name:      mn.Name,
			Email:     mn.Email,
			Message:   mn.Message,
			CreatedAt: time.Now().UTC(),
		}

		m, err := create(ctx, db, m)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, m, http.StatusCreated)
	}
}

func HandleAdminList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		out, err := fetchAll(ctx, db)
		if err != nil {
			return err
		}
		return web.Respond(ctx, w, out, http.StatusOK)
	}
}
