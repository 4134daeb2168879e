package cart

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// PostgresPersister stores snapshots in the carts table, one row per
// scope key, the lines as a JSON document. Concurrent writers on the
// same key are not coordinated: last write wins.
type PostgresPersister struct {
	db *sqlx.DB
}

func NewPostgresPersister(db *sqlx.DB) *PostgresPersister {
	return &PostgresPersister{db: db}
}

func (p *PostgresPersister) Save(ctx context.Context, key string, ls []Line) error {
	raw, err := encode(ls)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	const q = `
	INSERT INTO carts (cart_key, lines, updated_at)
	VALUES ($1, $2, $3)
	ON CONFLICT (cart_key) DO UPDATE
	SET lines = EXCLUDED.lines, updated_at = EXCLUDED.updated_at`

	if _, err := p.db.ExecContext(ctx, q, key, raw, time.Now().UTC()); err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

func (p *PostgresPersister) Load(ctx context.Context, key string) ([]Line, error) {
	const q = `SELECT lines FROM carts WHERE cart_key = $1`

	var raw json.RawMessage
	if err := p.db.QueryRowxContext(ctx, q, key).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}

	return decode(raw)
}

func (p *PostgresPersister) Delete(ctx context.Context, key string) error {
	const q = `DELETE FROM carts WHERE cart_key = $1`

	if _, err := p.db.ExecContext(ctx, q, key); err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	return nil
}
