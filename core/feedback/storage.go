package feedback

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("review not found")

func CreateFeedback(ctx context.Context, db sqlx.ExtContext, f Feedback) (Feedback, error) {
	const q = `
	INSERT INTO site_feedback (name, email, rating, message, created_at)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING feedback_id`

	var id int64
	err := db.QueryRowxContext(ctx, q, f.Name, f.Email, f.Rating, f.Message, f.CreatedAt).Scan(&id)
	if err != nil {
		return Feedback{}, fmt.Errorf("inserting feedback: %w", err)
	}

	f.ID = id
	return f, nil
}

func FetchFeedback(ctx context.Context, db sqlx.ExtContext) ([]Feedback, error) {
	const q = `SELECT * FROM site_feedback ORDER BY created_at DESC`

	out := []Feedback{}
	if err := sqlx.SelectContext(ctx, db, &out, q); err != nil {
		return nil, fmt.Errorf("fetching feedback: %w", err)
	}
	return out, nil
}

func CreateReview(ctx context.Context, db sqlx.ExtContext, rv Review) (Review, error) {
	const q = `
	INSERT INTO product_reviews (kind, ref_code, product_id, rating, comment,
	                             customer_name, email, email_confirmed, confirm_token, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	RETURNING review_id`

	var id int64
	err := db.QueryRowxContext(ctx, q,
		rv.Kind, rv.RefCode, rv.ProductID, rv.Rating, rv.Comment,
		rv.CustomerName, rv.Email, rv.EmailConfirmed, rv.ConfirmToken, rv.CreatedAt,
	).Scan(&id)
	if err != nil {
		return Review{}, fmt.Errorf("inserting review: %w", err)
	}

	rv.ID = id
	return rv, nil
}

// CountByCode reports how many reviews a code has produced already; a
// code is single-use per product set.
func CountByCode(ctx context.Context, db sqlx.ExtContext, kind, code string) (int, error) {
	const q = `SELECT COUNT(*) FROM product_reviews WHERE kind = $1 AND ref_code = $2`

	var n int
	if err := sqlx.GetContext(ctx, db, &n, q, kind, code); err != nil {
		return 0, fmt.Errorf("counting reviews for code: %w", err)
	}
	return n, nil
}

// ConfirmByToken flips a direct review to confirmed and burns the token.
func ConfirmByToken(ctx context.Context, db sqlx.ExtContext, token string) (Review, error) {
	const q = `
	UPDATE product_reviews
	SET email_confirmed = TRUE, confirm_token = NULL
	WHERE confirm_token = $1
	RETURNING *`

	var rv Review
	if err := sqlx.GetContext(ctx, db, &rv, q, token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Review{}, ErrNotFound
		}
		return Review{}, fmt.Errorf("confirming review: %w", err)
	}
	return rv, nil
}

// FetchConfirmedByProduct lists a product's visible reviews.
func FetchConfirmedByProduct(ctx context.Context, db sqlx.ExtContext, productID int64) ([]Review, error) {
	const q = `
	SELECT * FROM product_reviews
	WHERE product_id = $1 AND email_confirmed
	ORDER BY created_at DESC`

	out := []Review{}
	if err := sqlx.SelectContext(ctx, db, &out, q, productID); err != nil {
		return nil, fmt.Errorf("fetching reviews of product[%d]: %w", productID, err)
	}
	return out, nil
}

// FetchProductStats aggregates confirmed reviews and ordered quantities
// per product for the dashboard.
func FetchProductStats(ctx context.Context, db sqlx.ExtContext) ([]ProductStats, error) {
	const q = `
	SELECT p.product_id, p.name,
	       COALESCE(r.avg_rating, 0)    AS avg_rating,
	       COALESCE(r.review_count, 0)  AS review_count,
	       COALESCE(o.times_ordered, 0) AS times_ordered
	FROM products p
	LEFT JOIN (
		SELECT product_id, AVG(rating) AS avg_rating, COUNT(*) AS review_count
		FROM product_reviews
		WHERE email_confirmed AND product_id IS NOT NULL
		GROUP BY product_id
	) r USING (product_id)
	LEFT JOIN (
		SELECT product_id, SUM(quantity) AS times_ordered
		FROM order_items
		GROUP BY product_id
	) o USING (product_id)
	ORDER BY review_count DESC, p.product_id`

	out := []ProductStats{}
	if err := sqlx.SelectContext(ctx, db, &out, q); err != nil {
		return nil, fmt.Errorf("fetching product stats: %w", err)
	}
	return out, nil
}
