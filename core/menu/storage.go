package menu

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("product not found")

// aggregates joined onto products: confirmed reviews and ordered
// quantities, both optional.
const productViewQuery = `
	SELECT p.*,
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
	) o USING (product_id)`

func FetchSubcategories(ctx context.Context, db sqlx.ExtContext, category string) ([]Subcategory, error) {
	q := `SELECT s.* FROM subcategories s`
	args := []any{}
	if category != "" {
		q += ` JOIN categories c USING (category_id) WHERE c.name = $1`
		args = append(args, category)
	}
	q += ` ORDER BY s.subcategory_id`

	subs := []Subcategory{}
	if err := sqlx.SelectContext(ctx, db, &subs, q, args...); err != nil {
		return nil, fmt.Errorf("fetching subcategories: %w", err)
	}
	return subs, nil
}

// FetchSections returns the active menu grouped by subcategory,
// optionally filtered to one category name.
func FetchSections(ctx context.Context, db sqlx.ExtContext, category string) ([]Section, error) {
	subs, err := FetchSubcategories(ctx, db, category)
	if err != nil {
		return nil, err
	}

	q := productViewQuery + ` WHERE p.active ORDER BY p.product_id`

	prods := []ProductView{}
	if err := sqlx.SelectContext(ctx, db, &prods, q); err != nil {
		return nil, fmt.Errorf("fetching active products: %w", err)
	}

	bySub := make(map[int][]ProductView)
	for _, p := range prods {
		bySub[p.SubcategoryID] = append(bySub[p.SubcategoryID], p)
	}

	sections := make([]Section, 0, len(subs))
	for _, s := range subs {
		products := bySub[s.ID]
		if products == nil {
			products = []ProductView{}
		}
		sections = append(sections, Section{Subcategory: s, Products: products})
	}
	return sections, nil
}

// FetchPopular returns the most ordered active products.
func FetchPopular(ctx context.Context, db sqlx.ExtContext, limit int) ([]ProductView, error) {
	q := productViewQuery + `
	WHERE p.active
	ORDER BY times_ordered DESC, p.product_id
	LIMIT $1`

	prods := []ProductView{}
	if err := sqlx.SelectContext(ctx, db, &prods, q, limit); err != nil {
		return nil, fmt.Errorf("fetching popular products: %w", err)
	}
	return prods, nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id int64) (Product, error) {
	const q = `SELECT * FROM products WHERE product_id = $1`

	var p Product
	if err := sqlx.GetContext(ctx, db, &p, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("fetching product[%d]: %w", id, err)
	}
	return p, nil
}

func Create(ctx context.Context, db sqlx.ExtContext, p Product) (Product, error) {
	const q = `
	INSERT INTO products (subcategory_id, name, description, price, image_url, active, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING product_id`

	var id int64
	err := db.QueryRowxContext(ctx, q,
		p.SubcategoryID, p.Name, p.Description, p.Price, p.ImageURL, p.Active, p.CreatedAt, p.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return Product{}, fmt.Errorf("inserting product: %w", err)
	}

	p.ID = id
	return p, nil
}

func Update(ctx context.Context, db sqlx.ExtContext, p Product) error {
	const q = `
	UPDATE products
	SET subcategory_id = :subcategory_id,
	    name = :name,
	    description = :description,
	    price = :price,
	    image_url = :image_url,
	    active = :active,
	    updated_at = :updated_at,
	    version = version + 1
	WHERE product_id = :product_id`

	if _, err := sqlx.NamedExecContext(ctx, db, q, p); err != nil {
		return fmt.Errorf("updating product[%d]: %w", p.ID, err)
	}
	return nil
}

func Delete(ctx context.Context, db sqlx.ExtContext, id int64) error {
	const q = `DELETE FROM products WHERE product_id = $1`

	if _, err := db.ExecContext(ctx, q, id); err != nil {
		return fmt.Errorf("deleting product[%d]: %w", id, err)
	}
	return nil
}
