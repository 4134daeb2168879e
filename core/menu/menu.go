package menu

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID   int    `json:"id" db:"category_id"`
	Name string `json:"name" db:"name"`
}

type Subcategory struct {
	ID         int    `json:"id" db:"subcategory_id"`
	CategoryID int    `json:"categoryId" db:"category_id"`
	Name       string `json:"name" db:"name"`
}

type Product struct {
	ID            int64           `json:"id" db:"product_id"`
	SubcategoryID int             `json:"subcategoryId" db:"subcategory_id"`
	Name          string          `json:"name" db:"name"`
	Description   string          `json:"description" db:"description"`
	Price         decimal.Decimal `json:"price" db:"price"`
	ImageURL      string          `json:"imageUrl" db:"image_url"`
	Active        bool            `json:"active" db:"active"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time       `json:"updatedAt" db:"updated_at"`
	Version       int             `json:"-" db:"version"`
}

// ProductView is a product enriched with its review and order aggregates
// for the public menu.
type ProductView struct {
	Product
	AvgRating    float64 `json:"avgRating" db:"avg_rating"`
	ReviewCount  int     `json:"reviewCount" db:"review_count"`
	TimesOrdered int     `json:"timesOrdered" db:"times_ordered"`
}

// Section groups a subcategory with its visible products.
type Section struct {
	Subcategory
	Products []ProductView `json:"products"`
}

type ProductNew struct {
	SubcategoryID int             `json:"subcategoryId" validate:"required"`
	Name          string          `json:"name" validate:"required"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	ImageURL      string          `json:"imageUrl"`
}

type ProductUp struct {
	SubcategoryID *int             `json:"subcategoryId"`
	Name          *string          `json:"name"`
	Description   *string          `json:"description"`
	Price         *decimal.Decimal `json:"price"`
	ImageURL      *string          `json:"imageUrl"`
	Active        *bool            `json:"active"`
}
