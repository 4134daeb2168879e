package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	Pending   Status = "pending"
	Confirmed Status = "confirmed"
	Preparing Status = "preparing"
	Ready     Status = "ready"
	Completed Status = "completed"
	Cancelled Status = "cancelled"
)

func ValidStatus(s Status) bool {
	switch s {
	case Pending, Confirmed, Preparing, Ready, Completed, Cancelled:
		return true
	}
	return false
}

type Order struct {
	ID            int64           `json:"id" db:"order_id"`
	Code          string          `json:"code" db:"code"`
	UserID        *string         `json:"userId" db:"user_id"`
	CustomerName  string          `json:"customerName" db:"customer_name"`
	CustomerEmail string          `json:"customerEmail" db:"customer_email"`
	CustomerPhone string          `json:"customerPhone" db:"customer_phone"`
	PickupTime    string          `json:"pickupTime" db:"pickup_time"`
	Status        Status          `json:"status" db:"status"`
	Total         decimal.Decimal `json:"total" db:"total"`
	Note          string          `json:"note" db:"note"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time       `json:"updatedAt" db:"updated_at"`
}

type Item struct {
	OrderID   int64           `json:"orderId" db:"order_id"`
	ProductID int64           `json:"productId" db:"product_id"`
	Quantity  int             `json:"quantity" db:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice" db:"unit_price"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
}

// ItemView joins the product's display fields onto an item.
type ItemView struct {
	Item
	Name     string `json:"name" db:"name"`
	ImageURL string `json:"imageUrl" db:"image_url"`
}

type OrderView struct {
	Order
	Items []ItemView `json:"items"`
}

type OrderNew struct {
	CustomerName  string `json:"customerName" validate:"required"`
	CustomerEmail string `json:"customerEmail" validate:"required,email"`
	CustomerPhone string `json:"customerPhone" validate:"required"`
	PickupTime    string `json:"pickupTime" validate:"required"`
	Note          string `json:"note"`
}

type StatusUp struct {
	Status Status `json:"status" validate:"required"`
}

type Stats struct {
	Total     int `json:"total" db:"total"`
	Pending   int `json:"pending" db:"pending"`
	Confirmed int `json:"confirmed" db:"confirmed"`
	Preparing int `json:"preparing" db:"preparing"`
	Ready     int `json:"ready" db:"ready"`
	Completed int `json:"completed" db:"completed"`
	Cancelled int `json:"cancelled" db:"cancelled"`
}
