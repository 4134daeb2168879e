package feedback

import "time"

// Feedback is a message about the restaurant as a whole, shown only in
// the back office.
type Feedback struct {
	ID        int64     `json:"id" db:"feedback_id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Rating    int       `json:"rating" db:"rating"`
	Message   string    `json:"message" db:"message"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type FeedbackNew struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Message string `json:"message" validate:"required"`
}

// Review kinds mirror the code prefixes guests receive by email.
const (
	KindOrder       = "CMD"
	KindReservation = "REZ"
	KindDirect      = "DIRECT"
)

// Review is one guest rating. Reviews submitted under an order or
// reservation code count as confirmed immediately; direct reviews need
// the emailed confirmation link first.
type Review struct {
	ID             int64     `json:"id" db:"review_id"`
	Kind           string    `json:"kind" db:"kind"`
	RefCode        string    `json:"-" db:"ref_code"`
	ProductID      *int64    `json:"productId" db:"product_id"`
	Rating         int       `json:"rating" db:"rating"`
	Comment        string    `json:"comment" db:"comment"`
	CustomerName   string    `json:"customerName" db:"customer_name"`
	Email          string    `json:"-" db:"email"`
	EmailConfirmed bool      `json:"emailConfirmed" db:"email_confirmed"`
	ConfirmToken   *string   `json:"-" db:"confirm_token"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}

type VerifyIn struct {
	Kind  string `json:"kind" validate:"required,oneof=CMD REZ"`
	Code  string `json:"code" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

// ReviewableProduct is one product of a verified order the guest may
// rate.
type ReviewableProduct struct {
	ProductID int64  `json:"productId" db:"product_id"`
	Name      string `json:"name" db:"name"`
}

type VerifyOut struct {
	Valid    bool                `json:"valid"`
	Message  string              `json:"message"`
	Products []ReviewableProduct `json:"products,omitempty"`
}

type ReviewEntry struct {
	ProductID *int64 `json:"productId"`
	Rating    int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment   string `json:"comment"`
}

type ReviewsNew struct {
	Kind    string        `json:"kind" validate:"required,oneof=CMD REZ"`
	Code    string        `json:"code" validate:"required"`
	Name    string        `json:"name" validate:"required"`
	Email   string        `json:"email" validate:"required,email"`
	Entries []ReviewEntry `json:"entries" validate:"required,min=1,dive"`
}

// DirectReviewNew is a review left from the menu page without a code.
type DirectReviewNew struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment"`
}

// ProductStats feeds the back-office dashboard.
type ProductStats struct {
	ProductID    int64   `json:"productId" db:"product_id"`
	Name         string  `json:"name" db:"name"`
	AvgRating    float64 `json:"avgRating" db:"avg_rating"`
	ReviewCount  int     `json:"reviewCount" db:"review_count"`
	TimesOrdered int     `json:"timesOrdered" db:"times_ordered"`
}
