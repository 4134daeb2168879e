package reservation

import (
	"errors"
	"time"
)

type Status string

const (
	Pending   Status = "pending"
	Accepted  Status = "accepted"
	Rejected  Status = "rejected"
	Cancelled Status = "cancelled"
)

type Reservation struct {
	ID        int64     `json:"id" db:"reservation_id"`
	Code      string    `json:"-" db:"code"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Phone     string    `json:"phone" db:"phone"`
	Date      time.Time `json:"date" db:"res_date"`
	Time      string    `json:"time" db:"res_time"`
	Persons   int       `json:"persons" db:"persons"`
	TableNo   *int      `json:"table" db:"table_no"`
	Notes     string    `json:"notes" db:"notes"`
	Status    Status    `json:"status" db:"status"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

type ReservationNew struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone"`
	Date    string `json:"date" validate:"required"`
	Time    string `json:"time" validate:"required"`
	Persons int    `json:"persons" validate:"required,gte=1,lte=20"`
	Notes   string `json:"notes"`
}

// ScheduleUp reschedules an existing reservation; the code from the
// confirmation email authorizes the change.
type ScheduleUp struct {
	Code string `json:"code" validate:"required"`
	Date string `json:"date" validate:"required"`
	Time string `json:"time" validate:"required"`
}

type AcceptUp struct {
	Table int `json:"table" validate:"required,gte=1"`
}

// Tables are reservable during opening hours, 10:00 to 22:59.
func checkSchedule(rawDate, rawTime string) (time.Time, error) {
	day, err := time.Parse("2006-01-02", rawDate)
	if err != nil {
		return time.Time{}, errors.New("date must look like 2025-03-14")
	}

	t, err := time.Parse("15:04", rawTime)
	if err != nil {
		return time.Time{}, errors.New("time must look like 19:30")
	}
	if t.Hour() < 10 || t.Hour() > 22 {
		return time.Time{}, errors.New("reservations are available between 10:00 and 22:59")
	}

	return day, nil
}
