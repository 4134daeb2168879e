package test

import (
	"net/http"
	"testing"
	"time"

	"github.com/dgavriliu/lataverna/core/reservation"
)

type reservationTest struct {
	*TestEnv
}

// codeOf digs the confirmation code out of the database; the api only
// ever delivers it by email.
func (rt *reservationTest) codeOf(t *testing.T, id int64) string {
	t.Helper()

	var code string
	if err := rt.DB.QueryRow("SELECT code FROM reservations WHERE reservation_id = $1", id).Scan(&code); err != nil {
		t.Fatalf("reading reservation code: %v", err)
	}
	return code
}

func TestReservation(t *testing.T) {
	env, err := NewTestEnv(t, "reservation_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	rt := &reservationTest{env}

	tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	rn := reservation.ReservationNew{
		Name:    "Carol",
		Email:   "carol@test.local",
		Phone:   "0798765432",
		Date:    tomorrow,
		Time:    "19:30",
		Persons: 4,
	}

	// Outside opening hours.
	bad := rn
	bad.Time = "23:30"
	status, err := env.request(http.MethodPost, "/reservations", bad, nil)
	if err != nil {
		t.Fatal(err)
	}
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("late reservation: expected 422, got %d", status)
	}

	var res reservation.Reservation
	status, err = env.request(http.MethodPost, "/reservations", rn, &res)
	if err != nil {
		t.Fatal(err)
	}
	if status != http.StatusCreated {
		t.Fatalf("creating reservation: expected 201, got %d", status)
	}
	if res.Status != reservation.Pending {
		t.Fatalf("expected a pending reservation, got %s", res.Status)
	}

	code := rt.codeOf(t, res.ID)

	// The code authorizes guest access; a wrong one does not.
	status, err = env.request(http.MethodGet, "/reservations/"+itoa(res.ID)+"?code=REZ-WRONG1", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if status != http.StatusNotFound {
		t.Fatalf("showing with wrong code: expected 404, got %d", status)
	}

	var shown reservation.Reservation
	status, err = env.request(http.MethodGet, "/reservations/"+itoa(res.ID)+"?code="+code, nil, &shown)
	if err != nil {
		t.Fatal(err)
	}
	if status != http.StatusOK || shown.ID != res.ID {
		t.Fatalf("showing reservation: status %d, id %d", status, shown.ID)
	}

	// Accept from the back office; the table gets assigned.
	if err := Login(env, env.AdminEmail, env.AdminPass); err != nil {
		t.Fatal(err)
	}

	var pending []reservation.Reservation
	status, err = env.request(http.MethodGet, "/admin/reservations", nil, &pending)
	if err != nil {
		t.Fatal(err)
	}
	if status != http.StatusOK || len(pending) != 1 {
		t.Fatalf("listing pending reservations: status %d, count %d", status, len(pending))
	}

	var accepted reservation.Reservation
	status, err = env.request(http.MethodPut, "/admin/reservations/"+itoa(res.ID)+"/accept", reservation.AcceptUp{Table: 5}, &accepted)
	if err != nil {
		t.Fatal(err)
	}
	if status != http.StatusOK || accepted.Status != reservation.Accepted {
		t.Fatalf("accepting reservation: status %d, state %s", status, accepted.Status)
	}
	if accepted.TableNo == nil || *accepted.TableNo != 5 {
		t.Fatalf("expected table 5, got %v", accepted.TableNo)
	}

	if err := Logout(env); err != nil {
		t.Fatal(err)
	}

	// Rescheduling needs approval again and drops the table.
	nextWeek := time.Now().AddDate(0, 0, 7).Format("2006-01-02")
	var moved reservation.Reservation
	status, err = env.request(http.MethodPut, "/reservations/"+itoa(res.ID), reservation.ScheduleUp{
		Code: code,
		Date: nextWeek,
		Time: "18:00",
	}, &moved)
	if err != nil {
		t.Fatal(err)
	}
	if status != http.StatusOK {
		t.Fatalf("rescheduling: expected 200, got %d", status)
	}
	if moved.Status != reservation.Pending || moved.TableNo != nil {
		t.Fatalf("expected a pending reservation without table, got %s %v", moved.Status, moved.TableNo)
	}

	status, err = env.request(http.MethodDelete, "/reservations/"+itoa(res.ID)+"?code="+code, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if status != http.StatusNoContent {
		t.Fatalf("cancelling: expected 204, got %d", status)
	}
}
