package test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/dgavriliu/lataverna/core/order"
)

type orderTest struct {
	*TestEnv
}

func (ot *orderTest) placeOrder(t *testing.T, on order.OrderNew, out *order.Order) int {
	t.Helper()

	status, err := ot.request(http.MethodPost, "/orders", on, out)
	if err != nil {
		t.Fatal(err)
	}
	return status
}

func TestOrder(t *testing.T) {
	env, err := NewTestEnv(t, "order_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	mt := &menuTest{env}
	ct := &cartTest{env}
	ot := &orderTest{env}

	sub := mt.createSubcategory(t, "food", "Pasta")
	p1 := mt.createProductOK(t, sub, "Carbonara", "35.00")
	p2 := mt.createProductOK(t, sub, "Lasagna", "28.50")

	on := order.OrderNew{
		CustomerName:  "Bob",
		CustomerEmail: "bob@test.local",
		CustomerPhone: "0712345678",
		PickupTime:    "12:30",
	}

	// An empty cart cannot be ordered.
	if status := ot.placeOrder(t, on, nil); status != http.StatusUnprocessableEntity {
		t.Fatalf("ordering empty cart: expected 422, got %d", status)
	}

	ct.addItemOK(t, p1.ID)
	ct.addItemOK(t, p1.ID)
	ct.addItemOK(t, p2.ID)

	// Pickup outside opening hours is rejected and the cart survives.
	bad := on
	bad.PickupTime = "08:00"
	if status := ot.placeOrder(t, bad, nil); status != http.StatusUnprocessableEntity {
		t.Fatalf("ordering with early pickup: expected 422, got %d", status)
	}
	if c := ct.showOK(t); c.TotalItems != 3 {
		t.Fatalf("cart changed by a rejected order: %+v", c)
	}

	var ord order.Order
	if status := ot.placeOrder(t, on, &ord); status != http.StatusCreated {
		t.Fatalf("placing order: expected 201, got %d", status)
	}
	if !strings.HasPrefix(ord.Code, "CMD-") {
		t.Fatalf("expected a CMD- code, got %q", ord.Code)
	}
	if ord.Status != order.Pending {
		t.Fatalf("expected a pending order, got %s", ord.Status)
	}
	if ord.Total.StringFixed(2) != "98.50" {
		t.Fatalf("expected total 98.50, got %s", ord.Total)
	}

	// The cart empties only after the order went through.
	if c := ct.showOK(t); len(c.Lines) != 0 {
		t.Fatalf("expected an empty cart after ordering, got %+v", c.Lines)
	}

	// Back office: list with stats, then move the order along.
	if err := Login(env, env.AdminEmail, env.AdminPass); err != nil {
		t.Fatal(err)
	}
	defer Logout(env)

	var listing struct {
		Orders []order.OrderView `json:"orders"`
		Stats  order.Stats       `json:"stats"`
	}
	status, err := env.request(http.MethodGet, "/admin/orders", nil, &listing)
	if err != nil {
		t.Fatal(err)
	}
	if status != http.StatusOK {
		t.Fatalf("listing orders: status code %d", status)
	}
	if len(listing.Orders) != 1 || listing.Stats.Pending != 1 {
		t.Fatalf("expected one pending order, got %d orders, stats %+v", len(listing.Orders), listing.Stats)
	}
	if len(listing.Orders[0].Items) != 2 {
		t.Fatalf("expected 2 order items, got %d", len(listing.Orders[0].Items))
	}

	status, err = env.request(http.MethodPut, "/admin/orders/"+itoa(ord.ID)+"/status", order.StatusUp{Status: order.Confirmed}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if status != http.StatusNoContent {
		t.Fatalf("updating order status: expected 204, got %d", status)
	}

	status, err = env.request(http.MethodPut, "/admin/orders/"+itoa(ord.ID)+"/status", order.StatusUp{Status: "eaten"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("bogus order status: expected 422, got %d", status)
	}
}
