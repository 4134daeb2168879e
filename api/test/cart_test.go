package test

import (
	"net/http"
	"testing"

	"github.com/dgavriliu/lataverna/core/cart"
	"github.com/dgavriliu/lataverna/core/user"
)

type cartTest struct {
	*TestEnv
}

func (ct *cartTest) showOK(t *testing.T) cart.Cart {
	t.Helper()

	var c cart.Cart
	status, err := ct.request(http.MethodGet, "/cart", nil, &c)
	if err != nil {
		t.Fatal(err)
	}
	if status != http.StatusOK {
		t.Fatalf("can't show cart: status code %d", status)
	}
	return c
}

func (ct *cartTest) addItemOK(t *testing.T, productID int64) cart.Cart {
	t.Helper()

	var c cart.Cart
	status, err := ct.request(http.MethodPut, "/cart/items", map[string]int64{"productId": productID}, &c)
	if err != nil {
		t.Fatal(err)
	}
	if status != http.StatusOK {
		t.Fatalf("can't add product %d to cart: status code %d", productID, status)
	}
	return c
}

func (ct *cartTest) setQuantityOK(t *testing.T, productID int64, quantity int) cart.Cart {
	t.Helper()

	var c cart.Cart
	status, err := ct.request(http.MethodPut, "/cart/items/"+itoa(productID)+"/quantity", map[string]int{"quantity": quantity}, &c)
	if err != nil {
		t.Fatal(err)
	}
	if status != http.StatusOK {
		t.Fatalf("can't set quantity of product %d: status code %d", productID, status)
	}
	return c
}

func (ct *cartTest) quantityOf(c cart.Cart, productID int64) int {
	for _, l := range c.Lines {
		if l.ProductID == productID {
			return l.Quantity
		}
	}
	return 0
}

func TestCart(t *testing.T) {
	env, err := NewTestEnv(t, "cart_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	mt := &menuTest{env}
	ct := &cartTest{env}

	sub := mt.createSubcategory(t, "food", "Burgers")
	p1 := mt.createProductOK(t, sub, "Classic Burger", "25.50")
	p2 := mt.createProductOK(t, sub, "Fries", "10.00")

	// Anonymous cart: adding the same product twice increments the line.
	c := ct.addItemOK(t, p1.ID)
	c = ct.addItemOK(t, p1.ID)
	if got := ct.quantityOf(c, p1.ID); got != 2 {
		t.Fatalf("expected quantity 2 after adding twice, got %d", got)
	}

	c = ct.addItemOK(t, p2.ID)
	if c.TotalItems != 3 {
		t.Fatalf("expected 3 total items, got %d", c.TotalItems)
	}
	if c.TotalPrice.StringFixed(2) != "61.00" {
		t.Fatalf("expected total 61.00, got %s", c.TotalPrice)
	}

	// Setting the quantity to zero removes the line.
	c = ct.setQuantityOK(t, p2.ID, 0)
	if len(c.Lines) != 1 || c.TotalItems != 2 {
		t.Fatalf("expected only the burger line, got %+v", c.Lines)
	}

	// Signing up switches the scope; the anonymous cart is not merged.
	var u user.User
	status, err := env.request(http.MethodPost, "/auth/signup", user.UserNew{
		Email:    "alice@test.local",
		Password: "alice-pass-1",
		Name:     "Alice",
	}, &u)
	if err != nil {
		t.Fatal(err)
	}
	if status != http.StatusCreated {
		t.Fatalf("can't sign up: status code %d", status)
	}

	c = ct.showOK(t)
	if len(c.Lines) != 0 {
		t.Fatalf("expected an empty cart after sign-up, got %+v", c.Lines)
	}

	// Items added while signed in are saved for the next sign-in.
	ct.addItemOK(t, p2.ID)

	if err := Logout(env); err != nil {
		t.Fatal(err)
	}
	c = ct.showOK(t)
	if len(c.Lines) != 0 {
		t.Fatalf("expected an empty cart after sign-out, got %+v", c.Lines)
	}

	// A fresh anonymous cart stays separate from the saved one.
	c = ct.addItemOK(t, p1.ID)
	if got := ct.quantityOf(c, p1.ID); got != 1 {
		t.Fatalf("expected fresh anonymous line, got quantity %d", got)
	}

	if err := Login(env, "alice@test.local", "alice-pass-1"); err != nil {
		t.Fatal(err)
	}
	c = ct.showOK(t)
	if len(c.Lines) != 1 || ct.quantityOf(c, p2.ID) != 1 {
		t.Fatalf("expected the saved cart back on sign-in, got %+v", c.Lines)
	}

	if err := Logout(env); err != nil {
		t.Fatal(err)
	}
}
