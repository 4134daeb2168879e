package test

import (
	"net/http"
	"testing"

	"github.com/dgavriliu/lataverna/core/menu"
	"github.com/shopspring/decimal"
)

type menuTest struct {
	*TestEnv
}

// createSubcategory seeds a menu section directly; sections are managed
// outside the api.
func (mt *menuTest) createSubcategory(t *testing.T, category, name string) int {
	t.Helper()

	const q = `
	INSERT INTO subcategories (category_id, name)
	SELECT category_id, $2 FROM categories WHERE name = $1
	RETURNING subcategory_id`

	var id int
	if err := mt.DB.QueryRow(q, category, name).Scan(&id); err != nil {
		t.Fatalf("creating subcategory %s: %v", name, err)
	}
	return id
}

func (mt *menuTest) createProductOK(t *testing.T, sub int, name, price string) menu.Product {
	t.Helper()

	if err := Login(mt.TestEnv, mt.AdminEmail, mt.AdminPass); err != nil {
		t.Fatal(err)
	}
	defer Logout(mt.TestEnv)

	pn := menu.ProductNew{
		SubcategoryID: sub,
		Name:          name,
		Price:         decimal.RequireFromString(price),
	}

	var p menu.Product
	status, err := mt.request(http.MethodPost, "/admin/products", pn, &p)
	if err != nil {
		t.Fatal(err)
	}
	if status != http.StatusCreated {
		t.Fatalf("can't create product %s: status code %d", name, status)
	}
	return p
}

func (mt *menuTest) listSectionsOK(t *testing.T, category string) []menu.Section {
	t.Helper()

	path := "/menu"
	if category != "" {
		path += "?category=" + category
	}

	var sections []menu.Section
	status, err := mt.request(http.MethodGet, path, nil, &sections)
	if err != nil {
		t.Fatal(err)
	}
	if status != http.StatusOK {
		t.Fatalf("can't list menu: status code %d", status)
	}
	return sections
}

func TestMenu(t *testing.T) {
	env, err := NewTestEnv(t, "menu_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	mt := &menuTest{env}

	sub := mt.createSubcategory(t, "food", "Pizza")
	p1 := mt.createProductOK(t, sub, "Margherita", "25.50")
	p2 := mt.createProductOK(t, sub, "Quattro Formaggi", "32.00")

	sections := mt.listSectionsOK(t, "food")
	var pizza *menu.Section
	for i := range sections {
		if sections[i].ID == sub {
			pizza = &sections[i]
		}
	}
	if pizza == nil {
		t.Fatalf("section %d missing from menu", sub)
	}
	if len(pizza.Products) != 2 {
		t.Fatalf("expected 2 products in section, got %d", len(pizza.Products))
	}

	// Guests cannot manage the menu.
	status, err := env.request(http.MethodPost, "/admin/products", menu.ProductNew{
		SubcategoryID: sub,
		Name:          "Sneaky",
		Price:         decimal.RequireFromString("1.00"),
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if status != http.StatusUnauthorized {
		t.Fatalf("guest product create: expected 401, got %d", status)
	}

	// Deactivated products disappear from the public menu.
	if err := Login(env, env.AdminEmail, env.AdminPass); err != nil {
		t.Fatal(err)
	}
	inactive := false
	var updated menu.Product
	status, err = env.request(http.MethodPut, "/admin/products/"+itoa(p2.ID), menu.ProductUp{Active: &inactive}, &updated)
	if err != nil {
		t.Fatal(err)
	}
	if status != http.StatusOK || updated.Active {
		t.Fatalf("deactivating product: status %d, active %v", status, updated.Active)
	}

	status, err = env.request(http.MethodDelete, "/admin/products/"+itoa(p1.ID), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if status != http.StatusNoContent {
		t.Fatalf("deleting unordered product: expected 204, got %d", status)
	}
	if err := Logout(env); err != nil {
		t.Fatal(err)
	}

	sections = mt.listSectionsOK(t, "food")
	for _, s := range sections {
		if s.ID == sub && len(s.Products) != 0 {
			t.Fatalf("expected empty section after delete and deactivate, got %d products", len(s.Products))
		}
	}

	var subs []menu.Subcategory
	status, err = env.request(http.MethodGet, "/menu/subcategories?category=food", nil, &subs)
	if err != nil {
		t.Fatal(err)
	}
	if status != http.StatusOK || len(subs) != 1 {
		t.Fatalf("listing subcategories: status %d, count %d", status, len(subs))
	}
}
