package cart

import (
	"github.com/shopspring/decimal"
)

// Product is the reference a caller adds to a cart. Quantity is owned by
// the cart itself.
type Product struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	ImageURL  string          `json:"imageUrl,omitempty"`
}

// Line is one distinct product held in a cart. A cart never holds two
// lines for the same product id.
type Line struct {
	ProductID int64           `json:"productId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	ImageURL  string          `json:"imageRef,omitempty"`
	Quantity  int             `json:"quantity"`
}

type lines []Line

// add increments the quantity of an existing line or appends a new one
// with quantity 1.
func (ls lines) add(p Product) lines {
	for i := range ls {
		if ls[i].ProductID == p.ID {
			ls[i].Quantity++
			return ls
		}
	}

	return append(ls, Line{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.UnitPrice,
		ImageURL:  p.ImageURL,
		Quantity:  1,
	})
}

// remove drops the line for the given product id. Removing an absent id
// is a no-op.
func (ls lines) remove(productID int64) lines {
	for i := range ls {
		if ls[i].ProductID == productID {
			return append(ls[:i], ls[i+1:]...)
		}
	}
	return ls
}

// setQuantity updates an existing line. A quantity of zero or less
// removes the line. Unknown product ids are left alone.
func (ls lines) setQuantity(productID int64, quantity int) lines {
	if quantity <= 0 {
		return ls.remove(productID)
	}

	for i := range ls {
		if ls[i].ProductID == productID {
			ls[i].Quantity = quantity
			break
		}
	}
	return ls
}

func (ls lines) totalItems() int {
	var tot int
	for _, l := range ls {
		tot += l.Quantity
	}
	return tot
}

func (ls lines) totalPrice() decimal.Decimal {
	tot := decimal.Zero
	for _, l := range ls {
		tot = tot.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return tot
}

func (ls lines) clone() lines {
	if ls == nil {
		return nil
	}
	out := make(lines, len(ls))
	copy(out, ls)
	return out
}

// Cart is a point-in-time view of a scope's cart with its derived totals.
// Totals are computed from the lines at read time, never cached.
type Cart struct {
	Lines      []Line          `json:"lines"`
	TotalItems int             `json:"totalItems"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
}

func view(ls lines) Cart {
	out := ls.clone()
	if out == nil {
		out = lines{}
	}
	return Cart{
		Lines:      out,
		TotalItems: ls.totalItems(),
		TotalPrice: ls.totalPrice(),
	}
}
