package cart

import "github.com/shopspring/decimal"

// ProductSnapshot is the product as it was when the line item was created.
// Later catalog price changes never reach items already in a cart.
type ProductSnapshot struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"imageUrl,omitempty"`
	CategoryID  string          `json:"categoryId,omitempty"`
	Removables  []string        `json:"removables"`
}

type Extra struct {
	ExtraID string          `json:"extraId,omitempty"`
	Name    string          `json:"name"`
	Price   decimal.Decimal `json:"price"`
	Qty     int             `json:"qty"`
}

type LineItem struct {
	Product  ProductSnapshot `json:"product"`
	Quantity int             `json:"quantity"`
	Removed  []string        `json:"removed"`
	Extras   []Extra         `json:"extras"`
}

// ExtrasTotal is the price of the extras for a single unit.
func (li LineItem) ExtrasTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, e := range li.Extras {
		sum = sum.Add(e.Price.Mul(decimal.NewFromInt(int64(e.Qty))))
	}
	return sum
}

func (li LineItem) UnitPrice() decimal.Decimal {
	return li.Product.Price.Add(li.ExtrasTotal())
}

func (li LineItem) Total() decimal.Decimal {
	return li.UnitPrice().Mul(decimal.NewFromInt(int64(li.Quantity)))
}

func (li LineItem) clone() LineItem {
	out := li
	out.Product.Removables = cloneStrings(li.Product.Removables)
	out.Removed = cloneStrings(li.Removed)
	out.Extras = append(make([]Extra, 0, len(li.Extras)), li.Extras...)
	return out
}

func cloneStrings(in []string) []string {
	return append(make([]string, 0, len(in)), in...)
}
