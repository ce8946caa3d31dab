package cart

import "github.com/shopspring/decimal"

// Store holds the ordered line items of one browsing session. It is not safe
// for concurrent use; each session owns its store.
type Store struct {
	items []LineItem
}

// NewStore builds a store, optionally seeded with previously saved items.
func NewStore(items ...LineItem) *Store {
	s := &Store{items: make([]LineItem, 0, len(items))}
	for _, item := range items {
		s.items = append(s.items, item.clone())
	}
	return s
}

// Add appends a new line item with quantity 1. Items are never merged, even
// when product and customization match an existing line.
func (s *Store) Add(product ProductSnapshot, removed []string, extras []Extra) {
	item := LineItem{
		Product:  product,
		Quantity: 1,
		Removed:  removed,
		Extras:   extras,
	}
	s.items = append(s.items, item.clone())
}

// Remove deletes the line item at index; out of range indexes are ignored.
func (s *Store) Remove(index int) {
	if index < 0 || index >= len(s.items) {
		return
	}
	s.items = append(s.items[:index], s.items[index+1:]...)
}

// UpdateQuantity sets the quantity at index. A quantity of zero or less
// removes the line.
func (s *Store) UpdateQuantity(index, qty int) {
	if qty <= 0 {
		s.Remove(index)
		return
	}
	if index < 0 || index >= len(s.items) {
		return
	}
	s.items[index].Quantity = qty
}

func (s *Store) Clear() {
	s.items = make([]LineItem, 0)
}

// Items returns a copy of the line items in display order.
func (s *Store) Items() []LineItem {
	out := make([]LineItem, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, item.clone())
	}
	return out
}

func (s *Store) Len() int {
	return len(s.items)
}

func (s *Store) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.items {
		total = total.Add(item.Total())
	}
	return total
}

// ItemCount is the number of units across all lines.
func (s *Store) ItemCount() int {
	count := 0
	for _, item := range s.items {
		count += item.Quantity
	}
	return count
}
