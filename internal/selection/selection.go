package selection

import (
	"github.com/shopspring/decimal"

	"cheffnex/internal/cart"
	"cheffnex/internal/models"
	"cheffnex/internal/money"
)

// CrossSellStep is one suggestion page built from a cross-sell rule.
type CrossSellStep struct {
	Label      string           `json:"label"`
	CategoryID string           `json:"categoryId"`
	Products   []models.Product `json:"products"`
}

// Options is everything the customization wizard offers for one product.
type Options struct {
	Removables []string        `json:"removables"`
	Extras     []models.Extra  `json:"extras"`
	CrossSell  []CrossSellStep `json:"crossSell"`
}

func (o Options) Presence() Presence {
	return Presence{
		Removables: len(o.Removables) > 0,
		Extras:     len(o.Extras) > 0,
		CrossSell:  len(o.CrossSell),
	}
}

// Snapshot captures a catalog product for a cart line.
func Snapshot(p models.Product, removables []string) cart.ProductSnapshot {
	snap := cart.ProductSnapshot{
		ID:          p.ID.Hex(),
		Name:        p.Name,
		Description: p.Description,
		Price:       money.EffectivePrice(p.SellPrice, p.PromoPrice),
		ImageURL:    p.ImageURL,
		Removables:  append([]string{}, removables...),
	}
	if !p.CategoryID.IsZero() {
		snap.CategoryID = p.CategoryID.Hex()
	}
	return snap
}

// Selection is the customization state of one product before it becomes a
// cart line. Nothing reaches the cart until AddToCart or AddCrossSell.
type Selection struct {
	product models.Product
	options Options
	step    int
	removed []string
	extras  map[string]int
}

func New(product models.Product, options Options) *Selection {
	return &Selection{
		product: product,
		options: options,
		removed: make([]string, 0),
		extras:  make(map[string]int),
	}
}

func (s *Selection) Product() models.Product { return s.product }
func (s *Selection) Options() Options        { return s.options }
func (s *Selection) StepIndex() int          { return s.step }

func (s *Selection) StepCount() int {
	return StepCount(s.options.Presence())
}

func (s *Selection) Step() Step {
	return StepAt(s.step, s.options.Presence())
}

func (s *Selection) Next() bool {
	if s.step >= s.StepCount()-1 {
		return false
	}
	s.step++
	return true
}

func (s *Selection) Back() bool {
	if s.step == 0 {
		return false
	}
	s.step--
	return true
}

// ToggleRemovable flips membership of name in the removed set.
func (s *Selection) ToggleRemovable(name string) {
	for i, r := range s.removed {
		if r == name {
			s.removed = append(s.removed[:i], s.removed[i+1:]...)
			return
		}
	}
	s.removed = append(s.removed, name)
}

func (s *Selection) Removed() []string {
	return append([]string{}, s.removed...)
}

// AdjustExtra changes the quantity of an extra by delta, never below zero.
// Reaching zero drops the extra from the selection.
func (s *Selection) AdjustExtra(extraID string, delta int) {
	next := s.extras[extraID] + delta
	if next <= 0 {
		delete(s.extras, extraID)
		return
	}
	s.extras[extraID] = next
}

func (s *Selection) ExtraQty(extraID string) int {
	return s.extras[extraID]
}

// SetExtra sets an absolute quantity, used when a whole selection arrives at
// once over the API.
func (s *Selection) SetExtra(extraID string, qty int) {
	s.AdjustExtra(extraID, qty-s.extras[extraID])
}

// UnitPrice previews the price of one unit with the current extras.
func (s *Selection) UnitPrice() decimal.Decimal {
	price := money.EffectivePrice(s.product.SellPrice, s.product.PromoPrice)
	for _, e := range s.chosenExtras() {
		price = price.Add(e.Price.Mul(decimal.NewFromInt(int64(e.Qty))))
	}
	return price
}

func (s *Selection) chosenExtras() []cart.Extra {
	out := make([]cart.Extra, 0)
	for _, e := range s.options.Extras {
		qty := s.extras[e.ID.Hex()]
		if qty <= 0 {
			continue
		}
		out = append(out, cart.Extra{
			ExtraID: e.ID.Hex(),
			Name:    e.Name,
			Price:   money.FromFloat(e.Price),
			Qty:     qty,
		})
	}
	return out
}

// AddToCart appends the customized product to store and resets the wizard.
func (s *Selection) AddToCart(store *cart.Store) {
	store.Add(Snapshot(s.product, s.options.Removables), s.Removed(), s.chosenExtras())
	s.Reset()
}

// AddCrossSell adds a suggested product as its own plain line right away,
// independent of the current wizard.
func (s *Selection) AddCrossSell(store *cart.Store, p models.Product) {
	store.Add(Snapshot(p, nil), nil, nil)
}

func (s *Selection) Reset() {
	s.step = 0
	s.removed = make([]string, 0)
	s.extras = make(map[string]int)
}
