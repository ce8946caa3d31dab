package cache

import (
	"context"
	"errors"
	"time"

	"cheffnex/internal/cart"
)

var ErrCacheMiss = errors.New("cart not found in cache")

// Session is a customer's cart between page loads. Nothing here is an order
// until checkout writes one.
type Session struct {
	ID           string          `json:"id"`
	RestaurantID string          `json:"restaurantId"`
	Items        []cart.LineItem `json:"items"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// Store rebuilds the cart store the session holds.
func (s *Session) Store() *cart.Store {
	return cart.NewStore(s.Items...)
}

// Save copies the store contents back into the session.
func (s *Session) Save(store *cart.Store, now time.Time) {
	s.Items = store.Items()
	s.UpdatedAt = now
}

type CartCache interface {
	Get(ctx context.Context, sessionID string) (*Session, error)
	Set(ctx context.Context, session *Session) error
	Delete(ctx context.Context, sessionID string) error
}
