package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"cheffnex/internal/cache"
	"cheffnex/internal/events"
	"cheffnex/internal/middleware"
	"cheffnex/internal/models"
	"cheffnex/internal/repository"
	"cheffnex/internal/selection"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

// memCarts copies sessions through JSON, the same way redis would.
type memCarts struct {
	mu       sync.Mutex
	sessions map[string][]byte
}

func newMemCarts() *memCarts {
	return &memCarts{sessions: map[string][]byte{}}
}

func (m *memCarts) Get(_ context.Context, id string) (*cache.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.sessions[id]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	var s cache.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *memCarts) Set(_ context.Context, s *cache.Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = raw
	return nil
}

func (m *memCarts) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// deadlineCarts refuses writes once the caller's context is done, like a
// redis client would.
type deadlineCarts struct {
	*memCarts
}

func (d deadlineCarts) Set(ctx context.Context, s *cache.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.memCarts.Set(ctx, s)
}

func (f *fakeOrders) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

type fakeMenu struct {
	restaurants map[primitive.ObjectID]models.Restaurant
	products    map[primitive.ObjectID]models.Product
	categories  []models.Category
}

func newFakeMenu() *fakeMenu {
	return &fakeMenu{
		restaurants: map[primitive.ObjectID]models.Restaurant{},
		products:    map[primitive.ObjectID]models.Product{},
	}
}

func (f *fakeMenu) Restaurant(_ context.Context, id primitive.ObjectID) (models.Restaurant, error) {
	r, ok := f.restaurants[id]
	if !ok {
		return models.Restaurant{}, repository.ErrNotFound
	}
	return r, nil
}

func (f *fakeMenu) RestaurantForProduct(ctx context.Context, productID primitive.ObjectID) (models.Restaurant, error) {
	p, ok := f.products[productID]
	if !ok {
		return models.Restaurant{}, repository.ErrNotFound
	}
	return f.Restaurant(ctx, p.RestaurantID)
}

func (f *fakeMenu) Categories(_ context.Context, restaurantID primitive.ObjectID) ([]models.Category, error) {
	out := make([]models.Category, 0)
	for _, c := range f.categories {
		if c.RestaurantID == restaurantID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeMenu) Products(_ context.Context, restaurantID primitive.ObjectID, filter repository.ProductFilter) ([]models.Product, error) {
	out := make([]models.Product, 0)
	for _, p := range f.products {
		if p.RestaurantID != restaurantID {
			continue
		}
		if filter.ActiveOnly && !p.IsActive {
			continue
		}
		if filter.CategoryID != nil && p.CategoryID != *filter.CategoryID {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeMenu) Product(_ context.Context, id primitive.ObjectID) (models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return models.Product{}, repository.ErrNotFound
	}
	return p, nil
}

type fakeLoader map[primitive.ObjectID]selection.Options

func (f fakeLoader) Load(_ context.Context, product models.Product) selection.Options {
	return f[product.ID]
}

type fakeOrders struct {
	mu      sync.Mutex
	err     error
	delay   time.Duration
	created []models.Order
	items   [][]models.OrderItem
}

func (f *fakeOrders) CreateOrder(_ context.Context, order *models.Order, items []models.OrderItem) (string, error) {
	time.Sleep(f.delay)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	order.ID = primitive.NewObjectID()
	f.created = append(f.created, *order)
	f.items = append(f.items, items)
	return order.ID.Hex(), nil
}

type memTokens struct {
	mu      sync.Mutex
	claimed map[string]bool
}

func (m *memTokens) Claim(_ context.Context, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.claimed == nil {
		m.claimed = map[string]bool{}
	}
	if m.claimed[token] {
		return false, nil
	}
	m.claimed[token] = true
	return true, nil
}

func (m *memTokens) Release(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.claimed, token)
	return nil
}

type recordedEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordedEvents) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordedEvents) types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Type, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func staffToken(t *testing.T, restaurantID primitive.ObjectID, role string) (string, primitive.ObjectID) {
	t.Helper()
	member := models.Staff{
		ID:           primitive.NewObjectID(),
		RestaurantID: restaurantID,
		Email:        role + "@cheffnex.test",
		Role:         role,
	}
	token, err := middleware.IssueStaffToken(testSecret, member, time.Hour)
	require.NoError(t, err)
	return token, member.ID
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
