package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"cheffnex/internal/models"
	"cheffnex/internal/selection"
)

type menuFixture struct {
	menu       *fakeMenu
	loader     fakeLoader
	carts      *memCarts
	restaurant models.Restaurant
	burger     models.Product
	soda       models.Product
	bacon      models.Extra
}

func newMenuFixture() *menuFixture {
	restaurant := models.Restaurant{ID: primitive.NewObjectID(), Name: "Cheff Burger", Phone: "+55 (11) 3333-4444"}
	burger := models.Product{
		ID:           primitive.NewObjectID(),
		RestaurantID: restaurant.ID,
		Name:         "X Burger",
		SellPrice:    20,
		IsActive:     true,
	}
	soda := models.Product{
		ID:           primitive.NewObjectID(),
		RestaurantID: restaurant.ID,
		Name:         "Refri",
		SellPrice:    6,
		IsActive:     true,
	}
	bacon := models.Extra{ID: primitive.NewObjectID(), ProductID: burger.ID, Name: "Bacon", Price: 4, IsActive: true}

	menu := newFakeMenu()
	menu.restaurants[restaurant.ID] = restaurant
	menu.products[burger.ID] = burger
	menu.products[soda.ID] = soda

	return &menuFixture{
		menu: menu,
		loader: fakeLoader{
			burger.ID: {Removables: []string{"Cebola", "Tomate"}, Extras: []models.Extra{bacon}},
		},
		carts:      newMemCarts(),
		restaurant: restaurant,
		burger:     burger,
		soda:       soda,
		bacon:      bacon,
	}
}

func (f *menuFixture) router() *gin.Engine {
	r := gin.New()
	r.POST("/cart", CreateCart(f.menu, f.carts))
	r.GET("/cart/:session", GetCart(f.carts))
	r.DELETE("/cart/:session", ClearCart(f.carts))
	r.POST("/cart/:session/items", AddCartItem(f.menu, f.loader, f.carts))
	r.PATCH("/cart/:session/items/:index", UpdateCartItem(f.carts))
	r.DELETE("/cart/:session/items/:index", RemoveCartItem(f.carts))
	return r
}

func (f *menuFixture) newCart(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/cart", gin.H{"restaurantId": f.restaurant.ID.Hex()})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decode[cartResponse](t, w)
	require.NotEmpty(t, resp.SessionID)
	return resp.SessionID
}

func TestCartFlow(t *testing.T) {
	f := newMenuFixture()
	r := f.router()
	session := f.newCart(t, r)

	w := doJSON(t, r, http.MethodPost, "/cart/"+session+"/items", gin.H{
		"productId": f.burger.ID.Hex(),
		"removed":   []string{"Cebola"},
		"extras":    []gin.H{{"extraId": f.bacon.ID.Hex(), "qty": 1}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decode[cartResponse](t, w)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, []string{"Cebola"}, resp.Items[0].Removed)
	require.Len(t, resp.Items[0].Extras, 1)
	assert.Equal(t, "Bacon", resp.Items[0].Extras[0].Name)
	assert.Equal(t, "24.00", resp.Total)
	assert.Equal(t, "R$ 24,00", resp.FormattedTotal)

	w = doJSON(t, r, http.MethodPatch, "/cart/"+session+"/items/0", gin.H{"quantity": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp = decode[cartResponse](t, w)
	assert.Equal(t, "48.00", resp.Total)
	assert.Equal(t, 2, resp.ItemCount)

	w = doJSON(t, r, http.MethodPost, "/cart/"+session+"/items", gin.H{"productId": f.soda.ID.Hex(), "crossSell": true})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp = decode[cartResponse](t, w)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "54.00", resp.Total)

	w = doJSON(t, r, http.MethodDelete, "/cart/"+session+"/items/0", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode[cartResponse](t, w)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Refri", resp.Items[0].Product.Name)

	w = doJSON(t, r, http.MethodDelete, "/cart/"+session, nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode[cartResponse](t, w)
	assert.Empty(t, resp.Items)
	assert.Equal(t, "0.00", resp.Total)
}

func TestAddCartItemSameProductTwiceKeepsTwoLines(t *testing.T) {
	f := newMenuFixture()
	r := f.router()
	session := f.newCart(t, r)

	for i := 0; i < 2; i++ {
		w := doJSON(t, r, http.MethodPost, "/cart/"+session+"/items", gin.H{"productId": f.burger.ID.Hex()})
		require.Equal(t, http.StatusCreated, w.Code)
	}
	w := doJSON(t, r, http.MethodGet, "/cart/"+session, nil)
	resp := decode[cartResponse](t, w)
	assert.Len(t, resp.Items, 2)
	assert.Equal(t, "40.00", resp.Total)
}

func TestAddCartItemRejectsUnknownChoices(t *testing.T) {
	f := newMenuFixture()
	r := f.router()
	session := f.newCart(t, r)

	w := doJSON(t, r, http.MethodPost, "/cart/"+session+"/items", gin.H{
		"productId": f.burger.ID.Hex(),
		"removed":   []string{"Picles"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/cart/"+session+"/items", gin.H{
		"productId": f.burger.ID.Hex(),
		"extras":    []gin.H{{"extraId": primitive.NewObjectID().Hex(), "qty": 1}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodGet, "/cart/"+session, nil)
	assert.Empty(t, decode[cartResponse](t, w).Items)
}

func TestAddCartItemProductChecks(t *testing.T) {
	f := newMenuFixture()
	inactive := models.Product{ID: primitive.NewObjectID(), RestaurantID: f.restaurant.ID, Name: "Old", SellPrice: 5}
	foreign := models.Product{ID: primitive.NewObjectID(), RestaurantID: primitive.NewObjectID(), Name: "Other", SellPrice: 5, IsActive: true}
	f.menu.products[inactive.ID] = inactive
	f.menu.products[foreign.ID] = foreign
	r := f.router()
	session := f.newCart(t, r)

	cases := []struct {
		name      string
		productID string
		want      int
	}{
		{"malformed id", "nope", http.StatusBadRequest},
		{"unknown product", primitive.NewObjectID().Hex(), http.StatusNotFound},
		{"inactive product", inactive.ID.Hex(), http.StatusNotFound},
		{"other restaurant", foreign.ID.Hex(), http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/cart/"+session+"/items", gin.H{"productId": tc.productID})
			assert.Equal(t, tc.want, w.Code)
		})
	}
}

func TestCartIndexOutOfRange(t *testing.T) {
	f := newMenuFixture()
	r := f.router()
	session := f.newCart(t, r)

	w := doJSON(t, r, http.MethodPatch, "/cart/"+session+"/items/5", gin.H{"quantity": 2})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/cart/"+session+"/items/0", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/cart/"+session+"/items/-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateQuantityZeroRemovesLine(t *testing.T) {
	f := newMenuFixture()
	r := f.router()
	session := f.newCart(t, r)
	doJSON(t, r, http.MethodPost, "/cart/"+session+"/items", gin.H{"productId": f.burger.ID.Hex()})

	w := doJSON(t, r, http.MethodPatch, "/cart/"+session+"/items/0", gin.H{"quantity": 0})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[cartResponse](t, w).Items)
}

func TestCartNotFound(t *testing.T) {
	f := newMenuFixture()
	r := f.router()

	w := doJSON(t, r, http.MethodGet, "/cart/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodPost, "/cart", gin.H{"restaurantId": primitive.NewObjectID().Hex()})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetProductOptions(t *testing.T) {
	f := newMenuFixture()
	f.loader[f.burger.ID] = selection.Options{
		Removables: []string{"Cebola"},
		Extras:     []models.Extra{f.bacon},
		CrossSell:  []selection.CrossSellStep{{Label: "Bebidas", Products: []models.Product{f.soda}}},
	}
	r := gin.New()
	r.GET("/products/:id/options", GetProductOptions(f.menu, f.loader))

	w := doJSON(t, r, http.MethodGet, "/products/"+f.burger.ID.Hex()+"/options", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode[map[string]any](t, w)
	assert.Equal(t, []any{"info", "removables", "extras", "crosssell-0"}, body["steps"])
	assert.Equal(t, "20,00", body["unitPrice"])
}
