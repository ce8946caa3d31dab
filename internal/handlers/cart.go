package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"cheffnex/internal/cache"
	"cheffnex/internal/cart"
	"cheffnex/internal/money"
	"cheffnex/internal/repository"
	"cheffnex/internal/selection"
)

type createCartRequest struct {
	RestaurantID string `json:"restaurantId" binding:"required"`
}

type extraChoice struct {
	ExtraID string `json:"extraId" binding:"required"`
	Qty     int    `json:"qty" binding:"min=0"`
}

type addCartItemRequest struct {
	ProductID string        `json:"productId" binding:"required"`
	Removed   []string      `json:"removed"`
	Extras    []extraChoice `json:"extras" binding:"dive"`
	CrossSell bool          `json:"crossSell"`
}

type updateCartItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

type cartLine struct {
	cart.LineItem
	UnitPrice decimal.Decimal `json:"unitPrice"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

type cartResponse struct {
	SessionID      string     `json:"sessionId"`
	RestaurantID   string     `json:"restaurantId"`
	Items          []cartLine `json:"items"`
	Total          string     `json:"total"`
	FormattedTotal string     `json:"formattedTotal"`
	ItemCount      int        `json:"itemCount"`
}

func newCartResponse(session *cache.Session) cartResponse {
	store := session.Store()
	items := store.Items()
	lines := make([]cartLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, cartLine{LineItem: item, UnitPrice: item.UnitPrice(), LineTotal: item.Total()})
	}
	return cartResponse{
		SessionID:      session.ID,
		RestaurantID:   session.RestaurantID,
		Items:          lines,
		Total:          store.Total().StringFixed(2),
		FormattedTotal: "R$ " + money.Format(store.Total()),
		ItemCount:      store.ItemCount(),
	}
}

// loadSession answers 404 for unknown or expired carts.
func loadSession(ctx context.Context, c *gin.Context, carts cache.CartCache, route string) (*cache.Session, bool) {
	session, err := carts.Get(ctx, c.Param("session"))
	if errors.Is(err, cache.ErrCacheMiss) {
		respondWithError(c, http.StatusNotFound, route, "cart not found")
		return nil, false
	}
	if err != nil {
		zap.L().Error("cart load failed", zap.String("route", route), zap.Error(err))
		respondWithError(c, http.StatusServiceUnavailable, route, "cart storage unavailable")
		return nil, false
	}
	return session, true
}

func saveSession(ctx context.Context, c *gin.Context, carts cache.CartCache, route string, session *cache.Session, store *cart.Store) bool {
	session.Save(store, time.Now().UTC())
	if err := carts.Set(ctx, session); err != nil {
		zap.L().Error("cart save failed", zap.String("route", route), zap.Error(err))
		respondWithError(c, http.StatusServiceUnavailable, route, "cart storage unavailable")
		return false
	}
	return true
}

func CreateCart(menu Menu, carts cache.CartCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /cart"
		defer handlePanic(c, route)

		var req createCartRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		restaurantID, err := primitive.ObjectIDFromHex(strings.TrimSpace(req.RestaurantID))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid restaurantId")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		if _, err := menu.Restaurant(ctx, restaurantID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				respondWithError(c, http.StatusNotFound, route, "restaurant not found")
				return
			}
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		now := time.Now().UTC()
		session := &cache.Session{
			ID:           uuid.NewString(),
			RestaurantID: restaurantID.Hex(),
			Items:        []cart.LineItem{},
			CreatedAt:    now,
		}
		if !saveSession(ctx, c, carts, route, session, cart.NewStore()) {
			return
		}
		c.JSON(http.StatusCreated, newCartResponse(session))
	}
}

func GetCart(carts cache.CartCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /cart/:session"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		session, ok := loadSession(ctx, c, carts, route)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, newCartResponse(session))
	}
}

// AddCartItem runs a whole product customization at once: the removed
// ingredients and extra quantities must come from the product's own options.
func AddCartItem(menu Menu, loader OptionsLoader, carts cache.CartCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /cart/:session/items"
		defer handlePanic(c, route)

		var req addCartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		productID, err := primitive.ObjectIDFromHex(strings.TrimSpace(req.ProductID))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "invalid productId")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		session, ok := loadSession(ctx, c, carts, route)
		if !ok {
			return
		}

		product, err := menu.Product(ctx, productID)
		if errors.Is(err, repository.ErrNotFound) || (err == nil && !product.IsActive) {
			respondWithError(c, http.StatusNotFound, route, "product not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if product.RestaurantID.Hex() != session.RestaurantID {
			respondWithError(c, http.StatusBadRequest, route, "product belongs to another restaurant")
			return
		}

		store := session.Store()
		if req.CrossSell {
			selection.New(product, selection.Options{}).AddCrossSell(store, product)
		} else {
			sel := selection.New(product, loader.Load(ctx, product))
			if msg := applyChoices(sel, req); msg != "" {
				respondWithError(c, http.StatusBadRequest, route, msg)
				return
			}
			sel.AddToCart(store)
		}

		if !saveSession(ctx, c, carts, route, session, store) {
			return
		}
		c.JSON(http.StatusCreated, newCartResponse(session))
	}
}

func applyChoices(sel *selection.Selection, req addCartItemRequest) string {
	opts := sel.Options()

	removables := make(map[string]bool, len(opts.Removables))
	for _, r := range opts.Removables {
		removables[r] = true
	}
	seen := map[string]bool{}
	for _, name := range req.Removed {
		name = strings.TrimSpace(name)
		if seen[name] {
			continue
		}
		if !removables[name] {
			return "ingredient cannot be removed: " + name
		}
		seen[name] = true
		sel.ToggleRemovable(name)
	}

	extras := make(map[string]bool, len(opts.Extras))
	for _, e := range opts.Extras {
		extras[e.ID.Hex()] = true
	}
	for _, choice := range req.Extras {
		if !extras[choice.ExtraID] {
			return "extra not available: " + choice.ExtraID
		}
		sel.SetExtra(choice.ExtraID, choice.Qty)
	}
	return ""
}

func cartIndex(c *gin.Context, route string) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		respondWithError(c, http.StatusBadRequest, route, "invalid index")
		return 0, false
	}
	return index, true
}

// UpdateCartItem sets the quantity of one line; zero or less removes it.
func UpdateCartItem(carts cache.CartCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /cart/:session/items/:index"
		defer handlePanic(c, route)

		index, ok := cartIndex(c, route)
		if !ok {
			return
		}
		var req updateCartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		session, ok := loadSession(ctx, c, carts, route)
		if !ok {
			return
		}
		store := session.Store()
		if index >= store.Len() {
			respondWithError(c, http.StatusNotFound, route, "item not found")
			return
		}
		store.UpdateQuantity(index, *req.Quantity)

		if !saveSession(ctx, c, carts, route, session, store) {
			return
		}
		c.JSON(http.StatusOK, newCartResponse(session))
	}
}

func RemoveCartItem(carts cache.CartCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /cart/:session/items/:index"
		defer handlePanic(c, route)

		index, ok := cartIndex(c, route)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		session, ok := loadSession(ctx, c, carts, route)
		if !ok {
			return
		}
		store := session.Store()
		if index >= store.Len() {
			respondWithError(c, http.StatusNotFound, route, "item not found")
			return
		}
		store.Remove(index)

		if !saveSession(ctx, c, carts, route, session, store) {
			return
		}
		c.JSON(http.StatusOK, newCartResponse(session))
	}
}

func ClearCart(carts cache.CartCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /cart/:session"
		defer handlePanic(c, route)

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		session, ok := loadSession(ctx, c, carts, route)
		if !ok {
			return
		}
		if !saveSession(ctx, c, carts, route, session, cart.NewStore()) {
			return
		}
		c.JSON(http.StatusOK, newCartResponse(session))
	}
}
