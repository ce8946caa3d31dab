package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"cheffnex/internal/models"
	"cheffnex/internal/money"
	"cheffnex/internal/repository"
	"cheffnex/internal/selection"
)

func GetRestaurant(menu Menu) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /restaurants/:id"
		defer handlePanic(c, route)

		id, ok := paramID(c, route, "id")
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		restaurant, err := menu.Restaurant(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			respondWithError(c, http.StatusNotFound, route, "restaurant not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		c.JSON(http.StatusOK, restaurant)
	}
}

func GetRestaurantCategories(menu Menu) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /restaurants/:id/categories"
		defer handlePanic(c, route)

		id, ok := paramID(c, route, "id")
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		categories, err := menu.Categories(ctx, id)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": categories})
	}
}

// GetRestaurantProducts lists the active menu, optionally for one category.
func GetRestaurantProducts(menu Menu) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /restaurants/:id/products"
		defer handlePanic(c, route)

		id, ok := paramID(c, route, "id")
		if !ok {
			return
		}
		filter := repository.ProductFilter{ActiveOnly: true}
		if raw := strings.TrimSpace(c.Query("categoryId")); raw != "" {
			categoryID, err := primitive.ObjectIDFromHex(raw)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, "invalid categoryId")
				return
			}
			filter.CategoryID = &categoryID
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		products, err := menu.Products(ctx, id, filter)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": products})
	}
}

type productOptionsResponse struct {
	Product   models.Product    `json:"product"`
	Options   selection.Options `json:"options"`
	Steps     []string          `json:"steps"`
	UnitPrice string            `json:"unitPrice"`
}

// GetProductOptions returns what the customization wizard offers for a
// product together with its step sequence.
func GetProductOptions(menu Menu, loader OptionsLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /products/:id/options"
		defer handlePanic(c, route)

		id, ok := paramID(c, route, "id")
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		product, err := menu.Product(ctx, id)
		if errors.Is(err, repository.ErrNotFound) || (err == nil && !product.IsActive) {
			respondWithError(c, http.StatusNotFound, route, "product not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		sel := selection.New(product, loader.Load(ctx, product))
		steps := make([]string, 0, sel.StepCount())
		for i := 0; i < sel.StepCount(); i++ {
			steps = append(steps, selection.StepAt(i, sel.Options().Presence()).String())
		}

		c.JSON(http.StatusOK, productOptionsResponse{
			Product:   product,
			Options:   sel.Options(),
			Steps:     steps,
			UnitPrice: money.Format(sel.UnitPrice()),
		})
	}
}
