package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"cheffnex/internal/models"
)

type IngredientRequest struct {
	Name           string  `json:"name" binding:"required"`
	Category       string  `json:"category"`
	Unit           string  `json:"unit" binding:"required,oneof=kg g l ml un"`
	CurrentStock   float64 `json:"currentStock" binding:"gte=0"`
	MinStock       float64 `json:"minStock" binding:"gte=0"`
	CostPrice      float64 `json:"costPrice" binding:"gte=0"`
	ExpirationDate string  `json:"expirationDate"`
}

type RecipeLineRequest struct {
	IngredientID string  `json:"ingredientId" binding:"required"`
	QuantityUsed float64 `json:"quantityUsed" binding:"gt=0"`
	CanRemove    bool    `json:"canRemove"`
}

type SetRecipeRequest struct {
	Lines []RecipeLineRequest `json:"lines" binding:"dive"`
}

func (r IngredientRequest) ingredient(restaurantID primitive.ObjectID) (models.Ingredient, error) {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return models.Ingredient{}, errors.New("name required")
	}
	ingredient := models.Ingredient{
		RestaurantID: restaurantID,
		Name:         name,
		Category:     strings.TrimSpace(r.Category),
		Unit:         r.Unit,
		CurrentStock: r.CurrentStock,
		MinStock:     r.MinStock,
		CostPrice:    r.CostPrice,
	}
	if raw := strings.TrimSpace(r.ExpirationDate); raw != "" {
		expires, err := time.Parse(dateLayout, raw)
		if err != nil {
			return models.Ingredient{}, errors.New("expirationDate must be YYYY-MM-DD")
		}
		ingredient.ExpirationDate = &expires
	}
	return ingredient, nil
}

/*
GET /admin/api/ingredients
- ?lowStock=true keeps only ingredients at or below their minimum
*/
func GetIngredients(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/ingredients"
		defer handlePanic(c, route)

		restaurantID, ok := staffRestaurant(c, route)
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		filter := bson.M{"restaurantId": restaurantID}
		if strings.EqualFold(strings.TrimSpace(c.Query("lowStock")), "true") {
			filter["$expr"] = bson.M{"$lte": bson.A{"$currentStock", "$minStock"}}
		}

		cursor, err := db.Collection("ingredients").Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		ingredients := make([]models.Ingredient, 0)
		if err := cursor.All(ctx, &ingredients); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		low := 0
		for _, ingredient := range ingredients {
			if ingredient.LowStock() {
				low++
			}
		}
		c.JSON(http.StatusOK, gin.H{"data": ingredients, "lowStock": low})
	}
}

func CreateIngredient(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/ingredients"
		defer handlePanic(c, route)

		restaurantID, ok := staffRestaurant(c, route)
		if !ok {
			return
		}
		var req IngredientRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		ingredient, err := req.ingredient(restaurantID)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}
		ingredient.CreatedAt = time.Now()

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		res, err := db.Collection("ingredients").InsertOne(ctx, ingredient)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		ingredient.ID = res.InsertedID.(primitive.ObjectID)
		c.JSON(http.StatusCreated, ingredient)
	}
}

func UpdateIngredient(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/api/ingredients/:id"
		defer handlePanic(c, route)

		restaurantID, ok := staffRestaurant(c, route)
		if !ok {
			return
		}
		id, ok := paramID(c, route, "id")
		if !ok {
			return
		}
		var req IngredientRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		ingredient, err := req.ingredient(restaurantID)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		set := bson.M{
			"name":         ingredient.Name,
			"category":     ingredient.Category,
			"unit":         ingredient.Unit,
			"currentStock": ingredient.CurrentStock,
			"minStock":     ingredient.MinStock,
			"costPrice":    ingredient.CostPrice,
		}
		update := bson.M{"$set": set}
		if ingredient.ExpirationDate != nil {
			set["expirationDate"] = *ingredient.ExpirationDate
		} else {
			update["$unset"] = bson.M{"expirationDate": ""}
		}

		var updated models.Ingredient
		err = db.Collection("ingredients").FindOneAndUpdate(
			ctx,
			bson.M{"_id": id, "restaurantId": restaurantID},
			update,
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&updated)
		if errors.Is(err, mongo.ErrNoDocuments) {
			respondWithError(c, http.StatusNotFound, route, "ingredient not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}

/*
DELETE /admin/api/ingredients/:id
- refused while a recipe still uses the ingredient
*/
func DeleteIngredient(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/api/ingredients/:id"
		defer handlePanic(c, route)

		restaurantID, ok := staffRestaurant(c, route)
		if !ok {
			return
		}
		id, ok := paramID(c, route, "id")
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		used, err := db.Collection("recipes").CountDocuments(ctx, bson.M{"ingredientId": id})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if used > 0 {
			respondWithError(c, http.StatusConflict, route, "ingredient is used by a recipe")
			return
		}

		res, err := db.Collection("ingredients").DeleteOne(ctx, bson.M{"_id": id, "restaurantId": restaurantID})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if res.DeletedCount == 0 {
			respondWithError(c, http.StatusNotFound, route, "ingredient not found")
			return
		}
		if _, err := db.Collection("extras").UpdateMany(ctx, bson.M{"ingredientId": id}, bson.M{"$unset": bson.M{"ingredientId": ""}}); err != nil {
			zap.L().Warn("extras still reference ingredient", zap.String("ingredientId", id.Hex()), zap.Error(err))
		}
		c.Status(http.StatusNoContent)
	}
}

// GetRecipe lists the recipe lines of a product.
func GetRecipe(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/products/:id/recipe"
		defer handlePanic(c, route)

		restaurantID, ok := staffRestaurant(c, route)
		if !ok {
			return
		}
		productID, ok := paramID(c, route, "id")
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		if err := ownedProduct(ctx, db, restaurantID, productID); err != nil {
			respondOwnership(c, route, err, "product not found")
			return
		}

		cursor, err := db.Collection("recipes").Find(ctx, bson.M{"productId": productID})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		lines := make([]models.Recipe, 0)
		if err := cursor.All(ctx, &lines); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": lines})
	}
}

/*
PUT /admin/api/products/:id/recipe
- replaces every recipe line of the product
*/
func SetRecipe(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/api/products/:id/recipe"
		defer handlePanic(c, route)

		restaurantID, ok := staffRestaurant(c, route)
		if !ok {
			return
		}
		productID, ok := paramID(c, route, "id")
		if !ok {
			return
		}
		var req SetRecipeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		if err := ownedProduct(ctx, db, restaurantID, productID); err != nil {
			respondOwnership(c, route, err, "product not found")
			return
		}

		seen := map[primitive.ObjectID]struct{}{}
		lines := make([]models.Recipe, 0, len(req.Lines))
		docs := make([]interface{}, 0, len(req.Lines))
		for _, line := range req.Lines {
			ingredientID, err := ownedIngredient(ctx, db, restaurantID, line.IngredientID)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, err.Error())
				return
			}
			if _, dup := seen[ingredientID]; dup {
				respondWithError(c, http.StatusBadRequest, route, "ingredient listed twice")
				return
			}
			seen[ingredientID] = struct{}{}

			recipe := models.Recipe{
				ID:           primitive.NewObjectID(),
				ProductID:    productID,
				IngredientID: ingredientID,
				QuantityUsed: line.QuantityUsed,
				CanRemove:    line.CanRemove,
			}
			lines = append(lines, recipe)
			docs = append(docs, recipe)
		}

		if _, err := db.Collection("recipes").DeleteMany(ctx, bson.M{"productId": productID}); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if len(docs) > 0 {
			if _, err := db.Collection("recipes").InsertMany(ctx, docs); err != nil {
				respondWithError(c, http.StatusInternalServerError, route, "db error")
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"data": lines})
	}
}
