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

	"cheffnex/internal/models"
)

var errNotOwned = errors.New("not found")

type ExtraRequest struct {
	Name         string   `json:"name" binding:"required"`
	Price        *float64 `json:"price" binding:"required"`
	IngredientID string   `json:"ingredientId"`
	QuantityUsed float64  `json:"quantityUsed"`
	IsActive     *bool    `json:"isActive"`
}

type CrossSellRequest struct {
	TriggerCategoryID string `json:"triggerCategoryId" binding:"required"`
	SuggestCategoryID string `json:"suggestCategoryId" binding:"required"`
	StepLabel         string `json:"stepLabel" binding:"required"`
	DisplayOrder      int    `json:"displayOrder"`
}

func ownedProduct(ctx context.Context, db *mongo.Database, restaurantID, productID primitive.ObjectID) error {
	count, err := db.Collection("products").CountDocuments(ctx, bson.M{"_id": productID, "restaurantId": restaurantID})
	if err != nil {
		return err
	}
	if count == 0 {
		return errNotOwned
	}
	return nil
}

func ownedIngredient(ctx context.Context, db *mongo.Database, restaurantID primitive.ObjectID, raw string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, errors.New("invalid ingredientId")
	}
	count, err := db.Collection("ingredients").CountDocuments(ctx, bson.M{"_id": id, "restaurantId": restaurantID})
	if err != nil {
		return primitive.NilObjectID, err
	}
	if count == 0 {
		return primitive.NilObjectID, errors.New("ingredient not found")
	}
	return id, nil
}

func (r ExtraRequest) validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name required")
	}
	if *r.Price < 0 {
		return errors.New("price must be zero or greater")
	}
	if r.QuantityUsed < 0 {
		return errors.New("quantityUsed must be zero or greater")
	}
	return nil
}

// GetProductExtras lists every extra of a product, inactive ones included.
func GetProductExtras(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/products/:id/extras"
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

		cursor, err := db.Collection("extras").Find(ctx, bson.M{"productId": productID}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		extras := make([]models.Extra, 0)
		if err := cursor.All(ctx, &extras); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": extras})
	}
}

func CreateProductExtra(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/products/:id/extras"
		defer handlePanic(c, route)

		restaurantID, ok := staffRestaurant(c, route)
		if !ok {
			return
		}
		productID, ok := paramID(c, route, "id")
		if !ok {
			return
		}

		var req ExtraRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		if err := req.validate(); err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		if err := ownedProduct(ctx, db, restaurantID, productID); err != nil {
			respondOwnership(c, route, err, "product not found")
			return
		}

		extra := models.Extra{
			ProductID:    productID,
			Name:         strings.TrimSpace(req.Name),
			Price:        *req.Price,
			QuantityUsed: req.QuantityUsed,
			IsActive:     true,
			CreatedAt:    time.Now(),
		}
		if req.IsActive != nil {
			extra.IsActive = *req.IsActive
		}
		if req.IngredientID != "" {
			ingredientID, err := ownedIngredient(ctx, db, restaurantID, req.IngredientID)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, err.Error())
				return
			}
			extra.IngredientID = &ingredientID
		}

		res, err := db.Collection("extras").InsertOne(ctx, extra)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		extra.ID = res.InsertedID.(primitive.ObjectID)
		c.JSON(http.StatusCreated, extra)
	}
}

// UpdateExtra replaces an extra. The extra must hang off one of the staff
// member's products.
func UpdateExtra(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/api/extras/:id"
		defer handlePanic(c, route)

		restaurantID, ok := staffRestaurant(c, route)
		if !ok {
			return
		}
		id, ok := paramID(c, route, "id")
		if !ok {
			return
		}

		var req ExtraRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		if err := req.validate(); err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		existing, ok := ownedExtra(ctx, c, db, route, restaurantID, id)
		if !ok {
			return
		}

		set := bson.M{
			"name":         strings.TrimSpace(req.Name),
			"price":        *req.Price,
			"quantityUsed": req.QuantityUsed,
		}
		if req.IsActive != nil {
			set["isActive"] = *req.IsActive
		}
		update := bson.M{"$set": set}
		if req.IngredientID != "" {
			ingredientID, err := ownedIngredient(ctx, db, restaurantID, req.IngredientID)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, err.Error())
				return
			}
			set["ingredientId"] = ingredientID
		} else {
			update["$unset"] = bson.M{"ingredientId": ""}
		}

		var updated models.Extra
		err := db.Collection("extras").FindOneAndUpdate(
			ctx,
			bson.M{"_id": existing.ID},
			update,
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&updated)
		if errors.Is(err, mongo.ErrNoDocuments) {
			respondWithError(c, http.StatusNotFound, route, "extra not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}

func DeleteExtra(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/api/extras/:id"
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

		if _, ok := ownedExtra(ctx, c, db, route, restaurantID, id); !ok {
			return
		}
		if _, err := db.Collection("extras").DeleteOne(ctx, bson.M{"_id": id}); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func ownedExtra(ctx context.Context, c *gin.Context, db *mongo.Database, route string, restaurantID, id primitive.ObjectID) (models.Extra, bool) {
	var extra models.Extra
	err := db.Collection("extras").FindOne(ctx, bson.M{"_id": id}).Decode(&extra)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respondWithError(c, http.StatusNotFound, route, "extra not found")
		return models.Extra{}, false
	}
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, route, "db error")
		return models.Extra{}, false
	}
	if err := ownedProduct(ctx, db, restaurantID, extra.ProductID); err != nil {
		respondOwnership(c, route, err, "extra not found")
		return models.Extra{}, false
	}
	return extra, true
}

func respondOwnership(c *gin.Context, route string, err error, message string) {
	if errors.Is(err, errNotOwned) {
		respondWithError(c, http.StatusNotFound, route, message)
		return
	}
	respondWithError(c, http.StatusInternalServerError, route, "db error")
}

/*
GET /admin/api/cross-sell
*/
func GetCrossSellRules(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/cross-sell"
		defer handlePanic(c, route)

		restaurantID, ok := staffRestaurant(c, route)
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		opts := options.Find().SetSort(bson.D{{Key: "triggerCategoryId", Value: 1}, {Key: "displayOrder", Value: 1}})
		cursor, err := db.Collection("cross_sell_rules").Find(ctx, bson.M{"restaurantId": restaurantID}, opts)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		rules := make([]models.CrossSellRule, 0)
		if err := cursor.All(ctx, &rules); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": rules})
	}
}

/*
POST /admin/api/cross-sell
- both categories must belong to the restaurant and differ
*/
func CreateCrossSellRule(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/cross-sell"
		defer handlePanic(c, route)

		restaurantID, ok := staffRestaurant(c, route)
		if !ok {
			return
		}
		var req CrossSellRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		rule, ok := crossSellRule(ctx, c, db, route, restaurantID, req)
		if !ok {
			return
		}
		rule.CreatedAt = time.Now()

		res, err := db.Collection("cross_sell_rules").InsertOne(ctx, rule)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		rule.ID = res.InsertedID.(primitive.ObjectID)
		c.JSON(http.StatusCreated, rule)
	}
}

func UpdateCrossSellRule(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/api/cross-sell/:id"
		defer handlePanic(c, route)

		restaurantID, ok := staffRestaurant(c, route)
		if !ok {
			return
		}
		id, ok := paramID(c, route, "id")
		if !ok {
			return
		}
		var req CrossSellRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		rule, ok := crossSellRule(ctx, c, db, route, restaurantID, req)
		if !ok {
			return
		}

		var updated models.CrossSellRule
		err := db.Collection("cross_sell_rules").FindOneAndUpdate(
			ctx,
			bson.M{"_id": id, "restaurantId": restaurantID},
			bson.M{"$set": bson.M{
				"triggerCategoryId": rule.TriggerCategoryID,
				"suggestCategoryId": rule.SuggestCategoryID,
				"stepLabel":         rule.StepLabel,
				"displayOrder":      rule.DisplayOrder,
			}},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&updated)
		if errors.Is(err, mongo.ErrNoDocuments) {
			respondWithError(c, http.StatusNotFound, route, "rule not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}

func DeleteCrossSellRule(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/api/cross-sell/:id"
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

		res, err := db.Collection("cross_sell_rules").DeleteOne(ctx, bson.M{"_id": id, "restaurantId": restaurantID})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if res.DeletedCount == 0 {
			respondWithError(c, http.StatusNotFound, route, "rule not found")
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func crossSellRule(ctx context.Context, c *gin.Context, db *mongo.Database, route string, restaurantID primitive.ObjectID, req CrossSellRequest) (models.CrossSellRule, bool) {
	label := strings.TrimSpace(req.StepLabel)
	if label == "" {
		respondWithError(c, http.StatusBadRequest, route, "stepLabel required")
		return models.CrossSellRule{}, false
	}
	trigger, err := ownedCategory(ctx, db, restaurantID, req.TriggerCategoryID)
	if err != nil {
		respondWithError(c, http.StatusBadRequest, route, "triggerCategoryId: "+err.Error())
		return models.CrossSellRule{}, false
	}
	suggest, err := ownedCategory(ctx, db, restaurantID, req.SuggestCategoryID)
	if err != nil {
		respondWithError(c, http.StatusBadRequest, route, "suggestCategoryId: "+err.Error())
		return models.CrossSellRule{}, false
	}
	if trigger == suggest {
		respondWithError(c, http.StatusBadRequest, route, "a category cannot suggest itself")
		return models.CrossSellRule{}, false
	}
	return models.CrossSellRule{
		RestaurantID:      restaurantID,
		TriggerCategoryID: trigger,
		SuggestCategoryID: suggest,
		StepLabel:         label,
		DisplayOrder:      req.DisplayOrder,
	}, true
}
