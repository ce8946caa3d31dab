package handlers

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cheffnex/internal/models"
)

type CategoryCreateRequest struct {
	Name         string `json:"name" binding:"required"`
	Description  string `json:"description"`
	DisplayOrder int    `json:"displayOrder"`
}

type CategoryUpdateRequest struct {
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	DisplayOrder *int    `json:"displayOrder"`
}

func categoryNameTaken(ctx context.Context, db *mongo.Database, restaurantID primitive.ObjectID, name string, except primitive.ObjectID) (bool, error) {
	filter := bson.M{
		"restaurantId": restaurantID,
		"name":         bson.M{"$regex": primitive.Regex{Pattern: "^" + regexp.QuoteMeta(name) + "$", Options: "i"}},
	}
	if !except.IsZero() {
		filter["_id"] = bson.M{"$ne": except}
	}
	count, err := db.Collection("categories").CountDocuments(ctx, filter)
	return count > 0, err
}

/*
GET /admin/api/categories
- menu order
*/
func GetAllCategories(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/categories"
		defer handlePanic(c, route)

		restaurantID, ok := staffRestaurant(c, route)
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		opts := options.Find().SetSort(bson.D{{Key: "displayOrder", Value: 1}, {Key: "name", Value: 1}})
		cursor, err := db.Collection("categories").Find(ctx, bson.M{"restaurantId": restaurantID}, opts)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		categories := make([]models.Category, 0)
		if err := cursor.All(ctx, &categories); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": categories})
	}
}

/*
POST /admin/api/categories
- names are unique per restaurant, case insensitive
*/
func CreateCategory(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/categories"
		defer handlePanic(c, route)

		restaurantID, ok := staffRestaurant(c, route)
		if !ok {
			return
		}
		var req CategoryCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		name := strings.TrimSpace(req.Name)
		if name == "" {
			respondWithError(c, http.StatusBadRequest, route, "name required")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		taken, err := categoryNameTaken(ctx, db, restaurantID, name, primitive.NilObjectID)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if taken {
			respondWithError(c, http.StatusConflict, route, "category already exists")
			return
		}

		category := models.Category{
			RestaurantID: restaurantID,
			Name:         name,
			Description:  strings.TrimSpace(req.Description),
			DisplayOrder: req.DisplayOrder,
			CreatedAt:    time.Now(),
		}

		result, err := db.Collection("categories").InsertOne(ctx, category)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		category.ID = result.InsertedID.(primitive.ObjectID)
		c.JSON(http.StatusCreated, category)
	}
}

/*
PUT /admin/api/categories/:id
*/
func UpdateCategory(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/api/categories/:id"
		defer handlePanic(c, route)

		restaurantID, ok := staffRestaurant(c, route)
		if !ok {
			return
		}
		id, ok := paramID(c, route, "id")
		if !ok {
			return
		}

		var req CategoryUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		update := bson.M{}

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				respondWithError(c, http.StatusBadRequest, route, "name cannot be empty")
				return
			}
			taken, err := categoryNameTaken(ctx, db, restaurantID, name, id)
			if err != nil {
				respondWithError(c, http.StatusInternalServerError, route, "db error")
				return
			}
			if taken {
				respondWithError(c, http.StatusConflict, route, "category already exists")
				return
			}
			update["name"] = name
		}
		if req.Description != nil {
			update["description"] = strings.TrimSpace(*req.Description)
		}
		if req.DisplayOrder != nil {
			update["displayOrder"] = *req.DisplayOrder
		}

		if len(update) == 0 {
			respondWithError(c, http.StatusBadRequest, route, "no fields to update")
			return
		}

		var updated models.Category
		err := db.Collection("categories").FindOneAndUpdate(
			ctx,
			bson.M{"_id": id, "restaurantId": restaurantID},
			bson.M{"$set": update},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&updated)
		if errors.Is(err, mongo.ErrNoDocuments) {
			respondWithError(c, http.StatusNotFound, route, "category not found")
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
DELETE /admin/api/categories/:id
- refused while products still point at the category
*/
func DeleteCategory(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/api/categories/:id"
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

		inUse, err := db.Collection("products").CountDocuments(ctx, bson.M{"restaurantId": restaurantID, "categoryId": id})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if inUse > 0 {
			respondWithError(c, http.StatusConflict, route, "category has products")
			return
		}

		result, err := db.Collection("categories").DeleteOne(ctx, bson.M{"_id": id, "restaurantId": restaurantID})
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		if result.DeletedCount == 0 {
			respondWithError(c, http.StatusNotFound, route, "category not found")
			return
		}

		if _, err := db.Collection("cross_sell_rules").DeleteMany(ctx, bson.M{
			"restaurantId": restaurantID,
			"$or":          []bson.M{{"triggerCategoryId": id}, {"suggestCategoryId": id}},
		}); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		c.Status(http.StatusNoContent)
	}
}
