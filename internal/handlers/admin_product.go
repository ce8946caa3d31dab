package handlers

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"cheffnex/internal/models"
	"cheffnex/internal/money"
)

type ProductRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	SellPrice   *float64 `json:"sellPrice"`
	PromoPrice  *float64 `json:"promoPrice"`
	ClearPromo  bool     `json:"clearPromo"`
	CategoryID  *string  `json:"categoryId"`
	Badge       *string  `json:"badge"`
	IsActive    *bool    `json:"isActive"`
	IsFeatured  *bool    `json:"isFeatured"`
}

// input maps the JSON body onto the multipart shape so both content types
// share one code path.
func (r ProductRequest) input() MultipartProductInput {
	in := MultipartProductInput{ClearPromo: r.ClearPromo}
	if r.Name != nil {
		in.Name, in.NameSet = strings.TrimSpace(*r.Name), true
	}
	if r.Description != nil {
		in.Description, in.DescriptionSet = strings.TrimSpace(*r.Description), true
	}
	if r.SellPrice != nil {
		in.SellPrice, in.SellPriceSet = *r.SellPrice, true
	}
	if r.PromoPrice != nil && !r.ClearPromo {
		in.PromoPrice, in.PromoPriceSet = *r.PromoPrice, true
	}
	if r.CategoryID != nil {
		in.CategoryID, in.CategoryIDSet = strings.TrimSpace(*r.CategoryID), true
	}
	if r.Badge != nil {
		in.Badge, in.BadgeSet = strings.TrimSpace(*r.Badge), true
	}
	if r.IsActive != nil {
		in.IsActive, in.IsActiveSet = *r.IsActive, true
	}
	if r.IsFeatured != nil {
		in.IsFeatured, in.IsFeaturedSet = *r.IsFeatured, true
	}
	return in
}

func readProductInput(c *gin.Context, uploads Uploads) (MultipartProductInput, bool) {
	if strings.HasPrefix(c.GetHeader("Content-Type"), "multipart/form-data") {
		input, err := parseMultipartProductRequest(c, uploads)
		if err != nil {
			respondMultipartError(c, err)
			return MultipartProductInput{}, false
		}
		return input, true
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return MultipartProductInput{}, false
	}
	return req.input(), true
}

// ownedCategory checks that categoryID names a category of restaurantID.
func ownedCategory(ctx context.Context, db *mongo.Database, restaurantID primitive.ObjectID, raw string) (primitive.ObjectID, error) {
	categoryID, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, errors.New("invalid categoryId")
	}
	count, err := db.Collection("categories").CountDocuments(ctx, bson.M{"_id": categoryID, "restaurantId": restaurantID})
	if err != nil {
		return primitive.NilObjectID, err
	}
	if count == 0 {
		return primitive.NilObjectID, errors.New("category not found")
	}
	return categoryID, nil
}

func decodeProducts(ctx context.Context, cursor *mongo.Cursor) ([]models.Product, error) {
	products := make([]models.Product, 0)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	for i := range products {
		products[i].IsOnPromo = money.IsOnPromo(products[i].SellPrice, products[i].PromoPrice)
	}
	return products, nil
}

/*
GET /admin/api/products
- ?categoryId, ?isActive, ?search
*/
func GetAllProducts(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/products"
		defer handlePanic(c, route)

		restaurantID, ok := staffRestaurant(c, route)
		if !ok {
			return
		}

		filter := bson.M{"restaurantId": restaurantID}

		if raw := strings.TrimSpace(c.Query("categoryId")); raw != "" {
			categoryID, err := primitive.ObjectIDFromHex(raw)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, "invalid categoryId")
				return
			}
			filter["categoryId"] = categoryID
		}
		if isActive := strings.TrimSpace(c.Query("isActive")); isActive != "" {
			filter["isActive"] = strings.EqualFold(isActive, "true")
		}
		if search := strings.TrimSpace(c.Query("search")); search != "" {
			filter["name"] = bson.M{"$regex": primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}}
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
		cursor, err := db.Collection("products").Find(ctx, filter, opts)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		defer cursor.Close(ctx)

		products, err := decodeProducts(ctx, cursor)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "decode error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": products})
	}
}

/*
POST /admin/api/products
- multipart/form-data (image optional) or JSON
*/
func CreateProduct(db *mongo.Database, uploads Uploads) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /admin/api/products"
		defer handlePanic(c, route)

		restaurantID, ok := staffRestaurant(c, route)
		if !ok {
			return
		}
		input, ok := readProductInput(c, uploads)
		if !ok {
			return
		}
		// an image saved during parsing is orphaned if the product is refused
		discard := func() {
			if input.ImageSet {
				_ = uploads.Delete(input.ImageURL)
			}
		}

		if !input.NameSet || input.Name == "" {
			discard()
			respondWithError(c, http.StatusBadRequest, route, "name required")
			return
		}
		if !input.SellPriceSet {
			discard()
			respondWithError(c, http.StatusBadRequest, route, "sellPrice required")
			return
		}
		var promo *float64
		if input.PromoPriceSet {
			promo = &input.PromoPrice
		}
		if err := money.ValidatePromo(input.SellPrice, promo); err != nil {
			discard()
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		product := models.Product{
			RestaurantID: restaurantID,
			Name:         input.Name,
			Description:  input.Description,
			SellPrice:    input.SellPrice,
			PromoPrice:   promo,
			ImageURL:     input.ImageURL,
			Badge:        input.Badge,
			IsActive:     true,
			IsFeatured:   input.IsFeatured,
			CreatedAt:    time.Now(),
		}
		if input.IsActiveSet {
			product.IsActive = input.IsActive
		}
		if input.CategoryIDSet && input.CategoryID != "" {
			categoryID, err := ownedCategory(ctx, db, restaurantID, input.CategoryID)
			if err != nil {
				discard()
				respondWithError(c, http.StatusBadRequest, route, err.Error())
				return
			}
			product.CategoryID = categoryID
		}

		res, err := db.Collection("products").InsertOne(ctx, product)
		if err != nil {
			discard()
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		product.ID = res.InsertedID.(primitive.ObjectID)
		product.IsOnPromo = money.IsOnPromo(product.SellPrice, product.PromoPrice)
		zap.L().Info("product created", zap.String("productId", product.ID.Hex()), zap.String("restaurantId", restaurantID.Hex()))
		c.JSON(http.StatusCreated, product)
	}
}

/*
PUT /admin/api/products/:id
- partial update, ?removeImage=true drops the current image
*/
func UpdateProduct(db *mongo.Database, uploads Uploads) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/api/products/:id"
		defer handlePanic(c, route)

		restaurantID, ok := staffRestaurant(c, route)
		if !ok {
			return
		}
		id, ok := paramID(c, route, "id")
		if !ok {
			return
		}

		removeImage := false
		if removeRaw := strings.TrimSpace(c.Query("removeImage")); removeRaw != "" {
			parsed, err := strconv.ParseBool(removeRaw)
			if err != nil {
				respondWithError(c, http.StatusBadRequest, route, "removeImage must be boolean")
				return
			}
			removeImage = parsed
		}

		input, ok := readProductInput(c, uploads)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		scope := bson.M{"_id": id, "restaurantId": restaurantID}

		var existing models.Product
		err := db.Collection("products").FindOne(ctx, scope).Decode(&existing)
		if errors.Is(err, mongo.ErrNoDocuments) {
			respondWithError(c, http.StatusNotFound, route, "product not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		updateSet := bson.M{}
		updateUnset := bson.M{}

		if input.NameSet {
			if input.Name == "" {
				respondWithError(c, http.StatusBadRequest, route, "name required")
				return
			}
			updateSet["name"] = input.Name
		}
		if input.DescriptionSet {
			updateSet["description"] = input.Description
		}
		if input.BadgeSet {
			updateSet["badge"] = input.Badge
		}
		if input.IsActiveSet {
			updateSet["isActive"] = input.IsActive
		}
		if input.IsFeaturedSet {
			updateSet["isFeatured"] = input.IsFeatured
		}
		if input.CategoryIDSet {
			if input.CategoryID == "" {
				updateUnset["categoryId"] = ""
			} else {
				categoryID, err := ownedCategory(ctx, db, restaurantID, input.CategoryID)
				if err != nil {
					respondWithError(c, http.StatusBadRequest, route, err.Error())
					return
				}
				updateSet["categoryId"] = categoryID
			}
		}

		priceInput := promoUpdateInput{ClearPromo: input.ClearPromo}
		if input.SellPriceSet {
			priceInput.SellPrice = &input.SellPrice
		}
		if input.PromoPriceSet {
			priceInput.PromoPrice = &input.PromoPrice
		}
		prices, err := resolvePromoUpdate(existing.SellPrice, existing.PromoPrice, priceInput)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}
		if prices.SetSellPrice {
			updateSet["sellPrice"] = prices.SellPrice
		}
		if prices.SetPromo {
			updateSet["promoPrice"] = *prices.PromoPrice
		}
		if prices.UnsetPromo {
			updateUnset["promoPrice"] = ""
		}

		oldImage := strings.TrimSpace(existing.ImageURL)
		switch {
		case input.ImageSet:
			updateSet["imageUrl"] = input.ImageURL
		case removeImage:
			updateUnset["imageUrl"] = ""
		}

		if len(updateSet) == 0 && len(updateUnset) == 0 {
			respondWithError(c, http.StatusBadRequest, route, "no fields to update")
			return
		}

		update := bson.M{}
		if len(updateSet) > 0 {
			update["$set"] = updateSet
		}
		if len(updateUnset) > 0 {
			update["$unset"] = updateUnset
		}

		var updated models.Product
		err = db.Collection("products").FindOneAndUpdate(
			ctx,
			scope,
			update,
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&updated)
		if errors.Is(err, mongo.ErrNoDocuments) {
			respondWithError(c, http.StatusNotFound, route, "product not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if oldImage != "" && (input.ImageSet || removeImage) {
			if err := uploads.Delete(oldImage); err != nil {
				zap.L().Warn("old product image not removed", zap.String("route", route), zap.Error(err))
			}
		}

		updated.IsOnPromo = money.IsOnPromo(updated.SellPrice, updated.PromoPrice)
		c.JSON(http.StatusOK, updated)
	}
}

/*
DELETE /admin/api/products/:id
- removes the product with its extras and recipe lines
*/
func DeleteProduct(db *mongo.Database, uploads Uploads) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /admin/api/products/:id"
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

		var existing models.Product
		err := db.Collection("products").FindOneAndDelete(ctx, bson.M{"_id": id, "restaurantId": restaurantID}).Decode(&existing)
		if errors.Is(err, mongo.ErrNoDocuments) {
			respondWithError(c, http.StatusNotFound, route, "product not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		if _, err := db.Collection("extras").DeleteMany(ctx, bson.M{"productId": id}); err != nil {
			zap.L().Warn("product extras not removed", zap.String("productId", id.Hex()), zap.Error(err))
		}
		if _, err := db.Collection("recipes").DeleteMany(ctx, bson.M{"productId": id}); err != nil {
			zap.L().Warn("product recipes not removed", zap.String("productId", id.Hex()), zap.Error(err))
		}
		if err := uploads.Delete(existing.ImageURL); err != nil {
			zap.L().Warn("product image not removed", zap.String("productId", id.Hex()), zap.Error(err))
		}

		c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
	}
}
