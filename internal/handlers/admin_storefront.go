package handlers

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"cheffnex/internal/models"
	"cheffnex/internal/repository"
)

var (
	hexColorPattern  = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	clockTimePattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
)

// storefrontFields are the restaurant fields staff may edit, keyed by their
// bson name.
var storefrontFields = []string{
	"name", "document", "phone", "primaryColor", "nameColor",
	"promoBannerText", "openTime", "closeTime",
}

// storefrontUpdate validates the submitted fields and returns the $set body.
func storefrontUpdate(values map[string]string) (bson.M, error) {
	set := bson.M{}
	for _, field := range storefrontFields {
		raw, ok := values[field]
		if !ok {
			continue
		}
		value := strings.TrimSpace(raw)
		switch field {
		case "name":
			if value == "" {
				return nil, errors.New("name cannot be empty")
			}
		case "phone":
			if value != "" && len(digitsIn(value)) < 10 {
				return nil, errors.New("phone must have at least 10 digits")
			}
		case "primaryColor", "nameColor":
			if value != "" && !hexColorPattern.MatchString(value) {
				return nil, errors.New(field + " must be a #RRGGBB color")
			}
		case "openTime", "closeTime":
			if value != "" && !clockTimePattern.MatchString(value) {
				return nil, errors.New(field + " must be HH:MM")
			}
		}
		set[field] = value
	}
	return set, nil
}

func digitsIn(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func GetStorefront(menu Menu) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/storefront"
		defer handlePanic(c, route)

		restaurantID, ok := staffRestaurant(c, route)
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		restaurant, err := menu.Restaurant(ctx, restaurantID)
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

/*
PUT /admin/api/storefront
- JSON, or multipart with optional logo and banner files
*/
func UpdateStorefront(db *mongo.Database, uploads Uploads) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /admin/api/storefront"
		defer handlePanic(c, route)

		restaurantID, ok := staffRestaurant(c, route)
		if !ok {
			return
		}

		values := map[string]string{}
		var isOpen *bool
		images := map[string]string{}

		if strings.HasPrefix(c.GetHeader("Content-Type"), "multipart/form-data") {
			if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
				respondMultipartError(c, err)
				return
			}
			for _, field := range storefrontFields {
				if value, ok := lastPostForm(c, field); ok {
					values[field] = value
				}
			}
			if raw, ok := lastPostForm(c, "isOpen"); ok {
				parsed, err := parseBoolValue(raw)
				if err != nil {
					respondWithError(c, http.StatusBadRequest, route, "isOpen must be boolean")
					return
				}
				isOpen = &parsed
			}
			for form, field := range map[string]string{"logo": "logoUrl", "banner": "bannerUrl"} {
				file, err := c.FormFile(form)
				if errors.Is(err, http.ErrMissingFile) {
					continue
				}
				if err == nil {
					var url string
					url, err = uploads.Save(file, "storefront")
					images[field] = url
				}
				if err != nil {
					for _, saved := range images {
						_ = uploads.Delete(saved)
					}
					respondMultipartError(c, err)
					return
				}
			}
		} else {
			var body map[string]interface{}
			if err := c.ShouldBindJSON(&body); err != nil {
				respondValidationError(c, err)
				return
			}
			for _, field := range storefrontFields {
				raw, ok := body[field]
				if !ok {
					continue
				}
				value, ok := raw.(string)
				if !ok {
					respondWithError(c, http.StatusBadRequest, route, field+" must be a string")
					return
				}
				values[field] = value
			}
			if raw, ok := body["isOpen"]; ok {
				parsed, ok := raw.(bool)
				if !ok {
					respondWithError(c, http.StatusBadRequest, route, "isOpen must be boolean")
					return
				}
				isOpen = &parsed
			}
		}

		set, err := storefrontUpdate(values)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, err.Error())
			return
		}
		if isOpen != nil {
			set["isOpen"] = *isOpen
		}
		for field, url := range images {
			set[field] = url
		}
		if len(set) == 0 {
			respondWithError(c, http.StatusBadRequest, route, "no fields to update")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		var previous models.Restaurant
		err = db.Collection("restaurants").FindOneAndUpdate(
			ctx,
			bson.M{"_id": restaurantID},
			bson.M{"$set": set},
			options.FindOneAndUpdate().SetReturnDocument(options.Before),
		).Decode(&previous)
		if errors.Is(err, mongo.ErrNoDocuments) {
			respondWithError(c, http.StatusNotFound, route, "restaurant not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		old := map[string]string{"logoUrl": previous.LogoURL, "bannerUrl": previous.BannerURL}
		for field := range images {
			if err := uploads.Delete(old[field]); err != nil {
				zap.L().Warn("old storefront image not removed", zap.String("field", field), zap.Error(err))
			}
		}

		var updated models.Restaurant
		if err := db.Collection("restaurants").FindOne(ctx, bson.M{"_id": restaurantID}).Decode(&updated); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}
